package reygame

import "github.com/Gustavogamboa96/reymato-server/protocol"

// Conn is the room's view of a connected client. Send must not block the
// room goroutine; implementations drop frames instead.
type Conn interface {
	Send(b []byte) error
	Close() error
}

// Join registers a connection with the room. The reply carries the assigned
// player id.
type Join struct {
	Conn  Conn
	Nick  string
	Reply chan<- JoinResult
}

type JoinResult struct {
	PlayerID string
	Nick     string
}

// Input is the latest client intent for a player.
type Input struct {
	PlayerID string
	Input    protocol.Input
}

// Leave is issued on disconnect.
type Leave struct {
	PlayerID string
}

// Rematch asks for a fresh match after matchEnd. Ignored while a match is
// running.
type Rematch struct {
	PlayerID string
}
