package protocol

import (
	"encoding/json"
)

// Message type discriminators for the websocket envelope.
const (
	MsgHello   = "hello"
	MsgInput   = "input"
	MsgRematch = "rematch"
	MsgWelcome = "welcome"
	MsgState   = "state"
	MsgEvent   = "event"
)

// Fixed rates. The simulation runs at SimTickHz and state patches go out at
// PatchHz; they are equal today but kept separate on purpose.
const (
	SimTickHz = 30
	PatchHz   = 30
)

// Player action names carried on input messages.
const (
	ActionKick  = "kick"
	ActionHead  = "head"
	ActionServe = "serve"
)

// Envelope wraps every websocket frame in both directions.
type Envelope struct {
	T string          `json:"t"`
	P json.RawMessage `json:"p,omitempty"`
}

// Hello is the first client frame after connecting.
type Hello struct {
	V    int    `json:"v"`
	Nick string `json:"nick,omitempty"`
}

// Input carries one tick of client intent. Move components are each in
// [-1, 1]; Action is one of the Action constants or empty.
type Input struct {
	Move   [2]float32 `json:"move"`
	Jump   bool       `json:"jump,omitempty"`
	Action string     `json:"action,omitempty"`
}

// Welcome answers the hello with the assigned identity.
type Welcome struct {
	PlayerID string `json:"playerId"`
	RoomID   string `json:"roomId"`
	Nick     string `json:"nick"`
}

// RoleChange is one entry of a rolesRotated event.
type RoleChange struct {
	PlayerID string `json:"playerId"`
	OldRole  string `json:"oldRole"`
	NewRole  string `json:"newRole"`
}

// LeaderboardEntry is one row of the matchEnd leaderboard.
type LeaderboardEntry struct {
	Nickname   string  `json:"nickname"`
	TimeAsKing float64 `json:"timeAsKing"`
}

// Event is a discrete broadcast: serve, serveReady, quadrantHighlight,
// rolesRotated, elimination, demotion, matchStart, matchEnd, playerAnimation.
// Only the fields relevant to Type are set.
type Event struct {
	Type string `json:"type"`

	PlayerID   string `json:"playerId,omitempty"`
	PlayerName string `json:"playerName,omitempty"`
	Action     string `json:"action,omitempty"`

	Server     string `json:"server,omitempty"`
	ServerRole string `json:"serverRole,omitempty"`
	TargetRole string `json:"targetRole,omitempty"`

	Role     string `json:"role,omitempty"`
	Severity string `json:"severity,omitempty"`
	OldRole  string `json:"oldRole,omitempty"`

	Changes     []RoleChange       `json:"changes,omitempty"`
	Leaderboard []LeaderboardEntry `json:"leaderboard,omitempty"`
}

// Event type names.
const (
	EventPlayerAnimation   = "playerAnimation"
	EventServe             = "serve"
	EventServeReady        = "serveReady"
	EventQuadrantHighlight = "quadrantHighlight"
	EventRolesRotated      = "rolesRotated"
	EventElimination       = "elimination"
	EventDemotion          = "demotion"
	EventMatchStart        = "matchStart"
	EventMatchEnd          = "matchEnd"
)

// Highlight severities.
const (
	SeverityLow  = "low"
	SeverityHigh = "high"
)

// PlayerSnapshot mirrors one replicated player.
type PlayerSnapshot struct {
	ID         string  `json:"id"`
	Nick       string  `json:"nick"`
	Role       string  `json:"role"`
	Active     bool    `json:"active"`
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Z          float64 `json:"z"`
	VX         float64 `json:"vx"`
	VZ         float64 `json:"vz"`
	Jumping    bool    `json:"jumping,omitempty"`
	TimeAsKing float64 `json:"timeAsKing"`
}

// BallSnapshot mirrors the replicated ball.
type BallSnapshot struct {
	X             float64 `json:"x"`
	Y             float64 `json:"y"`
	Z             float64 `json:"z"`
	VX            float64 `json:"vx"`
	VY            float64 `json:"vy"`
	VZ            float64 `json:"vz"`
	LastTouchedBy string  `json:"lastTouchedBy,omitempty"`
	LastBounceOn  string  `json:"lastBounceOnRole,omitempty"`
	BounceCount   uint8   `json:"bounceCount"`
}

// ServeSnapshot mirrors the serve protocol scalars.
type ServeSnapshot struct {
	CurrentServer   string `json:"currentServer"`
	WaitingForServe bool   `json:"waitingForServe"`
}

// State is the full replicated state tree pushed at the patch rate.
type State struct {
	Tick         uint64           `json:"tick"`
	Elapsed      float64          `json:"elapsed"`
	MatchStarted bool             `json:"matchStarted"`
	MatchEnded   bool             `json:"matchEnded"`
	Serve        ServeSnapshot    `json:"serve"`
	Players      []PlayerSnapshot `json:"players"`
	Ball         BallSnapshot     `json:"ball"`
	Queue        []string         `json:"queue"`
}
