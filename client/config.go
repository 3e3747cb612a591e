package client

import (
	"fmt"
	"net/url"

	"github.com/decred/slog"
)

// Config wires a client to one room on one server.
type Config struct {
	// ServerAddr is the host:port of the server, without a scheme.
	ServerAddr string
	// Room to join; the server default when empty.
	Room string
	// Nick to play under; server-assigned when empty.
	Nick string

	Log slog.Logger
}

func (c *Config) validate() error {
	if c.ServerAddr == "" {
		return fmt.Errorf("client must have a server address")
	}
	if c.Log == nil {
		c.Log = slog.Disabled
	}
	return nil
}

// wsURL builds the websocket endpoint for the configured room.
func (c *Config) wsURL() string {
	u := url.URL{Scheme: "ws", Host: c.ServerAddr, Path: "/ws"}
	q := u.Query()
	if c.Room != "" {
		q.Set("room", c.Room)
	}
	if c.Nick != "" {
		q.Set("nick", c.Nick)
	}
	u.RawQuery = q.Encode()
	return u.String()
}
