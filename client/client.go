package client

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/decred/slog"
	"github.com/gorilla/websocket"

	"github.com/Gustavogamboa96/reymato-server/protocol"
)

// protocolVersion sent on the hello frame.
const protocolVersion = 1

// Client is one websocket connection to a room. State patches and discrete
// events arrive on buffered channels; when a reader lags, stale state
// patches are dropped in favor of the newest.
type Client struct {
	sync.Mutex
	ID   string
	Nick string
	Room string

	ws  *websocket.Conn
	cfg *Config
	log slog.Logger

	StateCh  chan protocol.State
	EventCh  chan protocol.Event
	ErrorsCh chan error
}

// New dials the server, performs the hello handshake and waits for the
// welcome carrying the assigned identity.
func New(cfg *Config) (*Client, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	ws, _, err := dialer.Dial(cfg.wsURL(), nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", cfg.ServerAddr, err)
	}

	c := &Client{
		ws:       ws,
		cfg:      cfg,
		log:      cfg.Log,
		StateCh:  make(chan protocol.State, 8),
		EventCh:  make(chan protocol.Event, 64),
		ErrorsCh: make(chan error, 1),
	}

	if err := c.send(protocol.MsgHello, protocol.Hello{V: protocolVersion, Nick: cfg.Nick}); err != nil {
		_ = ws.Close()
		return nil, fmt.Errorf("hello: %w", err)
	}
	welcome, err := c.awaitWelcome()
	if err != nil {
		_ = ws.Close()
		return nil, err
	}
	c.ID = welcome.PlayerID
	c.Nick = welcome.Nick
	c.Room = welcome.RoomID
	c.log.Infof("joined room %s as %s (%s)", c.Room, c.Nick, c.ID)
	return c, nil
}

func (c *Client) awaitWelcome() (protocol.Welcome, error) {
	_ = c.ws.SetReadDeadline(time.Now().Add(10 * time.Second))
	defer c.ws.SetReadDeadline(time.Time{})

	_, b, err := c.ws.ReadMessage()
	if err != nil {
		return protocol.Welcome{}, fmt.Errorf("awaiting welcome: %w", err)
	}
	env, err := protocol.DecodeEnvelope(b)
	if err != nil {
		return protocol.Welcome{}, err
	}
	if env.T != protocol.MsgWelcome {
		return protocol.Welcome{}, fmt.Errorf("expected %s, got %s", protocol.MsgWelcome, env.T)
	}
	return protocol.DecodePayload[protocol.Welcome](env)
}

// Run pumps server frames into the channels until the context is canceled
// or the connection dies. The terminal error lands on ErrorsCh.
func (c *Client) Run(ctx context.Context) {
	go func() {
		<-ctx.Done()
		_ = c.ws.Close()
	}()

	for {
		_, b, err := c.ws.ReadMessage()
		if err != nil {
			select {
			case c.ErrorsCh <- err:
			default:
			}
			return
		}
		env, err := protocol.DecodeEnvelope(b)
		if err != nil {
			c.log.Debugf("bad frame: %v", err)
			continue
		}
		switch env.T {
		case protocol.MsgState:
			st, err := protocol.DecodePayload[protocol.State](env)
			if err != nil {
				continue
			}
			for {
				select {
				case c.StateCh <- st:
				default:
					// Full buffer: shed the oldest patch.
					select {
					case <-c.StateCh:
					default:
					}
					continue
				}
				break
			}
		case protocol.MsgEvent:
			ev, err := protocol.DecodePayload[protocol.Event](env)
			if err != nil {
				continue
			}
			select {
			case c.EventCh <- ev:
			default:
				c.log.Debugf("event buffer full, dropped %s", ev.Type)
			}
		}
	}
}

// SendInput ships the current intent to the server.
func (c *Client) SendInput(in protocol.Input) error {
	return c.send(protocol.MsgInput, in)
}

// RequestRematch asks for a fresh match after matchEnd.
func (c *Client) RequestRematch() error {
	return c.send(protocol.MsgRematch, struct{}{})
}

func (c *Client) send(t string, payload any) error {
	b, err := protocol.Encode(t, payload)
	if err != nil {
		return err
	}
	c.Lock()
	defer c.Unlock()
	_ = c.ws.SetWriteDeadline(time.Now().Add(10 * time.Second))
	return c.ws.WriteMessage(websocket.TextMessage, b)
}

func (c *Client) Close() error {
	return c.ws.Close()
}
