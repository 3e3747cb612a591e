package server

import (
	"sync"
	"time"

	"github.com/decred/slog"
	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 25 * time.Second

	maxFrameSize = 1 << 20

	// Outbound buffer in frames. When full the oldest frame is dropped so a
	// slow reader only loses stale state, never stalls the room.
	sendBuf = 64
)

// wsConn adapts a websocket connection to the room's Conn interface. Send
// never blocks; a dedicated write pump owns all writes to the socket.
type wsConn struct {
	ws  *websocket.Conn
	log slog.Logger

	send chan []byte

	closeOnce sync.Once
	done      chan struct{}
}

func newWSConn(ws *websocket.Conn, log slog.Logger) *wsConn {
	c := &wsConn{
		ws:   ws,
		log:  log,
		send: make(chan []byte, sendBuf),
		done: make(chan struct{}),
	}
	ws.SetReadLimit(maxFrameSize)
	_ = ws.SetReadDeadline(time.Now().Add(pongWait))
	ws.SetPongHandler(func(string) error {
		return ws.SetReadDeadline(time.Now().Add(pongWait))
	})
	go c.writePump()
	return c
}

// Send queues a frame for the write pump, dropping the oldest queued frame
// when the buffer is full.
func (c *wsConn) Send(b []byte) error {
	select {
	case <-c.done:
		return websocket.ErrCloseSent
	default:
	}
	for {
		select {
		case c.send <- b:
			return nil
		default:
		}
		select {
		case <-c.send:
			c.log.Debugf("ws %s: send buffer full, dropped oldest frame",
				c.ws.RemoteAddr())
		default:
		}
	}
}

func (c *wsConn) Close() error {
	c.closeOnce.Do(func() { close(c.done) })
	return c.ws.Close()
}

// writePump serializes all socket writes: queued frames plus keepalive
// pings. It exits when the connection is closed.
func (c *wsConn) writePump() {
	ping := time.NewTicker(pingPeriod)
	defer ping.Stop()
	for {
		select {
		case <-c.done:
			return
		case b := <-c.send:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.TextMessage, b); err != nil {
				c.log.Debugf("ws %s: write: %v", c.ws.RemoteAddr(), err)
				_ = c.Close()
				return
			}
		case <-ping.C:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				_ = c.Close()
				return
			}
		}
	}
}
