package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/decred/slog"
	"github.com/gorilla/websocket"

	"github.com/Gustavogamboa96/reymato-server/protocol"
	"github.com/Gustavogamboa96/reymato-server/reygame"
)

// ProtocolVersion is the hello version this server speaks.
const ProtocolVersion = 1

// Config holds the transport-level settings.
type Config struct {
	// Addr is the HTTP listen address, e.g. ":8080".
	Addr string

	// DefaultRoom is joined when the client names no room.
	DefaultRoom string
}

func (c Config) withDefaults() Config {
	if c.Addr == "" {
		c.Addr = ":8080"
	}
	if c.DefaultRoom == "" {
		c.DefaultRoom = "plaza"
	}
	return c
}

// Server exposes the rooms over websocket plus the two plain HTTP probes.
type Server struct {
	cfg   Config
	log   slog.Logger
	rooms *reygame.Manager

	httpServer *http.Server
	upgrader   websocket.Upgrader
}

func NewServer(cfg Config, rooms *reygame.Manager, log slog.Logger) *Server {
	if log == nil {
		log = slog.Disabled
	}
	s := &Server{
		cfg:   cfg.withDefaults(),
		log:   log,
		rooms: rooms,
		upgrader: websocket.Upgrader{
			// Browser clients connect from anywhere. Lock this down when a
			// canonical web origin exists.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWS)
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/rooms", s.handleRooms)
	s.httpServer = &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Handler exposes the HTTP mux so callers can mount or test the server
// without binding a listener.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Run serves until the context is canceled, then drains connections and
// stops every room.
func (s *Server) Run(ctx context.Context) error {
	errC := make(chan error, 1)
	go func() {
		s.log.Infof("listening on %s", s.cfg.Addr)
		err := s.httpServer.ListenAndServe()
		if err != nil && err != http.ErrServerClosed {
			errC <- err
			return
		}
		errC <- nil
	}()

	select {
	case err := <-errC:
		return err
	case <-ctx.Done():
	}

	s.log.Infof("shutting down")
	shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := s.httpServer.Shutdown(shutCtx)
	s.rooms.Shutdown()
	if err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok\n"))
}

func (s *Server) handleRooms(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(s.rooms.List()); err != nil {
		s.log.Errorf("rooms listing: %v", err)
	}
}

// handleWS upgrades the connection, waits for the hello frame and hands the
// client to its room. The socket read loop runs on this goroutine until the
// client disconnects.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Debugf("upgrade from %s: %v", r.RemoteAddr, err)
		return
	}
	conn := newWSConn(ws, s.log)

	roomID := r.URL.Query().Get("room")
	if roomID == "" {
		roomID = s.cfg.DefaultRoom
	}
	nick := r.URL.Query().Get("nick")

	// The first frame must be the hello; its nick wins over the query
	// parameter.
	hello, err := s.readHello(ws)
	if err != nil {
		s.log.Debugf("ws %s: no hello: %v", r.RemoteAddr, err)
		_ = conn.Close()
		return
	}
	if hello.Nick != "" {
		nick = hello.Nick
	}

	room := s.rooms.GetOrCreate(roomID)
	reply := make(chan reygame.JoinResult, 1)
	select {
	case room.Inbox <- reygame.Join{Conn: conn, Nick: nick, Reply: reply}:
	case <-room.Done():
		s.log.Debugf("ws %s: room %s stopped before join", r.RemoteAddr, roomID)
		_ = conn.Close()
		return
	}
	var res reygame.JoinResult
	select {
	case res = <-reply:
	case <-room.Done():
		// The room shut down between our lookup and the join being
		// serviced; its drain closes pending joiners.
		s.log.Debugf("ws %s: room %s stopped during join", r.RemoteAddr, roomID)
		_ = conn.Close()
		return
	}

	s.log.Infof("client %s joined room %s as %s", r.RemoteAddr, roomID, res.Nick)
	s.readLoop(room, conn, res.PlayerID)
}

func (s *Server) readHello(ws *websocket.Conn) (protocol.Hello, error) {
	_, b, err := ws.ReadMessage()
	if err != nil {
		return protocol.Hello{}, err
	}
	env, err := protocol.DecodeEnvelope(b)
	if err != nil {
		return protocol.Hello{}, err
	}
	if env.T != protocol.MsgHello {
		return protocol.Hello{}, fmt.Errorf("expected %s frame, got %s", protocol.MsgHello, env.T)
	}
	hello, err := protocol.DecodePayload[protocol.Hello](env)
	if err != nil {
		return protocol.Hello{}, err
	}
	if hello.V != ProtocolVersion {
		return protocol.Hello{}, fmt.Errorf("unsupported protocol version %d", hello.V)
	}
	return hello, nil
}

// readLoop pumps client frames into the room until the socket dies, then
// issues the leave.
func (s *Server) readLoop(room *reygame.Room, conn *wsConn, playerID string) {
	defer func() {
		select {
		case room.Inbox <- reygame.Leave{PlayerID: playerID}:
		case <-room.Done():
		}
	}()
	for {
		_, b, err := conn.ws.ReadMessage()
		if err != nil {
			s.log.Debugf("ws %s: read: %v", conn.ws.RemoteAddr(), err)
			return
		}
		env, err := protocol.DecodeEnvelope(b)
		if err != nil {
			s.log.Debugf("ws %s: bad frame: %v", conn.ws.RemoteAddr(), err)
			continue
		}
		switch env.T {
		case protocol.MsgInput:
			in, err := protocol.DecodePayload[protocol.Input](env)
			if err != nil {
				continue
			}
			select {
			case room.Inbox <- reygame.Input{PlayerID: playerID, Input: in}:
			case <-room.Done():
				return
			}
		case protocol.MsgRematch:
			select {
			case room.Inbox <- reygame.Rematch{PlayerID: playerID}:
			case <-room.Done():
				return
			}
		default:
			s.log.Debugf("ws %s: unexpected frame type %s", conn.ws.RemoteAddr(), env.T)
		}
	}
}
