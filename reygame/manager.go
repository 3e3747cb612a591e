package reygame

import (
	"sync"

	"github.com/decred/slog"

	"github.com/Gustavogamboa96/reymato-server/physics"
)

// AdapterFactory builds a fresh physics adapter for a new room.
type AdapterFactory func() physics.Adapter

// RoomInfo is one row of the room listing.
type RoomInfo struct {
	ID        string `json:"id"`
	Occupancy int    `json:"occupancy"`
}

// Manager tracks live rooms by id and starts their goroutines on demand.
type Manager struct {
	mu    sync.Mutex
	rooms map[string]*Room

	newAdapter AdapterFactory
	cfg        Config
	log        slog.Logger
}

func NewManager(newAdapter AdapterFactory, cfg Config, log slog.Logger) *Manager {
	if log == nil {
		log = slog.Disabled
	}
	return &Manager{
		rooms:      make(map[string]*Room),
		newAdapter: newAdapter,
		cfg:        cfg,
		log:        log,
	}
}

// GetOrCreate returns the room with the given id, creating and starting it
// if needed.
func (m *Manager) GetOrCreate(id string) *Room {
	m.mu.Lock()
	defer m.mu.Unlock()

	if r, ok := m.rooms[id]; ok {
		return r
	}
	r := NewRoom(id, m.newAdapter(), m.cfg, m.log)
	r.OnEmpty = m.removeEmpty
	m.rooms[id] = r
	go r.Run()
	m.log.Infof("room %s created", id)
	return r
}

// removeEmpty runs on the room goroutine when its last client leaves.
func (m *Manager) removeEmpty(id string) {
	m.mu.Lock()
	r, ok := m.rooms[id]
	if ok {
		delete(m.rooms, id)
	}
	m.mu.Unlock()
	if ok {
		r.Stop()
		m.log.Infof("room %s removed, no clients left", id)
	}
}

// List snapshots the live rooms.
func (m *Manager) List() []RoomInfo {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]RoomInfo, 0, len(m.rooms))
	for id, r := range m.rooms {
		out = append(out, RoomInfo{ID: id, Occupancy: r.Occupancy()})
	}
	return out
}

// Shutdown stops every room.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	rooms := make([]*Room, 0, len(m.rooms))
	for _, r := range m.rooms {
		rooms = append(rooms, r)
	}
	m.rooms = make(map[string]*Room)
	m.mu.Unlock()

	for _, r := range rooms {
		r.Stop()
	}
}
