package reygame

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/Gustavogamboa96/reymato-server/physics"
	"github.com/Gustavogamboa96/reymato-server/protocol"
)

// Role is one of the four court slots, the queue, or none. The court ladder
// runs rey > reto1 > reto2 > mato; mato is the bottom slot.
type Role uint8

const (
	RoleNone Role = iota
	RoleRey
	RoleReto1
	RoleReto2
	RoleMato
	RoleQueued
)

// slotOrder lists the court slots in ladder order, rey first. Index in this
// slice is the slot's rank.
var slotOrder = [4]Role{RoleRey, RoleReto1, RoleReto2, RoleMato}

func (r Role) String() string {
	switch r {
	case RoleRey:
		return "rey"
	case RoleReto1:
		return "reto1"
	case RoleReto2:
		return "reto2"
	case RoleMato:
		return "mato"
	case RoleQueued:
		return "queued"
	}
	return "none"
}

// IsSlot reports whether the role is one of the four court slots.
func (r Role) IsSlot() bool {
	return r >= RoleRey && r <= RoleMato
}

// rank returns the ladder rank of a slot role: rey 0 .. mato 3.
func (r Role) rank() int {
	for i, s := range slotOrder {
		if s == r {
			return i
		}
	}
	return -1
}

// quadrantForPosition maps a horizontal position to the role owning that
// court quadrant. The mapping is fixed: rey (+x,+z), reto1 (-x,+z),
// reto2 (-x,-z), mato (+x,-z).
func quadrantForPosition(x, z float64) Role {
	switch {
	case x >= 0 && z >= 0:
		return RoleRey
	case x < 0 && z >= 0:
		return RoleReto1
	case x < 0 && z < 0:
		return RoleReto2
	default:
		return RoleMato
	}
}

// quadrantCenter returns the center point of a slot's quadrant at ground
// level.
func quadrantCenter(r Role) mgl64.Vec3 {
	qx, qz := CourtHalfX/2, CourtHalfZ/2
	switch r {
	case RoleRey:
		return mgl64.Vec3{qx, 0, qz}
	case RoleReto1:
		return mgl64.Vec3{-qx, 0, qz}
	case RoleReto2:
		return mgl64.Vec3{-qx, 0, -qz}
	case RoleMato:
		return mgl64.Vec3{qx, 0, -qz}
	}
	return mgl64.Vec3{}
}

// Player is the replicated per-player state plus the ownership link to its
// physics body. A body exists iff the player is active.
type Player struct {
	ID   string
	Nick string

	Role       Role
	Active     bool
	Pos        mgl64.Vec3
	Vel        mgl64.Vec3
	Jumping    bool
	TimeAsKing float64

	Body physics.BodyHandle

	// Jump shaping: extra downward acceleration applied while airborne, and
	// the tick it expires. Polled by the room tick rather than a deferred
	// timer; deactivate clears it, so a removed player can never be touched
	// by a stale arm.
	jumpArmed   bool
	jumpExtraG  float64
	jumpExpires uint64

	// Reign bookkeeping for the 1 Hz clock: elapsed seconds accumulated in
	// earlier reigns, and the elapsed value when the current reign began.
	kingBase  float64
	kingSince float64
}

// Marshal renders the player for the replicated state tree.
func (p *Player) Marshal() protocol.PlayerSnapshot {
	return protocol.PlayerSnapshot{
		ID:         p.ID,
		Nick:       p.Nick,
		Role:       p.Role.String(),
		Active:     p.Active,
		X:          p.Pos.X(),
		Y:          p.Pos.Y(),
		Z:          p.Pos.Z(),
		VX:         p.Vel.X(),
		VZ:         p.Vel.Z(),
		Jumping:    p.Jumping,
		TimeAsKing: p.TimeAsKing,
	}
}

// Ball is the replicated singleton ball. Its body lives for the lifetime of
// the room.
type Ball struct {
	Pos mgl64.Vec3
	Vel mgl64.Vec3

	LastTouchedBy    string
	LastBounceOnRole Role
	BounceCount      uint8
	LastBounceTime   float64

	Body physics.BodyHandle
}

func (b *Ball) Marshal() protocol.BallSnapshot {
	snap := protocol.BallSnapshot{
		X:             b.Pos.X(),
		Y:             b.Pos.Y(),
		Z:             b.Pos.Z(),
		VX:            b.Vel.X(),
		VY:            b.Vel.Y(),
		VZ:            b.Vel.Z(),
		LastTouchedBy: b.LastTouchedBy,
		BounceCount:   b.BounceCount,
	}
	if b.LastBounceOnRole != RoleNone {
		snap.LastBounceOn = b.LastBounceOnRole.String()
	}
	return snap
}

// ServeState gates who may put the ball in play. The server is always the
// rey slot.
type ServeState struct {
	CurrentServer   Role
	WaitingForServe bool
	NextTargetIndex int
}

// serveTargetCycle is the fixed 3-element serve target order, advanced on
// every serve.
var serveTargetCycle = [3]Role{RoleReto1, RoleReto2, RoleMato}

// State is the plain data holder for one room: mutated only from the room
// goroutine, and only through the role management API where slots or the
// queue are involved.
type State struct {
	Players map[string]*Player
	Queue   []string
	Ball    Ball
	Serve   ServeState

	MatchStarted bool
	MatchEnded   bool
	Elapsed      float64
	Tick         uint64
}
