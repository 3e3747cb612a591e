package reygame

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/Gustavogamboa96/reymato-server/physics"
	"github.com/Gustavogamboa96/reymato-server/protocol"
)

// Role assignment and rotation. All slot and queue mutation in the room goes
// through the functions in this file so the partition invariant holds: at
// most one active player per slot, and the queue holds exactly the inactive
// players in FIFO order.

// occupant returns the active player holding the slot, or nil when vacant.
func (r *Room) occupant(role Role) *Player {
	for _, p := range r.state.Players {
		if p.Active && p.Role == role {
			return p
		}
	}
	return nil
}

func (r *Room) activeCount() int {
	n := 0
	for _, p := range r.state.Players {
		if p.Active {
			n++
		}
	}
	return n
}

// lowestFreeSlot returns the vacant slot closest to the top of the ladder,
// or RoleNone when the court is full.
func (r *Room) lowestFreeSlot() Role {
	for _, slot := range slotOrder {
		if r.occupant(slot) == nil {
			return slot
		}
	}
	return RoleNone
}

// activate seats a queued player into a slot and creates its body at the
// slot's quadrant center.
func (r *Room) activate(p *Player, slot Role) {
	spawn := quadrantCenter(slot).Add(mgl64.Vec3{0, PlayerRadius, 0})
	p.Body = r.phys.CreateBody(physics.KindPlayer, physics.Sphere(PlayerRadius), PlayerMass, spawn, physics.Material{})
	p.Pos = spawn
	p.Vel = mgl64.Vec3{}
	p.Active = true
	p.Role = slot
	p.Jumping = false
	if slot == RoleRey {
		p.kingSince = r.state.Elapsed
	}
	r.log.Debugf("player %s (%s) seated as %s", p.Nick, p.ID, slot)
}

// deactivate removes a player from the court: its reign is settled, any
// armed jump timer is invalidated, and the body is destroyed.
func (r *Room) deactivate(p *Player) {
	if p.Role == RoleRey {
		p.TimeAsKing = p.kingBase + (r.state.Elapsed - p.kingSince)
		p.kingBase = p.TimeAsKing
	}
	p.jumpArmed = false
	p.Jumping = false
	if p.Body != 0 {
		r.phys.RemoveBody(p.Body)
		p.Body = 0
	}
	p.Active = false
	p.Role = RoleQueued
}

// join creates a queued player and runs the vacancy fill check. Returns the
// new player.
func (r *Room) join(id, nick string) *Player {
	p := &Player{ID: id, Nick: nick, Role: RoleQueued}
	r.state.Players[id] = p
	r.state.Queue = append(r.state.Queue, id)
	r.fillVacancies()
	return p
}

// fillVacancies promotes queued players into free slots, top of the ladder
// first, until the court is full or the queue is empty. Runs after every
// join and may start the match.
func (r *Room) fillVacancies() {
	for len(r.state.Queue) > 0 && r.activeCount() < 4 {
		slot := r.lowestFreeSlot()
		if slot == RoleNone {
			break
		}
		r.promoteInto(slot)
	}
	r.checkMatchStart()
}

// promoteInto pops the queue head and seats it into the given slot. No-op on
// an empty queue.
func (r *Room) promoteInto(slot Role) *Player {
	if len(r.state.Queue) == 0 {
		return nil
	}
	id := r.state.Queue[0]
	r.state.Queue = r.state.Queue[1:]
	p := r.state.Players[id]
	if p == nil {
		return nil
	}
	r.activate(p, slot)
	return p
}

// promoteFromQueue seats the queue head into the bottom slot: the refill
// step after an elimination.
func (r *Room) promoteFromQueue() *Player {
	return r.promoteInto(RoleMato)
}

// eliminate deactivates the penalized bottom-slot occupant, re-enqueues it
// at the tail, and refills the slot from the queue head.
func (r *Room) eliminate(p *Player) {
	r.deactivate(p)
	r.state.Queue = append(r.state.Queue, p.ID)
	r.broadcastEvent(protocol.Event{
		Type:       protocol.EventElimination,
		PlayerID:   p.ID,
		PlayerName: p.Nick,
	})
	r.promoteFromQueue()
}

// demoteToQueue handles the bottom-slot penalty with nobody waiting: the
// occupant sits out, the slot stays vacant until the next join fills it.
func (r *Room) demoteToQueue(p *Player) {
	oldRole := p.Role
	r.deactivate(p)
	r.state.Queue = append(r.state.Queue, p.ID)
	r.broadcastEvent(protocol.Event{
		Type:       protocol.EventDemotion,
		PlayerID:   p.ID,
		PlayerName: p.Nick,
		OldRole:    oldRole.String(),
	})
}

// rotateForPenalty demotes a penalized reto occupant into the bottom slot
// and advances every challenger ranked below it one step up. The rey slot
// never moves. Broadcasts the full change set as one event.
func (r *Room) rotateForPenalty(p *Player) {
	pr := p.Role.rank()
	if pr <= 0 {
		return
	}

	var changes []protocol.RoleChange
	for rank := pr + 1; rank < len(slotOrder); rank++ {
		q := r.occupant(slotOrder[rank])
		if q == nil {
			continue
		}
		newRole := slotOrder[rank-1]
		changes = append(changes, protocol.RoleChange{
			PlayerID: q.ID,
			OldRole:  q.Role.String(),
			NewRole:  newRole.String(),
		})
		q.Role = newRole
	}
	changes = append(changes, protocol.RoleChange{
		PlayerID: p.ID,
		OldRole:  p.Role.String(),
		NewRole:  RoleMato.String(),
	})
	p.Role = RoleMato

	r.broadcastEvent(protocol.Event{Type: protocol.EventRolesRotated, Changes: changes})
}

// leave removes a player entirely. An active leaver is torn down like an
// elimination but is not re-enqueued; its slot is refilled from the queue.
func (r *Room) leave(id string) {
	p := r.state.Players[id]
	if p == nil {
		return
	}
	if p.Active {
		slot := p.Role
		r.deactivate(p)
		r.promoteInto(slot)
	} else {
		r.removeFromQueue(id)
	}
	delete(r.state.Players, id)
	r.log.Debugf("player %s (%s) left", p.Nick, id)
}

func (r *Room) removeFromQueue(id string) {
	for i, qid := range r.state.Queue {
		if qid == id {
			r.state.Queue = append(r.state.Queue[:i], r.state.Queue[i+1:]...)
			return
		}
	}
}

// checkMatchStart starts the match the instant all four slots are filled
// for the first time.
func (r *Room) checkMatchStart() {
	if r.state.MatchStarted || r.activeCount() < 4 {
		return
	}
	r.state.MatchStarted = true
	r.log.Infof("match started in room %s", r.ID)
	r.broadcastEvent(protocol.Event{Type: protocol.EventMatchStart})
	r.rearmServe()
}
