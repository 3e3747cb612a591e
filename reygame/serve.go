package reygame

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/Gustavogamboa96/reymato-server/protocol"
)

// Serve protocol: WaitingForServe until the rey serves (or a contact action
// puts the ball in play), then InPlay until the next penalty or fault.

// rearmServe resets the rally and returns the room to WaitingForServe with
// the rey as server. The ball is parked at court center.
func (r *Room) rearmServe() {
	r.state.Serve.CurrentServer = RoleRey
	r.state.Serve.WaitingForServe = true
	r.state.Ball.LastBounceOnRole = RoleNone
	r.state.Ball.BounceCount = 0
	r.state.Ball.LastTouchedBy = ""

	rest := mgl64.Vec3{0, ServeHeight, 0}
	r.phys.SetPosition(r.state.Ball.Body, rest)
	r.phys.SetVelocity(r.state.Ball.Body, mgl64.Vec3{})
	r.state.Ball.Pos = rest
	r.state.Ball.Vel = mgl64.Vec3{}

	ev := protocol.Event{Type: protocol.EventServeReady}
	if server := r.occupant(RoleRey); server != nil {
		ev.Server = server.ID
	}
	r.broadcastEvent(ev)
}

// serveTarget picks the target slot for the next serve: the fixed 3-cycle
// reto1 -> reto2 -> mato, skipping vacant slots, and leaves the cursor on
// the chosen slot's successor. With the whole cycle vacant the raw cursor
// target is used unchanged.
func (r *Room) serveTarget() Role {
	idx := r.state.Serve.NextTargetIndex
	for i := 0; i < len(serveTargetCycle); i++ {
		cand := serveTargetCycle[(idx+i)%len(serveTargetCycle)]
		if r.occupant(cand) != nil {
			r.state.Serve.NextTargetIndex = (idx + i + 1) % len(serveTargetCycle)
			return cand
		}
	}
	r.state.Serve.NextTargetIndex = (idx + 1) % len(serveTargetCycle)
	return serveTargetCycle[idx]
}

// serve repositions the ball over the server, aims it at the target
// quadrant's center and puts it in play. Callers have already checked the
// serve gate (server role, waiting flag).
func (r *Room) serve(p *Player) {
	target := r.serveTarget()

	start := mgl64.Vec3{p.Pos.X(), ServeHeight, p.Pos.Z()}
	r.phys.SetPosition(r.state.Ball.Body, start)
	r.phys.SetVelocity(r.state.Ball.Body, mgl64.Vec3{})
	r.state.Ball.Pos = start
	r.state.Ball.Vel = mgl64.Vec3{}

	dir := quadrantCenter(target).Sub(mgl64.Vec3{start.X(), 0, start.Z()})
	dir[1] = 0
	if dir.Len() > 0 {
		dir = dir.Normalize()
	}
	impulse := dir.Mul(ServeForwardScale).Add(mgl64.Vec3{0, ServeUpImpulse, 0})
	r.phys.ApplyImpulse(r.state.Ball.Body, impulse)

	r.state.Ball.LastTouchedBy = p.ID
	r.state.Serve.WaitingForServe = false

	r.log.Debugf("serve by %s toward %s", p.Nick, target)
	r.broadcastEvent(protocol.Event{
		Type:       protocol.EventServe,
		Server:     p.ID,
		ServerRole: p.Role.String(),
		TargetRole: target.String(),
	})
}
