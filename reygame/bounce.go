package reygame

import (
	"github.com/Gustavogamboa96/reymato-server/protocol"
)

// Bounce counting and penalty adjudication, driven by ball-ground contacts
// delivered from inside the physics step.

// onBallGroundBounce is the collision handler for the ball-ground pair. Two
// consecutive bounces in the same quadrant penalize that quadrant's
// occupant; a bounce anywhere else restarts the count.
func (r *Room) onBallGroundBounce() {
	if !r.state.MatchStarted || r.state.MatchEnded || r.state.Serve.WaitingForServe {
		return
	}

	pos := r.phys.Position(r.state.Ball.Body)
	quad := quadrantForPosition(pos.X(), pos.Z())

	if quad == r.state.Ball.LastBounceOnRole {
		r.state.Ball.BounceCount++
	} else {
		r.state.Ball.LastBounceOnRole = quad
		r.state.Ball.BounceCount = 1
	}
	r.state.Ball.LastBounceTime = r.state.Elapsed

	severity := protocol.SeverityLow
	if r.state.Ball.BounceCount >= 2 {
		severity = protocol.SeverityHigh
	}
	r.broadcastEvent(protocol.Event{
		Type:     protocol.EventQuadrantHighlight,
		Role:     quad.String(),
		Severity: severity,
	})

	if r.state.Ball.BounceCount >= 2 {
		r.adjudicate(quad)
	}
}

// adjudicate applies the double-bounce penalty for the quadrant's occupant
// and always re-arms the serve afterwards. A vacant quadrant penalizes
// nobody but still resets the rally.
func (r *Room) adjudicate(quad Role) {
	p := r.occupant(quad)
	switch {
	case p == nil:
		// Vacant quadrant (3-player mode): nothing to penalize.
	case quad == RoleMato && len(r.state.Queue) > 0:
		r.eliminate(p)
	case quad == RoleMato:
		r.demoteToQueue(p)
	default:
		r.rotateForPenalty(p)
	}
	r.rearmServe()
}
