package reygame

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/Gustavogamboa96/reymato-server/protocol"
)

// Input processing: translates validated client intent into body velocity
// changes and action triggers. Unknown or inactive players are silently
// ignored.

func (r *Room) applyInput(playerID string, in protocol.Input) {
	p := r.state.Players[playerID]
	if p == nil || !p.Active || p.Body == 0 {
		return
	}

	// Planar movement: stomp vx/vz, leave vy to gravity and jump control.
	vel := r.phys.Velocity(p.Body)
	vel[0] = float64(clampUnit(in.Move[0])) * PlayerSpeed
	vel[2] = float64(clampUnit(in.Move[1])) * PlayerSpeed

	if in.Jump && abs(vel.Y()) < JumpReadyVy {
		vel[1] = JumpV0
		p.Jumping = true
		r.armJumpShaping(p)
	}
	r.phys.SetVelocity(p.Body, vel)

	switch in.Action {
	case protocol.ActionKick:
		r.contactAction(p, protocol.ActionKick)
	case protocol.ActionHead:
		r.contactAction(p, protocol.ActionHead)
	case protocol.ActionServe:
		if p.Role == r.state.Serve.CurrentServer && r.state.Serve.WaitingForServe {
			r.serve(p)
		}
	}
}

// armJumpShaping arms the extra downward acceleration that shapes the jump
// arc independent of world gravity. The arm dies on landing or after a
// fixed timeout, whichever comes first.
func (r *Room) armJumpShaping(p *Player) {
	extraG := 2*JumpV0/JumpAirtime - WorldGravity
	if extraG < 0 {
		extraG = 0
	}
	p.jumpArmed = true
	p.jumpExtraG = extraG
	p.jumpExpires = r.state.Tick + uint64(math.Round(JumpShapeTimeout*TickRate))
}

// contactAction hits the ball with a kick or header if the ball is within
// reach, applying a fixed-magnitude impulse along the ball's travel
// direction (or toward court center when parked) with an upward bias.
func (r *Room) contactAction(p *Player, action string) {
	ballPos := r.phys.Position(r.state.Ball.Body)
	if !r.inReach(p, ballPos, action) {
		return
	}

	ballVel := r.phys.Velocity(r.state.Ball.Body)
	horiz := mgl64.Vec3{ballVel.X(), 0, ballVel.Z()}
	var dir mgl64.Vec3
	if horiz.Len() > BallMovingSpeed {
		dir = horiz.Normalize()
	} else {
		toCenter := mgl64.Vec3{-ballPos.X(), 0, -ballPos.Z()}
		if toCenter.Len() > 0 {
			dir = toCenter.Normalize()
		} else {
			dir = mgl64.Vec3{1, 0, 0}
		}
	}
	dir = dir.Add(mgl64.Vec3{0, ContactUpBias, 0}).Normalize()
	r.phys.ApplyImpulse(r.state.Ball.Body, dir.Mul(ContactImpulse))

	r.state.Ball.LastTouchedBy = p.ID
	// Contact puts the ball in play even during WaitingForServe; only the
	// formal serve action is role-gated.
	r.state.Serve.WaitingForServe = false

	r.broadcastEvent(protocol.Event{
		Type:     protocol.EventPlayerAnimation,
		PlayerID: p.ID,
		Action:   action,
	})
}

// inReach checks the contact gate: a sphere radius for kicks, a tighter
// horizontal plus taller vertical window for headers.
func (r *Room) inReach(p *Player, ballPos mgl64.Vec3, action string) bool {
	playerPos := r.phys.Position(p.Body)
	delta := ballPos.Sub(playerPos)
	if action == protocol.ActionHead {
		horiz := mgl64.Vec3{delta.X(), 0, delta.Z()}
		return horiz.Len() <= HeadRangeHoriz && abs(delta.Y()) <= HeadRangeVert
	}
	return delta.Len() <= KickRange
}

func clampUnit(v float32) float32 {
	if v < -1 {
		return -1
	}
	if v > 1 {
		return 1
	}
	return v
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
