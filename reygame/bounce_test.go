package reygame

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Gustavogamboa96/reymato-server/physics"
	"github.com/Gustavogamboa96/reymato-server/protocol"
)

// bounceIn scripts a ball-ground contact with the ball over the given
// quadrant.
func bounceIn(r *Room, stub *physics.Stub, quad Role) {
	c := quadrantCenter(quad)
	stub.SetPosition(r.state.Ball.Body, mgl64.Vec3{c.X(), BallRadius, c.Z()})
	stub.TriggerCollision(r.state.Ball.Body, r.ground)
}

// rally seats four (or more) players and puts the ball in play.
func rally(t *testing.T, r *Room, names ...string) {
	t.Helper()
	seat(t, r, names...)
	r.serve(r.occupant(RoleRey))
	require.False(t, r.state.Serve.WaitingForServe)
}

func TestFirstBounceHighlightsQuadrant(t *testing.T) {
	r, stub, conn := newTestRoom(t)
	rally(t, r, "p1", "p2", "p3", "p4")
	conn.reset()

	bounceIn(r, stub, RoleReto1)

	assert.Equal(t, RoleReto1, r.state.Ball.LastBounceOnRole)
	assert.Equal(t, uint8(1), r.state.Ball.BounceCount)

	evs := conn.eventsOfType(t, protocol.EventQuadrantHighlight)
	require.Len(t, evs, 1)
	assert.Equal(t, RoleReto1.String(), evs[0].Role)
	assert.Equal(t, protocol.SeverityLow, evs[0].Severity)
}

func TestBounceInDifferentQuadrantRestartsCount(t *testing.T) {
	r, stub, _ := newTestRoom(t)
	rally(t, r, "p1", "p2", "p3", "p4")

	bounceIn(r, stub, RoleReto1)
	bounceIn(r, stub, RoleReto2)

	assert.Equal(t, RoleReto2, r.state.Ball.LastBounceOnRole)
	assert.Equal(t, uint8(1), r.state.Ball.BounceCount)
	assert.False(t, r.state.Serve.WaitingForServe)
}

func TestDoubleBounceOnChallengerRotates(t *testing.T) {
	r, stub, conn := newTestRoom(t)
	rally(t, r, "p1", "p2", "p3", "p4")
	conn.reset()

	bounceIn(r, stub, RoleReto1)
	bounceIn(r, stub, RoleReto1)

	assert.Equal(t, RoleMato, roleOf(r, "p2"))
	assert.Equal(t, RoleReto1, roleOf(r, "p3"))
	assert.Equal(t, RoleReto2, roleOf(r, "p4"))
	assert.True(t, r.state.Serve.WaitingForServe)

	// The second highlight escalates before the penalty lands.
	evs := conn.eventsOfType(t, protocol.EventQuadrantHighlight)
	require.Len(t, evs, 2)
	assert.Equal(t, protocol.SeverityHigh, evs[1].Severity)
	assert.Len(t, conn.eventsOfType(t, protocol.EventRolesRotated), 1)
}

func TestDoubleBounceOnMatoEliminates(t *testing.T) {
	r, stub, conn := newTestRoom(t)
	rally(t, r, "p1", "p2", "p3", "p4", "p5")
	conn.reset()

	bounceIn(r, stub, RoleMato)
	bounceIn(r, stub, RoleMato)

	assert.Equal(t, RoleQueued, roleOf(r, "p4"))
	assert.Equal(t, RoleMato, roleOf(r, "p5"))
	assert.Equal(t, []string{"p4"}, r.state.Queue)
	assert.True(t, r.state.Serve.WaitingForServe)

	// Elimination is announced before the next rally is armed.
	var order []string
	for _, ev := range conn.events(t) {
		if ev.Type == protocol.EventElimination || ev.Type == protocol.EventServeReady {
			order = append(order, ev.Type)
		}
	}
	assert.Equal(t, []string{protocol.EventElimination, protocol.EventServeReady}, order)
}

func TestDoubleBounceOnMatoWithEmptyQueueDemotes(t *testing.T) {
	r, stub, conn := newTestRoom(t)
	rally(t, r, "p1", "p2", "p3", "p4")
	conn.reset()

	bounceIn(r, stub, RoleMato)
	bounceIn(r, stub, RoleMato)

	assert.Nil(t, r.occupant(RoleMato))
	assert.Equal(t, []string{"p4"}, r.state.Queue)
	assert.Len(t, conn.eventsOfType(t, protocol.EventDemotion), 1)
	assert.Empty(t, conn.eventsOfType(t, protocol.EventElimination))
	assert.True(t, r.state.Serve.WaitingForServe)
}

func TestDoubleBounceOnReyOnlyRearmsServe(t *testing.T) {
	r, stub, conn := newTestRoom(t)
	rally(t, r, "p1", "p2", "p3", "p4")
	conn.reset()

	bounceIn(r, stub, RoleRey)
	bounceIn(r, stub, RoleRey)

	assert.Equal(t, RoleRey, roleOf(r, "p1"))
	assert.Empty(t, conn.eventsOfType(t, protocol.EventRolesRotated))
	assert.True(t, r.state.Serve.WaitingForServe)
}

func TestDoubleBounceOnVacantQuadrantPenalizesNobody(t *testing.T) {
	r, stub, conn := newTestRoom(t)
	rally(t, r, "p1", "p2", "p3", "p4")
	r.demoteToQueue(r.occupant(RoleReto2))
	conn.reset()

	bounceIn(r, stub, RoleReto2)
	bounceIn(r, stub, RoleReto2)

	assert.Empty(t, conn.eventsOfType(t, protocol.EventRolesRotated))
	assert.Empty(t, conn.eventsOfType(t, protocol.EventElimination))
	assert.True(t, r.state.Serve.WaitingForServe)
}

func TestBouncesIgnoredWhileWaitingForServe(t *testing.T) {
	r, stub, conn := newTestRoom(t)
	seat(t, r, "p1", "p2", "p3", "p4")
	require.True(t, r.state.Serve.WaitingForServe)
	conn.reset()

	bounceIn(r, stub, RoleMato)

	assert.Zero(t, r.state.Ball.BounceCount)
	assert.Empty(t, conn.eventsOfType(t, protocol.EventQuadrantHighlight))
}

func TestBouncesIgnoredBeforeMatchStart(t *testing.T) {
	r, stub, _ := newTestRoom(t)
	seat(t, r, "p1", "p2")
	r.state.Serve.WaitingForServe = false

	bounceIn(r, stub, RoleReto1)
	assert.Zero(t, r.state.Ball.BounceCount)
}

func TestContactActionClearsWaitingAndCountsAsTouch(t *testing.T) {
	r, stub, conn := newTestRoom(t)
	seat(t, r, "p1", "p2", "p3", "p4")
	require.True(t, r.state.Serve.WaitingForServe)
	conn.reset()

	// Park the ball within kicking range of reto1.
	p := r.occupant(RoleReto1)
	stub.SetPosition(r.state.Ball.Body, stub.Position(p.Body).Add(mgl64.Vec3{1, 0, 0}))
	stub.SetVelocity(r.state.Ball.Body, mgl64.Vec3{})

	r.applyInput("p2", protocol.Input{Action: protocol.ActionKick})

	assert.False(t, r.state.Serve.WaitingForServe)
	assert.Equal(t, "p2", r.state.Ball.LastTouchedBy)

	evs := conn.eventsOfType(t, protocol.EventPlayerAnimation)
	require.Len(t, evs, 1)
	assert.Equal(t, protocol.ActionKick, evs[0].Action)
}
