package reygame

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Gustavogamboa96/reymato-server/protocol"
)

func TestClockIdleBeforeMatchStart(t *testing.T) {
	r, _, _ := newTestRoom(t)
	seat(t, r, "p1", "p2")

	r.clockTick()
	assert.Zero(t, r.state.Elapsed)
}

func TestClockTracksReignTime(t *testing.T) {
	r, _, _ := newTestRoom(t)
	seat(t, r, "p1", "p2", "p3", "p4")

	r.clockTick()
	r.clockTick()
	r.clockTick()

	assert.Equal(t, 3.0, r.state.Elapsed)
	assert.Equal(t, 3.0, r.state.Players["p1"].TimeAsKing)
}

func TestReignSurvivesRotationAndReturn(t *testing.T) {
	r, _, _ := newTestRoom(t)
	seat(t, r, "p1", "p2", "p3", "p4")

	r.clockTick()
	r.clockTick()

	// p1 loses the crown at t=2: the reign is settled on deactivate.
	p1 := r.state.Players["p1"]
	r.deactivate(p1)
	assert.Equal(t, 2.0, p1.TimeAsKing)

	// Ticks while dethroned do not accrue.
	r.clockTick()
	assert.Equal(t, 2.0, p1.TimeAsKing)

	// Back on the throne at t=3: the old total keeps counting up.
	r.activate(p1, RoleRey)
	r.clockTick()
	r.clockTick()
	assert.Equal(t, 4.0, p1.TimeAsKing)
}

func TestMatchEndsAtDuration(t *testing.T) {
	r, _, conn := newTestRoom(t)
	r.cfg.MatchDuration = 2
	seat(t, r, "p1", "p2", "p3", "p4")
	conn.reset()

	r.clockTick()
	assert.False(t, r.state.MatchEnded)
	r.clockTick()
	assert.True(t, r.state.MatchEnded)

	evs := conn.eventsOfType(t, protocol.EventMatchEnd)
	require.Len(t, evs, 1)
	require.Len(t, evs[0].Leaderboard, 1)
	assert.Equal(t, "p1", evs[0].Leaderboard[0].Nickname)
	assert.Equal(t, 2.0, evs[0].Leaderboard[0].TimeAsKing)

	// The clock stops once the match is over.
	r.clockTick()
	assert.Equal(t, 2.0, r.state.Elapsed)
}

func TestLeaderboardOrdersByReignThenNickname(t *testing.T) {
	r, _, _ := newTestRoom(t)
	seat(t, r, "p1", "p2", "p3", "p4")

	r.state.Players["p1"].TimeAsKing = 5
	r.state.Players["p2"].TimeAsKing = 9
	r.state.Players["p3"].TimeAsKing = 5

	lb := r.leaderboard()
	require.Len(t, lb, 3)
	assert.Equal(t, "p2", lb[0].Nickname)
	assert.Equal(t, "p1", lb[1].Nickname)
	assert.Equal(t, "p3", lb[2].Nickname)
}

func TestRematchResetsClockAndReigns(t *testing.T) {
	r, _, conn := newTestRoom(t)
	r.cfg.MatchDuration = 1
	seat(t, r, "p1", "p2", "p3", "p4", "p5")
	r.clockTick()
	require.True(t, r.state.MatchEnded)
	conn.reset()

	// Queued players cannot request a rematch.
	r.rematch("p5")
	assert.True(t, r.state.MatchEnded)

	r.rematch("p2")
	assert.False(t, r.state.MatchEnded)
	assert.Zero(t, r.state.Elapsed)
	assert.Zero(t, r.state.Players["p1"].TimeAsKing)
	assert.True(t, r.state.Serve.WaitingForServe)
	assert.Len(t, conn.eventsOfType(t, protocol.EventMatchStart), 1)
	assert.Len(t, conn.eventsOfType(t, protocol.EventServeReady), 1)
}

func TestRematchRefillsVacantSlots(t *testing.T) {
	r, _, _ := newTestRoom(t)
	r.cfg.MatchDuration = 1
	seat(t, r, "p1", "p2", "p3", "p4")

	// Bottom slot vacated late in the match, nobody waiting at the time.
	r.demoteToQueue(r.occupant(RoleMato))
	r.clockTick()
	require.True(t, r.state.MatchEnded)
	require.Nil(t, r.occupant(RoleMato))

	r.rematch("p1")

	assert.False(t, r.state.MatchEnded)
	assert.Equal(t, RoleMato, roleOf(r, "p4"))
	assert.Empty(t, r.state.Queue)
}

func TestRematchIgnoredMidMatch(t *testing.T) {
	r, _, conn := newTestRoom(t)
	seat(t, r, "p1", "p2", "p3", "p4")
	conn.reset()

	r.rematch("p1")
	assert.Empty(t, conn.eventsOfType(t, protocol.EventMatchStart))
	assert.False(t, r.state.MatchEnded)
}
