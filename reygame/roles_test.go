package reygame

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Gustavogamboa96/reymato-server/protocol"
)

func roleOf(r *Room, id string) Role {
	if p := r.state.Players[id]; p != nil {
		return p.Role
	}
	return RoleNone
}

func TestJoinSeatsLadderTopFirst(t *testing.T) {
	r, _, _ := newTestRoom(t)

	seat(t, r, "p1")
	assert.Equal(t, RoleRey, roleOf(r, "p1"))

	seat(t, r, "p2", "p3", "p4")
	assert.Equal(t, RoleReto1, roleOf(r, "p2"))
	assert.Equal(t, RoleReto2, roleOf(r, "p3"))
	assert.Equal(t, RoleMato, roleOf(r, "p4"))
	assert.Empty(t, r.state.Queue)

	seat(t, r, "p5")
	assert.Equal(t, RoleQueued, roleOf(r, "p5"))
	assert.Equal(t, []string{"p5"}, r.state.Queue)
}

func TestActivateSpawnsAtQuadrantCenter(t *testing.T) {
	r, stub, _ := newTestRoom(t)
	seat(t, r, "p1")

	p := r.state.Players["p1"]
	require.NotZero(t, p.Body)
	want := quadrantCenter(RoleRey)
	got := stub.Position(p.Body)
	assert.Equal(t, want.X(), got.X())
	assert.Equal(t, want.Z(), got.Z())
	assert.Equal(t, GroundY+PlayerRadius, got.Y())
}

func TestEliminationRequeuesAndRefills(t *testing.T) {
	r, stub, conn := newTestRoom(t)
	seat(t, r, "p1", "p2", "p3", "p4", "p5")
	conn.reset()

	mato := r.occupant(RoleMato)
	require.Equal(t, "p4", mato.ID)
	oldBody := mato.Body

	r.eliminate(mato)

	// p5 takes the vacated bottom slot, p4 goes to the queue tail.
	assert.Equal(t, RoleMato, roleOf(r, "p5"))
	assert.Equal(t, RoleQueued, roleOf(r, "p4"))
	assert.Equal(t, []string{"p4"}, r.state.Queue)

	// The eliminated body is gone from the world.
	_, ok := stub.Bodies[oldBody]
	assert.False(t, ok)
	assert.Zero(t, mato.Body)

	evs := conn.eventsOfType(t, protocol.EventElimination)
	require.Len(t, evs, 1)
	assert.Equal(t, "p4", evs[0].PlayerID)
	assert.Equal(t, "p4", evs[0].PlayerName)
}

func TestDemotionLeavesSlotVacant(t *testing.T) {
	r, _, conn := newTestRoom(t)
	seat(t, r, "p1", "p2", "p3", "p4")
	conn.reset()

	mato := r.occupant(RoleMato)
	r.demoteToQueue(mato)

	assert.Nil(t, r.occupant(RoleMato))
	assert.Equal(t, []string{"p4"}, r.state.Queue)

	evs := conn.eventsOfType(t, protocol.EventDemotion)
	require.Len(t, evs, 1)
	assert.Equal(t, "p4", evs[0].PlayerID)
	assert.Equal(t, RoleMato.String(), evs[0].OldRole)

	// The next join fills the vacancy straight away.
	seat(t, r, "p5")
	assert.Equal(t, RoleMato, roleOf(r, "p5"))
	assert.Equal(t, []string{"p4"}, r.state.Queue)
}

func TestRotateForPenaltyAdvancesLowerRanks(t *testing.T) {
	r, _, conn := newTestRoom(t)
	seat(t, r, "p1", "p2", "p3", "p4")
	conn.reset()

	r.rotateForPenalty(r.state.Players["p2"])

	assert.Equal(t, RoleRey, roleOf(r, "p1"))
	assert.Equal(t, RoleMato, roleOf(r, "p2"))
	assert.Equal(t, RoleReto1, roleOf(r, "p3"))
	assert.Equal(t, RoleReto2, roleOf(r, "p4"))

	evs := conn.eventsOfType(t, protocol.EventRolesRotated)
	require.Len(t, evs, 1)
	require.Len(t, evs[0].Changes, 3)
	last := evs[0].Changes[len(evs[0].Changes)-1]
	assert.Equal(t, "p2", last.PlayerID)
	assert.Equal(t, RoleMato.String(), last.NewRole)
}

func TestRotateForPenaltySkipsVacantSlots(t *testing.T) {
	r, _, _ := newTestRoom(t)
	seat(t, r, "p1", "p2", "p3", "p4")
	r.demoteToQueue(r.occupant(RoleMato))
	r.removeFromQueue("p4")
	delete(r.state.Players, "p4")

	// reto1 penalized with the bottom slot vacant: only reto2 advances.
	r.rotateForPenalty(r.state.Players["p2"])
	assert.Equal(t, RoleMato, roleOf(r, "p2"))
	assert.Equal(t, RoleReto1, roleOf(r, "p3"))
	assert.Nil(t, r.occupant(RoleReto2))
}

func TestRotateForPenaltyIgnoresRey(t *testing.T) {
	r, _, conn := newTestRoom(t)
	seat(t, r, "p1", "p2", "p3", "p4")
	conn.reset()

	r.rotateForPenalty(r.state.Players["p1"])

	assert.Equal(t, RoleRey, roleOf(r, "p1"))
	assert.Empty(t, conn.eventsOfType(t, protocol.EventRolesRotated))
}

func TestLeaveActivePlayerRefillsFromQueue(t *testing.T) {
	r, _, _ := newTestRoom(t)
	seat(t, r, "p1", "p2", "p3", "p4", "p5")

	r.leave("p2")

	assert.Nil(t, r.state.Players["p2"])
	assert.Equal(t, RoleReto1, roleOf(r, "p5"))
	assert.Empty(t, r.state.Queue)
}

func TestLeaveQueuedPlayerDropsFromQueue(t *testing.T) {
	r, _, _ := newTestRoom(t)
	seat(t, r, "p1", "p2", "p3", "p4", "p5", "p6")

	r.leave("p5")
	assert.Equal(t, []string{"p6"}, r.state.Queue)
	assert.Nil(t, r.state.Players["p5"])
}

func TestLeaveWithEmptyQueueLeavesSlotVacant(t *testing.T) {
	r, _, _ := newTestRoom(t)
	seat(t, r, "p1", "p2", "p3", "p4")

	r.leave("p3")
	assert.Nil(t, r.occupant(RoleReto2))
	assert.Equal(t, 3, r.activeCount())
}
