package reygame

import (
	"sort"

	"github.com/Gustavogamboa96/reymato-server/protocol"
)

// Match clock: a 1 Hz timer that runs while the match is live, tracks the
// rey occupant's reign time, and ends the match when the duration is up.

func (r *Room) clockTick() {
	if !r.state.MatchStarted || r.state.MatchEnded {
		return
	}
	r.state.Elapsed++

	// Recompute the reign as a running delta so the value survives re-entry
	// without stopwatch pause/resume bookkeeping.
	if rey := r.occupant(RoleRey); rey != nil {
		rey.TimeAsKing = rey.kingBase + (r.state.Elapsed - rey.kingSince)
	}

	if r.state.Elapsed >= r.cfg.MatchDuration {
		r.endMatch()
	}
}

func (r *Room) endMatch() {
	r.state.MatchEnded = true
	lb := r.leaderboard()
	r.log.Infof("match ended in room %s after %.0fs, %d leaderboard entries",
		r.ID, r.state.Elapsed, len(lb))
	r.broadcastEvent(protocol.Event{Type: protocol.EventMatchEnd, Leaderboard: lb})
}

// leaderboard lists every player who ever held the rey slot, longest reign
// first. Ties break on nickname so the order is stable.
func (r *Room) leaderboard() []protocol.LeaderboardEntry {
	var out []protocol.LeaderboardEntry
	for _, p := range r.state.Players {
		if p.TimeAsKing > 0 {
			out = append(out, protocol.LeaderboardEntry{
				Nickname:   p.Nick,
				TimeAsKing: p.TimeAsKing,
			})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].TimeAsKing != out[j].TimeAsKing {
			return out[i].TimeAsKing > out[j].TimeAsKing
		}
		return out[i].Nickname < out[j].Nickname
	})
	return out
}

// rematch resets the clock and reign tallies for a fresh match on the same
// court. Only honored after matchEnd, requested by an active player.
func (r *Room) rematch(playerID string) {
	p := r.state.Players[playerID]
	if p == nil || !p.Active || !r.state.MatchEnded {
		return
	}
	r.state.MatchEnded = false
	r.state.Elapsed = 0
	for _, pl := range r.state.Players {
		pl.TimeAsKing = 0
		pl.kingBase = 0
		pl.kingSince = 0
	}
	// Slots left vacant by late-match demotions are refilled before the
	// fresh match kicks off.
	r.fillVacancies()
	r.log.Infof("rematch in room %s requested by %s", r.ID, p.Nick)
	r.broadcastEvent(protocol.Event{Type: protocol.EventMatchStart})
	r.rearmServe()
}
