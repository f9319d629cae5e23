package room

import (
	"math"
	"time"

	"github.com/omoknet/gomoku-server/internal/v1/metrics"
	"github.com/omoknet/gomoku-server/internal/v1/protocol"
	"github.com/omoknet/gomoku-server/internal/v1/types"
)

// Turn clock. Each arm spawns one goroutine tagged with the current value of
// timerGen; arming or canceling bumps the generation, so a goroutine that
// wakes to a stale generation exits without touching room state. This makes
// stop-and-restart races (stone placed just as the clock fires) harmless
// without needing to join the old goroutine.

const timerTick = 100 * time.Millisecond

// armTurnTimerLocked starts a fresh clock for the current turn. Any previous
// clock is implicitly invalidated by the generation bump.
func (r *Room) armTurnTimerLocked() {
	r.timerGen++
	r.turnDeadline = r.clock().Add(r.cfg.TurnTimeLimit)
	go r.runTurnTimer(r.timerGen)
}

// cancelTurnTimerLocked invalidates the running clock, if any.
func (r *Room) cancelTurnTimerLocked() {
	r.timerGen++
	r.turnDeadline = time.Time{}
}

// runTurnTimer drives one turn's clock: a TIMER_UPDATE whenever the
// displayed whole second changes (the first one fires immediately with the
// full limit), then on expiry a TIME_UP plus automatic turn hand-over. The
// timed-out player loses the move, not the game.
func (r *Room) runTurnTimer(gen uint64) {
	lastSent := -1
	for {
		r.mu.Lock()
		if r.timerGen != gen {
			r.mu.Unlock()
			return
		}

		remaining := r.turnDeadline.Sub(r.clock())
		if remaining <= 0 {
			notices := r.turnTimeoutLocked()
			r.mu.Unlock()
			types.Deliver(notices)
			return
		}

		var notices []types.Notice
		display := int(math.Ceil(remaining.Seconds()))
		if display != lastSent {
			lastSent = display
			notices = append(notices,
				r.broadcastLocked(protocol.New(protocol.TypeTimerUpdate, protocol.TimerUpdatePayload{
					RemainingTime: display,
				})),
			)
		}
		r.mu.Unlock()

		types.Deliver(notices)
		time.Sleep(timerTick)
	}
}

// turnTimeoutLocked hands the turn to the opponent after the clock runs out
// and arms a new clock for them.
func (r *Room) turnTimeoutLocked() []types.Notice {
	if r.status != protocol.StatusPlaying || r.paused {
		return nil
	}

	metrics.TurnTimeouts.Inc()
	timedOut := r.currentTurn
	r.currentTurn = r.currentTurn.Opponent()

	notices := []types.Notice{
		r.broadcastLocked(protocol.New(protocol.TypeTimeUp, protocol.TimeUpPayload{
			Player: timedOut,
		})),
		r.broadcastLocked(protocol.New(protocol.TypeTurnChange, protocol.TurnChangePayload{
			CurrentTurn: r.currentTurn,
		})),
	}
	r.armTurnTimerLocked()
	return notices
}
