package room

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/omoknet/gomoku-server/internal/v1/logging"
	"github.com/omoknet/gomoku-server/internal/v1/protocol"
	"github.com/omoknet/gomoku-server/internal/v1/types"
)

// RequestRematch registers the seat's wish to replay. The opponent is
// notified with an advisory timeout; if both seats have now agreed the
// rematch starts immediately with colors swapped.
func (r *Room) RequestRematch(conn types.ClientInterface) ([]types.Notice, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s := r.seatByConnLocked(conn)
	if s == nil {
		return nil, ErrNotSeated
	}
	if r.status != protocol.StatusFinished {
		return nil, ErrNotFinished
	}

	r.rematchRequests[s.name] = true

	notices := []types.Notice{
		r.broadcastExceptLocked(protocol.New(protocol.TypeRematch, protocol.RematchPayload{
			RequestingPlayer: s.name,
			Message:          fmt.Sprintf("%s wants a rematch", s.name),
			Timeout:          int(r.cfg.RematchTimeout / time.Second),
		}), conn),
	}

	if r.rematchAgreedLocked() {
		notices = append(notices, r.startRematchLocked()...)
	}
	return notices, nil
}

// RespondRematch handles the opponent's REMATCH_RESPONSE. Accepting counts
// as that seat's own rematch request; declining clears the handshake and
// notifies everyone.
func (r *Room) RespondRematch(conn types.ClientInterface, accepted bool) ([]types.Notice, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s := r.seatByConnLocked(conn)
	if s == nil {
		return nil, ErrNotSeated
	}
	if r.status != protocol.StatusFinished {
		return nil, ErrNotFinished
	}

	if !accepted {
		r.rematchRequests = make(map[string]bool)
		return []types.Notice{
			r.broadcastLocked(protocol.New(protocol.TypeRematchDeclined, protocol.RematchDeclinedPayload{
				Message:    fmt.Sprintf("%s declined the rematch request", s.name),
				DeclinedBy: s.name,
			})),
		}, nil
	}

	r.rematchRequests[s.name] = true
	if r.rematchAgreedLocked() {
		return r.startRematchLocked(), nil
	}
	return nil, nil
}

func (r *Room) rematchAgreedLocked() bool {
	if len(r.players) != 2 {
		return false
	}
	for _, p := range r.players {
		if !r.rematchRequests[p.name] {
			return false
		}
	}
	return true
}

// startRematchLocked resets the board, swaps seat colors, marks both seats
// ready and starts the new round. The board reset travels as a BOARD_UPDATE
// with coordinates (-1, -1) before GAME_START so clients clear their grids
// first.
func (r *Room) startRematchLocked() []types.Notice {
	r.board.Reset()
	r.rematchRequests = make(map[string]bool)
	for _, p := range r.players {
		p.color = p.color.Opponent()
		p.ready = true
	}

	notices := []types.Notice{
		r.broadcastLocked(protocol.New(protocol.TypeBoardUpdate, protocol.BoardUpdatePayload{
			X:     -1,
			Y:     -1,
			Color: protocol.ColorNone,
			Board: r.board.Snapshot(),
		})),
	}
	notices = append(notices, r.startGameLocked(r.board.Snapshot())...)

	logging.Info(context.Background(), "rematch started, colors swapped",
		zap.String("room_id", string(r.ID)),
	)
	return notices
}
