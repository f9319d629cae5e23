package room

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/omoknet/gomoku-server/internal/v1/board"
	"github.com/omoknet/gomoku-server/internal/v1/logging"
	"github.com/omoknet/gomoku-server/internal/v1/metrics"
	"github.com/omoknet/gomoku-server/internal/v1/protocol"
	"github.com/omoknet/gomoku-server/internal/v1/types"
)

// ToggleReady flips the seat's ready flag. When both seats are ready the
// game starts: black moves first and the turn clock arms.
func (r *Room) ToggleReady(conn types.ClientInterface) ([]types.Notice, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s := r.seatByConnLocked(conn)
	if s == nil {
		return nil, ErrNotSeated
	}
	if r.status != protocol.StatusWaiting {
		return nil, ErrNotWaiting
	}

	s.ready = !s.ready

	notices := []types.Notice{
		r.broadcastLocked(protocol.New(protocol.TypeReadyStatus, protocol.ReadyStatusPayload{
			ReadyStatus: r.readyStatusLocked(),
		})),
	}

	if len(r.players) == 2 && r.allReadyLocked() {
		notices = append(notices, r.startGameLocked(nil)...)
	}
	return notices, nil
}

func (r *Room) readyStatusLocked() map[string]bool {
	status := make(map[string]bool, len(r.players))
	for _, p := range r.players {
		status[p.name] = p.ready
	}
	return status
}

func (r *Room) allReadyLocked() bool {
	for _, p := range r.players {
		if !p.ready {
			return false
		}
	}
	return len(r.players) > 0
}

// startGameLocked transitions to playing and arms the first turn clock. A
// non-nil boardSnapshot is included in GAME_START, which rematches use to
// show the cleared grid.
func (r *Room) startGameLocked(boardSnapshot [][]protocol.StoneColor) []types.Notice {
	r.status = protocol.StatusPlaying
	r.currentTurn = protocol.ColorBlack
	metrics.GamesStarted.Inc()

	players := make([]protocol.PlayerInfo, 0, len(r.players))
	for _, p := range r.players {
		players = append(players, protocol.PlayerInfo{Name: p.name, Color: p.color})
	}

	notices := []types.Notice{
		r.broadcastLocked(protocol.New(protocol.TypeGameStart, protocol.GameStartPayload{
			CurrentTurn: r.currentTurn,
			Players:     players,
			Board:       boardSnapshot,
		})),
	}
	r.armTurnTimerLocked()

	logging.Info(context.Background(), "game started",
		zap.String("room_id", string(r.ID)),
	)
	return notices
}

// PlaceStone plays a move for the seated connection. On a win or a full
// board the round finishes; otherwise the turn passes and the clock re-arms.
func (r *Room) PlaceStone(conn types.ClientInterface, x, y int) ([]types.Notice, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s := r.seatByConnLocked(conn)
	if s == nil {
		return nil, ErrNotSeated
	}
	if r.status != protocol.StatusPlaying {
		return nil, ErrNotPlaying
	}
	if r.paused {
		return nil, ErrGamePaused
	}
	if s.color != r.currentTurn {
		return nil, ErrNotYourTurn
	}

	if err := r.board.Place(x, y, s.color); err != nil {
		return nil, err
	}

	notices := []types.Notice{
		r.broadcastLocked(protocol.New(protocol.TypeBoardUpdate, protocol.BoardUpdatePayload{
			X:     x,
			Y:     y,
			Color: s.color,
			Board: r.board.Snapshot(),
		})),
	}

	switch {
	case r.board.CheckWinner(x, y) == s.color:
		r.cancelTurnTimerLocked()
		r.status = protocol.StatusFinished
		metrics.GamesFinished.WithLabelValues("win").Inc()
		notices = append(notices,
			r.broadcastLocked(protocol.New(protocol.TypeGameEnd, protocol.GameEndPayload{
				Winner:     string(s.color),
				WinnerName: s.name,
			})),
		)
		logging.Info(context.Background(), "game won",
			zap.String("room_id", string(r.ID)),
			zap.String("winner", s.name),
		)

	case r.board.IsFull():
		r.cancelTurnTimerLocked()
		r.status = protocol.StatusFinished
		metrics.GamesFinished.WithLabelValues("draw").Inc()
		notices = append(notices,
			r.broadcastLocked(protocol.New(protocol.TypeGameEnd, protocol.GameEndPayload{
				Winner: "draw",
				Reason: "board is full",
			})),
		)

	default:
		r.currentTurn = r.currentTurn.Opponent()
		notices = append(notices,
			r.broadcastLocked(protocol.New(protocol.TypeTurnChange, protocol.TurnChangePayload{
				CurrentTurn: r.currentTurn,
			})),
		)
		r.armTurnTimerLocked()
	}

	return notices, nil
}

// IsRuleError reports whether err is a board rule violation rather than a
// room state error. Both surface to the client the same way, but rule errors
// are not worth logging.
func IsRuleError(err error) bool {
	return errors.Is(err, board.ErrInvalidPosition) || errors.Is(err, board.ErrOccupied)
}

// Surrender concedes the game to the opponent.
func (r *Room) Surrender(conn types.ClientInterface) ([]types.Notice, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s := r.seatByConnLocked(conn)
	if s == nil {
		return nil, ErrNotSeated
	}
	if r.status != protocol.StatusPlaying {
		return nil, ErrNotPlaying
	}

	winnerColor := s.color.Opponent()
	winnerName := ""
	if w := r.seatByColorLocked(winnerColor); w != nil {
		winnerName = w.name
	}

	r.cancelTurnTimerLocked()
	r.status = protocol.StatusFinished
	r.paused = false
	metrics.GamesFinished.WithLabelValues("surrender").Inc()

	logging.Info(context.Background(), "player surrendered",
		zap.String("room_id", string(r.ID)),
		zap.String("player_name", s.name),
	)

	return []types.Notice{
		r.broadcastLocked(protocol.New(protocol.TypeGameEnd, protocol.GameEndPayload{
			Winner:     string(winnerColor),
			WinnerName: winnerName,
			Reason:     fmt.Sprintf("%s surrendered", s.name),
		})),
	}, nil
}

// Chat relays a room-wide chat line from any occupant to everyone.
func (r *Room) Chat(conn types.ClientInterface, text string) ([]types.Notice, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var sender string
	var role types.RoleType
	if s := r.seatByConnLocked(conn); s != nil {
		sender, role = s.name, types.RolePlayer
	} else if sp := r.spectatorByConnLocked(conn); sp != nil {
		sender, role = sp.name, types.RoleSpectator
	} else {
		return nil, ErrNotInRoom
	}

	return []types.Notice{
		r.broadcastLocked(protocol.New(protocol.TypeChatMessage, protocol.ChatBroadcast{
			Sender:  sender,
			Role:    string(role),
			Message: text,
		})),
	}, nil
}

// SpectatorChat relays a chat line among spectators only. Players never see
// it, so watchers can discuss the position freely.
func (r *Room) SpectatorChat(conn types.ClientInterface, text string) ([]types.Notice, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	sp := r.spectatorByConnLocked(conn)
	if sp == nil {
		return nil, ErrNotSpectator
	}

	return []types.Notice{
		{
			Targets: r.spectatorRecipientsLocked(),
			Msg: protocol.New(protocol.TypeSpectatorChat, protocol.ChatBroadcast{
				Sender:  sp.name,
				Role:    string(types.RoleSpectator),
				Message: text,
			}),
		},
	}, nil
}
