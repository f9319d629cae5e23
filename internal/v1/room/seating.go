package room

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/omoknet/gomoku-server/internal/v1/logging"
	"github.com/omoknet/gomoku-server/internal/v1/metrics"
	"github.com/omoknet/gomoku-server/internal/v1/protocol"
	"github.com/omoknet/gomoku-server/internal/v1/types"
)

// AddPlayer seats a connection as a player and assigns its color. The first
// seat is black; the second takes the opponent of whichever color is already
// seated, so a seat vacated mid-lobby never leaves two players on one color.
func (r *Room) AddPlayer(conn types.ClientInterface, name string) (protocol.StoneColor, []types.Notice, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.players) >= 2 {
		return protocol.ColorNone, nil, ErrRoomFull
	}

	color := protocol.ColorBlack
	if len(r.players) == 1 {
		color = r.players[0].color.Opponent()
	}

	r.players = append(r.players, &seat{conn: conn, name: name, color: color})
	r.updateOccupantsGaugeLocked()

	notices := []types.Notice{
		r.broadcastExceptLocked(protocol.New(protocol.TypeUserJoined, protocol.UserJoinedPayload{
			PlayerName: name,
			Role:       string(types.RolePlayer),
		}), conn),
		r.broadcastLocked(protocol.New(protocol.TypeRoomUpdate, r.infoLocked())),
	}
	return color, notices, nil
}

// AddSpectator adds a watching connection. Spectators may join in any room
// state.
func (r *Room) AddSpectator(conn types.ClientInterface, name string) ([]types.Notice, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.spectators = append(r.spectators, &spectator{conn: conn, name: name})
	r.updateOccupantsGaugeLocked()

	notices := []types.Notice{
		r.broadcastExceptLocked(protocol.New(protocol.TypeUserJoined, protocol.UserJoinedPayload{
			PlayerName: name,
			Role:       string(types.RoleSpectator),
		}), conn),
		r.broadcastLocked(protocol.New(protocol.TypeRoomUpdate, r.infoLocked())),
	}
	return notices, nil
}

// Leave removes a connection cleanly. A player leaving mid-game does not
// forfeit; the room resets to waiting for the remaining player.
func (r *Room) Leave(conn types.ClientInterface) ([]types.Notice, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if s := r.seatByConnLocked(conn); s != nil {
		return r.removePlayerLocked(s), nil
	}
	if sp := r.spectatorByConnLocked(conn); sp != nil {
		return r.removeSpectatorLocked(sp), nil
	}
	return nil, ErrNotInRoom
}

func (r *Room) removePlayerLocked(s *seat) []types.Notice {
	for i, p := range r.players {
		if p == s {
			r.players = append(r.players[:i], r.players[i+1:]...)
			break
		}
	}
	r.updateOccupantsGaugeLocked()

	var notices []types.Notice

	if len(r.players) == 1 {
		// A single remaining player gets a fresh lobby: the round in
		// progress (if any) is abandoned, not won.
		r.resetToWaitingLocked()
		notices = append(notices,
			r.broadcastLocked(protocol.New(protocol.TypeBoardUpdate, protocol.BoardUpdatePayload{
				X: -1, Y: -1, Color: protocol.ColorNone, Board: r.board.Snapshot(),
			})),
		)
	} else if len(r.players) == 0 {
		r.status = protocol.StatusWaiting
		r.cancelTurnTimerLocked()
	}

	notices = append(notices,
		r.broadcastLocked(protocol.New(protocol.TypeUserLeft, protocol.UserLeftPayload{
			PlayerName: s.name,
			Role:       string(types.RolePlayer),
		})),
		r.broadcastLocked(protocol.New(protocol.TypeRoomUpdate, r.infoLocked())),
	)
	return notices
}

func (r *Room) removeSpectatorLocked(sp *spectator) []types.Notice {
	for i, s := range r.spectators {
		if s == sp {
			r.spectators = append(r.spectators[:i], r.spectators[i+1:]...)
			break
		}
	}
	r.updateOccupantsGaugeLocked()

	return []types.Notice{
		r.broadcastLocked(protocol.New(protocol.TypeUserLeft, protocol.UserLeftPayload{
			PlayerName: sp.name,
			Role:       string(types.RoleSpectator),
		})),
		r.broadcastLocked(protocol.New(protocol.TypeRoomUpdate, r.infoLocked())),
	}
}

// resetToWaitingLocked returns the room to the lobby state, clearing the
// board, the rematch handshake and any pending reconnect records.
func (r *Room) resetToWaitingLocked() {
	r.status = protocol.StatusWaiting
	r.board.Reset()
	r.currentTurn = protocol.ColorBlack
	r.paused = false
	r.cancelTurnTimerLocked()
	for _, p := range r.players {
		p.ready = false
	}
	r.rematchRequests = make(map[string]bool)
	r.disconnected = make(map[string]*disconnectRecord)
}

// HandleDisconnect reacts to a dropped connection. A player losing its link
// mid-game keeps its seat and gets a reconnect window, unless it has already
// burned every reconnect attempt, in which case the opponent wins by forfeit
// immediately. Outside a game the seat is simply vacated.
func (r *Room) HandleDisconnect(conn types.ClientInterface) []types.Notice {
	r.mu.Lock()
	defer r.mu.Unlock()

	if sp := r.spectatorByConnLocked(conn); sp != nil {
		return r.removeSpectatorLocked(sp)
	}

	s := r.seatByConnLocked(conn)
	if s == nil {
		return nil
	}

	if r.status != protocol.StatusPlaying {
		return r.removePlayerLocked(s)
	}

	attempts := r.reconnectAttempts[s.name]
	if attempts >= r.cfg.MaxReconnectAttempts {
		s.conn = nil
		r.updateOccupantsGaugeLocked()
		return r.forfeitLocked(s.name, s.color,
			fmt.Sprintf("Maximum reconnection attempts (%d) exceeded", r.cfg.MaxReconnectAttempts))
	}

	r.disconnected[s.name] = &disconnectRecord{
		at:       r.clock(),
		color:    s.color,
		attempts: attempts,
	}
	s.conn = nil
	r.paused = true
	r.cancelTurnTimerLocked()
	r.updateOccupantsGaugeLocked()

	logging.Info(context.Background(), "player disconnected mid-game, awaiting reconnect",
		zap.String("room_id", string(r.ID)),
		zap.String("player_name", s.name),
		zap.Int("attempts_used", attempts),
	)

	return []types.Notice{
		r.broadcastLocked(protocol.New(protocol.TypePlayerDisconnected, protocol.PlayerDisconnectedPayload{
			PlayerName: s.name,
		})),
		r.broadcastLocked(protocol.New(protocol.TypeGamePaused, protocol.GamePausedPayload{
			Reason: fmt.Sprintf("Player %s disconnected. Waiting for reconnection...", s.name),
		})),
	}
}

// Reconnect reattaches a named player on a new connection. The reconnect
// window and the per-name attempt budget are both enforced here; a successful
// reconnect consumes one attempt. When the last disconnected player returns,
// play resumes with a full turn clock.
func (r *Room) Reconnect(conn types.ClientInterface, name string) (protocol.ReconnectSuccess, []types.Notice, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.disconnected[name]
	if !ok {
		return protocol.ReconnectSuccess{}, nil, ErrNoReconnectSession
	}
	if r.reconnectAttempts[name] >= r.cfg.MaxReconnectAttempts {
		return protocol.ReconnectSuccess{}, nil, ErrReconnectAttemptsExceeded
	}
	if r.clock().Sub(rec.at) > r.cfg.ReconnectTimeout {
		return protocol.ReconnectSuccess{}, nil, ErrReconnectTimedOut
	}

	s := r.seatByNameLocked(name)
	if s == nil {
		// Seat vanished while the record lingered (room was reset).
		delete(r.disconnected, name)
		return protocol.ReconnectSuccess{}, nil, ErrNoReconnectSession
	}

	r.reconnectAttempts[name]++
	s.conn = conn
	delete(r.disconnected, name)
	r.updateOccupantsGaugeLocked()

	notices := []types.Notice{
		r.broadcastLocked(protocol.New(protocol.TypePlayerReconnected, protocol.PlayerReconnectedPayload{
			PlayerName: name,
		})),
	}

	resumed := false
	if len(r.disconnected) == 0 && r.paused {
		r.paused = false
		if r.status == protocol.StatusPlaying {
			resumed = true
			notices = append(notices,
				r.broadcastLocked(protocol.New(protocol.TypeGameResumed, protocol.GameResumedPayload{})),
			)
			r.armTurnTimerLocked()
		}
	}

	success := protocol.ReconnectSuccess{
		Message:     "Reconnected successfully",
		RoomID:      string(r.ID),
		YourColor:   s.color,
		Role:        string(types.RolePlayer),
		Board:       r.board.Snapshot(),
		CurrentTurn: r.currentTurn,
		GameStatus:  r.status,
	}
	if resumed {
		success.RemainingTime = int(r.cfg.TurnTimeLimit / time.Second)
	}

	logging.Info(context.Background(), "player reconnected",
		zap.String("room_id", string(r.ID)),
		zap.String("player_name", name),
		zap.Int("attempts_used", r.reconnectAttempts[name]),
		zap.Bool("resumed", resumed),
	)

	return success, notices, nil
}

// ExpireForfeits forfeits a disconnected player whose reconnect window has
// lapsed. Called periodically by the registry's forfeit monitor. At most one
// forfeit ends a game: once the room leaves the playing state the remaining
// records are moot and must not produce a second, contradictory result.
func (r *Room) ExpireForfeits(now time.Time) []types.Notice {
	r.mu.Lock()
	defer r.mu.Unlock()

	var notices []types.Notice
	for name, rec := range r.disconnected {
		if r.status != protocol.StatusPlaying {
			break
		}
		if now.Sub(rec.at) > r.cfg.ReconnectTimeout {
			notices = append(notices, r.forfeitLocked(name, rec.color,
				fmt.Sprintf("Disconnection timeout (%d minutes)", int(r.cfg.ReconnectTimeout/time.Minute)))...)
		}
	}
	return notices
}

// forfeitLocked ends the game against the named player. Their seat survives
// with a dead connection so the result still names both sides.
func (r *Room) forfeitLocked(name string, color protocol.StoneColor, reason string) []types.Notice {
	delete(r.disconnected, name)

	winnerColor := color.Opponent()
	winnerName := ""
	if w := r.seatByColorLocked(winnerColor); w != nil {
		winnerName = w.name
	}

	r.cancelTurnTimerLocked()
	r.status = protocol.StatusFinished
	r.paused = false
	metrics.GamesFinished.WithLabelValues("forfeit").Inc()

	logging.Info(context.Background(), "player forfeited",
		zap.String("room_id", string(r.ID)),
		zap.String("player_name", name),
		zap.String("winner", string(winnerColor)),
		zap.String("reason", reason),
	)

	return []types.Notice{
		r.broadcastLocked(protocol.New(protocol.TypeForfeit, protocol.ForfeitPayload{
			Winner:     winnerColor,
			WinnerName: winnerName,
			PlayerName: name,
			Reason:     reason,
		})),
		r.broadcastLocked(protocol.New(protocol.TypeGameEnd, protocol.GameEndPayload{
			Winner:     string(winnerColor),
			WinnerName: winnerName,
			Reason:     fmt.Sprintf("%s forfeited", name),
		})),
	}
}
