// Package room implements the per-room session engine: seating, readiness,
// turn-based play with per-turn timeouts, pause/resume around disconnects,
// surrender, forfeit, and rematch.
//
// Locking discipline: every mutation happens under the room mutex, using the
// xxxLocked naming convention for helpers that require it. No socket I/O ever
// happens under the mutex — operations return deferred types.Notice values
// whose recipient sets were snapshotted while locked, and the caller (or the
// room's own timer goroutine) delivers them after release.
package room

import (
	"sync"
	"time"

	"github.com/omoknet/gomoku-server/internal/v1/board"
	"github.com/omoknet/gomoku-server/internal/v1/metrics"
	"github.com/omoknet/gomoku-server/internal/v1/protocol"
	"github.com/omoknet/gomoku-server/internal/v1/types"
)

// Config carries the timing knobs of a room. Defaults are the protocol
// constants; tests shrink them.
type Config struct {
	TurnTimeLimit        time.Duration
	ReconnectTimeout     time.Duration
	MaxReconnectAttempts int
	RematchTimeout       time.Duration
}

// DefaultConfig returns the production constants: 60 s turns, 180 s
// reconnect grace, 2 reconnect attempts, 30 s advisory rematch timeout.
func DefaultConfig() Config {
	return Config{
		TurnTimeLimit:        60 * time.Second,
		ReconnectTimeout:     180 * time.Second,
		MaxReconnectAttempts: 2,
		RematchTimeout:       30 * time.Second,
	}
}

// seat is one of the two player slots. conn is nil while the player is
// disconnected mid-game; the seat itself survives until a clean leave or a
// forfeit.
type seat struct {
	conn  types.ClientInterface
	name  string
	color protocol.StoneColor
	ready bool
}

type spectator struct {
	conn types.ClientInterface
	name string
}

// disconnectRecord tracks a seat whose connection was lost mid-game.
type disconnectRecord struct {
	at       time.Time
	color    protocol.StoneColor
	attempts int // reconnects already consumed when the record was created
}

// Room is a single game room. It owns its board, its seats and spectators,
// and its turn timer.
type Room struct {
	ID  types.RoomIdType
	cfg Config

	mu          sync.Mutex
	status      protocol.RoomStatus
	board       *board.Board
	currentTurn protocol.StoneColor
	players     []*seat
	spectators  []*spectator

	paused            bool
	disconnected      map[string]*disconnectRecord
	reconnectAttempts map[string]int
	rematchRequests   map[string]bool

	// Turn timer state. timerGen is bumped on every arm and cancel; a timer
	// goroutine that wakes to a mismatched generation exits without acting.
	timerGen     uint64
	turnDeadline time.Time

	clock func() time.Time
}

// NewRoom creates an empty room in the waiting state.
func NewRoom(id types.RoomIdType, cfg Config) *Room {
	return &Room{
		ID:                id,
		cfg:               cfg,
		status:            protocol.StatusWaiting,
		board:             board.New(),
		currentTurn:       protocol.ColorBlack,
		disconnected:      make(map[string]*disconnectRecord),
		reconnectAttempts: make(map[string]int),
		rematchRequests:   make(map[string]bool),
		clock:             time.Now,
	}
}

// Status returns the room lifecycle state.
func (r *Room) Status() protocol.RoomStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.status
}

// CurrentTurn returns the color whose move it is.
func (r *Room) CurrentTurn() protocol.StoneColor {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.currentTurn
}

// BoardSnapshot returns an independent copy of the grid.
func (r *Room) BoardSnapshot() [][]protocol.StoneColor {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.board.Snapshot()
}

// IsEmpty reports whether the room holds no live connection at all. Seats
// with a disconnected (nil) handle do not count; a room whose only players
// are awaiting reconnection is purgeable once its spectators are gone.
func (r *Room) IsEmpty() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.liveConnectionCountLocked() == 0
}

func (r *Room) liveConnectionCountLocked() int {
	n := 0
	for _, p := range r.players {
		if p.conn != nil {
			n++
		}
	}
	for _, s := range r.spectators {
		if s.conn != nil {
			n++
		}
	}
	return n
}

// Role reports how the connection participates in this room.
func (r *Room) Role(conn types.ClientInterface) (types.RoleType, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.seatByConnLocked(conn) != nil {
		return types.RolePlayer, true
	}
	if r.spectatorByConnLocked(conn) != nil {
		return types.RoleSpectator, true
	}
	return types.RoleNone, false
}

// HasDisconnectRecord reports whether name may attempt a reconnect here.
func (r *Room) HasDisconnectRecord(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.disconnected[name]
	return ok
}

// Info returns an immutable summary for ROOM_LIST and ROOM_UPDATE. Counts
// and player names include live connections only, matching what a lobby
// client should see.
func (r *Room) Info() protocol.RoomInfo {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.infoLocked()
}

func (r *Room) infoLocked() protocol.RoomInfo {
	info := protocol.RoomInfo{
		RoomID:      string(r.ID),
		Status:      r.status,
		CurrentTurn: r.currentTurn,
		Players:     []string{},
		ReadyStatus: make(map[string]bool, len(r.players)),
		TimeLimit:   int(r.cfg.TurnTimeLimit / time.Second),
	}
	for _, p := range r.players {
		info.ReadyStatus[p.name] = p.ready
		if p.conn != nil {
			info.PlayerCount++
			info.Players = append(info.Players, p.name)
		}
	}
	for _, s := range r.spectators {
		if s.conn != nil {
			info.SpectatorCount++
		}
	}
	return info
}

// Shutdown cancels the turn timer so its goroutine exits. Used on server
// shutdown and after a purge.
func (r *Room) Shutdown() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cancelTurnTimerLocked()
}

// --- Locked helpers ---

func (r *Room) seatByConnLocked(conn types.ClientInterface) *seat {
	if conn == nil {
		return nil
	}
	for _, p := range r.players {
		if p.conn == conn {
			return p
		}
	}
	return nil
}

func (r *Room) seatByNameLocked(name string) *seat {
	for _, p := range r.players {
		if p.name == name {
			return p
		}
	}
	return nil
}

func (r *Room) seatByColorLocked(color protocol.StoneColor) *seat {
	for _, p := range r.players {
		if p.color == color {
			return p
		}
	}
	return nil
}

func (r *Room) spectatorByConnLocked(conn types.ClientInterface) *spectator {
	if conn == nil {
		return nil
	}
	for _, s := range r.spectators {
		if s.conn == conn {
			return s
		}
	}
	return nil
}

// recipientsLocked snapshots every live connection in the room.
func (r *Room) recipientsLocked() []types.ClientInterface {
	targets := make([]types.ClientInterface, 0, len(r.players)+len(r.spectators))
	for _, p := range r.players {
		if p.conn != nil {
			targets = append(targets, p.conn)
		}
	}
	for _, s := range r.spectators {
		if s.conn != nil {
			targets = append(targets, s.conn)
		}
	}
	return targets
}

func (r *Room) spectatorRecipientsLocked() []types.ClientInterface {
	targets := make([]types.ClientInterface, 0, len(r.spectators))
	for _, s := range r.spectators {
		if s.conn != nil {
			targets = append(targets, s.conn)
		}
	}
	return targets
}

// broadcastLocked builds a deferred notice for every live connection.
func (r *Room) broadcastLocked(msg *protocol.Message) types.Notice {
	return types.Notice{Targets: r.recipientsLocked(), Msg: msg}
}

// broadcastExceptLocked builds a deferred notice excluding one connection.
func (r *Room) broadcastExceptLocked(msg *protocol.Message, except types.ClientInterface) types.Notice {
	all := r.recipientsLocked()
	targets := make([]types.ClientInterface, 0, len(all))
	for _, t := range all {
		if t != except {
			targets = append(targets, t)
		}
	}
	return types.Notice{Targets: targets, Msg: msg}
}

func (r *Room) updateOccupantsGaugeLocked() {
	metrics.RoomOccupants.WithLabelValues(string(r.ID)).Set(float64(r.liveConnectionCountLocked()))
}
