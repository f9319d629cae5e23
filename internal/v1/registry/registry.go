// Package registry tracks the set of live rooms. Lock ordering is strictly
// registry before room: the registry mutex only guards its own map and is
// never held across calls into a Room, so room operations can take their own
// locks freely.
package registry

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/omoknet/gomoku-server/internal/v1/logging"
	"github.com/omoknet/gomoku-server/internal/v1/metrics"
	"github.com/omoknet/gomoku-server/internal/v1/protocol"
	"github.com/omoknet/gomoku-server/internal/v1/room"
	"github.com/omoknet/gomoku-server/internal/v1/types"
)

// Registry owns every active room. Room IDs count up from 1 and are never
// reused for the lifetime of the process.
type Registry struct {
	mu     sync.Mutex
	rooms  map[types.RoomIdType]*room.Room
	nextID int
	cfg    room.Config
}

// New creates an empty registry whose rooms inherit cfg.
func New(cfg room.Config) *Registry {
	return &Registry{
		rooms:  make(map[types.RoomIdType]*room.Room),
		nextID: 1,
		cfg:    cfg,
	}
}

// Create allocates a new room with the next sequential ID.
func (g *Registry) Create() *room.Room {
	g.mu.Lock()
	defer g.mu.Unlock()

	id := types.RoomIdType(fmt.Sprintf("room_%d", g.nextID))
	g.nextID++
	r := room.NewRoom(id, g.cfg)
	g.rooms[id] = r
	metrics.ActiveRooms.Set(float64(len(g.rooms)))

	logging.Info(context.Background(), "room created",
		zap.String("room_id", string(id)),
	)
	return r
}

// Get looks up a room by ID.
func (g *Registry) Get(id types.RoomIdType) (*room.Room, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	r, ok := g.rooms[id]
	return r, ok
}

// Snapshot returns the current rooms. The slice is a copy; callers may
// range over it and take room locks without touching the registry mutex.
func (g *Registry) Snapshot() []*room.Room {
	g.mu.Lock()
	defer g.mu.Unlock()
	rooms := make([]*room.Room, 0, len(g.rooms))
	for _, r := range g.rooms {
		rooms = append(rooms, r)
	}
	return rooms
}

// List summarizes every room for ROOM_LIST.
func (g *Registry) List() []protocol.RoomInfo {
	rooms := g.Snapshot()
	infos := make([]protocol.RoomInfo, 0, len(rooms))
	for _, r := range rooms {
		infos = append(infos, r.Info())
	}
	return infos
}

// FindByConnection locates the room a connection currently occupies, if any.
func (g *Registry) FindByConnection(conn types.ClientInterface) (*room.Room, types.RoleType, bool) {
	for _, r := range g.Snapshot() {
		if role, ok := r.Role(conn); ok {
			return r, role, true
		}
	}
	return nil, types.RoleNone, false
}

// FindReconnectable returns every room holding a reconnect record for name.
// Validation of the window and the attempt budget happens inside Reconnect.
func (g *Registry) FindReconnectable(name string) []*room.Room {
	var candidates []*room.Room
	for _, r := range g.Snapshot() {
		if r.HasDisconnectRecord(name) {
			candidates = append(candidates, r)
		}
	}
	return candidates
}

// Purge removes rooms with no live connections, shutting their timers down.
// Returns the number of rooms removed.
func (g *Registry) Purge() int {
	var doomed []*room.Room
	for _, r := range g.Snapshot() {
		if r.IsEmpty() {
			doomed = append(doomed, r)
		}
	}
	if len(doomed) == 0 {
		return 0
	}

	g.mu.Lock()
	removed := 0
	for _, r := range doomed {
		// Re-check ownership; the room may have been purged concurrently.
		if _, ok := g.rooms[r.ID]; ok {
			delete(g.rooms, r.ID)
			removed++
		}
	}
	metrics.ActiveRooms.Set(float64(len(g.rooms)))
	g.mu.Unlock()

	for _, r := range doomed {
		r.Shutdown()
		metrics.RoomOccupants.DeleteLabelValues(string(r.ID))
		logging.Info(context.Background(), "empty room purged",
			zap.String("room_id", string(r.ID)),
		)
	}
	return removed
}

// Shutdown stops every room's timer. Called once during server shutdown.
func (g *Registry) Shutdown() {
	for _, r := range g.Snapshot() {
		r.Shutdown()
	}
}
