package registry

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/omoknet/gomoku-server/internal/v1/logging"
	"github.com/omoknet/gomoku-server/internal/v1/types"
)

// ForfeitMonitor periodically forfeits players whose reconnect window has
// lapsed and purges rooms left with no live connections. One sweep runs at a
// time; a slow sweep delays the next tick rather than overlapping it.
type ForfeitMonitor struct {
	registry *Registry
	interval time.Duration
}

// NewForfeitMonitor builds a monitor sweeping at the given interval.
func NewForfeitMonitor(g *Registry, interval time.Duration) *ForfeitMonitor {
	return &ForfeitMonitor{registry: g, interval: interval}
}

// Run sweeps until ctx is canceled. Intended to be launched as a goroutine
// from main.
func (m *ForfeitMonitor) Run(ctx context.Context) {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.sweep()
		}
	}
}

func (m *ForfeitMonitor) sweep() {
	now := time.Now()
	for _, r := range m.registry.Snapshot() {
		notices := r.ExpireForfeits(now)
		types.Deliver(notices)
	}
	if removed := m.registry.Purge(); removed > 0 {
		logging.Info(context.Background(), "forfeit sweep purged rooms",
			zap.Int("removed", removed),
		)
	}
}
