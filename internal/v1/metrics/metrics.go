package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics for the gomoku game server.
//
// Naming convention: namespace_subsystem_name
// - namespace: gomoku (application-level grouping)
// - subsystem: tcp, room, game (feature-level grouping)
//
// Metric Types:
// - Gauge: current state (connections, rooms, occupants)
// - Counter: cumulative events (messages processed, games finished)
// - Histogram: latency distributions (message processing time)

var (
	// ActiveConnections tracks the current number of live TCP client connections
	ActiveConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "gomoku",
		Subsystem: "tcp",
		Name:      "connections_active",
		Help:      "Current number of active TCP client connections",
	})

	// ActiveRooms tracks the current number of rooms in the registry
	ActiveRooms = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "gomoku",
		Subsystem: "room",
		Name:      "rooms_active",
		Help:      "Current number of active rooms",
	})

	// RoomOccupants tracks the live connection count per room (players + spectators)
	RoomOccupants = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "gomoku",
		Subsystem: "room",
		Name:      "occupants_count",
		Help:      "Number of live connections in each room",
	}, []string{"room_id"})

	// MessagesProcessed counts protocol messages by type and outcome
	MessagesProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "gomoku",
		Subsystem: "tcp",
		Name:      "messages_total",
		Help:      "Total protocol messages processed",
	}, []string{"message_type", "status"})

	// MessageProcessingDuration tracks time spent dispatching a protocol message
	MessageProcessingDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "gomoku",
		Subsystem: "tcp",
		Name:      "message_processing_seconds",
		Help:      "Time spent processing protocol messages",
		Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
	}, []string{"message_type"})

	// GamesStarted counts rounds that reached the playing state
	GamesStarted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "gomoku",
		Subsystem: "game",
		Name:      "started_total",
		Help:      "Total games started (including rematches)",
	})

	// GamesFinished counts finished rounds by how they ended
	GamesFinished = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "gomoku",
		Subsystem: "game",
		Name:      "finished_total",
		Help:      "Total games finished",
	}, []string{"reason"}) // win, draw, surrender, forfeit

	// TurnTimeouts counts turns lost to the 60 s clock
	TurnTimeouts = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "gomoku",
		Subsystem: "game",
		Name:      "turn_timeouts_total",
		Help:      "Total turn timeouts (turn passed to the opponent)",
	})

	// RateLimitExceeded counts chat messages dropped by the flood limiter
	RateLimitExceeded = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "gomoku",
		Subsystem: "tcp",
		Name:      "rate_limit_exceeded_total",
		Help:      "Total messages rejected by rate limiting",
	}, []string{"message_type"})
)

func IncConnection() {
	ActiveConnections.Inc()
}

func DecConnection() {
	ActiveConnections.Dec()
}
