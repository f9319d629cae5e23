// Package ratelimit throttles chat traffic using an in-process sliding
// window keyed by client connection ID.
package ratelimit

import (
	"context"
	"fmt"

	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"
	"go.uber.org/zap"

	"github.com/omoknet/gomoku-server/internal/v1/logging"
	"github.com/omoknet/gomoku-server/internal/v1/metrics"
)

// MessageLimiter enforces a per-client rate on chat messages. Game moves are
// naturally paced by the turn clock and are not limited.
type MessageLimiter struct {
	chat *limiter.Limiter
}

// NewMessageLimiter parses a rate in limiter's formatted syntax, e.g.
// "30-M" for thirty per minute.
func NewMessageLimiter(chatRate string) (*MessageLimiter, error) {
	rate, err := limiter.NewRateFromFormatted(chatRate)
	if err != nil {
		return nil, fmt.Errorf("invalid chat rate: %w", err)
	}

	return &MessageLimiter{
		chat: limiter.New(memory.NewStore(), rate),
	}, nil
}

// AllowChat reports whether the client may send another chat message. Store
// failures fail open; a broken limiter should not mute the room.
func (l *MessageLimiter) AllowChat(ctx context.Context, clientID string) bool {
	res, err := l.chat.Get(ctx, clientID)
	if err != nil {
		logging.Error(ctx, "rate limiter store failed", zap.Error(err))
		return true
	}
	if res.Reached {
		metrics.RateLimitExceeded.WithLabelValues("chat").Inc()
		return false
	}
	return true
}
