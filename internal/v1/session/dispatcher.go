// Package session routes decoded protocol messages to room operations and
// writes the per-operation SUCCESS and ERROR replies.
package session

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/omoknet/gomoku-server/internal/v1/logging"
	"github.com/omoknet/gomoku-server/internal/v1/metrics"
	"github.com/omoknet/gomoku-server/internal/v1/protocol"
	"github.com/omoknet/gomoku-server/internal/v1/ratelimit"
	"github.com/omoknet/gomoku-server/internal/v1/registry"
	"github.com/omoknet/gomoku-server/internal/v1/room"
	"github.com/omoknet/gomoku-server/internal/v1/types"
)

// Dispatcher implements transport.Handler. It is stateless per message; all
// session state lives in the registry and its rooms, so any number of
// connection goroutines may call into it concurrently.
type Dispatcher struct {
	registry *registry.Registry
	limiter  *ratelimit.MessageLimiter
}

// NewDispatcher wires the dispatcher to its registry and chat limiter.
func NewDispatcher(g *registry.Registry, limiter *ratelimit.MessageLimiter) *Dispatcher {
	return &Dispatcher{registry: g, limiter: limiter}
}

// HandleMessage routes one inbound message. Replies and broadcasts are sent
// after every room lock is released.
func (d *Dispatcher) HandleMessage(client types.ClientInterface, msg *protocol.Message) {
	start := time.Now()
	err := d.route(client, msg)

	status := "ok"
	if err != nil {
		status = "error"
		client.Send(protocol.NewError(err.Error()))
	}
	metrics.MessagesProcessed.WithLabelValues(msg.Type, status).Inc()
	metrics.MessageProcessingDuration.WithLabelValues(msg.Type).Observe(time.Since(start).Seconds())
}

func (d *Dispatcher) route(client types.ClientInterface, msg *protocol.Message) error {
	switch msg.Type {
	case protocol.TypeCreateRoom:
		return d.handleCreateRoom(client, msg)
	case protocol.TypeJoinRoom:
		return d.handleJoinRoom(client, msg)
	case protocol.TypeSpectateRoom:
		return d.handleSpectateRoom(client, msg)
	case protocol.TypeListRooms:
		return d.handleListRooms(client)
	case protocol.TypeLeaveRoom:
		return d.handleLeaveRoom(client)
	case protocol.TypeReady:
		return d.handleReady(client)
	case protocol.TypePlaceStone:
		return d.handlePlaceStone(client, msg)
	case protocol.TypeChatMessage:
		return d.handleChat(client, msg, false)
	case protocol.TypeSpectatorChat:
		return d.handleChat(client, msg, true)
	case protocol.TypeSurrender:
		return d.handleSurrender(client)
	case protocol.TypeRematch:
		return d.handleRematch(client)
	case protocol.TypeRematchResponse:
		return d.handleRematchResponse(client, msg)
	case protocol.TypeReconnect:
		return d.handleReconnect(client, msg)
	default:
		// Unknown types are ignored, not answered; a newer client must not
		// be disconnected or spammed with errors by an older server.
		logging.Warn(context.Background(), "ignoring unknown message type",
			zap.String("client_id", string(client.GetID())),
			zap.String("message_type", msg.Type),
		)
		return nil
	}
}

// HandleDisconnect reacts to a dropped connection: the client's room (if
// any) pauses or vacates the seat, and rooms left with no live connections
// are purged.
func (d *Dispatcher) HandleDisconnect(client types.ClientInterface) {
	r, _, ok := d.registry.FindByConnection(client)
	if !ok {
		return
	}
	types.Deliver(r.HandleDisconnect(client))
	d.registry.Purge()
}

// currentRoom finds the caller's room, or an error suitable for the client.
func (d *Dispatcher) currentRoom(client types.ClientInterface) (*room.Room, error) {
	r, _, ok := d.registry.FindByConnection(client)
	if !ok {
		return nil, errNotInRoom
	}
	return r, nil
}
