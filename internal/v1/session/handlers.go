package session

import (
	"context"
	"errors"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/omoknet/gomoku-server/internal/v1/logging"
	"github.com/omoknet/gomoku-server/internal/v1/protocol"
	"github.com/omoknet/gomoku-server/internal/v1/room"
	"github.com/omoknet/gomoku-server/internal/v1/types"
)

var (
	errNotInRoom       = errors.New("you are not in a room")
	errAlreadyInRoom   = errors.New("you are already in a room")
	errNameRequired    = errors.New("player name is required")
	errNameTooLong     = errors.New("player name must be 1-20 characters")
	errRoomNotFound    = errors.New("room not found")
	errBadPayload      = errors.New("invalid message data")
	errChatRateLimited = errors.New("too many chat messages, slow down")
	errReconnectFailed = errors.New("no reconnectable session found or timeout expired")
)

// maxNameLen bounds display names, measured in runes.
const maxNameLen = 20

func validName(name string) error {
	if name == "" {
		return errNameRequired
	}
	if utf8.RuneCountInString(name) > maxNameLen {
		return errNameTooLong
	}
	return nil
}

func (d *Dispatcher) handleCreateRoom(client types.ClientInterface, msg *protocol.Message) error {
	var req protocol.CreateRoomRequest
	if err := msg.Decode(&req); err != nil {
		return errBadPayload
	}
	if err := validName(req.PlayerName); err != nil {
		return err
	}
	if _, _, ok := d.registry.FindByConnection(client); ok {
		return errAlreadyInRoom
	}

	r := d.registry.Create()
	color, notices, err := r.AddPlayer(client, req.PlayerName)
	if err != nil {
		// Freshly created rooms are empty; AddPlayer cannot fail, but a
		// failure must not leak the room.
		d.registry.Purge()
		return err
	}
	client.SetDisplayName(types.DisplayNameType(req.PlayerName))

	client.Send(protocol.NewSuccess(protocol.CreateRoomSuccess{
		Message:   "Room created successfully",
		RoomID:    string(r.ID),
		YourColor: color,
		Role:      string(types.RolePlayer),
	}))
	types.Deliver(notices)

	logging.Info(context.Background(), "room created by player",
		zap.String("room_id", string(r.ID)),
		zap.String("player_name", req.PlayerName),
		zap.String("client_id", string(client.GetID())),
	)
	return nil
}

func (d *Dispatcher) handleJoinRoom(client types.ClientInterface, msg *protocol.Message) error {
	var req protocol.JoinRoomRequest
	if err := msg.Decode(&req); err != nil {
		return errBadPayload
	}
	if err := validName(req.PlayerName); err != nil {
		return err
	}
	if _, _, ok := d.registry.FindByConnection(client); ok {
		return errAlreadyInRoom
	}

	r, ok := d.registry.Get(types.RoomIdType(req.RoomID))
	if !ok {
		return errRoomNotFound
	}

	color, notices, err := r.AddPlayer(client, req.PlayerName)
	if err != nil {
		return err
	}
	client.SetDisplayName(types.DisplayNameType(req.PlayerName))

	client.Send(protocol.NewSuccess(protocol.JoinRoomSuccess{
		Message:     "Joined room successfully",
		RoomID:      string(r.ID),
		YourColor:   color,
		Role:        string(types.RolePlayer),
		Board:       r.BoardSnapshot(),
		CurrentTurn: r.CurrentTurn(),
	}))
	types.Deliver(notices)
	return nil
}

func (d *Dispatcher) handleSpectateRoom(client types.ClientInterface, msg *protocol.Message) error {
	var req protocol.SpectateRoomRequest
	if err := msg.Decode(&req); err != nil {
		return errBadPayload
	}
	if err := validName(req.SpectatorName); err != nil {
		return err
	}
	if _, _, ok := d.registry.FindByConnection(client); ok {
		return errAlreadyInRoom
	}

	r, ok := d.registry.Get(types.RoomIdType(req.RoomID))
	if !ok {
		return errRoomNotFound
	}

	notices, err := r.AddSpectator(client, req.SpectatorName)
	if err != nil {
		return err
	}
	client.SetDisplayName(types.DisplayNameType(req.SpectatorName))

	client.Send(protocol.NewSuccess(protocol.SpectateRoomSuccess{
		Message:     "Now spectating room",
		RoomID:      string(r.ID),
		Role:        string(types.RoleSpectator),
		Board:       r.BoardSnapshot(),
		CurrentTurn: r.CurrentTurn(),
		Status:      r.Status(),
	}))
	types.Deliver(notices)
	return nil
}

func (d *Dispatcher) handleListRooms(client types.ClientInterface) error {
	client.Send(protocol.New(protocol.TypeRoomList, protocol.RoomListPayload{
		Rooms: d.registry.List(),
	}))
	return nil
}

func (d *Dispatcher) handleLeaveRoom(client types.ClientInterface) error {
	r, _, ok := d.registry.FindByConnection(client)
	if !ok {
		// Leaving while already in the lobby is not an error.
		client.Send(protocol.NewSuccess(protocol.Ack{Message: "Already in lobby"}))
		return nil
	}

	notices, err := r.Leave(client)
	if err != nil {
		return err
	}
	client.Send(protocol.NewSuccess(protocol.Ack{Message: "Left room and returned to lobby"}))
	types.Deliver(notices)
	d.registry.Purge()
	return nil
}

func (d *Dispatcher) handleReady(client types.ClientInterface) error {
	r, err := d.currentRoom(client)
	if err != nil {
		return err
	}
	notices, err := r.ToggleReady(client)
	if err != nil {
		return err
	}
	types.Deliver(notices)
	return nil
}

func (d *Dispatcher) handlePlaceStone(client types.ClientInterface, msg *protocol.Message) error {
	var req protocol.PlaceStoneRequest
	if err := msg.Decode(&req); err != nil {
		return errBadPayload
	}
	r, err := d.currentRoom(client)
	if err != nil {
		return err
	}
	notices, err := r.PlaceStone(client, req.X, req.Y)
	if err != nil {
		if !room.IsRuleError(err) {
			logging.Warn(context.Background(), "stone placement rejected",
				zap.String("room_id", string(r.ID)),
				zap.String("client_id", string(client.GetID())),
				zap.Error(err),
			)
		}
		return err
	}
	types.Deliver(notices)
	return nil
}

func (d *Dispatcher) handleChat(client types.ClientInterface, msg *protocol.Message, spectatorOnly bool) error {
	var req protocol.ChatRequest
	if err := msg.Decode(&req); err != nil {
		return errBadPayload
	}
	if !d.limiter.AllowChat(context.Background(), string(client.GetID())) {
		return errChatRateLimited
	}
	r, err := d.currentRoom(client)
	if err != nil {
		return err
	}

	var notices []types.Notice
	if spectatorOnly {
		notices, err = r.SpectatorChat(client, req.Message)
	} else {
		notices, err = r.Chat(client, req.Message)
	}
	if err != nil {
		return err
	}
	types.Deliver(notices)
	return nil
}

func (d *Dispatcher) handleSurrender(client types.ClientInterface) error {
	r, err := d.currentRoom(client)
	if err != nil {
		return err
	}
	notices, err := r.Surrender(client)
	if err != nil {
		return err
	}
	types.Deliver(notices)
	return nil
}

func (d *Dispatcher) handleRematch(client types.ClientInterface) error {
	r, err := d.currentRoom(client)
	if err != nil {
		return err
	}
	notices, err := r.RequestRematch(client)
	if err != nil {
		return err
	}
	types.Deliver(notices)
	return nil
}

func (d *Dispatcher) handleRematchResponse(client types.ClientInterface, msg *protocol.Message) error {
	var req protocol.RematchResponseRequest
	if err := msg.Decode(&req); err != nil {
		return errBadPayload
	}
	r, err := d.currentRoom(client)
	if err != nil {
		return err
	}
	notices, err := r.RespondRematch(client, req.Accepted)
	if err != nil {
		return err
	}
	types.Deliver(notices)
	return nil
}

// handleReconnect tries every room holding a reconnect record for the name.
// The most specific failure wins the error message; success reattaches the
// connection and replays the full game state.
func (d *Dispatcher) handleReconnect(client types.ClientInterface, msg *protocol.Message) error {
	var req protocol.ReconnectRequest
	if err := msg.Decode(&req); err != nil {
		return errBadPayload
	}
	if err := validName(req.PlayerName); err != nil {
		return err
	}
	if _, _, ok := d.registry.FindByConnection(client); ok {
		return errAlreadyInRoom
	}

	lastErr := errReconnectFailed
	for _, r := range d.registry.FindReconnectable(req.PlayerName) {
		success, notices, err := r.Reconnect(client, req.PlayerName)
		if err != nil {
			lastErr = err
			continue
		}
		client.SetDisplayName(types.DisplayNameType(req.PlayerName))
		client.Send(protocol.NewSuccess(success))
		types.Deliver(notices)
		return nil
	}
	return lastErr
}
