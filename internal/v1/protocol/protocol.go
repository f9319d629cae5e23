// Package protocol defines the line-delimited JSON wire format spoken
// between the server and its TCP clients. Every message is a single UTF-8
// JSON object terminated by '\n'; multiple messages may arrive in one read
// and are split on newlines before parsing.
package protocol

import (
	"bytes"
	"encoding/json"
	"errors"
	"time"
)

// Message type constants. The names are part of the wire contract and must
// not be renamed.
const (
	// Client → server.
	TypeCreateRoom      = "CREATE_ROOM"
	TypeJoinRoom        = "JOIN_ROOM"
	TypeSpectateRoom    = "SPECTATE_ROOM"
	TypeListRooms       = "LIST_ROOMS"
	TypeLeaveRoom       = "LEAVE_ROOM"
	TypeReady           = "READY"
	TypePlaceStone      = "PLACE_STONE"
	TypeChatMessage     = "CHAT_MESSAGE"
	TypeSpectatorChat   = "SPECTATOR_CHAT"
	TypeSurrender       = "SURRENDER"
	TypeRematch         = "REMATCH"
	TypeRematchResponse = "REMATCH_RESPONSE"
	TypeReconnect       = "RECONNECT"

	// Server → client.
	TypeSuccess            = "SUCCESS"
	TypeError              = "ERROR"
	TypeRoomList           = "ROOM_LIST"
	TypeUserJoined         = "USER_JOINED"
	TypeUserLeft           = "USER_LEFT"
	TypeRoomUpdate         = "ROOM_UPDATE"
	TypeReadyStatus        = "READY_STATUS"
	TypeGameStart          = "GAME_START"
	TypeBoardUpdate        = "BOARD_UPDATE"
	TypeTurnChange         = "TURN_CHANGE"
	TypeTimerUpdate        = "TIMER_UPDATE"
	TypeTimeUp             = "TIME_UP"
	TypeGameEnd            = "GAME_END"
	TypePlayerDisconnected = "PLAYER_DISCONNECTED"
	TypePlayerReconnected  = "PLAYER_RECONNECTED"
	TypeGamePaused         = "GAME_PAUSED"
	TypeGameResumed        = "GAME_RESUMED"
	TypeForfeit            = "FORFEIT"
	TypeRematchDeclined    = "REMATCH_DECLINED"
)

// StoneColor is a stone or seat color. The zero value means "no stone" and
// serializes as JSON null, which is how empty board cells travel on the wire.
type StoneColor string

const (
	ColorNone  StoneColor = ""
	ColorBlack StoneColor = "black"
	ColorWhite StoneColor = "white"
)

// Valid reports whether the color is one of the two playable colors.
func (c StoneColor) Valid() bool {
	return c == ColorBlack || c == ColorWhite
}

// Opponent returns the other playable color. Undefined for ColorNone.
func (c StoneColor) Opponent() StoneColor {
	if c == ColorBlack {
		return ColorWhite
	}
	return ColorBlack
}

func (c StoneColor) MarshalJSON() ([]byte, error) {
	if c == ColorNone {
		return []byte("null"), nil
	}
	return json.Marshal(string(c))
}

func (c *StoneColor) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		*c = ColorNone
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*c = StoneColor(s)
	return nil
}

// RoomStatus is the lifecycle state of a room.
type RoomStatus string

const (
	StatusWaiting  RoomStatus = "waiting"
	StatusPlaying  RoomStatus = "playing"
	StatusFinished RoomStatus = "finished"
)

// Message is the wire envelope.
type Message struct {
	Type      string          `json:"type"`
	Data      json.RawMessage `json:"data"`
	Timestamp string          `json:"timestamp"`
}

// ErrEmptyLine is returned by ParseLine for blank input lines, which the
// framing layer skips silently.
var ErrEmptyLine = errors.New("protocol: empty line")

// New builds an outgoing message, marshaling the payload and stamping the
// current time. Payloads are trusted structs from this package; a marshal
// failure leaves Data empty rather than dropping the whole message.
func New(msgType string, data any) *Message {
	m := &Message{
		Type:      msgType,
		Data:      json.RawMessage(`{}`),
		Timestamp: time.Now().Format(time.RFC3339),
	}
	if data != nil {
		if raw, err := json.Marshal(data); err == nil {
			m.Data = raw
		}
	}
	return m
}

// NewError builds an ERROR envelope with a human-readable message.
func NewError(msg string) *Message {
	return New(TypeError, ErrorPayload{Message: msg})
}

// NewSuccess builds a SUCCESS envelope from any payload carrying a message
// field plus operation-specific context.
func NewSuccess(data any) *Message {
	return New(TypeSuccess, data)
}

// Encode serializes the message followed by the '\n' terminator.
func (m *Message) Encode() ([]byte, error) {
	out, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return append(out, '\n'), nil
}

// Decode unmarshals the message payload into v.
func (m *Message) Decode(v any) error {
	if len(m.Data) == 0 {
		return errors.New("protocol: message has no data")
	}
	return json.Unmarshal(m.Data, v)
}

// ParseLine parses a single newline-stripped wire line. Blank lines yield
// ErrEmptyLine so the caller can skip them without logging.
func ParseLine(line []byte) (*Message, error) {
	line = bytes.TrimSpace(line)
	if len(line) == 0 {
		return nil, ErrEmptyLine
	}
	var m Message
	if err := json.Unmarshal(line, &m); err != nil {
		return nil, err
	}
	return &m, nil
}
