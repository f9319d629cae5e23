package types

import (
	"github.com/omoknet/gomoku-server/internal/v1/protocol"
)

// --- Core Domain Types ---

// RoleType defines how a connection participates in a room.
type RoleType string

// ClientIdType represents a unique identifier for a client connection.
type ClientIdType string

// RoomIdType represents a unique identifier for a game room.
type RoomIdType string

// DisplayNameType represents the human-readable name for a client.
type DisplayNameType string

const (
	RolePlayer    RoleType = "player"
	RoleSpectator RoleType = "spectator"
	RoleNone      RoleType = ""
)

// ClientInterface defines the behavior the room and session packages need
// from a connection. This keeps game logic independent of the TCP transport;
// Send must never block, so a Room may queue data while other goroutines own
// the socket (actual socket I/O still happens outside the room mutex).
type ClientInterface interface {
	GetID() ClientIdType
	GetDisplayName() DisplayNameType
	SetDisplayName(DisplayNameType)
	RemoteAddr() string
	Send(msg *protocol.Message)
	Disconnect()
}

// Notice is a deferred notification: a message plus the recipients it should
// reach. Room operations return notices captured under the room mutex; the
// caller delivers them after the mutex is released.
type Notice struct {
	Targets []ClientInterface
	Msg     *protocol.Message
}

// Deliver sends every notice to every live target. Call only while holding
// no room or registry mutex.
func Deliver(notices []Notice) {
	for _, n := range notices {
		for _, t := range n.Targets {
			if t != nil {
				t.Send(n.Msg)
			}
		}
	}
}
