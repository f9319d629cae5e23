package room

import "errors"

// Error kinds surfaced to the session layer. Each maps to an ERROR envelope
// sent to the originating connection only; none of them roll back state seen
// by other participants.
var (
	ErrRoomFull     = errors.New("room is full")
	ErrNotSeated    = errors.New("you are not a player in this room")
	ErrNotInRoom    = errors.New("you are not in this room")
	ErrNotSpectator = errors.New("you are not a spectator in this room")

	ErrNotWaiting  = errors.New("game has already started")
	ErrNotPlaying  = errors.New("game is not in progress")
	ErrNotFinished = errors.New("game is not finished")
	ErrNotYourTurn = errors.New("it is not your turn")
	ErrGamePaused  = errors.New("game is paused")

	ErrNoReconnectSession        = errors.New("no reconnect session found")
	ErrReconnectTimedOut         = errors.New("reconnect window has expired")
	ErrReconnectAttemptsExceeded = errors.New("maximum reconnect attempts exceeded")
)
