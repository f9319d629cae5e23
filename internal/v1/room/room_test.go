package room

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omoknet/gomoku-server/internal/v1/protocol"
	"github.com/omoknet/gomoku-server/internal/v1/types"
)

func testConfig() Config {
	return Config{
		TurnTimeLimit:        time.Hour, // effectively disabled unless a test shrinks it
		ReconnectTimeout:     3 * time.Minute,
		MaxReconnectAttempts: 2,
		RematchTimeout:       30 * time.Second,
	}
}

func newTestRoom(t *testing.T, cfg Config) *Room {
	t.Helper()
	r := NewRoom("room_1", cfg)
	t.Cleanup(r.Shutdown)
	return r
}

func seatTwo(t *testing.T, r *Room) (alice, bob *MockClient) {
	t.Helper()
	alice = NewMockClient("c-alice")
	bob = NewMockClient("c-bob")

	color, notices, err := r.AddPlayer(alice, "alice")
	require.NoError(t, err)
	require.Equal(t, protocol.ColorBlack, color)
	types.Deliver(notices)

	color, notices, err = r.AddPlayer(bob, "bob")
	require.NoError(t, err)
	require.Equal(t, protocol.ColorWhite, color)
	types.Deliver(notices)
	return alice, bob
}

func startGame(t *testing.T, r *Room, alice, bob *MockClient) {
	t.Helper()
	notices, err := r.ToggleReady(alice)
	require.NoError(t, err)
	types.Deliver(notices)

	notices, err = r.ToggleReady(bob)
	require.NoError(t, err)
	types.Deliver(notices)

	require.Equal(t, protocol.StatusPlaying, r.Status())
}

func decode[T any](t *testing.T, msg *protocol.Message) T {
	t.Helper()
	require.NotNil(t, msg)
	var v T
	require.NoError(t, msg.Decode(&v))
	return v
}

func TestNewRoom(t *testing.T) {
	r := newTestRoom(t, testConfig())

	assert.Equal(t, types.RoomIdType("room_1"), r.ID)
	assert.Equal(t, protocol.StatusWaiting, r.Status())
	assert.Equal(t, protocol.ColorBlack, r.CurrentTurn())
	assert.True(t, r.IsEmpty())
}

func TestAddPlayer_AssignsColors(t *testing.T) {
	r := newTestRoom(t, testConfig())
	seatTwo(t, r)

	info := r.Info()
	assert.Equal(t, 2, info.PlayerCount)
	assert.ElementsMatch(t, []string{"alice", "bob"}, info.Players)
}

func TestAddPlayer_RoomFull(t *testing.T) {
	r := newTestRoom(t, testConfig())
	seatTwo(t, r)

	_, _, err := r.AddPlayer(NewMockClient("c-carol"), "carol")
	assert.ErrorIs(t, err, ErrRoomFull)
}

func TestAddPlayer_TakesVacantColor(t *testing.T) {
	r := newTestRoom(t, testConfig())
	alice, _ := seatTwo(t, r)

	// Black leaves; the next joiner must take black, not double up on white.
	notices, err := r.Leave(alice)
	require.NoError(t, err)
	types.Deliver(notices)

	color, _, err := r.AddPlayer(NewMockClient("c-carol"), "carol")
	require.NoError(t, err)
	assert.Equal(t, protocol.ColorBlack, color)
}

func TestAddPlayer_NotifiesOthersOnly(t *testing.T) {
	r := newTestRoom(t, testConfig())
	alice, bob := seatTwo(t, r)

	assert.Equal(t, 1, alice.CountOfType(protocol.TypeUserJoined))
	assert.Zero(t, bob.CountOfType(protocol.TypeUserJoined))

	joined := decode[protocol.UserJoinedPayload](t, alice.LastOfType(protocol.TypeUserJoined))
	assert.Equal(t, "bob", joined.PlayerName)
	assert.Equal(t, "player", joined.Role)
}

func TestAddSpectator(t *testing.T) {
	r := newTestRoom(t, testConfig())
	alice, _ := seatTwo(t, r)

	watcher := NewMockClient("c-watcher")
	notices, err := r.AddSpectator(watcher, "watcher")
	require.NoError(t, err)
	types.Deliver(notices)

	role, ok := r.Role(watcher)
	require.True(t, ok)
	assert.Equal(t, types.RoleSpectator, role)

	joined := decode[protocol.UserJoinedPayload](t, alice.LastOfType(protocol.TypeUserJoined))
	assert.Equal(t, "spectator", joined.Role)
	assert.Equal(t, 1, r.Info().SpectatorCount)
}

func TestInfo_CountsLiveConnectionsOnly(t *testing.T) {
	r := newTestRoom(t, testConfig())
	alice, bob := seatTwo(t, r)
	startGame(t, r, alice, bob)

	types.Deliver(r.HandleDisconnect(alice))

	info := r.Info()
	assert.Equal(t, 1, info.PlayerCount)
	assert.Equal(t, []string{"bob"}, info.Players)
	// Ready status still tracks both seats.
	assert.Len(t, info.ReadyStatus, 2)
	assert.Equal(t, 3600, info.TimeLimit)
}

func TestLeave_ResetsRoomForRemainingPlayer(t *testing.T) {
	r := newTestRoom(t, testConfig())
	alice, bob := seatTwo(t, r)
	startGame(t, r, alice, bob)

	_, err := r.PlaceStone(alice, 7, 7)
	require.NoError(t, err)

	bob.Reset()
	notices, err := r.Leave(alice)
	require.NoError(t, err)
	types.Deliver(notices)

	assert.Equal(t, protocol.StatusWaiting, r.Status())
	assert.False(t, r.Info().ReadyStatus["bob"])

	// The remaining player sees the cleared board and the departure.
	reset := decode[protocol.BoardUpdatePayload](t, bob.LastOfType(protocol.TypeBoardUpdate))
	assert.Equal(t, -1, reset.X)
	assert.Equal(t, protocol.ColorNone, reset.Board[7][7])

	left := decode[protocol.UserLeftPayload](t, bob.LastOfType(protocol.TypeUserLeft))
	assert.Equal(t, "alice", left.PlayerName)
	assert.Equal(t, 1, bob.CountOfType(protocol.TypeRoomUpdate))
}

func TestLeave_NotInRoom(t *testing.T) {
	r := newTestRoom(t, testConfig())
	_, err := r.Leave(NewMockClient("c-stranger"))
	assert.ErrorIs(t, err, ErrNotInRoom)
}

func TestIsEmpty_IgnoresDisconnectedSeats(t *testing.T) {
	r := newTestRoom(t, testConfig())
	alice, bob := seatTwo(t, r)
	startGame(t, r, alice, bob)

	assert.False(t, r.IsEmpty())
	types.Deliver(r.HandleDisconnect(alice))
	types.Deliver(r.HandleDisconnect(bob))
	assert.True(t, r.IsEmpty())
}
