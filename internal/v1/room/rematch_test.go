package room

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omoknet/gomoku-server/internal/v1/protocol"
	"github.com/omoknet/gomoku-server/internal/v1/types"
)

func finishGame(t *testing.T, r *Room, loser *MockClient) {
	t.Helper()
	notices, err := r.Surrender(loser)
	require.NoError(t, err)
	types.Deliver(notices)
	require.Equal(t, protocol.StatusFinished, r.Status())
}

func TestRematch_RequiresFinishedGame(t *testing.T) {
	r := newTestRoom(t, testConfig())
	alice, bob := seatTwo(t, r)

	_, err := r.RequestRematch(alice)
	assert.ErrorIs(t, err, ErrNotFinished)

	startGame(t, r, alice, bob)
	_, err = r.RequestRematch(alice)
	assert.ErrorIs(t, err, ErrNotFinished)
}

func TestRematch_NotifiesOpponent(t *testing.T) {
	r := newTestRoom(t, testConfig())
	alice, bob := seatTwo(t, r)
	startGame(t, r, alice, bob)
	finishGame(t, r, alice)

	notices, err := r.RequestRematch(alice)
	require.NoError(t, err)
	types.Deliver(notices)

	assert.Zero(t, alice.CountOfType(protocol.TypeRematch))
	req := decode[protocol.RematchPayload](t, bob.LastOfType(protocol.TypeRematch))
	assert.Equal(t, "alice", req.RequestingPlayer)
	assert.Equal(t, 30, req.Timeout)
	assert.Equal(t, protocol.StatusFinished, r.Status())
}

func TestRematch_AcceptSwapsColorsAndRestarts(t *testing.T) {
	r := newTestRoom(t, testConfig())
	alice, bob := seatTwo(t, r)
	startGame(t, r, alice, bob)

	notices, err := r.PlaceStone(alice, 7, 7)
	require.NoError(t, err)
	types.Deliver(notices)
	finishGame(t, r, alice)

	notices, err = r.RequestRematch(alice)
	require.NoError(t, err)
	types.Deliver(notices)

	bob.Reset()
	notices, err = r.RespondRematch(bob, true)
	require.NoError(t, err)
	types.Deliver(notices)

	assert.Equal(t, protocol.StatusPlaying, r.Status())
	assert.Equal(t, protocol.ColorBlack, r.CurrentTurn())

	// Board reset travels first, with the sentinel coordinates.
	reset := decode[protocol.BoardUpdatePayload](t, bob.MessagesOfType(protocol.TypeBoardUpdate)[0])
	assert.Equal(t, -1, reset.X)
	assert.Equal(t, protocol.ColorNone, reset.Board[7][7])

	start := decode[protocol.GameStartPayload](t, bob.LastOfType(protocol.TypeGameStart))
	assert.Equal(t, protocol.ColorBlack, start.CurrentTurn)
	colors := map[string]protocol.StoneColor{}
	for _, p := range start.Players {
		colors[p.Name] = p.Color
	}
	assert.Equal(t, protocol.ColorWhite, colors["alice"])
	assert.Equal(t, protocol.ColorBlack, colors["bob"])

	// Bob moves first now.
	_, err = r.PlaceStone(alice, 0, 0)
	assert.ErrorIs(t, err, ErrNotYourTurn)
	_, err = r.PlaceStone(bob, 0, 0)
	require.NoError(t, err)
}

func TestRematch_BothRequestPaths(t *testing.T) {
	r := newTestRoom(t, testConfig())
	alice, bob := seatTwo(t, r)
	startGame(t, r, alice, bob)
	finishGame(t, r, bob)

	// Both sides send REMATCH instead of request/response; second one starts.
	notices, err := r.RequestRematch(alice)
	require.NoError(t, err)
	types.Deliver(notices)
	assert.Equal(t, protocol.StatusFinished, r.Status())

	notices, err = r.RequestRematch(bob)
	require.NoError(t, err)
	types.Deliver(notices)
	assert.Equal(t, protocol.StatusPlaying, r.Status())
}

func TestRematch_DeclineClearsHandshake(t *testing.T) {
	r := newTestRoom(t, testConfig())
	alice, bob := seatTwo(t, r)
	startGame(t, r, alice, bob)
	finishGame(t, r, alice)

	notices, err := r.RequestRematch(alice)
	require.NoError(t, err)
	types.Deliver(notices)

	notices, err = r.RespondRematch(bob, false)
	require.NoError(t, err)
	types.Deliver(notices)

	declined := decode[protocol.RematchDeclinedPayload](t, alice.LastOfType(protocol.TypeRematchDeclined))
	assert.Equal(t, "bob", declined.DeclinedBy)
	assert.Equal(t, protocol.StatusFinished, r.Status())

	// A later accept from bob alone must not start a game; alice's earlier
	// request was cleared by the decline.
	notices, err = r.RespondRematch(bob, true)
	require.NoError(t, err)
	types.Deliver(notices)
	assert.Equal(t, protocol.StatusFinished, r.Status())
}
