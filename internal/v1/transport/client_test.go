package transport

import (
	"bufio"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omoknet/gomoku-server/internal/v1/protocol"
	"github.com/omoknet/gomoku-server/internal/v1/types"
)

// startPipeClient wires a Client over one end of an in-memory pipe and
// returns the peer side plus the handler.
func startPipeClient(t *testing.T) (peer net.Conn, client *Client, handler *recordingHandler) {
	t.Helper()
	serverSide, clientSide := net.Pipe()
	handler = &recordingHandler{}
	client = NewClient(serverSide, handler)

	done := make(chan struct{})
	go func() {
		client.Run()
		close(done)
	}()

	t.Cleanup(func() {
		clientSide.Close()
		client.Disconnect()
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Error("client.Run did not return")
		}
	})
	return clientSide, client, handler
}

func TestClient_UniqueIDs(t *testing.T) {
	a, b := net.Pipe()
	defer a.Close()
	defer b.Close()

	c1 := NewClient(a, &recordingHandler{})
	c2 := NewClient(b, &recordingHandler{})
	assert.NotEqual(t, c1.GetID(), c2.GetID())
}

func TestClient_DisplayName(t *testing.T) {
	a, b := net.Pipe()
	defer a.Close()
	defer b.Close()

	c := NewClient(a, &recordingHandler{})
	assert.Empty(t, c.GetDisplayName())
	c.SetDisplayName(types.DisplayNameType("alice"))
	assert.Equal(t, types.DisplayNameType("alice"), c.GetDisplayName())
}

func TestClient_SendWritesFramedJSON(t *testing.T) {
	peer, client, _ := startPipeClient(t)

	client.Send(protocol.New(protocol.TypeTurnChange, protocol.TurnChangePayload{
		CurrentTurn: protocol.ColorWhite,
	}))

	reader := bufio.NewReader(peer)
	peer.SetReadDeadline(time.Now().Add(2 * time.Second))
	line, err := reader.ReadBytes('\n')
	require.NoError(t, err)

	msg, err := protocol.ParseLine(line)
	require.NoError(t, err)
	assert.Equal(t, protocol.TypeTurnChange, msg.Type)

	var payload protocol.TurnChangePayload
	require.NoError(t, msg.Decode(&payload))
	assert.Equal(t, protocol.ColorWhite, payload.CurrentTurn)
}

func TestClient_ReadDispatchesMessages(t *testing.T) {
	peer, _, handler := startPipeClient(t)

	line, err := protocol.New(protocol.TypePlaceStone, protocol.PlaceStoneRequest{X: 7, Y: 8}).Encode()
	require.NoError(t, err)
	_, err = peer.Write(line)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return handler.messageCount() == 1
	}, 2*time.Second, 10*time.Millisecond)

	msg := handler.lastMessage()
	assert.Equal(t, protocol.TypePlaceStone, msg.Type)
}

func TestClient_MultipleMessagesInOneWrite(t *testing.T) {
	peer, _, handler := startPipeClient(t)

	l1, err := protocol.New(protocol.TypeReady, nil).Encode()
	require.NoError(t, err)
	l2, err := protocol.New(protocol.TypeListRooms, nil).Encode()
	require.NoError(t, err)

	_, err = peer.Write(append(l1, l2...))
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return handler.messageCount() == 2
	}, 2*time.Second, 10*time.Millisecond)
}

func TestClient_MalformedLineGetsErrorReply(t *testing.T) {
	peer, _, handler := startPipeClient(t)

	_, err := peer.Write([]byte("this is not json\n"))
	require.NoError(t, err)

	reader := bufio.NewReader(peer)
	peer.SetReadDeadline(time.Now().Add(2 * time.Second))
	line, err := reader.ReadBytes('\n')
	require.NoError(t, err)

	msg, err := protocol.ParseLine(line)
	require.NoError(t, err)
	assert.Equal(t, protocol.TypeError, msg.Type)

	// The connection stays up and malformed input is never dispatched.
	assert.Zero(t, handler.messageCount())
	assert.Zero(t, handler.disconnectCount())
}

func TestClient_DisconnectFiresHandlerOnce(t *testing.T) {
	peer, _, handler := startPipeClient(t)

	peer.Close()

	require.Eventually(t, func() bool {
		return handler.disconnectCount() == 1
	}, 2*time.Second, 10*time.Millisecond)

	// Give any stray duplicate a chance to show up.
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 1, handler.disconnectCount())
}
