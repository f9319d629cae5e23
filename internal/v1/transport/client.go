package transport

import (
	"bufio"
	"context"
	"net"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/omoknet/gomoku-server/internal/v1/logging"
	"github.com/omoknet/gomoku-server/internal/v1/protocol"
	"github.com/omoknet/gomoku-server/internal/v1/types"
)

const (
	// sendQueueSize bounds the per-client outbound buffer. A client that
	// cannot drain this many messages is dropped rather than allowed to
	// stall broadcasts.
	sendQueueSize = 64

	writeTimeout = 10 * time.Second

	// maxLineBytes caps a single wire line. A full board update is well
	// under 4 KB, so this is generous.
	maxLineBytes = 64 * 1024
)

// Handler consumes decoded messages and connection lifecycle events. The
// session dispatcher implements it.
type Handler interface {
	HandleMessage(client types.ClientInterface, msg *protocol.Message)
	HandleDisconnect(client types.ClientInterface)
}

// Client is one TCP connection. It satisfies types.ClientInterface: Send
// enqueues without blocking and a dedicated writePump owns the socket for
// writes, so room broadcasts never perform I/O.
type Client struct {
	id   types.ClientIdType
	conn net.Conn

	mu          sync.Mutex
	displayName types.DisplayNameType

	send chan []byte
	done chan struct{}
	once sync.Once

	handler Handler
}

// NewClient wraps an accepted connection. The caller must invoke Run to
// start the pumps.
func NewClient(conn net.Conn, handler Handler) *Client {
	return &Client{
		id:      types.ClientIdType(uuid.NewString()),
		conn:    conn,
		send:    make(chan []byte, sendQueueSize),
		done:    make(chan struct{}),
		handler: handler,
	}
}

// GetID returns the connection's unique ID.
func (c *Client) GetID() types.ClientIdType { return c.id }

// GetDisplayName returns the name the client registered with, if any.
func (c *Client) GetDisplayName() types.DisplayNameType {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.displayName
}

// SetDisplayName records the client's name once it joins or creates a room.
func (c *Client) SetDisplayName(name types.DisplayNameType) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.displayName = name
}

// RemoteAddr returns the peer address for logging.
func (c *Client) RemoteAddr() string {
	return c.conn.RemoteAddr().String()
}

// Send enqueues a message for delivery. It never blocks: when the client's
// queue is full the message is dropped and the connection is closed, which
// routes the client through the normal disconnect path.
func (c *Client) Send(msg *protocol.Message) {
	data, err := msg.Encode()
	if err != nil {
		logging.Error(context.Background(), "failed to encode outbound message",
			zap.String("client_id", string(c.id)),
			zap.String("message_type", msg.Type),
			zap.Error(err),
		)
		return
	}

	select {
	case c.send <- data:
	case <-c.done:
	default:
		logging.Warn(context.Background(), "client send queue full, disconnecting",
			zap.String("client_id", string(c.id)),
			zap.String("remote_addr", c.RemoteAddr()),
		)
		c.Disconnect()
	}
}

// Disconnect tears the connection down. Safe to call more than once and
// from any goroutine.
func (c *Client) Disconnect() {
	c.once.Do(func() {
		close(c.done)
		c.conn.Close()
	})
}

// Run drives both pumps and blocks until the connection is gone. The
// handler's HandleDisconnect fires exactly once, after the read side ends.
func (c *Client) Run() {
	go c.writePump()
	c.readPump()
	c.Disconnect()
	c.handler.HandleDisconnect(c)
}

// readPump splits the inbound stream on newlines and hands each parsed
// message to the handler. Malformed JSON earns an ERROR reply but does not
// kill the connection.
func (c *Client) readPump() {
	scanner := bufio.NewScanner(c.conn)
	scanner.Buffer(make([]byte, 4096), maxLineBytes)

	for scanner.Scan() {
		msg, err := protocol.ParseLine(scanner.Bytes())
		if err != nil {
			if err == protocol.ErrEmptyLine {
				continue
			}
			logging.Warn(context.Background(), "malformed message from client",
				zap.String("client_id", string(c.id)),
				zap.Error(err),
			)
			c.Send(protocol.NewError("Invalid message format"))
			continue
		}
		c.handler.HandleMessage(c, msg)
	}

	if err := scanner.Err(); err != nil {
		logging.Info(context.Background(), "client read ended",
			zap.String("client_id", string(c.id)),
			zap.Error(err),
		)
	}
}

// writePump owns all socket writes for the connection.
func (c *Client) writePump() {
	for {
		select {
		case <-c.done:
			return
		case data := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if _, err := c.conn.Write(data); err != nil {
				logging.Warn(context.Background(), "write to client failed",
					zap.String("client_id", string(c.id)),
					zap.Error(err),
				)
				c.Disconnect()
				return
			}
		}
	}
}
