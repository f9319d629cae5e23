// Package transport provides the TCP listener and per-connection plumbing
// for the line-delimited JSON protocol.
package transport

import (
	"context"
	"errors"
	"net"
	"sync"

	"go.uber.org/zap"

	"github.com/omoknet/gomoku-server/internal/v1/logging"
	"github.com/omoknet/gomoku-server/internal/v1/metrics"
)

// Server accepts TCP connections and runs one Client per connection.
type Server struct {
	addr    string
	handler Handler

	mu      sync.Mutex
	ln      net.Listener
	clients map[*Client]struct{}
	closed  bool

	wg sync.WaitGroup
}

// NewServer builds a server that will listen on addr.
func NewServer(addr string, handler Handler) *Server {
	return &Server{
		addr:    addr,
		handler: handler,
		clients: make(map[*Client]struct{}),
	}
}

// Listen binds the TCP socket. Split from Serve so main can fail fast on a
// bad address and health checks can probe the bound listener.
func (s *Server) Listen() error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.ln = ln
	s.mu.Unlock()

	logging.Info(context.Background(), "tcp server listening",
		zap.String("addr", ln.Addr().String()),
	)
	return nil
}

// Addr returns the bound address, or "" before Listen.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ln == nil {
		return ""
	}
	return s.ln.Addr().String()
}

// Serve accepts connections until Shutdown closes the listener. It returns
// nil on a clean shutdown.
func (s *Server) Serve() error {
	s.mu.Lock()
	ln := s.ln
	s.mu.Unlock()

	for {
		conn, err := ln.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			return err
		}
		s.handleConn(conn)
	}
}

func (s *Server) handleConn(conn net.Conn) {
	client := NewClient(conn, s.handler)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		conn.Close()
		return
	}
	s.clients[client] = struct{}{}
	s.mu.Unlock()

	metrics.IncConnection()
	logging.Info(context.Background(), "client connected",
		zap.String("client_id", string(client.GetID())),
		zap.String("remote_addr", client.RemoteAddr()),
	)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		client.Run()

		s.mu.Lock()
		delete(s.clients, client)
		s.mu.Unlock()

		metrics.DecConnection()
		logging.Info(context.Background(), "client disconnected",
			zap.String("client_id", string(client.GetID())),
			zap.String("remote_addr", client.RemoteAddr()),
		)
	}()
}

// Shutdown stops accepting, disconnects every client and waits for their
// goroutines, bounded by ctx.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	s.closed = true
	if s.ln != nil {
		s.ln.Close()
	}
	clients := make([]*Client, 0, len(s.clients))
	for c := range s.clients {
		clients = append(clients, c)
	}
	s.mu.Unlock()

	for _, c := range clients {
		c.Disconnect()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
