package adminsock

import (
	"bufio"
	"context"
	"errors"
	"net"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/yndnr/zkmesh-go/internal/telemetry/logger"
)

// idleTimeout closes connections that send nothing.
const idleTimeout = 5 * time.Minute

// Server is the local management server.
type Server struct {
	path    string
	handler *Handler
	logger  logger.Logger

	mu       sync.Mutex
	listener net.Listener
	conns    map[net.Conn]struct{}
	running  atomic.Bool
	wg       sync.WaitGroup
}

// New creates a server for the socket at path.
func New(path string, h *Handler, l logger.Logger) *Server {
	if l == nil {
		l = logger.Default()
	}
	return &Server{
		path:    path,
		handler: h,
		logger:  l.With("component", "adminsock"),
		conns:   make(map[net.Conn]struct{}),
	}
}

// Listen creates the socket, replacing a stale one, and restricts it to the
// owner.
func (s *Server) Listen() (net.Listener, error) {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}
	l, err := net.Listen("unix", s.path)
	if err != nil {
		return nil, err
	}
	if err := os.Chmod(s.path, 0o600); err != nil {
		_ = l.Close()
		return nil, err
	}
	return l, nil
}

// ListenAndServe listens on the socket path and serves until Shutdown.
func (s *Server) ListenAndServe() error {
	l, err := s.Listen()
	if err != nil {
		return err
	}
	return s.Serve(l)
}

// Serve accepts connections on l until Shutdown. It returns nil after
// Shutdown.
func (s *Server) Serve(l net.Listener) error {
	s.mu.Lock()
	s.listener = l
	s.mu.Unlock()
	s.running.Store(true)

	for {
		conn, err := l.Accept()
		if err != nil {
			if !s.running.Load() || errors.Is(err, net.ErrClosed) {
				return nil
			}
			return err
		}

		s.mu.Lock()
		s.conns[conn] = struct{}{}
		s.mu.Unlock()

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.handleConnection(conn)
		}()
	}
}

// Shutdown stops accepting, closes open connections and waits for their
// handlers, bounded by ctx.
func (s *Server) Shutdown(ctx context.Context) error {
	s.running.Store(false)

	s.mu.Lock()
	var closeErr error
	if s.listener != nil {
		closeErr = s.listener.Close()
	}
	for conn := range s.conns {
		_ = conn.Close()
	}
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		if errors.Is(closeErr, net.ErrClosed) {
			return nil
		}
		return closeErr
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Server) handleConnection(conn net.Conn) {
	defer func() {
		s.mu.Lock()
		delete(s.conns, conn)
		s.mu.Unlock()
		_ = conn.Close()
	}()

	scanner := bufio.NewScanner(conn)
	for {
		_ = conn.SetReadDeadline(time.Now().Add(idleTimeout))
		if !scanner.Scan() {
			return
		}
		line := scanner.Text()
		s.logger.Debug("admin command", "command", line)
		if err := s.handler.Execute(conn, line); err != nil {
			s.logger.Warn("admin reply failed", "error", err)
			return
		}
	}
}
