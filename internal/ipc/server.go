package ipc

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"sync/atomic"

	"cmdsock/internal/logging"
)

// DefaultBacklog is the listen backlog used when Options.Backlog is unset.
const DefaultBacklog = 10

// ConnHandler serves one accepted connection and closes it.
type ConnHandler interface {
	Handle(conn net.Conn)
}

// Options configures the listening socket.
type Options struct {
	SocketPath string
	Backlog    int
	// SocketMode is applied to the socket file after bind. Zero leaves the
	// permissions the process umask produced.
	SocketMode os.FileMode
}

// Server owns the daemon's listening socket and its accept loop.
type Server struct {
	path     string
	listener net.Listener
	handler  ConnHandler
	logger   *slog.Logger

	closed   atomic.Bool
	accepted atomic.Uint64
}

// NewServer binds the socket described by opts. Failing to bind or listen is
// returned as an error; the caller must not serve without a socket.
func NewServer(opts Options, handler ConnHandler, logger *slog.Logger) (*Server, error) {
	if handler == nil {
		return nil, errors.New("ipc server requires a connection handler")
	}
	if opts.SocketPath == "" {
		return nil, errors.New("ipc server requires a socket path")
	}
	logger = logging.NewComponentLogger(logger, "ipc")

	backlog := opts.Backlog
	if backlog <= 0 {
		backlog = DefaultBacklog
	}

	listener, err := listenUnix(opts.SocketPath, backlog)
	if err != nil {
		return nil, fmt.Errorf("listen on socket: %w", err)
	}

	if opts.SocketMode != 0 {
		if err := os.Chmod(opts.SocketPath, opts.SocketMode); err != nil {
			logging.WarnWithContext(logger, "socket permissions not applied", "ipc_socket_chmod_failed",
				logging.String(logging.FieldSocket, opts.SocketPath),
				logging.String("mode", fmt.Sprintf("%#o", opts.SocketMode)),
				logging.Error(err),
				logging.String(logging.FieldImpact, "clients running as other users may be refused"),
				logging.String(logging.FieldErrorHint, "check ownership of the socket directory"),
			)
		}
	}

	logger.Info("listening",
		logging.String(logging.FieldSocket, opts.SocketPath),
		logging.Int("backlog", backlog),
		logging.String("mode", fmt.Sprintf("%#o", opts.SocketMode)),
		logging.String(logging.FieldEventType, "ipc_listening"),
	)

	return &Server{
		path:     opts.SocketPath,
		listener: listener,
		handler:  handler,
		logger:   logger,
	}, nil
}

// Serve accepts connections until Close is called. Each connection is handed
// to its own goroutine that is never tracked or awaited. Accept failures are
// retried immediately.
func (s *Server) Serve() {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if s.closed.Load() || errors.Is(err, net.ErrClosed) {
				return
			}
			s.logger.Debug("accept failed", logging.Error(err))
			continue
		}
		s.accepted.Add(1)
		go s.handler.Handle(conn)
	}
}

// Close stops accepting and removes the socket file. Connections already
// handed to the handler keep running.
func (s *Server) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	err := s.listener.Close()
	if rmErr := os.Remove(s.path); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) {
		logging.WarnWithContext(s.logger, "failed to remove socket", "ipc_socket_cleanup_failed",
			logging.String(logging.FieldSocket, s.path),
			logging.Error(rmErr),
			logging.String(logging.FieldImpact, "a stale socket file remains until the next start"),
			logging.String(logging.FieldErrorHint, "the next daemon start replaces it"),
		)
	}
	return err
}

// Path returns the socket path.
func (s *Server) Path() string {
	return s.path
}

// Accepted returns how many connections have been accepted so far.
func (s *Server) Accepted() uint64 {
	return s.accepted.Load()
}
