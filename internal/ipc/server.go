package ipc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"os"
	"sync"

	"cutout/internal/daemon"
	"cutout/internal/logging"
)

// Server accepts JSON-RPC connections on a Unix socket and dispatches them to
// the daemon.
type Server struct {
	socket   string
	logger   *slog.Logger
	ln       net.Listener
	rpc      *rpc.Server
	stopOnce sync.Once
	cancel   context.CancelFunc

	mu     sync.Mutex
	conns  map[net.Conn]struct{}
	closed bool
	wg     sync.WaitGroup
}

// NewServer replaces any stale socket at path, listens on it and registers
// the daemon's RPC methods. Call Serve to start accepting.
func NewServer(ctx context.Context, path string, d *daemon.Daemon, logger *slog.Logger) (*Server, error) {
	if d == nil {
		return nil, errors.New("ipc server requires daemon")
	}
	logger = logging.NewComponentLogger(logger, "ipc")

	if err := os.RemoveAll(path); err != nil {
		return nil, fmt.Errorf("remove stale socket %s: %w", path, err)
	}
	ln, err := net.Listen("unix", path)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", path, err)
	}
	if err := os.Chmod(path, 0o600); err != nil {
		_ = ln.Close()
		return nil, fmt.Errorf("restrict socket permissions: %w", err)
	}

	svcCtx, cancel := context.WithCancel(ctx)
	rpcServer := rpc.NewServer()
	if err := rpcServer.RegisterName(serviceName, &service{daemon: d, logger: logger, ctx: svcCtx}); err != nil {
		cancel()
		_ = ln.Close()
		return nil, fmt.Errorf("register rpc service: %w", err)
	}

	s := &Server{
		socket: path,
		logger: logger,
		ln:     ln,
		rpc:    rpcServer,
		cancel: cancel,
		conns:  make(map[net.Conn]struct{}),
	}
	context.AfterFunc(svcCtx, s.Close)
	return s, nil
}

// Serve accepts connections in the background until Close is called or the
// context given to NewServer ends.
func (s *Server) Serve() {
	s.logger.Debug("ipc listening", logging.String("socket", s.socket))
	s.wg.Add(1)
	go s.acceptLoop()
}

func (s *Server) acceptLoop() {
	defer s.wg.Done()
	for {
		conn, err := s.ln.Accept()
		if errors.Is(err, net.ErrClosed) {
			return
		}
		if err != nil {
			logging.WarnWithContext(s.logger, "ipc accept failed", "ipc_accept_failed",
				logging.Error(err),
				logging.String(logging.FieldImpact, "a CLI command could not reach the daemon"),
				logging.String(logging.FieldErrorHint, "check permissions on the state directory"))
			continue
		}
		if !s.track(conn) {
			_ = conn.Close()
			return
		}
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			defer s.untrack(conn)
			s.rpc.ServeCodec(jsonrpc.NewServerCodec(conn))
		}()
	}
}

func (s *Server) track(conn net.Conn) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	s.conns[conn] = struct{}{}
	return true
}

func (s *Server) untrack(conn net.Conn) {
	s.mu.Lock()
	delete(s.conns, conn)
	s.mu.Unlock()
}

// Close stops accepting, drops open client connections and removes the
// socket file. It is safe to call more than once.
func (s *Server) Close() {
	s.stopOnce.Do(func() {
		s.cancel()
		_ = s.ln.Close()

		s.mu.Lock()
		s.closed = true
		for conn := range s.conns {
			_ = conn.Close()
		}
		s.mu.Unlock()
		s.wg.Wait()

		if err := os.Remove(s.socket); err != nil && !errors.Is(err, os.ErrNotExist) {
			logging.WarnWithContext(s.logger, "socket cleanup failed", "ipc_socket_cleanup_failed",
				logging.String("socket", s.socket),
				logging.Error(err),
				logging.String(logging.FieldImpact, "the next daemon start replaces the stale socket"),
				logging.String(logging.FieldErrorHint, "delete the socket file by hand"))
		}
	})
}
