package server

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/user"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"github.com/voxelhq/voxd/internal/engine"
	"github.com/voxelhq/voxd/internal/paths"
	"github.com/voxelhq/voxd/internal/rpc"
)

const (

	// Group name used to grant socket access. Members of this group can
	// connect to the daemon socket without owning the process.
	socketGroup = "voxd"

	// File mode applied to the Unix socket. Owner and group get read-write
	// (required for connect); others get no access.
	socketMode = 0660
)

// Listens on a Unix domain socket and serializes project operations.
type Server struct {
	socketPath     string               // Path to the Unix socket file.
	state          *State               // Resident project, lock, and engine facilities.
	listener       net.Listener         // Listener for incoming connections.
	conns          *semaphore.Weighted  // Cap on concurrently served connections.
	maxMessageSize int                  // Maximum request line length in bytes.
	startedAt      time.Time            // Timestamp when the server started.
	requests       int                  // Total number of requests answered.
	done           chan struct{}        // Channel to signal server shutdown.
	mu             sync.Mutex           // Protects the requests counter.
}

// Creates a new server instance.
//
// The socket is not opened until [Start] is called.
func New(cfg Config) (*Server, error) {
	cfg = cfg.withDefaults()

	var renderer engine.Renderer
	if !cfg.DisableRenderer {
		renderer = engine.Software{}
	}

	return &Server{
		socketPath:     cfg.SocketPath,
		state:          NewState(renderer, cfg.BackupDir),
		conns:          semaphore.NewWeighted(cfg.MaxConnections),
		maxMessageSize: cfg.MaxMessageSize,
		done:           make(chan struct{}),
	}, nil
}

// Opens the Unix socket and begins accepting connections.
func (s *Server) Start() error {
	listener, err := listen(s.socketPath)
	if err != nil {
		return err
	}

	s.listener = listener
	s.startedAt = time.Now()

	if err := writePID(); err != nil {
		slog.Warn("failed to write PID file", "error", err)
	}

	slog.Info("server listening on socket", "path", s.socketPath)

	go s.accept()
	return nil
}

// Creates the Unix socket listener, removes any stale socket from a previous
// run, and applies permissions.
func listen(socketPath string) (net.Listener, error) {
	if err := os.MkdirAll(paths.Runtime(), paths.DefaultDirMode); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrServer, err)
	}

	os.Remove(socketPath)

	listener, err := net.Listen("unix", socketPath)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to listen on %s: %v", ErrServer, socketPath, err)
	}

	if err := setSocketPermissions(socketPath); err != nil {
		listener.Close()
		return nil, err
	}

	return listener, nil
}

// Restricts socket access to owner and group. The daemon does not run as
// root; any user in the voxd group can also connect.
func setSocketPermissions(socketPath string) error {
	if err := os.Chmod(socketPath, socketMode); err != nil {
		return fmt.Errorf("%w: failed to chmod socket %s: %v", ErrServer, socketPath, err)
	}

	if g, err := user.LookupGroup(socketGroup); err == nil {
		if gid, err := strconv.Atoi(g.Gid); err == nil {
			if err := os.Chown(socketPath, -1, gid); err != nil {
				slog.Warn("failed to chgrp socket", "group", socketGroup, "error", err)
			}
		}
	} else {
		slog.Warn("socket group not found, socket accessible to owner only", "group", socketGroup)
	}

	return nil
}

// Shuts down the server and cleans up resources.
func (s *Server) Stop() error {
	close(s.done)

	if s.listener != nil {
		s.listener.Close()
	}

	os.Remove(s.socketPath)
	os.Remove(paths.PIDFile())

	return nil
}

// Blocks until the server stops.
func (s *Server) Wait() {
	<-s.done
}

// Accepts connections in a loop until the server shuts down.
//
// Each accepted connection is served by its own goroutine; the semaphore
// bounds how many run at once, and excess connections are refused outright
// rather than queued.
func (s *Server) accept() {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			select {
			case <-s.done:
				return
			default:
				slog.Error("accept error", "error", err)
				continue
			}
		}

		if !s.conns.TryAcquire(1) {
			slog.Warn("connection limit reached, refusing client")
			conn.Close()
			continue
		}

		go s.handle(conn)
	}
}

// Processes a single connection.
//
// Reads newline-delimited JSON-RPC requests one at a time, answering each
// before reading the next, so responses on a connection always come back in
// request order. The connection stays open until the client disconnects, a
// read fails, or a request line exceeds the size limit.
func (s *Server) handle(conn net.Conn) {
	defer s.conns.Release(1)
	defer conn.Close()

	connID := uuid.NewString()
	slog.Debug("client connected", "conn", connID)

	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 0, min(4096, s.maxMessageSize)), s.maxMessageSize)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}

		if !s.respond(conn, s.serve(connID, line)) {
			return
		}

		s.mu.Lock()
		s.requests++
		s.mu.Unlock()
	}

	if err := scanner.Err(); err != nil {
		if errors.Is(err, bufio.ErrTooLong) {
			slog.Warn("message too large, failing connection", "conn", connID)
			s.respond(conn, encodeResponse(rpc.EncodeError(nil,
				rpc.Errorf(rpc.CodeInvalidRequest, "message too large (limit %d bytes)", s.maxMessageSize))))
			return
		}
		slog.Debug("read error", "conn", connID, "error", err)
	}

	slog.Debug("client disconnected", "conn", connID)
}

// Writes one response line. A failed write (client gone mid-call) is logged
// and discarded per the contract; it reports false so the caller stops the
// connection loop.
func (s *Server) respond(conn net.Conn, response []byte) bool {
	response = append(response, '\n')
	if _, err := conn.Write(response); err != nil {
		slog.Debug("response write failed, discarding", "error", err)
		return false
	}
	return true
}

// Writes the daemon PID to the PID file so a CLI can detect whether the
// daemon is already running and send it signals.
func writePID() error {
	if err := os.MkdirAll(paths.Runtime(), paths.DefaultDirMode); err != nil {
		return err
	}
	return os.WriteFile(paths.PIDFile(), []byte(strconv.Itoa(os.Getpid())), paths.DefaultFileMode)
}
