// Package supervisor owns the registry of running language servers: one
// spawned process and Peer per language_id, started on demand and torn down
// on an explicit stop or on the child exiting on its own. Shutdown follows
// the teacher's graceful-then-kill pattern from internal/lsp/client.go
// (Stop): request shutdown/exit, wait briefly, force-kill if the child
// doesn't go away.
package supervisor

import (
	"context"
	"fmt"
	"os/exec"
	"sync"
	"time"

	"go.lsp.dev/protocol"
	"go.uber.org/zap"

	"github.com/firi/lsp-broker/internal/config"
	"github.com/firi/lsp-broker/internal/errs"
	"github.com/firi/lsp-broker/internal/peer"
	"github.com/firi/lsp-broker/internal/transport"
)

const killGrace = 2 * time.Second

// Server bundles a running language server's peer, its typed outbound
// dispatcher, and the exec.Cmd so the supervisor can wait on exit.
type Server struct {
	LanguageID string
	Peer       *peer.Peer
	Client     protocol.Server // broker calling INTO the spawned server
	Caps       *protocol.ServerCapabilities

	cmd    *exec.Cmd
	logger *zap.Logger
}

// Supervisor is the language_id -> Server registry.
type Supervisor struct {
	mu      sync.RWMutex
	servers map[string]*Server
	configs map[string]config.ServerConfig
	logger  *zap.Logger
}

// New builds a Supervisor over the configured server table.
func New(configs map[string]config.ServerConfig, logger *zap.Logger) *Supervisor {
	return &Supervisor{
		servers: make(map[string]*Server),
		configs: configs,
		logger:  logger,
	}
}

// Get returns the running Server for languageID, or ServerNotRunning.
func (s *Supervisor) Get(languageID string) (*Server, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	srv, ok := s.servers[languageID]
	if !ok {
		return nil, errs.New(errs.ServerNotRunning, languageID)
	}
	return srv, nil
}

// Start spawns the server for languageID if it is not already running.
// Starting an already-running server is a no-op (idempotent double-start).
func (s *Supervisor) Start(ctx context.Context, languageID string) (*Server, error) {
	s.mu.Lock()
	if srv, ok := s.servers[languageID]; ok {
		s.mu.Unlock()
		return srv, nil
	}
	s.mu.Unlock()

	cfg, ok := s.configs[languageID]
	if !ok {
		return nil, errs.New(errs.UnknownLanguage, languageID)
	}

	serverLogger := s.logger.With(zap.String("language_id", languageID))
	stderrSink := &zapLineWriter{logger: serverLogger}

	stream, cmd, err := transport.NewProcessStream(cfg.Command, cfg.Args, stderrSink)
	if err != nil {
		return nil, err
	}

	p := peer.New(ctx, peer.Identity{Role: peer.RoleServer, LanguageID: languageID}, stream, serverLogger)
	client := protocol.ServerDispatcher(p.Conn(), serverLogger)

	srv := &Server{
		LanguageID: languageID,
		Peer:       p,
		Client:     client,
		cmd:        cmd,
		logger:     serverLogger,
	}

	s.mu.Lock()
	s.servers[languageID] = srv
	s.mu.Unlock()

	go s.watchExit(languageID, p)

	return srv, nil
}

// watchExit removes a server from the registry as soon as its connection
// terminates, whether that's from a clean exit or a crash — the supervisor
// never auto-restarts; Get reports ServerNotRunning until the next
// explicit start.
func (s *Supervisor) watchExit(languageID string, p *peer.Peer) {
	<-p.Done()
	s.mu.Lock()
	if cur, ok := s.servers[languageID]; ok && cur.Peer == p {
		delete(s.servers, languageID)
	}
	s.mu.Unlock()
	if err := p.Err(); err != nil {
		s.logger.Warn("server connection closed", zap.String("language_id", languageID), zap.Error(err))
	}
}

// SetCapabilities records the server's advertised capabilities after
// initialize completes. It overwrites unconditionally; the set-once rule
// for capabilities is enforced by internal/store, not here.
func (srv *Server) SetCapabilities(caps *protocol.ServerCapabilities) {
	srv.Caps = caps
}

// Stop requests graceful shutdown/exit, then force-kills the child if it
// hasn't exited within killGrace.
func (s *Supervisor) Stop(ctx context.Context, languageID string) error {
	s.mu.Lock()
	srv, ok := s.servers[languageID]
	if ok {
		delete(s.servers, languageID)
	}
	s.mu.Unlock()
	if !ok {
		return nil
	}

	_ = srv.Client.Shutdown(ctx)
	_ = srv.Client.Exit(ctx)

	done := make(chan error, 1)
	go func() { done <- srv.cmd.Wait() }()

	select {
	case <-done:
		return nil
	case <-time.After(killGrace):
		if srv.cmd.Process != nil {
			return srv.cmd.Process.Kill()
		}
		return nil
	}
}

// StopAll tears every running server down, used on broker exit.
func (s *Supervisor) StopAll(ctx context.Context) {
	s.mu.RLock()
	ids := make([]string, 0, len(s.servers))
	for id := range s.servers {
		ids = append(ids, id)
	}
	s.mu.RUnlock()

	for _, id := range ids {
		if err := s.Stop(ctx, id); err != nil {
			s.logger.Warn("error stopping server", zap.String("language_id", id), zap.Error(err))
		}
	}
}

// ConfigFor returns the ServerConfig for languageID.
func (s *Supervisor) ConfigFor(languageID string) (config.ServerConfig, bool) {
	cfg, ok := s.configs[languageID]
	return cfg, ok
}

type zapLineWriter struct{ logger *zap.Logger }

func (w *zapLineWriter) Write(p []byte) (int, error) {
	w.logger.Debug(fmt.Sprintf("%s", p))
	return len(p), nil
}
