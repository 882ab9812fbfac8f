// Package server exposes an engine over TCP, with an optional HTTP admin
// API and an optional watcher on the storage root.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/leapstack-labs/tabdb/internal/engine"
	"github.com/leapstack-labs/tabdb/pkg/core"
)

// DefaultListen is the default TCP listen address.
const DefaultListen = ":8888"

// Server serves one engine to many clients.
type Server struct {
	engine   *engine.Engine
	store    core.Store
	listen   string
	httpAddr string
	watch    bool
	logger   *slog.Logger
	notifier *Notifier

	mu    sync.Mutex
	conns map[net.Conn]struct{}
	wg    sync.WaitGroup

	writesMu sync.Mutex
	writes   map[string]time.Time // database -> last save made by a command
}

// Config holds configuration for the server.
type Config struct {
	Engine *engine.Engine
	// Store backs GET /history (optional).
	Store core.Store
	// Listen is the TCP address for the command protocol.
	Listen string
	// HTTPAddr enables the HTTP admin API when set.
	HTTPAddr string
	// Watch enables the storage root watcher.
	Watch  bool
	Logger *slog.Logger
}

// New creates a server.
func New(cfg Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	listen := cfg.Listen
	if listen == "" {
		listen = DefaultListen
	}
	return &Server{
		engine:   cfg.Engine,
		store:    cfg.Store,
		listen:   listen,
		httpAddr: cfg.HTTPAddr,
		watch:    cfg.Watch,
		logger:   logger,
		notifier: NewNotifier(),
		conns:    make(map[net.Conn]struct{}),
		writes:   make(map[string]time.Time),
	}
}

// Notifier returns the server's change notifier.
func (s *Server) Notifier() *Notifier {
	return s.notifier
}

// ListenAndServe listens on the configured TCP address and serves until
// ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.listen)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.listen, err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts command connections on ln and blocks until ctx is
// cancelled or a component fails. The HTTP API and the watcher run
// alongside when configured.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.logger.Info("starting server", "addr", ln.Addr().String(), "root", s.engine.Layout().Root())

	eg, egctx := errgroup.WithContext(ctx)

	eg.Go(func() error {
		return s.acceptLoop(egctx, ln)
	})

	var srv *http.Server
	if s.httpAddr != "" {
		srv = &http.Server{
			Addr:    s.httpAddr,
			Handler: s.Handler(),
			BaseContext: func(_ net.Listener) context.Context {
				return egctx
			},
			ReadHeaderTimeout: 10 * time.Second,
		}
		s.logger.Info("starting HTTP API", "addr", s.httpAddr)
		eg.Go(func() error {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("http server error: %w", err)
			}
			return nil
		})
	}

	if s.watch {
		eg.Go(func() error {
			return s.watchRoot(egctx)
		})
	}

	// Graceful shutdown
	eg.Go(func() error {
		<-egctx.Done()
		s.logger.Debug("shutting down server...")
		_ = ln.Close()
		s.closeConns()

		if srv != nil {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		}
		return nil
	})

	err := eg.Wait()
	s.wg.Wait()
	return err
}

func (s *Server) acceptLoop(ctx context.Context, ln net.Listener) error {
	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			// Keep serving after transient accept failures.
			s.logger.Warn("accept failed", "error", err)
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(50 * time.Millisecond):
			}
			continue
		}

		if !s.track(conn) {
			_ = conn.Close()
			return nil
		}
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			defer s.untrack(conn)
			s.handleConn(ctx, conn)
		}()
	}
}

// track registers a live connection. It fails once shutdown has begun.
func (s *Server) track(conn net.Conn) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conns == nil {
		return false
	}
	s.conns[conn] = struct{}{}
	return true
}

func (s *Server) untrack(conn net.Conn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.conns, conn)
}

func (s *Server) closeConns() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for conn := range s.conns {
		_ = conn.Close()
	}
	s.conns = nil
}

// execute runs one command and publishes a change event when it modified
// stored data.
func (s *Server) execute(ctx context.Context, command string) string {
	res, err := s.engine.Execute(ctx, command)
	if err != nil {
		return engine.FormatError(err)
	}
	if res.Changed {
		s.markWrite(res.Database)
		s.notifier.Broadcast(Event{
			Kind:     EventCommand,
			Database: res.Database,
			Command:  command,
			Client:   engine.ClientID(ctx),
			Time:     time.Now(),
		})
	}
	return res.Format()
}

// ownWriteWindow is how long after a command's save file events for the
// same database are attributed to the server itself.
const ownWriteWindow = time.Second

func (s *Server) markWrite(database string) {
	s.writesMu.Lock()
	defer s.writesMu.Unlock()
	s.writes[database] = time.Now()
}

// wroteRecently reports whether a command saved tables of database within
// ownWriteWindow.
func (s *Server) wroteRecently(database string) bool {
	s.writesMu.Lock()
	defer s.writesMu.Unlock()
	t, ok := s.writes[database]
	return ok && time.Since(t) < ownWriteWindow
}
