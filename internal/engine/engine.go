// Package engine executes tabdb commands against the databases under a
// storage root. It owns the session (the selected database and its loaded
// tables) and serialises every command through one lock.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/leapstack-labs/tabdb/internal/storage"
	"github.com/leapstack-labs/tabdb/pkg/core"
	"github.com/leapstack-labs/tabdb/pkg/parser"
)

// Engine interprets commands. It is safe for concurrent use; commands run
// one at a time.
type Engine struct {
	mu       sync.Mutex
	session  *Session
	layout   *storage.Layout
	recorder core.Recorder
	logger   *slog.Logger
}

// Config holds engine configuration.
type Config struct {
	// Root is the storage root holding one directory per database.
	Root string
	// Recorder receives one record per command (optional).
	Recorder core.Recorder
	// Logger is the structured logger (optional, uses discard if nil)
	Logger *slog.Logger
}

// New creates an engine with no database selected.
func New(cfg Config) (*Engine, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	layout, err := storage.NewLayout(cfg.Root)
	if err != nil {
		return nil, err
	}

	logger.Debug("initializing engine", "root", cfg.Root, "audit", cfg.Recorder != nil)

	return &Engine{
		session:  newSession("", nil),
		layout:   layout,
		recorder: cfg.Recorder,
		logger:   logger,
	}, nil
}

// Layout returns the storage layout the engine works on.
func (e *Engine) Layout() *storage.Layout {
	return e.layout
}

// Database returns the selected database, or "" when none is selected.
func (e *Engine) Database() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.session.database
}

// Tables returns the names of the tables in the selected database.
func (e *Engine) Tables() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.session.tableNames()
}

// Handle runs one command and formats the response:
// "[OK]", "[OK]\n<header>\n<rows>\n" or "[ERROR] <message>".
func (e *Engine) Handle(ctx context.Context, command string) string {
	res, err := e.Execute(ctx, command)
	if err != nil {
		return FormatError(err)
	}
	return res.Format()
}

// Execute parses and runs one command. Every failure, including a panic
// while executing, is returned as an error and leaves the engine usable.
func (e *Engine) Execute(ctx context.Context, command string) (res *Result, err error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	start := time.Now()
	client := ClientID(ctx)
	e.logger.Debug("executing command", "client", client, "database", e.session.database, "command", command)

	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("command panicked", "client", client, "command", command, "panic", r)
			res, err = nil, fmt.Errorf("internal error: %v", r)
		}
		e.finish(ctx, client, command, start, err)
	}()

	stmt, err := parser.Parse(command)
	if err != nil {
		return nil, err
	}
	res, err = e.exec(stmt)
	if err != nil {
		return nil, err
	}
	res.Database = e.session.database
	res.Changed = mutates(stmt)
	return res, nil
}

// finish logs the outcome and writes the audit record.
func (e *Engine) finish(ctx context.Context, client, command string, start time.Time, err error) {
	elapsed := time.Since(start)
	rec := &core.CommandRecord{
		ID:         uuid.New().String(),
		ClientID:   client,
		Database:   e.session.database,
		Command:    command,
		Status:     core.CommandStatusOK,
		Duration:   elapsed,
		ExecutedAt: start,
	}
	if err != nil {
		rec.Status = core.CommandStatusError
		rec.Message = err.Error()
		e.logger.Warn("command failed", "client", client, "command", command, "error", err)
	} else {
		e.logger.Debug("command succeeded", "client", client, "duration", elapsed)
	}

	if e.recorder == nil {
		return
	}
	if rerr := e.recorder.RecordCommand(context.WithoutCancel(ctx), rec); rerr != nil {
		e.logger.Warn("failed to record command", "id", rec.ID, "error", rerr)
	}
}

// ForgetDatabase clears the session when name is the selected database.
// It reports whether the session was cleared.
func (e *Engine) ForgetDatabase(name string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.session.database == "" || e.session.database != core.NormalizeName(name) {
		return false
	}
	e.logger.Info("database removed, clearing session", "database", e.session.database)
	e.session = newSession("", nil)
	return true
}

// errNoDatabase is returned by table commands while no database is selected.
var errNoDatabase = core.NotFoundf("no database selected")

// IsNoDatabase reports whether err means no database was selected.
func IsNoDatabase(err error) bool {
	return errors.Is(err, errNoDatabase)
}
