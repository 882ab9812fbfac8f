package state

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // registers the "sqlite" driver
)

// DefaultListLimit applies when a filter asks for no limit.
const DefaultListLimit = 100

// timeLayout is fixed width so stored times sort as strings.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

var errNotOpened = errors.New("database not opened")

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db     *sql.DB
	path   string
	logger *slog.Logger
}

// NewSQLiteStore creates a new SQLite store instance.
func NewSQLiteStore(logger *slog.Logger) *SQLiteStore {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &SQLiteStore{logger: logger}
}

// NewSQLiteStoreFromDB wraps an already opened connection.
func NewSQLiteStoreFromDB(db *sql.DB, logger *slog.Logger) *SQLiteStore {
	s := NewSQLiteStore(logger)
	s.db = db
	return s
}

// Open opens a connection to the SQLite database.
// Use ":memory:" for an in-memory database.
func (s *SQLiteStore) Open(path string) error {
	dsn := ":memory:"
	if path != ":memory:" {
		dsn = "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return fmt.Errorf("failed to open sqlite database: %w", err)
	}
	if path == ":memory:" {
		// Each connection would get its own empty database.
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping sqlite database: %w", err)
	}

	s.db = db
	s.path = path
	s.logger.Debug("opened audit log", "path", path)
	return nil
}

// Close closes the SQLite database connection.
func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Path returns the path passed to Open.
func (s *SQLiteStore) Path() string {
	return s.path
}

// RecordCommand appends rec to the log. A missing ID or execution time is
// filled in.
func (s *SQLiteStore) RecordCommand(ctx context.Context, rec *CommandRecord) error {
	if s.db == nil {
		return errNotOpened
	}
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.ExecutedAt.IsZero() {
		rec.ExecutedAt = time.Now()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO command_log (id, client_id, db_name, command, status, message, duration_us, executed_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.ClientID, rec.Database, rec.Command, string(rec.Status), rec.Message,
		rec.Duration.Microseconds(), rec.ExecutedAt.UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("failed to record command: %w", err)
	}
	return nil
}

// ListCommands returns the most recent records matching filter, newest
// first.
func (s *SQLiteStore) ListCommands(ctx context.Context, filter CommandFilter) ([]*CommandRecord, error) {
	if s.db == nil {
		return nil, errNotOpened
	}

	var (
		where []string
		args  []any
	)
	if filter.ClientID != "" {
		where = append(where, "client_id = ?")
		args = append(args, filter.ClientID)
	}
	if filter.Status != "" {
		where = append(where, "status = ?")
		args = append(args, string(filter.Status))
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = DefaultListLimit
	}

	query := `SELECT id, client_id, db_name, command, status, message, duration_us, executed_at FROM command_log`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY seq DESC LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list commands: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var records []*CommandRecord
	for rows.Next() {
		rec := &CommandRecord{}
		var (
			status     string
			durationUS int64
			executedAt string
		)
		if err := rows.Scan(&rec.ID, &rec.ClientID, &rec.Database, &rec.Command,
			&status, &rec.Message, &durationUS, &executedAt); err != nil {
			return nil, fmt.Errorf("failed to scan command: %w", err)
		}
		rec.Status = CommandStatus(status)
		rec.Duration = time.Duration(durationUS) * time.Microsecond
		rec.ExecutedAt, err = time.Parse(timeLayout, executedAt)
		if err != nil {
			return nil, fmt.Errorf("invalid executed_at %q for command %s: %w", executedAt, rec.ID, err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// PruneCommands deletes records executed before cutoff and returns how
// many were removed.
func (s *SQLiteStore) PruneCommands(ctx context.Context, cutoff time.Time) (int64, error) {
	if s.db == nil {
		return 0, errNotOpened
	}
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM command_log WHERE executed_at < ?`,
		cutoff.UTC().Format(timeLayout),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to prune commands: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	s.logger.Info("pruned audit log", "removed", n, "before", cutoff)
	return n, nil
}
