// Package storage maps databases to directories and tables to .tab files
// under a storage root.
//
// A table file holds one tab-separated line per row, preceded by a header
// line whose first field is id. Saves replace the whole file atomically.
package storage

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/leapstack-labs/tabdb/internal/table"
	"github.com/leapstack-labs/tabdb/pkg/core"
)

// Layout resolves database and table paths under a root directory.
type Layout struct {
	root string
}

// NewLayout creates a layout rooted at dir. The directory is created if it
// does not exist.
func NewLayout(dir string) (*Layout, error) {
	if dir == "" {
		return nil, errors.New("storage root must not be empty")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage root: %w", err)
	}
	return &Layout{root: dir}, nil
}

// Root returns the storage root directory.
func (l *Layout) Root() string { return l.root }

// DatabasePath returns the directory of a database.
func (l *Layout) DatabasePath(db string) string {
	return filepath.Join(l.root, core.NormalizeName(db))
}

// TablePath returns the file of a table inside a database.
func (l *Layout) TablePath(db, tbl string) string {
	return filepath.Join(l.DatabasePath(db), core.NormalizeName(tbl)+core.TableFileExt)
}

// DatabaseExists reports whether the database directory exists.
func (l *Layout) DatabaseExists(db string) (bool, error) {
	info, err := os.Stat(l.DatabasePath(db))
	switch {
	case err == nil:
		return info.IsDir(), nil
	case errors.Is(err, fs.ErrNotExist):
		return false, nil
	}
	return false, fmt.Errorf("failed to stat database %s: %w", db, err)
}

// CreateDatabase creates the database directory.
func (l *Layout) CreateDatabase(db string) error {
	exists, err := l.DatabaseExists(db)
	if err != nil {
		return err
	}
	if exists {
		return core.Conflictf("database %s already exists", core.NormalizeName(db))
	}
	if err := os.Mkdir(l.DatabasePath(db), 0o755); err != nil {
		if errors.Is(err, fs.ErrExist) {
			return core.Conflictf("database %s already exists as a file", core.NormalizeName(db))
		}
		return fmt.Errorf("failed to create database %s: %w", db, err)
	}
	return nil
}

// DropDatabase deletes the database directory and every file in it.
func (l *Layout) DropDatabase(db string) error {
	exists, err := l.DatabaseExists(db)
	if err != nil {
		return err
	}
	if !exists {
		return core.NotFoundf("database %s does not exist", core.NormalizeName(db))
	}
	if err := os.RemoveAll(l.DatabasePath(db)); err != nil {
		return fmt.Errorf("failed to drop database %s: %w", db, err)
	}
	return nil
}

// ListDatabases returns the names of all databases, sorted.
func (l *Layout) ListDatabases() ([]string, error) {
	entries, err := os.ReadDir(l.root)
	if err != nil {
		return nil, fmt.Errorf("failed to list databases: %w", err)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() && core.ValidObjectName(e.Name()) {
			names = append(names, e.Name())
		}
	}
	slices.Sort(names)
	return names, nil
}

// LoadDatabase reads every table file of a database.
func (l *Layout) LoadDatabase(db string) (map[string]*table.Table, error) {
	exists, err := l.DatabaseExists(db)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, core.NotFoundf("database %s does not exist", core.NormalizeName(db))
	}

	entries, err := os.ReadDir(l.DatabasePath(db))
	if err != nil {
		return nil, fmt.Errorf("failed to read database %s: %w", db, err)
	}

	tables := make(map[string]*table.Table)
	for _, e := range entries {
		name, ok := strings.CutSuffix(e.Name(), core.TableFileExt)
		if e.IsDir() || !ok || !core.ValidObjectName(name) {
			continue
		}
		t, err := ReadTable(filepath.Join(l.DatabasePath(db), e.Name()), name)
		if err != nil {
			return nil, err
		}
		tables[t.Name()] = t
	}
	return tables, nil
}

// SaveTable writes a table to its file in db, replacing any previous
// contents.
func (l *Layout) SaveTable(db string, t *table.Table) error {
	return WriteTable(l.TablePath(db, t.Name()), t)
}

// DeleteTable removes a table file.
func (l *Layout) DeleteTable(db, tbl string) error {
	if err := os.Remove(l.TablePath(db, tbl)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to delete table %s: %w", tbl, err)
	}
	return nil
}

// ReadTable parses one table file. Blank lines are skipped and a trailing
// carriage return on a line is ignored.
func ReadTable(path, name string) (*table.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open table %s: %w", name, err)
	}
	defer func() { _ = f.Close() }()

	var header []string
	var rows [][]string
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		line := strings.TrimSuffix(scanner.Text(), "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		fields := strings.Split(line, "\t")
		if header == nil {
			header = fields
			continue
		}
		rows = append(rows, fields)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read table %s: %w", name, err)
	}

	return table.Restore(name, header, rows)
}

// WriteTable writes t to path through a temporary file in the same
// directory that is renamed over the target.
func WriteTable(path string, t *table.Table) (err error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+t.Name()+"-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to save table %s: %w", t.Name(), err)
	}
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()

	w := bufio.NewWriter(tmp)
	if _, err = w.WriteString(strings.Join(t.Columns(), "\t") + "\n"); err != nil {
		return fmt.Errorf("failed to save table %s: %w", t.Name(), err)
	}
	for _, r := range t.Rows() {
		if _, err = w.WriteString(strings.Join(r, "\t") + "\n"); err != nil {
			return fmt.Errorf("failed to save table %s: %w", t.Name(), err)
		}
	}
	if err = w.Flush(); err != nil {
		return fmt.Errorf("failed to save table %s: %w", t.Name(), err)
	}
	if err = tmp.Sync(); err != nil {
		return fmt.Errorf("failed to sync table %s: %w", t.Name(), err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("failed to save table %s: %w", t.Name(), err)
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to replace table %s: %w", t.Name(), err)
	}
	return nil
}
