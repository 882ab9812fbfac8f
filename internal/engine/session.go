package engine

import (
	"context"
	"maps"
	"slices"

	"github.com/leapstack-labs/tabdb/internal/table"
	"github.com/leapstack-labs/tabdb/pkg/core"
)

// Session is the catalog of the selected database: its name and every
// table loaded from it. USE replaces the whole session.
type Session struct {
	database string
	tables   map[string]*table.Table
}

func newSession(database string, tables map[string]*table.Table) *Session {
	if tables == nil {
		tables = make(map[string]*table.Table)
	}
	return &Session{database: database, tables: tables}
}

func (s *Session) requireDatabase() error {
	if s.database == "" {
		return errNoDatabase
	}
	return nil
}

// table looks up a table of the selected database.
func (s *Session) table(name string) (*table.Table, error) {
	if err := s.requireDatabase(); err != nil {
		return nil, err
	}
	t, ok := s.tables[core.NormalizeName(name)]
	if !ok {
		return nil, core.NotFoundf("table %s does not exist in database %s", core.NormalizeName(name), s.database)
	}
	return t, nil
}

func (s *Session) put(t *table.Table) {
	s.tables[t.Name()] = t
}

func (s *Session) remove(name string) {
	delete(s.tables, core.NormalizeName(name))
}

func (s *Session) tableNames() []string {
	return slices.Sorted(maps.Keys(s.tables))
}

type clientKey struct{}

// WithClientID returns a context that attributes commands to a client,
// such as a TCP connection or an HTTP request.
func WithClientID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, clientKey{}, id)
}

// ClientID returns the client id stored in ctx, or "local".
func ClientID(ctx context.Context) string {
	if id, ok := ctx.Value(clientKey{}).(string); ok && id != "" {
		return id
	}
	return "local"
}
