package storage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/tabdb/internal/table"
	"github.com/leapstack-labs/tabdb/pkg/core"
)

func newLayout(t *testing.T) *Layout {
	t.Helper()
	l, err := NewLayout(filepath.Join(t.TempDir(), "databases"))
	require.NoError(t, err)
	return l
}

func TestNewLayout(t *testing.T) {
	_, err := NewLayout("")
	require.Error(t, err)

	l := newLayout(t)
	info, err := os.Stat(l.Root())
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestDatabaseLifecycle(t *testing.T) {
	l := newLayout(t)

	exists, err := l.DatabaseExists("School")
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, l.CreateDatabase("School"))
	assert.DirExists(t, filepath.Join(l.Root(), "school"))
	assert.ErrorIs(t, l.CreateDatabase("SCHOOL"), core.ErrConflict)

	require.NoError(t, l.CreateDatabase("archive"))
	names, err := l.ListDatabases()
	require.NoError(t, err)
	assert.Equal(t, []string{"archive", "school"}, names)

	require.NoError(t, l.DropDatabase("school"))
	assert.NoDirExists(t, filepath.Join(l.Root(), "school"))
	assert.ErrorIs(t, l.DropDatabase("school"), core.ErrNotFound)

	_, err = l.LoadDatabase("school")
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestCreateDatabase_FileInTheWay(t *testing.T) {
	l := newLayout(t)
	require.NoError(t, os.WriteFile(filepath.Join(l.Root(), "school"), []byte("x"), 0o644))

	err := l.CreateDatabase("School")
	assert.ErrorIs(t, err, core.ErrConflict)
	assert.Contains(t, err.Error(), "school")
}

func TestSaveAndReload(t *testing.T) {
	l := newLayout(t)
	require.NoError(t, l.CreateDatabase("school"))

	tbl, err := table.New("Marks", []string{"name", "mark", "note"})
	require.NoError(t, err)
	for _, v := range [][]string{
		{"Simon", "65", ""},
		{"Sion", "55", "resit"},
		{"Rob", "35", ""},
	} {
		_, err := tbl.Insert(v)
		require.NoError(t, err)
	}
	tbl.Delete(func(r table.Row) bool { return r[0] == "3" })
	require.NoError(t, l.SaveTable("school", tbl))

	data, err := os.ReadFile(l.TablePath("school", "marks"))
	require.NoError(t, err)
	assert.Equal(t, "id\tname\tmark\tnote\n1\tSimon\t65\t\n2\tSion\t55\tresit\n", string(data))

	tables, err := l.LoadDatabase("SCHOOL")
	require.NoError(t, err)
	require.Contains(t, tables, "marks")

	reloaded := tables["marks"]
	assert.Equal(t, tbl.Columns(), reloaded.Columns())
	assert.Equal(t, tbl.Rows(), reloaded.Rows())
	// Counter restarts at max(id)+1, not after the deleted row.
	assert.Equal(t, 3, reloaded.NextID())
}

func TestLoadDatabase_SkipsForeignFiles(t *testing.T) {
	l := newLayout(t)
	require.NoError(t, l.CreateDatabase("db"))
	dir := l.DatabasePath("db")

	require.NoError(t, os.WriteFile(filepath.Join(dir, "people.tab"), []byte("id\tname\r\n\r\n1\tAnn\r\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.txt"), []byte("not a table"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".people-123.tmp"), []byte("junk"), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested.tab"), 0o755))

	tables, err := l.LoadDatabase("db")
	require.NoError(t, err)
	require.Len(t, tables, 1)
	assert.Equal(t, []table.Row{{"1", "Ann"}}, tables["people"].Rows())
}

func TestLoadDatabase_CorruptFile(t *testing.T) {
	l := newLayout(t)
	require.NoError(t, l.CreateDatabase("db"))
	require.NoError(t, os.WriteFile(l.TablePath("db", "bad"), []byte("name\tid\nx\t1\n"), 0o644))

	_, err := l.LoadDatabase("db")
	assert.ErrorIs(t, err, core.ErrValue)
}

func TestDeleteTable(t *testing.T) {
	l := newLayout(t)
	require.NoError(t, l.CreateDatabase("db"))

	tbl, err := table.New("t", nil)
	require.NoError(t, err)
	require.NoError(t, l.SaveTable("db", tbl))
	assert.FileExists(t, l.TablePath("db", "t"))

	require.NoError(t, l.DeleteTable("db", "T"))
	assert.NoFileExists(t, l.TablePath("db", "t"))
	require.NoError(t, l.DeleteTable("db", "t"))
}
