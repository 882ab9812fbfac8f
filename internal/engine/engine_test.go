package engine

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/tabdb/internal/testutil"
	"github.com/leapstack-labs/tabdb/pkg/core"
)

type memRecorder struct {
	mu      sync.Mutex
	records []*core.CommandRecord
	err     error
}

func (m *memRecorder) RecordCommand(_ context.Context, rec *core.CommandRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, rec)
	return m.err
}

func newEngine(t *testing.T) (*Engine, string) {
	t.Helper()
	root := filepath.Join(t.TempDir(), "databases")
	e, err := New(Config{Root: root, Logger: testutil.NewTestLogger(t)})
	require.NoError(t, err)
	return e, root
}

// run executes commands that must all succeed and returns the last response.
func run(t *testing.T, e *Engine, commands ...string) string {
	t.Helper()
	var resp string
	for _, cmd := range commands {
		resp = e.Handle(context.Background(), cmd)
		require.True(t, IsOK(resp), "%s -> %s", cmd, resp)
	}
	return resp
}

func setupMarks(t *testing.T, e *Engine) {
	t.Helper()
	run(t, e,
		"CREATE DATABASE school;",
		"USE school;",
		"CREATE TABLE marks (name, mark, pass);",
		"INSERT INTO marks VALUES ('Simon', 65, TRUE);",
		"INSERT INTO marks VALUES ('Sion', 55, TRUE);",
		"INSERT INTO marks VALUES ('Rob', 35, FALSE);",
		"INSERT INTO marks VALUES ('Chris', 20, FALSE);",
	)
}

func TestScenario_SelectWhere(t *testing.T) {
	e, _ := newEngine(t)

	resp := run(t, e,
		"CREATE DATABASE d;",
		"USE d;",
		"CREATE TABLE t (a,b);",
		"INSERT INTO t VALUES (1,'x');",
		"INSERT INTO t VALUES (2,'y');",
		"SELECT * FROM t WHERE a > 1;",
	)
	assert.Equal(t, "[OK]\nid\ta\tb\n2\t2\ty\n", resp)
}

func TestScenario_Update(t *testing.T) {
	e, _ := newEngine(t)

	resp := run(t, e,
		"CREATE DATABASE d;",
		"USE d;",
		"CREATE TABLE t (a,b);",
		"INSERT INTO t VALUES (1,'x');",
		"INSERT INTO t VALUES (2,'y');",
		"UPDATE t SET b = 'z' WHERE a == 1;",
		"SELECT * FROM t;",
	)
	assert.Equal(t, "[OK]\nid\ta\tb\n1\t1\tz\n2\t2\ty\n", resp)
}

func TestHandle_ResponseShapes(t *testing.T) {
	e, _ := newEngine(t)
	ctx := context.Background()

	assert.Equal(t, "[OK]", e.Handle(ctx, "CREATE DATABASE d;"))

	resp := e.Handle(ctx, "CREATE DATABASE d;")
	assert.True(t, strings.HasPrefix(resp, "[ERROR] "), resp)
	assert.NotContains(t, resp, "[OK]")
	assert.NotContains(t, resp, "\n")

	run(t, e, "USE d;", "CREATE TABLE empty (a);")
	assert.Equal(t, "[OK]\nid\ta\n", e.Handle(ctx, "SELECT * FROM empty;"))
}

func TestExecute_ErrorKinds(t *testing.T) {
	e, _ := newEngine(t)
	setupMarks(t, e)

	tests := []struct {
		command string
		kind    error
	}{
		{"SELECT * FROM marks", core.ErrSyntax},
		{"", core.ErrSyntax},
		{"CREATE TABLE x (select);", core.ErrSyntax},
		{"USE nowhere;", core.ErrNotFound},
		{"SELECT * FROM nope;", core.ErrNotFound},
		{"SELECT age FROM marks;", core.ErrNotFound},
		{"SELECT * FROM marks WHERE age > 1;", core.ErrNotFound},
		{"UPDATE marks SET age = 1 WHERE name == 'Rob';", core.ErrNotFound},
		{"UPDATE marks SET mark = 1 WHERE age == 1;", core.ErrNotFound},
		{"DELETE FROM marks WHERE age == 1;", core.ErrNotFound},
		{"ALTER TABLE marks DROP age;", core.ErrNotFound},
		{"JOIN marks AND nope ON name AND name;", core.ErrNotFound},
		{"JOIN marks AND marks ON name AND age;", core.ErrNotFound},
		{"DROP TABLE nope;", core.ErrNotFound},
		{"DROP DATABASE nope;", core.ErrNotFound},
		{"CREATE DATABASE school;", core.ErrConflict},
		{"CREATE TABLE marks;", core.ErrConflict},
		{"ALTER TABLE marks ADD NAME;", core.ErrConflict},
		{"ALTER TABLE marks DROP id;", core.ErrConflict},
		{"UPDATE marks SET id = 9 WHERE name == 'Rob';", core.ErrConflict},
		{"INSERT INTO marks VALUES ('Dave', 70);", core.ErrValue},
		{"SELECT * FROM marks WHERE mark > 1 OR pass == TRUE;", core.ErrUnsupported},
		{"UPDATE marks SET mark = 1 WHERE name != 'Rob';", core.ErrUnsupported},
	}

	for _, tt := range tests {
		t.Run(tt.command, func(t *testing.T) {
			res, err := e.Execute(context.Background(), tt.command)
			assert.Nil(t, res)
			assert.ErrorIs(t, err, tt.kind)
		})
	}

	// Nothing above changed the table.
	assert.Equal(t, "[OK]\nid\tname\tmark\tpass\n1\tSimon\t65\tTRUE\n2\tSion\t55\tTRUE\n3\tRob\t35\tFALSE\n4\tChris\t20\tFALSE\n",
		e.Handle(context.Background(), "SELECT * FROM marks;"))
}

func TestExecute_NoDatabaseSelected(t *testing.T) {
	e, _ := newEngine(t)

	for _, cmd := range []string{
		"CREATE TABLE t;",
		"SELECT * FROM t;",
		"INSERT INTO t VALUES ();",
		"JOIN a AND b ON x AND y;",
	} {
		_, err := e.Execute(context.Background(), cmd)
		assert.True(t, IsNoDatabase(err), cmd)
		assert.ErrorIs(t, err, core.ErrNotFound)
	}
}

func TestSelect_Projection(t *testing.T) {
	e, _ := newEngine(t)
	setupMarks(t, e)

	resp := run(t, e, "SELECT NAME, mark FROM marks WHERE (pass == FALSE) AND (mark >= 35);")
	assert.Equal(t, "[OK]\nname\tmark\nRob\t35\n", resp)

	resp = run(t, e, "SELECT name FROM marks WHERE name LIKE 'i';")
	assert.Equal(t, "[OK]\nname\nSimon\nSion\nChris\n", resp)
}

func TestDelete_KeepsSurvivorsAndIDs(t *testing.T) {
	e, _ := newEngine(t)
	setupMarks(t, e)

	run(t, e, "DELETE FROM marks WHERE mark < 40;")
	assert.Equal(t, "[OK]\nid\tname\n1\tSimon\n2\tSion\n", run(t, e, "SELECT id, name FROM marks;"))

	run(t, e, "INSERT INTO marks VALUES ('Dave', 70, TRUE);")
	assert.Equal(t, "[OK]\nid\n1\n2\n5\n", run(t, e, "SELECT id FROM marks;"))
}

func TestAlter(t *testing.T) {
	e, root := newEngine(t)
	setupMarks(t, e)

	run(t, e, "ALTER TABLE marks ADD age;")
	assert.Equal(t, "[OK]\nid\tname\tmark\tpass\tage\n1\tSimon\t65\tTRUE\t\n2\tSion\t55\tTRUE\t\n3\tRob\t35\tFALSE\t\n4\tChris\t20\tFALSE\t\n",
		run(t, e, "SELECT * FROM marks;"))

	run(t, e, "ALTER TABLE marks DROP mark;")
	data, err := os.ReadFile(filepath.Join(root, "school", "marks.tab"))
	require.NoError(t, err)
	assert.Equal(t, "id\tname\tpass\tage\n1\tSimon\tTRUE\t\n2\tSion\tTRUE\t\n3\tRob\tFALSE\t\n4\tChris\tFALSE\t\n", string(data))
}

func TestJoin(t *testing.T) {
	e, _ := newEngine(t)
	setupMarks(t, e)
	run(t, e,
		"CREATE TABLE coursework (task, submission);",
		"INSERT INTO coursework VALUES ('OXO', 3);",
		"INSERT INTO coursework VALUES ('DB', 1);",
		"INSERT INTO coursework VALUES ('OXO', 4);",
		"INSERT INTO coursework VALUES ('STAG', 2);",
		"INSERT INTO coursework VALUES ('CMD', 9);",
	)

	resp := run(t, e, "JOIN coursework AND marks ON submission AND id;")
	assert.Equal(t, "[OK]\n"+
		"id\tcoursework.task\tmarks.name\tmarks.mark\tmarks.pass\n"+
		"1\tOXO\tRob\t35\tFALSE\n"+
		"2\tDB\tSimon\t65\tTRUE\n"+
		"3\tOXO\tChris\t20\tFALSE\n"+
		"4\tSTAG\tSion\t55\tTRUE\n", resp)
}

func TestJoin_StringEqualityAndPairCount(t *testing.T) {
	e, _ := newEngine(t)
	run(t, e,
		"CREATE DATABASE d;",
		"USE d;",
		"CREATE TABLE a (k, x);",
		"CREATE TABLE b (k, y);",
		"INSERT INTO a VALUES (1, 'a1');",
		"INSERT INTO a VALUES (1, 'a2');",
		"INSERT INTO a VALUES (1.0, 'a3');",
		"INSERT INTO b VALUES (1, 'b1');",
		"INSERT INTO b VALUES (1, 'b2');",
	)

	resp := run(t, e, "JOIN a AND b ON k AND k;")
	assert.Equal(t, "[OK]\n"+
		"id\ta.x\tb.y\n"+
		"1\ta1\tb1\n"+
		"2\ta1\tb2\n"+
		"3\ta2\tb1\n"+
		"4\ta2\tb2\n", resp)
}

func TestUse_ReloadsFromDisk(t *testing.T) {
	e, root := newEngine(t)
	setupMarks(t, e)
	run(t, e, "DELETE FROM marks WHERE name == 'Chris';")

	// A fresh engine on the same root sees identical data.
	e2, err := New(Config{Root: root})
	require.NoError(t, err)
	run(t, e2, "USE SCHOOL;")
	assert.Equal(t, e.Handle(context.Background(), "SELECT * FROM marks;"), e2.Handle(context.Background(), "SELECT * FROM marks;"))

	// The counter resumes at max(id)+1.
	run(t, e2, "INSERT INTO marks VALUES ('Eve', 80, TRUE);")
	assert.Contains(t, run(t, e2, "SELECT id FROM marks WHERE name == 'Eve';"), "\n4\n")
}

func TestUse_FailureKeepsSession(t *testing.T) {
	e, root := newEngine(t)
	setupMarks(t, e)
	run(t, e, "CREATE DATABASE broken;")
	require.NoError(t, os.WriteFile(filepath.Join(root, "broken", "t.tab"), []byte("name\n"), 0o644))

	_, err := e.Execute(context.Background(), "USE broken;")
	require.ErrorIs(t, err, core.ErrValue)
	assert.Equal(t, "school", e.Database())
	assert.Equal(t, []string{"marks"}, e.Tables())
}

func TestDropTableAndDatabase(t *testing.T) {
	e, root := newEngine(t)
	setupMarks(t, e)

	run(t, e, "DROP TABLE Marks;")
	assert.NoFileExists(t, filepath.Join(root, "school", "marks.tab"))
	assert.Empty(t, e.Tables())

	run(t, e, "DROP DATABASE school;")
	assert.NoDirExists(t, filepath.Join(root, "school"))
	assert.Equal(t, "", e.Database())
}

func TestMissingTerminator_NoMutation(t *testing.T) {
	e, root := newEngine(t)
	setupMarks(t, e)

	before, err := os.ReadFile(filepath.Join(root, "school", "marks.tab"))
	require.NoError(t, err)

	resp := e.Handle(context.Background(), "DELETE FROM marks WHERE mark > 0")
	assert.True(t, strings.HasPrefix(resp, "[ERROR]"))

	after, err := os.ReadFile(filepath.Join(root, "school", "marks.tab"))
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestFailedWrite_LeavesMemoryUnchanged(t *testing.T) {
	e, root := newEngine(t)
	setupMarks(t, e)

	// Replace the database directory with a file so saves fail.
	dir := filepath.Join(root, "school")
	require.NoError(t, os.RemoveAll(dir))
	require.NoError(t, os.WriteFile(dir, nil, 0o644))

	_, err := e.Execute(context.Background(), "INSERT INTO marks VALUES ('Dave', 70, TRUE);")
	require.Error(t, err)
	assert.Nil(t, core.KindOf(err))

	require.NoError(t, os.Remove(dir))
	require.NoError(t, os.Mkdir(dir, 0o755))
	assert.NotContains(t, e.Handle(context.Background(), "SELECT * FROM marks;"), "Dave")
}

func TestForgetDatabase(t *testing.T) {
	e, _ := newEngine(t)
	setupMarks(t, e)

	assert.False(t, e.ForgetDatabase("other"))
	assert.True(t, e.ForgetDatabase("SCHOOL"))
	assert.Equal(t, "", e.Database())
	assert.False(t, e.ForgetDatabase("school"))
}

func TestRecorder(t *testing.T) {
	rec := &memRecorder{}
	e, err := New(Config{Root: t.TempDir(), Recorder: rec})
	require.NoError(t, err)

	ctx := WithClientID(context.Background(), "conn-1")
	e.Handle(ctx, "CREATE DATABASE d;")
	e.Handle(ctx, "USE d;")
	e.Handle(context.Background(), "SELECT * FROM nope;")

	require.Len(t, rec.records, 3)
	assert.Equal(t, core.CommandStatusOK, rec.records[0].Status)
	assert.Equal(t, "conn-1", rec.records[0].ClientID)
	assert.Equal(t, "", rec.records[0].Database)
	assert.Equal(t, "d", rec.records[1].Database)
	assert.Equal(t, core.CommandStatusError, rec.records[2].Status)
	assert.Equal(t, "local", rec.records[2].ClientID)
	assert.Contains(t, rec.records[2].Message, "nope")
	assert.NotEqual(t, rec.records[0].ID, rec.records[1].ID)

	// Recorder failures never change the response.
	rec.err = errors.New("disk full")
	assert.Equal(t, "[OK]", e.Handle(ctx, "CREATE TABLE t;"))
}

func TestExecute_CanceledContext(t *testing.T) {
	e, _ := newEngine(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := e.Execute(ctx, "CREATE DATABASE d;")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestConcurrentClients(t *testing.T) {
	e, _ := newEngine(t)
	run(t, e, "CREATE DATABASE d;", "USE d;", "CREATE TABLE t (n);")

	var wg sync.WaitGroup
	for i := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 10 {
				e.Handle(WithClientID(context.Background(), string(rune('a'+i))), "INSERT INTO t VALUES (1);")
			}
		}()
	}
	wg.Wait()

	resp := run(t, e, "SELECT id FROM t;")
	lines := strings.Split(strings.TrimSuffix(resp, "\n"), "\n")
	assert.Len(t, lines, 2+80)
	assert.Equal(t, "80", lines[len(lines)-1])
}

func TestResult_ChangedAndDatabase(t *testing.T) {
	e, _ := newEngine(t)
	ctx := context.Background()

	res, err := e.Execute(ctx, "CREATE DATABASE d;")
	require.NoError(t, err)
	assert.True(t, res.Changed)
	assert.Equal(t, "", res.Database)

	res, err = e.Execute(ctx, "USE d;")
	require.NoError(t, err)
	assert.False(t, res.Changed)
	assert.Equal(t, "d", res.Database)

	run(t, e, "CREATE TABLE t (a);")
	res, err = e.Execute(ctx, "INSERT INTO t VALUES (1);")
	require.NoError(t, err)
	assert.True(t, res.Changed)
	assert.Equal(t, 1, res.Affected)

	res, err = e.Execute(ctx, "SELECT * FROM t;")
	require.NoError(t, err)
	assert.False(t, res.Changed)
	assert.True(t, res.HasRows())
}
