package server

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatcher_ClearsRemovedDatabase(t *testing.T) {
	eng := newTestEngine(t)
	srv, addr := startServer(t, Config{Engine: eng, Watch: true})
	ch := srv.Notifier().Subscribe()
	defer srv.Notifier().Unsubscribe(ch)

	c := dial(t, addr)
	for _, cmd := range []string{"CREATE DATABASE d;", "USE d;", "CREATE TABLE t;"} {
		resp, err := c.Send(context.Background(), cmd)
		require.NoError(t, err)
		require.Equal(t, "[OK]", resp)
	}
	require.Equal(t, "d", eng.Database())

	// Give the watcher time to pick up the new database directory.
	time.Sleep(200 * time.Millisecond)
	require.NoError(t, os.RemoveAll(filepath.Join(eng.Layout().Root(), "d")))

	assert.Eventually(t, func() bool { return eng.Database() == "" }, 3*time.Second, 20*time.Millisecond)

	deadline := time.After(3 * time.Second)
	for {
		select {
		case ev := <-ch:
			if ev.Kind == EventRemoved {
				assert.Equal(t, "d", ev.Database)
				return
			}
		case <-deadline:
			t.Fatal("no removed event")
		}
	}
}

func TestDebouncer(t *testing.T) {
	d := newDebouncer(20 * time.Millisecond)
	defer d.stop()

	calls := make(chan int, 10)
	for i := range 5 {
		d.trigger("db", func() { calls <- i })
	}

	select {
	case got := <-calls:
		assert.Equal(t, 4, got)
	case <-time.After(time.Second):
		t.Fatal("debounced function did not run")
	}
	select {
	case got := <-calls:
		t.Fatalf("unexpected extra call %d", got)
	case <-time.After(60 * time.Millisecond):
	}
}

func TestNotifier(t *testing.T) {
	n := NewNotifier()
	a := n.Subscribe()
	b := n.Subscribe()
	assert.Equal(t, 2, n.Len())

	n.Broadcast(Event{Kind: EventFiles, Database: "d"})
	assert.Equal(t, "d", (<-a).Database)
	assert.Equal(t, "d", (<-b).Database)

	n.Unsubscribe(a)
	assert.Equal(t, 1, n.Len())
	_, open := <-a
	assert.False(t, open)

	// A full listener never blocks Broadcast.
	for range 100 {
		n.Broadcast(Event{Kind: EventFiles})
	}
	n.Unsubscribe(b)
}

func TestWatcher_IgnoresOwnSaves(t *testing.T) {
	eng := newTestEngine(t)
	srv, addr := startServer(t, Config{Engine: eng, Watch: true})
	ch := srv.Notifier().Subscribe()
	defer srv.Notifier().Unsubscribe(ch)

	c := dial(t, addr)
	send := func(cmd string) {
		resp, err := c.Send(context.Background(), cmd)
		require.NoError(t, err)
		require.Equal(t, "[OK]", resp, cmd)
	}
	send("CREATE DATABASE d;")
	// Give the watcher time to pick up the new database directory.
	time.Sleep(200 * time.Millisecond)
	send("USE d;")
	send("CREATE TABLE t (a);")
	send("INSERT INTO t VALUES (1);")
	send("UPDATE t SET a = 2 WHERE id == 1;")

	collect := func(d time.Duration) []Event {
		var events []Event
		timeout := time.After(d)
		for {
			select {
			case ev := <-ch:
				events = append(events, ev)
			case <-timeout:
				return events
			}
		}
	}

	for _, ev := range collect(500 * time.Millisecond) {
		assert.Equal(t, EventCommand, ev.Kind, "unexpected %s event for %s", ev.Kind, ev.Database)
	}

	// Once the window has passed, an outside edit is announced.
	time.Sleep(ownWriteWindow)
	path := filepath.Join(eng.Layout().Root(), "d", "t.tab")
	require.NoError(t, os.WriteFile(path, []byte("id\ta\n1\t3\n"), 0o644))

	var kinds []EventKind
	for _, ev := range collect(time.Second) {
		kinds = append(kinds, ev.Kind)
	}
	assert.Contains(t, kinds, EventFiles)
}

func TestServer_WroteRecently(t *testing.T) {
	srv := New(Config{Engine: newTestEngine(t)})
	assert.False(t, srv.wroteRecently("d"))

	srv.markWrite("d")
	assert.True(t, srv.wroteRecently("d"))
	assert.False(t, srv.wroteRecently("e"))

	srv.writes["d"] = time.Now().Add(-2 * ownWriteWindow)
	assert.False(t, srv.wroteRecently("d"))
}
