package client

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/tabdb/internal/wire"
)

// echoServer answers every command with "[OK]\n<command>" until the
// connection closes.
func echoServer(t *testing.T) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = ln.Close() })

	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			go func() {
				defer func() { _ = conn.Close() }()
				tr := wire.NewTransporter(conn)
				for {
					cmd, err := tr.ReadCommand()
					if err != nil {
						return
					}
					if err := tr.WriteResponse("[OK]\n" + cmd); err != nil {
						return
					}
				}
			}()
		}
	}()
	return ln.Addr().String()
}

func TestClient_Send(t *testing.T) {
	addr := echoServer(t)
	c, err := Dial(context.Background(), addr)
	require.NoError(t, err)
	defer func() { _ = c.Close() }()

	assert.Equal(t, addr, c.RemoteAddr())

	resp, err := c.Send(context.Background(), "USE d;")
	require.NoError(t, err)
	assert.Equal(t, "[OK]\nUSE d;", resp)

	// Line breaks inside a command are sent as spaces.
	resp, err = c.Send(context.Background(), "SELECT *\nFROM t;")
	require.NoError(t, err)
	assert.Equal(t, "[OK]\nSELECT * FROM t;", resp)
}

func TestClient_DialFailure(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())

	_, err = Dial(context.Background(), addr)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to connect")
}

func TestClient_DeadlineExceeded(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer func() { _ = ln.Close() }()

	// Accept but never answer.
	go func() {
		conn, err := ln.Accept()
		if err == nil {
			time.Sleep(time.Second)
			_ = conn.Close()
		}
	}()

	c, err := Dial(context.Background(), ln.Addr().String())
	require.NoError(t, err)
	defer func() { _ = c.Close() }()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = c.Send(ctx, "USE d;")
	require.Error(t, err)
	var netErr net.Error
	require.ErrorAs(t, err, &netErr)
	assert.True(t, netErr.Timeout())
}
