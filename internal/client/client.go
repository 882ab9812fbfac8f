// Package client talks to a tabdb server over TCP.
package client

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/leapstack-labs/tabdb/internal/wire"
)

// DefaultTimeout bounds connecting to a server.
const DefaultTimeout = 5 * time.Second

// Client is a connection to a tabdb server. Send may be called from
// several goroutines; requests are serialised.
type Client struct {
	mu   sync.Mutex
	conn net.Conn
	tr   *wire.Transporter
}

// Dial connects to the server at addr.
func Dial(ctx context.Context, addr string) (*Client, error) {
	d := net.Dialer{Timeout: DefaultTimeout}
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", addr, err)
	}
	return &Client{conn: conn, tr: wire.NewTransporter(conn)}, nil
}

// Send sends one command and waits for its response.
func (c *Client) Send(ctx context.Context, command string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if deadline, ok := ctx.Deadline(); ok {
		_ = c.conn.SetDeadline(deadline)
		defer func() { _ = c.conn.SetDeadline(time.Time{}) }()
	}

	if err := c.tr.WriteCommand(command); err != nil {
		return "", err
	}
	resp, err := c.tr.ReadResponse()
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}
	return resp, nil
}

// RemoteAddr returns the server address.
func (c *Client) RemoteAddr() string {
	return c.conn.RemoteAddr().String()
}

// Close closes the connection.
func (c *Client) Close() error {
	return c.conn.Close()
}
