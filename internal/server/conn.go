package server

import (
	"context"
	"errors"
	"io"
	"net"

	"github.com/google/uuid"

	"github.com/leapstack-labs/tabdb/internal/engine"
	"github.com/leapstack-labs/tabdb/internal/wire"
	"github.com/leapstack-labs/tabdb/pkg/core"
)

// handleConn serves one client: read a command line, execute it, write the
// framed response, until the client disconnects or the server stops.
func (s *Server) handleConn(ctx context.Context, conn net.Conn) {
	defer func() { _ = conn.Close() }()

	id := uuid.NewString()
	ctx = engine.WithClientID(ctx, id)
	logger := s.logger.With("client", id, "remote", conn.RemoteAddr().String())
	logger.Info("connection established")

	tr := wire.NewTransporter(conn)
	for {
		command, err := tr.ReadCommand()
		if err != nil {
			if !errors.Is(err, io.EOF) && !errors.Is(err, net.ErrClosed) && ctx.Err() == nil {
				logger.Warn("failed to read command", "error", err)
			}
			logger.Info("connection closed")
			return
		}

		resp := s.execute(ctx, command)
		err = tr.WriteResponse(resp)
		if errors.Is(err, wire.ErrTerminatorInResponse) {
			logger.Warn("response holds a terminator line", "command", command)
			err = tr.WriteResponse(engine.FormatError(core.Valuef("response contains a cell that cannot be sent")))
		}
		if err != nil {
			logger.Warn("failed to write response", "error", err)
			return
		}
	}
}
