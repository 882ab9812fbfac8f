// Package state keeps the command audit log in SQLite.
//
// Every command the engine handles is recorded with the client that sent
// it, the database selected afterwards, its outcome and how long it took.
// The schema is managed with goose migrations embedded in the binary.
package state

import (
	"github.com/leapstack-labs/tabdb/pkg/core"
)

type (
	// Store is the audit log interface implemented by SQLiteStore.
	Store = core.Store

	// CommandRecord is an alias for core.CommandRecord.
	CommandRecord = core.CommandRecord

	// CommandFilter is an alias for core.CommandFilter.
	CommandFilter = core.CommandFilter

	// CommandStatus is an alias for core.CommandStatus.
	CommandStatus = core.CommandStatus
)

var _ Store = (*SQLiteStore)(nil)
