package core

import (
	"context"
	"time"
)

// CommandStatus is the outcome of a handled command.
type CommandStatus string

// Command statuses.
const (
	CommandStatusOK    CommandStatus = "ok"
	CommandStatusError CommandStatus = "error"
)

// CommandRecord is one entry of the command audit log.
type CommandRecord struct {
	ID         string
	ClientID   string
	Database   string
	Command    string
	Status     CommandStatus
	Message    string
	Duration   time.Duration
	ExecutedAt time.Time
}

// CommandFilter narrows a command log listing.
type CommandFilter struct {
	Limit    int
	ClientID string
	Status   CommandStatus
}

// Recorder receives one record per handled command.
type Recorder interface {
	RecordCommand(ctx context.Context, rec *CommandRecord) error
}

// Store defines the interface for the command audit log.
type Store interface {
	Recorder

	Open(path string) error
	Close() error
	Migrate() error

	ListCommands(ctx context.Context, filter CommandFilter) ([]*CommandRecord, error)
}
