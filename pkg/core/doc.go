// Package core defines the shared language of the tabdb system.
//
// This package contains:
//   - The error taxonomy (ErrSyntax, ErrNotFound, ErrConflict, ErrValue, ErrUnsupported)
//   - Filter conditions (Condition, Comparator)
//   - Name normalisation rules for databases, tables and columns
//   - The command audit record and the Recorder interface
//
// The Golden Rule: pkg/core imports no other tabdb package.
// All other packages depend on core, not the reverse.
package core
