package parser

import (
	"fmt"

	"github.com/leapstack-labs/tabdb/pkg/core"
	"github.com/leapstack-labs/tabdb/pkg/token"
)

// ParseError represents a parsing error with position information.
// It unwraps to core.ErrSyntax unless Kind says otherwise.
type ParseError struct {
	Pos     token.Position
	Message string
	Kind    error
}

func (e *ParseError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("syntax error at column %d: %s", e.Pos.Column, e.Message)
	}
	return "syntax error: " + e.Message
}

// Unwrap returns the error category.
func (e *ParseError) Unwrap() error {
	if e.Kind != nil {
		return e.Kind
	}
	return core.ErrSyntax
}

// LexError represents a lexical analysis error.
type LexError struct {
	Pos     token.Position
	Message string
}

func (e *LexError) Error() string {
	return fmt.Sprintf("syntax error at column %d: %s", e.Pos.Column, e.Message)
}

// Unwrap returns core.ErrSyntax.
func (e *LexError) Unwrap() error {
	return core.ErrSyntax
}

// Common error messages
const (
	ErrEmptyCommand       = "empty command"
	ErrMissingTerminator  = "command must end with ';'"
	ErrUnexpectedToken    = "unexpected %s, expected %s"
	ErrTrailingInput      = "unexpected %s after end of command"
	ErrUnterminatedString = "unterminated string literal"
	ErrReservedColumn     = "%s is a reserved word and cannot be used as a column name"
	ErrInvalidName        = "invalid %s name %q"
	ErrOrUnsupported      = "OR is not supported in WHERE clauses"
)
