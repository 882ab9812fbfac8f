// Package token defines the token types of the tabdb command language.
package token

import (
	"fmt"
	"maps"
	"slices"
	"strings"
)

// TokenType represents the type of a lexical token.
//
//nolint:revive // Accept stutter as token.TokenType is clear and widely used
type TokenType int32

const (
	// Special tokens
	EOF TokenType = iota
	ILLEGAL

	// Literals
	IDENT  // bare word
	NUMBER // 12, -3.5, 1e3
	STRING // 'text' or "text", quotes stripped

	// Operators
	STAR   // *
	ASSIGN // =
	EQ     // ==
	NE     // !=
	LT     // <
	GT     // >
	LE     // <=
	GE     // >=
	COMMA  // ,
	LPAREN // (
	RPAREN // )

	// Keywords (alphabetical)
	ADD
	ALTER
	AND
	CREATE
	DATABASE
	DELETE
	DROP
	FALSE
	FROM
	INSERT
	INTO
	JOIN
	LIKE
	NOT
	ON
	OR
	SELECT
	SET
	TABLE
	TRUE
	UPDATE
	USE
	VALUES
	WHERE
)

// String returns a human-readable representation of the token type.
func (t TokenType) String() string {
	if name, ok := tokenNames[t]; ok {
		return name
	}
	return fmt.Sprintf("TOKEN(%d)", t)
}

// tokenNames maps token types to their string representations.
var tokenNames = map[TokenType]string{
	EOF:     "end of command",
	ILLEGAL: "ILLEGAL",

	IDENT:  "IDENT",
	NUMBER: "NUMBER",
	STRING: "STRING",

	STAR:   "*",
	ASSIGN: "=",
	EQ:     "==",
	NE:     "!=",
	LT:     "<",
	GT:     ">",
	LE:     "<=",
	GE:     ">=",
	COMMA:  ",",
	LPAREN: "(",
	RPAREN: ")",

	ADD:      "ADD",
	ALTER:    "ALTER",
	AND:      "AND",
	CREATE:   "CREATE",
	DATABASE: "DATABASE",
	DELETE:   "DELETE",
	DROP:     "DROP",
	FALSE:    "FALSE",
	FROM:     "FROM",
	INSERT:   "INSERT",
	INTO:     "INTO",
	JOIN:     "JOIN",
	LIKE:     "LIKE",
	NOT:      "NOT",
	ON:       "ON",
	OR:       "OR",
	SELECT:   "SELECT",
	SET:      "SET",
	TABLE:    "TABLE",
	TRUE:     "TRUE",
	UPDATE:   "UPDATE",
	USE:      "USE",
	VALUES:   "VALUES",
	WHERE:    "WHERE",
}

// keywords maps lowercase keyword strings to their token types.
var keywords = map[string]TokenType{
	"add":      ADD,
	"alter":    ALTER,
	"and":      AND,
	"create":   CREATE,
	"database": DATABASE,
	"delete":   DELETE,
	"drop":     DROP,
	"false":    FALSE,
	"from":     FROM,
	"insert":   INSERT,
	"into":     INTO,
	"join":     JOIN,
	"like":     LIKE,
	"not":      NOT,
	"on":       ON,
	"or":       OR,
	"select":   SELECT,
	"set":      SET,
	"table":    TABLE,
	"true":     TRUE,
	"update":   UPDATE,
	"use":      USE,
	"values":   VALUES,
	"where":    WHERE,
}

// LookupIdent returns the token type for the given lowercase word.
// If the word is a keyword, the keyword token type is returned.
// Otherwise, IDENT is returned.
func LookupIdent(ident string) TokenType {
	if tok, ok := keywords[ident]; ok {
		return tok
	}
	return IDENT
}

// Keywords returns every keyword in upper case, sorted.
func Keywords() []string {
	words := slices.Sorted(maps.Keys(keywords))
	for i, w := range words {
		words[i] = strings.ToUpper(w)
	}
	return words
}

// IsKeyword returns true if the token type is a keyword.
func IsKeyword(t TokenType) bool {
	return t >= ADD && t <= WHERE
}

// IsReserved returns true if the keyword may never be used as a column name.
// INTO, VALUES, SET, ON and ADD are soft keywords: they only have meaning
// in one position of one command and remain usable as names elsewhere.
func IsReserved(t TokenType) bool {
	switch t {
	case ADD, INTO, ON, SET, VALUES:
		return false
	}
	return IsKeyword(t)
}

// IsComparator returns true if the token type is a WHERE comparator.
func IsComparator(t TokenType) bool {
	switch t {
	case EQ, NE, LT, GT, LE, GE, LIKE:
		return true
	}
	return false
}

// Token represents a lexical token with position information.
type Token struct {
	Type    TokenType
	Literal string
	Pos     Position
}

func (t Token) String() string {
	switch t.Type {
	case EOF:
		return t.Type.String()
	case IDENT, NUMBER:
		return fmt.Sprintf("%q", t.Literal)
	case STRING:
		return fmt.Sprintf("'%s'", t.Literal)
	}
	return t.Type.String()
}
