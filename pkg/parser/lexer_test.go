package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/tabdb/pkg/core"
	"github.com/leapstack-labs/tabdb/pkg/token"
)

func TestLexer_Tokens(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []token.TokenType
		literals []string
	}{
		{
			name:     "operators longest first",
			input:    "== = != >= <= > <",
			expected: []token.TokenType{token.EQ, token.ASSIGN, token.NE, token.GE, token.LE, token.GT, token.LT, token.EOF},
		},
		{
			name:     "operators without spaces",
			input:    "mark>=60",
			expected: []token.TokenType{token.IDENT, token.GE, token.NUMBER, token.EOF},
			literals: []string{"mark", ">=", "60", ""},
		},
		{
			name:     "keywords are case-insensitive and keep their text",
			input:    "SeLeCt * fRoM Marks",
			expected: []token.TokenType{token.SELECT, token.STAR, token.FROM, token.IDENT, token.EOF},
			literals: []string{"SeLeCt", "*", "fRoM", "Marks", ""},
		},
		{
			name:     "quoted strings lose their quotes",
			input:    `('Simon', "Bob Smith", '')`,
			expected: []token.TokenType{token.LPAREN, token.STRING, token.COMMA, token.STRING, token.COMMA, token.STRING, token.RPAREN, token.EOF},
			literals: []string{"(", "Simon", ",", "Bob Smith", ",", "", ")", ""},
		},
		{
			name:     "numbers",
			input:    "12 -3.5 +4 .5 1e3",
			expected: []token.TokenType{token.NUMBER, token.NUMBER, token.NUMBER, token.NUMBER, token.NUMBER, token.EOF},
		},
		{
			name:     "non-finite spellings are words",
			input:    "NaN Inf -inf",
			expected: []token.TokenType{token.IDENT, token.IDENT, token.IDENT, token.EOF},
		},
		{
			name:     "words that only start like numbers",
			input:    "1st -abc",
			expected: []token.TokenType{token.IDENT, token.IDENT, token.EOF},
		},
		{
			name:     "boolean and like",
			input:    "pass == TRUE AND name LIKE 'im'",
			expected: []token.TokenType{token.IDENT, token.EQ, token.TRUE, token.AND, token.IDENT, token.LIKE, token.STRING, token.EOF},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := NewLexer(tt.input)
			tokens := l.Tokenize()
			require.Empty(t, l.Errors)

			types := make([]token.TokenType, len(tokens))
			lits := make([]string, len(tokens))
			for i, tok := range tokens {
				types[i] = tok.Type
				lits[i] = tok.Literal
			}
			assert.Equal(t, tt.expected, types)
			if tt.literals != nil {
				assert.Equal(t, tt.literals, lits)
			}
		})
	}
}

func TestLexer_Positions(t *testing.T) {
	tokens := NewLexer("USE  db").Tokenize()
	require.Len(t, tokens, 3)
	assert.Equal(t, 1, tokens[0].Pos.Column)
	assert.Equal(t, 6, tokens[1].Pos.Column)
	assert.Equal(t, 5, tokens[1].Pos.Offset)
}

func TestLexer_Errors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		message string
	}{
		{name: "unterminated single quote", input: "VALUES ('abc", message: ErrUnterminatedString},
		{name: "unterminated double quote", input: `"abc`, message: ErrUnterminatedString},
		{name: "lone bang", input: "a ! b", message: "unexpected '!'"},
		{name: "stray terminator", input: "USE a; USE b", message: "unexpected ';'"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := NewLexer(tt.input)
			l.Tokenize()
			require.NotEmpty(t, l.Errors)
			assert.Contains(t, l.Errors[0].Error(), tt.message)
			assert.ErrorIs(t, l.Errors[0], core.ErrSyntax)
		})
	}
}
