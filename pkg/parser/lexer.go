package parser

import (
	"math"
	"strconv"
	"strings"

	"github.com/leapstack-labs/tabdb/pkg/token"
)

// Lexer tokenizes the body of a command (the text before the terminating ';').
type Lexer struct {
	input   string
	pos     int  // current position in input
	readPos int  // reading position (after current char)
	ch      byte // current char under examination

	// Errors collected while lexing, in input order.
	Errors []*LexError
}

// NewLexer creates a new Lexer for the given input.
func NewLexer(input string) *Lexer {
	l := &Lexer{input: input}
	l.readChar()
	return l
}

// readChar advances to the next character.
func (l *Lexer) readChar() {
	if l.readPos >= len(l.input) {
		l.ch = 0 // ASCII NUL = EOF
	} else {
		l.ch = l.input[l.readPos]
	}
	l.pos = l.readPos
	l.readPos++
}

// peekChar returns the next character without advancing.
func (l *Lexer) peekChar() byte {
	if l.readPos >= len(l.input) {
		return 0
	}
	return l.input[l.readPos]
}

func (l *Lexer) currentPos() token.Position {
	return token.Position{Column: l.pos + 1, Offset: l.pos}
}

func (l *Lexer) atEOF() bool {
	return l.pos >= len(l.input)
}

// NextToken returns the next token. Malformed input yields an ILLEGAL token
// and a matching entry in Errors.
func (l *Lexer) NextToken() token.Token {
	l.skipWhitespace()

	pos := l.currentPos()
	if l.atEOF() {
		return token.Token{Type: token.EOF, Pos: pos}
	}

	var tok token.Token
	switch l.ch {
	case '*':
		tok = l.newToken(token.STAR, "*")
	case ',':
		tok = l.newToken(token.COMMA, ",")
	case '(':
		tok = l.newToken(token.LPAREN, "(")
	case ')':
		tok = l.newToken(token.RPAREN, ")")
	case '=':
		if l.peekChar() == '=' {
			l.readChar()
			tok = token.Token{Type: token.EQ, Literal: "==", Pos: pos}
		} else {
			tok = l.newToken(token.ASSIGN, "=")
		}
	case '!':
		if l.peekChar() == '=' {
			l.readChar()
			tok = token.Token{Type: token.NE, Literal: "!=", Pos: pos}
		} else {
			tok = l.illegal(pos, "!", "unexpected '!' (did you mean '!='?)")
		}
	case '<':
		if l.peekChar() == '=' {
			l.readChar()
			tok = token.Token{Type: token.LE, Literal: "<=", Pos: pos}
		} else {
			tok = l.newToken(token.LT, "<")
		}
	case '>':
		if l.peekChar() == '=' {
			l.readChar()
			tok = token.Token{Type: token.GE, Literal: ">=", Pos: pos}
		} else {
			tok = l.newToken(token.GT, ">")
		}
	case ';':
		tok = l.illegal(pos, ";", "unexpected ';' before end of command")
	case '\'', '"':
		return l.readString(pos)
	default:
		return l.readWord(pos)
	}

	l.readChar()
	return tok
}

// Tokenize returns all tokens of the input up to and including EOF.
func (l *Lexer) Tokenize() []token.Token {
	var tokens []token.Token
	for {
		tok := l.NextToken()
		tokens = append(tokens, tok)
		if tok.Type == token.EOF {
			return tokens
		}
	}
}

func (l *Lexer) newToken(tokenType token.TokenType, literal string) token.Token {
	return token.Token{Type: tokenType, Literal: literal, Pos: l.currentPos()}
}

func (l *Lexer) illegal(pos token.Position, literal, msg string) token.Token {
	l.Errors = append(l.Errors, &LexError{Pos: pos, Message: msg})
	return token.Token{Type: token.ILLEGAL, Literal: literal, Pos: pos}
}

func (l *Lexer) skipWhitespace() {
	for l.ch == ' ' || l.ch == '\t' || l.ch == '\n' || l.ch == '\r' {
		l.readChar()
	}
}

// readString reads a quoted literal. The quotes are not part of the literal.
func (l *Lexer) readString(pos token.Position) token.Token {
	quote := l.ch
	l.readChar() // skip opening quote
	start := l.pos
	for !l.atEOF() && l.ch != quote {
		l.readChar()
	}
	if l.atEOF() {
		return l.illegal(pos, l.input[pos.Offset:], ErrUnterminatedString)
	}
	lit := l.input[start:l.pos]
	l.readChar() // skip closing quote
	return token.Token{Type: token.STRING, Literal: lit, Pos: pos}
}

// readWord reads a bare word and classifies it as a number, keyword or identifier.
func (l *Lexer) readWord(pos token.Position) token.Token {
	start := l.pos
	for !l.atEOF() && !isDelimiter(l.ch) {
		l.readChar()
	}
	word := l.input[start:l.pos]

	if isNumber(word) {
		return token.Token{Type: token.NUMBER, Literal: word, Pos: pos}
	}
	return token.Token{Type: token.LookupIdent(strings.ToLower(word)), Literal: word, Pos: pos}
}

func isDelimiter(ch byte) bool {
	switch ch {
	case ' ', '\t', '\n', '\r', '(', ')', ',', '=', '!', '<', '>', '\'', '"', ';':
		return true
	}
	return false
}

// isNumber reports whether a bare word is a finite decimal number.
// Words such as "NaN" or "Inf" stay identifiers.
func isNumber(word string) bool {
	switch c := word[0]; {
	case c >= '0' && c <= '9', c == '+', c == '-', c == '.':
	default:
		return false
	}
	f, err := strconv.ParseFloat(word, 64)
	return err == nil && !math.IsInf(f, 0) && !math.IsNaN(f)
}
