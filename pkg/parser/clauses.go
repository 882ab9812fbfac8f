package parser

import (
	"fmt"

	"github.com/leapstack-labs/tabdb/pkg/core"
	"github.com/leapstack-labs/tabdb/pkg/token"
)

var comparators = map[token.TokenType]core.Comparator{
	token.EQ:   core.CmpEqual,
	token.NE:   core.CmpNotEqual,
	token.GT:   core.CmpGreater,
	token.LT:   core.CmpLess,
	token.GE:   core.CmpGreaterEqual,
	token.LE:   core.CmpLessEqual,
	token.LIKE: core.CmpLike,
}

// isName reports whether tok can stand for a user-chosen name. Soft
// keywords (INTO, VALUES, SET, ON, ADD) qualify; reserved words do not.
func isName(tok token.Token) bool {
	if tok.Type == token.IDENT {
		return true
	}
	return token.IsKeyword(tok.Type) && !token.IsReserved(tok.Type)
}

// parseObjectName parses a database or table name and returns it lowercased.
func (p *Parser) parseObjectName(kind string) string {
	tok := p.token
	if !isName(tok) && tok.Type != token.NUMBER {
		p.unexpected(fmt.Sprintf("a %s name", kind))
		return ""
	}
	if !core.ValidObjectName(tok.Literal) {
		p.addError(fmt.Sprintf(ErrInvalidName, kind, tok.Literal))
		return ""
	}
	p.nextToken()
	return core.NormalizeName(tok.Literal)
}

// parseColumnDef parses a column name being defined (CREATE TABLE, ALTER ADD).
func (p *Parser) parseColumnDef() string {
	tok := p.token
	if token.IsReserved(tok.Type) {
		p.addError(fmt.Sprintf(ErrReservedColumn, tok.Literal))
		return ""
	}
	if !isName(tok) {
		p.unexpected("a column name")
		return ""
	}
	p.nextToken()
	return tok.Literal
}

// parseColumnList parses the body of a CREATE TABLE column list.
func (p *Parser) parseColumnList() []string {
	if p.check(token.RPAREN) {
		p.addError("empty column list")
		return nil
	}
	var cols []string
	for {
		col := p.parseColumnDef()
		if p.failed() {
			return nil
		}
		cols = append(cols, col)
		if !p.match(token.COMMA) {
			return cols
		}
	}
}

// parseColumnRef parses a reference to an existing column.
func (p *Parser) parseColumnRef() string {
	tok := p.token
	if !isName(tok) {
		p.unexpected("a column name")
		return ""
	}
	p.nextToken()
	return tok.Literal
}

// parseColumnRefs parses a comma-separated projection list.
func (p *Parser) parseColumnRefs() []string {
	var cols []string
	for {
		col := p.parseColumnRef()
		if p.failed() {
			return nil
		}
		cols = append(cols, col)
		if !p.match(token.COMMA) {
			return cols
		}
	}
}

// parseValue parses a literal. Quoted strings arrive without their quotes;
// bare words, numbers and TRUE/FALSE are taken as written.
func (p *Parser) parseValue() (string, bool) {
	tok := p.token
	switch {
	case tok.Type == token.STRING, tok.Type == token.NUMBER,
		tok.Type == token.TRUE, tok.Type == token.FALSE, isName(tok):
		p.nextToken()
		return tok.Literal, true
	}
	p.unexpected("a value")
	return "", false
}

// parseConditions parses cond {AND cond}.
func (p *Parser) parseConditions() []core.Condition {
	var conds []core.Condition
	for {
		cond, ok := p.parseCondition()
		if !ok {
			return nil
		}
		conds = append(conds, cond)

		if p.match(token.AND) {
			continue
		}
		if p.check(token.OR) {
			p.addUnsupported(ErrOrUnsupported)
			return nil
		}
		return conds
	}
}

// parseCondition parses {"("} column op value {")"}. Each opening
// parenthesis must be matched by a closing one after the value.
func (p *Parser) parseCondition() (core.Condition, bool) {
	depth := 0
	for p.match(token.LPAREN) {
		depth++
	}

	var cond core.Condition
	cond.Attribute = p.parseColumnRef()
	if p.failed() {
		return cond, false
	}

	op, ok := comparators[p.token.Type]
	if !ok {
		p.unexpected("a comparison operator (==, !=, >, <, >=, <=, LIKE)")
		return cond, false
	}
	cond.Op = op
	p.nextToken()

	if cond.Value, ok = p.parseValue(); !ok {
		return cond, false
	}

	for range depth {
		if !p.expect(token.RPAREN, "')' to close the condition") {
			return cond, false
		}
	}
	return cond, true
}
