// Package parser turns tabdb command strings into statements.
//
// # Usage
//
//	stmt, err := parser.Parse("SELECT * FROM marks WHERE pass == TRUE;")
//	if err != nil {
//	    // err unwraps to core.ErrSyntax or core.ErrUnsupported
//	}
//
// # Grammar Overview
//
// Keywords are case-insensitive; names and values keep their case. Every
// command ends with ';', which Parse strips before lexing.
//
//	command   → use | create_db | drop_db | create_tbl | drop_tbl
//	          | insert | select | update | delete | alter | join
//	use       → USE name
//	create_db → CREATE DATABASE name
//	drop_db   → DROP DATABASE name
//	create_tbl→ CREATE TABLE name [ "(" column {"," column} ")" ]
//	drop_tbl  → DROP TABLE name
//	insert    → INSERT INTO name VALUES "(" [value {"," value}] ")"
//	select    → SELECT ("*" | column {"," column}) FROM name [WHERE conds]
//	update    → UPDATE name SET column "=" value WHERE column "==" value
//	delete    → DELETE FROM name WHERE conds
//	alter     → ALTER TABLE name (ADD | DROP) column
//	join      → JOIN name AND name ON column AND column
//	conds     → cond {AND cond}
//	cond      → {"("} column op value {")"}
//	op        → "==" | "!=" | ">" | "<" | ">=" | "<=" | LIKE
//	value     → STRING | NUMBER | TRUE | FALSE | IDENT
package parser

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/tabdb/pkg/core"
	"github.com/leapstack-labs/tabdb/pkg/token"
)

// Position is an alias for token.Position.
type Position = token.Position

// Parser parses one command body into a Statement.
type Parser struct {
	lexer  *Lexer
	token  token.Token // current token
	peek   token.Token // lookahead token
	errors []error
}

// NewParser creates a new parser for a command body (without the ';').
func NewParser(input string) *Parser {
	p := &Parser{lexer: NewLexer(input)}
	// Read two tokens to initialize current and peek
	p.nextToken()
	p.nextToken()
	return p
}

// Parse parses a complete command, including its terminating ';'.
func Parse(command string) (Statement, error) {
	body, err := StripTerminator(command)
	if err != nil {
		return nil, err
	}
	p := NewParser(body)
	stmt := p.parseStatement()
	if len(p.errors) > 0 {
		return nil, p.errors[0]
	}
	return stmt, nil
}

// StripTerminator trims surrounding whitespace, checks that the command is
// non-empty and ends with ';', and returns it without the terminator.
func StripTerminator(command string) (string, error) {
	trimmed := strings.TrimSpace(command)
	if trimmed == "" {
		return "", &ParseError{Message: ErrEmptyCommand}
	}
	if !strings.HasSuffix(trimmed, ";") {
		return "", &ParseError{
			Pos:     Position{Column: len(trimmed) + 1, Offset: len(trimmed)},
			Message: ErrMissingTerminator,
		}
	}
	return trimmed[:len(trimmed)-1], nil
}

// ---------- Token Helpers ----------

// nextToken advances to the next token. Lexer errors are reported as soon as
// the offending token is read.
func (p *Parser) nextToken() {
	p.token = p.peek
	p.peek = p.lexer.NextToken()
	if p.peek.Type == token.ILLEGAL {
		for _, err := range p.lexer.Errors {
			if err.Pos == p.peek.Pos {
				p.errors = append(p.errors, err)
			}
		}
	}
}

// check returns true if the current token is of the given type.
func (p *Parser) check(t token.TokenType) bool {
	return p.token.Type == t
}

// match consumes the current token if it matches and returns true.
func (p *Parser) match(t token.TokenType) bool {
	if p.check(t) {
		p.nextToken()
		return true
	}
	return false
}

// expect consumes the current token if it matches, otherwise adds an error.
func (p *Parser) expect(t token.TokenType, what string) bool {
	if p.check(t) {
		p.nextToken()
		return true
	}
	p.unexpected(what)
	return false
}

// unexpected reports the current token as unexpected.
func (p *Parser) unexpected(what string) {
	p.addError(fmt.Sprintf(ErrUnexpectedToken, p.token, what))
}

// addError adds a syntax error at the current token.
func (p *Parser) addError(msg string) {
	p.errors = append(p.errors, &ParseError{Pos: p.token.Pos, Message: msg})
}

// addUnsupported adds an error for valid-looking input the language does not support.
func (p *Parser) addUnsupported(msg string) {
	p.errors = append(p.errors, &ParseError{Pos: p.token.Pos, Message: msg, Kind: core.ErrUnsupported})
}

func (p *Parser) failed() bool {
	return len(p.errors) > 0
}

// expectEnd reports any tokens left after a complete statement.
func (p *Parser) expectEnd() {
	if !p.failed() && !p.check(token.EOF) {
		p.addError(fmt.Sprintf(ErrTrailingInput, p.token))
	}
}

// ---------- Statement Dispatch ----------

func (p *Parser) parseStatement() Statement {
	if p.failed() {
		return nil
	}

	var stmt Statement
	switch p.token.Type {
	case token.USE:
		stmt = p.parseUse()
	case token.CREATE:
		stmt = p.parseCreate()
	case token.DROP:
		stmt = p.parseDrop()
	case token.INSERT:
		stmt = p.parseInsert()
	case token.SELECT:
		stmt = p.parseSelect()
	case token.UPDATE:
		stmt = p.parseUpdate()
	case token.DELETE:
		stmt = p.parseDelete()
	case token.ALTER:
		stmt = p.parseAlter()
	case token.JOIN:
		stmt = p.parseJoin()
	default:
		p.unexpected("a command keyword (USE, CREATE, DROP, INSERT, SELECT, UPDATE, DELETE, ALTER, JOIN)")
		return nil
	}

	p.expectEnd()
	if p.failed() {
		return nil
	}
	return stmt
}

// USE <db>
func (p *Parser) parseUse() Statement {
	stmt := &UseStmt{NodeInfo: NodeInfo{Pos: p.token.Pos}}
	p.nextToken()
	stmt.Database = p.parseObjectName("database")
	return stmt
}

// CREATE DATABASE <db> | CREATE TABLE <t> [(<col>, ...)]
func (p *Parser) parseCreate() Statement {
	pos := p.token.Pos
	p.nextToken()

	switch {
	case p.match(token.DATABASE):
		return &CreateDatabaseStmt{NodeInfo: NodeInfo{Pos: pos}, Database: p.parseObjectName("database")}
	case p.match(token.TABLE):
		stmt := &CreateTableStmt{NodeInfo: NodeInfo{Pos: pos}}
		stmt.Table = p.parseObjectName("table")
		if p.match(token.LPAREN) {
			stmt.Columns = p.parseColumnList()
			p.expect(token.RPAREN, "')' to close the column list")
		}
		return stmt
	}
	p.unexpected("DATABASE or TABLE after CREATE")
	return nil
}

// DROP DATABASE <db> | DROP TABLE <t>
func (p *Parser) parseDrop() Statement {
	pos := p.token.Pos
	p.nextToken()

	switch {
	case p.match(token.DATABASE):
		return &DropDatabaseStmt{NodeInfo: NodeInfo{Pos: pos}, Database: p.parseObjectName("database")}
	case p.match(token.TABLE):
		return &DropTableStmt{NodeInfo: NodeInfo{Pos: pos}, Table: p.parseObjectName("table")}
	}
	p.unexpected("DATABASE or TABLE after DROP")
	return nil
}

// INSERT INTO <t> VALUES (<val>, ...)
func (p *Parser) parseInsert() Statement {
	stmt := &InsertStmt{NodeInfo: NodeInfo{Pos: p.token.Pos}}
	p.nextToken()

	if !p.expect(token.INTO, "INTO after INSERT") {
		return nil
	}
	stmt.Table = p.parseObjectName("table")
	if !p.expect(token.VALUES, "VALUES after the table name") {
		return nil
	}
	if !p.expect(token.LPAREN, "'(' to open the value list") {
		return nil
	}
	stmt.Values = []string{}
	if !p.check(token.RPAREN) {
		for {
			v, ok := p.parseValue()
			if !ok {
				return nil
			}
			stmt.Values = append(stmt.Values, v)
			if !p.match(token.COMMA) {
				break
			}
		}
	}
	p.expect(token.RPAREN, "',' or ')' in the value list")
	return stmt
}

// SELECT (*|<col>, ...) FROM <t> [WHERE <conds>]
func (p *Parser) parseSelect() Statement {
	stmt := &SelectStmt{NodeInfo: NodeInfo{Pos: p.token.Pos}}
	p.nextToken()

	if p.match(token.STAR) {
		stmt.Star = true
	} else {
		stmt.Columns = p.parseColumnRefs()
	}
	if p.failed() || !p.expect(token.FROM, "FROM after the column list") {
		return nil
	}
	stmt.Table = p.parseObjectName("table")
	if p.match(token.WHERE) {
		stmt.Where = p.parseConditions()
	}
	return stmt
}

// UPDATE <t> SET <col> = <val> WHERE <col> == <val>
func (p *Parser) parseUpdate() Statement {
	stmt := &UpdateStmt{NodeInfo: NodeInfo{Pos: p.token.Pos}}
	p.nextToken()

	stmt.Table = p.parseObjectName("table")
	if p.failed() || !p.expect(token.SET, "SET after the table name") {
		return nil
	}
	stmt.SetColumn = p.parseColumnRef()
	if p.failed() || !p.expect(token.ASSIGN, "'=' in the SET clause") {
		return nil
	}
	value, ok := p.parseValue()
	if !ok {
		return nil
	}
	stmt.SetValue = value

	if p.check(token.COMMA) {
		p.addUnsupported("UPDATE supports a single SET column")
		return nil
	}
	if !p.expect(token.WHERE, "WHERE after the SET clause") {
		return nil
	}
	conds := p.parseConditions()
	if p.failed() {
		return nil
	}
	if len(conds) != 1 || conds[0].Op != core.CmpEqual {
		p.errors = append(p.errors, &ParseError{
			Pos:     stmt.Pos,
			Message: "UPDATE supports only a single WHERE <column> == <value> condition",
			Kind:    core.ErrUnsupported,
		})
		return nil
	}
	stmt.Where = conds[0]
	return stmt
}

// DELETE FROM <t> WHERE <conds>
func (p *Parser) parseDelete() Statement {
	stmt := &DeleteStmt{NodeInfo: NodeInfo{Pos: p.token.Pos}}
	p.nextToken()

	if !p.expect(token.FROM, "FROM after DELETE") {
		return nil
	}
	stmt.Table = p.parseObjectName("table")
	if p.failed() || !p.expect(token.WHERE, "WHERE after the table name") {
		return nil
	}
	stmt.Where = p.parseConditions()
	return stmt
}

// ALTER TABLE <t> (ADD|DROP) <col>
func (p *Parser) parseAlter() Statement {
	stmt := &AlterTableStmt{NodeInfo: NodeInfo{Pos: p.token.Pos}}
	p.nextToken()

	if !p.expect(token.TABLE, "TABLE after ALTER") {
		return nil
	}
	stmt.Table = p.parseObjectName("table")
	if p.failed() {
		return nil
	}
	switch {
	case p.match(token.ADD):
		stmt.Action = AlterAdd
		stmt.Column = p.parseColumnDef()
	case p.match(token.DROP):
		stmt.Action = AlterDrop
		stmt.Column = p.parseColumnRef()
	default:
		p.unexpected("ADD or DROP")
		return nil
	}
	return stmt
}

// JOIN <a> AND <b> ON <attrA> AND <attrB>
func (p *Parser) parseJoin() Statement {
	stmt := &JoinStmt{NodeInfo: NodeInfo{Pos: p.token.Pos}}
	p.nextToken()

	stmt.Left = p.parseObjectName("table")
	if p.failed() || !p.expect(token.AND, "AND between the joined tables") {
		return nil
	}
	stmt.Right = p.parseObjectName("table")
	if p.failed() || !p.expect(token.ON, "ON after the joined tables") {
		return nil
	}
	stmt.LeftAttr = p.parseColumnRef()
	if p.failed() || !p.expect(token.AND, "AND between the join attributes") {
		return nil
	}
	stmt.RightAttr = p.parseColumnRef()
	return stmt
}
