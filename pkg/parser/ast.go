package parser

import "github.com/leapstack-labs/tabdb/pkg/core"

// Statement represents one parsed command.
type Statement interface {
	stmtNode()
	// Verb returns the leading keyword(s) of the command, e.g. "CREATE TABLE".
	Verb() string
}

// NodeInfo records where a statement starts in the command text.
type NodeInfo struct {
	Pos Position
}

// ---------- Database Statements ----------

// UseStmt selects a database: USE <db>.
type UseStmt struct {
	NodeInfo
	Database string
}

// CreateDatabaseStmt creates a database directory: CREATE DATABASE <db>.
type CreateDatabaseStmt struct {
	NodeInfo
	Database string
}

// DropDatabaseStmt removes a database and all its tables: DROP DATABASE <db>.
type DropDatabaseStmt struct {
	NodeInfo
	Database string
}

// ---------- Table Statements ----------

// CreateTableStmt creates a table: CREATE TABLE <t> [(<col>, ...)].
// Columns holds the names as written; id handling is left to the table store.
type CreateTableStmt struct {
	NodeInfo
	Table   string
	Columns []string
}

// DropTableStmt removes a table: DROP TABLE <t>.
type DropTableStmt struct {
	NodeInfo
	Table string
}

// AlterAction is the kind of change an ALTER TABLE makes.
type AlterAction string

// AlterAction constants.
const (
	AlterAdd  AlterAction = "ADD"
	AlterDrop AlterAction = "DROP"
)

// AlterTableStmt adds or drops a column: ALTER TABLE <t> (ADD|DROP) <col>.
type AlterTableStmt struct {
	NodeInfo
	Table  string
	Action AlterAction
	Column string
}

// ---------- Data Statements ----------

// InsertStmt appends a row: INSERT INTO <t> VALUES (<val>, ...).
type InsertStmt struct {
	NodeInfo
	Table  string
	Values []string
}

// SelectStmt reads rows: SELECT (*|<col>, ...) FROM <t> [WHERE <cond> [AND ...]].
type SelectStmt struct {
	NodeInfo
	Star    bool
	Columns []string // nil when Star is set
	Table   string
	Where   []core.Condition
}

// UpdateStmt overwrites one column of matching rows:
// UPDATE <t> SET <col> = <val> WHERE <col> == <val>.
type UpdateStmt struct {
	NodeInfo
	Table     string
	SetColumn string
	SetValue  string
	Where     core.Condition
}

// DeleteStmt removes matching rows: DELETE FROM <t> WHERE <cond> [AND ...].
type DeleteStmt struct {
	NodeInfo
	Table string
	Where []core.Condition
}

// JoinStmt pairs rows of two tables on equal attribute values:
// JOIN <a> AND <b> ON <attrA> AND <attrB>.
type JoinStmt struct {
	NodeInfo
	Left      string
	Right     string
	LeftAttr  string
	RightAttr string
}

func (*UseStmt) stmtNode()            {}
func (*CreateDatabaseStmt) stmtNode() {}
func (*DropDatabaseStmt) stmtNode()   {}
func (*CreateTableStmt) stmtNode()    {}
func (*DropTableStmt) stmtNode()      {}
func (*AlterTableStmt) stmtNode()     {}
func (*InsertStmt) stmtNode()         {}
func (*SelectStmt) stmtNode()         {}
func (*UpdateStmt) stmtNode()         {}
func (*DeleteStmt) stmtNode()         {}
func (*JoinStmt) stmtNode()           {}

func (*UseStmt) Verb() string            { return "USE" }
func (*CreateDatabaseStmt) Verb() string { return "CREATE DATABASE" }
func (*DropDatabaseStmt) Verb() string   { return "DROP DATABASE" }
func (*CreateTableStmt) Verb() string    { return "CREATE TABLE" }
func (*DropTableStmt) Verb() string      { return "DROP TABLE" }
func (*AlterTableStmt) Verb() string     { return "ALTER TABLE" }
func (*InsertStmt) Verb() string         { return "INSERT" }
func (*SelectStmt) Verb() string         { return "SELECT" }
func (*UpdateStmt) Verb() string         { return "UPDATE" }
func (*DeleteStmt) Verb() string         { return "DELETE" }
func (*JoinStmt) Verb() string           { return "JOIN" }
