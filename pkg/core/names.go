package core

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// IDColumn is the implicit first column of every table.
const IDColumn = "id"

// TableFileExt is the extension of table files inside a database directory.
const TableFileExt = ".tab"

// NormalizeName returns the stored form of a database or table name.
func NormalizeName(name string) string {
	return cases.Lower(language.Und).String(name)
}

// SameName reports whether two column, table or database names refer to
// the same object.
func SameName(a, b string) bool {
	return strings.EqualFold(a, b)
}

// IsIDColumn reports whether name refers to the id column.
func IsIDColumn(name string) bool {
	return SameName(name, IDColumn)
}

// ValidObjectName reports whether name can be used as a database or table
// name. Such names become path components, so only letters, digits and
// underscores are allowed.
func ValidObjectName(name string) bool {
	if name == "" {
		return false
	}
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
		default:
			return false
		}
	}
	return true
}

// ValidCell reports whether s can be stored in a table file and sent in a
// response. Control characters are rejected: tab and line breaks delimit
// cells and rows, and a lone EOT line ends a response on the wire.
func ValidCell(s string) bool {
	return !strings.ContainsFunc(s, unicode.IsControl)
}
