package table

import (
	"math"
	"strconv"
	"strings"

	"github.com/leapstack-labs/tabdb/pkg/core"
)

// Compare reports whether cell satisfies `cell op literal`.
//
// When both sides parse as finite numbers they are compared numerically, so
// "9" < "10" and "1.0" == "1". Otherwise they are compared as text in byte
// order. LIKE is always a case-sensitive substring test.
func Compare(cell string, op core.Comparator, literal string) bool {
	if op == core.CmpLike {
		return strings.Contains(cell, literal)
	}

	var c int
	if a, ok := parseNumber(cell); ok {
		if b, ok := parseNumber(literal); ok {
			c = compareFloat(a, b)
			return holds(op, c)
		}
	}
	c = strings.Compare(cell, literal)
	return holds(op, c)
}

func holds(op core.Comparator, c int) bool {
	switch op {
	case core.CmpEqual:
		return c == 0
	case core.CmpNotEqual:
		return c != 0
	case core.CmpGreater:
		return c > 0
	case core.CmpLess:
		return c < 0
	case core.CmpGreaterEqual:
		return c >= 0
	case core.CmpLessEqual:
		return c <= 0
	}
	return false
}

func compareFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// parseNumber parses s as a finite float. Surrounding spaces are ignored.
func parseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
