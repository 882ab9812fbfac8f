package core

import "fmt"

// Comparator is a WHERE clause comparison operator.
type Comparator int

const (
	CmpEqual Comparator = iota + 1 // ==
	CmpNotEqual                    // !=
	CmpGreater                     // >
	CmpLess                        // <
	CmpGreaterEqual                // >=
	CmpLessEqual                   // <=
	CmpLike                        // LIKE
)

var comparatorNames = map[Comparator]string{
	CmpEqual:        "==",
	CmpNotEqual:     "!=",
	CmpGreater:      ">",
	CmpLess:         "<",
	CmpGreaterEqual: ">=",
	CmpLessEqual:    "<=",
	CmpLike:         "LIKE",
}

func (c Comparator) String() string {
	if name, ok := comparatorNames[c]; ok {
		return name
	}
	return fmt.Sprintf("Comparator(%d)", int(c))
}

// Condition is a single attribute/comparator/literal filter.
type Condition struct {
	Attribute string
	Op        Comparator
	Value     string
}

func (c Condition) String() string {
	return fmt.Sprintf("%s %s %q", c.Attribute, c.Op, c.Value)
}
