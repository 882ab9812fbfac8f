package table

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/leapstack-labs/tabdb/pkg/core"
)

func TestCompare(t *testing.T) {
	tests := []struct {
		cell    string
		op      core.Comparator
		literal string
		want    bool
	}{
		// numeric when both sides are numbers
		{"9", core.CmpLess, "10", true},
		{"1.0", core.CmpEqual, "1", true},
		{"1.0", core.CmpNotEqual, "1", false},
		{"-5", core.CmpLess, "-1", true},
		{"65", core.CmpGreaterEqual, "65", true},
		{"007", core.CmpEqual, "7", true},
		{" 12 ", core.CmpEqual, "12", true},

		// lexical otherwise
		{"9", core.CmpLess, "abc", true},
		{"Bob", core.CmpLess, "alice", true},
		{"TRUE", core.CmpEqual, "TRUE", true},
		{"TRUE", core.CmpEqual, "true", false},
		{"", core.CmpLessEqual, "a", true},
		{"b", core.CmpGreater, "a", true},
		{"NaN", core.CmpEqual, "NaN", true},
		{"Inf", core.CmpGreater, "5", true},

		// LIKE is substring containment, never numeric
		{"Simon", core.CmpLike, "imo", true},
		{"Simon", core.CmpLike, "IMO", false},
		{"Simon", core.CmpLike, "", true},
		{"10.0", core.CmpLike, "10", true},
		{"10", core.CmpLike, "10.0", false},
		{"abc", core.CmpLike, "%b%", false},

		{"1", core.Comparator(99), "1", false},
	}

	for _, tt := range tests {
		t.Run(tt.cell+" "+tt.op.String()+" "+tt.literal, func(t *testing.T) {
			assert.Equal(t, tt.want, Compare(tt.cell, tt.op, tt.literal))
		})
	}
}
