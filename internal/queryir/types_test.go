package queryir

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/querycodec/internal/ir"
)

func TestSelect_ImplementsQuery(t *testing.T) {
	var q Query = Select{From: "Contacts"}
	assert.NotNil(t, q)

	var qp Query = &Select{From: "Contacts"}
	assert.NotNil(t, qp)
}

func TestPredicates_ImplementPredicate(t *testing.T) {
	preds := []Predicate{
		Compare{Field: "a", Op: OpEq, Value: ir.Number(1)},
		&Compare{Field: "a", Op: OpEq, Value: ir.Number(1)},
		BoundEquals{Field: "a", Alias: "a"},
		Contains{Field: "a", Value: "x"},
		And{},
		Or{},
		Not{Predicate: Contains{Field: "a"}},
		&Not{},
	}

	for _, p := range preds {
		switch p.(type) {
		case Compare, *Compare, BoundEquals, Contains, And, Or, Not, *Not:
		default:
			t.Fatalf("unexpected predicate type %T", p)
		}
	}
}

func TestOp_Valid(t *testing.T) {
	for _, op := range []Op{OpEq, OpNe, OpGt, OpGe, OpLt, OpLe} {
		assert.True(t, op.Valid(), string(op))
	}
	for _, op := range []Op{"", "=", "EQ", "like"} {
		assert.False(t, op.Valid(), string(op))
	}
}

func TestSelect_ZeroValue(t *testing.T) {
	sel := Select{From: "Contacts"}

	assert.Nil(t, sel.Filter)
	assert.Empty(t, sel.Fields)
	assert.Empty(t, sel.OrderBy)
	assert.Zero(t, sel.Top)
	assert.Zero(t, sel.Skip)
}
