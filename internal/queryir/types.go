package queryir

import "github.com/roach88/querycodec/internal/ir"

// Query represents an abstract collection query.
//
// This is a sealed interface - only types in this package implement it.
// The marker method pattern prevents external implementations and enables
// exhaustive type switches in compilers.
//
// Query types:
//   - Select: collection access with filtering, projection, ordering and paging
type Query interface {
	queryNode() // Marker method - seals interface to this package
}

// Predicate represents a filter condition.
//
// This is a sealed interface - only types in this package implement it.
//
// Predicate types:
//   - Compare: field <op> literal
//   - BoundEquals: field eq @alias (value supplied at compile time)
//   - Contains: substring match on a text field
//   - And, Or: conjunction and disjunction
//   - Not: negation
type Predicate interface {
	predicateNode() // Marker method - seals interface to this package
}

// Op is a comparison operator. The values are the OData operator names.
type Op string

const (
	OpEq Op = "eq"
	OpNe Op = "ne"
	OpGt Op = "gt"
	OpGe Op = "ge"
	OpLt Op = "lt"
	OpLe Op = "le"
)

// Valid reports whether op is one of the known operators.
func (op Op) Valid() bool {
	switch op {
	case OpEq, OpNe, OpGt, OpGe, OpLt, OpLe:
		return true
	}
	return false
}

// Select reads a collection.
//
// Example:
//
//	Select{
//	  From:    "Contacts",
//	  Filter:  &And{Predicates: []Predicate{
//	    &Compare{Field: "Status", Op: OpEq, Value: ir.String("active")},
//	    &Contains{Field: "Name", Value: "O'Brien"},
//	  }},
//	  Fields:  []string{"Id", "Name"},
//	  OrderBy: []Order{{Field: "Name"}},
//	  Top:     20,
//	}
//
// compiles to the OData options
//
//	$filter=Status eq 'active' and contains(Name,'O''Brien')
//	$select=Id,Name
//	$orderby=Name
//	$top=20
//
// Zero values mean "not set": no filter, all fields, server order, no
// paging.
type Select struct {
	From    string    // Collection name (e.g., "Contacts")
	Filter  Predicate // nil = no filter
	Fields  []string  // Projection; empty = all fields
	OrderBy []Order
	Top     int // Page size; 0 = unlimited
	Skip    int // Rows to skip
}

func (Select) queryNode() {}

// Order sorts by one field.
type Order struct {
	Field string
	Desc  bool
}

// Compare compares a field with a literal value.
//
// Value must be a scalar: ir.String, ir.Number, ir.Bool or ir.Null.
// Comparing with ir.Null is how absence is tested (Field eq null).
type Compare struct {
	Field string
	Op    Op
	Value ir.Value
}

func (Compare) predicateNode() {}

// BoundEquals compares a field with a parameter alias. The alias value is
// supplied to the compiler rather than written into the filter, so one
// filter text can be reused with different values.
//
//	BoundEquals{Field: "OwnerId", Alias: "owner"}
//
// becomes
//
//	$filter=OwnerId eq @owner&@owner='u-42'
type BoundEquals struct {
	Field string
	Alias string // Without the leading "@"
}

func (BoundEquals) predicateNode() {}

// Contains matches text fields containing Value as a substring.
type Contains struct {
	Field string
	Value string
}

func (Contains) predicateNode() {}

// And is true when all predicates are true. Empty And is always true.
type And struct {
	Predicates []Predicate
}

func (And) predicateNode() {}

// Or is true when any predicate is true. Empty Or is always false.
type Or struct {
	Predicates []Predicate
}

func (Or) predicateNode() {}

// Not negates a predicate.
type Not struct {
	Predicate Predicate
}

func (Not) predicateNode() {}
