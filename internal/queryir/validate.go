package queryir

import (
	"fmt"
	"regexp"

	"github.com/roach88/querycodec/internal/ir"
)

// ValidationResult lists problems found in a query.
type ValidationResult struct {
	// Valid is true when there are no warnings.
	Valid bool

	// Warnings describes each problem, in traversal order.
	Warnings []string
}

// aliasName matches OData parameter alias names (without "@").
var aliasName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Validate checks a query for problems that would make compilation fail
// or make a server misread it:
//  1. Missing names - empty collection, field or alias names
//  2. Unknown operators
//  3. Non-literal values - composites, funcs and undefined in comparisons
//  4. Ordering against null - only eq and ne are meaningful with null
//  5. Negative paging
//
// Validate is a pure function with no side effects.
func Validate(query Query) ValidationResult {
	v := &validator{
		warnings: []string{},
	}
	v.validateQuery(query)

	return ValidationResult{
		Valid:    len(v.warnings) == 0,
		Warnings: v.warnings,
	}
}

// validator accumulates warnings during traversal.
type validator struct {
	warnings []string
}

func (v *validator) addWarning(format string, args ...any) {
	v.warnings = append(v.warnings, fmt.Sprintf(format, args...))
}

func (v *validator) validateQuery(q Query) {
	if q == nil {
		v.addWarning("nil query")
		return
	}

	switch query := q.(type) {
	case Select:
		v.validateSelect(query)
	case *Select:
		v.validateSelect(*query)
	default:
		v.addWarning("Unknown query type: %T", q)
	}
}

func (v *validator) validateSelect(sel Select) {
	if sel.From == "" {
		v.addWarning("Empty collection name")
	}
	for i, f := range sel.Fields {
		if f == "" {
			v.addWarning("Empty field name in select at position %d", i)
		}
	}
	for i, o := range sel.OrderBy {
		if o.Field == "" {
			v.addWarning("Empty field name in order by at position %d", i)
		}
	}
	if sel.Top < 0 {
		v.addWarning("Negative top (%d)", sel.Top)
	}
	if sel.Skip < 0 {
		v.addWarning("Negative skip (%d)", sel.Skip)
	}

	if sel.Filter != nil {
		v.validatePredicate(sel.Filter)
	}
}

func (v *validator) validatePredicate(p Predicate) {
	if p == nil {
		return // nil predicates are valid (no filter)
	}

	switch pred := p.(type) {
	case Compare:
		v.validateCompare(pred)
	case *Compare:
		v.validateCompare(*pred)
	case BoundEquals:
		v.validateBoundEquals(pred)
	case *BoundEquals:
		v.validateBoundEquals(*pred)
	case Contains:
		v.validateField(pred.Field, "contains")
	case *Contains:
		v.validateField(pred.Field, "contains")
	case And:
		v.validateAll(pred.Predicates)
	case *And:
		v.validateAll(pred.Predicates)
	case Or:
		v.validateAll(pred.Predicates)
	case *Or:
		v.validateAll(pred.Predicates)
	case Not:
		v.validateNot(pred)
	case *Not:
		v.validateNot(*pred)
	default:
		v.addWarning("Unknown predicate type: %T", p)
	}
}

func (v *validator) validateField(field, where string) {
	if field == "" {
		v.addWarning("Empty field name in %s", where)
	}
}

func (v *validator) validateCompare(c Compare) {
	v.validateField(c.Field, "comparison")
	if !c.Op.Valid() {
		v.addWarning("Field '%s' uses unknown operator %q", c.Field, c.Op)
	}

	switch c.Value.(type) {
	case ir.String, ir.Number, ir.Bool:
	case ir.Null:
		if c.Op != OpEq && c.Op != OpNe {
			v.addWarning("Field '%s' ordered against null - only eq and ne are meaningful", c.Field)
		}
	default:
		v.addWarning("Field '%s' compared to %s - only scalar literals are allowed", c.Field, ir.Kind(c.Value))
	}
}

func (v *validator) validateBoundEquals(b BoundEquals) {
	v.validateField(b.Field, "bound comparison")
	if !aliasName.MatchString(b.Alias) {
		v.addWarning("Field '%s' bound to invalid alias %q", b.Field, b.Alias)
	}
}

func (v *validator) validateNot(n Not) {
	if n.Predicate == nil {
		v.addWarning("Not without predicate")
		return
	}
	v.validatePredicate(n.Predicate)
}

func (v *validator) validateAll(preds []Predicate) {
	for _, sub := range preds {
		v.validatePredicate(sub)
	}
}
