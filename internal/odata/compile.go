package odata

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/roach88/querycodec/internal/ir"
	"github.com/roach88/querycodec/internal/queryir"
)

// ErrUnsupportedLiteral is returned when a comparison value has no OData
// literal form (composites, funcs, undefined).
var ErrUnsupportedLiteral = errors.New("unsupported literal")

// Compiler compiles queryir queries to OData system query options.
//
// Every string literal goes through EscapeLiteral. Field names are written
// as given; validate queries from untrusted sources with queryir.Validate
// first.
type Compiler struct {
	// BoundValues holds the values for BoundEquals aliases, keyed by alias
	// name without "@".
	BoundValues map[string]ir.Value
}

// NewCompiler creates a Compiler with no bound values.
func NewCompiler() *Compiler {
	return &Compiler{
		BoundValues: make(map[string]ir.Value),
	}
}

// Compile compiles q with a fresh Compiler.
func Compile(q queryir.Query) (Options, error) {
	return NewCompiler().Compile(q)
}

// Compile converts a query to OData options.
func (c *Compiler) Compile(q queryir.Query) (Options, error) {
	if q == nil {
		return Options{}, fmt.Errorf("cannot compile nil query")
	}

	switch query := q.(type) {
	case queryir.Select:
		return c.compileSelect(query)
	case *queryir.Select:
		return c.compileSelect(*query)
	default:
		return Options{}, fmt.Errorf("unsupported query type: %T", q)
	}
}

func (c *Compiler) compileSelect(q queryir.Select) (Options, error) {
	if q.Top < 0 || q.Skip < 0 {
		return Options{}, fmt.Errorf("negative paging: top %d, skip %d", q.Top, q.Skip)
	}

	opts := Options{
		From:   q.From,
		Select: strings.Join(q.Fields, ","),
		Top:    q.Top,
		Skip:   q.Skip,
	}

	if q.Filter != nil {
		b := &filterBuilder{compiler: c}
		filter, err := b.predicate(q.Filter)
		if err != nil {
			return Options{}, fmt.Errorf("compile filter: %w", err)
		}
		opts.Filter = filter
		opts.Aliases = b.aliases
	}

	orders := make([]string, 0, len(q.OrderBy))
	for _, o := range q.OrderBy {
		if o.Desc {
			orders = append(orders, o.Field+" desc")
		} else {
			orders = append(orders, o.Field)
		}
	}
	opts.OrderBy = strings.Join(orders, ",")

	return opts, nil
}

// filterBuilder carries the aliases referenced while one filter compiles.
type filterBuilder struct {
	compiler *Compiler
	aliases  []Alias
}

func (b *filterBuilder) predicate(p queryir.Predicate) (string, error) {
	switch pred := p.(type) {
	case queryir.Compare:
		return b.compare(pred)
	case *queryir.Compare:
		return b.compare(*pred)
	case queryir.BoundEquals:
		return b.boundEquals(pred)
	case *queryir.BoundEquals:
		return b.boundEquals(*pred)
	case queryir.Contains:
		return contains(pred), nil
	case *queryir.Contains:
		return contains(*pred), nil
	case queryir.And:
		return b.join(pred.Predicates, " and ", "true")
	case *queryir.And:
		return b.join(pred.Predicates, " and ", "true")
	case queryir.Or:
		return b.join(pred.Predicates, " or ", "false")
	case *queryir.Or:
		return b.join(pred.Predicates, " or ", "false")
	case queryir.Not:
		return b.not(pred)
	case *queryir.Not:
		return b.not(*pred)
	default:
		return "", fmt.Errorf("unsupported predicate type: %T", p)
	}
}

func (b *filterBuilder) compare(c queryir.Compare) (string, error) {
	if !c.Op.Valid() {
		return "", fmt.Errorf("field %s: unknown operator %q", c.Field, c.Op)
	}
	lit, err := Literal(c.Value)
	if err != nil {
		return "", fmt.Errorf("field %s: %w", c.Field, err)
	}
	return fmt.Sprintf("%s %s %s", c.Field, c.Op, lit), nil
}

// boundEquals looks the alias value up in BoundValues. An alias used
// twice is emitted once.
func (b *filterBuilder) boundEquals(be queryir.BoundEquals) (string, error) {
	val, ok := b.compiler.BoundValues[be.Alias]
	if !ok {
		return "", fmt.Errorf("field %s: alias @%s is not bound", be.Field, be.Alias)
	}
	lit, err := Literal(val)
	if err != nil {
		return "", fmt.Errorf("alias @%s: %w", be.Alias, err)
	}

	seen := false
	for _, a := range b.aliases {
		if a.Name == be.Alias {
			seen = true
			break
		}
	}
	if !seen {
		b.aliases = append(b.aliases, Alias{Name: be.Alias, Value: lit})
	}
	return fmt.Sprintf("%s eq @%s", be.Field, be.Alias), nil
}

func contains(c queryir.Contains) string {
	return fmt.Sprintf("contains(%s,%s)", c.Field, Quote(c.Value))
}

func (b *filterBuilder) join(preds []queryir.Predicate, sep, empty string) (string, error) {
	var parts []string
	for _, p := range preds {
		if p == nil {
			continue
		}
		s, err := b.predicate(p)
		if err != nil {
			return "", err
		}
		if compound(p) {
			s = "(" + s + ")"
		}
		parts = append(parts, s)
	}
	if len(parts) == 0 {
		return empty, nil
	}
	return strings.Join(parts, sep), nil
}

func (b *filterBuilder) not(n queryir.Not) (string, error) {
	if n.Predicate == nil {
		return "", fmt.Errorf("not without predicate")
	}
	s, err := b.predicate(n.Predicate)
	if err != nil {
		return "", err
	}
	return "not (" + s + ")", nil
}

// compound reports whether p needs parentheses when nested.
func compound(p queryir.Predicate) bool {
	switch pred := p.(type) {
	case queryir.And:
		return len(pred.Predicates) > 1
	case *queryir.And:
		return len(pred.Predicates) > 1
	case queryir.Or:
		return len(pred.Predicates) > 1
	case *queryir.Or:
		return len(pred.Predicates) > 1
	}
	return false
}

// Literal renders a scalar as an OData literal. Strings are quoted and
// escaped, numbers use their shortest form, and non-finite numbers use
// the OData names NaN, INF and -INF.
func Literal(v ir.Value) (string, error) {
	switch val := v.(type) {
	case ir.String:
		return Quote(string(val)), nil
	case ir.Bool:
		return strconv.FormatBool(bool(val)), nil
	case ir.Null:
		return "null", nil
	case ir.Number:
		f := float64(val)
		switch {
		case math.IsNaN(f):
			return "NaN", nil
		case math.IsInf(f, 1):
			return "INF", nil
		case math.IsInf(f, -1):
			return "-INF", nil
		}
		return val.Text(), nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedLiteral, ir.Kind(v))
	}
}

// sortedAliases returns a copy of aliases ordered by name.
func sortedAliases(aliases []Alias) []Alias {
	out := append([]Alias(nil), aliases...)
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
