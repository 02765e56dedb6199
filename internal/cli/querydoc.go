package cli

import (
	"fmt"
	"math"
	"strings"

	"github.com/roach88/querycodec/internal/ir"
	"github.com/roach88/querycodec/internal/queryir"
)

// QueryDoc is a query read from YAML:
//
//	from: Contacts
//	select: [Id, Name]
//	filter:
//	  and:
//	    - {field: City, op: eq, value: Paris}
//	    - {field: Name, contains: "O'Brien"}
//	    - {field: OwnerId, alias: owner}
//	    - not: {field: Deleted, value: true}
//	orderby: [Name desc, Id]
//	top: 20
//	skip: 40
//	params:
//	  owner: u-42
//
// op defaults to eq. params holds the values of aliases.
type QueryDoc struct {
	Query  queryir.Select
	Params map[string]ir.Value
}

// parseQueryDoc reads a QueryDoc from a decoded YAML value.
func parseQueryDoc(v ir.Value) (QueryDoc, error) {
	obj, ok := v.(*ir.Object)
	if !ok {
		return QueryDoc{}, fmt.Errorf("query must be a mapping, got %s", ir.Kind(v))
	}

	doc := QueryDoc{Params: map[string]ir.Value{}}
	for _, key := range obj.Keys() {
		val, _ := obj.Get(key)
		var err error
		switch key {
		case "from":
			doc.Query.From, err = textOf(val)
		case "select":
			doc.Query.Fields, err = fieldList(val)
		case "filter":
			doc.Query.Filter, err = parsePredicate(val)
		case "orderby":
			doc.Query.OrderBy, err = parseOrder(val)
		case "top":
			doc.Query.Top, err = intOf(val)
		case "skip":
			doc.Query.Skip, err = intOf(val)
		case "params":
			err = parseParams(val, doc.Params)
		default:
			err = fmt.Errorf("unknown key")
		}
		if err != nil {
			return QueryDoc{}, fmt.Errorf("%s: %w", key, err)
		}
	}
	return doc, nil
}

func parsePredicate(v ir.Value) (queryir.Predicate, error) {
	obj, ok := v.(*ir.Object)
	if !ok {
		return nil, fmt.Errorf("predicate must be a mapping, got %s", ir.Kind(v))
	}

	for _, combinator := range []string{"and", "or", "not"} {
		child, ok := obj.Get(combinator)
		if !ok {
			continue
		}
		if obj.Len() != 1 {
			return nil, fmt.Errorf("%s must be the only key of its mapping", combinator)
		}
		if combinator == "not" {
			p, err := parsePredicate(child)
			if err != nil {
				return nil, fmt.Errorf("not: %w", err)
			}
			return queryir.Not{Predicate: p}, nil
		}
		preds, err := predicateList(child)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", combinator, err)
		}
		if combinator == "and" {
			return queryir.And{Predicates: preds}, nil
		}
		return queryir.Or{Predicates: preds}, nil
	}

	return parseComparison(obj)
}

func predicateList(v ir.Value) ([]queryir.Predicate, error) {
	arr, ok := v.(ir.Array)
	if !ok {
		return nil, fmt.Errorf("expected a list, got %s", ir.Kind(v))
	}
	preds := make([]queryir.Predicate, len(arr))
	for i, elem := range arr {
		p, err := parsePredicate(elem)
		if err != nil {
			return nil, fmt.Errorf("[%d]: %w", i, err)
		}
		preds[i] = p
	}
	return preds, nil
}

// parseComparison reads the field forms: value (with op), contains or
// alias. Exactly one of them must be present.
func parseComparison(obj *ir.Object) (queryir.Predicate, error) {
	var field, op string
	var pred queryir.Predicate
	forms := 0

	for _, key := range obj.Keys() {
		val, _ := obj.Get(key)
		var err error
		switch key {
		case "field":
			field, err = textOf(val)
		case "op":
			op, err = textOf(val)
		case "value":
			forms++
			pred = queryir.Compare{Value: val}
		case "contains":
			var s string
			s, err = textOf(val)
			forms++
			pred = queryir.Contains{Value: s}
		case "alias":
			var s string
			s, err = textOf(val)
			forms++
			pred = queryir.BoundEquals{Alias: s}
		default:
			err = fmt.Errorf("unknown key")
		}
		if err != nil {
			return nil, fmt.Errorf("%s: %w", key, err)
		}
	}

	if forms != 1 {
		return nil, fmt.Errorf("predicate needs exactly one of value, contains or alias")
	}
	if field == "" {
		return nil, fmt.Errorf("predicate has no field")
	}

	switch p := pred.(type) {
	case queryir.Compare:
		p.Field = field
		p.Op = queryir.OpEq
		if op != "" {
			p.Op = queryir.Op(op)
		}
		return p, nil
	case queryir.Contains:
		p.Field = field
		pred = p
	case queryir.BoundEquals:
		p.Field = field
		pred = p
	}
	if op != "" {
		return nil, fmt.Errorf("op only applies to value comparisons")
	}
	return pred, nil
}

// parseOrder accepts "Field" or "Field desc" entries, or mappings with
// field and desc keys.
func parseOrder(v ir.Value) ([]queryir.Order, error) {
	arr, ok := v.(ir.Array)
	if !ok {
		arr = ir.Array{v}
	}
	orders := make([]queryir.Order, 0, len(arr))
	for i, elem := range arr {
		switch e := elem.(type) {
		case ir.String:
			name, dir, _ := strings.Cut(strings.TrimSpace(string(e)), " ")
			desc := false
			switch strings.ToLower(strings.TrimSpace(dir)) {
			case "", "asc":
			case "desc":
				desc = true
			default:
				return nil, fmt.Errorf("[%d]: unknown direction %q", i, dir)
			}
			orders = append(orders, queryir.Order{Field: name, Desc: desc})
		case *ir.Object:
			fieldVal, _ := e.Get("field")
			name, err := textOf(fieldVal)
			if err != nil {
				return nil, fmt.Errorf("[%d].field: %w", i, err)
			}
			desc := false
			if d, ok := e.Get("desc"); ok {
				b, isBool := d.(ir.Bool)
				if !isBool {
					return nil, fmt.Errorf("[%d].desc: expected a boolean, got %s", i, ir.Kind(d))
				}
				desc = bool(b)
			}
			orders = append(orders, queryir.Order{Field: name, Desc: desc})
		default:
			return nil, fmt.Errorf("[%d]: expected text or a mapping, got %s", i, ir.Kind(elem))
		}
	}
	return orders, nil
}

func parseParams(v ir.Value, dst map[string]ir.Value) error {
	obj, ok := v.(*ir.Object)
	if !ok {
		return fmt.Errorf("expected a mapping, got %s", ir.Kind(v))
	}
	for _, key := range obj.Keys() {
		dst[key], _ = obj.Get(key)
	}
	return nil
}

// fieldList accepts a list of names or one comma-separated string.
func fieldList(v ir.Value) ([]string, error) {
	if s, ok := v.(ir.String); ok {
		var fields []string
		for _, f := range strings.Split(string(s), ",") {
			fields = append(fields, strings.TrimSpace(f))
		}
		return fields, nil
	}
	arr, ok := v.(ir.Array)
	if !ok {
		return nil, fmt.Errorf("expected a list, got %s", ir.Kind(v))
	}
	fields := make([]string, len(arr))
	for i, elem := range arr {
		s, err := textOf(elem)
		if err != nil {
			return nil, fmt.Errorf("[%d]: %w", i, err)
		}
		fields[i] = s
	}
	return fields, nil
}

func textOf(v ir.Value) (string, error) {
	s, ok := v.(ir.String)
	if !ok {
		return "", fmt.Errorf("expected text, got %s", ir.Kind(v))
	}
	return string(s), nil
}

func intOf(v ir.Value) (int, error) {
	n, ok := v.(ir.Number)
	if !ok {
		return 0, fmt.Errorf("expected a number, got %s", ir.Kind(v))
	}
	f := float64(n)
	if f != math.Trunc(f) || math.IsInf(f, 0) || math.Abs(f) > math.MaxInt32 {
		return 0, fmt.Errorf("expected an integer, got %s", n.Text())
	}
	return int(f), nil
}
