package odata

import (
	"strconv"
	"strings"

	"github.com/roach88/querycodec/internal/ir"
)

// Options are compiled OData system query options. Empty strings and zero
// counts are omitted when encoded.
type Options struct {
	From    string // Collection the options apply to
	Filter  string
	Select  string
	OrderBy string
	Top     int
	Skip    int
	Aliases []Alias // Parameter alias values, in first-use order
}

// Alias is a parameter alias and its literal value.
type Alias struct {
	Name  string // Without "@"
	Value string // OData literal, already escaped
}

// urlSafe makes the remaining structural characters of an option value
// safe in a URL. String literals were escaped by EscapeLiteral already,
// so only the spaces between tokens and the "+" of number exponents are
// left.
var urlSafe = strings.NewReplacer(" ", "%20", "+", "%2B")

// Encode renders the options as a URL query string (without "?"). Option
// order is fixed and aliases are sorted by name.
func (o Options) Encode() string {
	var parts []string
	add := func(name, value string) {
		if value != "" {
			parts = append(parts, name+"="+urlSafe.Replace(value))
		}
	}

	add("$filter", o.Filter)
	add("$select", o.Select)
	add("$orderby", o.OrderBy)
	if o.Top > 0 {
		add("$top", strconv.Itoa(o.Top))
	}
	if o.Skip > 0 {
		add("$skip", strconv.Itoa(o.Skip))
	}
	for _, a := range sortedAliases(o.Aliases) {
		add("@"+a.Name, a.Value)
	}
	return strings.Join(parts, "&")
}

// Value describes the options as a flat query value, suitable for the
// querystring codec. Keys are filter, select, orderby, top, skip and one
// "@name" per alias; unset options are left out. Every value is a scalar,
// so the encoded form round-trips.
func (o Options) Value() *ir.Object {
	obj := &ir.Object{}
	if o.Filter != "" {
		obj.Set("filter", ir.String(o.Filter))
	}
	if o.Select != "" {
		obj.Set("select", ir.String(o.Select))
	}
	if o.OrderBy != "" {
		obj.Set("orderby", ir.String(o.OrderBy))
	}
	if o.Top > 0 {
		obj.Set("top", ir.Number(o.Top))
	}
	if o.Skip > 0 {
		obj.Set("skip", ir.Number(o.Skip))
	}
	for _, a := range o.Aliases {
		obj.Set("@"+a.Name, ir.String(a.Value))
	}
	return obj
}
