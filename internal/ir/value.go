package ir

import (
	"fmt"
	"slices"
)

// Value is a sealed interface representing query values.
// Only Undefined, Null, Bool, Number, String, Func, Array and *Object
// implement it.
type Value interface {
	queryValue() // Sealed - only these types implement it
}

// Scalar is implemented by every non-composite Value. Text returns the
// plain-text rendering used by the query string codec.
type Scalar interface {
	Value
	Text() string
}

// Undefined represents an absent value. It is distinct from Null.
type Undefined struct{}

func (Undefined) queryValue() {}

// Text returns the empty string: the absent value has no text, so its
// encoded form is the bare tag.
func (Undefined) Text() string { return "" }

// Null represents an explicit null. Null is a scalar, never a mapping.
type Null struct{}

func (Null) queryValue() {}

// Text returns "null".
func (Null) Text() string { return "null" }

// Bool represents a boolean value.
type Bool bool

func (Bool) queryValue() {}

// Text returns "true" or "false".
func (b Bool) Text() string {
	if b {
		return "true"
	}
	return "false"
}

// Number represents a numeric value. NaN and the infinities are valid
// Numbers; see number.go for the text rendering rules.
type Number float64

func (Number) queryValue() {}

// String represents a text value.
type String string

func (String) queryValue() {}

// Text returns the string itself.
func (s String) Text() string { return string(s) }

// Func is a callable reference. Source is its textual form and is what
// gets serialized; Call is only present on funcs produced by an evaluator.
type Func struct {
	Source string
	Call   func(args ...any) (any, error)
}

func (Func) queryValue() {}

// Text returns the callable source.
func (f Func) Text() string { return f.Source }

// Invoke calls the function. Funcs without a Call implementation (for
// example ones built from source text only) return ErrNotCallable.
func (f Func) Invoke(args ...any) (any, error) {
	if f.Call == nil {
		return nil, fmt.Errorf("%w: %q", ErrNotCallable, f.Source)
	}
	return f.Call(args...)
}

// Array represents an ordered sequence of values.
type Array []Value

func (Array) queryValue() {}

// Object is a mapping of unique text keys to values that remembers the
// order in which keys were first set. The zero value is an empty mapping
// ready for use; a nil *Object reads as empty.
type Object struct {
	keys   []string
	fields map[string]Value
}

func (*Object) queryValue() {}

// Pair is a key-value pair for ordered Object construction.
type Pair struct {
	Key   string
	Value Value
}

// P is a shorthand for Pair.
// Example: NewObject(P("name", String("cart")), P("count", Number(5)))
func P(key string, value Value) Pair {
	return Pair{Key: key, Value: value}
}

// NewObject creates an Object from pairs in the given order. A repeated
// key keeps its first position and takes the last value.
func NewObject(pairs ...Pair) *Object {
	obj := &Object{fields: make(map[string]Value, len(pairs))}
	for _, p := range pairs {
		obj.Set(p.Key, p.Value)
	}
	return obj
}

// Set assigns value to key. New keys are appended to the key order;
// existing keys keep their position.
func (o *Object) Set(key string, value Value) {
	if o.fields == nil {
		o.fields = make(map[string]Value)
	}
	if _, ok := o.fields[key]; !ok {
		o.keys = append(o.keys, key)
	}
	o.fields[key] = value
}

// Get returns the value stored under key.
func (o *Object) Get(key string) (Value, bool) {
	if o == nil {
		return nil, false
	}
	v, ok := o.fields[key]
	return v, ok
}

// Delete removes key, if present.
func (o *Object) Delete(key string) {
	if o == nil {
		return
	}
	if _, ok := o.fields[key]; !ok {
		return
	}
	delete(o.fields, key)
	o.keys = slices.DeleteFunc(o.keys, func(k string) bool { return k == key })
}

// Keys returns the keys in insertion order. The slice is a copy.
func (o *Object) Keys() []string {
	if o == nil {
		return nil
	}
	return slices.Clone(o.keys)
}

// Len returns the number of keys.
func (o *Object) Len() int {
	if o == nil {
		return 0
	}
	return len(o.keys)
}

// Kind returns a short name for the dynamic kind of v, for messages.
func Kind(v Value) string {
	switch v.(type) {
	case nil:
		return "nil"
	case Undefined:
		return "undefined"
	case Null:
		return "null"
	case Bool:
		return "boolean"
	case Number:
		return "number"
	case String:
		return "string"
	case Func:
		return "function"
	case Array:
		return "array"
	case *Object:
		return "object"
	default:
		return fmt.Sprintf("%T", v)
	}
}
