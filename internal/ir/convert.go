package ir

import (
	"fmt"
	"math"
	"reflect"
	"sort"
)

// FromGo converts a Go value to a Value.
//
// Supported inputs: nil (Null), Value (as is), bool, every integer and
// float kind, string, slices and arrays (Array), and maps with string keys
// (*Object, keys sorted since Go maps have no order). Pointers are
// followed; a nil pointer is Null. Anything else, including Go funcs,
// fails with ErrUnsupportedType.
func FromGo(v any) (Value, error) {
	switch val := v.(type) {
	case nil:
		return Null{}, nil
	case Value:
		return val, nil
	case bool:
		return Bool(val), nil
	case string:
		return String(val), nil
	case int:
		return Number(val), nil
	case int64:
		return Number(val), nil
	case float64:
		return Number(val), nil
	case []any:
		arr := make(Array, len(val))
		for i, elem := range val {
			item, err := FromGo(elem)
			if err != nil {
				return nil, fmt.Errorf("array[%d]: %w", i, err)
			}
			arr[i] = item
		}
		return arr, nil
	case map[string]any:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		obj := &Object{}
		for _, k := range keys {
			item, err := FromGo(val[k])
			if err != nil {
				return nil, fmt.Errorf("object[%q]: %w", k, err)
			}
			obj.Set(k, item)
		}
		return obj, nil
	}
	return fromReflect(reflect.ValueOf(v))
}

func fromReflect(rv reflect.Value) (Value, error) {
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return Null{}, nil
		}
		return FromGo(rv.Elem().Interface())
	case reflect.Bool:
		return Bool(rv.Bool()), nil
	case reflect.String:
		return String(rv.String()), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return Number(rv.Int()), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return Number(rv.Uint()), nil
	case reflect.Float32, reflect.Float64:
		return Number(rv.Float()), nil
	case reflect.Slice, reflect.Array:
		if rv.Kind() == reflect.Slice && rv.IsNil() {
			return Array{}, nil
		}
		arr := make(Array, rv.Len())
		for i := range arr {
			item, err := FromGo(rv.Index(i).Interface())
			if err != nil {
				return nil, fmt.Errorf("array[%d]: %w", i, err)
			}
			arr[i] = item
		}
		return arr, nil
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return nil, fmt.Errorf("%w: map key %s", ErrUnsupportedType, rv.Type().Key())
		}
		keys := rv.MapKeys()
		sort.Slice(keys, func(i, j int) bool { return keys[i].String() < keys[j].String() })
		obj := &Object{}
		for _, k := range keys {
			item, err := FromGo(rv.MapIndex(k).Interface())
			if err != nil {
				return nil, fmt.Errorf("object[%q]: %w", k.String(), err)
			}
			obj.Set(k.String(), item)
		}
		return obj, nil
	}
	if !rv.IsValid() {
		return Null{}, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupportedType, rv.Type())
}

// ToGo converts a Value to plain Go data: nil for Undefined and Null,
// bool, float64, string, []any and map[string]any. Funcs become their
// source text. Key order of objects is lost.
func ToGo(v Value) any {
	switch val := v.(type) {
	case Bool:
		return bool(val)
	case Number:
		return float64(val)
	case String:
		return string(val)
	case Func:
		return val.Source
	case Array:
		out := make([]any, len(val))
		for i, elem := range val {
			out[i] = ToGo(elem)
		}
		return out
	case *Object:
		out := make(map[string]any, val.Len())
		for _, k := range val.Keys() {
			elem, _ := val.Get(k)
			out[k] = ToGo(elem)
		}
		return out
	default:
		return nil
	}
}

// Equal reports whether a and b are deeply equal. NaN equals NaN, objects
// compare without regard to key order, and funcs compare by source.
func Equal(a, b Value) bool {
	switch x := a.(type) {
	case nil:
		return b == nil
	case Undefined, Null, Bool, String:
		return a == b
	case Number:
		y, ok := b.(Number)
		if !ok {
			return false
		}
		if math.IsNaN(float64(x)) {
			return math.IsNaN(float64(y))
		}
		return x == y
	case Func:
		y, ok := b.(Func)
		return ok && x.Source == y.Source
	case Array:
		y, ok := b.(Array)
		if !ok || len(x) != len(y) {
			return false
		}
		for i := range x {
			if !Equal(x[i], y[i]) {
				return false
			}
		}
		return true
	case *Object:
		y, ok := b.(*Object)
		if !ok || x.Len() != y.Len() {
			return false
		}
		for _, k := range x.Keys() {
			xv, _ := x.Get(k)
			yv, found := y.Get(k)
			if !found || !Equal(xv, yv) {
				return false
			}
		}
		return true
	default:
		return false
	}
}
