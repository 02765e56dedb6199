package querystring

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/roach88/querycodec/internal/ir"
)

// Decode parses s back into a value.
//
// Dispatch is on the whole string, first match wins:
//  1. contains ","  → split on every "," and decode each part (ir.Array)
//  2. contains "="  → split on "&", then each segment on its first "=";
//     the key is taken literally, the value is decoded (*ir.Object).
//     A segment without "=" maps its name to Undefined, and a repeated
//     key keeps its first position with the last value.
//  3. otherwise     → tagged scalar
//
// The empty string decodes to ir.String(""). Decode fails only for
// malformed percent-encoding and for function values when no evaluator
// is installed.
//
// ModeEscaped reads its own composite forms first: a trailing "," ends a
// sequence (a lone "," is the empty sequence) and a lone "&" is the empty
// mapping.
func (c *Codec) Decode(s string) (ir.Value, error) {
	if c.mode == ModeEscaped {
		if body, ok := strings.CutSuffix(s, sequenceSep); ok {
			if body == "" {
				return ir.Array{}, nil
			}
			return c.decodeSequence(body)
		}
		if s == entrySep {
			return &ir.Object{}, nil
		}
	}

	if strings.Contains(s, sequenceSep) {
		return c.decodeSequence(s)
	}

	if strings.Contains(s, keyValueSep) {
		obj := &ir.Object{}
		for _, segment := range strings.Split(s, entrySep) {
			name, value, found := strings.Cut(segment, keyValueSep)
			key, err := c.decodeKey(name)
			if err != nil {
				return nil, err
			}
			if !found {
				obj.Set(key, ir.Undefined{})
				continue
			}
			v, err := c.decodeChild(value)
			if err != nil {
				return nil, fmt.Errorf("key %q: %w", key, err)
			}
			obj.Set(key, v)
		}
		return obj, nil
	}

	return c.decodeScalar(s)
}

func (c *Codec) decodeSequence(s string) (ir.Value, error) {
	parts := strings.Split(s, sequenceSep)
	arr := make(ir.Array, len(parts))
	for i, part := range parts {
		v, err := c.decodeChild(part)
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		arr[i] = v
	}
	return arr, nil
}

// DecodeValue decodes v if it is an ir.String and returns any other
// value unchanged, so it is safe to call on values that may already be
// decoded.
func (c *Codec) DecodeValue(v ir.Value) (ir.Value, error) {
	s, ok := v.(ir.String)
	if !ok {
		return v, nil
	}
	return c.Decode(string(s))
}

func (c *Codec) decodeChild(s string) (ir.Value, error) {
	if c.mode == ModeEscaped {
		raw, err := UnescapeComponent(s)
		if err != nil {
			return nil, &DecodeError{Segment: s, Err: err}
		}
		s = raw
	}
	return c.Decode(s)
}

func (c *Codec) decodeKey(name string) (string, error) {
	if c.mode != ModeEscaped {
		return name, nil
	}
	key, err := UnescapeComponent(name)
	if err != nil {
		return "", &DecodeError{Segment: name, Err: err}
	}
	return key, nil
}

// decodeScalar reads the tag from the first character and percent-decodes
// the rest.
func (c *Codec) decodeScalar(s string) (ir.Value, error) {
	tag, size := utf8.DecodeRuneInString(s)
	text, err := UnescapeComponent(s[size:])
	if err != nil {
		return nil, &DecodeError{Segment: s, Err: err}
	}

	switch tag {
	case TagUndefined:
		return ir.Undefined{}, nil
	case TagBool:
		return presenceBool(text), nil
	case TagNumber:
		return ir.ParseNumber(text), nil
	case TagFunc:
		if c.funcs == nil {
			return nil, &DecodeError{Segment: s, Err: ErrFuncUnsupported}
		}
		f, err := c.funcs.Evaluate(text)
		if err != nil {
			return nil, &DecodeError{Segment: s, Err: err}
		}
		return f, nil
	case TagNull:
		// Encode only emits "o" for null.
		return ir.Null{}, nil
	default:
		return ir.String(text), nil
	}
}

// presenceBool decodes boolean text: any non-empty text is true, so
// "bfalse" decodes to true. Browser clients have always decoded it this
// way and bookmarked URLs depend on it; keep it unless the format is
// versioned.
func presenceBool(text string) ir.Bool {
	return ir.Bool(text != "")
}
