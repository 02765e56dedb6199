package querystring

import (
	"strings"

	"github.com/roach88/querycodec/internal/ir"
)

// Encode turns v into a single string. It never fails: every value,
// including Undefined, Null and funcs, has an encoding. A nil Value
// encodes like Undefined and a nil *ir.Object like an empty mapping.
func (c *Codec) Encode(v ir.Value) string {
	var b strings.Builder
	c.encode(&b, v)
	return b.String()
}

// EncodeAny converts v with ir.FromGo, then encodes it.
func (c *Codec) EncodeAny(v any) (string, error) {
	val, err := ir.FromGo(v)
	if err != nil {
		return "", err
	}
	return c.Encode(val), nil
}

func (c *Codec) encode(b *strings.Builder, v ir.Value) {
	switch val := v.(type) {
	case ir.Array:
		for i, elem := range val {
			if i > 0 {
				b.WriteString(sequenceSep)
			}
			c.encodeChild(b, elem)
		}
		if c.mode == ModeEscaped {
			// Terminated, so [] and [x] stay sequences.
			b.WriteString(sequenceSep)
		}
	case *ir.Object:
		if c.mode == ModeEscaped && val.Len() == 0 {
			b.WriteString(entrySep)
			return
		}
		for i, k := range val.Keys() {
			if i > 0 {
				b.WriteString(entrySep)
			}
			name := k
			if c.mode == ModeEscaped {
				name = EscapeComponent(k)
			}
			b.WriteString(name)
			b.WriteString(keyValueSep)
			elem, _ := val.Get(k)
			c.encodeChild(b, elem)
		}
	case ir.Scalar:
		b.WriteString(encodeScalar(val))
	default:
		b.WriteString(encodeScalar(ir.Undefined{}))
	}
}

func (c *Codec) encodeChild(b *strings.Builder, v ir.Value) {
	if c.mode != ModeEscaped {
		c.encode(b, v)
		return
	}
	b.WriteString(escapeDelimiters(c.Encode(v)))
}

// encodeScalar writes tag and text as one percent-encoded component, so
// delimiters inside the text can never be mistaken for structure.
func encodeScalar(s ir.Scalar) string {
	return EscapeComponent(string(tagOf(s)) + s.Text())
}

func tagOf(s ir.Scalar) rune {
	switch s.(type) {
	case ir.Undefined:
		return TagUndefined
	case ir.Bool:
		return TagBool
	case ir.Number:
		return TagNumber
	case ir.Func:
		return TagFunc
	case ir.Null:
		return TagNull
	default:
		return TagString
	}
}

var delimiterEscaper = strings.NewReplacer(
	"%", "%25",
	",", "%2C",
	"&", "%26",
	"=", "%3D",
)

// escapeDelimiters hides a child's delimiters from its parent. Every "%"
// is escaped too, so a full percent-decode restores the child exactly.
func escapeDelimiters(s string) string {
	return delimiterEscaper.Replace(s)
}
