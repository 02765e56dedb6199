package querystring

import (
	"github.com/roach88/querycodec/internal/ir"
)

// Scalar type tags.
const (
	TagUndefined = 'u'
	TagBool      = 'b'
	TagNumber    = 'n'
	TagFunc      = 'f'
	TagNull      = 'o'
	TagString    = 's'
)

// Structural delimiters.
const (
	sequenceSep = ","
	entrySep    = "&"
	keyValueSep = "="
)

// Mode selects how composites nested inside composites are written.
type Mode int

const (
	// ModeCompat is the original format: delimiters are never escaped
	// between nesting levels. Strings produced by browser clients use it.
	ModeCompat Mode = iota

	// ModeEscaped percent-escapes "%", ",", "&" and "=" in every child of
	// a composite, percent-encodes mapping keys, ends every sequence with
	// "," and writes the empty mapping as "&". Composites of any size and
	// nesting, and arbitrary keys, round-trip. Scalars decode as in
	// ModeCompat, so "bfalse" is still true. Not readable by ModeCompat
	// decoders.
	ModeEscaped
)

func (m Mode) String() string {
	switch m {
	case ModeCompat:
		return "compat"
	case ModeEscaped:
		return "escaped"
	default:
		return "unknown"
	}
}

// FuncEvaluator turns the source text of an "f" scalar into a callable.
// Evaluating source is running code, so a Codec only does it when one is
// installed with WithFuncEvaluator.
type FuncEvaluator interface {
	Evaluate(source string) (ir.Func, error)
}

// FuncEvaluatorFunc adapts a plain function to FuncEvaluator.
type FuncEvaluatorFunc func(source string) (ir.Func, error)

// Evaluate calls f(source).
func (f FuncEvaluatorFunc) Evaluate(source string) (ir.Func, error) {
	return f(source)
}

// Codec encodes and decodes query values. A Codec is immutable and safe
// for concurrent use.
type Codec struct {
	mode  Mode
	funcs FuncEvaluator
}

// Option configures a Codec.
type Option func(*Codec)

// WithMode selects the nesting mode. Default: ModeCompat.
func WithMode(m Mode) Option {
	return func(c *Codec) {
		c.mode = m
	}
}

// WithFuncEvaluator installs the hook used to decode "f" scalars.
func WithFuncEvaluator(e FuncEvaluator) Option {
	return func(c *Codec) {
		c.funcs = e
	}
}

// New creates a Codec. With no options it reads and writes the compat
// format and rejects function values on decode.
func New(opts ...Option) *Codec {
	c := &Codec{mode: ModeCompat}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Mode returns the codec's nesting mode.
func (c *Codec) Mode() Mode {
	return c.mode
}

var defaultCodec = New()

// Encode encodes v with the default codec.
func Encode(v ir.Value) string {
	return defaultCodec.Encode(v)
}

// EncodeAny converts v with ir.FromGo and encodes it with the default
// codec.
func EncodeAny(v any) (string, error) {
	return defaultCodec.EncodeAny(v)
}

// Decode decodes s with the default codec.
func Decode(s string) (ir.Value, error) {
	return defaultCodec.Decode(s)
}

// DecodeValue decodes v with the default codec if it is a string and
// returns it unchanged otherwise.
func DecodeValue(v ir.Value) (ir.Value, error) {
	return defaultCodec.DecodeValue(v)
}
