// Package querystring serializes query values into a single opaque string
// suitable for one URL query parameter, and back.
//
// FORMAT:
//
// Encoding is recursive and depth-first:
//
//	sequence  → elements encoded and joined with ","
//	mapping   → "key=<encoded value>" per key, in insertion order, joined with "&"
//	scalar    → one-character type tag + plain-text rendering, the whole
//	            thing percent-encoded as a single URI component
//
// Type tags:
//
//	u  undefined      b  boolean      n  number
//	f  function       o  null         s  string (and anything else)
//
// Examples:
//
//	Encode(ir.Number(42))                          == "n42"
//	Encode(ir.Null{})                              == "onull"
//	Encode(ir.Array{ir.String("a"), ir.String("b")}) == "sa,sb"
//	Encode(obj{page: 2, sort: "name"})             == "page=n2&sort=sname"
//
// Decoding inspects the whole string before any scalar is decoded: a ","
// anywhere makes it a sequence, otherwise a "=" anywhere makes it a
// mapping, otherwise it is a tagged scalar.
//
// KNOWN ASYMMETRIES:
//
// The format is only a near-inverse. These are part of the contract and
// are relied on by stored URLs:
//   - "bfalse" decodes to true: any non-empty boolean text is true
//   - empty sequences and mappings encode to "" which decodes to ""
//   - a one-element sequence decodes as its only element
//   - delimiters are not escaped between nesting levels, so a composite
//     nested in another composite is misparsed. {a: [1, 2]} encodes to
//     "a=n1,n2" which decodes as [{a: 1}, 2]. Round trips are guaranteed
//     only for flat values whose scalar texts avoid "," "&" and "=".
//
// ModeEscaped (opt-in, incompatible with the default format) escapes
// delimiters per nesting level, terminates sequences with "," and writes
// the empty mapping as "&":
//
//	{ids: [1]}  → "ids=n1%2C"
//	[[], 1]     → "%2C,n1,"
//	{a: {}}     → "a=%26"
//
// Every composite then survives a round trip, whatever its size or
// nesting. The scalar asymmetries above still apply.
//
// FUNCTIONS:
//
// Function values are serialized as their source text. Decoding an "f"
// scalar needs an explicit FuncEvaluator (see WithFuncEvaluator); without
// one, Decode reports ErrFuncUnsupported instead of guessing.
//
// All operations are pure and safe for concurrent use. The codec imposes
// no nesting limit; callers decoding untrusted input bound its size.
package querystring
