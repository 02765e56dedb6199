// Package ir provides the value model shared by the query string codec,
// the query description IR and the CLI.
//
// A Value is one of the scalars Undefined, Null, Bool, Number, String and
// Func, or one of the composites Array and *Object. Value is a sealed
// interface: only types in this package implement it, so type switches in
// the codec are exhaustive.
//
// Key design constraints:
//   - Undefined and Null are distinct scalars; Null is never a mapping
//   - *Object keeps key insertion order, which decides encoded key order
//   - Number is float64; NaN and the infinities are ordinary values
//   - Scalar text renderings follow ECMAScript string conversion, since
//     encoded query strings are shared with browser clients
//
// ir imports nothing internal.
package ir
