package ir

import "errors"

// ErrNotCallable is returned by Func.Invoke when the func only carries
// source text.
var ErrNotCallable = errors.New("func has no call implementation")

// ErrUnsupportedType is returned by FromGo for Go values with no query
// value counterpart.
var ErrUnsupportedType = errors.New("unsupported type")
