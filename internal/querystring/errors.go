package querystring

import (
	"errors"
	"fmt"
)

var (
	// ErrFuncUnsupported is reported when an "f" scalar is decoded by a
	// codec that has no FuncEvaluator.
	ErrFuncUnsupported = errors.New("function values are not supported without an evaluator")

	// ErrMalformedEscape is reported when scalar text is not valid
	// percent-encoding or does not decode to UTF-8.
	ErrMalformedEscape = errors.New("malformed percent-encoding")
)

// DecodeError reports the scalar segment that could not be decoded.
type DecodeError struct {
	Segment string // Raw segment, tag included
	Err     error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %q: %v", e.Segment, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// IsFuncUnsupported reports whether err comes from decoding a function
// value without an evaluator. Uses errors.Is to handle wrapped errors.
func IsFuncUnsupported(err error) bool {
	return errors.Is(err, ErrFuncUnsupported)
}
