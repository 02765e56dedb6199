package querystring

import (
	"fmt"
	"net/url"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
)

const upperhex = "0123456789ABCDEF"

// EscapeComponent percent-encodes s as a URI component: every byte except
// ASCII letters, digits and - _ . ! ~ * ' ( ) becomes %XX of its UTF-8
// encoding. Ill-formed UTF-8 is first replaced with U+FFFD, so every
// string has an encoding.
//
// This is the escaping browsers apply with encodeURIComponent. It keeps
// more characters literal than url.QueryEscape and never turns spaces
// into "+", which encoded scalars shared with browser clients rely on.
func EscapeComponent(s string) string {
	if !utf8.ValidString(s) {
		s, _, _ = transform.String(runes.ReplaceIllFormed(), s)
	}

	n := 0
	for i := 0; i < len(s); i++ {
		if !unreserved(s[i]) {
			n++
		}
	}
	if n == 0 {
		return s
	}

	var b strings.Builder
	b.Grow(len(s) + 2*n)
	for i := 0; i < len(s); i++ {
		c := s[i]
		if unreserved(c) {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(upperhex[c>>4])
		b.WriteByte(upperhex[c&15])
	}
	return b.String()
}

// UnescapeComponent reverses EscapeComponent. Every %XX sequence is
// decoded, "+" stays a plus, and the result must be well-formed UTF-8.
// Malformed input fails with ErrMalformedEscape.
func UnescapeComponent(s string) (string, error) {
	if strings.IndexByte(s, '%') < 0 {
		return s, nil
	}
	out, err := url.PathUnescape(s)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformedEscape, err)
	}
	if !utf8.ValidString(out) {
		return "", fmt.Errorf("%w: %q is not valid UTF-8 once decoded", ErrMalformedEscape, s)
	}
	return out, nil
}

func unreserved(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return true
	}
	switch c {
	case '-', '_', '.', '!', '~', '*', '\'', '(', ')':
		return true
	}
	return false
}
