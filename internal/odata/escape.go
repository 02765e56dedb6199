package odata

import (
	"strings"
	"unicode/utf8"

	"github.com/roach88/querycodec/internal/ir"
)

// literalEscaper applies the substitutions in order. Quote doubling and
// "%" come first so the "%XX" sequences emitted later are never
// escaped again.
var literalEscaper = []struct {
	old, new string
}{
	{"'", "''"},
	{"%", "%25"},
	{"+", "%2B"},
	{"/", "%2F"},
	{"?", "%3F"},
	{"#", "%23"},
	{"&", "%26"},
	{"[", "%5B"},
	{"]", "%5D"},
}

// EscapeLiteral prepares s for use inside a single-quoted OData string
// literal: quotes are doubled, characters that would break the URL of a
// hand-built filter are percent-encoded, and every whitespace character
// becomes %20.
//
// It is not a sanitizer. The result is only meaningful between quotes.
func EscapeLiteral(s string) string {
	for _, sub := range literalEscaper {
		s = strings.ReplaceAll(s, sub.old, sub.new)
	}
	return replaceSpace(s)
}

func replaceSpace(s string) string {
	if strings.IndexFunc(s, ir.IsSpace) < 0 {
		return s
	}
	var b strings.Builder
	b.Grow(len(s) + 8)
	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		if ir.IsSpace(r) {
			b.WriteString("%20")
		} else {
			b.WriteString(s[i : i+size])
		}
		i += size
	}
	return b.String()
}

// Quote escapes s and wraps it in single quotes.
func Quote(s string) string {
	return "'" + EscapeLiteral(s) + "'"
}
