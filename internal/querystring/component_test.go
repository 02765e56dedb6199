package querystring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEscapeComponent(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"", ""},
		{"plain", "plain"},
		{"-_.!~*'()", "-_.!~*'()"},
		{"a b+c/d", "a%20b%2Bc%2Fd"},
		{"?#[]@", "%3F%23%5B%5D%40"},
		{"$&+,;=:", "%24%26%2B%2C%3B%3D%3A"},
		{"100%", "100%25"},
		{"é", "%C3%A9"},
		{"日本", "%E6%97%A5%E6%9C%AC"},
		{"\U0001F600", "%F0%9F%98%80"},
		{"a\xffb", "a%EF%BF%BDb"},
		{"\n\t", "%0A%09"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, EscapeComponent(tt.input))
		})
	}
}

func TestUnescapeComponent(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"", ""},
		{"plain", "plain"},
		{"a+b", "a+b"},
		{"a%20b", "a b"},
		{"%c3%a9", "é"},
		{"%F0%9F%98%80", "\U0001F600"},
		{"100%25", "100%"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			out, err := UnescapeComponent(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, out)
		})
	}
}

func TestUnescapeComponentMalformed(t *testing.T) {
	for _, in := range []string{"%", "%4", "%GG", "a%zzb", "%FF", "%C3%28"} {
		t.Run(in, func(t *testing.T) {
			_, err := UnescapeComponent(in)
			require.ErrorIs(t, err, ErrMalformedEscape)
		})
	}
}

func TestComponentRoundTrip(t *testing.T) {
	for _, s := range []string{"", "x", "a,b&c=d%", "O'Brien (sr.)", "ça va?", "tab\there"} {
		out, err := UnescapeComponent(EscapeComponent(s))
		require.NoError(t, err)
		assert.Equal(t, s, out)
	}
}
