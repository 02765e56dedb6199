package ir

// IsSpace reports whether r belongs to the ECMAScript whitespace class
// (WhiteSpace plus LineTerminator, the set matched by \s). It differs
// from unicode.IsSpace on U+0085, which it excludes, and U+FEFF, which it
// includes.
func IsSpace(r rune) bool {
	switch r {
	case '\t', '\n', '\v', '\f', '\r', ' ',
		0x00A0, 0x1680, 0x2028, 0x2029, 0x202F, 0x205F, 0x3000, 0xFEFF:
		return true
	}
	return 0x2000 <= r && r <= 0x200A
}
