package ir

import (
	"errors"
	"math"
	"math/big"
	"regexp"
	"strconv"
	"strings"
)

// Text renders n the way ECMAScript Number#toString does: shortest
// round-tripping digits, plain notation for exponents in [-6, 21),
// scientific notation otherwise, "NaN", "Infinity", and "0" for -0.
func (n Number) Text() string {
	return FormatNumber(float64(n))
}

// FormatNumber is Number(f).Text().
func FormatNumber(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case f == 0:
		return "0"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	case f < 0:
		return "-" + FormatNumber(-f)
	}

	// 'e' with precision -1 yields the shortest digits: d[.ddd]e±XX
	sci := strconv.FormatFloat(f, 'e', -1, 64)
	mant, exp, _ := strings.Cut(sci, "e")
	digits := strings.Replace(mant, ".", "", 1)
	e, _ := strconv.Atoi(exp)
	k := len(digits)
	pt := e + 1 // position of the decimal point relative to the digits

	var b strings.Builder
	switch {
	case k <= pt && pt <= 21:
		b.WriteString(digits)
		b.WriteString(strings.Repeat("0", pt-k))
	case 0 < pt && pt <= 21:
		b.WriteString(digits[:pt])
		b.WriteByte('.')
		b.WriteString(digits[pt:])
	case -6 < pt && pt <= 0:
		b.WriteString("0.")
		b.WriteString(strings.Repeat("0", -pt))
		b.WriteString(digits)
	default:
		b.WriteByte(digits[0])
		if k > 1 {
			b.WriteByte('.')
			b.WriteString(digits[1:])
		}
		b.WriteByte('e')
		if pt-1 >= 0 {
			b.WriteByte('+')
		}
		b.WriteString(strconv.Itoa(pt - 1))
	}
	return b.String()
}

var decimalLiteral = regexp.MustCompile(`^[+-]?(?:[0-9]+\.?[0-9]*|\.[0-9]+)(?:[eE][+-]?[0-9]+)?$`)

// ParseNumber coerces text to a Number the way the ECMAScript Number()
// conversion does. It never fails: text that is not a numeric literal
// yields NaN. Surrounding whitespace is ignored and blank text is 0.
func ParseNumber(s string) Number {
	s = strings.TrimFunc(s, IsSpace)
	switch s {
	case "":
		return 0
	case "Infinity", "+Infinity":
		return Number(math.Inf(1))
	case "-Infinity":
		return Number(math.Inf(-1))
	}

	if len(s) > 2 && s[0] == '0' {
		switch s[1] {
		case 'x', 'X':
			return parseRadix(s[2:], 16)
		case 'o', 'O':
			return parseRadix(s[2:], 8)
		case 'b', 'B':
			return parseRadix(s[2:], 2)
		}
	}

	if !decimalLiteral.MatchString(s) {
		return Number(math.NaN())
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return Number(math.NaN())
	}
	// Out-of-range literals saturate to ±Inf or 0, matching ParseFloat.
	return Number(f)
}

// parseRadix parses an unsigned integer literal without prefix. Values
// beyond 2^64 are rounded to the nearest float64.
func parseRadix(digits string, base int) Number {
	for _, r := range digits {
		d, ok := digitValue(r)
		if !ok || d >= base {
			return Number(math.NaN())
		}
	}
	if u, err := strconv.ParseUint(digits, base, 64); err == nil {
		return Number(float64(u))
	}
	i, ok := new(big.Int).SetString(digits, base)
	if !ok {
		return Number(math.NaN())
	}
	f, _ := new(big.Float).SetInt(i).Float64()
	return Number(f)
}

func digitValue(r rune) (int, bool) {
	switch {
	case '0' <= r && r <= '9':
		return int(r - '0'), true
	case 'a' <= r && r <= 'f':
		return int(r-'a') + 10, true
	case 'A' <= r && r <= 'F':
		return int(r-'A') + 10, true
	}
	return 0, false
}
