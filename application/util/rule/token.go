package rule

import (
	"strings"
)

// Reference: https://datatracker.ietf.org/doc/html/rfc9110#section-5.6.2-2
func IsValidToken(s string) bool {
	if len(s) == 0 {
		return false
	}
	for _, c := range s {
		if !IsTokenChar(c) {
			return false
		}
	}

	return true
}

func IsTokenChar(c rune) bool {
	if IsAlpha(c) || IsDigit(c) {
		return true
	}

	switch c {
	case '!', '#', '$', '%', '&', '\'', '*', '+',
		'-', '.', '^', '_', '`', '|', '~':
		return true
	}

	return false
}

// Unquote unquotes s if it was quoted with double quotes.
// Quoted-pair inside the quotes is un-escaped.
// Reference: https://datatracker.ietf.org/doc/html/rfc9110#section-5.6.4
func Unquote(s string) string {
	if len(s) < 2 || s[0] != '"' || s[len(s)-1] != '"' {
		return s
	}
	s = s[1 : len(s)-1]

	b := new(strings.Builder)
	b.Grow(len(s))
	for idx := 0; idx < len(s); idx++ {
		c := s[idx]
		if c == '\\' && idx+1 < len(s) {
			idx++
			c = s[idx]
		}
		b.WriteByte(c)
	}

	return b.String()
}

// Quote wraps s with double quotes, escaping '"' and '\'.
func Quote(s string) string {
	b := new(strings.Builder)
	b.Grow(len(s) + 2)
	b.WriteByte('"')
	for idx := 0; idx < len(s); idx++ {
		c := s[idx]
		if c == '"' || c == '\\' {
			b.WriteByte('\\')
		}
		b.WriteByte(c)
	}
	b.WriteByte('"')

	return b.String()
}
