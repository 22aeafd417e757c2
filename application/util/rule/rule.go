package rule

import "strings"

const (
	CR   byte = '\r'
	LF   byte = '\n'
	SP   byte = ' '
	HTAB byte = '\t'
	VT   byte = 0x0B
	FF   byte = 0x0C
)

var (
	OWS         = []byte{SP, HTAB}
	CRLF        = []byte{CR, LF}
	Whitespaces = []byte{SP, HTAB, VT, FF, CR, LF}
)

func IsWhitespace(r rune) bool {
	for _, ws := range Whitespaces {
		if r == rune(ws) {
			return true
		}
	}
	return false
}

// Reference: https://datatracker.ietf.org/doc/html/rfc9110#section-5.6.3
func IsOWS(r rune) bool { return r == rune(SP) || r == rune(HTAB) }

func TrimOWS(s string) string { return strings.TrimFunc(s, IsOWS) }

// TrimWhitespace trims every byte of [Whitespaces] from both ends.
func TrimWhitespace(s string) string { return strings.TrimFunc(s, IsWhitespace) }

func IsAlpha(r rune) bool { return ('a' <= r && r <= 'z') || ('A' <= r && r <= 'Z') }
func IsDigit(r rune) bool { return '0' <= r && r <= '9' }
func IsHex(r rune) bool {
	return IsDigit(r) || ('a' <= r && r <= 'f') || ('A' <= r && r <= 'F')
}

// IsAllHex reports whether s is a non-empty run of hex digits.
func IsAllHex(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if !IsHex(c) {
			return false
		}
	}
	return true
}
