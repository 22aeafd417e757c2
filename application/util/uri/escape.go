package uri

import (
	"strings"
)

func hex(c byte) (h [2]byte) {
	const hexSet = "0123456789ABCDEF"
	h[0] = hexSet[c>>4]
	h[1] = hexSet[c&0xF]
	return
}

func unhex(h [2]byte) (c byte) {
	return (hexToNum(h[0]) << 4) | hexToNum(h[1])
}

func hexToNum(h byte) byte {
	switch {
	case '0' <= h && h <= '9':
		return h - '0'
	case 'a' <= h && h <= 'f':
		return h - 'a' + 10
	case 'A' <= h && h <= 'F':
		return h - 'A' + 10
	}
	return 0
}

// normalizePercentEncoding uppercases percent-encoded octets and decodes
// those that stand for unreserved characters.
// Reference: https://datatracker.ietf.org/doc/html/rfc3986#section-6.2.2.2
func normalizePercentEncoding(s string) string {
	if !strings.Contains(s, "%") {
		return s
	}

	b := new(strings.Builder)
	b.Grow(len(s))

	for idx := 0; idx < len(s); idx++ {
		c := s[idx]
		if c == '%' && idx+2 < len(s) && isPercentEncoded(s[idx:idx+3]) {
			decoded := unhex([2]byte{s[idx+1], s[idx+2]})
			if isUnreserved(decoded) {
				b.WriteByte(decoded)
			} else {
				h := hex(decoded)
				b.Write([]byte{'%', h[0], h[1]})
			}
			idx += 2
			continue
		}
		b.WriteByte(c)
	}

	return b.String()
}

// Sanitize percent-encodes every byte that can never appear in a URI,
// such as spaces and non-ASCII bytes, leaving the rest untouched.
// Servers are known to send such bytes in Location fields.
func Sanitize(raw string) string {
	b := new(strings.Builder)
	b.Grow(len(raw))

	for idx := 0; idx < len(raw); idx++ {
		c := raw[idx]
		switch {
		case c == '%' && idx+2 < len(raw) && isPercentEncoded(raw[idx:idx+3]):
			b.WriteByte(c)
		case c == '%' || c <= ' ' || c >= 0x7f:
			h := hex(c)
			b.Write([]byte{'%', h[0], h[1]})
		case isUnreserved(c) || isReserved(c):
			b.WriteByte(c)
		default:
			// '"', '<', '>', '\', '^', '`', '{', '|', '}'
			h := hex(c)
			b.Write([]byte{'%', h[0], h[1]})
		}
	}

	return b.String()
}
