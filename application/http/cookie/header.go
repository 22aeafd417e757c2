package cookie

import (
	"httpclient/application/util/rule"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/net/idna"
)

var expiresLayouts = []string{
	time.RFC1123,
	"Mon, 02-Jan-2006 15:04:05 MST",
	time.RFC850,
	time.ANSIC,
	"Mon, 02 Jan 06 15:04:05 MST",
	"Mon 02-Jan-2006 15:04:05 MST",
}

// ParseSetCookie parses a Set-Cookie value into cookies.
// Several cookies folded into one line with commas are split apart,
// keeping the commas of Expires dates.
// Max-Age is resolved against now and wins over Expires.
// Domain is lowercased and converted to its ASCII form, its leading dot removed.
func ParseSetCookie(value string, now time.Time) ([]Cookie, error) {
	cookies := make([]Cookie, 0, 1)
	for _, raw := range splitFolded(value) {
		if rule.TrimOWS(raw) == "" {
			continue
		}
		c, err := parseOne(raw, now)
		if err != nil {
			return nil, err
		}
		cookies = append(cookies, c)
	}
	if len(cookies) == 0 {
		return nil, errors.New("no cookie found")
	}
	return cookies, nil
}

func splitFolded(value string) []string {
	pieces := strings.Split(value, ",")
	out := make([]string, 0, len(pieces))
	for _, piece := range pieces {
		if n := len(out); n > 0 && endsWithBareExpires(out[n-1]) {
			out[n-1] += "," + piece
			continue
		}
		out = append(out, piece)
	}
	return out
}

// endsWithBareExpires reports whether s ends with "expires=<weekday>",
// meaning the comma after it belongs to the date.
func endsWithBareExpires(s string) bool {
	attr := s
	if idx := strings.LastIndexByte(s, ';'); idx >= 0 {
		attr = s[idx+1:]
	} else {
		// The first segment is name=value.
		return false
	}

	name, v, found := strings.Cut(attr, "=")
	if !found || !strings.EqualFold(rule.TrimOWS(name), "expires") {
		return false
	}

	v = rule.TrimOWS(v)
	if len(v) < 3 {
		return false
	}
	for _, c := range v {
		if !rule.IsAlpha(c) {
			return false
		}
	}
	return true
}

func parseOne(raw string, now time.Time) (Cookie, error) {
	parts := strings.Split(raw, ";")

	name, value, found := strings.Cut(parts[0], "=")
	if !found {
		return Cookie{}, errors.Errorf("cookie pair has no '=': %q", parts[0])
	}
	name = rule.TrimOWS(name)
	if name == "" || !rule.IsValidToken(name) {
		return Cookie{}, errors.Errorf("invalid cookie name %q", name)
	}

	c := Cookie{Name: name, Value: trimValue(value)}

	var maxAge *int64
	for _, part := range parts[1:] {
		attr, v, _ := strings.Cut(part, "=")
		attr, v = strings.ToLower(rule.TrimOWS(attr)), rule.TrimOWS(v)

		switch attr {
		case "expires":
			if t, ok := parseExpires(v); ok {
				c.Expires = t
			}
		case "max-age":
			n, err := strconv.ParseInt(v, 10, 64)
			if err == nil {
				maxAge = &n
			}
		case "domain":
			domain, err := canonicalDomain(v)
			if err != nil {
				return Cookie{}, errors.Wrapf(err, "invalid domain %q", v)
			}
			c.Domain = domain
		case "path":
			// Paths not starting with '/' fall back to the default path.
			if strings.HasPrefix(v, "/") {
				c.Path = v
			}
		case "secure":
			c.Secure = true
		case "httponly":
			c.HTTPOnly = true
		}
	}

	if maxAge != nil {
		if *maxAge <= 0 {
			// Earliest representable time, so the cookie is removed.
			c.Expires = time.Unix(0, 0).UTC()
		} else {
			c.Expires = now.Add(time.Duration(*maxAge) * time.Second)
		}
	}

	return c, nil
}

func trimValue(v string) string {
	v = rule.TrimOWS(v)
	if len(v) >= 2 && v[0] == '"' && v[len(v)-1] == '"' {
		v = v[1 : len(v)-1]
	}
	return v
}

func parseExpires(v string) (time.Time, bool) {
	for _, layout := range expiresLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

func canonicalDomain(v string) (string, error) {
	v = strings.TrimPrefix(v, ".")
	if v == "" {
		return "", nil
	}
	ascii, err := idna.Lookup.ToASCII(v)
	if err != nil {
		return "", err
	}
	return strings.ToLower(ascii), nil
}

// ParseCookieHeader reads the name=value pairs of a Cookie field in order.
func ParseCookieHeader(value string) [][2]string {
	var pairs [][2]string
	for _, part := range strings.Split(value, ";") {
		name, v, _ := strings.Cut(part, "=")
		name = rule.TrimOWS(name)
		if name == "" {
			continue
		}
		pairs = append(pairs, [2]string{name, rule.TrimOWS(v)})
	}
	return pairs
}

// Render renders pairs as a Cookie field value.
// If encode is set, values are percent-encoded where they hold
// bytes outside cookie-octet.
// Reference: https://datatracker.ietf.org/doc/html/rfc6265#section-4.2.1
func Render(pairs [][2]string, encode bool) string {
	b := new(strings.Builder)
	for idx, pair := range pairs {
		if idx > 0 {
			b.WriteString("; ")
		}
		b.WriteString(pair[0])
		b.WriteByte('=')
		if encode {
			b.WriteString(EncodeValue(pair[1]))
		} else {
			b.WriteString(pair[1])
		}
	}
	return b.String()
}

// EncodeValue percent-encodes bytes that are not cookie-octets.
func EncodeValue(v string) string {
	const hex = "0123456789ABCDEF"

	b := new(strings.Builder)
	for idx := 0; idx < len(v); idx++ {
		c := v[idx]
		if isCookieOctet(c) && c != '%' {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(hex[c>>4])
		b.WriteByte(hex[c&0x0f])
	}
	return b.String()
}

func isCookieOctet(c byte) bool {
	return c == 0x21 ||
		(0x23 <= c && c <= 0x2b) ||
		(0x2d <= c && c <= 0x3a) ||
		(0x3c <= c && c <= 0x5b) ||
		(0x5d <= c && c <= 0x7e)
}
