package uri

import (
	"httpclient/application/util/rule"
	"net/netip"
	"strings"

	"github.com/pkg/errors"
)

func isASCII(s string) bool {
	return strings.IndexFunc(s, func(r rune) bool { return r >= 0x80 }) < 0
}

func containsCTL(s string) bool {
	return strings.IndexFunc(s, func(r rune) bool { return r < ' ' || r == 0x7f }) >= 0
}

type charClass uint8

const (
	// Reference: https://datatracker.ietf.org/doc/html/rfc3986#section-2.3
	classUnreserved charClass = 1 << iota
	// Reference: https://datatracker.ietf.org/doc/html/rfc3986#section-2.2
	classSubDelim
	classGenDelim
)

var classes = func() (t [256]charClass) {
	for c := 0; c < 256; c++ {
		if rule.IsAlpha(rune(c)) || rule.IsDigit(rune(c)) {
			t[c] = classUnreserved
		}
	}
	for _, c := range []byte("-._~") {
		t[c] = classUnreserved
	}
	for _, c := range []byte("!$&'()*+,;=") {
		t[c] = classSubDelim
	}
	for _, c := range []byte(":/?#[]@") {
		t[c] = classGenDelim
	}
	return t
}()

func isSubDelim(c byte) bool   { return classes[c] == classSubDelim }
func isUnreserved(c byte) bool { return classes[c] == classUnreserved }
func isReserved(c byte) bool   { return classes[c]&(classSubDelim|classGenDelim) != 0 }

// Reference: https://datatracker.ietf.org/doc/html/rfc3986#section-2.1
func isPercentEncoded(s string) bool {
	return len(s) == 3 && s[0] == '%' && rule.IsHex(rune(s[1])) && rule.IsHex(rune(s[2]))
}

// consistsOf reports whether s holds only unreserved characters, sub-delims,
// bytes of extra and percent-encoded octets.
func consistsOf(s string, extra string) bool {
	for idx := 0; idx < len(s); idx++ {
		c := s[idx]
		switch {
		case classes[c]&(classUnreserved|classSubDelim) != 0:
		case strings.IndexByte(extra, c) >= 0:
		case idx+2 < len(s) && isPercentEncoded(s[idx:idx+3]):
			idx += 2
		default:
			return false
		}
	}
	return true
}

// Reference: https://datatracker.ietf.org/doc/html/rfc3986#section-3.3
func isAllPchar(s string) bool { return consistsOf(s, ":@") }

// Reference: https://datatracker.ietf.org/doc/html/rfc3986#section-3.2.1
func isValidUserInfo(s string) bool { return consistsOf(s, ":") }

// Reference: https://datatracker.ietf.org/doc/html/rfc3986#section-3.2.2
func isValidRegName(s string) bool { return consistsOf(s, "") }

// Reference: https://datatracker.ietf.org/doc/html/rfc3986#section-3.4
func isQueryFragValid(s string) bool { return consistsOf(s, ":@/?") }

func assertValidScheme(scheme string) error {
	if len(scheme) == 0 {
		return errors.New("scheme is empty")
	}

	if !rule.IsAlpha(rune(scheme[0])) {
		return errors.New("scheme doesn't start with ALPHA")
	}

	for idx := 1; idx < len(scheme); idx++ {
		c := scheme[idx]
		switch {
		case rule.IsAlpha(rune(c)) || rule.IsDigit(rune(c)):
		case c == '+' || c == '-' || c == '.':
		default:
			return errors.New("scheme contains invalid byte")
		}
	}

	return nil
}

func assertValidHost(host string) error {
	if host == "" {
		// Empty value for reg-name is valid.
		// Reference: https://datatracker.ietf.org/doc/html/rfc3986#section-3.2.2
		return nil
	}
	if len(host) > 255 {
		// Length is limited to 255.
		return errors.Errorf("host length exceeds limit(255): %d", len(host))
	}

	first, last := 0, len(host)-1
	if host[first] == '[' && host[last] == ']' {
		// This is IP Literal.
		host = host[first+1 : last]
		if addr, err := netip.ParseAddr(host); err == nil && addr.Is6() {
			return nil
		}
		if ok := isIPvFuture(host); ok {
			return nil
		}

		return errors.New("host is expected to be IP Literal, but was malformed")
	}

	// IPv4address is a subset of reg-name.
	if ok := isValidRegName(host); ok {
		return nil
	}

	return errors.New("host is neither ipv4 addr nor valid reg-name")
}



func isIPvFuture(s string) bool {
	if len(s) < 4 {
		return false
	}

	// v8. vA. vF.
	if !(s[0] == 'v' && rule.IsHex(rune(s[1])) && s[2] == '.') {
		return false
	}

	for idx := 3; idx < len(s); idx++ {
		c := s[idx]
		if !(isUnreserved(c) || isSubDelim(c) || c == ':') {
			return false
		}
	}

	return true
}

func assertValidPath(path string, hasAuthority bool, isRelative bool) error {
	if hasAuthority {
		if !(path == "" || path[0] == '/') {
			return errors.New(
				"URI with authority must either be empty or start with '/'",
			)
		}
	} else if strings.HasPrefix(path, "//") {
		return errors.New("URI without authority should not start with '//'")
	}

	segments := strings.Split(path, "/")
	if isRelative && strings.ContainsRune(segments[0], ':') {
		return errors.New(
			"relative URI reference's first segment should not contain ':'",
		)
	}

	for _, segment := range segments {
		if !isAllPchar(segment) {
			return errors.New("path segment should be pchar")
		}
	}

	return nil
}


// Reference: https://datatracker.ietf.org/doc/html/rfc3986#section-5.2.4
func removeDotSegments(path string) string {
	out := make([]string, 0, strings.Count(path, "/"))
	pop := func() {
		if len(out) > 0 {
			out = out[:len(out)-1]
		}
	}

	for len(path) > 0 {
		var found bool
		// A. "../" or "./" prefix is removed.
		if path, found = strings.CutPrefix(path, "../"); found {
			continue
		}
		if path, found = strings.CutPrefix(path, "./"); found {
			continue
		}

		// B. "/./" or "/." is replaced with "/".
		if path, found = strings.CutPrefix(path, "/./"); found {
			path = "/" + path
			continue
		} else if path == "/." {
			path = "/"
			continue
		}

		// C. "/../" or "/.." is replaced with "/" and the last output segment is dropped.
		if path, found = strings.CutPrefix(path, "/../"); found {
			pop()
			path = "/" + path
			continue
		} else if path == "/.." {
			pop()
			path = "/"
			continue
		}

		// D. "." or ".." alone is removed.
		if path == ".." || path == "." {
			break
		}

		// E. The first segment moves to the output.
		idx := strings.IndexByte(path[1:], '/') + 1
		if idx == 0 {
			idx = len(path)
		}
		out = append(out, path[:idx])
		path = path[idx:]
	}

	return strings.Join(out, "")
}
