// Package cookie keeps HTTP state between requests.
//
// Reference: https://datatracker.ietf.org/doc/html/rfc6265
package cookie

import (
	"strings"
	"time"
)

type Cookie struct {
	Name   string
	Value  string
	Domain string
	Path   string
	// Expires is zero for session cookies.
	Expires  time.Time
	Secure   bool
	HTTPOnly bool
}

// New creates a session cookie with HTTPOnly set.
func New(name, value, domain string) Cookie {
	return Cookie{
		Name:     name,
		Value:    value,
		Domain:   domain,
		HTTPOnly: true,
	}
}

func (c Cookie) IsSession() bool { return c.Expires.IsZero() }

// IsExpired reports whether now is at or after the expiry.
// Session cookies never expire.
func (c Cookie) IsExpired(now time.Time) bool {
	return !c.IsSession() && !now.Before(c.Expires)
}

type key struct {
	name   string
	domain string
	path   string
}

func (c Cookie) key() key { return key{name: c.Name, domain: c.Domain, path: c.Path} }

// DomainMatch reports whether host is domain or one of its subdomains.
// Reference: https://datatracker.ietf.org/doc/html/rfc6265#section-5.1.3
func DomainMatch(host, domain string) bool {
	if domain == "" {
		return false
	}
	return host == domain || strings.HasSuffix(host, "."+domain)
}

// PathMatch reports whether cookiePath covers requestPath.
// A cookie path of "/" covers everything.
func PathMatch(requestPath, cookiePath string) bool {
	if cookiePath == "/" {
		cookiePath = ""
	}
	return requestPath == cookiePath || strings.HasPrefix(requestPath, cookiePath+"/")
}
