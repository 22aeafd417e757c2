package uri

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

const (
	SchemeHTTP  = "http"
	SchemeHTTPS = "https"
)

func IsHTTPScheme(scheme string) bool {
	return scheme == SchemeHTTP || scheme == SchemeHTTPS
}

// DefaultPort returns the well-known port of scheme, or 0 if unknown.
func DefaultPort(scheme string) uint16 {
	switch scheme {
	case SchemeHTTP:
		return 80
	case SchemeHTTPS:
		return 443
	}
	return 0
}

// ValidateHTTP checks u is an absolute, valid http(s) URI with a host.
// Reference: https://datatracker.ietf.org/doc/html/rfc9110#section-4.2
func ValidateHTTP(u URI) error {
	if !IsHTTPScheme(u.Scheme) {
		return errors.Errorf("scheme %q is not http or https", u.Scheme)
	}
	if u.Authority == nil || u.Authority.Host == "" {
		return errors.New("http URI must have a host")
	}
	return u.Validate()
}

// ParseHTTP parses raw and requires it to be an absolute http(s) URI.
func ParseHTTP(raw string) (URI, error) {
	u, err := Parse(raw)
	if err != nil {
		return URI{}, err
	}
	if err := ValidateHTTP(u); err != nil {
		return URI{}, err
	}
	return u, nil
}

func (u URI) IsSecure() bool { return u.Scheme == SchemeHTTPS }

// Hostname returns the host without IP literal brackets.
func (u URI) Hostname() string {
	if u.Authority == nil {
		return ""
	}
	return strings.TrimSuffix(strings.TrimPrefix(u.Authority.Host, "["), "]")
}

// Port returns the explicit port, or the scheme default.
func (u URI) Port() uint16 {
	if u.Authority != nil && u.Authority.Port != nil {
		return *u.Authority.Port
	}
	return DefaultPort(u.Scheme)
}

// HostPort returns "host:port" suitable for dialing.
func (u URI) HostPort() string {
	host := ""
	if u.Authority != nil {
		host = u.Authority.Host
	}
	return host + ":" + strconv.FormatUint(uint64(u.Port()), 10)
}

// HostHeader returns the Host field value, which carries the port only when
// it differs from the scheme default.
// Reference: https://datatracker.ietf.org/doc/html/rfc9110#section-7.2
func (u URI) HostHeader() string {
	if u.Authority == nil {
		return ""
	}
	if u.Authority.Port == nil || *u.Authority.Port == DefaultPort(u.Scheme) {
		return u.Authority.Host
	}
	return u.Authority.Host + ":" + strconv.FormatUint(uint64(*u.Authority.Port), 10)
}

// RequestTarget returns the origin-form: path and query, "/" when path is empty.
// Reference: https://datatracker.ietf.org/doc/html/rfc9112#section-3.2.1
func (u URI) RequestTarget() string {
	path := u.Path
	if path == "" {
		path = "/"
	}
	if u.Query != nil {
		return path + "?" + *u.Query
	}
	return path
}
