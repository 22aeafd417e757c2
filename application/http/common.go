package http

import (
	"bytes"
	"httpclient/application/util/rule"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// [Major, Minor]
type Version [2]uint

var (
	Version10 = Version{1, 0}
	Version11 = Version{1, 1}
)

// ParseVersion parses http version text(e.g. "HTTP/1.1") into [Version].
// A version without minor part (e.g. "HTTP/2") has minor 0.
func ParseVersion(b []byte) (Version, error) {
	prefix := []byte("HTTP/")
	if !bytes.HasPrefix(b, prefix) {
		return Version{}, errors.Errorf("http version prefix not found: %s", b)
	}

	first, second, found := bytes.Cut(b[len(prefix):], []byte{'.'})
	if !found {
		second = []byte{'0'}
	}

	if !isDigits(first) || !isDigits(second) {
		return Version{}, errors.Errorf("http version is not convertable to int: %s", b)
	}

	major, err1 := strconv.ParseUint(string(first), 10, 64)
	minor, err2 := strconv.ParseUint(string(second), 10, 64)
	if err1 != nil || err2 != nil {
		return Version{}, errors.Errorf("http version is not convertable to int: %s", b)
	}

	return Version{uint(major), uint(minor)}, nil
}

func isDigits(b []byte) bool {
	if len(b) == 0 {
		return false
	}
	for _, c := range b {
		if !rule.IsDigit(rune(c)) {
			return false
		}
	}
	return true
}

func (ver Version) Text() []byte {
	buf := bytes.NewBuffer(nil)
	buf.WriteString("HTTP/")
	buf.WriteString(strconv.FormatUint(uint64(ver[0]), 10))
	buf.WriteByte('.')
	buf.WriteString(strconv.FormatUint(uint64(ver[1]), 10))
	return buf.Bytes()
}

func (ver Version) String() string { return string(ver.Text()) }

// Supported reports whether requests can be sent with ver.
func (ver Version) Supported() bool { return ver == Version10 || ver == Version11 }

type Method string

// Reference: https://datatracker.ietf.org/doc/html/rfc9110#section-9.3
const (
	MethodOptions Method = "OPTIONS"
	MethodGet     Method = "GET"
	MethodHead    Method = "HEAD"
	MethodPost    Method = "POST"
	MethodPut     Method = "PUT"
	MethodDelete  Method = "DELETE"
	MethodTrace   Method = "TRACE"
	MethodConnect Method = "CONNECT"
	MethodPatch   Method = "PATCH" // RFC 5789
)

var knownMethods = []Method{
	MethodOptions, MethodGet, MethodHead, MethodPost, MethodPut,
	MethodDelete, MethodTrace, MethodConnect, MethodPatch,
}

// ParseMethod uppercases known methods and keeps custom methods as-is.
// Custom methods must be a valid token.
func ParseMethod(s string) (Method, error) {
	upper := strings.ToUpper(s)
	for _, m := range knownMethods {
		if string(m) == upper {
			return m, nil
		}
	}

	if !rule.IsValidToken(s) {
		return "", InvalidArgument("method %q is not a valid token", s)
	}

	return Method(s), nil
}

func (m Method) String() string { return string(m) }

// Field is a single header field line.
// Reference: https://datatracker.ietf.org/doc/html/rfc9110#section-5
type Field struct {
	Name  string
	Value string
}

// ParseField splits line on the first colon and trims surrounding whitespace from both parts.
func ParseField(line []byte) (Field, error) {
	name, value, found := bytes.Cut(line, []byte{':'})
	if !found {
		return Field{}, errors.Errorf("colon separator not found on field line: %q", line)
	}

	field := Field{
		Name:  rule.TrimWhitespace(string(name)),
		Value: rule.TrimWhitespace(string(value)),
	}
	if field.Name == "" {
		return Field{}, errors.Errorf("field name is empty: %q", line)
	}

	return field, nil
}

func (f Field) Text() []byte {
	buf := bytes.NewBuffer(make([]byte, 0, len(f.Name)+len(f.Value)+2))
	buf.WriteString(f.Name)
	buf.WriteString(": ")
	buf.WriteString(f.Value)
	return buf.Bytes()
}
