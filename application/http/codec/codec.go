// Package codec removes content codings from response bodies that arrive in pieces.
package codec

import (
	"httpclient/application/util/rule"
	"strings"
)

// Codec is a stateful decoder owned by a single response.
// Pieces of the encoded body are given to Filter in order,
// and Close must be called once after the last piece.
type Codec interface {
	// Filter decodes p and returns the decoded bytes available so far.
	// p is not retained after Filter returns.
	Filter(p []byte) ([]byte, error)
	// Close flushes the remaining output and releases resources.
	Close() ([]byte, error)
}

type Coding string

const (
	CodingIdentity Coding = "identity"
	CodingDeflate  Coding = "deflate"
	CodingGzip     Coding = "gzip"
)

// ForEncoding selects a codec from a Content-Encoding value.
// Unknown codings fall back to identity, in which case decoded is false.
func ForEncoding(contentEncoding string) (c Codec, decoded bool) {
	switch ParseCoding(contentEncoding) {
	case CodingGzip:
		return NewGzip(), true
	case CodingDeflate:
		return NewDeflate(), true
	}
	return Identity{}, false
}

// ParseCoding normalizes a Content-Encoding value.
// Reference: https://datatracker.ietf.org/doc/html/rfc9110#section-8.4.1
func ParseCoding(contentEncoding string) Coding {
	switch c := strings.ToLower(rule.TrimOWS(contentEncoding)); c {
	case "gzip", "x-gzip":
		return CodingGzip
	case "deflate":
		return CodingDeflate
	case "", "identity":
		return CodingIdentity
	default:
		return Coding(c)
	}
}

// AcceptEncoding is the Accept-Encoding value listing the supported codings.
const AcceptEncoding = "gzip, deflate"

// Identity passes the body through unchanged.
type Identity struct{}

var _ Codec = Identity{}

func (Identity) Filter(p []byte) ([]byte, error) { return append([]byte(nil), p...), nil }

func (Identity) Close() ([]byte, error) { return nil, nil }
