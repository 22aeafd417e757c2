package http

import (
	"httpclient/application/util/uri"
)

type Request struct {
	Method  Method
	URI     uri.URI
	Version Version
	Headers Headers

	// Body is nil for requests without content.
	Body Entity
}

// NewRequest builds a HTTP/1.1 request.
// It fails with [ErrInvalidArgument] if method is not a token or rawURL is
// not an absolute http(s) URI.
func NewRequest(method, rawURL string, body Entity) (*Request, error) {
	r := &Request{Version: Version11, Body: body}

	if err := r.SetMethod(method); err != nil {
		return nil, err
	}
	if err := r.SetURL(rawURL); err != nil {
		return nil, err
	}

	return r, nil
}

func (r *Request) SetMethod(method string) error {
	m, err := ParseMethod(method)
	if err != nil {
		return err
	}
	r.Method = m
	return nil
}

func (r *Request) SetURL(rawURL string) error {
	u, err := uri.ParseHTTP(rawURL)
	if err != nil {
		return InvalidArgumentWrap(err, "%q is not an absolute http URI", rawURL)
	}
	r.URI = u
	return nil
}

func (r *Request) SetVersion(ver Version) error {
	if !ver.Supported() {
		return InvalidArgument("unsupported version %s", ver)
	}
	r.Version = ver
	return nil
}

// Validate checks the request can be put on the wire.
func (r *Request) Validate() error {
	if _, err := ParseMethod(string(r.Method)); err != nil {
		return err
	}
	if err := uri.ValidateHTTP(r.URI); err != nil {
		return InvalidArgumentWrap(err, "%q is not a valid http URI", r.URI.String())
	}
	if !r.Version.Supported() {
		return InvalidArgument("unsupported version %s", r.Version)
	}
	return r.Headers.Validate()
}

// Clone copies r. The body entity is shared.
func (r *Request) Clone() *Request {
	out := *r
	out.URI = r.URI.Clone()
	out.Headers = r.Headers.Clone()
	return &out
}
