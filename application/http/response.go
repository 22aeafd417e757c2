package http

import (
	"bytes"
	"httpclient/application/http/status"
	"io"

	"github.com/pkg/errors"
)

type Response struct {
	Version      Version
	StatusCode   uint
	ReasonPhrase string
	Headers      Headers

	// Body holds the decoded content.
	Body []byte
}

// IsRedirect reports whether the status is in the 3xx class.
func (r *Response) IsRedirect() bool { return status.IsRedirect(r.StatusCode) }

func (r *Response) Clone() *Response {
	out := *r
	out.Headers = r.Headers.Clone()
	out.Body = bytes.Clone(r.Body)
	return &out
}

// ParseResponse parses a complete raw response.
// Everything after the head is taken as the body, with no framing applied.
func ParseResponse(raw []byte) (*Response, error) {
	dec := NewResponseDecoder(bytes.NewReader(raw), DefaultDecodeOptions)

	res := &Response{}
	if err := dec.DecodeHead(res); err != nil {
		return nil, errors.Wrap(err, "decoding response head")
	}

	body, err := io.ReadAll(dec.Reader())
	if err != nil {
		return nil, errors.Wrap(err, "reading body")
	}
	res.Body = body

	return res, nil
}
