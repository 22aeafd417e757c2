package http

import (
	"bufio"
	"httpclient/application/util/rule"
	"io"
	"strings"

	"github.com/pkg/errors"
)

// RequestEncoder writes requests in HTTP/1.x wire format.
// Written bytes are buffered until [RequestEncoder.Flush].
type RequestEncoder struct {
	bw *bufio.Writer
}

var _ io.Writer = (*RequestEncoder)(nil)

func NewRequestEncoder(w io.Writer) *RequestEncoder {
	return &RequestEncoder{bw: bufio.NewWriter(w)}
}

// EncodeHead writes the request line, the header fields and the empty line.
// Reference: https://datatracker.ietf.org/doc/html/rfc9112#section-3
func (re *RequestEncoder) EncodeHead(req *Request) error {
	if !rule.IsValidToken(string(req.Method)) {
		return InvalidArgument("method %q is not a valid token", req.Method)
	}

	target := req.URI.RequestTarget()
	if strings.ContainsAny(target, " \r\n") {
		return InvalidArgument("request target %q contains whitespace", target)
	}

	if err := req.Headers.Validate(); err != nil {
		return err
	}

	line := string(req.Method) + " " + target + " " + req.Version.String()
	if err := re.writeLine([]byte(line)); err != nil {
		return errors.Wrap(err, "writing request line")
	}

	for _, field := range req.Headers.fields {
		if err := re.writeLine(field.Text()); err != nil {
			return errors.Wrap(err, "writing field")
		}
	}

	// Write a empty line as all the headers are written.
	if err := re.writeLine(nil); err != nil {
		return errors.Wrap(err, "writing line terminator")
	}

	return nil
}

func (re *RequestEncoder) writeLine(line []byte) error {
	if _, err := re.bw.Write(line); err != nil {
		return err
	}
	_, err := re.bw.Write(rule.CRLF)
	return err
}

// Write writes body bytes after the head.
func (re *RequestEncoder) Write(p []byte) (int, error) { return re.bw.Write(p) }

func (re *RequestEncoder) Flush() error { return re.bw.Flush() }
