package http

import (
	"bufio"
	"bytes"
	"httpclient/application/util/rule"
	"io"
	"strconv"

	"github.com/pkg/errors"
)

type DecodeOptions struct {
	// AllowSoleLF specifies wheter a single LF character should be recognized as a valid line terminator.
	//
	// Reference: https://datatracker.ietf.org/doc/html/rfc9112#section-2.2-3
	AllowSoleLF bool

	// MaxLineLength limits the status line and each field line, terminator excluded.
	// Zero means no limit.
	MaxLineLength uint

	// MaxFieldCount limits the number of header fields. Zero means no limit.
	MaxFieldCount uint
}

var DefaultDecodeOptions = DecodeOptions{
	AllowSoleLF:   true,
	MaxLineLength: 64 << 10,
	MaxFieldCount: 1000,
}

var (
	ErrLineTooLong       = errors.New("line length exceeds limit")
	ErrMissingCRBeforeLF = errors.New("missing CR before LF")
)

// ReadLine reads a line and cuts its terminator.
// Lines longer than limit fail with [ErrLineTooLong]; zero limit means no limit.
func ReadLine(br *bufio.Reader, limit uint, allowSoleLF bool) ([]byte, error) {
	var line []byte
	for {
		frag, err := br.ReadSlice(rule.LF)
		line = append(line, frag...)

		if limit > 0 && uint(len(line)) > limit+2 {
			return nil, ErrLineTooLong
		}

		if err == nil {
			break
		}
		if errors.Is(err, bufio.ErrBufferFull) {
			continue
		}
		if errors.Is(err, io.EOF) && len(line) > 0 {
			return nil, io.ErrUnexpectedEOF
		}
		return nil, err
	}

	line = line[:len(line)-1] // Remove LF.

	if len(line) > 0 && line[len(line)-1] == rule.CR {
		line = line[:len(line)-1]
	} else if !allowSoleLF {
		return nil, ErrMissingCRBeforeLF
	}

	if limit > 0 && uint(len(line)) > limit {
		return nil, ErrLineTooLong
	}

	return line, nil
}

type ResponseDecoder struct {
	br   *bufio.Reader
	opts DecodeOptions
}

func NewResponseDecoder(r io.Reader, opts DecodeOptions) *ResponseDecoder {
	return &ResponseDecoder{br: bufio.NewReader(r), opts: opts}
}

// Reader returns the buffered reader positioned after the decoded head.
func (rd *ResponseDecoder) Reader() *bufio.Reader { return rd.br }

// DecodeHead decodes the status line and header fields into res.
// Field lines without a colon are skipped.
// I/O failures before the status line is complete are returned as-is so the
// caller can classify them.
func (rd *ResponseDecoder) DecodeHead(res *Response) error {
	line, err := ReadLine(rd.br, rd.opts.MaxLineLength, rd.opts.AllowSoleLF)
	if err != nil {
		if errors.Is(err, ErrLineTooLong) || errors.Is(err, ErrMissingCRBeforeLF) {
			return ProtocolErrorWrap(err, "reading status line")
		}
		return errors.Wrap(err, "reading status line")
	}

	ver, code, reason, err := ParseStatusLine(line)
	if err != nil {
		return err
	}

	headers, err := rd.decodeHeaders()
	if err != nil {
		return err
	}

	res.Version = ver
	res.StatusCode = code
	res.ReasonPhrase = reason
	res.Headers = headers

	return nil
}

func (rd *ResponseDecoder) decodeHeaders() (Headers, error) {
	headers := Headers{}
	for {
		line, err := ReadLine(rd.br, rd.opts.MaxLineLength, rd.opts.AllowSoleLF)
		if err != nil {
			switch {
			case errors.Is(err, ErrLineTooLong), errors.Is(err, ErrMissingCRBeforeLF):
				return Headers{}, ProtocolErrorWrap(err, "reading field line")
			case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
				return Headers{}, ProtocolError("unexpected end of stream while reading headers")
			}
			return Headers{}, errors.Wrap(err, "reading field line")
		}

		if len(line) == 0 {
			// An empty line. This means that there are no more headers.
			return headers, nil
		}

		field, err := ParseField(line)
		if err != nil {
			// A single malformed line does not fail the whole response.
			continue
		}

		if limit := rd.opts.MaxFieldCount; limit > 0 && uint(headers.Len()) >= limit {
			return Headers{}, ProtocolError("header field count exceeds limit(%d)", limit)
		}
		headers.Add(field.Name, field.Value)
	}
}

// ParseStatusLine parses "HTTP/<version> <3-digit-code> <reason>".
// The reason phrase may be empty.
// Reference: https://datatracker.ietf.org/doc/html/rfc9112#section-4
func ParseStatusLine(line []byte) (ver Version, code uint, reason string, err error) {
	malformed := func() error {
		return ProtocolError("response status line is malformed: %q", line)
	}

	parts := bytes.SplitN(line, []byte{rule.SP}, 3)
	if len(parts) < 2 {
		return Version{}, 0, "", malformed()
	}

	ver, verr := ParseVersion(parts[0])
	if verr != nil {
		return Version{}, 0, "", malformed()
	}

	if len(parts[1]) != 3 || !isDigits(parts[1]) {
		return Version{}, 0, "", malformed()
	}
	n, _ := strconv.ParseUint(string(parts[1]), 10, 16)

	if len(parts) == 3 {
		reason = string(parts[2])
	}

	return ver, uint(n), reason, nil
}
