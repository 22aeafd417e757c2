// Package entity provides request body producers.
package entity

import (
	"httpclient/application/http"
	"io"

	"github.com/pkg/errors"
)

// ReadSize is the size of a single piece returned by streaming entities.
const ReadSize = 4096

// String is a body held in memory.
type String struct {
	data []byte
	read bool
}

var _ http.Entity = (*String)(nil)

func NewString(s string) *String { return &String{data: []byte(s)} }

func NewBytes(b []byte) *String { return &String{data: b} }

func (s *String) Read() ([]byte, error) {
	if s.read || len(s.data) == 0 {
		return nil, io.EOF
	}
	s.read = true
	return s.data, nil
}

func (s *String) Len() int64 { return int64(len(s.data)) }

func (s *String) Rewind() error {
	s.read = false
	return nil
}

// Stream is a body of unknown length read from r.
// It is sent with the chunked transfer coding.
type Stream struct {
	r   io.Reader
	buf []byte

	started bool
}

var _ http.Entity = (*Stream)(nil)

func NewStream(r io.Reader) *Stream {
	return &Stream{r: r, buf: make([]byte, ReadSize)}
}

func (s *Stream) Read() ([]byte, error) {
	s.started = true

	n, err := s.r.Read(s.buf)
	if n > 0 {
		return s.buf[:n], nil
	}
	if err == nil {
		return nil, nil
	}
	return nil, err
}

func (s *Stream) Len() int64 { return -1 }

// Rewind seeks back to the start when the reader is a [io.Seeker].
// A stream that was never read is always rewindable.
func (s *Stream) Rewind() error {
	if !s.started {
		return nil
	}

	seeker, ok := s.r.(io.Seeker)
	if !ok {
		return errors.New("stream is not rewindable")
	}
	if _, err := seeker.Seek(0, io.SeekStart); err != nil {
		return errors.Wrap(err, "seeking to start")
	}
	s.started = false
	return nil
}

// ReadAll drains e from its first byte.
func ReadAll(e http.Entity) ([]byte, error) {
	if err := e.Rewind(); err != nil {
		return nil, err
	}

	var out []byte
	for {
		p, err := e.Read()
		out = append(out, p...)
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return out, err
		}
	}
}
