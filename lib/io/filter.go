package iolib

import (
	"bytes"
	"io"

	"github.com/pkg/errors"
)

// Filter transforms a stream piece by piece.
// Close flushes whatever the filter still holds.
type Filter interface {
	Filter(p []byte) ([]byte, error)
	Close() ([]byte, error)
}

// FilterReader reads from src and hands every piece through a [Filter].
type FilterReader struct {
	src    io.Reader
	filter Filter

	buf  bytes.Buffer
	tmp  []byte
	done bool
}

var _ io.Reader = (*FilterReader)(nil)

func NewFilterReader(src io.Reader, filter Filter) *FilterReader {
	return &FilterReader{
		src:    src,
		filter: filter,
		tmp:    make([]byte, 4096),
	}
}

func (fr *FilterReader) Read(p []byte) (n int, err error) {
	for fr.buf.Len() == 0 {
		if fr.done {
			return 0, io.EOF
		}
		if err := fr.fill(); err != nil {
			return 0, err
		}
	}

	return fr.buf.Read(p)
}

func (fr *FilterReader) fill() error {
	n, err := fr.src.Read(fr.tmp)
	if err != nil && err != io.EOF {
		return errors.Wrap(err, "reading from source")
	}

	if n > 0 {
		out, ferr := fr.filter.Filter(fr.tmp[:n])
		if ferr != nil {
			return ferr
		}
		fr.buf.Write(out)
	}

	if err == io.EOF {
		fr.done = true
		out, cerr := fr.filter.Close()
		if cerr != nil {
			return cerr
		}
		fr.buf.Write(out)
	}

	return nil
}
