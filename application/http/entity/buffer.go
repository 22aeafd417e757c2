package entity

import (
	"bytes"
	"httpclient/application/http"
	"io"
	"os"
	"sync"

	"github.com/pkg/errors"
)

// DefaultMemoryLimit is the default memory threshold before spilling to disk.
const DefaultMemoryLimit = 4 * 1024 * 1024 // 4MB

// Buffer accumulates a body in memory and spools it to a temporary file
// once it grows beyond its limit.
// Close must be called to remove the temporary file.
type Buffer struct {
	mu     sync.Mutex
	buf    bytes.Buffer
	file   *os.File
	size   int64
	limit  int64
	closed bool

	// reader state
	r     io.Reader
	piece []byte
}

var (
	_ http.Entity = (*Buffer)(nil)
	_ io.Writer   = (*Buffer)(nil)
)

// NewBuffer creates a buffer with the given memory limit.
// Non-positive limit means [DefaultMemoryLimit].
func NewBuffer(limit int64) *Buffer {
	if limit <= 0 {
		limit = DefaultMemoryLimit
	}
	return &Buffer{limit: limit}
}

// Write appends p, spilling to disk once above the memory limit.
// Writing resets the reading position.
func (b *Buffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return 0, errors.New("buffer is closed")
	}
	b.r = nil

	if b.file == nil && int64(b.buf.Len()+len(p)) <= b.limit {
		n, err := b.buf.Write(p)
		b.size += int64(n)
		return n, err
	}

	if b.file == nil {
		if err := b.spill(); err != nil {
			return 0, err
		}
	}

	if _, err := b.file.Seek(0, io.SeekEnd); err != nil {
		return 0, errors.Wrap(err, "seeking temp file")
	}
	n, err := b.file.Write(p)
	b.size += int64(n)
	if err != nil {
		return n, errors.Wrap(err, "writing to temp file")
	}
	return n, nil
}

func (b *Buffer) spill() error {
	tmp, err := os.CreateTemp("", "httpclient-buffer-*.tmp")
	if err != nil {
		return errors.Wrap(err, "creating temp file")
	}
	b.file = tmp

	if _, err := tmp.Write(b.buf.Bytes()); err != nil {
		return errors.Wrap(err, "writing to temp file")
	}
	b.buf = bytes.Buffer{}
	return nil
}

// IsSpilled reports whether the content lives in a temporary file.
func (b *Buffer) IsSpilled() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.file != nil
}

func (b *Buffer) Len() int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.size
}

// Read returns the next piece of at most [ReadSize] bytes.
func (b *Buffer) Read() ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil, errors.New("buffer is closed")
	}

	if b.r == nil {
		if err := b.rewind(); err != nil {
			return nil, err
		}
	}
	if b.piece == nil {
		b.piece = make([]byte, ReadSize)
	}

	n, err := io.ReadFull(b.r, b.piece)
	switch {
	case n > 0:
		return b.piece[:n], nil
	case err == io.EOF, err == io.ErrUnexpectedEOF:
		return nil, io.EOF
	default:
		return nil, errors.Wrap(err, "reading buffer")
	}
}

func (b *Buffer) Rewind() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return errors.New("buffer is closed")
	}
	return b.rewind()
}

func (b *Buffer) rewind() error {
	if b.file == nil {
		b.r = bytes.NewReader(b.buf.Bytes())
		return nil
	}

	if _, err := b.file.Seek(0, io.SeekStart); err != nil {
		return errors.Wrap(err, "seeking temp file")
	}
	b.r = io.LimitReader(b.file, b.size)
	return nil
}

// Close releases the buffer and removes its temporary file.
func (b *Buffer) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}
	b.closed = true
	b.buf = bytes.Buffer{}
	b.r = nil

	if b.file == nil {
		return nil
	}

	name := b.file.Name()
	closeErr := b.file.Close()
	b.file = nil
	if err := os.Remove(name); err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "removing temp file")
	}
	if closeErr != nil {
		return errors.Wrap(closeErr, "closing temp file")
	}
	return nil
}
