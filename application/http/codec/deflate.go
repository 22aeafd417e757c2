package codec

import (
	"bufio"
	"bytes"
	"compress/flate"
	"compress/zlib"
	"httpclient/application/http"
	"io"
	"sync"

	"github.com/pkg/errors"
)

// Deflate decodes the "deflate" coding.
// Both zlib-wrapped and raw deflate streams are accepted.
//
// The decompressor pulls its input, so it runs in its own goroutine
// and is handed each piece given to Filter. The goroutine is parked
// between Filter calls and exits on Close.
type Deflate struct {
	detectZlib bool

	feed    chan []byte
	starved chan struct{}
	done    chan struct{}

	started bool
	ended   bool
	closed  bool

	mu  sync.Mutex
	out bytes.Buffer
	err error
}

var _ Codec = (*Deflate)(nil)

func NewDeflate() *Deflate {
	return newInflater(true)
}

func newInflater(detectZlib bool) *Deflate {
	return &Deflate{
		detectZlib: detectZlib,
		feed:       make(chan []byte),
		starved:    make(chan struct{}),
		done:       make(chan struct{}),
	}
}

func (d *Deflate) Filter(p []byte) ([]byte, error) {
	if d.closed {
		return nil, errors.New("filter on closed codec")
	}

	if !d.started {
		d.started = true
		go d.run(&feeder{feed: d.feed, starved: d.starved})
		d.wait()
	}

	// Input after the end of the stream is discarded.
	if !d.ended && len(p) > 0 {
		d.feed <- bytes.Clone(p)
		d.wait()
	}

	return d.drain()
}

func (d *Deflate) Close() ([]byte, error) {
	if d.closed {
		return nil, nil
	}
	d.closed = true

	if !d.started {
		// Empty body.
		return nil, nil
	}

	if !d.ended {
		close(d.feed)
		<-d.done
		d.ended = true
	}

	out, err := d.drain()
	if errors.Is(err, io.ErrUnexpectedEOF) {
		return out, http.ProtocolError("truncated compressed body")
	}
	return out, err
}

// wait blocks until the goroutine needs more input or has finished.
func (d *Deflate) wait() {
	select {
	case <-d.starved:
	case <-d.done:
		d.ended = true
	}
}

func (d *Deflate) drain() ([]byte, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	var out []byte
	if d.out.Len() > 0 {
		out = bytes.Clone(d.out.Bytes())
		d.out.Reset()
	}

	if d.err != nil && !errors.Is(d.err, io.ErrUnexpectedEOF) {
		return out, http.ProtocolErrorWrap(d.err, "decompressing body")
	}
	return out, d.err
}

func (d *Deflate) run(src *feeder) {
	defer close(d.done)

	r, err := d.newReader(bufio.NewReader(src))
	if err != nil {
		d.setErr(err)
		return
	}
	defer r.Close()

	buf := make([]byte, 4096)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			d.mu.Lock()
			d.out.Write(buf[:n])
			d.mu.Unlock()
		}
		if err == io.EOF {
			return
		}
		if err != nil {
			d.setErr(err)
			return
		}
	}
}

func (d *Deflate) newReader(br *bufio.Reader) (io.ReadCloser, error) {
	if d.detectZlib {
		head, err := br.Peek(2)
		if err == nil && isZlibHeader(head) {
			return zlib.NewReader(br)
		}
	}
	return flate.NewReader(br), nil
}

func (d *Deflate) setErr(err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.err = err
}

// isZlibHeader checks CMF and FLG of a zlib stream.
// Reference: https://datatracker.ietf.org/doc/html/rfc1950#section-2.2
func isZlibHeader(head []byte) bool {
	cmf, flg := head[0], head[1]
	if cmf&0x0f != 8 || cmf>>4 > 7 {
		return false
	}
	return (uint16(cmf)<<8|uint16(flg))%31 == 0
}

// feeder is the input side of the decompressor goroutine.
type feeder struct {
	feed    <-chan []byte
	starved chan<- struct{}

	buf []byte
	eof bool
}

var _ io.Reader = (*feeder)(nil)

func (f *feeder) Read(p []byte) (int, error) {
	for len(f.buf) == 0 {
		if f.eof {
			return 0, io.EOF
		}

		f.starved <- struct{}{}
		b, ok := <-f.feed
		if !ok {
			f.eof = true
			return 0, io.EOF
		}
		f.buf = b
	}

	n := copy(p, f.buf)
	f.buf = f.buf[n:]
	return n, nil
}
