package client

import (
	"context"
	"httpclient/application/http"
	"io"
	"net"
	"os"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
)

// socketConn is a live connection and the decoder reading from it.
type socketConn struct {
	origin string
	raw    net.Conn
	r      *connReader
	dec    *http.ResponseDecoder

	// served counts exchanges started on this connection.
	served int
}

func newSocketConn(origin string, raw net.Conn, clock clock.Clock, opts TransportOptions) *socketConn {
	r := &connReader{conn: raw, clock: clock, timeout: opts.Timeout}
	return &socketConn{
		origin: origin,
		raw:    raw,
		r:      r,
		dec:    http.NewResponseDecoder(r, opts.Decode),
	}
}

func (c *socketConn) setWriteDeadline() {
	if c.r.timeout > 0 {
		_ = c.raw.SetWriteDeadline(c.r.clock.Now().Add(c.r.timeout))
	}
}

// watch interrupts blocking I/O on the connection once ctx is done.
func (c *socketConn) watch(ctx context.Context) (stop func() bool) {
	c.r.mu.Lock()
	c.r.canceled = false
	// Clear whatever an earlier cancellation left behind.
	_ = c.raw.SetDeadline(time.Time{})
	c.r.mu.Unlock()

	return context.AfterFunc(ctx, func() {
		c.r.mu.Lock()
		defer c.r.mu.Unlock()

		c.r.canceled = true
		_ = c.raw.SetDeadline(c.r.clock.Now())
	})
}

// connReader applies the read timeout to every single read.
// Timeouts and cancellation are reported as such, every other failure ends
// the stream as [io.EOF].
type connReader struct {
	conn    net.Conn
	clock   clock.Clock
	timeout time.Duration

	mu       sync.Mutex
	canceled bool
}

var _ io.Reader = (*connReader)(nil)

func (r *connReader) Read(p []byte) (int, error) {
	r.mu.Lock()
	if r.canceled {
		r.mu.Unlock()
		return 0, errCanceled
	}
	if r.timeout > 0 {
		_ = r.conn.SetReadDeadline(r.clock.Now().Add(r.timeout))
	}
	r.mu.Unlock()

	n, err := r.conn.Read(p)
	if err == nil || err == io.EOF {
		return n, err
	}

	r.mu.Lock()
	canceled := r.canceled
	r.mu.Unlock()

	switch {
	case canceled:
		return n, errCanceled
	case errors.Is(err, os.ErrDeadlineExceeded):
		return n, errReadTimeout
	}
	return n, io.EOF
}
