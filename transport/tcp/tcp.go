// Package tcp dials Transmission Control Protocol (TCP) connections
// through the operating system.
//
// Reference: https://datatracker.ietf.org/doc/html/rfc9293
package tcp

import (
	"context"
	"httpclient/transport"
	"net"
	"time"

	"github.com/pkg/errors"
)

type DialerOptions struct {
	// Timeout bounds connection establishment. Zero means no timeout.
	Timeout time.Duration
	// KeepAlive is the TCP keep-alive probe period.
	// Zero enables the system default, negative disables probes.
	KeepAlive time.Duration
}

var DefaultDialerOptions = DialerOptions{
	Timeout:   30 * time.Second,
	KeepAlive: 15 * time.Second,
}

type Dialer struct {
	dialer net.Dialer
}

var _ transport.ConnDialer = (*Dialer)(nil)

func NewDialer(opts DialerOptions) *Dialer {
	return &Dialer{
		dialer: net.Dialer{
			Timeout:   opts.Timeout,
			KeepAlive: opts.KeepAlive,
		},
	}
}

func (d *Dialer) Dial(ctx context.Context, addr string) (net.Conn, error) {
	conn, err := d.dialer.DialContext(ctx, string(transport.TCP), addr)
	if err != nil {
		return nil, errors.Wrapf(err, "dialing %s", addr)
	}
	return conn, nil
}
