// Package transport abstracts how stream connections are established.
package transport

import (
	"context"
	"net"

	"github.com/pkg/errors"
)

type Protocol string

const (
	TCP Protocol = "tcp"
)

var (
	ErrConnRefused        = errors.New("connection refused")
	ErrNetUnreachable     = errors.New("network unreachable")
	ErrAddrAlreadyInUse   = errors.New("address already in use")
	ErrConnListenerClosed = errors.New("conn listener is closed")
)

// ConnDialer opens a stream connection to addr ("host:port").
type ConnDialer interface {
	Dial(ctx context.Context, addr string) (net.Conn, error)
}

type ConnListener interface {
	Accept(ctx context.Context) (net.Conn, error)
	Close() error
}

// SplitHostPort is [net.SplitHostPort] with the port parsed.
func SplitHostPort(addr string) (host string, port uint16, err error) {
	host, portRaw, err := net.SplitHostPort(addr)
	if err != nil {
		return "", 0, errors.Wrapf(err, "splitting %q", addr)
	}

	p, err := net.LookupPort(string(TCP), portRaw)
	if err != nil {
		return "", 0, errors.Wrapf(err, "parsing port %q", portRaw)
	}
	if p < 0 || p > 0xffff {
		return "", 0, errors.Errorf("port %d out of range", p)
	}

	return host, uint16(p), nil
}
