package pipe

import (
	"context"
	"httpclient/transport"
	"net"
	"sync"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
)

type pipeRequest struct {
	conn     net.Conn
	accepted chan struct{}
}

// Network is an in-memory network whose connections are pipes.
// Listeners are keyed by their "host:port" address.
type Network struct {
	listeners map[string]*Listener
	clock     clock.Clock

	mu sync.Mutex
}

func NewNetwork(clock clock.Clock) *Network {
	return &Network{
		listeners: make(map[string]*Listener),
		clock:     clock,
	}
}

var _ transport.ConnDialer = (*Network)(nil)

func (n *Network) Dial(ctx context.Context, addr string) (net.Conn, error) {
	n.mu.Lock()
	listener, ok := n.listeners[addr]
	n.mu.Unlock()

	if !ok {
		return nil, errors.Wrapf(transport.ErrConnRefused, "dialing %s", addr)
	}

	c1, c2 := Pipe("dialer", addr, n.clock)

	req := pipeRequest{
		conn:     c2,
		accepted: make(chan struct{}),
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-listener.closed:
		return nil, errors.Wrapf(transport.ErrConnRefused, "dialing %s", addr)
	case listener.requests <- req:
	}

	select {
	case <-ctx.Done():
		c1.Close()
		return nil, ctx.Err()
	case <-req.accepted:
	}

	return c1, nil
}

func (n *Network) Listen(addr string) (*Listener, error) {
	if _, _, err := transport.SplitHostPort(addr); err != nil {
		return nil, errors.Wrap(err, "invalid listen address")
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	if _, ok := n.listeners[addr]; ok {
		return nil, transport.ErrAddrAlreadyInUse
	}

	l := &Listener{
		addr:     addr,
		network:  n,
		requests: make(chan pipeRequest),
		closed:   make(chan struct{}),
	}
	n.listeners[addr] = l

	return l, nil
}

type Listener struct {
	addr string

	network *Network

	requests chan pipeRequest
	closed   chan struct{}
	once     sync.Once
}

var _ transport.ConnListener = (*Listener)(nil)

func (l *Listener) Addr() string { return l.addr }

func (l *Listener) Accept(ctx context.Context) (net.Conn, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-l.closed:
		return nil, transport.ErrConnListenerClosed
	case request := <-l.requests:
		// The dialer is blocked until it is told the conn was accepted.
		close(request.accepted)
		return request.conn, nil
	}
}

func (l *Listener) Close() error {
	err := transport.ErrConnListenerClosed
	l.once.Do(func() {
		close(l.closed)

		l.network.mu.Lock()
		delete(l.network.listeners, l.addr)
		l.network.mu.Unlock()

		err = nil
	})
	return err
}
