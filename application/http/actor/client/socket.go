package client

import (
	"context"
	"httpclient/application/http"
	"httpclient/application/http/codec"
	"httpclient/application/http/status"
	"httpclient/application/http/transfer"
	"httpclient/application/util/rule"
	"httpclient/application/util/uri"
	iolib "httpclient/lib/io"
	"httpclient/session/tls"
	"httpclient/transport"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
)

var (
	errReadTimeout = errors.New("read timed out")
	errCanceled    = errors.New("exchange canceled")
	// errStaleConn is returned when a reused connection turns out to be closed
	// by the server before anything of the response arrived.
	errStaleConn = errors.New("stale connection")
)

// Socket is a [Transport] over a single stream connection.
// The connection is kept between exchanges while they go to the same origin.
type Socket struct {
	dialer transport.ConnDialer

	logger *slog.Logger
	clock  clock.Clock

	opts TransportOptions

	// conn is nil while disconnected.
	conn *socketConn
}

var _ Transport = (*Socket)(nil)

func NewSocket(d transport.ConnDialer, logger *slog.Logger, clock clock.Clock, opts TransportOptions) *Socket {
	return &Socket{
		dialer: d,
		logger: logger,
		clock:  clock,
		opts:   opts,
	}
}

// Close closes the current connection, if any.
func (s *Socket) Close() error {
	if s.conn == nil {
		return nil
	}
	return s.closeConn("closed by caller")
}

// Connected reports the origin ("scheme://host:port") the socket is bound to.
func (s *Socket) Connected() (origin string, ok bool) {
	if s.conn == nil {
		return "", false
	}
	return s.conn.origin, true
}

func (s *Socket) Send(ctx context.Context, req *http.Request) (*http.Response, error) {
	if req == nil {
		return nil, http.InvalidArgument("request is nil")
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	head, chunked, err := s.prepareHead(req)
	if err != nil {
		return nil, err
	}

	for retried := false; ; retried = true {
		conn, err := s.connect(ctx, head.URI)
		if err != nil {
			return nil, err
		}

		res, err := s.exchange(ctx, conn, head, chunked)
		if err == nil {
			return res, nil
		}

		if errors.Is(err, errStaleConn) && !retried {
			s.logger.Debug("server closed idle connection, retrying", slog.String("origin", conn.origin))
			continue
		}
		return nil, s.classify(ctx, err)
	}
}

// prepareHead copies req and inserts the framing headers.
func (s *Socket) prepareHead(req *http.Request) (head *http.Request, chunked bool, err error) {
	head = req.Clone()
	h := &head.Headers

	if !h.Has("Host") {
		h.Add("Host", head.URI.HostHeader())
	}
	if !h.Has("Connection") {
		if s.opts.KeepAlive {
			h.Add("Connection", "keep-alive")
		} else {
			h.Add("Connection", "close")
		}
	}
	if s.opts.AcceptEncoding && !h.Has("Accept-Encoding") {
		h.Add("Accept-Encoding", codec.AcceptEncoding)
	}

	if head.Body == nil {
		switch head.Method {
		case http.MethodPost, http.MethodPut, http.MethodPatch:
			// Reference: https://datatracker.ietf.org/doc/html/rfc9110#section-8.6-5
			if !h.Has("Content-Length") && !h.Has("Transfer-Encoding") {
				h.Add("Content-Length", "0")
			}
		}
		return head, false, nil
	}

	if h.Has("Content-Length") {
		return head, false, nil
	}

	if n := head.Body.Len(); n >= 0 {
		if !h.Has("Transfer-Encoding") {
			h.Add("Content-Length", strconv.FormatInt(n, 10))
		}
		return head, h.ContainsToken("Transfer-Encoding", string(transfer.CodingChunked)), nil
	}

	if head.Version == http.Version10 {
		return nil, false, http.InvalidArgument("body of unknown length cannot be sent over %s", head.Version)
	}
	if !h.ContainsToken("Transfer-Encoding", string(transfer.CodingChunked)) {
		h.Add("Transfer-Encoding", string(transfer.CodingChunked))
	}
	return head, true, nil
}

func (s *Socket) connect(ctx context.Context, u uri.URI) (*socketConn, error) {
	addr := u.HostPort()
	origin := u.Scheme + "://" + addr

	if s.conn != nil && s.conn.origin != origin {
		_ = s.closeConn("bound to other origin")
	}
	if s.conn != nil {
		s.logger.Debug("reusing connection", slog.String("origin", origin))
		return s.conn, nil
	}

	dialCtx := ctx
	if s.opts.Timeout > 0 {
		var cancel context.CancelFunc
		dialCtx, cancel = context.WithTimeout(ctx, s.opts.Timeout)
		defer cancel()
	}

	raw, err := s.dialer.Dial(dialCtx, addr)
	if err != nil {
		s.logger.Warn("failed to connect", slog.String("addr", addr), slog.Any("error", err))
		return nil, http.ConnectionError(err, "connecting to %s", addr)
	}

	if u.IsSecure() {
		cfg, err := tls.BuildConfig(s.opts.TLS, u.Hostname())
		if err != nil {
			raw.Close()
			return nil, http.ConnectionError(err, "configuring TLS for %s", addr)
		}

		tlsConn, err := tls.Client(dialCtx, raw, cfg)
		if err != nil {
			s.logger.Warn("TLS negotiation failed", slog.String("addr", addr), slog.Any("error", err))
			return nil, http.ConnectionError(err, "negotiating TLS with %s", addr)
		}
		raw = tlsConn
	}

	s.logger.Debug("connected", slog.String("origin", origin))

	s.conn = newSocketConn(origin, raw, s.clock, s.opts)
	return s.conn, nil
}

func (s *Socket) closeConn(reason string) error {
	conn := s.conn
	s.conn = nil

	s.logger.Debug("closing connection", slog.String("origin", conn.origin), slog.String("reason", reason))
	return conn.raw.Close()
}

func (s *Socket) exchange(ctx context.Context, conn *socketConn, head *http.Request, chunked bool) (_ *http.Response, err error) {
	stop := conn.watch(ctx)
	defer stop()

	defer func() {
		if err != nil {
			_ = s.closeConn("error during exchange")
		}
	}()

	reused := conn.served > 0
	conn.served++

	s.logger.Debug("sending request",
		slog.String("method", string(head.Method)),
		slog.String("target", head.URI.RequestTarget()),
	)

	if err := s.writeRequest(conn, head, chunked); err != nil {
		if reused && ctx.Err() == nil && http.KindOf(err) == 0 && !errors.Is(err, os.ErrDeadlineExceeded) {
			return nil, errors.Wrap(errStaleConn, err.Error())
		}
		return nil, err
	}

	res, err := s.readFinalHead(conn, reused)
	if err != nil {
		return nil, err
	}

	s.logger.Debug("received response",
		slog.Uint64("status", uint64(res.StatusCode)),
		slog.String("reason", res.ReasonPhrase),
	)

	untilClose, err := s.readBody(conn, head, res)
	if err != nil {
		return nil, err
	}

	switch {
	case !s.opts.KeepAlive:
		_ = s.closeConn("keep-alive is disabled")
	case res.Headers.ContainsToken("Connection", "close"):
		_ = s.closeConn("server requested close")
	case untilClose:
		_ = s.closeConn("body was delimited by close")
	case res.Version == http.Version10 && !res.Headers.ContainsToken("Connection", "keep-alive"):
		_ = s.closeConn("HTTP/1.0 without keep-alive")
	}

	return res, nil
}

// readFinalHead reads response heads until a final one, skipping interim
// 1xx responses. 101 is final since the connection changes protocol after it.
// Reference: https://datatracker.ietf.org/doc/html/rfc9110#section-15.2
func (s *Socket) readFinalHead(conn *socketConn, reused bool) (*http.Response, error) {
	for interim := 0; ; interim++ {
		res := &http.Response{}
		if err := conn.dec.DecodeHead(res); err != nil {
			if reused && interim == 0 && errors.Is(err, io.EOF) {
				return nil, errors.Wrap(errStaleConn, err.Error())
			}
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				return nil, http.ConnectionError(err, "server closed connection before sending a complete response head")
			}
			return nil, errors.Wrap(err, "reading response head")
		}

		if !status.IsInformational(res.StatusCode) || res.StatusCode == status.SwitchingProtocols {
			return res, nil
		}

		s.logger.Debug("skipping interim response", slog.Uint64("status", uint64(res.StatusCode)))
	}
}

func (s *Socket) writeRequest(conn *socketConn, head *http.Request, chunked bool) error {
	conn.setWriteDeadline()

	enc := http.NewRequestEncoder(conn.raw)
	if err := enc.EncodeHead(head); err != nil {
		return errors.Wrap(err, "writing request head")
	}

	if head.Body != nil {
		if err := head.Body.Rewind(); err != nil {
			return http.InvalidArgumentWrap(err, "rewinding request body")
		}

		var w io.Writer = enc
		var cw *transfer.ChunkedWriter
		if chunked {
			cw = transfer.NewChunkedWriter(enc)
			w = cw
		}

		for {
			piece, err := head.Body.Read()
			if len(piece) > 0 {
				if _, werr := iolib.WriteFull(w, piece); werr != nil {
					return errors.Wrap(werr, "writing request body")
				}
			}
			if err == io.EOF {
				break
			}
			if err != nil {
				return http.InvalidArgumentWrap(err, "reading request body")
			}
		}

		if cw != nil {
			if err := cw.Close(); err != nil {
				return errors.Wrap(err, "writing last chunk")
			}
		}
	}

	if err := enc.Flush(); err != nil {
		return errors.Wrap(err, "flushing request")
	}
	return nil
}

// readBody frames and decodes the response body.
// Reference: https://datatracker.ietf.org/doc/html/rfc9112#section-6.3
func (s *Socket) readBody(conn *socketConn, req *http.Request, res *http.Response) (untilClose bool, err error) {
	if req.Method == http.MethodHead || !status.HasBody(res.StatusCode) {
		return false, nil
	}

	br := conn.dec.Reader()

	var (
		framed io.Reader
		limit  *iolib.LimitedReader
	)
	switch {
	case res.Headers.Has("Transfer-Encoding"):
		codings, err := transfer.ParseCodings(res.Headers.Values("Transfer-Encoding"))
		if err != nil {
			return false, err
		}
		cr, err := transfer.NewDecoder(br, codings, s.opts.Decode)
		if err != nil {
			return false, err
		}
		res.Headers.Del("Transfer-Encoding")
		framed = cr
	case res.Headers.Has("Content-Length"):
		n, err := parseContentLength(res.Headers.Values("Content-Length"))
		if err != nil {
			return false, err
		}
		limit = iolib.LimitReader(br, uint(n))
		framed = limit
	default:
		untilClose = true
		framed = br
	}

	c, decoded := codec.ForEncoding(res.Headers.Get("Content-Encoding"))
	defer func() { _, _ = c.Close() }()

	body, err := io.ReadAll(iolib.NewFilterReader(framed, c))
	if err != nil {
		return false, errors.Wrap(err, "reading response body")
	}
	if limit != nil && limit.N > 0 {
		return false, http.ProtocolError("unexpected end of stream, still expecting %d bytes", limit.N)
	}

	if decoded {
		res.Headers.Del("Content-Encoding")
	}
	res.Body = body

	return untilClose, nil
}

// parseContentLength accepts a list of identical decimal values.
// Reference: https://datatracker.ietf.org/doc/html/rfc9110#section-8.6
func parseContentLength(values []string) (uint64, error) {
	var (
		length uint64
		seen   bool
	)
	for _, value := range values {
		for _, elem := range strings.Split(value, ",") {
			elem = rule.TrimOWS(elem)
			if elem == "" || strings.Trim(elem, "0123456789") != "" {
				return 0, http.ProtocolError("invalid Content-Length %q", value)
			}

			n, err := strconv.ParseUint(elem, 10, 63)
			if err != nil {
				return 0, http.ProtocolErrorWrap(err, "invalid Content-Length %q", value)
			}
			if seen && n != length {
				return 0, http.ProtocolError("conflicting Content-Length values")
			}
			length, seen = n, true
		}
	}
	return length, nil
}

// classify turns an exchange failure into one of the error kinds.
func (s *Socket) classify(ctx context.Context, err error) error {
	switch {
	case errors.Is(err, errCanceled), ctx.Err() != nil && http.KindOf(err) == 0:
		return http.ConnectionError(context.Cause(ctx), "request canceled")
	case errors.Is(err, errReadTimeout):
		return http.ConnectionError(nil, "reading from server has timed out after %s", s.opts.Timeout)
	case errors.Is(err, os.ErrDeadlineExceeded):
		return http.ConnectionError(nil, "writing to server has timed out after %s", s.opts.Timeout)
	case errors.Is(err, errStaleConn):
		return http.ConnectionError(err, "server closed connection")
	case http.KindOf(err) != 0:
		return err
	}

	s.logger.Warn("connection error", slog.Any("error", err))
	return http.ConnectionError(err, "exchange failed")
}
