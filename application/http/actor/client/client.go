package client

import (
	"context"
	"httpclient/application/http"
	"httpclient/application/http/auth"
	"httpclient/application/http/cookie"
	"httpclient/application/http/entity"
	"httpclient/application/http/status"
	"httpclient/application/util/uri"
	"httpclient/transport"
	"io"
	"log/slog"
	"strings"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
)

const defaultContentType = "application/octet-stream"

// Client sends requests through a [Transport], following redirects
// and carrying cookies between them.
// It is not safe for concurrent use.
type Client struct {
	transport Transport
	store     cookie.Store
	auth      auth.Provider

	// headers are added to every request that lacks them.
	headers http.Headers

	logger *slog.Logger
	clock  clock.Clock

	opts Options

	redirects int
}

func New(t Transport, logger *slog.Logger, clock clock.Clock, opts Options) *Client {
	return &Client{
		transport: t,
		store:     cookie.NewSimpleStore(clock, cookie.DefaultSimpleStoreOptions),
		logger:    logger,
		clock:     clock,
		opts:      opts,
	}
}

// NewWithSocket creates a client over a [Socket] transport dialing with d.
func NewWithSocket(d transport.ConnDialer, logger *slog.Logger, clock clock.Clock, opts Options) *Client {
	return New(NewSocket(d, logger, clock, opts.Transport), logger, clock, opts)
}

func (c *Client) Transport() Transport { return c.transport }

func (c *Client) CookieStore() cookie.Store { return c.store }

// SetCookieStore replaces the cookie store. nil disables cookies.
func (c *Client) SetCookieStore(store cookie.Store) {
	if store == nil {
		store = cookie.NullStore{}
	}
	c.store = store
}

// SetAuth sets the provider that authenticates every request. nil disables it.
func (c *Client) SetAuth(p auth.Provider) { c.auth = p }

// SetHeader sets a global header.
func (c *Client) SetHeader(name, value string) { c.headers.Set(name, value) }

// AddHeader adds a global header value.
func (c *Client) AddHeader(name, value string) { c.headers.Add(name, value) }

// Headers returns a copy of the global headers.
func (c *Client) Headers() http.Headers { return c.headers.Clone() }

// RedirectCount returns how many redirects the last Send followed.
func (c *Client) RedirectCount() int { return c.redirects }

// Close releases the transport's resources if it holds any.
func (c *Client) Close() error {
	if closer, ok := c.transport.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

// Send sends req and follows redirects until a final response.
// req itself is not modified.
func (c *Client) Send(ctx context.Context, req *http.Request) (*http.Response, error) {
	if req == nil {
		return nil, http.InvalidArgument("request is nil")
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	c.redirects = 0
	req = req.Clone()

	// Cookies the caller set are kept on every hop.
	ownCookie, hasOwnCookie := req.Headers.Lookup("Cookie")
	// Credentials are only presented to the origin of the first request.
	home := origin(req.URI)

	challenged := false
	for {
		trusted := origin(req.URI) == home
		if err := c.prepare(req, ownCookie, hasOwnCookie, trusted); err != nil {
			return nil, err
		}

		res, err := c.transport.Send(ctx, req)
		if err != nil {
			return nil, err
		}
		c.store.ReadCookiesFromResponse(res, req.URI)

		if res.StatusCode == status.Unauthorized && trusted && !challenged {
			challenged = true
			if c.retryWithChallenge(req, res) {
				continue
			}
		}

		location, ok := res.Headers.Lookup("Location")
		if !res.IsRedirect() || !ok || c.redirects >= c.opts.MaxRedirects {
			return res, nil
		}

		next, err := c.nextRequest(req, res, strings.TrimSpace(location), ownCookie, hasOwnCookie)
		if err != nil {
			return nil, err
		}

		c.logger.Debug("following redirect",
			slog.String("from", req.URI.String()),
			slog.String("to", next.URI.String()),
			slog.Uint64("status", uint64(res.StatusCode)),
		)

		req = next
		c.redirects++
		challenged = false
	}
}

// prepare adds global headers, cookies and, if trusted, credentials to req.
func (c *Client) prepare(req *http.Request, ownCookie string, hasOwnCookie, trusted bool) error {
	added := make(map[string]bool)
	for _, field := range c.headers.Fields() {
		name := strings.ToLower(field.Name)
		if req.Headers.Has(name) && !added[name] {
			continue
		}
		req.Headers.Add(field.Name, field.Value)
		added[name] = true
	}

	if c.opts.UserAgent != "" && !req.Headers.Has("User-Agent") {
		req.Headers.Add("User-Agent", c.opts.UserAgent)
	}

	matched, err := c.store.MatchingCookies(req.URI, true, c.clock.Now())
	if err != nil {
		return err
	}

	stored := cookie.Pairs(matched)
	if c.opts.EncodeCookies {
		for i := range stored {
			stored[i][1] = cookie.EncodeValue(stored[i][1])
		}
	}

	var own [][2]string
	if hasOwnCookie {
		own = cookie.ParseCookieHeader(ownCookie)
	}

	req.Headers.Del("Cookie")
	if merged := mergeCookies(stored, own); len(merged) > 0 {
		req.Headers.Set("Cookie", cookie.Render(merged, false))
	}

	if form, ok := req.Body.(http.FormDataHandler); ok {
		form.PrepareHeaders(&req.Headers)
	}

	if c.auth != nil && trusted {
		if err := c.auth.Authenticate(req); err != nil {
			return errors.Wrap(err, "authenticating request")
		}
	}

	return nil
}

// mergeCookies merges pairs by name. A later pair overrides the value of an
// earlier one but keeps its position, and own pairs override stored ones.
func mergeCookies(stored, own [][2]string) [][2]string {
	var merged [][2]string
	index := make(map[string]int)

	for _, pairs := range [][][2]string{stored, own} {
		for _, pair := range pairs {
			if i, ok := index[pair[0]]; ok {
				merged[i][1] = pair[1]
				continue
			}
			index[pair[0]] = len(merged)
			merged = append(merged, pair)
		}
	}

	return merged
}

// retryWithChallenge lets the auth provider answer a 401.
func (c *Client) retryWithChallenge(req *http.Request, res *http.Response) bool {
	challenger, ok := c.auth.(auth.Challenger)
	if !ok {
		return false
	}

	retry, err := challenger.Challenge(req, res)
	if err != nil {
		c.logger.Warn("ignoring authentication challenge", slog.Any("error", err))
		return false
	}
	if retry {
		c.logger.Debug("retrying with credentials", slog.String("uri", req.URI.String()))
	}
	return retry
}

// nextRequest builds the request that follows a redirect.
// Reference: https://datatracker.ietf.org/doc/html/rfc9110#section-15.4
func (c *Client) nextRequest(req *http.Request, res *http.Response, location, ownCookie string, hasOwnCookie bool) (*http.Request, error) {
	target, err := uri.Resolve(req.URI, uri.Sanitize(location))
	if err != nil {
		return nil, http.ProtocolErrorWrap(err, "invalid redirect location %q", location)
	}
	target, err = uri.Normalize(target)
	if err != nil {
		return nil, http.ProtocolErrorWrap(err, "invalid redirect location %q", location)
	}
	if err := uri.ValidateHTTP(target); err != nil {
		return nil, http.ProtocolErrorWrap(err, "redirect to %q is not allowed", location)
	}

	next := req.Clone()
	next.URI = target

	switch res.StatusCode {
	case status.SeeOther:
		downgrade(next)
	case status.MovedPermanently, status.Found:
		if !c.opts.StrictRedirects {
			downgrade(next)
		}
	}

	next.Headers.Del("Host")

	if origin(next.URI) != origin(req.URI) {
		next.Headers.Del("Authorization")
	}

	next.Headers.Del("Cookie")
	if hasOwnCookie {
		next.Headers.Add("Cookie", ownCookie)
	}

	return next, nil
}

func origin(u uri.URI) string { return u.Scheme + "://" + u.HostPort() }

// downgrade turns req into a GET without content.
func downgrade(req *http.Request) {
	req.Method = http.MethodGet
	req.Body = nil
	req.Headers.Del("Content-Type")
	req.Headers.Del("Content-Length")
	req.Headers.Del("Transfer-Encoding")
}

func (c *Client) Get(ctx context.Context, url string) (*http.Response, error) {
	return c.do(ctx, http.MethodGet, url, "", nil)
}

func (c *Client) Head(ctx context.Context, url string) (*http.Response, error) {
	return c.do(ctx, http.MethodHead, url, "", nil)
}

func (c *Client) Delete(ctx context.Context, url string) (*http.Response, error) {
	return c.do(ctx, http.MethodDelete, url, "", nil)
}

// Post sends body with contentType, which defaults to application/octet-stream.
func (c *Client) Post(ctx context.Context, url, contentType string, body http.Entity) (*http.Response, error) {
	return c.do(ctx, http.MethodPost, url, contentType, body)
}

// Put sends body with contentType, which defaults to application/octet-stream.
func (c *Client) Put(ctx context.Context, url, contentType string, body http.Entity) (*http.Response, error) {
	return c.do(ctx, http.MethodPut, url, contentType, body)
}

// PostForm sends form URL-encoded.
func (c *Client) PostForm(ctx context.Context, url string, form *entity.Form) (*http.Response, error) {
	return c.do(ctx, http.MethodPost, url, "", form)
}

func (c *Client) do(ctx context.Context, method http.Method, url, contentType string, body http.Entity) (*http.Response, error) {
	req, err := http.NewRequest(string(method), url, body)
	if err != nil {
		return nil, err
	}

	if body != nil {
		if _, ok := body.(http.FormDataHandler); !ok {
			if contentType == "" {
				contentType = defaultContentType
			}
		}
	}
	if contentType != "" {
		req.Headers.Set("Content-Type", contentType)
	}

	return c.Send(ctx, req)
}
