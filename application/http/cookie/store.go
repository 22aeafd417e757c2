package cookie

import (
	"httpclient/application/http"
	"httpclient/application/util/uri"
	"time"

	"github.com/benbjohnson/clock"
	"golang.org/x/net/publicsuffix"
)

// Store keeps cookies received from servers.
// Implementations are not safe for concurrent use.
type Store interface {
	// AddCookie inserts c, replacing a cookie with the same name, domain and path.
	AddCookie(c Cookie)
	// AddCookieFromHeader adds the cookies of a Set-Cookie value.
	// Missing domain and path are taken from defaultURI. Malformed values are ignored.
	AddCookieFromHeader(setCookie string, defaultURI uri.URI)
	// ReadCookiesFromResponse adds the cookies of every Set-Cookie field of res.
	ReadCookiesFromResponse(res *http.Response, u uri.URI)
	// MatchingCookies returns copies of the cookies to send to u, in insertion order.
	// It fails with [http.ErrInvalidArgument] if u is not an absolute http(s) URI.
	MatchingCookies(u uri.URI, includeSession bool, now time.Time) ([]Cookie, error)
	// CookiesForRequest renders the cookies matching req as a Cookie field value.
	CookiesForRequest(req *http.Request) (string, error)
	// Cookies returns copies of all stored cookies in insertion order.
	Cookies() []Cookie
}

// PublicSuffixList is satisfied by [publicsuffix.List].
type PublicSuffixList interface {
	PublicSuffix(domain string) string
}

type SimpleStoreOptions struct {
	// PublicSuffixList rejects Domain attributes naming a public suffix. Nil disables the check.
	PublicSuffixList PublicSuffixList
}

var DefaultSimpleStoreOptions = SimpleStoreOptions{
	PublicSuffixList: publicsuffix.List,
}

// SimpleStore keeps cookies in memory.
type SimpleStore struct {
	clock clock.Clock
	opts  SimpleStoreOptions

	cookies []Cookie
	index   map[key]int
}

var _ Store = (*SimpleStore)(nil)

func NewSimpleStore(clk clock.Clock, opts SimpleStoreOptions) *SimpleStore {
	return &SimpleStore{
		clock: clk,
		opts:  opts,
		index: make(map[key]int),
	}
}

// AddCookie keeps the position of a replaced cookie.
// A cookie already expired removes the stored one.
func (s *SimpleStore) AddCookie(c Cookie) {
	k := c.key()
	idx, exists := s.index[k]

	if c.IsExpired(s.clock.Now()) {
		if exists {
			s.remove(idx)
		}
		return
	}

	if exists {
		s.cookies[idx] = c
		return
	}

	s.index[k] = len(s.cookies)
	s.cookies = append(s.cookies, c)
}

func (s *SimpleStore) remove(idx int) {
	s.cookies = append(s.cookies[:idx], s.cookies[idx+1:]...)
	clear(s.index)
	for i, c := range s.cookies {
		s.index[c.key()] = i
	}
}

func (s *SimpleStore) AddCookieFromHeader(setCookie string, defaultURI uri.URI) {
	cookies, err := ParseSetCookie(setCookie, s.clock.Now())
	if err != nil {
		return
	}

	host := defaultURI.Hostname()
	for _, c := range cookies {
		if c, ok := s.resolve(c, host, defaultURI.Path); ok {
			s.AddCookie(c)
		}
	}
}

// resolve fills the scope of c from the response URI and drops it if its
// Domain attribute is not acceptable for host.
// A missing Path becomes the whole response path, not its directory.
func (s *SimpleStore) resolve(c Cookie, host, path string) (Cookie, bool) {
	if c.Path == "" {
		c.Path = path
	}
	if c.Path == "" {
		c.Path = "/"
	}

	if c.Domain == "" {
		c.Domain = host
		return c, true
	}

	if host == "" {
		// Nothing to check against.
		return c, true
	}

	if psl := s.opts.PublicSuffixList; psl != nil && psl.PublicSuffix(c.Domain) == c.Domain {
		if c.Domain != host {
			return Cookie{}, false
		}
		return c, true
	}

	if !DomainMatch(host, c.Domain) {
		return Cookie{}, false
	}
	return c, true
}

func (s *SimpleStore) ReadCookiesFromResponse(res *http.Response, u uri.URI) {
	if res == nil {
		return
	}
	for _, value := range res.Headers.Values("Set-Cookie") {
		s.AddCookieFromHeader(value, u)
	}
}

func (s *SimpleStore) MatchingCookies(u uri.URI, includeSession bool, now time.Time) ([]Cookie, error) {
	if err := uri.ValidateHTTP(u); err != nil {
		return nil, http.InvalidArgumentWrap(err, "%q is not an absolute, valid HTTP URL", u.String())
	}
	normalized, err := uri.Normalize(u)
	if err != nil {
		return nil, http.InvalidArgumentWrap(err, "%q is not an absolute, valid HTTP URL", u.String())
	}
	u = normalized

	host, path := u.Hostname(), u.Path
	matched := make([]Cookie, 0)
	for _, c := range s.cookies {
		switch {
		case !DomainMatch(host, c.Domain):
		case !PathMatch(path, c.Path):
		case c.IsExpired(now):
		case !includeSession && c.IsSession():
		case c.Secure && !u.IsSecure():
		default:
			matched = append(matched, c)
		}
	}
	return matched, nil
}

func (s *SimpleStore) CookiesForRequest(req *http.Request) (string, error) {
	cookies, err := s.MatchingCookies(req.URI, true, s.clock.Now())
	if err != nil {
		return "", err
	}
	return Render(Pairs(cookies), false), nil
}

func (s *SimpleStore) Cookies() []Cookie {
	return append([]Cookie(nil), s.cookies...)
}

// Pairs converts cookies to name=value pairs.
func Pairs(cookies []Cookie) [][2]string {
	pairs := make([][2]string, 0, len(cookies))
	for _, c := range cookies {
		pairs = append(pairs, [2]string{c.Name, c.Value})
	}
	return pairs
}

// NullStore never stores anything.
type NullStore struct{}

var _ Store = NullStore{}

func (NullStore) AddCookie(Cookie) {}

func (NullStore) AddCookieFromHeader(string, uri.URI) {}

func (NullStore) ReadCookiesFromResponse(*http.Response, uri.URI) {}

func (NullStore) MatchingCookies(u uri.URI, _ bool, _ time.Time) ([]Cookie, error) {
	if err := uri.ValidateHTTP(u); err != nil {
		return nil, http.InvalidArgumentWrap(err, "%q is not an absolute, valid HTTP URL", u.String())
	}
	return []Cookie{}, nil
}

func (NullStore) CookiesForRequest(*http.Request) (string, error) { return "", nil }

func (NullStore) Cookies() []Cookie { return nil }
