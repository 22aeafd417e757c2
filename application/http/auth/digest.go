package auth

import (
	"crypto/md5"
	"crypto/rand"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"hash"
	"httpclient/application/http"
	"httpclient/application/http/entity"
	"httpclient/application/util/rule"
	"io"
	"strconv"
	"strings"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
)

const (
	AlgorithmMD5        = "MD5"
	AlgorithmMD5Sess    = "MD5-sess"
	AlgorithmSHA256     = "SHA-256"
	AlgorithmSHA256Sess = "SHA-256-sess"

	QopAuth    = "auth"
	QopAuthInt = "auth-int"
)

// Digest implements the "Digest" scheme.
// Credentials are sent once a challenge was received from the server,
// and on every request after that with an increasing nonce count.
//
// Reference:
//   - https://datatracker.ietf.org/doc/html/rfc2617
//   - https://datatracker.ietf.org/doc/html/rfc7616
type Digest struct {
	username string
	password string
	clock    clock.Clock
	rand     io.Reader

	challenge *digestChallenge
	nc        uint32
}

var _ Challenger = (*Digest)(nil)

type digestChallenge struct {
	realm     string
	nonce     string
	opaque    string
	algorithm string
	qop       []string
	stale     bool
}

func NewDigest(username, password string, clk clock.Clock) *Digest {
	return &Digest{
		username: username,
		password: password,
		clock:    clk,
		rand:     rand.Reader,
	}
}

// SetChallenge installs a Digest challenge. The nonce count restarts on a new nonce.
func (d *Digest) SetChallenge(c Challenge) error {
	if !strings.EqualFold(c.Scheme, "Digest") {
		return http.InvalidArgument("challenge scheme %q is not Digest", c.Scheme)
	}

	dc := &digestChallenge{
		realm:     c.Params["realm"],
		nonce:     c.Params["nonce"],
		opaque:    c.Params["opaque"],
		algorithm: c.Params["algorithm"],
		stale:     strings.EqualFold(c.Params["stale"], "true"),
	}
	if dc.nonce == "" {
		return http.InvalidArgument("digest challenge has no nonce")
	}
	if _, err := newHash(dc.algorithm); err != nil {
		return err
	}
	for _, qop := range strings.Split(c.Params["qop"], ",") {
		if qop = strings.ToLower(rule.TrimOWS(qop)); qop != "" {
			dc.qop = append(dc.qop, qop)
		}
	}

	if d.challenge == nil || d.challenge.nonce != dc.nonce {
		d.nc = 0
	}
	d.challenge = dc
	return nil
}

// Challenge accepts the first Digest challenge of a 401 response.
// A challenge repeating the nonce already answered means the credentials
// were rejected, unless the server marks the nonce as stale.
func (d *Digest) Challenge(req *http.Request, res *http.Response) (bool, error) {
	if res.StatusCode != 401 {
		return false, nil
	}

	challenges, err := ParseChallenges(res.Headers.Values("WWW-Authenticate"))
	if err != nil {
		return false, http.ProtocolErrorWrap(err, "malformed WWW-Authenticate")
	}

	for _, c := range challenges {
		if !strings.EqualFold(c.Scheme, "Digest") {
			continue
		}

		answered := d.challenge != nil && d.nc > 0 && d.challenge.nonce == c.Params["nonce"]
		if answered && !strings.EqualFold(c.Params["stale"], "true") {
			return false, nil
		}

		if err := d.SetChallenge(c); err != nil {
			return false, err
		}
		return true, nil
	}

	return false, nil
}

// Authenticate adds the Authorization field once a challenge is known.
func (d *Digest) Authenticate(req *http.Request) error {
	if d.challenge == nil {
		return nil
	}

	cnonce, err := d.newCnonce()
	if err != nil {
		return errors.Wrap(err, "generating cnonce")
	}

	d.nc++
	value, err := d.authorization(req, cnonce, d.nc)
	if err != nil {
		return err
	}

	req.Headers.Set("Authorization", value)
	return nil
}

func (d *Digest) authorization(req *http.Request, cnonce string, nc uint32) (string, error) {
	c := d.challenge

	h, err := newHash(c.algorithm)
	if err != nil {
		return "", err
	}
	digest := func(parts ...string) string {
		h.Reset()
		h.Write([]byte(strings.Join(parts, ":")))
		return hex.EncodeToString(h.Sum(nil))
	}

	qop := selectQop(c.qop)
	if qop == "" && len(c.qop) > 0 {
		return "", http.InvalidArgument("unsupported qop %q", strings.Join(c.qop, ","))
	}
	ncValue := formatNC(nc)
	uri := req.URI.RequestTarget()

	ha1 := digest(d.username, c.realm, d.password)
	if strings.HasSuffix(strings.ToLower(c.algorithm), "-sess") {
		ha1 = digest(ha1, c.nonce, cnonce)
	}

	var ha2 string
	switch qop {
	case QopAuthInt:
		var body []byte
		if req.Body != nil {
			if body, err = entity.ReadAll(req.Body); err != nil {
				return "", errors.Wrap(err, "reading body for auth-int")
			}
		}
		h.Reset()
		h.Write(body)
		ha2 = digest(string(req.Method), uri, hex.EncodeToString(h.Sum(nil)))
	default:
		ha2 = digest(string(req.Method), uri)
	}

	var response string
	if qop == "" {
		// RFC 2069 compatibility.
		response = digest(ha1, c.nonce, ha2)
	} else {
		response = digest(ha1, c.nonce, ncValue, cnonce, qop, ha2)
	}

	b := new(strings.Builder)
	b.WriteString("Digest ")
	b.WriteString("username=" + rule.Quote(d.username))
	b.WriteString(", realm=" + rule.Quote(c.realm))
	b.WriteString(", nonce=" + rule.Quote(c.nonce))
	b.WriteString(", uri=" + rule.Quote(uri))
	if c.algorithm != "" {
		b.WriteString(", algorithm=" + c.algorithm)
	}
	if qop != "" {
		b.WriteString(", qop=" + qop)
		b.WriteString(", nc=" + ncValue)
		b.WriteString(", cnonce=" + rule.Quote(cnonce))
	}
	b.WriteString(", response=" + rule.Quote(response))
	if c.opaque != "" {
		b.WriteString(", opaque=" + rule.Quote(c.opaque))
	}

	return b.String(), nil
}

func newHash(algorithm string) (hash.Hash, error) {
	switch strings.ToUpper(algorithm) {
	case "", strings.ToUpper(AlgorithmMD5), strings.ToUpper(AlgorithmMD5Sess):
		return md5.New(), nil
	case AlgorithmSHA256, strings.ToUpper(AlgorithmSHA256Sess):
		return sha256.New(), nil
	}
	return nil, http.InvalidArgument("unsupported digest algorithm %q", algorithm)
}

// selectQop prefers "auth" since it does not need the body.
func selectQop(offered []string) string {
	for _, want := range []string{QopAuth, QopAuthInt} {
		for _, qop := range offered {
			if qop == want {
				return qop
			}
		}
	}
	return ""
}

func formatNC(nc uint32) string {
	s := strconv.FormatUint(uint64(nc), 16)
	return strings.Repeat("0", 8-len(s)) + s
}

// newCnonce mixes the current time with random bytes.
func (d *Digest) newCnonce() (string, error) {
	buf := make([]byte, 16)
	binary.BigEndian.PutUint64(buf[:8], uint64(d.clock.Now().UnixNano()))
	if _, err := io.ReadFull(d.rand, buf[8:]); err != nil {
		return "", err
	}

	sum := md5.Sum(buf)
	return hex.EncodeToString(sum[:8]), nil
}
