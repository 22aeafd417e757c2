package codec

import (
	"httpclient/application/http"
)

// gzipHeaderLen is the size of the fixed gzip member header.
// Reference: https://datatracker.ietf.org/doc/html/rfc1952#section-2.3
const gzipHeaderLen = 10

// Gzip decodes the "gzip" coding.
// It discards the fixed header and inflates the raw deflate data that follows.
// Optional header fields are not supported.
type Gzip struct {
	header  [gzipHeaderLen]byte
	skipped int

	inflater *Deflate
}

var _ Codec = (*Gzip)(nil)

func NewGzip() *Gzip {
	return &Gzip{inflater: newInflater(false)}
}

func (g *Gzip) Filter(p []byte) ([]byte, error) {
	if g.skipped < gzipHeaderLen {
		n := copy(g.header[g.skipped:], p)
		g.skipped += n
		p = p[n:]

		if g.skipped == gzipHeaderLen && (g.header[0] != 0x1f || g.header[1] != 0x8b) {
			return nil, http.ProtocolError("gzip magic number mismatch: % x", g.header[:2])
		}
		if len(p) == 0 {
			return nil, nil
		}
	}

	return g.inflater.Filter(p)
}

func (g *Gzip) Close() ([]byte, error) {
	if g.skipped > 0 && g.skipped < gzipHeaderLen {
		_, _ = g.inflater.Close()
		return nil, http.ProtocolError("truncated compressed body")
	}
	return g.inflater.Close()
}
