package client

import (
	"httpclient/application/http"
	"httpclient/session/tls"
	"time"
)

type Options struct {
	// MaxRedirects bounds how many redirects a single Send follows.
	MaxRedirects int
	// StrictRedirects keeps the method and body on 301 and 302.
	// 303 always switches to GET.
	StrictRedirects bool

	// UserAgent is sent when the request has no User-Agent of its own.
	UserAgent string
	// EncodeCookies percent-encodes stored cookie values that are not cookie-octets.
	EncodeCookies bool

	Transport TransportOptions
}

type TransportOptions struct {
	KeepAlive bool
	// Timeout bounds the connect and every single read. Zero means no timeout.
	Timeout time.Duration
	// AcceptEncoding advertises the content codings the transport decodes.
	AcceptEncoding bool

	Decode http.DecodeOptions
	TLS    tls.Options
}

var DefaultTransportOptions = TransportOptions{
	KeepAlive:      true,
	Timeout:        30 * time.Second,
	AcceptEncoding: true,
	Decode:         http.DefaultDecodeOptions,
	TLS:            tls.DefaultOptions,
}

var DefaultOptions = Options{
	MaxRedirects: 5,
	Transport:    DefaultTransportOptions,
}
