// Package status holds HTTP status codes, their reason phrases and the
// classifications the client acts on.
package status

// Reference: https://datatracker.ietf.org/doc/html/rfc9110#section-15
const (
	Continue           uint = 100
	SwitchingProtocols uint = 101

	OK                   uint = 200
	Created              uint = 201
	Accepted             uint = 202
	NonAuthoritativeInfo uint = 203
	NoContent            uint = 204
	ResetContent         uint = 205
	PartialContent       uint = 206

	MultipleChoices   uint = 300
	MovedPermanently  uint = 301
	Found             uint = 302
	SeeOther          uint = 303
	NotModified       uint = 304
	UseProxy          uint = 305
	TemporaryRedirect uint = 307
	PermanentRedirect uint = 308

	BadRequest           uint = 400
	Unauthorized         uint = 401
	PaymentRequired      uint = 402
	Forbidden            uint = 403
	NotFound             uint = 404
	MethodNotAllowed     uint = 405
	NotAcceptable        uint = 406
	ProxyAuthRequired    uint = 407
	RequestTimeout       uint = 408
	Conflict             uint = 409
	Gone                 uint = 410
	LengthRequired       uint = 411
	PreconditionFailed   uint = 412
	ContentTooLarge      uint = 413
	URITooLong           uint = 414
	UnsupportedMediaType uint = 415
	RangeNotSatisfiable  uint = 416
	ExpectationFailed    uint = 417
	MisdirectedRequest   uint = 421
	UnprocessableContent uint = 422
	UpgradeRequired      uint = 426
	TooManyRequests      uint = 429 // RFC 6585

	InternalServerError     uint = 500
	NotImplemented          uint = 501
	BadGateway              uint = 502
	ServiceUnavailable      uint = 503
	GatewayTimeout          uint = 504
	HTTPVersionNotSupported uint = 505
)

var reasons = map[uint]string{
	Continue:           "Continue",
	SwitchingProtocols: "Switching Protocols",

	OK:                   "OK",
	Created:              "Created",
	Accepted:             "Accepted",
	NonAuthoritativeInfo: "Non-Authoritative Information",
	NoContent:            "No Content",
	ResetContent:         "Reset Content",
	PartialContent:       "Partial Content",

	MultipleChoices:   "Multiple Choices",
	MovedPermanently:  "Moved Permanently",
	Found:             "Found",
	SeeOther:          "See Other",
	NotModified:       "Not Modified",
	UseProxy:          "Use Proxy",
	TemporaryRedirect: "Temporary Redirect",
	PermanentRedirect: "Permanent Redirect",

	BadRequest:           "Bad Request",
	Unauthorized:         "Unauthorized",
	PaymentRequired:      "Payment Required",
	Forbidden:            "Forbidden",
	NotFound:             "Not Found",
	MethodNotAllowed:     "Method Not Allowed",
	NotAcceptable:        "Not Acceptable",
	ProxyAuthRequired:    "Proxy Authentication Required",
	RequestTimeout:       "Request Timeout",
	Conflict:             "Conflict",
	Gone:                 "Gone",
	LengthRequired:       "Length Required",
	PreconditionFailed:   "Precondition Failed",
	ContentTooLarge:      "Content Too Large",
	URITooLong:           "URI Too Long",
	UnsupportedMediaType: "Unsupported Media Type",
	RangeNotSatisfiable:  "Range Not Satisfiable",
	ExpectationFailed:    "Expectation Failed",
	MisdirectedRequest:   "Misdirected Request",
	UnprocessableContent: "Unprocessable Content",
	UpgradeRequired:      "Upgrade Required",
	TooManyRequests:      "Too Many Requests",

	InternalServerError:     "Internal Server Error",
	NotImplemented:          "Not Implemented",
	BadGateway:              "Bad Gateway",
	ServiceUnavailable:      "Service Unavailable",
	GatewayTimeout:          "Gateway Timeout",
	HTTPVersionNotSupported: "HTTP Version Not Supported",
}

// Text returns the default reason phrase of code, or "" if unknown.
func Text(code uint) string { return reasons[code] }

func IsInformational(code uint) bool { return 100 <= code && code < 200 }
func IsSuccess(code uint) bool       { return 200 <= code && code < 300 }
func IsRedirect(code uint) bool      { return 300 <= code && code < 400 }
func IsClientError(code uint) bool   { return 400 <= code && code < 500 }
func IsServerError(code uint) bool   { return 500 <= code && code < 600 }

// HasBody reports whether a response with code may carry content.
// Reference: https://datatracker.ietf.org/doc/html/rfc9112#section-6.3-2.1
func HasBody(code uint) bool {
	return !IsInformational(code) && code != NoContent && code != NotModified
}
