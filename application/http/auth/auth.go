// Package auth implements HTTP authentication schemes for the client.
//
// Reference: https://datatracker.ietf.org/doc/html/rfc9110#section-11
package auth

import (
	"httpclient/application/http"
)

// Provider adds credentials to a request before it is sent.
type Provider interface {
	Authenticate(req *http.Request) error
}

// Challenger is a [Provider] that learns from a 401 response.
// Challenge reports whether the request should be sent again
// with the credentials derived from the challenge.
type Challenger interface {
	Provider
	Challenge(req *http.Request, res *http.Response) (bool, error)
}
