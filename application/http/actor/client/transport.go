package client

import (
	"context"
	"httpclient/application/http"
)

// Transport performs exactly one request/response exchange.
type Transport interface {
	Send(ctx context.Context, req *http.Request) (*http.Response, error)
}
