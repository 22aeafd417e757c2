package client

import (
	"context"
	"httpclient/application/http"
	"httpclient/lib/ds/queue"

	"github.com/pkg/errors"
)

// QueueTransport answers requests with canned responses, in order.
// Once the queue is empty the default response is used, if set.
// Every request it receives is recorded.
type QueueTransport struct {
	responses queue.Queue[*http.Response]
	fallback  *http.Response

	requests []*http.Request
}

var _ Transport = (*QueueTransport)(nil)

func NewQueueTransport() *QueueTransport {
	return &QueueTransport{}
}

func (q *QueueTransport) Enqueue(responses ...*http.Response) {
	for _, res := range responses {
		q.responses.Enqueue(res.Clone())
	}
}

// EnqueueRaw parses raw as a complete response and enqueues it.
// Everything after the head is taken as the body.
func (q *QueueTransport) EnqueueRaw(raw string) error {
	res, err := http.ParseResponse([]byte(raw))
	if err != nil {
		return errors.Wrap(err, "parsing canned response")
	}
	q.responses.Enqueue(res)
	return nil
}

// SetDefault sets the response used when the queue is empty.
// nil makes an empty queue fail the exchange.
func (q *QueueTransport) SetDefault(res *http.Response) {
	if res != nil {
		res = res.Clone()
	}
	q.fallback = res
}

// Requests returns copies of the requests received so far.
func (q *QueueTransport) Requests() []*http.Request {
	out := make([]*http.Request, 0, len(q.requests))
	for _, req := range q.requests {
		out = append(out, req.Clone())
	}
	return out
}

// Len returns the number of responses left in the queue.
func (q *QueueTransport) Len() int { return int(q.responses.Len()) }

func (q *QueueTransport) Send(ctx context.Context, req *http.Request) (*http.Response, error) {
	if req == nil {
		return nil, http.InvalidArgument("request is nil")
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, http.ConnectionError(err, "request canceled")
	}

	q.requests = append(q.requests, req.Clone())

	res, err := q.responses.Dequeue()
	if errors.Is(err, queue.ErrQueueEmpty) {
		if q.fallback == nil {
			return nil, http.ConnectionError(nil, "no response queued for %s %s", req.Method, req.URI.String())
		}
		return q.fallback.Clone(), nil
	}
	return res, nil
}
