package httpclient

import (
	"context"
	"net/http"
)

// Response is a minimal HTTP response contract.
type Response interface {
	Body() []byte
	StatusCode() int
	Header() http.Header
}

// Request describes a single outbound call. A nil Body sends no payload.
type Request struct {
	Method  string
	URL     string
	Headers map[string]string
	Body    []byte
}

// Client abstracts HTTP calls so callers can inject mocks or different transports.
type Client interface {
	Get(ctx context.Context, url string, headers map[string]string) (Response, error)
	Do(ctx context.Context, req Request) (Response, error)
}
