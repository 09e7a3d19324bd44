package httpclient

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/gregjones/httpcache"
)

const defaultTimeout = 15 * time.Second

// Options tunes the underlying resty client.
type Options struct {
	Timeout time.Duration
	// Cache routes requests through an in-memory RFC 7234 cache so
	// ETag/Last-Modified revalidation is handled transparently.
	Cache bool
}

// RestyClient adapts resty.Client to the httpclient.Client interface.
type RestyClient struct {
	client *resty.Client
}

// NewRestyClient creates a new RestyClient with the specified options.
func NewRestyClient(opts Options) *RestyClient {
	return &RestyClient{client: newRestyBaseClient(opts)}
}

// NewRestyHTTPClient exposes a configured resty.Client for callers needing custom verbs.
func NewRestyHTTPClient(timeout time.Duration) *resty.Client {
	return newRestyBaseClient(Options{Timeout: timeout})
}

// newRestyBaseClient creates a new resty.Client with the specified options.
func newRestyBaseClient(opts Options) *resty.Client {
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	c := resty.New()
	c.SetTimeout(opts.Timeout)
	if opts.Cache {
		c.SetTransport(httpcache.NewMemoryCacheTransport())
	}
	return c
}

// Get performs an HTTP GET request with the specified context, URL, and headers.
func (r *RestyClient) Get(ctx context.Context, url string, headers map[string]string) (Response, error) {
	return r.Do(ctx, Request{Method: http.MethodGet, URL: url, Headers: headers})
}

// Do performs the request with the given method, headers and raw body.
func (r *RestyClient) Do(ctx context.Context, in Request) (Response, error) {
	method := strings.ToUpper(strings.TrimSpace(in.Method))
	if method == "" {
		method = http.MethodGet
	}

	req := r.client.R().SetContext(ctx)
	if len(in.Headers) > 0 {
		req.SetHeaders(in.Headers)
	}
	if in.Body != nil {
		req.SetBody(in.Body)
	}

	resp, err := req.Execute(method, in.URL)
	if err != nil {
		return nil, err
	}
	return &restyResponseAdapter{resp: resp}, nil
}

// restyResponseAdapter adapts resty.Response to the httpclient.Response interface.
type restyResponseAdapter struct {
	resp *resty.Response
}

func (r *restyResponseAdapter) Body() []byte        { return r.resp.Body() }
func (r *restyResponseAdapter) StatusCode() int     { return r.resp.StatusCode() }
func (r *restyResponseAdapter) Header() http.Header { return r.resp.Header() }
