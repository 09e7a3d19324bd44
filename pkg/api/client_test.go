package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/samvad-hq/samvad-board-client/pkg/httpclient"
)

// recordedRequest captures what the test server saw.
type recordedRequest struct {
	Method string
	Path   string
	Query  string
	Header http.Header
	Body   []byte
}

// testServer replies with a fixed status and body and records every request.
type testServer struct {
	*httptest.Server
	mu       sync.Mutex
	requests []recordedRequest
}

func newTestServer(t *testing.T, status int, body string) *testServer {
	t.Helper()
	ts := &testServer{}
	ts.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		ts.mu.Lock()
		ts.requests = append(ts.requests, recordedRequest{
			Method: r.Method,
			Path:   r.URL.EscapedPath(),
			Query:  r.URL.RawQuery,
			Header: r.Header.Clone(),
			Body:   raw,
		})
		ts.mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(ts.Close)
	return ts
}

func (ts *testServer) last(t *testing.T) recordedRequest {
	t.Helper()
	ts.mu.Lock()
	defer ts.mu.Unlock()
	if len(ts.requests) == 0 {
		t.Fatalf("server received no request")
	}
	return ts.requests[len(ts.requests)-1]
}

func newTestClient(t *testing.T, ts *testServer, env StaticEnvironment) *Client {
	t.Helper()
	env.BaseURL = ts.URL + "/api"
	c, err := NewClient(env)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return c
}

func decodeUseNumber(t *testing.T, raw string, out any) {
	t.Helper()
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(out); err != nil {
		t.Fatalf("decode fixture: %v", err)
	}
}

func decodeEvent(t *testing.T, raw string) Event {
	t.Helper()
	var ev Event
	decodeUseNumber(t, raw, &ev)
	return ev
}

func decodeEvents(t *testing.T, raw string) []Event {
	t.Helper()
	var evs []Event
	decodeUseNumber(t, raw, &evs)
	return evs
}

func TestEndpointsReturnServerPayloadUnmodified(t *testing.T) {
	const eventJSON = `{"id":7,"slug":"dark-mode","title":"Dark mode","status":"planned","meta":{"x":[1,2.5,null]},"votes":12}`

	cases := []struct {
		name   string
		body   string
		method string
		path   string
		call   func(context.Context, *Client) (any, error)
		want   func(t *testing.T) any
	}{
		{
			name: "events", body: `[` + eventJSON + `]`, method: http.MethodGet, path: "/api/events",
			call: func(ctx context.Context, c *Client) (any, error) { return c.GetEvents(ctx) },
			want: func(t *testing.T) any { return decodeEvents(t, `[`+eventJSON+`]`) },
		},
		{
			name: "event by id", body: eventJSON, method: http.MethodGet, path: "/api/events/7",
			call: func(ctx context.Context, c *Client) (any, error) { return c.GetEvent(ctx, 7) },
			want: func(t *testing.T) any { return decodeEvent(t, eventJSON) },
		},
		{
			name: "event by slug", body: eventJSON, method: http.MethodGet, path: "/api/events/slug/dark%20mode",
			call: func(ctx context.Context, c *Client) (any, error) { return c.GetEventBySlug(ctx, "dark mode") },
			want: func(t *testing.T) any { return decodeEvent(t, eventJSON) },
		},
		{
			name:   "events by category",
			body:   `{"success":true,"theme_id":"t1","theme_name":"Roadmap","categories":{"c1":[` + eventJSON + `]}}`,
			method: http.MethodGet, path: "/api/events/by-category",
			call: func(ctx context.Context, c *Client) (any, error) { return c.GetEventsByCategory(ctx) },
			want: func(t *testing.T) any {
				return EventsByCategory{
					Success:    true,
					ThemeID:    "t1",
					ThemeName:  "Roadmap",
					Categories: map[string][]Event{"c1": {decodeEvent(t, eventJSON)}},
				}
			},
		},
		{
			name: "vote", body: `{"message":"ok","votes":13,"voted":true}`, method: http.MethodPost, path: "/api/events/7/vote",
			call: func(ctx context.Context, c *Client) (any, error) { return c.VoteEvent(ctx, 7) },
			want: func(*testing.T) any { return VoteResult{Message: "ok", Votes: 13, Voted: true} },
		},
		{
			name: "vote status", body: `{"voted":false,"votes":3}`, method: http.MethodGet, path: "/api/events/7/vote-status",
			call: func(ctx context.Context, c *Client) (any, error) { return c.CheckVoteStatus(ctx, 7) },
			want: func(*testing.T) any { return VoteStatus{Voted: false, Votes: 3} },
		},
		{
			name: "project settings", body: `{"name":"Board","public":true}`, method: http.MethodGet, path: "/api/settings",
			call: func(ctx context.Context, c *Client) (any, error) { return c.GetSettings(ctx) },
			want: func(*testing.T) any { return ProjectSettings{"name": "Board", "public": true} },
		},
		{
			name: "newsletter status", body: `{"subscribed":true,"active":false}`, method: http.MethodGet, path: "/api/newsletter/status",
			call: func(ctx context.Context, c *Client) (any, error) { return c.CheckNewsletterSubscription(ctx, "a@b.c") },
			want: func(*testing.T) any { return NewsletterStatus{Subscribed: true, Active: false} },
		},
		{
			name: "footer links", body: `{"links":{"left":[{"label":"Docs","url":"/docs"}]}}`, method: http.MethodGet, path: "/api/footer-links/by-column",
			call: func(ctx context.Context, c *Client) (any, error) { return c.GetFooterLinksByColumn(ctx) },
			want: func(*testing.T) any {
				return FooterLinks{Links: map[string][]map[string]any{"left": {{"label": "Docs", "url": "/docs"}}}}
			},
		},
		{
			name: "tags", body: `[{"name":"ui"},{"name":"api"}]`, method: http.MethodGet, path: "/api/tags",
			call: func(ctx context.Context, c *Client) (any, error) { return c.GetTags(ctx) },
			want: func(*testing.T) any { return []Tag{{"name": "ui"}, {"name": "api"}} },
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ts := newTestServer(t, http.StatusOK, tc.body)
			c := newTestClient(t, ts, StaticEnvironment{})

			got, err := tc.call(context.Background(), c)
			if err != nil {
				t.Fatalf("call: %v", err)
			}
			if diff := cmp.Diff(tc.want(t), got); diff != "" {
				t.Fatalf("payload mismatch (-want +got):\n%s", diff)
			}

			req := ts.last(t)
			if req.Method != tc.method {
				t.Fatalf("expected %s, got %s", tc.method, req.Method)
			}
			if req.Path != tc.path {
				t.Fatalf("expected path %s, got %s", tc.path, req.Path)
			}
		})
	}
}

func TestErrorBodyMessageIsReturned(t *testing.T) {
	ts := newTestServer(t, http.StatusBadRequest, `{"error":"title is required"}`)
	c := newTestClient(t, ts, StaticEnvironment{})

	_, err := c.SubmitFeedback(context.Background(), "", "body", 1)
	if err == nil {
		t.Fatalf("expected error")
	}
	if err.Error() != "title is required" {
		t.Fatalf("unexpected message %q", err.Error())
	}
	var httpErr *HTTPError
	if !errors.As(err, &httpErr) || httpErr.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected HTTPError with status 400, got %#v", err)
	}
}

func TestErrorWithoutUsableBodyUsesStatus(t *testing.T) {
	for _, body := range []string{`<html>oops</html>`, ``, `{}`, `{"error":""}`, `{"error":42}`, `{"error":"X"} <html>`} {
		ts := newTestServer(t, http.StatusInternalServerError, body)
		c := newTestClient(t, ts, StaticEnvironment{})

		_, err := c.GetEvents(context.Background())
		if err == nil || err.Error() != "HTTP 500" {
			t.Fatalf("body %q: expected HTTP 500, got %v", body, err)
		}
	}
}

func TestMalformedSuccessBodyIsDecodeError(t *testing.T) {
	ts := newTestServer(t, http.StatusOK, `{"id":`)
	c := newTestClient(t, ts, StaticEnvironment{})

	_, err := c.GetEvent(context.Background(), 1)
	if err == nil || !strings.HasPrefix(err.Error(), "decode response") {
		t.Fatalf("expected decode error, got %v", err)
	}
}

func TestTrailingDataAfterSuccessBodyIsDecodeError(t *testing.T) {
	for _, body := range []string{`[{"id":1}] <html>oops`, `{"id":1}{"id":2}`} {
		ts := newTestServer(t, http.StatusOK, body)
		c := newTestClient(t, ts, StaticEnvironment{})

		events, err := c.GetEvents(context.Background())
		if err == nil || !strings.HasPrefix(err.Error(), "decode response") {
			t.Fatalf("body %q: expected decode error, got events=%v err=%v", body, events, err)
		}
		if outcome(err) != "decode" {
			t.Fatalf("body %q: outcome = %s", body, outcome(err))
		}
	}
}

func TestTrailingWhitespaceIsAccepted(t *testing.T) {
	ts := newTestServer(t, http.StatusOK, "[{\"id\":1}]\n  ")
	c := newTestClient(t, ts, StaticEnvironment{})

	events, err := c.GetEvents(context.Background())
	if err != nil || len(events) != 1 {
		t.Fatalf("expected one event, got %v err=%v", events, err)
	}
}

func TestHeaderMergeCallerWins(t *testing.T) {
	ts := newTestServer(t, http.StatusOK, `{}`)
	c := newTestClient(t, ts, StaticEnvironment{
		APIKey:  "key-1",
		Token:   "tok",
		Headers: map[string]string{"content-type": "application/vnd.auth+json"},
	})

	_, err := Request[map[string]any](context.Background(), c, "/settings", RequestOptions{
		Headers: map[string]string{
			"Authorization": "Bearer caller",
			"X-Trace":       "abc",
		},
	})
	if err != nil {
		t.Fatalf("Request: %v", err)
	}

	h := ts.last(t).Header
	if got := h.Get("Authorization"); got != "Bearer caller" {
		t.Fatalf("caller header should beat auth header, got %q", got)
	}
	if got := h.Get("X-Api-Key"); got != "key-1" {
		t.Fatalf("auth header missing, got %q", got)
	}
	if got := h.Get("Content-Type"); got != "application/vnd.auth+json" {
		t.Fatalf("auth header should beat default content type, got %q", got)
	}
	if got := h.Get("X-Trace"); got != "abc" {
		t.Fatalf("caller header missing, got %q", got)
	}
}

func TestCredentialHeadersBeatExtraHeaders(t *testing.T) {
	env := StaticEnvironment{
		APIKey:  "from-api-key",
		Token:   "from-token",
		Headers: map[string]string{"x-api-key": "from-extra", "authorization": "Basic extra", "x-tenant": "acme"},
	}
	ts := newTestServer(t, http.StatusOK, `{}`)
	c := newTestClient(t, ts, env)

	for i := 0; i < 50; i++ {
		if _, err := c.GetSettings(context.Background()); err != nil {
			t.Fatalf("GetSettings: %v", err)
		}
		h := ts.last(t).Header
		if got := h.Get("X-Api-Key"); got != "from-api-key" {
			t.Fatalf("call %d: X-Api-Key = %q", i, got)
		}
		if got := h.Get("Authorization"); got != "Bearer from-token" {
			t.Fatalf("call %d: Authorization = %q", i, got)
		}
		if got := h.Get("X-Tenant"); got != "acme" {
			t.Fatalf("call %d: extra header missing, got %q", i, got)
		}
	}

	auth := env.AuthHeaders()
	if len(auth) != 3 {
		t.Fatalf("expected colliding names to collapse, got %v", auth)
	}
}

func TestHeaderMergeCallerOverridesContentType(t *testing.T) {
	ts := newTestServer(t, http.StatusOK, `{}`)
	c := newTestClient(t, ts, StaticEnvironment{})

	_, err := Request[map[string]any](context.Background(), c, "/settings", RequestOptions{
		Headers: map[string]string{"content-type": "text/plain"},
	})
	if err != nil {
		t.Fatalf("Request: %v", err)
	}
	if got := ts.last(t).Header.Get("Content-Type"); got != "text/plain" {
		t.Fatalf("expected caller content type, got %q", got)
	}
}

func TestDefaultContentTypeIsJSON(t *testing.T) {
	ts := newTestServer(t, http.StatusOK, `[]`)
	c := newTestClient(t, ts, StaticEnvironment{})

	if _, err := c.GetTags(context.Background()); err != nil {
		t.Fatalf("GetTags: %v", err)
	}
	if got := ts.last(t).Header.Get("Content-Type"); got != "application/json" {
		t.Fatalf("unexpected content type %q", got)
	}
}

func TestSubmitFeedbackBody(t *testing.T) {
	ts := newTestServer(t, http.StatusCreated, `{"message":"thanks","id":99}`)
	c := newTestClient(t, ts, StaticEnvironment{})

	res, err := c.SubmitFeedback(context.Background(), "Idea", "Add RSS", 1700000000000)
	if err != nil {
		t.Fatalf("SubmitFeedback: %v", err)
	}
	if res.ID != 99 || res.Message != "thanks" {
		t.Fatalf("unexpected result %+v", res)
	}

	req := ts.last(t)
	if req.Method != http.MethodPost || req.Path != "/api/feedback" {
		t.Fatalf("unexpected request %s %s", req.Method, req.Path)
	}
	var body map[string]any
	decodeUseNumber(t, string(req.Body), &body)
	want := map[string]any{"title": "Idea", "content": "Add RSS", "form_start_time": json.Number("1700000000000")}
	if diff := cmp.Diff(want, body); diff != "" {
		t.Fatalf("body mismatch (-want +got):\n%s", diff)
	}
}

func TestNewsletterRequests(t *testing.T) {
	ts := newTestServer(t, http.StatusOK, `{"message":"ok","email":"a+b@example.com","already_subscribed":true}`)
	c := newTestClient(t, ts, StaticEnvironment{})

	sub, err := c.SubscribeToNewsletter(context.Background(), "a+b@example.com")
	if err != nil {
		t.Fatalf("SubscribeToNewsletter: %v", err)
	}
	if sub.AlreadySubscribed == nil || !*sub.AlreadySubscribed {
		t.Fatalf("expected already_subscribed true, got %+v", sub)
	}
	req := ts.last(t)
	if req.Path != "/api/newsletter/subscribe" || !bytes.Equal(req.Body, []byte(`{"email":"a+b@example.com"}`)) {
		t.Fatalf("unexpected subscribe request %s %s", req.Path, req.Body)
	}

	if _, err := c.UnsubscribeFromNewsletter(context.Background(), "a+b@example.com"); err != nil {
		t.Fatalf("UnsubscribeFromNewsletter: %v", err)
	}
	if req := ts.last(t); req.Method != http.MethodPost || req.Path != "/api/newsletter/unsubscribe" {
		t.Fatalf("unexpected unsubscribe request %s %s", req.Method, req.Path)
	}

	if _, err := c.CheckNewsletterSubscription(context.Background(), "a+b@example.com"); err != nil {
		t.Fatalf("CheckNewsletterSubscription: %v", err)
	}
	if q := ts.last(t).Query; q != "email=a%2Bb%40example.com" {
		t.Fatalf("email not query-escaped: %q", q)
	}
}

func TestGetThemeSettingsKeepsRawSettings(t *testing.T) {
	ts := newTestServer(t, http.StatusOK, `{"success":true,"settings":{"enable-translations":false}}`)
	c := newTestClient(t, ts, StaticEnvironment{})

	resp, err := c.GetThemeSettings(context.Background())
	if err != nil {
		t.Fatalf("GetThemeSettings: %v", err)
	}
	if !resp.Success || string(resp.Settings) != `{"enable-translations":false}` {
		t.Fatalf("unexpected response %+v (%s)", resp, resp.Settings)
	}
	if ts.last(t).Path != "/api/settings/theme" {
		t.Fatalf("unexpected path %s", ts.last(t).Path)
	}
}

// failingTransport always returns err.
type failingTransport struct {
	err error
}

func (f failingTransport) Get(context.Context, string, map[string]string) (httpclient.Response, error) {
	return nil, f.err
}

func (f failingTransport) Do(context.Context, httpclient.Request) (httpclient.Response, error) {
	return nil, f.err
}

// recordingLogger keeps debug and error log messages.
type recordingLogger struct {
	mu     sync.Mutex
	debug  []string
	errors []string
}

func (r *recordingLogger) DebugObj(msg, _ string, _ interface{}) {
	r.mu.Lock()
	r.debug = append(r.debug, msg)
	r.mu.Unlock()
}

func (r *recordingLogger) count(msg string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, m := range r.debug {
		if m == msg {
			n++
		}
	}
	return n
}

func (r *recordingLogger) ErrorObj(msg, _ string, _ interface{}) {
	r.mu.Lock()
	r.errors = append(r.errors, msg)
	r.mu.Unlock()
}

func TestTransportErrorIsLoggedAndReturnedUnchanged(t *testing.T) {
	boom := errors.New("connection refused")
	log := &recordingLogger{}
	c, err := NewClient(StaticEnvironment{BaseURL: "http://unused"}, WithHTTPClient(failingTransport{err: boom}), WithLogger(log))
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	_, err = c.GetTags(context.Background())
	if err != boom {
		t.Fatalf("expected the transport error itself, got %v", err)
	}
	if len(log.errors) != 1 {
		t.Fatalf("expected one error log, got %v", log.errors)
	}
}

func TestCachedResponseIsLogged(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Cache-Control", "max-age=60")
		_, _ = io.WriteString(w, `[{"id":1,"name":"ui"}]`)
	}))
	defer srv.Close()

	log := &recordingLogger{}
	c, err := NewClient(StaticEnvironment{BaseURL: srv.URL},
		WithHTTPClient(httpclient.NewRestyClient(httpclient.Options{Cache: true})),
		WithLogger(log))
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	for i := 0; i < 2; i++ {
		tags, err := c.GetTags(context.Background())
		if err != nil || len(tags) != 1 {
			t.Fatalf("GetTags %d: %v %v", i, tags, err)
		}
	}
	if got := hits.Load(); got != 1 {
		t.Fatalf("expected one upstream hit, got %d", got)
	}
	if got := log.count("api response served from cache"); got != 1 {
		t.Fatalf("expected one cache log, got %d", got)
	}
}

func TestNewClientRequiresEnvironment(t *testing.T) {
	if _, err := NewClient(nil); err == nil {
		t.Fatalf("expected error for nil environment")
	}
}

func TestOutcomeLabels(t *testing.T) {
	cases := map[string]error{
		"ok":        nil,
		"4xx":       &HTTPError{StatusCode: 404, Message: "x"},
		"5xx":       &HTTPError{StatusCode: 503, Message: "x"},
		"decode":    &decodeError{err: io.ErrUnexpectedEOF},
		"transport": errors.New("dial"),
	}
	for want, err := range cases {
		if got := outcome(err); got != want {
			t.Fatalf("outcome(%v) = %s, want %s", err, got, want)
		}
	}
}
