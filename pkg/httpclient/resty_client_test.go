package httpclient

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func TestRestyClientDoSendsMethodHeadersAndBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if got := r.Header.Get("X-Test"); got != "1" {
			t.Errorf("missing header, got %q", got)
		}
		body, _ := io.ReadAll(r.Body)
		if string(body) != `{"a":1}` {
			t.Errorf("unexpected body %q", body)
		}
		w.Header().Set("X-Reply", "yes")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`ok`))
	}))
	defer srv.Close()

	client := NewRestyClient(Options{Timeout: 2 * time.Second})
	resp, err := client.Do(context.Background(), Request{
		Method:  "post",
		URL:     srv.URL,
		Headers: map[string]string{"X-Test": "1"},
		Body:    []byte(`{"a":1}`),
	})
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	if resp.StatusCode() != http.StatusCreated {
		t.Fatalf("unexpected status %d", resp.StatusCode())
	}
	if string(resp.Body()) != "ok" {
		t.Fatalf("unexpected body %q", resp.Body())
	}
	if resp.Header().Get("X-Reply") != "yes" {
		t.Fatalf("missing response header")
	}
}

func TestRestyClientGetDefaultsMethod(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("expected GET, got %s", r.Method)
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	resp, err := NewRestyClient(Options{}).Get(context.Background(), srv.URL, nil)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if resp.StatusCode() != http.StatusNoContent {
		t.Fatalf("unexpected status %d", resp.StatusCode())
	}
}

func TestRestyClientCacheServesFreshResponses(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.Header().Set("Cache-Control", "max-age=60")
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	client := NewRestyClient(Options{Cache: true})
	for i := 0; i < 2; i++ {
		if _, err := client.Get(context.Background(), srv.URL, nil); err != nil {
			t.Fatalf("Get #%d: %v", i, err)
		}
	}
	if got := hits.Load(); got != 1 {
		t.Fatalf("expected 1 upstream hit with cache enabled, got %d", got)
	}
}
