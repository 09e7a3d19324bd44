package api

import (
	"net/http"
	"strings"
)

// Environment supplies the deployment-specific parts of a request: where an
// endpoint lives and which credentials go with it.
type Environment interface {
	// Endpoint resolves a path such as "/events" to an absolute URL.
	Endpoint(path string) string
	// AuthHeaders returns the headers that authenticate a request.
	AuthHeaders() map[string]string
	// Describe summarizes the environment for startup logs. It must not
	// include secrets.
	Describe() map[string]any
}

// StaticEnvironment is an Environment backed by fixed values.
type StaticEnvironment struct {
	BaseURL string
	APIKey  string
	Token   string
	// Headers are sent with every request, before the auth headers.
	Headers map[string]string
}

// Endpoint joins BaseURL and path with exactly one slash.
func (e StaticEnvironment) Endpoint(path string) string {
	base := strings.TrimRight(strings.TrimSpace(e.BaseURL), "/")
	if path == "" {
		return base
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return base + path
}

// AuthHeaders returns Headers plus X-API-Key and Authorization headers for
// whichever credentials are set. Keys are canonical, so a credential header
// always replaces an extra header of the same name.
func (e StaticEnvironment) AuthHeaders() map[string]string {
	headers := make(map[string]string, len(e.Headers)+2)
	for k, v := range e.Headers {
		headers[http.CanonicalHeaderKey(k)] = v
	}
	if key := strings.TrimSpace(e.APIKey); key != "" {
		headers[http.CanonicalHeaderKey("X-API-Key")] = key
	}
	if token := strings.TrimSpace(e.Token); token != "" {
		headers["Authorization"] = "Bearer " + token
	}
	return headers
}

func (e StaticEnvironment) Describe() map[string]any {
	return map[string]any{
		"base_url":      strings.TrimSpace(e.BaseURL),
		"api_key_set":   strings.TrimSpace(e.APIKey) != "",
		"token_set":     strings.TrimSpace(e.Token) != "",
		"extra_headers": len(e.Headers),
	}
}
