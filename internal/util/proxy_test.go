package util

import (
	"net/http"
	"testing"
)

func mustRequest(t *testing.T, rawurl string) *http.Request {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, rawurl, nil)
	if err != nil {
		t.Fatalf("NewRequest(%q): %v", rawurl, err)
	}
	return req
}

func TestNewProxyFuncExplicit(t *testing.T) {
	proxy := NewProxyFunc("http://proxy.local:3128", "http://sproxy.local:3128")

	u, err := proxy(mustRequest(t, "http://example.org/api"))
	if err != nil {
		t.Fatalf("proxy func returned error: %v", err)
	}
	if u == nil || u.Host != "proxy.local:3128" {
		t.Errorf("http request: got %v, want proxy.local:3128", u)
	}

	u, err = proxy(mustRequest(t, "https://example.org/api"))
	if err != nil {
		t.Fatalf("proxy func returned error: %v", err)
	}
	if u == nil || u.Host != "sproxy.local:3128" {
		t.Errorf("https request: got %v, want sproxy.local:3128", u)
	}
}

func TestNewProxyFuncHTTPFallbackForHTTPS(t *testing.T) {
	// Only an HTTP proxy configured: HTTPS requests use it too.
	proxy := NewProxyFunc("http://proxy.local:3128", "")

	u, err := proxy(mustRequest(t, "https://example.org/api"))
	if err != nil {
		t.Fatalf("proxy func returned error: %v", err)
	}
	if u == nil || u.Host != "proxy.local:3128" {
		t.Errorf("got %v, want proxy.local:3128", u)
	}
}

func TestNewProxyFuncEnvironmentDefault(t *testing.T) {
	t.Setenv("HTTP_PROXY", "")
	t.Setenv("HTTPS_PROXY", "")
	t.Setenv("NO_PROXY", "")

	proxy := NewProxyFunc("", "")

	u, err := proxy(mustRequest(t, "http://example.org/api"))
	if err != nil {
		t.Fatalf("proxy func returned error: %v", err)
	}
	if u != nil {
		t.Errorf("expected nil proxy with empty environment, got %v", u)
	}
}
