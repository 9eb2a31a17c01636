package pipeline

import (
	"context"
	"testing"

	"github.com/kbukum/reqpipe/httpclient"
)

func TestNormalizeURL(t *testing.T) {
	tests := []struct {
		name string
		base string
		path string
		want string
	}{
		{"leading slash with trailing base slash", "https://api.example.com/", "/users", "https://api.example.com/users"},
		{"no slashes", "https://api.example.com", "users", "https://api.example.com/users"},
		{"empty path", "https://api.example.com", "", "https://api.example.com/"},
		{"empty path trailing base slash", "https://api.example.com/", "", "https://api.example.com/"},
		{"base with path", "https://api.example.com/v1/", "/users/7", "https://api.example.com/v1/users/7"},
		{"only one slash stripped from base", "https://api.example.com//", "users", "https://api.example.com//users"},
		{"only one slash stripped from path", "https://api.example.com", "/a//b", "https://api.example.com/a//b"},
		{"query kept", "https://api.example.com", "/users?page=1", "https://api.example.com/users?page=1"},
		{"absolute http", "https://api.example.com", "http://other.example.com/x", "http://other.example.com/x"},
		{"absolute https", "https://api.example.com", "https://other.example.com/x", "https://other.example.com/x"},
		{"scheme case-insensitive", "https://api.example.com", "HTTPS://other.example.com/x", "HTTPS://other.example.com/x"},
		{"protocol relative", "https://api.example.com", "//cdn.example.com/x", "//cdn.example.com/x"},
		{"empty base", "", "/users", "/users"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := NormalizeURL(httpclient.NewRequest("GET", tc.path), tc.base)
			if got.URL != tc.want {
				t.Errorf("NormalizeURL(%q, %q) = %q, want %q", tc.path, tc.base, got.URL, tc.want)
			}
		})
	}
}

func TestNormalizeURLIdempotent(t *testing.T) {
	bases := []string{"https://api.example.com", "https://api.example.com/", "http://h/v1/"}
	paths := []string{"", "/", "/users", "users?x=1", "https://abs.example.com/p", "//cdn/x"}
	for _, base := range bases {
		for _, p := range paths {
			once := NormalizeURL(httpclient.NewRequest("GET", p), base)
			twice := NormalizeURL(once, base)
			if once.URL != twice.URL {
				t.Errorf("base %q path %q: once %q twice %q", base, p, once.URL, twice.URL)
			}
		}
	}
}

func TestNormalizeURLDoesNotMutate(t *testing.T) {
	req := httpclient.NewRequest("GET", "/users").WithHeader("X-A", "1")
	out := NormalizeURL(req, "https://api.example.com")
	if req.URL != "/users" {
		t.Errorf("input mutated: %q", req.URL)
	}
	if out.HeaderValue("X-A") != "1" {
		t.Error("headers must carry over")
	}
}

func TestIsAbsoluteURL(t *testing.T) {
	for raw, want := range map[string]bool{
		"http://x":  true,
		"Http://x":  true,
		"https://x": true,
		"//x":       true,
		"/x":        false,
		"x":         false,
		"":          false,
		"ftp://x":   false,
	} {
		if got := IsAbsoluteURL(raw); got != want {
			t.Errorf("IsAbsoluteURL(%q) = %v, want %v", raw, got, want)
		}
	}
}

func TestNormalizeURLsReadsProviderPerRequest(t *testing.T) {
	base := "https://a.example.com"
	transport := newFakeTransport(nil)
	h := NormalizeURLs(BaseURLFunc(func() string { return base }))(transport)

	_, _ = h.Send(context.Background(), httpclient.NewRequest("GET", "/x"))
	if transport.Last().URL != "https://a.example.com/x" {
		t.Errorf("unexpected url %q", transport.Last().URL)
	}

	base = "https://b.example.com"
	_, _ = h.Send(context.Background(), httpclient.NewRequest("GET", "/x"))
	if transport.Last().URL != "https://b.example.com/x" {
		t.Errorf("provider change not picked up: %q", transport.Last().URL)
	}
}

func TestNormalizeURLsNilProvider(t *testing.T) {
	transport := newFakeTransport(nil)
	h := NormalizeURLs(nil)(transport)
	_, _ = h.Send(context.Background(), httpclient.NewRequest("GET", "https://x.example.com/a"))
	if transport.Last().URL != "https://x.example.com/a" {
		t.Errorf("unexpected url %q", transport.Last().URL)
	}
}
