package pipeline

import (
	"context"
	"strings"
	"sync"

	"github.com/kbukum/reqpipe/httpclient"
)

// BaseURLProvider supplies the base URL relative requests resolve against.
// It is read once per request.
type BaseURLProvider interface {
	BaseURL() string
}

// StaticBaseURL is a fixed base URL.
type StaticBaseURL string

// BaseURL implements BaseURLProvider.
func (s StaticBaseURL) BaseURL() string { return string(s) }

// BaseURLFunc adapts a function to BaseURLProvider.
type BaseURLFunc func() string

// BaseURL implements BaseURLProvider.
func (f BaseURLFunc) BaseURL() string { return f() }

// IsAbsoluteURL reports whether raw starts with http://, https:// (any
// case) or is protocol-relative.
func IsAbsoluteURL(raw string) bool {
	if strings.HasPrefix(raw, "//") {
		return true
	}
	lower := strings.ToLower(raw)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}

// JoinURL joins base and path with exactly one slash. At most one trailing
// slash is removed from base and one leading slash from path; any others
// are kept.
func JoinURL(base, path string) string {
	base = strings.TrimSuffix(base, "/")
	path = strings.TrimPrefix(path, "/")
	return base + "/" + path
}

// NormalizeURL resolves a relative request URL against baseURL. Absolute
// URLs are returned unchanged.
func NormalizeURL(req httpclient.Request, baseURL string) httpclient.Request {
	if IsAbsoluteURL(req.URL) {
		return req
	}
	return req.WithURL(JoinURL(baseURL, req.URL))
}

// NormalizeURLs returns the URL normalizer stage.
func NormalizeURLs(p BaseURLProvider) Middleware {
	return func(next Handler) Handler {
		return HandlerFunc(func(ctx context.Context, req httpclient.Request) (*httpclient.Response, error) {
			base := ""
			if p != nil {
				base = p.BaseURL()
			}
			req = NormalizeURL(req, base)
			if r, ok := ctx.Value(resolvedKey{}).(*resolved); ok {
				r.set(req.FullURL())
			}
			return next.Send(ctx, req)
		})
	}
}

type resolvedKey struct{}

// resolved carries the URL the normalizer produced back to stages outside
// it.
type resolved struct {
	mu  sync.Mutex
	url string
}

func (r *resolved) set(url string) {
	r.mu.Lock()
	r.url = url
	r.mu.Unlock()
}

func (r *resolved) get() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.url
}

// withResolved returns a context the normalizer records its resolved URL
// into.
func withResolved(ctx context.Context) (context.Context, *resolved) {
	r := &resolved{}
	return context.WithValue(ctx, resolvedKey{}, r), r
}
