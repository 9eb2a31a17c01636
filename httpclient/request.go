package httpclient

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// HeaderAuthorization is the header the auth injector writes.
const HeaderAuthorization = "Authorization"

// Request describes an outbound HTTP request. It is a value: With* methods
// return modified copies and never mutate the receiver.
type Request struct {
	// Method is the HTTP method (GET, POST, PUT, PATCH, DELETE, etc).
	Method string
	// URL is relative ("/users") until the normalizer makes it absolute.
	URL string
	// Header keys are canonicalized, so lookups are case-insensitive.
	Header http.Header
	// Query values are merged into the URL's query string. Keys may repeat.
	Query url.Values
	// Body accepts io.Reader, []byte, string, or any value that will be
	// JSON-encoded. Nil means no body.
	Body any
}

// NewRequest creates a request with empty header and query maps.
func NewRequest(method, rawURL string) Request {
	return Request{
		Method: strings.ToUpper(method),
		URL:    rawURL,
		Header: make(http.Header),
		Query:  make(url.Values),
	}
}

// Clone returns a deep copy of the header and query maps. The body is
// shared.
func (r Request) Clone() Request {
	c := r
	c.Header = r.Header.Clone()
	if c.Header == nil {
		c.Header = make(http.Header)
	}
	c.Query = make(url.Values, len(r.Query))
	for k, vs := range r.Query {
		c.Query[k] = append([]string(nil), vs...)
	}
	return c
}

// WithURL returns a copy with a different URL.
func (r Request) WithURL(rawURL string) Request {
	c := r.Clone()
	c.URL = rawURL
	return c
}

// WithHeader returns a copy with key set to value, replacing existing values.
func (r Request) WithHeader(key, value string) Request {
	c := r.Clone()
	c.Header.Set(key, value)
	return c
}

// WithoutHeader returns a copy without key.
func (r Request) WithoutHeader(key string) Request {
	c := r.Clone()
	c.Header.Del(key)
	return c
}

// WithQuery returns a copy with values appended to the query key.
func (r Request) WithQuery(key string, values ...string) Request {
	c := r.Clone()
	for _, v := range values {
		c.Query.Add(key, v)
	}
	return c
}

// WithBody returns a copy carrying body.
func (r Request) WithBody(body any) Request {
	c := r.Clone()
	c.Body = body
	return c
}

// HeaderValue returns the first value for key, matched case-insensitively.
func (r Request) HeaderValue(key string) string {
	return r.Header.Get(key)
}

// HasHeader reports whether key is present, even with an empty value.
func (r Request) HasHeader(key string) bool {
	_, ok := r.Header[http.CanonicalHeaderKey(key)]
	return ok
}

// FullURL returns the URL with Query merged into its query string. The query
// is re-encoded in sorted key order, so equivalent requests produce the same
// string. A query that does not parse is kept verbatim and Query is appended
// to it.
func (r Request) FullURL() string {
	u, err := url.Parse(r.URL)
	if err != nil {
		if len(r.Query) == 0 {
			return r.URL
		}
		return r.URL + "?" + r.Query.Encode()
	}
	if u.RawQuery == "" && len(r.Query) == 0 {
		return r.URL
	}
	q, err := url.ParseQuery(u.RawQuery)
	if err != nil {
		// Keep a query url.ParseQuery rejects (";" separators, bad escapes)
		// byte for byte.
		if len(r.Query) > 0 {
			u.RawQuery += "&" + r.Query.Encode()
		}
		return u.String()
	}
	for k, vs := range r.Query {
		for _, v := range vs {
			q.Add(k, v)
		}
	}
	u.RawQuery = q.Encode()
	return u.String()
}

// String renders "METHOD url" for logs.
func (r Request) String() string {
	return r.Method + " " + r.FullURL()
}

// Response is the result of an HTTP request. Responses served from the
// pipeline cache are shared between callers and must not be modified.
type Response struct {
	// StatusCode is the HTTP status code.
	StatusCode int
	// Headers are the response headers, one value per key.
	Headers map[string]string
	// Body is the raw response body.
	Body []byte
}

// IsSuccess returns true if the status code is 2xx.
func (r *Response) IsSuccess() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// IsError returns true if the status code is 4xx or 5xx.
func (r *Response) IsError() bool {
	return r.StatusCode >= 400
}

// Decode unmarshals a JSON body into v. An empty body leaves v untouched.
func (r *Response) Decode(v any) error {
	if len(r.Body) == 0 {
		return nil
	}
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("httpclient: decode response: %w", err)
	}
	return nil
}
