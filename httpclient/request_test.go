package httpclient

import (
	"net/http"
	"testing"
)

func TestNewRequestUppercasesMethod(t *testing.T) {
	req := NewRequest("get", "/users")
	if req.Method != http.MethodGet {
		t.Errorf("got %q", req.Method)
	}
	if req.Header == nil || req.Query == nil {
		t.Error("expected initialized maps")
	}
}

func TestWithHelpersDoNotMutate(t *testing.T) {
	orig := NewRequest(http.MethodGet, "/users")
	changed := orig.WithHeader("X-Trace", "1").WithQuery("page", "2").WithURL("/accounts").WithBody("x")

	if orig.HasHeader("X-Trace") || len(orig.Query) != 0 || orig.URL != "/users" || orig.Body != nil {
		t.Fatalf("original mutated: %+v", orig)
	}
	if changed.HeaderValue("x-trace") != "1" {
		t.Error("header lookup should be case-insensitive")
	}
	if changed.URL != "/accounts" || changed.Body != "x" {
		t.Errorf("unexpected copy: %+v", changed)
	}

	stripped := changed.WithoutHeader("X-TRACE")
	if stripped.HasHeader("X-Trace") || !changed.HasHeader("X-Trace") {
		t.Error("WithoutHeader must only affect the copy")
	}
}

func TestHasHeaderWithEmptyValue(t *testing.T) {
	req := NewRequest(http.MethodGet, "/").WithHeader("Authorization", "")
	if !req.HasHeader("authorization") {
		t.Error("expected present header with empty value")
	}
}

func TestFullURL(t *testing.T) {
	tests := []struct {
		name string
		req  Request
		want string
	}{
		{"no query", NewRequest("GET", "https://api.example.com/users"), "https://api.example.com/users"},
		{"query map", NewRequest("GET", "https://api.example.com/users").WithQuery("b", "2").WithQuery("a", "1"), "https://api.example.com/users?a=1&b=2"},
		{"merged", NewRequest("GET", "https://api.example.com/users?z=9").WithQuery("a", "1"), "https://api.example.com/users?a=1&z=9"},
		{"repeated", NewRequest("GET", "/x").WithQuery("id", "1", "2"), "/x?id=1&id=2"},
		{"sorted existing", NewRequest("GET", "/x?b=1&a=2"), "/x?a=2&b=1"},
		{"semicolon query kept", NewRequest("GET", "https://api.example.com/x?a=1;b=2"), "https://api.example.com/x?a=1;b=2"},
		{"semicolon query merged", NewRequest("GET", "/x?a=1;b=2").WithQuery("c", "3"), "/x?a=1;b=2&c=3"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.req.FullURL(); got != tc.want {
				t.Errorf("FullURL() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestRequestString(t *testing.T) {
	req := NewRequest("delete", "https://api.example.com/users/1")
	if got := req.String(); got != "DELETE https://api.example.com/users/1" {
		t.Errorf("got %q", got)
	}
}

func TestResponseHelpers(t *testing.T) {
	resp := &Response{StatusCode: 200, Body: []byte(`{"id":7}`)}
	if !resp.IsSuccess() || resp.IsError() {
		t.Error("200 should be success")
	}
	var out struct{ ID int }
	if err := resp.Decode(&out); err != nil || out.ID != 7 {
		t.Errorf("Decode: %v %+v", err, out)
	}
	if err := (&Response{Body: []byte("nope")}).Decode(&out); err == nil {
		t.Error("expected decode error")
	}
	if err := (&Response{}).Decode(&out); err != nil {
		t.Errorf("empty body should decode to nothing: %v", err)
	}
}
