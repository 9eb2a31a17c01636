package pipeline

import (
	"context"
	"reflect"
	"testing"

	"github.com/kbukum/reqpipe/httpclient"
)

func TestInjectAuthAddsBearer(t *testing.T) {
	req := httpclient.NewRequest("GET", "https://api.example.com/users")
	out := InjectAuth(context.Background(), req, httpclient.StaticToken("tok"))

	if got := out.HeaderValue(httpclient.HeaderAuthorization); got != "Bearer tok" {
		t.Errorf("got %q", got)
	}
	if req.HasHeader(httpclient.HeaderAuthorization) {
		t.Error("input request mutated")
	}
}

func TestInjectAuthKeepsExistingHeader(t *testing.T) {
	tests := []struct {
		name  string
		value string
	}{
		{"custom scheme", "Basic dXNlcjpwYXNz"},
		{"empty value", ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httpclient.NewRequest("GET", "https://x").WithHeader("authorization", tc.value)
			out := InjectAuth(context.Background(), req, httpclient.StaticToken("tok"))
			if !reflect.DeepEqual(out, req) {
				t.Errorf("request changed: %+v", out)
			}
		})
	}
}

func TestInjectAuthNoToken(t *testing.T) {
	req := httpclient.NewRequest("GET", "https://x")
	for name, tp := range map[string]httpclient.TokenProvider{
		"nil provider": nil,
		"empty token":  httpclient.StaticToken(""),
		"not available": httpclient.TokenFunc(func(context.Context) (string, bool) {
			return "", false
		}),
	} {
		t.Run(name, func(t *testing.T) {
			out := InjectAuth(context.Background(), req, tp)
			if out.HasHeader(httpclient.HeaderAuthorization) {
				t.Error("no header expected")
			}
		})
	}
}

func TestInjectAuthorizationReadsTokenPerRequest(t *testing.T) {
	calls := 0
	tp := httpclient.TokenFunc(func(context.Context) (string, bool) {
		calls++
		return "t", true
	})
	transport := newFakeTransport(nil)
	h := InjectAuthorization(tp)(transport)

	_, _ = h.Send(context.Background(), httpclient.NewRequest("GET", "https://x"))
	_, _ = h.Send(context.Background(), httpclient.NewRequest("GET", "https://x"))
	if calls != 2 {
		t.Errorf("expected one token read per request, got %d", calls)
	}
	if transport.Last().HeaderValue("Authorization") != "Bearer t" {
		t.Error("expected header on forwarded request")
	}
}
