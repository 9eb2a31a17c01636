package httpclient

import (
	"context"
	"strings"
)

// TokenProvider supplies the current bearer token. It is owned by the
// authentication subsystem; reqpipe only reads it, once per request.
type TokenProvider interface {
	// Token returns the current token, or false when none is available.
	Token(ctx context.Context) (string, bool)
}

// TokenFunc adapts a function to TokenProvider.
type TokenFunc func(ctx context.Context) (string, bool)

// Token implements TokenProvider.
func (f TokenFunc) Token(ctx context.Context) (string, bool) {
	return f(ctx)
}

// StaticToken is a fixed token. The empty string means no token.
type StaticToken string

// Token implements TokenProvider.
func (s StaticToken) Token(context.Context) (string, bool) {
	return string(s), s != ""
}

// BearerValue formats a token as an Authorization header value.
func BearerValue(token string) string {
	return "Bearer " + strings.TrimSpace(token)
}
