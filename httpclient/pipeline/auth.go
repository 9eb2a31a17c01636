package pipeline

import (
	"context"

	"github.com/kbukum/reqpipe/httpclient"
)

// InjectAuth adds a bearer Authorization header when the request has none
// and the provider has a token. A header the caller set, even an empty
// one, is never overwritten.
func InjectAuth(ctx context.Context, req httpclient.Request, tp httpclient.TokenProvider) httpclient.Request {
	if tp == nil || req.HasHeader(httpclient.HeaderAuthorization) {
		return req
	}
	token, ok := tp.Token(ctx)
	if !ok || token == "" {
		return req
	}
	return req.WithHeader(httpclient.HeaderAuthorization, httpclient.BearerValue(token))
}

// InjectAuthorization returns the auth injector stage.
func InjectAuthorization(tp httpclient.TokenProvider) Middleware {
	return func(next Handler) Handler {
		return HandlerFunc(func(ctx context.Context, req httpclient.Request) (*httpclient.Response, error) {
			return next.Send(ctx, InjectAuth(ctx, req, tp))
		})
	}
}
