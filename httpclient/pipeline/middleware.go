package pipeline

import "github.com/kbukum/reqpipe/httpclient"

// Handler is the rest of the pipeline as seen by a stage. The transport is
// the innermost Handler.
type Handler = httpclient.Transport

// HandlerFunc adapts a function to Handler.
type HandlerFunc = httpclient.TransportFunc

// Middleware wraps a Handler with one stage of behavior.
type Middleware func(next Handler) Handler

// Chain composes middlewares into one. The first middleware is outermost:
// Chain(a, b, c)(h) is equivalent to a(b(c(h))).
func Chain(middlewares ...Middleware) Middleware {
	return func(inner Handler) Handler {
		for i := len(middlewares) - 1; i >= 0; i-- {
			inner = middlewares[i](inner)
		}
		return inner
	}
}
