// Package httpclient holds the request and response values that flow
// through reqpipe, the transport error taxonomy, and the default
// net/http Transport.
//
// Request is an immutable descriptor: every With* method returns a
// modified copy and leaves the receiver untouched, so middleware can
// rewrite requests without affecting the caller.
//
//	req := httpclient.NewRequest(http.MethodGet, "/users").
//	    WithQuery("page", "1").
//	    WithHeader("Accept", "application/json")
//
//	transport, err := httpclient.New(httpclient.Config{Timeout: 10 * time.Second})
//	resp, err := transport.Send(ctx, req.WithURL("https://api.example.com/users"))
//
// Failures returned by Send are *Error values. Non-2xx responses carry the
// status code and body; connection and timeout failures have StatusCode 0.
//
// The middleware pipeline built on top of this package lives in
// httpclient/pipeline.
package httpclient
