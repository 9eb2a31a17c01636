// Package pipeline composes the request middleware every outbound call
// passes through before it reaches the transport.
//
// The default order, outermost first:
//
//	ErrorClassifier -> URL Normalizer -> Auth Injector -> Cache -> Loading Tracker -> Transport
//
// The classifier sees every failure, including failures shared out of the
// cache. Cache hits return before the loading tracker, so only real network
// work marks the pipeline busy.
//
//	p, err := pipeline.New(pipeline.Config{BaseURL: "https://api.example.com"}, transport,
//	    pipeline.WithTokenProvider(tokens),
//	    pipeline.WithPublisher(bus),
//	    pipeline.WithLogger(log),
//	)
//	users, err := pipeline.GetJSON[[]User](ctx, p, "/users")
//
// Each Pipeline owns its cache and loading state; independent pipelines
// never share entries.
package pipeline
