package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/kbukum/reqpipe/observability"
)

// Adapter is the default Transport, a thin wrapper over net/http.
type Adapter struct {
	httpClient *http.Client
	config     Config
	metrics    *observability.Metrics
}

var _ Transport = (*Adapter)(nil)

// Option configures an Adapter.
type Option func(*Adapter)

// WithHTTPClient replaces the underlying *http.Client.
func WithHTTPClient(c *http.Client) Option {
	return func(a *Adapter) {
		if c != nil {
			a.httpClient = c
		}
	}
}

// WithMetrics records one request metric per Send.
func WithMetrics(m *observability.Metrics) Option {
	return func(a *Adapter) {
		a.metrics = m
	}
}

// New creates a new HTTP adapter with the given configuration.
func New(cfg Config, opts ...Option) (*Adapter, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.MaxIdleConnsPerHost = cfg.MaxIdleConnsPerHost

	a := &Adapter{
		httpClient: &http.Client{
			Transport: transport,
			Timeout:   cfg.Timeout,
		},
		config: cfg,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// Send executes req and returns the complete response. Non-2xx responses
// are returned as a *Error carrying the status and body, with a nil
// *Response.
func (a *Adapter) Send(ctx context.Context, req Request) (*Response, error) {
	target, err := a.resolveURL(req)
	if err != nil {
		return nil, err.withRequest(req.Method, req.URL)
	}

	ctx, span := observability.StartSpan(ctx, observability.SpanTransportSend,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String(observability.AttrHTTPMethod, req.Method),
			attribute.String(observability.AttrHTTPURL, target),
			attribute.String(observability.AttrTransport, a.config.Name),
		),
	)
	defer span.End()

	start := time.Now()
	resp, sendErr := a.send(ctx, req, target)
	a.metrics.RecordRequest(ctx, req.Method, outcome(resp, sendErr), time.Since(start))

	if sendErr != nil {
		if sendErr.StatusCode > 0 {
			span.SetAttributes(attribute.Int(observability.AttrHTTPStatus, sendErr.StatusCode))
		}
		observability.SetSpanError(span, sendErr)
		return nil, sendErr.withRequest(req.Method, target)
	}
	span.SetAttributes(attribute.Int(observability.AttrHTTPStatus, resp.StatusCode))
	return resp, nil
}

func (a *Adapter) send(ctx context.Context, req Request, target string) (*Response, *Error) {
	httpReq, err := a.buildRequest(ctx, req, target)
	if err != nil {
		return nil, err
	}

	resp, doErr := a.httpClient.Do(httpReq)
	if doErr != nil {
		if ctx.Err() != nil || isTimeout(doErr) {
			return nil, NewTimeoutError(doErr)
		}
		return nil, NewConnectionError(doErr)
	}
	defer func() { _ = resp.Body.Close() }()

	body, readErr := io.ReadAll(resp.Body)
	if readErr != nil {
		return nil, NewConnectionError(fmt.Errorf("read response body: %w", readErr))
	}

	if classErr := ClassifyStatusCode(resp.StatusCode, body); classErr != nil {
		return nil, classErr
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Headers:    flattenHeaders(resp.Header),
		Body:       body,
	}, nil
}

// resolveURL returns the absolute target URL. Protocol-relative URLs take
// the configured default scheme; relative URLs are rejected, since base
// URL resolution belongs to the pipeline.
func (a *Adapter) resolveURL(req Request) (string, *Error) {
	target := req.FullURL()
	if strings.HasPrefix(target, "//") {
		target = a.config.DefaultScheme + ":" + target
	}
	u, err := url.Parse(target)
	if err != nil {
		return "", NewValidationError(fmt.Sprintf("parse url: %v", err))
	}
	if !u.IsAbs() || u.Host == "" {
		return "", NewValidationError(fmt.Sprintf("url %q is not absolute", req.URL))
	}
	return target, nil
}

// buildRequest constructs an *http.Request from the adapter config and request.
func (a *Adapter) buildRequest(ctx context.Context, req Request, target string) (*http.Request, *Error) {
	body, contentType, err := encodeBody(req.Body)
	if err != nil {
		return nil, NewValidationError(fmt.Sprintf("encode body: %v", err))
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, target, body)
	if err != nil {
		return nil, NewValidationError(fmt.Sprintf("create request: %v", err))
	}

	for k, v := range a.config.Headers {
		httpReq.Header.Set(k, v)
	}

	// Request headers override defaults.
	for k, vs := range req.Header {
		httpReq.Header.Del(k)
		for _, v := range vs {
			httpReq.Header.Add(k, v)
		}
	}

	if body != nil && httpReq.Header.Get("Content-Type") == "" && contentType != "" {
		httpReq.Header.Set("Content-Type", contentType)
	}

	return httpReq, nil
}

// encodeBody converts a body value into an io.Reader and content type.
func encodeBody(body any) (io.Reader, string, error) {
	if body == nil {
		return nil, "", nil
	}
	switch v := body.(type) {
	case io.Reader:
		return v, "", nil
	case []byte:
		return bytes.NewReader(v), "", nil
	case string:
		return strings.NewReader(v), "text/plain", nil
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return nil, "", err
		}
		return bytes.NewReader(data), "application/json", nil
	}
}

// flattenHeaders converts multi-value headers to single-value.
func flattenHeaders(h http.Header) map[string]string {
	result := make(map[string]string, len(h))
	for k, v := range h {
		if len(v) > 0 {
			result[k] = v[0]
		}
	}
	return result
}

func isTimeout(err error) bool {
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func outcome(resp *Response, err *Error) string {
	switch {
	case err == nil && resp != nil:
		return "ok"
	case err != nil:
		return err.Code.String()
	default:
		return "unknown"
	}
}

// Name returns the transport name used in logs and spans.
func (a *Adapter) Name() string {
	return a.config.Name
}

// Unwrap returns the underlying *http.Client for advanced use cases.
func (a *Adapter) Unwrap() *http.Client {
	return a.httpClient
}

// Close releases idle connections.
func (a *Adapter) Close(_ context.Context) error {
	a.httpClient.CloseIdleConnections()
	return nil
}

// GetConfig returns the adapter's configuration.
func (a *Adapter) GetConfig() Config {
	return a.config
}
