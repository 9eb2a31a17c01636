package pipeline

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/tidwall/gjson"

	"github.com/kbukum/reqpipe/events"
	"github.com/kbukum/reqpipe/httpclient"
	"github.com/kbukum/reqpipe/logger"
	"github.com/kbukum/reqpipe/observability"
)

// Kind classifies a failed request.
type Kind string

const (
	// KindHTTPError is a completed response with a failure status.
	KindHTTPError Kind = "HttpError"
	// KindUnknownError is anything else: network, timeout, encoding.
	KindUnknownError Kind = "UnknownError"
)

// Topic returns the event topic failures of this kind are published on.
func (k Kind) Topic() string {
	if k == KindHTTPError {
		return events.TopicHTTPError
	}
	return events.TopicHTTPUnknownError
}

// messagePaths are tried in order against JSON error bodies.
var messagePaths = []string{"message", "error.message", "error_description", "error", "detail"}

// Classify returns KindHTTPError for transport errors that carry a status
// and KindUnknownError for everything else.
func Classify(err error) Kind {
	if he, ok := httpclient.AsError(err); ok && he.HasStatus() {
		return KindHTTPError
	}
	return KindUnknownError
}

// ErrorEvent is the payload published for a failed request.
type ErrorEvent struct {
	Kind    Kind   `json:"kind"`
	Status  int    `json:"status,omitempty"`
	Message string `json:"message"`
	// Body is the decoded JSON error body, or the raw text if it is not JSON.
	Body any `json:"body,omitempty"`
	// URL is the resolved URL that failed.
	URL    string `json:"url"`
	Method string `json:"method"`
	// Path is the request URL as the caller wrote it.
	Path string `json:"path"`
	// ErrorType is the Go type of the original error.
	ErrorType string `json:"error_type"`
	Error     string `json:"error"`
	// Err is the original error, for errors.As in subscribers.
	Err error `json:"-"`
}

// NewErrorEvent describes err for req, the request as the caller issued it.
func NewErrorEvent(req httpclient.Request, err error) ErrorEvent {
	ev := ErrorEvent{
		Kind:      Classify(err),
		URL:       req.FullURL(),
		Method:    req.Method,
		Path:      req.URL,
		ErrorType: fmt.Sprintf("%T", err),
		Error:     err.Error(),
		Message:   err.Error(),
		Err:       err,
	}

	he, ok := httpclient.AsError(err)
	if !ok {
		return ev
	}
	if he.URL != "" {
		ev.URL = he.URL
	}
	if he.Method != "" {
		ev.Method = he.Method
	}
	ev.Status = he.StatusCode
	ev.Message = he.Message
	ev.Body = decodeBody(he.Body)
	if msg := extractMessage(he.Body); msg != "" {
		ev.Message = msg
	}
	return ev
}

func decodeBody(body []byte) any {
	if len(body) == 0 {
		return nil
	}
	var v any
	if err := json.Unmarshal(body, &v); err == nil {
		return v
	}
	return string(body)
}

func extractMessage(body []byte) string {
	if len(body) == 0 || !gjson.ValidBytes(body) {
		return ""
	}
	for _, p := range messagePaths {
		if r := gjson.GetBytes(body, p); r.Type == gjson.String && r.Str != "" {
			return r.Str
		}
	}
	return ""
}

// ClassifierOption configures the error classifier stage.
type ClassifierOption func(*classifier)

// WithClassifierMetrics counts failures by kind.
func WithClassifierMetrics(m *observability.Metrics) ClassifierOption {
	return func(c *classifier) { c.metrics = m }
}

type classifier struct {
	log     *logger.Logger
	pub     events.Publisher
	metrics *observability.Metrics
}

// ErrorClassifier returns the error classifier stage. Each failure is
// logged and published once, then returned unchanged. log and pub may be
// nil.
func ErrorClassifier(log *logger.Logger, pub events.Publisher, opts ...ClassifierOption) Middleware {
	c := &classifier{log: log.WithComponent("pipeline.errors"), pub: pub}
	for _, opt := range opts {
		opt(c)
	}
	return func(next Handler) Handler {
		return HandlerFunc(func(ctx context.Context, req httpclient.Request) (*httpclient.Response, error) {
			ctx, r := withResolved(ctx)
			resp, err := next.Send(ctx, req)
			if err != nil {
				c.report(ctx, req, r.get(), err)
			}
			return resp, err
		})
	}
}

// report describes err. resolvedURL is the URL the normalizer sent, if
// it ran; a URL carried by the error itself still wins.
func (c *classifier) report(ctx context.Context, req httpclient.Request, resolvedURL string, err error) {
	ev := NewErrorEvent(req, err)
	if resolvedURL != "" {
		if he, ok := httpclient.AsError(err); !ok || he.URL == "" {
			ev.URL = resolvedURL
		}
	}

	fields := logger.Fields(
		logger.FieldErrorKind, string(ev.Kind),
		logger.FieldMethod, ev.Method,
		logger.FieldURL, ev.URL,
		logger.FieldPath, ev.Path,
		logger.FieldError, ev.Error,
		"error_message", ev.Message,
	)
	if ev.Status > 0 {
		fields[logger.FieldStatus] = ev.Status
	}
	if he, ok := httpclient.AsError(err); ok && len(he.Body) > 0 {
		fields[logger.FieldBody] = string(he.Body)
	}
	if headers := c.log.RedactHeaders(req.Header); headers != nil {
		fields[logger.FieldHeaders] = headers
	}
	c.log.Error("request failed", fields)

	c.metrics.RecordError(ctx, string(ev.Kind))
	if c.pub != nil {
		c.pub.Publish(ev.Kind.Topic(), ev)
	}
}
