package bootstrap

import (
	"time"

	"github.com/kbukum/reqpipe/component"
	"github.com/kbukum/reqpipe/logger"
)

// Option configures the App during creation.
type Option func(*appOptions)

type appOptions struct {
	logger          *logger.Logger
	gracefulTimeout *time.Duration
	components      []component.Component
	requireHealthy  bool
}

func resolveOptions(opts []Option) *appOptions {
	o := &appOptions{}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// WithLogger replaces the logger built from the config's logging section.
func WithLogger(l *logger.Logger) Option {
	return func(o *appOptions) { o.logger = l }
}

// WithGracefulTimeout bounds the whole shutdown: stop hooks plus every
// component's Stop.
func WithGracefulTimeout(d time.Duration) Option {
	return func(o *appOptions) { o.gracefulTimeout = &d }
}

// WithComponents registers components in the given order, ahead of any
// added later with RegisterComponent.
func WithComponents(cs ...component.Component) Option {
	return func(o *appOptions) { o.components = append(o.components, cs...) }
}

// WithRequireHealthy makes startup fail when the ready check finds a
// component that is not healthy. By default the check only logs a warning.
func WithRequireHealthy() Option {
	return func(o *appOptions) { o.requireHealthy = true }
}
