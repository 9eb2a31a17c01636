package main

import (
	"context"
	"sync"
	"time"

	"github.com/kbukum/reqpipe/bootstrap"
	"github.com/kbukum/reqpipe/events"
	"github.com/kbukum/reqpipe/events/kafka"
	"github.com/kbukum/reqpipe/events/sse"
	"github.com/kbukum/reqpipe/httpclient"
	"github.com/kbukum/reqpipe/httpclient/pipeline"
	"github.com/kbukum/reqpipe/logger"
	"github.com/kbukum/reqpipe/observability"
	"github.com/kbukum/reqpipe/redis"
)

const serviceName = "reqpipe"

// service holds everything wired around one pipeline.
type service struct {
	cfg      *AppConfig
	log      *logger.Logger
	bus      *events.Bus
	pipeline *pipeline.Pipeline
	stream   *sse.Component
}

// wire builds the service. Infrastructure is registered as components on
// app, in dependency order; telemetry providers and the loading
// subscription are released by stop hooks.
func wire(ctx context.Context, app *bootstrap.App[*AppConfig]) (*service, error) {
	cfg := app.Cfg
	log := app.Logger
	s := &service{cfg: cfg, log: log.WithComponent("service")}

	if cfg.Telemetry.Tracing.Enabled {
		tp, err := observability.InitTracer(ctx, cfg.Telemetry.Tracing.TracerConfig)
		if err != nil {
			return nil, err
		}
		app.OnStop(tp.Shutdown)
	}
	if cfg.Telemetry.Metrics.Enabled {
		mp, err := observability.InitMeter(ctx, cfg.Telemetry.Metrics.MeterConfig)
		if err != nil {
			return nil, err
		}
		app.OnStop(mp.Shutdown)
	}
	metrics, err := observability.NewMetrics(observability.Meter(serviceName))
	if err != nil {
		return nil, err
	}

	s.bus = events.NewBus(events.WithLogger(log))

	opts := []pipeline.Option{
		pipeline.WithLogger(log),
		pipeline.WithPublisher(s.bus),
		pipeline.WithMetrics(metrics),
	}
	if cfg.Auth.Token != "" {
		opts = append(opts, pipeline.WithTokenProvider(httpclient.StaticToken(cfg.Auth.Token)))
	}

	if cfg.Redis.Enabled {
		client, err := redis.New(cfg.Redis, log)
		if err != nil {
			return nil, err
		}
		if err := app.RegisterComponent(redis.NewComponent(client)); err != nil {
			return nil, err
		}
		opts = append(opts, pipeline.WithResponseStore(redis.NewResponseStore(client, cfg.Redis.KeyPrefix)))
	}

	if cfg.Kafka.Enabled {
		sink, err := kafka.NewSink(cfg.Kafka, log)
		if err != nil {
			return nil, err
		}
		if err := app.RegisterComponent(kafka.NewComponent(sink, s.bus)); err != nil {
			return nil, err
		}
	}

	if cfg.SSE.Enabled {
		s.stream = sse.NewComponent(cfg.SSE, s.bus, log)
		if err := app.RegisterComponent(s.stream); err != nil {
			return nil, err
		}
	}

	adapter, err := httpclient.New(cfg.Transport, httpclient.WithMetrics(metrics))
	if err != nil {
		return nil, err
	}
	if err := app.RegisterComponent(httpclient.NewComponent(adapter)); err != nil {
		return nil, err
	}

	s.pipeline, err = pipeline.New(cfg.Pipeline, adapter, opts...)
	if err != nil {
		return nil, err
	}
	cancel := s.pipeline.Loading().Subscribe(func(busy bool) {
		s.log.Info("loading changed", logger.Fields("busy", busy))
	})
	app.OnStop(func(context.Context) error { cancel(); return nil })

	return s, nil
}

// run issues the configured requests, then keeps serving the event stream
// until ctx ends when it is enabled.
func (s *service) run(ctx context.Context) error {
	fetch := s.cfg.Fetch
	for round := 0; round < fetch.Rounds; round++ {
		if round > 0 && fetch.Interval > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(fetch.Interval):
			}
		}
		s.fetchAll(ctx, round)
	}

	s.log.Info("fetch complete", logger.Fields(
		"cached_entries", s.pipeline.Cache().Len(),
		"busy", s.pipeline.Loading().Busy(),
	))

	if s.stream == nil {
		return nil
	}
	<-ctx.Done()
	return nil
}

// fetchAll requests every path Concurrency times at once. Identical GETs
// collapse into one transport call.
func (s *service) fetchAll(ctx context.Context, round int) {
	var wg sync.WaitGroup
	for _, path := range s.cfg.Fetch.Paths {
		for i := 0; i < s.cfg.Fetch.Concurrency; i++ {
			wg.Add(1)
			go func(path string) {
				defer wg.Done()
				start := time.Now()
				resp, err := s.pipeline.Get(ctx, path)
				if err != nil {
					// The error classifier already logged and published it.
					return
				}
				s.log.Debug("fetched", logger.MergeWithDuration(logger.Fields(
					"round", round,
					logger.FieldPath, path,
					logger.FieldStatus, resp.StatusCode,
					"bytes", len(resp.Body),
				), time.Since(start)))
			}(path)
		}
	}
	wg.Wait()
}
