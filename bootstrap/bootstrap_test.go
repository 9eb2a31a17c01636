package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"testing"
	"time"

	"github.com/kbukum/reqpipe/component"
	"github.com/kbukum/reqpipe/config"
	"github.com/kbukum/reqpipe/logger"
)

type testConfig struct {
	config.ServiceConfig
}

func newTestConfig(name, version string) *testConfig {
	return &testConfig{
		ServiceConfig: config.ServiceConfig{
			Name:        name,
			Version:     version,
			Environment: "development",
		},
	}
}

func newTestApp(t *testing.T, opts ...Option) *App[*testConfig] {
	t.Helper()
	opts = append([]Option{WithLogger(logger.Nop())}, opts...)
	app, err := NewApp(newTestConfig("test", "1.0"), opts...)
	if err != nil {
		t.Fatalf("NewApp failed: %v", err)
	}
	return app
}

func TestNewApp(t *testing.T) {
	app, err := NewApp(newTestConfig("test-svc", "1.0.0"))
	if err != nil {
		t.Fatalf("NewApp failed: %v", err)
	}
	if app.Name != "test-svc" || app.Version != "1.0.0" {
		t.Errorf("unexpected identity %q %q", app.Name, app.Version)
	}
	if app.Logger == nil {
		t.Error("expected a logger initialized from config")
	}
	if app.Cfg.Logging.ServiceName != "test-svc" {
		t.Errorf("expected defaults applied to the typed config, got %q", app.Cfg.Logging.ServiceName)
	}
	if app.gracefulTimeout != defaultGracefulTimeout {
		t.Errorf("expected default timeout, got %v", app.gracefulTimeout)
	}
}

func TestNewAppValidation(t *testing.T) {
	cfg := &testConfig{ServiceConfig: config.ServiceConfig{Environment: "development"}}
	if _, err := NewApp(cfg); err == nil {
		t.Error("expected error for missing name")
	}
}

func TestNewAppWithOptions(t *testing.T) {
	log := logger.Nop()
	app := newTestApp(t, WithGracefulTimeout(30*time.Second), WithLogger(log))
	if app.gracefulTimeout != 30*time.Second {
		t.Errorf("expected 30s timeout, got %v", app.gracefulTimeout)
	}
	if app.Logger != log {
		t.Error("expected custom logger")
	}
}

func TestRunHooks(t *testing.T) {
	var order []string
	hooks := []Hook{
		func(context.Context) error { order = append(order, "first"); return nil },
		func(context.Context) error { return fmt.Errorf("fail") },
		func(context.Context) error { order = append(order, "third"); return nil },
	}
	if err := runHooks(context.Background(), hooks); err == nil {
		t.Fatal("expected error from failing hook")
	}
	if !reflect.DeepEqual(order, []string{"first"}) {
		t.Errorf("hooks after a failure must not run, got %v", order)
	}
}

func TestRunStopHooksReverseAndComplete(t *testing.T) {
	var order []string
	errFirst := errors.New("close kafka")
	hooks := []Hook{
		func(context.Context) error { order = append(order, "redis"); return nil },
		func(context.Context) error { order = append(order, "kafka"); return errFirst },
		func(context.Context) error { order = append(order, "sse"); return nil },
	}
	err := runStopHooks(context.Background(), hooks)
	if !errors.Is(err, errFirst) {
		t.Errorf("expected the failing hook's error, got %v", err)
	}
	if !reflect.DeepEqual(order, []string{"sse", "kafka", "redis"}) {
		t.Errorf("unexpected order %v", order)
	}
}

func TestRunTaskLifecycleOrder(t *testing.T) {
	app := newTestApp(t)
	var order []string
	app.OnStart(func(context.Context) error { order = append(order, "start"); return nil })
	app.OnReady(func(context.Context) error { order = append(order, "ready"); return nil })
	app.OnStop(func(context.Context) error { order = append(order, "stop"); return nil })

	err := app.RunTask(context.Background(), func(context.Context) error {
		order = append(order, "task")
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"start", "ready", "task", "stop"}
	if !reflect.DeepEqual(order, want) {
		t.Errorf("expected %v, got %v", want, order)
	}
}

func TestRunTaskErrors(t *testing.T) {
	taskErr := errors.New("task error")
	stopErr := errors.New("stop error")

	tests := []struct {
		name    string
		start   error
		task    error
		stop    error
		want    error
		ranTask bool
	}{
		{"success", nil, nil, nil, nil, true},
		{"task error wins", nil, taskErr, stopErr, taskErr, true},
		{"stop error surfaces", nil, nil, stopErr, stopErr, true},
		{"start error skips task", errors.New("boom"), nil, nil, nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := newTestApp(t)
			app.OnStart(func(context.Context) error { return tt.start })
			app.OnStop(func(context.Context) error { return tt.stop })

			ran := false
			err := app.RunTask(context.Background(), func(context.Context) error {
				ran = true
				return tt.task
			})
			if ran != tt.ranTask {
				t.Errorf("task ran = %v, want %v", ran, tt.ranTask)
			}
			if tt.start != nil {
				if err == nil {
					t.Error("expected startup error")
				}
				return
			}
			if !errors.Is(err, tt.want) && !(err == nil && tt.want == nil) {
				t.Errorf("RunTask() = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestRunTaskCancellation(t *testing.T) {
	app := newTestApp(t)
	ctx, cancel := context.WithCancel(context.Background())

	err := app.RunTask(ctx, func(taskCtx context.Context) error {
		cancel()
		<-taskCtx.Done()
		return taskCtx.Err()
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestRunReturnsOnContextCancel(t *testing.T) {
	app := newTestApp(t)
	stopped := false
	app.OnStop(func(context.Context) error { stopped = true; return nil })

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := app.Run(ctx); err != nil {
		t.Fatal(err)
	}
	if !stopped {
		t.Error("expected stop hooks to run")
	}
}

func TestStopHookReceivesDeadline(t *testing.T) {
	app := newTestApp(t, WithGracefulTimeout(time.Second))
	app.OnStop(func(ctx context.Context) error {
		if _, ok := ctx.Deadline(); !ok {
			return errors.New("no deadline")
		}
		return nil
	})
	if err := app.Shutdown(); err != nil {
		t.Error(err)
	}
}

// stubComponent records its lifecycle calls into a shared log.
type stubComponent struct {
	name     string
	status   component.HealthStatus
	startErr error
	log      *[]string
}

func (s *stubComponent) Name() string { return s.name }

func (s *stubComponent) Start(context.Context) error {
	*s.log = append(*s.log, "start "+s.name)
	return s.startErr
}

func (s *stubComponent) Stop(context.Context) error {
	*s.log = append(*s.log, "stop "+s.name)
	return nil
}

func (s *stubComponent) Health(context.Context) component.Health {
	return component.Health{Name: s.name, Status: s.status}
}

func TestComponentsAroundHooks(t *testing.T) {
	var order []string
	redis := &stubComponent{name: "redis", status: component.StatusHealthy, log: &order}
	kafka := &stubComponent{name: "kafka", status: component.StatusHealthy, log: &order}
	app := newTestApp(t, WithComponents(redis))
	if err := app.RegisterComponent(kafka); err != nil {
		t.Fatal(err)
	}
	app.OnStart(func(context.Context) error { order = append(order, "onStart"); return nil })
	app.OnStop(func(context.Context) error { order = append(order, "onStop"); return nil })

	err := app.RunTask(context.Background(), func(context.Context) error {
		order = append(order, "task")
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}

	want := []string{"start redis", "start kafka", "onStart", "task", "onStop", "stop kafka", "stop redis"}
	if !reflect.DeepEqual(order, want) {
		t.Errorf("expected %v, got %v", want, order)
	}
}

func TestDuplicateComponentOption(t *testing.T) {
	var order []string
	_, err := NewApp(newTestConfig("test", "1.0"),
		WithLogger(logger.Nop()),
		WithComponents(&stubComponent{name: "redis", log: &order}, &stubComponent{name: "redis", log: &order}),
	)
	if err == nil {
		t.Error("expected duplicate registration error")
	}
}

func TestReadyCheck(t *testing.T) {
	tests := []struct {
		name    string
		status  component.HealthStatus
		require bool
		wantErr bool
		wantRun bool
	}{
		{"healthy", component.StatusHealthy, false, false, true},
		{"degraded warns", component.StatusDegraded, false, false, true},
		{"degraded required", component.StatusDegraded, true, true, false},
		{"unhealthy required", component.StatusUnhealthy, true, true, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var order []string
			opts := []Option{WithComponents(&stubComponent{name: "kafka", status: tt.status, log: &order})}
			if tt.require {
				opts = append(opts, WithRequireHealthy())
			}
			app := newTestApp(t, opts...)

			ran := false
			err := app.RunTask(context.Background(), func(context.Context) error { ran = true; return nil })
			if (err != nil) != tt.wantErr {
				t.Fatalf("RunTask() = %v, wantErr %v", err, tt.wantErr)
			}
			if ran != tt.wantRun {
				t.Errorf("task ran = %v, want %v", ran, tt.wantRun)
			}
			if order[len(order)-1] != "stop kafka" {
				t.Errorf("components must be stopped, got %v", order)
			}
		})
	}

	app := newTestApp(t)
	if err := app.ReadyCheck(context.Background()); err != nil {
		t.Errorf("no components is ready, got %v", err)
	}
}

func TestStartHookFailureStopsComponents(t *testing.T) {
	var order []string
	app := newTestApp(t, WithComponents(&stubComponent{name: "redis", status: component.StatusHealthy, log: &order}))
	app.OnStart(func(context.Context) error { return errors.New("tracer") })

	if err := app.RunTask(context.Background(), func(context.Context) error { return nil }); err == nil {
		t.Fatal("expected startup error")
	}
	if !reflect.DeepEqual(order, []string{"start redis", "stop redis"}) {
		t.Errorf("unexpected lifecycle %v", order)
	}
}

func TestComponentStartFailure(t *testing.T) {
	var order []string
	startErr := errors.New("dial tcp: refused")
	app := newTestApp(t, WithComponents(
		&stubComponent{name: "redis", status: component.StatusHealthy, log: &order},
		&stubComponent{name: "kafka", startErr: startErr, log: &order},
	))
	started := false
	app.OnStart(func(context.Context) error { started = true; return nil })

	err := app.RunTask(context.Background(), func(context.Context) error { return nil })
	if !errors.Is(err, startErr) {
		t.Fatalf("expected component error, got %v", err)
	}
	if started {
		t.Error("start hooks must not run after a component failed")
	}
	if !reflect.DeepEqual(order, []string{"start redis", "start kafka", "stop redis"}) {
		t.Errorf("unexpected lifecycle %v", order)
	}
}
