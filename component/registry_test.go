package component

import (
	"context"
	"errors"
	"reflect"
	"testing"
)

// fakeComponent implements Component for testing.
type fakeComponent struct {
	name     string
	startErr error
	stopErr  error
	health   Health
	events   *[]string
}

func (f *fakeComponent) Name() string { return f.name }

func (f *fakeComponent) Start(context.Context) error {
	if f.events != nil {
		*f.events = append(*f.events, "start "+f.name)
	}
	return f.startErr
}

func (f *fakeComponent) Stop(context.Context) error {
	if f.events != nil {
		*f.events = append(*f.events, "stop "+f.name)
	}
	return f.stopErr
}

func (f *fakeComponent) Health(context.Context) Health { return f.health }

type describedComponent struct {
	fakeComponent
	desc Description
}

func (d *describedComponent) Describe() Description { return d.desc }

func TestRegisterDuplicate(t *testing.T) {
	r := NewRegistry(nil)
	if err := r.Register(&fakeComponent{name: "redis"}); err != nil {
		t.Fatal(err)
	}
	if err := r.Register(&fakeComponent{name: "redis"}); err == nil {
		t.Error("expected error for duplicate registration")
	}
	if r.Get("redis") == nil || r.Get("missing") != nil {
		t.Error("unexpected Get results")
	}
	if len(r.All()) != 1 {
		t.Errorf("expected 1 component, got %d", len(r.All()))
	}
}

func TestStartStopOrder(t *testing.T) {
	var events []string
	r := NewRegistry(nil)
	for _, name := range []string{"redis", "kafka", "sse"} {
		if err := r.Register(&fakeComponent{name: name, events: &events}); err != nil {
			t.Fatal(err)
		}
	}

	ctx := context.Background()
	if err := r.StartAll(ctx); err != nil {
		t.Fatalf("StartAll: %v", err)
	}
	if err := r.StopAll(ctx); err != nil {
		t.Fatalf("StopAll: %v", err)
	}
	// A second stop has nothing left to stop.
	if err := r.StopAll(ctx); err != nil {
		t.Fatalf("second StopAll: %v", err)
	}

	want := []string{"start redis", "start kafka", "start sse", "stop sse", "stop kafka", "stop redis"}
	if !reflect.DeepEqual(events, want) {
		t.Errorf("events = %v, want %v", events, want)
	}
}

func TestStartFailureStopsStarted(t *testing.T) {
	var events []string
	startErr := errors.New("connection refused")
	r := NewRegistry(nil)
	_ = r.Register(&fakeComponent{name: "redis", events: &events})
	_ = r.Register(&fakeComponent{name: "kafka", events: &events, startErr: startErr})
	_ = r.Register(&fakeComponent{name: "sse", events: &events})

	err := r.StartAll(context.Background())
	if !errors.Is(err, startErr) {
		t.Fatalf("expected start error, got %v", err)
	}

	want := []string{"start redis", "start kafka", "stop redis"}
	if !reflect.DeepEqual(events, want) {
		t.Errorf("events = %v, want %v", events, want)
	}
}

func TestStopAllJoinsErrors(t *testing.T) {
	errA, errB := errors.New("a"), errors.New("b")
	r := NewRegistry(nil)
	_ = r.Register(&fakeComponent{name: "a", stopErr: errA})
	_ = r.Register(&fakeComponent{name: "b", stopErr: errB})
	_ = r.StartAll(context.Background())

	err := r.StopAll(context.Background())
	if !errors.Is(err, errA) || !errors.Is(err, errB) {
		t.Errorf("expected both stop errors, got %v", err)
	}
}

func TestStopAllSkipsUnstarted(t *testing.T) {
	var events []string
	r := NewRegistry(nil)
	_ = r.Register(&fakeComponent{name: "redis", events: &events})

	if err := r.StopAll(context.Background()); err != nil {
		t.Fatal(err)
	}
	if len(events) != 0 {
		t.Errorf("expected no stops, got %v", events)
	}
}

func TestHealthAllAndDescribe(t *testing.T) {
	r := NewRegistry(nil)
	_ = r.Register(&fakeComponent{name: "redis", health: Health{Name: "redis", Status: StatusHealthy}})
	_ = r.Register(&describedComponent{
		fakeComponent: fakeComponent{name: "kafka", health: Health{Name: "kafka", Status: StatusDegraded, Message: "3 events dropped"}},
		desc:          Description{Type: "kafka", Details: "localhost:9092 topic=reqpipe.events"},
	})

	health := r.HealthAll(context.Background())
	if len(health) != 2 || health[0].Status != StatusHealthy || health[1].Status != StatusDegraded {
		t.Errorf("unexpected health %+v", health)
	}

	desc := r.Describe()
	if len(desc) != 1 {
		t.Fatalf("expected 1 description, got %d", len(desc))
	}
	if desc[0].Name != "kafka" || desc[0].Type != "kafka" {
		t.Errorf("unexpected description %+v", desc[0])
	}
}
