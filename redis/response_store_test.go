package redis

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/kbukum/reqpipe/httpclient"
	"github.com/kbukum/reqpipe/httpclient/pipeline"
)

func TestResponseStoreRoundTrip(t *testing.T) {
	client, mini := newTestClient(t)
	store := NewResponseStore(client, "")
	ctx := context.Background()

	storedAt := time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)
	entry := pipeline.StoredResponse{
		Response: &httpclient.Response{
			StatusCode: 200,
			Headers:    map[string]string{"Content-Type": "application/json"},
			Body:       []byte(`{"id":1}`),
		},
		StoredAt: storedAt,
	}
	key := "GET https://api.example.com/users/1"
	if err := store.Save(ctx, key, entry, time.Minute); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if !mini.Exists(DefaultKeyPrefix + ":" + key) {
		t.Fatalf("expected prefixed key, have %v", mini.Keys())
	}
	if ttl := mini.TTL(DefaultKeyPrefix + ":" + key); ttl != time.Minute {
		t.Errorf("expected a one minute TTL, got %v", ttl)
	}

	got, ok, err := store.Load(ctx, key)
	if err != nil || !ok {
		t.Fatalf("Load: ok=%v err=%v", ok, err)
	}
	if got.Response.StatusCode != 200 || string(got.Response.Body) != `{"id":1}` {
		t.Errorf("unexpected response %+v", got.Response)
	}
	if got.Response.Headers["Content-Type"] != "application/json" {
		t.Errorf("headers lost: %v", got.Response.Headers)
	}
	if !got.StoredAt.Equal(storedAt) {
		t.Errorf("StoredAt = %v, want %v", got.StoredAt, storedAt)
	}
}

func TestResponseStoreExpiryAndDelete(t *testing.T) {
	client, mini := newTestClient(t)
	store := NewResponseStore(client, "tenant-a")
	ctx := context.Background()
	entry := pipeline.StoredResponse{Response: &httpclient.Response{StatusCode: 200}, StoredAt: time.Now()}

	_ = store.Save(ctx, "k1", entry, time.Second)
	mini.FastForward(2 * time.Second)
	if _, ok, err := store.Load(ctx, "k1"); ok || err != nil {
		t.Errorf("expected expired entry to be absent, ok=%v err=%v", ok, err)
	}

	_ = store.Save(ctx, "k2", entry, time.Minute)
	if err := store.Delete(ctx, "k2"); err != nil {
		t.Fatal(err)
	}
	if _, ok, _ := store.Load(ctx, "k2"); ok {
		t.Error("expected deleted entry to be absent")
	}

	if err := store.Save(ctx, "k3", pipeline.StoredResponse{}, time.Minute); err != nil {
		t.Fatal(err)
	}
	if mini.Exists("tenant-a:k3") {
		t.Error("an entry without a response must not be stored")
	}
}

func TestResponseStoreClear(t *testing.T) {
	client, mini := newTestClient(t)
	a := NewResponseStore(client, "tenant-a")
	b := NewResponseStore(client, "tenant-b")
	ctx := context.Background()
	entry := pipeline.StoredResponse{Response: &httpclient.Response{StatusCode: 204}, StoredAt: time.Now()}

	_ = a.Save(ctx, "k", entry, time.Minute)
	_ = b.Save(ctx, "k", entry, time.Minute)
	if err := a.Clear(ctx); err != nil {
		t.Fatal(err)
	}
	if keys := mini.Keys(); len(keys) != 1 || keys[0] != "tenant-b:k" {
		t.Errorf("unexpected remaining keys %v", keys)
	}
}

func TestResponseStoreLoadError(t *testing.T) {
	client, mini := newTestClient(t)
	store := NewResponseStore(client, "")
	mini.SetError("ERR store unavailable")

	if _, ok, err := store.Load(context.Background(), "k"); err == nil || ok {
		t.Errorf("expected an error, got ok=%v err=%v", ok, err)
	}
}

func TestResponseStoreSharedAcrossPipelines(t *testing.T) {
	client, _ := newTestClient(t)
	store := NewResponseStore(client, "")

	var calls atomic.Int32
	transport := httpclient.TransportFunc(func(context.Context, httpclient.Request) (*httpclient.Response, error) {
		calls.Add(1)
		return &httpclient.Response{StatusCode: 200, Body: []byte(`["a"]`)}, nil
	})
	cfg := pipeline.Config{BaseURL: "https://api.example.com"}
	first, err := pipeline.New(cfg, transport, pipeline.WithResponseStore(store))
	if err != nil {
		t.Fatal(err)
	}
	second, err := pipeline.New(cfg, transport, pipeline.WithResponseStore(store))
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	if _, err := first.Get(ctx, "/items"); err != nil {
		t.Fatal(err)
	}
	resp, err := second.Get(ctx, "/items")
	if err != nil {
		t.Fatal(err)
	}
	if calls.Load() != 1 {
		t.Errorf("expected one transport call, got %d", calls.Load())
	}
	if string(resp.Body) != `["a"]` {
		t.Errorf("unexpected body %q", resp.Body)
	}

	second.Cache().Clear(ctx)
	if _, ok, _ := store.Load(ctx, "GET https://api.example.com/items"); ok {
		t.Error("Clear must reach the shared store")
	}
}
