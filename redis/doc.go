// Package redis wraps go-redis with reqpipe logging and configuration, and
// provides a Redis-backed pipeline.ResponseStore so several processes can
// share cached GET responses.
//
//	client, err := redis.New(cfg.Redis, log)
//	store := redis.NewResponseStore(client, "reqpipe:cache")
//	p, err := pipeline.New(cfg.Pipeline, adapter, pipeline.WithResponseStore(store))
//
// TypedStore offers generic JSON get/set for ad-hoc values.
package redis
