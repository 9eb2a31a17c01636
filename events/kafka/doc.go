// Package kafka forwards bus events to a Kafka topic using
// segmentio/kafka-go. Each event becomes one JSON message keyed by the
// event ID, with the bus topic carried in a header.
//
//	sink, err := kafka.NewSink(cfg, log)
//	defer sink.Close()
//	bus.Subscribe(cfg.Pattern, sink.Handle)
package kafka
