// Package events is the in-process publish/subscribe bus reqpipe reports
// through. The error classifier publishes failed requests on TopicHTTPError
// and TopicHTTPUnknownError; UI layers, the SSE hub and the Kafka sink
// subscribe with glob topic patterns such as "http.*".
//
//	bus := events.NewBus(events.WithLogger(log))
//	sub, _ := bus.Subscribe("http.*", func(ev events.Event) {
//	    toast(ev.Payload)
//	})
//	defer sub.Unsubscribe()
//
// Delivery is synchronous and in subscription order. A panicking handler is
// recovered and logged; it never reaches the publisher.
package events
