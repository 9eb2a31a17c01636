// Package sse streams bus events to browser clients as Server-Sent Events.
//
// Each connected client holds a topic pattern ("http.*" by default) and
// receives every matching event as a JSON data frame. Wire the hub into
// the bus with:
//
//	hub := sse.NewHub(log)
//	go hub.Run()
//	bus.Subscribe("*", hub.Handle)
//	mux.Handle("/events", sse.Handler(hub))
package sse
