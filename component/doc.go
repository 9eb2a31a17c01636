// Package component manages the lifecycle of the infrastructure wired
// around a request pipeline.
//
// Components are registered with a Registry, normally through the
// bootstrap App. They start in registration order and stop in reverse, so
// a component registered after its dependencies stops before them.
package component
