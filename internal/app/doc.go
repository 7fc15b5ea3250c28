// Package app assembles the ecompulse web service: configuration,
// logging, OpenTelemetry providers, the pipeline manager, the progress
// hub, the service layer, and the chi router with its middleware stack.
//
// NewApplication performs all wiring; Run starts the HTTP server and the
// background workers under an errgroup and blocks until an interrupt or
// a component failure, then shuts down gracefully within the configured
// timeout.
package app
