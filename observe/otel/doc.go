// Package otel reserves the integration point for an OpenTelemetry-backed
// fiber.Observer. Only the no-op placeholder ships for now.
package otel
