// Package telemetry wires structured logging, OpenTelemetry tracing, and
// OpenTelemetry metrics behind a single Observer so the lifecycle and
// monitoring packages share one telemetry surface.
package telemetry
