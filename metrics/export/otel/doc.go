// Package otel exposes goAccount engine metrics as OpenTelemetry observable
// instruments. Each family becomes one counter with an outcome or backend
// attribute. The caller supplies the Meter; the exporter only registers a
// callback that reads Engine.MetricsSnapshot on each collection.
package otel
