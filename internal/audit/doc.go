// Package audit carries account events from the engine to pluggable sinks.
//
// # Components
//
//   - [Event]: one record of a signup, login or federated resolution.
//   - [Sink]: event consumer. Channel, JSON-lines, slog, fan-out and no-op
//     implementations are provided.
//   - [Dispatcher]: buffered async relay with per-event-type drop counting.
//     It strips credential-bearing metadata keys before any sink sees them.
//
// The engine decides which events exist; this package only moves them.
//
// # What this package must NOT do
//
//   - Filter or suppress events based on business logic.
//   - Import goAccount or any sibling internal package.
package audit
