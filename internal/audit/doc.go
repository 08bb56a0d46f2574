// Package audit relays security events from the engine to a caller-supplied
// sink without blocking the request path.
//
// # Components
//
//   - [Event]: one outcome with account, organization, client IP and an
//     error code. Events never carry codes, passwords or hashes.
//   - [Sink]: event consumer (channel, JSON lines writer, no-op).
//   - [Dispatcher]: buffered async relay that either drops or blocks when
//     the buffer is full.
//
// # What this package must NOT do
//
//   - Decide which events to emit; the engine does that.
//   - Import hireAuth or any sibling internal package.
package audit
