// Package audit records session transitions (login, registration, logout,
// recovery) asynchronously.
//
// [Dispatcher] buffers [Event] values and hands them to a [Sink] on its own
// goroutine. Sinks: [NoOpSink], [ChannelSink], [JSONWriterSink] and
// [LogSink] (zerolog).
//
// The engine decides which events to emit; this package only moves them.
// It does not import estateauth.
package audit
