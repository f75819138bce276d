package engine

import "fmt"

// Sink receives the engine's diagnostic messages. It observes decisions and
// never influences them.
type Sink interface {
	Record(msg string)
}

// NopSink discards every message.
type NopSink struct{}

func (NopSink) Record(string) {}

// SinkFunc adapts a plain function to a Sink.
type SinkFunc func(msg string)

func (f SinkFunc) Record(msg string) { f(msg) }

// logf formats only when a real sink is attached.
func (e *Engine) logf(format string, args ...any) {
	if _, nop := e.sink.(NopSink); nop {
		return
	}
	e.sink.Record(fmt.Sprintf(format, args...))
}
