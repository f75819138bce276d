// internal/transcript/sink.go
package transcript

import (
	log "github.com/sirupsen/logrus"

	engine "github.com/jason-s-yu/haggle/engine"
)

// LogSink forwards engine diagnostics to a logrus entry at debug level.
type LogSink struct {
	Entry *log.Entry
}

var _ engine.Sink = LogSink{}

// Record implements engine.Sink.
func (s LogSink) Record(msg string) {
	if s.Entry == nil {
		return
	}
	s.Entry.Debug(msg)
}

// NewLogSink returns a LogSink tagging every line with the given fields.
func NewLogSink(l *log.Logger, fields log.Fields) LogSink {
	return LogSink{Entry: l.WithFields(fields)}
}
