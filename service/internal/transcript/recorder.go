// internal/transcript/recorder.go
package transcript

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/klauspost/compress/zstd"
	log "github.com/sirupsen/logrus"

	"github.com/jason-s-yu/haggle/service/internal/match"
)

// Recorder stores match events as JSON lines in zstd-compressed files, one
// file per UTC day under dir. Every event is flushed through the encoder as a
// complete block before Record returns. Diagnostic events are not stored.
type Recorder struct {
	dir string
	now func() time.Time

	mu      sync.Mutex
	day     string
	f       *os.File
	enc     *zstd.Encoder
	lines   *json.Encoder
	events  int
	matches int
}

// NewRecorder returns a Recorder writing under dir. Files are created on the
// first event.
func NewRecorder(dir string) *Recorder {
	return &Recorder{dir: dir, now: time.Now}
}

// Record appends ev to the current day's transcript.
func (r *Recorder) Record(ev match.Event) error {
	if ev.Type == match.EventDiagnostic {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	day := r.now().UTC().Format("2006-01-02")
	if day != r.day {
		if err := r.openLocked(day); err != nil {
			return err
		}
	}
	if err := r.lines.Encode(ev); err != nil {
		return fmt.Errorf("transcript %s: %w", r.pathFor(r.day), err)
	}
	if err := r.enc.Flush(); err != nil {
		return fmt.Errorf("transcript %s: %w", r.pathFor(r.day), err)
	}
	r.events++
	if ev.Type == match.EventMatchEnd {
		r.matches++
	}
	return nil
}

// BroadcastFn adapts Record to a match broadcast callback. Write failures are
// logged and do not stop the match.
func (r *Recorder) BroadcastFn(logger *log.Entry) func(match.Event) {
	return func(ev match.Event) {
		if err := r.Record(ev); err != nil {
			logger.WithField("match", ev.MatchID).Warnf("record event: %v", err)
		}
	}
}

// Counts returns the events and completed matches recorded so far.
func (r *Recorder) Counts() (events, matches int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.events, r.matches
}

// Path returns the file events currently go to, or "" before the first event.
func (r *Recorder) Path() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.day == "" {
		return ""
	}
	return r.pathFor(r.day)
}

// Close ends the current zstd frame and closes the file.
func (r *Recorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.closeLocked()
}

func (r *Recorder) openLocked(day string) error {
	if err := r.closeLocked(); err != nil {
		return err
	}
	if err := os.MkdirAll(r.dir, 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(r.pathFor(day), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		_ = f.Close()
		return err
	}
	r.f, r.enc, r.lines = f, enc, json.NewEncoder(enc)
	r.day = day
	return nil
}

func (r *Recorder) closeLocked() error {
	var err error
	if r.enc != nil {
		err = r.enc.Close()
		r.enc, r.lines = nil, nil
	}
	if r.f != nil {
		if cerr := r.f.Close(); err == nil {
			err = cerr
		}
		r.f = nil
	}
	return err
}

func (r *Recorder) pathFor(day string) string {
	return filepath.Join(r.dir, "matches-"+day+".jsonl.zst")
}
