// engine_adapter.go — Bridge between engine.Engine and Match.
package match

import (
	log "github.com/sirupsen/logrus"

	engine "github.com/jason-s-yu/haggle/engine"
	"github.com/jason-s-yu/haggle/service/internal/config"
)

// Party names used for self-play matches.
const (
	PartyA = "a" // first mover
	PartyB = "b" // second mover
)

// diagnosticSink turns an engine's diagnostics into match events and debug
// log lines. The match pointer is filled in once the match exists.
type diagnosticSink struct {
	party string
	m     **Match
}

func (s diagnosticSink) Record(msg string) {
	m := *s.m
	if m == nil {
		return
	}
	m.log.WithField("party", s.party).Debug(msg)
	m.emit(Event{Type: EventDiagnostic, Party: s.party, Message: msg})
}

// NewSelfPlay creates a match between two engines configured from cfg.
// Party A moves first.
func NewSelfPlay(cfg config.Match, broadcastFn func(Event), logger *log.Entry) (*Match, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var m *Match
	a, err := engine.NewWithStrategy(cfg.Strategy, false, cfg.Counts, cfg.ValuesA, cfg.Rounds, diagnosticSink{party: PartyA, m: &m})
	if err != nil {
		return nil, err
	}
	b, err := engine.NewWithStrategy(cfg.Strategy, true, cfg.Counts, cfg.ValuesB, cfg.Rounds, diagnosticSink{party: PartyB, m: &m})
	if err != nil {
		return nil, err
	}

	m, err = New(cfg.Counts, cfg.Rounds,
		Party{Name: PartyA, Values: cfg.ValuesA, Negotiator: a},
		Party{Name: PartyB, Values: cfg.ValuesB, Negotiator: b},
		broadcastFn, logger)
	if err != nil {
		return nil, err
	}
	return m, nil
}
