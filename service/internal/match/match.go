// internal/match/match.go
package match

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	engine "github.com/jason-s-yu/haggle/engine"
)

// ErrInvalidProposal is returned when a negotiator emits a proposal that does
// not fit the catalog.
var ErrInvalidProposal = errors.New("invalid proposal")

// Negotiator is one side of a match. *engine.Engine satisfies it.
type Negotiator interface {
	OpeningOffer() (engine.Proposal, error)
	Respond(offer engine.Proposal) (engine.Decision, error)
}

// Party binds a negotiator to its private valuation.
type Party struct {
	Name       string
	Values     []float64
	Negotiator Negotiator
}

// EventType identifies a match event.
type EventType string

// Constants defining the match events delivered to the broadcast callback.
const (
	EventMatchStart EventType = "match_start"
	EventProposal   EventType = "proposal"    // a party sent the counts it wants to keep
	EventAccept     EventType = "accept"      // a party accepted the last proposal
	EventExhausted  EventType = "exhausted"   // the turn budget ran out
	EventMatchEnd   EventType = "match_end"   // carries the Result
	EventDiagnostic EventType = "diagnostic"  // an engine diagnostic line
)

// Event is one observable step of a match.
type Event struct {
	Type    EventType `json:"type"`
	MatchID uuid.UUID `json:"match"`
	Party   string    `json:"party,omitempty"`
	Turn    int       `json:"turn,omitempty"`
	Counts  []int     `json:"counts,omitempty"`
	Message string    `json:"message,omitempty"`
	Result  *Result   `json:"result,omitempty"`
	Time    time.Time `json:"time"`
}

// Result is the outcome of a match. Kept, Values and Shares are indexed by
// party (0 = first mover).
type Result struct {
	MatchID uuid.UUID          `json:"match"`
	Agreed  bool               `json:"agreed"`
	Turns   int                `json:"turns"`
	Kept    [2]engine.Proposal `json:"kept"`
	Values  [2]float64         `json:"values"`
	Shares  [2]float64         `json:"shares"`
}

// Match alternates two negotiators over a shared catalog. Party 0 moves first.
type Match struct {
	ID      uuid.UUID
	Counts  []int
	Rounds  int
	Parties [2]Party

	catalogs    [2]engine.Catalog
	broadcastFn func(Event)
	log         *log.Entry
}

// New validates the setup and creates a match. broadcastFn may be nil.
func New(counts []int, rounds int, first, second Party, broadcastFn func(Event), logger *log.Entry) (*Match, error) {
	if rounds < 1 {
		return nil, fmt.Errorf("%w: rounds %d must be at least 1", engine.ErrConfiguration, rounds)
	}
	m := &Match{
		ID:          uuid.New(),
		Counts:      append([]int(nil), counts...),
		Rounds:      rounds,
		Parties:     [2]Party{first, second},
		broadcastFn: broadcastFn,
	}
	for i, p := range m.Parties {
		if p.Negotiator == nil {
			return nil, fmt.Errorf("party %d has no negotiator", i)
		}
		cat, err := engine.NewCatalog(counts, p.Values)
		if err != nil {
			return nil, fmt.Errorf("party %q: %w", p.Name, err)
		}
		m.catalogs[i] = cat
	}
	if logger == nil {
		logger = log.NewEntry(log.StandardLogger())
	}
	m.log = logger.WithField("match", m.ID)
	return m, nil
}

// TurnBudget is the number of proposals the match allows, opening included.
func (m *Match) TurnBudget() int { return 2 * m.Rounds }

func (m *Match) emit(ev Event) {
	if m.broadcastFn == nil {
		return
	}
	ev.MatchID = m.ID
	if ev.Time.IsZero() {
		ev.Time = time.Now().UTC()
	}
	m.broadcastFn(ev)
}

// Run plays the match to agreement or until the turn budget is spent.
// Context cancellation is checked between turns.
func (m *Match) Run(ctx context.Context) (Result, error) {
	res := Result{MatchID: m.ID}
	m.log.WithFields(log.Fields{"rounds": m.Rounds, "counts": m.Counts}).Info("match starting")
	m.emit(Event{Type: EventMatchStart, Counts: m.Counts})

	keep, err := m.Parties[0].Negotiator.OpeningOffer()
	if err != nil {
		return res, fmt.Errorf("party %q opening: %w", m.Parties[0].Name, err)
	}
	if err := m.catalogs[0].CheckProposal(keep); err != nil {
		return res, fmt.Errorf("%w from %q: %v", ErrInvalidProposal, m.Parties[0].Name, err)
	}
	turn := 1
	m.emit(Event{Type: EventProposal, Party: m.Parties[0].Name, Turn: turn, Counts: keep})

	proposer := 0
	for turn < m.TurnBudget() {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		responder := 1 - proposer
		offer := m.catalogs[responder].Complement(keep)

		d, err := m.Parties[responder].Negotiator.Respond(offer)
		turn++
		res.Turns = turn
		if err != nil {
			return res, fmt.Errorf("party %q turn %d: %w", m.Parties[responder].Name, turn, err)
		}

		if d.IsAccept() {
			m.emit(Event{Type: EventAccept, Party: m.Parties[responder].Name, Turn: turn})
			res.Agreed = true
			res.Kept[proposer] = keep
			res.Kept[responder] = offer
			m.finish(&res)
			return res, nil
		}

		if err := m.catalogs[responder].CheckProposal(d.Proposal); err != nil {
			return res, fmt.Errorf("%w from %q: %v", ErrInvalidProposal, m.Parties[responder].Name, err)
		}
		keep = d.Proposal
		proposer = responder
		m.emit(Event{Type: EventProposal, Party: m.Parties[proposer].Name, Turn: turn, Counts: keep})
	}

	res.Turns = turn
	m.emit(Event{Type: EventExhausted, Turn: turn})
	m.finish(&res)
	return res, nil
}

func (m *Match) finish(res *Result) {
	for i := range m.Parties {
		if res.Kept[i] == nil {
			continue
		}
		res.Values[i] = m.catalogs[i].Value(res.Kept[i])
		res.Shares[i] = m.catalogs[i].Share(res.Kept[i])
	}
	m.log.WithFields(log.Fields{
		"agreed": res.Agreed,
		"turns":  res.Turns,
		"values": res.Values,
	}).Info("match finished")
	m.emit(Event{Type: EventMatchEnd, Turn: res.Turns, Result: res})
}
