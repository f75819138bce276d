// Package engine implements one party's strategy in a repeated, multi-item
// bargaining negotiation.
//
// Two parties alternate proposals over how to split a fixed catalog of item
// types. Each turn the engine either accepts the counterpart's latest
// proposal or counters it. Between turns it keeps a model of what the
// counterpart has asked for and uses it to pick which items to concede.
//
// An Engine is single-threaded and deterministic: the same sequence of
// incoming proposals always produces the same sequence of decisions.
package engine

import (
	"fmt"

	"github.com/jason-s-yu/haggle/engine/opponent"
)

// MatchState is the mutable per-match state of an Engine.
type MatchState struct {
	Rounds      int
	RoundsLeft  int
	Round       int
	SecondMover bool
	Calls       int // OpeningOffer and Respond calls made so far

	// RoundsTillFold starts at the derived threshold and may be pulled down
	// to the current round when the engine decides to fold early.
	RoundsTillFold int

	NoValueOfferCount int // undesirable units conceded so far; never decreases

	PrevRequestCounts Proposal // last proposal the engine sent
	PrevRequestValue  float64
	PrevOfferedCounts Proposal // last proposal the engine received
}

// Engine decides, turn by turn, whether to accept or counter.
type Engine struct {
	catalog    Catalog
	strategy   Strategy
	thresholds Thresholds
	hold       Proposal

	state MatchState
	opp   *opponent.Model
	sink  Sink
}

// New creates an Engine for one match with DefaultStrategy. A nil sink
// discards diagnostics.
func New(secondMover bool, counts []int, values []float64, rounds int, sink Sink) (*Engine, error) {
	return NewWithStrategy(DefaultStrategy(), secondMover, counts, values, rounds, sink)
}

// NewWithStrategy creates an Engine for one match with explicit strategy
// constants.
func NewWithStrategy(st Strategy, secondMover bool, counts []int, values []float64, rounds int, sink Sink) (*Engine, error) {
	if rounds < 1 {
		return nil, fmt.Errorf("%w: rounds %d must be at least 1", ErrConfiguration, rounds)
	}
	if err := st.Validate(); err != nil {
		return nil, err
	}
	cat, err := NewCatalog(counts, values)
	if err != nil {
		return nil, err
	}
	if sink == nil {
		sink = NopSink{}
	}

	th := st.DeriveThresholds(rounds, !secondMover, cat.TotalValue)
	hold := cat.HoldVector()

	e := &Engine{
		catalog:    cat,
		strategy:   st,
		thresholds: th,
		hold:       hold,
		state: MatchState{
			Rounds:            rounds,
			RoundsLeft:        rounds,
			SecondMover:       secondMover,
			RoundsTillFold:    th.RoundsTillFold,
			PrevRequestCounts: hold.Clone(),
			PrevRequestValue:  cat.TotalValue,
		},
		opp:  opponent.New(cat.Counts()),
		sink: sink,
	}
	return e, nil
}

// Catalog returns the engine's item catalog.
func (e *Engine) Catalog() Catalog { return e.catalog }

// Strategy returns the strategy constants in use.
func (e *Engine) Strategy() Strategy { return e.strategy }

// Thresholds returns the thresholds derived at construction. The live fold
// round is MatchState.RoundsTillFold.
func (e *Engine) Thresholds() Thresholds { return e.thresholds }

// State returns a copy of the match state.
func (e *Engine) State() MatchState {
	s := e.state
	s.PrevRequestCounts = e.state.PrevRequestCounts.Clone()
	s.PrevOfferedCounts = e.state.PrevOfferedCounts.Clone()
	return s
}

// Opponent returns a copy of the opponent model's counters.
func (e *Engine) Opponent() opponent.Snapshot { return e.opp.Snapshot() }

// Done reports whether every round has been played.
func (e *Engine) Done() bool { return e.state.RoundsLeft <= 0 }

// Clone returns an independent copy of e. The copy shares the sink.
func (e *Engine) Clone() *Engine {
	c := *e
	c.hold = e.hold.Clone()
	c.state = e.State()
	c.opp = e.opp.Clone()
	return &c
}

// firstMover reports whether the engine makes the match's first proposal.
func (e *Engine) firstMover() bool { return !e.state.SecondMover }

// advance consumes one round. Every call, opening included, consumes one.
func (e *Engine) advance() (turnsLeft int) {
	s := &e.state
	s.Calls++
	s.RoundsLeft--
	s.Round = s.Rounds - s.RoundsLeft

	turn := s.Round * 2
	turnsLeft = s.RoundsLeft * 2
	if e.firstMover() {
		turn--
		turnsLeft++
	}

	e.logf("round %d", s.Round)
	e.logf("%d rounds left", s.RoundsLeft)
	e.logf("turn %d", turn)
	e.logf("%d turns left", turnsLeft)
	return turnsLeft
}

// OpeningOffer returns the engine's first proposal when it has no incoming
// proposal to respond to: the hold vector, asking for every unit.
func (e *Engine) OpeningOffer() (Proposal, error) {
	if e.state.Calls > 0 {
		return nil, ErrOutOfTurn
	}
	e.advance()
	e.logf("I am holding on first offer")
	return e.hold.Clone(), nil
}

// Respond decides on the counterpart's proposal. offer holds the counts the
// counterpart offers to the engine. A malformed offer or a call after the
// last round returns an ErrProtocol error and leaves the engine untouched.
func (e *Engine) Respond(offer Proposal) (Decision, error) {
	if e.Done() {
		return Decision{}, ErrMatchOver
	}
	if err := e.catalog.CheckProposal(offer); err != nil {
		return Decision{}, err
	}
	offer = offer.Clone()

	turnsLeft := e.advance()
	s := &e.state

	if offer.Equal(s.PrevRequestCounts) {
		e.logf("Accepting offer matching last request")
		return Accept(), nil
	}

	offerValue := e.catalog.Value(offer)
	if turnsLeft == 0 && offerValue > 0 {
		e.logf("I accept anything of value on very last turn")
		return Accept(), nil
	}
	if s.Round >= s.RoundsTillFold && offerValue == e.catalog.TotalValue {
		e.logf("I accept any offer of total value when past round %d", s.RoundsTillFold-1)
		return Accept(), nil
	}
	e.logf("offerValue: %v", offerValue)

	req := e.nextRequest(offer)
	reqValue := e.catalog.Value(req)
	e.logf("requestValue: %v", reqValue)
	e.logf("requestCounts: %s", req)

	if s.RoundsLeft == 0 && offerValue > reqValue {
		e.logf("Accepting offer, value is higher than request value, and it is last round")
		return Accept(), nil
	}

	s.PrevRequestCounts = req
	s.PrevRequestValue = reqValue
	return Counter(req.Clone()), nil
}

// nextRequest records offer in the opponent model and builds the counter the
// engine would send.
func (e *Engine) nextRequest(offer Proposal) Proposal {
	obs := e.opp.Observe(offer)
	e.state.PrevOfferedCounts = offer

	var req Proposal
	if obs.Held {
		if obs.HeldBeforeFold {
			e.logf("Opponent is holding")
			req = e.handleHold()
		} else {
			e.logf("Opponent is holding after folding")
		}
	}
	if req == nil {
		req = e.buildOffer()
	}
	return req
}

// handleHold picks the reply to an opponent that asked for everything and
// has never asked for less. It returns nil to fall through to buildOffer.
func (e *Engine) handleHold() Proposal {
	s := &e.state
	switch {
	case s.Round < e.strategy.RoundsToHold:
		e.logf("I will hold")
		return e.hold.Clone()
	case s.NoValueOfferCount < e.catalog.TotalNoValueCount:
		if s.Round < s.RoundsTillFold {
			return e.offerUndesirables(s.NoValueOfferCount + 1)
		}
		if s.Round < e.thresholds.RoundsTillPanic {
			return e.offerUndesirables(e.catalog.TotalNoValueCount)
		}
	}
	return nil
}

// offerUndesirables concedes n zero-value units in total, filling items in
// catalog order, and keeps every valued unit.
func (e *Engine) offerUndesirables(n int) Proposal {
	s := &e.state
	if n > e.catalog.TotalNoValueCount {
		n = e.catalog.TotalNoValueCount
	}
	if n > s.NoValueOfferCount {
		s.NoValueOfferCount = n
	}
	e.logf("I will offer %d/%d undesirables", s.NoValueOfferCount, e.catalog.TotalNoValueCount)

	out := make(Proposal, e.catalog.Len())
	offered := 0
	for i, it := range e.catalog.Items {
		if it.Value != 0 {
			out[i] = it.Count
			continue
		}
		give := 0
		if offered < s.NoValueOfferCount {
			give = min(s.NoValueOfferCount-offered, it.Count)
		}
		offered += give
		out[i] = it.Count - give
	}
	return out
}
