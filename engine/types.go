package engine

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Error classes. Concrete errors wrap one of these so callers can branch
// with errors.Is.
var (
	// ErrConfiguration is returned at construction for an invalid catalog,
	// round count or strategy.
	ErrConfiguration = errors.New("configuration error")

	// ErrProtocol is returned by a per-turn call whose input is malformed or
	// arrives out of turn. No state is mutated when it is returned.
	ErrProtocol = errors.New("protocol error")

	// ErrMatchOver is returned by Respond once every round has been played.
	ErrMatchOver = fmt.Errorf("%w: no rounds left", ErrProtocol)

	// ErrOutOfTurn is returned by OpeningOffer when it is not the first call.
	ErrOutOfTurn = fmt.Errorf("%w: opening offer must be the first call", ErrProtocol)
)

// Proposal is one count per catalog item. An outgoing proposal holds the
// counts the engine keeps; an incoming one holds the counts the counterpart
// offers to the engine.
type Proposal []int

// Clone returns a copy of p that shares no storage with it.
func (p Proposal) Clone() Proposal {
	if p == nil {
		return nil
	}
	out := make(Proposal, len(p))
	copy(out, p)
	return out
}

// Equal reports whether p and q hold the same counts.
func (p Proposal) Equal(q Proposal) bool {
	if len(p) != len(q) {
		return false
	}
	for i := range p {
		if p[i] != q[i] {
			return false
		}
	}
	return true
}

// IsZero reports whether every entry of p is zero.
func (p Proposal) IsZero() bool {
	for _, c := range p {
		if c != 0 {
			return false
		}
	}
	return true
}

// Sum returns the total number of units in p.
func (p Proposal) Sum() int {
	n := 0
	for _, c := range p {
		n += c
	}
	return n
}

func (p Proposal) String() string {
	var b strings.Builder
	b.WriteByte('[')
	for i, c := range p {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.Itoa(c))
	}
	b.WriteByte(']')
	return b.String()
}

// Verdict is the kind of a Decision.
type Verdict uint8

const (
	VerdictCounter Verdict = iota // 0
	VerdictAccept                 // 1
)

func (v Verdict) String() string {
	switch v {
	case VerdictAccept:
		return "accept"
	case VerdictCounter:
		return "counter"
	default:
		return "verdict(" + strconv.Itoa(int(v)) + ")"
	}
}

// Decision is the outcome of one Respond call: either Accept, or Counter with
// the proposal the engine sends back.
type Decision struct {
	Verdict  Verdict
	Proposal Proposal // nil for Accept
}

// Accept returns an accepting Decision.
func Accept() Decision { return Decision{Verdict: VerdictAccept} }

// Counter returns a Decision carrying a counter-proposal.
func Counter(p Proposal) Decision { return Decision{Verdict: VerdictCounter, Proposal: p} }

// IsAccept reports whether d accepts the incoming proposal.
func (d Decision) IsAccept() bool { return d.Verdict == VerdictAccept }

func (d Decision) String() string {
	if d.IsAccept() {
		return "accept"
	}
	return "counter " + d.Proposal.String()
}
