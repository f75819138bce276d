package engine

import (
	"errors"
	"testing"
)

// TestProposalHelpers verifies the small Proposal helpers.
func TestProposalHelpers(t *testing.T) {
	tests := []struct {
		p     Proposal
		zero  bool
		sum   int
		ascii string
	}{
		{Proposal{}, true, 0, "[]"},
		{Proposal{0, 0, 0}, true, 0, "[0,0,0]"},
		{Proposal{3, 2}, false, 5, "[3,2]"},
		{Proposal{0, 1, 0}, false, 1, "[0,1,0]"},
	}
	for _, tt := range tests {
		if got := tt.p.IsZero(); got != tt.zero {
			t.Errorf("%v.IsZero() = %v, want %v", tt.p, got, tt.zero)
		}
		if got := tt.p.Sum(); got != tt.sum {
			t.Errorf("%v.Sum() = %d, want %d", tt.p, got, tt.sum)
		}
		if got := tt.p.String(); got != tt.ascii {
			t.Errorf("String() = %q, want %q", got, tt.ascii)
		}
	}
}

func TestProposalEqual(t *testing.T) {
	tests := []struct {
		a, b Proposal
		want bool
	}{
		{Proposal{1, 2}, Proposal{1, 2}, true},
		{Proposal{1, 2}, Proposal{2, 1}, false},
		{Proposal{1, 2}, Proposal{1, 2, 0}, false},
		{nil, Proposal{}, true},
	}
	for _, tt := range tests {
		if got := tt.a.Equal(tt.b); got != tt.want {
			t.Errorf("%v.Equal(%v) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestProposalCloneIsIndependent(t *testing.T) {
	p := Proposal{1, 2, 3}
	q := p.Clone()
	q[0] = 9
	if p[0] != 1 {
		t.Errorf("Clone shares storage: p = %v", p)
	}
	if Proposal(nil).Clone() != nil {
		t.Error("Clone of nil should be nil")
	}
}

func TestDecisionString(t *testing.T) {
	if got := Accept().String(); got != "accept" {
		t.Errorf("Accept().String() = %q", got)
	}
	if got := Counter(Proposal{2, 0}).String(); got != "counter [2,0]" {
		t.Errorf("Counter().String() = %q", got)
	}
	if Counter(Proposal{1}).IsAccept() {
		t.Error("counter reported as accept")
	}
	if got := Verdict(7).String(); got != "verdict(7)" {
		t.Errorf("Verdict(7).String() = %q", got)
	}
}

func TestErrorClasses(t *testing.T) {
	if !errors.Is(ErrMatchOver, ErrProtocol) {
		t.Error("ErrMatchOver should wrap ErrProtocol")
	}
	if !errors.Is(ErrOutOfTurn, ErrProtocol) {
		t.Error("ErrOutOfTurn should wrap ErrProtocol")
	}
	if errors.Is(ErrProtocol, ErrConfiguration) {
		t.Error("error classes must be distinct")
	}
}

// TestNewCatalog verifies the derived aggregates.
func TestNewCatalog(t *testing.T) {
	c, err := NewCatalog([]int{3, 2, 1}, []float64{0, 4, 2})
	if err != nil {
		t.Fatalf("NewCatalog: %v", err)
	}
	if c.Len() != 3 {
		t.Errorf("Len = %d, want 3", c.Len())
	}
	if c.TotalCount != 6 {
		t.Errorf("TotalCount = %d, want 6", c.TotalCount)
	}
	if c.TotalValue != 10 {
		t.Errorf("TotalValue = %v, want 10", c.TotalValue)
	}
	if c.TotalNoValueCount != 3 {
		t.Errorf("TotalNoValueCount = %d, want 3", c.TotalNoValueCount)
	}
	if c.IsAllValued {
		t.Error("IsAllValued should be false with a zero-value item")
	}
	if c.Items[1].SubTotalValue != 8 {
		t.Errorf("Items[1].SubTotalValue = %v, want 8", c.Items[1].SubTotalValue)
	}
	if got := c.HoldVector(); !got.Equal(Proposal{3, 2, 1}) {
		t.Errorf("HoldVector = %v", got)
	}
	if got := c.Complement(Proposal{1, 2, 0}); !got.Equal(Proposal{2, 0, 1}) {
		t.Errorf("Complement = %v", got)
	}
}
