// internal/match/match_test.go
package match

import (
	"context"
	"sync"
	"testing"

	log "github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	engine "github.com/jason-s-yu/haggle/engine"
	"github.com/jason-s-yu/haggle/service/internal/config"
)

// mockBroadcaster captures match events for testing assertions.
type mockBroadcaster struct {
	mu     sync.Mutex
	events []Event
}

func (mb *mockBroadcaster) broadcastFn(ev Event) {
	mb.mu.Lock()
	defer mb.mu.Unlock()
	mb.events = append(mb.events, ev)
}

func (mb *mockBroadcaster) ofType(t EventType) []Event {
	mb.mu.Lock()
	defer mb.mu.Unlock()
	var out []Event
	for _, ev := range mb.events {
		if ev.Type == t {
			out = append(out, ev)
		}
	}
	return out
}

// scripted is a Negotiator replaying fixed decisions and recording offers.
type scripted struct {
	opening engine.Proposal
	replies []engine.Decision
	offers  []engine.Proposal
}

func (s *scripted) OpeningOffer() (engine.Proposal, error) { return s.opening, nil }

func (s *scripted) Respond(offer engine.Proposal) (engine.Decision, error) {
	s.offers = append(s.offers, offer)
	d := s.replies[0]
	s.replies = s.replies[1:]
	return d, nil
}

func quietLogger() *log.Entry {
	l, _ := test.NewNullLogger()
	return log.NewEntry(l)
}

func TestRunAgreement(t *testing.T) {
	a := &scripted{opening: engine.Proposal{2, 1}, replies: []engine.Decision{engine.Accept()}}
	b := &scripted{replies: []engine.Decision{engine.Counter(engine.Proposal{1, 1})}}
	mb := &mockBroadcaster{}

	m, err := New([]int{2, 1}, 2,
		Party{Name: "a", Values: []float64{3, 4}, Negotiator: a},
		Party{Name: "b", Values: []float64{1, 8}, Negotiator: b},
		mb.broadcastFn, quietLogger())
	require.NoError(t, err)

	res, err := m.Run(context.Background())
	require.NoError(t, err)

	assert.True(t, res.Agreed)
	assert.Equal(t, 3, res.Turns)
	assert.Equal(t, engine.Proposal{1, 0}, res.Kept[0])
	assert.Equal(t, engine.Proposal{1, 1}, res.Kept[1])
	assert.Equal(t, 3.0, res.Values[0])
	assert.Equal(t, 9.0, res.Values[1])
	assert.InDelta(t, 0.3, res.Shares[0], 1e-9)
	assert.InDelta(t, 0.9, res.Shares[1], 1e-9)

	// Each side sees the counterpart's proposal from its own perspective.
	assert.Equal(t, []engine.Proposal{{0, 0}}, b.offers)
	assert.Equal(t, []engine.Proposal{{1, 0}}, a.offers)

	require.NotEmpty(t, mb.events)
	assert.Equal(t, EventMatchStart, mb.events[0].Type)
	assert.Equal(t, EventMatchEnd, mb.events[len(mb.events)-1].Type)
	assert.Len(t, mb.ofType(EventProposal), 2)
	accepts := mb.ofType(EventAccept)
	require.Len(t, accepts, 1)
	assert.Equal(t, "a", accepts[0].Party)
	for _, ev := range mb.events {
		assert.Equal(t, m.ID, ev.MatchID)
	}
}

func TestRunExhaustsTurnBudget(t *testing.T) {
	a := &scripted{opening: engine.Proposal{1}}
	b := &scripted{replies: []engine.Decision{engine.Counter(engine.Proposal{1})}}
	mb := &mockBroadcaster{}

	m, err := New([]int{1}, 1,
		Party{Name: "a", Values: []float64{1}, Negotiator: a},
		Party{Name: "b", Values: []float64{1}, Negotiator: b},
		mb.broadcastFn, quietLogger())
	require.NoError(t, err)

	res, err := m.Run(context.Background())
	require.NoError(t, err)
	assert.False(t, res.Agreed)
	assert.Equal(t, 2, res.Turns)
	assert.Nil(t, res.Kept[0])
	assert.Len(t, mb.ofType(EventExhausted), 1)
}

func TestRunRejectsInvalidProposal(t *testing.T) {
	a := &scripted{opening: engine.Proposal{2, 1}}
	b := &scripted{replies: []engine.Decision{engine.Counter(engine.Proposal{3, 0})}}

	m, err := New([]int{2, 1}, 3,
		Party{Name: "a", Values: []float64{1, 1}, Negotiator: a},
		Party{Name: "b", Values: []float64{1, 1}, Negotiator: b},
		nil, quietLogger())
	require.NoError(t, err)

	_, err = m.Run(context.Background())
	assert.ErrorIs(t, err, ErrInvalidProposal)
}

func TestRunHonoursCancellation(t *testing.T) {
	a := &scripted{opening: engine.Proposal{1}}
	b := &scripted{}

	m, err := New([]int{1}, 3,
		Party{Name: "a", Values: []float64{1}, Negotiator: a},
		Party{Name: "b", Values: []float64{1}, Negotiator: b},
		nil, quietLogger())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = m.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, b.offers)
}

func TestNewRejectsBadParty(t *testing.T) {
	_, err := New([]int{1}, 2,
		Party{Name: "a", Values: []float64{1}, Negotiator: &scripted{}},
		Party{Name: "b", Values: []float64{1, 2}, Negotiator: &scripted{}},
		nil, nil)
	assert.ErrorIs(t, err, engine.ErrConfiguration)

	_, err = New([]int{1}, 2,
		Party{Name: "a", Values: []float64{1}, Negotiator: &scripted{}},
		Party{Name: "b", Values: []float64{1}},
		nil, nil)
	assert.Error(t, err)
}

func TestSelfPlay(t *testing.T) {
	cfg := config.Match{
		Rounds:   5,
		Counts:   []int{3, 2, 1},
		ValuesA:  []float64{0, 4, 2},
		ValuesB:  []float64{2, 1, 2},
		Strategy: engine.DefaultStrategy(),
	}
	mb := &mockBroadcaster{}
	m, err := NewSelfPlay(cfg, mb.broadcastFn, quietLogger())
	require.NoError(t, err)

	res, err := m.Run(context.Background())
	require.NoError(t, err)
	assert.LessOrEqual(t, res.Turns, m.TurnBudget())

	if res.Agreed {
		for i, n := range cfg.Counts {
			assert.Equal(t, n, res.Kept[0][i]+res.Kept[1][i], "item %d split", i)
		}
	}

	// The first proposal is the first mover asking for everything.
	props := mb.ofType(EventProposal)
	require.NotEmpty(t, props)
	assert.Equal(t, PartyA, props[0].Party)
	assert.Equal(t, []int{3, 2, 1}, props[0].Counts)

	assert.NotEmpty(t, mb.ofType(EventDiagnostic), "engine diagnostics are forwarded")
	assert.Len(t, mb.ofType(EventMatchEnd), 1)
}

func TestGeneratorProducesValidMatches(t *testing.T) {
	gen := NewGenerator(7)
	for i := 0; i < 200; i++ {
		cfg, err := gen.Next()
		require.NoError(t, err)
		require.NoError(t, cfg.Validate())

		units := 0
		var totA, totB float64
		for j, n := range cfg.Counts {
			units += n
			totA += float64(n) * cfg.ValuesA[j]
			totB += float64(n) * cfg.ValuesB[j]
			assert.False(t, cfg.ValuesA[j] == 0 && cfg.ValuesB[j] == 0, "item %d valued by nobody", j)
		}
		assert.GreaterOrEqual(t, len(cfg.Counts), 2)
		assert.LessOrEqual(t, len(cfg.Counts), gen.MaxTypes)
		assert.LessOrEqual(t, units, gen.MaxUnits)
		assert.Equal(t, float64(gen.TotalValue), totA)
		assert.Equal(t, float64(gen.TotalValue), totB)
	}
}

func TestGeneratorIsDeterministic(t *testing.T) {
	g1, g2 := NewGenerator(42), NewGenerator(42)
	for i := 0; i < 20; i++ {
		a, err := g1.Next()
		require.NoError(t, err)
		b, err := g2.Next()
		require.NoError(t, err)
		assert.Equal(t, a, b)
	}
}

func TestRunTournament(t *testing.T) {
	sum, err := RunTournament(context.Background(), NewGenerator(3), 25, nil, quietLogger())
	require.NoError(t, err)
	assert.Equal(t, 25, sum.Matches)
	assert.GreaterOrEqual(t, sum.AgreementRate(), 0.0)
	assert.LessOrEqual(t, sum.AgreementRate(), 1.0)
	assert.Greater(t, sum.MeanTurns, 0.0)
}
