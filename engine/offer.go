package engine

import (
	"math"
	"sort"
)

// tradable is an item the opponent has asked for, with the estimates used
// to rank it for concession.
type tradable struct {
	index int
	count int
	value float64

	importance         float64 // requested units / count
	subTotalImportance float64 // requested units / all requested units
	estOpSubTotalValue float64
	estOpValue         float64 // estimated per-unit value to the opponent
	// tradability is estOpValue / value. Zero-value items rank at +Inf.
	tradability float64
}

// rankTradable returns, in catalog order, every item the opponent has
// requested at least once.
func (e *Engine) rankTradable() []tradable {
	if e.opp.TotalReqCount == 0 {
		return nil
	}
	var out []tradable
	for i, reqCount := range e.opp.SubTotalReqCounts {
		if reqCount <= 0 {
			continue
		}
		it := e.catalog.Items[i]
		t := tradable{
			index:              i,
			count:              it.Count,
			value:              it.Value,
			importance:         float64(reqCount) / float64(it.Count),
			subTotalImportance: e.opp.RequestShare(i),
		}
		t.estOpSubTotalValue = t.importance * e.catalog.TotalValue * e.strategy.EstErrorMultiplier
		t.estOpValue = t.estOpSubTotalValue / float64(it.Count)
		if it.Value == 0 {
			t.tradability = math.Inf(1)
		} else {
			t.tradability = t.estOpValue / it.Value
		}
		out = append(out, t)
	}
	return out
}

// sortByTradability orders items most tradable first, keeping catalog order
// among equals.
func sortByTradability(items []tradable) {
	sort.SliceStable(items, func(a, b int) bool {
		return items[a].tradability > items[b].tradability
	})
}

// noValueImportantCount sums the counts of zero-value items the opponent
// keeps asking for.
func (e *Engine) noValueImportantCount() int {
	limit := e.strategy.NoValueInterestFactor * float64(e.state.Rounds)
	n := 0
	for i, it := range e.catalog.Items {
		if it.Value == 0 && e.opp.SubTotalReqCounts[i] > 0 && e.opp.ImportanceScores[i] > limit {
			n += it.Count
		}
	}
	return n
}

// buildOffer constructs the next counter-proposal from the opponent model.
func (e *Engine) buildOffer() Proposal {
	s := &e.state
	ranked := e.rankTradable()
	nvic := e.noValueImportantCount()
	e.logf("nvic: %d", nvic)

	if s.Round < s.RoundsTillFold && s.NoValueOfferCount >= nvic {
		e.logf("Fold early")
		s.RoundsTillFold = s.Round
	}

	switch {
	case s.RoundsLeft == 0:
		sortByTradability(ranked)
		switch {
		case e.opp.IsStubborn:
			return e.stubbornOffer(ranked)
		case nvic > 0:
			return e.offerUndesirables(e.catalog.TotalNoValueCount)
		default:
			return e.lastChanceOffer(ranked)
		}
	case s.Round < s.RoundsTillFold:
		e.logf("I wont fold yet")
		return e.offerUndesirables(s.NoValueOfferCount + 1)
	default:
		e.logf("Make calculated offer")
		sortByTradability(ranked)
		return e.calculatedOffer(ranked)
	}
}

// stubbornOffer concedes the most tradable units until the estimated value
// handed to the opponent reaches the stubborn target, never giving away the
// last unit of retained value.
func (e *Engine) stubbornOffer(ranked []tradable) Proposal {
	target := e.thresholds.StubbornAcceptableOfferValue
	conceded := make([]int, e.catalog.Len())
	est := 0.0
	retained := e.catalog.TotalValue

	for _, t := range ranked {
		k := 0
		for est < target && k < t.count && retained-t.value > 0 {
			k++
			est += t.estOpValue
			retained -= t.value
		}
		conceded[t.index] = k
		if est >= target {
			break
		}
	}
	e.logf("stubborn concession, estimated opponent gain %v", est)
	return e.keepAfter(conceded)
}

// lastChanceOffer concedes every undesirable unit plus one unit of the most
// tradable valued item.
func (e *Engine) lastChanceOffer(ranked []tradable) Proposal {
	conceded := make([]int, e.catalog.Len())
	for _, t := range ranked {
		if t.value != 0 {
			conceded[t.index] = 1
			e.logf("conceding one unit of item %d", t.index)
			break
		}
	}
	return e.keepAfter(conceded)
}

// calculatedOffer concedes the most tradable units while the retained value
// stays strictly above a floor that decays from the total value towards
// lowestReqValue as rounds run out.
func (e *Engine) calculatedOffer(ranked []tradable) Proposal {
	s := &e.state
	lowest := e.thresholds.LowestReqValue
	reqValue := lowest
	if s.Rounds > 1 {
		reqValue = lowest + (float64(s.RoundsLeft)/float64(s.Rounds-1))*(e.catalog.TotalValue-lowest)
	}
	e.logf("reqValue: %v", reqValue)

	conceded := make([]int, e.catalog.Len())
	est := 0.0
	retained := e.catalog.TotalValue
	for _, t := range ranked {
		k := 0
		for k < t.count && retained-t.value > reqValue {
			k++
			est += t.estOpValue
			retained -= t.value
		}
		conceded[t.index] = k
	}
	e.logf("calculated concession, estimated opponent gain %v", est)
	return e.keepAfter(conceded)
}

// keepAfter turns per-item concessions into the kept counts. Zero-value
// items are always conceded in full.
func (e *Engine) keepAfter(conceded []int) Proposal {
	out := make(Proposal, e.catalog.Len())
	for i, it := range e.catalog.Items {
		if it.Value == 0 {
			continue
		}
		out[i] = it.Count - conceded[i]
	}
	return out
}
