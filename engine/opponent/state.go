// Package opponent tracks what the counterpart of a negotiation has revealed
// about its preferences through the proposals it makes.
package opponent

// Model is the running estimate of the opponent's demand. It is created once
// per match and mutated only by Observe.
type Model struct {
	counts []int

	// RequestHistory holds, per observed proposal, the units the opponent
	// asked for (count - offered).
	RequestHistory [][]int
	// FoldReqHistory holds the requests made once the opponent stopped
	// asking for everything.
	FoldReqHistory [][]int

	TimesHeld          int
	TimesHeldAfterFold int
	HasFolded          bool

	// IsStubborn stays true until the first observed change between two
	// consecutive incoming proposals. It never becomes true again.
	IsStubborn bool

	SubTotalReqCounts []int     // cumulative requested units per item
	TotalReqCount     int       // sum of SubTotalReqCounts
	ImportanceScores  []float64 // SubTotalReqCounts[i] / counts[i], cumulative and unbounded

	lastOffered []int
	observed    bool
}

// Observation summarises what one incoming proposal revealed.
type Observation struct {
	Requested []int // units the opponent asked for
	Held      bool  // the opponent offered nothing
	// HeldBeforeFold is set when the opponent held and has never yet made a
	// partial request.
	HeldBeforeFold bool
}

// New creates an empty Model for a catalog with the given per-item counts.
func New(counts []int) *Model {
	m := &Model{
		counts:            append([]int(nil), counts...),
		IsStubborn:        true,
		SubTotalReqCounts: make([]int, len(counts)),
		ImportanceScores:  make([]float64, len(counts)),
	}
	return m
}

// Len returns the number of items the model tracks.
func (m *Model) Len() int { return len(m.counts) }

// Observe folds one incoming proposal (the counts the opponent offers) into
// the model. offered must have one entry per item within [0, count]; the
// caller validates it.
func (m *Model) Observe(offered []int) Observation {
	req := make([]int, len(m.counts))
	held := true
	for i, n := range m.counts {
		req[i] = n - offered[i]
		if offered[i] != 0 {
			held = false
		}
	}

	m.RequestHistory = append(m.RequestHistory, req)

	if m.observed && m.IsStubborn && !sameCounts(offered, m.lastOffered) {
		m.IsStubborn = false
	}
	m.lastOffered = append(m.lastOffered[:0], offered...)
	m.observed = true

	obs := Observation{Requested: req, Held: held}
	if held {
		m.TimesHeld++
		if m.HasFolded {
			m.TimesHeldAfterFold++
		} else {
			obs.HeldBeforeFold = true
		}
	} else {
		m.HasFolded = true
		m.FoldReqHistory = append(m.FoldReqHistory, req)
	}

	total := 0
	for i := range m.SubTotalReqCounts {
		m.SubTotalReqCounts[i] += req[i]
		total += m.SubTotalReqCounts[i]
	}
	m.TotalReqCount = total
	for i, n := range m.counts {
		m.ImportanceScores[i] = float64(m.SubTotalReqCounts[i]) / float64(n)
	}

	return obs
}

// LastOffered returns a copy of the most recent incoming proposal, or nil
// before the first observation.
func (m *Model) LastOffered() []int {
	if !m.observed {
		return nil
	}
	return append([]int(nil), m.lastOffered...)
}

// RequestShare returns item i's share of all units requested so far. It is 0
// until the opponent has requested anything.
func (m *Model) RequestShare(i int) float64 {
	if m.TotalReqCount == 0 {
		return 0
	}
	return float64(m.SubTotalReqCounts[i]) / float64(m.TotalReqCount)
}

// Clone returns a deep copy of m.
func (m *Model) Clone() *Model {
	c := *m
	c.counts = append([]int(nil), m.counts...)
	c.RequestHistory = cloneRows(m.RequestHistory)
	c.FoldReqHistory = cloneRows(m.FoldReqHistory)
	c.SubTotalReqCounts = append([]int(nil), m.SubTotalReqCounts...)
	c.ImportanceScores = append([]float64(nil), m.ImportanceScores...)
	c.lastOffered = append([]int(nil), m.lastOffered...)
	return &c
}

// Snapshot is a read-only copy of a Model's counters.
type Snapshot struct {
	Observations       int       `json:"observations"`
	TimesHeld          int       `json:"times_held"`
	TimesHeldAfterFold int       `json:"times_held_after_fold"`
	HasFolded          bool      `json:"has_folded"`
	IsStubborn         bool      `json:"is_stubborn"`
	SubTotalReqCounts  []int     `json:"sub_total_req_counts"`
	TotalReqCount      int       `json:"total_req_count"`
	ImportanceScores   []float64 `json:"importance_scores"`
}

// Snapshot returns a copy of the model's counters.
func (m *Model) Snapshot() Snapshot {
	return Snapshot{
		Observations:       len(m.RequestHistory),
		TimesHeld:          m.TimesHeld,
		TimesHeldAfterFold: m.TimesHeldAfterFold,
		HasFolded:          m.HasFolded,
		IsStubborn:         m.IsStubborn,
		SubTotalReqCounts:  append([]int(nil), m.SubTotalReqCounts...),
		TotalReqCount:      m.TotalReqCount,
		ImportanceScores:   append([]float64(nil), m.ImportanceScores...),
	}
}

func sameCounts(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func cloneRows(rows [][]int) [][]int {
	if rows == nil {
		return nil
	}
	out := make([][]int, len(rows))
	for i, r := range rows {
		out[i] = append([]int(nil), r...)
	}
	return out
}
