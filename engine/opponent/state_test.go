package opponent

import "testing"

// TestObserveHold verifies an all-zero offer counts as a hold before any fold.
func TestObserveHold(t *testing.T) {
	m := New([]int{3, 2})
	obs := m.Observe([]int{0, 0})

	if !obs.Held || !obs.HeldBeforeFold {
		t.Fatalf("Held=%v HeldBeforeFold=%v, want true/true", obs.Held, obs.HeldBeforeFold)
	}
	if m.TimesHeld != 1 || m.TimesHeldAfterFold != 0 {
		t.Errorf("TimesHeld=%d TimesHeldAfterFold=%d, want 1/0", m.TimesHeld, m.TimesHeldAfterFold)
	}
	if got := obs.Requested; got[0] != 3 || got[1] != 2 {
		t.Errorf("Requested = %v, want [3 2]", got)
	}
	if m.TotalReqCount != 5 {
		t.Errorf("TotalReqCount = %d, want 5", m.TotalReqCount)
	}
	if m.ImportanceScores[0] != 1 || m.ImportanceScores[1] != 1 {
		t.Errorf("ImportanceScores = %v, want [1 1]", m.ImportanceScores)
	}
}

// TestObserveFoldThenHold verifies holding after a fold is tracked
// separately and no longer reported as a pre-fold hold.
func TestObserveFoldThenHold(t *testing.T) {
	m := New([]int{3, 2})
	obs := m.Observe([]int{1, 0})
	if obs.Held {
		t.Fatal("partial request reported as hold")
	}
	if !m.HasFolded || len(m.FoldReqHistory) != 1 {
		t.Fatalf("HasFolded=%v FoldReqHistory=%v", m.HasFolded, m.FoldReqHistory)
	}

	obs = m.Observe([]int{0, 0})
	if !obs.Held || obs.HeldBeforeFold {
		t.Fatalf("Held=%v HeldBeforeFold=%v, want true/false", obs.Held, obs.HeldBeforeFold)
	}
	if m.TimesHeld != 1 || m.TimesHeldAfterFold != 1 {
		t.Errorf("TimesHeld=%d TimesHeldAfterFold=%d, want 1/1", m.TimesHeld, m.TimesHeldAfterFold)
	}
	if len(m.RequestHistory) != 2 || len(m.FoldReqHistory) != 1 {
		t.Errorf("history lengths %d/%d, want 2/1", len(m.RequestHistory), len(m.FoldReqHistory))
	}
}

// TestImportanceAccumulates verifies importance scores are cumulative and can
// exceed 1.
func TestImportanceAccumulates(t *testing.T) {
	m := New([]int{2, 4})
	for i := 0; i < 3; i++ {
		m.Observe([]int{0, 2})
	}
	if m.SubTotalReqCounts[0] != 6 || m.SubTotalReqCounts[1] != 6 {
		t.Fatalf("SubTotalReqCounts = %v, want [6 6]", m.SubTotalReqCounts)
	}
	if m.ImportanceScores[0] != 3 {
		t.Errorf("ImportanceScores[0] = %v, want 3", m.ImportanceScores[0])
	}
	if m.ImportanceScores[1] != 1.5 {
		t.Errorf("ImportanceScores[1] = %v, want 1.5", m.ImportanceScores[1])
	}
	if got := m.RequestShare(0); got != 0.5 {
		t.Errorf("RequestShare(0) = %v, want 0.5", got)
	}
}

// TestRequestShareBeforeAnyRequest verifies the share is 0 instead of a
// division by zero.
func TestRequestShareBeforeAnyRequest(t *testing.T) {
	m := New([]int{2, 4})
	m.Observe([]int{2, 4})
	if m.TotalReqCount != 0 {
		t.Fatalf("TotalReqCount = %d, want 0", m.TotalReqCount)
	}
	if got := m.RequestShare(1); got != 0 {
		t.Errorf("RequestShare = %v, want 0", got)
	}
}

// TestStubbornnessIsMonotone verifies the first change clears IsStubborn for
// good.
func TestStubbornnessIsMonotone(t *testing.T) {
	m := New([]int{3, 3})
	steps := []struct {
		offered  []int
		stubborn bool
	}{
		{[]int{1, 1}, true},
		{[]int{1, 1}, true},
		{[]int{1, 2}, false},
		{[]int{1, 2}, false},
		{[]int{1, 2}, false},
	}
	for i, s := range steps {
		m.Observe(s.offered)
		if m.IsStubborn != s.stubborn {
			t.Fatalf("step %d: IsStubborn = %v, want %v", i, m.IsStubborn, s.stubborn)
		}
	}
}

// TestObserveCopiesInput verifies the model keeps its own copy of the last
// offer.
func TestObserveCopiesInput(t *testing.T) {
	m := New([]int{3, 3})
	offer := []int{1, 1}
	m.Observe(offer)
	offer[0] = 3
	m.Observe([]int{1, 1})
	if !m.IsStubborn {
		t.Fatal("caller mutation leaked into the model")
	}
	if got := m.LastOffered(); got[0] != 1 {
		t.Fatalf("LastOffered = %v", got)
	}
}

// TestCloneIsIndependent verifies observations on a clone do not touch the
// original.
func TestCloneIsIndependent(t *testing.T) {
	m := New([]int{3, 3})
	m.Observe([]int{0, 0})
	c := m.Clone()
	c.Observe([]int{1, 2})

	if m.HasFolded || !m.IsStubborn {
		t.Fatalf("original changed: HasFolded=%v IsStubborn=%v", m.HasFolded, m.IsStubborn)
	}
	if len(m.RequestHistory) != 1 || m.SubTotalReqCounts[0] != 3 {
		t.Fatalf("original history %v counts %v", m.RequestHistory, m.SubTotalReqCounts)
	}
	if s := c.Snapshot(); s.Observations != 2 || !s.HasFolded {
		t.Fatalf("clone snapshot %+v", s)
	}
}
