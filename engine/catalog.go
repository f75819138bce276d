package engine

import (
	"fmt"
	"math"
)

// Item is one item type of the catalog. Its index in the catalog is its
// identity for the whole match.
type Item struct {
	Count         int
	Value         float64 // per-unit value to the engine's owner
	SubTotalValue float64 // Count * Value
}

// Catalog is the static description of a match's items and its derived
// aggregates. It is never mutated after NewCatalog.
type Catalog struct {
	Items             []Item
	TotalCount        int
	TotalValue        float64
	TotalNoValueCount int // units of items valued at zero
	IsAllValued       bool
}

// NewCatalog builds a Catalog from parallel count and value vectors.
func NewCatalog(counts []int, values []float64) (Catalog, error) {
	if len(counts) == 0 {
		return Catalog{}, fmt.Errorf("%w: empty catalog", ErrConfiguration)
	}
	if len(counts) != len(values) {
		return Catalog{}, fmt.Errorf("%w: %d counts but %d values", ErrConfiguration, len(counts), len(values))
	}

	c := Catalog{Items: make([]Item, len(counts))}
	for i, n := range counts {
		v := values[i]
		if n < 1 {
			return Catalog{}, fmt.Errorf("%w: item %d count %d must be at least 1", ErrConfiguration, i, n)
		}
		if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			return Catalog{}, fmt.Errorf("%w: item %d value %v must be a finite non-negative number", ErrConfiguration, i, v)
		}
		sub := float64(n) * v
		c.Items[i] = Item{Count: n, Value: v, SubTotalValue: sub}
		if v == 0 {
			c.TotalNoValueCount += n
		}
		c.TotalCount += n
		c.TotalValue += sub
	}
	c.IsAllValued = c.TotalNoValueCount == 0
	return c, nil
}

// Len returns the number of item types.
func (c Catalog) Len() int { return len(c.Items) }

// Counts returns the per-item counts as a fresh slice.
func (c Catalog) Counts() []int {
	out := make([]int, len(c.Items))
	for i, it := range c.Items {
		out[i] = it.Count
	}
	return out
}

// HoldVector returns the proposal that keeps every unit.
func (c Catalog) HoldVector() Proposal {
	return Proposal(c.Counts())
}

// Complement returns, for each item, the units not covered by p. It turns
// one side's kept counts into the other side's.
func (c Catalog) Complement(p Proposal) Proposal {
	out := make(Proposal, len(c.Items))
	for i, it := range c.Items {
		out[i] = it.Count - p[i]
	}
	return out
}
