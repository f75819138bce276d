package engine

// Value returns the worth of the counts in p to the catalog's owner.
func (c Catalog) Value(p Proposal) float64 {
	v := 0.0
	for i, it := range c.Items {
		v += float64(p[i]) * it.Value
	}
	return v
}

// Share returns Value(p) as a fraction of the catalog's total value, or 0 for
// a catalog worth nothing.
func (c Catalog) Share(p Proposal) float64 {
	if c.TotalValue == 0 {
		return 0
	}
	return c.Value(p) / c.TotalValue
}
