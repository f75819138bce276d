package engine

import "fmt"

// CheckProposal reports whether p is a well-formed proposal for the catalog:
// one entry per item, each within [0, count]. Out-of-range entries are
// rejected, never clamped.
func (c Catalog) CheckProposal(p Proposal) error {
	if len(p) != len(c.Items) {
		return fmt.Errorf("%w: proposal has %d entries, catalog has %d items", ErrProtocol, len(p), len(c.Items))
	}
	for i, n := range p {
		if n < 0 || n > c.Items[i].Count {
			return fmt.Errorf("%w: proposal entry %d is %d, want 0..%d", ErrProtocol, i, n, c.Items[i].Count)
		}
	}
	return nil
}
