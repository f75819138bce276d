// internal/match/generate.go
package match

import (
	"fmt"
	"math/rand/v2"

	engine "github.com/jason-s-yu/haggle/engine"
	"github.com/jason-s-yu/haggle/service/internal/config"
)

// maxGenerateTries bounds the rejection sampling in Generator.Next.
const maxGenerateTries = 10000

// Generator produces random self-play matches: 2..MaxTypes item types with
// at most MaxUnits units in total, two private integer valuations that both
// sum to TotalValue, and every item valued by at least one party.
type Generator struct {
	MaxTypes   int
	MaxUnits   int
	TotalValue int
	Rounds     int
	Strategy   engine.Strategy

	rng *rand.Rand
}

// NewGenerator returns a Generator with the standard contest shape, seeded
// deterministically.
func NewGenerator(seed uint64) *Generator {
	return &Generator{
		MaxTypes:   3,
		MaxUnits:   6,
		TotalValue: 10,
		Rounds:     5,
		Strategy:   engine.DefaultStrategy(),
		rng:        rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
	}
}

// Next returns the next random match.
func (g *Generator) Next() (config.Match, error) {
	if g.MaxTypes < 2 || g.MaxUnits < g.MaxTypes || g.TotalValue < 1 || g.Rounds < 1 {
		return config.Match{}, fmt.Errorf("%w: generator shape %+v", engine.ErrConfiguration, *g)
	}
	for try := 0; try < maxGenerateTries; try++ {
		counts := g.counts()
		a, ok := g.values(counts)
		if !ok {
			continue
		}
		b, ok := g.values(counts)
		if !ok {
			continue
		}
		if !everyItemValued(a, b) {
			continue
		}
		return config.Match{
			Rounds:   g.Rounds,
			Counts:   counts,
			ValuesA:  a,
			ValuesB:  b,
			Strategy: g.Strategy,
		}, nil
	}
	return config.Match{}, fmt.Errorf("no valid catalog after %d tries", maxGenerateTries)
}

func (g *Generator) counts() []int {
	n := 2 + g.rng.IntN(g.MaxTypes-1)
	counts := make([]int, n)
	left := g.MaxUnits - n
	for i := range counts {
		counts[i] = 1
		if left > 0 {
			extra := g.rng.IntN(left + 1)
			counts[i] += extra
			left -= extra
		}
	}
	return counts
}

// values draws integer per-unit values summing to TotalValue over counts,
// visiting items in random order so the last item absorbs the remainder.
func (g *Generator) values(counts []int) ([]float64, bool) {
	out := make([]float64, len(counts))
	order := g.rng.Perm(len(counts))
	left := g.TotalValue
	for k, i := range order {
		if k == len(order)-1 {
			if left%counts[i] != 0 {
				return nil, false
			}
			out[i] = float64(left / counts[i])
			return out, true
		}
		v := g.rng.IntN(left/counts[i] + 1)
		out[i] = float64(v)
		left -= v * counts[i]
	}
	return out, true
}

func everyItemValued(a, b []float64) bool {
	for i := range a {
		if a[i] == 0 && b[i] == 0 {
			return false
		}
	}
	return true
}
