// internal/match/tournament.go
package match

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"
)

// Summary aggregates a series of self-play matches.
type Summary struct {
	Matches    int        `json:"matches"`
	Agreements int        `json:"agreements"`
	MeanTurns  float64    `json:"mean_turns"`
	MeanShare  [2]float64 `json:"mean_share"` // over agreed matches, per party
}

// AgreementRate returns the fraction of matches that ended in agreement.
func (s Summary) AgreementRate() float64 {
	if s.Matches == 0 {
		return 0
	}
	return float64(s.Agreements) / float64(s.Matches)
}

// RunTournament plays n generated matches one after another.
func RunTournament(ctx context.Context, gen *Generator, n int, broadcastFn func(Event), logger *log.Entry) (Summary, error) {
	var sum Summary
	var turns int
	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			return sum, err
		}
		cfg, err := gen.Next()
		if err != nil {
			return sum, err
		}
		m, err := NewSelfPlay(cfg, broadcastFn, logger)
		if err != nil {
			return sum, fmt.Errorf("match %d: %w", i, err)
		}
		res, err := m.Run(ctx)
		if err != nil {
			return sum, fmt.Errorf("match %d: %w", i, err)
		}
		sum.Matches++
		turns += res.Turns
		if res.Agreed {
			sum.Agreements++
			sum.MeanShare[0] += res.Shares[0]
			sum.MeanShare[1] += res.Shares[1]
		}
	}
	if sum.Matches > 0 {
		sum.MeanTurns = float64(turns) / float64(sum.Matches)
	}
	if sum.Agreements > 0 {
		sum.MeanShare[0] /= float64(sum.Agreements)
		sum.MeanShare[1] /= float64(sum.Agreements)
	}
	return sum, nil
}
