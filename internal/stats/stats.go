// Package stats aggregates per-run profits into the batch summary
// reported at the end of a session of simulations.
package stats

import (
	"math"

	"github.com/shopspring/decimal"

	"main/internal/model"
)

// BatchSummary describes the outcome distribution of a batch of runs.
type BatchSummary struct {
	Runs        int
	TotalProfit model.Notional
	Wins        int
	Losses      int
	Flats       int

	// WinRatio is wins over decided runs (wins plus losses).
	WinRatio decimal.Decimal
	// AverageWin and AverageLoss are in currency units. They are zero
	// when no run landed on that side.
	AverageWin  decimal.Decimal
	AverageLoss decimal.Decimal
}

// Summarize folds per-run profits into a batch summary.
func Summarize(results []model.Notional) BatchSummary {
	s := BatchSummary{Runs: len(results)}

	var winSum, lossSum model.Notional
	for _, r := range results {
		s.TotalProfit += r
		switch {
		case r > 0:
			s.Wins++
			winSum += r
		case r < 0:
			s.Losses++
			lossSum += r
		default:
			s.Flats++
		}
	}

	if decided := s.Wins + s.Losses; decided > 0 {
		s.WinRatio = decimal.NewFromInt(int64(s.Wins)).
			Div(decimal.NewFromInt(int64(decided)))
	}
	if s.Wins > 0 {
		s.AverageWin = decimal.New(int64(winSum), -model.NotionalScale).
			Div(decimal.NewFromInt(int64(s.Wins)))
	}
	if s.Losses > 0 {
		s.AverageLoss = decimal.New(int64(lossSum), -model.NotionalScale).
			Div(decimal.NewFromInt(int64(s.Losses)))
	}
	return s
}

// NormDist is the normal probability density at x for the given mean
// and standard deviation.
func NormDist(mu, sigma, x float64) float64 {
	z := (x - mu) / sigma
	return 1 / (sigma * math.Sqrt(2*math.Pi)) * math.Exp(-0.5*z*z)
}
