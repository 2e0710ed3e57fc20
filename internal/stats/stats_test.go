package stats

import (
	"math"
	"testing"

	"github.com/shopspring/decimal"

	"main/internal/model"
)

func notional(v float64) model.Notional {
	return model.Notional(model.PriceFromFloat(v))
}

func TestSummarize(t *testing.T) {
	results := []model.Notional{
		notional(150),
		notional(-30),
		notional(50),
		notional(0),
		notional(-70),
	}

	s := Summarize(results)

	if s.Runs != 5 || s.Wins != 2 || s.Losses != 2 || s.Flats != 1 {
		t.Fatalf("counts: %+v", s)
	}
	if s.TotalProfit != notional(100) {
		t.Fatalf("total %s, want 100.00", s.TotalProfit)
	}
	if !s.WinRatio.Equal(decimal.NewFromFloat(0.5)) {
		t.Fatalf("win ratio %s, want 0.5", s.WinRatio)
	}
	if !s.AverageWin.Equal(decimal.NewFromInt(100)) {
		t.Fatalf("average win %s, want 100", s.AverageWin)
	}
	if !s.AverageLoss.Equal(decimal.NewFromInt(-50)) {
		t.Fatalf("average loss %s, want -50", s.AverageLoss)
	}
}

func TestSummarizeEmpty(t *testing.T) {
	s := Summarize(nil)
	if s.Runs != 0 || !s.WinRatio.IsZero() || !s.AverageWin.IsZero() || !s.AverageLoss.IsZero() {
		t.Fatalf("empty batch must be all zero: %+v", s)
	}
}

func TestSummarizeAllWins(t *testing.T) {
	s := Summarize([]model.Notional{notional(10), notional(20)})
	if !s.WinRatio.Equal(decimal.NewFromInt(1)) {
		t.Fatalf("win ratio %s, want 1", s.WinRatio)
	}
	if !s.AverageLoss.IsZero() {
		t.Fatalf("average loss %s, want 0", s.AverageLoss)
	}
}

func TestNormDist(t *testing.T) {
	// peak of the standard normal
	if got := NormDist(0, 1, 0); math.Abs(got-0.3989422804014327) > 1e-12 {
		t.Fatalf("pdf(0) = %v", got)
	}
	// symmetry
	if NormDist(0, 1, 1.5) != NormDist(0, 1, -1.5) {
		t.Fatal("pdf must be symmetric around the mean")
	}
	// scaling by sigma
	if got := NormDist(10, 2, 10); math.Abs(got-0.19947114020071635) > 1e-12 {
		t.Fatalf("pdf at mean with sigma 2 = %v", got)
	}
}
