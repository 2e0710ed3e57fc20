package results

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"main/internal/model"
	"main/internal/sim"
	"main/internal/stats"
)

func TestNewRunRecord(t *testing.T) {
	report := sim.Report{
		RunID:       7,
		Iterations:  200,
		LastPrice:   model.PriceFromFloat(101.5),
		Duration:    250 * time.Millisecond,
		MakerProfit: model.Notional(model.PriceFromFloat(12.34)),
		TakerProfit: -model.Notional(model.PriceFromFloat(12.34)),
	}

	record := newRunRecord(3, report)

	assert.Equal(t, int64(3), record.SessionID)
	assert.Equal(t, uint64(7), record.RunID)
	assert.Equal(t, 200, record.Iterations)
	assert.Equal(t, int64(model.PriceFromFloat(101.5)), record.LastPrice)
	assert.Equal(t, int64(1234), record.MakerProfit)
	assert.Equal(t, int64(-1234), record.TakerProfit)
	assert.False(t, record.Mismatch)
	assert.Equal(t, int64(250*time.Millisecond), record.DurationNS)
}

func TestNewBatchRecord(t *testing.T) {
	summary := stats.Summarize([]model.Notional{
		model.Notional(model.PriceFromFloat(100)),
		model.Notional(model.PriceFromFloat(-50)),
		0,
	})

	record := newBatchRecord(9, summary)

	assert.Equal(t, int64(9), record.SessionID)
	assert.Equal(t, 3, record.Runs)
	assert.Equal(t, 1, record.Wins)
	assert.Equal(t, 1, record.Losses)
	assert.Equal(t, 1, record.Flats)
	assert.Equal(t, "0.5", record.WinRatio)
	assert.Equal(t, "100", record.AverageWin)
	assert.Equal(t, "-50", record.AverageLoss)
}
