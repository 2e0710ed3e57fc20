package sim

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"main/internal/bus"
	"main/internal/codec"
	"main/internal/model"
	"main/internal/obs"
	"main/internal/schema"
)

func testParams() Params {
	return Params{
		Volatility:         0, // frozen signal keeps the run reproducible
		MakerOrderSize:     100,
		PerfectTakers:      1,
		RandomTakers:       2,
		LiquidityProviders: 1,
		MaxIterations:      20,
		MaxWait:            time.Millisecond,
		MultithreadMakers:  false,
		Seed:               42,
	}
}

func TestNewRejectsInvalidParams(t *testing.T) {
	p := testParams()
	p.Volatility = -1
	_, err := New(p, 1, Observer{})
	require.Error(t, err)
}

func TestRunProducesBalancedReport(t *testing.T) {
	s, err := New(testParams(), 1, Observer{})
	require.NoError(t, err)

	report, err := s.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, uint64(1), report.RunID)
	assert.Equal(t, 20, report.Iterations)
	require.Len(t, report.Makers, 2, "designated maker plus one provider")
	require.Len(t, report.Takers, 3)
	assert.Equal(t, "MM0", report.Makers[0].Name)
	assert.Equal(t, schema.ParticipantMaker, report.Makers[0].Kind)
	assert.Equal(t, schema.ParticipantProvider, report.Makers[1].Kind)

	// every fill is double-booked, so the two sides offset exactly
	assert.Equal(t, report.MakerProfit, -report.TakerProfit)
	assert.False(t, report.Mismatch)
	assert.Greater(t, report.LastPrice, model.Price(0))
}

func TestFrozenSignalKeepsInformedTakerOut(t *testing.T) {
	p := testParams()
	p.RandomTakers = 0
	s, err := New(p, 2, Observer{})
	require.NoError(t, err)

	report, err := s.Run(context.Background())
	require.NoError(t, err)

	// with zero volatility the signal stays pinned inside the spread
	require.Len(t, report.Takers, 1)
	assert.Equal(t, 0, report.Takers[0].Trades)
	assert.Equal(t, 20, report.Takers[0].NoTrades)
	assert.Equal(t, model.Notional(0), report.MakerProfit)
}

func TestRunPublishesJournalEvents(t *testing.T) {
	queue := bus.NewQueue(4096)
	metrics := obs.NewMetrics()
	sink := Observer{
		Events:  queue,
		Trace:   obs.NewTraceGenerator(1),
		Metrics: metrics,
	}
	s, err := New(testParams(), 3, sink)
	require.NoError(t, err)

	report, err := s.Run(context.Background())
	require.NoError(t, err)
	queue.Close()

	var ticks, fills, summaries, runs int
	var journaled schema.RunSummary
	var lastTick schema.TickRecord
	queue.Run(context.Background(), func(e bus.Event) {
		switch e.Header.Type {
		case schema.EventTick:
			ticks++
			decoded, ok := codec.DecodeTick(e.Payload)
			require.True(t, ok)
			lastTick = decoded
		case schema.EventFill:
			fills++
		case schema.EventParticipantSummary:
			summaries++
		case schema.EventRunSummary:
			runs++
			decoded, ok := codec.DecodeRunSummary(e.Payload)
			require.True(t, ok)
			journaled = decoded
		}
	})

	totalFills := 0
	for _, p := range append(report.Makers, report.Takers...) {
		totalFills += len(p.Fills)
	}
	assert.Equal(t, totalFills, fills)
	assert.Equal(t, report.Iterations, ticks)
	assert.Equal(t, report.RunID, lastTick.RunID)
	assert.Equal(t, uint32(report.Iterations-1), lastTick.Iteration)
	assert.Greater(t, lastTick.Signal, model.Price(0))
	assert.Equal(t, len(report.Makers)+len(report.Takers), summaries)
	assert.Equal(t, 1, runs)
	assert.Equal(t, report.RunID, journaled.RunID)
	assert.Equal(t, report.MakerProfit, journaled.MakerProfit)
	assert.Equal(t, uint64(0), metrics.Snapshot().QueueDrops)
}

func TestRunStopsOnCancelledContext(t *testing.T) {
	p := testParams()
	p.MaxIterations = 100000
	s, err := New(p, 4, Observer{})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	var report Report
	go func() {
		report, err = s.Run(ctx)
		close(done)
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("run did not stop after cancel")
	}
	require.NoError(t, err)
	assert.Less(t, report.Iterations, 100000)
}

func TestParamDefaults(t *testing.T) {
	p := Params{}.WithDefaults()
	assert.Equal(t, model.PriceFromFloat(100), p.InitialPrice)
	assert.Equal(t, model.Quantity(10), p.DesignatedSize)
	assert.Equal(t, model.PriceFromFloat(2.5), p.ProviderSpread)
	assert.Equal(t, 200, p.MaxIterations)
	require.NoError(t, p.Validate())
}
