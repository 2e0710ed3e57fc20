// Package sim drives one complete market session: a signal process, a
// designated market maker plus optional liquidity providers, and a
// population of price takers stepped in random order each iteration.
package sim

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/yanun0323/errors"
	"github.com/yanun0323/logs"

	"main/internal/agent"
	"main/internal/book"
	"main/internal/bus"
	"main/internal/codec"
	"main/internal/model"
	"main/internal/obs"
	"main/internal/pnl"
	"main/internal/schema"
	"main/internal/signal"
	"main/pkg/exception"
)

// eventSource identifies the simulation as the event producer.
const eventSource uint16 = 1

// Observer receives the run's journaled events and metrics. Any field
// may be nil.
type Observer struct {
	Events  *bus.Queue
	Trace   *obs.TraceGenerator
	Metrics *obs.Metrics
}

// Simulation runs one market session to completion.
type Simulation struct {
	params Params
	runID  uint64
	sink   Observer
	seq    uint64
}

// New validates the parameters and prepares a run.
func New(params Params, runID uint64, sink Observer) (*Simulation, error) {
	params = params.WithDefaults()
	if err := params.Validate(); err != nil {
		return nil, err
	}
	return &Simulation{params: params, runID: runID, sink: sink}, nil
}

type takerEntry struct {
	taker agent.Taker
	kind  schema.ParticipantKind
}

// Run executes the session and returns its report. Cancelling the
// context stops the run early; a report is still produced unless the
// market never quoted.
func (s *Simulation) Run(ctx context.Context) (Report, error) {
	start := time.Now()
	p := s.params

	sig, err := signal.New(signal.Config{
		InitialPrice: p.InitialPrice,
		Volatility:   p.Volatility,
		MaxWait:      p.MaxWait,
		Seed:         subSeed(p.Seed, 0),
	})
	if err != nil {
		return Report{}, errors.Wrapf(err, "run %d", s.runID)
	}

	engine := book.NewEngine()
	engine.Open()

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go sig.Run(runCtx)

	makers := s.buildMakers(engine, sig)
	takers := s.buildTakers(engine, sig)

	var wg sync.WaitGroup
	for _, m := range makers {
		if !m.Start() {
			return Report{}, errors.Wrapf(exception.ErrInvalidConfig, "maker %s cannot start", m.Name())
		}
		if p.MultithreadMakers {
			wg.Add(1)
			go func(m *agent.Maker) {
				defer wg.Done()
				m.Run(runCtx)
			}(m)
		}
	}
	if !p.MultithreadMakers {
		for _, m := range makers {
			m.RunOnce()
		}
	}

	// takers only act against a live quote
	if err := waitForQuote(runCtx, engine); err != nil {
		return Report{}, err
	}

	rng := rand.New(rand.NewSource(runSeed(p.Seed)))
	iterations := 0

loop:
	for i := 0; i < p.MaxIterations; i++ {
		select {
		case <-runCtx.Done():
			break loop
		default:
		}

		if !p.MultithreadMakers {
			makers[0].RunOnce()
			for _, idx := range rng.Perm(len(makers) - 1) {
				makers[idx+1].RunOnce()
			}
		}

		// each taker acts once per iteration, in a fresh random order
		for _, idx := range rng.Perm(len(takers)) {
			takers[idx].taker.Step()
		}
		s.publishTick(iterations, sig, engine)
		iterations++

		sleep := time.Duration(rng.Int63n(int64(p.MaxWait))) + time.Millisecond
		select {
		case <-runCtx.Done():
			break loop
		case <-time.After(sleep):
		}
	}

	cancel()
	wg.Wait()
	for _, m := range makers {
		m.Stop()
	}
	engine.Close()

	lastPrice := sig.Perfect()
	report := s.buildReport(iterations, lastPrice, makers, takers)
	report.Duration = time.Since(start)

	s.sink.Metrics.ObserveRun(report.Duration)
	s.publishReport(report)
	s.logReport(report)
	return report, nil
}

func (s *Simulation) buildMakers(engine *book.Engine, sig *signal.Generator) []*agent.Maker {
	p := s.params
	makers := make([]*agent.Maker, 0, 1+p.LiquidityProviders)
	makers = append(makers, agent.NewMaker(agent.MakerConfig{
		Name:           "MM0",
		OrderSize:      p.DesignatedSize,
		FixedSpread:    p.FixedSpread,
		BiasSpread:     p.BiasSpread,
		SignalMode:     p.MakerSignalMode,
		NoiseMagnitude: p.NoiseMagnitude,
		MaxWait:        p.MaxWait,
		Risk:           p.Risk,
		Seed:           subSeed(p.Seed, 1),
	}, engine, sig))

	for i := 0; i < p.LiquidityProviders; i++ {
		makers = append(makers, agent.NewMaker(agent.MakerConfig{
			Name:           fmt.Sprintf("MM%d", i+1),
			OrderSize:      p.MakerOrderSize,
			FixedSpread:    p.ProviderSpread,
			BiasSpread:     p.BiasSpread,
			SignalMode:     p.MakerSignalMode,
			NoiseMagnitude: p.NoiseMagnitude,
			MaxWait:        p.MaxWait,
			Risk:           p.Risk,
			Seed:           subSeed(p.Seed, int64(2+i)),
		}, engine, sig))
	}
	return makers
}

func (s *Simulation) buildTakers(engine *book.Engine, sig *signal.Generator) []takerEntry {
	p := s.params
	takers := make([]takerEntry, 0, p.TotalTakers())
	for i := 0; i < p.PerfectTakers; i++ {
		takers = append(takers, takerEntry{
			taker: agent.NewInformedTaker(fmt.Sprintf("PIPT%d", i), engine, sig, agent.SignalPerfect, 0),
			kind:  schema.ParticipantPerfectTaker,
		})
	}
	for i := 0; i < p.NoisyTakers; i++ {
		takers = append(takers, takerEntry{
			taker: agent.NewInformedTaker(fmt.Sprintf("NIPT%d", i), engine, sig, agent.SignalNoisy, p.NoiseMagnitude),
			kind:  schema.ParticipantNoisyTaker,
		})
	}
	for i := 0; i < p.RandomTakers; i++ {
		takers = append(takers, takerEntry{
			taker: agent.NewRandomTaker(fmt.Sprintf("RPT%d", i), engine, subSeed(p.Seed, int64(100+i))),
			kind:  schema.ParticipantRandomTaker,
		})
	}
	return takers
}

func waitForQuote(ctx context.Context, engine *book.Engine) error {
	for {
		q := engine.BestBidOffer()
		if q.HasBid || q.HasAsk {
			return nil
		}
		select {
		case <-ctx.Done():
			return errors.Wrapf(exception.ErrRunCancelled, "waiting for first quote")
		case <-time.After(100 * time.Microsecond):
		}
	}
}

func (s *Simulation) buildReport(iterations int, lastPrice model.Price, makers []*agent.Maker, takers []takerEntry) Report {
	report := Report{
		RunID:      s.runID,
		Iterations: iterations,
		LastPrice:  lastPrice,
	}

	id := uint32(0)
	for i, m := range makers {
		id++
		kind := schema.ParticipantMaker
		if i > 0 {
			kind = schema.ParticipantProvider
		}
		fills := m.Fills()
		r := ParticipantResult{
			ID:     id,
			Name:   m.Name(),
			Kind:   kind,
			Trades: len(fills),
			Pnl:    pnl.Calculate(fills, lastPrice),
			Fills:  fills,
		}
		report.Makers = append(report.Makers, r)
		report.MakerProfit += r.Total()
	}

	for _, e := range takers {
		id++
		fills := e.taker.Fills()
		trades, noTrades := e.taker.Counts()
		r := ParticipantResult{
			ID:       id,
			Name:     e.taker.Name(),
			Kind:     e.kind,
			Trades:   trades,
			NoTrades: noTrades,
			Pnl:      pnl.Calculate(fills, lastPrice),
			Fills:    fills,
		}
		report.Takers = append(report.Takers, r)
		report.TakerProfit += r.Total()
	}

	report.Mismatch = abs(report.MakerProfit)-abs(report.TakerProfit) > mismatchTolerance
	return report
}

// publishTick journals the post-iteration market state: the true
// signal and the live best bid/offer.
func (s *Simulation) publishTick(iteration int, sig *signal.Generator, engine *book.Engine) {
	if s.sink.Events == nil {
		return
	}
	q := engine.BestBidOffer()
	tick := schema.TickRecord{
		RunID:     s.runID,
		Iteration: uint32(iteration),
		Signal:    sig.Perfect(),
		BidPrice:  q.Bid,
		BidSize:   q.BidSize,
		AskPrice:  q.Ask,
		AskSize:   q.AskSize,
	}
	if q.HasBid {
		tick.Flags |= schema.TickFlagHasBid
	}
	if q.HasAsk {
		tick.Flags |= schema.TickFlagHasAsk
	}
	s.publish(schema.EventTick, codec.EncodeTick(nil, tick))
}

func (s *Simulation) publishReport(report Report) {
	if s.sink.Events == nil {
		return
	}

	participants := make([]ParticipantResult, 0, len(report.Makers)+len(report.Takers))
	participants = append(participants, report.Makers...)
	participants = append(participants, report.Takers...)

	for _, p := range participants {
		for _, f := range p.Fills {
			payload := codec.EncodeFill(nil, schema.FillRecord{
				RunID:         report.RunID,
				ParticipantID: p.ID,
				Side:          f.Side(),
				Price:         f.Price,
				Qty:           f.Qty,
			})
			s.publish(schema.EventFill, payload)
		}
		payload := codec.EncodeParticipantSummary(nil, schema.ParticipantSummary{
			RunID:           report.RunID,
			ParticipantID:   p.ID,
			Kind:            p.Kind,
			Direction:       p.Pnl.Direction,
			Name:            schema.Name(p.Name),
			Trades:          uint32(p.Trades),
			NoTrades:        uint32(p.NoTrades),
			Realized:        p.Pnl.Realized,
			Unrealized:      p.Pnl.Unrealized,
			UnrealizedUnits: p.Pnl.UnrealizedUnits,
		})
		s.publish(schema.EventParticipantSummary, payload)
	}

	s.publish(schema.EventRunSummary, codec.EncodeRunSummary(nil, report.Summary()))
}

func (s *Simulation) publish(eventType schema.EventType, payload []byte) {
	s.seq++
	now := time.Now().UTC().UnixNano()
	header := schema.NewHeader(eventType, eventSource, s.seq, now, 0)
	header.TraceID = s.sink.Trace.Next()

	if err := s.sink.Events.TryPublish(bus.Event{Header: header, Payload: payload}); err != nil {
		if err == bus.ErrQueueClosed {
			s.sink.Metrics.IncQueueClosed()
		} else {
			s.sink.Metrics.IncQueueDrop()
		}
		logs.Errorf("run %d: publish %s: %v", s.runID, eventType, err)
	}
}

func (s *Simulation) logReport(report Report) {
	for _, p := range report.Makers {
		logs.Infof("run %d: %s total=%s realized=%s unrealized=%s fills=%d",
			report.RunID, p.Name, p.Total(), p.Pnl.Realized, p.Pnl.Unrealized, len(p.Fills))
	}
	for _, p := range report.Takers {
		logs.Infof("run %d: %s total=%s trades=%d noTrades=%d",
			report.RunID, p.Name, p.Total(), p.Trades, p.NoTrades)
	}
	logs.Infof("run %d: last=%s maker=%s takers=%s iterations=%d took=%s",
		report.RunID, report.LastPrice, report.MakerProfit, report.TakerProfit,
		report.Iterations, report.Duration)
	if report.Mismatch {
		logs.Errorf("run %d: pnl mismatch, maker %s vs takers %s",
			report.RunID, report.MakerProfit, report.TakerProfit)
	}
}

func subSeed(seed, offset int64) int64 {
	if seed == 0 {
		return 0
	}
	return seed + offset
}

func runSeed(seed int64) int64 {
	if seed == 0 {
		return time.Now().UTC().UnixNano()
	}
	return seed + 999
}

func abs(n model.Notional) model.Notional {
	if n < 0 {
		return -n
	}
	return n
}
