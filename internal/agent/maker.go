package agent

import (
	"context"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"github.com/yanun0323/logs"

	"main/internal/book"
	"main/internal/model"
	"main/internal/risk"
	"main/internal/signal"
)

// MakerConfig controls one quoting market maker.
type MakerConfig struct {
	Name        string
	OrderSize   model.Quantity
	FixedSpread model.Price
	// BiasSpread widens the quote away from the last trade side for
	// one tick after a fill. Zero disables biasing.
	BiasSpread     model.Price
	SignalMode     SignalMode
	NoiseMagnitude float64
	MaxWait        time.Duration
	// MaxInventoryImbalance shifts quotes away from the market once
	// net inventory exceeds it. Zero uses the default of 80.
	MaxInventoryImbalance model.Quantity
	Risk                  risk.Config
	Seed                  int64
}

const defaultMaxImbalance = model.Quantity(80)

type makerQuote struct {
	bid, ask         model.Price
	bidSize, askSize model.Quantity
	hasBid, hasAsk   bool
}

// Maker quotes a two-sided market around the signal. RunOnce and Run
// must stay on a single goroutine; fills arrive asynchronously through
// the engine callback.
type Maker struct {
	cfg    MakerConfig
	engine *book.Engine
	sig    *signal.Generator
	gate   *risk.Engine
	rng    *rand.Rand

	hist fillBook

	tradeMu         sync.Mutex
	lastTradeSide   model.Side
	ticksSinceTrade int

	buy     *book.Order
	sell    *book.Order
	running atomic.Bool
}

// NewMaker builds a maker around the shared engine and signal.
func NewMaker(cfg MakerConfig, engine *book.Engine, sig *signal.Generator) *Maker {
	if cfg.MaxInventoryImbalance <= 0 {
		cfg.MaxInventoryImbalance = defaultMaxImbalance
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UTC().UnixNano()
	}
	return &Maker{
		cfg:    cfg,
		engine: engine,
		sig:    sig,
		gate:   risk.NewEngine(cfg.Risk),
		rng:    rand.New(rand.NewSource(seed)),
	}
}

func (m *Maker) Name() string { return m.cfg.Name }

// Fills returns the maker's fill history in receipt order.
func (m *Maker) Fills() []book.Fill { return m.hist.Fills() }

// Start enables quoting. A non-positive spread is a configuration
// error and leaves the maker stopped.
func (m *Maker) Start() bool {
	if m.cfg.FixedSpread <= 0 {
		logs.Errorf("%s: cannot start with fixed spread %s", m.cfg.Name, m.cfg.FixedSpread)
		return false
	}
	m.running.Store(true)
	return true
}

// Stop disables quoting and pulls any resting orders.
func (m *Maker) Stop() {
	m.running.Store(false)
	if m.buy != nil {
		m.engine.Cancel(m.buy)
	}
	if m.sell != nil {
		m.engine.Cancel(m.sell)
	}
}

// Run quotes in a loop with random pauses until the context is done.
func (m *Maker) Run(ctx context.Context) {
	for m.running.Load() {
		m.RunOnce()
		sleep := time.Duration(m.rng.Int63n(int64(m.cfg.MaxWait))) + time.Millisecond
		select {
		case <-ctx.Done():
			return
		case <-time.After(sleep):
		}
	}
}

// onFill is invoked by the engine under its lock. It must not call
// back into the engine.
func (m *Maker) onFill(f book.Fill) {
	m.hist.record(f)
	m.tradeMu.Lock()
	m.lastTradeSide = f.Side()
	m.ticksSinceTrade = 0
	m.tradeMu.Unlock()
	logs.Infof("%s: fill %s", m.cfg.Name, f)
}

// RunOnce prices one two-sided quote and reconciles it against the
// resting orders: unchanged orders stay, moved or exhausted ones are
// cancelled and replaced.
func (m *Maker) RunOnce() {
	if !m.running.Load() {
		return
	}

	sig := m.readSignal()
	q := m.quotePrices(sig)

	long, short := m.hist.position()
	state := risk.StateView{Inventory: long - short, ReferencePrice: sig}

	m.buy = m.reconcile(m.buy, model.SideBuy, q.bid, q.bidSize, q.hasBid, state)
	m.sell = m.reconcile(m.sell, model.SideSell, q.ask, q.askSize, q.hasAsk, state)

	m.tradeMu.Lock()
	m.ticksSinceTrade++
	m.tradeMu.Unlock()
}

// reconcile keeps a resting order when its price still matches the
// desired quote, otherwise replaces it.
func (m *Maker) reconcile(current *book.Order, side model.Side, price model.Price, size model.Quantity, want bool, state risk.StateView) *book.Order {
	if current != nil {
		if want && price == current.Price() && current.Remaining() > 0 {
			return current
		}
		if !m.engine.Cancel(current) {
			logs.Errorf("%s: failed to cancel %s", m.cfg.Name, current)
		}
	}
	if !want {
		return nil
	}

	intent := risk.Intent{Side: side, Price: price, Qty: size}
	if d := m.gate.Evaluate(intent, state); !d.Allowed() {
		logs.Infof("%s: quote %s %s x %s denied: %s", m.cfg.Name, side, price, size, d.Reason)
		return nil
	}

	order := book.NewOrder(side, price, size, m.onFill)
	if !m.engine.Submit(order) {
		return nil
	}
	return order
}

func (m *Maker) readSignal() model.Price {
	if m.cfg.SignalMode == SignalNoisy {
		return m.sig.Noisy(m.cfg.NoiseMagnitude)
	}
	return m.sig.Perfect()
}

// quotePrices derives the two-sided quote from the signal, the current
// inventory and the recent trade flow.
func (m *Maker) quotePrices(sig model.Price) makerQuote {
	spread := m.cfg.FixedSpread
	q := makerQuote{
		bid:     sig - spread,
		ask:     sig + spread,
		bidSize: m.cfg.OrderSize,
		askSize: m.cfg.OrderSize,
		hasBid:  true,
		hasAsk:  true,
	}

	long, short := m.hist.position()
	buyValue, sellValue := m.hist.values()

	// widen away from the last trade for one tick after a fill
	m.tradeMu.Lock()
	if m.ticksSinceTrade == 0 && m.lastTradeSide != model.SideUnknown && m.cfg.BiasSpread != 0 {
		switch m.lastTradeSide {
		case model.SideBuy:
			q.bid -= m.cfg.BiasSpread
		case model.SideSell:
			q.ask += m.cfg.BiasSpread
		}
	}
	m.tradeMu.Unlock()

	// unwind excess inventory at the signal when the market has come
	// back to or past our average entry price
	if long > short && model.Mul(sig, long) >= buyValue {
		q.askSize = max(long-short, m.cfg.OrderSize)
		q.ask = sig
		logs.Infof("%s: liquidation sell %s @ %s", m.cfg.Name, q.askSize, q.ask)
	} else if short > long && model.Mul(sig, short) <= sellValue {
		q.bidSize = max(short-long, m.cfg.OrderSize)
		q.bid = sig
		logs.Infof("%s: liquidation buy %s @ %s", m.cfg.Name, q.bidSize, q.bid)
	}

	// adjustments may cross our own quote; widen until it uncrosses,
	// leaning on the side that reduces inventory
	for q.bid >= q.ask {
		if short < long {
			q.ask += spread
		}
		if long > short {
			q.bid -= spread
		} else {
			half := ceilWholeHalf(spread)
			q.bid -= half
			q.ask += half
		}
	}

	// back the loaded side off once imbalance reaches the cap
	imbalance := long - short
	if imbalance >= m.cfg.MaxInventoryImbalance {
		q.bid -= m.backoff(spread)
		logs.Infof("%s: overbought %s, bid backed off to %s", m.cfg.Name, imbalance, q.bid)
	} else if -imbalance >= m.cfg.MaxInventoryImbalance {
		q.ask += m.backoff(spread)
		logs.Infof("%s: oversold %s, ask backed off to %s", m.cfg.Name, -imbalance, q.ask)
	}

	return q
}

func (m *Maker) backoff(spread model.Price) model.Price {
	ticks := int64(m.cfg.MaxInventoryImbalance / m.cfg.OrderSize)
	if ticks < 1 {
		ticks = 1
	}
	return model.Price(int64(spread) * ticks)
}

// ceilWholeHalf is half the spread rounded up to a whole currency unit.
func ceilWholeHalf(spread model.Price) model.Price {
	unit := int64(model.PriceFromFloat(1))
	v := int64(spread)
	if v < 0 {
		v = -v
	}
	return model.Price((v + 2*unit - 1) / (2 * unit) * unit)
}
