package agent

import (
	"math/rand"
	"time"

	"github.com/yanun0323/logs"

	"main/internal/book"
	"main/internal/model"
	"main/internal/signal"
)

const (
	informedTradeSize = model.Quantity(10)
	randomMinSize     = model.Quantity(1)
)

// InformedTaker trades whenever its view of the fair price crosses the
// quoted market: it sells into a bid above the signal and lifts an ask
// below it. With SignalNoisy the view is degraded by gaussian noise.
type InformedTaker struct {
	name   string
	engine *book.Engine
	sig    *signal.Generator
	mode   SignalMode
	noise  float64

	hist    fillBook
	current *book.Order
	trades  int
	misses  int
}

// NewInformedTaker builds a taker reading the signal in the given mode.
func NewInformedTaker(name string, engine *book.Engine, sig *signal.Generator, mode SignalMode, noiseMagnitude float64) *InformedTaker {
	return &InformedTaker{
		name:   name,
		engine: engine,
		sig:    sig,
		mode:   mode,
		noise:  noiseMagnitude,
	}
}

func (t *InformedTaker) Name() string { return t.name }

func (t *InformedTaker) Fills() []book.Fill { return t.hist.Fills() }

func (t *InformedTaker) Counts() (trades, noTrades int) { return t.trades, t.misses }

// Step reads the signal once and hits the quote when it is crossed.
// Any leftover from the previous step is pulled first.
func (t *InformedTaker) Step() {
	view := t.readSignal()
	quote := t.engine.BestBidOffer()

	if t.current != nil && !t.current.FullyFilled() {
		t.engine.Cancel(t.current)
		t.current = nil
	}

	switch {
	case quote.HasBid && view <= quote.Bid:
		// the market bids above our view, sell into it
		t.current = t.submit(model.SideSell, quote.Bid)
	case quote.HasAsk && view >= quote.Ask:
		// the market offers below our view, buy from it
		t.current = t.submit(model.SideBuy, quote.Ask)
	default:
		t.misses++
	}
}

func (t *InformedTaker) submit(side model.Side, price model.Price) *book.Order {
	order := book.NewOrder(side, price, informedTradeSize, t.hist.record)
	if !t.engine.Submit(order) {
		return nil
	}
	t.trades++
	return order
}

func (t *InformedTaker) readSignal() model.Price {
	if t.mode == SignalNoisy {
		return t.sig.Noisy(t.noise)
	}
	return t.sig.Perfect()
}

// RandomTaker flips a coin each step and trades a random slice of the
// quoted size at the touch. It supplies uninformed flow for the maker
// to earn the spread from.
type RandomTaker struct {
	name   string
	engine *book.Engine
	rng    *rand.Rand

	hist   fillBook
	trades int
	misses int
}

// NewRandomTaker builds an uninformed taker. Seed zero derives one
// from the clock.
func NewRandomTaker(name string, engine *book.Engine, seed int64) *RandomTaker {
	if seed == 0 {
		seed = time.Now().UTC().UnixNano()
	}
	return &RandomTaker{
		name:   name,
		engine: engine,
		rng:    rand.New(rand.NewSource(seed)),
	}
}

func (t *RandomTaker) Name() string { return t.name }

func (t *RandomTaker) Fills() []book.Fill { return t.hist.Fills() }

func (t *RandomTaker) Counts() (trades, noTrades int) { return t.trades, t.misses }

// Step trades at the touch on a coin flip.
func (t *RandomTaker) Step() {
	quote := t.engine.BestBidOffer()

	sell := t.rng.Intn(10) < 5
	switch {
	case sell && quote.HasBid:
		size := max(randomMinSize, model.Quantity(t.rng.Int63n(int64(quote.BidSize))))
		t.trade(model.SideSell, quote.Bid, size)
	case !sell && quote.HasAsk:
		size := max(randomMinSize, model.Quantity(t.rng.Int63n(int64(quote.AskSize))))
		t.trade(model.SideBuy, quote.Ask, size)
	default:
		t.misses++
	}
}

func (t *RandomTaker) trade(side model.Side, price model.Price, size model.Quantity) {
	order := book.NewOrder(side, price, size, t.hist.record)
	if !t.engine.Submit(order) {
		logs.Errorf("%s: submit rejected for %s", t.name, order)
		return
	}
	// residual quantity rests at the touch like any other order
	t.trades++
}
