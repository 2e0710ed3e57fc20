package book

import (
	"sort"
	"sync"

	"github.com/yanun0323/logs"

	"main/internal/model"
)

// State tracks whether the market accepts orders.
type State uint16

const (
	StateClosed State = iota
	StateOpen
)

// Quote is a best-bid-offer snapshot. A side with no resting size is
// reported absent, never as a zero-valued price.
type Quote struct {
	Bid     model.Price
	BidSize model.Quantity
	HasBid  bool

	Ask     model.Price
	AskSize model.Quantity
	HasAsk  bool
}

// Crossed reports whether both sides are present and overlap.
func (q Quote) Crossed() bool {
	return q.HasBid && q.HasAsk && q.Bid >= q.Ask
}

func (q Quote) String() string {
	buf := make([]byte, 0, 48)
	buf = append(buf, "b:"...)
	if q.HasBid {
		buf = q.Bid.AppendString(model.PriceScale, buf)
		buf = append(buf, 'x')
		buf = q.BidSize.AppendString(model.QuantityScale, buf)
	} else {
		buf = append(buf, '-')
	}
	buf = append(buf, ",a:"...)
	if q.HasAsk {
		buf = q.Ask.AppendString(model.PriceScale, buf)
		buf = append(buf, 'x')
		buf = q.AskSize.AppendString(model.QuantityScale, buf)
	} else {
		buf = append(buf, '-')
	}
	return string(buf)
}

// Engine is a price-time priority matching engine for one instrument.
// Every book operation runs under one exclusive section; fill
// callbacks are invoked synchronously inside that section, so a
// callback must never call back into the engine.
type Engine struct {
	mu    sync.Mutex
	state State
	bids  map[model.Price][]*Order
	asks  map[model.Price][]*Order
}

// NewEngine creates a closed engine with empty books.
func NewEngine() *Engine {
	return &Engine{
		bids: make(map[model.Price][]*Order),
		asks: make(map[model.Price][]*Order),
	}
}

// Open transitions the market to accepting orders.
func (e *Engine) Open() {
	e.mu.Lock()
	e.state = StateOpen
	e.mu.Unlock()
}

// Close stops accepting orders and discards everything resting.
func (e *Engine) Close() {
	e.mu.Lock()
	e.state = StateClosed
	e.clearLocked()
	e.mu.Unlock()
}

// CancelAll unconditionally empties both sides.
func (e *Engine) CancelAll() {
	e.mu.Lock()
	e.clearLocked()
	e.mu.Unlock()
}

func (e *Engine) clearLocked() {
	e.bids = make(map[model.Price][]*Order)
	e.asks = make(map[model.Price][]*Order)
}

// Submit matches the order against the opposite side and rests any
// residual. It returns false for a closed market, an invalid order, or
// a duplicate id; true once the submission is structurally accepted,
// even if it matched nothing or everything.
func (e *Engine) Submit(order *Order) bool {
	if order == nil {
		return false
	}
	if order.Price() <= 0 || order.Size() <= 0 {
		return false
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state != StateOpen {
		return false
	}

	var same, opposite map[model.Price][]*Order
	switch order.Side() {
	case model.SideBuy:
		same, opposite = e.bids, e.asks
	case model.SideSell:
		same, opposite = e.asks, e.bids
	default:
		return false
	}

	if !e.isUniqueLocked(order, same) {
		logs.Errorf("engine: duplicate order submission attempted: %s", order)
		return false
	}

	matching := e.crossingLocked(order, opposite)
	e.walkLocked(matching, same, order)
	return true
}

// crossingLocked flattens the opposite side's crossing levels in price
// priority order, and each level in arrival order. Cancelled orders
// never participate.
func (e *Engine) crossingLocked(order *Order, opposite map[model.Price][]*Order) []*Order {
	prices := make([]model.Price, 0, len(opposite))
	for px := range opposite {
		if crosses(order, px) {
			prices = append(prices, px)
		}
	}
	if order.Side() == model.SideBuy {
		// cheapest offers first
		sort.Slice(prices, func(i, j int) bool { return prices[i] < prices[j] })
	} else {
		// highest bids first
		sort.Slice(prices, func(i, j int) bool { return prices[i] > prices[j] })
	}

	var matching []*Order
	for _, px := range prices {
		for _, resting := range opposite[px] {
			if !resting.Cancelled() {
				matching = append(matching, resting)
			}
		}
	}
	return matching
}

func crosses(order *Order, restingPrice model.Price) bool {
	if order.Side() == model.SideBuy {
		return restingPrice <= order.Price()
	}
	return restingPrice >= order.Price()
}

// walkLocked executes the matching set in order. Execution is always
// at the resting order's price; price improvement goes to the
// aggressor. Any residual rests at the end of its own price level.
func (e *Engine) walkLocked(matching []*Order, same map[model.Price][]*Order, order *Order) {
	target := order.Remaining()
	remaining := target
	var matched model.Quantity

	for _, resting := range matching {
		qty := min(remaining, resting.Remaining())
		if qty == 0 {
			continue
		}

		remaining -= qty
		matched += qty

		resting.applyFill(newFill(resting.Price(), qty, resting))
		order.applyFill(newFill(resting.Price(), qty, order))

		if matched == target {
			break
		}
	}

	if matched < target {
		same[order.Price()] = append(same[order.Price()], order)
	}
}

// Cancel removes a resting order. It returns false when the order is
// nil, not resting (already filled, cancelled or never accepted), or
// when a duplicate-id anomaly is detected; in the anomaly case all
// matching entries are purged.
func (e *Engine) Cancel(order *Order) bool {
	if order == nil {
		logs.Errorf("engine: failed to cancel, order was nil")
		return false
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	var side map[model.Price][]*Order
	switch order.Side() {
	case model.SideBuy:
		side = e.bids
	case model.SideSell:
		side = e.asks
	default:
		return false
	}

	level := side[order.Price()]
	count := 0
	for _, o := range level {
		if o.ID() == order.ID() {
			count++
		}
	}

	switch count {
	case 0:
		return false
	case 1:
		side[order.Price()] = removeOrder(level, order.ID())
		order.markCancelled()
		return true
	default:
		// structurally impossible under Submit's duplicate check;
		// purge and report failure so the caller can surface it
		logs.Errorf("engine: duplicate order id %d detected at level %s, purging %d entries",
			order.ID(), order.Price(), count)
		side[order.Price()] = removeOrder(level, order.ID())
		order.markCancelled()
		return false
	}
}

func removeOrder(level []*Order, id uint64) []*Order {
	out := level[:0]
	for _, o := range level {
		if o.ID() != id {
			out = append(out, o)
		}
	}
	return out
}

// BestBidOffer scans each side in priority order and reports the first
// price level with positive aggregate remaining size. An empty side is
// absent, never an error.
func (e *Engine) BestBidOffer() Quote {
	e.mu.Lock()
	defer e.mu.Unlock()

	var q Quote
	if px, size, ok := bestLevel(e.bids, true); ok {
		q.Bid, q.BidSize, q.HasBid = px, size, true
	}
	if px, size, ok := bestLevel(e.asks, false); ok {
		q.Ask, q.AskSize, q.HasAsk = px, size, true
	}
	return q
}

func bestLevel(side map[model.Price][]*Order, descending bool) (model.Price, model.Quantity, bool) {
	prices := make([]model.Price, 0, len(side))
	for px := range side {
		prices = append(prices, px)
	}
	if descending {
		sort.Slice(prices, func(i, j int) bool { return prices[i] > prices[j] })
	} else {
		sort.Slice(prices, func(i, j int) bool { return prices[i] < prices[j] })
	}

	for _, px := range prices {
		var size model.Quantity
		for _, o := range side[px] {
			size += o.Remaining()
		}
		// levels drained by matching stay in the map; skip them
		if size > 0 {
			return px, size, true
		}
	}
	return 0, 0, false
}

func min(a, b model.Quantity) model.Quantity {
	if a < b {
		return a
	}
	return b
}

// isUniqueLocked reports whether no resting order at the same price
// level on the same side carries this id.
func (e *Engine) isUniqueLocked(order *Order, same map[model.Price][]*Order) bool {
	for _, o := range same[order.Price()] {
		if o.ID() == order.ID() {
			return false
		}
	}
	return true
}
