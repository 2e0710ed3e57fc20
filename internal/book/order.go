package book

import (
	"fmt"
	"sync"
	"sync/atomic"

	"main/internal/model"
)

var nextOrderID atomic.Uint64

// FillFunc is invoked once per matched order per match event. It runs
// while the engine mutex is held, so it must not call back into the
// engine (Submit/Cancel) or it deadlocks against itself.
type FillFunc func(Fill)

// Order is a single limit instruction. The engine is the only writer
// of its mutable state (fills, remaining, cancelled); everyone else
// reads eventually-consistent snapshots through the accessors.
type Order struct {
	id    uint64
	side  model.Side
	price model.Price
	size  model.Quantity

	callback FillFunc

	mu        sync.Mutex
	fills     []Fill
	remaining model.Quantity
	cancelled bool
}

// NewOrder creates an order with a fresh globally unique id. The
// callback may be nil.
func NewOrder(side model.Side, price model.Price, size model.Quantity, callback FillFunc) *Order {
	return &Order{
		id:        nextOrderID.Add(1),
		side:      side,
		price:     price,
		size:      size,
		callback:  callback,
		remaining: size,
	}
}

// ID returns the immutable order identifier.
func (o *Order) ID() uint64 { return o.id }

// Side returns the order direction.
func (o *Order) Side() model.Side { return o.side }

// Price returns the limit price.
func (o *Order) Price() model.Price { return o.price }

// Size returns the original order size.
func (o *Order) Size() model.Quantity { return o.size }

// Remaining returns the unfilled quantity, clamped at zero.
func (o *Order) Remaining() model.Quantity {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.remaining
}

// FullyFilled reports whether the whole size has been matched.
func (o *Order) FullyFilled() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.remaining == 0
}

// Cancelled reports whether the engine removed this order.
func (o *Order) Cancelled() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.cancelled
}

// Fills returns a copy of the fills applied to this order so far.
func (o *Order) Fills() []Fill {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]Fill, len(o.fills))
	copy(out, o.fills)
	return out
}

func (o *Order) String() string {
	return fmt.Sprintf("order %d %s %s@%s rem %s",
		o.id, o.side, o.size, o.price, o.Remaining())
}

// applyFill records a match and notifies the owner. Only the engine
// calls this, while holding its own mutex.
func (o *Order) applyFill(f Fill) {
	o.mu.Lock()
	o.fills = append(o.fills, f)
	o.remaining -= f.Qty
	if o.remaining < 0 {
		o.remaining = 0
	}
	cb := o.callback
	o.mu.Unlock()

	if cb != nil {
		cb(f)
	}
}

func (o *Order) markCancelled() {
	o.mu.Lock()
	o.cancelled = true
	o.mu.Unlock()
}
