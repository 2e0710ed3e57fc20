// Package agent implements the market participants: a quoting market
// maker and the price takers that trade against it. Agents share a
// matching engine and a signal generator but keep private fill
// histories for profit attribution.
package agent

import (
	"sync"

	"main/internal/book"
	"main/internal/model"
)

// SignalMode selects how an agent reads the mid-price signal.
type SignalMode uint8

const (
	SignalPerfect SignalMode = iota
	SignalNoisy
)

func (m SignalMode) String() string {
	if m == SignalNoisy {
		return "noisy"
	}
	return "perfect"
}

// Taker is one price taker stepped by the simulation loop.
type Taker interface {
	Name() string
	// Step runs a single decision: read the signal, look at the book,
	// maybe trade. Not safe for concurrent use with itself.
	Step()
	Fills() []book.Fill
	// Counts returns executed and passed decisions.
	Counts() (trades, noTrades int)
}

// fillBook accumulates an agent's fills. The record method is handed
// to the matching engine as the fill callback; it runs under the
// engine lock and must never call back into the engine.
type fillBook struct {
	mu    sync.Mutex
	fills []book.Fill
	long  model.Quantity
	short model.Quantity
}

func (b *fillBook) record(f book.Fill) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.fills = append(b.fills, f)
	switch f.Side() {
	case model.SideBuy:
		b.long += f.Qty
	case model.SideSell:
		b.short += f.Qty
	}
}

// Fills returns a snapshot of the fill history in receipt order.
func (b *fillBook) Fills() []book.Fill {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]book.Fill, len(b.fills))
	copy(out, b.fills)
	return out
}

// position returns cumulative bought and sold units.
func (b *fillBook) position() (long, short model.Quantity) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.long, b.short
}

// values returns the cumulative traded value per side.
func (b *fillBook) values() (buyValue, sellValue model.Notional) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, f := range b.fills {
		switch f.Side() {
		case model.SideBuy:
			buyValue += f.Notional()
		case model.SideSell:
			sellValue += f.Notional()
		}
	}
	return buyValue, sellValue
}
