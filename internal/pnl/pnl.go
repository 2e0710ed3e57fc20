// Package pnl derives realized and unrealized profit from a
// participant's fill history. The computation is pure: it is re-run
// from scratch on every query and never caches state, so callers may
// query mid-simulation.
package pnl

import (
	"github.com/shopspring/decimal"

	"main/internal/book"
	"main/internal/model"
)

// Result is the outcome of one FIFO lot-matching pass.
type Result struct {
	// Realized is the exact profit locked in by matched buy/sell
	// quantity, as a scaled notional.
	Realized model.Notional

	// Direction is the side carrying unmatched inventory. On equal
	// buy and sell totals the sell side is reported, with zero units.
	Direction model.Side

	// UnrealizedUnits is the unmatched inventory on Direction.
	UnrealizedUnits model.Quantity

	// UnrealizedValue is the exact acquisition value of that inventory.
	UnrealizedValue model.Notional

	// UnrealizedAvgPrice is UnrealizedValue / UnrealizedUnits, the
	// only fractional figure of the computation.
	UnrealizedAvgPrice decimal.Decimal

	// Unrealized marks the leftover inventory to the reference price.
	Unrealized model.Notional
}

// Total returns realized plus unrealized profit.
func (r Result) Total() model.Notional {
	return r.Realized + r.Unrealized
}

type lot struct {
	price model.Price
	qty   model.Quantity
}

// Calculate runs FIFO lot matching over the fills in receipt order
// against a reference price. Lots are matched by arrival time, not
// price: the head of the heavier side is consumed against the lighter
// side's heads, splitting lots in place where amounts differ. The
// input slice is not modified.
func Calculate(fills []book.Fill, lastPrice model.Price) Result {
	var buys, sells []lot
	var buyUnits, sellUnits model.Quantity

	for _, f := range fills {
		switch f.Side() {
		case model.SideBuy:
			buys = append(buys, lot{price: f.Price, qty: f.Qty})
			buyUnits += f.Qty
		case model.SideSell:
			sells = append(sells, lot{price: f.Price, qty: f.Qty})
			sellUnits += f.Qty
		}
	}

	// the heavier queue is whichever side traded more units; on a tie
	// the sell side is treated as heavier
	var more, less []lot
	result := Result{}
	if buyUnits > sellUnits {
		more, less = buys, sells
		result.Direction = model.SideBuy
	} else {
		more, less = sells, buys
		result.Direction = model.SideSell
	}

	// two monotonically advancing cursors with one mutable remainder
	// slot each; equivalent to queue splicing but allocation free
	mi, li := 0, 0
	var moreRem, lessRem model.Quantity
	if mi < len(more) {
		moreRem = more[mi].qty
	}
	if li < len(less) {
		lessRem = less[li].qty
	}

	for mi < len(more) && li < len(less) {
		qty := moreRem
		if lessRem < qty {
			qty = lessRem
		}
		if qty > 0 {
			result.Realized += realize(more[mi].price, less[li].price, qty, result.Direction)
			moreRem -= qty
			lessRem -= qty
		}
		if moreRem == 0 {
			mi++
			if mi < len(more) {
				moreRem = more[mi].qty
			}
		}
		if lessRem == 0 {
			li++
			if li < len(less) {
				lessRem = less[li].qty
			}
		}
	}

	// whatever survives on the heavier side is the unrealized position
	if mi < len(more) {
		result.UnrealizedUnits += moreRem
		result.UnrealizedValue += model.Mul(more[mi].price, moreRem)
		for i := mi + 1; i < len(more); i++ {
			result.UnrealizedUnits += more[i].qty
			result.UnrealizedValue += model.Mul(more[i].price, more[i].qty)
		}
	}

	if result.UnrealizedUnits > 0 {
		result.UnrealizedAvgPrice = decimal.New(int64(result.UnrealizedValue), -model.NotionalScale).
			Div(decimal.New(int64(result.UnrealizedUnits), -model.QuantityScale))

		mark := model.Mul(lastPrice, result.UnrealizedUnits)
		if result.Direction == model.SideBuy {
			result.Unrealized = mark - result.UnrealizedValue
		} else {
			result.Unrealized = result.UnrealizedValue - mark
		}
	}

	return result
}

// realize prices one matched quantity: always (sell price − buy price)
// × quantity, independent of which side is heavier.
func realize(morePrice, lessPrice model.Price, qty model.Quantity, direction model.Side) model.Notional {
	if direction == model.SideBuy {
		// heavier side bought, lighter side sold
		return model.Mul(lessPrice, qty) - model.Mul(morePrice, qty)
	}
	return model.Mul(morePrice, qty) - model.Mul(lessPrice, qty)
}
