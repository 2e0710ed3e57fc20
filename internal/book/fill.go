package book

import (
	"fmt"
	"sync/atomic"

	"main/internal/model"
)

var nextFillID atomic.Uint64

// Fill is one executed match between an aggressor and a resting order,
// always priced at the resting order's limit. Two fills are created
// per match event, one referencing each order. Immutable once created.
type Fill struct {
	ID    uint64
	Price model.Price
	Qty   model.Quantity
	Order *Order
}

func newFill(price model.Price, qty model.Quantity, owner *Order) Fill {
	return Fill{
		ID:    nextFillID.Add(1),
		Price: price,
		Qty:   qty,
		Order: owner,
	}
}

// Side returns the direction of the order this fill belongs to.
func (f Fill) Side() model.Side {
	if f.Order == nil {
		return model.SideUnknown
	}
	return f.Order.Side()
}

// Notional returns the exact price*quantity value of the fill.
func (f Fill) Notional() model.Notional {
	return model.Mul(f.Price, f.Qty)
}

func (f Fill) String() string {
	return fmt.Sprintf("fill %d %s %s@%s", f.ID, f.Side(), f.Qty, f.Price)
}
