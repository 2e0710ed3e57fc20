// Package risk gates order intents against static limits before they
// reach the matching engine. The market maker consults it to back off
// quoting when inventory drifts too far from flat.
package risk

import (
	"time"

	"main/internal/model"
)

const maxInt64 = int64(^uint64(0) >> 1)

// Action is the outcome of an evaluation.
type Action uint8

const (
	ActionAllow Action = iota
	ActionDeny
)

// Reason explains a deny.
type Reason uint8

const (
	ReasonNone Reason = iota
	ReasonKillSwitch
	ReasonRateLimit
	ReasonMaxQty
	ReasonMaxNotional
	ReasonPriceBand
	ReasonInventoryLimit
)

func (r Reason) String() string {
	switch r {
	case ReasonNone:
		return "none"
	case ReasonKillSwitch:
		return "kill_switch"
	case ReasonRateLimit:
		return "rate_limit"
	case ReasonMaxQty:
		return "max_qty"
	case ReasonMaxNotional:
		return "max_notional"
	case ReasonPriceBand:
		return "price_band"
	case ReasonInventoryLimit:
		return "inventory_limit"
	default:
		return "unknown"
	}
}

// Config defines simple risk limits. Zero-valued limits are disabled.
type Config struct {
	KillSwitch           bool           `json:"killSwitch"`
	MaxOrderQty          model.Quantity `json:"maxOrderQty"`
	MaxOrderNotional     model.Notional `json:"maxOrderNotional"`
	MaxInventory         model.Quantity `json:"maxInventory"`
	OrderRateLimit       int            `json:"orderRateLimit"`
	OrderRateWindow      time.Duration  `json:"orderRateWindow"`
	MaxPriceDeviationBps int64          `json:"maxPriceDeviationBps"`
}

// Intent is a proposed order before submission.
type Intent struct {
	Side  model.Side
	Price model.Price
	Qty   model.Quantity
}

// StateView is the caller's position snapshot at evaluation time.
type StateView struct {
	// Inventory is signed: positive long, negative short.
	Inventory      model.Quantity
	ReferencePrice model.Price
	Now            int64
}

// Decision is the evaluation outcome.
type Decision struct {
	Action Action
	Reason Reason
}

// Allowed reports whether the intent may proceed.
func (d Decision) Allowed() bool { return d.Action == ActionAllow }

// Engine evaluates intents against static limits. Not safe for
// concurrent use; each agent owns its own engine.
type Engine struct {
	cfg             Config
	rateWindowStart int64
	rateCount       int
}

// NewEngine creates a risk engine with static limits.
func NewEngine(cfg Config) *Engine {
	return &Engine{cfg: cfg}
}

func deny(reason Reason) Decision {
	return Decision{Action: ActionDeny, Reason: reason}
}

// Evaluate applies the configured checks to an order intent.
func (e *Engine) Evaluate(intent Intent, state StateView) Decision {
	now := state.Now
	if now == 0 {
		now = time.Now().UTC().UnixNano()
	}

	if e.cfg.KillSwitch {
		return deny(ReasonKillSwitch)
	}

	if e.cfg.OrderRateLimit > 0 && e.cfg.OrderRateWindow > 0 {
		window := int64(e.cfg.OrderRateWindow)
		if e.rateWindowStart == 0 || now-e.rateWindowStart >= window {
			e.rateWindowStart = now
			e.rateCount = 0
		}
		e.rateCount++
		if e.rateCount > e.cfg.OrderRateLimit {
			return deny(ReasonRateLimit)
		}
	}

	if e.cfg.MaxOrderQty > 0 && intent.Qty > e.cfg.MaxOrderQty {
		return deny(ReasonMaxQty)
	}

	if e.cfg.MaxPriceDeviationBps > 0 && intent.Price > 0 && state.ReferencePrice > 0 {
		diff := absInt64(int64(intent.Price) - int64(state.ReferencePrice))
		if exceedsDeviation(diff, int64(state.ReferencePrice), e.cfg.MaxPriceDeviationBps) {
			return deny(ReasonPriceBand)
		}
	}

	notional, overflow := mulNotional(intent.Price, intent.Qty)
	if overflow {
		return deny(ReasonMaxNotional)
	}
	if e.cfg.MaxOrderNotional > 0 && notional > e.cfg.MaxOrderNotional {
		return deny(ReasonMaxNotional)
	}

	if e.cfg.MaxInventory > 0 {
		next := applySide(state.Inventory, intent.Side, intent.Qty)
		if absQuantity(next) > e.cfg.MaxInventory {
			return deny(ReasonInventoryLimit)
		}
	}

	return Decision{Action: ActionAllow, Reason: ReasonNone}
}

func mulNotional(price model.Price, qty model.Quantity) (model.Notional, bool) {
	p := int64(price)
	q := int64(qty)
	if p == 0 || q == 0 {
		return 0, false
	}
	if p < 0 {
		p = -p
	}
	if q < 0 {
		q = -q
	}
	if p > maxInt64/q {
		return 0, true
	}
	return model.Mul(price, qty), false
}

func applySide(pos model.Quantity, side model.Side, qty model.Quantity) model.Quantity {
	switch side {
	case model.SideBuy:
		return pos + qty
	case model.SideSell:
		return pos - qty
	default:
		return pos
	}
}

func absQuantity(q model.Quantity) model.Quantity {
	if q < 0 {
		return -q
	}
	return q
}

func absInt64(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}

func exceedsDeviation(diff, ref, bps int64) bool {
	if diff <= 0 || ref <= 0 || bps <= 0 {
		return false
	}
	if diff > maxInt64/10000 {
		return true
	}
	lhs := diff * 10000
	if ref > maxInt64/bps {
		return true
	}
	rhs := ref * bps
	return lhs > rhs
}
