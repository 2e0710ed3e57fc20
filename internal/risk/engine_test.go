package risk

import (
	"testing"
	"time"

	"main/internal/model"
)

func baseConfig() Config {
	return Config{
		MaxOrderQty:      100,
		MaxOrderNotional: model.Notional(1_000_000),
		MaxInventory:     80,
	}
}

func intent(side model.Side, price float64, qty int64) Intent {
	return Intent{Side: side, Price: model.PriceFromFloat(price), Qty: model.Quantity(qty)}
}

func TestAllowWithinLimits(t *testing.T) {
	e := NewEngine(baseConfig())
	d := e.Evaluate(intent(model.SideBuy, 100, 10), StateView{})
	if !d.Allowed() {
		t.Fatalf("expected allow, got %s", d.Reason)
	}
}

func TestKillSwitchDeniesEverything(t *testing.T) {
	cfg := baseConfig()
	cfg.KillSwitch = true
	e := NewEngine(cfg)
	d := e.Evaluate(intent(model.SideBuy, 100, 1), StateView{})
	if d.Allowed() || d.Reason != ReasonKillSwitch {
		t.Fatalf("expected kill switch deny, got %s", d.Reason)
	}
}

func TestMaxQtyDeny(t *testing.T) {
	e := NewEngine(baseConfig())
	d := e.Evaluate(intent(model.SideBuy, 100, 101), StateView{})
	if d.Allowed() || d.Reason != ReasonMaxQty {
		t.Fatalf("expected max qty deny, got %s", d.Reason)
	}
}

func TestMaxNotionalDeny(t *testing.T) {
	cfg := baseConfig()
	cfg.MaxOrderNotional = model.Mul(model.PriceFromFloat(100), 50)
	e := NewEngine(cfg)

	if d := e.Evaluate(intent(model.SideBuy, 100, 50), StateView{}); !d.Allowed() {
		t.Fatalf("boundary notional must pass, got %s", d.Reason)
	}
	if d := e.Evaluate(intent(model.SideBuy, 100, 51), StateView{}); d.Reason != ReasonMaxNotional {
		t.Fatalf("expected max notional deny, got %s", d.Reason)
	}
}

func TestInventoryLimit(t *testing.T) {
	e := NewEngine(baseConfig())

	// long 70, buying 20 would breach 80
	d := e.Evaluate(intent(model.SideBuy, 100, 20), StateView{Inventory: 70})
	if d.Reason != ReasonInventoryLimit {
		t.Fatalf("expected inventory deny, got %s", d.Reason)
	}

	// selling from a long position reduces imbalance
	if d := e.Evaluate(intent(model.SideSell, 100, 20), StateView{Inventory: 70}); !d.Allowed() {
		t.Fatalf("reducing trade must pass, got %s", d.Reason)
	}

	// short side is symmetric
	d = e.Evaluate(intent(model.SideSell, 100, 20), StateView{Inventory: -70})
	if d.Reason != ReasonInventoryLimit {
		t.Fatalf("expected short inventory deny, got %s", d.Reason)
	}
}

func TestPriceBand(t *testing.T) {
	cfg := baseConfig()
	cfg.MaxPriceDeviationBps = 500 // 5%
	e := NewEngine(cfg)
	ref := model.PriceFromFloat(100)

	if d := e.Evaluate(intent(model.SideBuy, 104, 1), StateView{ReferencePrice: ref}); !d.Allowed() {
		t.Fatalf("4%% deviation must pass, got %s", d.Reason)
	}
	if d := e.Evaluate(intent(model.SideBuy, 106, 1), StateView{ReferencePrice: ref}); d.Reason != ReasonPriceBand {
		t.Fatalf("expected price band deny, got %s", d.Reason)
	}
}

func TestRateLimitResetsAfterWindow(t *testing.T) {
	cfg := baseConfig()
	cfg.OrderRateLimit = 2
	cfg.OrderRateWindow = time.Second
	e := NewEngine(cfg)

	now := time.Now().UTC().UnixNano()
	state := StateView{Now: now}
	if d := e.Evaluate(intent(model.SideBuy, 100, 1), state); !d.Allowed() {
		t.Fatal("first order must pass")
	}
	if d := e.Evaluate(intent(model.SideBuy, 100, 1), state); !d.Allowed() {
		t.Fatal("second order must pass")
	}
	if d := e.Evaluate(intent(model.SideBuy, 100, 1), state); d.Reason != ReasonRateLimit {
		t.Fatalf("expected rate limit deny, got %s", d.Reason)
	}

	state.Now = now + int64(2*time.Second)
	if d := e.Evaluate(intent(model.SideBuy, 100, 1), state); !d.Allowed() {
		t.Fatalf("window rollover must reset the counter, got %s", d.Reason)
	}
}
