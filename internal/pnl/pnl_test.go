package pnl

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"main/internal/book"
	"main/internal/model"
)

func fill(side model.Side, price float64, qty int64) book.Fill {
	o := book.NewOrder(side, model.PriceFromFloat(price), model.Quantity(qty), nil)
	return book.Fill{
		Price: model.PriceFromFloat(price),
		Qty:   model.Quantity(qty),
		Order: o,
	}
}

func notional(v float64) model.Notional {
	return model.Notional(model.PriceFromFloat(v))
}

func TestMatchedRoundTrip(t *testing.T) {
	fills := []book.Fill{
		fill(model.SideBuy, 60, 100),
		fill(model.SideSell, 58, 100),
	}
	r := Calculate(fills, model.PriceFromFloat(120))

	assert.Equal(t, notional(-200), r.Realized, "(58-60)*100 = -200")
	assert.Equal(t, model.Quantity(0), r.UnrealizedUnits)
	assert.Equal(t, model.Notional(0), r.Unrealized)
}

func TestUnmatchedBuyRemainder(t *testing.T) {
	fills := []book.Fill{
		fill(model.SideBuy, 58, 150),
		fill(model.SideSell, 60, 100),
	}
	r := Calculate(fills, model.PriceFromFloat(120))

	assert.Equal(t, notional(200), r.Realized, "matched 100 units at (60-58)")
	assert.Equal(t, model.SideBuy, r.Direction)
	assert.Equal(t, model.Quantity(50), r.UnrealizedUnits)
	assert.True(t, r.UnrealizedAvgPrice.Equal(decimal.NewFromInt(58)),
		"leftover acquired at 58, got %s", r.UnrealizedAvgPrice)
	assert.Equal(t, notional((120-58)*50), r.Unrealized)
}

func TestUnmatchedSellRemainder(t *testing.T) {
	fills := []book.Fill{
		fill(model.SideSell, 60, 150),
		fill(model.SideBuy, 58, 100),
	}
	r := Calculate(fills, model.PriceFromFloat(40))

	assert.Equal(t, notional(200), r.Realized)
	assert.Equal(t, model.SideSell, r.Direction)
	assert.Equal(t, model.Quantity(50), r.UnrealizedUnits)
	assert.Equal(t, notional((60-40)*50), r.Unrealized, "short marks avg-last")
}

func TestLotSplittingAcrossFills(t *testing.T) {
	// sells are heavier: 30@12 + 40@9 + 50@11 vs buys 100@10
	fills := []book.Fill{
		fill(model.SideBuy, 10, 100),
		fill(model.SideSell, 12, 30),
		fill(model.SideSell, 9, 40),
		fill(model.SideSell, 11, 50),
	}
	r := Calculate(fills, model.PriceFromFloat(10))

	// (12-10)*30 + (9-10)*40 + (11-10)*30 = 60 - 40 + 30
	assert.Equal(t, notional(50), r.Realized)
	assert.Equal(t, model.SideSell, r.Direction)
	assert.Equal(t, model.Quantity(20), r.UnrealizedUnits)
	assert.True(t, r.UnrealizedAvgPrice.Equal(decimal.NewFromInt(11)))
	assert.Equal(t, notional((11-10)*20), r.Unrealized)
}

func TestEqualTotalsTreatSellAsHeavier(t *testing.T) {
	fills := []book.Fill{
		fill(model.SideBuy, 10, 50),
		fill(model.SideSell, 11, 50),
	}
	r := Calculate(fills, model.PriceFromFloat(10))

	assert.Equal(t, model.SideSell, r.Direction, "tie must break toward sell")
	assert.Equal(t, model.Quantity(0), r.UnrealizedUnits)
	assert.Equal(t, notional(50), r.Realized)
}

func TestNoFills(t *testing.T) {
	r := Calculate(nil, model.PriceFromFloat(100))
	assert.Equal(t, model.Notional(0), r.Realized)
	assert.Equal(t, model.Quantity(0), r.UnrealizedUnits)
	assert.Equal(t, model.SideSell, r.Direction)
}

func TestOrderOfArrivalMatters(t *testing.T) {
	// FIFO cost basis: the first buy is consumed first, whatever its price
	early := []book.Fill{
		fill(model.SideBuy, 20, 10),
		fill(model.SideBuy, 10, 10),
		fill(model.SideSell, 15, 10),
	}
	late := []book.Fill{
		fill(model.SideBuy, 10, 10),
		fill(model.SideBuy, 20, 10),
		fill(model.SideSell, 15, 10),
	}
	last := model.PriceFromFloat(15)

	rEarly := Calculate(early, last)
	rLate := Calculate(late, last)

	assert.Equal(t, notional(-50), rEarly.Realized, "(15-20)*10")
	assert.Equal(t, notional(50), rLate.Realized, "(15-10)*10")
	assert.NotEqual(t, rEarly.Realized, rLate.Realized)
}

func TestVWAPOfLeftovers(t *testing.T) {
	fills := []book.Fill{
		fill(model.SideBuy, 100, 1000),
		fill(model.SideBuy, 110, 350),
	}
	r := Calculate(fills, model.PriceFromFloat(100))

	require.Equal(t, model.Quantity(1350), r.UnrealizedUnits)
	want := decimal.NewFromFloat(100*1000 + 110*350).Div(decimal.NewFromInt(1350))
	assert.True(t, r.UnrealizedAvgPrice.Equal(want),
		"vwap got %s want %s", r.UnrealizedAvgPrice, want)
}

func TestQueryIsIdempotent(t *testing.T) {
	fills := []book.Fill{
		fill(model.SideBuy, 58, 150),
		fill(model.SideSell, 60, 100),
		fill(model.SideSell, 59, 25),
	}
	last := model.PriceFromFloat(62)

	first := Calculate(fills, last)
	second := Calculate(fills, last)

	require.Equal(t, first, second, "no hidden mutable state between queries")
}

func TestTotalCombinesRealizedAndUnrealized(t *testing.T) {
	fills := []book.Fill{
		fill(model.SideBuy, 58, 150),
		fill(model.SideSell, 60, 100),
	}
	r := Calculate(fills, model.PriceFromFloat(120))
	assert.Equal(t, r.Realized+r.Unrealized, r.Total())
}
