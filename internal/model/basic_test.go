package model

import "testing"

func TestPriceString(t *testing.T) {
	cases := []struct {
		in   Price
		want string
	}{
		{0, "0.00"},
		{1, "0.01"},
		{10250, "102.50"},
		{-995, "-9.95"},
		{5, "0.05"},
	}
	for _, c := range cases {
		if got := c.in.String(); got != c.want {
			t.Fatalf("Price(%d).String() = %q, want %q", int64(c.in), got, c.want)
		}
	}
}

func TestPriceFloatRoundTrip(t *testing.T) {
	cases := []float64{100, 102.5, 99.99, 0.01, 58.6}
	for _, v := range cases {
		p := PriceFromFloat(v)
		if got := p.Float64(); got != v {
			t.Fatalf("round trip %v: got %v", v, got)
		}
	}
}

func TestPriceFromFloatRounds(t *testing.T) {
	if got := PriceFromFloat(100.005); got != 10001 {
		t.Fatalf("expected half-away rounding, got %d", int64(got))
	}
	if got := PriceFromFloat(-100.005); got != -10001 {
		t.Fatalf("expected half-away rounding for negatives, got %d", int64(got))
	}
}

func TestMulNotional(t *testing.T) {
	// 102.50 * 1000 units = 102500.00
	n := Mul(PriceFromFloat(102.50), 1000)
	if n.String() != "102500.00" {
		t.Fatalf("notional = %s", n)
	}
}

func TestSideOpposite(t *testing.T) {
	if SideBuy.Opposite() != SideSell || SideSell.Opposite() != SideBuy {
		t.Fatal("buy/sell must be opposites")
	}
	if SideUnknown.Opposite() != SideUnknown {
		t.Fatal("unknown has no opposite")
	}
}
