package model

import (
	"math"
	"strconv"
)

// Scales for the single traded instrument. Prices tick in hundredths,
// quantities are whole units, notionals inherit both scales.
const (
	PriceScale    = 2
	QuantityScale = 0
	NotionalScale = PriceScale + QuantityScale
)

// Price is a scaled integer. The scale is defined by PriceScale.
type Price int64

func (p Price) AppendString(priceScale int, buf []byte) []byte {
	return appendScaledInt(buf, int64(p), priceScale)
}

func (p Price) String() string {
	return string(p.AppendString(PriceScale, nil))
}

// Float64 converts the scaled price back to a floating point value.
func (p Price) Float64() float64 {
	return float64(p) / pow10(PriceScale)
}

// PriceFromFloat converts a floating point price to the scaled
// representation, rounding half away from zero.
func PriceFromFloat(v float64) Price {
	return Price(math.Round(v * pow10(PriceScale)))
}

// Quantity is a scaled integer. The scale is defined by QuantityScale.
type Quantity int64

func (q Quantity) AppendString(quantityScale int, buf []byte) []byte {
	return appendScaledInt(buf, int64(q), quantityScale)
}

func (q Quantity) String() string {
	return string(q.AppendString(QuantityScale, nil))
}

// QuantityFromFloat converts a floating point size to the scaled
// representation, rounding half away from zero.
func QuantityFromFloat(v float64) Quantity {
	return Quantity(math.Round(v * pow10(QuantityScale)))
}

// Notional is a scaled integer. The scale is defined by NotionalScale.
type Notional int64

func (n Notional) AppendString(notionalScale int, buf []byte) []byte {
	return appendScaledInt(buf, int64(n), notionalScale)
}

func (n Notional) String() string {
	return string(n.AppendString(NotionalScale, nil))
}

// Float64 converts the scaled notional back to a floating point value.
func (n Notional) Float64() float64 {
	return float64(n) / pow10(NotionalScale)
}

// Mul computes price*quantity as an exact scaled notional.
func Mul(p Price, q Quantity) Notional {
	return Notional(int64(p) * int64(q))
}

func pow10(scale int) float64 {
	v := 1.0
	for i := 0; i < scale; i++ {
		v *= 10
	}
	return v
}

func appendScaledInt(buf []byte, value int64, scale int) []byte {
	if scale <= 0 {
		return strconv.AppendInt(buf, value, 10)
	}

	neg := value < 0
	u := uint64(value)
	if neg {
		u = uint64(^value) + 1
	}

	var tmp [32]byte
	digits := strconv.AppendUint(tmp[:0], u, 10)

	if neg {
		buf = append(buf, '-')
	}

	if len(digits) <= scale {
		buf = append(buf, '0', '.')
		for i := 0; i < scale-len(digits); i++ {
			buf = append(buf, '0')
		}
		buf = append(buf, digits...)
		return buf
	}

	idx := len(digits) - scale
	buf = append(buf, digits[:idx]...)
	buf = append(buf, '.')
	buf = append(buf, digits[idx:]...)
	return buf
}
