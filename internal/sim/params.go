package sim

import (
	"time"

	"github.com/yanun0323/errors"

	"main/internal/agent"
	"main/internal/model"
	"main/internal/risk"
	"main/pkg/exception"
)

// Params configure one simulation run.
type Params struct {
	// InitialPrice seeds the mid-price walk.
	InitialPrice model.Price
	// Volatility is the per-step variance of the walk.
	Volatility float64
	// NoiseMagnitude scales the noise on degraded signal reads.
	NoiseMagnitude float64

	// MakerOrderSize is the quote size of the extra liquidity
	// providers. The designated maker quotes DesignatedSize.
	MakerOrderSize model.Quantity
	DesignatedSize model.Quantity
	FixedSpread    model.Price
	// ProviderSpread is the wider spread the extra providers quote.
	ProviderSpread  model.Price
	BiasSpread      model.Price
	MakerSignalMode agent.SignalMode

	PerfectTakers      int
	NoisyTakers        int
	RandomTakers       int
	LiquidityProviders int

	MaxIterations int
	// MaxWait bounds every random sleep in the run.
	MaxWait time.Duration
	// MultithreadMakers runs each maker on its own goroutine. When
	// false makers are stepped inline with the iteration loop, which
	// makes runs reproducible for a fixed seed.
	MultithreadMakers bool

	Risk risk.Config
	// Seed fixes all randomness of the run; 0 seeds from the clock.
	Seed int64
}

// WithDefaults fills unset fields with the standard configuration.
func (p Params) WithDefaults() Params {
	if p.InitialPrice == 0 {
		p.InitialPrice = model.PriceFromFloat(100)
	}
	if p.MakerOrderSize == 0 {
		p.MakerOrderSize = 100
	}
	if p.DesignatedSize == 0 {
		p.DesignatedSize = 10
	}
	if p.FixedSpread == 0 {
		p.FixedSpread = model.PriceFromFloat(2)
	}
	if p.ProviderSpread == 0 {
		p.ProviderSpread = model.PriceFromFloat(2.5)
	}
	if p.MaxIterations == 0 {
		p.MaxIterations = 200
	}
	if p.MaxWait == 0 {
		p.MaxWait = 2 * time.Millisecond
	}
	return p
}

// Validate rejects configurations the run cannot honor.
func (p Params) Validate() error {
	if p.InitialPrice <= 0 {
		return errors.Wrapf(exception.ErrInvalidArgument, "initial price %s", p.InitialPrice)
	}
	if p.FixedSpread <= 0 {
		return errors.Wrapf(exception.ErrInvalidArgument, "fixed spread %s", p.FixedSpread)
	}
	if p.ProviderSpread <= 0 {
		return errors.Wrapf(exception.ErrInvalidArgument, "provider spread %s", p.ProviderSpread)
	}
	if p.Volatility < 0 {
		return errors.Wrapf(exception.ErrInvalidArgument, "volatility %f", p.Volatility)
	}
	if p.MaxIterations <= 0 {
		return errors.Wrapf(exception.ErrInvalidArgument, "max iterations %d", p.MaxIterations)
	}
	if p.MaxWait <= 0 {
		return errors.Wrapf(exception.ErrInvalidArgument, "max wait %s", p.MaxWait)
	}
	if p.PerfectTakers < 0 || p.NoisyTakers < 0 || p.RandomTakers < 0 || p.LiquidityProviders < 0 {
		return errors.Wrapf(exception.ErrInvalidArgument, "negative participant count")
	}
	return nil
}

// TotalTakers is the number of price takers stepped per iteration.
func (p Params) TotalTakers() int {
	return p.PerfectTakers + p.NoisyTakers + p.RandomTakers
}
