// Package signal produces the synthetic mid-price process the
// simulation trades around: a gaussian random walk sampled on its own
// goroutine, with perfect and noise-degraded reads for the agents.
package signal

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"sync"
	"time"

	"main/internal/model"
)

// Config controls the mid-price process.
type Config struct {
	// InitialPrice seeds the walk. Must be positive.
	InitialPrice model.Price
	// Volatility is the per-step variance of the walk.
	Volatility float64
	// MaxWait bounds the random sleep between steps.
	MaxWait time.Duration
	// Seed fixes the walk for reproducible runs; 0 derives one from
	// the clock.
	Seed int64
}

// Validate ensures the config is within supported ranges.
func (c Config) Validate() error {
	if c.InitialPrice <= 0 {
		return fmt.Errorf("initial price must be > 0")
	}
	if c.Volatility < 0 {
		return fmt.Errorf("volatility must be >= 0")
	}
	if c.MaxWait <= 0 {
		return fmt.Errorf("max wait must be > 0")
	}
	return nil
}

// Generator owns the mid-price signal. Next/Run mutate it; Perfect and
// Noisy are safe to call from any goroutine.
type Generator struct {
	stdDev  float64
	maxWait time.Duration

	walkRng *rand.Rand // owned by Next/Run

	mu       sync.Mutex
	signal   float64
	noiseRng *rand.Rand
}

// New creates a generator with validation.
func New(cfg Config) (*Generator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UTC().UnixNano()
	}
	return &Generator{
		stdDev:   math.Sqrt(cfg.Volatility),
		maxWait:  cfg.MaxWait,
		walkRng:  rand.New(rand.NewSource(seed)),
		signal:   cfg.InitialPrice.Float64(),
		noiseRng: rand.New(rand.NewSource(seed + 1)),
	}, nil
}

// Perfect returns the current signal without noise.
func (g *Generator) Perfect() model.Price {
	g.mu.Lock()
	defer g.mu.Unlock()
	return model.PriceFromFloat(g.signal)
}

// Noisy returns the current signal plus magnitude-scaled gaussian
// noise, redrawn until positive.
func (g *Generator) Noisy(magnitude float64) model.Price {
	g.mu.Lock()
	defer g.mu.Unlock()
	for {
		noise := magnitude * roundTo(g.noiseRng.NormFloat64(), 2)
		s := g.signal + noise
		if s > 0 {
			return model.PriceFromFloat(s)
		}
	}
}

// Next advances the walk one step and returns the new signal. Draws
// are redrawn until positive, so the process never crosses zero.
func (g *Generator) Next() model.Price {
	for {
		value := roundTo(g.signal+g.stdDev*g.walkRng.NormFloat64(), 1)
		if value > 0 {
			g.mu.Lock()
			g.signal = value
			g.mu.Unlock()
			return model.PriceFromFloat(value)
		}
	}
}

// Run steps the walk with random sleeps until the context is done.
func (g *Generator) Run(ctx context.Context) {
	for {
		g.Next()

		sleep := time.Duration(g.walkRng.Int63n(int64(g.maxWait))) + time.Millisecond
		select {
		case <-ctx.Done():
			return
		case <-time.After(sleep):
		}
	}
}

func roundTo(v float64, digits int) float64 {
	scale := math.Pow10(digits)
	return math.Round(v*scale) / scale
}
