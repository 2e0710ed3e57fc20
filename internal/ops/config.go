// Package ops loads and resolves the JSON run configuration for the
// simulation batch binary.
package ops

import (
	"fmt"
	"os"
	"time"

	"github.com/bytedance/sonic"

	"main/internal/agent"
	"main/internal/model"
	"main/internal/recorder"
	"main/internal/risk"
	"main/internal/sim"
)

// FileConfig mirrors the JSON config layout.
type FileConfig struct {
	Batch   BatchConfig   `json:"batch"`
	Market  MarketConfig  `json:"market"`
	Agents  AgentsConfig  `json:"agents"`
	Risk    risk.Config   `json:"risk"`
	Journal JournalConfig `json:"journal"`
	Results ResultsConfig `json:"results"`
}

// BatchConfig sizes the simulation batch.
type BatchConfig struct {
	Simulations   int   `json:"simulations"`
	MaxConcurrent int   `json:"maxConcurrent"`
	Seed          int64 `json:"seed"`
}

// MarketConfig describes the simulated market.
type MarketConfig struct {
	InitialPrice   float64 `json:"initialPrice"`
	Volatility     float64 `json:"volatility"`
	NoiseMagnitude float64 `json:"noiseMagnitude"`
	MaxWaitMS      int     `json:"maxWaitMs"`
	MaxIterations  int     `json:"maxIterations"`
}

// AgentsConfig describes the participant population.
type AgentsConfig struct {
	MakerOrderSize     int64   `json:"makerOrderSize"`
	DesignatedSize     int64   `json:"designatedSize"`
	FixedSpread        float64 `json:"fixedSpread"`
	ProviderSpread     float64 `json:"providerSpread"`
	BiasSpread         float64 `json:"biasSpread"`
	MakerSignal        string  `json:"makerSignal"`
	PerfectTakers      int     `json:"perfectTakers"`
	NoisyTakers        int     `json:"noisyTakers"`
	RandomTakers       int     `json:"randomTakers"`
	LiquidityProviders int     `json:"liquidityProviders"`
	MultithreadMakers  *bool   `json:"multithreadMakers"`
}

// JournalConfig controls event journaling.
type JournalConfig struct {
	Enabled         bool   `json:"enabled"`
	Dir             string `json:"dir"`
	FilePrefix      string `json:"filePrefix"`
	SegmentMaxBytes int64  `json:"segmentMaxBytes"`
	QueueSize       int    `json:"queueSize"`
	FlushIntervalMS int    `json:"flushIntervalMs"`
	SyncIntervalMS  int    `json:"syncIntervalMs"`
}

// ResultsConfig controls where batch results land.
type ResultsConfig struct {
	// PostgresDSN enables persisting run summaries; empty disables it.
	PostgresDSN string `json:"postgresDsn"`
	// OutputPath receives the batch summary as JSON; empty disables it.
	OutputPath string `json:"outputPath"`
}

// Batch is the resolved batch sizing.
type Batch struct {
	Simulations   int
	MaxConcurrent int
}

// Loaded is the resolved configuration ready for use.
type Loaded struct {
	Batch          Batch
	Params         sim.Params
	JournalEnabled bool
	Journal        recorder.Config
	Results        ResultsConfig
}

// Default is the configuration used when no file is given.
func Default() Loaded {
	loaded, err := resolve(FileConfig{})
	if err != nil {
		// the empty config always resolves
		panic(err)
	}
	return loaded
}

// Load reads a JSON config file and resolves it.
func Load(path string) (Loaded, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Loaded{}, err
	}
	var cfg FileConfig
	if err := sonic.Unmarshal(data, &cfg); err != nil {
		return Loaded{}, fmt.Errorf("parse %s: %w", path, err)
	}
	return resolve(cfg)
}

func resolve(cfg FileConfig) (Loaded, error) {
	batch := Batch{
		Simulations:   cfg.Batch.Simulations,
		MaxConcurrent: cfg.Batch.MaxConcurrent,
	}
	if batch.Simulations == 0 {
		batch.Simulations = 10
	}
	if batch.Simulations < 0 {
		return Loaded{}, fmt.Errorf("invalid config: simulations must be > 0")
	}
	if batch.MaxConcurrent == 0 {
		batch.MaxConcurrent = 128
	}
	if batch.MaxConcurrent < 0 {
		return Loaded{}, fmt.Errorf("invalid config: maxConcurrent must be > 0")
	}

	params, err := resolveParams(cfg)
	if err != nil {
		return Loaded{}, err
	}

	journal := recorder.DefaultConfig(cfg.Journal.Dir)
	if journal.Dir == "" {
		journal.Dir = "journal"
	}
	if cfg.Journal.FilePrefix != "" {
		journal.FilePrefix = cfg.Journal.FilePrefix
	}
	if cfg.Journal.SegmentMaxBytes > 0 {
		journal.SegmentMaxBytes = cfg.Journal.SegmentMaxBytes
	}
	if cfg.Journal.QueueSize > 0 {
		journal.QueueSize = cfg.Journal.QueueSize
	}
	journal.FlushInterval = time.Duration(cfg.Journal.FlushIntervalMS) * time.Millisecond
	journal.SyncInterval = time.Duration(cfg.Journal.SyncIntervalMS) * time.Millisecond

	return Loaded{
		Batch:          batch,
		Params:         params,
		JournalEnabled: cfg.Journal.Enabled,
		Journal:        journal,
		Results:        cfg.Results,
	}, nil
}

func resolveParams(cfg FileConfig) (sim.Params, error) {
	mode, err := parseSignalMode(cfg.Agents.MakerSignal)
	if err != nil {
		return sim.Params{}, err
	}

	p := sim.Params{
		InitialPrice:       model.PriceFromFloat(cfg.Market.InitialPrice),
		Volatility:         cfg.Market.Volatility,
		NoiseMagnitude:     cfg.Market.NoiseMagnitude,
		MakerOrderSize:     model.Quantity(cfg.Agents.MakerOrderSize),
		DesignatedSize:     model.Quantity(cfg.Agents.DesignatedSize),
		FixedSpread:        model.PriceFromFloat(cfg.Agents.FixedSpread),
		ProviderSpread:     model.PriceFromFloat(cfg.Agents.ProviderSpread),
		BiasSpread:         model.PriceFromFloat(cfg.Agents.BiasSpread),
		MakerSignalMode:    mode,
		PerfectTakers:      cfg.Agents.PerfectTakers,
		NoisyTakers:        cfg.Agents.NoisyTakers,
		RandomTakers:       cfg.Agents.RandomTakers,
		LiquidityProviders: cfg.Agents.LiquidityProviders,
		MaxIterations:      cfg.Market.MaxIterations,
		MaxWait:            time.Duration(cfg.Market.MaxWaitMS) * time.Millisecond,
		MultithreadMakers:  true,
		Risk:               cfg.Risk,
		Seed:               cfg.Batch.Seed,
	}
	if cfg.Agents.MultithreadMakers != nil {
		p.MultithreadMakers = *cfg.Agents.MultithreadMakers
	}

	// the baseline batch: one extra provider, noisy maker signal and
	// a population of one hundred noisy takers
	if cfg.Market.Volatility == 0 {
		p.Volatility = 0.20
	}
	if cfg.Market.NoiseMagnitude == 0 {
		p.NoiseMagnitude = 3
	}
	if cfg.Agents.MakerSignal == "" {
		p.MakerSignalMode = agent.SignalNoisy
	}
	if cfg.Agents.FixedSpread == 0 {
		p.FixedSpread = model.PriceFromFloat(3)
	}
	if cfg.Market.MaxIterations == 0 {
		p.MaxIterations = 500
	}
	if cfg.Agents.LiquidityProviders == 0 && cfg.Agents.PerfectTakers == 0 &&
		cfg.Agents.NoisyTakers == 0 && cfg.Agents.RandomTakers == 0 {
		p.LiquidityProviders = 1
		p.NoisyTakers = 100
	}

	p = p.WithDefaults()
	if err := p.Validate(); err != nil {
		return sim.Params{}, fmt.Errorf("invalid config: %w", err)
	}
	return p, nil
}

func parseSignalMode(s string) (agent.SignalMode, error) {
	switch s {
	case "", "perfect":
		return agent.SignalPerfect, nil
	case "noisy":
		return agent.SignalNoisy, nil
	default:
		return 0, fmt.Errorf("invalid config: makerSignal %q", s)
	}
}
