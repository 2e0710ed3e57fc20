package ops

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"main/internal/agent"
	"main/internal/model"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestDefaultMatchesBaselineBatch(t *testing.T) {
	loaded := Default()

	assert.Equal(t, 10, loaded.Batch.Simulations)
	assert.Equal(t, 128, loaded.Batch.MaxConcurrent)
	assert.False(t, loaded.JournalEnabled)

	p := loaded.Params
	assert.Equal(t, model.PriceFromFloat(100), p.InitialPrice)
	assert.Equal(t, 0.20, p.Volatility)
	assert.Equal(t, 3.0, p.NoiseMagnitude)
	assert.Equal(t, model.PriceFromFloat(3), p.FixedSpread)
	assert.Equal(t, agent.SignalNoisy, p.MakerSignalMode)
	assert.Equal(t, 1, p.LiquidityProviders)
	assert.Equal(t, 100, p.NoisyTakers)
	assert.Equal(t, 500, p.MaxIterations)
	assert.True(t, p.MultithreadMakers)
}

func TestLoadResolvesFullConfig(t *testing.T) {
	path := writeConfig(t, `{
		"batch": {"simulations": 3, "maxConcurrent": 2, "seed": 42},
		"market": {"initialPrice": 250, "volatility": 0.5, "maxWaitMs": 5, "maxIterations": 50},
		"agents": {
			"makerOrderSize": 40,
			"fixedSpread": 1.5,
			"makerSignal": "perfect",
			"perfectTakers": 2,
			"randomTakers": 4,
			"multithreadMakers": false
		},
		"risk": {"maxOrderQty": 500},
		"journal": {
			"enabled": true,
			"dir": "/tmp/journal",
			"filePrefix": "run",
			"segmentMaxBytes": 1024,
			"queueSize": 16,
			"flushIntervalMs": 20
		},
		"results": {"outputPath": "results.json"}
	}`)

	loaded, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 3, loaded.Batch.Simulations)
	assert.Equal(t, 2, loaded.Batch.MaxConcurrent)

	p := loaded.Params
	assert.Equal(t, model.PriceFromFloat(250), p.InitialPrice)
	assert.Equal(t, 0.5, p.Volatility)
	assert.Equal(t, model.Quantity(40), p.MakerOrderSize)
	assert.Equal(t, model.PriceFromFloat(1.5), p.FixedSpread)
	assert.Equal(t, agent.SignalPerfect, p.MakerSignalMode)
	assert.Equal(t, 2, p.PerfectTakers)
	assert.Equal(t, 4, p.RandomTakers)
	assert.Equal(t, 0, p.NoisyTakers)
	assert.Equal(t, 50, p.MaxIterations)
	assert.Equal(t, 5*time.Millisecond, p.MaxWait)
	assert.False(t, p.MultithreadMakers)
	assert.Equal(t, model.Quantity(500), p.Risk.MaxOrderQty)
	assert.Equal(t, int64(42), p.Seed)

	assert.True(t, loaded.JournalEnabled)
	assert.Equal(t, "/tmp/journal", loaded.Journal.Dir)
	assert.Equal(t, "run", loaded.Journal.FilePrefix)
	assert.Equal(t, int64(1024), loaded.Journal.SegmentMaxBytes)
	assert.Equal(t, 16, loaded.Journal.QueueSize)
	assert.Equal(t, 20*time.Millisecond, loaded.Journal.FlushInterval)
	assert.Equal(t, "results.json", loaded.Results.OutputPath)
}

func TestLoadRejectsBadConfig(t *testing.T) {
	for name, body := range map[string]string{
		"malformed json":  `{`,
		"bad signal mode": `{"agents": {"makerSignal": "psychic"}}`,
		"negative sims":   `{"batch": {"simulations": -1}}`,
		"bad volatility":  `{"market": {"volatility": -0.5}}`,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeConfig(t, body))
			assert.Error(t, err)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}
