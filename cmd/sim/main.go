package main

import (
	"context"
	"flag"
	"log"
	"os"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	pyroscope "github.com/grafana/pyroscope-go"
	"github.com/yanun0323/pkg/sys"

	"main/internal/bus"
	"main/internal/model"
	"main/internal/obs"
	"main/internal/ops"
	"main/internal/recorder"
	"main/internal/results"
	"main/internal/sim"
	"main/internal/stats"
)

func main() {
	configPath := flag.String("config", "", "Path to JSON config")
	runs := flag.Int("runs", 0, "Override number of simulations")
	concurrent := flag.Int("concurrent", 0, "Override max concurrent simulations")
	seed := flag.Int64("seed", 0, "Override batch seed (0=clock)")
	journalDir := flag.String("journal-dir", "", "Enable journaling into this directory")
	output := flag.String("output", "", "Override batch results output path")
	pyroscopeAddr := flag.String("pyroscope", "", "Pyroscope server address (empty=disabled)")
	flag.Parse()

	loaded, err := loadConfig(*configPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}
	if *runs > 0 {
		loaded.Batch.Simulations = *runs
	}
	if *concurrent > 0 {
		loaded.Batch.MaxConcurrent = *concurrent
	}
	if *seed != 0 {
		loaded.Params.Seed = *seed
	}
	if *journalDir != "" {
		loaded.JournalEnabled = true
		loaded.Journal.Dir = *journalDir
	}
	if *output != "" {
		loaded.Results.OutputPath = *output
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		<-sys.Shutdown()
		cancel()
	}()

	if *pyroscopeAddr != "" {
		profiler, err := pyroscope.Start(pyroscope.Config{
			ApplicationName: "market-sim",
			ServerAddress:   *pyroscopeAddr,
			Logger:          emptyLogger{},
			ProfileTypes: []pyroscope.ProfileType{
				pyroscope.ProfileCPU,
				pyroscope.ProfileAllocObjects,
				pyroscope.ProfileAllocSpace,
				pyroscope.ProfileInuseObjects,
				pyroscope.ProfileInuseSpace,
			},
		})
		if err != nil {
			log.Fatalf("pyroscope start failed: %v", err)
		}
		defer func() {
			_ = profiler.Stop()
		}()
	}

	if err := runBatch(ctx, loaded); err != nil {
		log.Fatalf("batch failed: %v", err)
	}
}

func loadConfig(path string) (ops.Loaded, error) {
	if path == "" {
		return ops.Default(), nil
	}
	return ops.Load(path)
}

func runBatch(ctx context.Context, loaded ops.Loaded) error {
	metrics := obs.NewMetrics()
	sink := sim.Observer{
		Trace:   obs.NewTraceGenerator(uint64(loaded.Params.Seed)),
		Metrics: metrics,
	}

	var (
		writer *recorder.Writer
		queue  *bus.Queue
		pipeWG sync.WaitGroup
	)
	if loaded.JournalEnabled {
		w, err := recorder.NewWriter(loaded.Journal)
		if err != nil {
			return err
		}
		if err := w.Start(ctx); err != nil {
			return err
		}
		writer = w
		queue = bus.NewQueue(loaded.Journal.QueueSize)
		sink.Events = queue

		pipeWG.Add(1)
		go func() {
			defer pipeWG.Done()
			queue.Run(ctx, func(e bus.Event) {
				e.Header.TsRecv = time.Now().UTC().UnixNano()
				metrics.ObserveEvent(e.Header)
				if err := w.TryAppend(e.Header, e.Payload); err != nil {
					log.Printf("journal append failed: %v", err)
				}
			})
		}()
	}

	reports, runErr := runSimulations(ctx, loaded, sink)

	if queue != nil {
		queue.Close()
	}
	pipeWG.Wait()
	if writer != nil {
		if err := writer.Close(); err != nil {
			log.Printf("journal close failed: %v", err)
		}
	}
	if runErr != nil {
		return runErr
	}

	profits := make([]model.Notional, len(reports))
	for i, r := range reports {
		profits[i] = r.Profit()
	}
	summary := stats.Summarize(profits)

	log.Printf("batch done: runs=%d total=%s wins=%d losses=%d flats=%d win_ratio=%s avg_win=%s avg_loss=%s",
		summary.Runs, summary.TotalProfit, summary.Wins, summary.Losses, summary.Flats,
		summary.WinRatio, summary.AverageWin, summary.AverageLoss)

	if loaded.Results.OutputPath != "" {
		if err := writeResults(loaded.Results.OutputPath, reports, summary); err != nil {
			return err
		}
	}
	if loaded.Results.PostgresDSN != "" {
		if err := persistResults(ctx, loaded.Results.PostgresDSN, reports, summary); err != nil {
			return err
		}
	}

	snapshot := metrics.Snapshot()
	log.Printf("metrics: events=%v drops=%d closed=%d event_latency=%+v run_duration=%+v",
		snapshot.EventCounts, snapshot.QueueDrops, snapshot.QueueClosed,
		snapshot.EventLatency, snapshot.RunDuration)
	return nil
}

// runSimulations executes the batch under the concurrency cap and
// returns reports in run order. A cancelled context stops launching
// new runs but the completed ones still count.
func runSimulations(ctx context.Context, loaded ops.Loaded, sink sim.Observer) ([]sim.Report, error) {
	var (
		wg       sync.WaitGroup
		sem      = make(chan struct{}, loaded.Batch.MaxConcurrent)
		mu       sync.Mutex
		reports  = make([]sim.Report, 0, loaded.Batch.Simulations)
		firstErr error
	)

	for i := 0; i < loaded.Batch.Simulations; i++ {
		select {
		case <-ctx.Done():
			wg.Wait()
			return reports, nil
		case sem <- struct{}{}:
		}

		params := loaded.Params
		if params.Seed != 0 {
			// decorrelate runs while keeping the batch reproducible
			params.Seed += int64(i) * 10_000
		}

		s, err := sim.New(params, uint64(i+1), sink)
		if err != nil {
			<-sem
			wg.Wait()
			return reports, err
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			defer func() { <-sem }()

			report, err := s.Run(ctx)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if firstErr == nil {
					firstErr = err
				}
				return
			}
			reports = append(reports, report)
		}()
	}

	wg.Wait()
	return reports, firstErr
}

type runResult struct {
	RunID       uint64 `json:"runId"`
	Iterations  int    `json:"iterations"`
	LastPrice   string `json:"lastPrice"`
	MakerProfit string `json:"makerProfit"`
	TakerProfit string `json:"takerProfit"`
	Mismatch    bool   `json:"mismatch"`
	DurationMS  int64  `json:"durationMs"`
}

type batchResult struct {
	Runs        int         `json:"runs"`
	TotalProfit string      `json:"totalProfit"`
	Wins        int         `json:"wins"`
	Losses      int         `json:"losses"`
	Flats       int         `json:"flats"`
	WinRatio    string      `json:"winRatio"`
	AverageWin  string      `json:"averageWin"`
	AverageLoss string      `json:"averageLoss"`
	Results     []runResult `json:"results"`
}

func writeResults(path string, reports []sim.Report, summary stats.BatchSummary) error {
	out := batchResult{
		Runs:        summary.Runs,
		TotalProfit: summary.TotalProfit.String(),
		Wins:        summary.Wins,
		Losses:      summary.Losses,
		Flats:       summary.Flats,
		WinRatio:    summary.WinRatio.String(),
		AverageWin:  summary.AverageWin.String(),
		AverageLoss: summary.AverageLoss.String(),
		Results:     make([]runResult, 0, len(reports)),
	}
	for _, r := range reports {
		out.Results = append(out.Results, runResult{
			RunID:       r.RunID,
			Iterations:  r.Iterations,
			LastPrice:   r.LastPrice.String(),
			MakerProfit: r.MakerProfit.String(),
			TakerProfit: r.TakerProfit.String(),
			Mismatch:    r.Mismatch,
			DurationMS:  r.Duration.Milliseconds(),
		})
	}

	data, err := sonic.ConfigDefault.MarshalIndent(out, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func persistResults(ctx context.Context, dsn string, reports []sim.Report, summary stats.BatchSummary) error {
	store, err := results.Open(dsn)
	if err != nil {
		return err
	}
	defer store.Close()

	sessionID := time.Now().UTC().UnixNano()
	for _, r := range reports {
		if err := store.SaveRun(ctx, sessionID, r); err != nil {
			return err
		}
	}
	return store.SaveBatch(ctx, sessionID, summary)
}

type emptyLogger struct{}

func (emptyLogger) Infof(_ string, _ ...interface{})  {}
func (emptyLogger) Debugf(_ string, _ ...interface{}) {}
func (emptyLogger) Errorf(_ string, _ ...interface{}) {}
