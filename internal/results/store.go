// Package results persists run and batch outcomes to PostgreSQL.
package results

import (
	"context"
	"time"

	"main/internal/sim"
	"main/internal/stats"
	"main/pkg/conn"
)

// RunRecord is one simulation run outcome.
type RunRecord struct {
	ID        uint64 `gorm:"primaryKey;autoIncrement"`
	SessionID int64  `gorm:"index"`
	RunID     uint64

	Iterations  int
	LastPrice   int64
	MakerProfit int64
	TakerProfit int64
	Mismatch    bool
	DurationNS  int64

	CreatedAt time.Time
}

func (RunRecord) TableName() string { return "sim_runs" }

// BatchRecord is the aggregate outcome of one batch session.
type BatchRecord struct {
	ID        uint64 `gorm:"primaryKey;autoIncrement"`
	SessionID int64  `gorm:"uniqueIndex"`

	Runs        int
	TotalProfit int64
	Wins        int
	Losses      int
	Flats       int
	WinRatio    string
	AverageWin  string
	AverageLoss string

	CreatedAt time.Time
}

func (BatchRecord) TableName() string { return "sim_batches" }

// Store writes run outcomes through a PostgreSQL connection.
type Store struct {
	client *conn.Client
}

// Open connects to PostgreSQL and migrates the result tables.
func Open(dsn string) (*Store, error) {
	client, err := conn.New(conn.Option{DSN: dsn})
	if err != nil {
		return nil, err
	}
	if err := client.DB().AutoMigrate(&RunRecord{}, &BatchRecord{}); err != nil {
		_ = client.Close()
		return nil, err
	}
	return &Store{client: client}, nil
}

// Close releases the connection pool.
func (s *Store) Close() error {
	if s == nil {
		return nil
	}
	return s.client.Close()
}

// SaveRun persists one run report under the given batch session.
func (s *Store) SaveRun(ctx context.Context, sessionID int64, report sim.Report) error {
	record := newRunRecord(sessionID, report)
	return s.client.DB().WithContext(ctx).Create(&record).Error
}

// SaveBatch persists the aggregate summary of a batch session.
func (s *Store) SaveBatch(ctx context.Context, sessionID int64, summary stats.BatchSummary) error {
	record := newBatchRecord(sessionID, summary)
	return s.client.DB().WithContext(ctx).Create(&record).Error
}

func newRunRecord(sessionID int64, report sim.Report) RunRecord {
	return RunRecord{
		SessionID:   sessionID,
		RunID:       report.RunID,
		Iterations:  report.Iterations,
		LastPrice:   int64(report.LastPrice),
		MakerProfit: int64(report.MakerProfit),
		TakerProfit: int64(report.TakerProfit),
		Mismatch:    report.Mismatch,
		DurationNS:  int64(report.Duration),
	}
}

func newBatchRecord(sessionID int64, summary stats.BatchSummary) BatchRecord {
	return BatchRecord{
		SessionID:   sessionID,
		Runs:        summary.Runs,
		TotalProfit: int64(summary.TotalProfit),
		Wins:        summary.Wins,
		Losses:      summary.Losses,
		Flats:       summary.Flats,
		WinRatio:    summary.WinRatio.String(),
		AverageWin:  summary.AverageWin.String(),
		AverageLoss: summary.AverageLoss.String(),
	}
}
