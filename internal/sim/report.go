package sim

import (
	"time"

	"main/internal/book"
	"main/internal/model"
	"main/internal/pnl"
	"main/internal/schema"
)

// mismatchTolerance is how far maker and taker profit may fail to
// offset before the run is flagged, in notional units.
var mismatchTolerance = model.Notional(model.PriceFromFloat(0.1))

// ParticipantResult is the final accounting for one participant.
type ParticipantResult struct {
	ID       uint32
	Name     string
	Kind     schema.ParticipantKind
	Trades   int
	NoTrades int
	Pnl      pnl.Result
	Fills    []book.Fill
}

// Total is realized plus unrealized profit.
func (r ParticipantResult) Total() model.Notional { return r.Pnl.Total() }

// Report is the outcome of one simulation run.
type Report struct {
	RunID      uint64
	Iterations int
	LastPrice  model.Price
	Duration   time.Duration

	// Makers holds the designated maker first, then the extra
	// liquidity providers.
	Makers []ParticipantResult
	Takers []ParticipantResult

	MakerProfit model.Notional
	TakerProfit model.Notional
	// Mismatch is set when maker and taker profit do not offset
	// within tolerance, which indicates an accounting bug.
	Mismatch bool
}

// Profit is the run result from the maker's point of view.
func (r Report) Profit() model.Notional { return r.MakerProfit }

// Summary converts the report into its journaled form.
func (r Report) Summary() schema.RunSummary {
	s := schema.RunSummary{
		RunID:       r.RunID,
		Iterations:  uint32(r.Iterations),
		LastPrice:   r.LastPrice,
		MakerProfit: r.MakerProfit,
		TakerProfit: r.TakerProfit,
	}
	if r.Mismatch {
		s.Flags |= schema.RunFlagPnlMismatch
	}
	return s
}
