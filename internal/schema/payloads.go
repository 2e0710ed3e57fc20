package schema

import "main/internal/model"

// ParticipantKind classifies a market participant for reporting.
type ParticipantKind uint16

const (
	ParticipantUnknown ParticipantKind = iota
	ParticipantMaker
	ParticipantProvider
	ParticipantPerfectTaker
	ParticipantNoisyTaker
	ParticipantRandomTaker
)

func (k ParticipantKind) String() string {
	switch k {
	case ParticipantMaker:
		return "maker"
	case ParticipantProvider:
		return "provider"
	case ParticipantPerfectTaker:
		return "perfect_taker"
	case ParticipantNoisyTaker:
		return "noisy_taker"
	case ParticipantRandomTaker:
		return "random_taker"
	default:
		return "unknown"
	}
}

// NameSize is the fixed width of journaled participant names.
const NameSize = 16

// Name packs a participant name into its fixed-width form, truncating
// long names.
func Name(s string) [NameSize]byte {
	var out [NameSize]byte
	copy(out[:], s)
	return out
}

// NameString unpacks a fixed-width name, trimming trailing NULs.
func NameString(name [NameSize]byte) string {
	n := 0
	for n < NameSize && name[n] != 0 {
		n++
	}
	return string(name[:n])
}

// TickFlags annotate which sides of the market were quoted.
const (
	TickFlagHasBid uint16 = 1 << 0
	TickFlagHasAsk uint16 = 1 << 1
)

// TickRecord is the payload for EventTick: one iteration's view of the
// signal and the best bid/offer. Absent sides carry zero prices and
// sizes, distinguished by the flags.
type TickRecord struct {
	RunID     uint64
	Iteration uint32
	Flags     uint16
	Reserved  uint16
	Signal    model.Price
	BidPrice  model.Price
	BidSize   model.Quantity
	AskPrice  model.Price
	AskSize   model.Quantity
}

// FillRecord is the payload for EventFill: one execution attributed to
// one participant of one run.
type FillRecord struct {
	RunID         uint64
	ParticipantID uint32
	Side          model.Side
	Flags         uint16
	Price         model.Price
	Qty           model.Quantity
}

// ParticipantSummary is the payload for EventParticipantSummary.
type ParticipantSummary struct {
	RunID           uint64
	ParticipantID   uint32
	Kind            ParticipantKind
	Direction       model.Side
	Name            [NameSize]byte
	Trades          uint32
	NoTrades        uint32
	Realized        model.Notional
	Unrealized      model.Notional
	UnrealizedUnits model.Quantity
}

// RunSummaryFlags annotate a run outcome.
const (
	// RunFlagPnlMismatch marks a run where maker and taker profit did
	// not offset within tolerance.
	RunFlagPnlMismatch uint16 = 1 << 0
)

// RunSummary is the payload for EventRunSummary, one per run.
type RunSummary struct {
	RunID       uint64
	Iterations  uint32
	Flags       uint16
	Reserved    uint16
	LastPrice   model.Price
	MakerProfit model.Notional
	TakerProfit model.Notional
}
