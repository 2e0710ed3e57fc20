package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"sort"

	"github.com/yanun0323/errors"

	"main/internal/book"
	"main/internal/codec"
	"main/internal/model"
	"main/internal/pnl"
	"main/internal/recorder"
	"main/internal/schema"
	"main/pkg/exception"
)

// replayState accumulates journaled events per run so each run can be
// re-accounted after playback.
type replayState struct {
	counts    map[schema.EventType]int
	total     int
	fills     map[uint64]map[uint32][]book.Fill
	summaries map[uint64][]schema.ParticipantSummary
	runs      map[uint64]schema.RunSummary

	// one synthetic order per side carries fill direction during the
	// FIFO re-accounting
	buyOwner  *book.Order
	sellOwner *book.Order
}

func newReplayState() *replayState {
	return &replayState{
		counts:    make(map[schema.EventType]int),
		fills:     make(map[uint64]map[uint32][]book.Fill),
		summaries: make(map[uint64][]schema.ParticipantSummary),
		runs:      make(map[uint64]schema.RunSummary),
		buyOwner:  book.NewOrder(model.SideBuy, 0, 0, nil),
		sellOwner: book.NewOrder(model.SideSell, 0, 0, nil),
	}
}

func main() {
	dir := flag.String("dir", "journal", "Journal directory")
	prefix := flag.String("prefix", "", "Journal file prefix (default: journal)")
	speed := flag.Float64("speed", 0, "Playback speed (1=real-time, 0=no pacing)")
	useRecv := flag.Bool("use-recv-time", false, "Use receive timestamp for pacing")
	noChecksum := flag.Bool("no-checksum", false, "Disable checksum validation")
	maxPayload := flag.Int("max-payload", 0, "Max payload size in bytes (0=unlimited)")
	verify := flag.Bool("verify", true, "Re-run FIFO accounting and compare against journaled summaries")
	dump := flag.Bool("dump", false, "Print every event while replaying")
	flag.Parse()

	pb, err := recorder.NewPlayback(recorder.PlaybackConfig{
		Dir:             *dir,
		FilePrefix:      *prefix,
		Speed:           *speed,
		UseRecvTime:     *useRecv,
		DisableChecksum: *noChecksum,
		MaxPayloadSize:  *maxPayload,
	})
	if err != nil {
		log.Fatalf("playback init failed: %v", err)
	}

	state := newReplayState()
	err = pb.Run(context.Background(), func(header schema.EventHeader, payload []byte) error {
		if *dump {
			fmt.Printf("%06d seq=%d type=%s ts_event=%d len=%d\n",
				state.total+1, header.Seq, header.Type, header.TsEvent, len(payload))
		}
		return state.apply(header, payload)
	})
	if err != nil {
		log.Fatalf("playback run failed: %v", err)
	}

	log.Printf("replay completed: total=%d counts=%v runs=%d", state.total, state.counts, len(state.runs))

	if *verify {
		if err := state.verify(); err != nil {
			log.Fatalf("verification failed: %v", err)
		}
		log.Printf("verification passed: runs=%d participants=%d",
			len(state.runs), state.participantCount())
	}
}

func (s *replayState) apply(header schema.EventHeader, payload []byte) error {
	s.total++
	s.counts[header.Type]++

	switch header.Type {
	case schema.EventFill:
		fill, ok := codec.DecodeFill(payload)
		if !ok {
			return fmt.Errorf("seq %d: decode fill failed", header.Seq)
		}
		owner := s.buyOwner
		if fill.Side == model.SideSell {
			owner = s.sellOwner
		}
		byParticipant := s.fills[fill.RunID]
		if byParticipant == nil {
			byParticipant = make(map[uint32][]book.Fill)
			s.fills[fill.RunID] = byParticipant
		}
		byParticipant[fill.ParticipantID] = append(byParticipant[fill.ParticipantID], book.Fill{
			Price: fill.Price,
			Qty:   fill.Qty,
			Order: owner,
		})
	case schema.EventParticipantSummary:
		summary, ok := codec.DecodeParticipantSummary(payload)
		if !ok {
			return fmt.Errorf("seq %d: decode participant summary failed", header.Seq)
		}
		s.summaries[summary.RunID] = append(s.summaries[summary.RunID], summary)
	case schema.EventRunSummary:
		summary, ok := codec.DecodeRunSummary(payload)
		if !ok {
			return fmt.Errorf("seq %d: decode run summary failed", header.Seq)
		}
		s.runs[summary.RunID] = summary
	}
	return nil
}

// verify re-runs the FIFO lot matching over journaled fills and checks
// every participant summary and run summary against it.
func (s *replayState) verify() error {
	runIDs := make([]uint64, 0, len(s.runs))
	for id := range s.runs {
		runIDs = append(runIDs, id)
	}
	sort.Slice(runIDs, func(i, j int) bool { return runIDs[i] < runIDs[j] })

	for _, runID := range runIDs {
		if err := s.verifyRun(runID); err != nil {
			return err
		}
	}

	for runID := range s.summaries {
		if _, ok := s.runs[runID]; !ok {
			return errors.Wrapf(exception.ErrSummaryMismatch, "run %d has participants but no run summary", runID)
		}
	}
	return nil
}

func (s *replayState) verifyRun(runID uint64) error {
	rs := s.runs[runID]
	var makerProfit, takerProfit model.Notional

	for _, ps := range s.summaries[runID] {
		fills := s.fills[runID][ps.ParticipantID]
		if int(ps.Trades) != len(fills) && isMaker(ps.Kind) {
			return errors.Wrapf(exception.ErrSummaryMismatch,
				"run %d %s: %d journaled fills, summary says %d trades",
				runID, schema.NameString(ps.Name), len(fills), ps.Trades)
		}

		res := pnl.Calculate(fills, rs.LastPrice)
		if res.Realized != ps.Realized || res.Unrealized != ps.Unrealized ||
			res.UnrealizedUnits != ps.UnrealizedUnits || res.Direction != ps.Direction {
			return errors.Wrapf(exception.ErrSummaryMismatch,
				"run %d %s: recomputed realized=%s unrealized=%s units=%s dir=%s, journaled realized=%s unrealized=%s units=%s dir=%s",
				runID, schema.NameString(ps.Name),
				res.Realized, res.Unrealized, res.UnrealizedUnits, res.Direction,
				ps.Realized, ps.Unrealized, ps.UnrealizedUnits, ps.Direction)
		}

		if isMaker(ps.Kind) {
			makerProfit += res.Total()
		} else {
			takerProfit += res.Total()
		}
	}

	if makerProfit != rs.MakerProfit || takerProfit != rs.TakerProfit {
		return errors.Wrapf(exception.ErrSummaryMismatch,
			"run %d: recomputed maker=%s takers=%s, journaled maker=%s takers=%s",
			runID, makerProfit, takerProfit, rs.MakerProfit, rs.TakerProfit)
	}
	return nil
}

func (s *replayState) participantCount() int {
	n := 0
	for _, summaries := range s.summaries {
		n += len(summaries)
	}
	return n
}

func isMaker(kind schema.ParticipantKind) bool {
	return kind == schema.ParticipantMaker || kind == schema.ParticipantProvider
}
