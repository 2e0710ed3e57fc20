package codec

import (
	"testing"

	"main/internal/model"
	"main/internal/schema"
)

func TestFillRoundTrip(t *testing.T) {
	in := schema.FillRecord{
		RunID:         7,
		ParticipantID: 3,
		Side:          model.SideSell,
		Flags:         0x0102,
		Price:         model.PriceFromFloat(-102.5),
		Qty:           35,
	}

	buf := EncodeFill(nil, in)
	if len(buf) != FillPayloadSize {
		t.Fatalf("payload size %d, want %d", len(buf), FillPayloadSize)
	}

	out, ok := DecodeFill(buf)
	if !ok {
		t.Fatal("decode failed")
	}
	if out != in {
		t.Fatalf("round trip mismatch: %+v != %+v", out, in)
	}
}

func TestFillDecodeShortBuffer(t *testing.T) {
	if _, ok := DecodeFill(make([]byte, FillPayloadSize-1)); ok {
		t.Fatal("short buffer must not decode")
	}
}

func TestEncodeReusesBuffer(t *testing.T) {
	buf := make([]byte, 0, 128)
	out := EncodeFill(buf, schema.FillRecord{RunID: 1})
	if &out[0] != &buf[:1][0] {
		t.Fatal("encode must reuse a large enough buffer")
	}
}

func TestTickRoundTrip(t *testing.T) {
	in := schema.TickRecord{
		RunID:     5,
		Iteration: 17,
		Flags:     schema.TickFlagHasBid | schema.TickFlagHasAsk,
		Signal:    model.PriceFromFloat(100.7),
		BidPrice:  model.PriceFromFloat(98.5),
		BidSize:   100,
		AskPrice:  model.PriceFromFloat(102.5),
		AskSize:   40,
	}

	buf := EncodeTick(nil, in)
	if len(buf) != TickPayloadSize {
		t.Fatalf("payload size %d, want %d", len(buf), TickPayloadSize)
	}

	out, ok := DecodeTick(buf)
	if !ok {
		t.Fatal("decode failed")
	}
	if out != in {
		t.Fatalf("round trip mismatch: %+v != %+v", out, in)
	}
}

func TestParticipantSummaryRoundTrip(t *testing.T) {
	in := schema.ParticipantSummary{
		RunID:           9,
		ParticipantID:   2,
		Kind:            schema.ParticipantNoisyTaker,
		Direction:       model.SideBuy,
		Name:            schema.Name("NIPT1"),
		Trades:          120,
		NoTrades:        80,
		Realized:        model.Notional(-123456),
		Unrealized:      model.Notional(7890),
		UnrealizedUnits: 42,
	}

	buf := EncodeParticipantSummary(nil, in)
	out, ok := DecodeParticipantSummary(buf)
	if !ok {
		t.Fatal("decode failed")
	}
	if out != in {
		t.Fatalf("round trip mismatch: %+v != %+v", out, in)
	}
	if got := schema.NameString(out.Name); got != "NIPT1" {
		t.Fatalf("name %q, want NIPT1", got)
	}
}

func TestRunSummaryRoundTrip(t *testing.T) {
	in := schema.RunSummary{
		RunID:       4,
		Iterations:  500,
		Flags:       schema.RunFlagPnlMismatch,
		LastPrice:   model.PriceFromFloat(97.3),
		MakerProfit: model.Notional(250075),
		TakerProfit: model.Notional(-250075),
	}

	buf := EncodeRunSummary(nil, in)
	out, ok := DecodeRunSummary(buf)
	if !ok {
		t.Fatal("decode failed")
	}
	if out != in {
		t.Fatalf("round trip mismatch: %+v != %+v", out, in)
	}
}
