package codec

import (
	"encoding/binary"

	"main/internal/model"
	"main/internal/schema"
)

const (
	ParticipantSummaryPayloadSize = 64
	RunSummaryPayloadSize         = 40
)

// EncodeParticipantSummary serializes a participant summary into a
// fixed-size payload.
func EncodeParticipantSummary(dst []byte, s schema.ParticipantSummary) []byte {
	if cap(dst) < ParticipantSummaryPayloadSize {
		dst = make([]byte, ParticipantSummaryPayloadSize)
	} else {
		dst = dst[:ParticipantSummaryPayloadSize]
	}

	binary.LittleEndian.PutUint64(dst[0:8], s.RunID)
	binary.LittleEndian.PutUint32(dst[8:12], s.ParticipantID)
	binary.LittleEndian.PutUint16(dst[12:14], uint16(s.Kind))
	binary.LittleEndian.PutUint16(dst[14:16], uint16(s.Direction))
	copy(dst[16:32], s.Name[:])
	binary.LittleEndian.PutUint32(dst[32:36], s.Trades)
	binary.LittleEndian.PutUint32(dst[36:40], s.NoTrades)
	binary.LittleEndian.PutUint64(dst[40:48], uint64(s.Realized))
	binary.LittleEndian.PutUint64(dst[48:56], uint64(s.Unrealized))
	binary.LittleEndian.PutUint64(dst[56:64], uint64(s.UnrealizedUnits))

	return dst
}

// DecodeParticipantSummary parses a fixed-size participant summary
// payload.
func DecodeParticipantSummary(src []byte) (schema.ParticipantSummary, bool) {
	if len(src) < ParticipantSummaryPayloadSize {
		return schema.ParticipantSummary{}, false
	}
	s := schema.ParticipantSummary{
		RunID:           binary.LittleEndian.Uint64(src[0:8]),
		ParticipantID:   binary.LittleEndian.Uint32(src[8:12]),
		Kind:            schema.ParticipantKind(binary.LittleEndian.Uint16(src[12:14])),
		Direction:       model.Side(binary.LittleEndian.Uint16(src[14:16])),
		Trades:          binary.LittleEndian.Uint32(src[32:36]),
		NoTrades:        binary.LittleEndian.Uint32(src[36:40]),
		Realized:        model.Notional(int64(binary.LittleEndian.Uint64(src[40:48]))),
		Unrealized:      model.Notional(int64(binary.LittleEndian.Uint64(src[48:56]))),
		UnrealizedUnits: model.Quantity(int64(binary.LittleEndian.Uint64(src[56:64]))),
	}
	copy(s.Name[:], src[16:32])
	return s, true
}

// EncodeRunSummary serializes a run summary into a fixed-size payload.
func EncodeRunSummary(dst []byte, s schema.RunSummary) []byte {
	if cap(dst) < RunSummaryPayloadSize {
		dst = make([]byte, RunSummaryPayloadSize)
	} else {
		dst = dst[:RunSummaryPayloadSize]
	}

	binary.LittleEndian.PutUint64(dst[0:8], s.RunID)
	binary.LittleEndian.PutUint32(dst[8:12], s.Iterations)
	binary.LittleEndian.PutUint16(dst[12:14], s.Flags)
	binary.LittleEndian.PutUint16(dst[14:16], s.Reserved)
	binary.LittleEndian.PutUint64(dst[16:24], uint64(s.LastPrice))
	binary.LittleEndian.PutUint64(dst[24:32], uint64(s.MakerProfit))
	binary.LittleEndian.PutUint64(dst[32:40], uint64(s.TakerProfit))

	return dst
}

// DecodeRunSummary parses a fixed-size run summary payload.
func DecodeRunSummary(src []byte) (schema.RunSummary, bool) {
	if len(src) < RunSummaryPayloadSize {
		return schema.RunSummary{}, false
	}
	return schema.RunSummary{
		RunID:       binary.LittleEndian.Uint64(src[0:8]),
		Iterations:  binary.LittleEndian.Uint32(src[8:12]),
		Flags:       binary.LittleEndian.Uint16(src[12:14]),
		Reserved:    binary.LittleEndian.Uint16(src[14:16]),
		LastPrice:   model.Price(int64(binary.LittleEndian.Uint64(src[16:24]))),
		MakerProfit: model.Notional(int64(binary.LittleEndian.Uint64(src[24:32]))),
		TakerProfit: model.Notional(int64(binary.LittleEndian.Uint64(src[32:40]))),
	}, true
}
