package codec

import (
	"encoding/binary"

	"main/internal/model"
	"main/internal/schema"
)

const TickPayloadSize = 56

// EncodeTick serializes a tick record into a fixed-size payload.
func EncodeTick(dst []byte, tick schema.TickRecord) []byte {
	if cap(dst) < TickPayloadSize {
		dst = make([]byte, TickPayloadSize)
	} else {
		dst = dst[:TickPayloadSize]
	}

	binary.LittleEndian.PutUint64(dst[0:8], tick.RunID)
	binary.LittleEndian.PutUint32(dst[8:12], tick.Iteration)
	binary.LittleEndian.PutUint16(dst[12:14], tick.Flags)
	binary.LittleEndian.PutUint16(dst[14:16], tick.Reserved)
	binary.LittleEndian.PutUint64(dst[16:24], uint64(tick.Signal))
	binary.LittleEndian.PutUint64(dst[24:32], uint64(tick.BidPrice))
	binary.LittleEndian.PutUint64(dst[32:40], uint64(tick.BidSize))
	binary.LittleEndian.PutUint64(dst[40:48], uint64(tick.AskPrice))
	binary.LittleEndian.PutUint64(dst[48:56], uint64(tick.AskSize))

	return dst
}

// DecodeTick parses a fixed-size tick payload.
func DecodeTick(src []byte) (schema.TickRecord, bool) {
	if len(src) < TickPayloadSize {
		return schema.TickRecord{}, false
	}
	return schema.TickRecord{
		RunID:     binary.LittleEndian.Uint64(src[0:8]),
		Iteration: binary.LittleEndian.Uint32(src[8:12]),
		Flags:     binary.LittleEndian.Uint16(src[12:14]),
		Reserved:  binary.LittleEndian.Uint16(src[14:16]),
		Signal:    model.Price(int64(binary.LittleEndian.Uint64(src[16:24]))),
		BidPrice:  model.Price(int64(binary.LittleEndian.Uint64(src[24:32]))),
		BidSize:   model.Quantity(int64(binary.LittleEndian.Uint64(src[32:40]))),
		AskPrice:  model.Price(int64(binary.LittleEndian.Uint64(src[40:48]))),
		AskSize:   model.Quantity(int64(binary.LittleEndian.Uint64(src[48:56]))),
	}, true
}
