// Package codec serializes schema payloads into fixed-size
// little-endian buffers for the journal.
package codec

import (
	"encoding/binary"

	"main/internal/model"
	"main/internal/schema"
)

const FillPayloadSize = 32

// EncodeFill serializes a fill record into a fixed-size payload.
func EncodeFill(dst []byte, fill schema.FillRecord) []byte {
	if cap(dst) < FillPayloadSize {
		dst = make([]byte, FillPayloadSize)
	} else {
		dst = dst[:FillPayloadSize]
	}

	binary.LittleEndian.PutUint64(dst[0:8], fill.RunID)
	binary.LittleEndian.PutUint32(dst[8:12], fill.ParticipantID)
	binary.LittleEndian.PutUint16(dst[12:14], uint16(fill.Side))
	binary.LittleEndian.PutUint16(dst[14:16], fill.Flags)
	binary.LittleEndian.PutUint64(dst[16:24], uint64(fill.Price))
	binary.LittleEndian.PutUint64(dst[24:32], uint64(fill.Qty))

	return dst
}

// DecodeFill parses a fixed-size fill payload.
func DecodeFill(src []byte) (schema.FillRecord, bool) {
	if len(src) < FillPayloadSize {
		return schema.FillRecord{}, false
	}
	return schema.FillRecord{
		RunID:         binary.LittleEndian.Uint64(src[0:8]),
		ParticipantID: binary.LittleEndian.Uint32(src[8:12]),
		Side:          model.Side(binary.LittleEndian.Uint16(src[12:14])),
		Flags:         binary.LittleEndian.Uint16(src[14:16]),
		Price:         model.Price(int64(binary.LittleEndian.Uint64(src[16:24]))),
		Qty:           model.Quantity(int64(binary.LittleEndian.Uint64(src[24:32]))),
	}, true
}
