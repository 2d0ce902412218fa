package protocol

import (
	"fmt"
	"strconv"
	"strings"
)

// PositionRecord holds one poll's raw positions in X,Y,Z,A order
type PositionRecord [MaxAxes]int32

const positionFieldMask = 1<<(4*PositionFieldWidth) - 1

// DecodePositions parses a 24 character payload of four 6-digit hex fields.
// Fields are unsigned, there is no sign on the wire.
func DecodePositions(payload string) (PositionRecord, error) {
	var rec PositionRecord

	if len(payload) != PositionRecordLen {
		return rec, fmt.Errorf("%w: position payload length %d, want %d", ErrDecode, len(payload), PositionRecordLen)
	}

	for i := range rec {
		field := payload[i*PositionFieldWidth : (i+1)*PositionFieldWidth]
		v, err := strconv.ParseUint(field, 16, 32)
		if err != nil {
			return PositionRecord{}, fmt.Errorf("%w: axis %v field %q: %v", ErrDecode, AxisID(i), field, err)
		}
		rec[i] = int32(v)
	}

	return rec, nil
}

// EncodePositions renders a record the way the controller reports it.
// Each value is truncated to its low 24 bits.
func EncodePositions(rec PositionRecord) string {
	var sb strings.Builder
	sb.Grow(PositionRecordLen)
	for _, v := range rec {
		fmt.Fprintf(&sb, "%06X", uint32(v)&positionFieldMask)
	}
	return sb.String()
}
