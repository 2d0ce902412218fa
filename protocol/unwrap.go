package protocol

// UnwrapBranch records which rule Unwrap applied
type UnwrapBranch int

const (
	UnwrapNone        UnwrapBranch = iota // no handshake, unchanged
	UnwrapPassThrough                     // handshake and too long, unchanged
	UnwrapTail                            // handshake with leading garbage, last 24 kept
	UnwrapStrip                           // handshake dropped
)

func (b UnwrapBranch) String() string {
	switch b {
	case UnwrapNone:
		return "none"
	case UnwrapPassThrough:
		return "pass-through"
	case UnwrapTail:
		return "tail"
	case UnwrapStrip:
		return "strip"
	}
	return "unknown"
}

// Unwrap recovers the payload from a raw response
func Unwrap(raw string) string {
	s, _ := UnwrapWithBranch(raw)
	return s
}

// UnwrapWithBranch is Unwrap that also reports the rule applied.
//
// Responses starting with the handshake are cut as follows:
//   - longer than 27: returned unchanged (no known layout, not trimmed)
//   - 25 or 26: only the trailing 24 characters are kept
//   - anything else, including exactly 27: the handshake is dropped
func UnwrapWithBranch(raw string) (string, UnwrapBranch) {
	if len(raw) == 0 || raw[0] != Handshake {
		return raw, UnwrapNone
	}

	n := len(raw)
	switch {
	case n > UnwrapPassThroughLen:
		return raw, UnwrapPassThrough
	case n > PositionRecordLen && n < UnwrapPassThroughLen:
		return raw[n-PositionRecordLen:], UnwrapTail
	default:
		return raw[1:], UnwrapStrip
	}
}
