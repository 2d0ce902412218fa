package protocol

import (
	"fmt"
	"strconv"
	"strings"
)

// Fixed setup commands issued once at controller start
const (
	CmdLimitConfig = CommandPrefix + "IE57343" // limit switches low-active and enabled
	CmdInvertX     = CommandPrefix + "ID13"    // invert X direction
	CmdSwapLimitsX = CommandPrefix + "Ie9"     // swap X limit switches
	CmdQuery       = CommandPrefix + "P"

	// FlushCommand is an empty line; the reply only clears stale input
	FlushCommand = ""
)

// enableMasks maps axis count to the enable command masks, in send order
var enableMasks = map[int][]int{
	1: {1},
	2: {3},
	3: {7},
	4: {7, 8},
}

// homeMasks is one bit per axis
var homeMasks = [MaxAxes]int{1, 2, 4, 8}

// EncodeInit returns the axis-enable command(s) for numAxes
func EncodeInit(numAxes int) ([]string, error) {
	masks, ok := enableMasks[numAxes]
	if !ok {
		return nil, fmt.Errorf("%w: axis count %d out of range 1..%d", ErrInvalidCommand, numAxes, MaxAxes)
	}

	cmds := make([]string, 0, len(masks))
	for _, mask := range masks {
		cmds = append(cmds, CommandPrefix+strconv.Itoa(mask))
	}
	return cmds, nil
}

// SetupCommands returns the controller-wide configuration sent after enable
func SetupCommands() []string {
	return []string{CmdLimitConfig, CmdInvertX, CmdSwapLimitsX}
}

// MoveSlot is one channel's displacement/velocity pair in a move command
type MoveSlot struct {
	Displacement int32
	Velocity     int32
}

// PlaceholderSlot leaves a channel stationary
var PlaceholderSlot = MoveSlot{Displacement: PlaceholderDisplacement, Velocity: PlaceholderVelocity}

// EncodeMove builds a relative move for one axis, the other three channels
// get the placeholder slot. Velocity is not checked here.
func EncodeMove(axis AxisID, displacement, velocity int32) (string, error) {
	if !axis.Valid() {
		return "", fmt.Errorf("%w: %v", ErrInvalidCommand, axis)
	}

	var slots [MaxAxes]MoveSlot
	for i := range slots {
		slots[i] = PlaceholderSlot
	}
	slots[axis] = MoveSlot{Displacement: displacement, Velocity: velocity}

	return EncodeMoveSlots(slots), nil
}

// EncodeMoveSlots renders all four channel slots in X,Y,Z,A order
func EncodeMoveSlots(slots [MaxAxes]MoveSlot) string {
	var sb strings.Builder
	sb.WriteString(CommandPrefix)
	sb.WriteString("A ")
	for i, s := range slots {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(strconv.FormatInt(int64(s.Displacement), 10))
		sb.WriteByte(',')
		sb.WriteString(strconv.FormatInt(int64(s.Velocity), 10))
	}
	return sb.String()
}

// HomeMask returns the reference-run bitmask for axis
func HomeMask(axis AxisID) (int, error) {
	if !axis.Valid() {
		return 0, fmt.Errorf("%w: %v", ErrInvalidCommand, axis)
	}
	return homeMasks[axis], nil
}

// EncodeHome builds the reference run command for axis
func EncodeHome(axis AxisID) (string, error) {
	mask, err := HomeMask(axis)
	if err != nil {
		return "", err
	}
	return CommandPrefix + "R" + strconv.Itoa(mask), nil
}

// EncodePositionQuery requests the positions of all axes
func EncodePositionQuery() string {
	return CmdQuery
}
