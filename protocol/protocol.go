// Package protocol implements the Isel iMC ASCII command protocol
package protocol

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Version represents the driver version
const Version = "0.1.0"

// Protocol constants
const (
	CommandPrefix = "@0" // Every command is addressed to controller 0

	Handshake = '0' // Leading "no-data"/ok character on responses

	MaxAxes = 4

	// Position record layout
	PositionFieldWidth = 6
	PositionRecordLen  = PositionFieldWidth * MaxAxes // 24

	// Responses longer than this are passed through untouched
	UnwrapPassThroughLen = 27

	// Placeholder displacement/velocity for channels a move leaves alone
	PlaceholderDisplacement = 0
	PlaceholderVelocity     = 500
)

var (
	// ErrInvalidCommand is returned before any I/O when a command cannot be built
	ErrInvalidCommand = errors.New("invalid command")

	// ErrDecode is returned when a position payload is malformed
	ErrDecode = errors.New("decode error")
)

// AxisID identifies one of the four controller channels
type AxisID int

const (
	AxisX AxisID = iota
	AxisY
	AxisZ
	AxisA
)

var axisNames = [MaxAxes]string{"X", "Y", "Z", "A"}

// Axes lists all channels in wire order
var Axes = [MaxAxes]AxisID{AxisX, AxisY, AxisZ, AxisA}

// Valid reports whether a is one of X, Y, Z, A
func (a AxisID) Valid() bool {
	return a >= AxisX && a <= AxisA
}

// Index returns the 1-based protocol index
func (a AxisID) Index() int {
	return int(a) + 1
}

func (a AxisID) String() string {
	if !a.Valid() {
		return fmt.Sprintf("axis(%d)", int(a))
	}
	return axisNames[a]
}

// ParseAxis accepts an axis letter (x, Y, ...) or a 1-based index
func ParseAxis(s string) (AxisID, error) {
	s = strings.TrimSpace(s)
	for i, name := range axisNames {
		if strings.EqualFold(s, name) {
			return AxisID(i), nil
		}
	}
	if n, err := strconv.Atoi(s); err == nil && n >= 1 && n <= MaxAxes {
		return AxisID(n - 1), nil
	}
	return 0, fmt.Errorf("%w: unknown axis %q", ErrInvalidCommand, s)
}
