package serial

import (
	"errors"
	"fmt"
	"io"
	"time"
)

// Common errors
var (
	ErrTimeout = errors.New("serial: operation timed out")
	ErrClosed  = errors.New("serial: port closed")
)

// Port represents a serial port interface
// This abstraction allows for different implementations:
// - Native serial (using github.com/tarm/serial)
// - In-memory pipes (for testing)
//
// Read must return (0, nil) or (0, io.EOF) once its read timeout expires
// with nothing received. The transport discards stale input by reading it,
// so a Port never needs to flush and must not drop queued output.
type Port interface {
	io.ReadWriteCloser
}

// Config holds serial port configuration
type Config struct {
	// Device path (e.g., "/dev/ttyUSB0", "COM3")
	Device string

	// Baud rate (the iMC ships configured for 19200)
	Baud int

	// Poll interval for a single Read call. Transactions loop over reads
	// until their own timeout, so this only bounds how late a timeout fires.
	ReadTimeout time.Duration
}

// DefaultConfig returns a default configuration for an iMC controller
func DefaultConfig(device string) *Config {
	return &Config{
		Device:      device,
		Baud:        19200,
		ReadTimeout: 50 * time.Millisecond,
	}
}

// EOMReason tells why a read stopped
type EOMReason int

const (
	EOMNone  EOMReason = iota // read did not complete
	EOMEnd                    // terminator seen
	EOMCount                  // response buffer filled before a terminator
)

func (r EOMReason) String() string {
	switch r {
	case EOMEnd:
		return "end"
	case EOMCount:
		return "count"
	}
	return "none"
}

// TransportError is a write, read or timeout failure on the port
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("serial %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}
