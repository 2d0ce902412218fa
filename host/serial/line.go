package serial

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"time"
)

// MaxResponse bounds a single response; iMC replies are at most a few dozen bytes
const MaxResponse = 256

// maxDiscard bounds how much stale input one WriteRead throws away
const maxDiscard = 4 * MaxResponse

// LineTransport exchanges carriage-return terminated messages over a Port
type LineTransport struct {
	mu   sync.Mutex
	port Port
	rx   *fifo
	term byte

	// Used by tests to avoid depending on wall-clock time
	now func() time.Time
}

// NewLineTransport creates a transport using '\r' as the terminator both ways
func NewLineTransport(port Port) *LineTransport {
	return &LineTransport{
		port: port,
		rx:   newFifo(MaxResponse),
		term: '\r',
		now:  time.Now,
	}
}

// Write sends cmd followed by the terminator without waiting for a reply
func (t *LineTransport) Write(cmd []byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.write(cmd)
}

// WriteRead discards stale input, sends cmd and reads one response.
// The returned bytes never include the terminator.
func (t *LineTransport) WriteRead(cmd []byte, timeout time.Duration) ([]byte, EOMReason, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.discardInput(); err != nil {
		return nil, EOMNone, err
	}

	if err := t.write(cmd); err != nil {
		return nil, EOMNone, err
	}

	return t.readLine(timeout)
}

// Close closes the underlying port
func (t *LineTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.port.Close()
}

func (t *LineTransport) write(cmd []byte) error {
	msg := make([]byte, 0, len(cmd)+1)
	msg = append(msg, cmd...)
	msg = append(msg, t.term)

	n, err := t.port.Write(msg)
	if err != nil {
		return &TransportError{Op: "write", Err: mapClosed(err)}
	}
	if n != len(msg) {
		return &TransportError{Op: "write", Err: fmt.Errorf("incomplete write: %d/%d bytes", n, len(msg))}
	}
	return nil
}

// discardInput reads and drops whatever is already waiting on the line, such
// as the late reply to a write-only motion command. Pending output is never
// touched, so a command written just before still reaches the controller
// ahead of the next one.
func (t *LineTransport) discardInput() error {
	t.rx.Reset()
	chunk := make([]byte, 64)

	for discarded := 0; discarded < maxDiscard; {
		n, err := t.port.Read(chunk)
		discarded += n
		if err != nil && !errors.Is(err, io.EOF) {
			return &TransportError{Op: "read", Err: mapClosed(err)}
		}
		if n == 0 {
			return nil
		}
	}
	return nil
}

func (t *LineTransport) readLine(timeout time.Duration) ([]byte, EOMReason, error) {
	deadline := t.now().Add(timeout)
	chunk := make([]byte, 64)

	for {
		if line, ok := t.rx.Line(t.term); ok {
			return line, EOMEnd, nil
		}
		if t.rx.Full() {
			return t.rx.Drain(), EOMCount, nil
		}
		if !t.now().Before(deadline) {
			return nil, EOMNone, &TransportError{Op: "read", Err: fmt.Errorf("%w after %v", ErrTimeout, timeout)}
		}

		n, err := t.port.Read(chunk)
		if n > 0 {
			if w := t.rx.Write(chunk[:n]); w < n {
				// Overflow, hand back what fit
				return t.rx.Drain(), EOMCount, nil
			}
		}
		if err != nil && !errors.Is(err, io.EOF) {
			return nil, EOMNone, &TransportError{Op: "read", Err: mapClosed(err)}
		}
		// tarm/serial reports an expired per-read timeout as (0, io.EOF)
	}
}

func mapClosed(err error) error {
	if errors.Is(err, io.ErrClosedPipe) {
		return ErrClosed
	}
	return err
}
