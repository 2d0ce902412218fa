package imc

import (
	"strings"
	"sync"
	"testing"
	"time"

	"imcmotor/host/serial"
	"imcmotor/protocol"
)

var idleReply = "0" + strings.Repeat("0", protocol.PositionRecordLen)

// fakeTransport records every command and answers WriteRead from a queue.
// An empty queue answers with all positions zero.
type fakeTransport struct {
	mu       sync.Mutex
	queried  []string
	written  []string
	replies  []string
	readErr  error
	writeErr error
}

func (f *fakeTransport) WriteRead(cmd []byte, timeout time.Duration) ([]byte, serial.EOMReason, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.queried = append(f.queried, string(cmd))
	if f.readErr != nil {
		return nil, serial.EOMNone, f.readErr
	}
	reply := idleReply
	if len(f.replies) > 0 {
		reply = f.replies[0]
		f.replies = f.replies[1:]
	}
	return []byte(reply), serial.EOMEnd, nil
}

func (f *fakeTransport) Write(cmd []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.writeErr != nil {
		return f.writeErr
	}
	f.written = append(f.written, string(cmd))
	return nil
}

func (f *fakeTransport) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.queried) + len(f.written)
}

// newTestController returns a controller whose travel waits are recorded
// instead of slept
func newTestController(t *testing.T, numAxes int) (*Controller, *fakeTransport, *[]time.Duration) {
	t.Helper()

	ft := &fakeTransport{}
	cfg := DefaultConfig("test", numAxes)
	c, err := NewController(ft, cfg)
	if err != nil {
		t.Fatalf("NewController failed: %v", err)
	}

	var waits []time.Duration
	c.sleep = func(d time.Duration) { waits = append(waits, d) }
	return c, ft, &waits
}

func positionReply(rec protocol.PositionRecord) string {
	return "0" + protocol.EncodePositions(rec)
}
