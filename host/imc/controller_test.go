package imc

import (
	"bytes"
	"errors"
	"reflect"
	"strings"
	"testing"

	"imcmotor/host/serial"
	"imcmotor/protocol"
)

func TestNewControllerValidation(t *testing.T) {
	ft := &fakeTransport{}

	for _, n := range []int{0, 5} {
		if _, err := NewController(ft, DefaultConfig("bad", n)); !errors.Is(err, protocol.ErrInvalidCommand) {
			t.Errorf("numAxes %d: expected ErrInvalidCommand, got %v", n, err)
		}
	}

	if _, err := NewController(nil, DefaultConfig("bad", 1)); err == nil {
		t.Error("Expected error for nil transport")
	}

	cfg := DefaultConfig("bad", 1)
	cfg.Timeout = 0
	if _, err := NewController(ft, cfg); err == nil {
		t.Error("Expected error for zero timeout")
	}
}

func TestInitSequence(t *testing.T) {
	testCases := []struct {
		numAxes int
		want    []string
	}{
		{1, []string{"", "@01", "@0IE57343", "@0ID13", "@0Ie9"}},
		{2, []string{"", "@03", "@0IE57343", "@0ID13", "@0Ie9"}},
		{3, []string{"", "@07", "@0IE57343", "@0ID13", "@0Ie9"}},
		{4, []string{"", "@07", "@08", "@0IE57343", "@0ID13", "@0Ie9"}},
	}

	for _, tc := range testCases {
		c, ft, _ := newTestController(t, tc.numAxes)
		if err := c.Init(); err != nil {
			t.Errorf("%d axes: Init failed: %v", tc.numAxes, err)
			continue
		}
		if !reflect.DeepEqual(ft.queried, tc.want) {
			t.Errorf("%d axes: expected %q, got %q", tc.numAxes, tc.want, ft.queried)
		}
	}
}

func TestInitTransportError(t *testing.T) {
	c, ft, _ := newTestController(t, 2)
	ft.readErr = &serial.TransportError{Op: "read", Err: serial.ErrTimeout}

	err := c.Init()
	if !errors.Is(err, serial.ErrTimeout) {
		t.Fatalf("Expected ErrTimeout, got %v", err)
	}
	// Flush failure is ignored, the first enable command fails
	if len(ft.queried) != 2 {
		t.Errorf("Expected 2 commands before failing, got %q", ft.queried)
	}
}

func TestPollDecodesPositions(t *testing.T) {
	c, ft, _ := newTestController(t, 2)
	c.table.SetMoving(protocol.AxisX, true)
	c.table.SetMoving(protocol.AxisY, true)

	ft.replies = []string{"0" + "0000C8" + "000000" + "000000" + "000000"}
	if err := c.Poll(); err != nil {
		t.Fatalf("Poll failed: %v", err)
	}

	if ft.queried[0] != "@0P" {
		t.Errorf("Expected @0P, got %q", ft.queried[0])
	}

	x, _ := c.Axis(protocol.AxisX)
	y, _ := c.Axis(protocol.AxisY)

	if moving, pos := x.Poll(); moving || pos != 200 {
		t.Errorf("Axis X: expected (false, 200), got (%v, %v)", moving, pos)
	}
	if moving, pos := y.Poll(); moving || pos != 0 {
		t.Errorf("Axis Y: expected (false, 0), got (%v, %v)", moving, pos)
	}
}

func TestPollStripsLeadingGarbage(t *testing.T) {
	c, ft, _ := newTestController(t, 4)

	want := protocol.PositionRecord{1, 2, 3, 4}
	// A late handshake from a previous move ahead of the payload
	ft.replies = []string{"00" + protocol.EncodePositions(want)}
	if err := c.Poll(); err != nil {
		t.Fatalf("Poll failed: %v", err)
	}

	for i, a := range c.Axes() {
		if _, pos := a.Poll(); pos != float64(want[i]) {
			t.Errorf("Axis %v: expected %d, got %v", a.ID(), want[i], pos)
		}
	}
}

func TestPollKeepsStateOnBadPayload(t *testing.T) {
	payloads := []string{
		"0",
		"0123",
		"0" + strings.Repeat("0", 22),
		"0GG" + strings.Repeat("0", 24),
		"0" + strings.Repeat("0", 29),
		"0" + strings.Repeat("Z", 24),
		strings.Repeat("1", 24) + "1",
	}

	for _, payload := range payloads {
		c, ft, _ := newTestController(t, 2)
		c.table.Apply(protocol.PositionRecord{10, 20, 30, 40})
		c.table.SetMoving(protocol.AxisY, true)
		before := c.table.Snapshot()

		ft.replies = []string{payload}
		if err := c.Poll(); err != nil {
			t.Errorf("%q: expected decode failure to be swallowed, got %v", payload, err)
		}
		if after := c.table.Snapshot(); after != before {
			t.Errorf("%q: state changed from %v to %v", payload, before, after)
		}
	}
}

func TestPollTransportError(t *testing.T) {
	c, ft, _ := newTestController(t, 1)
	c.table.Apply(protocol.PositionRecord{5, 0, 0, 0})
	c.table.SetMoving(protocol.AxisX, true)

	ft.readErr = &serial.TransportError{Op: "read", Err: serial.ErrTimeout}
	err := c.Poll()

	var te *serial.TransportError
	if !errors.As(err, &te) {
		t.Fatalf("Expected TransportError, got %v", err)
	}

	x, _ := c.Axis(protocol.AxisX)
	if moving, pos := x.Poll(); !moving || pos != 5 {
		t.Errorf("Expected stale (true, 5), got (%v, %v)", moving, pos)
	}
}

func TestAxisLookup(t *testing.T) {
	c, _, _ := newTestController(t, 2)

	if len(c.Axes()) != 2 {
		t.Fatalf("Expected 2 axes, got %d", len(c.Axes()))
	}
	axes := c.Axes()
	axes[0] = nil
	if c.Axes()[0] == nil {
		t.Error("Changing the returned slice must not change the controller's axes")
	}
	if _, err := c.Axis(protocol.AxisZ); !errors.Is(err, protocol.ErrInvalidCommand) {
		t.Errorf("Expected ErrInvalidCommand for Z on 2 axes, got %v", err)
	}
	a, err := c.Axis(protocol.AxisY)
	if err != nil || a.ID() != protocol.AxisY {
		t.Errorf("Expected axis Y, got %v (%v)", a, err)
	}
}

func TestRaw(t *testing.T) {
	c, ft, _ := newTestController(t, 1)
	ft.replies = []string{"0ABC"}

	resp, err := c.Raw("@0DRp")
	if err != nil {
		t.Fatalf("Raw failed: %v", err)
	}
	if resp != "ABC" {
		t.Errorf("Expected ABC, got %q", resp)
	}
}

func TestReport(t *testing.T) {
	c, _, _ := newTestController(t, 2)
	c.table.Apply(protocol.PositionRecord{200, 7, 0, 0})

	var buf bytes.Buffer
	c.Report(&buf, 0)
	out := buf.String()

	for _, want := range []string{
		"iMC motor driver",
		"port name=test",
		"moving poll period=0.100000",
		"idle poll period=1.000000",
		"axes=2",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("Report missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "axis 1") {
		t.Errorf("Level 0 report should not list axes:\n%s", out)
	}

	buf.Reset()
	c.Report(&buf, 1)
	if !strings.Contains(buf.String(), "axis 1 (X) position=200 moving=false") {
		t.Errorf("Level 1 report missing axis line:\n%s", buf.String())
	}
}
