// Package imc drives an Isel iMC stepper controller: it owns the serial
// channel and the per-axis state shared by the axis handles.
package imc

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"imcmotor/host/observability"
	"imcmotor/protocol"
)

// Config is fixed for the lifetime of a Controller
type Config struct {
	// Port name used in reports and metric labels
	Name string

	// Number of axes, 1..4, starting at X
	NumAxes int

	// Poll cadence while any axis moves, and while all are idle
	MovingPollPeriod time.Duration
	IdlePollPeriod   time.Duration

	// Timeout of one write-then-read exchange
	Timeout time.Duration

	// Duration of one travel time unit; a move of d steps at v steps per
	// unit blocks for |d|/|v| units
	TravelUnit time.Duration
}

// DefaultConfig returns a Config for numAxes axes
func DefaultConfig(name string, numAxes int) Config {
	return Config{
		Name:             name,
		NumAxes:          numAxes,
		MovingPollPeriod: 100 * time.Millisecond,
		IdlePollPeriod:   time.Second,
		Timeout:          2 * time.Second,
		TravelUnit:       time.Second,
	}
}

// Controller represents one iMC controller and its axes
type Controller struct {
	// Serialises wire transactions and table updates
	mu sync.Mutex

	cfg     Config
	channel *Channel
	table   Table
	axes    []*Axis

	log   zerolog.Logger
	sleep func(time.Duration)
}

// NewController creates a controller on transport. No I/O is done until Init.
func NewController(transport LineTransport, cfg Config) (*Controller, error) {
	if transport == nil {
		return nil, errors.New("transport cannot be nil")
	}
	if cfg.NumAxes < 1 || cfg.NumAxes > protocol.MaxAxes {
		return nil, fmt.Errorf("%w: axis count %d out of range 1..%d", protocol.ErrInvalidCommand, cfg.NumAxes, protocol.MaxAxes)
	}
	if cfg.Timeout <= 0 {
		return nil, fmt.Errorf("timeout must be positive, got %v", cfg.Timeout)
	}

	c := &Controller{
		cfg:   cfg,
		log:   zerolog.Nop(),
		sleep: time.Sleep,
	}
	c.channel = NewChannel(transport, c.log)

	for i := 0; i < cfg.NumAxes; i++ {
		c.axes = append(c.axes, &Axis{c: c, id: protocol.AxisID(i)})
	}

	return c, nil
}

// SetLogger replaces the controller's logger
func (c *Controller) SetLogger(logger zerolog.Logger) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.log = logger.With().Str("controller", c.cfg.Name).Logger()
	c.channel.log = c.log
}

// Config returns the controller configuration
func (c *Controller) Config() Config {
	return c.cfg
}

// Init flushes the line, enables the configured axes and sends the fixed
// limit-switch and direction setup.
func (c *Controller) Init() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	// Clears anything the controller still has buffered
	if _, err := c.channel.Transact(protocol.FlushCommand, c.cfg.Timeout); err != nil {
		c.log.Debug().Err(err).Msg("flush got no reply")
	}

	enable, err := protocol.EncodeInit(c.cfg.NumAxes)
	if err != nil {
		return err
	}

	for _, cmd := range append(enable, protocol.SetupCommands()...) {
		if _, err := c.transact(observability.KindSetup, cmd); err != nil {
			return fmt.Errorf("init %s: command %q: %w", c.cfg.Name, cmd, err)
		}
	}

	c.log.Info().Int("axes", c.cfg.NumAxes).Msg("controller initialised")
	return nil
}

// Poll reads the positions of all axes. A reply that does not decode keeps
// the previous state and is not an error; a transport failure is.
func (c *Controller) Poll() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	payload, err := c.transact(observability.KindQuery, protocol.EncodePositionQuery())
	if err != nil {
		return fmt.Errorf("poll %s: %w", c.cfg.Name, err)
	}

	rec, err := protocol.DecodePositions(payload)
	if err != nil {
		c.log.Debug().Err(err).Str("payload", payload).Msg("position reply skipped")
		observability.RecordDecodeSkip(c.cfg.Name)
		return nil
	}

	// Completion is inferred, the controller reports no motion status
	c.table.Apply(rec)
	return nil
}

// Axis returns the handle for id
func (c *Controller) Axis(id protocol.AxisID) (*Axis, error) {
	if !id.Valid() || int(id) >= len(c.axes) {
		return nil, fmt.Errorf("%w: axis %v not configured (%d axes)", protocol.ErrInvalidCommand, id, len(c.axes))
	}
	return c.axes[id], nil
}

// Axes returns all configured axis handles in X,Y,Z,A order
func (c *Controller) Axes() []*Axis {
	return append([]*Axis(nil), c.axes...)
}

// AnyMoving reports whether a configured axis is flagged as moving
func (c *Controller) AnyMoving() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.table.AnyMoving(c.cfg.NumAxes)
}

// Raw sends an arbitrary command and returns the unwrapped reply
func (c *Controller) Raw(cmd string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.transact(observability.KindRaw, cmd)
}

// Report writes the driver status; level > 0 adds one line per axis
func (c *Controller) Report(w io.Writer, level int) {
	c.mu.Lock()
	states := c.table.Snapshot()
	c.mu.Unlock()

	fmt.Fprintf(w, "iMC motor driver\n")
	fmt.Fprintf(w, "  port name=%s\n", c.cfg.Name)
	fmt.Fprintf(w, "  moving poll period=%f\n", c.cfg.MovingPollPeriod.Seconds())
	fmt.Fprintf(w, "  idle poll period=%f\n", c.cfg.IdlePollPeriod.Seconds())
	fmt.Fprintf(w, "  axes=%d\n", c.cfg.NumAxes)

	if level > 0 {
		for _, a := range c.axes {
			s := states[a.id]
			fmt.Fprintf(w, "  axis %d (%v) position=%d moving=%t\n", a.id.Index(), a.id, s.Position, s.Moving)
		}
	}
}

// transact and send must be called with c.mu held

func (c *Controller) transact(kind, cmd string) (string, error) {
	payload, err := c.channel.Transact(cmd, c.cfg.Timeout)
	observability.RecordTransaction(c.cfg.Name, kind, err)
	return payload, err
}

func (c *Controller) send(kind, cmd string) error {
	err := c.channel.Send(cmd)
	observability.RecordTransaction(c.cfg.Name, kind, err)
	return err
}
