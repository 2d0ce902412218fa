package imc

import (
	"fmt"
	"math"
	"time"

	"imcmotor/host/observability"
	"imcmotor/protocol"
)

// Axis is a handle on one slot of its controller's state table
type Axis struct {
	c  *Controller
	id protocol.AxisID
}

// ID returns the channel this axis drives
func (a *Axis) ID() protocol.AxisID {
	return a.id
}

// Move drives the axis to an absolute target. The controller only takes
// relative moves, so the displacement is taken from the cached position.
// Only maxVelocity is used. Move blocks for the estimated travel time since
// the controller gives no completion signal; the next poll resynchronises.
func (a *Axis) Move(target, minVelocity, maxVelocity, acceleration float64) error {
	velocity, err := nint(maxVelocity)
	if err != nil {
		return fmt.Errorf("move axis %v: velocity: %w", a.id, err)
	}
	if velocity == 0 {
		return fmt.Errorf("move axis %v: %w: velocity must be non-zero", a.id, protocol.ErrInvalidCommand)
	}

	c := a.c
	c.mu.Lock()
	defer c.mu.Unlock()

	displacement, err := nint(target - float64(c.table.Get(a.id).Position))
	if err != nil {
		return fmt.Errorf("move axis %v: displacement: %w", a.id, err)
	}

	cmd, err := protocol.EncodeMove(a.id, displacement, velocity)
	if err != nil {
		return err
	}

	if err := c.send(observability.KindMotion, cmd); err != nil {
		return fmt.Errorf("move axis %v: %w", a.id, err)
	}
	c.table.SetMoving(a.id, true)

	wait := travelTime(displacement, velocity, c.cfg.TravelUnit)
	c.log.Debug().
		Stringer("axis", a.id).
		Int32("displacement", displacement).
		Int32("velocity", velocity).
		Dur("wait", wait).
		Msg("move issued")

	// The controller will not answer until the move is over
	c.sleep(wait)
	return nil
}

// Home starts a reference run. The controller homes at its own configured
// speed and direction, so the arguments are accepted for interface
// compatibility and ignored.
func (a *Axis) Home(minVelocity, maxVelocity, acceleration float64, forward bool) error {
	cmd, err := protocol.EncodeHome(a.id)
	if err != nil {
		return err
	}

	c := a.c
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.send(observability.KindMotion, cmd); err != nil {
		return fmt.Errorf("home axis %v: %w", a.id, err)
	}
	c.table.SetMoving(a.id, true)

	c.log.Debug().Stringer("axis", a.id).Str("cmd", cmd).Msg("home issued")
	return nil
}

// Poll returns the cached state; it does no I/O
func (a *Axis) Poll() (moving bool, position float64) {
	a.c.mu.Lock()
	defer a.c.mu.Unlock()

	s := a.c.table.Get(a.id)
	return s.Moving, float64(s.Position)
}

// nint rounds half away from zero into the controller's int32 range
func nint(f float64) (int32, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("%w: %v is not a number", protocol.ErrInvalidCommand, f)
	}
	r := math.Round(f)
	if r > math.MaxInt32 || r < math.MinInt32 {
		return 0, fmt.Errorf("%w: %v out of range", protocol.ErrInvalidCommand, f)
	}
	return int32(r), nil
}

// travelTime is |displacement / velocity| whole units
func travelTime(displacement, velocity int32, unit time.Duration) time.Duration {
	units := int64(displacement) / int64(velocity)
	if units < 0 {
		units = -units
	}
	return time.Duration(units) * unit
}
