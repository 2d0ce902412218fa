package imc

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"imcmotor/host/observability"
)

// DefaultForcedFastPolls is how many moving-rate polls follow a Wake
const DefaultForcedFastPolls = 2

// Poller calls Controller.Poll and then every axis Poll once per cycle,
// at the moving period while any axis moves and the idle period otherwise.
type Poller struct {
	c               *Controller
	log             zerolog.Logger
	forcedFastPolls int
	wake            chan struct{}

	// after is time.After; tests replace it
	after func(time.Duration) <-chan time.Time
}

// NewPoller creates a poller for c
func NewPoller(c *Controller, logger zerolog.Logger) *Poller {
	return &Poller{
		c:               c,
		log:             logger,
		forcedFastPolls: DefaultForcedFastPolls,
		wake:            make(chan struct{}, 1),
		after:           time.After,
	}
}

// Wake ends the current wait early and forces a few fast polls. Call it
// after issuing a move or home.
func (p *Poller) Wake() {
	select {
	case p.wake <- struct{}{}:
	default:
	}
}

// Cycle runs one poll cycle and reports whether any axis is moving
func (p *Poller) Cycle() (bool, error) {
	if err := p.c.Poll(); err != nil {
		return p.c.AnyMoving(), err
	}

	anyMoving := false
	for _, a := range p.c.Axes() {
		moving, pos := a.Poll()
		observability.SetAxisState(p.c.cfg.Name, a.ID().String(), pos, moving)
		if moving {
			anyMoving = true
		}
	}
	return anyMoving, nil
}

// Run polls until ctx is cancelled
func (p *Poller) Run(ctx context.Context) error {
	forced := 0

	for {
		moving, err := p.Cycle()
		if err != nil {
			p.log.Error().Err(err).Msg("poll failed")
		}

		period := p.c.cfg.IdlePollPeriod
		if moving || forced > 0 {
			period = p.c.cfg.MovingPollPeriod
			if forced > 0 {
				forced--
			}
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-p.wake:
			forced = p.forcedFastPolls
		case <-p.after(period):
		}
	}
}
