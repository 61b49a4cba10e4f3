package replay

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/dshills/keyweave/internal/engine"
	"github.com/dshills/keyweave/internal/keyboard"
	"github.com/dshills/keyweave/internal/logging"
)

const (
	// DefaultHeartbeat is the scan interval between ticks.
	DefaultHeartbeat = time.Millisecond

	// DefaultSettle is how long the driver keeps ticking after the last
	// step so pending resolutions can finish.
	DefaultSettle = time.Second
)

// Target receives scripted input.
type Target interface {
	Process(ev keyboard.Event)
	Tick(now time.Duration)
	Encoder(index int, clockwise bool)
	DipSwitch(index int, active bool)
}

var _ Target = (*engine.Engine)(nil)

// Result summarizes a run.
type Result struct {
	Steps int
	Ticks int

	// End is the time of the final tick.
	End time.Duration
}

// Driver feeds a script to a Target on a fixed-rate heartbeat. Time is
// simulated unless pacing is enabled.
type Driver struct {
	heartbeat time.Duration
	settle    time.Duration
	pace      bool
	log       *logrus.Entry
}

// Option configures a Driver.
type Option func(*Driver)

// WithHeartbeat sets the tick interval. Non-positive values are ignored.
func WithHeartbeat(d time.Duration) Option {
	return func(dr *Driver) {
		if d > 0 {
			dr.heartbeat = d
		}
	}
}

// WithSettle sets how long to keep ticking after the last step.
func WithSettle(d time.Duration) Option {
	return func(dr *Driver) {
		if d >= 0 {
			dr.settle = d
		}
	}
}

// WithPacing makes each tick wait for the wall clock.
func WithPacing(enabled bool) Option {
	return func(dr *Driver) {
		dr.pace = enabled
	}
}

// WithLogger sets the logger.
func WithLogger(log *logrus.Entry) Option {
	return func(dr *Driver) {
		dr.log = log
	}
}

// NewDriver creates a driver.
func NewDriver(opts ...Option) *Driver {
	d := &Driver{
		heartbeat: DefaultHeartbeat,
		settle:    DefaultSettle,
	}
	for _, opt := range opts {
		opt(d)
	}
	d.log = logging.WithComponent(d.log, "replay")
	return d
}

// Run plays s into t. It stops early with ctx's error if ctx is done.
func (d *Driver) Run(ctx context.Context, t Target, s *Script) (Result, error) {
	var (
		res    Result
		ticker *time.Ticker
	)
	if d.pace {
		ticker = time.NewTicker(d.heartbeat)
		defer ticker.Stop()
	}

	now := time.Duration(0)
	advance := func(to time.Duration) error {
		for now+d.heartbeat <= to {
			if ticker != nil {
				select {
				case <-ctx.Done():
					return ctx.Err()
				case <-ticker.C:
				}
			} else if err := ctx.Err(); err != nil {
				return err
			}
			now += d.heartbeat
			t.Tick(now)
			res.Ticks++
		}
		return nil
	}

	d.log.WithFields(logrus.Fields{
		"script":    s.Name,
		"steps":     len(s.Steps),
		"heartbeat": d.heartbeat,
	}).Debug("replay started")

	for _, step := range s.Steps {
		if err := advance(step.At); err != nil {
			res.End = now
			return res, err
		}
		d.log.WithField("step", step.String()).Trace("step")

		switch step.Kind {
		case KeyDown:
			t.Process(keyboard.Press(step.Pos, step.At))
		case KeyUp:
			t.Process(keyboard.Release(step.Pos, step.At))
		case EncoderTurn:
			t.Encoder(step.Index, step.On)
		case DipSwitch:
			t.DipSwitch(step.Index, step.On)
		}
		res.Steps++
	}

	err := advance(s.Duration() + d.settle)
	res.End = now
	d.log.WithFields(logrus.Fields{
		"steps": res.Steps,
		"ticks": res.Ticks,
		"end":   res.End,
	}).Debug("replay finished")
	return res, err
}
