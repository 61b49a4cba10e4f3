// Package leader collects the keys typed after a leader key and fires the
// action of the first matching pattern.
package leader

import (
	"slices"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/dshills/keyweave/internal/keyboard"
	"github.com/dshills/keyweave/internal/keycode"
	"github.com/dshills/keyweave/internal/logging"
)

// Defaults
const (
	DefaultTimeout   = 300 * time.Millisecond
	DefaultMaxLength = 3
)

// Action is what a matched pattern does.
type Action struct {
	// Taps are tapped in order.
	Taps []keycode.Keycode

	// OneShot is armed as one-shot modifiers.
	OneShot keycode.Mod

	// Text is typed as a literal string.
	Text string
}

// Pattern binds a key sequence to an action.
type Pattern struct {
	Name string
	Keys []keycode.Usage

	// AnyOrder matches the keys as a multiset.
	AnyOrder bool

	Action Action
}

// Matches reports whether keys satisfy the pattern.
func (p Pattern) Matches(keys []keycode.Usage) bool {
	if len(keys) != len(p.Keys) {
		return false
	}
	if !p.AnyOrder {
		return slices.Equal(keys, p.Keys)
	}
	a, b := slices.Clone(keys), slices.Clone(p.Keys)
	slices.Sort(a)
	slices.Sort(b)
	return slices.Equal(a, b)
}

// Config tunes a leader session.
type Config struct {
	Timeout time.Duration

	// PerKeyTiming restarts the timeout after every captured key.
	PerKeyTiming bool

	MaxLength int
}

// FireFunc performs a matched action.
type FireFunc func(p Pattern)

// Engine is the leader stage.
type Engine struct {
	patterns []Pattern
	cfg      Config
	next     keyboard.Handler
	fire     FireFunc
	log      *logrus.Entry

	active   bool
	keys     []keycode.Usage
	deadline time.Duration

	// swallow holds positions whose release must not reach later stages.
	swallow map[keyboard.Position]bool
}

// New creates a leader engine. Zero config values use the defaults.
func New(patterns []Pattern, cfg Config, next keyboard.Handler, fire FireFunc, log *logrus.Entry) *Engine {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.MaxLength <= 0 {
		cfg.MaxLength = DefaultMaxLength
	}
	return &Engine{
		patterns: patterns,
		cfg:      cfg,
		next:     next,
		fire:     fire,
		log:      logging.WithComponent(log, "leader"),
		swallow:  make(map[keyboard.Position]bool),
	}
}

// Active returns true while a sequence is being collected.
func (e *Engine) Active() bool {
	return e.active
}

// Process handles one record from the previous stage.
func (e *Engine) Process(rec keyboard.Record) {
	e.Tick(rec.Time)

	if !rec.Pressed {
		if e.swallow[rec.Pos] {
			delete(e.swallow, rec.Pos)
			return
		}
		e.next(rec)
		return
	}

	if rec.Keycode.Kind == keycode.KindLeader {
		if e.active {
			e.finish()
		}
		e.start(rec)
		return
	}

	if !e.active {
		e.next(rec)
		return
	}

	u, ok := identity(rec)
	if !ok {
		e.next(rec)
		return
	}
	e.keys = append(e.keys, u)
	e.swallow[rec.Pos] = true
	if e.cfg.PerKeyTiming {
		e.deadline = rec.Time + e.cfg.Timeout
	}
	if len(e.keys) >= e.cfg.MaxLength {
		e.finish()
	}
}

// Tick ends the session once its deadline has passed.
func (e *Engine) Tick(now time.Duration) {
	if e.active && now >= e.deadline {
		e.finish()
	}
}

// Reset ends the session without matching.
func (e *Engine) Reset() {
	e.active = false
	e.keys = nil
}

func (e *Engine) start(rec keyboard.Record) {
	e.active = true
	e.keys = nil
	e.deadline = rec.Time + e.cfg.Timeout
	e.swallow[rec.Pos] = true
	e.log.Debug("start")
}

// finish ends the session and fires the first matching pattern.
func (e *Engine) finish() {
	keys := e.keys
	e.Reset()

	for _, p := range e.patterns {
		if p.Matches(keys) {
			e.log.WithField("pattern", p.Name).Debug("matched")
			if e.fire != nil {
				e.fire(p)
			}
			return
		}
	}
	e.log.WithField("keys", len(keys)).Debug("no match")
}

// identity returns the usage a captured press contributes to the sequence.
// Modifiers and held dual-role keys are not captured.
func identity(rec keyboard.Record) (keycode.Usage, bool) {
	kc := rec.Keycode
	switch {
	case kc.Kind == keycode.KindBasic && !kc.Code.IsModifier() && kc.Code != keycode.UsageNone:
		return kc.Code, true
	case kc.IsTapHold() && rec.Tapped() && kc.Code != keycode.UsageNone:
		return kc.Code, true
	}
	return keycode.UsageNone, false
}
