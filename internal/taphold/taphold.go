// Package taphold decides whether a dual-role key was tapped or held.
//
// While a dual-role key is pending, every later event is held back. Once
// the key resolves, the pending press is emitted with its resolution and
// the held-back events are looked up again and replayed, so a layer-tap
// hold applies to keys pressed during the pending window.
package taphold

import (
	"time"

	"github.com/sirupsen/logrus"

	"github.com/dshills/keyweave/internal/keyboard"
	"github.com/dshills/keyweave/internal/logging"
)

// DefaultTerm is the tapping term used when no policy overrides it.
const DefaultTerm = 190 * time.Millisecond

// Policy controls how one dual-role key resolves.
type Policy struct {
	// Term is how long the key must be held to resolve as hold.
	Term time.Duration

	// HoldOnOtherKeyPress resolves as hold as soon as another key is
	// pressed while pending.
	HoldOnOtherKeyPress bool

	// PermissiveHold resolves as hold when another key is pressed and
	// released while pending.
	PermissiveHold bool

	// QuickTapTerm lets a re-press within this window after a tap resolve
	// as tap immediately. Zero always allows hold.
	QuickTapTerm time.Duration
}

// DefaultPolicy is the global policy.
var DefaultPolicy = Policy{Term: DefaultTerm, PermissiveHold: true}

// PolicyFunc returns the policy for a dual-role press.
type PolicyFunc func(rec keyboard.Record) Policy

// LookupFunc resolves an event to a record against the current layer state.
type LookupFunc func(ev keyboard.Event) keyboard.Record

type pending struct {
	rec    keyboard.Record
	policy Policy

	// downBefore holds keys already down when the key became pending.
	downBefore map[keyboard.Position]bool

	// pressedDuring holds keys pressed while pending.
	pressedDuring map[keyboard.Position]bool
}

type lastTap struct {
	pos   keyboard.Position
	at    time.Duration
	count int
	valid bool
}

// Resolver is the tap-hold stage.
type Resolver struct {
	policy PolicyFunc
	lookup LookupFunc
	next   keyboard.Handler
	log    *logrus.Entry

	pending  *pending
	buffer   []keyboard.Event
	down     map[keyboard.Position]bool
	resolved map[keyboard.Position]keyboard.TapInfo
	last     lastTap
}

// New creates a resolver. A nil policy uses DefaultPolicy for every key.
func New(policy PolicyFunc, lookup LookupFunc, next keyboard.Handler, log *logrus.Entry) *Resolver {
	if policy == nil {
		policy = func(keyboard.Record) Policy { return DefaultPolicy }
	}
	return &Resolver{
		policy:   policy,
		lookup:   lookup,
		next:     next,
		log:      logging.WithComponent(log, "taphold"),
		down:     make(map[keyboard.Position]bool),
		resolved: make(map[keyboard.Position]keyboard.TapInfo),
	}
}

// Pending returns true while a dual-role key is undecided.
func (r *Resolver) Pending() bool {
	return r.pending != nil
}

// Process handles one physical event.
func (r *Resolver) Process(ev keyboard.Event) {
	r.Tick(ev.Time)

	if r.pending != nil {
		r.interrupt(ev)
		return
	}
	r.handle(r.lookup(ev))
}

// Tick resolves a pending key as hold once its term has elapsed.
func (r *Resolver) Tick(now time.Duration) {
	for r.pending != nil && now-r.pending.rec.Time >= r.pending.policy.Term {
		r.log.WithField("pos", r.pending.rec.Pos.String()).Debug("term elapsed")
		r.decide(keyboard.Held, now)
	}
}

// Reset drops the pending key and every held-back event without emitting
// anything.
func (r *Resolver) Reset() {
	r.pending = nil
	r.buffer = nil
	r.last = lastTap{}
}

func (r *Resolver) handle(rec keyboard.Record) {
	if rec.Pressed && rec.Keycode.IsTapHold() {
		policy := r.policy(rec)
		if r.quickTap(rec, policy) {
			return
		}
		r.pending = &pending{
			rec:           rec,
			policy:        policy,
			downBefore:    copyPositions(r.down),
			pressedDuring: make(map[keyboard.Position]bool),
		}
		r.down[rec.Pos] = true
		return
	}
	r.emit(rec)
}

// quickTap resolves a re-press within the quick-tap term as tap.
func (r *Resolver) quickTap(rec keyboard.Record, policy Policy) bool {
	if policy.QuickTapTerm <= 0 || !r.last.valid || r.last.pos != rec.Pos {
		return false
	}
	if rec.Time-r.last.at >= policy.QuickTapTerm {
		return false
	}

	rec.Tap = keyboard.TapInfo{Resolution: keyboard.Tapped, Count: r.last.count + 1}
	r.last = lastTap{pos: rec.Pos, at: rec.Time, count: rec.Tap.Count, valid: true}
	r.emit(rec)
	return true
}

// interrupt handles an event that arrives while a key is pending.
func (r *Resolver) interrupt(ev keyboard.Event) {
	p := r.pending

	switch {
	case ev.Pos == p.rec.Pos && !ev.Pressed:
		r.decide(keyboard.Tapped, ev.Time)

	case ev.Pressed:
		p.pressedDuring[ev.Pos] = true
		r.buffer = append(r.buffer, ev)
		if p.policy.HoldOnOtherKeyPress {
			r.decide(keyboard.Held, ev.Time)
		}

	case p.downBefore[ev.Pos]:
		// Pressed before the pending key, so its release cannot be
		// reordered behind it.
		r.emit(r.lookup(ev))

	default:
		r.buffer = append(r.buffer, ev)
		if p.policy.PermissiveHold && p.pressedDuring[ev.Pos] {
			r.decide(keyboard.Held, ev.Time)
		}
	}
}

// decide resolves the pending key and replays held-back events.
func (r *Resolver) decide(res keyboard.Resolution, at time.Duration) {
	p := r.pending
	r.pending = nil
	buffered := r.buffer
	r.buffer = nil

	rec := p.rec
	rec.Tap = keyboard.TapInfo{Resolution: res, Count: 1}
	r.log.WithFields(logrus.Fields{
		"pos":        rec.Pos.String(),
		"keycode":    rec.Keycode.String(),
		"resolution": res.String(),
		"buffered":   len(buffered),
	}).Debug("resolved")

	r.emit(rec)
	if res == keyboard.Tapped {
		release := rec
		release.Pressed = false
		release.Time = at
		r.emit(release)
		r.last = lastTap{pos: rec.Pos, at: at, count: 1, valid: true}
	}

	for _, ev := range buffered {
		r.Process(ev)
	}
}

// emit passes rec downstream, annotating releases with the resolution of
// their press.
func (r *Resolver) emit(rec keyboard.Record) {
	if rec.Pressed {
		r.down[rec.Pos] = true
		if rec.Tap.Resolution != keyboard.Unresolved {
			r.resolved[rec.Pos] = rec.Tap
		}
	} else {
		delete(r.down, rec.Pos)
		if info, ok := r.resolved[rec.Pos]; ok {
			if rec.Tap.Resolution == keyboard.Unresolved {
				rec.Tap = info
			}
			delete(r.resolved, rec.Pos)
		}
	}
	r.next(rec)
}

func copyPositions(m map[keyboard.Position]bool) map[keyboard.Position]bool {
	out := make(map[keyboard.Position]bool, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
