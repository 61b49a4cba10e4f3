// Package combo substitutes a keycode for a chord of simultaneously
// pressed keys.
package combo

import (
	"time"

	"github.com/sirupsen/logrus"

	"github.com/dshills/keyweave/internal/keyboard"
	"github.com/dshills/keyweave/internal/keycode"
	"github.com/dshills/keyweave/internal/logging"
)

// DefaultTerm is the chord window used when a combo sets none.
const DefaultTerm = 50 * time.Millisecond

// Combo is one declared chord.
type Combo struct {
	Name   string
	Keys   []keyboard.Position
	Result keycode.Keycode

	// Term overrides the engine term for this combo.
	Term time.Duration
}

func (c Combo) has(pos keyboard.Position) bool {
	for _, k := range c.Keys {
		if k == pos {
			return true
		}
	}
	return false
}

// LookupFunc resolves an event against the current layer state.
type LookupFunc func(ev keyboard.Event) keyboard.Record

// active is a fired combo whose members have not all been released.
type active struct {
	index    int
	members  map[keyboard.Position]bool
	released bool
}

// Engine is the combo stage.
type Engine struct {
	combos []Combo
	term   time.Duration
	lookup LookupFunc
	next   keyboard.Handler
	log    *logrus.Entry

	buffer []keyboard.Record
	active []*active
}

// New creates a combo engine. Combos are matched in declaration order.
// Presses forwarded after a partial chord is flushed are looked up again
// with lookup, since an earlier flushed press may have changed layers.
// A nil lookup forwards them unchanged.
func New(combos []Combo, term time.Duration, lookup LookupFunc, next keyboard.Handler, log *logrus.Entry) *Engine {
	if term <= 0 {
		term = DefaultTerm
	}
	return &Engine{
		combos: combos,
		term:   term,
		lookup: lookup,
		next:   next,
		log:    logging.WithComponent(log, "combo"),
	}
}

// Pending returns true while member presses are held back.
func (e *Engine) Pending() bool {
	return len(e.buffer) > 0
}

// Process handles one record from the previous stage.
func (e *Engine) Process(rec keyboard.Record) {
	flushed := e.expire(rec.Time)

	if !rec.Pressed {
		e.release(rec)
		return
	}

	if !e.eligible(rec) {
		e.resolve()
		e.next(rec)
		return
	}

	if len(e.buffer) > 0 && len(e.candidates(rec.Pos)) == 0 {
		flushed = e.resolve() || flushed
	}
	if flushed {
		rec = e.relookup(rec)
	}
	if !e.eligible(rec) || len(e.candidates(rec.Pos)) == 0 {
		e.next(rec)
		return
	}

	e.buffer = append(e.buffer, rec)
	if idx, ok := e.decisive(); ok {
		e.fire(idx)
	}
}

// Tick resolves the held-back chord once the window has elapsed.
func (e *Engine) Tick(now time.Duration) {
	e.expire(now)
}

// expire resolves an elapsed chord and reports whether presses were
// flushed.
func (e *Engine) expire(now time.Duration) bool {
	if len(e.buffer) == 0 || now-e.buffer[0].Time < e.window() {
		return false
	}
	return e.resolve()
}

// Reset drops held-back presses and releases every fired combo.
func (e *Engine) Reset() {
	e.buffer = nil
	for _, a := range e.active {
		if !a.released {
			e.next(e.synthetic(a.index, false, 0))
		}
	}
	e.active = nil
}

// eligible reports whether rec may start or extend a chord.
func (e *Engine) eligible(rec keyboard.Record) bool {
	return !rec.Synthetic && !rec.Keycode.IsTapHold() && rec.Tap.Resolution == keyboard.Unresolved
}

// candidates returns the combos containing every buffered key plus pos.
func (e *Engine) candidates(pos keyboard.Position) []int {
	var out []int
	for i, c := range e.combos {
		if !c.has(pos) || len(c.Keys) < len(e.buffer)+1 {
			continue
		}
		ok := true
		for _, rec := range e.buffer {
			if rec.Pos == pos || !c.has(rec.Pos) {
				ok = false
				break
			}
		}
		if ok {
			out = append(out, i)
		}
	}
	return out
}

// satisfied returns the first combo whose keys are exactly the buffer.
func (e *Engine) satisfied() (int, bool) {
	for i, c := range e.combos {
		if len(c.Keys) != len(e.buffer) {
			continue
		}
		ok := true
		for _, rec := range e.buffer {
			if !c.has(rec.Pos) {
				ok = false
				break
			}
		}
		if ok {
			return i, true
		}
	}
	return 0, false
}

// decisive returns a satisfied combo when no larger combo could still
// complete.
func (e *Engine) decisive() (int, bool) {
	idx, ok := e.satisfied()
	if !ok {
		return 0, false
	}
	for _, c := range e.combos {
		if len(c.Keys) <= len(e.buffer) {
			continue
		}
		superset := true
		for _, rec := range e.buffer {
			if !c.has(rec.Pos) {
				superset = false
				break
			}
		}
		if superset {
			return 0, false
		}
	}
	return idx, true
}

// window is the longest term among combos still reachable from the buffer.
func (e *Engine) window() time.Duration {
	w := time.Duration(0)
	for _, c := range e.combos {
		if len(c.Keys) < len(e.buffer) {
			continue
		}
		match := true
		for _, rec := range e.buffer {
			if !c.has(rec.Pos) {
				match = false
				break
			}
		}
		if !match {
			continue
		}
		term := c.Term
		if term <= 0 {
			term = e.term
		}
		if term > w {
			w = term
		}
	}
	if w == 0 {
		w = e.term
	}
	return w
}

// resolve fires the satisfied combo or flushes the buffer in order. It
// reports whether presses were flushed. Every flushed press after the
// first is looked up again before it is forwarded.
func (e *Engine) resolve() bool {
	if len(e.buffer) == 0 {
		return false
	}
	if idx, ok := e.satisfied(); ok {
		e.fire(idx)
		return false
	}

	buffered := e.buffer
	e.buffer = nil
	e.log.WithField("keys", len(buffered)).Debug("partial chord flushed")
	for i, rec := range buffered {
		if i > 0 {
			rec = e.relookup(rec)
		}
		e.next(rec)
	}
	return true
}

// relookup refreshes the keycode of a plain press held back by the
// combo stage. Dual-role and synthetic records keep theirs.
func (e *Engine) relookup(rec keyboard.Record) keyboard.Record {
	if e.lookup == nil || !e.eligible(rec) {
		return rec
	}
	rec.Keycode = e.lookup(rec.Event).Keycode
	return rec
}

func (e *Engine) fire(idx int) {
	members := make(map[keyboard.Position]bool, len(e.buffer))
	for _, rec := range e.buffer {
		members[rec.Pos] = true
	}
	at := e.buffer[len(e.buffer)-1].Time
	e.buffer = nil

	e.log.WithField("combo", e.combos[idx].Name).Debug("fired")
	e.active = append(e.active, &active{index: idx, members: members})
	e.next(e.synthetic(idx, true, at))
}

// release handles a key release: member releases of a fired combo are
// swallowed, the first one releasing the combo keycode.
func (e *Engine) release(rec keyboard.Record) {
	for i, a := range e.active {
		if !a.members[rec.Pos] {
			continue
		}
		delete(a.members, rec.Pos)
		if !a.released {
			a.released = true
			e.next(e.synthetic(a.index, false, rec.Time))
		}
		if len(a.members) == 0 {
			e.active = append(e.active[:i], e.active[i+1:]...)
		}
		return
	}

	for i, b := range e.buffer {
		if b.Pos != rec.Pos {
			continue
		}
		// A press looked up again on flush owns a fresh held entry, so
		// its release is looked up again to match.
		if e.resolve() && i > 0 && e.lookup != nil {
			rec.Keycode = e.lookup(rec.Event).Keycode
		}
		e.release(rec)
		return
	}
	e.next(rec)
}

func (e *Engine) synthetic(idx int, pressed bool, at time.Duration) keyboard.Record {
	return keyboard.Record{
		Event:     keyboard.Event{Pos: keyboard.Virtual(idx), Pressed: pressed, Time: at},
		Keycode:   e.combos[idx].Result,
		Synthetic: true,
	}
}
