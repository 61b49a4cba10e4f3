// Package tapdance maps the number of quick taps on one key to an action.
package tapdance

import (
	"time"

	"github.com/sirupsen/logrus"

	"github.com/dshills/keyweave/internal/keyboard"
	"github.com/dshills/keyweave/internal/keycode"
	"github.com/dshills/keyweave/internal/logging"
)

// DefaultTerm is the tap window used when a dance sets none.
const DefaultTerm = 200 * time.Millisecond

// virtualBase offsets tap-dance virtual positions past combo positions.
const virtualBase = 128

// Dance is one declared tap-dance. Actions[n-1] fires after n taps; counts
// past the end use the last action.
type Dance struct {
	Name    string
	Actions []keycode.Keycode
	Term    time.Duration
}

// session is the dance currently counting taps.
type session struct {
	id       int
	pos      keyboard.Position
	count    int
	held     bool
	deadline time.Duration
}

// Engine is the tap-dance stage.
type Engine struct {
	dances []Dance
	term   time.Duration
	next   keyboard.Handler
	log    *logrus.Entry

	current *session

	// holding maps a physical position to the release of an action that
	// was committed while the key was still down.
	holding map[keyboard.Position]keyboard.Record
}

// New creates a tap-dance engine.
func New(dances []Dance, term time.Duration, next keyboard.Handler, log *logrus.Entry) *Engine {
	if term <= 0 {
		term = DefaultTerm
	}
	return &Engine{
		dances:  dances,
		term:    term,
		next:    next,
		log:     logging.WithComponent(log, "tapdance"),
		holding: make(map[keyboard.Position]keyboard.Record),
	}
}

// Pending returns true while a dance is counting taps.
func (e *Engine) Pending() bool {
	return e.current != nil
}

// Process handles one record from the previous stage.
func (e *Engine) Process(rec keyboard.Record) {
	e.Tick(rec.Time)

	if rec.Keycode.Kind == keycode.KindTapDance {
		e.dance(rec)
		return
	}
	if rec.Pressed && e.current != nil {
		e.commit(rec.Time)
	}
	e.next(rec)
}

// Tick commits the current dance once its deadline has passed.
func (e *Engine) Tick(now time.Duration) {
	if e.current != nil && now >= e.current.deadline {
		e.commit(now)
	}
}

// Reset abandons the current dance and releases any committed action
// still held.
func (e *Engine) Reset() {
	e.current = nil
	for pos, rel := range e.holding {
		delete(e.holding, pos)
		e.next(rel)
	}
}

func (e *Engine) dance(rec keyboard.Record) {
	id := int(rec.Keycode.ID)

	if !rec.Pressed {
		if s := e.current; s != nil && s.pos == rec.Pos {
			s.held = false
			s.deadline = rec.Time + e.termOf(s.id)
			return
		}
		if rel, ok := e.holding[rec.Pos]; ok {
			delete(e.holding, rec.Pos)
			rel.Time = rec.Time
			e.next(rel)
		}
		return
	}

	if s := e.current; s != nil && (s.id != id || s.pos != rec.Pos) {
		e.commit(rec.Time)
	}
	if id >= len(e.dances) || len(e.dances[id].Actions) == 0 {
		return
	}
	if e.current == nil {
		e.current = &session{id: id, pos: rec.Pos}
	}
	s := e.current
	s.count++
	s.held = true
	s.deadline = rec.Time + e.termOf(id)
}

func (e *Engine) termOf(id int) time.Duration {
	if id < len(e.dances) && e.dances[id].Term > 0 {
		return e.dances[id].Term
	}
	return e.term
}

// commit fires the action for the count reached and ends the session.
// The action is stamped at, the time of the event that ended the dance.
func (e *Engine) commit(at time.Duration) {
	s := e.current
	e.current = nil

	dance := e.dances[s.id]
	n := min(s.count, len(dance.Actions))
	e.log.WithFields(logrus.Fields{"dance": dance.Name, "count": s.count}).Debug("commit")

	press := keyboard.Record{
		Event:     keyboard.Event{Pos: keyboard.Virtual(virtualBase + s.id), Pressed: true, Time: at},
		Keycode:   dance.Actions[n-1],
		Tap:       keyboard.TapInfo{Count: s.count},
		Synthetic: true,
	}
	release := press
	release.Pressed = false

	e.next(press)
	if s.held {
		e.holding[s.pos] = release
		return
	}
	e.next(release)
}
