// Package sentence capitalizes the first letter of each sentence.
//
// A small state machine watches typed characters. After a sentence
// terminator followed by a space, the next letter is sent with a weak
// shift. Keys that cannot be classified clear the state.
package sentence

import (
	"github.com/sirupsen/logrus"

	"github.com/dshills/keyweave/internal/feature"
	"github.com/dshills/keyweave/internal/keyboard"
	"github.com/dshills/keyweave/internal/keycode"
	"github.com/dshills/keyweave/internal/logging"
)

// State is the sentence-case state.
type State uint8

const (
	// Init is the start state: nothing known about the text so far.
	Init State = iota

	// Word is inside a word.
	Word

	// Ending follows a terminator typed right after a word.
	Ending

	// Primed follows a terminator and a space; the next letter is
	// capitalized.
	Primed
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case Word:
		return "word"
	case Ending:
		return "ending"
	case Primed:
		return "primed"
	default:
		return "init"
	}
}

// Class is the classification of a typed key.
type Class uint8

const (
	ClassUnknown Class = iota
	ClassLetter
	ClassTerminator
	ClassSpace
	ClassQuote
	ClassSymbol
	ClassIgnored
)

// DefaultTerminators are period, exclamation mark, and question mark.
var DefaultTerminators = []keycode.Keycode{
	keycode.Basic(keycode.UsageDot),
	keycode.WithMods(keycode.Usage1, keycode.ModLShift),
	keycode.WithMods(keycode.UsageSlash, keycode.ModLShift),
}

// Filter is the sentence-case filter.
type Filter struct {
	enabled     bool
	terminators []keycode.Keycode
	state       State
	log         *logrus.Entry
}

// New creates an enabled filter. Nil terminators use DefaultTerminators.
func New(terminators []keycode.Keycode, log *logrus.Entry) *Filter {
	if terminators == nil {
		terminators = DefaultTerminators
	}
	return &Filter{
		enabled:     true,
		terminators: terminators,
		log:         logging.WithComponent(log, "sentence"),
	}
}

// Name implements feature.Filter.
func (f *Filter) Name() string {
	return "sentence"
}

// Enabled returns true if sentence case is on.
func (f *Filter) Enabled() bool {
	return f.enabled
}

// State returns the current state.
func (f *Filter) State() State {
	return f.state
}

// Skip sits out while caps lock is forced on.
func (f *Filter) Skip(env feature.Env) bool {
	return env.CapsOverride()
}

// Reset returns to Init.
func (f *Filter) Reset(env feature.Env) {
	f.state = Init
}

// Handle implements feature.Filter.
func (f *Filter) Handle(rec keyboard.Record, env feature.Env) feature.Result {
	if rec.Keycode.Kind == keycode.KindSentenceToggle {
		if rec.Pressed {
			f.enabled = !f.enabled
			f.state = Init
			f.log.WithField("enabled", f.enabled).Debug("toggle")
		}
		return feature.Consumed
	}
	if !f.enabled || !rec.Pressed {
		return feature.Continue
	}

	class := f.Classify(rec, env.Mods())
	if class == ClassLetter && f.state == Primed {
		env.AddWeakMods(keycode.ModLShift)
	}
	f.state = next(f.state, class)
	return feature.Continue
}

// next is the transition function.
func next(s State, c Class) State {
	switch c {
	case ClassLetter:
		return Word
	case ClassTerminator:
		if s == Word || s == Ending {
			return Ending
		}
		return Init
	case ClassSpace:
		if s == Ending || s == Primed {
			return Primed
		}
		return Init
	case ClassQuote, ClassIgnored:
		return s
	default:
		return Init
	}
}

// Classify returns the class of a press given the held modifiers.
func (f *Filter) Classify(rec keyboard.Record, held keycode.Mod) Class {
	kc := rec.Keycode
	var u keycode.Usage
	switch {
	case kc.Kind == keycode.KindBasic:
		u = kc.Code
	case kc.IsTapHold() && rec.Tapped():
		u = kc.Code
	case kc.IsTapHold(), kc.IsLayerKey(), kc.Kind == keycode.KindOneShotMod:
		return ClassIgnored
	default:
		return ClassUnknown
	}

	shifted := kc.Mods.HasShift() || held.HasShift()
	switch {
	case u.IsModifier():
		return ClassIgnored
	case u.IsLetter():
		return ClassLetter
	case f.isTerminator(u, shifted):
		return ClassTerminator
	case u == keycode.UsageSpace:
		return ClassSpace
	case u == keycode.UsageQuote:
		return ClassQuote
	case u.IsDigit(), u >= keycode.UsageMinus && u <= keycode.UsageSlash:
		return ClassSymbol
	}
	return ClassUnknown
}

func (f *Filter) isTerminator(u keycode.Usage, shifted bool) bool {
	for _, t := range f.terminators {
		if t.Code == u && t.Mods.HasShift() == shifted {
			return true
		}
	}
	return false
}
