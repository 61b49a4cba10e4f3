// Package selectword selects the word at the cursor and grows the selection
// with repeated presses.
package selectword

import (
	"github.com/dshills/keyweave/internal/feature"
	"github.com/dshills/keyweave/internal/keyboard"
	"github.com/dshills/keyweave/internal/keycode"
)

// State is the selection state.
type State uint8

const (
	Idle State = iota
	Extending
)

// String returns the state name.
func (s State) String() string {
	if s == Extending {
		return "extending"
	}
	return "idle"
}

// Filter is the select-word filter.
type Filter struct {
	wordMod   keycode.Mod
	state     State
	swallowed map[keyboard.Position]bool
}

// New creates a filter moving by word with wordMod. ModNone means Ctrl;
// macOS hosts want Alt.
func New(wordMod keycode.Mod) *Filter {
	if wordMod == keycode.ModNone {
		wordMod = keycode.ModLCtrl
	}
	return &Filter{wordMod: wordMod, swallowed: make(map[keyboard.Position]bool)}
}

// Name implements feature.Filter.
func (f *Filter) Name() string {
	return "selectword"
}

// State returns the current state.
func (f *Filter) State() State {
	return f.state
}

// Reset drops the selection state.
func (f *Filter) Reset(env feature.Env) {
	f.state = Idle
}

// Handle implements feature.Filter.
func (f *Filter) Handle(rec keyboard.Record, env feature.Env) feature.Result {
	if !rec.Pressed {
		if f.swallowed[rec.Pos] {
			delete(f.swallowed, rec.Pos)
			return feature.Consumed
		}
		return feature.Continue
	}

	kc := rec.Keycode
	if kc.Kind == keycode.KindSelectWord {
		f.swallowed[rec.Pos] = true
		if f.state == Idle {
			env.Tap(keycode.WithMods(keycode.UsageRight, f.wordMod))
			env.Tap(keycode.WithMods(keycode.UsageLeft, f.wordMod|keycode.ModLShift))
			f.state = Extending
			return feature.Consumed
		}
		env.Tap(keycode.WithMods(keycode.UsageRight, f.wordMod|keycode.ModLShift))
		return feature.Consumed
	}

	if f.state == Idle {
		return feature.Continue
	}
	if kc.Kind != keycode.KindBasic || kc.Mods != keycode.ModNone {
		f.state = Idle
		return feature.Continue
	}

	switch kc.Code {
	case keycode.UsageRight, keycode.UsageLeft:
		env.Tap(keycode.WithMods(kc.Code, f.wordMod|keycode.ModLShift))
	case keycode.UsageUp, keycode.UsageDown, keycode.UsageHome, keycode.UsageEnd:
		env.Tap(keycode.WithMods(kc.Code, keycode.ModLShift))
	default:
		if !kc.Code.IsModifier() {
			f.state = Idle
		}
		return feature.Continue
	}
	f.swallowed[rec.Pos] = true
	return feature.Consumed
}
