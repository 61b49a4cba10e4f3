package engine

import (
	"time"

	"github.com/dshills/keyweave/internal/combo"
	"github.com/dshills/keyweave/internal/feature/layerlock"
	"github.com/dshills/keyweave/internal/feature/macro"
	"github.com/dshills/keyweave/internal/feature/vimmode"
	"github.com/dshills/keyweave/internal/keyboard"
	"github.com/dshills/keyweave/internal/keycode"
	"github.com/dshills/keyweave/internal/layer"
	"github.com/dshills/keyweave/internal/leader"
	"github.com/dshills/keyweave/internal/tapdance"
	"github.com/dshills/keyweave/internal/taphold"
)

// Config is the static description of a keyboard. It is read-only once
// passed to New.
type Config struct {
	Keymap    *layer.Keymap
	Default   int
	TriLayers []layer.TriLayer

	// Policy is the global tap-hold policy; Overrides replace it per key.
	Policy    taphold.Policy
	Overrides map[keyboard.Position]taphold.Policy

	Combos    []combo.Combo
	ComboTerm time.Duration

	Dances    []tapdance.Dance
	DanceTerm time.Duration

	Leader   leader.Config
	Patterns []leader.Pattern

	// Customs are indexed by the ID of CUSTOM(n) keycodes.
	Customs []Custom

	Encoders []Encoder

	// AdjustLayer is toggled by dip switch 0. Zero disables it.
	AdjustLayer int

	// MuseLayer selects whether the encoder adjusts muse offset (layer on)
	// or tempo (layer off). Zero always adjusts tempo.
	MuseLayer int

	Features Features
}

// Custom is an application-defined action bound to CUSTOM(n).
type Custom struct {
	Name string

	// Send is typed on press.
	Send string

	// Layer, if nonzero, is turned on at press together with Mods. Both
	// stay until TO returns to the base layer.
	Layer int
	Mods  keycode.Mod

	// HoldMods are held while the key is down.
	HoldMods keycode.Mod

	// Script names a function called with the key state on press and
	// release.
	Script string
}

// Encoder binds the two directions of a rotary encoder.
type Encoder struct {
	Clockwise        keycode.Keycode
	CounterClockwise keycode.Keycode
}

// DefaultEncoder pages down and up.
var DefaultEncoder = Encoder{
	Clockwise:        keycode.Basic(keycode.UsagePageDown),
	CounterClockwise: keycode.Basic(keycode.UsagePageUp),
}

// Features configures the modal feature chain.
type Features struct {
	Vim vimmode.Config

	MacroSlots int
	MacroSize  int

	// LayerLockTimeout releases a locked layer after this much idle time.
	// Zero never releases.
	LayerLockTimeout time.Duration

	// Terminators end a sentence. Nil uses the sentence defaults.
	Terminators []keycode.Keycode

	// WordMod moves by word for select word.
	WordMod keycode.Mod
}

// DefaultFeatures returns the feature defaults.
func DefaultFeatures() Features {
	return Features{
		Vim:              vimmode.DefaultConfig,
		MacroSlots:       macro.DefaultSlots,
		MacroSize:        macro.DefaultSize,
		LayerLockTimeout: layerlock.DefaultTimeout,
		WordMod:          keycode.ModLCtrl,
	}
}

func (c *Config) policy(rec keyboard.Record) taphold.Policy {
	if p, ok := c.Overrides[rec.Pos]; ok {
		return p
	}
	if c.Policy.Term <= 0 {
		return taphold.DefaultPolicy
	}
	return c.Policy
}

func (c *Config) encoder(index int) Encoder {
	if index >= 0 && index < len(c.Encoders) {
		return c.Encoders[index]
	}
	return DefaultEncoder
}
