package config

import (
	"fmt"
	"strconv"
	"time"

	"github.com/invopop/jsonschema"
	"gopkg.in/yaml.v3"
)

// File is the on-disk keymap format. TOML and YAML files share it.
type File struct {
	SchemaVersion string `yaml:"schema_version,omitempty" toml:"schema_version,omitempty" jsonschema:"description=Format version of this file (e.g. 1.0)."`
	Name          string `yaml:"name,omitempty" toml:"name,omitempty" jsonschema:"description=Keyboard name."`

	Matrix Matrix `yaml:"matrix" toml:"matrix"`

	// DefaultLayer names the base layer; the first layer when empty.
	DefaultLayer string `yaml:"default_layer,omitempty" toml:"default_layer,omitempty" jsonschema:"description=Name or index of the base layer."`

	Layers    []LayerSpec    `yaml:"layers" toml:"layers" jsonschema:"minItems=1"`
	TriLayers []TriLayerSpec `yaml:"tri_layers,omitempty" toml:"tri_layers,omitempty"`

	Timing    Timing         `yaml:"timing,omitempty" toml:"timing,omitempty"`
	Overrides []OverrideSpec `yaml:"overrides,omitempty" toml:"overrides,omitempty" jsonschema:"description=Per-key tap-hold policy."`

	Combos    []ComboSpec  `yaml:"combos,omitempty" toml:"combos,omitempty"`
	TapDances []DanceSpec  `yaml:"tap_dances,omitempty" toml:"tap_dances,omitempty"`
	Leader    []LeaderSpec `yaml:"leader,omitempty" toml:"leader,omitempty" jsonschema:"description=Leader sequences."`

	Customs  []CustomSpec  `yaml:"customs,omitempty" toml:"customs,omitempty" jsonschema:"description=Application keycodes usable by name in layers."`
	Encoders []EncoderSpec `yaml:"encoders,omitempty" toml:"encoders,omitempty"`

	AdjustLayer string `yaml:"adjust_layer,omitempty" toml:"adjust_layer,omitempty" jsonschema:"description=Layer locked by dip switch 0."`
	MuseLayer   string `yaml:"muse_layer,omitempty" toml:"muse_layer,omitempty" jsonschema:"description=While on, the encoder adjusts muse offset instead of tempo."`

	Features FeatureSpec `yaml:"features,omitempty" toml:"features,omitempty"`

	// Script is a Lua file, relative to the keymap file.
	Script string `yaml:"script,omitempty" toml:"script,omitempty" jsonschema:"description=Lua file with custom action functions."`
}

// Matrix is the physical key grid.
type Matrix struct {
	Rows int `yaml:"rows" toml:"rows" jsonschema:"minimum=1,maximum=255"`
	Cols int `yaml:"cols" toml:"cols" jsonschema:"minimum=1,maximum=255"`
}

// LayerSpec is one layer: rows of keycode names.
type LayerSpec struct {
	Name string     `yaml:"name" toml:"name"`
	Keys [][]string `yaml:"keys" toml:"keys" jsonschema:"description=Rows of keycodes such as KC_A or MO(LOWER)."`
}

// TriLayerSpec turns Result on while Lower and Upper are both on.
type TriLayerSpec struct {
	Lower  string `yaml:"lower" toml:"lower"`
	Upper  string `yaml:"upper" toml:"upper"`
	Result string `yaml:"result" toml:"result"`
}

// Timing holds the global timing values.
type Timing struct {
	TappingTerm         Duration  `yaml:"tapping_term,omitempty" toml:"tapping_term,omitempty"`
	QuickTapTerm        Duration  `yaml:"quick_tap_term,omitempty" toml:"quick_tap_term,omitempty"`
	PermissiveHold      *bool     `yaml:"permissive_hold,omitempty" toml:"permissive_hold,omitempty"`
	HoldOnOtherKeyPress bool      `yaml:"hold_on_other_key_press,omitempty" toml:"hold_on_other_key_press,omitempty"`
	ComboTerm           Duration  `yaml:"combo_term,omitempty" toml:"combo_term,omitempty"`
	TapDanceTerm        Duration  `yaml:"tap_dance_term,omitempty" toml:"tap_dance_term,omitempty"`
	LeaderTimeout       Duration  `yaml:"leader_timeout,omitempty" toml:"leader_timeout,omitempty"`
	LeaderPerKey        bool      `yaml:"leader_per_key,omitempty" toml:"leader_per_key,omitempty" jsonschema:"description=Restart the leader timeout after every key."`
	LeaderMaxLength     int       `yaml:"leader_max_length,omitempty" toml:"leader_max_length,omitempty"`
	LayerLockTimeout    *Duration `yaml:"layer_lock_timeout,omitempty" toml:"layer_lock_timeout,omitempty" jsonschema:"description=Idle time before a locked layer is released. 0 never releases."`
}

// OverrideSpec replaces the tap-hold policy of one key. Unset fields
// inherit the global timing.
type OverrideSpec struct {
	Key                 []int    `yaml:"key" toml:"key" jsonschema:"description=Row and column.,minItems=2,maxItems=2"`
	TappingTerm         Duration `yaml:"tapping_term,omitempty" toml:"tapping_term,omitempty"`
	QuickTapTerm        Duration `yaml:"quick_tap_term,omitempty" toml:"quick_tap_term,omitempty"`
	PermissiveHold      *bool    `yaml:"permissive_hold,omitempty" toml:"permissive_hold,omitempty"`
	HoldOnOtherKeyPress *bool    `yaml:"hold_on_other_key_press,omitempty" toml:"hold_on_other_key_press,omitempty"`
}

// ComboSpec fires Result when every key in Keys is pressed together.
type ComboSpec struct {
	Name   string   `yaml:"name,omitempty" toml:"name,omitempty"`
	Keys   [][]int  `yaml:"keys" toml:"keys" jsonschema:"description=Row and column of each member key.,minItems=2"`
	Result string   `yaml:"result" toml:"result"`
	Term   Duration `yaml:"term,omitempty" toml:"term,omitempty"`
}

// DanceSpec maps tap counts to keycodes; Actions[0] is a single tap.
type DanceSpec struct {
	Name    string   `yaml:"name" toml:"name"`
	Actions []string `yaml:"actions" toml:"actions" jsonschema:"minItems=1"`
	Term    Duration `yaml:"term,omitempty" toml:"term,omitempty"`
}

// LeaderSpec is a leader sequence and what it fires.
type LeaderSpec struct {
	Name     string   `yaml:"name,omitempty" toml:"name,omitempty"`
	Keys     []string `yaml:"keys" toml:"keys" jsonschema:"minItems=1"`
	AnyOrder bool     `yaml:"any_order,omitempty" toml:"any_order,omitempty"`
	Taps     []string `yaml:"taps,omitempty" toml:"taps,omitempty"`
	OneShot  string   `yaml:"one_shot,omitempty" toml:"one_shot,omitempty" jsonschema:"description=Modifiers applied to the next key (e.g. LSFT|LCTL)."`
	Text     string   `yaml:"text,omitempty" toml:"text,omitempty"`
}

// CustomSpec is an application keycode, referenced as its Name in layers.
type CustomSpec struct {
	Name     string `yaml:"name" toml:"name"`
	Send     string `yaml:"send,omitempty" toml:"send,omitempty"`
	Layer    string `yaml:"layer,omitempty" toml:"layer,omitempty"`
	Mods     string `yaml:"mods,omitempty" toml:"mods,omitempty"`
	HoldMods string `yaml:"hold_mods,omitempty" toml:"hold_mods,omitempty" jsonschema:"description=Modifiers held only while the key is down."`
	Script   string `yaml:"script,omitempty" toml:"script,omitempty" jsonschema:"description=Lua function called with the key state."`
}

// EncoderSpec binds the two directions of a rotary encoder.
type EncoderSpec struct {
	Clockwise        string `yaml:"clockwise" toml:"clockwise"`
	CounterClockwise string `yaml:"counter_clockwise" toml:"counter_clockwise"`
}

// FeatureSpec configures the modal features.
type FeatureSpec struct {
	VimWordMod          string   `yaml:"vim_word_mod,omitempty" toml:"vim_word_mod,omitempty"`
	VimShortcutMod      string   `yaml:"vim_shortcut_mod,omitempty" toml:"vim_shortcut_mod,omitempty"`
	MacroSlots          int      `yaml:"macro_slots,omitempty" toml:"macro_slots,omitempty"`
	MacroSize           int      `yaml:"macro_size,omitempty" toml:"macro_size,omitempty"`
	SentenceTerminators []string `yaml:"sentence_terminators,omitempty" toml:"sentence_terminators,omitempty"`
	SelectWordMod       string   `yaml:"select_word_mod,omitempty" toml:"select_word_mod,omitempty"`
}

// Duration is a time span written as an integer number of milliseconds or
// a Go duration string such as "190ms".
type Duration time.Duration

// Std returns d as a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: duration must be a scalar", node.Line)
	}
	v, err := ParseDuration(node.Value)
	if err != nil {
		return fmt.Errorf("line %d: %w", node.Line, err)
	}
	*d = v
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// JSONSchema describes the accepted duration forms.
func (Duration) JSONSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		OneOf: []*jsonschema.Schema{
			{Type: "integer", Minimum: "0", Description: "milliseconds"},
			{Type: "string", Pattern: `^([0-9]+(\.[0-9]+)?(ns|us|µs|ms|s|m|h))+$`},
		},
	}
}

// ParseDuration parses milliseconds or a Go duration string.
func ParseDuration(s string) (Duration, error) {
	if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
		if ms < 0 {
			return 0, fmt.Errorf("%w: negative duration %q", ErrInvalidValue, s)
		}
		return Duration(time.Duration(ms) * time.Millisecond), nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("%w: duration %q", ErrInvalidValue, s)
	}
	if d < 0 {
		return 0, fmt.Errorf("%w: negative duration %q", ErrInvalidValue, s)
	}
	return Duration(d), nil
}
