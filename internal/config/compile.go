package config

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/dshills/keyweave/internal/combo"
	"github.com/dshills/keyweave/internal/engine"
	"github.com/dshills/keyweave/internal/keyboard"
	"github.com/dshills/keyweave/internal/keycode"
	"github.com/dshills/keyweave/internal/layer"
	"github.com/dshills/keyweave/internal/leader"
	"github.com/dshills/keyweave/internal/tapdance"
	"github.com/dshills/keyweave/internal/taphold"
)

// Limits imposed by the virtual position space.
const (
	MaxRows      = int(keyboard.VirtualRow) - 1
	MaxCols      = 255
	MaxCombos    = 128
	MaxTapDances = 127
	MaxCustoms   = 256
)

// compiler turns a decoded File into an engine configuration, collecting
// every problem instead of stopping at the first.
type compiler struct {
	path string
	file *File
	opts keycode.Options
	errs ValidationErrors
}

func compile(path string, f *File) (*Keyboard, error) {
	c := &compiler{
		path: path,
		file: f,
		opts: keycode.Options{
			Layers:    make(map[string]int),
			TapDances: make(map[string]int),
			Customs:   make(map[string]int),
		},
	}

	c.names()
	cfg := engine.Config{
		Keymap:    c.keymap(),
		TriLayers: c.triLayers(),
		Policy:    c.policy(),
		ComboTerm: f.Timing.ComboTerm.Std(),
		DanceTerm: f.Timing.TapDanceTerm.Std(),
		Leader: leader.Config{
			Timeout:      f.Timing.LeaderTimeout.Std(),
			PerKeyTiming: f.Timing.LeaderPerKey,
			MaxLength:    f.Timing.LeaderMaxLength,
		},
		Features: c.features(),
	}
	cfg.Default = c.defaultLayer(cfg.Keymap)
	cfg.Overrides = c.overrides(cfg.Policy)
	cfg.Combos = c.combos()
	cfg.Dances = c.dances()
	cfg.Patterns = c.leader()
	cfg.Customs = c.customs()
	cfg.Encoders = c.encoders()
	cfg.AdjustLayer, _ = c.layer("adjust_layer", f.AdjustLayer)
	cfg.MuseLayer, _ = c.layer("muse_layer", f.MuseLayer)

	if len(c.errs) > 0 {
		return nil, c.errs
	}

	kb := &Keyboard{
		Name:   f.Name,
		Path:   path,
		Engine: cfg,
	}
	if f.Script != "" {
		kb.Script = f.Script
		if path != "" && !filepath.IsAbs(f.Script) {
			kb.Script = filepath.Join(filepath.Dir(path), f.Script)
		}
	}
	return kb, nil
}

func (c *compiler) fail(field string, err error) {
	c.errs = append(c.errs, &ValidationError{Path: c.path, Field: field, Err: err})
}

// names registers layer, tap-dance and custom names before any keycode is
// parsed so that forward references resolve.
func (c *compiler) names() {
	register := func(kind string, names map[string]int, i int, name string) {
		if name == "" {
			return
		}
		key := strings.ToUpper(name)
		if _, dup := names[key]; dup {
			c.fail(fmt.Sprintf("%s[%d].name", kind, i), fmt.Errorf("%w: %q", ErrDuplicateName, name))
			return
		}
		names[key] = i
	}

	for i, l := range c.file.Layers {
		register("layers", c.opts.Layers, i, l.Name)
	}
	for i, d := range c.file.TapDances {
		if d.Name == "" {
			c.fail(fmt.Sprintf("tap_dances[%d].name", i), fmt.Errorf("%w: name is required", ErrInvalidValue))
		}
		register("tap_dances", c.opts.TapDances, i, d.Name)
	}
	for i, cu := range c.file.Customs {
		if cu.Name == "" {
			c.fail(fmt.Sprintf("customs[%d].name", i), fmt.Errorf("%w: name is required", ErrInvalidValue))
			continue
		}
		if _, err := keycode.Parse(cu.Name, keycode.Options{}); err == nil {
			c.fail(fmt.Sprintf("customs[%d].name", i), fmt.Errorf("%w: %q shadows a built-in keycode", ErrDuplicateName, cu.Name))
			continue
		}
		register("customs", c.opts.Customs, i, cu.Name)
	}

	if n := len(c.file.TapDances); n > MaxTapDances {
		c.fail("tap_dances", fmt.Errorf("%w: %d tap dances, max %d", ErrInvalidValue, n, MaxTapDances))
	}
	if n := len(c.file.Customs); n > MaxCustoms {
		c.fail("customs", fmt.Errorf("%w: %d customs, max %d", ErrInvalidValue, n, MaxCustoms))
	}
}

func (c *compiler) keycode(field, spec string) keycode.Keycode {
	kc, err := keycode.Parse(spec, c.opts)
	if err != nil {
		c.fail(field, err)
	}
	return kc
}

// layer resolves a layer name or index. An empty reference yields 0, false
// without error.
func (c *compiler) layer(field, ref string) (int, bool) {
	if ref == "" {
		return 0, false
	}
	if n, err := strconv.Atoi(ref); err == nil {
		if n < 0 || n >= len(c.file.Layers) {
			c.fail(field, fmt.Errorf("%w: layer %d", ErrUnknownName, n))
			return 0, false
		}
		return n, true
	}
	if n, ok := c.opts.Layers[strings.ToUpper(ref)]; ok {
		return n, true
	}
	c.fail(field, fmt.Errorf("%w: layer %q", ErrUnknownName, ref))
	return 0, false
}

func (c *compiler) mods(field, s string) keycode.Mod {
	if s == "" {
		return keycode.ModNone
	}
	m, ok := keycode.ParseMods(s)
	if !ok {
		c.fail(field, fmt.Errorf("%w: modifiers %q", ErrInvalidValue, s))
	}
	return m
}

func (c *compiler) position(field string, rc []int) (keyboard.Position, bool) {
	if len(rc) != 2 {
		c.fail(field, fmt.Errorf("%w: want [row, col], got %v", ErrInvalidValue, rc))
		return keyboard.Position{}, false
	}
	if rc[0] < 0 || rc[0] >= c.file.Matrix.Rows || rc[1] < 0 || rc[1] >= c.file.Matrix.Cols {
		c.fail(field, fmt.Errorf("%w: %d,%d", ErrPosition, rc[0], rc[1]))
		return keyboard.Position{}, false
	}
	return keyboard.Position{Row: uint8(rc[0]), Col: uint8(rc[1])}, true
}

func (c *compiler) keymap() *layer.Keymap {
	m := c.file.Matrix
	if m.Rows < 1 || m.Rows > MaxRows || m.Cols < 1 || m.Cols > MaxCols {
		c.fail("matrix", fmt.Errorf("%w: %dx%d", ErrInvalidValue, m.Rows, m.Cols))
	}

	km := &layer.Keymap{Rows: m.Rows, Cols: m.Cols}
	for i, spec := range c.file.Layers {
		l := layer.Layer{Name: spec.Name, Keys: make([][]keycode.Keycode, len(spec.Keys))}
		for r, row := range spec.Keys {
			l.Keys[r] = make([]keycode.Keycode, len(row))
			for col, name := range row {
				l.Keys[r][col] = c.keycode(fmt.Sprintf("layers[%d].keys[%d][%d]", i, r, col), name)
			}
		}
		km.Layers = append(km.Layers, l)
	}
	if err := km.Validate(); err != nil {
		c.fail("layers", err)
	}
	return km
}

func (c *compiler) defaultLayer(km *layer.Keymap) int {
	def, _ := c.layer("default_layer", c.file.DefaultLayer)
	if def < len(km.Layers) {
		if err := km.CheckDefault(def); err != nil {
			c.fail("default_layer", err)
		}
	}
	return def
}

func (c *compiler) triLayers() []layer.TriLayer {
	var out []layer.TriLayer
	for i, t := range c.file.TriLayers {
		field := fmt.Sprintf("tri_layers[%d]", i)
		lower, ok1 := c.layer(field+".lower", t.Lower)
		upper, ok2 := c.layer(field+".upper", t.Upper)
		result, ok3 := c.layer(field+".result", t.Result)
		if !ok1 || !ok2 || !ok3 {
			if t.Lower == "" || t.Upper == "" || t.Result == "" {
				c.fail(field, fmt.Errorf("%w: lower, upper and result are required", ErrInvalidValue))
			}
			continue
		}
		out = append(out, layer.TriLayer{Lower: lower, Upper: upper, Result: result})
	}
	return out
}

func (c *compiler) policy() taphold.Policy {
	t := c.file.Timing
	p := taphold.DefaultPolicy
	if t.TappingTerm > 0 {
		p.Term = t.TappingTerm.Std()
	}
	p.QuickTapTerm = t.QuickTapTerm.Std()
	if t.PermissiveHold != nil {
		p.PermissiveHold = *t.PermissiveHold
	}
	p.HoldOnOtherKeyPress = t.HoldOnOtherKeyPress
	return p
}

func (c *compiler) overrides(global taphold.Policy) map[keyboard.Position]taphold.Policy {
	if len(c.file.Overrides) == 0 {
		return nil
	}
	out := make(map[keyboard.Position]taphold.Policy, len(c.file.Overrides))
	for i, o := range c.file.Overrides {
		field := fmt.Sprintf("overrides[%d]", i)
		pos, ok := c.position(field+".key", o.Key)
		if !ok {
			continue
		}
		if _, dup := out[pos]; dup {
			c.fail(field+".key", fmt.Errorf("%w: key %s", ErrDuplicateName, pos))
			continue
		}
		p := global
		if o.TappingTerm > 0 {
			p.Term = o.TappingTerm.Std()
		}
		if o.QuickTapTerm > 0 {
			p.QuickTapTerm = o.QuickTapTerm.Std()
		}
		if o.PermissiveHold != nil {
			p.PermissiveHold = *o.PermissiveHold
		}
		if o.HoldOnOtherKeyPress != nil {
			p.HoldOnOtherKeyPress = *o.HoldOnOtherKeyPress
		}
		out[pos] = p
	}
	return out
}

func (c *compiler) combos() []combo.Combo {
	if n := len(c.file.Combos); n > MaxCombos {
		c.fail("combos", fmt.Errorf("%w: %d combos, max %d", ErrInvalidValue, n, MaxCombos))
		return nil
	}

	var out []combo.Combo
	for i, spec := range c.file.Combos {
		field := fmt.Sprintf("combos[%d]", i)
		if len(spec.Keys) < 2 {
			c.fail(field+".keys", fmt.Errorf("%w: a combo needs at least two keys", ErrInvalidValue))
			continue
		}

		cb := combo.Combo{Name: spec.Name, Term: spec.Term.Std()}
		seen := make(map[keyboard.Position]bool, len(spec.Keys))
		valid := true
		for k, rc := range spec.Keys {
			pos, ok := c.position(fmt.Sprintf("%s.keys[%d]", field, k), rc)
			if !ok {
				valid = false
				continue
			}
			if seen[pos] {
				c.fail(fmt.Sprintf("%s.keys[%d]", field, k), fmt.Errorf("%w: key %s repeated", ErrInvalidValue, pos))
				valid = false
				continue
			}
			seen[pos] = true
			cb.Keys = append(cb.Keys, pos)
		}
		cb.Result = c.keycode(field+".result", spec.Result)
		if valid {
			out = append(out, cb)
		}
	}
	return out
}

func (c *compiler) dances() []tapdance.Dance {
	var out []tapdance.Dance
	for i, spec := range c.file.TapDances {
		field := fmt.Sprintf("tap_dances[%d]", i)
		if len(spec.Actions) == 0 {
			c.fail(field+".actions", fmt.Errorf("%w: at least one action is required", ErrInvalidValue))
		}
		d := tapdance.Dance{Name: spec.Name, Term: spec.Term.Std()}
		for a, name := range spec.Actions {
			kc := c.keycode(fmt.Sprintf("%s.actions[%d]", field, a), name)
			if kc.Kind == keycode.KindTapDance {
				c.fail(fmt.Sprintf("%s.actions[%d]", field, a), fmt.Errorf("%w: tap dances cannot nest", ErrInvalidValue))
			}
			d.Actions = append(d.Actions, kc)
		}
		out = append(out, d)
	}
	return out
}

func (c *compiler) leader() []leader.Pattern {
	var out []leader.Pattern
	for i, spec := range c.file.Leader {
		field := fmt.Sprintf("leader[%d]", i)
		p := leader.Pattern{Name: spec.Name, AnyOrder: spec.AnyOrder}

		if len(spec.Keys) == 0 {
			c.fail(field+".keys", fmt.Errorf("%w: at least one key is required", ErrInvalidValue))
		}
		for k, name := range spec.Keys {
			kf := fmt.Sprintf("%s.keys[%d]", field, k)
			kc := c.keycode(kf, name)
			if kc.Kind != keycode.KindBasic || kc.Mods != keycode.ModNone || kc.Code.IsModifier() {
				c.fail(kf, fmt.Errorf("%w: leader keys must be plain keys, got %s", ErrInvalidValue, name))
				continue
			}
			p.Keys = append(p.Keys, kc.Code)
		}
		if limit := c.file.Timing.LeaderMaxLength; limit > 0 && len(spec.Keys) > limit {
			c.fail(field+".keys", fmt.Errorf("%w: %d keys exceed leader_max_length %d", ErrInvalidValue, len(spec.Keys), limit))
		}

		for t, name := range spec.Taps {
			p.Action.Taps = append(p.Action.Taps, c.keycode(fmt.Sprintf("%s.taps[%d]", field, t), name))
		}
		p.Action.OneShot = c.mods(field+".one_shot", spec.OneShot)
		p.Action.Text = spec.Text
		if len(p.Action.Taps) == 0 && p.Action.OneShot == keycode.ModNone && p.Action.Text == "" {
			c.fail(field, fmt.Errorf("%w: one of taps, one_shot or text is required", ErrInvalidValue))
		}
		out = append(out, p)
	}
	return out
}

func (c *compiler) customs() []engine.Custom {
	var out []engine.Custom
	for i, spec := range c.file.Customs {
		field := fmt.Sprintf("customs[%d]", i)
		cu := engine.Custom{
			Name:     spec.Name,
			Send:     spec.Send,
			Mods:     c.mods(field+".mods", spec.Mods),
			HoldMods: c.mods(field+".hold_mods", spec.HoldMods),
			Script:   spec.Script,
		}
		cu.Layer, _ = c.layer(field+".layer", spec.Layer)
		if spec.Script != "" && c.file.Script == "" {
			c.fail(field+".script", fmt.Errorf("%w: script function %q but no script file", ErrInvalidValue, spec.Script))
		}
		out = append(out, cu)
	}
	return out
}

func (c *compiler) encoders() []engine.Encoder {
	var out []engine.Encoder
	for i, spec := range c.file.Encoders {
		field := fmt.Sprintf("encoders[%d]", i)
		out = append(out, engine.Encoder{
			Clockwise:        c.keycode(field+".clockwise", spec.Clockwise),
			CounterClockwise: c.keycode(field+".counter_clockwise", spec.CounterClockwise),
		})
	}
	return out
}

func (c *compiler) features() engine.Features {
	spec := c.file.Features
	f := engine.DefaultFeatures()
	if spec.VimWordMod != "" {
		f.Vim.WordMod = c.mods("features.vim_word_mod", spec.VimWordMod)
	}
	if spec.VimShortcutMod != "" {
		f.Vim.ShortcutMod = c.mods("features.vim_shortcut_mod", spec.VimShortcutMod)
	}
	if spec.MacroSlots < 0 || spec.MacroSize < 0 {
		c.fail("features", fmt.Errorf("%w: macro slots and size must not be negative", ErrInvalidValue))
	}
	if spec.MacroSlots > 0 {
		f.MacroSlots = spec.MacroSlots
	}
	if spec.MacroSize > 0 {
		f.MacroSize = spec.MacroSize
	}
	if d := c.file.Timing.LayerLockTimeout; d != nil {
		f.LayerLockTimeout = d.Std()
	}
	for i, name := range spec.SentenceTerminators {
		f.Terminators = append(f.Terminators, c.keycode(fmt.Sprintf("features.sentence_terminators[%d]", i), name))
	}
	if spec.SelectWordMod != "" {
		f.WordMod = c.mods("features.select_word_mod", spec.SelectWordMod)
	}
	return f
}
