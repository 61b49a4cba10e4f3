// Package vimmode turns the keyboard into a small modal editor: in normal
// mode letter keys become cursor motions and edits sent as host shortcuts.
package vimmode

import (
	"github.com/dshills/keyweave/internal/feature"
	"github.com/dshills/keyweave/internal/keyboard"
	"github.com/dshills/keyweave/internal/keycode"
)

// Mode is the vim state.
type Mode uint8

const (
	// Off passes every key through.
	Off Mode = iota

	// Normal maps keys to motions and edits.
	Normal

	// Visual extends a selection with every motion.
	Visual
)

// String returns the mode name.
func (m Mode) String() string {
	switch m {
	case Normal:
		return "normal"
	case Visual:
		return "visual"
	default:
		return "off"
	}
}

// Config selects the host shortcut modifiers.
type Config struct {
	// WordMod moves by word with the arrow keys (Ctrl, or Alt on macOS).
	WordMod keycode.Mod

	// ShortcutMod is used for undo, copy, cut, and paste (Ctrl, or Gui on
	// macOS).
	ShortcutMod keycode.Mod
}

// DefaultConfig uses PC shortcuts.
var DefaultConfig = Config{WordMod: keycode.ModLCtrl, ShortcutMod: keycode.ModLCtrl}

// Filter is the vim-mode filter.
type Filter struct {
	cfg      Config
	mode     Mode
	pendingG bool
	count    count

	// swallowed holds positions whose press was consumed.
	swallowed map[keyboard.Position]bool
}

// New creates a vim filter, initially off.
func New(cfg Config) *Filter {
	if cfg.WordMod == keycode.ModNone {
		cfg.WordMod = DefaultConfig.WordMod
	}
	if cfg.ShortcutMod == keycode.ModNone {
		cfg.ShortcutMod = DefaultConfig.ShortcutMod
	}
	return &Filter{cfg: cfg, swallowed: make(map[keyboard.Position]bool)}
}

// Name implements feature.Filter.
func (f *Filter) Name() string {
	return "vim"
}

// Mode returns the current mode.
func (f *Filter) Mode() Mode {
	return f.mode
}

// Reset clears pending input without leaving vim mode.
func (f *Filter) Reset(env feature.Env) {
	f.pendingG = false
	f.count.reset()
}

// Handle implements feature.Filter.
func (f *Filter) Handle(rec keyboard.Record, env feature.Env) feature.Result {
	kc := rec.Keycode

	if kc.Kind == keycode.KindVimToggle {
		if rec.Pressed {
			f.toggle()
		}
		return feature.Consumed
	}

	if !rec.Pressed {
		if f.swallowed[rec.Pos] {
			delete(f.swallowed, rec.Pos)
			return feature.Consumed
		}
		return feature.Continue
	}

	if f.mode == Off {
		return feature.Continue
	}

	u, ok := tapUsage(rec)
	if !ok || u.IsModifier() {
		return feature.Continue
	}

	f.swallowed[rec.Pos] = true
	shifted := kc.Mods.HasShift() || env.Mods().HasShift()
	f.command(u, shifted, env)
	return feature.Consumed
}

func (f *Filter) toggle() {
	if f.mode == Off {
		f.enter(Normal)
		return
	}
	f.enter(Off)
}

func (f *Filter) enter(m Mode) {
	f.mode = m
	f.pendingG = false
	f.count.reset()
}

// command runs one normal or visual mode key.
func (f *Filter) command(u keycode.Usage, shifted bool, env feature.Env) {
	if f.pendingG {
		f.pendingG = false
		if u == keycode.UsageG && !shifted {
			f.motion(env, keycode.WithMods(keycode.UsageHome, keycode.ModLCtrl), 1)
		}
		f.count.reset()
		return
	}

	if !shifted && f.count.accumulate(u) {
		return
	}
	n := f.count.get()
	f.count.reset()

	if m, ok := f.motionFor(u, shifted); ok {
		f.motion(env, m, n)
		return
	}

	short := func(u keycode.Usage) keycode.Keycode {
		return keycode.WithMods(u, f.cfg.ShortcutMod)
	}

	switch {
	case u == keycode.UsageEscape:
		f.enter(Normal)
	case u == keycode.UsageG && !shifted:
		f.pendingG = true
	case u == keycode.UsageI && f.mode == Normal:
		f.enter(Off)
	case u == keycode.UsageV && f.mode == Normal:
		f.enter(Visual)
	case u == keycode.UsageV:
		f.enter(Normal)
	case u == keycode.UsageX && f.mode == Normal:
		repeat(env, keycode.Basic(keycode.UsageDelete), n)
	case u == keycode.UsageU && f.mode == Normal:
		repeat(env, short(keycode.UsageZ), n)
	case u == keycode.UsageP:
		repeat(env, short(keycode.UsageV), n)
		f.enter(Normal)
	case u == keycode.UsageY && f.mode == Visual:
		env.Tap(short(keycode.UsageC))
		f.enter(Normal)
	case u == keycode.UsageY:
		env.Tap(keycode.Basic(keycode.UsageHome))
		env.Tap(keycode.WithMods(keycode.UsageEnd, keycode.ModLShift))
		env.Tap(short(keycode.UsageC))
		env.Tap(keycode.Basic(keycode.UsageEnd))
	case (u == keycode.UsageD || u == keycode.UsageX) && f.mode == Visual:
		env.Tap(short(keycode.UsageX))
		f.enter(Normal)
	}
}

// motionFor maps a key to the host key that performs its motion.
func (f *Filter) motionFor(u keycode.Usage, shifted bool) (keycode.Keycode, bool) {
	if shifted {
		switch u {
		case keycode.Usage4:
			return keycode.Basic(keycode.UsageEnd), true
		case keycode.UsageG:
			return keycode.WithMods(keycode.UsageEnd, keycode.ModLCtrl), true
		}
		return keycode.No, false
	}

	switch u {
	case keycode.UsageH:
		return keycode.Basic(keycode.UsageLeft), true
	case keycode.UsageJ:
		return keycode.Basic(keycode.UsageDown), true
	case keycode.UsageK:
		return keycode.Basic(keycode.UsageUp), true
	case keycode.UsageL:
		return keycode.Basic(keycode.UsageRight), true
	case keycode.UsageW:
		return keycode.WithMods(keycode.UsageRight, f.cfg.WordMod), true
	case keycode.UsageB:
		return keycode.WithMods(keycode.UsageLeft, f.cfg.WordMod), true
	case keycode.Usage0:
		return keycode.Basic(keycode.UsageHome), true
	}
	return keycode.No, false
}

// motion taps m n times, extending the selection in visual mode.
func (f *Filter) motion(env feature.Env, m keycode.Keycode, n int) {
	if f.mode == Visual {
		m.Mods = m.Mods.With(keycode.ModLShift)
	}
	repeat(env, m, n)
}

func repeat(env feature.Env, kc keycode.Keycode, n int) {
	for i := 0; i < n; i++ {
		env.Tap(kc)
	}
}

// tapUsage returns the usage a press types, for basic keys and tapped
// dual-role keys.
func tapUsage(rec keyboard.Record) (keycode.Usage, bool) {
	kc := rec.Keycode
	switch {
	case kc.Kind == keycode.KindBasic:
		return kc.Code, kc.Code != keycode.UsageNone
	case kc.IsTapHold() && rec.Tapped():
		return kc.Code, kc.Code != keycode.UsageNone
	}
	return keycode.UsageNone, false
}
