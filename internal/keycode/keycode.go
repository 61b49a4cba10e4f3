package keycode

import (
	"fmt"
	"strings"
)

// Kind tags the meaning of a Keycode.
type Kind uint8

const (
	// KindNone does nothing (KC_NO).
	KindNone Kind = iota

	// KindTransparent defers to the next lower active layer (KC_TRNS).
	KindTransparent

	// KindBasic sends Code with Mods held for the duration of the press.
	KindBasic

	// KindModTap holds Mods, taps Code.
	KindModTap

	// KindLayerTap holds Layer, taps Code with Mods. A LayerTap without
	// Code taps Mods as a one-shot modifier instead.
	KindLayerTap

	// KindMomentary activates Layer while held (MO).
	KindMomentary

	// KindToggle flips Layer on press (TG).
	KindToggle

	// KindTo makes Layer the default and clears all overrides (TO).
	KindTo

	// KindDefault sets and persists the default layer (DF).
	KindDefault

	// KindOneShotMod applies Mods to the next key only (OSM).
	KindOneShotMod

	// KindOneShotLayer activates Layer for the next key only (OSL).
	KindOneShotLayer

	// KindTapDance selects the tap-dance with index ID (TD).
	KindTapDance

	// KindLeader starts a leader sequence (QK_LEAD).
	KindLeader

	// KindMacroRecord starts recording dynamic macro slot ID.
	KindMacroRecord

	// KindMacroPlay plays dynamic macro slot ID.
	KindMacroPlay

	// KindMacroStop stops recording.
	KindMacroStop

	// KindLayerLock arms or locks the highest active layer (QK_LLCK).
	KindLayerLock

	// KindSentenceToggle toggles sentence case.
	KindSentenceToggle

	// KindSelectWord selects and extends the word under the cursor.
	KindSelectWord

	// KindVimToggle toggles vim mode.
	KindVimToggle

	// KindCapsToggle toggles the caps override.
	KindCapsToggle

	// KindClearMods clears every modifier and pending resolution.
	KindClearMods

	// KindCustom runs the custom action with index ID.
	KindCustom
)

var kindNames = [...]string{
	KindNone:           "none",
	KindTransparent:    "transparent",
	KindBasic:          "basic",
	KindModTap:         "mod-tap",
	KindLayerTap:       "layer-tap",
	KindMomentary:      "momentary",
	KindToggle:         "toggle",
	KindTo:             "to",
	KindDefault:        "default",
	KindOneShotMod:     "one-shot-mod",
	KindOneShotLayer:   "one-shot-layer",
	KindTapDance:       "tap-dance",
	KindLeader:         "leader",
	KindMacroRecord:    "macro-record",
	KindMacroPlay:      "macro-play",
	KindMacroStop:      "macro-stop",
	KindLayerLock:      "layer-lock",
	KindSentenceToggle: "sentence-toggle",
	KindSelectWord:     "select-word",
	KindVimToggle:      "vim-toggle",
	KindCapsToggle:     "caps-toggle",
	KindClearMods:      "clear-mods",
	KindCustom:         "custom",
}

// String returns the kind name.
func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", k)
}

// Keycode is an immutable logical keycode. The zero value is KC_NO.
// Keycodes are comparable and may be used as map keys.
type Keycode struct {
	Kind  Kind
	Code  Usage
	Mods  Mod
	Layer uint8
	ID    uint8
}

// Common keycodes.
var (
	No          = Keycode{}
	Transparent = Keycode{Kind: KindTransparent}
	Leader      = Keycode{Kind: KindLeader}
)

// Basic returns a plain keycode for u.
func Basic(u Usage) Keycode {
	return Keycode{Kind: KindBasic, Code: u}
}

// WithMods returns a basic keycode sending u with mods held (e.g. S(KC_1)).
func WithMods(u Usage, mods Mod) Keycode {
	return Keycode{Kind: KindBasic, Code: u, Mods: mods}
}

// ModTap returns a dual-role key holding mods and tapping u.
func ModTap(mods Mod, u Usage) Keycode {
	return Keycode{Kind: KindModTap, Code: u, Mods: mods}
}

// LayerTap returns a dual-role key holding layer and tapping u.
func LayerTap(layer int, u Usage) Keycode {
	return Keycode{Kind: KindLayerTap, Code: u, Layer: uint8(layer)}
}

// LayerTapOneShot returns a dual-role key holding layer and tapping mods as
// a one-shot modifier.
func LayerTapOneShot(layer int, mods Mod) Keycode {
	return Keycode{Kind: KindLayerTap, Mods: mods, Layer: uint8(layer)}
}

// Momentary returns MO(layer).
func Momentary(layer int) Keycode {
	return Keycode{Kind: KindMomentary, Layer: uint8(layer)}
}

// Toggle returns TG(layer).
func Toggle(layer int) Keycode {
	return Keycode{Kind: KindToggle, Layer: uint8(layer)}
}

// To returns TO(layer).
func To(layer int) Keycode {
	return Keycode{Kind: KindTo, Layer: uint8(layer)}
}

// Default returns DF(layer).
func Default(layer int) Keycode {
	return Keycode{Kind: KindDefault, Layer: uint8(layer)}
}

// OneShotMod returns OSM(mods).
func OneShotMod(mods Mod) Keycode {
	return Keycode{Kind: KindOneShotMod, Mods: mods}
}

// OneShotLayer returns OSL(layer).
func OneShotLayer(layer int) Keycode {
	return Keycode{Kind: KindOneShotLayer, Layer: uint8(layer)}
}

// TapDance returns TD(id).
func TapDance(id int) Keycode {
	return Keycode{Kind: KindTapDance, ID: uint8(id)}
}

// Custom returns the custom keycode with index id.
func Custom(id int) Keycode {
	return Keycode{Kind: KindCustom, ID: uint8(id)}
}

// Feature returns a keycode of kind k with slot id, for feature keys that
// carry no other operand.
func Feature(k Kind, id int) Keycode {
	return Keycode{Kind: k, ID: uint8(id)}
}

// IsTapHold returns true for dual-role keys that need tap/hold resolution.
func (k Keycode) IsTapHold() bool {
	return k.Kind == KindModTap || k.Kind == KindLayerTap
}

// IsTransparent returns true for KC_TRNS.
func (k Keycode) IsTransparent() bool {
	return k.Kind == KindTransparent
}

// IsLayerKey returns true for keycodes whose only effect is on the layer stack.
func (k Keycode) IsLayerKey() bool {
	switch k.Kind {
	case KindMomentary, KindToggle, KindTo, KindDefault, KindOneShotLayer:
		return true
	}
	return false
}

// IsModifier returns true for basic keycodes that send a modifier usage.
func (k Keycode) IsModifier() bool {
	return k.Kind == KindBasic && k.Code.IsModifier()
}

// TapCode returns the usage sent when a basic or dual-role key is tapped.
func (k Keycode) TapCode() Usage {
	switch k.Kind {
	case KindBasic, KindModTap, KindLayerTap:
		return k.Code
	}
	return UsageNone
}

// TapOneShot returns true if tapping this layer-tap key applies a one-shot
// modifier rather than sending a usage.
func (k Keycode) TapOneShot() bool {
	return k.Kind == KindLayerTap && k.Code == UsageNone && k.Mods != ModNone
}

// String returns the keycode in keymap notation, e.g. "MT(MOD_LSFT, KC_D)".
func (k Keycode) String() string {
	switch k.Kind {
	case KindNone:
		return "KC_NO"
	case KindTransparent:
		return "KC_TRNS"
	case KindBasic:
		out := k.Code.String()
		for i := 7; i >= 0; i-- {
			if k.Mods&(1<<i) != 0 {
				out = modNames[i] + "(" + out + ")"
			}
		}
		return out
	case KindModTap:
		return fmt.Sprintf("MT(%s, %s)", modArg(k.Mods), k.Code)
	case KindLayerTap:
		if k.TapOneShot() {
			return fmt.Sprintf("LT(%d, OSM(%s))", k.Layer, modArg(k.Mods))
		}
		return fmt.Sprintf("LT(%d, %s)", k.Layer, WithMods(k.Code, k.Mods))
	case KindMomentary:
		return fmt.Sprintf("MO(%d)", k.Layer)
	case KindToggle:
		return fmt.Sprintf("TG(%d)", k.Layer)
	case KindTo:
		return fmt.Sprintf("TO(%d)", k.Layer)
	case KindDefault:
		return fmt.Sprintf("DF(%d)", k.Layer)
	case KindOneShotMod:
		return fmt.Sprintf("OSM(%s)", modArg(k.Mods))
	case KindOneShotLayer:
		return fmt.Sprintf("OSL(%d)", k.Layer)
	case KindTapDance:
		return fmt.Sprintf("TD(%d)", k.ID)
	case KindLeader:
		return "QK_LEAD"
	case KindMacroRecord:
		return fmt.Sprintf("DM_REC%d", k.ID+1)
	case KindMacroPlay:
		return fmt.Sprintf("DM_PLY%d", k.ID+1)
	case KindMacroStop:
		return "DM_RSTP"
	case KindLayerLock:
		return "QK_LLCK"
	case KindSentenceToggle:
		return "SC_TOGG"
	case KindSelectWord:
		return "SELWORD"
	case KindVimToggle:
		return "VIM_TOGG"
	case KindCapsToggle:
		return "CAPS_TOGG"
	case KindClearMods:
		return "CLR_MODS"
	case KindCustom:
		return fmt.Sprintf("CUSTOM(%d)", k.ID)
	default:
		return k.Kind.String()
	}
}

func modArg(m Mod) string {
	parts := strings.Split(m.String(), "|")
	for i, p := range parts {
		parts[i] = "MOD_" + p
	}
	return strings.Join(parts, "|")
}
