package keycode

import "strings"

// Mod represents the HID modifier byte.
type Mod uint8

const (
	// ModNone indicates no modifiers.
	ModNone Mod = 0

	// ModLCtrl is the left Control key.
	ModLCtrl Mod = 0x01
	// ModLShift is the left Shift key.
	ModLShift Mod = 0x02
	// ModLAlt is the left Alt key (Option on macOS).
	ModLAlt Mod = 0x04
	// ModLGui is the left GUI key (Cmd on macOS, Win on Windows).
	ModLGui Mod = 0x08
	// ModRCtrl is the right Control key.
	ModRCtrl Mod = 0x10
	// ModRShift is the right Shift key.
	ModRShift Mod = 0x20
	// ModRAlt is the right Alt key (AltGr).
	ModRAlt Mod = 0x40
	// ModRGui is the right GUI key.
	ModRGui Mod = 0x80
)

// Shift bits of either hand.
const ModShift = ModLShift | ModRShift

// Has returns true if m contains any bit of mod.
func (m Mod) Has(mod Mod) bool {
	return m&mod != 0
}

// HasShift returns true if either Shift is set.
func (m Mod) HasShift() bool {
	return m.Has(ModShift)
}

// With returns a new Mod with the specified modifier added.
func (m Mod) With(mod Mod) Mod {
	return m | mod
}

// Without returns a new Mod with the specified modifier removed.
func (m Mod) Without(mod Mod) Mod {
	return m &^ mod
}

// IsEmpty returns true if no modifiers are set.
func (m Mod) IsEmpty() bool {
	return m == ModNone
}

// Usage returns the HID usage of the lowest set modifier bit, or UsageNone.
func (m Mod) Usage() Usage {
	for i := 0; i < 8; i++ {
		if m&(1<<i) != 0 {
			return UsageLCtrl + Usage(i)
		}
	}
	return UsageNone
}

var modNames = [8]string{"LCTL", "LSFT", "LALT", "LGUI", "RCTL", "RSFT", "RALT", "RGUI"}

// String returns the modifier names joined with "|", e.g. "LCTL|LSFT".
func (m Mod) String() string {
	if m == ModNone {
		return ""
	}
	var parts []string
	for i, name := range modNames {
		if m&(1<<i) != 0 {
			parts = append(parts, name)
		}
	}
	return strings.Join(parts, "|")
}

// modNameMap maps modifier names (upper case) to Mod values.
var modNameMap = map[string]Mod{
	"LCTL": ModLCtrl, "LCTRL": ModLCtrl, "CTL": ModLCtrl, "CTRL": ModLCtrl, "C": ModLCtrl,
	"LSFT": ModLShift, "LSHIFT": ModLShift, "SFT": ModLShift, "SHIFT": ModLShift, "S": ModLShift,
	"LALT": ModLAlt, "LOPT": ModLAlt, "ALT": ModLAlt, "OPT": ModLAlt, "A": ModLAlt,
	"LGUI": ModLGui, "LCMD": ModLGui, "LWIN": ModLGui, "GUI": ModLGui, "CMD": ModLGui, "G": ModLGui,
	"RCTL": ModRCtrl, "RCTRL": ModRCtrl,
	"RSFT": ModRShift, "RSHIFT": ModRShift,
	"RALT": ModRAlt, "ALGR": ModRAlt, "ROPT": ModRAlt,
	"RGUI": ModRGui, "RCMD": ModRGui, "RWIN": ModRGui,
}

// ModFromName returns the Mod for a single name such as "LSFT" or
// "MOD_LSFT" (case-insensitive). Returns ModNone if the name is not recognized.
func ModFromName(name string) Mod {
	name = strings.ToUpper(strings.TrimSpace(name))
	name = strings.TrimPrefix(name, "MOD_")
	name = strings.TrimPrefix(name, "KC_")
	return modNameMap[name]
}

// ParseMods parses a modifier list like "LCTL|LSFT" or "MOD_LCTL | MOD_LALT".
// Unknown names yield ok == false.
func ParseMods(s string) (Mod, bool) {
	var result Mod
	for _, part := range strings.FieldsFunc(s, func(r rune) bool { return r == '|' || r == '+' }) {
		mod := ModFromName(part)
		if mod == ModNone {
			return ModNone, false
		}
		result = result.With(mod)
	}
	return result, result != ModNone
}
