package keycode

import (
	"fmt"
	"strings"
)

// Usage is a HID keyboard/keypad page usage id.
type Usage uint8

// HID usage codes for keyboard keys (USB HID Keyboard/Keypad usage page)
const (
	UsageNone           Usage = 0x00

	// Letters A-Z
	UsageA              Usage = 0x04
	UsageB              Usage = 0x05
	UsageC              Usage = 0x06
	UsageD              Usage = 0x07
	UsageE              Usage = 0x08
	UsageF              Usage = 0x09
	UsageG              Usage = 0x0A
	UsageH              Usage = 0x0B
	UsageI              Usage = 0x0C
	UsageJ              Usage = 0x0D
	UsageK              Usage = 0x0E
	UsageL              Usage = 0x0F
	UsageM              Usage = 0x10
	UsageN              Usage = 0x11
	UsageO              Usage = 0x12
	UsageP              Usage = 0x13
	UsageQ              Usage = 0x14
	UsageR              Usage = 0x15
	UsageS              Usage = 0x16
	UsageT              Usage = 0x17
	UsageU              Usage = 0x18
	UsageV              Usage = 0x19
	UsageW              Usage = 0x1A
	UsageX              Usage = 0x1B
	UsageY              Usage = 0x1C
	UsageZ              Usage = 0x1D

	// Numbers 1-0 (top row)
	Usage1              Usage = 0x1E
	Usage2              Usage = 0x1F
	Usage3              Usage = 0x20
	Usage4              Usage = 0x21
	Usage5              Usage = 0x22
	Usage6              Usage = 0x23
	Usage7              Usage = 0x24
	Usage8              Usage = 0x25
	Usage9              Usage = 0x26
	Usage0              Usage = 0x27

	// Control and punctuation
	UsageEnter          Usage = 0x28
	UsageEscape         Usage = 0x29
	UsageBackspace      Usage = 0x2A
	UsageTab            Usage = 0x2B
	UsageSpace          Usage = 0x2C
	UsageMinus          Usage = 0x2D
	UsageEqual          Usage = 0x2E
	UsageLeftBracket    Usage = 0x2F
	UsageRightBracket   Usage = 0x30
	UsageBackslash      Usage = 0x31
	UsageNonUSHash      Usage = 0x32
	UsageSemicolon      Usage = 0x33
	UsageQuote          Usage = 0x34
	UsageGrave          Usage = 0x35
	UsageComma          Usage = 0x36
	UsageDot            Usage = 0x37
	UsageSlash          Usage = 0x38
	UsageCapsLock       Usage = 0x39

	// Function keys
	UsageF1             Usage = 0x3A
	UsageF2             Usage = 0x3B
	UsageF3             Usage = 0x3C
	UsageF4             Usage = 0x3D
	UsageF5             Usage = 0x3E
	UsageF6             Usage = 0x3F
	UsageF7             Usage = 0x40
	UsageF8             Usage = 0x41
	UsageF9             Usage = 0x42
	UsageF10            Usage = 0x43
	UsageF11            Usage = 0x44
	UsageF12            Usage = 0x45

	// Navigation and system
	UsagePrintScreen    Usage = 0x46
	UsageScrollLock     Usage = 0x47
	UsagePause          Usage = 0x48
	UsageInsert         Usage = 0x49
	UsageHome           Usage = 0x4A
	UsagePageUp         Usage = 0x4B
	UsageDelete         Usage = 0x4C
	UsageEnd            Usage = 0x4D
	UsagePageDown       Usage = 0x4E
	UsageRight          Usage = 0x4F
	UsageLeft           Usage = 0x50
	UsageDown           Usage = 0x51
	UsageUp             Usage = 0x52
	UsageNonUSBackslash Usage = 0x64
	UsageApplication    Usage = 0x65
	UsageMute           Usage = 0x7F
	UsageVolumeUp       Usage = 0x80
	UsageVolumeDown     Usage = 0x81

	// Modifiers, in Mod bit order
	UsageLCtrl          Usage = 0xE0
	UsageLShift         Usage = 0xE1
	UsageLAlt           Usage = 0xE2
	UsageLGui           Usage = 0xE3
	UsageRCtrl          Usage = 0xE4
	UsageRShift         Usage = 0xE5
	UsageRAlt           Usage = 0xE6
	UsageRGui           Usage = 0xE7
)

// IsModifier returns true if u is one of the eight modifier usages.
func (u Usage) IsModifier() bool {
	return u >= UsageLCtrl && u <= UsageRGui
}

// Mod returns the modifier bit for a modifier usage, or ModNone.
func (u Usage) Mod() Mod {
	if !u.IsModifier() {
		return ModNone
	}
	return Mod(1) << (u - UsageLCtrl)
}

// IsLetter returns true for KC_A through KC_Z.
func (u Usage) IsLetter() bool {
	return u >= UsageA && u <= UsageZ
}

// IsDigit returns true for the top-row digits KC_1 through KC_0.
func (u Usage) IsDigit() bool {
	return u >= Usage1 && u <= Usage0
}

// IsArrow returns true if this is an arrow key.
func (u Usage) IsArrow() bool {
	return u >= UsageRight && u <= UsageUp
}

// IsNavigation returns true for arrows, Home, End, PageUp and PageDown.
func (u Usage) IsNavigation() bool {
	return u.IsArrow() || u == UsageHome || u == UsageEnd || u == UsagePageUp || u == UsagePageDown
}

// String returns the short QMK name, e.g. "KC_A" or "KC_ENT".
func (u Usage) String() string {
	if name, ok := usageNames[u]; ok {
		return name
	}
	return fmt.Sprintf("KC_0x%02X", uint8(u))
}

// usageTable lists every usage with its short name first, then aliases.
var usageTable = []struct {
	usage Usage
	names []string
}{
	{UsageA, []string{"KC_A"}},
	{UsageB, []string{"KC_B"}},
	{UsageC, []string{"KC_C"}},
	{UsageD, []string{"KC_D"}},
	{UsageE, []string{"KC_E"}},
	{UsageF, []string{"KC_F"}},
	{UsageG, []string{"KC_G"}},
	{UsageH, []string{"KC_H"}},
	{UsageI, []string{"KC_I"}},
	{UsageJ, []string{"KC_J"}},
	{UsageK, []string{"KC_K"}},
	{UsageL, []string{"KC_L"}},
	{UsageM, []string{"KC_M"}},
	{UsageN, []string{"KC_N"}},
	{UsageO, []string{"KC_O"}},
	{UsageP, []string{"KC_P"}},
	{UsageQ, []string{"KC_Q"}},
	{UsageR, []string{"KC_R"}},
	{UsageS, []string{"KC_S"}},
	{UsageT, []string{"KC_T"}},
	{UsageU, []string{"KC_U"}},
	{UsageV, []string{"KC_V"}},
	{UsageW, []string{"KC_W"}},
	{UsageX, []string{"KC_X"}},
	{UsageY, []string{"KC_Y"}},
	{UsageZ, []string{"KC_Z"}},
	{Usage1, []string{"KC_1"}},
	{Usage2, []string{"KC_2"}},
	{Usage3, []string{"KC_3"}},
	{Usage4, []string{"KC_4"}},
	{Usage5, []string{"KC_5"}},
	{Usage6, []string{"KC_6"}},
	{Usage7, []string{"KC_7"}},
	{Usage8, []string{"KC_8"}},
	{Usage9, []string{"KC_9"}},
	{Usage0, []string{"KC_0"}},
	{UsageEnter, []string{"KC_ENT", "KC_ENTER"}},
	{UsageEscape, []string{"KC_ESC", "KC_ESCAPE"}},
	{UsageBackspace, []string{"KC_BSPC", "KC_BACKSPACE"}},
	{UsageTab, []string{"KC_TAB"}},
	{UsageSpace, []string{"KC_SPC", "KC_SPACE"}},
	{UsageMinus, []string{"KC_MINS", "KC_MINUS"}},
	{UsageEqual, []string{"KC_EQL", "KC_EQUAL"}},
	{UsageLeftBracket, []string{"KC_LBRC", "KC_LEFT_BRACKET"}},
	{UsageRightBracket, []string{"KC_RBRC", "KC_RIGHT_BRACKET"}},
	{UsageBackslash, []string{"KC_BSLS", "KC_BACKSLASH"}},
	{UsageNonUSHash, []string{"KC_NUHS", "KC_NONUS_HASH"}},
	{UsageSemicolon, []string{"KC_SCLN", "KC_SEMICOLON"}},
	{UsageQuote, []string{"KC_QUOT", "KC_QUOTE"}},
	{UsageGrave, []string{"KC_GRV", "KC_GRAVE"}},
	{UsageComma, []string{"KC_COMM", "KC_COMMA"}},
	{UsageDot, []string{"KC_DOT"}},
	{UsageSlash, []string{"KC_SLSH", "KC_SLASH"}},
	{UsageCapsLock, []string{"KC_CAPS", "KC_CAPS_LOCK"}},
	{UsageF1, []string{"KC_F1"}},
	{UsageF2, []string{"KC_F2"}},
	{UsageF3, []string{"KC_F3"}},
	{UsageF4, []string{"KC_F4"}},
	{UsageF5, []string{"KC_F5"}},
	{UsageF6, []string{"KC_F6"}},
	{UsageF7, []string{"KC_F7"}},
	{UsageF8, []string{"KC_F8"}},
	{UsageF9, []string{"KC_F9"}},
	{UsageF10, []string{"KC_F10"}},
	{UsageF11, []string{"KC_F11"}},
	{UsageF12, []string{"KC_F12"}},
	{UsagePrintScreen, []string{"KC_PSCR", "KC_PRINT_SCREEN"}},
	{UsageScrollLock, []string{"KC_SCRL", "KC_SCROLL_LOCK"}},
	{UsagePause, []string{"KC_PAUS", "KC_PAUSE"}},
	{UsageInsert, []string{"KC_INS", "KC_INSERT"}},
	{UsageHome, []string{"KC_HOME"}},
	{UsagePageUp, []string{"KC_PGUP", "KC_PAGE_UP"}},
	{UsageDelete, []string{"KC_DEL", "KC_DELETE"}},
	{UsageEnd, []string{"KC_END"}},
	{UsagePageDown, []string{"KC_PGDN", "KC_PAGE_DOWN"}},
	{UsageRight, []string{"KC_RGHT", "KC_RIGHT"}},
	{UsageLeft, []string{"KC_LEFT"}},
	{UsageDown, []string{"KC_DOWN"}},
	{UsageUp, []string{"KC_UP"}},
	{UsageNonUSBackslash, []string{"KC_NUBS", "KC_NONUS_BACKSLASH"}},
	{UsageApplication, []string{"KC_APP", "KC_APPLICATION"}},
	{UsageMute, []string{"KC_MUTE", "KC_KB_MUTE"}},
	{UsageVolumeUp, []string{"KC_VOLU", "KC_KB_VOLUME_UP"}},
	{UsageVolumeDown, []string{"KC_VOLD", "KC_KB_VOLUME_DOWN"}},
	{UsageLCtrl, []string{"KC_LCTL", "KC_LEFT_CTRL"}},
	{UsageLShift, []string{"KC_LSFT", "KC_LEFT_SHIFT"}},
	{UsageLAlt, []string{"KC_LALT", "KC_LEFT_ALT", "KC_LOPT"}},
	{UsageLGui, []string{"KC_LGUI", "KC_LEFT_GUI", "KC_LCMD"}},
	{UsageRCtrl, []string{"KC_RCTL", "KC_RIGHT_CTRL"}},
	{UsageRShift, []string{"KC_RSFT", "KC_RIGHT_SHIFT"}},
	{UsageRAlt, []string{"KC_RALT", "KC_RIGHT_ALT", "KC_ALGR"}},
	{UsageRGui, []string{"KC_RGUI", "KC_RIGHT_GUI", "KC_RCMD"}},
}

// usageNames maps usages to their short names.
var usageNames = make(map[Usage]string, len(usageTable))

// usageByName maps every accepted name (upper case) to its usage.
var usageByName = map[string]Usage{
	"KC_NO": UsageNone,
}

func init() {
	for _, entry := range usageTable {
		usageNames[entry.usage] = entry.names[0]
		for _, name := range entry.names {
			usageByName[name] = entry.usage
		}
	}
}

// UsageFromName returns the usage for a name such as "KC_A" or "KC_ENT"
// (case-insensitive). The "KC_" prefix is optional.
func UsageFromName(name string) (Usage, bool) {
	name = strings.ToUpper(strings.TrimSpace(name))
	if !strings.HasPrefix(name, "KC_") {
		name = "KC_" + name
	}
	u, ok := usageByName[name]
	return u, ok
}
