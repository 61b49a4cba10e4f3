package keycode

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Parse errors
var (
	ErrEmptySpec      = errors.New("empty keycode specification")
	ErrSyntax         = errors.New("invalid keycode syntax")
	ErrUnknownKeycode = errors.New("unknown keycode")
	ErrUnknownLayer   = errors.New("unknown layer")
)

// Options resolves the symbolic names a keymap declares.
type Options struct {
	// Layers maps layer names to indices. Numeric layer arguments are
	// always accepted.
	Layers map[string]int

	// TapDances maps tap-dance names to their index.
	TapDances map[string]int

	// Customs maps custom keycode names to their index.
	Customs map[string]int
}

// shiftedAliases are US-layout names for shifted symbols.
var shiftedAliases = map[string]Usage{
	"KC_TILD": UsageGrave,
	"KC_EXLM": Usage1,
	"KC_AT":   Usage2,
	"KC_HASH": Usage3,
	"KC_DLR":  Usage4,
	"KC_PERC": Usage5,
	"KC_CIRC": Usage6,
	"KC_AMPR": Usage7,
	"KC_ASTR": Usage8,
	"KC_LPRN": Usage9,
	"KC_RPRN": Usage0,
	"KC_UNDS": UsageMinus,
	"KC_PLUS": UsageEqual,
	"KC_LCBR": UsageLeftBracket,
	"KC_RCBR": UsageRightBracket,
	"KC_PIPE": UsageBackslash,
	"KC_COLN": UsageSemicolon,
	"KC_DQUO": UsageQuote,
	"KC_LABK": UsageComma,
	"KC_RABK": UsageDot,
	"KC_QUES": UsageSlash,
}

// featureNames maps operand-less feature keycodes.
var featureNames = map[string]Keycode{
	"QK_LEAD":       Leader,
	"KC_LEAD":       Leader,
	"DM_REC1":       Feature(KindMacroRecord, 0),
	"DM_REC2":       Feature(KindMacroRecord, 1),
	"DM_PLY1":       Feature(KindMacroPlay, 0),
	"DM_PLY2":       Feature(KindMacroPlay, 1),
	"DM_RSTP":       Feature(KindMacroStop, 0),
	"QK_LLCK":       Feature(KindLayerLock, 0),
	"QK_LAYER_LOCK": Feature(KindLayerLock, 0),
	"SC_TOGG":       Feature(KindSentenceToggle, 0),
	"SELWORD":       Feature(KindSelectWord, 0),
	"VIM_TOGG":      Feature(KindVimToggle, 0),
	"CAPS_TOGG":     Feature(KindCapsToggle, 0),
	"CLR_MODS":      Feature(KindClearMods, 0),
}

// wrapperMods are the modifier wrapper functions, e.g. S(KC_1) or LCTL(KC_C).
var wrapperMods = map[string]Mod{
	"S": ModLShift, "C": ModLCtrl, "A": ModLAlt, "G": ModLGui,
	"LSFT": ModLShift, "LCTL": ModLCtrl, "LALT": ModLAlt, "LGUI": ModLGui, "LOPT": ModLAlt, "LCMD": ModLGui,
	"RSFT": ModRShift, "RCTL": ModRCtrl, "RALT": ModRAlt, "RGUI": ModRGui, "ROPT": ModRAlt, "RCMD": ModRGui,
	"SGUI": ModLShift | ModLGui, "MEH": ModLCtrl | ModLShift | ModLAlt, "HYPR": ModLCtrl | ModLShift | ModLAlt | ModLGui,
}

// Parse parses a keycode specification using the given name options.
//
// Supported formats:
//   - Plain names: "KC_A", "KC_ENT", "KC_LSFT", "_______", "XXXXXXX"
//   - Wrappers: "S(KC_1)", "LCTL(LSFT(KC_T))"
//   - Mod-tap: "LSFT_T(KC_D)", "MT(MOD_LCTL|MOD_LALT, KC_F)"
//   - Layer: "MO(1)", "LT(LOWER, KC_SPC)", "LT(LOWER, OSM(MOD_LSFT))"
//   - Feature: "TD(END_HOME)", "QK_LEAD", "DM_REC1", "SELWORD"
func Parse(spec string, opts Options) (Keycode, error) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return No, ErrEmptySpec
	}

	name, args, isCall, err := splitCall(spec)
	if err != nil {
		return No, err
	}
	if !isCall {
		return parseName(name, opts)
	}
	return parseCall(name, args, opts)
}

// MustParse parses a specification and panics on error.
// Use only for known-valid specs in initialization code and tests.
func MustParse(spec string, opts Options) Keycode {
	kc, err := Parse(spec, opts)
	if err != nil {
		panic("invalid keycode specification: " + spec + ": " + err.Error())
	}
	return kc
}

// splitCall splits "NAME(a, b)" into its name and top-level arguments.
func splitCall(spec string) (name string, args []string, isCall bool, err error) {
	open := strings.IndexByte(spec, '(')
	if open < 0 {
		if strings.ContainsAny(spec, "), ") {
			return "", nil, false, fmt.Errorf("%w: %q", ErrSyntax, spec)
		}
		return strings.ToUpper(spec), nil, false, nil
	}
	if !strings.HasSuffix(spec, ")") {
		return "", nil, false, fmt.Errorf("%w: unbalanced parentheses in %q", ErrSyntax, spec)
	}

	name = strings.ToUpper(strings.TrimSpace(spec[:open]))
	if name == "" {
		return "", nil, false, fmt.Errorf("%w: missing function name in %q", ErrSyntax, spec)
	}

	inner := spec[open+1 : len(spec)-1]
	depth, start := 0, 0
	for i, r := range inner {
		switch r {
		case '(':
			depth++
		case ')':
			depth--
			if depth < 0 {
				return "", nil, false, fmt.Errorf("%w: unbalanced parentheses in %q", ErrSyntax, spec)
			}
		case ',':
			if depth == 0 {
				args = append(args, strings.TrimSpace(inner[start:i]))
				start = i + 1
			}
		}
	}
	if depth != 0 {
		return "", nil, false, fmt.Errorf("%w: unbalanced parentheses in %q", ErrSyntax, spec)
	}
	args = append(args, strings.TrimSpace(inner[start:]))
	for _, a := range args {
		if a == "" {
			return "", nil, false, fmt.Errorf("%w: empty argument in %q", ErrSyntax, spec)
		}
	}
	return name, args, true, nil
}

// parseName parses an operand-less keycode name.
func parseName(name string, opts Options) (Keycode, error) {
	switch name {
	case "_______", "KC_TRNS", "KC_TRANSPARENT":
		return Transparent, nil
	case "XXXXXXX", "KC_NO":
		return No, nil
	}

	if kc, ok := featureNames[name]; ok {
		return kc, nil
	}
	if u, ok := shiftedAliases[name]; ok {
		return WithMods(u, ModLShift), nil
	}
	if strings.HasPrefix(name, "KC_") {
		if u, ok := UsageFromName(name); ok {
			return Basic(u), nil
		}
	}
	for custom, id := range opts.Customs {
		if strings.EqualFold(custom, name) {
			return Custom(id), nil
		}
	}
	return No, fmt.Errorf("%w: %q", ErrUnknownKeycode, name)
}

// parseCall parses a function-style keycode.
func parseCall(name string, args []string, opts Options) (Keycode, error) {
	want := func(n int) error {
		if len(args) != n {
			return fmt.Errorf("%w: %s takes %d argument(s), got %d", ErrSyntax, name, n, len(args))
		}
		return nil
	}

	switch name {
	case "MO", "TG", "TO", "DF", "OSL":
		if err := want(1); err != nil {
			return No, err
		}
		layer, err := parseLayer(args[0], opts)
		if err != nil {
			return No, err
		}
		switch name {
		case "MO":
			return Momentary(layer), nil
		case "TG":
			return Toggle(layer), nil
		case "TO":
			return To(layer), nil
		case "DF":
			return Default(layer), nil
		default:
			return OneShotLayer(layer), nil
		}

	case "OSM":
		if err := want(1); err != nil {
			return No, err
		}
		mods, ok := ParseMods(args[0])
		if !ok {
			return No, fmt.Errorf("%w: bad modifiers %q", ErrSyntax, args[0])
		}
		return OneShotMod(mods), nil

	case "TD":
		if err := want(1); err != nil {
			return No, err
		}
		id, err := lookupIndex(args[0], opts.TapDances)
		if err != nil {
			return No, fmt.Errorf("tap dance %w", err)
		}
		return TapDance(id), nil

	case "CUSTOM":
		if err := want(1); err != nil {
			return No, err
		}
		id, err := lookupIndex(args[0], opts.Customs)
		if err != nil {
			return No, fmt.Errorf("custom keycode %w", err)
		}
		return Custom(id), nil

	case "LT":
		if err := want(2); err != nil {
			return No, err
		}
		layer, err := parseLayer(args[0], opts)
		if err != nil {
			return No, err
		}
		tap, err := Parse(args[1], opts)
		if err != nil {
			return No, err
		}
		switch {
		case tap.Kind == KindOneShotMod:
			return LayerTapOneShot(layer, tap.Mods), nil
		case tap.Kind == KindBasic:
			kc := LayerTap(layer, tap.Code)
			kc.Mods = tap.Mods
			return kc, nil
		}
		return No, fmt.Errorf("%w: LT tap must be a basic key or OSM, got %s", ErrSyntax, tap)

	case "MT":
		if err := want(2); err != nil {
			return No, err
		}
		mods, ok := ParseMods(args[0])
		if !ok {
			return No, fmt.Errorf("%w: bad modifiers %q", ErrSyntax, args[0])
		}
		return parseModTap(mods, args[1], opts)
	}

	if strings.HasSuffix(name, "_T") {
		mods, ok := ParseMods(strings.TrimSuffix(name, "_T"))
		if !ok {
			return No, fmt.Errorf("%w: %s", ErrUnknownKeycode, name)
		}
		if err := want(1); err != nil {
			return No, err
		}
		return parseModTap(mods, args[0], opts)
	}

	if mods, ok := wrapperMods[name]; ok {
		if err := want(1); err != nil {
			return No, err
		}
		inner, err := Parse(args[0], opts)
		if err != nil {
			return No, err
		}
		if inner.Kind != KindBasic {
			return No, fmt.Errorf("%w: %s wraps basic keys only, got %s", ErrSyntax, name, inner)
		}
		inner.Mods = inner.Mods.With(mods)
		return inner, nil
	}

	return No, fmt.Errorf("%w: %s(...)", ErrUnknownKeycode, name)
}

func parseModTap(mods Mod, arg string, opts Options) (Keycode, error) {
	tap, err := Parse(arg, opts)
	if err != nil {
		return No, err
	}
	if tap.Kind != KindBasic || tap.Mods != ModNone {
		return No, fmt.Errorf("%w: mod-tap tap must be a plain basic key, got %s", ErrSyntax, tap)
	}
	return ModTap(mods, tap.Code), nil
}

// parseLayer accepts a layer index or a declared layer name.
func parseLayer(arg string, opts Options) (int, error) {
	if n, err := strconv.Atoi(arg); err == nil {
		if n < 0 || n > 31 {
			return 0, fmt.Errorf("%w: index %d out of range", ErrUnknownLayer, n)
		}
		return n, nil
	}
	for name, idx := range opts.Layers {
		if strings.EqualFold(name, arg) || strings.EqualFold("_"+name, arg) {
			return idx, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownLayer, arg)
}

func lookupIndex(arg string, names map[string]int) (int, error) {
	if n, err := strconv.Atoi(arg); err == nil && n >= 0 {
		return n, nil
	}
	for name, idx := range names {
		if strings.EqualFold(name, arg) {
			return idx, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownKeycode, arg)
}
