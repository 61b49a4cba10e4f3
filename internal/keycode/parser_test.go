package keycode

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testOpts = Options{
	Layers:    map[string]int{"BASE": 0, "LOWER": 1, "RAISE": 2},
	TapDances: map[string]int{"END_HOME": 0},
	Customs:   map[string]int{"EMAIL": 0, "BACKLIT": 1},
}

func TestParse(t *testing.T) {
	tests := []struct {
		spec string
		want Keycode
	}{
		{"KC_A", Basic(UsageA)},
		{"  kc_spc ", Basic(UsageSpace)},
		{"_______", Transparent},
		{"KC_TRNS", Transparent},
		{"XXXXXXX", No},
		{"KC_EXLM", WithMods(Usage1, ModLShift)},
		{"S(KC_1)", WithMods(Usage1, ModLShift)},
		{"LCTL(LSFT(KC_T))", WithMods(UsageT, ModLCtrl|ModLShift)},
		{"LSFT_T(KC_D)", ModTap(ModLShift, UsageD)},
		{"RCTL_T(KC_SCLN)", ModTap(ModRCtrl, UsageSemicolon)},
		{"MT(MOD_LCTL|MOD_LALT, KC_F)", ModTap(ModLCtrl|ModLAlt, UsageF)},
		{"MO(LOWER)", Momentary(1)},
		{"MO(_RAISE)", Momentary(2)},
		{"TG(2)", Toggle(2)},
		{"TO(BASE)", To(0)},
		{"DF(base)", Default(0)},
		{"OSL(LOWER)", OneShotLayer(1)},
		{"OSM(MOD_LSFT)", OneShotMod(ModLShift)},
		{"LT(LOWER, KC_SPC)", LayerTap(1, UsageSpace)},
		{"LT(LOWER, OSM(MOD_LSFT))", LayerTapOneShot(1, ModLShift)},
		{"TD(END_HOME)", TapDance(0)},
		{"QK_LEAD", Leader},
		{"DM_REC2", Feature(KindMacroRecord, 1)},
		{"QK_LLCK", Feature(KindLayerLock, 0)},
		{"SELWORD", Feature(KindSelectWord, 0)},
		{"EMAIL", Custom(0)},
		{"backlit", Custom(1)},
		{"CUSTOM(3)", Custom(3)},
		{"CUSTOM(EMAIL)", Custom(0)},
	}

	for _, tt := range tests {
		t.Run(tt.spec, func(t *testing.T) {
			got, err := Parse(tt.spec, testOpts)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		spec string
		err  error
	}{
		{"", ErrEmptySpec},
		{"KC_NOPE", ErrUnknownKeycode},
		{"MO(NOWHERE)", ErrUnknownLayer},
		{"MO(40)", ErrUnknownLayer},
		{"MO(1", ErrSyntax},
		{"MO(1, 2)", ErrSyntax},
		{"LT(1, MO(2))", ErrSyntax},
		{"LSFT_T(S(KC_A))", ErrSyntax},
		{"S(MO(1))", ErrSyntax},
		{"FOO(KC_A)", ErrUnknownKeycode},
		{"TD(NOPE)", ErrUnknownKeycode},
		{"OSM(BANANA)", ErrSyntax},
	}

	for _, tt := range tests {
		t.Run(tt.spec, func(t *testing.T) {
			_, err := Parse(tt.spec, testOpts)
			assert.ErrorIs(t, err, tt.err)
		})
	}
}

func TestParse_RoundTrip(t *testing.T) {
	for _, kc := range []Keycode{
		Basic(UsageA),
		WithMods(UsageT, ModLCtrl|ModLShift),
		ModTap(ModLCtrl|ModLAlt, UsageF),
		LayerTap(2, UsageEnter),
		LayerTapOneShot(1, ModLShift),
		Momentary(3),
		OneShotMod(ModRAlt),
		TapDance(2),
		Custom(4),
		Leader,
	} {
		got, err := Parse(kc.String(), Options{})
		require.NoError(t, err, kc.String())
		assert.Equal(t, kc, got, kc.String())
	}
}

func TestMustParse_Panics(t *testing.T) {
	assert.Panics(t, func() { MustParse("KC_NOPE", Options{}) })
	assert.Equal(t, Basic(UsageB), MustParse("KC_B", Options{}))
}
