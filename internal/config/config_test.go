package config

import (
	"io/fs"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/keyweave/internal/config/loader"
	"github.com/dshills/keyweave/internal/engine"
	"github.com/dshills/keyweave/internal/feature/layerlock"
	"github.com/dshills/keyweave/internal/hid"
	"github.com/dshills/keyweave/internal/keyboard"
	"github.com/dshills/keyweave/internal/keycode"
	"github.com/dshills/keyweave/internal/layer"
	"github.com/dshills/keyweave/internal/taphold"
)

type memFS map[string]string

func (m memFS) Open(name string) (fs.File, error) {
	return nil, fs.ErrNotExist
}

func (m memFS) ReadFile(path string) ([]byte, error) {
	data, ok := m[path]
	if !ok {
		return nil, fs.ErrNotExist
	}
	return []byte(data), nil
}

const testTOML = `
schema_version = "1.0"
name = "mini"
default_layer = "base"
adjust_layer = "adjust"
muse_layer = "raise"
script = "mini.lua"

[matrix]
rows = 2
cols = 3

[[layers]]
name = "base"
keys = [
  ["KC_A", "KC_B", "LT(LOWER, KC_SPC)"],
  ["MO(LOWER)", "MO(RAISE)", "TD(END_HOME)"],
]

[[layers]]
name = "lower"
keys = [
  ["KC_1", "_______", "_______"],
  ["_______", "_______", "BACKLIT"],
]

[[layers]]
name = "raise"
keys = [
  ["KC_2", "S(KC_1)", "_______"],
  ["_______", "_______", "TO(BASE)"],
]

[[layers]]
name = "adjust"
keys = [
  ["DF(BASE)", "XXXXXXX", "XXXXXXX"],
  ["_______", "_______", "XXXXXXX"],
]

[[tri_layers]]
lower = "lower"
upper = "raise"
result = "adjust"

[timing]
tapping_term = "200ms"
quick_tap_term = 120
permissive_hold = false
combo_term = 40
tap_dance_term = "180ms"
leader_timeout = "1s"
leader_per_key = true
layer_lock_timeout = "30s"

[[overrides]]
key = [0, 2]
tapping_term = 250
hold_on_other_key_press = true

[[combos]]
name = "esc"
keys = [[0, 0], [0, 1]]
result = "KC_ESC"
term = 30

[[tap_dances]]
name = "END_HOME"
actions = ["KC_END", "KC_HOME"]

[[leader]]
name = "copy"
keys = ["KC_A", "KC_B"]
any_order = true
taps = ["LCTL(KC_C)"]

[[leader]]
keys = ["KC_S"]
text = "sig"
one_shot = "LSFT"

[[customs]]
name = "BACKLIT"
hold_mods = "RSFT"
script = "backlit"

[[encoders]]
clockwise = "KC_VOLU"
counter_clockwise = "KC_VOLD"

[features]
vim_word_mod = "LALT"
macro_slots = 3
sentence_terminators = ["KC_DOT"]
select_word_mod = "LALT"
`

const testYAML = `
schema_version: "1.0"
name: mini
matrix: {rows: 1, cols: 2}
layers:
  - name: base
    keys: [[KC_A, "MT(MOD_LSFT, KC_D)"]]
timing:
  tapping_term: 150
`

func loadTOML(t *testing.T, opts ...Option) (*Keyboard, error) {
	t.Helper()
	fsys := memFS{"/kb/mini.toml": testTOML}
	return NewLoader(append([]Option{WithFS(fsys), WithoutEnv()}, opts...)...).Load("/kb/mini.toml")
}

func TestLoad_TOML(t *testing.T) {
	kb, err := loadTOML(t)
	require.NoError(t, err)
	cfg := kb.Engine

	assert.Equal(t, "mini", kb.Name)
	assert.Equal(t, "1.0.0", kb.Version.String())
	assert.Equal(t, filepath.Join("/kb", "mini.lua"), kb.Script)

	require.Equal(t, 4, cfg.Keymap.Len())
	assert.Equal(t, 0, cfg.Default)
	assert.Equal(t, 3, cfg.AdjustLayer)
	assert.Equal(t, 2, cfg.MuseLayer)
	assert.Equal(t, []layer.TriLayer{{Lower: 1, Upper: 2, Result: 3}}, cfg.TriLayers)

	at := func(l, r, c int) keycode.Keycode {
		return cfg.Keymap.Layers[l].Keys[r][c]
	}
	assert.Equal(t, keycode.LayerTap(1, keycode.UsageSpace), at(0, 0, 2))
	assert.Equal(t, keycode.Momentary(2), at(0, 1, 1))
	assert.Equal(t, keycode.TapDance(0), at(0, 1, 2))
	assert.Equal(t, keycode.Custom(0), at(1, 1, 2))
	assert.Equal(t, keycode.WithMods(keycode.Usage1, keycode.ModLShift), at(2, 0, 1))
	assert.Equal(t, keycode.To(0), at(2, 1, 2))
	assert.Equal(t, keycode.Default(0), at(3, 0, 0))
	assert.True(t, at(1, 0, 1).IsTransparent())

	assert.Equal(t, taphold.Policy{
		Term:           200 * time.Millisecond,
		QuickTapTerm:   120 * time.Millisecond,
		PermissiveHold: false,
	}, cfg.Policy)
	assert.Equal(t, taphold.Policy{
		Term:                250 * time.Millisecond,
		QuickTapTerm:        120 * time.Millisecond,
		HoldOnOtherKeyPress: true,
	}, cfg.Overrides[keyboard.Position{Row: 0, Col: 2}])

	assert.Equal(t, 40*time.Millisecond, cfg.ComboTerm)
	require.Len(t, cfg.Combos, 1)
	assert.Equal(t, []keyboard.Position{{Row: 0, Col: 0}, {Row: 0, Col: 1}}, cfg.Combos[0].Keys)
	assert.Equal(t, keycode.Basic(keycode.UsageEscape), cfg.Combos[0].Result)
	assert.Equal(t, 30*time.Millisecond, cfg.Combos[0].Term)

	assert.Equal(t, 180*time.Millisecond, cfg.DanceTerm)
	require.Len(t, cfg.Dances, 1)
	assert.Equal(t, []keycode.Keycode{keycode.Basic(keycode.UsageEnd), keycode.Basic(keycode.UsageHome)}, cfg.Dances[0].Actions)

	assert.Equal(t, time.Second, cfg.Leader.Timeout)
	assert.True(t, cfg.Leader.PerKeyTiming)
	require.Len(t, cfg.Patterns, 2)
	assert.Equal(t, []keycode.Usage{keycode.UsageA, keycode.UsageB}, cfg.Patterns[0].Keys)
	assert.True(t, cfg.Patterns[0].AnyOrder)
	assert.Equal(t, []keycode.Keycode{keycode.WithMods(keycode.UsageC, keycode.ModLCtrl)}, cfg.Patterns[0].Action.Taps)
	assert.Equal(t, "sig", cfg.Patterns[1].Action.Text)
	assert.Equal(t, keycode.ModLShift, cfg.Patterns[1].Action.OneShot)

	require.Len(t, cfg.Customs, 1)
	assert.Equal(t, engine.Custom{Name: "BACKLIT", HoldMods: keycode.ModRShift, Script: "backlit"}, cfg.Customs[0])

	assert.Equal(t, []engine.Encoder{{
		Clockwise:        keycode.Basic(keycode.UsageVolumeUp),
		CounterClockwise: keycode.Basic(keycode.UsageVolumeDown),
	}}, cfg.Encoders)

	assert.Equal(t, keycode.ModLAlt, cfg.Features.Vim.WordMod)
	assert.Equal(t, keycode.ModLCtrl, cfg.Features.Vim.ShortcutMod)
	assert.Equal(t, 3, cfg.Features.MacroSlots)
	assert.Equal(t, 30*time.Second, cfg.Features.LayerLockTimeout)
	assert.Equal(t, []keycode.Keycode{keycode.Basic(keycode.UsageDot)}, cfg.Features.Terminators)
	assert.Equal(t, keycode.ModLAlt, cfg.Features.WordMod)
}

func TestLoad_EngineAcceptsCompiledConfig(t *testing.T) {
	kb, err := loadTOML(t)
	require.NoError(t, err)

	_, err = engine.New(kb.Engine, &hid.Recorder{})
	require.NoError(t, err)
}

func TestParse_YAML(t *testing.T) {
	kb, err := NewLoader(WithoutEnv()).Parse(loader.FormatYAML, []byte(testYAML))
	require.NoError(t, err)

	assert.Equal(t, "", kb.Path)
	assert.Equal(t, keycode.ModTap(keycode.ModLShift, keycode.UsageD), kb.Engine.Keymap.Layers[0].Keys[0][1])
	assert.Equal(t, 150*time.Millisecond, kb.Engine.Policy.Term)
	assert.True(t, kb.Engine.Policy.PermissiveHold, "unset permissive_hold keeps the default")
	assert.Equal(t, engine.DefaultFeatures(), kb.Engine.Features)
}

func TestParse_LayerLockTimeout(t *testing.T) {
	tests := []struct {
		name  string
		extra string
		want  time.Duration
	}{
		{"unset keeps the default", "", layerlock.DefaultTimeout},
		{"zero never releases", "  layer_lock_timeout: 0\n", 0},
		{"explicit", "  layer_lock_timeout: 5s\n", 5 * time.Second},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kb, err := NewLoader(WithoutEnv()).Parse(loader.FormatYAML, []byte(testYAML+tt.extra))
			require.NoError(t, err)
			assert.Equal(t, tt.want, kb.Engine.Features.LayerLockTimeout)
		})
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("KEYWEAVE_TAPPING_TERM", "300ms")
	t.Setenv("KEYWEAVE_TIMING_COMBO_TERM", "25")
	t.Setenv("KEYWEAVE_LOG_LEVEL", "debug")

	fsys := memFS{"/kb/mini.toml": testTOML}
	kb, err := NewLoader(WithFS(fsys)).Load("/kb/mini.toml")
	require.NoError(t, err)

	assert.Equal(t, 300*time.Millisecond, kb.Engine.Policy.Term)
	assert.Equal(t, 25*time.Millisecond, kb.Engine.ComboTerm)

	kb, err = loadTOML(t)
	require.NoError(t, err)
	assert.Equal(t, 200*time.Millisecond, kb.Engine.Policy.Term, "WithoutEnv ignores the environment")
}

func TestLoad_SchemaVersion(t *testing.T) {
	tests := []struct {
		version string
		wantErr bool
	}{
		{"", false},
		{"1.0", false},
		{"1.4.2", false},
		{"2.0", true},
		{"0.9", true},
		{"banana", true},
	}
	for _, tt := range tests {
		t.Run(tt.version, func(t *testing.T) {
			src := "schema_version: \"" + tt.version + "\"\n" + testYAML[len("\nschema_version: \"1.0\"\n"):]
			_, err := NewLoader(WithoutEnv()).Parse(loader.FormatYAML, []byte(src))
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrSchemaVersion)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestLoad_ValidationErrors(t *testing.T) {
	tests := []struct {
		name  string
		src   string
		err   error
		field string
	}{
		{
			name:  "unknown keycode",
			src:   `{matrix: {rows: 1, cols: 1}, layers: [{name: a, keys: [[KC_NOPE]]}]}`,
			err:   keycode.ErrUnknownKeycode,
			field: "layers[0].keys[0][0]",
		},
		{
			name:  "unknown layer",
			src:   `{matrix: {rows: 1, cols: 1}, layers: [{name: a, keys: [[KC_A]]}], muse_layer: raise}`,
			err:   ErrUnknownName,
			field: "muse_layer",
		},
		{
			name:  "duplicate layer",
			src:   `{matrix: {rows: 1, cols: 1}, layers: [{name: a, keys: [[KC_A]]}, {name: A, keys: [[KC_B]]}]}`,
			err:   ErrDuplicateName,
			field: "layers[1].name",
		},
		{
			name:  "shape",
			src:   `{matrix: {rows: 1, cols: 2}, layers: [{name: a, keys: [[KC_A]]}]}`,
			err:   layer.ErrShape,
			field: "layers",
		},
		{
			name:  "transparent default",
			src:   `{matrix: {rows: 1, cols: 1}, layers: [{name: a, keys: [[_______]]}]}`,
			err:   layer.ErrTransparentKey,
			field: "default_layer",
		},
		{
			name:  "combo outside matrix",
			src:   `{matrix: {rows: 1, cols: 1}, layers: [{name: a, keys: [[KC_A]]}], combos: [{keys: [[0, 0], [0, 5]], result: KC_B}]}`,
			err:   ErrPosition,
			field: "combos[0].keys[1]",
		},
		{
			name:  "single key combo",
			src:   `{matrix: {rows: 1, cols: 1}, layers: [{name: a, keys: [[KC_A]]}], combos: [{keys: [[0, 0]], result: KC_B}]}`,
			err:   ErrInvalidValue,
			field: "combos[0].keys",
		},
		{
			name:  "custom shadows builtin",
			src:   `{matrix: {rows: 1, cols: 1}, layers: [{name: a, keys: [[KC_A]]}], customs: [{name: KC_A}]}`,
			err:   ErrDuplicateName,
			field: "customs[0].name",
		},
		{
			name:  "script without file",
			src:   `{matrix: {rows: 1, cols: 1}, layers: [{name: a, keys: [[KC_A]]}], customs: [{name: X, script: f}]}`,
			err:   ErrInvalidValue,
			field: "customs[0].script",
		},
		{
			name:  "modifier leader key",
			src:   `{matrix: {rows: 1, cols: 1}, layers: [{name: a, keys: [[KC_A]]}], leader: [{keys: [KC_LSFT], text: x}]}`,
			err:   ErrInvalidValue,
			field: "leader[0].keys[0]",
		},
		{
			name:  "bad mods",
			src:   `{matrix: {rows: 1, cols: 1}, layers: [{name: a, keys: [[KC_A]]}], leader: [{keys: [KC_A], one_shot: HYPERX}]}`,
			err:   ErrInvalidValue,
			field: "leader[0].one_shot",
		},
		{
			name:  "bad duration",
			src:   `{matrix: {rows: 1, cols: 1}, layers: [{name: a, keys: [[KC_A]]}], timing: {combo_term: soon}}`,
			err:   ErrInvalidValue,
			field: "file",
		},
		{
			name:  "unknown field",
			src:   `{matrix: {rows: 1, cols: 1}, layers: [{name: a, keys: [[KC_A]]}], colour: red}`,
			err:   ErrInvalidValue,
			field: "file",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewLoader(WithoutEnv()).Parse(loader.FormatYAML, []byte(tt.src))
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.err)

			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Field)
		})
	}
}

func TestLoad_CollectsAllErrors(t *testing.T) {
	src := `{matrix: {rows: 1, cols: 2}, layers: [{name: a, keys: [[KC_X1, KC_X2]]}], adjust_layer: nope}`
	_, err := NewLoader(WithoutEnv()).Parse(loader.FormatYAML, []byte(src))

	var errs ValidationErrors
	require.ErrorAs(t, err, &errs)
	assert.Len(t, errs, 3)
	assert.Contains(t, err.Error(), "and 2 more")
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := NewLoader(WithFS(memFS{}), WithoutEnv()).Load("/nope.toml")
	assert.ErrorIs(t, err, fs.ErrNotExist)
}

func TestParseDuration(t *testing.T) {
	tests := []struct {
		in      string
		want    time.Duration
		wantErr bool
	}{
		{"190", 190 * time.Millisecond, false},
		{"0", 0, false},
		{"1.5s", 1500 * time.Millisecond, false},
		{"50ms", 50 * time.Millisecond, false},
		{"-5", 0, true},
		{"-5ms", 0, true},
		{"later", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseDuration(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidValue)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.Std())
		})
	}
}

func TestSchema(t *testing.T) {
	data, err := SchemaJSON()
	require.NoError(t, err)

	s := string(data)
	assert.Contains(t, s, `"tapping_term"`)
	assert.Contains(t, s, `"tap_dances"`)
	assert.Contains(t, s, `"hold_mods"`)
	assert.Contains(t, s, "milliseconds")
	assert.Contains(t, s, SchemaID)
}

func TestFileStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "planck.toml")

	s := NewFileStore(path, "planck")
	_, ok := s.LoadDefault()
	assert.False(t, ok)

	require.NoError(t, s.SaveDefault(2))
	def, ok := s.LoadDefault()
	assert.True(t, ok)
	assert.Equal(t, 2, def)

	other := NewFileStore(path, "preonic")
	_, ok = other.LoadDefault()
	assert.False(t, ok, "state saved for another keyboard is ignored")

	require.NoError(t, os.WriteFile(path, []byte("default_layer = ["), 0o644))
	_, ok = s.LoadDefault()
	assert.False(t, ok)
}

func TestLoader_Watch(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "mini.yaml")
	require.NoError(t, os.WriteFile(path, []byte(testYAML), 0o644))

	results := make(chan *Keyboard, 4)
	errs := make(chan error, 4)
	w, err := NewLoader(WithoutEnv()).Watch(path, func(kb *Keyboard, err error) {
		if err != nil {
			errs <- err
			return
		}
		results <- kb
	})
	require.NoError(t, err)
	defer w.Close()

	updated := testYAML[:len(testYAML)-len("150\n")] + "120\n"
	require.NoError(t, os.WriteFile(path, []byte(updated), 0o644))

	select {
	case kb := <-results:
		assert.Equal(t, 120*time.Millisecond, kb.Engine.Policy.Term)
	case err := <-errs:
		t.Fatalf("reload failed: %v", err)
	case <-time.After(2 * time.Second):
		t.Fatal("no reload")
	}
}
