package macro

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/keyweave/internal/feature"
	"github.com/dshills/keyweave/internal/feature/featuretest"
	"github.com/dshills/keyweave/internal/keyboard"
	"github.com/dshills/keyweave/internal/keycode"
)

var (
	rec1  = keycode.Feature(keycode.KindMacroRecord, 0)
	play1 = keycode.Feature(keycode.KindMacroPlay, 0)
	play2 = keycode.Feature(keycode.KindMacroPlay, 1)
	stop  = keycode.Feature(keycode.KindMacroStop, 0)
	keyA  = keycode.Basic(keycode.UsageA)
	keyB  = keycode.Basic(keycode.UsageB)
	esc   = keycode.Basic(keycode.UsageEscape)
)

func tap(f *Filter, env *featuretest.Env, kc keycode.Keycode, col int) (feature.Result, feature.Result) {
	return f.Handle(featuretest.Press(kc, col, 0), env), f.Handle(featuretest.Release(kc, col, 0), env)
}

func TestRecorder_Basic(t *testing.T) {
	r := NewRecorder(0, 0)
	assert.Equal(t, DefaultSlots, r.Slots())
	assert.Equal(t, DefaultSize, r.Size())

	require.NoError(t, r.StartRecording(1))
	assert.ErrorIs(t, r.StartRecording(0), ErrAlreadyRecording)
	assert.Equal(t, 1, r.CurrentSlot())

	assert.True(t, r.Record(featuretest.Press(keyA, 0, 0)))
	saved := r.StopRecording()
	assert.Len(t, saved, 1)
	assert.True(t, r.HasMacro(1))
	assert.Equal(t, -1, r.CurrentSlot())
	assert.Nil(t, r.StopRecording())

	assert.ErrorIs(t, r.StartRecording(5), ErrInvalidSlot)
	assert.ErrorIs(t, r.Set(-1, nil), ErrInvalidSlot)
}

func TestRecorder_EmptyRecordingKeepsSlot(t *testing.T) {
	r := NewRecorder(2, 8)
	require.NoError(t, r.Set(0, []keyboard.Record{featuretest.Press(keyA, 0, 0)}))
	require.NoError(t, r.StartRecording(0))
	r.StopRecording()
	assert.Len(t, r.Get(0), 1)
}

func TestRecorder_Full(t *testing.T) {
	r := NewRecorder(1, 2)
	require.NoError(t, r.StartRecording(0))
	assert.True(t, r.Record(featuretest.Press(keyA, 0, 0)))
	assert.True(t, r.Record(featuretest.Release(keyA, 0, 0)))
	assert.False(t, r.Record(featuretest.Press(keyB, 1, 0)))
}

func TestFilter_RecordAndPlay(t *testing.T) {
	f := NewFilter(NewRecorder(2, 16), nil)
	env := featuretest.New(1)
	var replayed []string
	env.OnReplay = func(rec keyboard.Record) { replayed = append(replayed, rec.Keycode.String()) }

	p, r := tap(f, env, rec1, 0)
	assert.Equal(t, feature.Consumed, p)
	assert.Equal(t, feature.Consumed, r)
	assert.Equal(t, Recording, f.State())

	p, r = tap(f, env, keyA, 1)
	assert.Equal(t, feature.Continue, p, "recorded keys still type")
	assert.Equal(t, feature.Continue, r)
	tap(f, env, keyB, 2)
	tap(f, env, stop, 3)
	assert.Equal(t, Idle, f.State())

	tap(f, env, play1, 4)
	assert.Equal(t, []string{"KC_A", "KC_A", "KC_B", "KC_B"}, replayed)
	require.Len(t, env.Replayed, 1)
	assert.True(t, env.Replayed[0][0].Pressed)
	assert.False(t, env.Replayed[0][1].Pressed)
}

func TestFilter_RecordKeyStops(t *testing.T) {
	f := NewFilter(NewRecorder(2, 16), nil)
	env := featuretest.New(1)

	tap(f, env, rec1, 0)
	tap(f, env, keyA, 1)
	tap(f, env, rec1, 0)

	assert.Equal(t, Idle, f.State())
	assert.Len(t, f.Recorder().Get(0), 2)
}

func TestFilter_EscapeAborts(t *testing.T) {
	f := NewFilter(NewRecorder(2, 16), nil)
	env := featuretest.New(1)

	tap(f, env, rec1, 0)
	tap(f, env, keyA, 1)
	p, r := tap(f, env, esc, 2)

	assert.Equal(t, feature.Consumed, p)
	assert.Equal(t, feature.Consumed, r)
	assert.Equal(t, Idle, f.State())
	assert.False(t, f.Recorder().HasMacro(0))

	p, _ = tap(f, env, esc, 2)
	assert.Equal(t, feature.Continue, p, "escape types normally when not recording")
}

func TestFilter_NoNestedPlayback(t *testing.T) {
	f := NewFilter(NewRecorder(2, 16), nil)
	env := featuretest.New(1)
	require.NoError(t, f.Recorder().Set(0, []keyboard.Record{
		featuretest.Press(play1, 0, 0),
		featuretest.Release(play1, 0, 0),
	}))

	env.OnReplay = func(rec keyboard.Record) {
		assert.Equal(t, feature.Consumed, f.Handle(rec, env))
		assert.Equal(t, Playing, f.State())
	}
	tap(f, env, play1, 1)

	assert.Len(t, env.Replayed, 1, "play key inside a replay is ignored")
	assert.Equal(t, Idle, f.State())
}

func TestFilter_PlayEmptySlot(t *testing.T) {
	f := NewFilter(NewRecorder(2, 16), nil)
	env := featuretest.New(1)
	tap(f, env, play2, 0)
	assert.Empty(t, env.Replayed)
}

func TestFilter_Reset(t *testing.T) {
	f := NewFilter(NewRecorder(2, 16), nil)
	env := featuretest.New(1)
	tap(f, env, rec1, 0)
	tap(f, env, keyA, 1)

	f.Reset(env)
	assert.Equal(t, Idle, f.State())
	assert.False(t, f.Recorder().HasMacro(0))
}

func TestPersistence(t *testing.T) {
	r := NewRecorder(2, 16)
	records := []keyboard.Record{
		featuretest.Press(keycode.WithMods(keycode.Usage1, keycode.ModLShift), 3, 0),
		{
			Event:   keyboard.Press(keyboard.Position{Row: 1, Col: 3}, 0),
			Keycode: keycode.ModTap(keycode.ModLShift, keycode.UsageD),
			Tap:     keyboard.TapInfo{Resolution: keyboard.Held, Count: 1},
		},
		featuretest.Release(keycode.LayerTap(2, keycode.UsageSpace), 4, 0),
	}
	require.NoError(t, r.Set(1, records))

	path := filepath.Join(t.TempDir(), "nested", "macros.json")
	require.NoError(t, Save(r, path))

	loaded := NewRecorder(2, 16)
	require.NoError(t, Load(loaded, path))
	assert.False(t, loaded.HasMacro(0))
	assert.Equal(t, records, loaded.Get(1))
}

func TestLoad_Errors(t *testing.T) {
	dir := t.TempDir()
	r := NewRecorder(2, 16)

	assert.NoError(t, Load(r, filepath.Join(dir, "missing.json")))

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{"version": 9}`), 0o644))
	assert.Error(t, Load(r, bad))

	unknown := filepath.Join(dir, "unknown.json")
	require.NoError(t, os.WriteFile(unknown, []byte(`{"version":1,"slots":[{"slot":1,"records":[{"keycode":"KC_BOGUS"}]}]}`), 0o644))
	assert.ErrorIs(t, Load(r, unknown), keycode.ErrUnknownKeycode)
}
