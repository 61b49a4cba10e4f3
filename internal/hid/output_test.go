package hid

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dshills/keyweave/internal/keycode"
)

func TestOutput_Tap(t *testing.T) {
	rec := &Recorder{}
	out := NewOutput(rec)

	out.Tap(keycode.WithMods(keycode.Usage1, keycode.ModLShift))

	assert.Equal(t, []string{
		"mod-down LSFT",
		"key-down KC_1",
		"key-up KC_1",
		"mod-up LSFT",
	}, rec.Strings())
	assert.Equal(t, keycode.ModNone, out.Mods())
}

func TestOutput_ModifierRefcount(t *testing.T) {
	rec := &Recorder{}
	out := NewOutput(rec)

	out.KeyDown(keycode.UsageLShift)
	out.RegisterMods(keycode.ModLShift)
	out.KeyUp(keycode.UsageLShift)
	assert.True(t, out.IsDown(keycode.UsageLShift), "still held by the second registration")

	out.UnregisterMods(keycode.ModLShift)
	assert.False(t, out.IsDown(keycode.UsageLShift))
	assert.Equal(t, 1, rec.CountMods(ModDown, keycode.ModLShift))
	assert.Equal(t, 1, rec.CountMods(ModUp, keycode.ModLShift))
}

func TestOutput_KeyRefcount(t *testing.T) {
	rec := &Recorder{}
	out := NewOutput(rec)

	out.KeyDown(keycode.UsageA)
	out.KeyDown(keycode.UsageA)
	out.KeyUp(keycode.UsageA)
	assert.True(t, out.IsDown(keycode.UsageA))
	out.KeyUp(keycode.UsageA)
	out.KeyUp(keycode.UsageA)

	assert.Equal(t, 1, rec.Count(KeyDown, keycode.UsageA))
	assert.Equal(t, 1, rec.Count(KeyUp, keycode.UsageA))
}

func TestOutput_WeakMods(t *testing.T) {
	rec := &Recorder{}
	out := NewOutput(rec)

	out.AddWeakMods(keycode.ModLShift)
	assert.Empty(t, rec.Ops, "weak mods are not reported on their own")

	out.KeyDown(keycode.UsageH)
	out.KeyUp(keycode.UsageH)
	out.Tap(keycode.Basic(keycode.UsageI))

	assert.Equal(t, []string{
		"mod-down LSFT",
		"key-down KC_H",
		"mod-up LSFT",
		"key-up KC_H",
		"key-down KC_I",
		"key-up KC_I",
	}, rec.Strings())
}

func TestOutput_OneShotMods(t *testing.T) {
	rec := &Recorder{}
	out := NewOutput(rec)

	out.AddOneShotMods(keycode.ModLCtrl)
	assert.Equal(t, keycode.ModLCtrl, out.OneShotMods())
	out.KeyDown(keycode.UsageLShift)
	assert.Equal(t, keycode.ModLCtrl, out.OneShotMods(), "modifier keys keep one-shot armed")

	out.Tap(keycode.Basic(keycode.UsageC))
	out.KeyUp(keycode.UsageLShift)

	assert.Equal(t, []string{
		"mod-down LSFT",
		"mod-down LCTL",
		"key-down KC_C",
		"mod-up LCTL",
		"key-up KC_C",
		"mod-up LSFT",
	}, rec.Strings())
	assert.Equal(t, keycode.ModNone, out.Mods())
}

func TestOutput_Clear(t *testing.T) {
	rec := &Recorder{}
	out := NewOutput(rec)

	out.KeyDown(keycode.UsageA)
	out.RegisterMods(keycode.ModLCtrl | keycode.ModRAlt)
	out.AddOneShotMods(keycode.ModLShift)
	rec.Reset()

	out.Clear()
	assert.Equal(t, []string{"key-up KC_A", "mod-up LCTL|RALT"}, rec.Strings())
	assert.Equal(t, keycode.ModNone, out.Mods())
	assert.False(t, out.IsDown(keycode.UsageA))
}

func TestOutput_IgnoresNone(t *testing.T) {
	rec := &Recorder{}
	out := NewOutput(rec)
	out.KeyDown(keycode.UsageNone)
	out.KeyUp(keycode.UsageNone)
	out.KeyUp(keycode.UsageB)
	assert.Empty(t, rec.Ops)
}
