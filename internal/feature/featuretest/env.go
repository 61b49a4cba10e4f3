// Package featuretest provides an in-memory feature.Env for filter tests.
package featuretest

import (
	"time"

	"github.com/dshills/keyweave/internal/hid"
	"github.com/dshills/keyweave/internal/keyboard"
	"github.com/dshills/keyweave/internal/keycode"
	"github.com/dshills/keyweave/internal/layer"
)

// Env records everything a filter does.
type Env struct {
	T     time.Duration
	Ops   *hid.Recorder
	Out   *hid.Output
	Stack *layer.Stack
	Caps  bool

	// Replayed holds every batch passed to Replay.
	Replayed [][]keyboard.Record

	// OnReplay, if set, receives each replayed record.
	OnReplay func(rec keyboard.Record)

	replaying bool
}

// New creates an env over a single-key keymap with the given number of
// layers.
func New(layers int) *Env {
	km := &layer.Keymap{Rows: 1, Cols: 1}
	for i := 0; i < layers; i++ {
		km.Layers = append(km.Layers, layer.Layer{Keys: [][]keycode.Keycode{{keycode.Basic(keycode.UsageA)}}})
	}
	rec := &hid.Recorder{}
	return &Env{
		Ops:   rec,
		Out:   hid.NewOutput(rec),
		Stack: layer.NewStack(km, 0),
	}
}

// Now implements feature.Env.
func (e *Env) Now() time.Duration { return e.T }

// Tap implements feature.Env.
func (e *Env) Tap(kc keycode.Keycode) { e.Out.Tap(kc) }

// Press implements feature.Env.
func (e *Env) Press(kc keycode.Keycode) { e.Out.Press(kc) }

// Release implements feature.Env.
func (e *Env) Release(kc keycode.Keycode) { e.Out.Release(kc) }

// Mods implements feature.Env.
func (e *Env) Mods() keycode.Mod { return e.Out.Mods() }

// AddWeakMods implements feature.Env.
func (e *Env) AddWeakMods(mods keycode.Mod) { e.Out.AddWeakMods(mods) }

// Layers implements feature.Env.
func (e *Env) Layers() *layer.Stack { return e.Stack }

// CapsOverride implements feature.Env.
func (e *Env) CapsOverride() bool { return e.Caps }

// Replaying implements feature.Env.
func (e *Env) Replaying() bool { return e.replaying }

// Replay implements feature.Env.
func (e *Env) Replay(recs []keyboard.Record) bool {
	if e.replaying {
		return false
	}
	e.replaying = true
	defer func() { e.replaying = false }()

	e.Replayed = append(e.Replayed, recs)
	for _, rec := range recs {
		if e.OnReplay != nil {
			e.OnReplay(rec)
		}
	}
	return true
}

// Strings returns the recorded HID ops as strings.
func (e *Env) Strings() []string {
	return e.Ops.Strings()
}

// Press builds a press record for kc at column col.
func Press(kc keycode.Keycode, col int, at time.Duration) keyboard.Record {
	return keyboard.Record{Event: keyboard.Press(keyboard.Position{Col: uint8(col)}, at), Keycode: kc}
}

// Release builds a release record for kc at column col.
func Release(kc keycode.Keycode, col int, at time.Duration) keyboard.Record {
	return keyboard.Record{Event: keyboard.Release(keyboard.Position{Col: uint8(col)}, at), Keycode: kc}
}
