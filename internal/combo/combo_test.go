package combo

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/keyweave/internal/keyboard"
	"github.com/dshills/keyweave/internal/keycode"
)

const ms = time.Millisecond

var (
	posJ = keyboard.Position{Row: 1, Col: 7}
	posK = keyboard.Position{Row: 1, Col: 8}
	posL = keyboard.Position{Row: 1, Col: 9}
	posX = keyboard.Position{Row: 2, Col: 0}
)

var codes = map[keyboard.Position]keycode.Keycode{
	posJ: keycode.Basic(keycode.UsageJ),
	posK: keycode.Basic(keycode.UsageK),
	posL: keycode.Basic(keycode.UsageL),
	posX: keycode.Basic(keycode.UsageX),
}

type harness struct {
	e   *Engine
	out []keyboard.Record
}

func newHarness(combos ...Combo) *harness {
	h := &harness{}
	h.e = New(combos, 0, nil, func(rec keyboard.Record) { h.out = append(h.out, rec) }, nil)
	return h
}

func (h *harness) press(pos keyboard.Position, at time.Duration) {
	h.e.Process(keyboard.Record{Event: keyboard.Press(pos, at*ms), Keycode: codes[pos]})
}

func (h *harness) release(pos keyboard.Position, at time.Duration) {
	h.e.Process(keyboard.Record{Event: keyboard.Release(pos, at*ms), Keycode: codes[pos]})
}

func (h *harness) summary() []string {
	out := make([]string, len(h.out))
	for i, rec := range h.out {
		dir := "up"
		if rec.Pressed {
			dir = "down"
		}
		out[i] = dir + " " + rec.Keycode.String()
	}
	return out
}

var escCombo = Combo{Name: "esc", Keys: []keyboard.Position{posJ, posK}, Result: keycode.Basic(keycode.UsageEscape)}

func TestEngine_Suppression(t *testing.T) {
	h := newHarness(escCombo)
	h.press(posJ, 0)
	h.press(posK, 20)
	h.release(posJ, 80)
	h.release(posK, 90)

	assert.Equal(t, []string{"down KC_ESC", "up KC_ESC"}, h.summary())
	for _, rec := range h.out {
		assert.True(t, rec.Synthetic)
		assert.True(t, rec.Pos.IsVirtual())
	}
}

func TestEngine_SingleMemberTap(t *testing.T) {
	h := newHarness(escCombo)
	h.press(posJ, 0)
	h.release(posJ, 30)

	assert.Equal(t, []string{"down KC_J", "up KC_J"}, h.summary())
}

func TestEngine_WindowExpiry(t *testing.T) {
	h := newHarness(escCombo)
	h.press(posJ, 0)
	h.e.Tick(49 * ms)
	assert.Empty(t, h.out)

	h.e.Tick(50 * ms)
	assert.Equal(t, []string{"down KC_J"}, h.summary())

	h.press(posK, 60)
	h.release(posK, 70)
	h.release(posJ, 80)
	assert.Equal(t, []string{"down KC_J", "down KC_K", "up KC_K", "up KC_J"}, h.summary())
}

func TestEngine_IncompatiblePressFlushes(t *testing.T) {
	h := newHarness(escCombo)
	h.press(posJ, 0)
	h.press(posX, 10)

	assert.Equal(t, []string{"down KC_J", "down KC_X"}, h.summary())
	assert.False(t, h.e.Pending())
}

func TestEngine_DeclarationOrder(t *testing.T) {
	first := Combo{Name: "first", Keys: []keyboard.Position{posK, posJ}, Result: keycode.Basic(keycode.UsageEnter)}
	h := newHarness(first, escCombo)
	h.press(posJ, 0)
	h.press(posK, 5)

	assert.Equal(t, []string{"down KC_ENT"}, h.summary())
}

func TestEngine_LongerComboWaits(t *testing.T) {
	triple := Combo{Name: "triple", Keys: []keyboard.Position{posJ, posK, posL}, Result: keycode.Basic(keycode.UsageTab)}

	t.Run("third key completes", func(t *testing.T) {
		h := newHarness(escCombo, triple)
		h.press(posJ, 0)
		h.press(posK, 10)
		assert.Empty(t, h.out)
		h.press(posL, 20)
		assert.Equal(t, []string{"down KC_TAB"}, h.summary())
	})

	t.Run("window expiry fires the pair", func(t *testing.T) {
		h := newHarness(escCombo, triple)
		h.press(posJ, 0)
		h.press(posK, 10)
		h.e.Tick(60 * ms)
		assert.Equal(t, []string{"down KC_ESC"}, h.summary())
	})
}

func TestEngine_TapHoldKeysDoNotParticipate(t *testing.T) {
	h := newHarness(escCombo)
	h.e.Process(keyboard.Record{
		Event:   keyboard.Press(posJ, 0),
		Keycode: keycode.ModTap(keycode.ModLShift, keycode.UsageJ),
		Tap:     keyboard.TapInfo{Resolution: keyboard.Held, Count: 1},
	})
	require.Len(t, h.out, 1)
	assert.False(t, h.e.Pending())
}

func TestEngine_Reset(t *testing.T) {
	h := newHarness(escCombo)
	h.press(posJ, 0)
	h.press(posK, 10)
	h.e.Reset()

	assert.Equal(t, []string{"down KC_ESC", "up KC_ESC"}, h.summary())

	h.release(posJ, 30)
	assert.Equal(t, "up KC_J", h.summary()[2], "member releases pass once the combo is reset")
}

func TestEngine_FlushLooksUpAgain(t *testing.T) {
	// posJ acts as a momentary layer key: once it reaches the next stage,
	// posX and posK resolve to digits.
	layered := false
	lookup := func(ev keyboard.Event) keyboard.Record {
		kc := codes[ev.Pos]
		if layered {
			switch ev.Pos {
			case posX:
				kc = keycode.Basic(keycode.Usage1)
			case posK:
				kc = keycode.Basic(keycode.Usage2)
			}
		}
		return keyboard.Record{Event: ev, Keycode: kc}
	}

	tests := []struct {
		name string
		run  func(h *harness)
		want []string
	}{
		{
			name: "interrupting press",
			run: func(h *harness) {
				h.press(posJ, 0)
				h.press(posX, 10)
			},
			want: []string{"down KC_J", "down KC_1"},
		},
		{
			name: "press after the window",
			run: func(h *harness) {
				h.press(posJ, 0)
				h.press(posX, 60)
			},
			want: []string{"down KC_J", "down KC_1"},
		},
		{
			name: "buffered member after timeout",
			run: func(h *harness) {
				h.press(posJ, 0)
				h.press(posK, 10)
				h.e.Tick(100 * ms)
			},
			want: []string{"down KC_J", "down KC_2"},
		},
		{
			name: "buffered member released",
			run: func(h *harness) {
				h.press(posJ, 0)
				h.press(posK, 10)
				h.release(posK, 20)
			},
			want: []string{"down KC_J", "down KC_2", "up KC_2"},
		},
	}

	triple := Combo{Name: "jkl", Keys: []keyboard.Position{posJ, posK, posL}, Result: keycode.Basic(keycode.UsageEnter)}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			layered = false
			h := &harness{}
			h.e = New([]Combo{triple}, 0, lookup, func(rec keyboard.Record) {
				if rec.Pos == posJ && rec.Pressed {
					layered = true
				}
				h.out = append(h.out, rec)
			}, nil)
			tt.run(h)
			assert.Equal(t, tt.want, h.summary())
		})
	}
}
