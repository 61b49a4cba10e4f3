package lua

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/keyweave/internal/feature/featuretest"
	"github.com/dshills/keyweave/internal/keycode"
)

type fakeHost struct {
	*featuretest.Env
	sent []string
}

func (h *fakeHost) Send(text string) {
	h.sent = append(h.sent, text)
}

func newHost() *fakeHost {
	env := featuretest.New(4)
	km := env.Stack.Keymap()
	for i, name := range []string{"base", "lower", "raise", "adjust"} {
		km.Layers[i].Name = name
	}
	return &fakeHost{Env: env}
}

func newRuntime(t *testing.T, h *fakeHost, code string) *Runtime {
	t.Helper()
	r := NewRuntime(h)
	t.Cleanup(func() { r.Close() })
	require.NoError(t, r.LoadString(code))
	return r
}

func TestRuntime_Tap(t *testing.T) {
	h := newHost()
	r := newRuntime(t, h, `
function copy(pressed)
  if pressed then kb.tap("LCTL(KC_C)") end
end
`)

	require.NoError(t, r.Call("copy", true))
	require.NoError(t, r.Call("copy", false))
	assert.Equal(t, []string{"mod-down LCTL", "key-down KC_C", "key-up KC_C", "mod-up LCTL"}, h.Strings())
}

func TestRuntime_SendAndLog(t *testing.T) {
	h := newHost()
	r := newRuntime(t, h, `
function sig(pressed)
  if pressed then
    kb.log("typing signature")
    kb.send("-- me")
  end
end
`)
	require.NoError(t, r.Call("sig", true))
	assert.Equal(t, []string{"-- me"}, h.sent)
}

func TestRuntime_Layers(t *testing.T) {
	h := newHost()
	r := newRuntime(t, h, `
function adjust(pressed)
  if pressed then kb.layer_on("ADJUST") else kb.layer_off(3) end
end

function report(pressed)
  last_layer = kb.layer()
  last_name = kb.layer_name()
end
`)

	require.NoError(t, r.Call("adjust", true))
	assert.True(t, h.Stack.IsOn(3))

	_, err := r.state.Call("report")
	require.NoError(t, err)
	assert.Equal(t, "3", r.state.L.GetGlobal("last_layer").String())
	assert.Equal(t, "adjust", r.state.L.GetGlobal("last_name").String())

	require.NoError(t, r.Call("adjust", false))
	assert.False(t, h.Stack.IsOn(3))
}

func TestRuntime_Mods(t *testing.T) {
	h := newHost()
	r := newRuntime(t, h, `
function check(pressed)
  seen = kb.mods()
end
`)
	require.NoError(t, r.Call("check", true))
	assert.Equal(t, "", r.state.L.GetGlobal("seen").String())

	h.Out.RegisterMods(keycode.ModLCtrl | keycode.ModLShift)
	require.NoError(t, r.Call("check", true))
	assert.Equal(t, "LCTL|LSFT", r.state.L.GetGlobal("seen").String())
}

func TestRuntime_Errors(t *testing.T) {
	h := newHost()
	r := newRuntime(t, h, `
value = 1
function bad_key(pressed) kb.tap("KC_NOPE") end
function bad_layer(pressed) kb.layer_on("nowhere") end
function boom(pressed) error("boom") end
`)

	tests := []struct {
		fn   string
		want string
	}{
		{"missing", "not a lua function"},
		{"value", "not a lua function"},
		{"bad_key", "unknown keycode"},
		{"bad_layer", "unknown layer"},
		{"boom", "boom"},
	}
	for _, tt := range tests {
		t.Run(tt.fn, func(t *testing.T) {
			err := r.Call(tt.fn, true)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
	assert.Empty(t, h.Strings())
}

func TestRuntime_Sandbox(t *testing.T) {
	h := newHost()
	r := NewRuntime(h)
	defer r.Close()

	for _, code := range []string{
		`os.exit(1)`,
		`io.open("/etc/passwd")`,
		`require("os")`,
		`dofile("/tmp/x.lua")`,
		`load("return 1")()`,
	} {
		assert.Error(t, r.LoadString(code), code)
	}
	assert.NoError(t, r.LoadString(`x = string.upper("a") .. math.floor(1.5) .. table.concat({"b"})`))
}

func TestRuntime_Timeout(t *testing.T) {
	h := newHost()
	r := NewRuntime(h, WithStateOptions(WithExecutionTimeout(20*time.Millisecond)))
	defer r.Close()

	require.NoError(t, r.LoadString(`function spin(pressed) while true do end end`))
	err := r.Call("spin", true)
	assert.ErrorIs(t, err, ErrExecutionTimeout)

	require.NoError(t, r.LoadString(`function ok(pressed) done = pressed end`))
	assert.NoError(t, r.Call("ok", true), "state is usable after a timeout")
}

func TestRuntime_LoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keys.lua")
	require.NoError(t, os.WriteFile(path, []byte(`function hello(pressed) end`), 0o644))

	r := NewRuntime(newHost())
	defer r.Close()

	require.NoError(t, r.LoadFile(path))
	assert.True(t, r.HasFunction("hello"))
	assert.False(t, r.HasFunction("goodbye"))

	assert.Error(t, r.LoadFile(filepath.Join(t.TempDir(), "missing.lua")))
}

func TestState_Closed(t *testing.T) {
	s := NewState()
	require.NoError(t, s.Close())
	require.NoError(t, s.Close())

	assert.ErrorIs(t, s.DoString("x = 1"), ErrStateClosed)
	_, err := s.Call("f")
	assert.ErrorIs(t, err, ErrStateClosed)
	assert.False(t, s.HasFunction("print"))
}

// reentrantHost runs a script action again when a custom keycode is
// tapped, the way the engine does.
type reentrantHost struct {
	*fakeHost
	r    *Runtime
	errs []error
}

func (h *reentrantHost) Tap(kc keycode.Keycode) {
	if kc.Kind == keycode.KindCustom {
		h.errs = append(h.errs, h.r.Call("again", true))
		return
	}
	h.fakeHost.Tap(kc)
}

func TestRuntime_ReentrantCall(t *testing.T) {
	h := &reentrantHost{fakeHost: newHost()}
	h.r = NewRuntime(h)
	t.Cleanup(func() { h.r.Close() })
	require.NoError(t, h.r.LoadString(`
function again(pressed)
  if pressed then
    kb.tap("CUSTOM(0)")
    kb.tap("KC_1")
  end
end
`))

	require.NoError(t, h.r.Call("again", true))
	require.Len(t, h.errs, 1)
	assert.ErrorIs(t, h.errs[0], ErrReentrantCall)
	assert.Equal(t, []string{"key-down KC_1", "key-up KC_1"}, h.Strings())

	require.NoError(t, h.r.Call("again", true), "usable after a refused call")
	assert.Len(t, h.errs, 2)
}
