package lua

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/keyweave/internal/keycode"
	"github.com/dshills/keyweave/internal/layer"
	"github.com/dshills/keyweave/internal/logging"
)

// Host is the keyboard a script acts on. *engine.Engine implements it.
type Host interface {
	Tap(kc keycode.Keycode)
	Send(text string)
	Layers() *layer.Stack
	Mods() keycode.Mod
}

// Runtime runs custom action scripts against a Host.
type Runtime struct {
	state *State
	host  Host
	log   *logrus.Entry
	opts  keycode.Options

	// calling is set while Call runs. Host callbacks run on the calling
	// goroutine with the state locked, so a nested Call must not wait.
	calling bool
}

// Option configures a Runtime.
type Option func(*Runtime)

// WithLogger sets the logger used by kb.log and for call tracing.
func WithLogger(log *logrus.Entry) Option {
	return func(r *Runtime) {
		r.log = log
	}
}

// WithStateOptions passes options to the underlying State.
func WithStateOptions(opts ...StateOption) Option {
	return func(r *Runtime) {
		r.state = NewState(opts...)
	}
}

// NewRuntime creates a runtime bound to host with the kb module installed.
func NewRuntime(host Host, opts ...Option) *Runtime {
	r := &Runtime{host: host}
	for _, opt := range opts {
		opt(r)
	}
	if r.state == nil {
		r.state = NewState()
	}
	r.log = logging.WithComponent(r.log, "lua")

	r.opts = keycode.Options{Layers: host.Layers().Keymap().Names()}
	r.state.RegisterModule("kb", map[string]lua.LGFunction{
		"tap":        r.tap,
		"send":       r.send,
		"layer_on":   r.layerOn,
		"layer_off":  r.layerOff,
		"layer":      r.layer,
		"layer_name": r.layerName,
		"mods":       r.mods,
		"log":        r.logMessage,
	})
	return r
}

// LoadFile runs a script file, defining its functions.
func (r *Runtime) LoadFile(path string) error {
	if err := r.state.DoFile(path); err != nil {
		return fmt.Errorf("loading %s: %w", path, err)
	}
	return nil
}

// LoadString runs script source, defining its functions.
func (r *Runtime) LoadString(code string) error {
	return r.state.DoString(code)
}

// HasFunction returns true if the script defines a global function name.
func (r *Runtime) HasFunction(name string) bool {
	return r.state.HasFunction(name)
}

// Call implements engine.Scripter. A Call made from inside a running
// script returns ErrReentrantCall.
func (r *Runtime) Call(name string, pressed bool) error {
	r.log.WithField("fn", name).WithField("pressed", pressed).Trace("call")
	if r.calling {
		return fmt.Errorf("calling %s: %w", name, ErrReentrantCall)
	}
	r.calling = true
	defer func() { r.calling = false }()

	if _, err := r.state.Call(name, lua.LBool(pressed)); err != nil {
		return fmt.Errorf("calling %s: %w", name, err)
	}
	return nil
}

// Close releases the Lua state.
func (r *Runtime) Close() error {
	return r.state.Close()
}

func (r *Runtime) tap(L *lua.LState) int {
	spec := L.CheckString(1)
	kc, err := keycode.Parse(spec, r.opts)
	if err != nil {
		L.ArgError(1, err.Error())
		return 0
	}
	r.host.Tap(kc)
	return 0
}

func (r *Runtime) send(L *lua.LState) int {
	r.host.Send(L.CheckString(1))
	return 0
}

// layerArg accepts a layer index or name.
func (r *Runtime) layerArg(L *lua.LState) int {
	stack := r.host.Layers()
	switch v := L.Get(1).(type) {
	case lua.LNumber:
		n := int(v)
		if n < 0 || n >= stack.Keymap().Len() {
			L.ArgError(1, "layer "+strconv.Itoa(n)+" out of range")
		}
		return n
	case lua.LString:
		for name, n := range stack.Keymap().Names() {
			if strings.EqualFold(name, string(v)) {
				return n
			}
		}
		L.ArgError(1, "unknown layer "+strconv.Quote(string(v)))
	default:
		L.TypeError(1, lua.LTNumber)
	}
	return 0
}

func (r *Runtime) layerOn(L *lua.LState) int {
	r.host.Layers().On(r.layerArg(L))
	return 0
}

func (r *Runtime) layerOff(L *lua.LState) int {
	r.host.Layers().Off(r.layerArg(L))
	return 0
}

func (r *Runtime) layer(L *lua.LState) int {
	L.Push(lua.LNumber(r.host.Layers().Highest()))
	return 1
}

func (r *Runtime) layerName(L *lua.LState) int {
	stack := r.host.Layers()
	L.Push(lua.LString(stack.Keymap().Name(stack.Highest())))
	return 1
}

func (r *Runtime) mods(L *lua.LState) int {
	L.Push(lua.LString(r.host.Mods().String()))
	return 1
}

func (r *Runtime) logMessage(L *lua.LState) int {
	r.log.Info(L.CheckString(1))
	return 0
}
