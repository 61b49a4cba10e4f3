package engine

import (
	"fmt"
	"slices"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/dshills/keyweave/internal/combo"
	"github.com/dshills/keyweave/internal/feature"
	"github.com/dshills/keyweave/internal/feature/layerlock"
	"github.com/dshills/keyweave/internal/feature/macro"
	"github.com/dshills/keyweave/internal/feature/selectword"
	"github.com/dshills/keyweave/internal/feature/sentence"
	"github.com/dshills/keyweave/internal/feature/vimmode"
	"github.com/dshills/keyweave/internal/hid"
	"github.com/dshills/keyweave/internal/keyboard"
	"github.com/dshills/keyweave/internal/keycode"
	"github.com/dshills/keyweave/internal/layer"
	"github.com/dshills/keyweave/internal/leader"
	"github.com/dshills/keyweave/internal/logging"
	"github.com/dshills/keyweave/internal/tapdance"
	"github.com/dshills/keyweave/internal/taphold"
)

// maxReplayDepth bounds macro playback feeding back into dispatch.
const maxReplayDepth = 1

// tapPos is the position of records synthesized by Tap.
var tapPos = keyboard.Position{Row: keyboard.VirtualRow, Col: 0xFF}

// Stats counts engine activity.
type Stats struct {
	Events   uint64
	Ticks    uint64
	Records  uint64
	Consumed uint64
	Replays  uint64
}

// Engine is the keyboard dispatcher.
type Engine struct {
	cfg      Config
	log      *logrus.Entry
	out      *hid.Output
	stack    *layer.Stack
	state    State
	store    DefaultLayerStore
	scripts  Scripter
	recorder *macro.Recorder

	// base is the persistent default layer that TO returns to.
	base int

	taphold *taphold.Resolver
	combos  *combo.Engine
	dances  *tapdance.Engine
	leader  *leader.Engine
	chain   *feature.Chain
	macros  *macro.Filter

	// held maps each pressed position to the keycode resolved at press.
	held map[keyboard.Position]keycode.Keycode

	now   time.Duration
	stats Stats
}

var _ feature.Env = (*Engine)(nil)

// New creates an engine for cfg sending HID operations to sink.
func New(cfg Config, sink hid.Sink, opts ...Option) (*Engine, error) {
	if cfg.Keymap == nil {
		return nil, layer.ErrNoLayers
	}
	if err := cfg.Keymap.Validate(); err != nil {
		return nil, fmt.Errorf("invalid keymap: %w", err)
	}

	e := &Engine{
		cfg:   cfg,
		log:   logging.Discard(),
		out:   hid.NewOutput(sink),
		state: newState(),
		held:  make(map[keyboard.Position]keycode.Keycode),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.log = logging.WithComponent(e.log, "engine")

	def := cfg.Default
	if e.store != nil {
		if saved, ok := e.store.LoadDefault(); ok && checkDefault(cfg.Keymap, saved) == nil {
			def = saved
		}
	}
	if err := checkDefault(cfg.Keymap, def); err != nil {
		return nil, fmt.Errorf("invalid default layer: %w", err)
	}
	e.base = def
	e.stack = layer.NewStack(cfg.Keymap, def, cfg.TriLayers...)
	e.stack.Subscribe(func(c layer.Change) {
		e.log.WithFields(logrus.Fields{
			"highest": c.Highest,
			"default": c.Default,
			"state":   fmt.Sprintf("%#x", uint32(c.State)),
		}).Debug("layers changed")
	})

	if e.recorder == nil {
		e.recorder = macro.NewRecorder(cfg.Features.MacroSlots, cfg.Features.MacroSize)
	}
	e.macros = macro.NewFilter(e.recorder, e.log)
	e.chain = feature.NewChain(e.log,
		vimmode.New(cfg.Features.Vim),
		e.macros,
		layerlock.New(cfg.Features.LayerLockTimeout, e.log),
		sentence.New(cfg.Features.Terminators, e.log),
		selectword.New(cfg.Features.WordMod),
	)

	e.leader = leader.New(cfg.Patterns, cfg.Leader, e.dispatch, e.fire, e.log)
	e.dances = tapdance.New(cfg.Dances, cfg.DanceTerm, e.leader.Process, e.log)
	e.combos = combo.New(cfg.Combos, cfg.ComboTerm, e.lookup, e.dances.Process, e.log)
	e.taphold = taphold.New(e.cfg.policy, e.lookup, e.combos.Process, e.log)

	e.log.WithFields(logrus.Fields{
		"layers":   cfg.Keymap.Len(),
		"default":  def,
		"combos":   len(cfg.Combos),
		"dances":   len(cfg.Dances),
		"patterns": len(cfg.Patterns),
	}).Info("engine ready")
	return e, nil
}

// checkDefault reports whether layer n can be the default layer.
func checkDefault(km *layer.Keymap, n int) error {
	if n < 0 || n >= km.Len() {
		return fmt.Errorf("layer %d out of range [0, %d)", n, km.Len())
	}
	return km.CheckDefault(n)
}

// Process handles one debounced key transition.
func (e *Engine) Process(ev keyboard.Event) {
	e.stats.Events++
	e.expire(ev.Time)
	e.log.WithField("event", ev.String()).Trace("process")
	e.taphold.Process(ev)
}

// Tick is the per-scan heartbeat. It expires every deadline that has
// passed by now.
func (e *Engine) Tick(now time.Duration) {
	e.stats.Ticks++
	e.expire(now)
	e.tickMuse()
}

func (e *Engine) expire(now time.Duration) {
	if now > e.now {
		e.now = now
	}
	e.taphold.Tick(now)
	e.combos.Tick(now)
	e.dances.Tick(now)
	e.leader.Tick(now)
	e.chain.Tick(e)
}

// Reset clears every pending resolution and all modifiers. It never
// leaves a key or layer held by a pending stage.
func (e *Engine) Reset() {
	e.taphold.Reset()
	e.combos.Reset()
	e.dances.Reset()
	e.leader.Reset()
	e.chain.Reset(e)
	e.clearOneShotLayer()
	e.out.ClearMods()
	e.log.Debug("reset")
}

// lookup resolves a physical event. Releases resolve to the keycode their
// press resolved to, whatever the layers are now.
func (e *Engine) lookup(ev keyboard.Event) keyboard.Record {
	rec := keyboard.Record{Event: ev}
	if ev.Pressed {
		rec.Keycode = e.stack.Resolve(ev.Pos)
		e.held[ev.Pos] = rec.Keycode
		return rec
	}
	if kc, ok := e.held[ev.Pos]; ok {
		delete(e.held, ev.Pos)
		rec.Keycode = kc
		return rec
	}
	rec.Keycode = e.stack.Resolve(ev.Pos)
	return rec
}

// dispatch is the last pipeline stage: the feature chain, then custom
// keycodes and default emission.
func (e *Engine) dispatch(rec keyboard.Record) {
	e.stats.Records++
	if e.chain.Handle(rec, e) == feature.Consumed {
		e.stats.Consumed++
		return
	}
	e.perform(rec)
}

// Replay feeds recorded records back through dispatch. Nested replays are
// refused. Keys left down by the recording are released afterwards.
func (e *Engine) Replay(recs []keyboard.Record) bool {
	if e.state.ReplayDepth >= maxReplayDepth {
		e.log.Debug("nested replay refused")
		return false
	}
	e.state.ReplayDepth++
	defer func() { e.state.ReplayDepth-- }()
	e.stats.Replays++

	var open []keyboard.Record
	for _, rec := range recs {
		rec.Time = e.now
		rec.Synthetic = true
		if rec.Pressed {
			open = append(open, rec)
		} else {
			open = slices.DeleteFunc(open, func(o keyboard.Record) bool { return o.Pos == rec.Pos })
		}
		e.dispatch(rec)
	}
	for i := len(open) - 1; i >= 0; i-- {
		rel := open[i]
		rel.Pressed = false
		e.dispatch(rel)
	}
	return true
}

// Replaying implements feature.Env.
func (e *Engine) Replaying() bool {
	return e.state.ReplayDepth > 0
}

// Now implements feature.Env.
func (e *Engine) Now() time.Duration {
	return e.now
}

// Tap presses and releases kc through default emission.
func (e *Engine) Tap(kc keycode.Keycode) {
	rec := keyboard.Record{
		Event:     keyboard.Press(tapPos, e.now),
		Keycode:   kc,
		Synthetic: true,
	}
	e.perform(rec)
	rec.Pressed = false
	e.perform(rec)
}

// Send types text on a US layout. Characters with no key are skipped.
func (e *Engine) Send(text string) {
	keys, skipped := keycode.SendString(text)
	for _, kc := range keys {
		e.Tap(kc)
	}
	if len(skipped) > 0 {
		e.log.WithField("skipped", string(skipped)).Debug("untypeable characters")
	}
}

// Press implements feature.Env.
func (e *Engine) Press(kc keycode.Keycode) {
	e.out.Press(kc)
}

// Release implements feature.Env.
func (e *Engine) Release(kc keycode.Keycode) {
	e.out.Release(kc)
}

// Mods returns the effective modifiers.
func (e *Engine) Mods() keycode.Mod {
	return e.out.Mods()
}

// AddWeakMods implements feature.Env.
func (e *Engine) AddWeakMods(mods keycode.Mod) {
	e.out.AddWeakMods(mods)
}

// Layers returns the layer stack.
func (e *Engine) Layers() *layer.Stack {
	return e.stack
}

// CapsOverride returns true while caps lock is forced on.
func (e *Engine) CapsOverride() bool {
	return e.state.CapsOverride
}

// Output returns the HID output state.
func (e *Engine) Output() *hid.Output {
	return e.out
}

// Macros returns the dynamic macro slots.
func (e *Engine) Macros() *macro.Recorder {
	return e.recorder
}

// State returns a copy of the engine state.
func (e *Engine) State() State {
	return e.state
}

// Stats returns the activity counters.
func (e *Engine) Stats() Stats {
	return e.stats
}

// Pending returns true while any stage holds back input.
func (e *Engine) Pending() bool {
	return e.taphold.Pending() || e.combos.Pending() || e.dances.Pending() || e.leader.Active()
}

// Indicators returns the state shown by indicator collaborators.
func (e *Engine) Indicators() Indicators {
	return Indicators{
		Highest:      e.stack.Highest(),
		Layers:       e.stack.Active(),
		Locked:       e.stack.Locked(),
		CapsOverride: e.state.CapsOverride,
		MuseMode:     e.state.MuseMode,
		Recording:    e.recorder.IsRecording(),
	}
}

// SetScripter replaces the script runtime.
func (e *Engine) SetScripter(s Scripter) {
	e.scripts = s
}
