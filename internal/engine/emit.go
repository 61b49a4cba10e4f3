package engine

import (
	"github.com/sirupsen/logrus"

	"github.com/dshills/keyweave/internal/keyboard"
	"github.com/dshills/keyweave/internal/keycode"
	"github.com/dshills/keyweave/internal/leader"
)

// action is what a record does once it reaches emission.
type action uint8

const (
	actNone action = iota
	actKey
	actMods
	actLayer
	actToggle
	actMove
	actDefault
	actOneShotMods
	actOneShotLayer
	actCaps
	actClear
	actCustom
)

// actionOf maps a record to its action and the keycode the action works
// on. Dual-role keys map by resolution; an unresolved dual-role key, as
// produced by combos, tap-dances, and Tap, acts as a tap.
func actionOf(rec keyboard.Record) (action, keycode.Keycode) {
	kc := rec.Keycode
	switch kc.Kind {
	case keycode.KindBasic:
		return actKey, kc
	case keycode.KindModTap:
		if rec.Held() {
			return actMods, kc
		}
		return actKey, keycode.Basic(kc.Code)
	case keycode.KindLayerTap:
		switch {
		case rec.Held():
			return actLayer, kc
		case kc.TapOneShot():
			return actOneShotMods, kc
		}
		return actKey, keycode.WithMods(kc.Code, kc.Mods)
	case keycode.KindMomentary:
		return actLayer, kc
	case keycode.KindToggle:
		return actToggle, kc
	case keycode.KindTo:
		return actMove, kc
	case keycode.KindDefault:
		return actDefault, kc
	case keycode.KindOneShotMod:
		return actOneShotMods, kc
	case keycode.KindOneShotLayer:
		return actOneShotLayer, kc
	case keycode.KindCapsToggle:
		return actCaps, kc
	case keycode.KindClearMods:
		return actClear, kc
	case keycode.KindCustom:
		return actCustom, kc
	}
	return actNone, kc
}

// perform runs the action of rec.
func (e *Engine) perform(rec keyboard.Record) {
	act, kc := actionOf(rec)
	if rec.Pressed {
		e.press(act, kc)
		return
	}
	e.release(act, kc)
}

func (e *Engine) press(act action, kc keycode.Keycode) {
	layer := int(kc.Layer)

	switch act {
	case actKey:
		e.out.Press(kc)
		if !kc.IsModifier() {
			e.clearOneShotLayer()
		}
	case actMods:
		e.out.RegisterMods(kc.Mods)
	case actLayer:
		e.stack.On(layer)
	case actToggle:
		e.stack.Toggle(layer)
	case actMove:
		e.state.OneShotLayer = -1
		e.stack.Move(layer)
		if layer == e.base {
			e.out.ClearMods()
		}
	case actDefault:
		e.setDefault(layer)
	case actOneShotMods:
		e.out.AddOneShotMods(kc.Mods)
	case actOneShotLayer:
		e.clearOneShotLayer()
		e.state.OneShotLayer = layer
		e.stack.On(layer)
	case actCaps:
		e.state.CapsOverride = !e.state.CapsOverride
		e.out.Tap(keycode.Basic(keycode.UsageCapsLock))
		e.log.WithField("caps", e.state.CapsOverride).Debug("caps override")
	case actClear:
		e.Reset()
	case actCustom:
		e.custom(int(kc.ID), true)
	}
}

func (e *Engine) release(act action, kc keycode.Keycode) {
	switch act {
	case actKey:
		e.out.Release(kc)
	case actMods:
		e.out.UnregisterMods(kc.Mods)
	case actLayer:
		e.stack.Off(int(kc.Layer))
	case actCustom:
		e.custom(int(kc.ID), false)
	}
}

func (e *Engine) clearOneShotLayer() {
	if e.state.OneShotLayer < 0 {
		return
	}
	e.stack.Off(e.state.OneShotLayer)
	e.state.OneShotLayer = -1
}

// setDefault makes n the default layer and persists it.
func (e *Engine) setDefault(n int) {
	if err := checkDefault(e.cfg.Keymap, n); err != nil {
		e.log.WithError(err).Debug("default layer refused")
		return
	}
	e.base = n
	e.stack.SetDefault(n)
	if e.store == nil {
		return
	}
	if err := e.store.SaveDefault(n); err != nil {
		e.log.WithError(err).WithField("layer", n).Warn("failed to save default layer")
	}
}

// custom runs the press or release half of a custom action.
func (e *Engine) custom(id int, pressed bool) {
	if id < 0 || id >= len(e.cfg.Customs) {
		e.log.WithField("id", id).Debug("undefined custom keycode")
		return
	}
	c := e.cfg.Customs[id]

	if pressed {
		if c.Send != "" {
			e.Send(c.Send)
		}
		if c.Layer != 0 {
			e.stack.On(c.Layer)
		}
		e.out.RegisterMods(c.Mods | c.HoldMods)
	} else {
		e.out.UnregisterMods(c.HoldMods)
	}

	if c.Script == "" {
		return
	}
	if e.scripts == nil {
		e.log.WithField("script", c.Script).Debug("no script runtime")
		return
	}
	if err := e.scripts.Call(c.Script, pressed); err != nil {
		e.log.WithError(err).WithFields(logrus.Fields{
			"custom": c.Name,
			"script": c.Script,
		}).Warn("script failed")
	}
}

// fire performs a matched leader action.
func (e *Engine) fire(p leader.Pattern) {
	for _, kc := range p.Action.Taps {
		e.Tap(kc)
	}
	if p.Action.Text != "" {
		e.Send(p.Action.Text)
	}
	if p.Action.OneShot != keycode.ModNone {
		e.out.AddOneShotMods(p.Action.OneShot)
	}
}
