package engine

import "github.com/sirupsen/logrus"

// Encoder handles one detent of rotary encoder index. In muse mode the
// encoder adjusts the muse offset while MuseLayer is on and the tempo
// otherwise; outside muse mode it taps the encoder's bound keycode.
func (e *Engine) Encoder(index int, clockwise bool) {
	if e.state.MuseMode {
		delta := 1
		if !clockwise {
			delta = -1
		}
		if e.cfg.MuseLayer != 0 && e.stack.IsOn(e.cfg.MuseLayer) {
			e.state.MuseOffset += delta
		} else {
			e.state.MuseTempo = max(1, e.state.MuseTempo+delta)
		}
		e.log.WithFields(logrus.Fields{
			"offset": e.state.MuseOffset,
			"tempo":  e.state.MuseTempo,
		}).Debug("muse adjusted")
		return
	}

	enc := e.cfg.encoder(index)
	if clockwise {
		e.Tap(enc.Clockwise)
		return
	}
	e.Tap(enc.CounterClockwise)
}

// DipSwitch handles a dip switch change. Switch 0 locks the adjust layer
// on, so tri-layer rules cannot turn it off; switch 1 enables muse mode.
func (e *Engine) DipSwitch(index int, active bool) {
	switch index {
	case 0:
		if e.cfg.AdjustLayer == 0 {
			return
		}
		if active {
			e.stack.Lock(e.cfg.AdjustLayer)
		} else {
			e.stack.Unlock(e.cfg.AdjustLayer)
		}
	case 1:
		e.state.MuseMode = active
		if !active {
			e.state.MuseCounter = 0
		}
	default:
		e.log.WithField("index", index).Debug("unbound dip switch")
		return
	}
	e.log.WithFields(logrus.Fields{"index": index, "active": active}).Debug("dip switch")
}

// tickMuse advances the muse clock once per scan.
func (e *Engine) tickMuse() {
	if !e.state.MuseMode {
		e.state.MuseCounter = 0
		return
	}
	e.state.MuseCounter = (e.state.MuseCounter + 1) % e.state.MuseTempo
}
