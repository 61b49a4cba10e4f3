package macro

import (
	"github.com/sirupsen/logrus"

	"github.com/dshills/keyweave/internal/feature"
	"github.com/dshills/keyweave/internal/keyboard"
	"github.com/dshills/keyweave/internal/keycode"
	"github.com/dshills/keyweave/internal/logging"
)

// State is the macro filter state.
type State uint8

const (
	// Idle neither records nor plays.
	Idle State = iota

	// Recording captures every record into a slot.
	Recording

	// Playing is replaying a slot.
	Playing
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case Recording:
		return "recording"
	case Playing:
		return "playing"
	default:
		return "idle"
	}
}

// Filter is the dynamic macro filter.
type Filter struct {
	recorder *Recorder
	playing  bool
	log      *logrus.Entry

	// swallowed holds positions whose press was consumed.
	swallowed map[keyboard.Position]bool
}

// NewFilter creates a macro filter over recorder.
func NewFilter(recorder *Recorder, log *logrus.Entry) *Filter {
	return &Filter{
		recorder:  recorder,
		log:       logging.WithComponent(log, "macro"),
		swallowed: make(map[keyboard.Position]bool),
	}
}

// Name implements feature.Filter.
func (f *Filter) Name() string {
	return "macro"
}

// Recorder returns the slot storage.
func (f *Filter) Recorder() *Recorder {
	return f.recorder
}

// State returns the current state.
func (f *Filter) State() State {
	switch {
	case f.playing:
		return Playing
	case f.recorder.IsRecording():
		return Recording
	default:
		return Idle
	}
}

// Reset aborts a recording in progress.
func (f *Filter) Reset(env feature.Env) {
	if f.recorder.IsRecording() {
		f.recorder.Abort()
		f.log.Debug("recording aborted by reset")
	}
}

// Handle implements feature.Filter.
func (f *Filter) Handle(rec keyboard.Record, env feature.Env) feature.Result {
	kc := rec.Keycode

	switch kc.Kind {
	case keycode.KindMacroRecord, keycode.KindMacroPlay, keycode.KindMacroStop:
		if rec.Pressed && !env.Replaying() {
			f.control(kc, env)
		}
		return feature.Consumed
	}

	if !rec.Pressed && f.swallowed[rec.Pos] {
		delete(f.swallowed, rec.Pos)
		return feature.Consumed
	}

	if !f.recorder.IsRecording() {
		return feature.Continue
	}

	if rec.Pressed && kc.Kind == keycode.KindBasic && kc.Code == keycode.UsageEscape {
		f.recorder.Abort()
		f.swallowed[rec.Pos] = true
		f.log.Debug("recording aborted")
		return feature.Consumed
	}

	if !f.recorder.Record(rec) {
		saved := f.recorder.StopRecording()
		f.log.WithField("records", len(saved)).Warn("macro slot full, recording stopped")
	}
	return feature.Continue
}

func (f *Filter) control(kc keycode.Keycode, env feature.Env) {
	slot := int(kc.ID)

	switch kc.Kind {
	case keycode.KindMacroRecord:
		if f.recorder.IsRecording() {
			f.stop()
			return
		}
		if err := f.recorder.StartRecording(slot); err != nil {
			f.log.WithError(err).Debug("record ignored")
			return
		}
		f.log.WithField("slot", slot+1).Debug("recording")

	case keycode.KindMacroStop:
		f.stop()

	case keycode.KindMacroPlay:
		if f.recorder.IsRecording() {
			return
		}
		records := f.recorder.Get(slot)
		if len(records) == 0 {
			return
		}
		f.playing = true
		ok := env.Replay(records)
		f.playing = false
		f.log.WithFields(logrus.Fields{"slot": slot + 1, "records": len(records), "played": ok}).Debug("play")
	}
}

func (f *Filter) stop() {
	saved := f.recorder.StopRecording()
	f.log.WithField("records", len(saved)).Debug("recording stopped")
}
