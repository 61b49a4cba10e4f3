// Package layerlock keeps a momentary layer on after its key is released.
//
// The first QK_LLCK press arms the highest active layer; a second press on
// the same layer locks it. Pressing QK_LLCK while a layer is locked
// unlocks it. Any other key press disarms. A locked layer is released
// after Timeout without key activity.
package layerlock

import (
	"time"

	"github.com/sirupsen/logrus"

	"github.com/dshills/keyweave/internal/feature"
	"github.com/dshills/keyweave/internal/keyboard"
	"github.com/dshills/keyweave/internal/keycode"
	"github.com/dshills/keyweave/internal/logging"
)

// DefaultTimeout is the idle time after which a locked layer is released.
const DefaultTimeout = 60 * time.Second

// Filter is the layer-lock filter.
type Filter struct {
	timeout time.Duration
	log     *logrus.Entry

	armed    int
	locked   int
	activity time.Duration
}

// New creates a layer-lock filter. A zero timeout never releases.
func New(timeout time.Duration, log *logrus.Entry) *Filter {
	return &Filter{
		timeout: timeout,
		log:     logging.WithComponent(log, "layerlock"),
		armed:   -1,
		locked:  -1,
	}
}

// Name implements feature.Filter.
func (f *Filter) Name() string {
	return "layerlock"
}

// Locked returns the locked layer, or -1.
func (f *Filter) Locked() int {
	return f.locked
}

// Armed returns the armed layer, or -1.
func (f *Filter) Armed() int {
	return f.armed
}

// Handle implements feature.Filter.
func (f *Filter) Handle(rec keyboard.Record, env feature.Env) feature.Result {
	f.sync(env)
	if rec.Pressed {
		f.activity = rec.Time
	}

	if rec.Keycode.Kind != keycode.KindLayerLock {
		if rec.Pressed {
			f.armed = -1
		}
		return feature.Continue
	}
	if !rec.Pressed {
		return feature.Consumed
	}

	stack := env.Layers()
	if f.locked >= 0 {
		f.log.WithField("layer", f.locked).Debug("unlock")
		stack.Unlock(f.locked)
		f.locked = -1
		f.armed = -1
		return feature.Consumed
	}

	top := stack.Highest()
	if top == stack.Default() {
		f.armed = -1
		return feature.Consumed
	}
	if f.armed == top {
		f.log.WithField("layer", top).Debug("lock")
		stack.Lock(top)
		f.locked = top
		f.armed = -1
		return feature.Consumed
	}
	f.armed = top
	return feature.Consumed
}

// Tick releases the locked layer once the idle timeout has passed.
func (f *Filter) Tick(env feature.Env) {
	f.sync(env)
	if f.locked < 0 || f.timeout <= 0 {
		return
	}
	if env.Now()-f.activity >= f.timeout {
		f.log.WithField("layer", f.locked).Debug("idle timeout")
		env.Layers().Unlock(f.locked)
		f.locked = -1
	}
}

// Reset disarms without touching a locked layer.
func (f *Filter) Reset(env feature.Env) {
	f.armed = -1
}

// sync forgets a lock that was cleared elsewhere, e.g. by TO().
func (f *Filter) sync(env feature.Env) {
	if f.locked >= 0 && !env.Layers().IsLocked(f.locked) {
		f.locked = -1
	}
}
