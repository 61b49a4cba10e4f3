package feature

import (
	"time"

	"github.com/sirupsen/logrus"

	"github.com/dshills/keyweave/internal/keyboard"
	"github.com/dshills/keyweave/internal/keycode"
	"github.com/dshills/keyweave/internal/layer"
	"github.com/dshills/keyweave/internal/logging"
)

// Result tells the chain whether to keep going.
type Result uint8

const (
	// Continue passes the record to the next filter.
	Continue Result = iota

	// Consumed stops all further processing of the record.
	Consumed
)

// String returns the result name.
func (r Result) String() string {
	if r == Consumed {
		return "consumed"
	}
	return "continue"
}

// Env is the engine surface available to filters.
type Env interface {
	// Now returns the time of the record or tick being handled.
	Now() time.Duration

	// Tap presses and releases a keycode through default emission.
	Tap(kc keycode.Keycode)

	// Press and Release register and unregister a basic keycode.
	Press(kc keycode.Keycode)
	Release(kc keycode.Keycode)

	// Mods returns the effective modifiers.
	Mods() keycode.Mod

	// AddWeakMods applies mods to the next key-down only.
	AddWeakMods(mods keycode.Mod)

	// Layers returns the layer stack.
	Layers() *layer.Stack

	// Replay feeds records back through the feature chain and emission.
	// It returns false when called during a replay.
	Replay(recs []keyboard.Record) bool

	// Replaying returns true while records are being replayed.
	Replaying() bool

	// CapsOverride returns true while caps lock is forced on.
	CapsOverride() bool
}

// Filter is one stage of the chain.
type Filter interface {
	Name() string
	Handle(rec keyboard.Record, env Env) Result
}

// Ticker is implemented by filters with deadlines.
type Ticker interface {
	Tick(env Env)
}

// Resetter is implemented by filters that hold state a reset must clear.
type Resetter interface {
	Reset(env Env)
}

// Skipper is implemented by filters that sit out some records.
type Skipper interface {
	Skip(env Env) bool
}

// Chain runs filters in order.
type Chain struct {
	filters []Filter
	log     *logrus.Entry
}

// NewChain creates a chain of filters.
func NewChain(log *logrus.Entry, filters ...Filter) *Chain {
	return &Chain{
		filters: filters,
		log:     logging.WithComponent(log, "feature"),
	}
}

// Filters returns the filters in chain order.
func (c *Chain) Filters() []Filter {
	return c.filters
}

// Handle runs rec through the chain.
func (c *Chain) Handle(rec keyboard.Record, env Env) Result {
	for _, f := range c.filters {
		if s, ok := f.(Skipper); ok && s.Skip(env) {
			continue
		}
		if f.Handle(rec, env) == Consumed {
			c.log.WithFields(logrus.Fields{
				"filter": f.Name(),
				"record": rec.String(),
			}).Debug("consumed")
			return Consumed
		}
	}
	return Continue
}

// Tick gives every filter with a deadline a chance to expire it.
func (c *Chain) Tick(env Env) {
	for _, f := range c.filters {
		if t, ok := f.(Ticker); ok {
			t.Tick(env)
		}
	}
}

// Reset clears every filter's state.
func (c *Chain) Reset(env Env) {
	for _, f := range c.filters {
		if r, ok := f.(Resetter); ok {
			r.Reset(env)
		}
	}
}
