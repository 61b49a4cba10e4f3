package feature_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dshills/keyweave/internal/feature"
	"github.com/dshills/keyweave/internal/feature/featuretest"
	"github.com/dshills/keyweave/internal/keyboard"
	"github.com/dshills/keyweave/internal/keycode"
)

type stubFilter struct {
	name    string
	consume bool
	skip    bool
	seen    int
	ticks   int
	resets  int
}

func (f *stubFilter) Name() string { return f.name }

func (f *stubFilter) Handle(rec keyboard.Record, env feature.Env) feature.Result {
	f.seen++
	if f.consume {
		return feature.Consumed
	}
	return feature.Continue
}

func (f *stubFilter) Skip(env feature.Env) bool { return f.skip }
func (f *stubFilter) Tick(env feature.Env) { f.ticks++ }
func (f *stubFilter) Reset(env feature.Env) { f.resets++ }

func TestChain_Order(t *testing.T) {
	a := &stubFilter{name: "a"}
	b := &stubFilter{name: "b", consume: true}
	c := &stubFilter{name: "c"}
	chain := feature.NewChain(nil, a, b, c)
	env := featuretest.New(1)

	res := chain.Handle(featuretest.Press(keycode.Basic(keycode.UsageA), 0, 0), env)

	assert.Equal(t, feature.Consumed, res)
	assert.Equal(t, 1, a.seen)
	assert.Equal(t, 1, b.seen)
	assert.Equal(t, 0, c.seen, "consumed records stop")
}

func TestChain_Skip(t *testing.T) {
	a := &stubFilter{name: "a", consume: true, skip: true}
	b := &stubFilter{name: "b"}
	chain := feature.NewChain(nil, a, b)

	res := chain.Handle(featuretest.Press(keycode.Basic(keycode.UsageA), 0, 0), featuretest.New(1))
	assert.Equal(t, feature.Continue, res)
	assert.Equal(t, 0, a.seen)
	assert.Equal(t, 1, b.seen)
}

func TestChain_TickAndReset(t *testing.T) {
	a := &stubFilter{name: "a"}
	b := &stubFilter{name: "b"}
	chain := feature.NewChain(nil, a, b)
	env := featuretest.New(1)

	chain.Tick(env)
	chain.Reset(env)
	assert.Equal(t, 1, a.ticks)
	assert.Equal(t, 1, b.resets)
	assert.Len(t, chain.Filters(), 2)
	assert.Equal(t, "consumed", feature.Consumed.String())
}
