package layer

import (
	"math/bits"

	"github.com/dshills/keyweave/internal/keyboard"
	"github.com/dshills/keyweave/internal/keycode"
)

// State is a bitset of active layers; bit n is layer n.
type State uint32

// Has returns true if layer n is set.
func (s State) Has(n int) bool {
	return n >= 0 && n < MaxLayers && s&(1<<uint(n)) != 0
}

// Highest returns the highest set layer, or -1 when empty.
func (s State) Highest() int {
	return bits.Len32(uint32(s)) - 1
}

// TriLayer forces Result on while both Lower and Upper are active.
type TriLayer struct {
	Lower  int
	Upper  int
	Result int
}

// Change describes the stack after an effective change.
type Change struct {
	// State is the override bitset, excluding the default layer.
	State State

	// Default is the default layer index.
	Default int

	// Highest is the highest active layer including the default.
	Highest int
}

// Observer is called after every effective change to the stack.
type Observer func(change Change)

// Subscription represents an active observer subscription.
type Subscription struct {
	id    uint64
	stack *Stack
}

// Unsubscribe removes this subscription.
func (s *Subscription) Unsubscribe() {
	if s.stack != nil {
		delete(s.stack.observers, s.id)
		s.stack = nil
	}
}

// Stack is the set of active layers over a keymap. It is not safe for
// concurrent use; the engine owns it exclusively.
type Stack struct {
	keymap *Keymap
	state  State
	def    int
	locked State
	tri    []TriLayer

	observers map[uint64]Observer
	nextID    uint64
}

// NewStack creates a stack with layer def as the default layer.
func NewStack(keymap *Keymap, def int, tri ...TriLayer) *Stack {
	s := &Stack{
		keymap:    keymap,
		tri:       tri,
		observers: make(map[uint64]Observer),
	}
	if s.valid(def) {
		s.def = def
	}
	return s
}

// Keymap returns the keymap the stack resolves against.
func (s *Stack) Keymap() *Keymap {
	return s.keymap
}

// Resolve returns the keycode at pos on the highest active layer, falling
// through transparent entries to lower active layers. A position that is
// transparent all the way down resolves to KC_NO.
func (s *Stack) Resolve(pos keyboard.Position) keycode.Keycode {
	active := s.Active()
	for i := active.Highest(); i >= 0; i-- {
		if !active.Has(i) {
			continue
		}
		kc := s.keymap.At(i, pos)
		if !kc.IsTransparent() {
			return kc
		}
	}
	return keycode.No
}

// Active returns the override bitset plus the default layer.
func (s *Stack) Active() State {
	return s.state | 1<<uint(s.def)
}

// State returns the override bitset, excluding the default layer.
func (s *Stack) State() State {
	return s.state
}

// Default returns the default layer index.
func (s *Stack) Default() int {
	return s.def
}

// Locked returns the bitset of locked layers.
func (s *Stack) Locked() State {
	return s.locked
}

// Highest returns the highest active layer including the default.
func (s *Stack) Highest() int {
	return s.Active().Highest()
}

// IsOn returns true if layer n is active, either as an override or as the
// default layer.
func (s *Stack) IsOn(n int) bool {
	return s.Active().Has(n)
}

// IsLocked returns true if layer n is locked.
func (s *Stack) IsLocked(n int) bool {
	return s.locked.Has(n)
}

// On activates layer n.
func (s *Stack) On(n int) {
	if !s.valid(n) {
		return
	}
	s.set(s.state|1<<uint(n), s.def, s.locked)
}

// Off deactivates layer n. Locked layers stay on until unlocked.
func (s *Stack) Off(n int) {
	if !s.valid(n) || s.locked.Has(n) {
		return
	}
	s.set(s.state&^(1<<uint(n)), s.def, s.locked)
}

// Toggle flips layer n.
func (s *Stack) Toggle(n int) {
	if s.state.Has(n) {
		s.Off(n)
		return
	}
	s.On(n)
}

// Move makes n the default layer and clears every override and lock.
func (s *Stack) Move(n int) {
	if !s.valid(n) {
		return
	}
	s.set(0, n, 0)
}

// SetDefault replaces the default layer, keeping overrides.
func (s *Stack) SetDefault(n int) {
	if !s.valid(n) {
		return
	}
	s.set(s.state, n, s.locked)
}

// Lock activates layer n and keeps it on through Off.
func (s *Stack) Lock(n int) {
	if !s.valid(n) {
		return
	}
	s.set(s.state|1<<uint(n), s.def, s.locked|1<<uint(n))
}

// Unlock releases the lock on layer n and turns it off.
func (s *Stack) Unlock(n int) {
	if !s.valid(n) || !s.locked.Has(n) {
		return
	}
	s.set(s.state&^(1<<uint(n)), s.def, s.locked&^(1<<uint(n)))
}

// Clear turns off every override and lock, keeping the default layer.
func (s *Stack) Clear() {
	s.set(0, s.def, 0)
}

// Subscribe registers an observer for stack changes.
func (s *Stack) Subscribe(observer Observer) *Subscription {
	s.nextID++
	s.observers[s.nextID] = observer
	return &Subscription{id: s.nextID, stack: s}
}

func (s *Stack) valid(n int) bool {
	return n >= 0 && n < MaxLayers && n < s.keymap.Len()
}

// set applies a new state, recomputes tri-layer rules, and notifies
// observers if anything changed.
func (s *Stack) set(state State, def int, locked State) {
	state = s.applyTri(state|locked, locked)
	if state == s.state && def == s.def && locked == s.locked {
		return
	}
	s.state, s.def, s.locked = state, def, locked

	change := Change{State: s.state, Default: s.def, Highest: s.Highest()}
	for _, obs := range s.observers {
		obs(change)
	}
}

func (s *Stack) applyTri(state, locked State) State {
	for _, t := range s.tri {
		if !s.valid(t.Result) {
			continue
		}
		both := State(1<<uint(t.Lower) | 1<<uint(t.Upper))
		if state&both == both {
			state |= 1 << uint(t.Result)
		} else if !locked.Has(t.Result) {
			state &^= 1 << uint(t.Result)
		}
	}
	return state
}
