package hid

import "github.com/dshills/keyweave/internal/keycode"

// Output tracks host-visible key and modifier state and emits the ops
// needed to reach it.
//
// Effective modifiers are the union of three sets:
//   - real: reference counted, held by pressed keys and hold actions
//   - weak: applied to the next key-down only, then cleared
//   - one-shot: like weak, but armed by OSM keys and leader actions
//
// Output is not safe for concurrent use.
type Output struct {
	sink Sink

	keys    [256]uint8
	real    [8]uint8
	weak    keycode.Mod
	oneShot keycode.Mod
	sent    keycode.Mod
}

// NewOutput creates an output writing to sink.
func NewOutput(sink Sink) *Output {
	return &Output{sink: sink}
}

// Mods returns the effective modifier set.
func (o *Output) Mods() keycode.Mod {
	return o.RealMods() | o.weak | o.oneShot
}

// RealMods returns the modifiers held by pressed keys.
func (o *Output) RealMods() keycode.Mod {
	var m keycode.Mod
	for i, n := range o.real {
		if n > 0 {
			m |= 1 << uint(i)
		}
	}
	return m
}

// WeakMods returns the pending weak modifiers.
func (o *Output) WeakMods() keycode.Mod {
	return o.weak
}

// OneShotMods returns the armed one-shot modifiers.
func (o *Output) OneShotMods() keycode.Mod {
	return o.oneShot
}

// IsDown returns true if u is held.
func (o *Output) IsDown(u keycode.Usage) bool {
	if u.IsModifier() {
		return o.RealMods().Has(u.Mod())
	}
	return o.keys[u] > 0
}

// RegisterMods holds mods until a matching UnregisterMods.
func (o *Output) RegisterMods(mods keycode.Mod) {
	for i := range o.real {
		if mods&(1<<uint(i)) != 0 && o.real[i] < 255 {
			o.real[i]++
		}
	}
	o.syncMods()
}

// UnregisterMods releases one hold of each of mods.
func (o *Output) UnregisterMods(mods keycode.Mod) {
	for i := range o.real {
		if mods&(1<<uint(i)) != 0 && o.real[i] > 0 {
			o.real[i]--
		}
	}
	o.syncMods()
}

// AddWeakMods applies mods to the next key-down only. Weak mods are not
// reported until that key-down.
func (o *Output) AddWeakMods(mods keycode.Mod) {
	o.weak |= mods
}

// AddOneShotMods arms mods for the next key-down.
func (o *Output) AddOneShotMods(mods keycode.Mod) {
	o.oneShot |= mods
}

// ClearOneShotMods disarms one-shot mods.
func (o *Output) ClearOneShotMods() {
	o.oneShot = keycode.ModNone
	o.syncMods()
}

// KeyDown presses u. Modifier usages are registered as real mods.
func (o *Output) KeyDown(u keycode.Usage) {
	if u == keycode.UsageNone {
		return
	}
	if u.IsModifier() {
		o.RegisterMods(u.Mod())
		return
	}

	o.keys[u]++
	if o.keys[u] > 1 {
		return
	}
	o.syncModsWith(o.Mods())
	o.sink.Send(Op{Kind: KeyDown, Usage: u})
	o.weak, o.oneShot = keycode.ModNone, keycode.ModNone
	o.syncMods()
}

// KeyUp releases u.
func (o *Output) KeyUp(u keycode.Usage) {
	if u == keycode.UsageNone {
		return
	}
	if u.IsModifier() {
		o.UnregisterMods(u.Mod())
		return
	}
	if o.keys[u] == 0 {
		return
	}
	o.keys[u]--
	if o.keys[u] == 0 {
		o.sink.Send(Op{Kind: KeyUp, Usage: u})
	}
}

// Press presses a basic keycode with its modifiers.
func (o *Output) Press(kc keycode.Keycode) {
	if kc.Mods != keycode.ModNone {
		o.RegisterMods(kc.Mods)
	}
	o.KeyDown(kc.Code)
}

// Release undoes Press.
func (o *Output) Release(kc keycode.Keycode) {
	o.KeyUp(kc.Code)
	if kc.Mods != keycode.ModNone {
		o.UnregisterMods(kc.Mods)
	}
}

// Tap presses and releases a basic keycode.
func (o *Output) Tap(kc keycode.Keycode) {
	o.Press(kc)
	o.Release(kc)
}

// Clear releases every key and modifier and drops weak and one-shot mods.
func (o *Output) Clear() {
	for u, n := range o.keys {
		if n > 0 {
			o.keys[u] = 0
			o.sink.Send(Op{Kind: KeyUp, Usage: keycode.Usage(u)})
		}
	}
	o.ClearMods()
}

// ClearMods drops every modifier, real, weak, and one-shot.
func (o *Output) ClearMods() {
	o.real = [8]uint8{}
	o.weak, o.oneShot = keycode.ModNone, keycode.ModNone
	o.syncMods()
}

// syncMods reports the real modifiers. Weak and one-shot mods only reach
// the host together with a key-down.
func (o *Output) syncMods() {
	o.syncModsWith(o.RealMods())
}

func (o *Output) syncModsWith(want keycode.Mod) {
	if up := o.sent &^ want; up != keycode.ModNone {
		o.sink.Send(Op{Kind: ModUp, Mods: up})
	}
	if down := want &^ o.sent; down != keycode.ModNone {
		o.sink.Send(Op{Kind: ModDown, Mods: down})
	}
	o.sent = want
}
