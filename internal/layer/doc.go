// Package layer provides the keymap tables and the layer stack that maps a
// physical position to a logical keycode.
//
// A Keymap holds one dense grid per layer and is never mutated after
// construction. A Stack tracks which layers are active on top of the
// default layer and resolves positions from the highest active layer down,
// deferring past transparent entries.
//
// Tri-layer: when both layers of a TriLayer rule are active, its third
// layer is forced on; when either is off, the third is forced off. The rule
// is recomputed after every change to the stack.
package layer
