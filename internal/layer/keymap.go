package layer

import (
	"errors"
	"fmt"

	"github.com/dshills/keyweave/internal/keyboard"
	"github.com/dshills/keyweave/internal/keycode"
)

// MaxLayers is the number of layers the stack can address.
const MaxLayers = 32

// Keymap errors
var (
	ErrNoLayers       = errors.New("keymap has no layers")
	ErrTooManyLayers  = errors.New("keymap has too many layers")
	ErrShape          = errors.New("layer does not match matrix size")
	ErrTransparentKey = errors.New("default layer has transparent entry")
)

// Layer is one named keycode grid.
type Layer struct {
	Name string
	Keys [][]keycode.Keycode
}

// Keymap is the read-only set of layer tables for a matrix.
type Keymap struct {
	Rows   int
	Cols   int
	Layers []Layer
}

// Validate checks that every layer matches the matrix size.
func (k *Keymap) Validate() error {
	if len(k.Layers) == 0 {
		return ErrNoLayers
	}
	if len(k.Layers) > MaxLayers {
		return fmt.Errorf("%w: %d > %d", ErrTooManyLayers, len(k.Layers), MaxLayers)
	}
	for _, l := range k.Layers {
		if len(l.Keys) != k.Rows {
			return fmt.Errorf("%w: layer %q has %d rows, want %d", ErrShape, l.Name, len(l.Keys), k.Rows)
		}
		for r, row := range l.Keys {
			if len(row) != k.Cols {
				return fmt.Errorf("%w: layer %q row %d has %d keys, want %d", ErrShape, l.Name, r, len(row), k.Cols)
			}
		}
	}
	return nil
}

// CheckDefault reports the first transparent entry of layer idx, which
// would have nothing to fall through to when used as the default layer.
func (k *Keymap) CheckDefault(idx int) error {
	if idx < 0 || idx >= len(k.Layers) {
		return nil
	}
	for r, row := range k.Layers[idx].Keys {
		for c, kc := range row {
			if kc.IsTransparent() {
				return fmt.Errorf("%w: layer %q at %d,%d", ErrTransparentKey, k.Layers[idx].Name, r, c)
			}
		}
	}
	return nil
}

// At returns the keycode of layer idx at pos, or KC_NO when either is out
// of range.
func (k *Keymap) At(idx int, pos keyboard.Position) keycode.Keycode {
	if idx < 0 || idx >= len(k.Layers) {
		return keycode.No
	}
	keys := k.Layers[idx].Keys
	if int(pos.Row) >= len(keys) || int(pos.Col) >= len(keys[pos.Row]) {
		return keycode.No
	}
	return keys[pos.Row][pos.Col]
}

// Index returns the index of the named layer.
func (k *Keymap) Index(name string) (int, bool) {
	for i, l := range k.Layers {
		if l.Name == name {
			return i, true
		}
	}
	return 0, false
}

// Name returns the name of layer idx, or its number when unnamed.
func (k *Keymap) Name(idx int) string {
	if idx >= 0 && idx < len(k.Layers) && k.Layers[idx].Name != "" {
		return k.Layers[idx].Name
	}
	return fmt.Sprintf("%d", idx)
}

// Names returns a map of layer names to indices.
func (k *Keymap) Names() map[string]int {
	names := make(map[string]int, len(k.Layers))
	for i, l := range k.Layers {
		if l.Name != "" {
			names[l.Name] = i
		}
	}
	return names
}

// Len returns the number of layers.
func (k *Keymap) Len() int {
	return len(k.Layers)
}
