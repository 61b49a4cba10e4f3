package engine

import "github.com/dshills/keyweave/internal/layer"

// Muse defaults.
const (
	DefaultMuseOffset = 70
	DefaultMuseTempo  = 50
)

// State is the mutable engine state outside the pipeline stages.
type State struct {
	// CapsOverride is true while caps lock has been forced on with
	// CAPS_TOGG.
	CapsOverride bool

	MuseMode    bool
	MuseOffset  int
	MuseTempo   int
	MuseCounter int

	// OneShotLayer is the layer armed by OSL, or -1.
	OneShotLayer int

	// ReplayDepth is 1 while a macro is being replayed.
	ReplayDepth int
}

func newState() State {
	return State{
		MuseOffset:   DefaultMuseOffset,
		MuseTempo:    DefaultMuseTempo,
		OneShotLayer: -1,
	}
}

// Indicators is the side-channel state consumed by indicator and audio
// collaborators.
type Indicators struct {
	Highest      int
	Layers       layer.State
	Locked       layer.State
	CapsOverride bool
	MuseMode     bool
	Recording    bool
}

// DefaultLayerStore persists the default layer across power cycles.
type DefaultLayerStore interface {
	// LoadDefault returns the saved default layer, if any.
	LoadDefault() (int, bool)

	// SaveDefault stores the default layer.
	SaveDefault(layer int) error
}

// MemoryStore is a DefaultLayerStore that keeps the layer in memory.
type MemoryStore struct {
	layer int
	saved bool
}

// LoadDefault implements DefaultLayerStore.
func (m *MemoryStore) LoadDefault() (int, bool) {
	return m.layer, m.saved
}

// SaveDefault implements DefaultLayerStore.
func (m *MemoryStore) SaveDefault(layer int) error {
	m.layer, m.saved = layer, true
	return nil
}

// Scripter runs custom action scripts.
type Scripter interface {
	Call(name string, pressed bool) error
}
