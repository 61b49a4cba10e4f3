package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/dshills/keyweave/internal/engine"
)

// stateFile is the TOML document written by FileStore.
type stateFile struct {
	Keyboard     string    `toml:"keyboard,omitempty"`
	DefaultLayer int       `toml:"default_layer"`
	Saved        time.Time `toml:"saved"`
}

// FileStore persists the default layer in a small TOML file. It stands in
// for the EEPROM of a real keyboard.
type FileStore struct {
	path     string
	keyboard string
}

// NewFileStore creates a store at path for the named keyboard.
func NewFileStore(path, keyboard string) *FileStore {
	return &FileStore{path: path, keyboard: keyboard}
}

// LoadDefault implements engine.DefaultLayerStore. A missing or unreadable
// file, or one saved for another keyboard, reports no saved layer.
func (s *FileStore) LoadDefault() (int, bool) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return 0, false
	}
	var st stateFile
	if err := toml.Unmarshal(data, &st); err != nil {
		return 0, false
	}
	if st.Keyboard != s.keyboard {
		return 0, false
	}
	return st.DefaultLayer, true
}

// SaveDefault implements engine.DefaultLayerStore.
func (s *FileStore) SaveDefault(layer int) error {
	data, err := toml.Marshal(stateFile{
		Keyboard:     s.keyboard,
		DefaultLayer: layer,
		Saved:        time.Now().UTC().Truncate(time.Second),
	})
	if err != nil {
		return fmt.Errorf("encoding state: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("creating state directory: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("writing state: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("writing state: %w", err)
	}
	return nil
}

var _ engine.DefaultLayerStore = (*FileStore)(nil)
