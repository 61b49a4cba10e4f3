package macro

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/dshills/keyweave/internal/keyboard"
	"github.com/dshills/keyweave/internal/keycode"
)

// persistedRecord is the JSON form of a keyboard.Record.
type persistedRecord struct {
	Row     uint8  `json:"row"`
	Col     uint8  `json:"col"`
	Pressed bool   `json:"pressed"`
	Keycode string `json:"keycode"`
	Tap     string `json:"tap,omitempty"`
}

// persistedSlot is one macro slot.
type persistedSlot struct {
	Slot    int               `json:"slot"`
	Records []persistedRecord `json:"records"`
}

// persistedData is the root of a macro file.
type persistedData struct {
	Version int             `json:"version"`
	SavedAt time.Time       `json:"saved_at"`
	Slots   []persistedSlot `json:"slots"`
}

const currentVersion = 1

func toPersisted(rec keyboard.Record) persistedRecord {
	p := persistedRecord{
		Row:     rec.Pos.Row,
		Col:     rec.Pos.Col,
		Pressed: rec.Pressed,
		Keycode: rec.Keycode.String(),
	}
	if rec.Tap.Resolution != keyboard.Unresolved {
		p.Tap = rec.Tap.Resolution.String()
	}
	return p
}

// fromPersisted converts a stored record back. Times are not stored:
// playback is immediate.
func fromPersisted(p persistedRecord) (keyboard.Record, error) {
	kc, err := keycode.Parse(p.Keycode, keycode.Options{})
	if err != nil {
		return keyboard.Record{}, err
	}
	rec := keyboard.Record{
		Event:   keyboard.Event{Pos: keyboard.Position{Row: p.Row, Col: p.Col}, Pressed: p.Pressed},
		Keycode: kc,
	}
	switch p.Tap {
	case "tap":
		rec.Tap = keyboard.TapInfo{Resolution: keyboard.Tapped, Count: 1}
	case "hold":
		rec.Tap = keyboard.TapInfo{Resolution: keyboard.Held, Count: 1}
	}
	return rec, nil
}

// Export returns the recorder's slots as JSON.
func Export(recorder *Recorder) ([]byte, error) {
	data := persistedData{
		Version: currentVersion,
		SavedAt: time.Now(),
	}
	for slot := 0; slot < recorder.Slots(); slot++ {
		records := recorder.Get(slot)
		if len(records) == 0 {
			continue
		}
		ps := persistedSlot{Slot: slot + 1, Records: make([]persistedRecord, len(records))}
		for i, rec := range records {
			ps.Records[i] = toPersisted(rec)
		}
		data.Slots = append(data.Slots, ps)
	}
	return json.MarshalIndent(data, "", "  ")
}

// Import replaces the recorder's slots with those in jsonData. Slots the
// recorder does not have are skipped.
func Import(recorder *Recorder, jsonData []byte) error {
	var data persistedData
	if err := json.Unmarshal(jsonData, &data); err != nil {
		return fmt.Errorf("failed to unmarshal macros: %w", err)
	}
	if data.Version > currentVersion {
		return fmt.Errorf("unsupported macros version: %d (max supported: %d)",
			data.Version, currentVersion)
	}

	recorder.ClearAll()
	for _, ps := range data.Slots {
		slot := ps.Slot - 1
		if !recorder.IsValidSlot(slot) {
			continue
		}
		records := make([]keyboard.Record, 0, len(ps.Records))
		for i, p := range ps.Records {
			rec, err := fromPersisted(p)
			if err != nil {
				return fmt.Errorf("slot %d record %d: %w", ps.Slot, i, err)
			}
			records = append(records, rec)
		}
		if err := recorder.Set(slot, records); err != nil {
			return err
		}
	}
	return nil
}

// Save writes all slots to path atomically using a temporary file and
// rename.
func Save(recorder *Recorder, path string) error {
	jsonData, err := Export(recorder)
	if err != nil {
		return fmt.Errorf("failed to marshal macros: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	tempPath := path + ".tmp"
	if err := os.WriteFile(tempPath, jsonData, 0o644); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := os.Rename(tempPath, path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	return nil
}

// Load reads slots from path. A missing file is not an error.
func Load(recorder *Recorder, path string) error {
	jsonData, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read macros file: %w", err)
	}
	return Import(recorder, jsonData)
}

// DefaultPath returns the default macro file location,
// e.g. ~/.config/keyweave/macros.json.
func DefaultPath() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to get config directory: %w", err)
	}
	return filepath.Join(configDir, "keyweave", "macros.json"), nil
}
