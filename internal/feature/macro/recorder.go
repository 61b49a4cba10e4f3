package macro

import (
	"errors"
	"fmt"
	"sync"

	"github.com/dshills/keyweave/internal/keyboard"
)

// Defaults
const (
	DefaultSlots = 2
	DefaultSize  = 128
)

// Recorder errors
var (
	ErrInvalidSlot      = errors.New("invalid macro slot")
	ErrAlreadyRecording = errors.New("already recording")
)

// Recorder stores macro slots and the recording in progress.
type Recorder struct {
	mu        sync.Mutex
	size      int
	recording bool
	slot      int
	records   []keyboard.Record
	slots     [][]keyboard.Record
}

// NewRecorder creates a recorder with n slots of at most size records.
func NewRecorder(n, size int) *Recorder {
	if n <= 0 {
		n = DefaultSlots
	}
	if size <= 0 {
		size = DefaultSize
	}
	return &Recorder{
		size:  size,
		slots: make([][]keyboard.Record, n),
	}
}

// Size returns the capacity of a slot.
func (r *Recorder) Size() int {
	return r.size
}

// Slots returns the number of slots.
func (r *Recorder) Slots() int {
	return len(r.slots)
}

// IsValidSlot returns true if slot exists.
func (r *Recorder) IsValidSlot(slot int) bool {
	return slot >= 0 && slot < len(r.slots)
}

// StartRecording begins recording into slot.
func (r *Recorder) StartRecording(slot int) error {
	if !r.IsValidSlot(slot) {
		return fmt.Errorf("%w: %d", ErrInvalidSlot, slot)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.recording {
		return fmt.Errorf("%w into slot %d", ErrAlreadyRecording, r.slot)
	}
	r.recording = true
	r.slot = slot
	r.records = nil
	return nil
}

// StopRecording saves the recording into its slot and returns it, or nil
// when not recording. An empty recording leaves the slot unchanged.
func (r *Recorder) StopRecording() []keyboard.Record {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.recording {
		return nil
	}
	r.recording = false
	if len(r.records) > 0 {
		r.slots[r.slot] = clone(r.records)
	}
	result := r.records
	r.records = nil
	return result
}

// Abort ends the recording and discards it.
func (r *Recorder) Abort() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.recording = false
	r.records = nil
}

// IsRecording returns true while recording.
func (r *Recorder) IsRecording() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.recording
}

// CurrentSlot returns the slot being recorded, or -1.
func (r *Recorder) CurrentSlot() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.recording {
		return r.slot
	}
	return -1
}

// Record appends rec to the recording. It returns false once the slot is
// full.
func (r *Recorder) Record(rec keyboard.Record) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.recording {
		return false
	}
	if len(r.records) >= r.size {
		return false
	}
	r.records = append(r.records, rec)
	return true
}

// Get returns a copy of a slot.
func (r *Recorder) Get(slot int) []keyboard.Record {
	if !r.IsValidSlot(slot) {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return clone(r.slots[slot])
}

// Set replaces a slot, truncated to the slot size.
func (r *Recorder) Set(slot int, records []keyboard.Record) error {
	if !r.IsValidSlot(slot) {
		return fmt.Errorf("%w: %d", ErrInvalidSlot, slot)
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(records) > r.size {
		records = records[:r.size]
	}
	r.slots[slot] = clone(records)
	return nil
}

// HasMacro returns true if slot holds records.
func (r *Recorder) HasMacro(slot int) bool {
	if !r.IsValidSlot(slot) {
		return false
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.slots[slot]) > 0
}

// ClearAll empties every slot.
func (r *Recorder) ClearAll() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.slots {
		r.slots[i] = nil
	}
}

func clone(records []keyboard.Record) []keyboard.Record {
	if len(records) == 0 {
		return nil
	}
	out := make([]keyboard.Record, len(records))
	copy(out, records)
	return out
}
