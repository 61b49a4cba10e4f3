// Package keyboard defines the physical input model shared by every stage
// of the engine: matrix positions, timed press/release events, and the
// records that flow between pipeline stages.
package keyboard

import (
	"fmt"
	"time"

	"github.com/dshills/keyweave/internal/keycode"
)

// VirtualRow marks positions that do not exist on the matrix. Combos and
// tap-dances emit their synthetic records at virtual positions.
const VirtualRow uint8 = 0xFF

// Position is a physical matrix coordinate.
type Position struct {
	Row uint8
	Col uint8
}

// Virtual returns the virtual position with index i.
func Virtual(i int) Position {
	return Position{Row: VirtualRow, Col: uint8(i)}
}

// IsVirtual returns true for positions outside the matrix.
func (p Position) IsVirtual() bool {
	return p.Row == VirtualRow
}

// String returns "row,col" or "virtual:n".
func (p Position) String() string {
	if p.IsVirtual() {
		return fmt.Sprintf("virtual:%d", p.Col)
	}
	return fmt.Sprintf("%d,%d", p.Row, p.Col)
}

// Event is a single debounced key transition.
type Event struct {
	// Pos identifies the switch that changed.
	Pos Position

	// Pressed is true for a press, false for a release.
	Pressed bool

	// Time is the monotonic scan time at which the transition was seen.
	Time time.Duration
}

// Press creates a press event.
func Press(pos Position, at time.Duration) Event {
	return Event{Pos: pos, Pressed: true, Time: at}
}

// Release creates a release event.
func Release(pos Position, at time.Duration) Event {
	return Event{Pos: pos, Time: at}
}

// String returns a compact representation, e.g. "down 1,3 @250ms".
func (e Event) String() string {
	dir := "up"
	if e.Pressed {
		dir = "down"
	}
	return fmt.Sprintf("%s %s @%s", dir, e.Pos, e.Time)
}

// Resolution is the outcome of tap/hold resolution for a record.
type Resolution uint8

const (
	// Unresolved means the keycode was never subject to tap/hold resolution.
	Unresolved Resolution = iota

	// Tapped means the key resolved to its tap action.
	Tapped

	// Held means the key resolved to its hold action.
	Held
)

// String returns the resolution name.
func (r Resolution) String() string {
	switch r {
	case Tapped:
		return "tap"
	case Held:
		return "hold"
	default:
		return "none"
	}
}

// TapInfo carries the resolution of a dual-role key.
type TapInfo struct {
	Resolution Resolution

	// Count is the number of consecutive quick taps, starting at 1.
	Count int
}

// Record is an event annotated with the keycode it resolved to. Records are
// the unit of exchange between pipeline stages.
type Record struct {
	Event
	Keycode keycode.Keycode
	Tap     TapInfo

	// Synthetic marks records generated by a stage rather than the matrix.
	Synthetic bool
}

// Tapped returns true if the record resolved as a tap.
func (r Record) Tapped() bool {
	return r.Tap.Resolution == Tapped
}

// Held returns true if the record resolved as a hold.
func (r Record) Held() bool {
	return r.Tap.Resolution == Held
}

// String returns a compact representation for logging.
func (r Record) String() string {
	s := fmt.Sprintf("%s %s", r.Event, r.Keycode)
	if r.Tap.Resolution != Unresolved {
		s += " " + r.Tap.Resolution.String()
	}
	if r.Synthetic {
		s += " synthetic"
	}
	return s
}

// Handler receives records from the previous stage.
type Handler func(rec Record)

// Discard is a handler that drops every record.
func Discard(Record) {}
