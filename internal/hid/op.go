// Package hid models the host-facing side of the engine: the primitive
// operations sent to the transport, the sinks that consume them, and the
// modifier bookkeeping that decides when an operation is due.
package hid

import (
	"fmt"

	"github.com/dshills/keyweave/internal/keycode"
)

// OpKind identifies a primitive HID operation.
type OpKind uint8

const (
	// KeyDown adds a usage to the report.
	KeyDown OpKind = iota + 1

	// KeyUp removes a usage from the report.
	KeyUp

	// ModDown sets modifier bits in the report.
	ModDown

	// ModUp clears modifier bits in the report.
	ModUp
)

// String returns the op kind name.
func (k OpKind) String() string {
	switch k {
	case KeyDown:
		return "key-down"
	case KeyUp:
		return "key-up"
	case ModDown:
		return "mod-down"
	case ModUp:
		return "mod-up"
	default:
		return "unknown"
	}
}

// Op is one primitive HID operation.
type Op struct {
	Kind  OpKind
	Usage keycode.Usage
	Mods  keycode.Mod
}

// String returns e.g. "key-down KC_A" or "mod-down LSFT".
func (o Op) String() string {
	switch o.Kind {
	case ModDown, ModUp:
		return fmt.Sprintf("%s %s", o.Kind, o.Mods)
	default:
		return fmt.Sprintf("%s %s", o.Kind, o.Usage)
	}
}

// Sink consumes HID operations in order.
type Sink interface {
	Send(op Op)
}

// SinkFunc adapts a function to a Sink.
type SinkFunc func(op Op)

// Send calls f(op).
func (f SinkFunc) Send(op Op) {
	f(op)
}

// Multi returns a sink that forwards every op to each of sinks in order.
func Multi(sinks ...Sink) Sink {
	return SinkFunc(func(op Op) {
		for _, s := range sinks {
			s.Send(op)
		}
	})
}

// Recorder is a sink that keeps every op.
type Recorder struct {
	Ops []Op
}

// Send appends op.
func (r *Recorder) Send(op Op) {
	r.Ops = append(r.Ops, op)
}

// Reset drops recorded ops.
func (r *Recorder) Reset() {
	r.Ops = r.Ops[:0]
}

// Count returns how many recorded ops match kind and usage.
func (r *Recorder) Count(kind OpKind, u keycode.Usage) int {
	n := 0
	for _, op := range r.Ops {
		if op.Kind == kind && op.Usage == u {
			n++
		}
	}
	return n
}

// CountMods returns how many recorded ops of kind touch any of mods.
func (r *Recorder) CountMods(kind OpKind, mods keycode.Mod) int {
	n := 0
	for _, op := range r.Ops {
		if op.Kind == kind && op.Mods&mods != 0 {
			n++
		}
	}
	return n
}

// Strings returns the recorded ops in their string form.
func (r *Recorder) Strings() []string {
	out := make([]string, len(r.Ops))
	for i, op := range r.Ops {
		out[i] = op.String()
	}
	return out
}

// Keys returns the usages of recorded ops of kind, in order.
func (r *Recorder) Keys(kind OpKind) []keycode.Usage {
	var out []keycode.Usage
	for _, op := range r.Ops {
		if op.Kind == kind {
			out = append(out, op.Usage)
		}
	}
	return out
}
