// Package engine is the per-scan dispatcher that turns physical key events
// into host HID operations.
//
// Every event passes through a fixed pipeline of stages, each handing
// zero or more records to the next:
//
//	tap-hold -> combo -> tap-dance -> leader -> feature chain
//	         -> custom keycodes -> default emission
//
// The feature chain runs vim mode, dynamic macros, layer lock, sentence
// case, and select word, in that order. Layer changes happen as a side
// effect of emission.
//
// # Timing
//
// The engine has no timers. Deadlines are checked by Tick, which the scan
// loop calls once per cycle, and by every Process call. Tick is idempotent
// while no deadline has passed.
//
// # Concurrency
//
// An Engine is not safe for concurrent use. Process, Tick, Encoder, and
// DipSwitch must all be called from the scan goroutine.
package engine
