// Package feature defines the modal filter chain that runs after chord and
// sequence detection.
//
// Each filter owns an independent state machine and sees every record in
// chain order. A filter that returns Consumed stops the record: later
// filters, custom keycodes, and default emission never see it.
//
// Filters act on the keyboard only through Env, so they can be tested
// without an engine.
package feature
