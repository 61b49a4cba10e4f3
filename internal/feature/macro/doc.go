// Package macro implements dynamic macros: key records captured at runtime
// into a small number of slots and replayed on demand.
//
// # Recording
//
// DM_REC1 or DM_REC2 starts recording into slot 1 or 2. Every record that
// reaches the filter is captured until DM_RSTP, or the record key again,
// stops and saves the slot. Escape aborts and discards the recording. A
// slot holds at most Size records; recording stops when it is full.
//
// # Playback
//
// DM_PLY1 or DM_PLY2 replays the slot through the rest of the feature
// chain and default emission. Playback does not nest: play and record keys
// are ignored while a replay is running.
//
// # Persistence
//
// Slots can be written to and read from a JSON file with Save and Load.
package macro
