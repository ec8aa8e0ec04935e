// Package desktop holds the viewer's authoritative mirror of a desktop.
//
// State changes only by applying server messages. Apply is a pure function
// of (state, message); Store wraps it behind a single write path so the
// transport's dispatch loop is the only writer while any number of views read
// snapshots.
//
// Every rule is a field-level overwrite, so applying the same message twice
// in a row leaves the same state as applying it once. A desktop_state
// snapshot replaces everything; deltas never survive across one.
//
// Example Usage:
//
//	store := desktop.NewStore(logger)
//	client.OnMessage(func(msg protocol.ServerMessage) { store.Apply(msg) })
//	state := store.Snapshot()
package desktop
