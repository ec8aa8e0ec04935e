// Package protocol implements the desktop sync wire protocol.
//
// Frames are JSON text objects discriminated by a string "type" field.
//
// Message Types (Client → Server):
//   - subscribe: Start receiving events for a desktop id
//   - ping: Keep-alive
//
// Message Types (Server → Client):
//   - pong: Keep-alive acknowledgment
//   - desktop_state: Full snapshot, replaces all local state
//   - window_opened, window_closed: Window lifecycle
//   - window_moved, window_resized: Geometry deltas
//   - window_focused, window_minimized, window_maximized, window_restored
//   - app_registered: App definition insert or overwrite
//   - error: Server-reported application error
//
// Decode never fails loudly: malformed frames, frames without a string type
// and frames with an unknown type all decode to nil so the client keeps
// working as the server's message set evolves.
//
// Example Usage:
//
//	msg := protocol.Decode(frame)
//	if msg == nil {
//	    return // dropped
//	}
//	switch m := msg.(type) {
//	case protocol.WindowMoved:
//	    fmt.Println(m.WindowID, m.X, m.Y)
//	}
package protocol
