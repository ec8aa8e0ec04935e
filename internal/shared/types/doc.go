// Package types provides the shared desktop data model.
//
// These types mirror the wire shape the desktop server pushes to viewers and
// are used by every layer of the client: the codec decodes into them, the
// store holds them, and the interaction controller reads their geometry.
//
// Core Types:
//   - DesktopState: windows, active window pointer, registered apps
//   - WindowState: one positioned, sized, focusable window
//   - AppDefinition: an app that windows can host
//   - Bounds: window geometry used by gestures
//
// Example Usage:
//
//	state := types.DesktopState{}
//	if w, ok := state.Window("win-1"); ok {
//	    fmt.Println(w.Title)
//	}
package types
