package desktop

import (
	"github.com/GriffinCanCode/AgentOS/deskview/internal/protocol"
	"github.com/GriffinCanCode/AgentOS/deskview/internal/shared/types"
)

// Apply returns the state that results from applying msg to state.
// The input is never modified.
func Apply(state types.DesktopState, msg protocol.ServerMessage) types.DesktopState {
	next, _ := apply(state, msg)
	return next
}

// apply reports whether msg changed anything so the store can skip
// notifications for acknowledgments, errors and stale deltas.
func apply(state types.DesktopState, msg protocol.ServerMessage) (types.DesktopState, bool) {
	switch m := msg.(type) {
	case protocol.DesktopSnapshot:
		next := m.Desktop.Clone()
		next.Apps = dedupeApps(next.Apps)
		return next, true

	case protocol.WindowOpened:
		next := state.Clone()
		if i := next.WindowIndex(m.Window.ID); i >= 0 {
			next.Windows = append(next.Windows[:i], next.Windows[i+1:]...)
		}
		opened := types.DesktopState{Windows: []types.WindowState{m.Window}}.Clone().Windows[0]
		next.Windows = append(next.Windows, opened)
		next.ActiveWindow = types.StringPtr(m.Window.ID)
		return next, true

	case protocol.WindowClosed:
		i := state.WindowIndex(m.WindowID)
		active, hasActive := state.ActiveWindowID()
		clearActive := hasActive && active == m.WindowID
		if i < 0 && !clearActive {
			return state, false
		}
		next := state.Clone()
		if i >= 0 {
			next.Windows = append(next.Windows[:i], next.Windows[i+1:]...)
		}
		if clearActive {
			// The server follows up with a focus event if another window should win
			next.ActiveWindow = nil
		}
		return next, true

	case protocol.WindowMoved:
		return updateWindow(state, m.WindowID, func(w *types.WindowState) {
			w.X, w.Y = m.X, m.Y
		})

	case protocol.WindowResized:
		return updateWindow(state, m.WindowID, func(w *types.WindowState) {
			w.Width, w.Height = m.Width, m.Height
		})

	case protocol.WindowFocused:
		next, ok := updateWindow(state, m.WindowID, func(w *types.WindowState) {
			if m.ZIndex != nil {
				w.ZIndex = *m.ZIndex
			}
		})
		if !ok {
			return state, false
		}
		next.ActiveWindow = types.StringPtr(m.WindowID)
		return next, true

	case protocol.WindowMinimized:
		return updateWindow(state, m.WindowID, func(w *types.WindowState) {
			w.Minimized = true
		})

	case protocol.WindowMaximized:
		return updateWindow(state, m.WindowID, func(w *types.WindowState) {
			w.Maximized = true
			w.Minimized = false
			w.SetBounds(m.Bounds())
		})

	case protocol.WindowRestored:
		return updateWindow(state, m.WindowID, func(w *types.WindowState) {
			w.Maximized = m.Maximized
			w.Minimized = false
			w.SetBounds(m.Bounds())
		})

	case protocol.AppRegistered:
		next := state.Clone()
		if i := next.AppIndex(m.App.ID); i >= 0 {
			next.Apps[i] = m.App
		} else {
			next.Apps = append(next.Apps, m.App)
		}
		return next, true
	}

	// pong, error and anything unrecognized leave the desktop alone
	return state, false
}

// updateWindow applies fn to a copy of the named window. Unknown ids are a
// no-op so a close/move race never creates a phantom entry.
func updateWindow(state types.DesktopState, id string, fn func(*types.WindowState)) (types.DesktopState, bool) {
	i := state.WindowIndex(id)
	if i < 0 {
		return state, false
	}
	next := state.Clone()
	fn(&next.Windows[i])
	return next, true
}

// dedupeApps keeps the first position of each id with its last definition
func dedupeApps(apps []types.AppDefinition) []types.AppDefinition {
	seen := make(map[string]int, len(apps))
	dup := false
	for i, a := range apps {
		if _, ok := seen[a.ID]; ok {
			dup = true
			break
		}
		seen[a.ID] = i
	}
	if !dup {
		return apps
	}

	out := make([]types.AppDefinition, 0, len(apps))
	index := make(map[string]int, len(apps))
	for _, a := range apps {
		if i, ok := index[a.ID]; ok {
			out[i] = a
			continue
		}
		index[a.ID] = len(out)
		out = append(out, a)
	}
	return out
}
