package types

import (
	"encoding/json"
	"slices"
)

// WindowState represents a single window on the desktop
type WindowState struct {
	ID        string          `json:"id"`
	AppID     string          `json:"app_id"`
	Title     string          `json:"title"`
	X         int             `json:"x"`
	Y         int             `json:"y"`
	Width     int             `json:"width"`
	Height    int             `json:"height"`
	ZIndex    int             `json:"z_index"`
	Minimized bool            `json:"minimized"`
	Maximized bool            `json:"maximized"`
	Props     json.RawMessage `json:"props,omitempty"` // App-specific, passed through untouched
}

// Bounds returns the window geometry
func (w WindowState) Bounds() Bounds {
	return Bounds{X: w.X, Y: w.Y, Width: w.Width, Height: w.Height}
}

// SetBounds overwrites the window geometry
func (w *WindowState) SetBounds(b Bounds) {
	w.X, w.Y, w.Width, w.Height = b.X, b.Y, b.Width, b.Height
}

// Bounds is a window rectangle in pixels
type Bounds struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// AppDefinition describes an app registered on a desktop
type AppDefinition struct {
	ID            string `json:"id" yaml:"id" toml:"id"`
	Name          string `json:"name" yaml:"name" toml:"name"`
	Icon          string `json:"icon" yaml:"icon" toml:"icon"`
	ComponentCode string `json:"component_code" yaml:"component_code" toml:"component_code"` // Resolved by the view layer
	DefaultWidth  int    `json:"default_width" yaml:"default_width" toml:"default_width"`
	DefaultHeight int    `json:"default_height" yaml:"default_height" toml:"default_height"`
}

// DesktopState is the viewer's mirror of a server-owned desktop.
// Windows keep arrival order, not z-order.
type DesktopState struct {
	Windows      []WindowState   `json:"windows"`
	ActiveWindow *string         `json:"active_window"`
	Apps         []AppDefinition `json:"apps"`
}

// ActiveWindowID returns the active window id, if any
func (d DesktopState) ActiveWindowID() (string, bool) {
	if d.ActiveWindow == nil {
		return "", false
	}
	return *d.ActiveWindow, true
}

// Window looks up a window by id
func (d DesktopState) Window(id string) (WindowState, bool) {
	if i := d.WindowIndex(id); i >= 0 {
		return d.Windows[i], true
	}
	return WindowState{}, false
}

// WindowIndex returns the position of a window or -1
func (d DesktopState) WindowIndex(id string) int {
	return slices.IndexFunc(d.Windows, func(w WindowState) bool { return w.ID == id })
}

// App looks up an app definition by id
func (d DesktopState) App(id string) (AppDefinition, bool) {
	if i := d.AppIndex(id); i >= 0 {
		return d.Apps[i], true
	}
	return AppDefinition{}, false
}

// AppIndex returns the position of an app or -1
func (d DesktopState) AppIndex(id string) int {
	return slices.IndexFunc(d.Apps, func(a AppDefinition) bool { return a.ID == id })
}

// Clone returns a deep copy. Nil slices stay nil and empty slices stay empty.
func (d DesktopState) Clone() DesktopState {
	out := DesktopState{
		Windows: slices.Clone(d.Windows),
		Apps:    slices.Clone(d.Apps),
	}
	for i := range out.Windows {
		if out.Windows[i].Props != nil {
			out.Windows[i].Props = slices.Clone(out.Windows[i].Props)
		}
	}
	if d.ActiveWindow != nil {
		active := *d.ActiveWindow
		out.ActiveWindow = &active
	}
	return out
}

// StringPtr is a small helper for building ActiveWindow values
func StringPtr(s string) *string {
	return &s
}
