package protocol

import "github.com/GriffinCanCode/AgentOS/deskview/internal/shared/types"

// Server message discriminants
const (
	TypePong            = "pong"
	TypeDesktopState    = "desktop_state"
	TypeWindowOpened    = "window_opened"
	TypeWindowClosed    = "window_closed"
	TypeWindowMoved     = "window_moved"
	TypeWindowResized   = "window_resized"
	TypeWindowFocused   = "window_focused"
	TypeWindowMinimized = "window_minimized"
	TypeWindowMaximized = "window_maximized"
	TypeWindowRestored  = "window_restored"
	TypeAppRegistered   = "app_registered"
	TypeError           = "error"
)

// Client message discriminants
const (
	TypeSubscribe = "subscribe"
	TypePing      = "ping"
)

// ServerMessage is any message pushed by the desktop server
type ServerMessage interface {
	Type() string
}

// ClientMessage is any message a viewer sends to the server
type ClientMessage interface {
	Type() string
	clientMessage()
}

// Pong acknowledges a ping
type Pong struct{}

// DesktopSnapshot carries the full desktop and replaces local state
type DesktopSnapshot struct {
	Desktop types.DesktopState `json:"desktop"`
}

// WindowOpened appends a window and makes it active
type WindowOpened struct {
	Window types.WindowState `json:"window"`
}

// WindowClosed removes a window
type WindowClosed struct {
	WindowID string `json:"window_id"`
}

// WindowMoved updates a window position
type WindowMoved struct {
	WindowID string `json:"window_id"`
	X        int    `json:"x"`
	Y        int    `json:"y"`
}

// WindowResized updates a window size
type WindowResized struct {
	WindowID string `json:"window_id"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
}

// WindowFocused activates a window. ZIndex is nil when the server omits it.
type WindowFocused struct {
	WindowID string `json:"window_id"`
	ZIndex   *int   `json:"z_index,omitempty"`
}

// WindowMinimized minimizes a window
type WindowMinimized struct {
	WindowID string `json:"window_id"`
}

// WindowMaximized maximizes a window to server-computed bounds
type WindowMaximized struct {
	WindowID string `json:"window_id"`
	X        int    `json:"x"`
	Y        int    `json:"y"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
}

// Bounds returns the target bounds
func (m WindowMaximized) Bounds() types.Bounds {
	return types.Bounds{X: m.X, Y: m.Y, Width: m.Width, Height: m.Height}
}

// WindowRestored restores a window to server-tracked bounds.
// From names the state being left ("maximized" or "minimized").
type WindowRestored struct {
	WindowID  string `json:"window_id"`
	X         int    `json:"x"`
	Y         int    `json:"y"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
	From      string `json:"from"`
	Maximized bool   `json:"maximized,omitempty"`
}

// Bounds returns the target bounds
func (m WindowRestored) Bounds() types.Bounds {
	return types.Bounds{X: m.X, Y: m.Y, Width: m.Width, Height: m.Height}
}

// AppRegistered inserts or overwrites an app definition
type AppRegistered struct {
	App types.AppDefinition `json:"app"`
}

// ServerError is an application error reported by the server
type ServerError struct {
	Message string `json:"message"`
}

// Error implements error so notices can flow through error channels
func (m ServerError) Error() string { return m.Message }

func (Pong) Type() string            { return TypePong }
func (DesktopSnapshot) Type() string { return TypeDesktopState }
func (WindowOpened) Type() string    { return TypeWindowOpened }
func (WindowClosed) Type() string    { return TypeWindowClosed }
func (WindowMoved) Type() string     { return TypeWindowMoved }
func (WindowResized) Type() string   { return TypeWindowResized }
func (WindowFocused) Type() string   { return TypeWindowFocused }
func (WindowMinimized) Type() string { return TypeWindowMinimized }
func (WindowMaximized) Type() string { return TypeWindowMaximized }
func (WindowRestored) Type() string  { return TypeWindowRestored }
func (AppRegistered) Type() string   { return TypeAppRegistered }
func (ServerError) Type() string     { return TypeError }

// Subscribe asks the server to stream a desktop
type Subscribe struct {
	DesktopID string `json:"desktop_id"`
}

// Ping is a keep-alive
type Ping struct{}

func (Subscribe) Type() string { return TypeSubscribe }
func (Ping) Type() string      { return TypePing }

func (Subscribe) clientMessage() {}
func (Ping) clientMessage()      {}
