package protocol

import (
	"fmt"

	"github.com/GriffinCanCode/AgentOS/deskview/internal/shared/types"
	"github.com/bytedance/sonic"
)

// api is std-compatible so type mismatches are reported instead of coerced
var api = sonic.ConfigStd

type envelope struct {
	Type *string `json:"type"`
}

// Kind returns the discriminant of a raw frame, or "" when it has none
func Kind(raw []byte) string {
	var env envelope
	if err := api.Unmarshal(raw, &env); err != nil || env.Type == nil {
		return ""
	}
	return *env.Type
}

// Decode parses a server frame. It returns nil for anything it cannot
// turn into a known, well-formed message.
func Decode(raw []byte) ServerMessage {
	var env envelope
	if err := api.Unmarshal(raw, &env); err != nil || env.Type == nil {
		return nil
	}

	switch *env.Type {
	case TypePong:
		return Pong{}

	case TypeDesktopState:
		w, ok := decodeInto[struct {
			Desktop *types.DesktopState `json:"desktop"`
		}](raw)
		if !ok || w.Desktop == nil {
			return nil
		}
		return DesktopSnapshot{Desktop: *w.Desktop}

	case TypeWindowOpened:
		w, ok := decodeInto[struct {
			Window *types.WindowState `json:"window"`
		}](raw)
		if !ok || w.Window == nil || w.Window.ID == "" {
			return nil
		}
		return WindowOpened{Window: *w.Window}

	case TypeWindowClosed:
		id, ok := decodeWindowID(raw)
		if !ok {
			return nil
		}
		return WindowClosed{WindowID: id}

	case TypeWindowMoved:
		w, ok := decodeInto[struct {
			WindowID *string `json:"window_id"`
			X        *int    `json:"x"`
			Y        *int    `json:"y"`
		}](raw)
		if !ok || w.WindowID == nil || w.X == nil || w.Y == nil {
			return nil
		}
		return WindowMoved{WindowID: *w.WindowID, X: *w.X, Y: *w.Y}

	case TypeWindowResized:
		w, ok := decodeInto[struct {
			WindowID *string `json:"window_id"`
			Width    *int    `json:"width"`
			Height   *int    `json:"height"`
		}](raw)
		if !ok || w.WindowID == nil || w.Width == nil || w.Height == nil {
			return nil
		}
		return WindowResized{WindowID: *w.WindowID, Width: *w.Width, Height: *w.Height}

	case TypeWindowFocused:
		w, ok := decodeInto[struct {
			WindowID *string `json:"window_id"`
			ZIndex   *int    `json:"z_index"`
		}](raw)
		if !ok || w.WindowID == nil {
			return nil
		}
		return WindowFocused{WindowID: *w.WindowID, ZIndex: w.ZIndex}

	case TypeWindowMinimized:
		id, ok := decodeWindowID(raw)
		if !ok {
			return nil
		}
		return WindowMinimized{WindowID: id}

	case TypeWindowMaximized:
		w, ok := decodeInto[boundsWire](raw)
		if !ok || !w.complete() {
			return nil
		}
		return WindowMaximized{
			WindowID: *w.WindowID,
			X:        *w.X,
			Y:        *w.Y,
			Width:    *w.Width,
			Height:   *w.Height,
		}

	case TypeWindowRestored:
		w, ok := decodeInto[struct {
			boundsWire
			From      *string `json:"from"`
			Maximized *bool   `json:"maximized"`
		}](raw)
		if !ok || !w.complete() || w.From == nil {
			return nil
		}
		msg := WindowRestored{
			WindowID: *w.WindowID,
			X:        *w.X,
			Y:        *w.Y,
			Width:    *w.Width,
			Height:   *w.Height,
			From:     *w.From,
		}
		if w.Maximized != nil {
			msg.Maximized = *w.Maximized
		}
		return msg

	case TypeAppRegistered:
		w, ok := decodeInto[struct {
			App *types.AppDefinition `json:"app"`
		}](raw)
		if !ok || w.App == nil || w.App.ID == "" {
			return nil
		}
		return AppRegistered{App: *w.App}

	case TypeError:
		w, ok := decodeInto[struct {
			Message *string `json:"message"`
		}](raw)
		if !ok || w.Message == nil {
			return nil
		}
		return ServerError{Message: *w.Message}
	}

	return nil
}

// boundsWire is shared by maximize and restore frames
type boundsWire struct {
	WindowID *string `json:"window_id"`
	X        *int    `json:"x"`
	Y        *int    `json:"y"`
	Width    *int    `json:"width"`
	Height   *int    `json:"height"`
}

func (b boundsWire) complete() bool {
	return b.WindowID != nil && b.X != nil && b.Y != nil && b.Width != nil && b.Height != nil
}

func decodeInto[T any](raw []byte) (T, bool) {
	var v T
	if err := api.Unmarshal(raw, &v); err != nil {
		return v, false
	}
	return v, true
}

func decodeWindowID(raw []byte) (string, bool) {
	w, ok := decodeInto[struct {
		WindowID *string `json:"window_id"`
	}](raw)
	if !ok || w.WindowID == nil {
		return "", false
	}
	return *w.WindowID, true
}

// EncodeClient serializes a client message into a wire frame
func EncodeClient(msg ClientMessage) ([]byte, error) {
	return encode(msg.Type(), msg)
}

// EncodeServer serializes a server message into a wire frame
func EncodeServer(msg ServerMessage) ([]byte, error) {
	return encode(msg.Type(), msg)
}

func encode(kind string, msg any) ([]byte, error) {
	body, err := api.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s message: %w", kind, err)
	}
	tag, err := api.Marshal(kind)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s message type: %w", kind, err)
	}

	// Splice the discriminant in front of the payload fields
	out := make([]byte, 0, len(body)+len(tag)+9)
	out = append(out, `{"type":`...)
	out = append(out, tag...)
	if len(body) > 2 {
		out = append(out, ',')
		out = append(out, body[1:]...)
	} else {
		out = append(out, '}')
	}
	return out, nil
}
