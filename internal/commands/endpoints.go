package commands

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/GriffinCanCode/AgentOS/deskview/internal/shared/types"
	"go.uber.org/zap"
)

// registerRounds is how many passes RegisterApps makes before giving up
const registerRounds = 3

// OpenWindowRequest asks the server to open an app window
type OpenWindowRequest struct {
	AppID string          `json:"app_id"`
	Title string          `json:"title"`
	Props json.RawMessage `json:"props,omitempty"`
}

type desktopResponse struct {
	ack
	Desktop *types.DesktopState `json:"desktop"`
}

type windowsResponse struct {
	ack
	Windows []types.WindowState `json:"windows"`
}

type windowResponse struct {
	ack
	Window *types.WindowState `json:"window"`
}

type appsResponse struct {
	ack
	Apps []types.AppDefinition `json:"apps"`
}

type position struct {
	X int `json:"x"`
	Y int `json:"y"`
}

type size struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// GetDesktop fetches the full desktop state
func (c *Client) GetDesktop(ctx context.Context, desktopID string) (types.DesktopState, error) {
	var resp desktopResponse
	err := c.do(ctx, call{
		op:     "get_desktop",
		method: http.MethodGet,
		path:   "/desktop/{desktop}",
		params: map[string]string{"desktop": desktopID},
	}, &resp)
	if err != nil {
		return types.DesktopState{}, err
	}
	if resp.Desktop == nil {
		return types.DesktopState{}, errors.New("get_desktop: desktop missing from response")
	}
	return *resp.Desktop, nil
}

// ListWindows fetches the open windows
func (c *Client) ListWindows(ctx context.Context, desktopID string) ([]types.WindowState, error) {
	var resp windowsResponse
	err := c.do(ctx, call{
		op:     "list_windows",
		method: http.MethodGet,
		path:   "/desktop/{desktop}/windows",
		params: map[string]string{"desktop": desktopID},
	}, &resp)
	return resp.Windows, err
}

// OpenWindow opens a window for an app and returns the server's entry
func (c *Client) OpenWindow(ctx context.Context, desktopID string, req OpenWindowRequest) (types.WindowState, error) {
	var resp windowResponse
	err := c.do(ctx, call{
		op:     "open_window",
		method: http.MethodPost,
		path:   "/desktop/{desktop}/windows",
		params: map[string]string{"desktop": desktopID},
		body:   req,
	}, &resp)
	if err != nil {
		return types.WindowState{}, err
	}
	if resp.Window == nil {
		return types.WindowState{}, errors.New("open_window: window missing from response")
	}
	return *resp.Window, nil
}

// CloseWindow closes a window
func (c *Client) CloseWindow(ctx context.Context, desktopID, windowID string) error {
	return c.do(ctx, windowCall("close_window", http.MethodDelete, "", desktopID, windowID, nil), &ack{})
}

// FocusWindow brings a window to front
func (c *Client) FocusWindow(ctx context.Context, desktopID, windowID string) error {
	return c.do(ctx, windowCall("focus_window", http.MethodPost, "/focus", desktopID, windowID, nil), &ack{})
}

// MinimizeWindow minimizes a window
func (c *Client) MinimizeWindow(ctx context.Context, desktopID, windowID string) error {
	return c.do(ctx, windowCall("minimize_window", http.MethodPost, "/minimize", desktopID, windowID, nil), &ack{})
}

// MaximizeWindow maximizes a window. A non-nil work area tells the server
// which part of the viewport is usable.
func (c *Client) MaximizeWindow(ctx context.Context, desktopID, windowID string, workArea *types.Bounds) error {
	var body any
	if workArea != nil {
		body = workArea
	}
	return c.do(ctx, windowCall("maximize_window", http.MethodPost, "/maximize", desktopID, windowID, body), &ack{})
}

// RestoreWindow restores a minimized or maximized window
func (c *Client) RestoreWindow(ctx context.Context, desktopID, windowID string) error {
	return c.do(ctx, windowCall("restore_window", http.MethodPost, "/restore", desktopID, windowID, nil), &ack{})
}

// MoveWindow sets a window position
func (c *Client) MoveWindow(ctx context.Context, desktopID, windowID string, x, y int) error {
	body := position{X: x, Y: y}
	return c.do(ctx, windowCall("move_window", http.MethodPatch, "/position", desktopID, windowID, body), &ack{})
}

// ResizeWindow sets a window size
func (c *Client) ResizeWindow(ctx context.Context, desktopID, windowID string, width, height int) error {
	body := size{Width: width, Height: height}
	return c.do(ctx, windowCall("resize_window", http.MethodPatch, "/size", desktopID, windowID, body), &ack{})
}

// ListApps fetches the registered apps
func (c *Client) ListApps(ctx context.Context, desktopID string) ([]types.AppDefinition, error) {
	var resp appsResponse
	err := c.do(ctx, call{
		op:     "list_apps",
		method: http.MethodGet,
		path:   "/desktop/{desktop}/apps",
		params: map[string]string{"desktop": desktopID},
	}, &resp)
	return resp.Apps, err
}

// RegisterApp registers or overwrites one app definition
func (c *Client) RegisterApp(ctx context.Context, desktopID string, app types.AppDefinition) error {
	return c.do(ctx, call{
		op:     "register_app",
		method: http.MethodPost,
		path:   "/desktop/{desktop}/apps",
		params: map[string]string{"desktop": desktopID},
		body:   app,
	}, &ack{})
}

// RegisterApps registers a set of apps, retrying whole rounds while the API
// settles. It succeeds as soon as a round registers at least one app and
// returns how many made it.
func (c *Client) RegisterApps(ctx context.Context, desktopID string, apps []types.AppDefinition) (int, error) {
	if len(apps) == 0 {
		return 0, nil
	}

	var lastErr error
	for round := 1; round <= registerRounds; round++ {
		registered := 0
		for _, app := range apps {
			if err := c.RegisterApp(ctx, desktopID, app); err != nil {
				if ctx.Err() != nil {
					return 0, ctx.Err()
				}
				lastErr = err
				c.log.Warn("register app failed",
					zap.String("desktop_id", desktopID),
					zap.String("app_id", app.ID),
					zap.Int("round", round),
					zap.Error(err),
				)
				continue
			}
			registered++
		}

		if registered > 0 {
			return registered, nil
		}

		if round < registerRounds {
			timer := time.NewTimer(c.registerPause * time.Duration(round))
			select {
			case <-ctx.Done():
				timer.Stop()
				return 0, ctx.Err()
			case <-timer.C:
			}
		}
	}

	return 0, fmt.Errorf("register apps on %s after %d rounds: %w", desktopID, registerRounds, lastErr)
}
