package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/GriffinCanCode/AgentOS/deskview/internal/commands"
	"github.com/GriffinCanCode/AgentOS/deskview/internal/shared/types"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var (
	// ErrNoCommands is returned by operations that need the desktop API
	ErrNoCommands = errors.New("no command channel configured")
	// ErrUnknownApp is returned when opening an app the server does not know
	ErrUnknownApp = errors.New("unknown app")
)

// Inventory is what the server reports for the desktop right now, read
// straight from the API rather than the mirror
type Inventory struct {
	Apps    []types.AppDefinition `json:"apps"`
	Windows []types.WindowState   `json:"windows"`
}

// Inventory fetches registered apps and open windows from the server
func (s *Session) Inventory(ctx context.Context) (Inventory, error) {
	if s.commands == nil {
		return Inventory{}, ErrNoCommands
	}

	var inv Inventory
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		apps, err := s.commands.ListApps(gctx, s.desktopID)
		inv.Apps = apps
		return err
	})
	g.Go(func() error {
		windows, err := s.commands.ListWindows(gctx, s.desktopID)
		inv.Windows = windows
		return err
	})
	if err := g.Wait(); err != nil {
		return Inventory{}, fmt.Errorf("inventory %s: %w", s.desktopID, err)
	}
	return inv, nil
}

// OpenApp opens a window for appID. The title defaults to the app name. The
// new window reaches the mirror through the server's window_opened broadcast.
func (s *Session) OpenApp(ctx context.Context, appID, title string, props json.RawMessage) (types.WindowState, error) {
	if s.commands == nil {
		return types.WindowState{}, ErrNoCommands
	}

	app, err := s.lookupApp(ctx, appID)
	if err != nil {
		return types.WindowState{}, err
	}
	if title == "" {
		title = app.Name
	}

	w, err := s.commands.OpenWindow(ctx, s.desktopID, commands.OpenWindowRequest{
		AppID: appID,
		Title: title,
		Props: props,
	})
	if err != nil {
		return types.WindowState{}, fmt.Errorf("open %s: %w", appID, err)
	}
	s.log.Info("opened window", zap.String("app_id", appID), zap.String("window_id", w.ID))
	return w, nil
}

// lookupApp prefers the mirror and asks the server only on a miss
func (s *Session) lookupApp(ctx context.Context, appID string) (types.AppDefinition, error) {
	state, _ := s.store.Current()
	if app, ok := state.App(appID); ok {
		return app, nil
	}

	apps, err := s.commands.ListApps(ctx, s.desktopID)
	if err != nil {
		return types.AppDefinition{}, fmt.Errorf("list apps: %w", err)
	}
	for _, app := range apps {
		if app.ID == appID {
			return app, nil
		}
	}
	return types.AppDefinition{}, fmt.Errorf("%w: %s", ErrUnknownApp, appID)
}
