package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/GriffinCanCode/AgentOS/deskview/internal/commands"
	"github.com/GriffinCanCode/AgentOS/deskview/internal/desktop"
	"github.com/GriffinCanCode/AgentOS/deskview/internal/infrastructure/logging"
	"github.com/GriffinCanCode/AgentOS/deskview/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/AgentOS/deskview/internal/interaction"
	"github.com/GriffinCanCode/AgentOS/deskview/internal/protocol"
	"github.com/GriffinCanCode/AgentOS/deskview/internal/shared/types"
	"github.com/GriffinCanCode/AgentOS/deskview/internal/transport"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const defaultQueueSize = 128

var (
	// ErrUnknownWindow is returned for a window the store does not hold
	ErrUnknownWindow = errors.New("unknown window")
	// ErrQueueFull is reported for a command evicted by newer ones
	ErrQueueFull = errors.New("command queue full")
)

// Commands is the part of the desktop API a session drives.
// *commands.Client satisfies it.
type Commands interface {
	GetDesktop(ctx context.Context, desktopID string) (types.DesktopState, error)
	FocusWindow(ctx context.Context, desktopID, windowID string) error
	CloseWindow(ctx context.Context, desktopID, windowID string) error
	MinimizeWindow(ctx context.Context, desktopID, windowID string) error
	MaximizeWindow(ctx context.Context, desktopID, windowID string, workArea *types.Bounds) error
	RestoreWindow(ctx context.Context, desktopID, windowID string) error
	MoveWindow(ctx context.Context, desktopID, windowID string, x, y int) error
	ResizeWindow(ctx context.Context, desktopID, windowID string, width, height int) error
	OpenWindow(ctx context.Context, desktopID string, req commands.OpenWindowRequest) (types.WindowState, error)
	ListWindows(ctx context.Context, desktopID string) ([]types.WindowState, error)
	ListApps(ctx context.Context, desktopID string) ([]types.AppDefinition, error)
}

// Config configures a Session
type Config struct {
	DesktopID    string
	ViewerID     string
	Viewport     interaction.Size
	PingInterval time.Duration
	QueueSize    int
	Transport    transport.Config
	Commands     Commands
	Metrics      *monitoring.Metrics
	Logger       *logging.Logger
}

// Session mirrors one desktop and turns gestures into commands
type Session struct {
	desktopID    string
	viewerID     string
	pingInterval time.Duration

	client   *transport.Client
	store    *desktop.Store
	commands Commands
	metrics  *monitoring.Metrics
	queue    *commandQueue
	log      *logging.Logger

	mu          sync.Mutex
	viewport    interaction.Size
	controllers map[string]*interaction.Controller
	listeners   map[uint64]NoticeListener
	nextID      uint64

	subs        []*transport.Subscription
	stopChanges func()
	closeOnce   sync.Once
}

// New builds a session. It does not connect until Run.
func New(cfg Config) *Session {
	log := logging.OrNop(cfg.Logger).Named("session")
	if cfg.ViewerID != "" {
		log = log.With(zap.String("viewer_id", cfg.ViewerID))
	}

	tcfg := cfg.Transport
	if tcfg.Logger == nil {
		tcfg.Logger = cfg.Logger
	}
	if tcfg.Observer == nil && cfg.Metrics != nil {
		tcfg.Observer = cfg.Metrics
	}
	queueSize := cfg.QueueSize
	if queueSize <= 0 {
		queueSize = defaultQueueSize
	}

	s := &Session{
		desktopID:    cfg.DesktopID,
		viewerID:     cfg.ViewerID,
		pingInterval: cfg.PingInterval,
		client:       transport.New(tcfg),
		store:        desktop.NewStore(cfg.Logger),
		commands:     cfg.Commands,
		metrics:      cfg.Metrics,
		queue:        newCommandQueue(queueSize),
		log:          log,
		viewport:     cfg.Viewport,
		controllers:  make(map[string]*interaction.Controller),
		listeners:    make(map[uint64]NoticeListener),
	}

	s.subs = []*transport.Subscription{
		s.client.OnMessage(s.handleMessage),
		s.client.OnStatusChange(s.handleStatus),
		s.client.OnError(s.handleTransportError),
	}
	s.stopChanges = s.store.OnChange(s.handleChange)
	return s
}

// DesktopID returns the mirrored desktop
func (s *Session) DesktopID() string { return s.desktopID }

// ViewerID returns the id this viewer reports to the server
func (s *Session) ViewerID() string { return s.viewerID }

// Store returns the desktop mirror
func (s *Session) Store() *desktop.Store { return s.store }

// Transport returns the underlying connection
func (s *Session) Transport() *transport.Client { return s.client }

// Status returns the connection status
func (s *Session) Status() transport.Status { return s.client.Status() }

// Attempts returns the consecutive reconnect attempts so far
func (s *Session) Attempts() int { return s.client.Attempts() }

// State returns a copy of the mirror and the version it was taken at
func (s *Session) State() (types.DesktopState, uint64) {
	return s.store.Current()
}

// Bootstrap seeds the mirror from the REST API. A snapshot that arrives over
// the socket while the fetch is in flight wins.
func (s *Session) Bootstrap(ctx context.Context) error {
	if s.commands == nil {
		return nil
	}

	seen := s.store.Version()
	state, err := s.commands.GetDesktop(ctx, s.desktopID)
	if err != nil {
		return fmt.Errorf("bootstrap desktop %s: %w", s.desktopID, err)
	}
	if !s.store.ApplyIfVersion(seen, protocol.DesktopSnapshot{Desktop: state}) {
		s.log.Debug("bootstrap snapshot superseded", zap.String("desktop_id", s.desktopID))
		return nil
	}
	s.log.Info("bootstrapped desktop",
		zap.String("desktop_id", s.desktopID),
		zap.Int("windows", len(state.Windows)),
		zap.Int("apps", len(state.Apps)),
	)
	return nil
}

// Run connects and keeps the session alive until ctx is cancelled
func (s *Session) Run(ctx context.Context) error {
	if err := s.client.Connect(s.desktopID); err != nil {
		return fmt.Errorf("connect %s: %w", s.desktopID, err)
	}
	defer s.client.Disconnect()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return s.drainCommands(gctx) })
	if s.pingInterval > 0 {
		g.Go(func() error { return s.heartbeat(gctx) })
	}
	return g.Wait()
}

// Close stops the session for good
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		for _, sub := range s.subs {
			sub.Unsubscribe()
		}
		s.stopChanges()
		s.client.Close()

		s.mu.Lock()
		controllers := s.controllers
		s.controllers = make(map[string]*interaction.Controller)
		s.mu.Unlock()

		for _, c := range controllers {
			c.Teardown()
		}
	})
}

// OnNotice registers a notice listener and returns its unsubscribe function
func (s *Session) OnNotice(fn NoticeListener) func() {
	s.mu.Lock()
	s.nextID++
	id := s.nextID
	s.listeners[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

// Controller returns the interaction controller for a window, creating it on
// first use. Controllers follow server geometry until the window closes.
func (s *Session) Controller(windowID string, capture interaction.PointerCapture) (*interaction.Controller, error) {
	w, ok := s.store.Window(windowID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownWindow, windowID)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.controllers[windowID]; ok {
		return c, nil
	}
	c := interaction.New(windowID, s, interaction.Options{
		Viewport: s.viewport,
		Window:   w,
		Capture:  capture,
	})
	s.controllers[windowID] = c
	return c, nil
}

// SetViewport changes the area windows are clamped to
func (s *Session) SetViewport(viewport interaction.Size) {
	s.mu.Lock()
	s.viewport = viewport
	controllers := s.controllerList()
	s.mu.Unlock()

	for _, c := range controllers {
		c.SetViewport(viewport)
	}
}

// Viewport returns the current clamp area
func (s *Session) Viewport() interaction.Size {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.viewport
}

func (s *Session) controllerList() []*interaction.Controller {
	list := make([]*interaction.Controller, 0, len(s.controllers))
	for _, c := range s.controllers {
		list = append(list, c)
	}
	return list
}

func (s *Session) handleMessage(msg protocol.ServerMessage) {
	if e, ok := msg.(protocol.ServerError); ok {
		s.log.Warn("server reported error", zap.String("message", e.Message))
		s.notify(Notice{Source: NoticeServer, Message: e.Message})
		return
	}
	s.store.Apply(msg)
}

func (s *Session) handleStatus(status transport.Status) {
	s.log.Info("connection status", zap.Stringer("status", status))
}

func (s *Session) handleTransportError(err error) {
	s.log.Warn("transport error", zap.Error(err))
}

// handleChange keeps controllers in step with server geometry
func (s *Session) handleChange(state types.DesktopState, version uint64) {
	if s.metrics != nil {
		s.metrics.RecordDesktop(len(state.Windows), len(state.Apps), version)
	}

	s.mu.Lock()
	var gone []*interaction.Controller
	type update struct {
		c *interaction.Controller
		w types.WindowState
	}
	var updates []update
	for id, c := range s.controllers {
		w, ok := state.Window(id)
		if !ok {
			gone = append(gone, c)
			delete(s.controllers, id)
			continue
		}
		updates = append(updates, update{c, w})
	}
	s.mu.Unlock()

	for _, u := range updates {
		u.c.SetWindow(u.w)
	}
	for _, c := range gone {
		c.Teardown()
	}
}

func (s *Session) notify(n Notice) {
	if n.Time.IsZero() {
		n.Time = time.Now()
	}

	s.mu.Lock()
	listeners := make([]NoticeListener, 0, len(s.listeners))
	for _, fn := range s.listeners {
		listeners = append(listeners, fn)
	}
	s.mu.Unlock()

	for _, fn := range listeners {
		fn(n)
	}
}

func (s *Session) heartbeat(ctx context.Context) error {
	ticker := time.NewTicker(s.pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := s.client.Ping(); err != nil {
				s.log.Debug("heartbeat failed", zap.Error(err))
			}
		}
	}
}
