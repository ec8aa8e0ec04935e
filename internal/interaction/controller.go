package interaction

import (
	"math"
	"sync"

	"github.com/GriffinCanCode/AgentOS/deskview/internal/shared/types"
)

// Callbacks receives window intents. Implementations forward them to
// whatever command channel mutates server state.
type Callbacks interface {
	OnMove(windowID string, x, y int)
	OnResize(windowID string, width, height int)
	OnFocus(windowID string)
	OnClose(windowID string)
	OnMinimize(windowID string)
	OnMaximize(windowID string)
	OnRestore(windowID string)
}

// Options configures a Controller
type Options struct {
	Viewport Size
	Window   types.WindowState
	Capture  PointerCapture
}

type gestureKind int

const (
	gestureDrag gestureKind = iota + 1
	gestureResize
)

// gesture is the tracking state for one pointer between press and release
type gesture struct {
	kind      gestureKind
	pointerID int
	startX    float64
	startY    float64
	origin    types.Bounds
	dragging  bool
}

// Controller handles input for one window
type Controller struct {
	windowID string
	cb       Callbacks
	capture  PointerCapture

	mu        sync.Mutex
	bounds    types.Bounds
	maximized bool
	viewport  Size
	active    *gesture
}

// New creates a controller for windowID
func New(windowID string, cb Callbacks, opts Options) *Controller {
	capture := opts.Capture
	if capture == nil {
		capture = noCapture{}
	}
	return &Controller{
		windowID:  windowID,
		cb:        cb,
		capture:   capture,
		bounds:    opts.Window.Bounds(),
		maximized: opts.Window.Maximized,
		viewport:  opts.Viewport,
	}
}

// WindowID returns the controlled window id
func (c *Controller) WindowID() string {
	return c.windowID
}

// SetViewport updates the clamp area. An invalid size disables clamping.
func (c *Controller) SetViewport(viewport Size) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.viewport = viewport
}

// SetWindow records the latest server geometry. A gesture in progress keeps
// the geometry it started from.
func (c *Controller) SetWindow(w types.WindowState) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.bounds = w.Bounds()
	c.maximized = w.Maximized
}

// Tracking reports whether a gesture is in progress
func (c *Controller) Tracking() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active != nil
}

// CanMaximize reports whether the maximize control is offered; restore is
// offered otherwise
func (c *Controller) CanMaximize() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return !c.maximized
}

// TitleBarDown starts a drag. It reports whether the press was taken.
func (c *Controller) TitleBarDown(ev PointerEvent) bool {
	return c.begin(gestureDrag, ev)
}

// ResizeHandleDown starts a resize. It reports whether the press was taken.
func (c *Controller) ResizeHandleDown(ev PointerEvent) bool {
	return c.begin(gestureResize, ev)
}

func (c *Controller) begin(kind gestureKind, ev PointerEvent) bool {
	if ev.Button != PrimaryButton {
		return false
	}

	c.mu.Lock()
	if c.active != nil || c.maximized {
		c.mu.Unlock()
		return false
	}
	c.active = &gesture{
		kind:      kind,
		pointerID: ev.PointerID,
		startX:    ev.X,
		startY:    ev.Y,
		origin:    c.bounds,
	}
	c.mu.Unlock()

	c.capture.Capture(ev.PointerID)
	c.cb.OnFocus(c.windowID)
	return true
}

// PointerMove drives the active gesture. Other pointers are ignored.
func (c *Controller) PointerMove(ev PointerEvent) {
	c.mu.Lock()
	g := c.active
	if g == nil || g.pointerID != ev.PointerID {
		c.mu.Unlock()
		return
	}

	// Capture can be lost without an up event; a buttonless move ends it
	if ev.Buttons == 0 {
		c.active = nil
		c.mu.Unlock()
		c.capture.Release(ev.PointerID)
		return
	}

	dx, dy := ev.X-g.startX, ev.Y-g.startY

	switch g.kind {
	case gestureDrag:
		if !g.dragging {
			if math.Hypot(dx, dy) <= DragThreshold {
				c.mu.Unlock()
				return
			}
			g.dragging = true
		}
		x := round(float64(g.origin.X) + dx)
		y := round(float64(g.origin.Y) + dy)
		if c.viewport.Valid() {
			x, y = ClampPosition(x, y, Size{Width: g.origin.Width, Height: g.origin.Height}, c.viewport)
		}
		c.mu.Unlock()
		c.cb.OnMove(c.windowID, x, y)

	case gestureResize:
		w, h := ClampSize(
			round(float64(g.origin.Width)+dx),
			round(float64(g.origin.Height)+dy),
		)
		c.mu.Unlock()
		c.cb.OnResize(c.windowID, w, h)

	default:
		c.mu.Unlock()
	}
}

// PointerUp ends the gesture started by the same pointer
func (c *Controller) PointerUp(ev PointerEvent) {
	c.end(ev.PointerID)
}

// PointerCancel abandons the gesture started by the same pointer
func (c *Controller) PointerCancel(ev PointerEvent) {
	c.end(ev.PointerID)
}

func (c *Controller) end(pointerID int) {
	c.mu.Lock()
	if c.active == nil || c.active.pointerID != pointerID {
		c.mu.Unlock()
		return
	}
	c.active = nil
	c.mu.Unlock()

	c.capture.Release(pointerID)
}

// Teardown releases any gesture in progress. Call it when the window view
// goes away.
func (c *Controller) Teardown() {
	c.mu.Lock()
	g := c.active
	c.active = nil
	c.mu.Unlock()

	if g != nil {
		c.capture.Release(g.pointerID)
	}
}

// KeyDown handles window shortcuts and reports whether the key was used
func (c *Controller) KeyDown(ev KeyEvent) bool {
	switch {
	case ev.is(KeyF4) && ev.Alt:
		c.Close()
		return true

	case ev.is(KeyEscape):
		if !c.Tracking() {
			return false
		}
		c.Teardown()
		return true

	case ev.is("m") && ev.Ctrl && !ev.Shift:
		c.Minimize()
		return true

	case ev.is("m") && ev.Ctrl && ev.Shift:
		c.ToggleMaximize()
		return true

	case ev.Alt:
		dx, dy, ok := ev.arrow()
		if !ok {
			return false
		}
		if ev.Shift {
			return c.nudgeSize(dx*KeyboardStep, dy*KeyboardStep)
		}
		return c.nudgePosition(dx*KeyboardStep, dy*KeyboardStep)
	}
	return false
}

func (c *Controller) nudgePosition(dx, dy int) bool {
	c.mu.Lock()
	if c.maximized {
		c.mu.Unlock()
		return false
	}
	b := c.bounds
	x, y := b.X+dx, b.Y+dy
	if c.viewport.Valid() {
		x, y = ClampPosition(x, y, Size{Width: b.Width, Height: b.Height}, c.viewport)
	}
	c.mu.Unlock()

	c.cb.OnMove(c.windowID, x, y)
	return true
}

func (c *Controller) nudgeSize(dw, dh int) bool {
	c.mu.Lock()
	if c.maximized {
		c.mu.Unlock()
		return false
	}
	w, h := ClampSize(c.bounds.Width+dw, c.bounds.Height+dh)
	c.mu.Unlock()

	c.cb.OnResize(c.windowID, w, h)
	return true
}

// Focus asks for the window to be brought to front
func (c *Controller) Focus() {
	c.cb.OnFocus(c.windowID)
}

// Close asks for the window to be closed
func (c *Controller) Close() {
	c.cb.OnClose(c.windowID)
}

// Minimize asks for the window to be minimized
func (c *Controller) Minimize() {
	c.cb.OnMinimize(c.windowID)
}

// ToggleMaximize asks to maximize, or to restore when already maximized
func (c *Controller) ToggleMaximize() {
	if c.CanMaximize() {
		c.cb.OnMaximize(c.windowID)
		return
	}
	c.cb.OnRestore(c.windowID)
}
