package interaction

import "strings"

// Button identifies a pointer button
type Button int

const (
	PrimaryButton Button = iota
	AuxiliaryButton
	SecondaryButton
)

// ButtonsPrimary is the Buttons mask while the primary button is held
const ButtonsPrimary = 1

// PointerEvent is one pointer sample in viewport coordinates
type PointerEvent struct {
	PointerID int
	X, Y      float64
	// Button is the button that changed, for presses
	Button Button
	// Buttons is the mask of buttons held; a move with none held ends the gesture
	Buttons int
}

// PointerCapture routes a pointer's events to the window while a gesture
// is active
type PointerCapture interface {
	Capture(pointerID int)
	Release(pointerID int)
}

type noCapture struct{}

func (noCapture) Capture(int) {}
func (noCapture) Release(int) {}

// Key names, following the DOM KeyboardEvent.key values
const (
	KeyEscape     = "Escape"
	KeyF4         = "F4"
	KeyArrowLeft  = "ArrowLeft"
	KeyArrowRight = "ArrowRight"
	KeyArrowUp    = "ArrowUp"
	KeyArrowDown  = "ArrowDown"
)

// KeyEvent is a key press on a focused window
type KeyEvent struct {
	Key   string
	Alt   bool
	Ctrl  bool
	Shift bool
}

func (k KeyEvent) is(key string) bool {
	return strings.EqualFold(k.Key, key)
}

// arrow returns the unit direction of an arrow key
func (k KeyEvent) arrow() (dx, dy int, ok bool) {
	switch k.Key {
	case KeyArrowLeft:
		return -1, 0, true
	case KeyArrowRight:
		return 1, 0, true
	case KeyArrowUp:
		return 0, -1, true
	case KeyArrowDown:
		return 0, 1, true
	}
	return 0, 0, false
}
