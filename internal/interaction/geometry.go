package interaction

import "math"

const (
	// DragThreshold is the straight-line distance a title-bar press must
	// exceed before it counts as a drag
	DragThreshold = 4.0
	MinWidth      = 200
	MinHeight     = 160
	// VisibleMargin keeps part of every window reachable inside the viewport
	VisibleMargin = 10
	KeyboardStep  = 10
)

// Size is a width/height pair in pixels
type Size struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Valid reports whether both dimensions are positive
func (s Size) Valid() bool {
	return s.Width > 0 && s.Height > 0
}

// ClampPosition keeps a window of the given size within the viewport, less
// the visible margin. For windows larger than the viewport the range is
// inverted and the result is the lower bound.
func ClampPosition(x, y int, size, viewport Size) (int, int) {
	return clampAxis(x, VisibleMargin, viewport.Width-size.Width+VisibleMargin),
		clampAxis(y, VisibleMargin, viewport.Height-size.Height+VisibleMargin)
}

// ClampSize applies the minimum window size. There is no upper bound.
func ClampSize(width, height int) (int, int) {
	return max(width, MinWidth), max(height, MinHeight)
}

func clampAxis(v, lo, hi int) int {
	if v > hi {
		v = hi
	}
	if v < lo {
		v = lo
	}
	return v
}

func round(v float64) int {
	return int(math.Round(v))
}
