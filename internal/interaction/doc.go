// Package interaction turns raw pointer and keyboard input on a window's
// chrome into window intents.
//
// A Controller never touches desktop state. It reports intents through
// Callbacks and waits for the server to rebroadcast the result, so the
// store keeps a single writer.
//
// Gestures:
//   - Title-bar drag: primary press focuses the window; moves are ignored
//     until the pointer travels more than DragThreshold pixels, then each
//     move reports a position clamped to the viewport
//   - Resize handle: every move reports a size floored at MinWidth x MinHeight
//   - Only the pointer that started a gesture can drive or end it
//   - Release, cancel, Escape and Teardown all release pointer capture
//
// Keyboard:
//   - Alt+F4 closes, Ctrl+M minimizes, Ctrl+Shift+M maximizes or restores
//   - Alt+arrows move by KeyboardStep, Alt+Shift+arrows resize by KeyboardStep
package interaction
