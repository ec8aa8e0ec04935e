// Package session binds one desktop to a headless view.
//
// A Session owns the transport client and the desktop store. Server messages
// flow transport -> store; user gestures flow controller -> command channel
// and come back as server rebroadcasts. Server error messages and failed
// commands are reported as notices and never touch desktop state.
package session
