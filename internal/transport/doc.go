// Package transport owns the viewer's single logical connection to a desktop
// server.
//
// The client runs a small state machine:
//
//	disconnected --Connect--> connecting --open--> connected
//	connected --unexpected close--> reconnecting --backoff--> connecting
//	any --Disconnect--> disconnected
//
// On open it sends a subscribe frame before any other traffic. Unexpected
// closes and failed dials reconnect with capped exponential backoff; an
// intentional Disconnect cancels the pending timer and detaches the old
// socket so its late events are ignored.
//
// Decoded frames, status changes and errors are delivered through an event
// bus owned by the client. A single dispatcher goroutine delivers events in
// the order the state machine produced them, so listeners may call back into
// the client freely.
//
// Example Usage:
//
//	client := transport.New(transport.Config{URL: protocol.ResolveURL(url)})
//	defer client.Close()
//	client.OnMessage(func(msg protocol.ServerMessage) { store.Apply(msg) })
//	client.Connect("default")
package transport
