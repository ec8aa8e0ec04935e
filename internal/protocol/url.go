package protocol

import "strings"

// DefaultURL is used when no endpoint is configured
const DefaultURL = "ws://localhost:8080/ws"

// ResolveURL maps a configured endpoint onto a websocket URL.
// http and https bases get their scheme swapped, ws and wss pass through,
// and a bare host:port defaults to ws://.
func ResolveURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return DefaultURL
	}

	lower := strings.ToLower(raw)
	switch {
	case strings.HasPrefix(lower, "ws://"), strings.HasPrefix(lower, "wss://"):
		return raw
	case strings.HasPrefix(lower, "http://"):
		return "ws://" + raw[len("http://"):]
	case strings.HasPrefix(lower, "https://"):
		return "wss://" + raw[len("https://"):]
	default:
		return "ws://" + raw
	}
}
