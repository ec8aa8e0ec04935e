// Package commands is the REST command channel to the desktop API.
//
// Window intents from the interaction layer become requests here. Success
// only means the server accepted the request; the resulting state change
// arrives later as a rebroadcast event on the sync connection.
//
// Built on go-resty/resty over a go-retryablehttp transport:
//   - Retries on connection errors and 5xx with exponential backoff
//   - Client-side rate limiting so a fast drag cannot flood the API
//   - Circuit breaker that fails fast while the API is down
//   - X-Request-ID and X-Viewer-ID on every request
//
// Endpoints:
//   - GET    /desktop/{id}
//   - GET    /desktop/{id}/windows, POST /desktop/{id}/windows
//   - DELETE /desktop/{id}/windows/{wid}
//   - POST   /desktop/{id}/windows/{wid}/focus|minimize|maximize|restore
//   - PATCH  /desktop/{id}/windows/{wid}/position|size
//   - GET    /desktop/{id}/apps, POST /desktop/{id}/apps
//
// Example Usage:
//
//	client := commands.New(commands.Config{BaseURL: "http://localhost:8080"})
//	if err := client.MoveWindow(ctx, "default", "w1", 120, 80); err != nil {
//	    log.Warn("move failed", zap.Error(err))
//	}
package commands
