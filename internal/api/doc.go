// Package api serves the viewer's local inspection endpoints.
//
// Routes:
//   - GET /healthz          liveness
//   - GET /status           connection status of the mirrored desktop
//   - GET /state            current desktop mirror and its version
//   - GET /metrics          Prometheus exposition
//   - GET /metrics/summary  JSON counters
package api
