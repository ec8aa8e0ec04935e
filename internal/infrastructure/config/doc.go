// Package config provides 12-factor configuration for the deskview viewer.
//
// Defaults come from Default. An optional YAML or TOML file is layered on top,
// and environment variables override both.
//
// Configuration Sections:
//   - Desktop: server endpoint, desktop id, REST base for commands
//   - Transport: reconnect backoff, heartbeat, socket timeouts
//   - Viewport: drawable area used to clamp window geometry
//   - Commands: desktop API timeout, retries and rate limit
//   - Inspect: local inspection server
//   - Logging: level and output format
//
// Example Usage:
//
//	cfg, err := config.LoadFile("deskview.yaml")
//	if err != nil {
//		return err
//	}
//	if err := cfg.Validate(); err != nil {
//		return err
//	}
//
// Environment Variables:
//   - DESKTOP_URL, DESKTOP_ID, API_BASE
//   - RECONNECT_BASE, RECONNECT_MAX, PING_INTERVAL, HANDSHAKE_TIMEOUT, WRITE_TIMEOUT
//   - VIEWPORT_WIDTH, VIEWPORT_HEIGHT
//   - COMMAND_TIMEOUT, COMMAND_RETRIES, COMMAND_RPS, COMMAND_BURST
//   - INSPECT_ENABLED, LISTEN_ADDR, INSPECT_RPS, INSPECT_BURST
//   - LOG_LEVEL, LOG_DEV
package config
