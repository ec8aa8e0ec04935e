// Package logging provides structured logging using uber/zap.
//
// Two modes are offered:
//   - Production: JSON output for machine parsing
//   - Development: Colored console output for human readability
//
// Components take a *Logger and derive a named child so every line carries
// its origin (transport, store, commands, session, api). A nil *Logger is
// accepted everywhere through OrNop.
//
// Example Usage:
//
//	logger, err := logging.FromConfig(logging.Config{Level: "info"})
//	log := logger.Named("transport")
//	log.Info("status changed", zap.Stringer("status", status))
package logging
