// Package main is the deskview viewer.
//
// deskview connects to a desktop server, mirrors one desktop's windows, focus
// and apps, and serves the mirror on a local inspection API.
//
// Architecture:
//
//	Desktop server ──ws──> transport → store ──> inspection API (/state)
//	               <─REST─ commands  ← session ← window controllers
//
// Configuration:
//   - Environment variables (12-factor)
//   - Optional YAML or TOML file (-config)
//   - CLI flags (override both)
//
// Usage:
//
//	# Mirror the default desktop of a local server
//	./deskview
//
//	# Mirror a named desktop on a remote server, registering apps first
//	./deskview -url https://desk.example.com -desktop studio -apps apps.yaml
//
//	# Open two apps once connected
//	./deskview -open notes,terminal
//
//	# Print the server's apps and windows and exit
//	./deskview -list
//
// Signals:
//   - SIGINT, SIGTERM: Graceful shutdown
package main
