/*
Package monitoring provides Prometheus metrics for the viewer.

# Overview

Metrics implements the transport and command observers, so connection
churn, dropped frames and command failures show up without the core
packages importing Prometheus.

# Metrics

- deskview_connection_status{status}: 1 for the current status
- deskview_frames_total{type,result}: decoded and dropped inbound frames
- deskview_reconnects_total, deskview_reconnect_delay_seconds
- deskview_commands_total{op,result}, deskview_command_duration_seconds{op}
- deskview_windows, deskview_apps, deskview_state_version
- deskview_http_requests_total, deskview_http_request_duration_seconds
- deskview_uptime_seconds plus Go and process collectors

# Usage

	metrics := monitoring.NewMetrics(nil)
	client := transport.New(transport.Config{Observer: metrics})
	router.Use(monitoring.Middleware(metrics))
	router.GET("/metrics", gin.WrapH(metrics.Handler()))
*/
package monitoring
