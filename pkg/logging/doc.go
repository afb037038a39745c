// Package logging provides the structured logging used throughout fitbridge.
//
// It is a thin layer over log/slog that tags every record with a subsystem
// and, for request-scoped calls, the request id.
//
// # Usage Examples
//
//	import "fitbridge/pkg/logging"
//
//	// Initialize with Info level logging to stderr
//	logging.Init(logging.LevelInfo, logging.FormatJSON, os.Stderr)
//
//	logging.Info("Bootstrap", "Listening on %s", addr)
//	logging.Warn("Session", "Discarding tampered session cookie")
//	logging.Error("Fitbit", err, "Food log request failed")
//
// Handlers that have a request context should prefer the Context variants so
// the request id set by the server middleware is attached:
//
//	logging.InfoContext(r.Context(), "Bridge", "Redirecting to authorization endpoint")
//
// # Subsystem Organization
//
//   - **Bootstrap**: Application initialization and startup
//   - **Config**: Configuration loading and validation
//   - **Server**: HTTP listener and request logging
//   - **Session**: Cookie decoding and encoding
//   - **Bridge**: Login, callback, logout and food log flows
//   - **OAuth**: Token endpoint calls
//   - **Fitbit**: Fitbit Web API calls
//
// Token values must never be logged directly. oauth.TokenSet implements
// slog.LogValuer and redacts itself.
package logging
