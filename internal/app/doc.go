// Package app bootstraps and runs fitbridge.
//
// NewApplication performs the bootstrap sequence:
//
//  1. Load configuration (defaults, optional YAML file, environment)
//  2. Initialize logging with the configured level and format
//  3. Wire the session codec, the OAuth and Fitbit clients, the bridge
//     handler and the HTTP server (InitializeServices)
//
// Run binds the listener, reports readiness to systemd when running under
// it, and serves until the context is cancelled or SIGINT/SIGTERM arrives.
// Shutdown waits up to ShutdownTimeout for in-flight requests.
package app
