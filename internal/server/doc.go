// Package server exposes the bridge over HTTP.
//
// Routes:
//
//	GET /                   log a food entry (bridge.Handler.HandleLog)
//	GET /api/auth/callback  OAuth redirect target
//	GET /api/auth/logout    clear the session, redirect to returnTo
//	GET /health             {"status":"ok"}
//
// Every route except /health runs behind session.Middleware. All requests
// get an X-Request-ID (kept from the request when it is a UUID), one access
// log line and panic recovery.
//
// HTTPServer separates Listen from Serve so the caller can report readiness
// once the socket is bound.
package server
