package session

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"fitbridge/pkg/logging"
	"fitbridge/pkg/oauth"
)

const (
	// DefaultCookieName is the session cookie name used when none is configured.
	DefaultCookieName = "chatgpt-fitbit-bridge-session"

	// DefaultMaxAge is the session cookie lifetime in seconds (7 days).
	DefaultMaxAge = 7 * 24 * 60 * 60

	subsystem = "Session"
)

// CookieOptions controls the attributes of the session cookie.
type CookieOptions struct {
	Name   string
	Secure bool
	MaxAge int
}

func (o CookieOptions) withDefaults() CookieOptions {
	if o.Name == "" {
		o.Name = DefaultCookieName
	}
	if o.MaxAge == 0 {
		o.MaxAge = DefaultMaxAge
	}
	return o
}

// Session is the per-request session handle. Handlers mutate Data and call
// Save to commit it; nothing is written otherwise.
type Session struct {
	Data Data

	codec   *Codec
	options CookieOptions
	w       http.ResponseWriter
}

// Save encrypts Data and sets the session cookie on the response, replacing
// any cookie set by an earlier Save.
func (s *Session) Save() error {
	value, err := s.codec.Encrypt(s.Data)
	if err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}

	cookie := &http.Cookie{
		Name:     s.options.Name,
		Value:    value,
		Path:     "/",
		MaxAge:   s.options.MaxAge,
		HttpOnly: true,
		Secure:   s.options.Secure,
		SameSite: http.SameSiteLaxMode,
	}

	s.dropSessionCookies()
	http.SetCookie(s.w, cookie)
	return nil
}

// dropSessionCookies removes session cookies set by an earlier Save.
// Set-Cookie headers for other cookies are left in place.
func (s *Session) dropSessionCookies() {
	header := s.w.Header()
	var kept []string
	for _, line := range header.Values("Set-Cookie") {
		if c, err := http.ParseSetCookie(line); err == nil && c.Name == s.options.Name {
			continue
		}
		kept = append(kept, line)
	}
	header.Del("Set-Cookie")
	for _, line := range kept {
		header.Add("Set-Cookie", line)
	}
}

// Reset clears all session fields.
func (s *Session) Reset() {
	s.Data = Data{}
}

type contextKey struct{}

// FromContext returns the session stored by Middleware, or nil.
func FromContext(ctx context.Context) *Session {
	s, _ := ctx.Value(contextKey{}).(*Session)
	return s
}

// NewContext returns a context carrying the session.
func NewContext(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, contextKey{}, s)
}

// Middleware loads the session cookie of every request into a Session.
type Middleware struct {
	codec   *Codec
	options CookieOptions
}

// NewMiddleware creates a session middleware.
func NewMiddleware(codec *Codec, options CookieOptions) *Middleware {
	return &Middleware{codec: codec, options: options.withDefaults()}
}

// CookieName returns the configured cookie name.
func (m *Middleware) CookieName() string {
	return m.options.Name
}

// Wrap returns a handler that hydrates the request's session before calling next.
func (m *Middleware) Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s := &Session{
			Data:    m.load(r),
			codec:   m.codec,
			options: m.options,
			w:       w,
		}
		next.ServeHTTP(w, r.WithContext(NewContext(r.Context(), s)))
	})
}

func (m *Middleware) load(r *http.Request) Data {
	cookie, err := r.Cookie(m.options.Name)
	if err != nil || cookie.Value == "" {
		return Data{}
	}

	data, err := m.codec.Decrypt(cookie.Value)
	if err == nil {
		return data
	}

	ctx := r.Context()
	switch {
	case errors.Is(err, ErrTamperedSession):
		logging.WarnContext(ctx, subsystem, "Discarding session cookie that failed authentication from %s", r.RemoteAddr)
	case errors.Is(err, ErrInvalidEnvelope):
		logging.InfoContext(ctx, subsystem, "Discarding malformed session cookie: %v", err)
	case oauth.IsSchemaValidation(err):
		logging.InfoContext(ctx, subsystem, "Discarding session with stale schema: %v", err)
	default:
		logging.ErrorContext(ctx, subsystem, err, "Failed to decode session cookie")
	}
	return Data{}
}
