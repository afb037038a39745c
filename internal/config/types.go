package config

import (
	"time"
)

// Config is the top-level configuration structure for fitbridge.
type Config struct {
	OAuth   OAuthConfig   `yaml:"oauth"`
	Session SessionConfig `yaml:"session"`
	Server  ServerConfig  `yaml:"server"`
	Fitbit  FitbitConfig  `yaml:"fitbit"`
	Logging LoggingConfig `yaml:"logging"`
}

// OAuthConfig holds the client registration at the provider.
type OAuthConfig struct {
	ClientID     string `yaml:"clientId" env:"OAUTH_CLIENT_ID" validate:"required"`
	ClientSecret string `yaml:"clientSecret" env:"OAUTH_CLIENT_SECRET" validate:"required"`
	RedirectURL  string `yaml:"redirectUrl" env:"OAUTH_REDIRECT_URL" validate:"required,url"`
}

// SessionConfig configures the encrypted session cookie.
type SessionConfig struct {
	// Secret is the AES-256 key as 64 hex characters.
	Secret      string `yaml:"secret" env:"SESSION_SECRET" validate:"required,hexadecimal,len=64"`
	CookieName  string `yaml:"cookieName" env:"SESSION_COOKIE_NAME" validate:"required,excludesall=;0x2C"`
	// ForceSecure defaults to true; turn it off only for local plain http.
	ForceSecure bool   `yaml:"forceSecure" env:"SESSION_COOKIE_FORCE_SECURE"`
}

// ServerConfig configures the HTTP listener and outbound calls.
type ServerConfig struct {
	ListenAddr  string        `yaml:"listenAddr" env:"FITBRIDGE_LISTEN_ADDR" validate:"required"`
	HTTPTimeout time.Duration `yaml:"httpTimeout" env:"FITBRIDGE_HTTP_TIMEOUT" validate:"gte=10s,lte=30s"`
}

// FitbitConfig holds the provider endpoints.
type FitbitConfig struct {
	AuthorizeURL string `yaml:"authorizeUrl" env:"FITBIT_AUTHORIZE_URL" validate:"required,url"`
	TokenURL     string `yaml:"tokenUrl" env:"FITBIT_TOKEN_URL" validate:"required,url"`
	APIURL       string `yaml:"apiUrl" env:"FITBIT_API_URL" validate:"required,url"`
}

// LoggingConfig selects log verbosity and output format.
type LoggingConfig struct {
	Level  string `yaml:"level" env:"FITBRIDGE_LOG_LEVEL" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" env:"FITBRIDGE_LOG_FORMAT" validate:"oneof=text json"`
}

// SecureCookies reports whether the session cookie gets the Secure
// attribute. It is on unless explicitly disabled.
func (c *Config) SecureCookies() bool {
	return c.Session.ForceSecure
}
