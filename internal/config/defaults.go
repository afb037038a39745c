package config

import "time"

const (
	// DefaultListenAddr is the default address of the HTTP listener.
	DefaultListenAddr = ":3000"

	// DefaultHTTPTimeout bounds every call to the provider.
	DefaultHTTPTimeout = 15 * time.Second

	// DefaultCookieName is the session cookie name.
	DefaultCookieName = "chatgpt-fitbit-bridge-session"

	DefaultAuthorizeURL = "https://www.fitbit.com/oauth2/authorize"
	DefaultTokenURL     = "https://api.fitbit.com/oauth2/token"
	DefaultAPIURL       = "https://api.fitbit.com/1"
)

// GetDefaultConfig returns the configuration used before the config file
// and the environment are applied.
func GetDefaultConfig() Config {
	return Config{
		Session: SessionConfig{
			CookieName:  DefaultCookieName,
			ForceSecure: true,
		},
		Server: ServerConfig{
			ListenAddr:  DefaultListenAddr,
			HTTPTimeout: DefaultHTTPTimeout,
		},
		Fitbit: FitbitConfig{
			AuthorizeURL: DefaultAuthorizeURL,
			TokenURL:     DefaultTokenURL,
			APIURL:       DefaultAPIURL,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}
