package app

import (
	"fmt"
	"net/http"

	"fitbridge/internal/bridge"
	"fitbridge/internal/config"
	"fitbridge/internal/fitbit"
	"fitbridge/internal/server"
	"fitbridge/internal/session"
	"fitbridge/pkg/logging"
	"fitbridge/pkg/oauth"
)

// Services holds the components wired together at startup.
type Services struct {
	Codec    *session.Codec
	Sessions *session.Middleware
	OAuth    *oauth.Client
	Fitbit   *fitbit.Client
	Provider *fitbit.Provider
	Handler  *bridge.Handler
	Server   *server.HTTPServer
}

// InitializeServices builds every component from cfg. It does not start
// listening.
func InitializeServices(cfg *config.Config) (*Services, error) {
	key, err := cfg.SessionKey()
	if err != nil {
		return nil, err
	}
	codec, err := session.NewCodec(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create session codec: %w", err)
	}

	sessions := session.NewMiddleware(codec, session.CookieOptions{
		Name:   cfg.Session.CookieName,
		Secure: cfg.SecureCookies(),
	})
	if !cfg.SecureCookies() {
		logging.Warn("Bootstrap", "Session cookie is not marked Secure, set SESSION_COOKIE_FORCE_SECURE outside local development")
	}

	// Both clients share one timeout; the request context bounds them too.
	httpClient := &http.Client{Timeout: cfg.Server.HTTPTimeout}

	oauthClient := oauth.NewClient(oauth.Credentials{
		ClientID:     cfg.OAuth.ClientID,
		ClientSecret: cfg.OAuth.ClientSecret,
		RedirectURL:  cfg.OAuth.RedirectURL,
	},
		oauth.WithHTTPClient(httpClient),
		oauth.WithLogger(logging.For("OAuth")),
		oauth.WithEndpoints(cfg.Fitbit.AuthorizeURL, cfg.Fitbit.TokenURL),
	)

	fitbitClient := fitbit.NewClient(
		fitbit.WithBaseURL(cfg.Fitbit.APIURL),
		fitbit.WithHTTPClient(httpClient),
		fitbit.WithLogger(logging.For("Fitbit")),
	)

	provider := fitbit.NewProvider(oauthClient, fitbitClient)
	handler := bridge.NewHandler(provider, provider)

	return &Services{
		Codec:    codec,
		Sessions: sessions,
		OAuth:    oauthClient,
		Fitbit:   fitbitClient,
		Provider: provider,
		Handler:  handler,
		Server:   server.NewHTTPServer(cfg.Server.ListenAddr, handler, sessions),
	}, nil
}
