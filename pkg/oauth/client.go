package oauth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/sync/singleflight"
)

const (
	// DefaultHTTPTimeout is the default timeout for token endpoint requests.
	DefaultHTTPTimeout = 15 * time.Second

	// DefaultAuthorizeURL is Fitbit's authorization endpoint.
	DefaultAuthorizeURL = "https://www.fitbit.com/oauth2/authorize"

	// DefaultTokenURL is Fitbit's token endpoint.
	DefaultTokenURL = "https://api.fitbit.com/oauth2/token"

	// maxResponseBytes caps how much of a token response is read.
	maxResponseBytes = 1 << 20
)

// DefaultScopes are the scopes needed to write food logs.
var DefaultScopes = []string{"nutrition", "profile"}

// Credentials identify fitbridge as an OAuth client at the provider.
type Credentials struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
}

// Client handles the OAuth 2.0 authorization code (with PKCE) and refresh
// token grants against a single provider.
type Client struct {
	creds        Credentials
	authorizeURL string
	tokenURL     string

	httpClient *http.Client
	logger     *slog.Logger
	now        func() time.Time

	// refreshGroup collapses concurrent refreshes of the same refresh token.
	// Fitbit refresh tokens are single use.
	refreshGroup singleflight.Group
}

// ClientOption configures the OAuth client.
type ClientOption func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithEndpoints overrides the authorization and token endpoints.
// Empty values keep the defaults.
func WithEndpoints(authorizeURL, tokenURL string) ClientOption {
	return func(c *Client) {
		if authorizeURL != "" {
			c.authorizeURL = authorizeURL
		}
		if tokenURL != "" {
			c.tokenURL = tokenURL
		}
	}
}

// WithClock sets the time source used to derive token expiry.
func WithClock(now func() time.Time) ClientOption {
	return func(c *Client) {
		c.now = now
	}
}

// NewClient creates a new OAuth client.
func NewClient(creds Credentials, opts ...ClientOption) *Client {
	c := &Client{
		creds:        creds,
		authorizeURL: DefaultAuthorizeURL,
		tokenURL:     DefaultTokenURL,
		httpClient:   &http.Client{Timeout: DefaultHTTPTimeout},
		logger:       slog.Default(),
		now:          time.Now,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// AuthorizationURL builds the provider login URL for one login attempt.
func (c *Client) AuthorizationURL(state, codeChallenge string) string {
	cfg := &oauth2.Config{
		ClientID:    c.creds.ClientID,
		RedirectURL: c.creds.RedirectURL,
		Scopes:      DefaultScopes,
		Endpoint: oauth2.Endpoint{
			AuthURL:  c.authorizeURL,
			TokenURL: c.tokenURL,
		},
	}

	return cfg.AuthCodeURL(state,
		oauth2.SetAuthURLParam("code_challenge", codeChallenge),
		oauth2.SetAuthURLParam("code_challenge_method", ChallengeMethodS256),
	)
}

// ExchangeCode exchanges an authorization code for a token set. The caller
// is responsible for checking the state parameter beforehand.
func (c *Client) ExchangeCode(ctx context.Context, codeVerifier, code string) (*TokenSet, error) {
	data := url.Values{
		"client_id":     {c.creds.ClientID},
		"grant_type":    {"authorization_code"},
		"redirect_uri":  {c.creds.RedirectURL},
		"code":          {code},
		"code_verifier": {codeVerifier},
	}

	return c.doTokenRequest(ctx, "token exchange", data)
}

// Refresh obtains a new token set using a refresh token. Concurrent calls
// with the same refresh token share one token endpoint request.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (*TokenSet, error) {
	data := url.Values{
		"grant_type":    {"refresh_token"},
		"client_id":     {c.creds.ClientID},
		"refresh_token": {refreshToken},
	}

	// The shared request outlives any single caller: a refresh token is
	// spent once sent, so one caller going away must not fail the others.
	ch := c.refreshGroup.DoChan(refreshToken, func() (interface{}, error) {
		reqCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.requestTimeout())
		defer cancel()
		return c.doTokenRequest(reqCtx, "token refresh", data)
	})

	select {
	case <-ctx.Done():
		if IsTimeout(ctx.Err()) {
			return nil, &UpstreamTimeoutError{Op: "token refresh", Err: ctx.Err()}
		}
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		if res.Shared {
			c.logger.Debug("Shared concurrent token refresh")
		}
		tokenSet := *res.Val.(*TokenSet)
		return &tokenSet, nil
	}
}

func (c *Client) requestTimeout() time.Duration {
	if c.httpClient != nil && c.httpClient.Timeout > 0 {
		return c.httpClient.Timeout
	}
	return DefaultHTTPTimeout
}

// doTokenRequest performs a token endpoint request.
func (c *Client) doTokenRequest(ctx context.Context, op string, data url.Values) (*TokenSet, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.tokenURL, strings.NewReader(data.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create token request: %w", err)
	}

	req.SetBasicAuth(c.creds.ClientID, c.creds.ClientSecret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if IsTimeout(err) {
			return nil, &UpstreamTimeoutError{Op: op, Err: err}
		}
		return nil, fmt.Errorf("%s failed: %w", op, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		if IsTimeout(err) {
			return nil, &UpstreamTimeoutError{Op: op, Err: err}
		}
		return nil, fmt.Errorf("failed to read %s response: %w", op, err)
	}

	if resp.StatusCode != http.StatusOK {
		c.logger.Debug("Token request failed",
			"op", op,
			"status", resp.StatusCode)
		if resp.StatusCode >= 400 && resp.StatusCode < 500 {
			authErr := &UpstreamAuthError{StatusCode: resp.StatusCode}
			authErr.Code, authErr.Description = parseErrorBody(body)
			return nil, authErr
		}
		return nil, fmt.Errorf("%s failed with status %d", op, resp.StatusCode)
	}

	tokenSet, err := ParseTokenResponse(body, c.now())
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	c.logger.Debug("Token request succeeded",
		"op", op,
		"token", tokenSet)

	return tokenSet, nil
}

// parseErrorBody extracts an error code and description from either the
// RFC 6749 error shape or Fitbit's {"errors":[...]} shape.
func parseErrorBody(body []byte) (code, description string) {
	var payload struct {
		Error            string `json:"error"`
		ErrorDescription string `json:"error_description"`
		Errors           []struct {
			ErrorType string `json:"errorType"`
			Message   string `json:"message"`
		} `json:"errors"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return "", ""
	}
	if payload.Error != "" {
		return payload.Error, payload.ErrorDescription
	}
	if len(payload.Errors) > 0 {
		return payload.Errors[0].ErrorType, payload.Errors[0].Message
	}
	return "", ""
}

// IsTimeout reports whether err is a deadline or network timeout.
func IsTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
