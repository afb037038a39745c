// Package oauth implements the OAuth 2.0 pieces fitbridge needs to act on a
// user's behalf at Fitbit: PKCE generation, the token set model and a token
// endpoint client for the authorization code and refresh grants.
//
// # Core Components
//
//   - PKCEChallenge: code verifier, S256 challenge and an independent state token
//   - TokenSet: access/refresh token bundle with a fixed expiry instant
//   - Client: authorization URL construction, code exchange and refresh
//
// # Errors
//
// Token endpoint failures are reported as typed errors so callers can decide
// between forcing re-authentication and surfacing the failure:
//
//   - UpstreamAuthError: the provider rejected the code or refresh token
//   - UpstreamTimeoutError: the provider did not answer in time
//   - SchemaValidationError: a payload did not have the expected shape
//
// # Usage
//
//	client := oauth.NewClient(oauth.Credentials{
//		ClientID:     id,
//		ClientSecret: secret,
//		RedirectURL:  "https://bridge.example.com/api/auth/callback",
//	})
//
//	pkce, err := oauth.GeneratePKCE()
//	loginURL := client.AuthorizationURL(pkce.State, pkce.CodeChallenge)
//
//	tokenSet, err := client.ExchangeCode(ctx, pkce.CodeVerifier, code)
package oauth
