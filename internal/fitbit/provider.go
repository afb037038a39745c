package fitbit

import (
	"context"

	"fitbridge/pkg/oauth"
)

// Provider combines the OAuth client and the API client into the provider
// operations used by the bridge handlers.
type Provider struct {
	auth *oauth.Client
	api  *Client
}

// NewProvider creates a Provider.
func NewProvider(auth *oauth.Client, api *Client) *Provider {
	return &Provider{auth: auth, api: api}
}

// AuthorizationURL builds the Fitbit login URL.
func (p *Provider) AuthorizationURL(state, codeChallenge string) string {
	return p.auth.AuthorizationURL(state, codeChallenge)
}

// ExchangeCode exchanges an authorization code for a token set.
func (p *Provider) ExchangeCode(ctx context.Context, codeVerifier, code string) (*oauth.TokenSet, error) {
	return p.auth.ExchangeCode(ctx, codeVerifier, code)
}

// Refresh obtains a new token set.
func (p *Provider) Refresh(ctx context.Context, refreshToken string) (*oauth.TokenSet, error) {
	return p.auth.Refresh(ctx, refreshToken)
}

// CreateFoodLog logs a food entry with the token set's access token.
func (p *Provider) CreateFoodLog(ctx context.Context, token *oauth.TokenSet, payload *FoodLogPayload) (*FoodLogResult, error) {
	return p.api.CreateFoodLog(ctx, token.AccessToken, payload)
}

// SearchFoods searches the food database with the token set's access token.
func (p *Provider) SearchFoods(ctx context.Context, token *oauth.TokenSet, query string) (*FoodSearchResult, error) {
	return p.api.SearchFoods(ctx, token.AccessToken, query)
}

// GetFoodUnits lists the units accepted for unitId with the token set's
// access token.
func (p *Provider) GetFoodUnits(ctx context.Context, token *oauth.TokenSet) ([]Unit, error) {
	return p.api.GetFoodUnits(ctx, token.AccessToken)
}
