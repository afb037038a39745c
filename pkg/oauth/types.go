package oauth

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"
)

// RefreshMargin is how long before expiry a token set is treated as expiring.
const RefreshMargin = time.Minute

// redactedPrefixLength is the number of characters kept when redacting.
const redactedPrefixLength = 4

// TokenSet is the access/refresh token bundle returned by the provider.
//
// ExpiresAt is derived once, when the set is created, from ExpiresIn. After
// that only ExpiresAt is consulted. A TokenSet is never partially updated: a
// refresh produces a new one.
type TokenSet struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	TokenType    string    `json:"token_type"`
	Scope        string    `json:"scope"`
	UserID       string    `json:"user_id"`
	ExpiresIn    int64     `json:"expires_in"`
	ExpiresAt    time.Time `json:"expiresAt"`
}

// ExpiresWithin reports whether the token set expires at or before now+margin.
// A token expiring exactly at the margin counts as expiring.
func (t *TokenSet) ExpiresWithin(now time.Time, margin time.Duration) bool {
	return !t.ExpiresAt.After(now.Add(margin))
}

// NeedsRefresh applies RefreshMargin.
func (t *TokenSet) NeedsRefresh(now time.Time) bool {
	return t.ExpiresWithin(now, RefreshMargin)
}

// Scopes returns the scope as a slice of individual scopes.
func (t *TokenSet) Scopes() []string {
	if t.Scope == "" {
		return nil
	}
	return strings.Fields(t.Scope)
}

// MissingScopes returns the entries of required that were not granted.
// Fitbit lets the user untick scopes on the consent page.
func (t *TokenSet) MissingScopes(required []string) []string {
	granted := t.Scopes()
	var missing []string
	for _, s := range required {
		if !slices.Contains(granted, s) {
			missing = append(missing, s)
		}
	}
	return missing
}

// LogValue keeps tokens out of structured logs.
func (t *TokenSet) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("user_id", t.UserID),
		slog.String("scope", t.Scope),
		slog.String("access_token", Redact(t.AccessToken)),
		slog.Time("expires_at", t.ExpiresAt),
	)
}

// Redact returns a short, non-secret prefix of a credential for display.
func Redact(value string) string {
	if value == "" {
		return ""
	}
	if len(value) <= redactedPrefixLength*2 {
		return "[REDACTED]"
	}
	return value[:redactedPrefixLength] + "...[REDACTED]"
}

// tokenResponseShape mirrors the token endpoint response. Pointers tell
// missing fields apart from zero values.
type tokenResponseShape struct {
	AccessToken  *string `json:"access_token"`
	RefreshToken *string `json:"refresh_token"`
	TokenType    *string `json:"token_type"`
	Scope        *string `json:"scope"`
	UserID       *string `json:"user_id"`
	ExpiresIn    *int64  `json:"expires_in"`
}

// storedTokenSetShape additionally carries the derived expiry.
type storedTokenSetShape struct {
	tokenResponseShape
	ExpiresAt *time.Time `json:"expiresAt"`
}

// ParseTokenResponse validates a token endpoint response body and derives
// ExpiresAt from now.
func ParseTokenResponse(body []byte, now time.Time) (*TokenSet, error) {
	var shape tokenResponseShape
	if err := json.Unmarshal(body, &shape); err != nil {
		return nil, schemaErrorFromJSON("token response", err)
	}

	issues := shape.missing()
	if len(issues) > 0 {
		return nil, &SchemaValidationError{Subject: "token response", Issues: issues}
	}

	ts := shape.tokenSet()
	ts.ExpiresAt = now.Add(time.Duration(ts.ExpiresIn) * time.Second).UTC()
	return ts, nil
}

// ParseStoredTokenSet validates a token set previously persisted with its
// derived expiry, e.g. inside a session.
func ParseStoredTokenSet(raw []byte) (*TokenSet, error) {
	var shape storedTokenSetShape
	if err := json.Unmarshal(raw, &shape); err != nil {
		return nil, schemaErrorFromJSON("token set", err)
	}

	issues := shape.missing()
	if shape.ExpiresAt == nil {
		issues = append(issues, "expiresAt: required")
	}
	if len(issues) > 0 {
		return nil, &SchemaValidationError{Subject: "token set", Issues: issues}
	}

	ts := shape.tokenSet()
	ts.ExpiresAt = shape.ExpiresAt.UTC()
	return ts, nil
}

func (s *tokenResponseShape) missing() []string {
	var issues []string
	check := func(name string, present bool) {
		if !present {
			issues = append(issues, name+": required")
		}
	}
	check("access_token", s.AccessToken != nil)
	check("refresh_token", s.RefreshToken != nil)
	check("token_type", s.TokenType != nil)
	check("scope", s.Scope != nil)
	check("user_id", s.UserID != nil)
	check("expires_in", s.ExpiresIn != nil)
	return issues
}

func (s *tokenResponseShape) tokenSet() *TokenSet {
	return &TokenSet{
		AccessToken:  *s.AccessToken,
		RefreshToken: *s.RefreshToken,
		TokenType:    *s.TokenType,
		Scope:        *s.Scope,
		UserID:       *s.UserID,
		ExpiresIn:    *s.ExpiresIn,
	}
}

// schemaErrorFromJSON turns a decoding failure into a SchemaValidationError
// naming the offending field where encoding/json reports one.
func schemaErrorFromJSON(subject string, err error) error {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		return &SchemaValidationError{
			Subject: subject,
			Issues:  []string{fmt.Sprintf("%s: expected %s, got %s", typeErr.Field, typeErr.Type, typeErr.Value)},
			Err:     err,
		}
	}
	return &SchemaValidationError{Subject: subject, Issues: []string{err.Error()}, Err: err}
}
