package oauth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"

	"golang.org/x/oauth2"
)

const (
	// stateBytes is the number of random bytes for the OAuth state parameter.
	// 32 bytes encodes to 43 base64url characters.
	stateBytes = 32

	// ChallengeMethodS256 is the only PKCE method fitbridge uses.
	ChallengeMethodS256 = "S256"
)

// PKCEChallenge represents a PKCE (Proof Key for Code Exchange) challenge
// together with the anti-CSRF state of the same login attempt.
type PKCEChallenge struct {
	// CodeVerifier is the secret kept in the session until the callback.
	CodeVerifier string

	// CodeChallenge is base64url(SHA256(CodeVerifier)) without padding.
	CodeChallenge string

	// CodeChallengeMethod is always "S256".
	CodeChallengeMethod string

	// State binds the callback to the browser that started the login.
	// It is generated independently of the verifier.
	State string
}

// GeneratePKCE generates a new code verifier, its S256 challenge and a state
// token. All randomness comes from crypto/rand.
func GeneratePKCE() (*PKCEChallenge, error) {
	verifier, challenge := GeneratePKCERaw()

	state, err := GenerateState()
	if err != nil {
		return nil, err
	}

	return &PKCEChallenge{
		CodeVerifier:        verifier,
		CodeChallenge:       challenge,
		CodeChallengeMethod: ChallengeMethodS256,
		State:               state,
	}, nil
}

// GeneratePKCERaw returns an RFC 7636 verifier (43 unreserved characters from
// 32 random bytes) and its S256 challenge.
func GeneratePKCERaw() (verifier, challenge string) {
	verifier = oauth2.GenerateVerifier()
	return verifier, S256Challenge(verifier)
}

// S256Challenge computes the S256 code challenge for a verifier.
func S256Challenge(verifier string) string {
	hash := sha256.Sum256([]byte(verifier))
	return base64.RawURLEncoding.EncodeToString(hash[:])
}

// GenerateState generates a random state parameter for OAuth.
func GenerateState() (string, error) {
	b := make([]byte, stateBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate state: %w", err)
	}

	return base64.RawURLEncoding.EncodeToString(b), nil
}
