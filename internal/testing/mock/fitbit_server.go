package mock

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"
)

// FitbitServerConfig configures the mock Fitbit server behavior.
type FitbitServerConfig struct {
	// ClientID is the expected OAuth client ID
	ClientID string

	// ClientSecret is the expected OAuth client secret
	ClientSecret string

	// UserID is returned in token responses
	UserID string

	// Scope is returned in token responses
	Scope string

	// TokenLifetime is how long access tokens remain valid
	TokenLifetime time.Duration

	// AutoApprove redirects /oauth2/authorize straight back to redirect_uri
	// with a code, simulating user consent.
	AutoApprove bool

	// Clock is the clock used for token expiry (defaults to RealClock)
	Clock Clock

	// SimulateErrors can be set to simulate various error conditions
	SimulateErrors *FitbitErrorSimulation
}

// FitbitErrorSimulation allows simulating error conditions.
type FitbitErrorSimulation struct {
	// InvalidGrant rejects all token requests with invalid_grant
	InvalidGrant bool

	// TokenDelay delays every token response
	TokenDelay time.Duration

	// FoodLogStatus, if set, is returned by the food log endpoint
	FoodLogStatus int

	// FoodLogDelay delays every food log response
	FoodLogDelay time.Duration
}

// LoggedEntry records one accepted food log request.
type LoggedEntry struct {
	AccessToken string
	Params      url.Values
}

type authCodeEntry struct {
	RedirectURI   string
	Scope         string
	CodeChallenge string
}

type issuedToken struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
}

// FitbitServer is a mock of the Fitbit authorization server and the parts of
// the Web API fitbridge uses.
type FitbitServer struct {
	config     FitbitServerConfig
	httpServer *http.Server
	baseURL    string
	running    bool
	mu         sync.RWMutex

	authCodes    map[string]*authCodeEntry
	issuedTokens map[string]*issuedToken // access_token -> token
	foodLogs     []LoggedEntry
	nextLogID    int64

	clock Clock
}

// NewFitbitServer creates a new mock Fitbit server.
func NewFitbitServer(config FitbitServerConfig) *FitbitServer {
	if config.TokenLifetime == 0 {
		config.TokenLifetime = 8 * time.Hour
	}
	if config.ClientID == "" {
		config.ClientID = "test-client"
	}
	if config.UserID == "" {
		config.UserID = "TESTUSER"
	}
	if config.Scope == "" {
		config.Scope = "nutrition profile"
	}

	clock := config.Clock
	if clock == nil {
		clock = RealClock{}
	}

	return &FitbitServer{
		config:       config,
		authCodes:    make(map[string]*authCodeEntry),
		issuedTokens: make(map[string]*issuedToken),
		nextLogID:    1000,
		clock:        clock,
	}
}

// Start starts the server on a random local port and returns its base URL.
func (s *FitbitServer) Start() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return s.baseURL, nil
	}

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return "", fmt.Errorf("failed to listen: %w", err)
	}
	s.baseURL = "http://" + listener.Addr().String()

	mux := http.NewServeMux()
	mux.HandleFunc("GET /oauth2/authorize", s.handleAuthorize)
	mux.HandleFunc("POST /oauth2/token", s.handleToken)
	mux.HandleFunc("POST /1/user/-/foods/log.json", s.handleCreateFoodLog)
	mux.HandleFunc("GET /1/foods/search.json", s.handleSearchFoods)
	mux.HandleFunc("GET /1/foods/units.json", s.handleUnits)

	s.httpServer = &http.Server{
		Handler:  mux,
		ErrorLog: log.New(io.Discard, "", 0),
	}

	go func() {
		_ = s.httpServer.Serve(listener)
	}()

	s.running = true
	return s.baseURL, nil
}

// Stop stops the server.
func (s *FitbitServer) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return nil
	}

	err := s.httpServer.Shutdown(ctx)
	s.running = false
	return err
}

// AuthorizeURL returns the authorization endpoint.
func (s *FitbitServer) AuthorizeURL() string {
	return s.baseURL + "/oauth2/authorize"
}

// TokenURL returns the token endpoint.
func (s *FitbitServer) TokenURL() string {
	return s.baseURL + "/oauth2/token"
}

// APIURL returns the Web API base.
func (s *FitbitServer) APIURL() string {
	return s.baseURL + "/1"
}

// FoodLogs returns the food log requests accepted so far.
func (s *FitbitServer) FoodLogs() []LoggedEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]LoggedEntry(nil), s.foodLogs...)
}

// IssueCode registers an authorization code as if the user had approved a
// login with the given PKCE challenge.
func (s *FitbitServer) IssueCode(redirectURI, codeChallenge string) string {
	code := generateOpaqueToken()
	s.mu.Lock()
	s.authCodes[code] = &authCodeEntry{
		RedirectURI:   redirectURI,
		Scope:         s.config.Scope,
		CodeChallenge: codeChallenge,
	}
	s.mu.Unlock()
	return code
}

// RevokeAll invalidates every issued access and refresh token.
func (s *FitbitServer) RevokeAll() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := len(s.issuedTokens)
	s.issuedTokens = make(map[string]*issuedToken)
	return n
}

func (s *FitbitServer) handleAuthorize(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	if q.Get("response_type") != "code" {
		http.Error(w, "unsupported_response_type", http.StatusBadRequest)
		return
	}
	if q.Get("client_id") != s.config.ClientID {
		http.Error(w, "invalid_client", http.StatusBadRequest)
		return
	}
	if q.Get("code_challenge") == "" || q.Get("code_challenge_method") != "S256" {
		http.Error(w, "PKCE with S256 required", http.StatusBadRequest)
		return
	}

	redirectURL, err := url.Parse(q.Get("redirect_uri"))
	if err != nil || redirectURL.Scheme == "" {
		http.Error(w, "invalid redirect_uri", http.StatusBadRequest)
		return
	}

	code := s.IssueCode(q.Get("redirect_uri"), q.Get("code_challenge"))

	if !s.config.AutoApprove {
		w.Header().Set("Content-Type", "text/plain")
		fmt.Fprintf(w, "code=%s\nstate=%s\n", code, q.Get("state"))
		return
	}

	params := redirectURL.Query()
	params.Set("code", code)
	params.Set("state", q.Get("state"))
	redirectURL.RawQuery = params.Encode()
	http.Redirect(w, r, redirectURL.String(), http.StatusFound)
}

func (s *FitbitServer) handleToken(w http.ResponseWriter, r *http.Request) {
	if sim := s.config.SimulateErrors; sim != nil {
		if sim.TokenDelay > 0 {
			select {
			case <-time.After(sim.TokenDelay):
			case <-r.Context().Done():
				return
			}
		}
		if sim.InvalidGrant {
			writeFitbitError(w, http.StatusBadRequest, "invalid_grant", "Authorization code invalid")
			return
		}
	}

	user, pass, ok := r.BasicAuth()
	if !ok || user != s.config.ClientID || pass != s.config.ClientSecret {
		writeFitbitError(w, http.StatusUnauthorized, "invalid_client", "Invalid authorization header")
		return
	}

	if err := r.ParseForm(); err != nil {
		writeFitbitError(w, http.StatusBadRequest, "invalid_request", "Malformed form body")
		return
	}

	switch r.PostForm.Get("grant_type") {
	case "authorization_code":
		s.handleAuthCodeExchange(w, r)
	case "refresh_token":
		s.handleRefreshToken(w, r)
	default:
		writeFitbitError(w, http.StatusBadRequest, "unsupported_grant_type", "Unsupported grant type")
	}
}

func (s *FitbitServer) handleAuthCodeExchange(w http.ResponseWriter, r *http.Request) {
	code := r.PostForm.Get("code")

	s.mu.Lock()
	entry, exists := s.authCodes[code]
	delete(s.authCodes, code)
	s.mu.Unlock()

	if !exists {
		writeFitbitError(w, http.StatusBadRequest, "invalid_grant", "Authorization code invalid or already used")
		return
	}
	if r.PostForm.Get("redirect_uri") != entry.RedirectURI {
		writeFitbitError(w, http.StatusBadRequest, "invalid_grant", "Redirect URI mismatch")
		return
	}
	if !verifyPKCE(entry.CodeChallenge, r.PostForm.Get("code_verifier")) {
		writeFitbitError(w, http.StatusBadRequest, "invalid_grant", "Code verifier verification failed")
		return
	}

	s.issue(w, entry.Scope)
}

func (s *FitbitServer) handleRefreshToken(w http.ResponseWriter, r *http.Request) {
	refreshToken := r.PostForm.Get("refresh_token")

	s.mu.Lock()
	var original *issuedToken
	for _, token := range s.issuedTokens {
		if token.RefreshToken == refreshToken {
			original = token
			break
		}
	}
	if original != nil {
		delete(s.issuedTokens, original.AccessToken)
	}
	s.mu.Unlock()

	if original == nil {
		writeFitbitError(w, http.StatusBadRequest, "invalid_grant", "Refresh token invalid")
		return
	}

	s.issue(w, s.config.Scope)
}

func (s *FitbitServer) issue(w http.ResponseWriter, scope string) {
	token := &issuedToken{
		AccessToken:  generateOpaqueToken(),
		RefreshToken: generateOpaqueToken(),
		ExpiresAt:    s.clock.Now().Add(s.config.TokenLifetime),
	}

	s.mu.Lock()
	s.issuedTokens[token.AccessToken] = token
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]any{
		"access_token":  token.AccessToken,
		"refresh_token": token.RefreshToken,
		"token_type":    "Bearer",
		"scope":         scope,
		"user_id":       s.config.UserID,
		"expires_in":    int(s.config.TokenLifetime.Seconds()),
	})
}

// authorize checks the bearer token and reports whether the request may
// proceed. It writes the error response otherwise.
func (s *FitbitServer) authorize(w http.ResponseWriter, r *http.Request) (string, bool) {
	accessToken, found := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !found {
		writeFitbitError(w, http.StatusUnauthorized, "invalid_token", "Missing access token")
		return "", false
	}

	s.mu.RLock()
	token, exists := s.issuedTokens[accessToken]
	s.mu.RUnlock()

	switch {
	case !exists:
		writeFitbitError(w, http.StatusUnauthorized, "invalid_token", "Access token invalid")
		return "", false
	case !s.clock.Now().Before(token.ExpiresAt):
		writeFitbitError(w, http.StatusUnauthorized, "expired_token", "Access token expired")
		return "", false
	}
	return accessToken, true
}

func (s *FitbitServer) handleCreateFoodLog(w http.ResponseWriter, r *http.Request) {
	if sim := s.config.SimulateErrors; sim != nil {
		if sim.FoodLogDelay > 0 {
			select {
			case <-time.After(sim.FoodLogDelay):
			case <-r.Context().Done():
				return
			}
		}
		if sim.FoodLogStatus != 0 {
			writeFitbitError(w, sim.FoodLogStatus, "system", "Simulated failure")
			return
		}
	}

	accessToken, ok := s.authorize(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	for _, field := range []string{"foodName", "mealTypeId", "unitId", "amount", "date"} {
		if q.Get(field) == "" {
			writeFitbitError(w, http.StatusBadRequest, "validation", field+" is required")
			return
		}
	}

	number := func(name string) float64 {
		v, _ := strconv.ParseFloat(q.Get(name), 64)
		return v
	}
	mealTypeID, _ := strconv.Atoi(q.Get("mealTypeId"))
	unitID, _ := strconv.Atoi(q.Get("unitId"))

	s.mu.Lock()
	s.nextLogID++
	logID := s.nextLogID
	s.foodLogs = append(s.foodLogs, LoggedEntry{AccessToken: accessToken, Params: q})
	s.mu.Unlock()

	nutrition := map[string]any{
		"calories": number("calories"),
		"carbs":    number("totalCarbohydrate"),
		"fat":      number("totalFat"),
		"fiber":    number("dietaryFiber"),
		"protein":  number("protein"),
		"sodium":   number("sodium"),
	}
	summary := map[string]any{"water": 0}
	for k, v := range nutrition {
		summary[k] = v
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"foodDay": map[string]any{
			"date":    q.Get("date"),
			"summary": summary,
		},
		"foodLog": map[string]any{
			"isFavorite": false,
			"logDate":    q.Get("date"),
			"logId":      logID,
			"loggedFood": map[string]any{
				"accessLevel": "PRIVATE",
				"amount":      number("amount"),
				"brand":       q.Get("brandName"),
				"calories":    number("calories"),
				"foodId":      logID + 5000,
				"mealTypeId":  mealTypeID,
				"name":        q.Get("foodName"),
				"unit":        map[string]any{"id": unitID, "name": "serving", "plural": "servings"},
				"units":       []int{unitID},
			},
			"nutritionalValues": nutrition,
		},
	})
}

func (s *FitbitServer) handleSearchFoods(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.authorize(w, r); !ok {
		return
	}
	query := r.URL.Query().Get("query")
	writeJSON(w, http.StatusOK, map[string]any{
		"foods": []map[string]any{{
			"accessLevel":        "PUBLIC",
			"brand":              "",
			"calories":           100,
			"defaultServingSize": 1,
			"defaultUnit":        map[string]any{"id": 304, "name": "serving", "plural": "servings"},
			"foodId":             1,
			"name":               query,
			"units":              []int{304},
		}},
	})
}

func (s *FitbitServer) handleUnits(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.authorize(w, r); !ok {
		return
	}
	writeJSON(w, http.StatusOK, []map[string]any{
		{"id": 304, "name": "serving", "plural": "servings"},
		{"id": 226, "name": "gram", "plural": "grams"},
	})
}

func verifyPKCE(challenge, verifier string) bool {
	if verifier == "" {
		return false
	}
	hash := sha256.Sum256([]byte(verifier))
	return base64.RawURLEncoding.EncodeToString(hash[:]) == challenge
}

// generateOpaqueToken generates a random opaque token.
// Panics if crypto/rand fails, which should never happen in practice.
func generateOpaqueToken() string {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		panic(fmt.Errorf("crypto/rand failed: %w", err))
	}
	return base64.RawURLEncoding.EncodeToString(b)
}

func writeFitbitError(w http.ResponseWriter, status int, errorType, message string) {
	writeJSON(w, status, map[string]any{
		"errors":  []map[string]string{{"errorType": errorType, "message": message}},
		"success": false,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
