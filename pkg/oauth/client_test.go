package oauth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

var fixedNow = time.Date(2024, time.March, 10, 12, 0, 0, 0, time.UTC)

func testClient(tokenURL string, opts ...ClientOption) *Client {
	base := []ClientOption{
		WithEndpoints("https://provider.example.com/oauth2/authorize", tokenURL),
		WithClock(func() time.Time { return fixedNow }),
	}
	return NewClient(Credentials{
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		RedirectURL:  "https://bridge.example.com/api/auth/callback",
	}, append(base, opts...)...)
}

func validTokenResponse() map[string]any {
	return map[string]any{
		"access_token":  "access-123",
		"refresh_token": "refresh-456",
		"token_type":    "Bearer",
		"scope":         "nutrition profile",
		"user_id":       "ABC123",
		"expires_in":    28800,
	}
}

func TestNewClient(t *testing.T) {
	t.Run("creates client with defaults", func(t *testing.T) {
		c := NewClient(Credentials{ClientID: "id"})
		if c.httpClient == nil {
			t.Error("expected httpClient to be set")
		}
		if c.httpClient.Timeout != DefaultHTTPTimeout {
			t.Errorf("expected timeout %v, got %v", DefaultHTTPTimeout, c.httpClient.Timeout)
		}
		if c.tokenURL != DefaultTokenURL {
			t.Errorf("expected token URL %s, got %s", DefaultTokenURL, c.tokenURL)
		}
		if c.authorizeURL != DefaultAuthorizeURL {
			t.Errorf("expected authorize URL %s, got %s", DefaultAuthorizeURL, c.authorizeURL)
		}
	})

	t.Run("empty endpoints keep defaults", func(t *testing.T) {
		c := NewClient(Credentials{}, WithEndpoints("", ""))
		if c.tokenURL != DefaultTokenURL || c.authorizeURL != DefaultAuthorizeURL {
			t.Error("expected defaults to be kept")
		}
	})
}

func TestAuthorizationURL(t *testing.T) {
	c := testClient("https://provider.example.com/oauth2/token")

	raw := c.AuthorizationURL("state-xyz", "challenge-abc")
	u, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("invalid URL: %v", err)
	}

	if u.Host != "provider.example.com" || u.Path != "/oauth2/authorize" {
		t.Errorf("unexpected endpoint %s", raw)
	}

	want := map[string]string{
		"response_type":         "code",
		"client_id":             "client-id",
		"scope":                 "nutrition profile",
		"code_challenge":        "challenge-abc",
		"code_challenge_method": "S256",
		"state":                 "state-xyz",
		"redirect_uri":          "https://bridge.example.com/api/auth/callback",
	}
	q := u.Query()
	for key, value := range want {
		if got := q.Get(key); got != value {
			t.Errorf("query %s = %q, want %q", key, got, value)
		}
	}
}

func TestExchangeCode(t *testing.T) {
	t.Run("sends auth code grant with basic auth", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				t.Errorf("expected POST, got %s", r.Method)
			}
			user, pass, ok := r.BasicAuth()
			if !ok || user != "client-id" || pass != "client-secret" {
				t.Errorf("unexpected basic auth %q/%q", user, pass)
			}
			if ct := r.Header.Get("Content-Type"); ct != "application/x-www-form-urlencoded" {
				t.Errorf("unexpected content type %q", ct)
			}
			if err := r.ParseForm(); err != nil {
				t.Fatalf("ParseForm: %v", err)
			}
			expected := map[string]string{
				"client_id":     "client-id",
				"grant_type":    "authorization_code",
				"redirect_uri":  "https://bridge.example.com/api/auth/callback",
				"code":          "the-code",
				"code_verifier": "the-verifier",
			}
			for key, value := range expected {
				if got := r.PostForm.Get(key); got != value {
					t.Errorf("form %s = %q, want %q", key, got, value)
				}
			}
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(validTokenResponse())
		}))
		defer server.Close()

		c := testClient(server.URL)
		ts, err := c.ExchangeCode(context.Background(), "the-verifier", "the-code")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if ts.AccessToken != "access-123" || ts.RefreshToken != "refresh-456" || ts.UserID != "ABC123" {
			t.Errorf("unexpected token set %+v", ts)
		}
		if want := fixedNow.Add(8 * time.Hour); !ts.ExpiresAt.Equal(want) {
			t.Errorf("ExpiresAt = %v, want %v", ts.ExpiresAt, want)
		}
	})

	t.Run("rejected code is an UpstreamAuthError", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"errors":[{"errorType":"invalid_grant","message":"Authorization code expired"}],"success":false}`))
		}))
		defer server.Close()

		_, err := testClient(server.URL).ExchangeCode(context.Background(), "v", "c")
		var authErr *UpstreamAuthError
		if !errors.As(err, &authErr) {
			t.Fatalf("expected UpstreamAuthError, got %v", err)
		}
		if authErr.StatusCode != http.StatusBadRequest || authErr.Code != "invalid_grant" {
			t.Errorf("unexpected error details %+v", authErr)
		}
	})

	t.Run("malformed response is a SchemaValidationError", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			resp := validTokenResponse()
			delete(resp, "refresh_token")
			json.NewEncoder(w).Encode(resp)
		}))
		defer server.Close()

		ts, err := testClient(server.URL).ExchangeCode(context.Background(), "v", "c")
		if ts != nil {
			t.Error("expected no token set")
		}
		if !IsSchemaValidation(err) {
			t.Fatalf("expected SchemaValidationError, got %v", err)
		}
	})
}

func TestRefresh(t *testing.T) {
	t.Run("sends refresh grant", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			r.ParseForm()
			if got := r.PostForm.Get("grant_type"); got != "refresh_token" {
				t.Errorf("grant_type = %q", got)
			}
			if got := r.PostForm.Get("refresh_token"); got != "refresh-456" {
				t.Errorf("refresh_token = %q", got)
			}
			if got := r.PostForm.Get("client_id"); got != "client-id" {
				t.Errorf("client_id = %q", got)
			}
			if _, _, ok := r.BasicAuth(); !ok {
				t.Error("expected basic auth")
			}
			resp := validTokenResponse()
			resp["access_token"] = "access-new"
			json.NewEncoder(w).Encode(resp)
		}))
		defer server.Close()

		ts, err := testClient(server.URL).Refresh(context.Background(), "refresh-456")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if ts.AccessToken != "access-new" {
			t.Errorf("AccessToken = %q", ts.AccessToken)
		}
	})

	t.Run("revoked refresh token", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"error":"invalid_token","error_description":"Refresh token revoked"}`))
		}))
		defer server.Close()

		_, err := testClient(server.URL).Refresh(context.Background(), "gone")
		if !IsUpstreamAuth(err) {
			t.Fatalf("expected UpstreamAuthError, got %v", err)
		}
	})

	t.Run("server error is not an auth error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer server.Close()

		_, err := testClient(server.URL).Refresh(context.Background(), "r")
		if err == nil || IsUpstreamAuth(err) {
			t.Fatalf("expected plain error, got %v", err)
		}
	})

	t.Run("slow endpoint is an UpstreamTimeoutError", func(t *testing.T) {
		release := make(chan struct{})
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-release:
			case <-r.Context().Done():
			}
		}))
		defer server.Close()
		defer close(release)

		c := testClient(server.URL, WithHTTPClient(&http.Client{Timeout: 50 * time.Millisecond}))
		_, err := c.Refresh(context.Background(), "r")
		if !IsUpstreamTimeout(err) {
			t.Fatalf("expected UpstreamTimeoutError, got %v", err)
		}
	})
}

func TestParseErrorBody(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		wantCode string
		wantDesc string
	}{
		{"rfc6749", `{"error":"invalid_grant","error_description":"bad code"}`, "invalid_grant", "bad code"},
		{"fitbit", `{"errors":[{"errorType":"expired_token","message":"expired"}]}`, "expired_token", "expired"},
		{"empty", `{}`, "", ""},
		{"not json", `<html>`, "", ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			code, desc := parseErrorBody([]byte(tc.body))
			if code != tc.wantCode || desc != tc.wantDesc {
				t.Errorf("parseErrorBody() = %q, %q; want %q, %q", code, desc, tc.wantCode, tc.wantDesc)
			}
		})
	}
}

func TestRefresh_ConcurrentCallsShareRequest(t *testing.T) {
	var calls atomic.Int32
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		<-release
		json.NewEncoder(w).Encode(validTokenResponse())
	}))
	defer server.Close()

	c := testClient(server.URL)

	var wg sync.WaitGroup
	results := make([]*TokenSet, 2)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ts, err := c.Refresh(context.Background(), "same-token")
			if err != nil {
				t.Errorf("unexpected error: %v", err)
				return
			}
			results[i] = ts
		}(i)
	}

	// Give both goroutines time to enter the group before the response.
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	if got := calls.Load(); got != 1 {
		t.Errorf("expected 1 token request, got %d", got)
	}
	if results[0] == nil || results[1] == nil || results[0] == results[1] {
		t.Error("expected each caller to get its own token set copy")
	}
}

func TestRefresh_CancelledCallerDoesNotFailSharedRequest(t *testing.T) {
	var calls atomic.Int32
	arrived := make(chan struct{})
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			close(arrived)
		}
		<-release
		json.NewEncoder(w).Encode(validTokenResponse())
	}))
	defer server.Close()

	c := testClient(server.URL)

	firstCtx, cancelFirst := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := c.Refresh(firstCtx, "same-token")
		firstErr <- err
	}()
	<-arrived

	type result struct {
		ts  *TokenSet
		err error
	}
	second := make(chan result, 1)
	go func() {
		ts, err := c.Refresh(context.Background(), "same-token")
		second <- result{ts, err}
	}()

	// Let the second caller join the in-flight request before the first leaves.
	time.Sleep(50 * time.Millisecond)
	cancelFirst()

	select {
	case err := <-firstErr:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("first caller error = %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("first caller did not return after cancellation")
	}

	close(release)
	res := <-second
	if res.err != nil {
		t.Fatalf("second caller failed: %v", res.err)
	}
	if res.ts.AccessToken != "access-123" {
		t.Errorf("AccessToken = %q, want access-123", res.ts.AccessToken)
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("expected 1 token request, got %d", got)
	}
}
