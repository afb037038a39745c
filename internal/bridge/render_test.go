package bridge

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"fitbridge/internal/fitbit"
	"fitbridge/pkg/oauth"
)

func TestRelativeDay(t *testing.T) {
	now := time.Date(2024, time.March, 10, 23, 30, 0, 0, time.UTC)
	tests := map[string]string{
		"2024-03-10": "today",
		"2024-03-09": "yesterday",
		"2024-03-11": "tomorrow",
		"2024-03-07": "3 days ago",
		"2024-03-14": "in 4 days",
		"not-a-date": "not-a-date",
	}
	for date, want := range tests {
		assert.Equal(t, want, relativeDay(date, now), date)
	}
}

func TestWantsJSON(t *testing.T) {
	tests := map[string]bool{
		"":                                  false,
		"text/html":                         false,
		"application/json":                  true,
		"text/html, application/json;q=0.9": true,
		"application/jsonp":                 false,
	}
	for accept, want := range tests {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Accept", accept)
		assert.Equal(t, want, wantsJSON(req), accept)
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		err        error
		wantStatus int
	}{
		{&PreconditionError{Reason: "x"}, http.StatusPreconditionFailed},
		{fmt.Errorf("wrapped: %w", &StateMismatchError{}), http.StatusForbidden},
		{&MissingParameterError{Name: "code"}, http.StatusBadRequest},
		{&fitbit.ValidationError{Issues: []string{"foodName: required"}}, http.StatusBadRequest},
		{&oauth.UpstreamTimeoutError{Op: "token refresh"}, http.StatusGatewayTimeout},
		{&oauth.UpstreamAuthError{StatusCode: 401}, http.StatusBadGateway},
		{&url.Error{Op: "Post", URL: "https://api.fitbit.com", Err: errors.New("connection refused")}, http.StatusBadGateway},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range tests {
		status, _ := classify(tc.err)
		assert.Equal(t, tc.wantStatus, status, tc.err.Error())
	}
}

func TestLocalPath(t *testing.T) {
	tests := map[string]string{
		"":                     "/",
		"/":                    "/",
		"/?foodName=Apple":     "/?foodName=Apple",
		"//evil.example.com":   "/",
		"/\\evil.example.com":  "/",
		"https://example.com/": "/",
		"javascript:alert(1)":  "/",
		"/\t/evil.example.com": "/",
		"/\n/evil.example.com": "/",
		"/\r\n/evil.example":   "/",
		"/ /evil.example.com":  "/",
		"/\x7f/evil.example":   "/",
		"/log%09food":          "/log%09food",
	}
	for in, want := range tests {
		assert.Equal(t, want, localPath(in), in)
	}
}
