package fitbit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"fitbridge/pkg/oauth"
)

const (
	// DefaultBaseURL is the Fitbit Web API base.
	DefaultBaseURL = "https://api.fitbit.com/1"

	// DefaultHTTPTimeout is the default timeout for API requests.
	DefaultHTTPTimeout = 15 * time.Second

	maxResponseBytes = 1 << 20
)

// Client calls the Fitbit Web API on behalf of a user.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// Option configures the API client.
type Option func(*Client)

// WithBaseURL overrides the API base URL.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		if baseURL != "" {
			c.baseURL = strings.TrimRight(baseURL, "/")
		}
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// NewClient creates a new API client.
func NewClient(opts ...Option) *Client {
	c := &Client{
		baseURL:    DefaultBaseURL,
		httpClient: &http.Client{Timeout: DefaultHTTPTimeout},
		logger:     slog.Default(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// CreateFoodLog logs a food entry, in servings, for the token's user.
func (c *Client) CreateFoodLog(ctx context.Context, accessToken string, payload *FoodLogPayload) (*FoodLogResult, error) {
	const op = "create food log"

	body, err := c.do(ctx, op, http.MethodPost, "/user/-/foods/log.json", payload.Values(), accessToken)
	if err != nil {
		return nil, err
	}

	var result FoodLogResult
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, &oauth.SchemaValidationError{Subject: "food log response", Issues: []string{err.Error()}, Err: err}
	}
	if err := validate.Struct(&result); err != nil {
		return nil, schemaError("food log response", err)
	}

	c.logger.Debug("Created food log",
		"log_id", result.FoodLog.LogID,
		"meal_type_id", result.FoodLog.LoggedFood.MealTypeID,
		"date", result.FoodDay.Date)

	return &result, nil
}

// SearchFoods searches the Fitbit food database.
func (c *Client) SearchFoods(ctx context.Context, accessToken, query string) (*FoodSearchResult, error) {
	const op = "search foods"

	body, err := c.do(ctx, op, http.MethodGet, "/foods/search.json", url.Values{"query": {query}}, accessToken)
	if err != nil {
		return nil, err
	}

	var result FoodSearchResult
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, &oauth.SchemaValidationError{Subject: "food search response", Issues: []string{err.Error()}, Err: err}
	}
	return &result, nil
}

// GetFoodUnits lists the measurement units Fitbit accepts.
func (c *Client) GetFoodUnits(ctx context.Context, accessToken string) ([]Unit, error) {
	const op = "get food units"

	body, err := c.do(ctx, op, http.MethodGet, "/foods/units.json", nil, accessToken)
	if err != nil {
		return nil, err
	}

	var units []Unit
	if err := json.Unmarshal(body, &units); err != nil {
		return nil, &oauth.SchemaValidationError{Subject: "food units response", Issues: []string{err.Error()}, Err: err}
	}
	return units, nil
}

// do performs an authenticated request. Parameters are sent in the query
// string, which is how Fitbit expects them for POSTs as well.
func (c *Client) do(ctx context.Context, op, method, path string, params url.Values, accessToken string) ([]byte, error) {
	endpoint := c.baseURL + path
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s request: %w", op, err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if oauth.IsTimeout(err) {
			return nil, &oauth.UpstreamTimeoutError{Op: op, Err: err}
		}
		return nil, fmt.Errorf("%s failed: %w", op, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		if oauth.IsTimeout(err) {
			return nil, &oauth.UpstreamTimeoutError{Op: op, Err: err}
		}
		return nil, fmt.Errorf("failed to read %s response: %w", op, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{StatusCode: resp.StatusCode, Op: op}
		var payload struct {
			Errors []APIErrorDetail `json:"errors"`
		}
		if json.Unmarshal(body, &payload) == nil {
			apiErr.Errors = payload.Errors
		}
		c.logger.Debug("Fitbit API request failed",
			"op", op,
			"status", resp.StatusCode)
		return nil, apiErr
	}

	return body, nil
}

func schemaError(subject string, err error) error {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return &oauth.SchemaValidationError{Subject: subject, Issues: []string{err.Error()}, Err: err}
	}
	issues := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		issues = append(issues, fmt.Sprintf("%s: failed %s validation", fe.Namespace(), fe.Tag()))
	}
	return &oauth.SchemaValidationError{Subject: subject, Issues: issues, Err: err}
}
