package bridge

import (
	"context"
	"crypto/subtle"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"fitbridge/internal/fitbit"
	"fitbridge/internal/session"
	"fitbridge/pkg/logging"
	"fitbridge/pkg/meal"
	"fitbridge/pkg/oauth"
)

const (
	// CallbackPath is where the provider redirects after login.
	CallbackPath = "/api/auth/callback"

	// LogoutPath clears the session and redirects to returnTo.
	LogoutPath = "/api/auth/logout"
)

// Provider is the subset of the Fitbit API the handlers need.
type Provider interface {
	ExchangeCode(ctx context.Context, codeVerifier, code string) (*oauth.TokenSet, error)
	Refresh(ctx context.Context, refreshToken string) (*oauth.TokenSet, error)
	CreateFoodLog(ctx context.Context, token *oauth.TokenSet, payload *fitbit.FoodLogPayload) (*fitbit.FoodLogResult, error)
	SearchFoods(ctx context.Context, token *oauth.TokenSet, query string) (*fitbit.FoodSearchResult, error)
}

// Authorizer builds the provider login URL.
type Authorizer interface {
	AuthorizationURL(state, codeChallenge string) string
}

// Handler serves the food log endpoint and the OAuth callback and logout
// endpoints. It expects session.Middleware to have run.
type Handler struct {
	provider   Provider
	authorizer Authorizer

	now          func() time.Time
	generatePKCE func() (*oauth.PKCEChallenge, error)
}

// Option configures a Handler.
type Option func(*Handler)

// WithClock sets the time source used for expiry checks and meal types.
func WithClock(now func() time.Time) Option {
	return func(h *Handler) {
		h.now = now
	}
}

// WithPKCEGenerator replaces the PKCE generator.
func WithPKCEGenerator(generate func() (*oauth.PKCEChallenge, error)) Option {
	return func(h *Handler) {
		h.generatePKCE = generate
	}
}

// NewHandler creates a new Handler.
func NewHandler(provider Provider, authorizer Authorizer, opts ...Option) *Handler {
	h := &Handler{
		provider:     provider,
		authorizer:   authorizer,
		now:          time.Now,
		generatePKCE: oauth.GeneratePKCE,
	}

	for _, opt := range opts {
		opt(h)
	}

	return h
}

// HandleLog logs the food described by the query parameters. Without a
// token set it starts a login; with an expiring one it refreshes first.
func (h *Handler) HandleLog(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess := session.FromContext(ctx)
	if sess == nil {
		h.fail(w, r, fmt.Errorf("no session in request context"), "")
		return
	}

	if sess.Data.TokenSet == nil {
		h.beginLogin(w, r, sess)
		return
	}

	if sess.Data.TokenSet.NeedsRefresh(h.now()) {
		logging.InfoContext(ctx, subsystem, "Refreshing tokens because access token expires at %s",
			sess.Data.TokenSet.ExpiresAt.Format(time.RFC3339))

		tokenSet, err := h.provider.Refresh(ctx, sess.Data.TokenSet.RefreshToken)
		if err != nil {
			if cancelled(ctx) {
				logging.DebugContext(ctx, subsystem, "Request cancelled during token refresh")
				return
			}

			logging.WarnContext(ctx, subsystem, "Token refresh failed, dropping session: %v", err)
			sess.Reset()
			if err := sess.Save(); err != nil {
				h.fail(w, r, err, "")
				return
			}
			http.Redirect(w, r, r.URL.RequestURI(), http.StatusFound)
			return
		}

		sess.Data.TokenSet = tokenSet
		if err := sess.Save(); err != nil {
			h.fail(w, r, err, "")
			return
		}
	}

	retryURL := LogoutPath + "?returnTo=" + url.QueryEscape(r.URL.RequestURI())

	payload, err := fitbit.ParseFoodLogPayload(r.URL.Query(), h.now())
	if err != nil {
		h.fail(w, r, err, retryURL)
		return
	}

	result, err := h.provider.CreateFoodLog(ctx, sess.Data.TokenSet, payload)
	if err != nil {
		if cancelled(ctx) {
			logging.DebugContext(ctx, subsystem, "Request cancelled during food log")
			return
		}
		if fitbit.IsUnauthorized(err) {
			logging.WarnContext(ctx, subsystem, "Fitbit rejected the access token for user %s", sess.Data.TokenSet.UserID)
		}
		h.fail(w, r, err, retryURL)
		return
	}

	logging.InfoContext(ctx, subsystem, "Logged %q as %s for user %s",
		result.FoodLog.LoggedFood.Name, meal.Type(result.FoodLog.LoggedFood.MealTypeID), sess.Data.TokenSet.UserID)

	h.renderSummary(w, r, summarize(result), payload.Location)
}

func (h *Handler) beginLogin(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	pkce, err := h.generatePKCE()
	if err != nil {
		h.fail(w, r, err, "")
		return
	}

	sess.Data.State = pkce.State
	sess.Data.CodeVerifier = pkce.CodeVerifier
	sess.Data.PostLoginReturnURL = r.URL.RequestURI()
	if err := sess.Save(); err != nil {
		h.fail(w, r, err, "")
		return
	}

	logging.DebugContext(r.Context(), subsystem, "No token set, redirecting to authorization endpoint")
	http.Redirect(w, r, h.authorizer.AuthorizationURL(pkce.State, pkce.CodeChallenge), http.StatusFound)
}

// HandleCallback completes a login started by HandleLog.
func (h *Handler) HandleCallback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess := session.FromContext(ctx)
	if sess == nil || !sess.Data.LoginPending() {
		h.fail(w, r, &PreconditionError{Reason: "this must be called after returning from the OAuth provider"}, "")
		return
	}

	query := r.URL.Query()
	code, state := query.Get("code"), query.Get("state")
	switch {
	case code == "":
		h.fail(w, r, &MissingParameterError{Name: "code", ProviderError: query.Get("error")}, "")
		return
	case state == "":
		h.fail(w, r, &MissingParameterError{Name: "state"}, "")
		return
	}

	if subtle.ConstantTimeCompare([]byte(state), []byte(sess.Data.State)) != 1 {
		logging.WarnContext(ctx, subsystem, "OAuth callback with mismatched state")
		h.fail(w, r, &StateMismatchError{}, "")
		return
	}

	returnTo := localPath(sess.Data.PostLoginReturnURL)

	tokenSet, err := h.provider.ExchangeCode(ctx, sess.Data.CodeVerifier, code)
	if err != nil {
		if cancelled(ctx) {
			return
		}
		h.fail(w, r, err, LogoutPath+"?returnTo="+url.QueryEscape(returnTo))
		return
	}

	sess.Data = session.Data{TokenSet: tokenSet}
	if err := sess.Save(); err != nil {
		h.fail(w, r, err, "")
		return
	}

	logging.InfoContext(ctx, subsystem, "Authorized Fitbit user %s", tokenSet.UserID)
	http.Redirect(w, r, returnTo, http.StatusFound)
}

// HandleLogout clears the session and redirects to the local returnTo path.
func (h *Handler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())
	if sess == nil {
		h.fail(w, r, fmt.Errorf("no session in request context"), "")
		return
	}

	sess.Reset()
	if err := sess.Save(); err != nil {
		h.fail(w, r, err, "")
		return
	}

	http.Redirect(w, r, localPath(r.URL.Query().Get("returnTo")), http.StatusFound)
}

// fail logs err and renders it with the status classify assigns.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error, retryURL string) {
	status, message := classify(err)
	if status >= http.StatusInternalServerError {
		logging.ErrorContext(r.Context(), subsystem, err, "Request failed with status %d", status)
	} else {
		logging.InfoContext(r.Context(), subsystem, "Request rejected with status %d: %v", status, err)
	}
	h.renderError(w, r, status, message, retryURL)
}

// localPath returns p if it is a path on this host, "/" otherwise.
// Browsers strip tab and newline before resolving a Location, so "/\t/host"
// would become protocol-relative; any control byte is rejected outright.
func localPath(p string) string {
	for i := 0; i < len(p); i++ {
		if p[i] <= 0x20 || p[i] == 0x7f {
			return "/"
		}
	}
	if !strings.HasPrefix(p, "/") || strings.HasPrefix(p, "//") || strings.HasPrefix(p, "/\\") {
		return "/"
	}
	u, err := url.Parse(p)
	if err != nil || u.Scheme != "" || u.Host != "" {
		return "/"
	}
	return p
}

func summarize(result *fitbit.FoodLogResult) NutritionSummary {
	food := result.FoodLog.LoggedFood
	values := result.FoodLog.NutritionalValues
	return NutritionSummary{
		LogID:      result.FoodLog.LogID,
		Date:       result.FoodDay.Date,
		FoodName:   food.Name,
		MealTypeID: food.MealTypeID,
		MealType:   meal.Type(food.MealTypeID).String(),
		Calories:   values.Calories,
		Carbs:      values.Carbs,
		Fat:        values.Fat,
		Fiber:      values.Fiber,
		Protein:    values.Protein,
		Sodium:     values.Sodium,
	}
}
