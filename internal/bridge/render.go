package bridge

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html/template"
	"math"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/Masterminds/sprig/v3"

	"fitbridge/pkg/logging"
)

const subsystem = "Bridge"

// NutritionSummary is the result of a successful food log.
type NutritionSummary struct {
	LogID      int64   `json:"logId"`
	Date       string  `json:"date"`
	FoodName   string  `json:"foodName"`
	MealTypeID int     `json:"mealTypeId"`
	MealType   string  `json:"mealType"`
	Calories   float64 `json:"calories"`
	Carbs      float64 `json:"carbs"`
	Fat        float64 `json:"fat"`
	Fiber      float64 `json:"fiber"`
	Protein    float64 `json:"protein"`
	Sodium     float64 `json:"sodium"`
}

// errorBody is the JSON shape of error responses.
type errorBody struct {
	ErrorMessage string `json:"errorMessage"`
	RetryURL     string `json:"retryUrl,omitempty"`
}

type successView struct {
	NutritionSummary
	When string
}

type errorView struct {
	Status   int
	Message  string
	RetryURL string
}

const layoutTemplate = `{{define "layout"}}<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>{{block "title" .}}fitbridge{{end}}</title>
    <style>
        body { font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; display: flex; justify-content: center; padding: 1.25rem; color: #222; }
        main { width: 100%; max-width: 28rem; display: flex; flex-direction: column; gap: 0.5rem; }
        h1 { font-size: 1.25rem; text-align: center; }
        ul { list-style: none; padding: 0; }
        li { display: flex; justify-content: space-between; padding: 0.15rem 0; }
        pre { white-space: pre-wrap; background: #f5f5f5; padding: 0.75rem; overflow: auto; }
        a { text-decoration: underline; }
    </style>
</head>
<body>
<main>
{{template "content" .}}
</main>
</body>
</html>{{end}}`

const successTemplate = `{{define "title"}}Logged with Fitbit{{end}}
{{define "content"}}
    <h1>&#10004; Logged with Fitbit</h1>
    <ul>
        <li><span>Time:</span><span>{{.MealType}}, {{.When}}</span></li>
        <li><span>Name:</span><span>{{.FoodName | trunc 120}}</span></li>
        <li><span>Calories:</span><span>{{round .Calories 1}} kcal</span></li>
        <li><span>Protein:</span><span>{{round .Protein 1}} g</span></li>
        <li><span>Carbs:</span><span>{{round .Carbs 1}} g</span></li>
        <li><span>Fat:</span><span>{{round .Fat 1}} g</span></li>
        <li><span>Fiber:</span><span>{{round .Fiber 1}} g</span></li>
        <li><span>Sodium:</span><span>{{round .Sodium 1}} mg</span></li>
    </ul>
{{end}}`

const errorTemplate = `{{define "title"}}Something went wrong{{end}}
{{define "content"}}
    <p>Oh no! Something went wrong when sending the food log to Fitbit.</p>
    {{- with .RetryURL}}
    <a href="{{.}}">Re-authenticate and try again</a>
    {{- end}}
    <pre>{{.Message | default "Unknown error"}}</pre>
{{end}}`

var (
	successPage = mustParsePage("success", successTemplate)
	errorPage   = mustParsePage("error", errorTemplate)
)

func mustParsePage(name, content string) *template.Template {
	t := template.New(name).Funcs(sprig.FuncMap())
	t = template.Must(t.Parse(layoutTemplate))
	return template.Must(t.Parse(content))
}

// setSecurityHeaders sets recommended security headers for HTML responses.
func setSecurityHeaders(w http.ResponseWriter) {
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("X-Frame-Options", "DENY")
	w.Header().Set("Content-Security-Policy", "default-src 'none'; style-src 'unsafe-inline'")
	w.Header().Set("Referrer-Policy", "no-referrer")
	w.Header().Set("Cache-Control", "no-store, no-cache, must-revalidate")
}

// wantsJSON reports whether the client asked for a JSON response.
func wantsJSON(r *http.Request) bool {
	for _, part := range strings.Split(r.Header.Get("Accept"), ",") {
		mediaType, _, err := mime.ParseMediaType(strings.TrimSpace(part))
		if err == nil && mediaType == "application/json" {
			return true
		}
	}
	return false
}

// renderSummary describes the logged day relative to the caller's today in loc.
func (h *Handler) renderSummary(w http.ResponseWriter, r *http.Request, summary NutritionSummary, loc *time.Location) {
	if wantsJSON(r) {
		writeJSON(w, http.StatusOK, summary)
		return
	}
	if loc == nil {
		loc = time.UTC
	}
	view := successView{NutritionSummary: summary, When: relativeDay(summary.Date, h.now().In(loc))}
	h.renderHTML(w, r, http.StatusOK, successPage, view)
}

func (h *Handler) renderError(w http.ResponseWriter, r *http.Request, status int, message, retryURL string) {
	if wantsJSON(r) {
		writeJSON(w, status, errorBody{ErrorMessage: message, RetryURL: retryURL})
		return
	}
	h.renderHTML(w, r, status, errorPage, errorView{Status: status, Message: message, RetryURL: retryURL})
}

func (h *Handler) renderHTML(w http.ResponseWriter, r *http.Request, status int, page *template.Template, data any) {
	var buf bytes.Buffer
	if err := page.ExecuteTemplate(&buf, "layout", data); err != nil {
		logging.ErrorContext(r.Context(), subsystem, err, "Failed to render page")
		http.Error(w, genericErrorMessage, http.StatusInternalServerError)
		return
	}

	setSecurityHeaders(w)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// relativeDay describes a YYYY-MM-DD date relative to now, e.g. "today" or
// "3 days ago".
func relativeDay(date string, now time.Time) string {
	day, err := time.Parse("2006-01-02", date)
	if err != nil {
		return date
	}
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	diff := int(math.Round(day.Sub(today).Hours() / 24))

	switch {
	case diff == 0:
		return "today"
	case diff == -1:
		return "yesterday"
	case diff == 1:
		return "tomorrow"
	case diff < 0:
		return fmt.Sprintf("%d days ago", -diff)
	default:
		return fmt.Sprintf("in %d days", diff)
	}
}
