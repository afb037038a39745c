package fitbit

import (
	"errors"
	"fmt"
	"math"
	"net/url"
	"reflect"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/go-playground/validator/v10"

	"fitbridge/pkg/meal"
)

const (
	// ServingsUnitID is Fitbit's unit id for "servings".
	ServingsUnitID = 304

	dateLayout = "2006-01-02"
)

// timestampLayouts are tried in order when parsing the timestamp parameter.
// Layouts without an offset are interpreted in the payload's timezone.
var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	"15:04",
}

// FoodLogPayload is a validated request to log a food entry.
type FoodLogPayload struct {
	FoodName          string    `query:"foodName" validate:"required,max=200"`
	BrandName         string    `query:"brandName" validate:"max=200"`
	Amount            float64   `query:"amount" validate:"gt=0"`
	Calories          *float64  `query:"calories" validate:"required,gte=0"`
	TotalCarbohydrate *float64  `query:"totalCarbohydrate" validate:"omitempty,gte=0"`
	TotalFat          *float64  `query:"totalFat" validate:"omitempty,gte=0"`
	DietaryFiber      *float64  `query:"dietaryFiber" validate:"omitempty,gte=0"`
	Protein           *float64  `query:"protein" validate:"omitempty,gte=0"`
	Sodium            *float64  `query:"sodium" validate:"omitempty,gte=0"`
	MealTypeID        meal.Type `query:"mealTypeId"`
	Date              string    `query:"date" validate:"required,datetime=2006-01-02"`

	// MealTypeExplicit is set when the caller supplied mealTypeId.
	MealTypeExplicit bool `query:"-"`

	// Location is the caller's time zone; UTC when none was given.
	Location *time.Location `query:"-" validate:"-"`
}

// ValidationError reports every problem found in a food log request.
type ValidationError struct {
	Issues []string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return "invalid query parameters: " + strings.Join(e.Issues, "; ")
}

// IsValidation checks if an error is or wraps a ValidationError.
func IsValidation(err error) bool {
	var validationErr *ValidationError
	return errors.As(err, &validationErr)
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		for _, key := range []string{"query", "json"} {
			name, _, _ := strings.Cut(field.Tag.Get(key), ",")
			if name != "" && name != "-" {
				return name
			}
		}
		return field.Name
	})
	return v
}

// ParseFoodLogPayload validates query parameters into a FoodLogPayload.
//
// An explicit mealTypeId always wins. Otherwise the meal type is classified
// from timestamp (or now) in timezone (default UTC). A missing date is taken
// from the same reference time.
func ParseFoodLogPayload(query url.Values, now time.Time) (*FoodLogPayload, error) {
	var issues []string
	addIssue := func(format string, args ...any) {
		issues = append(issues, fmt.Sprintf(format, args...))
	}

	p := &FoodLogPayload{
		FoodName:  strings.TrimSpace(query.Get("foodName")),
		BrandName: strings.TrimSpace(query.Get("brandName")),
		Date:      strings.TrimSpace(query.Get("date")),
	}

	number := func(name string) *float64 {
		raw := strings.TrimSpace(query.Get(name))
		if raw == "" {
			return nil
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			addIssue("%s: expected a number, got %q", name, raw)
			return nil
		}
		return &v
	}

	if amount := number("amount"); amount != nil {
		p.Amount = *amount
	}
	p.Calories = number("calories")
	p.TotalCarbohydrate = number("totalCarbohydrate")
	p.TotalFat = number("totalFat")
	p.DietaryFiber = number("dietaryFiber")
	p.Protein = number("protein")
	p.Sodium = number("sodium")

	if raw := strings.TrimSpace(query.Get("mealTypeId")); raw != "" {
		t, err := meal.ParseType(raw)
		if err != nil {
			addIssue("mealTypeId: %v", err)
		} else {
			p.MealTypeID = t
			p.MealTypeExplicit = true
		}
	}

	zone := strings.TrimSpace(query.Get("timezone"))
	if zone == "" {
		zone = "UTC"
	}
	loc, err := time.LoadLocation(zone)
	if err != nil {
		addIssue("timezone: unknown time zone %q", zone)
		loc = time.UTC
	}

	p.Location = loc
	reference := now.In(loc)
	if raw := strings.TrimSpace(query.Get("timestamp")); raw != "" {
		t, err := parseTimestamp(raw, reference)
		if err != nil {
			addIssue("timestamp: %v", err)
		} else {
			reference = t
		}
	}

	if !p.MealTypeExplicit {
		p.MealTypeID = meal.ClassifyTime(reference)
	}
	if p.Date == "" {
		p.Date = reference.Format(dateLayout)
	}

	if err := validate.Struct(p); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return nil, fmt.Errorf("failed to validate food log payload: %w", err)
		}
		for _, fe := range fieldErrs {
			issues = append(issues, describeFieldError(fe))
		}
	}

	if len(issues) > 0 {
		return nil, &ValidationError{Issues: issues}
	}
	return p, nil
}

// parseTimestamp parses raw in the location of reference. A bare "HH:MM"
// is taken on reference's date.
func parseTimestamp(raw string, reference time.Time) (time.Time, error) {
	loc := reference.Location()
	for _, layout := range timestampLayouts {
		t, err := time.ParseInLocation(layout, raw, loc)
		if err != nil {
			continue
		}
		if layout == "15:04" {
			y, m, d := reference.Date()
			return time.Date(y, m, d, t.Hour(), t.Minute(), 0, 0, loc), nil
		}
		return t.In(loc), nil
	}
	return time.Time{}, fmt.Errorf("unrecognized format %q", raw)
}

func describeFieldError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + ": required"
	case "gt":
		return fmt.Sprintf("%s: must be greater than %s", fe.Field(), fe.Param())
	case "gte":
		return fmt.Sprintf("%s: must be at least %s", fe.Field(), fe.Param())
	case "max":
		return fmt.Sprintf("%s: must be at most %s characters", fe.Field(), fe.Param())
	case "datetime":
		return fmt.Sprintf("%s: expected format YYYY-MM-DD", fe.Field())
	default:
		return fmt.Sprintf("%s: failed %s validation", fe.Field(), fe.Tag())
	}
}

// Values returns the form parameters for the create food log call.
func (p *FoodLogPayload) Values() url.Values {
	v := url.Values{}
	v.Set("foodName", p.FoodName)
	v.Set("mealTypeId", strconv.Itoa(int(p.MealTypeID)))
	v.Set("unitId", strconv.Itoa(ServingsUnitID))
	v.Set("amount", formatNumber(p.Amount))
	v.Set("date", p.Date)
	if p.BrandName != "" {
		v.Set("brandName", p.BrandName)
	}
	if p.Calories != nil {
		v.Set("calories", formatNumber(*p.Calories))
	}

	optional := []struct {
		name  string
		value *float64
	}{
		{"totalCarbohydrate", p.TotalCarbohydrate},
		{"totalFat", p.TotalFat},
		{"dietaryFiber", p.DietaryFiber},
		{"protein", p.Protein},
		{"sodium", p.Sodium},
	}
	for _, o := range optional {
		if o.value != nil {
			v.Set(o.name, formatNumber(*o.value))
		}
	}
	return v
}

func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
