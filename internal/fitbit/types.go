package fitbit

import "encoding/json"

// FoodLogResult is the response of the create food log call.
type FoodLogResult struct {
	FoodDay FoodDay `json:"foodDay"`
	FoodLog FoodLog `json:"foodLog"`
}

// FoodDay is the day the entry was logged to, with its running totals.
type FoodDay struct {
	Date    string     `json:"date" validate:"required"`
	Summary DaySummary `json:"summary"`
}

// DaySummary holds the nutrition totals of a day.
type DaySummary struct {
	Calories float64 `json:"calories"`
	Carbs    float64 `json:"carbs"`
	Fat      float64 `json:"fat"`
	Fiber    float64 `json:"fiber"`
	Protein  float64 `json:"protein"`
	Sodium   float64 `json:"sodium"`
	Water    float64 `json:"water"`
}

// FoodLog is the created log entry.
type FoodLog struct {
	IsFavorite        bool              `json:"isFavorite"`
	LogDate           string            `json:"logDate" validate:"required"`
	LogID             int64             `json:"logId" validate:"required"`
	LoggedFood        LoggedFood        `json:"loggedFood"`
	NutritionalValues NutritionalValues `json:"nutritionalValues"`
}

// LoggedFood describes the food that was logged.
type LoggedFood struct {
	AccessLevel string          `json:"accessLevel" validate:"oneof=PRIVATE PUBLIC"`
	Amount      float64         `json:"amount"`
	Brand       string          `json:"brand"`
	Calories    float64         `json:"calories"`
	FoodID      int64           `json:"foodId"`
	MealTypeID  int             `json:"mealTypeId"`
	Name        string          `json:"name" validate:"required"`
	Unit        json.RawMessage `json:"unit,omitempty"`
	Units       json.RawMessage `json:"units,omitempty"`
}

// NutritionalValues are the nutrients of a single log entry.
type NutritionalValues struct {
	Calories float64 `json:"calories"`
	Carbs    float64 `json:"carbs"`
	Fat      float64 `json:"fat"`
	Fiber    float64 `json:"fiber"`
	Protein  float64 `json:"protein"`
	Sodium   float64 `json:"sodium"`
}

// FoodSearchResult is the response of the food search call.
type FoodSearchResult struct {
	Foods []Food `json:"foods"`
}

// Food is a food from the Fitbit database.
type Food struct {
	AccessLevel    string  `json:"accessLevel"`
	Brand          string  `json:"brand"`
	Calories       float64 `json:"calories"`
	DefaultServing float64 `json:"defaultServingSize"`
	DefaultUnit    Unit    `json:"defaultUnit"`
	FoodID         int64   `json:"foodId"`
	Name           string  `json:"name"`
	Units          []int   `json:"units"`
}

// Unit is a measurement unit known to Fitbit.
type Unit struct {
	ID     int    `json:"id"`
	Name   string `json:"name"`
	Plural string `json:"plural"`
}

// APIError is a non-success response from the Fitbit Web API.
type APIError struct {
	StatusCode int
	Op         string
	Errors     []APIErrorDetail
}

// APIErrorDetail is one entry of Fitbit's "errors" array.
type APIErrorDetail struct {
	ErrorType string `json:"errorType"`
	FieldName string `json:"fieldName"`
	Message   string `json:"message"`
}
