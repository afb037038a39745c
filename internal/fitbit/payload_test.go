package fitbit

import (
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fitbridge/pkg/meal"
)

var noon = time.Date(2024, time.March, 10, 12, 0, 0, 0, time.UTC)

func query(pairs ...string) url.Values {
	v := url.Values{}
	for i := 0; i+1 < len(pairs); i += 2 {
		v.Set(pairs[i], pairs[i+1])
	}
	return v
}

func TestParseFoodLogPayload_Minimal(t *testing.T) {
	p, err := ParseFoodLogPayload(query("foodName", "Apple", "amount", "1", "calories", "95"), noon)
	require.NoError(t, err)

	assert.Equal(t, "Apple", p.FoodName)
	assert.Equal(t, 1.0, p.Amount)
	require.NotNil(t, p.Calories)
	assert.Equal(t, 95.0, *p.Calories)
	assert.Nil(t, p.Protein)
	assert.Equal(t, meal.Lunch, p.MealTypeID)
	assert.False(t, p.MealTypeExplicit)
	assert.Equal(t, "2024-03-10", p.Date)
	assert.Equal(t, time.UTC, p.Location)
}

func TestParseFoodLogPayload_MealTypeDerivation(t *testing.T) {
	tests := []struct {
		name     string
		now      time.Time
		params   []string
		wantMeal meal.Type
		wantDate string
	}{
		{
			name:     "explicit meal type wins over timestamp",
			now:      noon,
			params:   []string{"mealTypeId", "5", "timestamp", "08:00"},
			wantMeal: meal.Dinner,
			wantDate: "2024-03-10",
		},
		{
			name:     "local timestamp in timezone",
			now:      noon,
			params:   []string{"timestamp", "2024-03-10T07:30", "timezone", "Europe/Berlin"},
			wantMeal: meal.Breakfast,
			wantDate: "2024-03-10",
		},
		{
			name:     "offset timestamp converted to timezone",
			now:      noon,
			params:   []string{"timestamp", "2024-03-10T22:30:00Z", "timezone", "Europe/Berlin"},
			wantMeal: meal.Anytime,
			wantDate: "2024-03-10",
		},
		{
			name:     "bare time uses today in timezone",
			now:      noon,
			params:   []string{"timestamp", "15:00"},
			wantMeal: meal.AfternoonSnack,
			wantDate: "2024-03-10",
		},
		{
			name:     "current time in timezone can be the previous day",
			now:      time.Date(2024, time.March, 10, 5, 0, 0, 0, time.UTC),
			params:   []string{"timezone", "America/Los_Angeles"},
			wantMeal: meal.Anytime,
			wantDate: "2024-03-09",
		},
		{
			name:     "explicit date wins",
			now:      noon,
			params:   []string{"date", "2024-01-31", "timestamp", "10:15"},
			wantMeal: meal.MorningSnack,
			wantDate: "2024-01-31",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			params := append([]string{"foodName", "Oats", "amount", "2", "calories", "300"}, tc.params...)
			p, err := ParseFoodLogPayload(query(params...), tc.now)
			require.NoError(t, err)
			assert.Equal(t, tc.wantMeal, p.MealTypeID)
			assert.Equal(t, tc.wantDate, p.Date)
		})
	}
}

func TestParseFoodLogPayload_Invalid(t *testing.T) {
	_, err := ParseFoodLogPayload(query(
		"amount", "0",
		"calories", "-1",
		"protein", "abc",
		"mealTypeId", "6",
		"timezone", "Mars/Base",
		"date", "10.03.2024",
	), noon)

	require.Error(t, err)
	assert.True(t, IsValidation(err))

	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)

	msg := err.Error()
	for _, want := range []string{
		`protein: expected a number, got "abc"`,
		"mealTypeId: meal type 6",
		`timezone: unknown time zone "Mars/Base"`,
		"foodName: required",
		"amount: must be greater than 0",
		"calories: must be at least 0",
		"date: expected format YYYY-MM-DD",
	} {
		assert.Contains(t, msg, want)
	}
}

func TestParseFoodLogPayload_MissingCalories(t *testing.T) {
	_, err := ParseFoodLogPayload(query("foodName", "Apple", "amount", "1"), noon)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "calories: required")
}

func TestParseFoodLogPayload_UnparseableTimestamp(t *testing.T) {
	_, err := ParseFoodLogPayload(query("foodName", "Apple", "amount", "1", "calories", "1", "timestamp", "lunchtime"), noon)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "timestamp: unrecognized format")
}

func TestFoodLogPayload_Values(t *testing.T) {
	p, err := ParseFoodLogPayload(query(
		"foodName", "Greek Yogurt",
		"brandName", "Fage",
		"amount", "1.5",
		"calories", "150",
		"protein", "15",
		"mealTypeId", "1",
	), noon)
	require.NoError(t, err)

	v := p.Values()
	assert.Equal(t, "Greek Yogurt", v.Get("foodName"))
	assert.Equal(t, "Fage", v.Get("brandName"))
	assert.Equal(t, "1.5", v.Get("amount"))
	assert.Equal(t, "150", v.Get("calories"))
	assert.Equal(t, "15", v.Get("protein"))
	assert.Equal(t, "1", v.Get("mealTypeId"))
	assert.Equal(t, "304", v.Get("unitId"))
	assert.Equal(t, "2024-03-10", v.Get("date"))
	assert.False(t, v.Has("sodium"))
	assert.False(t, v.Has("totalFat"))
}
