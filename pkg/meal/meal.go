// Package meal maps a local time of day onto a Fitbit meal type.
//
// Fitbit groups food log entries by meal. When a caller does not say which
// meal an entry belongs to, the bridge derives it from the local time the
// food was eaten:
//
//	[05:00, 10:00) Breakfast
//	[10:00, 11:30) Morning Snack
//	[11:30, 14:00) Lunch
//	[14:00, 16:30) Afternoon Snack
//	[16:30, 21:00) Dinner
//	otherwise      Anytime
//
// Lower bounds are inclusive and upper bounds exclusive.
package meal

import (
	"fmt"
	"strconv"
	"time"
)

// Type is a Fitbit meal type id.
type Type int

const (
	Breakfast      Type = 1
	MorningSnack   Type = 2
	Lunch          Type = 3
	AfternoonSnack Type = 4
	Dinner         Type = 5
	Anytime        Type = 7
)

// window is a half-open interval of zero-padded "HH:MM" strings.
type window struct {
	from, to string
	meal     Type
}

// windows are evaluated in order, first match wins.
var windows = []window{
	{"05:00", "10:00", Breakfast},
	{"10:00", "11:30", MorningSnack},
	{"11:30", "14:00", Lunch},
	{"14:00", "16:30", AfternoonSnack},
	{"16:30", "21:00", Dinner},
}

var names = map[Type]string{
	Breakfast:      "Breakfast",
	MorningSnack:   "Morning Snack",
	Lunch:          "Lunch",
	AfternoonSnack: "Afternoon Snack",
	Dinner:         "Dinner",
	Anytime:        "Anytime",
}

// Classify returns the meal type for a zero-padded 24 hour "HH:MM" string.
// String comparison on that format orders the same way as time of day.
func Classify(localTime string) Type {
	for _, w := range windows {
		if localTime >= w.from && localTime < w.to {
			return w.meal
		}
	}
	return Anytime
}

// ClassifyTime classifies the wall clock time of t in t's own location.
func ClassifyTime(t time.Time) Type {
	return Classify(t.Format("15:04"))
}

// String returns the display name Fitbit uses for the meal type.
func (t Type) String() string {
	if name, ok := names[t]; ok {
		return name
	}
	return fmt.Sprintf("Unknown(%d)", int(t))
}

// Valid reports whether t is one of the meal types Fitbit accepts.
func (t Type) Valid() bool {
	_, ok := names[t]
	return ok
}

// ParseType parses an explicit meal type id such as "3".
func ParseType(s string) (Type, error) {
	id, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("meal type %q is not a number", s)
	}
	t := Type(id)
	if !t.Valid() {
		return 0, fmt.Errorf("meal type %d is not one of 1, 2, 3, 4, 5, 7", id)
	}
	return t, nil
}
