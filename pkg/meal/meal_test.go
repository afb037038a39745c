package meal

import (
	"testing"
	"time"
)

func TestClassify_Boundaries(t *testing.T) {
	tests := []struct {
		at   string
		want Type
	}{
		{"00:00", Anytime},
		{"04:59", Anytime},
		{"05:00", Breakfast},
		{"09:59", Breakfast},
		{"10:00", MorningSnack},
		{"11:29", MorningSnack},
		{"11:30", Lunch},
		{"13:59", Lunch},
		{"14:00", AfternoonSnack},
		{"16:29", AfternoonSnack},
		{"16:30", Dinner},
		{"20:59", Dinner},
		{"21:00", Anytime},
		{"23:59", Anytime},
	}

	for _, tc := range tests {
		t.Run(tc.at, func(t *testing.T) {
			if got := Classify(tc.at); got != tc.want {
				t.Errorf("Classify(%q) = %v, want %v", tc.at, got, tc.want)
			}
		})
	}
}

func TestClassifyTime_UsesLocation(t *testing.T) {
	berlin, err := time.LoadLocation("Europe/Berlin")
	if err != nil {
		t.Skipf("tzdata not available: %v", err)
	}

	// 07:30 UTC is 09:30 in Berlin during summer time.
	ts := time.Date(2024, time.July, 1, 7, 30, 0, 0, time.UTC)

	if got := ClassifyTime(ts); got != Breakfast {
		t.Errorf("ClassifyTime(UTC) = %v, want %v", got, Breakfast)
	}
	if got := ClassifyTime(ts.In(berlin)); got != Breakfast {
		t.Errorf("ClassifyTime(Berlin) = %v, want %v", got, Breakfast)
	}

	// 08:15 UTC is 10:15 in Berlin.
	ts = time.Date(2024, time.July, 1, 8, 15, 0, 0, time.UTC)
	if got := ClassifyTime(ts.In(berlin)); got != MorningSnack {
		t.Errorf("ClassifyTime(Berlin) = %v, want %v", got, MorningSnack)
	}
}

func TestParseType(t *testing.T) {
	tests := []struct {
		in      string
		want    Type
		wantErr bool
	}{
		{"1", Breakfast, false},
		{"2", MorningSnack, false},
		{"5", Dinner, false},
		{"7", Anytime, false},
		{"6", 0, true},
		{"0", 0, true},
		{"lunch", 0, true},
		{"", 0, true},
	}

	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			got, err := ParseType(tc.in)
			if (err != nil) != tc.wantErr {
				t.Fatalf("ParseType(%q) error = %v, wantErr %v", tc.in, err, tc.wantErr)
			}
			if got != tc.want {
				t.Errorf("ParseType(%q) = %v, want %v", tc.in, got, tc.want)
			}
		})
	}
}

func TestType_String(t *testing.T) {
	if got := AfternoonSnack.String(); got != "Afternoon Snack" {
		t.Errorf("String() = %q", got)
	}
	if got := Type(9).String(); got != "Unknown(9)" {
		t.Errorf("String() = %q", got)
	}
}
