package qualification

import (
	"errors"
	"testing"
	"time"
)

func TestParseFrequencyAndTolerance(t *testing.T) {
	f, err := ParseFrequency("")
	if err != nil || f != FrequencyAnnual {
		t.Fatalf("ParseFrequency(\"\") = %q, %v", f, err)
	}
	if f, _ := ParseFrequency("Every 5 Years"); f.Months() != 60 {
		t.Fatalf("Months() = %d", f.Months())
	}
	if _, err := ParseFrequency("Monthly"); !errors.Is(err, ErrInvalidFrequency) {
		t.Fatalf("ParseFrequency() error = %v", err)
	}

	if got, _ := ParseTolerance(0); got != 1 {
		t.Fatalf("ParseTolerance(0) = %d", got)
	}
	if _, err := ParseTolerance(4); !errors.Is(err, ErrInvalidTolerance) {
		t.Fatalf("ParseTolerance(4) error = %v", err)
	}
}

func TestParseDate(t *testing.T) {
	if got, err := ParseDate(""); err != nil || got != "" {
		t.Fatalf("ParseDate(\"\") = %q, %v", got, err)
	}
	if got, err := ParseDate(" 2025-03-01 "); err != nil || got != "2025-03-01" {
		t.Fatalf("ParseDate() = %q, %v", got, err)
	}
	if _, err := ParseDate("03/01/2025"); !errors.Is(err, ErrInvalidDate) {
		t.Fatalf("ParseDate() error = %v", err)
	}
}

func TestRequalificationStanding(t *testing.T) {
	due := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)

	cases := []struct {
		now  time.Time
		want Status
	}{
		{time.Date(2025, 5, 14, 23, 0, 0, 0, time.UTC), StatusQualified},
		{time.Date(2025, 5, 15, 8, 0, 0, 0, time.UTC), StatusRequalificationDue},
		{time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC), StatusRequalificationDue},
		{time.Date(2025, 7, 15, 12, 0, 0, 0, time.UTC), StatusRequalificationDue},
		{time.Date(2025, 7, 16, 0, 0, 0, 0, time.UTC), StatusOverdue},
	}
	for _, tc := range cases {
		if got := RequalificationStanding(due, 1, tc.now); got != tc.want {
			t.Fatalf("RequalificationStanding(now=%s) = %q, want %q", tc.now.Format(time.RFC3339), got, tc.want)
		}
	}

	if got := RequalificationStanding(time.Time{}, 1, time.Now()); got != StatusQualified {
		t.Fatalf("RequalificationStanding(zero) = %q", got)
	}
}

func TestNextDueDate(t *testing.T) {
	from := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	if got := NextDueDate(from, FrequencyEvery2Years); !got.Equal(time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("NextDueDate() = %s", got)
	}
	if !SweepApplies(StatusOverdue) || SweepApplies(StatusUnderMaintenance) {
		t.Fatalf("SweepApplies() mismatch")
	}
}
