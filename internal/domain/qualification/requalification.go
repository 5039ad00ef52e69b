package qualification

import (
	"fmt"
	"strings"
	"time"
)

const DateLayout = "2006-01-02"

type Frequency string

const (
	FrequencyAnnual      Frequency = "Annual"
	FrequencyEvery2Years Frequency = "Every 2 Years"
	FrequencyEvery5Years Frequency = "Every 5 Years"
)

func ParseFrequency(raw string) (Frequency, error) {
	if strings.TrimSpace(raw) == "" {
		return FrequencyAnnual, nil
	}
	return parseEnum(raw, ErrInvalidFrequency, FrequencyAnnual, FrequencyEvery2Years, FrequencyEvery5Years)
}

func (f Frequency) Months() int {
	switch f {
	case FrequencyEvery2Years:
		return 24
	case FrequencyEvery5Years:
		return 60
	default:
		return 12
	}
}

// ParseTolerance accepts 1..3 months; 0 means the default of one month.
func ParseTolerance(months int) (int, error) {
	if months == 0 {
		return 1, nil
	}
	if months < 1 || months > 3 {
		return 0, fmt.Errorf("%w: %d", ErrInvalidTolerance, months)
	}
	return months, nil
}

// ParseDate normalizes an optional YYYY-MM-DD date. Empty input stays empty.
func ParseDate(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", nil
	}
	t, err := time.Parse(DateLayout, trimmed)
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidDate, raw)
	}
	return t.Format(DateLayout), nil
}

// NextDueDate is one frequency period after from.
func NextDueDate(from time.Time, f Frequency) time.Time {
	return from.AddDate(0, f.Months(), 0)
}

// SweepApplies reports whether the requalification sweep may move an equipment out of s.
// Pipeline and breakdown statuses always take priority over the calendar.
func SweepApplies(s Status) bool {
	return s == StatusQualified || s == StatusRequalificationDue || s == StatusOverdue
}

// RequalificationStanding compares the due date against now at day granularity:
// past due+tolerance is Overdue, inside due-tolerance is Requalification Due.
// A zero due date means nothing is scheduled.
func RequalificationStanding(due time.Time, toleranceMonths int, now time.Time) Status {
	if due.IsZero() {
		return StatusQualified
	}
	if toleranceMonths < 1 {
		toleranceMonths = 1
	}
	day := truncateDay(now)
	due = truncateDay(due)

	switch {
	case day.After(due.AddDate(0, toleranceMonths, 0)):
		return StatusOverdue
	case !day.Before(due.AddDate(0, -toleranceMonths, 0)):
		return StatusRequalificationDue
	default:
		return StatusQualified
	}
}

func truncateDay(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}
