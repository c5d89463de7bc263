package core

import (
	"strings"
	"time"
)

const monthLayout = "2006-01"

// Month is the half-open window [Start, End) covering one calendar month in UTC.
type Month struct {
	Start time.Time
	End   time.Time
}

// ParseMonth parses a "YYYY-MM" filter. Month numbers outside 1-12 and
// any other shape are rejected.
func ParseMonth(s string) (Month, error) {
	s = strings.TrimSpace(s)
	if len(s) != len(monthLayout) {
		return Month{}, NewValidationError("month", "must be in YYYY-MM format")
	}
	t, err := time.Parse(monthLayout, s)
	if err != nil {
		return Month{}, NewValidationError("month", "must be in YYYY-MM format")
	}
	start := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	return Month{Start: start, End: start.AddDate(0, 1, 0)}, nil
}

// ParseOptionalMonth returns nil for an empty filter.
func ParseOptionalMonth(s string) (*Month, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	m, err := ParseMonth(s)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// Contains reports whether t falls inside the window.
func (m Month) Contains(t time.Time) bool {
	return !t.Before(m.Start) && t.Before(m.End)
}

func (m Month) String() string {
	return m.Start.Format(monthLayout)
}
