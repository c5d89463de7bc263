package core

import (
	"errors"
	"testing"
	"time"
)

func TestParseMonth(t *testing.T) {
	cases := []struct {
		in         string
		start, end time.Time
		ok         bool
	}{
		{"2024-02", time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), true},
		{"2024-12", time.Date(2024, 12, 1, 0, 0, 0, 0, time.UTC), time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), true},
		{" 2023-01 ", time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC), time.Date(2023, 2, 1, 0, 0, 0, 0, time.UTC), true},
		{"2024-13", time.Time{}, time.Time{}, false},
		{"2024-00", time.Time{}, time.Time{}, false},
		{"2024-2", time.Time{}, time.Time{}, false},
		{"abc", time.Time{}, time.Time{}, false},
		{"2024/02", time.Time{}, time.Time{}, false},
		{"", time.Time{}, time.Time{}, false},
	}
	for _, tc := range cases {
		m, err := ParseMonth(tc.in)
		if !tc.ok {
			if err == nil {
				t.Fatalf("%q expected error", tc.in)
			}
			var ve *ValidationError
			if !errors.As(err, &ve) || ve.Field != "month" {
				t.Fatalf("%q expected month validation error, got %v", tc.in, err)
			}
			continue
		}
		if err != nil {
			t.Fatalf("%q unexpected error: %v", tc.in, err)
		}
		if !m.Start.Equal(tc.start) || !m.End.Equal(tc.end) {
			t.Fatalf("%q got [%s, %s)", tc.in, m.Start, m.End)
		}
	}
}

func TestMonthContainsIsHalfOpen(t *testing.T) {
	m, err := ParseMonth("2024-02")
	if err != nil {
		t.Fatal(err)
	}
	dates := map[time.Time]bool{
		time.Date(2024, 1, 31, 23, 59, 59, 0, time.UTC): false,
		time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC):     true,
		time.Date(2024, 2, 29, 12, 0, 0, 0, time.UTC):   true,
		time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC):     false,
	}
	for d, want := range dates {
		if got := m.Contains(d); got != want {
			t.Fatalf("Contains(%s) = %v, want %v", d, got, want)
		}
	}
}

func TestParseOptionalMonthEmpty(t *testing.T) {
	m, err := ParseOptionalMonth("")
	if err != nil || m != nil {
		t.Fatalf("expected nil month, got %v (err=%v)", m, err)
	}
}
