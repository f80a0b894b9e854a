package dates

import (
	"testing"
	"time"
)

func TestParseAndString(t *testing.T) {
	d, err := Parse("2024-03-09")
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if d.Year != 2024 || d.Month != time.March || d.Day != 9 {
		t.Errorf("unexpected date: %+v", d)
	}
	if got := d.String(); got != "2024-03-09" {
		t.Errorf("expected 2024-03-09, got %q", got)
	}
}

func TestParseRejectsTimestampsAndGarbage(t *testing.T) {
	for _, s := range []string{"", "03/09/2024", "2024-3-9", "2024-03-09T00:00:00Z", "not-a-date"} {
		if _, err := Parse(s); err == nil {
			t.Errorf("expected error for %q", s)
		}
	}
}

func TestAddIntervalDayWeek(t *testing.T) {
	base := New(2024, time.March, 1)

	if got := AddInterval(base, 5, UnitDay); got.String() != "2024-03-06" {
		t.Errorf("day add: got %s", got)
	}
	if got := AddInterval(base, 2, UnitWeek); got.String() != "2024-03-15" {
		t.Errorf("week add: got %s", got)
	}
	if got := AddInterval(base, -1, UnitDay); got.String() != "2024-02-29" {
		t.Errorf("negative day add: got %s", got)
	}
}

func TestAddIntervalMonthClamps(t *testing.T) {
	tests := []struct {
		base   string
		months int
		want   string
	}{
		{"2024-01-31", 1, "2024-02-29"}, // leap year
		{"2023-01-31", 1, "2023-02-28"},
		{"2024-03-31", 1, "2024-04-30"},
		{"2024-01-31", 3, "2024-04-30"},
		{"2024-01-15", 1, "2024-02-15"}, // no clamp needed
		{"2024-12-31", 2, "2025-02-28"}, // year rollover
		{"2024-03-31", -1, "2024-02-29"},
	}

	for _, tt := range tests {
		base, err := Parse(tt.base)
		if err != nil {
			t.Fatalf("Parse(%q): %v", tt.base, err)
		}
		got := AddInterval(base, tt.months, UnitMonth)
		if got.String() != tt.want {
			t.Errorf("%s + %d months: expected %s, got %s", tt.base, tt.months, tt.want, got)
		}
	}
}

func TestAddIntervalMonthIsDeterministic(t *testing.T) {
	base := New(2024, time.January, 31)
	first := AddInterval(base, 1, UnitMonth)
	second := AddInterval(base, 1, UnitMonth)
	if first != second {
		t.Errorf("month add not deterministic: %s vs %s", first, second)
	}
}

func TestAddIntervalUnknownUnitPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for unknown unit")
		}
	}()
	AddInterval(New(2024, time.January, 1), 1, Unit("fortnight"))
}

func TestDaysBetween(t *testing.T) {
	a := New(2024, time.January, 31)
	b := AddInterval(a, 1, UnitMonth)
	if got := DaysBetween(a, b); got != 29 {
		t.Errorf("expected 29 days to 2024-02-29, got %d", got)
	}
	if got := DaysBetween(b, a); got != -29 {
		t.Errorf("expected -29 days, got %d", got)
	}
	if got := DaysBetween(a, a); got != 0 {
		t.Errorf("expected 0 days, got %d", got)
	}
}

func TestValidUnit(t *testing.T) {
	for _, s := range []string{"day", "week", "month"} {
		if !ValidUnit(s) {
			t.Errorf("expected %q to be valid", s)
		}
	}
	for _, s := range []string{"", "days", "year", "Month"} {
		if ValidUnit(s) {
			t.Errorf("expected %q to be invalid", s)
		}
	}
}
