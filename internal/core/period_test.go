package core

import (
	"testing"
	"time"
)

func TestResolvePreset(t *testing.T) {
	// Wednesday 2025-03-12.
	now := time.Date(2025, 3, 12, 15, 30, 0, 0, time.UTC)

	cases := []struct {
		preset   PeriodPreset
		from, to time.Time
	}{
		{PresetToday, date(2025, 3, 12), date(2025, 3, 12)},
		{PresetThisWeek, date(2025, 3, 10), date(2025, 3, 16)}, // Monday through Sunday
		{PresetThisMonth, date(2025, 3, 1), date(2025, 3, 31)},
		{PresetLastMonth, date(2025, 2, 1), date(2025, 2, 28)},
	}
	for _, tc := range cases {
		p, err := ResolvePreset(tc.preset, now)
		if err != nil {
			t.Fatalf("%s: %v", tc.preset, err)
		}
		if !p.From.Equal(tc.from) || !p.To.Equal(tc.to) {
			t.Fatalf("%s: got [%v, %v] want [%v, %v]", tc.preset, p.From, p.To, tc.from, tc.to)
		}
	}

	if _, err := ResolvePreset("quarter", now); err == nil {
		t.Fatal("expected error for unknown preset")
	}
}

func TestPeriodContainsInclusiveDayBoundaries(t *testing.T) {
	p, err := NewPeriod(date(2025, 3, 10), date(2025, 3, 12))
	if err != nil {
		t.Fatal(err)
	}

	cases := []struct {
		t    time.Time
		want bool
	}{
		{time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC), true},
		{time.Date(2025, 3, 12, 23, 59, 59, 0, time.UTC), true}, // end of last day
		{time.Date(2025, 3, 9, 23, 59, 59, 0, time.UTC), false},
		{time.Date(2025, 3, 13, 0, 0, 0, 0, time.UTC), false},
	}
	for i, tc := range cases {
		if got := p.Contains(tc.t); got != tc.want {
			t.Fatalf("case %d: Contains(%v) = %v", i, tc.t, got)
		}
	}
}

func TestNewPeriodRejectsReversedBounds(t *testing.T) {
	if _, err := NewPeriod(date(2025, 3, 12), date(2025, 3, 10)); err == nil {
		t.Fatal("expected error for reversed bounds")
	}
}

func TestBudgetMonthUsesRangeStart(t *testing.T) {
	// Interval spanning two months reconciles against the first only.
	p, _ := NewPeriod(date(2025, 3, 25), date(2025, 4, 5))
	if got := p.BudgetMonth(); !got.Equal(date(2025, 3, 1)) {
		t.Fatalf("budget month = %v, want 2025-03-01", got)
	}
}

func TestPeriodFilter(t *testing.T) {
	p, _ := NewPeriod(date(2025, 3, 1), date(2025, 3, 31))
	txs := []Transaction{
		{ID: "in", Date: date(2025, 3, 15)},
		{ID: "out", Date: date(2025, 4, 1)},
	}
	got := p.Filter(txs)
	if len(got) != 1 || got[0].ID != "in" {
		t.Fatalf("filter wrong: %+v", got)
	}
}
