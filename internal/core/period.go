package core

import (
	"errors"
	"time"
)

const (
	PresetToday     PeriodPreset = "today"
	PresetThisWeek  PeriodPreset = "this_week"
	PresetThisMonth PeriodPreset = "this_month"
	PresetLastMonth PeriodPreset = "last_month"
)

type (
	PeriodPreset string

	// Period is the inclusive [From, To] interval selecting which
	// transactions appear in the report. Budgets are always read for the
	// calendar month containing From, regardless of the interval's span.
	Period struct {
		From time.Time
		To   time.Time
	}
)

var ErrInvalidPeriod = errors.New("period end precedes period start")

// NewPeriod builds a custom interval. Both bounds are kept at day
// granularity; Contains applies the day-boundary semantics.
func NewPeriod(from, to time.Time) (Period, error) {
	from = dayStart(from)
	to = dayStart(to)
	if to.Before(from) {
		return Period{}, ErrInvalidPeriod
	}
	return Period{From: from, To: to}, nil
}

// ResolvePreset evaluates a named preset against the given clock. Weeks
// start on Monday, per the fr locale.
func ResolvePreset(p PeriodPreset, now time.Time) (Period, error) {
	switch p {
	case PresetToday:
		d := dayStart(now)
		return Period{From: d, To: d}, nil
	case PresetThisWeek:
		d := dayStart(now)
		offset := (int(d.Weekday()) + 6) % 7 // Monday = 0
		from := d.AddDate(0, 0, -offset)
		return Period{From: from, To: from.AddDate(0, 0, 6)}, nil
	case PresetThisMonth:
		from := MonthStart(now)
		return Period{From: from, To: from.AddDate(0, 1, -1)}, nil
	case PresetLastMonth:
		from := MonthStart(now).AddDate(0, -1, 0)
		return Period{From: from, To: from.AddDate(0, 1, -1)}, nil
	}
	return Period{}, errors.New("unknown period preset: " + string(p))
}

// Contains reports whether t falls inside the interval, inclusive of both
// day boundaries: startOfDay(From) <= t <= endOfDay(To).
func (p Period) Contains(t time.Time) bool {
	if t.Before(dayStart(p.From)) {
		return false
	}
	return t.Before(dayStart(p.To).AddDate(0, 0, 1))
}

// BudgetMonth returns the first day of the calendar month containing the
// interval start. A report spanning two months still reconciles against this
// single month.
func (p Period) BudgetMonth() time.Time {
	return MonthStart(p.From)
}

// Filter returns the transactions whose date falls inside the interval,
// preserving input order.
func (p Period) Filter(txs []Transaction) []Transaction {
	out := make([]Transaction, 0, len(txs))
	for _, tx := range txs {
		if p.Contains(tx.Date) {
			out = append(out, tx)
		}
	}
	return out
}

func dayStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
