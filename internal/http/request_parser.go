package http

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/barthos4/ma-caisse/internal/core"
)

const dateParam = "2006-01-02"

// parsePeriod resolves the report interval from request values: a named
// "preset", or a custom "from"/"to" pair. Nothing given falls back to the
// current month.
func parsePeriod(values url.Values, now time.Time) (core.Period, error) {
	preset := strings.TrimSpace(values.Get("preset"))
	from := strings.TrimSpace(values.Get("from"))
	to := strings.TrimSpace(values.Get("to"))

	if preset != "" {
		return core.ResolvePreset(core.PeriodPreset(preset), now)
	}
	if from == "" && to == "" {
		return core.ResolvePreset(core.PresetThisMonth, now)
	}

	fromDate, err := time.Parse(dateParam, from)
	if err != nil {
		return core.Period{}, fmt.Errorf("invalid 'from' date %q: %w", from, core.ErrInvalidDate)
	}
	toDate, err := time.Parse(dateParam, to)
	if err != nil {
		return core.Period{}, fmt.Errorf("invalid 'to' date %q: %w", to, core.ErrInvalidDate)
	}
	return core.NewPeriod(fromDate, toDate)
}

// parseTransactionForm builds a transaction from form values. Amount and
// date errors surface as validation failures; the service validates the
// rest.
func parseTransactionForm(form url.Values, ownerID string) (core.Transaction, error) {
	dateStr := strings.TrimSpace(form.Get("date"))
	date, err := time.Parse(dateParam, dateStr)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("invalid date %q: %w", dateStr, core.ErrInvalidDate)
	}

	cents, err := core.ParseDecimalToCents(form.Get("amount"))
	if err != nil {
		return core.Transaction{}, err
	}

	kind := core.Kind(strings.TrimSpace(form.Get("kind")))
	if err := kind.Validate(); err != nil {
		return core.Transaction{}, err
	}

	return core.Transaction{
		ID:          strings.TrimSpace(form.Get("id")),
		OwnerID:     ownerID,
		OrderNumber: sanitizeInput(form.Get("order_number")),
		Date:        date,
		Description: sanitizeInput(form.Get("description")),
		Reference:   sanitizeInput(form.Get("reference")),
		Amount:      core.Money{Cents: cents},
		Kind:        kind,
		CategoryID:  strings.TrimSpace(form.Get("category_id")),
	}, nil
}

// parseCategoryForm builds a category from form values.
func parseCategoryForm(form url.Values, ownerID string) (core.Category, error) {
	kind := core.Kind(strings.TrimSpace(form.Get("kind")))
	if err := kind.Validate(); err != nil {
		return core.Category{}, err
	}
	return core.Category{
		ID:      strings.TrimSpace(form.Get("id")),
		OwnerID: ownerID,
		Name:    sanitizeInput(form.Get("name")),
		Kind:    kind,
	}, nil
}

// parseBudgetMonth reads the "month" value ("2006-01"); empty means the
// current month.
func parseBudgetMonth(form url.Values, now time.Time) (time.Time, error) {
	v := strings.TrimSpace(form.Get("month"))
	if v == "" {
		return core.MonthStart(now), nil
	}
	month, err := time.Parse("2006-01", v)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid month %q: %w", v, core.ErrInvalidDate)
	}
	return month, nil
}

// sanitizeInput trims whitespace and strips control characters except tab,
// newline and carriage return.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}
