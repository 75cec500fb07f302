package http

import (
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/barthos4/ma-caisse/internal/core"
)

var clock = time.Date(2025, 3, 12, 10, 0, 0, 0, time.UTC)

func TestParsePeriodPreset(t *testing.T) {
	p, err := parsePeriod(url.Values{"preset": {"last_month"}}, clock)
	require.NoError(t, err)
	require.Equal(t, time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC), p.From)
	require.Equal(t, time.Date(2025, 2, 28, 0, 0, 0, 0, time.UTC), p.To)
}

func TestParsePeriodCustomRange(t *testing.T) {
	p, err := parsePeriod(url.Values{"from": {"2025-01-15"}, "to": {"2025-02-10"}}, clock)
	require.NoError(t, err)
	require.Equal(t, 15, p.From.Day())
	require.Equal(t, time.February, p.To.Month())
}

func TestParsePeriodDefaultsToThisMonth(t *testing.T) {
	p, err := parsePeriod(url.Values{}, clock)
	require.NoError(t, err)
	require.Equal(t, time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC), p.From)
}

func TestParsePeriodRejectsGarbage(t *testing.T) {
	for _, values := range []url.Values{
		{"from": {"15/01/2025"}, "to": {"2025-02-10"}},
		{"from": {"2025-01-15"}, "to": {"nope"}},
		{"from": {"2025-03-10"}, "to": {"2025-03-01"}}, // reversed
		{"preset": {"next_year"}},
	} {
		_, err := parsePeriod(values, clock)
		require.Error(t, err, "values=%v", values)
	}
}

func TestParseTransactionForm(t *testing.T) {
	form := url.Values{
		"date":        {"2025-03-05"},
		"description": {"  vente comptoir\x00  "},
		"amount":      {"1234,56"},
		"kind":        {"income"},
		"category_id": {"cat-1"},
	}
	tx, err := parseTransactionForm(form, "owner-1")
	require.NoError(t, err)
	require.Equal(t, "owner-1", tx.OwnerID)
	require.Equal(t, "vente comptoir", tx.Description, "control chars and padding stripped")
	require.Equal(t, int64(123456), tx.Amount.Cents)
	require.Equal(t, core.KindIncome, tx.Kind)
}

func TestParseTransactionFormBadKind(t *testing.T) {
	form := url.Values{
		"date":        {"2025-03-05"},
		"description": {"vente"},
		"amount":      {"10"},
		"kind":        {"transfer"},
	}
	_, err := parseTransactionForm(form, "owner-1")
	require.ErrorIs(t, err, core.ErrInvalidKind)
}

func TestParseBudgetMonth(t *testing.T) {
	month, err := parseBudgetMonth(url.Values{"month": {"2025-01"}}, clock)
	require.NoError(t, err)
	require.Equal(t, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), month)

	month, err = parseBudgetMonth(url.Values{}, clock)
	require.NoError(t, err)
	require.Equal(t, time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC), month)
}

func TestParseOverlay(t *testing.T) {
	values := url.Values{
		"pending_income_cat-1": {"1800"},
		"pending_income_cat-2": {"abc"}, // coerces to zero
		"pending_income_cat-3": {"-5"},  // dropped
		"preset":               {"this_month"},
	}
	overlay := parseOverlay(values, "pending_income_")
	require.Len(t, overlay, 2)
	require.Equal(t, int64(1800_00), overlay["cat-1"].Cents)
	require.Equal(t, int64(0), overlay["cat-2"].Cents)
	require.NotContains(t, overlay, "cat-3")
}
