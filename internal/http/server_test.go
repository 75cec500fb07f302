package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/barthos4/ma-caisse/internal/core"
	"github.com/barthos4/ma-caisse/internal/services"
	"github.com/barthos4/ma-caisse/internal/store/memory"
)

func newTestServer(t *testing.T) (*Server, *memory.Store) {
	t.Helper()
	repo := memory.New()
	hub := core.NewHub()
	s := NewServer(":0", Deps{
		Transactions:   services.NewTransactionService(repo, nil, hub),
		Categories:     services.NewCategoryService(repo, hub),
		Budgets:        services.NewBudgetService(repo, hub),
		Settings:       services.NewSettingsService(repo, hub),
		Reports:        services.NewReportService(repo),
		Hub:            hub,
		DefaultOwnerID: "default",
	})
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = s.Shutdown(ctx)
		repo.Close()
	})
	return s, repo
}

func postForm(s *Server, path string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	s.Server.Handler.ServeHTTP(rec, req)
	return rec
}

func get(s *Server, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	s.Server.Handler.ServeHTTP(rec, req)
	return rec
}

func TestHealthEndpoints(t *testing.T) {
	s, _ := newTestServer(t)
	require.Equal(t, http.StatusOK, get(s, "/healthz").Code)
	require.Equal(t, http.StatusOK, get(s, "/readyz").Code)
}

func TestCreateTransaction(t *testing.T) {
	s, repo := newTestServer(t)

	rec := postForm(s, "/transactions", url.Values{
		"date":        {"2025-03-05"},
		"description": {"vente comptoir"},
		"amount":      {"1500"},
		"kind":        {"income"},
	})
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Header().Get("HX-Trigger"), "transactions:changed")

	txs, err := repo.ListTransactions(context.Background(), "default", time.Time{}, time.Time{})
	require.NoError(t, err)
	require.Len(t, txs, 1)
	require.Equal(t, int64(1500_00), txs[0].Amount.Cents)
}

func TestCreateTransactionRejectsBadAmount(t *testing.T) {
	s, _ := newTestServer(t)

	for _, amount := range []string{"", "abc", "-5", "0"} {
		rec := postForm(s, "/transactions", url.Values{
			"date":        {"2025-03-05"},
			"description": {"vente"},
			"amount":      {amount},
			"kind":        {"income"},
		})
		require.Equal(t, http.StatusUnprocessableEntity, rec.Code, "amount=%q", amount)
	}
}

func TestDeleteCategoryInUse(t *testing.T) {
	s, repo := newTestServer(t)
	ctx := context.Background()

	cat, err := repo.CreateCategory(ctx, core.Category{OwnerID: "default", Name: "Ventes", Kind: core.KindIncome})
	require.NoError(t, err)
	_, err = repo.CreateTransaction(ctx, core.Transaction{
		OwnerID: "default", Date: core.MonthStart(time.Now()), Description: "vente",
		Amount: core.Money{Cents: 100}, Kind: core.KindIncome, CategoryID: cat.ID,
	})
	require.NoError(t, err)

	rec := postForm(s, "/categories/delete", url.Values{"id": {cat.ID}})
	require.Equal(t, http.StatusConflict, rec.Code)
	require.Contains(t, rec.Header().Get("HX-Trigger"), "show-notification")

	// Both rows must be untouched.
	cats, err := repo.ListCategories(ctx, "default")
	require.NoError(t, err)
	require.Len(t, cats, 1)
}

func TestReportPartial(t *testing.T) {
	s, repo := newTestServer(t)
	ctx := context.Background()

	cat, err := repo.CreateCategory(ctx, core.Category{OwnerID: "default", Name: "Salaire", Kind: core.KindIncome})
	require.NoError(t, err)
	_, err = repo.CreateTransaction(ctx, core.Transaction{
		OwnerID: "default", Date: core.MonthStart(time.Now()), Description: "salaire",
		Amount: core.Money{Cents: 2000_00}, Kind: core.KindIncome, CategoryID: cat.ID,
	})
	require.NoError(t, err)

	rec := get(s, "/ui/report?preset=this_month")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	require.Contains(t, body, "Salaire")
	require.Contains(t, body, "RECETTES")
	require.Contains(t, body, core.Money{Cents: 2000_00}.Format())
}

func TestReportPartialWithPendingOverlay(t *testing.T) {
	s, repo := newTestServer(t)
	ctx := context.Background()

	cat, err := repo.CreateCategory(ctx, core.Category{OwnerID: "default", Name: "Salaire", Kind: core.KindIncome})
	require.NoError(t, err)

	rec := get(s, "/ui/report?preset=this_month&pending_income_"+cat.ID+"=1800")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), core.Money{Cents: 1800_00}.Format())
}

func TestPrintViewRequiresSettings(t *testing.T) {
	s, repo := newTestServer(t)

	rec := get(s, "/print?preset=this_month")
	require.Equal(t, http.StatusPreconditionFailed, rec.Code)
	require.Contains(t, rec.Header().Get("HX-Trigger"), "show-notification")

	_, err := repo.UpsertSettings(context.Background(), core.Settings{
		OwnerID: "default", CompanyName: "Ets Test",
	})
	require.NoError(t, err)

	rec = get(s, "/print?preset=this_month")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "Ets Test")
}

func TestEditBudget(t *testing.T) {
	s, repo := newTestServer(t)
	ctx := context.Background()

	cat, err := repo.CreateCategory(ctx, core.Category{OwnerID: "default", Name: "Loyer", Kind: core.KindExpense})
	require.NoError(t, err)

	form := url.Values{
		"category_id": {cat.ID},
		"kind":        {"expense"},
		"month":       {"2025-03"},
	}
	form.Set("pending_expense_"+cat.ID, "1000")
	rec := postForm(s, "/budgets/edit", form)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Header().Get("HX-Trigger"), "budget:saved")

	budgets, err := repo.ListBudgets(ctx, "default", time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, budgets, 1)
	require.Equal(t, int64(1000_00), budgets[0].Planned.Cents)
}

func TestEditBudgetRejectsNegative(t *testing.T) {
	s, _ := newTestServer(t)

	form := url.Values{
		"category_id": {"cat-1"},
		"kind":        {"expense"},
	}
	form.Set("pending_expense_cat-1", "-10")
	rec := postForm(s, "/budgets/edit", form)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

// The rendered edit field must hold a value that posts back to the same
// plan: a user touching one digit must never see the rest coerced away.
func TestPlannedInputRoundTrips(t *testing.T) {
	s, repo := newTestServer(t)
	ctx := context.Background()

	cat, err := repo.CreateCategory(ctx, core.Category{OwnerID: "default", Name: "Salaire", Kind: core.KindIncome})
	require.NoError(t, err)
	month := core.MonthStart(time.Now())
	_, err = repo.UpsertBudget(ctx, core.BudgetEntry{
		OwnerID: "default", CategoryID: cat.ID, Month: month,
		Planned: core.Money{Cents: 1800_00}, Kind: core.KindIncome,
	})
	require.NoError(t, err)

	rec := get(s, "/ui/report?preset=this_month")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	require.Contains(t, body, `name="pending_income_`+cat.ID+`"`)
	require.Contains(t, body, `value="1800"`, "edit field must carry the plain decimal, not the display string")

	// Edit one digit of the rendered value and post it back on blur.
	form := url.Values{
		"category_id": {cat.ID},
		"kind":        {"income"},
		"month":       {month.Format("2006-01")},
	}
	form.Set("pending_income_"+cat.ID, "2800")
	rec = postForm(s, "/budgets/edit", form)
	require.Equal(t, http.StatusOK, rec.Code)

	budgets, err := repo.ListBudgets(ctx, "default", month)
	require.NoError(t, err)
	require.Len(t, budgets, 1)
	require.Equal(t, int64(2800_00), budgets[0].Planned.Cents)
}

// A client posting the formatted display value itself must still land on
// the amount, not on a zero plan.
func TestEditBudgetAcceptsFormattedValue(t *testing.T) {
	s, repo := newTestServer(t)
	ctx := context.Background()

	cat, err := repo.CreateCategory(ctx, core.Category{OwnerID: "default", Name: "Loyer", Kind: core.KindExpense})
	require.NoError(t, err)

	form := url.Values{
		"category_id": {cat.ID},
		"kind":        {"expense"},
		"month":       {"2025-03"},
	}
	form.Set("pending_expense_"+cat.ID, core.Money{Cents: 1800_00}.Format())
	rec := postForm(s, "/budgets/edit", form)
	require.Equal(t, http.StatusOK, rec.Code)

	budgets, err := repo.ListBudgets(ctx, "default", time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, budgets, 1)
	require.Equal(t, int64(1800_00), budgets[0].Planned.Cents)
}

// The index page must refresh the report with the pending inputs included,
// so percentage and variance recompute between a change and the blur save.
func TestIndexWiresPlannedInputsIntoReportRefresh(t *testing.T) {
	s, _ := newTestServer(t)

	rec := get(s, "/")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	require.Contains(t, body, `hx-include=".planned-input"`)
	require.Contains(t, body, `from:.planned-input`)
}

func TestJournalCSVDownload(t *testing.T) {
	s, repo := newTestServer(t)

	_, err := repo.CreateTransaction(context.Background(), core.Transaction{
		OwnerID: "default", Date: core.MonthStart(time.Now()), Description: "vente",
		Amount: core.Money{Cents: 100}, Kind: core.KindIncome,
	})
	require.NoError(t, err)

	rec := get(s, "/download/journal.csv?preset=this_month")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Header().Get("Content-Disposition"), "journal_de_caisse_")
	require.True(t, strings.HasPrefix(rec.Body.String(), "\xEF\xBB\xBF"), "missing BOM")
	require.Contains(t, rec.Body.String(), "vente")
}

func TestReportDownloadsRequireSettings(t *testing.T) {
	s, repo := newTestServer(t)

	for _, path := range []string{"/download/report.pdf", "/download/report.xlsx", "/download/journal.pdf"} {
		rec := get(s, path+"?preset=this_month")
		require.Equal(t, http.StatusPreconditionFailed, rec.Code, "path=%s", path)
		require.Empty(t, rec.Header().Get("Content-Disposition"), "no partial file for %s", path)
	}

	_, err := repo.UpsertSettings(context.Background(), core.Settings{OwnerID: "default", CompanyName: "Ets Test"})
	require.NoError(t, err)

	rec := get(s, "/download/report.pdf?preset=this_month")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Header().Get("Content-Type"), "application/pdf")
	require.Contains(t, rec.Header().Get("Content-Disposition"), "etat_de_caisse_")
}

// Cached figures may be minutes old; the generation stamp on an export must
// not be, since the filename and the "Généré le" line derive from it.
func TestCachedStatementRestampsGeneratedAt(t *testing.T) {
	s, _ := newTestServer(t)
	period, err := core.ResolvePreset("this_month", time.Now())
	require.NoError(t, err)

	first, err := s.cachedStatement(context.Background(), "default", period)
	require.NoError(t, err)

	time.Sleep(5 * time.Millisecond)
	second, err := s.cachedStatement(context.Background(), "default", period)
	require.NoError(t, err)
	require.True(t, second.GeneratedAt.After(first.GeneratedAt),
		"cache hit must carry a fresh generation stamp")
}

func TestSettingsSaveInvalidatesCache(t *testing.T) {
	s, _ := newTestServer(t)

	rec := postForm(s, "/settings", url.Values{
		"company_name": {"Ets Mballa"},
		"rccm":         {"RC/DLA/2020/B/123"},
	})
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Header().Get("HX-Trigger"), "settings:saved")

	rec = get(s, "/print?preset=this_month")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "Ets Mballa")
}

func TestOwnerHeaderScopesData(t *testing.T) {
	s, repo := newTestServer(t)

	_, err := repo.CreateTransaction(context.Background(), core.Transaction{
		OwnerID: "someone-else", Date: core.MonthStart(time.Now()), Description: "secret",
		Amount: core.Money{Cents: 100}, Kind: core.KindIncome,
	})
	require.NoError(t, err)

	rec := get(s, "/ui/transactions?preset=this_month")
	require.NotContains(t, rec.Body.String(), "secret")

	req := httptest.NewRequest(http.MethodGet, "/ui/transactions?preset=this_month", nil)
	req.Header.Set("X-Owner-ID", "someone-else")
	rec2 := httptest.NewRecorder()
	s.Server.Handler.ServeHTTP(rec2, req)
	require.Contains(t, rec2.Body.String(), "secret")
}
