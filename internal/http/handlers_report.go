package http

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/barthos4/ma-caisse/internal/core"
)

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if s.templates == nil {
		slog.ErrorContext(r.Context(), "Templates not loaded", "url", r.URL.Path)
		http.Error(w, "templates not loaded", http.StatusInternalServerError)
		return
	}

	ownerID := s.ownerID(r)
	incomeCats, err := s.categories.ListByKind(r.Context(), ownerID, core.KindIncome)
	if err != nil {
		slog.ErrorContext(r.Context(), "Category list error", "error", err)
	}
	expenseCats, err := s.categories.ListByKind(r.Context(), ownerID, core.KindExpense)
	if err != nil {
		slog.ErrorContext(r.Context(), "Category list error", "error", err)
	}

	settings, err := s.cachedSettings(r.Context(), ownerID)
	settingsLoaded := err == nil

	data := struct {
		Today             string
		IncomeCategories  []core.Category
		ExpenseCategories []core.Category
		Settings          core.Settings
		SettingsLoaded    bool
	}{
		Today:             time.Now().Format(dateParam),
		IncomeCategories:  incomeCats,
		ExpenseCategories: expenseCats,
		Settings:          settings,
		SettingsLoaded:    settingsLoaded,
	}

	if err := s.templates.ExecuteTemplate(w, "index.html", data); err != nil {
		slog.ErrorContext(r.Context(), "Index template execution failed", "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// reportView is the template model for the statement partial and the print
// view.
type reportView struct {
	Statement core.Statement
	Settings  core.Settings
	From      string
	To        string
}

// handleReportPartial renders the statement table. Pending budget edits
// arrive as "pending_income_<id>" / "pending_expense_<id>" values and are
// reconciled without being persisted.
func (s *Server) handleReportPartial(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	period, err := parsePeriod(r.URL.Query(), time.Now())
	if err != nil {
		UnprocessableEntityError("Période invalide").Write(w)
		return
	}

	ownerID := s.ownerID(r)
	incomeOverlay := parseOverlay(r.URL.Query(), "pending_income_")
	expenseOverlay := parseOverlay(r.URL.Query(), "pending_expense_")

	var st core.Statement
	if len(incomeOverlay) == 0 && len(expenseOverlay) == 0 {
		st, err = s.cachedStatement(r.Context(), ownerID, period)
	} else {
		st, err = s.reports.BuildStatement(r.Context(), ownerID, period, incomeOverlay, expenseOverlay)
	}
	if err != nil {
		slog.ErrorContext(r.Context(), "Statement build error", "error", err)
		NewHTMXResponse().
			Status(http.StatusInternalServerError).
			TriggerErrorNotification("Échec du calcul de l'état de caisse").
			Write(w)
		return
	}

	settings, _ := s.cachedSettings(r.Context(), ownerID)
	s.renderReport(w, r, "report.html", st, settings)
}

// handlePrintView renders the full print-styled page. It refuses to render
// before settings exist, since the letterhead depends on them.
func (s *Server) handlePrintView(w http.ResponseWriter, r *http.Request) {
	period, err := parsePeriod(r.URL.Query(), time.Now())
	if err != nil {
		UnprocessableEntityError("Période invalide").Write(w)
		return
	}

	ownerID := s.ownerID(r)
	settings, err := s.cachedSettings(r.Context(), ownerID)
	if errors.Is(err, core.ErrSettingsNotLoaded) {
		NewHTMXResponse().
			Status(http.StatusPreconditionFailed).
			TriggerInfoNotification("Renseignez d'abord les paramètres de l'entreprise").
			Write(w)
		return
	}
	if err != nil {
		s.writeServiceError(w, r, err, "Échec du chargement des paramètres")
		return
	}

	st, err := s.cachedStatement(r.Context(), ownerID, period)
	if err != nil {
		slog.ErrorContext(r.Context(), "Statement build error", "error", err)
		InternalServerError("Échec du calcul de l'état de caisse").Write(w)
		return
	}

	s.renderReport(w, r, "print.html", st, settings)
}

func (s *Server) renderReport(w http.ResponseWriter, r *http.Request, name string, st core.Statement, settings core.Settings) {
	if s.templates == nil {
		http.Error(w, "templates not loaded", http.StatusInternalServerError)
		return
	}
	data := reportView{
		Statement: st,
		Settings:  settings,
		From:      st.Period.From.Format(dateParam),
		To:        st.Period.To.Format(dateParam),
	}
	if err := s.templates.ExecuteTemplate(w, name, data); err != nil {
		slog.ErrorContext(r.Context(), "Template execution error", "error", err, "template", name)
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// parseOverlay collects pending planned edits with the given key prefix.
// Non-numeric values coerce to zero, negatives are dropped, both matching
// the persistence rules.
func parseOverlay(values url.Values, prefix string) core.Overlay {
	var overlay core.Overlay
	for key, vals := range values {
		if !strings.HasPrefix(key, prefix) || len(vals) == 0 {
			continue
		}
		cents, err := core.ParsePlannedToCents(vals[0])
		if err != nil {
			continue
		}
		if overlay == nil {
			overlay = core.Overlay{}
		}
		overlay[strings.TrimPrefix(key, prefix)] = core.Money{Cents: cents}
	}
	return overlay
}

func (s *Server) handleTransactionsPartial(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	period, err := parsePeriod(r.URL.Query(), time.Now())
	if err != nil {
		UnprocessableEntityError("Période invalide").Write(w)
		return
	}

	entries, err := s.reports.TransactionLog(r.Context(), s.ownerID(r), period)
	if err != nil {
		slog.ErrorContext(r.Context(), "Transaction log error", "error", err)
		NewHTMXResponse().
			Status(http.StatusInternalServerError).
			TriggerErrorNotification("Échec du chargement du journal").
			Write(w)
		return
	}

	data := struct {
		Entries []core.LogEntry
		From    string
		To      string
	}{Entries: entries, From: period.From.Format(dateParam), To: period.To.Format(dateParam)}

	if err := s.templates.ExecuteTemplate(w, "transactions.html", data); err != nil {
		slog.ErrorContext(r.Context(), "Template execution error", "error", err, "template", "transactions.html")
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (s *Server) handleCategoriesPartial(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	categories, err := s.categories.List(r.Context(), s.ownerID(r))
	if err != nil {
		slog.ErrorContext(r.Context(), "Category list error", "error", err)
		NewHTMXResponse().
			Status(http.StatusInternalServerError).
			TriggerErrorNotification("Échec du chargement des catégories").
			Write(w)
		return
	}

	data := struct{ Categories []core.Category }{Categories: categories}
	if err := s.templates.ExecuteTemplate(w, "categories.html", data); err != nil {
		slog.ErrorContext(r.Context(), "Template execution error", "error", err, "template", "categories.html")
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
