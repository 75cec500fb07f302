// Package services orchestrates the domain operations across the repository,
// the change hub and the mirror queue.
package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/barthos4/ma-caisse/internal/core"
	"github.com/barthos4/ma-caisse/internal/store"
)

// ReportService assembles the "État de Caisse" statement from current
// repository state. Statements are derived on every call and never stored.
type ReportService struct {
	repo store.Repository
}

func NewReportService(repo store.Repository) *ReportService {
	return &ReportService{repo: repo}
}

// BuildStatement loads the categories, the period-filtered transactions and
// the budget rows for the month containing the period start, then
// reconciles them. Overlays carry unsaved planned edits per kind.
func (s *ReportService) BuildStatement(ctx context.Context, ownerID string, period core.Period, incomeOverlay, expenseOverlay core.Overlay) (core.Statement, error) {
	categories, err := s.repo.ListCategories(ctx, ownerID)
	if err != nil {
		return core.Statement{}, fmt.Errorf("list categories: %w", err)
	}

	transactions, err := s.repo.ListTransactions(ctx, ownerID, period.From, period.To)
	if err != nil {
		return core.Statement{}, fmt.Errorf("list transactions: %w", err)
	}

	budgets, err := s.repo.ListBudgets(ctx, ownerID, period.BudgetMonth())
	if err != nil {
		return core.Statement{}, fmt.Errorf("list budgets: %w", err)
	}

	st := core.BuildStatement(categories, transactions, budgets, incomeOverlay, expenseOverlay, period, time.Now())

	slog.DebugContext(ctx, "Statement built",
		"owner_id", ownerID,
		"period_from", period.From.Format("2006-01-02"),
		"period_to", period.To.Format("2006-01-02"),
		"income_rows", len(st.Income.Rows),
		"expense_rows", len(st.Expense.Rows))

	return st, nil
}

// TransactionLog returns the period's raw transactions with their category
// names resolved, for the journal exports. Unclassified rows keep an empty
// category name.
func (s *ReportService) TransactionLog(ctx context.Context, ownerID string, period core.Period) ([]core.LogEntry, error) {
	transactions, err := s.repo.ListTransactions(ctx, ownerID, period.From, period.To)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}

	categories, err := s.repo.ListCategories(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	names := make(map[string]string, len(categories))
	for _, c := range categories {
		names[c.ID] = c.Name
	}

	entries := make([]core.LogEntry, len(transactions))
	for i, tx := range transactions {
		entries[i] = core.LogEntry{Transaction: tx, Category: names[tx.CategoryID]}
	}
	return entries, nil
}
