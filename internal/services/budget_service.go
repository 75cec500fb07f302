package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/barthos4/ma-caisse/internal/core"
	"github.com/barthos4/ma-caisse/internal/store"
)

// BudgetService persists planned-amount edits. The caller keeps its pending
// value on failure; nothing is rolled back here.
type BudgetService struct {
	budgets store.BudgetStore
	hub     *core.Hub
}

func NewBudgetService(budgets store.BudgetStore, hub *core.Hub) *BudgetService {
	return &BudgetService{budgets: budgets, hub: hub}
}

// SavePlanned parses the raw edited value and upserts the entry keyed by
// (owner, category, month, kind). Non-numeric input coerces to a zero plan;
// negative input is rejected.
func (s *BudgetService) SavePlanned(ctx context.Context, ownerID, categoryID string, kind core.Kind, month time.Time, raw string) (core.BudgetEntry, error) {
	cents, err := core.ParsePlannedToCents(raw)
	if err != nil {
		return core.BudgetEntry{}, err
	}

	entry, err := s.budgets.UpsertBudget(ctx, core.BudgetEntry{
		OwnerID:    ownerID,
		CategoryID: categoryID,
		Month:      core.MonthStart(month),
		Planned:    core.Money{Cents: cents},
		Kind:       kind,
	})
	if err != nil {
		return core.BudgetEntry{}, fmt.Errorf("save planned amount: %w", err)
	}

	slog.InfoContext(ctx, "Planned amount saved",
		"owner_id", ownerID,
		"category_id", categoryID,
		"month", entry.Month.Format("2006-01"),
		"planned_cents", cents)

	if s.hub != nil {
		s.hub.Publish(core.ChangeEvent{Topic: core.TopicBudgets, OwnerID: ownerID})
	}
	return entry, nil
}
