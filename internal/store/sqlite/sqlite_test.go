package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/barthos4/ma-caisse/internal/core"
)

func newTestRepo(t *testing.T) *Repository {
	t.Helper()
	repo, err := NewRepository(filepath.Join(t.TempDir(), "caisse.db"))
	if err != nil {
		t.Fatalf("open repo: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func date(y, m, d int) time.Time {
	return time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
}

func TestTransactionRoundTrip(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	cat, err := repo.CreateCategory(ctx, core.Category{OwnerID: "o1", Name: "Ventes", Kind: core.KindIncome})
	if err != nil {
		t.Fatal(err)
	}

	tx, err := repo.CreateTransaction(ctx, core.Transaction{
		OwnerID:     "o1",
		Date:        date(2025, 3, 5),
		Description: "vente comptoir",
		Reference:   "FAC-12",
		Amount:      core.Money{Cents: 2000_00},
		Kind:        core.KindIncome,
		CategoryID:  cat.ID,
	})
	if err != nil {
		t.Fatal(err)
	}

	got, err := repo.GetTransaction(ctx, "o1", tx.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Description != "vente comptoir" || got.Amount.Cents != 2000_00 || !got.Date.Equal(date(2025, 3, 5)) {
		t.Fatalf("round trip mismatch: %+v", got)
	}
	if got.CategoryID != cat.ID {
		t.Fatalf("category reference lost: %q", got.CategoryID)
	}

	// Owner scoping: another owner cannot see the row.
	if _, err := repo.GetTransaction(ctx, "o2", tx.ID); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected not found for foreign owner, got %v", err)
	}
}

func TestListTransactionsDateBounds(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	for _, d := range []time.Time{date(2025, 2, 28), date(2025, 3, 1), date(2025, 3, 31), date(2025, 4, 1)} {
		_, err := repo.CreateTransaction(ctx, core.Transaction{
			OwnerID: "o1", Date: d, Description: "x",
			Amount: core.Money{Cents: 100}, Kind: core.KindExpense,
		})
		if err != nil {
			t.Fatal(err)
		}
	}

	got, err := repo.ListTransactions(ctx, "o1", date(2025, 3, 1), date(2025, 3, 31))
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("expected inclusive month bounds to keep 2 rows, got %d", len(got))
	}
}

func TestBudgetUpsertSingleRowPerKey(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	cat, err := repo.CreateCategory(ctx, core.Category{OwnerID: "o1", Name: "Loyer", Kind: core.KindExpense})
	if err != nil {
		t.Fatal(err)
	}

	month := date(2025, 3, 1)
	for _, cents := range []int64{1000_00, 1200_00} {
		_, err := repo.UpsertBudget(ctx, core.BudgetEntry{
			OwnerID:    "o1",
			CategoryID: cat.ID,
			Month:      date(2025, 3, 17), // mid-month input normalizes to the 1st
			Planned:    core.Money{Cents: cents},
			Kind:       core.KindExpense,
		})
		if err != nil {
			t.Fatal(err)
		}
	}

	got, err := repo.ListBudgets(ctx, "o1", month)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 {
		t.Fatalf("upsert produced %d rows for one key, want 1", len(got))
	}
	if got[0].Planned.Cents != 1200_00 {
		t.Fatalf("planned = %d, want last write 120000", got[0].Planned.Cents)
	}
	if !got[0].Month.Equal(month) {
		t.Fatalf("month not normalized: %v", got[0].Month)
	}
}

func TestDeleteCategoryInUseRefused(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	cat, err := repo.CreateCategory(ctx, core.Category{OwnerID: "o1", Name: "Loyer", Kind: core.KindExpense})
	if err != nil {
		t.Fatal(err)
	}
	tx, err := repo.CreateTransaction(ctx, core.Transaction{
		OwnerID: "o1", Date: date(2025, 3, 5), Description: "loyer mars",
		Amount: core.Money{Cents: 800_00}, Kind: core.KindExpense, CategoryID: cat.ID,
	})
	if err != nil {
		t.Fatal(err)
	}

	if err := repo.DeleteCategory(ctx, "o1", cat.ID); !errors.Is(err, core.ErrCategoryInUse) {
		t.Fatalf("expected in-use refusal, got %v", err)
	}

	// Both rows unchanged after the refusal.
	if _, err := repo.GetTransaction(ctx, "o1", tx.ID); err != nil {
		t.Fatalf("transaction must survive: %v", err)
	}
	cats, err := repo.ListCategories(ctx, "o1")
	if err != nil || len(cats) != 1 {
		t.Fatalf("category must survive: %v, %d", err, len(cats))
	}

	// Releasing the reference makes the delete pass.
	if err := repo.DeleteTransaction(ctx, "o1", tx.ID); err != nil {
		t.Fatal(err)
	}
	if err := repo.DeleteCategory(ctx, "o1", cat.ID); err != nil {
		t.Fatalf("delete after release: %v", err)
	}
}

func TestSettingsSingletonUpsert(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	if _, err := repo.GetSettings(ctx, "o1"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected not found before first save, got %v", err)
	}

	for _, name := range []string{"Etablissements A", "Etablissements B"} {
		if _, err := repo.UpsertSettings(ctx, core.Settings{OwnerID: "o1", CompanyName: name, RCCM: "RC/DLA/2020/B/123"}); err != nil {
			t.Fatal(err)
		}
	}

	got, err := repo.GetSettings(ctx, "o1")
	if err != nil {
		t.Fatal(err)
	}
	if got.CompanyName != "Etablissements B" {
		t.Fatalf("settings not replaced: %+v", got)
	}
}

func TestMirrorQueue(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	tx, err := repo.CreateTransaction(ctx, core.Transaction{
		OwnerID: "o1", Date: date(2025, 3, 5), Description: "x",
		Amount: core.Money{Cents: 100}, Kind: core.KindIncome,
	})
	if err != nil {
		t.Fatal(err)
	}

	pending, err := repo.PendingMirrors(ctx, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(pending) != 1 || pending[0].ID != tx.ID {
		t.Fatalf("pending = %+v", pending)
	}

	if err := repo.MarkMirrored(ctx, tx.ID); err != nil {
		t.Fatal(err)
	}
	pending, err = repo.PendingMirrors(ctx, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(pending) != 0 {
		t.Fatalf("expected empty queue, got %d", len(pending))
	}
}
