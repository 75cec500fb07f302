// Package store defines the repository ports the ledger persists through.
// Adapters live in the sqlite and memory subpackages; every operation is
// scoped to an owning actor and takes a context.
package store

import (
	"context"
	"time"

	"github.com/barthos4/ma-caisse/internal/core"
)

type (
	TransactionStore interface {
		CreateTransaction(ctx context.Context, tx core.Transaction) (core.Transaction, error)
		UpdateTransaction(ctx context.Context, tx core.Transaction) (core.Transaction, error)
		DeleteTransaction(ctx context.Context, ownerID, id string) error
		GetTransaction(ctx context.Context, ownerID, id string) (core.Transaction, error)
		// ListTransactions returns every row for the owner ordered by date
		// then creation time. from/to are inclusive day bounds; zero values
		// disable the corresponding bound.
		ListTransactions(ctx context.Context, ownerID string, from, to time.Time) ([]core.Transaction, error)
	}

	CategoryStore interface {
		CreateCategory(ctx context.Context, c core.Category) (core.Category, error)
		UpdateCategory(ctx context.Context, c core.Category) (core.Category, error)
		// DeleteCategory refuses with core.ErrCategoryInUse while at least
		// one transaction references the category.
		DeleteCategory(ctx context.Context, ownerID, id string) error
		ListCategories(ctx context.Context, ownerID string) ([]core.Category, error)
	}

	BudgetStore interface {
		// UpsertBudget inserts or replaces the single entry keyed by
		// (owner, category, month, kind).
		UpsertBudget(ctx context.Context, b core.BudgetEntry) (core.BudgetEntry, error)
		ListBudgets(ctx context.Context, ownerID string, month time.Time) ([]core.BudgetEntry, error)
	}

	SettingsStore interface {
		// GetSettings returns core.ErrNotFound when the owner has never
		// saved settings.
		GetSettings(ctx context.Context, ownerID string) (core.Settings, error)
		UpsertSettings(ctx context.Context, s core.Settings) (core.Settings, error)
	}

	// PendingMirror identifies a transaction awaiting the off-site mirror.
	PendingMirror struct {
		ID        string
		OwnerID   string
		CreatedAt time.Time
	}

	// MirrorQueue tracks which transactions still need mirroring, as a
	// backup for lost queue messages.
	MirrorQueue interface {
		PendingMirrors(ctx context.Context, limit int) ([]PendingMirror, error)
		MarkMirrored(ctx context.Context, id string) error
		MarkMirrorError(ctx context.Context, id string) error
	}

	// Repository aggregates every port plus adapter lifecycle.
	Repository interface {
		TransactionStore
		CategoryStore
		BudgetStore
		SettingsStore
		Close() error
	}
)
