package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/barthos4/ma-caisse/internal/core"
	"github.com/barthos4/ma-caisse/internal/sheets"
	sheetsmem "github.com/barthos4/ma-caisse/internal/sheets/memory"
	storemem "github.com/barthos4/ma-caisse/internal/store/memory"
)

func newFixture(t *testing.T) (*storemem.Store, *sheetsmem.Mirror, *MirrorWorker) {
	t.Helper()
	repo := storemem.New()
	t.Cleanup(func() { repo.Close() })
	mirror := sheetsmem.New()
	return repo, mirror, New(repo, mirror, mirror)
}

func TestMirrorAppendsResolvedRow(t *testing.T) {
	repo, mirror, w := newFixture(t)
	ctx := context.Background()

	cat, err := repo.CreateCategory(ctx, core.Category{OwnerID: "o1", Name: "Ventes", Kind: core.KindIncome})
	require.NoError(t, err)
	tx, err := repo.CreateTransaction(ctx, core.Transaction{
		OwnerID: "o1", Date: time.Date(2025, 3, 5, 0, 0, 0, 0, time.UTC),
		Description: "vente comptoir", Amount: core.Money{Cents: 1500},
		Kind: core.KindIncome, CategoryID: cat.ID,
	})
	require.NoError(t, err)

	require.NoError(t, w.Mirror(ctx, "o1", tx.ID))

	rows := mirror.Rows()
	require.Len(t, rows, 1)
	require.Equal(t, tx.ID, rows[0].TransactionID)
	require.Equal(t, "2025-03-05", rows[0].Date)
	require.Equal(t, "Ventes", rows[0].Category)
	require.Equal(t, int64(1500), rows[0].AmountCents)

	pending, err := repo.PendingMirrors(ctx, 10)
	require.NoError(t, err)
	require.Empty(t, pending, "mirrored row must leave the pending set")
}

func TestMirrorSkipsDeletedTransaction(t *testing.T) {
	_, mirror, w := newFixture(t)

	require.NoError(t, w.Mirror(context.Background(), "o1", "gone"))
	require.Empty(t, mirror.Rows())
}

type failingAppender struct{}

func (failingAppender) AppendRow(context.Context, sheets.Row) error {
	return errors.New("quota exceeded")
}

func TestMirrorReturnsErrorOnAppendFailure(t *testing.T) {
	repo := storemem.New()
	t.Cleanup(func() { repo.Close() })
	w := New(repo, failingAppender{}, sheetsmem.New())
	ctx := context.Background()

	tx, err := repo.CreateTransaction(ctx, core.Transaction{
		OwnerID: "o1", Date: time.Date(2025, 3, 5, 0, 0, 0, 0, time.UTC),
		Description: "vente", Amount: core.Money{Cents: 100}, Kind: core.KindIncome,
	})
	require.NoError(t, err)

	require.Error(t, w.Mirror(ctx, "o1", tx.ID))
}

func TestRemoveDropsOnlyTargetRow(t *testing.T) {
	repo, mirror, w := newFixture(t)
	ctx := context.Background()

	for _, desc := range []string{"un", "deux"} {
		tx, err := repo.CreateTransaction(ctx, core.Transaction{
			OwnerID: "o1", Date: time.Date(2025, 3, 5, 0, 0, 0, 0, time.UTC),
			Description: desc, Amount: core.Money{Cents: 100}, Kind: core.KindIncome,
		})
		require.NoError(t, err)
		require.NoError(t, w.Mirror(ctx, "o1", tx.ID))
	}
	rows := mirror.Rows()
	require.Len(t, rows, 2)

	require.NoError(t, w.Remove(ctx, rows[0].TransactionID))
	remaining := mirror.Rows()
	require.Len(t, remaining, 1)
	require.Equal(t, rows[1].TransactionID, remaining[0].TransactionID)
}

func TestScanPendingMirrorsBacklog(t *testing.T) {
	repo, mirror, w := newFixture(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := repo.CreateTransaction(ctx, core.Transaction{
			OwnerID: "o1", Date: time.Date(2025, 3, 5, 0, 0, 0, 0, time.UTC),
			Description: "vente", Amount: core.Money{Cents: 100}, Kind: core.KindIncome,
		})
		require.NoError(t, err)
	}

	require.NoError(t, w.ScanPending(ctx, 10))
	require.Len(t, mirror.Rows(), 3)

	// Second scan finds nothing left and appends nothing.
	require.NoError(t, w.ScanPending(ctx, 10))
	require.Len(t, mirror.Rows(), 3)
}
