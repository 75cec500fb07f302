package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/barthos4/ma-caisse/internal/amqp"
	"github.com/barthos4/ma-caisse/internal/core"
)

type stubPublisher struct {
	mirrored []string
	removed  []*amqp.TransactionRemoveMessage
	fail     bool
}

func (p *stubPublisher) PublishTransactionMirror(_ context.Context, id, _ string) error {
	if p.fail {
		return errors.New("broker down")
	}
	p.mirrored = append(p.mirrored, id)
	return nil
}

func (p *stubPublisher) PublishTransactionRemove(_ context.Context, msg *amqp.TransactionRemoveMessage) error {
	if p.fail {
		return errors.New("broker down")
	}
	p.removed = append(p.removed, msg)
	return nil
}

func TestCreatePublishesMirrorAndNotifies(t *testing.T) {
	repo, owner := seedLedger(t)
	pub := &stubPublisher{}
	hub := core.NewHub()

	var topics []string
	stop := hub.Subscribe(func(e core.ChangeEvent) { topics = append(topics, e.Topic) })
	defer stop()

	svc := NewTransactionService(repo, pub, hub)
	saved, err := svc.Create(context.Background(), core.Transaction{
		OwnerID: owner, Date: date(2025, 3, 5), Description: "vente comptoir",
		Amount: core.Money{Cents: 1500}, Kind: core.KindIncome,
	})
	require.NoError(t, err)
	require.NotEmpty(t, saved.ID)
	require.Equal(t, []string{saved.ID}, pub.mirrored)
	require.Equal(t, []string{core.TopicTransactions}, topics)
}

func TestCreateSurvivesPublishFailure(t *testing.T) {
	repo, owner := seedLedger(t)
	pub := &stubPublisher{fail: true}
	svc := NewTransactionService(repo, pub, core.NewHub())

	saved, err := svc.Create(context.Background(), core.Transaction{
		OwnerID: owner, Date: date(2025, 3, 5), Description: "vente comptoir",
		Amount: core.Money{Cents: 1500}, Kind: core.KindIncome,
	})
	require.NoError(t, err)

	got, err := svc.Get(context.Background(), owner, saved.ID)
	require.NoError(t, err)
	require.Equal(t, saved.ID, got.ID)
}

func TestCreateRejectsCategoryKindMismatch(t *testing.T) {
	repo, owner := seedLedger(t)
	ctx := context.Background()

	cat, err := repo.CreateCategory(ctx, core.Category{OwnerID: owner, Name: "Loyer", Kind: core.KindExpense})
	require.NoError(t, err)

	svc := NewTransactionService(repo, nil, nil)
	_, err = svc.Create(ctx, core.Transaction{
		OwnerID: owner, Date: date(2025, 3, 5), Description: "oops",
		Amount: core.Money{Cents: 100}, Kind: core.KindIncome, CategoryID: cat.ID,
	})
	require.ErrorIs(t, err, core.ErrInvalidKind)
}

func TestCreateRejectsForeignCategory(t *testing.T) {
	repo, owner := seedLedger(t)
	ctx := context.Background()

	other, err := repo.CreateCategory(ctx, core.Category{OwnerID: "someone-else", Name: "Ventes", Kind: core.KindIncome})
	require.NoError(t, err)

	svc := NewTransactionService(repo, nil, nil)
	_, err = svc.Create(ctx, core.Transaction{
		OwnerID: owner, Date: date(2025, 3, 5), Description: "vente",
		Amount: core.Money{Cents: 100}, Kind: core.KindIncome, CategoryID: other.ID,
	})
	require.ErrorIs(t, err, core.ErrNotFound)
}

func TestDeleteEmitsRemoveWithRowData(t *testing.T) {
	repo, owner := seedLedger(t)
	pub := &stubPublisher{}
	svc := NewTransactionService(repo, pub, core.NewHub())
	ctx := context.Background()

	saved, err := svc.Create(ctx, core.Transaction{
		OwnerID: owner, Date: date(2025, 3, 5), Description: "achat divers",
		Amount: core.Money{Cents: 4200}, Kind: core.KindExpense,
	})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, owner, saved.ID))

	require.Len(t, pub.removed, 1)
	require.Equal(t, saved.ID, pub.removed[0].ID)
	require.Equal(t, "2025-03-05", pub.removed[0].Date)
	require.Equal(t, int64(4200), pub.removed[0].AmountCents)

	_, err = svc.Get(ctx, owner, saved.ID)
	require.ErrorIs(t, err, core.ErrNotFound)
}

func TestDeleteUnknownRow(t *testing.T) {
	repo, owner := seedLedger(t)
	svc := NewTransactionService(repo, nil, nil)

	err := svc.Delete(context.Background(), owner, "missing")
	require.ErrorIs(t, err, core.ErrNotFound)
}
