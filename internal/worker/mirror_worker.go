// Package worker mirrors ledger transactions to the off-site sheet. It
// consumes queue events and periodically re-scans for rows whose mirror is
// still pending, so a lost message never loses a row.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/barthos4/ma-caisse/internal/amqp"
	"github.com/barthos4/ma-caisse/internal/core"
	"github.com/barthos4/ma-caisse/internal/sheets"
	"github.com/barthos4/ma-caisse/internal/store"
)

// Store is the slice of the repository the worker needs.
type Store interface {
	GetTransaction(ctx context.Context, ownerID, id string) (core.Transaction, error)
	ListCategories(ctx context.Context, ownerID string) ([]core.Category, error)
	store.MirrorQueue
}

type MirrorWorker struct {
	store    Store
	appender sheets.RowAppender
	remover  sheets.RowRemover
}

func New(st Store, appender sheets.RowAppender, remover sheets.RowRemover) *MirrorWorker {
	return &MirrorWorker{store: st, appender: appender, remover: remover}
}

// Handlers adapts the worker to the queue consumer. A handler error requeues
// the delivery, so only retryable failures may return one.
func (w *MirrorWorker) Handlers(ctx context.Context) amqp.Handlers {
	return amqp.Handlers{
		Mirror: func(msg *amqp.TransactionMirrorMessage) error {
			return w.Mirror(ctx, msg.OwnerID, msg.ID)
		},
		Remove: func(msg *amqp.TransactionRemoveMessage) error {
			return w.Remove(ctx, msg.ID)
		},
	}
}

// Mirror appends the transaction to the sheet and marks it mirrored. A row
// deleted before the message arrived is skipped, not an error.
func (w *MirrorWorker) Mirror(ctx context.Context, ownerID, id string) error {
	tx, err := w.store.GetTransaction(ctx, ownerID, id)
	if errors.Is(err, core.ErrNotFound) {
		slog.InfoContext(ctx, "Transaction gone before mirroring, skipping", "id", id)
		return nil
	}
	if err != nil {
		return fmt.Errorf("load transaction %s: %w", id, err)
	}

	category, err := w.categoryName(ctx, ownerID, tx.CategoryID)
	if err != nil {
		return err
	}

	row := sheets.Row{
		TransactionID: tx.ID,
		Date:          tx.Date.Format("2006-01-02"),
		OrderNumber:   tx.OrderNumber,
		Description:   tx.Description,
		Reference:     tx.Reference,
		Category:      category,
		Kind:          string(tx.Kind),
		AmountCents:   tx.Amount.Cents,
	}
	if err := w.appender.AppendRow(ctx, row); err != nil {
		if markErr := w.store.MarkMirrorError(ctx, id); markErr != nil {
			slog.ErrorContext(ctx, "Failed to record mirror error", "id", id, "error", markErr)
		}
		return fmt.Errorf("append row %s: %w", id, err)
	}

	if err := w.store.MarkMirrored(ctx, id); err != nil {
		return fmt.Errorf("mark mirrored %s: %w", id, err)
	}
	slog.InfoContext(ctx, "Transaction mirrored", "id", id, "owner_id", ownerID)
	return nil
}

// Remove drops the mirrored row for a transaction deleted locally.
func (w *MirrorWorker) Remove(ctx context.Context, transactionID string) error {
	if err := w.remover.RemoveRow(ctx, transactionID); err != nil {
		return fmt.Errorf("remove row %s: %w", transactionID, err)
	}
	slog.InfoContext(ctx, "Mirrored row removed", "id", transactionID)
	return nil
}

// ScanPending mirrors up to limit rows still marked pending. Failures are
// logged per row; the scan keeps going.
func (w *MirrorWorker) ScanPending(ctx context.Context, limit int) error {
	pending, err := w.store.PendingMirrors(ctx, limit)
	if err != nil {
		return fmt.Errorf("list pending mirrors: %w", err)
	}
	for _, p := range pending {
		if err := w.Mirror(ctx, p.OwnerID, p.ID); err != nil {
			slog.ErrorContext(ctx, "Pending mirror failed", "id", p.ID, "error", err)
		}
	}
	if len(pending) > 0 {
		slog.InfoContext(ctx, "Pending scan done", "count", len(pending))
	}
	return nil
}

// RunPendingScan runs ScanPending on the given interval until ctx is done.
func (w *MirrorWorker) RunPendingScan(ctx context.Context, interval time.Duration, limit int) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := w.ScanPending(ctx, limit); err != nil {
				slog.ErrorContext(ctx, "Pending scan failed", "error", err)
			}
		}
	}
}

func (w *MirrorWorker) categoryName(ctx context.Context, ownerID, categoryID string) (string, error) {
	if categoryID == "" {
		return "", nil
	}
	categories, err := w.store.ListCategories(ctx, ownerID)
	if err != nil {
		return "", fmt.Errorf("list categories: %w", err)
	}
	for _, c := range categories {
		if c.ID == categoryID {
			return c.Name, nil
		}
	}
	return "", nil
}
