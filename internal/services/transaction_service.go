package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/barthos4/ma-caisse/internal/amqp"
	"github.com/barthos4/ma-caisse/internal/core"
	"github.com/barthos4/ma-caisse/internal/store"
)

// MirrorPublisher is the slice of the AMQP client the service needs.
type MirrorPublisher interface {
	PublishTransactionMirror(ctx context.Context, id, ownerID string) error
	PublishTransactionRemove(ctx context.Context, msg *amqp.TransactionRemoveMessage) error
}

// TransactionService writes ledger rows and emits mirror events. The local
// save is authoritative: a failed publish never fails the request.
type TransactionService struct {
	repo      store.Repository
	publisher MirrorPublisher
	hub       *core.Hub
}

func NewTransactionService(repo store.Repository, publisher MirrorPublisher, hub *core.Hub) *TransactionService {
	return &TransactionService{repo: repo, publisher: publisher, hub: hub}
}

func (s *TransactionService) Create(ctx context.Context, tx core.Transaction) (core.Transaction, error) {
	if err := s.checkCategory(ctx, tx); err != nil {
		return core.Transaction{}, err
	}

	saved, err := s.repo.CreateTransaction(ctx, tx)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("save transaction: %w", err)
	}

	s.publishMirror(ctx, saved.ID, saved.OwnerID)
	s.notify(saved.OwnerID)
	return saved, nil
}

func (s *TransactionService) Update(ctx context.Context, tx core.Transaction) (core.Transaction, error) {
	if err := s.checkCategory(ctx, tx); err != nil {
		return core.Transaction{}, err
	}

	saved, err := s.repo.UpdateTransaction(ctx, tx)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("update transaction: %w", err)
	}

	s.publishMirror(ctx, saved.ID, saved.OwnerID)
	s.notify(saved.OwnerID)
	return saved, nil
}

func (s *TransactionService) Delete(ctx context.Context, ownerID, id string) error {
	// Capture the row before it goes away; the remove event needs its data
	// for the sheet lookup fallback.
	tx, err := s.repo.GetTransaction(ctx, ownerID, id)
	if err != nil {
		return err
	}

	if err := s.repo.DeleteTransaction(ctx, ownerID, id); err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}

	if s.publisher != nil {
		msg := &amqp.TransactionRemoveMessage{
			ID:          tx.ID,
			OwnerID:     tx.OwnerID,
			Date:        tx.Date.Format("2006-01-02"),
			Description: tx.Description,
			AmountCents: tx.Amount.Cents,
		}
		if err := s.publisher.PublishTransactionRemove(ctx, msg); err != nil {
			slog.ErrorContext(ctx, "Failed to publish remove message",
				"id", id, "error", err)
			// Local delete already happened; the pending scan cannot help
			// here, the mirror keeps the stale row until fixed by hand.
		}
	}
	s.notify(ownerID)
	return nil
}

func (s *TransactionService) Get(ctx context.Context, ownerID, id string) (core.Transaction, error) {
	return s.repo.GetTransaction(ctx, ownerID, id)
}

// checkCategory verifies a non-empty category reference points at a
// category of the same owner and kind.
func (s *TransactionService) checkCategory(ctx context.Context, tx core.Transaction) error {
	if tx.CategoryID == "" {
		return nil
	}
	categories, err := s.repo.ListCategories(ctx, tx.OwnerID)
	if err != nil {
		return fmt.Errorf("list categories: %w", err)
	}
	for _, c := range categories {
		if c.ID == tx.CategoryID {
			if c.Kind != tx.Kind {
				return fmt.Errorf("category %q is %s, transaction is %s: %w", c.Name, c.Kind, tx.Kind, core.ErrInvalidKind)
			}
			return nil
		}
	}
	return fmt.Errorf("category %s: %w", tx.CategoryID, core.ErrNotFound)
}

func (s *TransactionService) publishMirror(ctx context.Context, id, ownerID string) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishTransactionMirror(ctx, id, ownerID); err != nil {
		slog.ErrorContext(ctx, "Failed to publish mirror message",
			"id", id, "error", err)
		// Not fatal: the worker's pending scan picks the row up later.
	}
}

func (s *TransactionService) notify(ownerID string) {
	if s.hub != nil {
		s.hub.Publish(core.ChangeEvent{Topic: core.TopicTransactions, OwnerID: ownerID})
	}
}
