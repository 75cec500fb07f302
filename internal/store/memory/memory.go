// Package memory is an in-process implementation of the store ports, used by
// the demo backend and by tests. Construct one per session and Close it on
// teardown; nothing is shared at package level.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/barthos4/ma-caisse/internal/core"
	"github.com/barthos4/ma-caisse/internal/store"
)

type Store struct {
	mu           sync.Mutex
	transactions []core.Transaction
	categories   []core.Category
	budgets      []core.BudgetEntry
	settings     map[string]core.Settings
	mirrored     map[string]string // transaction id -> mirror status
}

var (
	_ store.Repository  = (*Store)(nil)
	_ store.MirrorQueue = (*Store)(nil)
)

func New() *Store {
	return &Store{
		settings: make(map[string]core.Settings),
		mirrored: make(map[string]string),
	}
}

func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transactions = nil
	s.categories = nil
	s.budgets = nil
	s.settings = map[string]core.Settings{}
	s.mirrored = map[string]string{}
	return nil
}

func (s *Store) CreateTransaction(_ context.Context, tx core.Transaction) (core.Transaction, error) {
	if err := tx.Validate(); err != nil {
		return core.Transaction{}, err
	}
	if tx.ID == "" {
		tx.ID = uuid.New().String()
	}
	tx.CreatedAt = time.Now().UTC()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.transactions = append(s.transactions, tx)
	s.mirrored[tx.ID] = "pending"
	return tx, nil
}

func (s *Store) UpdateTransaction(_ context.Context, tx core.Transaction) (core.Transaction, error) {
	if err := tx.Validate(); err != nil {
		return core.Transaction{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, cur := range s.transactions {
		if cur.ID == tx.ID && cur.OwnerID == tx.OwnerID {
			tx.CreatedAt = cur.CreatedAt
			s.transactions[i] = tx
			s.mirrored[tx.ID] = "pending"
			return tx, nil
		}
	}
	return core.Transaction{}, core.ErrNotFound
}

func (s *Store) DeleteTransaction(_ context.Context, ownerID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, cur := range s.transactions {
		if cur.ID == id && cur.OwnerID == ownerID {
			s.transactions = append(s.transactions[:i], s.transactions[i+1:]...)
			delete(s.mirrored, id)
			return nil
		}
	}
	return core.ErrNotFound
}

func (s *Store) GetTransaction(_ context.Context, ownerID, id string) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, cur := range s.transactions {
		if cur.ID == id && cur.OwnerID == ownerID {
			return cur, nil
		}
	}
	return core.Transaction{}, core.ErrNotFound
}

func (s *Store) ListTransactions(_ context.Context, ownerID string, from, to time.Time) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.Transaction
	for _, tx := range s.transactions {
		if tx.OwnerID != ownerID {
			continue
		}
		if !from.IsZero() && tx.Date.Before(from) {
			continue
		}
		if !to.IsZero() && tx.Date.After(to) {
			continue
		}
		out = append(out, tx)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (s *Store) CreateCategory(_ context.Context, c core.Category) (core.Category, error) {
	if err := c.Validate(); err != nil {
		return core.Category{}, err
	}
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	c.CreatedAt = time.Now().UTC()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.categories = append(s.categories, c)
	return c, nil
}

func (s *Store) UpdateCategory(_ context.Context, c core.Category) (core.Category, error) {
	if err := c.Validate(); err != nil {
		return core.Category{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, cur := range s.categories {
		if cur.ID == c.ID && cur.OwnerID == c.OwnerID {
			c.CreatedAt = cur.CreatedAt
			s.categories[i] = c
			return c, nil
		}
	}
	return core.Category{}, core.ErrNotFound
}

func (s *Store) DeleteCategory(_ context.Context, ownerID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, tx := range s.transactions {
		if tx.OwnerID == ownerID && tx.CategoryID == id {
			return core.ErrCategoryInUse
		}
	}
	for i, cur := range s.categories {
		if cur.ID == id && cur.OwnerID == ownerID {
			s.categories = append(s.categories[:i], s.categories[i+1:]...)
			kept := s.budgets[:0]
			for _, b := range s.budgets {
				if b.CategoryID != id || b.OwnerID != ownerID {
					kept = append(kept, b)
				}
			}
			s.budgets = kept
			return nil
		}
	}
	return core.ErrNotFound
}

func (s *Store) ListCategories(_ context.Context, ownerID string) ([]core.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.Category
	for _, c := range s.categories {
		if c.OwnerID == ownerID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (s *Store) UpsertBudget(_ context.Context, b core.BudgetEntry) (core.BudgetEntry, error) {
	b.Month = core.MonthStart(b.Month)
	if err := b.Validate(); err != nil {
		return core.BudgetEntry{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, cur := range s.budgets {
		if cur.OwnerID == b.OwnerID && cur.CategoryID == b.CategoryID &&
			cur.Month.Equal(b.Month) && cur.Kind == b.Kind {
			b.ID = cur.ID
			s.budgets[i] = b
			return b, nil
		}
	}
	if b.ID == "" {
		b.ID = uuid.New().String()
	}
	s.budgets = append(s.budgets, b)
	return b, nil
}

func (s *Store) ListBudgets(_ context.Context, ownerID string, month time.Time) ([]core.BudgetEntry, error) {
	month = core.MonthStart(month)
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.BudgetEntry
	for _, b := range s.budgets {
		if b.OwnerID == ownerID && b.Month.Equal(month) {
			out = append(out, b)
		}
	}
	return out, nil
}

func (s *Store) GetSettings(_ context.Context, ownerID string) (core.Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if st, ok := s.settings[ownerID]; ok {
		return st, nil
	}
	return core.Settings{}, core.ErrNotFound
}

func (s *Store) UpsertSettings(_ context.Context, st core.Settings) (core.Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings[st.OwnerID] = st
	return st, nil
}

func (s *Store) PendingMirrors(_ context.Context, limit int) ([]store.PendingMirror, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []store.PendingMirror
	for _, tx := range s.transactions {
		if len(out) >= limit {
			break
		}
		if s.mirrored[tx.ID] == "pending" {
			out = append(out, store.PendingMirror{ID: tx.ID, OwnerID: tx.OwnerID, CreatedAt: tx.CreatedAt})
		}
	}
	return out, nil
}

func (s *Store) MarkMirrored(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mirrored[id] = "done"
	return nil
}

func (s *Store) MarkMirrorError(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mirrored[id] = "error"
	return nil
}
