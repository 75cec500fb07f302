package services

import (
	"context"
	"fmt"

	"github.com/barthos4/ma-caisse/internal/core"
	"github.com/barthos4/ma-caisse/internal/store"
)

type CategoryService struct {
	categories store.CategoryStore
	hub        *core.Hub
}

func NewCategoryService(categories store.CategoryStore, hub *core.Hub) *CategoryService {
	return &CategoryService{categories: categories, hub: hub}
}

func (s *CategoryService) Create(ctx context.Context, c core.Category) (core.Category, error) {
	saved, err := s.categories.CreateCategory(ctx, c)
	if err != nil {
		return core.Category{}, fmt.Errorf("create category: %w", err)
	}
	s.notify(c.OwnerID)
	return saved, nil
}

func (s *CategoryService) Update(ctx context.Context, c core.Category) (core.Category, error) {
	saved, err := s.categories.UpdateCategory(ctx, c)
	if err != nil {
		return core.Category{}, fmt.Errorf("update category: %w", err)
	}
	s.notify(c.OwnerID)
	return saved, nil
}

// Delete refuses with core.ErrCategoryInUse while transactions reference
// the category; the refusal leaves both sides untouched.
func (s *CategoryService) Delete(ctx context.Context, ownerID, id string) error {
	if err := s.categories.DeleteCategory(ctx, ownerID, id); err != nil {
		return err
	}
	s.notify(ownerID)
	return nil
}

func (s *CategoryService) List(ctx context.Context, ownerID string) ([]core.Category, error) {
	return s.categories.ListCategories(ctx, ownerID)
}

// ListByKind keeps the store order and drops the other kind.
func (s *CategoryService) ListByKind(ctx context.Context, ownerID string, kind core.Kind) ([]core.Category, error) {
	all, err := s.categories.ListCategories(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	out := make([]core.Category, 0, len(all))
	for _, c := range all {
		if c.Kind == kind {
			out = append(out, c)
		}
	}
	return out, nil
}

func (s *CategoryService) notify(ownerID string) {
	if s.hub != nil {
		s.hub.Publish(core.ChangeEvent{Topic: core.TopicCategories, OwnerID: ownerID})
	}
}
