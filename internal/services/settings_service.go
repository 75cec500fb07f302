package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/barthos4/ma-caisse/internal/core"
	"github.com/barthos4/ma-caisse/internal/store"
)

type SettingsService struct {
	settings store.SettingsStore
	hub      *core.Hub
}

func NewSettingsService(settings store.SettingsStore, hub *core.Hub) *SettingsService {
	return &SettingsService{settings: settings, hub: hub}
}

// Get returns the owner's settings with defaults applied, or
// core.ErrSettingsNotLoaded when nothing was ever saved. Exports treat that
// as a precondition failure rather than rendering a blank letterhead.
func (s *SettingsService) Get(ctx context.Context, ownerID string) (core.Settings, error) {
	st, err := s.settings.GetSettings(ctx, ownerID)
	if errors.Is(err, core.ErrNotFound) {
		return core.Settings{}, core.ErrSettingsNotLoaded
	}
	if err != nil {
		return core.Settings{}, fmt.Errorf("get settings: %w", err)
	}
	return st.WithDefaults(), nil
}

func (s *SettingsService) Save(ctx context.Context, st core.Settings) (core.Settings, error) {
	saved, err := s.settings.UpsertSettings(ctx, st)
	if err != nil {
		return core.Settings{}, fmt.Errorf("save settings: %w", err)
	}
	if s.hub != nil {
		s.hub.Publish(core.ChangeEvent{Topic: core.TopicSettings, OwnerID: st.OwnerID})
	}
	return saved, nil
}
