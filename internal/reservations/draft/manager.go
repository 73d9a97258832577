// Package draft holds one user's in-progress reservation between form steps.
package draft

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"eatme/internal/pricing"
	"eatme/pkg/model"
	"eatme/pkg/storage"
)

type ConfigSource interface {
	GetConfig() pricing.Config
}

type Manager struct {
	mu      sync.Mutex
	store   storage.Store
	key     string
	pricing ConfigSource
	now     func() time.Time
	draft   model.ReservationDraft
}

func NewManager(store storage.Store, uid string, pricing ConfigSource) *Manager {
	m := &Manager{
		store:   store,
		key:     storage.UserKey(storage.ReservationDraftKey, uid),
		pricing: pricing,
		now:     time.Now,
	}
	m.draft = model.NewReservationDraft(m.now())
	return m
}

// Load replaces the in-memory draft with the stored one. Missing or unreadable
// entries leave the defaults in place.
func (m *Manager) Load(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	raw, err := m.store.Get(ctx, m.key)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			m.draft = model.NewReservationDraft(m.now())
			return nil
		}
		return fmt.Errorf("failed to load reservation draft: %w", err)
	}

	var stored model.ReservationDraft
	if err := json.Unmarshal(raw, &stored); err != nil {
		m.draft = model.NewReservationDraft(m.now())
		return nil
	}
	m.draft = stored
	return nil
}

func (m *Manager) Draft() model.ReservationDraft {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.draft
}

// Update merges u into the draft and persists the result. On a storage failure the
// merge is kept in memory and the error wraps storage.ErrNotPersisted.
func (m *Manager) Update(ctx context.Context, u model.DraftUpdate) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	u.ApplyTo(&m.draft)
	if err := storage.SaveJSON(ctx, m.store, m.key, m.draft); err != nil {
		return fmt.Errorf("%w: %v", storage.ErrNotPersisted, err)
	}
	return nil
}

// Clear resets the draft to defaults and removes the stored entry.
func (m *Manager) Clear(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.draft = model.NewReservationDraft(m.now())
	if err := m.store.Delete(ctx, m.key); err != nil {
		return fmt.Errorf("%w: %v", storage.ErrNotPersisted, err)
	}
	return nil
}

func (m *Manager) Total() pricing.Quote {
	d := m.Draft()
	return pricing.Compute(d.Duration, d.GuestBand, m.pricing.GetConfig())
}

func (m *Manager) IsDetailsFilled() bool {
	return m.Draft().IsDetailsFilled()
}
