package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"smart-grocery/internal/model"
	"smart-grocery/internal/reminder"
	"smart-grocery/internal/repository"
)

// StateService owns the in-memory application state and persists the whole
// blob on every change.
type StateService struct {
	store  repository.BlobStore
	key    string
	logger *zap.SugaredLogger

	mu    sync.RWMutex
	state model.AppState
}

func NewStateService(store repository.BlobStore, key string, logger *zap.SugaredLogger) *StateService {
	if key == "" {
		key = model.StorageKey
	}
	return &StateService{
		store:  store,
		key:    key,
		logger: logger,
		state:  model.DefaultState(),
	}
}

// Load reads the stored blob. A missing or malformed blob leaves the
// defaults in place; only a storage failure is returned, and even then the
// service stays usable with defaults. A PIN-protected state starts locked.
func (s *StateService) Load(ctx context.Context) error {
	state, err := s.read(ctx)
	if state.SecurityPin != nil {
		state.IsAuthenticated = false
	}

	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
	return err
}

// Reload re-reads the blob as stored, keeping its authentication flag.
func (s *StateService) Reload(ctx context.Context) error {
	state, err := s.read(ctx)
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
	return err
}

func (s *StateService) read(ctx context.Context) (model.AppState, error) {
	data, err := s.store.Load(ctx, s.key)
	if errors.Is(err, repository.ErrNotFound) {
		s.logger.Infow("no stored state, using defaults", "key", s.key)
		return model.DefaultState(), nil
	}
	if err != nil {
		s.logger.Warnw("load state", "key", s.key, "error", err)
		return model.DefaultState(), fmt.Errorf("load state: %w", err)
	}

	state, err := model.DecodeState(data)
	if err != nil {
		s.logger.Warnw("stored state is malformed, using defaults", "key", s.key, "error", err)
		return model.DefaultState(), nil
	}
	return state, nil
}

// Snapshot returns a deep copy of the current state.
func (s *StateService) Snapshot() model.AppState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Clone()
}

// Update applies fn to a copy of the state and persists it. The in-memory
// state only changes when fn succeeds and the blob is saved.
func (s *StateService) Update(ctx context.Context, fn func(*model.AppState) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.state.Clone()
	if err := fn(&next); err != nil {
		return err
	}
	data, err := model.EncodeState(next)
	if err != nil {
		return err
	}
	if err := s.store.Save(ctx, s.key, data); err != nil {
		return fmt.Errorf("save state: %w", err)
	}
	s.state = next
	return nil
}

// Reset deletes the stored blob and restores the defaults.
func (s *StateService) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.Delete(ctx, s.key); err != nil {
		return fmt.Errorf("reset state: %w", err)
	}
	s.state = model.DefaultState()
	s.logger.Infow("state wiped", "key", s.key)
	return nil
}

func (s *StateService) ReminderTarget() *time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.state.ReminderTime == nil {
		return nil
	}
	t := s.state.ReminderTime.Time
	return &t
}

func (s *StateService) SetReminderTarget(t *time.Time) error {
	return s.Update(context.Background(), func(st *model.AppState) error {
		if t == nil {
			st.ReminderTime = nil
			return nil
		}
		st.ReminderTime = model.NewLocalTime(*t)
		return nil
	})
}

// ClearReminderTarget removes the target from memory first and then
// persists the change. A failed save is returned but the target stays
// cleared, so an expired reminder cannot fire again from memory.
func (s *StateService) ClearReminderTarget() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state.ReminderTime == nil {
		return nil
	}
	s.state.ReminderTime = nil
	data, err := model.EncodeState(s.state)
	if err != nil {
		return err
	}
	if err := s.store.Save(context.Background(), s.key, data); err != nil {
		s.logger.Warnw("persist cleared reminder", "key", s.key, "error", err)
		return fmt.Errorf("save state: %w", err)
	}
	return nil
}

func (s *StateService) AlertPreferences() reminder.AlertPreferences {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return reminder.AlertPreferences{
		Sound:     s.state.SoundEnabled,
		Vibration: s.state.VibrationEnabled,
	}
}

// PendingCount is the number of unpurchased items on the current list.
func (s *StateService) PendingCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return pendingItems(s.state.CurrentList)
}

func pendingItems(items []model.GroceryItem) int {
	n := 0
	for _, item := range items {
		if !item.IsPurchased {
			n++
		}
	}
	return n
}

var (
	_ reminder.TargetStore      = (*StateService)(nil)
	_ reminder.PreferenceSource = (*StateService)(nil)
)
