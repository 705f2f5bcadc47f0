package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"smart-grocery/internal/model"
	"smart-grocery/internal/repository"
)

type failingStore struct {
	repository.BlobStore
	saveErr error
	loadErr error
}

func (f failingStore) Load(ctx context.Context, key string) ([]byte, error) {
	if f.loadErr != nil {
		return nil, f.loadErr
	}
	return f.BlobStore.Load(ctx, key)
}

func (f failingStore) Save(ctx context.Context, key string, data []byte) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	return f.BlobStore.Save(ctx, key, data)
}

func newFileStore(t *testing.T) repository.BlobStore {
	t.Helper()
	store, err := repository.NewFileStateRepository(t.TempDir())
	require.NoError(t, err)
	return store
}

func newState(t *testing.T) (*StateService, repository.BlobStore) {
	t.Helper()
	store := newFileStore(t)
	state := NewStateService(store, model.StorageKey, zap.NewNop().Sugar())
	require.NoError(t, state.Load(context.Background()))
	return state, store
}

func TestStateLoadMissingUsesDefaults(t *testing.T) {
	state, _ := newState(t)

	snap := state.Snapshot()
	assert.Equal(t, float64(model.DefaultMonthlyBudget), snap.MonthlyBudget)
	assert.Equal(t, "USD", snap.Currency)
	assert.Empty(t, snap.CurrentList)
	assert.Nil(t, state.ReminderTarget())
}

func TestStateLoadMalformedUsesDefaults(t *testing.T) {
	ctx := context.Background()
	store := newFileStore(t)
	require.NoError(t, store.Save(ctx, model.StorageKey, []byte(`{"monthlyBudget": "lots"`)))

	state := NewStateService(store, model.StorageKey, zap.NewNop().Sugar())
	require.NoError(t, state.Load(ctx))
	assert.Equal(t, float64(model.DefaultMonthlyBudget), state.Snapshot().MonthlyBudget)
}

func TestStateLoadStorageFailureKeepsDefaults(t *testing.T) {
	store := failingStore{BlobStore: newFileStore(t), loadErr: errors.New("io")}
	state := NewStateService(store, "", zap.NewNop().Sugar())

	assert.Error(t, state.Load(context.Background()))
	assert.Equal(t, "USD", state.Snapshot().Currency)
}

func TestStatePersistsEveryUpdate(t *testing.T) {
	ctx := context.Background()
	state, store := newState(t)

	require.NoError(t, state.Update(ctx, func(st *model.AppState) error {
		st.MonthlyBudget = 320
		return nil
	}))

	reloaded := NewStateService(store, model.StorageKey, zap.NewNop().Sugar())
	require.NoError(t, reloaded.Load(ctx))
	assert.Equal(t, 320.0, reloaded.Snapshot().MonthlyBudget)
}

func TestStateUpdateFailureLeavesStateUntouched(t *testing.T) {
	ctx := context.Background()
	store := failingStore{BlobStore: newFileStore(t), saveErr: errors.New("disk full")}
	state := NewStateService(store, model.StorageKey, zap.NewNop().Sugar())

	err := state.Update(ctx, func(st *model.AppState) error {
		st.MonthlyBudget = 1
		return nil
	})
	require.Error(t, err)
	assert.Equal(t, float64(model.DefaultMonthlyBudget), state.Snapshot().MonthlyBudget)

	sentinel := errors.New("rejected")
	assert.ErrorIs(t, state.Update(ctx, func(*model.AppState) error { return sentinel }), sentinel)
}

func TestStatePinLocksOnLoad(t *testing.T) {
	ctx := context.Background()
	state, store := newState(t)
	require.NoError(t, NewSecurityService(state).SetPin(ctx, "1234"))
	assert.False(t, NewSecurityService(state).IsLocked())

	reloaded := NewStateService(store, model.StorageKey, zap.NewNop().Sugar())
	require.NoError(t, reloaded.Load(ctx))
	assert.True(t, NewSecurityService(reloaded).IsLocked())
}

func TestStateReminderTargetRoundTrip(t *testing.T) {
	ctx := context.Background()
	state, store := newState(t)

	at := time.Date(2024, 6, 1, 18, 30, 0, 0, time.Local)
	require.NoError(t, state.SetReminderTarget(&at))

	reloaded := NewStateService(store, model.StorageKey, zap.NewNop().Sugar())
	require.NoError(t, reloaded.Load(ctx))
	got := reloaded.ReminderTarget()
	require.NotNil(t, got)
	assert.True(t, got.Equal(at))

	require.NoError(t, reloaded.SetReminderTarget(nil))
	assert.Nil(t, reloaded.ReminderTarget())
}

func TestStateAlertPreferencesAreLive(t *testing.T) {
	ctx := context.Background()
	state, _ := newState(t)
	settings := NewSettingsService(state)

	prefs := state.AlertPreferences()
	assert.True(t, prefs.Sound)
	assert.True(t, prefs.Vibration)

	_, err := settings.Toggle(ctx, PrefSound)
	require.NoError(t, err)
	assert.False(t, state.AlertPreferences().Sound)
	assert.True(t, state.AlertPreferences().Vibration)
}

func TestStateReset(t *testing.T) {
	ctx := context.Background()
	state, store := newState(t)
	_, err := NewListService(state).Add(ctx, ItemInput{Name: "Milk", Price: 2})
	require.NoError(t, err)

	require.NoError(t, state.Reset(ctx))
	assert.Empty(t, state.Snapshot().CurrentList)

	_, err = store.Load(ctx, model.StorageKey)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}
