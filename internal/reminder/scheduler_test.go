package reminder

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestScheduler(store *fakeStore, alerts AlertStarter, clock *fakeClock, opts ...SchedulerOption) *Scheduler {
	opts = append([]SchedulerOption{WithClock(clock.Now)}, opts...)
	return NewScheduler(store, alerts, clock, zap.NewNop().Sugar(), opts...)
}

func TestPastTargetFiresOnNextTick(t *testing.T) {
	clock := newFakeClock()
	store := &fakeStore{}
	alerts := &countingStarter{}
	s := newTestScheduler(store, alerts, clock)

	require.NoError(t, s.SetTarget(clock.Now().Add(-time.Hour)))
	assert.Equal(t, 0, alerts.Starts(), "nothing fires before the first tick")

	clock.Advance(time.Second)

	assert.Equal(t, 1, alerts.Starts())
	assert.Nil(t, s.Target())
	assert.False(t, s.Polling())
	assert.Equal(t, 0, clock.Active(), "poll timer is cancelled on expiry")

	clock.Advance(10 * time.Second)
	assert.Equal(t, 1, alerts.Starts())
}

func TestTargetFiresOnceReached(t *testing.T) {
	clock := newFakeClock()
	store := &fakeStore{}
	alerts := &countingStarter{}
	s := newTestScheduler(store, alerts, clock)

	require.NoError(t, s.SetTarget(clock.Now().Add(1500*time.Millisecond)))

	clock.Advance(time.Second)
	assert.Equal(t, 0, alerts.Starts())
	assert.NotNil(t, s.Target())

	clock.Advance(time.Second)
	assert.Equal(t, 1, alerts.Starts())
	assert.Nil(t, s.Target())
}

func TestTargetEqualToNowFires(t *testing.T) {
	clock := newFakeClock()
	store := &fakeStore{}
	alerts := &countingStarter{}
	s := newTestScheduler(store, alerts, clock)

	require.NoError(t, s.SetTarget(clock.Now().Add(time.Second)))
	clock.Advance(time.Second)

	assert.Equal(t, 1, alerts.Starts())
}

func TestClearBeforeExpiryPreventsAlert(t *testing.T) {
	clock := newFakeClock()
	store := &fakeStore{}
	alerts := &countingStarter{}
	s := newTestScheduler(store, alerts, clock)

	require.NoError(t, s.SetTarget(clock.Now().Add(5*time.Second)))
	clock.Advance(2 * time.Second)
	require.NoError(t, s.ClearTarget())

	clock.Advance(time.Minute)

	assert.Equal(t, 0, alerts.Starts())
	assert.Nil(t, s.Target())
	assert.Equal(t, 0, clock.Active())
}

func TestClearWithoutTargetIsSafe(t *testing.T) {
	clock := newFakeClock()
	store := &fakeStore{}
	s := newTestScheduler(store, &countingStarter{}, clock)

	assert.NoError(t, s.ClearTarget())
	assert.NoError(t, s.ClearTarget())
	assert.Equal(t, 0, store.writes)
}

func TestSetTargetOverwrites(t *testing.T) {
	clock := newFakeClock()
	store := &fakeStore{}
	alerts := &countingStarter{}
	s := newTestScheduler(store, alerts, clock)

	first := clock.Now().Add(10 * time.Second)
	second := clock.Now().Add(2 * time.Second)
	require.NoError(t, s.SetTarget(first))
	require.NoError(t, s.SetTarget(second))

	assert.Equal(t, 1, clock.Active(), "no duplicate poll timers")
	require.NotNil(t, s.Target())
	assert.True(t, s.Target().Equal(second))

	clock.Advance(time.Minute)
	assert.Equal(t, 1, alerts.Starts())
}

func TestRefreshReplacesPoll(t *testing.T) {
	clock := newFakeClock()
	target := clock.Now().Add(time.Hour)
	store := &fakeStore{target: &target}
	s := newTestScheduler(store, &countingStarter{}, clock)

	for i := 0; i < 5; i++ {
		require.NoError(t, s.Refresh())
	}
	assert.Equal(t, 1, clock.Active())

	s.Stop()
	assert.Equal(t, 0, clock.Active())
	assert.NotNil(t, s.Target(), "stop keeps the stored target")
}

func TestPersistedTargetHonoredAfterRestart(t *testing.T) {
	clock := newFakeClock()
	missed := clock.Now().Add(-10 * time.Minute)
	store := &fakeStore{target: &missed}

	alerts := &countingStarter{}
	s := newTestScheduler(store, alerts, clock)
	require.NoError(t, s.Start())

	clock.Advance(time.Second)
	assert.Equal(t, 1, alerts.Starts())

	// A second run over the same store sees no target.
	s.Stop()
	restarted := newTestScheduler(store, alerts, clock)
	require.NoError(t, restarted.Start())
	clock.Advance(time.Minute)
	assert.Equal(t, 1, alerts.Starts())
	assert.False(t, restarted.Polling())
}

func TestStartWithoutTargetDoesNotPoll(t *testing.T) {
	clock := newFakeClock()
	s := newTestScheduler(&fakeStore{}, &countingStarter{}, clock)

	require.NoError(t, s.Start())
	assert.False(t, s.Polling())
	assert.Equal(t, 0, clock.Active())
}

func TestStrayTickAfterExternalClearDisarms(t *testing.T) {
	clock := newFakeClock()
	store := &fakeStore{}
	alerts := &countingStarter{}
	s := newTestScheduler(store, alerts, clock)

	require.NoError(t, s.SetTarget(clock.Now().Add(time.Hour)))
	require.NoError(t, store.SetReminderTarget(nil))

	clock.Advance(time.Second)

	assert.Equal(t, 0, alerts.Starts())
	assert.False(t, s.Polling())
	assert.Equal(t, 0, clock.Active())
}

func TestSetTargetPersistFailure(t *testing.T) {
	clock := newFakeClock()
	store := &fakeStore{err: errors.New("disk full")}
	s := newTestScheduler(store, &countingStarter{}, clock)

	err := s.SetTarget(clock.Now())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "set reminder")
	assert.False(t, s.Polling())
}

func TestExpiryStillAlertsWhenClearFailsToPersist(t *testing.T) {
	clock := newFakeClock()
	target := clock.Now()
	store := &fakeStore{target: &target}
	alerts := &countingStarter{}
	s := newTestScheduler(store, alerts, clock)
	require.NoError(t, s.Start())

	store.mu.Lock()
	store.err = errors.New("read-only")
	store.mu.Unlock()

	clock.Advance(3 * time.Second)
	assert.Equal(t, 1, alerts.Starts())
	assert.False(t, s.Polling())
	assert.Nil(t, s.Target(), "expired target stays cleared in memory")

	store.mu.Lock()
	store.err = nil
	store.mu.Unlock()

	require.NoError(t, s.Refresh())
	clock.Advance(3 * time.Second)
	assert.Equal(t, 1, alerts.Starts(), "the same reminder fires once")
}

func TestExpiryNotification(t *testing.T) {
	clock := newFakeClock()
	store := &fakeStore{}
	notifier := &fakeNotifier{permitted: true}
	s := newTestScheduler(store, &countingStarter{}, clock, WithNotifier(notifier, func() int { return 3 }))

	require.NoError(t, s.SetTarget(clock.Now()))
	clock.Advance(time.Second)
	s.Stop()

	assert.Equal(t, []string{"Time to go shopping! You have 3 items on your list."}, notifier.Bodies())
	assert.Equal(t, notificationTitle, notifier.titles[0])
}

func TestExpiryNotificationRequiresPermission(t *testing.T) {
	clock := newFakeClock()
	notifier := &fakeNotifier{}
	alerts := &countingStarter{}
	s := newTestScheduler(&fakeStore{}, alerts, clock, WithNotifier(notifier, func() int { return 1 }))

	require.NoError(t, s.SetTarget(clock.Now()))
	clock.Advance(time.Second)
	s.Stop()

	assert.Equal(t, 1, alerts.Starts())
	assert.Empty(t, notifier.Bodies())
}

func TestNotificationFailureDoesNotAffectExpiry(t *testing.T) {
	clock := newFakeClock()
	notifier := &fakeNotifier{permitted: true, err: errors.New("chat not found")}
	alerts := &countingStarter{}
	s := newTestScheduler(&fakeStore{}, alerts, clock, WithNotifier(notifier, func() int { return 0 }))

	require.NoError(t, s.SetTarget(clock.Now()))
	clock.Advance(time.Second)
	s.Stop()

	assert.Equal(t, 1, alerts.Starts())
	assert.Nil(t, s.Target())
	assert.Len(t, notifier.Bodies(), 1)
}

func TestNotificationBody(t *testing.T) {
	assert.Equal(t, "Time to go shopping! Your list is empty.", notificationBody(0))
	assert.Equal(t, "Time to go shopping! You have 1 item on your list.", notificationBody(1))
	assert.Equal(t, "Time to go shopping! You have 12 items on your list.", notificationBody(12))
}
