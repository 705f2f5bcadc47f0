package reminder

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	notificationTitle   = "🛒 Smart Grocery reminder"
	notificationTimeout = 10 * time.Second
)

// Scheduler polls the wall clock while a target is pending and starts the
// alert once the target has passed.
type Scheduler struct {
	store    TargetStore
	alerts   AlertStarter
	notifier Notifier
	pending  func() int
	timers   Timers
	interval time.Duration
	now      func() time.Time
	logger   *zap.SugaredLogger

	mu         sync.Mutex
	cancelPoll func()
	notifyWG   sync.WaitGroup
}

// SchedulerOption customises a Scheduler.
type SchedulerOption func(*Scheduler)

// WithPollInterval overrides DefaultPollInterval.
func WithPollInterval(d time.Duration) SchedulerOption {
	return func(s *Scheduler) {
		if d > 0 {
			s.interval = d
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) SchedulerOption {
	return func(s *Scheduler) { s.now = now }
}

// WithNotifier enables the expiry notification; pending reports the list
// size placed in its body.
func WithNotifier(n Notifier, pending func() int) SchedulerOption {
	return func(s *Scheduler) {
		s.notifier = n
		s.pending = pending
	}
}

func NewScheduler(store TargetStore, alerts AlertStarter, timers Timers, logger *zap.SugaredLogger, opts ...SchedulerOption) *Scheduler {
	s := &Scheduler{
		store:    store,
		alerts:   alerts,
		timers:   timers,
		interval: DefaultPollInterval,
		now:      time.Now,
		logger:   logger,
		pending:  func() int { return 0 },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start arms the poll for a target persisted by a previous run. A target
// that passed while the app was closed fires on the first tick.
func (s *Scheduler) Start() error {
	return s.Refresh()
}

// Refresh re-establishes the poll from the stored target, replacing any
// running poll timer. Call it after the state is reloaded or wiped.
func (s *Scheduler) Refresh() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rearmLocked()
}

// SetTarget stores at, overwriting any prior target.
func (s *Scheduler) SetTarget(at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.SetReminderTarget(&at); err != nil {
		return fmt.Errorf("set reminder: %w", err)
	}
	s.logger.Infow("reminder set", "at", at.Format(time.RFC3339))
	return s.rearmLocked()
}

// ClearTarget removes the pending target. Safe without one.
func (s *Scheduler) ClearTarget() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.disarmLocked()
	if s.store.ReminderTarget() == nil {
		return nil
	}
	if err := s.store.ClearReminderTarget(); err != nil {
		return fmt.Errorf("clear reminder: %w", err)
	}
	s.logger.Infow("reminder cleared")
	return nil
}

// Target returns the pending target, if any.
func (s *Scheduler) Target() *time.Time {
	return s.store.ReminderTarget()
}

// Polling reports whether the poll timer is armed.
func (s *Scheduler) Polling() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cancelPoll != nil
}

// Stop tears the poll timer down and waits for in-flight notifications.
// The stored target is kept for the next Start.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	s.disarmLocked()
	s.mu.Unlock()
	s.notifyWG.Wait()
}

func (s *Scheduler) rearmLocked() error {
	s.disarmLocked()
	if s.store.ReminderTarget() == nil {
		return nil
	}
	cancel, err := s.timers.Every(s.interval, s.tick)
	if err != nil {
		return fmt.Errorf("start reminder poll: %w", err)
	}
	s.cancelPoll = cancel
	return nil
}

func (s *Scheduler) disarmLocked() {
	if s.cancelPoll != nil {
		s.cancelPoll()
		s.cancelPoll = nil
	}
}

func (s *Scheduler) tick() {
	s.mu.Lock()
	target := s.store.ReminderTarget()
	if target == nil {
		s.disarmLocked()
		s.mu.Unlock()
		return
	}
	if s.now().Before(*target) {
		s.mu.Unlock()
		return
	}

	s.disarmLocked()
	if err := s.store.ClearReminderTarget(); err != nil {
		s.logger.Errorw("persist cleared reminder", "error", err)
	}
	count := s.pending()
	s.mu.Unlock()

	s.logger.Infow("reminder expired", "target", target.Format(time.RFC3339), "pending_items", count)
	s.alerts.Start()
	s.notify(count)
}

func (s *Scheduler) notify(count int) {
	if s.notifier == nil {
		return
	}
	s.notifyWG.Add(1)
	go func() {
		defer s.notifyWG.Done()
		defer func() {
			if r := recover(); r != nil {
				s.logger.Errorw("notification panicked", "panic", r)
			}
		}()
		if !s.notifier.Permitted() {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), notificationTimeout)
		defer cancel()
		if err := s.notifier.Notify(ctx, notificationTitle, notificationBody(count)); err != nil {
			s.logger.Warnw("send reminder notification", "error", err)
		}
	}()
}

func notificationBody(count int) string {
	switch count {
	case 0:
		return "Time to go shopping! Your list is empty."
	case 1:
		return "Time to go shopping! You have 1 item on your list."
	default:
		return fmt.Sprintf("Time to go shopping! You have %d items on your list.", count)
	}
}
