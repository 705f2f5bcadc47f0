package reminder

import (
	"context"
	"errors"
	"sync"
	"time"
)

// fakeClock is a virtual clock whose timers fire only inside Advance.
type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	timers []*fakeTimer
	fail   error
}

type fakeTimer struct {
	interval time.Duration
	next     time.Time
	fn       func()
	stopped  bool
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 5, 1, 9, 0, 0, 0, time.Local)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Every(d time.Duration, fn func()) (func(), error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fail != nil {
		return nil, c.fail
	}
	t := &fakeTimer{interval: d, next: c.now.Add(d), fn: fn}
	c.timers = append(c.timers, t)
	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		t.stopped = true
	}, nil
}

// Advance moves the clock forward, firing due timers in order. Callbacks
// run without the clock lock so they may cancel or start timers.
func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	end := c.now.Add(d)
	for {
		var due *fakeTimer
		for _, t := range c.timers {
			if t.stopped || t.next.After(end) {
				continue
			}
			if due == nil || t.next.Before(due.next) {
				due = t
			}
		}
		if due == nil {
			break
		}
		c.now = due.next
		due.next = due.next.Add(due.interval)
		c.mu.Unlock()
		due.fn()
		c.mu.Lock()
	}
	c.now = end
	c.mu.Unlock()
}

// Active counts timers that have not been cancelled.
func (c *fakeClock) Active() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, t := range c.timers {
		if !t.stopped {
			n++
		}
	}
	return n
}

type fakeStore struct {
	mu     sync.Mutex
	target *time.Time
	err    error
	writes int
}

func (s *fakeStore) ReminderTarget() *time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.target == nil {
		return nil
	}
	t := *s.target
	return &t
}

func (s *fakeStore) SetReminderTarget(t *time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writes++
	if s.err != nil {
		return s.err
	}
	if t == nil {
		s.target = nil
		return nil
	}
	v := *t
	s.target = &v
	return nil
}

func (s *fakeStore) ClearReminderTarget() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writes++
	s.target = nil
	return s.err
}

type countingStarter struct {
	mu     sync.Mutex
	starts int
}

func (c *countingStarter) Start() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.starts++
}

func (c *countingStarter) Starts() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.starts
}

type fakeNotifier struct {
	mu        sync.Mutex
	permitted bool
	err       error
	titles    []string
	bodies    []string
}

func (n *fakeNotifier) Permitted() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.permitted
}

func (n *fakeNotifier) Notify(_ context.Context, title, body string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.titles = append(n.titles, title)
	n.bodies = append(n.bodies, body)
	return n.err
}

func (n *fakeNotifier) Bodies() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.bodies...)
}

type fakeTone struct {
	mu       sync.Mutex
	plays    int
	releases int
	panics   bool
}

func (t *fakeTone) Play() {
	t.mu.Lock()
	t.plays++
	panics := t.panics
	t.mu.Unlock()
	if panics {
		panic("audio context lost")
	}
}

func (t *fakeTone) Release() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.releases++
}

func (t *fakeTone) counts() (plays, releases int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.plays, t.releases
}

type fakeBuzzer struct {
	mu    sync.Mutex
	buzzs int
}

func (b *fakeBuzzer) Buzz() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.buzzs++
}

func (b *fakeBuzzer) count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buzzs
}

type livePrefs struct {
	mu    sync.Mutex
	prefs AlertPreferences
}

func (p *livePrefs) AlertPreferences() AlertPreferences {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.prefs
}

func (p *livePrefs) set(sound, vibration bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.prefs = AlertPreferences{Sound: sound, Vibration: vibration}
}

type fakeIndicator struct {
	mu      sync.Mutex
	shown   int
	cleared int
}

func (i *fakeIndicator) Show() {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.shown++
}

func (i *fakeIndicator) Clear() {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.cleared++
}

var errTimers = errors.New("timers unavailable")
