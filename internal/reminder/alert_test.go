package reminder

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"smart-grocery/internal/audio"
)

type alertRig struct {
	clock     *fakeClock
	tone      *fakeTone
	buzzer    *fakeBuzzer
	prefs     *livePrefs
	indicator *fakeIndicator
	ctrl      *Controller
}

func newAlertRig() *alertRig {
	r := &alertRig{
		clock:     newFakeClock(),
		tone:      &fakeTone{},
		buzzer:    &fakeBuzzer{},
		prefs:     &livePrefs{},
		indicator: &fakeIndicator{},
	}
	r.prefs.set(true, true)
	r.ctrl = NewController(r.tone, r.buzzer, r.prefs, r.clock, zap.NewNop().Sugar(), WithIndicator(r.indicator))
	return r
}

func TestStartPulsesImmediatelyThenOnCadence(t *testing.T) {
	r := newAlertRig()

	r.ctrl.Start()
	assert.Equal(t, Sounding, r.ctrl.State())
	plays, _ := r.tone.counts()
	assert.Equal(t, 1, plays)
	assert.Equal(t, 1, r.buzzer.count())

	r.clock.Advance(2 * time.Second)
	assert.Equal(t, 1, r.ctrl.Pulses())

	r.clock.Advance(time.Second)
	assert.Equal(t, 2, r.ctrl.Pulses())

	r.clock.Advance(6 * time.Second)
	assert.Equal(t, 4, r.ctrl.Pulses())
	plays, _ = r.tone.counts()
	assert.Equal(t, 4, plays)
	assert.Equal(t, 4, r.buzzer.count())
}

func TestStartWhileSoundingIsNoop(t *testing.T) {
	r := newAlertRig()

	r.ctrl.Start()
	r.ctrl.Start()

	assert.Equal(t, 1, r.clock.Active())
	assert.Equal(t, 1, r.ctrl.Pulses())
	assert.Equal(t, 1, r.indicator.shown)
}

func TestDismissStopsLoopAndReleasesAudio(t *testing.T) {
	r := newAlertRig()
	r.ctrl.Start()
	r.clock.Advance(3 * time.Second)

	r.ctrl.Dismiss()

	assert.Equal(t, Idle, r.ctrl.State())
	assert.Equal(t, 0, r.clock.Active())
	_, releases := r.tone.counts()
	assert.Equal(t, 1, releases)
	assert.Equal(t, 1, r.indicator.cleared)

	r.clock.Advance(time.Minute)
	assert.Equal(t, 2, r.ctrl.Pulses(), "no pulses after dismiss")
}

func TestDismissIsIdempotent(t *testing.T) {
	r := newAlertRig()

	assert.NotPanics(t, r.ctrl.Dismiss, "dismiss while idle")
	_, releases := r.tone.counts()
	assert.Equal(t, 0, releases)

	r.ctrl.Start()
	r.ctrl.Dismiss()
	r.ctrl.Dismiss()
	r.ctrl.Close()

	_, releases = r.tone.counts()
	assert.Equal(t, 1, releases)
	assert.Equal(t, 1, r.indicator.cleared)
	assert.Equal(t, Idle, r.ctrl.State())
}

func TestPreferencesAreReadEveryPulse(t *testing.T) {
	r := newAlertRig()
	r.prefs.set(true, false)

	r.ctrl.Start()
	plays, _ := r.tone.counts()
	assert.Equal(t, 1, plays)
	assert.Equal(t, 0, r.buzzer.count())

	r.prefs.set(false, true)
	r.clock.Advance(3 * time.Second)

	plays, _ = r.tone.counts()
	assert.Equal(t, 1, plays, "sound disabled mid-alert")
	assert.Equal(t, 1, r.buzzer.count(), "vibration enabled mid-alert")
	assert.Equal(t, 2, r.ctrl.Pulses())
}

func TestSilentPreferencesStillSound(t *testing.T) {
	r := newAlertRig()
	r.prefs.set(false, false)

	r.ctrl.Start()
	r.clock.Advance(3 * time.Second)

	assert.Equal(t, Sounding, r.ctrl.State())
	assert.Equal(t, 2, r.ctrl.Pulses())
	plays, _ := r.tone.counts()
	assert.Equal(t, 0, plays)
	assert.Equal(t, 0, r.buzzer.count())
}

func TestCapabilityPanicDoesNotBreakLoop(t *testing.T) {
	r := newAlertRig()
	r.tone.panics = true

	assert.NotPanics(t, r.ctrl.Start)
	r.clock.Advance(3 * time.Second)

	assert.Equal(t, 2, r.buzzer.count())
	assert.Equal(t, Sounding, r.ctrl.State())
}

func TestLoopTimerFailureKeepsSounding(t *testing.T) {
	r := newAlertRig()
	r.clock.fail = errTimers

	r.ctrl.Start()
	assert.Equal(t, Sounding, r.ctrl.State())
	assert.Equal(t, 1, r.ctrl.Pulses())

	r.ctrl.Dismiss()
	_, releases := r.tone.counts()
	assert.Equal(t, 1, releases)
	assert.Equal(t, Idle, r.ctrl.State())
}

func TestRestartAfterDismissResetsPulses(t *testing.T) {
	r := newAlertRig()
	r.ctrl.Start()
	r.clock.Advance(6 * time.Second)
	r.ctrl.Dismiss()
	assert.Equal(t, 3, r.ctrl.Pulses())

	r.ctrl.Start()
	assert.Equal(t, 1, r.ctrl.Pulses())
	assert.Equal(t, 1, r.clock.Active())
	r.ctrl.Dismiss()
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "idle", Idle.String())
	assert.Equal(t, "sounding", Sounding.String())
}

func TestReminderEndToEnd(t *testing.T) {
	r := newAlertRig()
	store := &fakeStore{}
	s := newTestScheduler(store, r.ctrl, r.clock)

	require.NoError(t, s.SetTarget(r.clock.Now().Add(time.Second)))
	r.clock.Advance(2 * time.Second)

	plays, _ := r.tone.counts()
	assert.Equal(t, 1, plays)
	assert.Equal(t, 1, r.buzzer.count())
	assert.Nil(t, s.Target())
	assert.Equal(t, Sounding, r.ctrl.State())
	assert.Equal(t, 1, r.clock.Active(), "only the pulse loop remains")

	r.clock.Advance(9 * time.Second)
	assert.Equal(t, 4, r.ctrl.Pulses())

	r.ctrl.Dismiss()
	r.clock.Advance(time.Minute)

	assert.Equal(t, 4, r.ctrl.Pulses())
	_, releases := r.tone.counts()
	assert.Equal(t, 1, releases)
	assert.Equal(t, 0, r.clock.Active())
}

// countingDevice tracks how many audio contexts are open at once.
type countingDevice struct {
	mu      sync.Mutex
	live    int
	maxLive int
	opens   int
}

func (d *countingDevice) open() (audio.Context, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.live++
	d.opens++
	if d.live > d.maxLive {
		d.maxLive = d.live
	}
	return &countingContext{dev: d}, nil
}

type countingContext struct {
	dev    *countingDevice
	mu     sync.Mutex
	closed bool
}

func (c *countingContext) Write([]int16) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return audio.ErrClosed
	}
	return nil
}

func (c *countingContext) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	c.dev.mu.Lock()
	c.dev.live--
	c.dev.mu.Unlock()
	return nil
}

func (c *countingContext) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func TestAudioResourceHygieneAcrossCycles(t *testing.T) {
	clock := newFakeClock()
	dev := &countingDevice{}
	logger := zap.NewNop().Sugar()
	seq := audio.NewSequencer(dev.open, 8000, logger)
	prefs := &livePrefs{}
	prefs.set(true, true)

	ctrl := NewController(seq, &fakeBuzzer{}, prefs, clock, logger)
	s := NewScheduler(&fakeStore{}, ctrl, clock, logger, WithClock(clock.Now))

	for i := 0; i < 10; i++ {
		require.NoError(t, s.SetTarget(clock.Now().Add(time.Second)))
		clock.Advance(time.Second)
		require.Equal(t, Sounding, ctrl.State(), "cycle %d", i)

		clock.Advance(7 * time.Second)
		ctrl.Dismiss()
		seq.Wait()

		dev.mu.Lock()
		assert.Equal(t, 0, dev.live, "cycle %d", i)
		dev.mu.Unlock()
	}

	assert.Equal(t, 1, dev.maxLive)
	assert.Equal(t, 10, dev.opens)
	assert.False(t, seq.Open())
	assert.Equal(t, 0, clock.Active())
}
