package reminder

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// State of the alert loop.
type State int

const (
	Idle State = iota
	Sounding
)

func (s State) String() string {
	if s == Sounding {
		return "sounding"
	}
	return "idle"
}

// Controller repeats tone and vibration pulses until dismissed. It owns the
// loop timer and, through the tone player, the audio resource.
type Controller struct {
	tone      TonePlayer
	haptic    Buzzer
	prefs     PreferenceSource
	timers    Timers
	indicator Indicator
	interval  time.Duration
	logger    *zap.SugaredLogger

	mu         sync.Mutex
	state      State
	cancelLoop func()
	pulses     int
}

// ControllerOption customises a Controller.
type ControllerOption func(*Controller)

// WithPulseInterval overrides DefaultPulseInterval.
func WithPulseInterval(d time.Duration) ControllerOption {
	return func(c *Controller) {
		if d > 0 {
			c.interval = d
		}
	}
}

// WithIndicator sets the visible alert marker.
func WithIndicator(i Indicator) ControllerOption {
	return func(c *Controller) { c.indicator = i }
}

func NewController(tone TonePlayer, haptic Buzzer, prefs PreferenceSource, timers Timers, logger *zap.SugaredLogger, opts ...ControllerOption) *Controller {
	c := &Controller{
		tone:     tone,
		haptic:   haptic,
		prefs:    prefs,
		timers:   timers,
		interval: DefaultPulseInterval,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Start enters Sounding: one pulse right away, then one per interval.
// A second Start while sounding is a no-op.
func (c *Controller) Start() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == Sounding {
		return
	}
	c.state = Sounding
	c.pulses = 0
	c.logger.Infow("alert started")

	c.guard("show indicator", func() {
		if c.indicator != nil {
			c.indicator.Show()
		}
	})
	c.pulseLocked()

	cancel, err := c.timers.Every(c.interval, c.pulse)
	if err != nil {
		// The first pulse already went out; keep Sounding so Dismiss still
		// releases the indicator and audio.
		c.logger.Errorw("start alert loop", "error", err)
		return
	}
	c.cancelLoop = cancel
}

// Dismiss returns to Idle, stopping the loop and releasing the audio
// resource. Safe to call when idle.
func (c *Controller) Dismiss() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == Idle {
		return
	}
	if c.cancelLoop != nil {
		c.cancelLoop()
		c.cancelLoop = nil
	}
	c.guard("release audio", c.tone.Release)
	c.guard("clear indicator", func() {
		if c.indicator != nil {
			c.indicator.Clear()
		}
	})
	c.state = Idle
	c.logger.Infow("alert dismissed", "pulses", c.pulses)
}

// Close is teardown; it dismisses any active alert.
func (c *Controller) Close() {
	c.Dismiss()
}

// State reports the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Pulses counts the pulses of the current or last alert.
func (c *Controller) Pulses() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pulses
}

func (c *Controller) pulse() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != Sounding {
		return
	}
	c.pulseLocked()
}

func (c *Controller) pulseLocked() {
	prefs := c.prefs.AlertPreferences()
	if prefs.Sound {
		c.guard("play tone", c.tone.Play)
	}
	if prefs.Vibration {
		c.guard("vibrate", c.haptic.Buzz)
	}
	c.pulses++
}

func (c *Controller) guard(op string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Errorw("alert capability panicked", "op", op, "panic", r)
		}
	}()
	fn()
}
