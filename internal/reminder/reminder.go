// Package reminder schedules the shopping reminder and drives the alert loop
// that repeats until the user dismisses it.
//
// Both components take their timers from a Timers implementation and hold
// the cancel funcs as fields, so every timer they start is stopped on each
// exit path. Capability failures (audio, vibration, notification) are logged
// and never reach the caller.
package reminder

import (
	"context"
	"time"
)

// Default poll period and pulse cadence.
const (
	DefaultPollInterval  = time.Second
	DefaultPulseInterval = 3 * time.Second
)

// Timers starts repeating callbacks. The returned cancel func stops the
// timer and is safe to call more than once.
type Timers interface {
	Every(d time.Duration, fn func()) (cancel func(), err error)
}

// TargetStore persists the single optional reminder target.
type TargetStore interface {
	ReminderTarget() *time.Time
	SetReminderTarget(t *time.Time) error
	// ClearReminderTarget drops the target even when persisting the
	// change fails; the error only reports the failed save.
	ClearReminderTarget() error
}

// AlertPreferences gate the channels of each pulse.
type AlertPreferences struct {
	Sound     bool
	Vibration bool
}

// PreferenceSource is read at every pulse, never snapshotted.
type PreferenceSource interface {
	AlertPreferences() AlertPreferences
}

// Notifier is the permission-gated native notification channel.
type Notifier interface {
	Permitted() bool
	Notify(ctx context.Context, title, body string) error
}

// TonePlayer plays the alert melody and owns the audio resource.
type TonePlayer interface {
	Play()
	Release()
}

// Buzzer issues one vibration pattern.
type Buzzer interface {
	Buzz()
}

// Indicator is the visible "alert is sounding" marker.
type Indicator interface {
	Show()
	Clear()
}

// AlertStarter is what the scheduler hands off to on expiry.
type AlertStarter interface {
	Start()
}
