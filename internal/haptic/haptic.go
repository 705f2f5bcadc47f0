// Package haptic issues the reminder vibration pattern on hosts that have a
// vibration capability.
package haptic

import (
	"io"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Pattern alternates on and off segments, starting with on.
var Pattern = []time.Duration{
	300 * time.Millisecond,
	100 * time.Millisecond,
	300 * time.Millisecond,
	100 * time.Millisecond,
	500 * time.Millisecond,
}

// Vibrator is a device that can play an on/off pattern.
type Vibrator interface {
	Vibrate(pattern []time.Duration) error
}

// Pulse forwards Pattern to an optional device.
type Pulse struct {
	device Vibrator
	logger *zap.SugaredLogger
}

// New returns a Pulse. A nil device makes Buzz a no-op.
func New(device Vibrator, logger *zap.SugaredLogger) *Pulse {
	return &Pulse{device: device, logger: logger}
}

func (p *Pulse) Buzz() {
	if p.device == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			p.logger.Errorw("vibration panicked", "panic", r)
		}
	}()
	if err := p.device.Vibrate(Pattern); err != nil {
		p.logger.Warnw("vibrate", "error", err)
	}
}

// Bell rings the terminal bell at the start of every on segment.
type Bell struct {
	mu sync.Mutex
	w  io.Writer
}

func NewBell(w io.Writer) *Bell {
	return &Bell{w: w}
}

// Vibrate writes the first bell immediately and schedules the rest.
func (b *Bell) Vibrate(pattern []time.Duration) error {
	var offset time.Duration
	for i, d := range pattern {
		if i%2 == 0 {
			if offset == 0 {
				if err := b.ring(); err != nil {
					return err
				}
			} else {
				time.AfterFunc(offset, func() { b.ring() })
			}
		}
		offset += d
	}
	return nil
}

func (b *Bell) ring() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, err := io.WriteString(b.w, "\a")
	return err
}
