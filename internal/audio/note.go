// Package audio synthesizes the reminder melody and plays it through a
// host audio output.
package audio

import "time"

// Note is one sine tone scheduled relative to the start of a melody.
type Note struct {
	Frequency float64 // Hz
	Offset    time.Duration
	Duration  time.Duration
}

// ReminderMelody is a C-major arpeggio: C5, E5, G5, C6.
var ReminderMelody = []Note{
	{Frequency: 523.25, Offset: 0, Duration: 400 * time.Millisecond},
	{Frequency: 659.25, Offset: 250 * time.Millisecond, Duration: 400 * time.Millisecond},
	{Frequency: 783.99, Offset: 500 * time.Millisecond, Duration: 400 * time.Millisecond},
	{Frequency: 1046.50, Offset: 750 * time.Millisecond, Duration: 600 * time.Millisecond},
}

// Envelope shaping applied to every note.
const (
	PeakGain   = 0.3
	FloorGain  = 0.001
	AttackTime = 50 * time.Millisecond
)

// DefaultSampleRate is used when none is configured.
const DefaultSampleRate = 44100

// Length is the time from the first note's start to the last note's end.
func Length(notes []Note) time.Duration {
	var end time.Duration
	for _, n := range notes {
		if e := n.Offset + n.Duration; e > end {
			end = e
		}
	}
	return end
}
