package audio

import (
	"math"
	"time"
)

// Render mixes notes into signed 16-bit mono PCM. Each note rises linearly
// from silence to PeakGain over AttackTime and then decays exponentially
// to FloorGain at its end.
func Render(notes []Note, sampleRate int) []int16 {
	if sampleRate <= 0 {
		sampleRate = DefaultSampleRate
	}
	total := samplesFor(Length(notes), sampleRate)
	mix := make([]float64, total)

	for _, n := range notes {
		start := samplesFor(n.Offset, sampleRate)
		length := samplesFor(n.Duration, sampleRate)
		for i := 0; i < length && start+i < total; i++ {
			t := float64(i) / float64(sampleRate)
			mix[start+i] += envelope(t, n.Duration.Seconds()) * math.Sin(2*math.Pi*n.Frequency*t)
		}
	}

	pcm := make([]int16, total)
	for i, v := range mix {
		if v > 1 {
			v = 1
		} else if v < -1 {
			v = -1
		}
		pcm[i] = int16(math.Round(v * math.MaxInt16))
	}
	return pcm
}

// envelope returns the gain at t seconds into a note lasting d seconds.
func envelope(t, d float64) float64 {
	attack := AttackTime.Seconds()
	if t <= attack {
		return PeakGain * t / attack
	}
	if d <= attack {
		return PeakGain
	}
	// Exponential ramp from PeakGain at the end of the attack to FloorGain at d.
	progress := (t - attack) / (d - attack)
	if progress > 1 {
		progress = 1
	}
	return PeakGain * math.Pow(FloorGain/PeakGain, progress)
}

func samplesFor(d time.Duration, sampleRate int) int {
	return int(math.Round(d.Seconds() * float64(sampleRate)))
}
