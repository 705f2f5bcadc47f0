package audio

import (
	"encoding/binary"
	"errors"
	"math"
	"os/exec"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeContext struct {
	mu     sync.Mutex
	writes int
	closed bool
}

func (f *fakeContext) Write(pcm []int16) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return ErrClosed
	}
	f.writes++
	return nil
}

func (f *fakeContext) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeContext) Closed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

type fakeDevice struct {
	mu       sync.Mutex
	opened   []*fakeContext
	failWith error
}

func (d *fakeDevice) open() (Context, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.failWith != nil {
		return nil, d.failWith
	}
	c := &fakeContext{}
	d.opened = append(d.opened, c)
	return c, nil
}

func (d *fakeDevice) live() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	n := 0
	for _, c := range d.opened {
		if !c.Closed() {
			n++
		}
	}
	return n
}

func TestLength(t *testing.T) {
	assert.Equal(t, 1350*time.Millisecond, Length(ReminderMelody))
}

func TestRenderEnvelope(t *testing.T) {
	const rate = 8000
	pcm := Render([]Note{{Frequency: 440, Duration: 400 * time.Millisecond}}, rate)
	require.Len(t, pcm, 3200)

	assert.Equal(t, int16(0), pcm[0], "attack starts from silence")

	peak := 0
	for _, s := range pcm[:400] {
		if v := int(math.Abs(float64(s))); v > peak {
			peak = v
		}
	}
	assert.InDelta(t, PeakGain*math.MaxInt16, peak, 0.05*math.MaxInt16)

	for _, s := range pcm[len(pcm)-40:] {
		assert.LessOrEqual(t, math.Abs(float64(s)), 0.002*math.MaxInt16, "decays to near silence")
	}
}

func TestEnvelope(t *testing.T) {
	assert.InDelta(t, 0, envelope(0, 0.4), 1e-9)
	assert.InDelta(t, PeakGain/2, envelope(0.025, 0.4), 1e-9)
	assert.InDelta(t, PeakGain, envelope(0.05, 0.4), 1e-9)
	assert.InDelta(t, FloorGain, envelope(0.4, 0.4), 1e-9)
	assert.Less(t, envelope(0.3, 0.4), envelope(0.2, 0.4))
}

func TestRenderMelodyStaggersNotes(t *testing.T) {
	const rate = 8000
	pcm := Render(ReminderMelody, rate)
	assert.Len(t, pcm, 10800)
	// The last note starts at 0.75s and is the only one sounding after 0.9s.
	assert.NotZero(t, pcm[int(0.95*rate)])
}

func TestEncodeWAV(t *testing.T) {
	pcm := []int16{0, 1000, -1000}
	wav := EncodeWAV(pcm, 8000)

	require.Len(t, wav, 44+6)
	assert.Equal(t, "RIFF", string(wav[0:4]))
	assert.Equal(t, "WAVE", string(wav[8:12]))
	assert.Equal(t, uint32(8000), binary.LittleEndian.Uint32(wav[24:28]))
	assert.Equal(t, uint32(6), binary.LittleEndian.Uint32(wav[40:44]))
	assert.Equal(t, int16(-1000), int16(binary.LittleEndian.Uint16(wav[48:50])))
}

func TestSequencerReusesAndReleasesContext(t *testing.T) {
	dev := &fakeDevice{}
	seq := NewSequencer(dev.open, 8000, zap.NewNop().Sugar())

	seq.Play()
	seq.Play()
	seq.Wait()

	require.Len(t, dev.opened, 1)
	assert.Equal(t, 2, dev.opened[0].writes)
	assert.True(t, seq.Open())

	seq.Release()
	assert.False(t, seq.Open())
	assert.Equal(t, 0, dev.live())
	seq.Release()

	seq.Play()
	seq.Wait()
	assert.Len(t, dev.opened, 2)
	assert.Equal(t, 1, dev.live())
	seq.Release()
}

func TestSequencerReopensClosedContext(t *testing.T) {
	dev := &fakeDevice{}
	seq := NewSequencer(dev.open, 8000, zap.NewNop().Sugar())

	seq.Play()
	seq.Wait()
	dev.opened[0].Close()

	seq.Play()
	seq.Wait()
	assert.Len(t, dev.opened, 2)
	assert.Equal(t, 1, dev.live())
}

func TestSequencerSwallowsOpenFailure(t *testing.T) {
	dev := &fakeDevice{failWith: errors.New("denied")}
	seq := NewSequencer(dev.open, 8000, zap.NewNop().Sugar())

	assert.NotPanics(t, seq.Play)
	assert.False(t, seq.Open())

	unavailable := NewSequencer(nil, 0, zap.NewNop().Sugar())
	assert.NotPanics(t, unavailable.Play)
	assert.NotEmpty(t, unavailable.WAV())
}

func TestCommandOpenerMissingBinary(t *testing.T) {
	_, err := CommandOpener("definitely-not-an-audio-player")()
	assert.Error(t, err)
}

func TestCommandContextCloseDuringWrite(t *testing.T) {
	if _, err := exec.LookPath("sleep"); err != nil {
		t.Skip("sleep not available")
	}
	// sleep never reads stdin, so a melody larger than the pipe buffer blocks.
	ctx, err := CommandOpener("sleep", "30")()
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- ctx.Write(Render(ReminderMelody, DefaultSampleRate)) }()

	time.Sleep(100 * time.Millisecond)
	require.NoError(t, ctx.Close())

	select {
	case err := <-done:
		assert.ErrorIs(t, err, ErrClosed)
	case <-time.After(5 * time.Second):
		t.Fatal("write did not return after close")
	}
	assert.True(t, ctx.Closed())
}
