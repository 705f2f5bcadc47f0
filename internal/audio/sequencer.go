package audio

import (
	"errors"
	"sync"

	"go.uber.org/zap"
)

// Sequencer plays the reminder melody. The output context is opened on the
// first Play, reused by later calls, and closed by Release.
type Sequencer struct {
	open       Opener
	notes      []Note
	sampleRate int
	logger     *zap.SugaredLogger

	mu     sync.Mutex
	out    Context
	pcm    []int16
	writes sync.WaitGroup
}

func NewSequencer(open Opener, sampleRate int, logger *zap.SugaredLogger) *Sequencer {
	if open == nil {
		open = Unavailable
	}
	if sampleRate <= 0 {
		sampleRate = DefaultSampleRate
	}
	return &Sequencer{
		open:       open,
		notes:      ReminderMelody,
		sampleRate: sampleRate,
		logger:     logger,
	}
}

// Play schedules the melody and returns immediately. Failures are logged.
func (s *Sequencer) Play() {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Errorw("tone playback panicked", "panic", r)
		}
	}()

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.out == nil || s.out.Closed() {
		if s.out != nil {
			s.out.Close()
			s.out = nil
		}
		out, err := s.open()
		if err != nil {
			s.logger.Warnw("open audio output", "error", err)
			return
		}
		s.out = out
	}
	if s.pcm == nil {
		s.pcm = Render(s.notes, s.sampleRate)
	}

	out, pcm := s.out, s.pcm
	s.writes.Add(1)
	go func() {
		defer s.writes.Done()
		if err := out.Write(pcm); err != nil && !errors.Is(err, ErrClosed) {
			s.logger.Warnw("play tone", "error", err)
		}
	}()
}

// Release closes the output context if one is open.
func (s *Sequencer) Release() {
	s.mu.Lock()
	out := s.out
	s.out = nil
	s.mu.Unlock()

	if out == nil {
		return
	}
	if err := out.Close(); err != nil {
		s.logger.Warnw("close audio output", "error", err)
	}
}

// Open reports whether an output context is held.
func (s *Sequencer) Open() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.out != nil
}

// Wait blocks until scheduled writes have finished.
func (s *Sequencer) Wait() {
	s.writes.Wait()
}

// WAV returns the melody as a WAV file.
func (s *Sequencer) WAV() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pcm == nil {
		s.pcm = Render(s.notes, s.sampleRate)
	}
	return EncodeWAV(s.pcm, s.sampleRate)
}
