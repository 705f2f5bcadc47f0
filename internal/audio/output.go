package audio

import (
	"errors"
	"fmt"
	"io"
	"os/exec"
	"sync"
	"sync/atomic"
)

// ErrUnavailable is returned by openers when the host has no audio output.
var ErrUnavailable = errors.New("audio: output unavailable")

// ErrClosed is returned when writing to a closed context.
var ErrClosed = errors.New("audio: context closed")

// Context is an open audio output.
type Context interface {
	// Write plays pcm, blocking until the samples are handed to the device.
	Write(pcm []int16) error
	Close() error
	Closed() bool
}

// Opener creates a Context.
type Opener func() (Context, error)

// Unavailable is the opener used when audio output is disabled.
func Unavailable() (Context, error) {
	return nil, ErrUnavailable
}

// CommandOpener starts name with args for every context and streams raw
// little-endian PCM into its stdin, e.g. "aplay -q -t raw -f S16_LE -c 1 -r 44100 -".
func CommandOpener(name string, args ...string) Opener {
	return func() (Context, error) {
		cmd := exec.Command(name, args...)
		stdin, err := cmd.StdinPipe()
		if err != nil {
			return nil, fmt.Errorf("audio pipe: %w", err)
		}
		if err := cmd.Start(); err != nil {
			return nil, fmt.Errorf("start audio player %q: %w", name, err)
		}
		out := &commandContext{cmd: cmd, stdin: stdin, done: make(chan struct{})}
		go func() {
			cmd.Wait()
			close(out.done)
		}()
		return out, nil
	}
}

type commandContext struct {
	cmd   *exec.Cmd
	stdin io.WriteCloser
	done  chan struct{}

	writeMu sync.Mutex
	closed  atomic.Bool
}

func (c *commandContext) Write(pcm []int16) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if c.Closed() {
		return ErrClosed
	}
	if _, err := c.stdin.Write(PCMBytes(pcm)); err != nil {
		if c.closed.Load() {
			return ErrClosed
		}
		return fmt.Errorf("write audio: %w", err)
	}
	return nil
}

// Close does not wait for an in-flight Write; closing stdin and killing the
// player unblocks it.
func (c *commandContext) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}
	c.stdin.Close()
	if !c.exited() && c.cmd.Process != nil {
		c.cmd.Process.Kill()
	}
	<-c.done
	return nil
}

func (c *commandContext) Closed() bool {
	return c.closed.Load() || c.exited()
}

func (c *commandContext) exited() bool {
	select {
	case <-c.done:
		return true
	default:
		return false
	}
}
