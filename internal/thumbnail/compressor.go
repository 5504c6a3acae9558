package thumbnail

import (
	"sync"
	"time"
)

// Compressor collapses bursts of signals. The first Trigger of a burst calls
// fn at once; triggers arriving within interval after that are folded into a
// single call at the end of the interval.
type Compressor struct {
	interval time.Duration
	fn       func()

	mu      sync.Mutex
	timer   *time.Timer
	pending bool
	stopped bool
}

func NewCompressor(interval time.Duration, fn func()) *Compressor {
	return &Compressor{interval: interval, fn: fn}
}

func (c *Compressor) Trigger() {
	c.mu.Lock()
	if c.stopped {
		c.mu.Unlock()
		return
	}
	if c.timer != nil {
		c.pending = true
		c.mu.Unlock()
		return
	}
	c.timer = time.AfterFunc(c.interval, c.tick)
	c.mu.Unlock()
	c.fn()
}

// Stop drops a pending call.
func (c *Compressor) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopped = true
	c.pending = false
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}

func (c *Compressor) tick() {
	c.mu.Lock()
	if c.stopped {
		c.mu.Unlock()
		return
	}
	if !c.pending {
		c.timer = nil
		c.mu.Unlock()
		return
	}
	c.pending = false
	c.timer = time.AfterFunc(c.interval, c.tick)
	c.mu.Unlock()
	c.fn()
}
