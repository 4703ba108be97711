package playback

import (
	"context"
	"sync"
	"time"

	"github.com/example/voicestudio/internal/audio"
)

// NullContext is a silent output whose clock is wall time. It keeps the
// transport usable on hosts without an audio device.
type NullContext struct {
	now   func() time.Time
	start time.Time

	mu      sync.Mutex
	started int
}

// NewNullContext returns a silent output clocked from time.Now.
func NewNullContext() *NullContext {
	return newNullContext(time.Now)
}

func newNullContext(now func() time.Time) *NullContext {
	return &NullContext{now: now, start: now()}
}

func (c *NullContext) Now() float64 {
	return c.now().Sub(c.start).Seconds()
}

func (c *NullContext) Resume(ctx context.Context) error {
	return ctx.Err()
}

func (c *NullContext) Start(buf *audio.Buffer, offset float64) (Source, error) {
	c.mu.Lock()
	c.started++
	c.mu.Unlock()

	return nullSource{}, nil
}

// Started reports how many sources have been started.
func (c *NullContext) Started() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.started
}

type nullSource struct{}

func (nullSource) Stop() {}
