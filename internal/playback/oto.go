package playback

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"
	"sync/atomic"

	"github.com/ebitengine/oto/v3"

	"github.com/example/voicestudio/internal/audio"
)

// OtoContext plays through the system audio device. oto permits a single
// context per process, so create one at startup and share it.
type OtoContext struct {
	ctx        *oto.Context
	sampleRate int
	channels   int

	mu sync.Mutex
	// base is the clock value accumulated by sources that have ended.
	base    float64
	current *otoSource
	// converted caches the device-rate copy of the last buffer started.
	convertedFrom *audio.Buffer
	converted     *audio.Buffer
}

// NewOtoContext opens the audio device. Failures wrap
// ErrPlaybackUnavailable.
func NewOtoContext(sampleRate, channels int) (*OtoContext, error) {
	if sampleRate <= 0 {
		sampleRate = audio.DefaultSampleRate
	}
	if channels <= 0 {
		channels = audio.DefaultChannels
	}

	ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: channels,
		Format:       oto.FormatSignedInt16LE,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: open audio device: %v", ErrPlaybackUnavailable, err)
	}
	<-ready

	return &OtoContext{ctx: ctx, sampleRate: sampleRate, channels: channels}, nil
}

func (c *OtoContext) Now() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.current == nil {
		return c.base
	}

	return c.base + c.current.played()
}

func (c *OtoContext) Resume(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := c.ctx.Resume(); err != nil {
		return fmt.Errorf("%w: %v", ErrPlaybackUnavailable, err)
	}

	return nil
}

func (c *OtoContext) Start(buf *audio.Buffer, offset float64) (Source, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.current != nil {
		c.stopLocked(c.current)
	}

	dev, err := c.deviceBufferLocked(buf)
	if err != nil {
		return nil, err
	}

	pcm := audio.AppendPCM16(nil, dev, dev.FrameAt(offset), c.channels)
	src := &otoSource{
		owner:     c,
		reader:    &countingReader{r: bytes.NewReader(pcm)},
		frameSize: c.channels * 2,
		rate:      c.sampleRate,
		remaining: buf.Duration() - offset,
	}
	src.player = c.ctx.NewPlayer(src.reader)
	src.player.Play()
	c.current = src

	return src, nil
}

// Close stops playback and suspends the device.
func (c *OtoContext) Close() error {
	c.mu.Lock()
	if c.current != nil {
		c.stopLocked(c.current)
	}
	c.mu.Unlock()

	return c.ctx.Suspend()
}

func (c *OtoContext) deviceBufferLocked(buf *audio.Buffer) (*audio.Buffer, error) {
	if buf.SampleRate() == c.sampleRate {
		return buf, nil
	}
	if c.convertedFrom == buf {
		return c.converted, nil
	}

	dev, err := audio.Resample(buf, c.sampleRate)
	if err != nil {
		return nil, fmt.Errorf("convert to device rate: %w", err)
	}
	c.convertedFrom, c.converted = buf, dev

	return dev, nil
}

func (c *OtoContext) stopLocked(s *otoSource) {
	if c.current != s {
		return
	}
	c.base += s.played()
	c.current = nil
	s.player.Pause()
	_ = s.player.Close()
}

type otoSource struct {
	owner     *OtoContext
	player    *oto.Player
	reader    *countingReader
	frameSize int
	rate      int
	// remaining is the timeline length this source covers.
	remaining float64
}

func (s *otoSource) Stop() {
	s.owner.mu.Lock()
	defer s.owner.mu.Unlock()

	s.owner.stopLocked(s)
}

// played is the audible progress of the source: bytes handed to the device
// minus what is still buffered there.
func (s *otoSource) played() float64 {
	if s.reader.done.Load() && !s.player.IsPlaying() {
		return s.remaining
	}

	audible := s.reader.n.Load() - int64(s.player.BufferedSize())
	secs := float64(max(audible, 0)) / float64(s.frameSize) / float64(s.rate)

	return min(secs, s.remaining)
}

type countingReader struct {
	r    io.Reader
	n    atomic.Int64
	done atomic.Bool
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n.Add(int64(n))
	if err == io.EOF {
		c.done.Store(true)
	}

	return n, err
}
