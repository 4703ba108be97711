package audio

import (
	"errors"
	"fmt"

	goaudio "github.com/go-audio/audio"
)

// Default format of synthesized speech: 24 kHz, mono, 16-bit PCM.
const (
	DefaultSampleRate = 24000
	DefaultChannels   = 1
	BitDepth          = 16
)

// Buffer is decoded, de-interleaved audio. It is immutable once created:
// the slices returned by Channel must not be modified.
type Buffer struct {
	sampleRate int
	channels   [][]float32
}

// NewBuffer wraps per-channel sample slices. All channels must have the same
// length.
func NewBuffer(sampleRate int, channels [][]float32) (*Buffer, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("invalid sample rate: %d", sampleRate)
	}
	if len(channels) == 0 {
		return nil, errors.New("buffer needs at least one channel")
	}
	frames := len(channels[0])
	for i, ch := range channels {
		if len(ch) != frames {
			return nil, fmt.Errorf("channel %d has %d frames, want %d", i, len(ch), frames)
		}
	}

	return &Buffer{sampleRate: sampleRate, channels: channels}, nil
}

// FromInterleaved de-interleaves samples into a new Buffer. Trailing samples
// that do not fill a whole frame are dropped.
func FromInterleaved(samples []float32, sampleRate, numChannels int) (*Buffer, error) {
	if numChannels <= 0 {
		return nil, fmt.Errorf("invalid channel count: %d", numChannels)
	}
	frames := len(samples) / numChannels
	channels := make([][]float32, numChannels)
	for c := range channels {
		channels[c] = make([]float32, frames)
	}
	for i := 0; i < frames; i++ {
		for c := 0; c < numChannels; c++ {
			channels[c][i] = samples[i*numChannels+c]
		}
	}

	return NewBuffer(sampleRate, channels)
}

// FromFloat32Buffer converts a go-audio float buffer (interleaved) to a Buffer.
func FromFloat32Buffer(buf *goaudio.Float32Buffer) (*Buffer, error) {
	if buf == nil || buf.Format == nil {
		return nil, errors.New("float buffer has no format")
	}

	return FromInterleaved(buf.Data, buf.Format.SampleRate, buf.Format.NumChannels)
}

func (b *Buffer) SampleRate() int  { return b.sampleRate }
func (b *Buffer) NumChannels() int { return len(b.channels) }

// Len returns the frame count.
func (b *Buffer) Len() int { return len(b.channels[0]) }

// Duration returns the length in seconds.
func (b *Buffer) Duration() float64 {
	return float64(b.Len()) / float64(b.sampleRate)
}

// Channel returns the samples of channel i. Callers must treat the slice as
// read-only.
func (b *Buffer) Channel(i int) []float32 {
	return b.channels[i]
}

// Interleaved returns a freshly allocated interleaved copy of the samples.
func (b *Buffer) Interleaved() []float32 {
	n := b.NumChannels()
	out := make([]float32, b.Len()*n)
	for c, ch := range b.channels {
		for i, s := range ch {
			out[i*n+c] = s
		}
	}

	return out
}

// Float32Buffer exposes the samples as an interleaved go-audio buffer.
func (b *Buffer) Float32Buffer() *goaudio.Float32Buffer {
	return &goaudio.Float32Buffer{
		Data:           b.Interleaved(),
		Format:         &goaudio.Format{SampleRate: b.sampleRate, NumChannels: b.NumChannels()},
		SourceBitDepth: BitDepth,
	}
}

// FrameAt converts a timeline position to a frame index clamped to
// [0, Len()].
func (b *Buffer) FrameAt(seconds float64) int {
	f := int(seconds * float64(b.sampleRate))
	if f < 0 {
		return 0
	}
	if f > b.Len() {
		return b.Len()
	}

	return f
}
