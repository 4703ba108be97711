package audio

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/h2non/filetype"
	"github.com/hajimehoshi/go-mp3"
)

// LoadOptions describes how LoadFile interprets and normalises a file.
type LoadOptions struct {
	// SampleRate and Channels describe headerless PCM input.
	SampleRate int
	Channels   int
	// TargetRate, when positive, resamples the result to this rate.
	TargetRate int
}

// LoadFile reads a WAV, MP3 or raw 16-bit PCM file into a Buffer.
func LoadFile(path string, opts LoadOptions) (*Buffer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read audio file: %w", err)
	}

	buf, err := Load(data, opts)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return buf, nil
}

// Load decodes in-memory audio the same way LoadFile does.
func Load(data []byte, opts LoadOptions) (*Buffer, error) {
	if opts.SampleRate <= 0 {
		opts.SampleRate = DefaultSampleRate
	}
	if opts.Channels <= 0 {
		opts.Channels = DefaultChannels
	}

	var (
		buf *Buffer
		err error
	)
	if filetype.Is(data, "wav") {
		buf, err = loadWAV(data)
	} else {
		buf, err = DecodePayload(data, opts.SampleRate, opts.Channels)
	}
	if err != nil {
		return nil, err
	}

	if opts.TargetRate > 0 && buf.SampleRate() != opts.TargetRate {
		return Resample(buf, opts.TargetRate)
	}

	return buf, nil
}

// loadWAV accepts any bit depth the wav decoder understands.
func loadWAV(data []byte) (*Buffer, error) {
	dec, err := newWAVDecoder(data)
	if err != nil {
		return nil, err
	}

	return readWAV(dec)
}

// decodeMP3 decodes an MP3 stream. go-mp3 always yields 16-bit stereo.
func decodeMP3(data []byte) (*Buffer, error) {
	dec, err := mp3.NewDecoder(bytes.NewReader(data))
	if err != nil {
		return nil, &DecodeError{Op: "mp3", Err: err}
	}

	pcm, err := io.ReadAll(dec)
	if err != nil {
		return nil, &DecodeError{Op: "mp3", Err: err}
	}

	return DecodeToBuffer(pcm, dec.SampleRate(), 2)
}
