package audio

import (
	"fmt"

	dspresample "github.com/cwbudde/algo-dsp/dsp/resample"
)

// Slice copies the frames between start and end (seconds) into a new
// Buffer. An empty range yields a single silent frame so the result is
// always playable.
func Slice(buf *Buffer, start, end float64) (*Buffer, error) {
	if buf == nil {
		return nil, fmt.Errorf("slice: nil buffer")
	}

	from := max(0, int(start*float64(buf.sampleRate)))
	to := min(buf.Len(), int(end*float64(buf.sampleRate)))
	frames := max(0, to-from)

	channels := make([][]float32, buf.NumChannels())
	for c := range channels {
		if frames == 0 {
			channels[c] = make([]float32, 1)
			continue
		}
		channels[c] = append([]float32(nil), buf.channels[c][from:to]...)
	}

	return &Buffer{sampleRate: buf.sampleRate, channels: channels}, nil
}

// Resample converts buf to targetRate, one resampler per channel.
func Resample(buf *Buffer, targetRate int) (*Buffer, error) {
	if targetRate <= 0 {
		return nil, fmt.Errorf("resample: invalid target rate %d", targetRate)
	}
	if buf.sampleRate == targetRate {
		return buf, nil
	}

	out := make([][]float32, buf.NumChannels())
	frames := -1
	for c, ch := range buf.channels {
		r, err := dspresample.NewForRates(
			float64(buf.sampleRate),
			float64(targetRate),
			dspresample.WithQuality(dspresample.QualityBest),
		)
		if err != nil {
			return nil, fmt.Errorf("resample %d -> %d Hz: %w", buf.sampleRate, targetRate, err)
		}

		in64 := make([]float64, len(ch))
		for i, v := range ch {
			in64[i] = float64(v)
		}
		out64 := r.Process(in64)
		out[c] = make([]float32, len(out64))
		for i, v := range out64 {
			out[c][i] = float32(v)
		}
		if frames < 0 || len(out64) < frames {
			frames = len(out64)
		}
	}

	// Channels may differ by a frame of filter latency; keep them aligned.
	for c := range out {
		out[c] = out[c][:frames]
	}
	if frames == 0 {
		return nil, fmt.Errorf("resample %d -> %d Hz produced no frames", buf.sampleRate, targetRate)
	}

	return &Buffer{sampleRate: targetRate, channels: out}, nil
}
