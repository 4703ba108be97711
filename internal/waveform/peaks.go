package waveform

import (
	"math"

	"github.com/example/voicestudio/internal/audio"
)

// Peak shaping: RMS is raised to peakExponent so quiet passages stay
// visible, then boosted by peakGain and clamped to 1.
const (
	peakExponent = 0.7
	peakGain     = 1.5
)

// BarLayout is the horizontal geometry of the bar display in CSS pixels.
type BarLayout struct {
	Width float64
	Gap   float64
}

// DefaultBars matches the studio display: 4px bars with a 2px gap.
var DefaultBars = BarLayout{Width: 4, Gap: 2}

// Pitch is the distance between the left edges of neighbouring bars.
func (l BarLayout) Pitch() float64 { return l.Width + l.Gap }

// Count returns how many whole bars fit in width.
func (l BarLayout) Count(width float64) int {
	if l.Pitch() <= 0 || width <= 0 {
		return 0
	}

	return int(math.Floor(width / l.Pitch()))
}

// ComputePeaks reduces channel 0 of buf to one amplitude per bar that fits
// in width. Every value is in [0, 1]. The result is empty when not even one
// bar fits or buf has no samples.
func ComputePeaks(buf *audio.Buffer, width, barWidth, barGap float64) []float64 {
	barCount := BarLayout{Width: barWidth, Gap: barGap}.Count(width)
	if barCount <= 0 || buf == nil {
		return []float64{}
	}

	data := buf.Channel(0)
	total := len(data)
	samplesPerBar := total / barCount

	peaks := make([]float64, barCount)
	for i := range peaks {
		start := i * samplesPerBar
		end := min(start+samplesPerBar, total)
		if end <= start {
			continue
		}

		var sum float64
		for _, s := range data[start:end] {
			v := float64(s)
			sum += v * v
		}
		rms := math.Sqrt(sum / float64(end-start))
		peaks[i] = math.Max(0, math.Min(1, math.Pow(rms, peakExponent)*peakGain))
	}

	return peaks
}
