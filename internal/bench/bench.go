// Package bench measures synthesis latency and realtime factor for the
// voicestudio bench command.
package bench

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"strings"
	"time"

	"github.com/example/voicestudio/internal/synth"
)

// RunResult is the timing of one synthesis request.
type RunResult struct {
	Index   int
	Cold    bool // first request of the session
	Latency time.Duration
	Audio   time.Duration
	RTF     float64
}

// Stats aggregates latency across runs.
type Stats struct {
	Min     time.Duration
	Median  time.Duration
	Mean    time.Duration
	Max     time.Duration
	MeanRTF float64
}

// Options configures Run.
type Options struct {
	Runs int
	// Now is the clock; nil means time.Now.
	Now func() time.Time
}

// Run synthesizes script opts.Runs times with p and times each request
// end to end, including decoding of the returned audio.
func Run(ctx context.Context, s synth.Synthesizer, script string, p synth.Profile, opts Options) ([]RunResult, error) {
	if opts.Runs < 1 {
		return nil, fmt.Errorf("runs must be at least 1, got %d", opts.Runs)
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	results := make([]RunResult, 0, opts.Runs)
	for i := range opts.Runs {
		start := now()
		res, err := s.Synthesize(ctx, script, p)
		if err != nil {
			return nil, fmt.Errorf("run %d failed: %w", i+1, err)
		}
		buf, err := res.Buffer()
		if err != nil {
			return nil, fmt.Errorf("run %d: decode audio: %w", i+1, err)
		}
		latency := now().Sub(start)
		audioDur := time.Duration(buf.Duration() * float64(time.Second))

		results = append(results, RunResult{
			Index:   i,
			Cold:    i == 0,
			Latency: latency,
			Audio:   audioDur,
			RTF:     CalcRTF(latency, audioDur),
		})
	}

	return results, nil
}

// Summarize computes Stats; an empty slice yields zero Stats.
func Summarize(runs []RunResult) Stats {
	if len(runs) == 0 {
		return Stats{}
	}

	lat := make([]time.Duration, len(runs))
	var sum time.Duration
	var rtf float64
	for i, r := range runs {
		lat[i] = r.Latency
		sum += r.Latency
		rtf += r.RTF
	}
	slices.Sort(lat)

	median := lat[len(lat)/2]
	if len(lat)%2 == 0 {
		median = (lat[len(lat)/2-1] + lat[len(lat)/2]) / 2
	}

	return Stats{
		Min:     lat[0],
		Median:  median,
		Mean:    sum / time.Duration(len(runs)),
		Max:     lat[len(lat)-1],
		MeanRTF: rtf / float64(len(runs)),
	}
}

// CalcRTF returns synthesis time over audio time, or 0 without audio.
func CalcRTF(synthDur, audioDur time.Duration) float64 {
	if audioDur <= 0 {
		return 0
	}
	return float64(synthDur) / float64(audioDur)
}

// CheckRTFThreshold fails when meanRTF exceeds threshold. A threshold of 0
// disables the gate.
func CheckRTFThreshold(meanRTF, threshold float64) error {
	if threshold <= 0 || meanRTF <= threshold {
		return nil
	}
	return fmt.Errorf("mean RTF %.3f exceeds threshold %.3f", meanRTF, threshold)
}

func ms(d time.Duration) float64 { return float64(d) / float64(time.Millisecond) }

// FormatTable writes an aligned text table of runs and stats.
func FormatTable(runs []RunResult, stats Stats, w io.Writer) {
	sb := &strings.Builder{}

	fmt.Fprintf(sb, "%-5s  %-5s  %12s  %12s  %8s\n", "Run", "Cold", "Latency(ms)", "Audio(ms)", "RTF")
	fmt.Fprintln(sb, strings.Repeat("-", 50))
	for _, r := range runs {
		cold := ""
		if r.Cold {
			cold = "yes"
		}
		fmt.Fprintf(sb, "%-5d  %-5s  %12.1f  %12.1f  %8.3f\n", r.Index+1, cold, ms(r.Latency), ms(r.Audio), r.RTF)
	}
	fmt.Fprintln(sb, strings.Repeat("-", 50))
	fmt.Fprintf(sb, "min %.1fms  median %.1fms  mean %.1fms  max %.1fms  mean RTF %.3f\n",
		ms(stats.Min), ms(stats.Median), ms(stats.Mean), ms(stats.Max), stats.MeanRTF)

	_, _ = io.WriteString(w, sb.String())
}

type jsonReport struct {
	Runs  []jsonRun `json:"runs"`
	Stats jsonStats `json:"stats"`
}

type jsonRun struct {
	Index     int     `json:"index"`
	Cold      bool    `json:"cold"`
	LatencyMS float64 `json:"latency_ms"`
	AudioMS   float64 `json:"audio_ms"`
	RTF       float64 `json:"rtf"`
}

type jsonStats struct {
	MinMS    float64 `json:"min_ms"`
	MedianMS float64 `json:"median_ms"`
	MeanMS   float64 `json:"mean_ms"`
	MaxMS    float64 `json:"max_ms"`
	MeanRTF  float64 `json:"mean_rtf"`
}

// FormatJSON writes an indented JSON report.
func FormatJSON(runs []RunResult, stats Stats, w io.Writer) error {
	jr := jsonReport{
		Runs: make([]jsonRun, len(runs)),
		Stats: jsonStats{
			MinMS:    ms(stats.Min),
			MedianMS: ms(stats.Median),
			MeanMS:   ms(stats.Mean),
			MaxMS:    ms(stats.Max),
			MeanRTF:  stats.MeanRTF,
		},
	}
	for i, r := range runs {
		jr.Runs[i] = jsonRun{
			Index:     r.Index,
			Cold:      r.Cold,
			LatencyMS: ms(r.Latency),
			AudioMS:   ms(r.Audio),
			RTF:       r.RTF,
		}
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(jr)
}
