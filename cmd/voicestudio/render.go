package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/example/voicestudio/internal/audio"
	"github.com/example/voicestudio/internal/config"
	"github.com/example/voicestudio/internal/waveform"
)

func newRenderCmd() *cobra.Command {
	var out string
	var at float64
	var selection string
	var peaksOnly bool

	cmd := &cobra.Command{
		Use:   "render <audio-file>",
		Short: "Render the waveform of an audio file as PNG (or print its peaks)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := requireConfig()
			if err != nil {
				return err
			}

			buf, err := loadInput(cfg, args[0], 0)
			if err != nil {
				return err
			}
			sel, err := parseRange(selection, buf.Duration())
			if err != nil {
				return err
			}

			if peaksOnly {
				peaks := waveform.ComputePeaks(buf, float64(cfg.Waveform.Width), cfg.Waveform.BarWidth, cfg.Waveform.BarGap)
				return json.NewEncoder(cmd.OutOrStdout()).Encode(peaks)
			}

			data, err := renderPNG(cfg.Waveform, buf, at, sel)
			if err != nil {
				return err
			}
			return writeOutput(out, data, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&out, "out", "waveform.png", "Output PNG path ('-' for stdout)")
	cmd.Flags().Float64Var(&at, "at", 0, "Playhead position in seconds")
	cmd.Flags().StringVar(&selection, "select", "", "Highlighted range as start:end seconds")
	cmd.Flags().BoolVar(&peaksOnly, "peaks", false, "Print the peak values as JSON instead of rendering")

	return cmd
}

func renderPNG(wc config.WaveformConfig, buf *audio.Buffer, at float64, sel *audio.Selection) ([]byte, error) {
	theme, err := waveform.ThemeByName(wc.Theme)
	if err != nil {
		return nil, err
	}

	rd := waveform.NewRenderer(float64(wc.Width), float64(wc.Height), wc.DPR)
	rd.Bars = waveform.BarLayout{Width: wc.BarWidth, Gap: wc.BarGap}
	rd.Theme = theme

	raster := waveform.NewRaster()
	rd.Draw(raster, waveform.View{Audio: &waveform.AudioView{
		Peaks:       rd.Peaks(buf),
		Duration:    buf.Duration(),
		CurrentTime: audio.ClampTime(at, buf.Duration()),
		Selection:   sel,
	}})

	var out bytes.Buffer
	if err := raster.EncodePNG(&out); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}

	return out.Bytes(), nil
}

// loadInput reads an audio file; headerless PCM is interpreted with the
// configured rate and channel count.
func loadInput(cfg config.Config, path string, targetRate int) (*audio.Buffer, error) {
	return audio.LoadFile(path, audio.LoadOptions{
		SampleRate: cfg.Audio.SampleRate,
		Channels:   cfg.Audio.Channels,
		TargetRate: targetRate,
	})
}

// parseRange parses "start:end" in seconds; either side may be empty,
// meaning the start or end of the audio. An empty string means no range.
func parseRange(raw string, duration float64) (*audio.Selection, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}

	startRaw, endRaw, ok := strings.Cut(raw, ":")
	if !ok {
		return nil, fmt.Errorf("invalid range %q (expected start:end)", raw)
	}

	start, end := 0.0, duration
	var err error
	if s := strings.TrimSpace(startRaw); s != "" {
		if start, err = strconv.ParseFloat(s, 64); err != nil {
			return nil, fmt.Errorf("invalid range start %q", s)
		}
	}
	if s := strings.TrimSpace(endRaw); s != "" {
		if end, err = strconv.ParseFloat(s, 64); err != nil {
			return nil, fmt.Errorf("invalid range end %q", s)
		}
	}

	sel := audio.NewSelection(start, end, duration)
	if sel.Empty() {
		return nil, fmt.Errorf("range %q is empty", raw)
	}

	return &sel, nil
}
