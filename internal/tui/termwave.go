package tui

import (
	"fmt"
	"image/color"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/example/voicestudio/internal/audio"
	"github.com/example/voicestudio/internal/waveform"
)

// levels are the eighth-block glyphs used for partial cells, empty first.
var levels = []rune(" ▁▂▃▄▅▆▇█")

// Styles colours the terminal waveform.
type Styles struct {
	Played   lipgloss.Style
	Unplayed lipgloss.Style
	Playhead lipgloss.Style
	Selected lipgloss.Style
	Empty    lipgloss.Style
}

// StylesFromTheme derives terminal styles from a renderer theme so the TUI
// and the PNG output share colours.
func StylesFromTheme(t waveform.Theme) Styles {
	return Styles{
		Played:   lipgloss.NewStyle().Foreground(termColor(t.GradientTop)),
		Unplayed: lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
		Playhead: lipgloss.NewStyle().Foreground(termColor(t.Playhead)).Bold(true),
		Selected: lipgloss.NewStyle().Foreground(termColor(t.GradientBottom)).Background(lipgloss.Color("237")),
		Empty:    lipgloss.NewStyle().Foreground(termColor(t.Placeholder)).Faint(true),
	}
}

func termColor(c color.NRGBA) lipgloss.Color {
	return lipgloss.Color(fmt.Sprintf("#%02X%02X%02X", c.R, c.G, c.B))
}

// Wave is one frame of the terminal waveform.
type Wave struct {
	Peaks    []float64
	Duration float64
	Current  float64
	// Selection may be nil.
	Selection *audio.Selection
}

// column returns the cell column that t falls in.
func column(t, duration float64, cols int) int {
	if duration <= 0 || cols <= 0 {
		return 0
	}

	return min(cols-1, int(math.Floor(t/duration*float64(cols))))
}

// RenderWave draws w as rows lines of bottom-anchored block glyphs, one
// column per peak. Columns left of the playhead use the played style.
func RenderWave(w Wave, rows int, st Styles) string {
	cols := len(w.Peaks)
	if rows <= 0 || cols == 0 {
		return ""
	}

	progress := column(w.Current, w.Duration, cols)
	selFrom, selTo := -1, -1
	if w.Selection != nil && !w.Selection.Empty() {
		selFrom = column(w.Selection.Start, w.Duration, cols)
		selTo = column(w.Selection.End, w.Duration, cols)
	}

	styles := [...]lipgloss.Style{
		cellPlayed:   st.Played,
		cellUnplayed: st.Unplayed,
		cellPlayhead: st.Playhead,
		cellSelected: st.Selected,
	}

	lines := make([]string, rows)
	for r := range rows {
		var line, run strings.Builder
		// Cells are grouped into runs of one class to keep the escape
		// sequence count down.
		runClass := cellClass(-1)
		flush := func() {
			if run.Len() > 0 {
				line.WriteString(styles[runClass].Render(run.String()))
				run.Reset()
			}
		}

		base := (rows - 1 - r) * 8
		for c, peak := range w.Peaks {
			eighths := max(1, int(math.Round(peak*float64(rows*8))))
			level := min(8, max(0, eighths-base))

			class := classify(c, progress, selFrom, selTo)
			if class != runClass {
				flush()
				runClass = class
			}
			run.WriteRune(levels[level])
		}
		flush()
		lines[r] = line.String()
	}

	return strings.Join(lines, "\n")
}

type cellClass int

const (
	cellPlayed cellClass = iota
	cellUnplayed
	cellPlayhead
	cellSelected
)

func classify(c, progress, selFrom, selTo int) cellClass {
	switch {
	case c == progress:
		return cellPlayhead
	case c >= selFrom && c <= selTo:
		return cellSelected
	case c < progress:
		return cellPlayed
	default:
		return cellUnplayed
	}
}

// Placeholder is drawn when no take is loaded.
func Placeholder(cols, rows int, st Styles) string {
	const label = "AUDIO VISUALIZER"
	lines := make([]string, rows)
	for r := range lines {
		lines[r] = strings.Repeat(" ", cols)
	}
	if rows > 0 {
		pad := max(0, (cols-len(label))/2)
		text := strings.Repeat(" ", pad) + label
		if len(text) > cols {
			text = text[:cols]
		}
		lines[rows/2] = text + strings.Repeat(" ", cols-len(text))
	}

	return st.Empty.Render(strings.Join(lines, "\n"))
}
