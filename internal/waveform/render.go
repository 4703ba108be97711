package waveform

import (
	"math"

	"github.com/example/voicestudio/internal/audio"
)

// MinBarHeight keeps near-silent bars visible as a thin mark.
const MinBarHeight = 4

const (
	barHeightRatio  = 0.8
	playheadWidth   = 2
	knobRadius      = 3
	knobInset       = 6
	placeholderText = "AUDIO VISUALIZER"
)

var hoverDash = []float64{2, 2}

// Renderer paints one frame of the waveform display. Width and Height are in
// CSS pixels; DPR is the device pixel ratio of the backing surface.
type Renderer struct {
	Width  float64
	Height float64
	DPR    float64
	Bars   BarLayout
	Theme  Theme
}

// NewRenderer returns a renderer with the default bar layout and light theme.
func NewRenderer(width, height, dpr float64) *Renderer {
	return &Renderer{
		Width:  width,
		Height: height,
		DPR:    dpr,
		Bars:   DefaultBars,
		Theme:  LightTheme,
	}
}

// View is everything that changes between frames.
type View struct {
	// Audio is nil when no take is loaded; the placeholder is drawn instead.
	Audio    *AudioView
	HoverX   float64
	Hovering bool
	Dragging bool
}

// AudioView describes the loaded take.
type AudioView struct {
	Peaks       []float64
	Duration    float64
	CurrentTime float64
	Selection   *audio.Selection
}

// Peaks computes the peak set for buf at the renderer's width.
func (r *Renderer) Peaks(buf *audio.Buffer) []float64 {
	return ComputePeaks(buf, r.Width, r.Bars.Width, r.Bars.Gap)
}

// PixelToTime maps a CSS x coordinate to a timeline position clamped to
// [0, duration].
func (r *Renderer) PixelToTime(x, duration float64) float64 {
	if r.Width <= 0 {
		return 0
	}

	return audio.ClampTime(x/r.Width*duration, duration)
}

// TimeToPixel maps a timeline position to a CSS x coordinate.
func (r *Renderer) TimeToPixel(t, duration float64) float64 {
	if duration <= 0 {
		return 0
	}

	return t / duration * r.Width
}

// Draw renders v onto s. Every call sizes the backing store first, so s may
// be reused across resizes and DPR changes.
func (r *Renderer) Draw(s Surface, v View) {
	dpr := r.DPR
	if dpr <= 0 {
		dpr = 1
	}
	s.Resize(int(math.Ceil(r.Width*dpr)), int(math.Ceil(r.Height*dpr)))
	s.Scale(dpr, dpr)
	s.Clear(0, 0, r.Width, r.Height)
	s.FillRect(0, 0, r.Width, r.Height, r.Theme.Background)

	if v.Audio == nil {
		r.drawPlaceholder(s)
		return
	}

	a := v.Audio
	progressX := r.TimeToPixel(a.CurrentTime, a.Duration)

	r.drawBars(s, a.Peaks, progressX)
	if a.Selection != nil && !a.Selection.Empty() {
		r.drawSelection(s, *a.Selection, a.Duration)
	}

	s.StrokeLine(progressX, 0, progressX, r.Height, playheadWidth, r.Theme.Playhead, nil)
	s.FillCircle(progressX, r.Height-knobInset, knobRadius, r.Theme.Playhead)

	if v.Hovering && !v.Dragging {
		s.StrokeLine(v.HoverX, 0, v.HoverX, r.Height, 1, r.Theme.Hover, hoverDash)
	}
}

func (r *Renderer) drawBars(s Surface, peaks []float64, progressX float64) {
	centerY := r.Height / 2
	played := Gradient(r.Theme.GradientTop, r.Theme.GradientBottom, r.Height)
	unplayed := Solid(r.Theme.Unplayed)

	for i, peak := range peaks {
		x := float64(i) * r.Bars.Pitch()
		if x > r.Width {
			break
		}

		h := math.Max(MinBarHeight, peak*r.Height*barHeightRatio)
		paint := unplayed
		if x < progressX {
			paint = played
		}
		s.FillRoundedRect(x, centerY-h/2, r.Bars.Width, h, r.Bars.Width/2, paint)
	}
}

func (r *Renderer) drawSelection(s Surface, sel audio.Selection, duration float64) {
	x0 := r.TimeToPixel(sel.Start, duration)
	x1 := r.TimeToPixel(sel.End, duration)

	s.FillRect(x0, 0, x1-x0, r.Height, r.Theme.SelectionFill)
	s.StrokeLine(x0, 0, x0, r.Height, 1, r.Theme.SelectionBorder, nil)
	s.StrokeLine(x1, 0, x1, r.Height, 1, r.Theme.SelectionBorder, nil)
}

// drawPlaceholder draws a small bars icon above a dashed divider spanning
// 60% of the width, with the label on the midline.
func (r *Renderer) drawPlaceholder(s Surface) {
	cx, cy := r.Width/2, r.Height/2
	c := r.Theme.Placeholder

	iconHeights := []float64{10, 18, 26, 18, 10}
	const iconBar, iconGap = 4.0, 3.0
	iconWidth := float64(len(iconHeights))*iconBar + float64(len(iconHeights)-1)*iconGap
	iconBase := cy - 14
	for i, h := range iconHeights {
		x := cx - iconWidth/2 + float64(i)*(iconBar+iconGap)
		s.FillRoundedRect(x, iconBase-h, iconBar, h, iconBar/2, Solid(c))
	}

	half := r.Width * 0.3
	s.StrokeLine(cx-half, cy, cx+half, cy, 1, c, []float64{4, 3})
	s.FillText(cx, cy+16, placeholderText, c)
}
