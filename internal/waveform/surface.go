package waveform

import "image/color"

// Paint fills a shape either with a solid colour or with a vertical
// gradient running from Top at y=0 to Bottom at y=Span (CSS pixels).
type Paint struct {
	Top    color.NRGBA
	Bottom color.NRGBA
	Span   float64
}

// Solid returns a single-colour paint.
func Solid(c color.NRGBA) Paint { return Paint{Top: c, Bottom: c} }

// Gradient returns a vertical gradient spanning span pixels.
func Gradient(top, bottom color.NRGBA, span float64) Paint {
	return Paint{Top: top, Bottom: bottom, Span: span}
}

// At returns the colour of the paint at vertical position y.
func (p Paint) At(y float64) color.NRGBA {
	if p.Span <= 0 || p.Top == p.Bottom {
		return p.Top
	}
	t := math01(y / p.Span)

	return color.NRGBA{
		R: lerp8(p.Top.R, p.Bottom.R, t),
		G: lerp8(p.Top.G, p.Bottom.G, t),
		B: lerp8(p.Top.B, p.Bottom.B, t),
		A: lerp8(p.Top.A, p.Bottom.A, t),
	}
}

func math01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}

func lerp8(a, b uint8, t float64) uint8 {
	return uint8(float64(a) + (float64(b)-float64(a))*t + 0.5)
}

// Surface is a 2D drawing target. Coordinates are CSS pixels; Resize sets
// the backing store in device pixels and Scale maps the former onto the
// latter.
type Surface interface {
	Resize(width, height int)
	Scale(sx, sy float64)
	Clear(x, y, w, h float64)
	FillRect(x, y, w, h float64, c color.NRGBA)
	FillRoundedRect(x, y, w, h, radius float64, p Paint)
	// StrokeLine draws a line of the given width. A non-empty dash
	// alternates on/off lengths.
	StrokeLine(x0, y0, x1, y1, width float64, c color.NRGBA, dash []float64)
	FillCircle(cx, cy, r float64, c color.NRGBA)
	// FillText draws text horizontally centred on x with its baseline at y.
	FillText(x, y float64, text string, c color.NRGBA)
}
