package waveform

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"
	"math"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"golang.org/x/image/vector"
)

// Raster is a Surface backed by an in-memory RGBA image. Curved and
// slanted shapes go through an anti-aliasing vector rasterizer; everything
// is composited source-over.
type Raster struct {
	img    *image.RGBA
	z      *vector.Rasterizer
	sx, sy float64
}

// NewRaster returns an empty raster; Renderer.Draw sizes it.
func NewRaster() *Raster {
	return &Raster{img: image.NewRGBA(image.Rect(0, 0, 0, 0)), z: vector.NewRasterizer(0, 0), sx: 1, sy: 1}
}

// Image returns the backing image.
func (r *Raster) Image() *image.RGBA { return r.img }

// EncodePNG writes the current frame as PNG.
func (r *Raster) EncodePNG(w io.Writer) error {
	if err := png.Encode(w, r.img); err != nil {
		return fmt.Errorf("encode waveform png: %w", err)
	}

	return nil
}

func (r *Raster) Resize(width, height int) {
	r.img = image.NewRGBA(image.Rect(0, 0, max(width, 0), max(height, 0)))
	r.sx, r.sy = 1, 1
}

func (r *Raster) Scale(sx, sy float64) {
	r.sx *= sx
	r.sy *= sy
}

// deviceRect converts a CSS rectangle to the device pixel range whose
// centres fall inside it.
func (r *Raster) deviceRect(x, y, w, h float64) image.Rectangle {
	if w < 0 {
		x, w = x+w, -w
	}
	if h < 0 {
		y, h = y+h, -h
	}
	rect := image.Rect(
		int(math.Round(x*r.sx)), int(math.Round(y*r.sy)),
		int(math.Round((x+w)*r.sx)), int(math.Round((y+h)*r.sy)),
	)

	return rect.Intersect(r.img.Rect)
}

func (r *Raster) Clear(x, y, w, h float64) {
	draw.Draw(r.img, r.deviceRect(x, y, w, h), image.Transparent, image.Point{}, draw.Src)
}

func (r *Raster) FillRect(x, y, w, h float64, c color.NRGBA) {
	draw.Draw(r.img, r.deviceRect(x, y, w, h), image.NewUniform(c), image.Point{}, draw.Over)
}

// path collects one closed outline in CSS pixels and fills it.
type path struct {
	r      *Raster
	origin image.Point
}

// beginPath resets the rasterizer to cover the device bounds of the CSS box
// [x0,x1]x[y0,y1]. It returns false when the box misses the image.
func (r *Raster) beginPath(x0, y0, x1, y1 float64) (path, bool) {
	bounds := image.Rect(
		int(math.Floor(x0*r.sx)), int(math.Floor(y0*r.sy)),
		int(math.Ceil(x1*r.sx)), int(math.Ceil(y1*r.sy)),
	).Intersect(r.img.Rect)
	if bounds.Empty() {
		return path{}, false
	}
	r.z.Reset(bounds.Dx(), bounds.Dy())

	return path{r: r, origin: bounds.Min}, true
}

func (p path) pt(x, y float64) (float32, float32) {
	return float32(x*p.r.sx - float64(p.origin.X)), float32(y*p.r.sy - float64(p.origin.Y))
}

func (p path) moveTo(x, y float64) { p.r.z.MoveTo(p.pt(x, y)) }
func (p path) lineTo(x, y float64) { p.r.z.LineTo(p.pt(x, y)) }

func (p path) cubeTo(bx, by, cx, cy, dx, dy float64) {
	ax, ay := p.pt(bx, by)
	ex, ey := p.pt(cx, cy)
	fx, fy := p.pt(dx, dy)
	p.r.z.CubeTo(ax, ay, ex, ey, fx, fy)
}

func (p path) fill(src image.Image) {
	p.r.z.ClosePath()
	p.r.z.DrawOp = draw.Over
	rect := image.Rectangle{Min: p.origin, Max: p.origin.Add(p.r.z.Size())}
	p.r.z.Draw(p.r.img, rect, src, p.origin)
}

// kappa places cubic control points for a quarter circle.
const kappa = 0.5522847498

func (r *Raster) FillRoundedRect(x, y, w, h, radius float64, p Paint) {
	if w <= 0 || h <= 0 {
		return
	}
	radius = math.Max(0, math.Min(radius, math.Min(w, h)/2))
	pa, ok := r.beginPath(x, y, x+w, y+h)
	if !ok {
		return
	}

	k := radius * kappa
	pa.moveTo(x+radius, y)
	pa.lineTo(x+w-radius, y)
	pa.cubeTo(x+w-radius+k, y, x+w, y+radius-k, x+w, y+radius)
	pa.lineTo(x+w, y+h-radius)
	pa.cubeTo(x+w, y+h-radius+k, x+w-radius+k, y+h, x+w-radius, y+h)
	pa.lineTo(x+radius, y+h)
	pa.cubeTo(x+radius-k, y+h, x, y+h-radius+k, x, y+h-radius)
	pa.lineTo(x, y+radius)
	pa.cubeTo(x, y+radius-k, x+radius-k, y, x+radius, y)
	pa.fill(r.paintSource(p))
}

func (r *Raster) StrokeLine(x0, y0, x1, y1, width float64, c color.NRGBA, dash []float64) {
	length := math.Hypot(x1-x0, y1-y0)
	if length == 0 || width <= 0 {
		return
	}
	ux, uy := (x1-x0)/length, (y1-y0)/length
	nx, ny := -uy*width/2, ux*width/2
	src := image.NewUniform(c)

	for _, seg := range dashSegments(length, dash) {
		ax, ay := x0+ux*seg[0], y0+uy*seg[0]
		bx, by := x0+ux*seg[1], y0+uy*seg[1]

		pa, ok := r.beginPath(
			math.Min(ax, bx)-math.Abs(nx), math.Min(ay, by)-math.Abs(ny),
			math.Max(ax, bx)+math.Abs(nx), math.Max(ay, by)+math.Abs(ny),
		)
		if !ok {
			continue
		}
		pa.moveTo(ax+nx, ay+ny)
		pa.lineTo(bx+nx, by+ny)
		pa.lineTo(bx-nx, by-ny)
		pa.lineTo(ax-nx, ay-ny)
		pa.fill(src)
	}
}

// dashSegments splits [0, length] into the "on" intervals of a dash
// pattern of alternating on/off lengths. An empty pattern is one segment.
func dashSegments(length float64, dash []float64) [][2]float64 {
	var period float64
	for _, v := range dash {
		if v < 0 {
			return [][2]float64{{0, length}}
		}
		period += v
	}
	if period <= 0 {
		return [][2]float64{{0, length}}
	}

	var segs [][2]float64
	for pos, i := 0.0, 0; pos < length; i = (i + 1) % len(dash) {
		end := math.Min(pos+dash[i], length)
		if i%2 == 0 && end > pos {
			segs = append(segs, [2]float64{pos, end})
		}
		pos = end
	}

	return segs
}

func (r *Raster) FillCircle(cx, cy, radius float64, c color.NRGBA) {
	if radius <= 0 {
		return
	}
	pa, ok := r.beginPath(cx-radius, cy-radius, cx+radius, cy+radius)
	if !ok {
		return
	}

	k := radius * kappa
	pa.moveTo(cx+radius, cy)
	pa.cubeTo(cx+radius, cy+k, cx+k, cy+radius, cx, cy+radius)
	pa.cubeTo(cx-k, cy+radius, cx-radius, cy+k, cx-radius, cy)
	pa.cubeTo(cx-radius, cy-k, cx-k, cy-radius, cx, cy-radius)
	pa.cubeTo(cx+k, cy-radius, cx+radius, cy-k, cx+radius, cy)
	pa.fill(image.NewUniform(c))
}

// FillText uses a fixed 7x13 bitmap face drawn at device resolution.
func (r *Raster) FillText(x, y float64, text string, c color.NRGBA) {
	face := basicfont.Face7x13
	advance := font.MeasureString(face, text).Ceil()
	d := &font.Drawer{
		Dst:  r.img,
		Src:  image.NewUniform(c),
		Face: face,
		Dot:  fixed.P(int(math.Round(x*r.sx))-advance/2, int(math.Round(y*r.sy))),
	}
	d.DrawString(text)
}

// paintSource turns a Paint into a source image in device space.
func (r *Raster) paintSource(p Paint) image.Image {
	if p.Span <= 0 || p.Top == p.Bottom {
		return image.NewUniform(p.Top)
	}

	return gradientImage{paint: p, sy: r.sy}
}

// gradientImage is an unbounded vertical gradient sampled at pixel centres.
type gradientImage struct {
	paint Paint
	sy    float64
}

func (g gradientImage) ColorModel() color.Model { return color.NRGBAModel }

func (g gradientImage) Bounds() image.Rectangle {
	return image.Rectangle{Min: image.Point{X: -1e9, Y: -1e9}, Max: image.Point{X: 1e9, Y: 1e9}}
}

func (g gradientImage) At(_, y int) color.Color {
	return g.paint.At((float64(y) + 0.5) / g.sy)
}
