// Package figure lays out the static inset map. Shapes are composed as an
// SVG document with svgo and rasterized with oksvg; text is drawn with the
// Go fonts on top of the raster.
package figure

import (
	"image"
	"math"

	"github.com/paulmach/orb"
)

// Rect is a frame in figure fractions with the origin at the bottom left.
type Rect struct {
	X, Y, W, H float64
}

// Frames of the fixed page layout.
var (
	MainFrame   = Rect{0.05, 0.2, 0.7, 0.7}
	InsetFrame  = Rect{0.75, 0.72, 0.22, 0.25}
	LogoFrame   = Rect{0.05, 0.88, 0.1, 0.1}
	BorderFrame = Rect{0.02, 0.02, 0.96, 0.96}
)

const (
	titleY = 0.97
	// padFraction is added on each side of the data bounds.
	padFraction = 0.05
	// minSpan keeps degenerate bounds (a single point) drawable.
	minSpan = 0.01
)

// Page is the physical figure size.
type Page struct {
	WidthIn  float64
	HeightIn float64
	DPI      int
}

// DefaultPage is 14 x 12.5 inches at 300 DPI.
var DefaultPage = Page{WidthIn: 14, HeightIn: 12.5, DPI: 300}

// Size returns the figure size in pixels.
func (p Page) Size() (int, int) {
	return int(math.Round(p.WidthIn * float64(p.DPI))), int(math.Round(p.HeightIn * float64(p.DPI)))
}

// Pixels converts a frame to a pixel rectangle with the origin at the top left.
func (p Page) Pixels(r Rect) image.Rectangle {
	w, h := p.Size()
	x0 := int(math.Round(r.X * float64(w)))
	x1 := int(math.Round((r.X + r.W) * float64(w)))
	y0 := int(math.Round((1 - r.Y - r.H) * float64(h)))
	y1 := int(math.Round((1 - r.Y) * float64(h)))
	return image.Rect(x0, y0, x1, y1)
}

// pt converts points to pixels.
func (p Page) pt(v float64) float64 {
	return v * float64(p.DPI) / 72
}

// Axes is a frame with data limits in degrees.
type Axes struct {
	Frame Rect
	XLim  [2]float64
	YLim  [2]float64
}

// NewAxes fits bound into the frame on page: the bound is padded and then
// widened so one degree of latitude and one of longitude at the centre
// have the same ground length.
func NewAxes(page Page, frame Rect, bound orb.Bound) Axes {
	xmin, xmax := pad(bound.Min[0], bound.Max[0])
	ymin, ymax := pad(bound.Min[1], bound.Max[1])

	px := page.Pixels(frame)
	target := float64(px.Dx()) / float64(px.Dy())
	cos := math.Cos((ymin + ymax) / 2 * math.Pi / 180)
	if cos < 0.05 {
		cos = 0.05
	}

	xspan, yspan := xmax-xmin, ymax-ymin
	if xspan*cos/yspan < target {
		grow := (target*yspan/cos - xspan) / 2
		xmin, xmax = xmin-grow, xmax+grow
	} else {
		grow := (xspan*cos/target - yspan) / 2
		ymin, ymax = ymin-grow, ymax+grow
	}

	return Axes{Frame: frame, XLim: [2]float64{xmin, xmax}, YLim: [2]float64{ymin, ymax}}
}

func pad(lo, hi float64) (float64, float64) {
	span := hi - lo
	if span < minSpan {
		mid := (lo + hi) / 2
		return mid - minSpan/2, mid + minSpan/2
	}
	return lo - span*padFraction, hi + span*padFraction
}

// Fraction converts a data point to axis fractions, (0,0) at the lower left.
func (a Axes) Fraction(p orb.Point) orb.Point {
	return orb.Point{
		(p[0] - a.XLim[0]) / (a.XLim[1] - a.XLim[0]),
		(p[1] - a.YLim[0]) / (a.YLim[1] - a.YLim[0]),
	}
}

// Bound returns the data limits.
func (a Axes) Bound() orb.Bound {
	return orb.Bound{
		Min: orb.Point{a.XLim[0], a.YLim[0]},
		Max: orb.Point{a.XLim[1], a.YLim[1]},
	}
}

// FigureFraction maps an axis fraction into figure fractions.
func (a Axes) FigureFraction(f orb.Point) orb.Point {
	return orb.Point{a.Frame.X + f[0]*a.Frame.W, a.Frame.Y + f[1]*a.Frame.H}
}

// pixel maps a figure fraction to pixel coordinates on page.
func (p Page) pixel(f orb.Point) (float64, float64) {
	w, h := p.Size()
	return f[0] * float64(w), (1 - f[1]) * float64(h)
}

// project maps a data point in a to page pixels.
func (p Page) project(a Axes, pt orb.Point) (float64, float64) {
	return p.pixel(a.FigureFraction(a.Fraction(pt)))
}

// axesPixel maps an axis fraction in a to page pixels.
func (p Page) axesPixel(a Axes, f orb.Point) (float64, float64) {
	return p.pixel(a.FigureFraction(f))
}
