package figure

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/png"
	"math"
	"strconv"
	"strings"

	svg "github.com/ajstarks/svgo"
	"github.com/paulmach/orb"
)

// canvas wraps svgo with float pixel coordinates.
type canvas struct {
	*svg.SVG
}

func newCanvas(buf *bytes.Buffer, w, h int) *canvas {
	s := svg.New(buf)
	s.Startview(w, h, 0, 0, w, h)
	return &canvas{SVG: s}
}

func (s *canvas) rect(x, y, w, h float64, style string) {
	s.Rect(round(x), round(y), round(w), round(h), style)
}

func (s *canvas) roundRect(x, y, w, h, r float64, style string) {
	s.Roundrect(round(x), round(y), round(w), round(h), round(r), round(r), style)
}

func (s *canvas) line(x0, y0, x1, y1 float64, style string) {
	s.Line(round(x0), round(y0), round(x1), round(y1), style)
}

func (s *canvas) circle(x, y, r float64, style string) {
	s.Circle(round(x), round(y), max(1, round(r)), style)
}

// arrow draws a line from (x0,y0) to (x1,y1) with an open head at the end.
func (s *canvas) arrow(x0, y0, x1, y1, head float64, style string) {
	d := fmt.Sprintf("M%s %s L%s %s", num(x0), num(y0), num(x1), num(y1))
	dx, dy := x1-x0, y1-y0
	if n := math.Hypot(dx, dy); n > 0 {
		ux, uy := dx/n, dy/n
		// 30 degree barbs: cos=0.866, sin=0.5
		lx := x1 - head*(ux*0.866-uy*0.5)
		ly := y1 - head*(uy*0.866+ux*0.5)
		rx := x1 - head*(ux*0.866+uy*0.5)
		ry := y1 - head*(uy*0.866-ux*0.5)
		d += fmt.Sprintf(" M%s %s L%s %s L%s %s", num(lx), num(ly), num(x1), num(y1), num(rx), num(ry))
	}
	s.Path(d, style)
}

// ringPath appends one closed subpath.
func ringPath(b *strings.Builder, pts []orb.Point, project func(orb.Point) (float64, float64)) {
	for i, p := range pts {
		x, y := project(p)
		if i == 0 {
			b.WriteString("M")
		} else {
			b.WriteString(" L")
		}
		b.WriteString(num(x))
		b.WriteByte(' ')
		b.WriteString(num(y))
	}
}

// geometryPath renders polygons and lines as SVG path data. Points are
// not part of the path.
func geometryPath(g orb.Geometry, project func(orb.Point) (float64, float64)) string {
	var b strings.Builder
	var walk func(orb.Geometry)
	walk = func(g orb.Geometry) {
		switch g := g.(type) {
		case orb.Ring:
			ringPath(&b, g, project)
			b.WriteString(" Z ")
		case orb.Polygon:
			for _, r := range g {
				walk(r)
			}
		case orb.MultiPolygon:
			for _, p := range g {
				walk(p)
			}
		case orb.LineString:
			ringPath(&b, g, project)
			b.WriteByte(' ')
		case orb.MultiLineString:
			for _, l := range g {
				walk(l)
			}
		case orb.Collection:
			for _, c := range g {
				walk(c)
			}
		}
	}
	walk(g)
	return strings.TrimSpace(b.String())
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', 1, 64)
}

// imageDataURI embeds an image into the SVG output.
func imageDataURI(img image.Image) (string, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", err
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}
