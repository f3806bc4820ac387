package figure

import (
	"errors"
	"fmt"
	"image"
	"image/color"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/clip"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/planar"
	"github.com/paulmach/orb/simplify"

	"github.com/joeblew999/plat-inset/internal/geo"
)

// ErrEmptyStudyArea is returned when there is nothing to centre the map on.
var ErrEmptyStudyArea = errors.New("study area has no features")

// Layer is an extra GeoJSON layer drawn in the main axes.
type Layer struct {
	Name     string
	Features *geojson.FeatureCollection
}

// Input is everything drawn on one figure.
type Input struct {
	Title string

	StudyArea *geojson.FeatureCollection
	StudyName string
	// NameColumn labels each polygon feature when RegionLabels is set.
	NameColumn   string
	RegionLabels bool

	// Boundary is the pasted coordinate ring, drawn dashed when ShowBoundary is set.
	Boundary     orb.Ring
	ShowBoundary bool
	Sites        []geo.SiteLabel
	SiteLabels   bool

	Country      *geojson.Feature
	CountryName  string
	CountryLabel bool

	Layers []Layer

	// Basemap fills the main axes when set; it must cover MainAxes(...).Bound().
	Basemap     image.Image
	BasemapName string

	Logo image.Image
}

// Figure is a composed map ready to rasterize or write as SVG.
type Figure struct {
	Page       Page
	Main       Axes
	Inset      Axes
	Connectors []Connector
	Legend     []LegendEntry
	ScaleBar   ScaleBar

	basemap  image.Image
	logo     image.Image
	logoRect image.Rectangle

	background []func(*canvas)
	foreground []func(*canvas)
	texts      []placed
}

// StudyBound returns the union of the feature bounds.
func StudyBound(fc *geojson.FeatureCollection) (orb.Bound, error) {
	if fc == nil || len(fc.Features) == 0 {
		return orb.Bound{}, ErrEmptyStudyArea
	}
	b := fc.Features[0].Geometry.Bound()
	for _, f := range fc.Features[1:] {
		b = b.Union(f.Geometry.Bound())
	}
	return b, nil
}

// MainBound widens the study bound to every non-empty layer, so extra
// layers outside the study area stay on the main map.
func MainBound(fc *geojson.FeatureCollection, layers []Layer) (orb.Bound, error) {
	b, err := StudyBound(fc)
	if err != nil {
		return orb.Bound{}, err
	}
	for _, l := range layers {
		if lb, err := StudyBound(l.Features); err == nil {
			b = b.Union(lb)
		}
	}
	return b, nil
}

// MainAxes returns the main axes for a study area and its layers, so a
// basemap can be fetched for exactly that extent before composing.
func MainAxes(page Page, fc *geojson.FeatureCollection, layers []Layer) (Axes, error) {
	b, err := MainBound(fc, layers)
	if err != nil {
		return Axes{}, err
	}
	return NewAxes(page, MainFrame, b), nil
}

type composer struct {
	page  Page
	main  Axes
	inset Axes
	fig   *Figure
	err   error
}

func (c *composer) bg(fn func(*canvas)) { c.fig.background = append(c.fig.background, fn) }
func (c *composer) fg(fn func(*canvas)) { c.fig.foreground = append(c.fig.foreground, fn) }

// text measures t and queues it; a box, when given, is queued as a shape
// under the text.
func (c *composer) text(t Text, box *Box) {
	if c.err != nil || t.S == "" {
		return
	}
	f, err := face(t.Bold, t.Size, c.page.DPI)
	if err != nil {
		c.err = err
		return
	}
	w, a, d := metrics(f, t.S)
	p := place(t, w, a, d)
	c.fig.texts = append(c.fig.texts, p)

	if box != nil {
		x, y, bw, bh := p.bounds()
		padding := c.page.pt(t.Size) * box.Pad
		style := fill(box.Fill, box.Opacity, box.Stroke, c.page.pt(0.5))
		c.fg(func(s *canvas) {
			s.roundRect(x-padding, y-padding, bw+2*padding, bh+2*padding, padding, style)
		})
	}
}

// Compose lays out the figure on page.
func Compose(page Page, in Input) (*Figure, error) {
	bound, err := StudyBound(in.StudyArea)
	if err != nil {
		return nil, err
	}
	if in.Country == nil || in.Country.Geometry == nil {
		return nil, errors.New("country geometry is required")
	}

	extent, err := MainBound(in.StudyArea, in.Layers)
	if err != nil {
		return nil, err
	}
	main := NewAxes(page, MainFrame, extent)
	inset := NewAxes(page, InsetFrame, in.Country.Geometry.Bound().Union(bound))

	c := &composer{
		page:  page,
		main:  main,
		inset: inset,
		fig: &Figure{
			Page:    page,
			Main:    main,
			Inset:   inset,
			basemap: in.Basemap,
			logo:    in.Logo,
		},
	}

	c.backgrounds()
	c.grid()
	legend := c.studyArea(in)
	legend = append(legend, c.boundary(in)...)
	legend = append(legend, c.layers(in.Layers)...)
	c.scaleBar()
	c.northArrow()
	c.axesDecorations()
	c.insetMap(in, bound)
	c.connectors(in.StudyArea.Features[0].Geometry)
	c.frame(in)
	if err := c.legend(legend); err != nil {
		return nil, err
	}
	c.fig.Legend = legend

	if c.err != nil {
		return nil, c.err
	}
	return c.fig, nil
}

func (c *composer) backgrounds() {
	w, h := c.page.Size()
	mainPx := c.page.Pixels(c.main.Frame)
	insetPx := c.page.Pixels(c.inset.Frame)
	c.bg(func(s *canvas) {
		s.Rect(0, 0, w, h, fill("#ffffff", 1, "", 0))
		s.Rect(mainPx.Min.X, mainPx.Min.Y, mainPx.Dx(), mainPx.Dy(), fill(AxesFace, 1, "", 0))
		s.Rect(insetPx.Min.X, insetPx.Min.Y, insetPx.Dx(), insetPx.Dy(), fill(AxesFace, 1, "", 0))
	})
}

// grid draws the dotted minor grid and white major grid of the main axes.
func (c *composer) grid() {
	p, a := c.page, c.main
	frame := p.Pixels(a.Frame)
	xs, xstep, xminor := ticks(a.XLim, 6)
	ys, ystep, yminor := ticks(a.YLim, 6)

	minorStyle := stroke(MinorGrid, p.pt(0.5), p.pt(0.5), p.pt(1.5))
	majorStyle := stroke("#ffffff", p.pt(0.8))

	c.fg(func(s *canvas) {
		for v := xs[0] - xstep; v <= a.XLim[1]; v += xstep / float64(xminor) {
			if v < a.XLim[0] {
				continue
			}
			x, _ := p.project(a, orb.Point{v, a.YLim[0]})
			s.line(x, float64(frame.Min.Y), x, float64(frame.Max.Y), minorStyle)
		}
		for v := ys[0] - ystep; v <= a.YLim[1]; v += ystep / float64(yminor) {
			if v < a.YLim[0] {
				continue
			}
			_, y := p.project(a, orb.Point{a.XLim[0], v})
			s.line(float64(frame.Min.X), y, float64(frame.Max.X), y, minorStyle)
		}
		for _, v := range xs {
			x, _ := p.project(a, orb.Point{v, a.YLim[0]})
			s.line(x, float64(frame.Min.Y), x, float64(frame.Max.Y), majorStyle)
		}
		for _, v := range ys {
			_, y := p.project(a, orb.Point{a.XLim[0], v})
			s.line(float64(frame.Min.X), y, float64(frame.Max.X), y, majorStyle)
		}
	})
}

// drawGeometry clips g to the axes and queues it. Polygons use area, lines
// use line and points become circles of radius r (pixels) styled with dot.
func (c *composer) drawGeometry(a Axes, g orb.Geometry, area, line string, r float64, dot string) {
	g = clip.Geometry(a.Bound(), orb.Clone(g))
	if g == nil {
		return
	}
	project := func(pt orb.Point) (float64, float64) { return c.page.project(a, pt) }

	var points []orb.Point
	var areas, lines []orb.Geometry
	var split func(orb.Geometry)
	split = func(g orb.Geometry) {
		switch g := g.(type) {
		case orb.Point:
			points = append(points, g)
		case orb.MultiPoint:
			points = append(points, g...)
		case orb.Polygon, orb.MultiPolygon, orb.Ring:
			areas = append(areas, g)
		case orb.LineString, orb.MultiLineString:
			lines = append(lines, g)
		case orb.Collection:
			for _, sub := range g {
				split(sub)
			}
		}
	}
	split(g)

	c.fg(func(s *canvas) {
		for _, g := range areas {
			if d := geometryPath(g, project); d != "" {
				s.Path(d, area)
			}
		}
		for _, g := range lines {
			if d := geometryPath(g, project); d != "" {
				s.Path(d, line)
			}
		}
		for _, pt := range points {
			x, y := project(pt)
			s.circle(x, y, r, dot)
		}
	})
}

func (c *composer) studyArea(in Input) []LegendEntry {
	p := c.page
	opacity := 1.0
	if in.Basemap != nil {
		opacity = 0.5
	}
	area := fill(StudyFill, opacity, StudyEdge, p.pt(1.5))
	line := stroke(StudyFill, p.pt(1.5))
	dot := fill(StudyFill, 1, StudyEdge, p.pt(0.5))
	for _, f := range in.StudyArea.Features {
		c.drawGeometry(c.main, f.Geometry, area, line, p.pt(3), dot)
	}

	name := in.StudyName
	if name == "" {
		name = "Study Area"
	}
	centroid, _ := planar.CentroidArea(in.StudyArea.Features[0].Geometry)
	x, y := p.project(c.main, centroid)
	c.text(Text{X: x, Y: y, S: name, Size: 12, Bold: true, Color: rgb("#ffffff"), HAlign: AlignCenter, VAlign: AlignMiddle},
		&Box{Fill: StudyEdge, Opacity: 0.8, Pad: 0.3})

	if in.RegionLabels && in.NameColumn != "" {
		for _, f := range in.StudyArea.Features {
			if _, ok := f.Geometry.(orb.Polygon); !ok {
				continue
			}
			value, ok := f.Properties[in.NameColumn]
			if !ok || value == nil {
				continue
			}
			label := fmt.Sprint(value)
			centroid, _ := planar.CentroidArea(f.Geometry)
			x, y := p.project(c.main, centroid)
			c.text(Text{X: x, Y: y, S: label, Size: 9, Color: rgb("#000000"), HAlign: AlignCenter, VAlign: AlignMiddle},
				&Box{Fill: "#ffffff", Opacity: 0.7, Pad: 0.2})
		}
	}

	entries := []LegendEntry{{Label: "Study Area", Color: StudyFill, Kind: LegendLine, Width: 2}}
	if in.Basemap != nil {
		entries = append(entries, LegendEntry{Label: in.BasemapName + " Basemap", Color: BasemapSwatch, Kind: LegendSquare})
	}
	return entries
}

// boundary draws the pasted coordinate ring and its site markers.
func (c *composer) boundary(in Input) []LegendEntry {
	if !in.ShowBoundary || len(in.Boundary) == 0 {
		return nil
	}
	p := c.page
	c.drawGeometry(c.main, orb.Polygon{in.Boundary}, stroke(BoundaryColor, p.pt(1.5), p.pt(5.5), p.pt(2.4)), "", 0, "")
	entries := []LegendEntry{{Label: "Boundary", Color: BoundaryColor, Kind: LegendDashed, Width: 1.5}}

	if !in.SiteLabels || len(in.Sites) == 0 {
		return entries
	}
	dot := fill(BoundaryColor, 1, "", 0)
	for _, site := range in.Sites {
		x, y := p.project(c.main, orb.Point{site.Lon, site.Lat})
		c.fg(func(s *canvas) { s.circle(x, y, p.pt(3), dot) })
		c.text(Text{X: x + p.pt(3), Y: y - p.pt(3), S: site.Name, Size: 8, Color: rgb(SiteLabel)},
			&Box{Fill: "#ffffff", Opacity: 0.7, Pad: 0.2})
	}
	return append(entries, LegendEntry{Label: "Site Points", Color: BoundaryColor, Kind: LegendMarker})
}

func (c *composer) layers(layers []Layer) []LegendEntry {
	p := c.page
	area := fill(LayerColor, 1, LayerColor, p.pt(1))
	line := stroke(LayerColor, p.pt(1))
	dot := fill(LayerColor, 1, "", 0)

	var entries []LegendEntry
	for _, l := range layers {
		if l.Features == nil {
			continue
		}
		for _, f := range l.Features.Features {
			c.drawGeometry(c.main, f.Geometry, area, line, p.pt(2.5), dot)
		}
		entries = append(entries, LegendEntry{Label: l.Name, Color: LayerColor, Kind: LegendLine, Width: 1})
	}
	return entries
}

// scaleBar sits in the lower left of the main axes on a translucent box.
func (c *composer) scaleBar() {
	p := c.page
	sb := NewScaleBar(c.main)
	c.fig.ScaleBar = sb
	if sb.Metres == 0 {
		return
	}

	frame := p.Pixels(c.main.Frame)
	barW := sb.Fraction * float64(frame.Dx())
	barH := p.pt(3)
	padding := p.pt(5)
	labelH := p.pt(9) * 1.3

	f, err := face(false, 9, p.DPI)
	if err != nil {
		c.err = err
		return
	}
	labelW, _, _ := metrics(f, sb.Label)
	boxW := max(barW, labelW) + 2*padding
	boxH := barH + labelH + 2*padding
	x0 := float64(frame.Min.X) + p.pt(8)
	y0 := float64(frame.Max.Y) - p.pt(8) - boxH
	barX := x0 + (boxW-barW)/2

	c.fg(func(s *canvas) {
		s.rect(x0, y0, boxW, boxH, fill("#ffffff", 0.7, "", 0))
		s.rect(barX, y0+padding, barW, barH, fill(StudyEdge, 1, "", 0))
	})
	c.text(Text{X: x0 + boxW/2, Y: y0 + padding + barH + labelH/2, S: sb.Label, Size: 9, Color: rgb(StudyEdge), HAlign: AlignCenter, VAlign: AlignMiddle}, nil)
}

// northArrow points from (0.05, 0.90) to (0.05, 0.95) in axes fractions.
func (c *composer) northArrow() {
	p := c.page
	x0, y0 := p.axesPixel(c.main, orb.Point{0.05, 0.90})
	x1, y1 := p.axesPixel(c.main, orb.Point{0.05, 0.95})
	style := stroke(StudyEdge, p.pt(1.5))
	c.fg(func(s *canvas) { s.arrow(x0, y0, x1, y1, p.pt(6), style) })
	c.text(Text{X: x0, Y: y0, S: "N", Size: 12, Color: rgb(StudyEdge), HAlign: AlignCenter, VAlign: AlignMiddle},
		&Box{Fill: "#ffffff", Opacity: 0.7, Pad: 0.2})
}

// axesDecorations draws the spine, degree tick labels and axis titles.
func (c *composer) axesDecorations() {
	p, a := c.page, c.main
	frame := p.Pixels(a.Frame)
	tickLen := p.pt(3.5)
	spine := stroke("#000000", p.pt(0.8))
	black := rgb("#000000")

	xs, xstep, _ := ticks(a.XLim, 6)
	ys, ystep, _ := ticks(a.YLim, 6)

	c.fg(func(s *canvas) {
		s.rect(float64(frame.Min.X), float64(frame.Min.Y), float64(frame.Dx()), float64(frame.Dy()), spine)
		for _, v := range xs {
			x, _ := p.project(a, orb.Point{v, a.YLim[0]})
			s.line(x, float64(frame.Max.Y), x, float64(frame.Max.Y)+tickLen, spine)
		}
		for _, v := range ys {
			_, y := p.project(a, orb.Point{a.XLim[0], v})
			s.line(float64(frame.Min.X)-tickLen, y, float64(frame.Min.X), y, spine)
		}
	})

	for _, v := range xs {
		x, _ := p.project(a, orb.Point{v, a.YLim[0]})
		c.text(Text{X: x, Y: float64(frame.Max.Y) + tickLen + p.pt(2), S: degreeLabel(v, xstep, false), Size: 8, Color: black, HAlign: AlignCenter, VAlign: AlignTop}, nil)
	}
	for _, v := range ys {
		_, y := p.project(a, orb.Point{a.XLim[0], v})
		c.text(Text{X: float64(frame.Min.X) - tickLen - p.pt(2), Y: y, S: degreeLabel(v, ystep, true), Size: 8, Color: black, HAlign: AlignRight, VAlign: AlignMiddle}, nil)
	}

	c.text(Text{X: float64(frame.Min.X+frame.Max.X) / 2, Y: float64(frame.Max.Y) + tickLen + p.pt(16), S: "Longitude", Size: 9, Color: black, HAlign: AlignCenter, VAlign: AlignTop}, nil)
	c.text(Text{X: float64(frame.Min.X) - tickLen - p.pt(50), Y: float64(frame.Min.Y+frame.Max.Y) / 2, S: "Latitude", Size: 9, Color: black, HAlign: AlignCenter, VAlign: AlignMiddle, Rotate: true}, nil)
}

// insetMap draws the simplified country, the locator box and the optional
// country label.
func (c *composer) insetMap(in Input, selection orb.Bound) {
	p, a := c.page, c.inset
	threshold := (a.XLim[1] - a.XLim[0]) / 2000
	country := simplify.DouglasPeucker(threshold).Simplify(orb.Clone(in.Country.Geometry))
	c.drawGeometry(a, country, fill(CountryFill, 1, CountryEdge, p.pt(0.5)), stroke(CountryEdge, p.pt(0.5)), p.pt(2), fill(CountryEdge, 1, "", 0))

	c.drawGeometry(a, selection.ToPolygon(), stroke(BoundaryColor, p.pt(1.5)), "", 0, "")

	frame := p.Pixels(a.Frame)
	spine := stroke("#000000", p.pt(0.8))
	c.fg(func(s *canvas) {
		s.rect(float64(frame.Min.X), float64(frame.Min.Y), float64(frame.Dx()), float64(frame.Dy()), spine)
	})

	if in.CountryLabel && in.CountryName != "" {
		centroid, _ := planar.CentroidArea(in.Country.Geometry)
		x, y := p.project(a, centroid)
		c.text(Text{X: x, Y: y, S: in.CountryName, Size: 10, Bold: true, Color: rgb(StudyEdge), HAlign: AlignCenter, VAlign: AlignBottom},
			&Box{Fill: "#ffffff", Opacity: 0.7, Pad: 0.3})
	}
}

// connectors arrows run from the inset to the main axes.
func (c *composer) connectors(g orb.Geometry) {
	p := c.page
	c.fig.Connectors = PlaceConnectors(g, c.main, c.inset)
	style := stroke(StudyEdge, p.pt(1.5))
	for _, con := range c.fig.Connectors {
		x0, y0 := p.axesPixel(c.inset, con.Inset)
		x1, y1 := p.axesPixel(c.main, con.Main)
		c.fg(func(s *canvas) { s.arrow(x0, y0, x1, y1, p.pt(8), style) })
	}
}

// frame draws the page border, title and logo placement.
func (c *composer) frame(in Input) {
	p := c.page
	border := p.Pixels(BorderFrame)
	style := stroke(StudyEdge, p.pt(2))
	c.fg(func(s *canvas) {
		s.rect(float64(border.Min.X), float64(border.Min.Y), float64(border.Dx()), float64(border.Dy()), style)
	})

	x, y := p.pixel(orb.Point{0.5, titleY})
	c.text(Text{X: x, Y: y, S: in.Title, Size: 18, Bold: true, Color: color.RGBA{A: 0xff}, HAlign: AlignCenter, VAlign: AlignTop}, nil)

	if in.Logo != nil {
		c.fig.logoRect = fitNW(p.Pixels(LogoFrame), in.Logo.Bounds())
	}
}

// fitNW scales src into frame keeping its aspect, anchored top left.
func fitNW(frame, src image.Rectangle) image.Rectangle {
	if src.Dx() == 0 || src.Dy() == 0 {
		return image.Rectangle{}
	}
	scale := min(float64(frame.Dx())/float64(src.Dx()), float64(frame.Dy())/float64(src.Dy()))
	w := round(float64(src.Dx()) * scale)
	h := round(float64(src.Dy()) * scale)
	return image.Rect(frame.Min.X, frame.Min.Y, frame.Min.X+w, frame.Min.Y+h)
}
