package figure

// LegendKind selects the swatch drawn next to a legend label.
type LegendKind int

const (
	LegendLine LegendKind = iota
	LegendDashed
	LegendMarker
	LegendSquare
)

// LegendEntry is one row of the map legend.
type LegendEntry struct {
	Label string     `json:"label"`
	Color string     `json:"color"`
	Kind  LegendKind `json:"-"`
	// Width is the line width in points.
	Width float64 `json:"-"`
}

const legendTitle = "Map Legend"

// legend lays out entries in the lower right of the main axes.
func (c *composer) legend(entries []LegendEntry) error {
	if len(entries) == 0 {
		return nil
	}
	p := c.page
	labelFace, err := face(false, 10, p.DPI)
	if err != nil {
		return err
	}

	rowH := p.pt(10) * 1.4
	swatchW := p.pt(20)
	gap := p.pt(8)
	padding := p.pt(6)

	titleW, _, _ := metrics(labelFace, legendTitle)
	labelsW := 0.0
	for _, e := range entries {
		w, _, _ := metrics(labelFace, e.Label)
		labelsW = max(labelsW, w)
	}
	boxW := max(titleW, swatchW+gap+labelsW) + 2*padding
	boxH := rowH*float64(len(entries)+1) + 2*padding

	frame := p.Pixels(c.main.Frame)
	inset := p.pt(8)
	x0 := float64(frame.Max.X) - inset - boxW
	y0 := float64(frame.Max.Y) - inset - boxH

	c.fg(func(s *canvas) {
		s.rect(x0, y0, boxW, boxH, fill("#ffffff", 0.9, StudyEdge, p.pt(1.5)))
	})
	c.text(Text{X: x0 + boxW/2, Y: y0 + padding + rowH/2, S: legendTitle, Size: 10, Color: rgb(StudyEdge), HAlign: AlignCenter, VAlign: AlignMiddle}, nil)

	for i, e := range entries {
		cy := y0 + padding + rowH*(float64(i)+1.5)
		sx := x0 + padding
		c.fg(func(s *canvas) {
			switch e.Kind {
			case LegendDashed:
				s.line(sx, cy, sx+swatchW, cy, stroke(e.Color, p.pt(e.Width), p.pt(4), p.pt(2)))
			case LegendMarker:
				s.line(sx, cy, sx+swatchW, cy, stroke(e.Color, p.pt(1.5)))
				s.circle(sx+swatchW/2, cy, p.pt(3), fill(e.Color, 1, "", 0))
			case LegendSquare:
				side := p.pt(10)
				s.rect(sx+(swatchW-side)/2, cy-side/2, side, side, fill(e.Color, 1, "", 0))
			default:
				s.line(sx, cy, sx+swatchW, cy, stroke(e.Color, p.pt(e.Width)))
			}
		})
		c.text(Text{X: sx + swatchW + gap, Y: cy, S: e.Label, Size: 10, Color: rgb("#000000"), VAlign: AlignMiddle}, nil)
	}
	return nil
}
