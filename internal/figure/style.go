package figure

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"
)

// Map palette.
const (
	StudyFill     = "#3498db"
	StudyEdge     = "#2c3e50"
	BoundaryColor = "#e74c3c"
	LayerColor    = "#27ae60"
	CountryFill   = "#bdc3c7"
	CountryEdge   = "#7f8c8d"
	AxesFace      = "#f8f9fa"
	SiteLabel     = "#8b0000"
	MinorGrid     = "#808080"
	BasemapSwatch = "#d3d3d3"
)

// rgb parses #rrggbb; anything else is black.
func rgb(hex string) color.RGBA {
	hex = strings.TrimPrefix(hex, "#")
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil || len(hex) != 6 {
		return color.RGBA{A: 0xff}
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}
}

func hex(c color.RGBA) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// stroke builds an SVG style for an unfilled line.
func stroke(color string, width float64, dash ...float64) string {
	s := fmt.Sprintf("fill:none;stroke:%s;stroke-width:%.2f;stroke-linejoin:round;stroke-linecap:round", color, width)
	if len(dash) > 0 {
		parts := make([]string, len(dash))
		for i, d := range dash {
			parts[i] = strconv.FormatFloat(d, 'f', 1, 64)
		}
		s += ";stroke-dasharray:" + strings.Join(parts, ",")
	}
	return s
}

// fill builds an SVG style for a filled shape with an optional edge.
func fill(color string, opacity float64, edge string, width float64) string {
	s := fmt.Sprintf("fill:%s;fill-opacity:%.2f;fill-rule:evenodd", color, opacity)
	if edge == "" {
		return s + ";stroke:none"
	}
	return s + fmt.Sprintf(";stroke:%s;stroke-width:%.2f;stroke-linejoin:round", edge, width)
}
