package figure

import "github.com/paulmach/orb"

// Connector links a point in the inset to the same point in the main axes.
// Both ends are axis fractions of their own axes.
type Connector struct {
	Inset orb.Point
	Main  orb.Point
}

// PlaceConnectors returns connectors for the first vertex and the middle
// vertex of the polygon's exterior ring. Geometries other than a polygon,
// or rings with fewer than 4 vertices, produce none.
func PlaceConnectors(g orb.Geometry, main, inset Axes) []Connector {
	poly, ok := g.(orb.Polygon)
	if !ok || len(poly) == 0 || len(poly[0]) < 4 {
		return nil
	}
	ring := poly[0]
	anchors := []orb.Point{ring[0], ring[len(ring)/2]}

	out := make([]Connector, 0, len(anchors))
	for _, p := range anchors {
		out = append(out, Connector{Inset: inset.Fraction(p), Main: main.Fraction(p)})
	}
	return out
}
