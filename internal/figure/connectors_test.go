package figure

import (
	"testing"

	"github.com/paulmach/orb"
)

var unit = Axes{XLim: [2]float64{0, 1}, YLim: [2]float64{0, 1}}

func TestPlaceConnectorsFourVertices(t *testing.T) {
	ring := orb.Ring{{0.1, 0.1}, {0.1, 0.9}, {0.9, 0.9}, {0.1, 0.1}}
	inset := Axes{XLim: [2]float64{0, 2}, YLim: [2]float64{0, 2}}

	got := PlaceConnectors(orb.Polygon{ring}, unit, inset)
	if len(got) != 2 {
		t.Fatalf("connectors=%d, want 2", len(got))
	}
	if got[0].Main != ring[0] {
		t.Fatalf("first anchor=%v, want vertex 0 %v", got[0].Main, ring[0])
	}
	if got[1].Main != ring[2] {
		t.Fatalf("second anchor=%v, want vertex 2 %v", got[1].Main, ring[2])
	}
	if want := (orb.Point{0.45, 0.45}); got[1].Inset != want {
		t.Fatalf("inset anchor=%v, want %v", got[1].Inset, want)
	}
}

func TestPlaceConnectorsMiddleVertex(t *testing.T) {
	ring := orb.Ring{{0, 0}, {0, 1}, {0.5, 1}, {1, 1}, {1, 0}, {0, 0}}
	got := PlaceConnectors(orb.Polygon{ring}, unit, unit)
	if len(got) != 2 || got[1].Main != ring[3] {
		t.Fatalf("connectors=%v, want second anchor at vertex 3", got)
	}
}

func TestPlaceConnectorsSkipsOtherGeometry(t *testing.T) {
	tests := map[string]orb.Geometry{
		"multipolygon": orb.MultiPolygon{{{{0, 0}, {0, 1}, {1, 1}, {0, 0}}}},
		"point":        orb.Point{0.5, 0.5},
		"line":         orb.LineString{{0, 0}, {1, 1}},
		"short ring":   orb.Polygon{{{0, 0}, {0, 1}, {0, 0}}},
		"empty":        orb.Polygon{},
	}
	for name, g := range tests {
		if got := PlaceConnectors(g, unit, unit); len(got) != 0 {
			t.Errorf("%s: connectors=%d, want 0", name, len(got))
		}
	}
}
