package geo

import (
	"errors"
	"testing"

	"github.com/paulmach/orb"
)

func TestParseCoordinatesClosesOpenRing(t *testing.T) {
	sp, err := ParseCoordinates("0,0\n0,1\n1,1\n1,0", "")
	if err != nil {
		t.Fatal(err)
	}
	ring := sp.Ring()
	if len(ring) != 5 {
		t.Fatalf("len(ring)=%d, want 5", len(ring))
	}
	if ring[0] != (orb.Point{0, 0}) || ring[4] != (orb.Point{0, 0}) {
		t.Fatalf("ring not closed on origin: %v", ring)
	}
	if len(sp.Sites) != 4 {
		t.Fatalf("len(sites)=%d, want 4", len(sp.Sites))
	}
	for i, want := range []string{"Site 1", "Site 2", "Site 3", "Site 4"} {
		if sp.Sites[i].Name != want {
			t.Errorf("sites[%d]=%q, want %q", i, sp.Sites[i].Name, want)
		}
	}
}

func TestParseCoordinatesKeepsClosedRing(t *testing.T) {
	sp, err := ParseCoordinates("0,0\n0,1\n1,1\n0,0\n", "Plot")
	if err != nil {
		t.Fatal(err)
	}
	if len(sp.Pairs) != 4 {
		t.Fatalf("len(pairs)=%d, want 4", len(sp.Pairs))
	}
	if len(sp.Sites) != 3 {
		t.Fatalf("len(sites)=%d, want 3", len(sp.Sites))
	}
	if sp.Sites[2].Name != "Plot 3" {
		t.Fatalf("name=%q, want Plot 3", sp.Sites[2].Name)
	}
}

func TestParseCoordinatesSwapsToLonLat(t *testing.T) {
	sp, err := ParseCoordinates("-1.25, 36.8\n-1.3, 36.9\n-1.2, 37.0", "")
	if err != nil {
		t.Fatal(err)
	}
	if got := sp.Ring()[0]; got != (orb.Point{36.8, -1.25}) {
		t.Fatalf("ring[0]=%v, want [36.8 -1.25]", got)
	}
	if sp.Sites[0].LatDMS != "1°15'0.00\"S" {
		t.Fatalf("latDms=%q", sp.Sites[0].LatDMS)
	}
}

func TestParseCoordinatesErrors(t *testing.T) {
	tests := map[string]string{
		"non-numeric":   "a,b\n1,1\n2,2",
		"three columns": "1,2,3\n1,1\n2,2",
		"one column":    "1\n1,1\n2,2",
		"too few":       "1,1\n2,2",
		"out of range":  "91,0\n1,1\n2,2",
		"nan":           "NaN,0\n1,1\n2,2",
		"empty":         "   \n",
	}
	for name, input := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ParseCoordinates(input, "")
			if !errors.Is(err, ErrInvalidCoordinates) {
				t.Fatalf("err=%v, want ErrInvalidCoordinates", err)
			}
		})
	}
}

func TestCloseRingAppendsOnce(t *testing.T) {
	open := []LatLon{{0, 0}, {0, 1}, {1, 1}}
	closed := CloseRing(open)
	if len(closed) != 4 {
		t.Fatalf("len=%d, want 4", len(closed))
	}
	again := CloseRing(closed)
	if len(again) != 4 {
		t.Fatalf("closing twice gave len=%d, want 4", len(again))
	}
}
