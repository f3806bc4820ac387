package figure

import (
	"math"
	"testing"

	"github.com/paulmach/orb"
)

func TestFractionLinearAndOrdered(t *testing.T) {
	a := Axes{XLim: [2]float64{30, 40}, YLim: [2]float64{-5, 5}}

	tests := []struct {
		in   orb.Point
		want orb.Point
	}{
		{orb.Point{30, -5}, orb.Point{0, 0}},
		{orb.Point{40, 5}, orb.Point{1, 1}},
		{orb.Point{35, 0}, orb.Point{0.5, 0.5}},
		{orb.Point{42.5, -7.5}, orb.Point{1.25, -0.25}},
	}
	for _, tt := range tests {
		got := a.Fraction(tt.in)
		if math.Abs(got[0]-tt.want[0]) > 1e-12 || math.Abs(got[1]-tt.want[1]) > 1e-12 {
			t.Errorf("Fraction(%v)=%v, want %v", tt.in, got, tt.want)
		}
	}

	prev := math.Inf(-1)
	for x := 25.0; x <= 45; x += 0.5 {
		f := a.Fraction(orb.Point{x, 0})[0]
		if f <= prev {
			t.Fatalf("fraction not increasing at x=%v", x)
		}
		prev = f
	}
}

func TestNewAxesKeepsBoundAndAspect(t *testing.T) {
	page := Page{WidthIn: 14, HeightIn: 12.5, DPI: 50}
	b := orb.Bound{Min: orb.Point{36.6, -1.45}, Max: orb.Point{37.1, -1.15}}
	a := NewAxes(page, MainFrame, b)

	if !a.Bound().Contains(b.Min) || !a.Bound().Contains(b.Max) {
		t.Fatalf("limits %v do not contain %v", a.Bound(), b)
	}

	px := page.Pixels(MainFrame)
	lat := (a.YLim[0] + a.YLim[1]) / 2
	ratio := (a.XLim[1] - a.XLim[0]) * math.Cos(lat*math.Pi/180) / (a.YLim[1] - a.YLim[0])
	want := float64(px.Dx()) / float64(px.Dy())
	if math.Abs(ratio-want) > 1e-9 {
		t.Fatalf("ground aspect=%v, want frame aspect %v", ratio, want)
	}
}

func TestNewAxesSinglePoint(t *testing.T) {
	p := orb.Point{36.8, -1.3}
	a := NewAxes(DefaultPage, InsetFrame, orb.Bound{Min: p, Max: p})
	if a.XLim[1] <= a.XLim[0] || a.YLim[1] <= a.YLim[0] {
		t.Fatalf("degenerate limits %v %v", a.XLim, a.YLim)
	}
}

func TestPagePixels(t *testing.T) {
	page := Page{WidthIn: 10, HeightIn: 10, DPI: 10}
	r := page.Pixels(Rect{0.1, 0.2, 0.5, 0.3})
	if r.Min.X != 10 || r.Max.X != 60 || r.Min.Y != 50 || r.Max.Y != 80 {
		t.Fatalf("pixels=%v, want (10,50)-(60,80)", r)
	}
}
