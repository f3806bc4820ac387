package figure

import (
	"math"
	"testing"
)

func TestNiceStep(t *testing.T) {
	tests := map[float64]float64{
		0.13: 0.2,
		0.21: 0.25,
		0.3:  0.5,
		0.7:  1,
		1:    1,
		3:    5,
		12:   20,
	}
	for in, want := range tests {
		if got := niceStep(in); math.Abs(got-want) > 1e-12 {
			t.Errorf("niceStep(%v)=%v, want %v", in, got, want)
		}
	}
}

func TestTicksInsideLimits(t *testing.T) {
	lim := [2]float64{36.53, 37.17}
	values, step, _ := ticks(lim, 6)
	if len(values) < 2 {
		t.Fatalf("ticks=%v, want at least 2", values)
	}
	for i, v := range values {
		if v < lim[0] || v > lim[1] {
			t.Fatalf("tick %v outside %v", v, lim)
		}
		if i > 0 && math.Abs(v-values[i-1]-step) > 1e-9 {
			t.Fatalf("uneven spacing in %v", values)
		}
	}
}

func TestDegreeLabel(t *testing.T) {
	tests := []struct {
		v, step float64
		lat     bool
		want    string
	}{
		{36.5, 0.5, false, "36.5°E"},
		{-1.25, 0.25, true, "1.25°S"},
		{0, 1, true, "0°"},
		{-73, 1, false, "73°W"},
	}
	for _, tt := range tests {
		if got := degreeLabel(tt.v, tt.step, tt.lat); got != tt.want {
			t.Errorf("degreeLabel(%v)=%q, want %q", tt.v, got, tt.want)
		}
	}
}

func TestScaleBar(t *testing.T) {
	// About 111 km across at the equator.
	a := Axes{XLim: [2]float64{36, 37}, YLim: [2]float64{-0.5, 0.5}}
	sb := NewScaleBar(a)
	if sb.Metres != 20000 {
		t.Fatalf("length=%v m, want 20000", sb.Metres)
	}
	if sb.Label != "20 km" {
		t.Fatalf("label=%q, want 20 km", sb.Label)
	}
	if sb.Fraction <= 0.1 || sb.Fraction > 0.2 {
		t.Fatalf("fraction=%v, want (0.1, 0.2]", sb.Fraction)
	}

	wide := NewScaleBar(Axes{XLim: [2]float64{0, 60}, YLim: [2]float64{-10, 10}})
	if wide.Label != "1,000 km" {
		t.Fatalf("wide label=%q, want 1,000 km", wide.Label)
	}

	small := NewScaleBar(Axes{XLim: [2]float64{36.8, 36.81}, YLim: [2]float64{0, 0.01}})
	if small.Label != "200 m" {
		t.Fatalf("small label=%q, want 200 m", small.Label)
	}
}
