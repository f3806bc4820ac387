package figure

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// scaleBarShare is the target bar length as a share of the axis width.
const scaleBarShare = 0.2

// ScaleBar is a bar length in metres and its share of the axis width.
type ScaleBar struct {
	Metres   float64
	Fraction float64
	Label    string
}

// NewScaleBar picks a 1, 2 or 5 times 10^n length close to a fifth of the
// axis width, measured along the centre latitude.
func NewScaleBar(a Axes) ScaleBar {
	lat := (a.YLim[0] + a.YLim[1]) / 2
	width := geo.Distance(orb.Point{a.XLim[0], lat}, orb.Point{a.XLim[1], lat})
	if width <= 0 {
		return ScaleBar{}
	}

	target := width * scaleBarShare
	exp := math.Pow(10, math.Floor(math.Log10(target)))
	length := exp
	for _, m := range []float64{2, 5} {
		if m*exp <= target {
			length = m * exp
		}
	}

	return ScaleBar{Metres: length, Fraction: length / width, Label: distanceLabel(length)}
}

var printer = message.NewPrinter(language.English)

// distanceLabel formats metres as "500 m" or "1,000 km".
func distanceLabel(m float64) string {
	if m < 1000 {
		return printer.Sprintf("%d m", int(math.Round(m)))
	}
	km := m / 1000
	if km == math.Trunc(km) {
		return printer.Sprintf("%d km", int(km))
	}
	return printer.Sprintf("%.1f km", km)
}
