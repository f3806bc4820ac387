package figure

import (
	"fmt"
	"math"
	"strconv"
)

// niceStep rounds raw up to 1, 2, 2.5 or 5 times a power of ten.
func niceStep(raw float64) float64 {
	if raw <= 0 {
		return 1
	}
	exp := math.Pow(10, math.Floor(math.Log10(raw)))
	for _, m := range []float64{1, 2, 2.5, 5, 10} {
		if raw <= m*exp*(1+1e-9) {
			return m * exp
		}
	}
	return 10 * exp
}

// ticks returns the major tick values inside lim, aiming for about n ticks,
// and the number of minor intervals per major step.
func ticks(lim [2]float64, n int) (values []float64, step float64, minor int) {
	step = niceStep((lim[1] - lim[0]) / float64(n))
	start := math.Ceil(lim[0]/step-1e-9) * step
	for v := start; v <= lim[1]+step*1e-9; v += step {
		values = append(values, math.Round(v/step)*step)
	}

	mantissa := step / math.Pow(10, math.Floor(math.Log10(step)))
	minor = 5
	if math.Abs(mantissa-2) < 1e-9 || math.Abs(mantissa-2.5) < 1e-9 {
		minor = 4
	}
	return values, step, minor
}

// decimals returns how many fraction digits a step needs.
func decimals(step float64) int {
	d := 0
	for d < 6 && math.Abs(step*math.Pow(10, float64(d))-math.Round(step*math.Pow(10, float64(d)))) > 1e-6 {
		d++
	}
	return d
}

// degreeLabel formats a tick value with its hemisphere, e.g. 36.5°E.
func degreeLabel(v float64, step float64, latitude bool) string {
	hemi := ""
	switch {
	case v > 0 && latitude:
		hemi = "N"
	case v < 0 && latitude:
		hemi = "S"
	case v > 0:
		hemi = "E"
	case v < 0:
		hemi = "W"
	}
	return fmt.Sprintf("%s°%s", strconv.FormatFloat(math.Abs(v), 'f', decimals(step), 64), hemi)
}
