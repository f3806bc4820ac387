// Package geo holds the small coordinate helpers behind the study area form:
// degrees-minutes-seconds formatting and the pasted-coordinate parser.
package geo

import (
	"fmt"
	"math"
)

// Axis selects the hemisphere letters used by FormatDMS.
type Axis int

const (
	Latitude Axis = iota
	Longitude
)

func (a Axis) String() string {
	if a == Longitude {
		return "lon"
	}
	return "lat"
}

// Hemisphere returns N/S for latitudes and E/W for longitudes. Zero is N or E.
func (a Axis) Hemisphere(dd float64) string {
	switch {
	case a == Latitude && dd >= 0:
		return "N"
	case a == Latitude:
		return "S"
	case dd >= 0:
		return "E"
	default:
		return "W"
	}
}

// DMS is a decomposed absolute angle.
type DMS struct {
	Degrees    int
	Minutes    int
	Seconds    float64
	Hemisphere string
}

// Decimal reassembles the absolute decimal degrees.
func (d DMS) Decimal() float64 {
	return float64(d.Degrees) + float64(d.Minutes)/60 + d.Seconds/3600
}

// String formats as D°M'S.SS"H.
func (d DMS) String() string {
	return fmt.Sprintf("%d°%d'%.2f\"%s", d.Degrees, d.Minutes, d.Seconds, d.Hemisphere)
}

// DecomposeDMS splits dd into whole degrees, whole minutes and the remaining
// seconds. Seconds are never carried into minutes, so a value such as
// 59.999" prints as 60.00".
func DecomposeDMS(dd float64, axis Axis) DMS {
	hemi := axis.Hemisphere(dd)
	dd = math.Abs(dd)
	degrees := int(dd)
	minutes := int((dd - float64(degrees)) * 60)
	seconds := (dd - float64(degrees) - float64(minutes)/60) * 3600
	return DMS{Degrees: degrees, Minutes: minutes, Seconds: seconds, Hemisphere: hemi}
}

// FormatDMS renders a signed decimal degree value as D°M'S.SS"H.
func FormatDMS(dd float64, axis Axis) string {
	return DecomposeDMS(dd, axis).String()
}
