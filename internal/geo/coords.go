package geo

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
)

// ErrInvalidCoordinates is returned for pasted text that cannot be turned into a ring.
var ErrInvalidCoordinates = errors.New("invalid coordinates")

// LatLon is one pasted pair, kept in the order the user typed it.
type LatLon struct {
	Lat float64 `json:"lat" doc:"Latitude in decimal degrees"`
	Lon float64 `json:"lon" doc:"Longitude in decimal degrees"`
}

// Point returns the pair as an orb point (x = lon, y = lat).
func (ll LatLon) Point() orb.Point {
	return orb.Point{ll.Lon, ll.Lat}
}

// SiteLabel names one pasted vertex.
type SiteLabel struct {
	Name   string  `json:"name" doc:"Site name" example:"Site 1"`
	Lat    float64 `json:"lat" doc:"Latitude in decimal degrees"`
	Lon    float64 `json:"lon" doc:"Longitude in decimal degrees"`
	LatDMS string  `json:"latDms" doc:"Latitude in degrees-minutes-seconds" example:"1°17'0.00\"S"`
	LonDMS string  `json:"lonDms" doc:"Longitude in degrees-minutes-seconds" example:"36°49'0.00\"E"`
}

// StudyPolygon is the result of parsing pasted coordinates.
type StudyPolygon struct {
	// Pairs is the closed sequence: first == last.
	Pairs []LatLon
	Sites []SiteLabel
}

// Ring returns the closed ring in (lon, lat) order.
func (s StudyPolygon) Ring() orb.Ring {
	ring := make(orb.Ring, len(s.Pairs))
	for i, p := range s.Pairs {
		ring[i] = p.Point()
	}
	return ring
}

// Polygon wraps Ring as a single-ring polygon.
func (s StudyPolygon) Polygon() orb.Polygon {
	return orb.Polygon{s.Ring()}
}

// ParseCoordinates reads one "lat, lon" pair per line. Blank lines are
// skipped. The ring is closed by appending the first pair when the last one
// differs, and one site label is produced per pasted vertex.
func ParseCoordinates(text, prefix string) (StudyPolygon, error) {
	var pairs []LatLon
	for i, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		ll, err := parseLine(line)
		if err != nil {
			return StudyPolygon{}, fmt.Errorf("%w: line %d: %v", ErrInvalidCoordinates, i+1, err)
		}
		pairs = append(pairs, ll)
	}
	if len(pairs) < 3 {
		return StudyPolygon{}, fmt.Errorf("%w: need at least 3 points, got %d", ErrInvalidCoordinates, len(pairs))
	}

	pairs = CloseRing(pairs)
	return StudyPolygon{Pairs: pairs, Sites: SiteLabels(pairs, prefix)}, nil
}

// CloseRing appends the first pair when the sequence is not already closed.
func CloseRing(pairs []LatLon) []LatLon {
	if len(pairs) == 0 || pairs[0] == pairs[len(pairs)-1] {
		return pairs
	}
	return append(pairs, pairs[0])
}

// SiteLabels names every vertex of a closed ring except the closing duplicate.
func SiteLabels(closed []LatLon, prefix string) []SiteLabel {
	if prefix == "" {
		prefix = "Site"
	}
	if len(closed) < 2 {
		return nil
	}
	sites := make([]SiteLabel, 0, len(closed)-1)
	for i, p := range closed[:len(closed)-1] {
		sites = append(sites, SiteLabel{
			Name:   fmt.Sprintf("%s %d", prefix, i+1),
			Lat:    p.Lat,
			Lon:    p.Lon,
			LatDMS: FormatDMS(p.Lat, Latitude),
			LonDMS: FormatDMS(p.Lon, Longitude),
		})
	}
	return sites
}

func parseLine(line string) (LatLon, error) {
	fields := strings.Split(line, ",")
	if len(fields) != 2 {
		return LatLon{}, fmt.Errorf("expected \"lat, lon\", got %d values", len(fields))
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(fields[0]), 64)
	if err != nil {
		return LatLon{}, fmt.Errorf("latitude %q is not a number", strings.TrimSpace(fields[0]))
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(fields[1]), 64)
	if err != nil {
		return LatLon{}, fmt.Errorf("longitude %q is not a number", strings.TrimSpace(fields[1]))
	}
	if math.IsNaN(lat) || math.IsNaN(lon) || math.IsInf(lat, 0) || math.IsInf(lon, 0) {
		return LatLon{}, errors.New("coordinates must be finite")
	}
	if lat < -90 || lat > 90 {
		return LatLon{}, fmt.Errorf("latitude %g out of range", lat)
	}
	if lon < -180 || lon > 180 {
		return LatLon{}, fmt.Errorf("longitude %g out of range", lon)
	}
	return LatLon{Lat: lat, Lon: lon}, nil
}
