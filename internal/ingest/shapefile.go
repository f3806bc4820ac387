package ingest

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/jonas-p/go-shp"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/project"
)

// ErrUnsupportedProjection is returned for .prj files other than WGS84 or Web Mercator.
var ErrUnsupportedProjection = errors.New("unsupported projection: only geographic WGS84 and Web Mercator shapefiles are accepted")

// Dataset is a shapefile read into WGS84 features. Every attribute is kept
// as its trimmed string value under the DBF field name.
type Dataset struct {
	Name     string
	Columns  []string
	Features *geojson.FeatureCollection
}

// ReadShapefile reads geometries and attributes from a .shp path and its
// siblings, reprojecting to WGS84 according to the .prj when present.
func ReadShapefile(filename string) (*Dataset, error) {
	proj, err := readProjection(strings.TrimSuffix(filename, ".shp") + ".prj")
	if err != nil {
		return nil, err
	}

	r, err := shp.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("open shapefile: %w", err)
	}
	defer r.Close()

	fields := r.Fields()
	columns := make([]string, len(fields))
	for i, f := range fields {
		columns[i] = strings.TrimSpace(f.String())
	}

	fc := geojson.NewFeatureCollection()
	for r.Next() {
		n, shape := r.Shape()
		g := shapeGeometry(shape)
		if g == nil {
			continue
		}
		if proj != nil {
			g = project.Geometry(g, proj)
		}

		f := geojson.NewFeature(g)
		for i, col := range columns {
			f.Properties[col] = strings.TrimSpace(r.ReadAttribute(n, i))
		}
		fc.Append(f)
	}

	if len(fc.Features) == 0 {
		return nil, fmt.Errorf("shapefile %s has no readable features", filename)
	}

	return &Dataset{Name: filename, Columns: columns, Features: fc}, nil
}

// Values returns the distinct, sorted values of a column.
func (d *Dataset) Values(column string) []string {
	seen := map[string]bool{}
	var values []string
	for _, f := range d.Features.Features {
		v := f.Properties.MustString(column, "")
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		values = append(values, v)
	}
	sort.Strings(values)
	return values
}

// HasColumn reports whether column is one of the DBF fields.
func (d *Dataset) HasColumn(column string) bool {
	for _, c := range d.Columns {
		if c == column {
			return true
		}
	}
	return false
}

// Filter returns the features whose column value is one of values, in file order.
func (d *Dataset) Filter(column string, values []string) *geojson.FeatureCollection {
	want := make(map[string]bool, len(values))
	for _, v := range values {
		want[v] = true
	}
	out := geojson.NewFeatureCollection()
	for _, f := range d.Features.Features {
		if want[f.Properties.MustString(column, "")] {
			out.Append(f)
		}
	}
	return out
}

func readProjection(filename string) (orb.Projection, error) {
	data, err := os.ReadFile(filename)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read projection: %w", err)
	}
	return projectionFromWKT(string(data))
}

// projectionFromWKT returns nil for geographic coordinate systems and the
// inverse Web Mercator projection for EPSG:3857 style definitions.
func projectionFromWKT(wkt string) (orb.Projection, error) {
	upper := strings.ToUpper(wkt)
	if !strings.Contains(upper, "PROJCS") {
		return nil, nil
	}
	for _, marker := range []string{"AUXILIARY_SPHERE", "PSEUDO-MERCATOR", "PSEUDO_MERCATOR", "WEB_MERCATOR", "\"3857\""} {
		if strings.Contains(upper, marker) {
			return project.Mercator.ToWGS84, nil
		}
	}
	return nil, ErrUnsupportedProjection
}

func shapeGeometry(s shp.Shape) orb.Geometry {
	switch g := s.(type) {
	case *shp.Point:
		return orb.Point{g.X, g.Y}
	case *shp.PointZ:
		return orb.Point{g.X, g.Y}
	case *shp.PointM:
		return orb.Point{g.X, g.Y}
	case *shp.MultiPoint:
		return multiPoint(g.Points)
	case *shp.MultiPointZ:
		return multiPoint(g.Points)
	case *shp.MultiPointM:
		return multiPoint(g.Points)
	case *shp.PolyLine:
		return lines(g.Parts, g.Points)
	case *shp.PolyLineZ:
		return lines(g.Parts, g.Points)
	case *shp.PolyLineM:
		return lines(g.Parts, g.Points)
	case *shp.Polygon:
		return polygons(g.Parts, g.Points)
	case *shp.PolygonZ:
		return polygons(g.Parts, g.Points)
	case *shp.PolygonM:
		return polygons(g.Parts, g.Points)
	default:
		return nil
	}
}

func multiPoint(points []shp.Point) orb.MultiPoint {
	mp := make(orb.MultiPoint, len(points))
	for i, p := range points {
		mp[i] = orb.Point{p.X, p.Y}
	}
	return mp
}

// splitParts cuts a flat point list at the part offsets.
func splitParts(parts []int32, points []shp.Point) [][]orb.Point {
	out := make([][]orb.Point, 0, len(parts))
	for i, start := range parts {
		end := int32(len(points))
		if i+1 < len(parts) {
			end = parts[i+1]
		}
		if start < 0 || start > end || int(end) > len(points) {
			continue
		}
		part := make([]orb.Point, 0, end-start)
		for _, p := range points[start:end] {
			part = append(part, orb.Point{p.X, p.Y})
		}
		out = append(out, part)
	}
	return out
}

func lines(parts []int32, points []shp.Point) orb.Geometry {
	split := splitParts(parts, points)
	switch len(split) {
	case 0:
		return nil
	case 1:
		return orb.LineString(split[0])
	}
	mls := make(orb.MultiLineString, len(split))
	for i, p := range split {
		mls[i] = orb.LineString(p)
	}
	return mls
}

// polygons groups rings into polygons: clockwise rings are exteriors,
// counter-clockwise rings are holes of the preceding exterior.
func polygons(parts []int32, points []shp.Point) orb.Geometry {
	var mp orb.MultiPolygon
	for _, part := range splitParts(parts, points) {
		if len(part) < 3 {
			continue
		}
		ring := orb.Ring(part)
		if !ring.Closed() {
			ring = append(ring, ring[0])
		}
		if ring.Orientation() == orb.CCW && len(mp) > 0 {
			last := len(mp) - 1
			mp[last] = append(mp[last], ring)
			continue
		}
		mp = append(mp, orb.Polygon{ring})
	}
	switch len(mp) {
	case 0:
		return nil
	case 1:
		return mp[0]
	}
	return mp
}
