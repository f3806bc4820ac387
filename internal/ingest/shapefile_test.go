package ingest

import (
	"bytes"
	"errors"
	"math"
	"testing"

	"github.com/jonas-p/go-shp"
	"github.com/paulmach/orb"
)

func TestReadShapefile(t *testing.T) {
	data := countiesZip(t)
	err := WithArchive(bytes.NewReader(data), int64(len(data)), func(a *Archive) error {
		s, err := a.Shapefile("")
		if err != nil {
			return err
		}
		ds, err := ReadShapefile(s.Path)
		if err != nil {
			return err
		}

		if len(ds.Features.Features) != 3 {
			t.Fatalf("features=%d, want 3", len(ds.Features.Features))
		}
		if len(ds.Columns) != 1 || ds.Columns[0] != "NAME" {
			t.Fatalf("columns=%v, want [NAME]", ds.Columns)
		}
		if !ds.HasColumn("NAME") || ds.HasColumn("ADMIN") {
			t.Fatal("HasColumn mismatch")
		}

		poly, ok := ds.Features.Features[0].Geometry.(orb.Polygon)
		if !ok {
			t.Fatalf("geometry=%T, want orb.Polygon", ds.Features.Features[0].Geometry)
		}
		if len(poly[0]) != 5 {
			t.Fatalf("ring vertices=%d, want 5", len(poly[0]))
		}

		values := ds.Values("NAME")
		want := []string{"Kiambu", "Machakos", "Nairobi"}
		for i := range want {
			if values[i] != want[i] {
				t.Fatalf("values=%v, want %v", values, want)
			}
		}

		sel := ds.Filter("NAME", []string{"Nairobi", "Machakos"})
		if len(sel.Features) != 2 {
			t.Fatalf("filtered=%d, want 2", len(sel.Features))
		}
		if sel.Features[0].Properties.MustString("NAME") != "Nairobi" {
			t.Fatalf("filter changed file order: %v", sel.Features[0].Properties)
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
}

func TestPolygonsGroupsHoles(t *testing.T) {
	outer := square(0, 0, 10)
	hole := []shp.Point{{X: 2, Y: 2}, {X: 4, Y: 2}, {X: 4, Y: 4}, {X: 2, Y: 4}, {X: 2, Y: 2}}
	second := square(20, 20, 1)

	var points []shp.Point
	var parts []int32
	for _, ring := range [][]shp.Point{outer, hole, second} {
		parts = append(parts, int32(len(points)))
		points = append(points, ring...)
	}

	mp, ok := polygons(parts, points).(orb.MultiPolygon)
	if !ok {
		t.Fatalf("got %T, want orb.MultiPolygon", polygons(parts, points))
	}
	if len(mp) != 2 {
		t.Fatalf("polygons=%d, want 2", len(mp))
	}
	if len(mp[0]) != 2 {
		t.Fatalf("first polygon rings=%d, want 2 (exterior + hole)", len(mp[0]))
	}
}

func TestShapeGeometryMeasuredAndZ(t *testing.T) {
	line := []shp.Point{{X: 36, Y: -1}, {X: 37, Y: -2}}
	tests := map[string]struct {
		shape shp.Shape
		want  string
	}{
		"PointM":      {&shp.PointM{X: 36, Y: -1}, orb.Point{}.GeoJSONType()},
		"MultiPointZ": {&shp.MultiPointZ{Points: line}, orb.MultiPoint{}.GeoJSONType()},
		"MultiPointM": {&shp.MultiPointM{Points: line}, orb.MultiPoint{}.GeoJSONType()},
		"PolyLineZ":   {&shp.PolyLineZ{Parts: []int32{0}, Points: line}, orb.LineString{}.GeoJSONType()},
		"PolyLineM":   {&shp.PolyLineM{Parts: []int32{0}, Points: line}, orb.LineString{}.GeoJSONType()},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			g := shapeGeometry(tt.shape)
			if g == nil {
				t.Fatal("shape dropped")
			}
			if g.GeoJSONType() != tt.want {
				t.Fatalf("type=%s, want %s", g.GeoJSONType(), tt.want)
			}
		})
	}
}

func TestPolygonsClosesRings(t *testing.T) {
	open := []shp.Point{{X: 0, Y: 0}, {X: 0, Y: 1}, {X: 1, Y: 1}, {X: 1, Y: 0}}
	poly, ok := polygons([]int32{0}, open).(orb.Polygon)
	if !ok {
		t.Fatal("expected a polygon")
	}
	if !poly[0].Closed() {
		t.Fatalf("ring not closed: %v", poly[0])
	}
}

func TestProjectionFromWKT(t *testing.T) {
	geographic := `GEOGCS["GCS_WGS_1984",DATUM["D_WGS_1984",SPHEROID["WGS_1984",6378137,298.257223563]],PRIMEM["Greenwich",0],UNIT["Degree",0.017453292519943295]]`
	webMercator := `PROJCS["WGS_1984_Web_Mercator_Auxiliary_Sphere",GEOGCS["GCS_WGS_1984"],PROJECTION["Mercator_Auxiliary_Sphere"]]`
	utm := `PROJCS["WGS_1984_UTM_Zone_37S",GEOGCS["GCS_WGS_1984"],PROJECTION["Transverse_Mercator"]]`

	if proj, err := projectionFromWKT(geographic); err != nil || proj != nil {
		t.Fatalf("geographic: proj=%v err=%v, want nil, nil", proj != nil, err)
	}

	proj, err := projectionFromWKT(webMercator)
	if err != nil || proj == nil {
		t.Fatalf("web mercator: proj=%v err=%v", proj != nil, err)
	}
	p := proj(orb.Point{0, 0})
	if math.Abs(p[0]) > 1e-9 || math.Abs(p[1]) > 1e-9 {
		t.Fatalf("origin projected to %v", p)
	}

	if _, err := projectionFromWKT(utm); !errors.Is(err, ErrUnsupportedProjection) {
		t.Fatalf("utm: err=%v, want ErrUnsupportedProjection", err)
	}
}
