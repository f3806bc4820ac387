package service

import (
	"archive/zip"
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/jonas-p/go-shp"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/joeblew999/plat-inset/internal/figure"
	"github.com/joeblew999/plat-inset/internal/world"
)

var testPage = figure.Page{WidthIn: 14, HeightIn: 12.5, DPI: 20}

func testWorld(t *testing.T) *world.Handle {
	t.Helper()
	fc := geojson.NewFeatureCollection()
	for name, ring := range map[string]orb.Ring{
		"Kenya":    {{34, -4.7}, {34, 4.6}, {41.9, 4.6}, {41.9, -4.7}, {34, -4.7}},
		"Tanzania": {{29.3, -11.7}, {29.3, -1}, {40.4, -1}, {40.4, -11.7}, {29.3, -11.7}},
	} {
		f := geojson.NewFeature(orb.Polygon{ring})
		f.Properties["ADMIN"] = name
		fc.Append(f)
	}
	ds, err := world.NewDataset(fc, "ADMIN")
	if err != nil {
		t.Fatal(err)
	}
	return world.Preloaded(ds)
}

func square(x, y, size float64) []shp.Point {
	return []shp.Point{{X: x, Y: y}, {X: x, Y: y + size}, {X: x + size, Y: y + size}, {X: x + size, Y: y}, {X: x, Y: y}}
}

// countiesZip holds counties.shp with a COUNTY column of three squares.
func countiesZip(t *testing.T) []byte {
	t.Helper()
	dir := t.TempDir()
	w, err := shp.Create(filepath.Join(dir, "counties.shp"), shp.POLYGON)
	if err != nil {
		t.Fatal(err)
	}
	if err := w.SetFields([]shp.Field{shp.StringField("COUNTY", 40)}); err != nil {
		t.Fatal(err)
	}
	for i, name := range []string{"Nairobi", "Kiambu", "Machakos"} {
		poly := shp.Polygon(*shp.NewPolyLine([][]shp.Point{square(36.5+0.3*float64(i), -1.4, 0.25)}))
		n := w.Write(&poly)
		if err := w.WriteAttribute(int(n), 0, name); err != nil {
			t.Fatal(err)
		}
	}
	w.Close()

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, ext := range []string{".shp", ".shx", ".dbf"} {
		data, err := os.ReadFile(filepath.Join(dir, "counties"+ext))
		if err != nil {
			t.Fatal(err)
		}
		fw, err := zw.Create("counties" + ext)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := fw.Write(data); err != nil {
			t.Fatal(err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}
