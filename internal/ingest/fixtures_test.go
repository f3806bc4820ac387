package ingest

import (
	"archive/zip"
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/jonas-p/go-shp"
)

// square returns a clockwise ring, which shapefiles use for exteriors.
func square(x, y, size float64) []shp.Point {
	return []shp.Point{
		{X: x, Y: y},
		{X: x, Y: y + size},
		{X: x + size, Y: y + size},
		{X: x + size, Y: y},
		{X: x, Y: y},
	}
}

// writePolygons writes a polygon shapefile with a single NAME column.
func writePolygons(t *testing.T, dir, base string, names []string, rings [][]shp.Point) string {
	t.Helper()
	filename := filepath.Join(dir, base+".shp")
	w, err := shp.Create(filename, shp.POLYGON)
	if err != nil {
		t.Fatal(err)
	}
	if err := w.SetFields([]shp.Field{shp.StringField("NAME", 40)}); err != nil {
		t.Fatal(err)
	}
	for i, ring := range rings {
		poly := shp.Polygon(*shp.NewPolyLine([][]shp.Point{ring}))
		n := w.Write(&poly)
		if err := w.WriteAttribute(int(n), 0, names[i]); err != nil {
			t.Fatal(err)
		}
	}
	w.Close()
	return filename
}

// zipFiles builds an in-memory archive; entries maps archive names to disk paths.
func zipFiles(t *testing.T, entries map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, src := range entries {
		data, err := os.ReadFile(src)
		if err != nil {
			t.Fatal(err)
		}
		w, err := zw.Create(name)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := w.Write(data); err != nil {
			t.Fatal(err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

// countiesZip returns an archive with counties.shp (3 squares) under admin/.
func countiesZip(t *testing.T) []byte {
	t.Helper()
	dir := t.TempDir()
	writePolygons(t, dir, "counties", []string{"Nairobi", "Kiambu", "Machakos"}, [][]shp.Point{
		square(36.7, -1.4, 0.2),
		square(36.7, -1.2, 0.2),
		square(36.9, -1.6, 0.4),
	})
	return zipFiles(t, map[string]string{
		"admin/counties.shp": filepath.Join(dir, "counties.shp"),
		"admin/counties.shx": filepath.Join(dir, "counties.shx"),
		"admin/counties.dbf": filepath.Join(dir, "counties.dbf"),
	})
}
