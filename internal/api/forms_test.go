package api

import (
	"bytes"
	"errors"
	"io"
	"mime/multipart"
	"net/textproto"
	"testing"
)

func TestParseRenderForm(t *testing.T) {
	form := &multipart.Form{
		Value: map[string][]string{
			FieldCountry:   {" Kenya "},
			FieldAreas:     {"Nairobi", " ", "Kiambu "},
			"showpolygon":  {"false"},
			"sitelabels":   {"false", "on"},
			"basemap":      {"true"},
			"studyname":    {""},
			"title":        {"Field sites"},
			FieldShapefile: {"admin/counties.shp"},
		},
	}
	req, err := ParseRenderForm(form)
	if err != nil {
		t.Fatal(err)
	}
	if req.Country != "Kenya" {
		t.Fatalf("country=%q", req.Country)
	}
	if len(req.Areas) != 2 || req.Areas[1] != "Kiambu" {
		t.Fatalf("areas=%q", req.Areas)
	}
	o := req.Options
	if o.ShowPolygon || !o.SiteLabels || !o.Basemap {
		t.Fatalf("toggles=%+v", o)
	}
	if !o.RegionLabels || !o.CountryLabel || o.SVG {
		t.Fatalf("absent toggles should keep defaults: %+v", o)
	}
	if o.StudyName != "Study Area" || o.Title != "Field sites" {
		t.Fatalf("names=%q %q", o.StudyName, o.Title)
	}
	if req.Shapefile != "admin/counties.shp" || req.Archive != nil {
		t.Fatalf("shapefile=%q archive=%v", req.Shapefile, req.Archive)
	}
}

func TestParseRenderFormErrors(t *testing.T) {
	if _, err := ParseRenderForm(&multipart.Form{}); !errors.Is(err, errBadForm) {
		t.Fatalf("err=%v, want errBadForm", err)
	}
	form := &multipart.Form{Value: map[string][]string{FieldCountry: {"Kenya"}, "svg": {"perhaps"}}}
	if _, err := ParseRenderForm(form); !errors.Is(err, errBadForm) {
		t.Fatalf("err=%v, want errBadForm", err)
	}
}

func TestParseRenderFormLayers(t *testing.T) {
	form, err := multipartForm(t, map[string]string{"rivers.geojson": `{"type":"Point","coordinates":[36.8,-1.3]}`})
	if err != nil {
		t.Fatal(err)
	}
	req, err := ParseRenderForm(form)
	if err != nil {
		t.Fatal(err)
	}
	if len(req.Layers) != 1 || req.Layers[0].Name != "rivers.geojson" {
		t.Fatalf("layers=%+v", req.Layers)
	}
	rc, err := req.Layers[0].Open()
	if err != nil {
		t.Fatal(err)
	}
	defer rc.Close()
	data, _ := io.ReadAll(rc)
	if len(data) == 0 {
		t.Fatal("layer body is empty")
	}
}

// multipartForm round-trips layer files through a multipart reader so the
// file headers are real.
func multipartForm(t *testing.T, layers map[string]string) (*multipart.Form, error) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	mw.WriteField(FieldCountry, "Kenya")
	for name, content := range layers {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", `form-data; name="`+FieldLayers+`"; filename="`+name+`"`)
		h.Set("Content-Type", "application/geo+json")
		w, err := mw.CreatePart(h)
		if err != nil {
			return nil, err
		}
		w.Write([]byte(content))
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}
	return multipart.NewReader(&buf, mw.Boundary()).ReadForm(1 << 20)
}
