package service

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/joeblew999/plat-inset/internal/basemap"
	"github.com/joeblew999/plat-inset/internal/export"
	"github.com/joeblew999/plat-inset/internal/geo"
	"github.com/joeblew999/plat-inset/internal/ingest"
)

const nairobiSites = "-1.2, 36.7\n-1.2, 36.9\n-1.4, 36.9\n-1.4, 36.7"

func newService(t *testing.T, cfg RenderConfig) *RenderService {
	t.Helper()
	cfg.Page = testPage
	return NewRenderService(testWorld(t), cfg)
}

func layerFile(name, body string) ingest.LayerFile {
	return ingest.LayerFile{Name: name, Open: func() (io.ReadCloser, error) {
		return io.NopCloser(strings.NewReader(body)), nil
	}}
}

func TestRenderCoordinates(t *testing.T) {
	bus := NewEventBus()
	svc := newService(t, RenderConfig{Bus: bus})

	var steps []int
	opts := DefaultRenderOptions()
	opts.SVG = true
	res, err := svc.Render(context.Background(), RenderRequest{
		Country:     "Kenya",
		Coordinates: nairobiSites,
		SitePrefix:  "Plot",
		Options:     opts,
	}, func(p int, _ string) { steps = append(steps, p) })
	if err != nil {
		t.Fatal(err)
	}

	if !strings.HasPrefix(res.PNG, export.PNGPrefix) {
		t.Fatalf("png=%q, want data URI", res.PNG[:20])
	}
	if !strings.HasPrefix(res.HTML, export.HTMLPrefix) {
		t.Fatal("missing interactive map")
	}
	if !strings.HasPrefix(res.SVG, export.SVGPrefix) {
		t.Fatal("missing svg")
	}
	if res.Title != "Study Area in Kenya" {
		t.Fatalf("title=%q", res.Title)
	}
	if len(res.Sites) != 4 || res.Sites[0].Name != "Plot 1" {
		t.Fatalf("sites=%+v", res.Sites)
	}
	if res.Connectors != 2 {
		t.Fatalf("connectors=%d, want 2", res.Connectors)
	}
	if len(res.Warnings) != 0 {
		t.Fatalf("warnings=%v", res.Warnings)
	}
	if res.ID == "" || res.ScaleBar == "" {
		t.Fatalf("id=%q scaleBar=%q", res.ID, res.ScaleBar)
	}

	img, err := png.Decode(bytes.NewReader(res.PNGBytes))
	if err != nil {
		t.Fatal(err)
	}
	if img.Bounds().Dx() != res.Width || img.Bounds().Dy() != res.Height {
		t.Fatalf("png %v, reported %dx%d", img.Bounds(), res.Width, res.Height)
	}

	if len(steps) == 0 || steps[len(steps)-1] != 100 {
		t.Fatalf("progress=%v, want ending at 100", steps)
	}
	for i := 1; i < len(steps); i++ {
		if steps[i] < steps[i-1] {
			t.Fatalf("progress went backwards: %v", steps)
		}
	}

	recent := bus.Recent()
	if len(recent) != 1 || recent[0].ID != res.ID || recent[0].Action != "ok" {
		t.Fatalf("events=%+v", recent)
	}
}

func TestRenderErrors(t *testing.T) {
	svc := newService(t, RenderConfig{})
	tests := map[string]struct {
		req  RenderRequest
		want error
	}{
		"unknown country": {RenderRequest{Country: "Atlantis", Coordinates: nairobiSites}, ErrUnknownCountry},
		"bad coordinates": {RenderRequest{Country: "Kenya", Coordinates: "1, 2\nabc"}, geo.ErrInvalidCoordinates},
		"nothing":         {RenderRequest{Country: "Kenya"}, ErrNoStudyArea},
		"no areas":        {RenderRequest{Country: "Kenya", Archive: countiesZip(t), NameColumn: "COUNTY"}, ErrNoStudyArea},
		"no match":        {RenderRequest{Country: "Kenya", Archive: countiesZip(t), NameColumn: "COUNTY", Areas: []string{"Mombasa"}}, ErrNoStudyArea},
		"garbage zip":     {RenderRequest{Country: "Kenya", Archive: []byte("not a zip")}, ingest.ErrInvalidArchive},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := svc.Render(context.Background(), tt.req, nil)
			if !errors.Is(err, tt.want) {
				t.Fatalf("err=%v, want %v", err, tt.want)
			}
		})
	}
}

func TestRenderShapefileSelection(t *testing.T) {
	svc := newService(t, RenderConfig{})
	res, err := svc.Render(context.Background(), RenderRequest{
		Country:    "Kenya",
		Archive:    countiesZip(t),
		NameColumn: "COUNTY",
		Areas:      []string{"Nairobi", "Machakos"},
		Layers: []ingest.LayerFile{
			layerFile("rivers.geojson", `{"type":"LineString","coordinates":[[36.5,-1.3],[37.4,-1.2]]}`),
			layerFile("broken.geojson", `{"type":`),
		},
		Options: DefaultRenderOptions(),
	}, nil)
	if err != nil {
		t.Fatal(err)
	}

	if len(res.Sites) != 0 {
		t.Fatalf("sites=%v, want none for shapefiles", res.Sites)
	}
	if len(res.Layers) != 2 || !res.Layers[0].Loaded || res.Layers[1].Loaded {
		t.Fatalf("layers=%+v", res.Layers)
	}
	if len(res.Warnings) != 1 || res.Warnings[0] != "Could not load: broken.geojson" {
		t.Fatalf("warnings=%v", res.Warnings)
	}
	var labels []string
	for _, e := range res.Legend {
		labels = append(labels, e.Label)
	}
	if strings.Join(labels, ",") != "Study Area,rivers.geojson" {
		t.Fatalf("legend=%v", labels)
	}
}

func TestRenderBasemap(t *testing.T) {
	tile := image.NewRGBA(image.Rect(0, 0, 256, 256))
	var buf bytes.Buffer
	if err := png.Encode(&buf, tile); err != nil {
		t.Fatal(err)
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(buf.Bytes())
	}))
	defer srv.Close()

	fetcher := basemap.NewFetcher(
		basemap.NewRegistry(map[string]string{"openstreetmap": srv.URL + "/{z}/{x}/{y}.png"}),
		basemap.Options{Timeout: 5 * time.Second},
	)
	svc := newService(t, RenderConfig{Basemap: fetcher})

	opts := DefaultRenderOptions()
	opts.Basemap = true
	res, err := svc.Render(context.Background(), RenderRequest{Country: "Kenya", Coordinates: nairobiSites, Options: opts}, nil)
	if err != nil {
		t.Fatal(err)
	}
	found := false
	for _, e := range res.Legend {
		found = found || e.Label == "OpenStreetMap Basemap"
	}
	if !found {
		t.Fatalf("legend=%+v, want basemap entry", res.Legend)
	}
}

func TestRenderBasemapFailureIsWarning(t *testing.T) {
	svc := newService(t, RenderConfig{})
	opts := DefaultRenderOptions()
	opts.Basemap = true
	res, err := svc.Render(context.Background(), RenderRequest{Country: "Kenya", Coordinates: nairobiSites, Options: opts}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Warnings) != 1 || !strings.HasPrefix(res.Warnings[0], "Could not load basemap") {
		t.Fatalf("warnings=%v", res.Warnings)
	}
	for _, e := range res.Legend {
		if strings.HasSuffix(e.Label, "Basemap") {
			t.Fatalf("legend lists a basemap that was not drawn: %+v", res.Legend)
		}
	}
}

func TestInspectArchive(t *testing.T) {
	infos, err := InspectArchive(countiesZip(t))
	if err != nil {
		t.Fatal(err)
	}
	if len(infos) != 1 || infos[0].Name != "counties.shp" || infos[0].Features != 3 {
		t.Fatalf("infos=%+v", infos)
	}
	col := infos[0].Columns[0]
	if col.Name != "COUNTY" || strings.Join(col.Values, ",") != "Kiambu,Machakos,Nairobi" {
		t.Fatalf("column=%+v", col)
	}

	if _, err := InspectArchive([]byte("PK")); !errors.Is(err, ingest.ErrInvalidArchive) {
		t.Fatalf("err=%v, want ErrInvalidArchive", err)
	}
}

func TestCountryList(t *testing.T) {
	list, err := NewCountryService(testWorld(t), "Tanzania").List()
	if err != nil {
		t.Fatal(err)
	}
	if list.Default != "Tanzania" || len(list.Names) != 2 {
		t.Fatalf("list=%+v", list)
	}

	list, _ = NewCountryService(testWorld(t), "Narnia").List()
	if list.Default != "Kenya" {
		t.Fatalf("default=%q, want Kenya", list.Default)
	}
}
