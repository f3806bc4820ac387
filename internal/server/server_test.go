package server

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/joeblew999/plat-inset/internal/api"
	"github.com/joeblew999/plat-inset/internal/basemap"
	"github.com/joeblew999/plat-inset/internal/figure"
	"github.com/joeblew999/plat-inset/internal/service"
	"github.com/joeblew999/plat-inset/internal/world"
	"github.com/joeblew999/plat-inset/web"
)

func newTestServer(t *testing.T) (*Server, *service.EventBus) {
	t.Helper()
	return newTestServerWithWebDir(t, "")
}

func newTestServerWithWebDir(t *testing.T, webDir string) (*Server, *service.EventBus) {
	t.Helper()
	f := geojson.NewFeature(orb.Polygon{{{34, -4.7}, {34, 4.6}, {41.9, 4.6}, {41.9, -4.7}, {34, -4.7}}})
	f.Properties["ADMIN"] = "Kenya"
	ds, err := world.NewDataset(geojson.NewFeatureCollection().Append(f), "ADMIN")
	if err != nil {
		t.Fatal(err)
	}
	w := world.Preloaded(ds)
	bus := service.NewEventBus()

	srv, err := New(Config{
		Host:   "localhost",
		Port:   "8086",
		WebDir: webDir,
		Services: &api.Services{
			Render: service.NewRenderService(w, service.RenderConfig{
				Page: figure.Page{WidthIn: 14, HeightIn: 12.5, DPI: 20},
				Bus:  bus,
			}),
			Country:  service.NewCountryService(w, "Kenya"),
			Basemaps: basemap.NewRegistry(nil),
		},
		Bus: bus,
	})
	if err != nil {
		t.Fatal(err)
	}
	return srv, bus
}

func get(t *testing.T, srv http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestIndex(t *testing.T) {
	srv, _ := newTestServer(t)
	rec := get(t, srv, "/")
	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{
		"data-signals=",
		"sitelabels",
		"basemapprovider",
		"/api/v1/editor/countries/select",
		`<option value="openstreetmap">OpenStreetMap</option>`,
		`name="showpolygon"`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("index missing %q", want)
		}
	}
}

func TestIndexReloadsWebDir(t *testing.T) {
	dir := t.TempDir()
	if err := os.CopyFS(dir, web.FS); err != nil {
		t.Fatal(err)
	}
	srv, _ := newTestServerWithWebDir(t, dir)
	if rec := get(t, srv, "/"); rec.Code != http.StatusOK {
		t.Fatalf("status=%d", rec.Code)
	}

	index := filepath.Join(dir, "templates", "index.html")
	if err := os.WriteFile(index, []byte(`<p>edited {{.Title}}</p>`), 0o644); err != nil {
		t.Fatal(err)
	}
	rec := get(t, srv, "/")
	if rec.Code != http.StatusOK || rec.Body.String() != "<p>edited Inset Map Generator</p>" {
		t.Fatalf("status=%d body=%q", rec.Code, rec.Body.String())
	}
}

func TestStaticAndMetrics(t *testing.T) {
	srv, _ := newTestServer(t)
	if rec := get(t, srv, "/static/app.css"); rec.Code != http.StatusOK {
		t.Fatalf("static status=%d", rec.Code)
	}
	get(t, srv, "/health")
	rec := get(t, srv, "/metrics")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "insetmap_http_requests_total") {
		t.Fatalf("metrics status=%d", rec.Code)
	}
	if rec := get(t, srv, "/nope"); rec.Code != http.StatusNotFound {
		t.Fatalf("unknown path status=%d, want 404", rec.Code)
	}
}

func TestOpenAPI(t *testing.T) {
	srv, _ := newTestServer(t)
	oapi := srv.OpenAPI()
	for _, path := range []string{"/api/v1/maps", "/api/v1/countries", "/api/v1/editor/render"} {
		if _, ok := oapi.Paths[path]; !ok {
			t.Errorf("OpenAPI missing %s", path)
		}
	}
}

func TestEditorCountrySelect(t *testing.T) {
	srv, _ := newTestServer(t)
	rec := get(t, srv, "/api/v1/editor/countries/select")
	body := rec.Body.String()
	if !strings.Contains(body, "datastar-patch-elements") || !strings.Contains(body, `<option value="Kenya" selected>Kenya</option>`) {
		t.Fatalf("body=%s", body)
	}
}

func TestEditorCoordinatesPreview(t *testing.T) {
	srv, _ := newTestServer(t)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/editor/coordinates",
		strings.NewReader(`{"coordinates":"-1.5, 36.5\n-1.5, 37\n-1, 37","siteprefix":"Plot"}`))
	req.Header.Set("Content-Type", "application/json")
	srv.ServeHTTP(rec, req)
	body := rec.Body.String()
	if !strings.Contains(body, "Plot 3") || !strings.Contains(body, "#site-table") {
		t.Fatalf("body=%s", body)
	}
}

func TestEditorRender(t *testing.T) {
	srv, bus := newTestServer(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	mw.WriteField(api.FieldCountry, "Kenya")
	mw.WriteField(api.FieldCoordinates, "-1.2, 36.7\n-1.2, 36.9\n-1.4, 36.9\n-1.4, 36.7")
	mw.WriteField("svg", "false")
	mw.WriteField("svg", "true")
	mw.Close()

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/editor/render", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	srv.ServeHTTP(rec, req)

	body := rec.Body.String()
	for _, want := range []string{`"progress":60`, "#result", "data:image/png;base64,", "Download SVG", `"busy":false`, `"success":"Map generated"`} {
		if !strings.Contains(body, want) {
			t.Errorf("stream missing %q", want)
		}
	}
	if len(bus.Recent()) != 1 {
		t.Fatalf("events=%d, want 1", len(bus.Recent()))
	}
}

func TestEditorRenderError(t *testing.T) {
	srv, _ := newTestServer(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	mw.WriteField(api.FieldCountry, "Kenya")
	mw.WriteField(api.FieldCoordinates, "1, 2")
	mw.Close()

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/editor/render", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	srv.ServeHTTP(rec, req)

	if body := rec.Body.String(); !strings.Contains(body, "invalid coordinates") {
		t.Fatalf("body=%s", body)
	}
}
