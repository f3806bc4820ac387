package server

import (
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"reflect"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humago"

	"github.com/joeblew999/plat-inset/internal/api"
	"github.com/joeblew999/plat-inset/internal/api/editor"
	"github.com/joeblew999/plat-inset/internal/basemap"
	"github.com/joeblew999/plat-inset/internal/humastar"
	"github.com/joeblew999/plat-inset/internal/metrics"
	"github.com/joeblew999/plat-inset/internal/service"
	"github.com/joeblew999/plat-inset/internal/templates"
	"github.com/joeblew999/plat-inset/web"
)

// Config holds the server configuration.
type Config struct {
	Host string
	Port string
	// WebDir serves templates and static files from disk instead of the
	// embedded copy, for editing the UI without rebuilding.
	WebDir string

	Services *api.Services
	Bus      *service.EventBus

	// Reported by /api/v1/info.
	WorldPath string
	Countries int
	DPI       int
}

// Server is the inset map HTTP server.
type Server struct {
	config   Config
	mux      *http.ServeMux
	handler  http.Handler
	humaAPI  huma.API
	renderer *templates.Renderer
	static   fs.FS
	page     pageData
}

// toggle is one checkbox of the display options.
type toggle struct {
	Name  string
	Label string
}

var toggles = []toggle{
	{"showpolygon", "Show coordinate boundary"},
	{"sitelabels", "Show site labels"},
	{"regionlabels", "Label selected regions"},
	{"countrylabel", "Label country in inset"},
	{"basemap", "Add basemap"},
	{"svg", "Also export SVG"},
}

// pageData feeds index.html.
type pageData struct {
	Title     string
	Signals   string
	Init      string
	Toggles   []toggle
	Providers []basemap.Provider
}

// New creates a new server. It fails when the web templates do not parse.
func New(cfg Config) (*Server, error) {
	mux := http.NewServeMux()

	// Create Huma API with humago (pure stdlib) adapter
	humaConfig := huma.DefaultConfig("plat-inset API", api.Version)
	humaConfig.Info.Description = "Generates publication-ready study area maps with a country inset, connector arrows and an interactive companion map."
	humaConfig.Servers = []*huma.Server{
		{URL: fmt.Sprintf("http://%s:%s", cfg.Host, cfg.Port), Description: "Local server"},
	}
	// Disable $schema property in responses (cleaner JSON)
	humaConfig.CreateHooks = []func(huma.Config) huma.Config{}
	humaConfig.Transformers = append(humaConfig.Transformers, api.LinkTransformer())

	humaAPI := humago.New(mux, humaConfig)

	var fsys fs.FS = web.FS
	if cfg.WebDir != "" {
		fsys = os.DirFS(cfg.WebDir)
	}
	renderer, err := templates.New(fsys, web.Patterns...)
	if err != nil {
		return nil, fmt.Errorf("load templates: %w", err)
	}
	static, err := fs.Sub(fsys, "static")
	if err != nil {
		return nil, fmt.Errorf("static assets: %w", err)
	}

	if cfg.Services == nil {
		cfg.Services = &api.Services{}
	}
	if cfg.Bus == nil {
		cfg.Bus = service.NewEventBus()
	}

	s := &Server{
		config:   cfg,
		mux:      mux,
		humaAPI:  humaAPI,
		renderer: renderer,
		static:   static,
	}
	s.routes()
	if err := s.buildPage(); err != nil {
		return nil, err
	}
	s.handler = metrics.Instrument(mux)
	return s, nil
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// OpenAPI returns the generated OpenAPI document.
func (s *Server) OpenAPI() *huma.OpenAPI {
	return s.humaAPI.OpenAPI()
}

func (s *Server) routes() {
	svc := s.config.Services

	// Huma REST API routes (OpenAPI-documented JSON endpoints)
	api.RegisterRoutes(s.humaAPI, svc)
	api.NewInfoHandler(s.config.WorldPath, s.config.Countries, s.config.DPI).RegisterRoutes(s.humaAPI)

	// Editor SSE routes using Huma + Datastar SDK
	if svc.Country != nil {
		editor.NewCountryHandler(svc.Country, s.renderer).RegisterRoutes(s.humaAPI)
	}
	if svc.Render != nil {
		editor.NewRenderHandler(svc.Render, s.renderer, svc.MaxUploadBytes).RegisterRoutes(s.humaAPI)
	}
	editor.NewInputHandler(s.renderer, svc.MaxUploadBytes).RegisterRoutes(s.humaAPI)
	editor.NewActivityHandler(s.config.Bus, s.renderer).RegisterRoutes(s.humaAPI)

	s.mux.Handle("/metrics", metrics.Handler())
	s.mux.Handle("/static/", http.StripPrefix("/static/", http.FileServerFS(s.static)))
	s.mux.HandleFunc("/{$}", s.handleIndex)
}

func (s *Server) buildPage() error {
	signals, err := humastar.BuildSignals(s.humaAPI, reflect.TypeOf(service.RenderOptions{}), map[string]any{
		"country":     "",
		"coordinates": "",
		"siteprefix":  "Site",
		"shapefile":   "",
		"namecolumn":  "",
		"archivename": "",
		"progress":    0,
		"status":      "",
		"busy":        false,
		"error":       "",
		"success":     "",
		"renderid":    "",
	})
	if err != nil {
		return err
	}
	s.page = pageData{
		Title:   "Inset Map Generator",
		Signals: signals,
		Init:    humastar.DataInit("/api/v1/editor/countries/select", "/api/v1/editor/activity"),
		Toggles: toggles,
	}
	if s.config.Services.Basemaps != nil {
		s.page.Providers = s.config.Services.Basemaps.List()
	}
	return nil
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	// With --web-dir every page load picks up template edits on disk.
	if s.config.WebDir != "" {
		if err := s.renderer.Reload(); err != nil {
			slog.Error("template reload failed", "dir", s.config.WebDir, "err", err)
			http.Error(w, "templates: "+err.Error(), http.StatusInternalServerError)
			return
		}
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.renderer.Execute(w, "index.html", s.page); err != nil {
		slog.Error("index render failed", "err", err)
		http.Error(w, "page unavailable", http.StatusInternalServerError)
	}
}
