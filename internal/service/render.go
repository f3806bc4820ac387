package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/joeblew999/plat-inset/internal/basemap"
	"github.com/joeblew999/plat-inset/internal/export"
	"github.com/joeblew999/plat-inset/internal/figure"
	"github.com/joeblew999/plat-inset/internal/geo"
	"github.com/joeblew999/plat-inset/internal/ingest"
	"github.com/joeblew999/plat-inset/internal/metrics"
	"github.com/joeblew999/plat-inset/internal/webmap"
	"github.com/joeblew999/plat-inset/internal/world"
)

// RenderService composes static and interactive maps.
type RenderService struct {
	world   *world.Handle
	basemap *basemap.Fetcher
	bus     *EventBus
	page    figure.Page
	logo    image.Image
}

// RenderConfig configures a RenderService.
type RenderConfig struct {
	Page figure.Page
	// LogoPath is optional; a missing or unreadable logo is skipped.
	LogoPath string
	// Basemap may be nil, in which case basemap requests produce a warning.
	Basemap *basemap.Fetcher
	// Bus receives one event per finished render when set.
	Bus *EventBus
}

// NewRenderService creates a render service over the world dataset.
func NewRenderService(w *world.Handle, cfg RenderConfig) *RenderService {
	if cfg.Page.DPI == 0 {
		cfg.Page = figure.DefaultPage
	}
	return &RenderService{
		world:   w,
		basemap: cfg.Basemap,
		bus:     cfg.Bus,
		page:    cfg.Page,
		logo:    LoadLogo(cfg.LogoPath),
	}
}

// LoadLogo decodes the logo image, returning nil when it is absent.
func LoadLogo(path string) image.Image {
	if path == "" {
		return nil
	}
	f, err := os.Open(path)
	if err != nil {
		slog.Debug("logo not loaded", "path", path, "err", err)
		return nil
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	if err != nil {
		slog.Warn("logo not decoded", "path", path, "err", err)
		return nil
	}
	return img
}

// studyArea is the resolved selection of one request.
type studyArea struct {
	features   *geojson.FeatureCollection
	boundary   orb.Ring
	sites      []geo.SiteLabel
	nameColumn string
}

// Render runs the whole pipeline. Failures in optional steps (layers,
// basemap, interactive map) become warnings; everything else is an error.
func (s *RenderService) Render(ctx context.Context, req RenderRequest, onProgress ProgressFunc) (result *RenderResult, err error) {
	start := time.Now()
	id := uuid.NewString()
	log := slog.With("render_id", id, "country", req.Country)
	progress := func(p int, status string) {
		if onProgress != nil {
			onProgress(p, status)
		}
	}

	defer func() {
		outcome := "ok"
		switch {
		case err != nil:
			outcome = "failed"
			log.Warn("render failed", "err", err)
		case len(result.Warnings) > 0:
			outcome = "partial"
		}
		metrics.RendersTotal.WithLabelValues(outcome).Inc()
		metrics.RenderDuration.Observe(time.Since(start).Seconds())
		if s.bus != nil {
			s.bus.Publish(Event{Resource: "renders", Action: outcome, ID: id, Country: req.Country, Duration: time.Since(start)})
		}
	}()

	progress(5, "Resolving country")
	ds, err := s.world.Load()
	if err != nil {
		return nil, err
	}
	country, ok := ds.Country(req.Country)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCountry, req.Country)
	}

	progress(15, "Building study area")
	study, err := s.studyArea(req)
	if err != nil {
		return nil, err
	}

	opts := req.Options
	result = &RenderResult{ID: id, Country: req.Country, Title: opts.Title, Sites: study.sites}
	if result.Title == "" {
		result.Title = "Study Area in " + req.Country
	}

	progress(30, "Loading layers")
	var layers []figure.Layer
	for _, o := range ingest.LoadLayers(req.Layers) {
		if !o.OK() {
			metrics.LayerFailures.WithLabelValues("layer").Inc()
			log.Warn("layer not loaded", "layer", o.Name, "err", o.Err)
			result.Layers = append(result.Layers, LayerStatus{Name: o.Name, Error: o.Err.Error()})
			result.Warnings = append(result.Warnings, fmt.Sprintf("Could not load: %s", o.Name))
			continue
		}
		result.Layers = append(result.Layers, LayerStatus{Name: o.Name, Loaded: true})
		layers = append(layers, figure.Layer{Name: o.Name, Features: o.Layer})
	}

	in := figure.Input{
		Title:        result.Title,
		StudyArea:    study.features,
		StudyName:    opts.StudyName,
		NameColumn:   study.nameColumn,
		RegionLabels: opts.RegionLabels,
		Boundary:     study.boundary,
		ShowBoundary: opts.ShowPolygon,
		Sites:        study.sites,
		SiteLabels:   opts.SiteLabels,
		Country:      country,
		CountryName:  req.Country,
		CountryLabel: opts.CountryLabel,
		Layers:       layers,
		Logo:         s.logo,
	}

	if opts.Basemap {
		progress(40, "Fetching basemap")
		img, name, err := s.fetchBasemap(ctx, opts.BasemapProvider, study.features, layers)
		if err != nil {
			metrics.LayerFailures.WithLabelValues("basemap").Inc()
			log.Warn("basemap not loaded", "provider", opts.BasemapProvider, "err", err)
			result.Warnings = append(result.Warnings, fmt.Sprintf("Could not load basemap: %v", err))
		} else {
			in.Basemap, in.BasemapName = img, name
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	progress(60, "Composing figure")
	fig, err := figure.Compose(s.page, in)
	if err != nil {
		return nil, fmt.Errorf("compose figure: %w", err)
	}
	result.Legend = fig.Legend
	result.Connectors = len(fig.Connectors)
	result.ScaleBar = fig.ScaleBar.Label

	progress(75, "Rendering PNG")
	img, err := fig.Rasterize()
	if err != nil {
		return nil, fmt.Errorf("rasterize figure: %w", err)
	}
	pngBytes, crop, err := export.EncodePNG(img, s.page.DPI/10)
	if err != nil {
		return nil, err
	}
	result.PNGBytes = pngBytes
	result.Width, result.Height = crop.Dx(), crop.Dy()
	result.PNG = export.PNGDataURI(result.PNGBytes)

	if opts.SVG {
		var buf bytes.Buffer
		if err := fig.WriteSVG(&buf); err != nil {
			result.Warnings = append(result.Warnings, fmt.Sprintf("Could not write SVG: %v", err))
		} else {
			result.SVGBytes = buf.Bytes()
			result.SVG = export.SVGDataURI(result.SVGBytes)
		}
	}

	progress(90, "Building interactive map")
	doc, err := webmap.Render(webmap.Input{
		Title:      result.Title,
		StudyArea:  study.features,
		NameColumn: study.nameColumn,
		Country:    country,
		Sites:      study.sites,
	})
	if err != nil {
		metrics.LayerFailures.WithLabelValues("webmap").Inc()
		log.Warn("interactive map failed", "err", err)
		result.Warnings = append(result.Warnings, fmt.Sprintf("Could not generate interactive map: %v", err))
	} else {
		result.HTMLBytes = doc
		result.HTML = export.HTMLDataURI(doc)
	}

	progress(100, "Done")
	log.Info("render finished",
		"features", len(study.features.Features),
		"layers", len(layers),
		"warnings", len(result.Warnings),
		"duration", time.Since(start))
	return result, nil
}

// studyArea resolves pasted coordinates first, then the shapefile archive.
func (s *RenderService) studyArea(req RenderRequest) (studyArea, error) {
	if strings.TrimSpace(req.Coordinates) != "" {
		poly, err := geo.ParseCoordinates(req.Coordinates, req.SitePrefix)
		if err != nil {
			return studyArea{}, err
		}
		fc := geojson.NewFeatureCollection()
		fc.Append(geojson.NewFeature(poly.Polygon()))
		return studyArea{features: fc, boundary: poly.Ring(), sites: poly.Sites}, nil
	}

	if len(req.Archive) == 0 {
		return studyArea{}, fmt.Errorf("%w: paste coordinates or upload a shapefile archive", ErrNoStudyArea)
	}

	var study studyArea
	err := ingest.WithArchive(bytes.NewReader(req.Archive), int64(len(req.Archive)), func(a *ingest.Archive) error {
		shp, err := a.Shapefile(req.Shapefile)
		if err != nil {
			return err
		}
		ds, err := ingest.ReadShapefile(shp.Path)
		if err != nil {
			return err
		}

		if req.NameColumn == "" {
			study.features = ds.Features
			return nil
		}
		if !ds.HasColumn(req.NameColumn) {
			return fmt.Errorf("%w: column %q not in %s", ErrNoStudyArea, req.NameColumn, shp.Name)
		}
		if len(req.Areas) == 0 {
			return fmt.Errorf("%w: choose at least one %s value", ErrNoStudyArea, req.NameColumn)
		}
		study.features = ds.Filter(req.NameColumn, req.Areas)
		study.nameColumn = req.NameColumn
		if len(study.features.Features) == 0 {
			return fmt.Errorf("%w: no %s matches %v", ErrNoStudyArea, req.NameColumn, req.Areas)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ingest.ErrNoShapefiles) || errors.Is(err, ingest.ErrInvalidArchive) {
			metrics.LayerFailures.WithLabelValues("archive").Inc()
		}
		return studyArea{}, err
	}
	return study, nil
}

func (s *RenderService) fetchBasemap(ctx context.Context, provider string, fc *geojson.FeatureCollection, layers []figure.Layer) (image.Image, string, error) {
	if s.basemap == nil {
		return nil, "", errors.New("basemaps are disabled")
	}
	p, err := s.basemap.Registry().Get(provider)
	if err != nil {
		return nil, "", err
	}
	axes, err := figure.MainAxes(s.page, fc, layers)
	if err != nil {
		return nil, "", err
	}
	frame := s.page.Pixels(axes.Frame)
	img, err := s.basemap.Render(ctx, p.ID, axes.Bound(), frame.Dx(), frame.Dy())
	if err != nil {
		return nil, "", err
	}
	return img, p.Name, nil
}
