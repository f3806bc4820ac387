package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/danielgtaylor/huma/v2/humacli"
	"github.com/spf13/cobra"

	"github.com/joeblew999/plat-inset/internal/ingest"
	"github.com/joeblew999/plat-inset/internal/service"
)

// renderFlags are the `render` command's own flags.
type renderFlags struct {
	country   string
	coords    string
	prefix    string
	archive   string
	shapefile string
	column    string
	areas     []string
	layers    []string
	title     string
	basemap   bool
	provider  string
	png       string
	html      string
	svg       string
}

func renderCmd() *cobra.Command {
	var f renderFlags
	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render one map to files without starting the server",
		Example: `  insetmap render --country Kenya --coords sites.txt --png map.png --html map.html
  insetmap render --country Kenya --archive counties.zip --column COUNTY --areas Nairobi,Kiambu`,
		Run: humacli.WithOptions(func(cmd *cobra.Command, args []string, opts *Options) {
			if err := runRender(cmd.Context(), opts, f, cmd.ErrOrStderr()); err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
		}),
	}
	fl := cmd.Flags()
	fl.StringVar(&f.country, "country", "", "Country for the inset map (default: render.default_country)")
	fl.StringVar(&f.coords, "coords", "", "File with one 'latitude, longitude' pair per line ('-' for stdin)")
	fl.StringVar(&f.prefix, "prefix", "Site", "Site label prefix")
	fl.StringVar(&f.archive, "archive", "", "ZIP archive with shapefiles")
	fl.StringVar(&f.shapefile, "shapefile", "", "Shapefile inside the archive (default: first)")
	fl.StringVar(&f.column, "column", "", "Name column used to select areas")
	fl.StringSliceVar(&f.areas, "areas", nil, "Values of --column to map")
	fl.StringSliceVar(&f.layers, "layers", nil, "Additional GeoJSON layers")
	fl.StringVar(&f.title, "title", "", "Map title")
	fl.BoolVar(&f.basemap, "basemap", false, "Draw basemap tiles")
	fl.StringVar(&f.provider, "provider", "openstreetmap", "Basemap provider")
	fl.StringVarP(&f.png, "png", "o", "map.png", "PNG output path")
	fl.StringVar(&f.html, "html", "", "Interactive map output path")
	fl.StringVar(&f.svg, "svg", "", "SVG output path")
	return cmd
}

func runRender(ctx context.Context, opts *Options, f renderFlags, progress io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	a, err := newApp(opts, true)
	if err != nil {
		return err
	}

	req := service.RenderRequest{
		Country:    f.country,
		SitePrefix: f.prefix,
		Shapefile:  f.shapefile,
		NameColumn: f.column,
		Areas:      f.areas,
		Options:    service.DefaultRenderOptions(),
	}
	if req.Country == "" {
		req.Country = a.cfg.Render.DefaultCountry
	}
	req.Options.Title = f.title
	req.Options.Basemap = f.basemap
	req.Options.BasemapProvider = f.provider
	req.Options.SVG = f.svg != ""

	switch f.coords {
	case "":
	case "-":
		b, err := io.ReadAll(os.Stdin)
		if err != nil {
			return fmt.Errorf("read coordinates: %w", err)
		}
		req.Coordinates = string(b)
	default:
		b, err := os.ReadFile(f.coords)
		if err != nil {
			return fmt.Errorf("read coordinates: %w", err)
		}
		req.Coordinates = string(b)
	}
	if f.archive != "" {
		if req.Archive, err = os.ReadFile(f.archive); err != nil {
			return fmt.Errorf("read archive: %w", err)
		}
	}
	for _, path := range f.layers {
		req.Layers = append(req.Layers, ingest.LayerFile{
			Name: filepath.Base(path),
			Open: func() (io.ReadCloser, error) { return os.Open(path) },
		})
	}

	res, err := a.render.Render(ctx, req, func(p int, status string) {
		fmt.Fprintf(progress, "[%3d%%] %s\n", p, status)
	})
	if err != nil {
		return err
	}

	outputs := []struct {
		path string
		data []byte
	}{{f.png, res.PNGBytes}, {f.html, res.HTMLBytes}, {f.svg, res.SVGBytes}}
	for _, o := range outputs {
		if o.path == "" || o.data == nil {
			continue
		}
		if err := os.WriteFile(o.path, o.data, 0o644); err != nil {
			return err
		}
		fmt.Fprintf(progress, "wrote %s\n", o.path)
	}
	for _, w := range res.Warnings {
		fmt.Fprintf(progress, "warning: %s\n", w)
	}
	return nil
}
