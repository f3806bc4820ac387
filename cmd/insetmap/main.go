package main

import (
	"encoding/json"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"

	"github.com/danielgtaylor/huma/v2/humacli"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/joeblew999/plat-inset/internal/api"
	"github.com/joeblew999/plat-inset/internal/basemap"
	"github.com/joeblew999/plat-inset/internal/config"
	"github.com/joeblew999/plat-inset/internal/figure"
	"github.com/joeblew999/plat-inset/internal/logging"
	"github.com/joeblew999/plat-inset/internal/server"
	"github.com/joeblew999/plat-inset/internal/service"
	"github.com/joeblew999/plat-inset/internal/world"
)

// Options defines all CLI flags and env vars for the inset map server.
// Flags: --host, --port, --config, --web-dir
// Env vars: SERVICE_HOST, SERVICE_PORT, SERVICE_CONFIG, SERVICE_WEB_DIR
type Options struct {
	Host   string `doc:"Host to bind to" default:"0.0.0.0"`
	Port   int    `doc:"Port to listen on" short:"p" default:"8086"`
	Config string `doc:"Path to insetmap.yaml (optional)"`
	WebDir string `doc:"Serve templates and static files from this directory instead of the embedded copy"`
}

// app is everything the commands share.
type app struct {
	cfg       *config.Config
	world     *world.Handle
	countries int
	render    *service.RenderService
	server    *server.Server
}

// newApp wires config, services and the HTTP server. With preload the
// country dataset is read up front and a failure is returned; otherwise it
// is read on first use, so `spec` works without data files.
func newApp(opts *Options, preload bool) (*app, error) {
	cfg, err := config.Load(opts.Config)
	if err != nil {
		return nil, err
	}
	logging.Setup(cfg.Log.Level, cfg.Log.Format)

	a := &app{cfg: cfg, world: world.NewHandle(cfg.Data.WorldPath, cfg.Data.NameColumn)}
	if preload {
		ds, err := a.world.Load()
		if err != nil {
			return nil, err
		}
		a.countries = ds.Len()
	}

	registry := basemap.NewRegistry(cfg.Basemap.Providers)
	fetcher := basemap.NewFetcher(registry, basemap.Options{
		Timeout:     cfg.Basemap.Timeout,
		MaxTiles:    cfg.Basemap.MaxTiles,
		Concurrency: cfg.Basemap.Concurrency,
		UserAgent:   cfg.Basemap.UserAgent,
	})
	bus := service.NewEventBus()
	a.render = service.NewRenderService(a.world, service.RenderConfig{
		Page:     figure.Page{WidthIn: cfg.Render.WidthInches, HeightIn: cfg.Render.HeightInches, DPI: cfg.Render.DPI},
		LogoPath: cfg.Data.LogoPath,
		Basemap:  fetcher,
		Bus:      bus,
	})

	a.server, err = server.New(server.Config{
		Host:   opts.Host,
		Port:   fmt.Sprintf("%d", opts.Port),
		WebDir: opts.WebDir,
		Services: &api.Services{
			Render:         a.render,
			Country:        service.NewCountryService(a.world, cfg.Render.DefaultCountry),
			Basemaps:       registry,
			MaxUploadBytes: cfg.Upload.MaxBytes,
		},
		Bus:       bus,
		WorldPath: cfg.Data.WorldPath,
		Countries: a.countries,
		DPI:       cfg.Render.DPI,
	})
	if err != nil {
		return nil, err
	}
	return a, nil
}

func main() {
	// .env is optional; variables already set in the environment win.
	_ = godotenv.Load()

	cli := humacli.New(func(hooks humacli.Hooks, opts *Options) {
		hooks.OnStart(func() {
			a, err := newApp(opts, true)
			if err != nil {
				log.Fatalf("Startup error: %v", err)
			}

			addr := fmt.Sprintf("%s:%d", opts.Host, opts.Port)
			displayHost := opts.Host
			if displayHost == "0.0.0.0" {
				displayHost = "localhost"
			}
			baseURL := fmt.Sprintf("http://%s:%d", displayHost, opts.Port)

			fmt.Println()
			fmt.Printf("plat-inset map server starting...\n")
			fmt.Printf("  Server:    %s\n", baseURL)
			fmt.Printf("  Countries: %d from %s\n", a.countries, a.cfg.Data.WorldPath)
			fmt.Println()
			fmt.Printf("  Editor:    %s/\n", baseURL)
			fmt.Printf("  Docs:      %s/docs\n", baseURL)
			fmt.Printf("  OpenAPI:   %s/openapi.json\n", baseURL)
			fmt.Printf("  Metrics:   %s/metrics\n", baseURL)
			fmt.Println()

			slog.Info("listening", "addr", addr)
			if err := http.ListenAndServe(addr, a.server); err != nil {
				log.Fatalf("Server error: %v", err)
			}
		})
	})

	cli.Root().Use = "insetmap"
	cli.Root().Short = "Study area maps with a country inset"
	cli.Root().Version = api.Version

	// spec subcommand: export OpenAPI spec
	specCmd := &cobra.Command{
		Use:   "spec",
		Short: "Export OpenAPI spec (JSON by default, --yaml for YAML)",
		Run: humacli.WithOptions(func(cmd *cobra.Command, args []string, opts *Options) {
			a, err := newApp(opts, false)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
			spec := a.server.OpenAPI()

			useYAML, _ := cmd.Flags().GetBool("yaml")

			var output []byte
			if useYAML {
				output, err = yaml.Marshal(spec)
			} else {
				output, err = json.MarshalIndent(spec, "", "  ")
			}
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error marshaling spec: %v\n", err)
				os.Exit(1)
			}
			fmt.Println(string(output))
		}),
	}
	specCmd.Flags().BoolP("yaml", "y", false, "Output as YAML instead of JSON")
	cli.Root().AddCommand(specCmd)

	cli.Root().AddCommand(renderCmd())

	cli.Run()
}
