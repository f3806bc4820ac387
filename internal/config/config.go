package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Data    DataConfig    `mapstructure:"data"`
	Render  RenderConfig  `mapstructure:"render"`
	Basemap BasemapConfig `mapstructure:"basemap"`
	Upload  UploadConfig  `mapstructure:"upload"`
	Log     LogConfig     `mapstructure:"log"`
}

// DataConfig points at the bundled files the service reads at startup.
type DataConfig struct {
	WorldPath  string `mapstructure:"world_path"`
	NameColumn string `mapstructure:"name_column"`
	LogoPath   string `mapstructure:"logo_path"`
}

type RenderConfig struct {
	DPI            int     `mapstructure:"dpi"`
	WidthInches    float64 `mapstructure:"width_inches"`
	HeightInches   float64 `mapstructure:"height_inches"`
	DefaultCountry string  `mapstructure:"default_country"`
}

type BasemapConfig struct {
	Timeout     time.Duration     `mapstructure:"timeout"`
	MaxTiles    int               `mapstructure:"max_tiles"`
	Concurrency int               `mapstructure:"concurrency"`
	UserAgent   string            `mapstructure:"user_agent"`
	Providers   map[string]string `mapstructure:"providers"`
}

type UploadConfig struct {
	MaxBytes int64 `mapstructure:"max_bytes"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from defaults, an optional config file and
// INSETMAP_* environment variables. An explicit path must exist; without one
// insetmap.yaml is looked up in . and ./configs and may be missing.
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("data.world_path", "data/ne_110m_admin_0_countries.zip")
	v.SetDefault("data.name_column", "ADMIN")
	v.SetDefault("data.logo_path", "data/logo.png")
	v.SetDefault("render.dpi", 300)
	v.SetDefault("render.width_inches", 14)
	v.SetDefault("render.height_inches", 12.5)
	v.SetDefault("render.default_country", "Kenya")
	v.SetDefault("basemap.timeout", "20s")
	v.SetDefault("basemap.max_tiles", 64)
	v.SetDefault("basemap.concurrency", 8)
	v.SetDefault("basemap.user_agent", "plat-inset/0.1")
	v.SetDefault("basemap.providers", map[string]string{})
	v.SetDefault("upload.max_bytes", 64<<20)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	} else {
		v.SetConfigName("insetmap")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	// INSETMAP_RENDER_DPI -> render.dpi
	v.SetEnvPrefix("INSETMAP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks that required configuration fields are present and sane.
func (c *Config) Validate() error {
	var errs []string

	if c.Data.WorldPath == "" {
		errs = append(errs, "data.world_path is required")
	}
	if c.Data.NameColumn == "" {
		errs = append(errs, "data.name_column is required")
	}
	if c.Render.DPI < 10 || c.Render.DPI > 600 {
		errs = append(errs, fmt.Sprintf("render.dpi must be 10-600, got %d", c.Render.DPI))
	}
	if c.Render.WidthInches <= 0 || c.Render.HeightInches <= 0 {
		errs = append(errs, "render.width_inches and render.height_inches must be positive")
	}
	if c.Basemap.Timeout <= 0 {
		errs = append(errs, "basemap.timeout must be positive")
	}
	if c.Basemap.MaxTiles <= 0 {
		errs = append(errs, "basemap.max_tiles must be positive")
	}
	if c.Basemap.Concurrency <= 0 {
		errs = append(errs, "basemap.concurrency must be positive")
	}
	if c.Upload.MaxBytes <= 0 {
		errs = append(errs, "upload.max_bytes must be positive")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
