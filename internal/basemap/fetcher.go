package basemap

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg"
	_ "image/png"
	"log/slog"
	"math"
	"net/http"
	"sync"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/maptile"
	"golang.org/x/sync/errgroup"

	"github.com/joeblew999/plat-inset/internal/metrics"
)

const (
	tileSize = 256
	maxZoom  = 18
	// maxLat is the Web Mercator latitude limit.
	maxLat = 85.05112878

	// maxCachedTiles bounds the in-memory cache; it is reset when full.
	maxCachedTiles = 2048
)

// Options tune tile fetching.
type Options struct {
	Timeout     time.Duration
	MaxTiles    int
	Concurrency int
	UserAgent   string
	// Client overrides the HTTP client, mainly for tests.
	Client *http.Client
}

// Fetcher downloads and caches tiles for all providers.
type Fetcher struct {
	registry *Registry
	opts     Options
	client   *http.Client

	mu    sync.Mutex
	cache map[string]image.Image
}

// NewFetcher returns a fetcher; zero option values fall back to defaults.
func NewFetcher(registry *Registry, opts Options) *Fetcher {
	if opts.Timeout <= 0 {
		opts.Timeout = 20 * time.Second
	}
	if opts.MaxTiles <= 0 {
		opts.MaxTiles = 64
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 8
	}
	if opts.UserAgent == "" {
		opts.UserAgent = "plat-inset"
	}
	client := opts.Client
	if client == nil {
		client = &http.Client{
			Transport: &http.Transport{
				MaxIdleConns:        64,
				MaxIdleConnsPerHost: opts.Concurrency,
				IdleConnTimeout:     90 * time.Second,
				TLSHandshakeTimeout: 10 * time.Second,
			},
		}
	}
	return &Fetcher{
		registry: registry,
		opts:     opts,
		client:   client,
		cache:    make(map[string]image.Image),
	}
}

// Registry returns the provider registry.
func (f *Fetcher) Registry() *Registry { return f.registry }

// Render returns a width x height image of the provider's tiles covering
// bound, with longitude and latitude both linear in pixel space. Pixels
// beyond the Web Mercator limits stay transparent. Any tile failure fails
// the whole render.
func (f *Fetcher) Render(ctx context.Context, providerID string, bound orb.Bound, width, height int) (*image.RGBA, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid basemap size %dx%d", width, height)
	}
	p, err := f.registry.Get(providerID)
	if err != nil {
		return nil, err
	}

	if bound.IsEmpty() {
		return nil, errors.New("basemap bound is empty")
	}
	cover := clampBound(bound)
	if cover.Min[0] >= cover.Max[0] || cover.Min[1] >= cover.Max[1] {
		return nil, errors.New("basemap bound is outside the tile range")
	}

	// Zoom for the share of the width the tiles actually cover.
	coverWidth := int(math.Ceil(float64(width) * (cover.Max[0] - cover.Min[0]) / (bound.Max[0] - bound.Min[0])))
	z, tiles := Tiles(cover, coverWidth, f.opts.MaxTiles)
	if len(tiles) == 0 {
		return nil, errors.New("no tiles cover the requested bound")
	}

	ctx, cancel := context.WithTimeout(ctx, f.opts.Timeout)
	defer cancel()

	images, err := f.fetchAll(ctx, p, tiles)
	if err != nil {
		return nil, err
	}

	slog.Debug("basemap tiles fetched", "provider", p.ID, "zoom", z, "tiles", len(tiles))
	return resample(images, z, bound, cover, width, height), nil
}

func (f *Fetcher) fetchAll(ctx context.Context, p Provider, tiles []maptile.Tile) (map[maptile.Tile]image.Image, error) {
	var mu sync.Mutex
	out := make(map[maptile.Tile]image.Image, len(tiles))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(f.opts.Concurrency)
	for _, t := range tiles {
		g.Go(func() error {
			img, err := f.tile(ctx, p, t)
			if err != nil {
				return err
			}
			mu.Lock()
			out[t] = img
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("fetch %s tiles: %w", p.ID, err)
	}
	return out, nil
}

func (f *Fetcher) tile(ctx context.Context, p Provider, t maptile.Tile) (image.Image, error) {
	url := p.TileURL(t)

	f.mu.Lock()
	if img, ok := f.cache[url]; ok {
		f.mu.Unlock()
		metrics.BasemapTiles.WithLabelValues(p.ID, "hit").Inc()
		return img, nil
	}
	f.mu.Unlock()

	img, err := f.download(ctx, url)
	if err != nil {
		metrics.BasemapTiles.WithLabelValues(p.ID, "error").Inc()
		return nil, err
	}
	metrics.BasemapTiles.WithLabelValues(p.ID, "fetched").Inc()

	f.mu.Lock()
	if len(f.cache) >= maxCachedTiles {
		f.cache = make(map[string]image.Image)
	}
	f.cache[url] = img
	f.mu.Unlock()
	return img, nil
}

func (f *Fetcher) download(ctx context.Context, url string) (image.Image, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", f.opts.UserAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("tile %s: %s", url, resp.Status)
	}
	img, _, err := image.Decode(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("decode tile %s: %w", url, err)
	}
	return img, nil
}

// Zoom picks the zoom whose tile resolution is closest to width pixels
// across the bound.
func Zoom(bound orb.Bound, width int) maptile.Zoom {
	span := bound.Max[0] - bound.Min[0]
	if span <= 0 || width <= 0 {
		return 0
	}
	z := math.Round(math.Log2(float64(width) * 360 / (tileSize * span)))
	return maptile.Zoom(math.Max(0, math.Min(maxZoom, z)))
}

// Tiles returns the zoom and tiles covering bound, lowering the zoom until
// at most maxTiles are needed.
func Tiles(bound orb.Bound, width, maxTiles int) (maptile.Zoom, []maptile.Tile) {
	bound = clampBound(bound)
	z := Zoom(bound, width)
	for {
		minT := maptile.At(orb.Point{bound.Min[0], bound.Max[1]}, z)
		maxT := maptile.At(orb.Point{bound.Max[0], bound.Min[1]}, z)
		n := int(maxT.X-minT.X+1) * int(maxT.Y-minT.Y+1)
		if n <= maxTiles || z == 0 {
			tiles := make([]maptile.Tile, 0, n)
			for y := minT.Y; y <= maxT.Y; y++ {
				for x := minT.X; x <= maxT.X; x++ {
					tiles = append(tiles, maptile.New(x, y, z))
				}
			}
			return z, tiles
		}
		z--
	}
}

func clampBound(b orb.Bound) orb.Bound {
	clamp := func(v, lo, hi float64) float64 { return math.Max(lo, math.Min(hi, v)) }
	return orb.Bound{
		Min: orb.Point{clamp(b.Min[0], -180, 180), clamp(b.Min[1], -maxLat, maxLat)},
		Max: orb.Point{clamp(b.Max[0], -180, 180), clamp(b.Max[1], -maxLat, maxLat)},
	}
}

// resample maps every output pixel's lon/lat in bound to its tile pixel,
// leaving pixels outside cover transparent. The output is equirectangular
// while tiles are Web Mercator.
func resample(tiles map[maptile.Tile]image.Image, z maptile.Zoom, bound, cover orb.Bound, width, height int) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	dx := (bound.Max[0] - bound.Min[0]) / float64(width)
	dy := (bound.Max[1] - bound.Min[1]) / float64(height)

	for py := 0; py < height; py++ {
		lat := bound.Max[1] - (float64(py)+0.5)*dy
		for px := 0; px < width; px++ {
			lon := bound.Min[0] + (float64(px)+0.5)*dx
			if !cover.Contains(orb.Point{lon, lat}) {
				continue
			}
			frac := maptile.Fraction(orb.Point{lon, lat}, z)
			tx, ty := math.Floor(frac[0]), math.Floor(frac[1])

			img, ok := tiles[maptile.New(uint32(tx), uint32(ty), z)]
			if !ok {
				continue
			}
			b := img.Bounds()
			sx := b.Min.X + int((frac[0]-tx)*float64(b.Dx()))
			sy := b.Min.Y + int((frac[1]-ty)*float64(b.Dy()))
			dst.Set(px, py, color.RGBAModel.Convert(img.At(sx, sy)))
		}
	}
	return dst
}
