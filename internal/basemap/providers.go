// Package basemap fetches XYZ raster tiles and resamples them into the
// equirectangular frame used by the static map.
package basemap

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/paulmach/orb/maptile"
)

// ErrUnknownProvider is returned for provider IDs not in the registry.
var ErrUnknownProvider = errors.New("unknown basemap provider")

// Provider is an XYZ tile source. URL uses {z}, {x} and {y} placeholders.
type Provider struct {
	ID          string `json:"id" doc:"Provider identifier" example:"openstreetmap"`
	Name        string `json:"name" doc:"Display name" example:"OpenStreetMap"`
	URL         string `json:"-"`
	Attribution string `json:"attribution" doc:"Required attribution text"`
}

// TileURL expands the URL template for one tile.
func (p Provider) TileURL(t maptile.Tile) string {
	return strings.NewReplacer(
		"{z}", strconv.Itoa(int(t.Z)),
		"{x}", strconv.FormatUint(uint64(t.X), 10),
		"{y}", strconv.FormatUint(uint64(t.Y), 10),
	).Replace(p.URL)
}

// Builtin providers, in display order.
var Builtin = []Provider{
	{
		ID:          "openstreetmap",
		Name:        "OpenStreetMap",
		URL:         "https://tile.openstreetmap.org/{z}/{x}/{y}.png",
		Attribution: "© OpenStreetMap contributors",
	},
	{
		ID:          "stamen_terrain",
		Name:        "Stamen Terrain",
		URL:         "https://tiles.stadiamaps.com/tiles/stamen_terrain/{z}/{x}/{y}.png",
		Attribution: "© Stadia Maps © Stamen Design © OpenStreetMap contributors",
	},
	{
		ID:          "stamen_toner",
		Name:        "Stamen Toner",
		URL:         "https://tiles.stadiamaps.com/tiles/stamen_toner/{z}/{x}/{y}.png",
		Attribution: "© Stadia Maps © Stamen Design © OpenStreetMap contributors",
	},
	{
		ID:          "esri_worldimagery",
		Name:        "Esri WorldImagery",
		URL:         "https://server.arcgisonline.com/ArcGIS/rest/services/World_Imagery/MapServer/tile/{z}/{y}/{x}",
		Attribution: "Tiles © Esri",
	},
}

// DefaultProvider is used when a request names none.
const DefaultProvider = "openstreetmap"

// Registry maps provider IDs to tile sources.
type Registry struct {
	providers map[string]Provider
	order     []string
}

// NewRegistry returns the builtin providers with URL overrides applied.
// An override for an unknown ID adds a provider with that ID as its name.
func NewRegistry(overrides map[string]string) *Registry {
	r := &Registry{providers: map[string]Provider{}}
	for _, p := range Builtin {
		r.providers[p.ID] = p
		r.order = append(r.order, p.ID)
	}

	extra := make([]string, 0, len(overrides))
	for id := range overrides {
		extra = append(extra, id)
	}
	sort.Strings(extra)
	for _, id := range extra {
		url := overrides[id]
		if url == "" {
			continue
		}
		p, ok := r.providers[id]
		if !ok {
			p = Provider{ID: id, Name: id}
			r.order = append(r.order, id)
		}
		p.URL = url
		r.providers[id] = p
	}
	return r
}

// Get looks up a provider; an empty id selects DefaultProvider.
func (r *Registry) Get(id string) (Provider, error) {
	if id == "" {
		id = DefaultProvider
	}
	p, ok := r.providers[id]
	if !ok {
		return Provider{}, fmt.Errorf("%w: %q", ErrUnknownProvider, id)
	}
	return p, nil
}

// List returns providers in display order.
func (r *Registry) List() []Provider {
	out := make([]Provider, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.providers[id])
	}
	return out
}
