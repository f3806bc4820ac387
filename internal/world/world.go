// Package world holds the bundled country boundaries used for the inset map.
package world

import (
	"fmt"
	"sort"
	"sync"

	"github.com/paulmach/orb/geojson"

	"github.com/joeblew999/plat-inset/internal/ingest"
)

// DefaultCountry is preselected when present in the dataset.
const DefaultCountry = "Kenya"

// Dataset is an immutable set of country features keyed by name.
type Dataset struct {
	names     []string
	countries map[string]*geojson.Feature
}

// NewDataset indexes features by the value of column. Features without a
// name are skipped; the first feature wins for duplicate names.
func NewDataset(fc *geojson.FeatureCollection, column string) (*Dataset, error) {
	d := &Dataset{countries: map[string]*geojson.Feature{}}
	for _, f := range fc.Features {
		name := f.Properties.MustString(column, "")
		if name == "" {
			continue
		}
		if _, ok := d.countries[name]; ok {
			continue
		}
		d.countries[name] = f
		d.names = append(d.names, name)
	}
	if len(d.names) == 0 {
		return nil, fmt.Errorf("no features with a %q value", column)
	}
	sort.Strings(d.names)
	return d, nil
}

// Open reads the country shapefile from a ZIP archive on disk.
func Open(path, column string) (*Dataset, error) {
	var d *Dataset
	err := ingest.WithArchiveFile(path, func(a *ingest.Archive) error {
		s, err := a.Shapefile("")
		if err != nil {
			return err
		}
		ds, err := ingest.ReadShapefile(s.Path)
		if err != nil {
			return err
		}
		if !ds.HasColumn(column) {
			return fmt.Errorf("column %q not in %v", column, ds.Columns)
		}
		d, err = NewDataset(ds.Features, column)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("load world dataset %s: %w", path, err)
	}
	return d, nil
}

// Names returns the sorted country names.
func (d *Dataset) Names() []string {
	out := make([]string, len(d.names))
	copy(out, d.names)
	return out
}

// Len returns the number of countries.
func (d *Dataset) Len() int { return len(d.names) }

// Country returns the feature for name.
func (d *Dataset) Country(name string) (*geojson.Feature, bool) {
	f, ok := d.countries[name]
	return f, ok
}

// Default returns DefaultCountry when present, otherwise the first name.
func (d *Dataset) Default() string {
	if _, ok := d.countries[DefaultCountry]; ok {
		return DefaultCountry
	}
	return d.names[0]
}

// Handle loads the dataset once and hands out the same read-only value.
type Handle struct {
	path   string
	column string

	once sync.Once
	ds   *Dataset
	err  error
}

// NewHandle returns a handle for the archive at path.
func NewHandle(path, column string) *Handle {
	return &Handle{path: path, column: column}
}

// Load opens the archive on first call; later calls return the same result.
func (h *Handle) Load() (*Dataset, error) {
	h.once.Do(func() {
		h.ds, h.err = Open(h.path, h.column)
	})
	return h.ds, h.err
}

// Preloaded wraps an already built dataset, mainly for tests and the CLI.
func Preloaded(ds *Dataset) *Handle {
	h := &Handle{ds: ds}
	h.once.Do(func() {})
	return h
}
