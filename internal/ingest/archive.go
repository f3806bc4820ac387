// Package ingest turns uploaded files into orb feature collections:
// shapefile archives extracted into a scoped temporary directory, and
// GeoJSON layers collected with a per-layer outcome.
package ingest

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
)

var (
	// ErrNoShapefiles means an archive held no .shp with matching .dbf and .shx.
	ErrNoShapefiles = errors.New("no valid shapefiles found: each .shp needs a .dbf and .shx with the same base name")
	// ErrInvalidArchive covers unreadable or unsafe ZIP files.
	ErrInvalidArchive = errors.New("invalid zip archive")
)

// maxExtractedBytes bounds the total uncompressed size of one archive.
const maxExtractedBytes = 1 << 30

// componentExts are shapefile sidecar extensions normalised to lower case on
// extraction, since the reader opens "<base>.dbf" literally.
var componentExts = map[string]bool{
	".shp": true, ".shx": true, ".dbf": true, ".prj": true, ".cpg": true,
}

// Shapefile is one valid .shp found in an archive.
type Shapefile struct {
	// Name is the slash-separated path inside the archive, e.g. "admin/counties.shp".
	Name string `json:"name" doc:"Path of the .shp inside the archive" example:"counties.shp"`
	Path string `json:"-"`
}

// Archive is an extracted ZIP. It is only valid inside the WithArchive callback.
type Archive struct {
	Dir        string
	shapefiles []Shapefile
}

// Shapefiles returns the valid shapefiles in archive order by name.
func (a *Archive) Shapefiles() []Shapefile {
	out := make([]Shapefile, len(a.shapefiles))
	copy(out, a.shapefiles)
	return out
}

// Shapefile looks up a shapefile by its archive name. An empty name selects the first.
func (a *Archive) Shapefile(name string) (Shapefile, error) {
	if len(a.shapefiles) == 0 {
		return Shapefile{}, ErrNoShapefiles
	}
	if name == "" {
		return a.shapefiles[0], nil
	}
	for _, s := range a.shapefiles {
		if s.Name == name || path.Base(s.Name) == name {
			return s, nil
		}
	}
	return Shapefile{}, fmt.Errorf("%w: %q not in archive", ErrNoShapefiles, name)
}

// WithArchive extracts the ZIP read from r into a fresh temporary directory,
// validates the shapefile triplets and calls fn. The directory is removed on
// every return path, including panics in fn.
func WithArchive(r io.ReaderAt, size int64, fn func(*Archive) error) (err error) {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidArchive, err)
	}

	dir, err := os.MkdirTemp("", "insetmap-*")
	if err != nil {
		return fmt.Errorf("create extraction directory: %w", err)
	}
	defer func() {
		if rmErr := os.RemoveAll(dir); rmErr != nil && err == nil {
			err = fmt.Errorf("remove extraction directory: %w", rmErr)
		}
	}()

	if err := extract(zr, dir); err != nil {
		return err
	}

	shapefiles, err := findShapefiles(dir)
	if err != nil {
		return err
	}
	if len(shapefiles) == 0 {
		return ErrNoShapefiles
	}

	return fn(&Archive{Dir: dir, shapefiles: shapefiles})
}

// WithArchiveFile is WithArchive for a ZIP on disk.
func WithArchiveFile(filename string, fn func(*Archive) error) error {
	f, err := os.Open(filename)
	if err != nil {
		return err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return err
	}
	return WithArchive(f, info.Size(), fn)
}

func extract(zr *zip.Reader, dir string) error {
	var total int64
	for _, zf := range zr.File {
		name := filepath.FromSlash(zf.Name)
		if !filepath.IsLocal(name) {
			return fmt.Errorf("%w: entry %q escapes the archive", ErrInvalidArchive, zf.Name)
		}
		if zf.FileInfo().IsDir() {
			continue
		}
		// __MACOSX/._foo.shp resource forks are not shapefiles.
		if strings.HasPrefix(zf.Name, "__MACOSX/") {
			continue
		}

		ext := filepath.Ext(name)
		if componentExts[strings.ToLower(ext)] {
			name = strings.TrimSuffix(name, ext) + strings.ToLower(ext)
		}
		dest := filepath.Join(dir, name)
		if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
			return err
		}

		n, err := extractFile(zf, dest, maxExtractedBytes-total)
		if err != nil {
			return err
		}
		total += n
	}
	return nil
}

func extractFile(zf *zip.File, dest string, budget int64) (int64, error) {
	rc, err := zf.Open()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidArchive, err)
	}
	defer rc.Close()

	out, err := os.Create(dest)
	if err != nil {
		return 0, err
	}
	defer out.Close()

	n, err := io.Copy(out, io.LimitReader(rc, budget+1))
	if err != nil {
		return n, fmt.Errorf("%w: %v", ErrInvalidArchive, err)
	}
	if n > budget {
		return n, fmt.Errorf("%w: archive expands beyond %d bytes", ErrInvalidArchive, int64(maxExtractedBytes))
	}
	return n, nil
}

// findShapefiles walks dir for .shp files whose .dbf and .shx siblings exist.
func findShapefiles(dir string) ([]Shapefile, error) {
	var found []Shapefile
	err := filepath.WalkDir(dir, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || filepath.Ext(p) != ".shp" {
			return nil
		}
		base := strings.TrimSuffix(p, ".shp")
		for _, ext := range []string{".dbf", ".shx"} {
			if _, err := os.Stat(base + ext); err != nil {
				return nil
			}
		}
		rel, err := filepath.Rel(dir, p)
		if err != nil {
			return err
		}
		found = append(found, Shapefile{Name: filepath.ToSlash(rel), Path: p})
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(found, func(i, j int) bool { return found[i].Name < found[j].Name })
	return found, nil
}
