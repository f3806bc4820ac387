package api

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"strconv"
	"strings"

	"github.com/joeblew999/plat-inset/internal/ingest"
	"github.com/joeblew999/plat-inset/internal/service"
)

// Multipart field names shared by POST /api/v1/maps and the editor form.
// Option fields use the lowercased JSON names of service.RenderOptions.
const (
	FieldCountry     = "country"
	FieldCoordinates = "coordinates"
	FieldSitePrefix  = "siteprefix"
	FieldArchive     = "archive"
	FieldShapefile   = "shapefile"
	FieldNameColumn  = "namecolumn"
	FieldAreas       = "areas"
	FieldLayers      = "layers"
)

// errBadForm marks form values that cannot be interpreted.
var errBadForm = errors.New("invalid form field")

// ParseRenderForm turns a multipart form into a render request. Missing
// option fields keep their defaults. When a field repeats, the last value
// wins, so HTML forms can pair a hidden "false" with a checkbox.
func ParseRenderForm(form *multipart.Form) (service.RenderRequest, error) {
	req := service.RenderRequest{
		Country:     value(form, FieldCountry),
		Coordinates: value(form, FieldCoordinates),
		SitePrefix:  value(form, FieldSitePrefix),
		Shapefile:   value(form, FieldShapefile),
		NameColumn:  value(form, FieldNameColumn),
		Options:     service.DefaultRenderOptions(),
	}
	if req.Country == "" {
		return req, fmt.Errorf("%w: %s is required", errBadForm, FieldCountry)
	}

	for _, area := range form.Value[FieldAreas] {
		if area = strings.TrimSpace(area); area != "" {
			req.Areas = append(req.Areas, area)
		}
	}

	archive, _, err := ReadUpload(form, FieldArchive)
	if err != nil {
		return req, err
	}
	req.Archive = archive

	for _, fh := range form.File[FieldLayers] {
		req.Layers = append(req.Layers, ingest.LayerFile{
			Name: fh.Filename,
			Open: func() (io.ReadCloser, error) { return fh.Open() },
		})
	}

	if err := parseOptions(form, &req.Options); err != nil {
		return req, err
	}
	return req, nil
}

func parseOptions(form *multipart.Form, opts *service.RenderOptions) error {
	if v, ok := lookup(form, "title"); ok {
		opts.Title = v
	}
	if v, ok := lookup(form, "studyname"); ok && v != "" {
		opts.StudyName = v
	}
	if v, ok := lookup(form, "basemapprovider"); ok && v != "" {
		opts.BasemapProvider = v
	}
	for name, dst := range map[string]*bool{
		"showpolygon":  &opts.ShowPolygon,
		"sitelabels":   &opts.SiteLabels,
		"regionlabels": &opts.RegionLabels,
		"countrylabel": &opts.CountryLabel,
		"basemap":      &opts.Basemap,
		"svg":          &opts.SVG,
	} {
		v, ok := lookup(form, name)
		if !ok {
			continue
		}
		b, err := parseBool(v)
		if err != nil {
			return fmt.Errorf("%w: %s: %v", errBadForm, name, err)
		}
		*dst = b
	}
	return nil
}

// parseBool accepts checkbox values as well as strconv.ParseBool's.
func parseBool(v string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "on", "yes":
		return true, nil
	case "off", "no", "":
		return false, nil
	}
	return strconv.ParseBool(v)
}

func lookup(form *multipart.Form, name string) (string, bool) {
	values := form.Value[name]
	if len(values) == 0 {
		return "", false
	}
	return values[len(values)-1], true
}

func value(form *multipart.Form, name string) string {
	v, _ := lookup(form, name)
	return strings.TrimSpace(v)
}

// ReadUpload returns the first upload under name, or nil when there is none.
func ReadUpload(form *multipart.Form, name string) ([]byte, string, error) {
	files := form.File[name]
	if len(files) == 0 || files[0].Size == 0 {
		return nil, "", nil
	}
	f, err := files[0].Open()
	if err != nil {
		return nil, "", fmt.Errorf("open %s upload: %w", name, err)
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, "", fmt.Errorf("read %s upload: %w", name, err)
	}
	return data, files[0].Filename, nil
}
