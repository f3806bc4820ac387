// Package service contains the map rendering logic behind the HTTP and CLI
// surfaces.
package service

import (
	"errors"

	"github.com/joeblew999/plat-inset/internal/figure"
	"github.com/joeblew999/plat-inset/internal/geo"
	"github.com/joeblew999/plat-inset/internal/ingest"
)

var (
	// ErrUnknownCountry means the requested country is not in the world dataset.
	ErrUnknownCountry = errors.New("unknown country")
	// ErrNoStudyArea means the request selected nothing to map.
	ErrNoStudyArea = errors.New("no study area selected")
)

// ProgressFunc is called with progress updates during a render.
type ProgressFunc func(progress int, status string)

// RenderOptions are the display toggles of one render.
// Tags drive the OpenAPI schema and the editor form.
type RenderOptions struct {
	Title           string `json:"title,omitempty" maxLength:"200" doc:"Map title; defaults to 'Study Area in <country>'" example:"Study Area in Kenya"`
	StudyName       string `json:"studyName,omitempty" maxLength:"100" default:"Study Area" doc:"Label drawn at the study area centroid"`
	ShowPolygon     bool   `json:"showPolygon" default:"true" doc:"Draw the pasted coordinate polygon as a dashed boundary"`
	SiteLabels      bool   `json:"siteLabels" default:"true" doc:"Draw site markers and labels for pasted coordinates"`
	RegionLabels    bool   `json:"regionLabels" default:"true" doc:"Label each selected shapefile polygon"`
	CountryLabel    bool   `json:"countryLabel" default:"true" doc:"Label the country in the inset"`
	Basemap         bool   `json:"basemap" default:"false" doc:"Draw basemap tiles under the study area"`
	BasemapProvider string `json:"basemapProvider,omitempty" enum:"openstreetmap,stamen_terrain,stamen_toner,esri_worldimagery" default:"openstreetmap" doc:"Basemap tile provider"`
	SVG             bool   `json:"svg" default:"false" doc:"Also return the figure as SVG"`
}

// DefaultRenderOptions mirrors the form defaults.
func DefaultRenderOptions() RenderOptions {
	return RenderOptions{
		StudyName:       "Study Area",
		ShowPolygon:     true,
		SiteLabels:      true,
		RegionLabels:    true,
		CountryLabel:    true,
		BasemapProvider: "openstreetmap",
	}
}

// RenderRequest describes one map. The study area comes from Coordinates
// when set, otherwise from the shapefile Archive.
type RenderRequest struct {
	Country string

	Coordinates string
	SitePrefix  string

	Archive    []byte
	Shapefile  string
	NameColumn string
	Areas      []string

	Layers  []ingest.LayerFile
	Options RenderOptions
}

// LayerStatus reports whether an optional layer was drawn.
type LayerStatus struct {
	Name   string `json:"name" doc:"Layer name" example:"roads"`
	Loaded bool   `json:"loaded" doc:"Whether the layer was drawn"`
	Error  string `json:"error,omitempty" doc:"Why the layer could not be loaded"`
}

// RenderResult is the outcome of a render. Optional outputs are empty when
// they failed; Warnings says why.
type RenderResult struct {
	ID         string               `json:"id" format:"uuid" doc:"Render identifier"`
	Country    string               `json:"country" example:"Kenya"`
	Title      string               `json:"title"`
	Width      int                  `json:"width" doc:"PNG width in pixels after cropping"`
	Height     int                  `json:"height" doc:"PNG height in pixels after cropping"`
	PNG        string               `json:"png" doc:"PNG data URI"`
	HTML       string               `json:"html,omitempty" doc:"Interactive map data URI"`
	SVG        string               `json:"svg,omitempty" doc:"SVG data URI"`
	Sites      []geo.SiteLabel      `json:"sites,omitempty" doc:"Pasted sites with DMS coordinates"`
	Layers     []LayerStatus        `json:"layers,omitempty"`
	Legend     []figure.LegendEntry `json:"legend"`
	Connectors int                  `json:"connectors" doc:"Number of inset connector arrows drawn"`
	ScaleBar   string               `json:"scaleBar" example:"20 km"`
	Warnings   []string             `json:"warnings,omitempty"`
	PNGBytes   []byte               `json:"-"`
	HTMLBytes  []byte               `json:"-"`
	SVGBytes   []byte               `json:"-"`
}

// ColumnInfo lists the distinct values of one attribute column.
type ColumnInfo struct {
	Name      string   `json:"name" example:"COUNTY"`
	Values    []string `json:"values" doc:"Distinct values, sorted"`
	Truncated bool     `json:"truncated,omitempty" doc:"Values were capped"`
}

// ShapefileInfo describes one shapefile in an uploaded archive.
type ShapefileInfo struct {
	Name     string       `json:"name" example:"counties.shp"`
	Features int          `json:"features"`
	Columns  []ColumnInfo `json:"columns,omitempty"`
	Error    string       `json:"error,omitempty" doc:"Why the shapefile could not be read"`
}

// CountryList is the country picker content.
type CountryList struct {
	Names   []string `json:"names"`
	Default string   `json:"default" example:"Kenya"`
}
