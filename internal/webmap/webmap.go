// Package webmap renders the interactive Leaflet version of a map as a
// standalone HTML document.
package webmap

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"strconv"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/planar"

	"github.com/joeblew999/plat-inset/internal/geo"
)

// DefaultZoom is the initial Leaflet zoom level.
const DefaultZoom = 10

// Input is the content of one interactive map.
type Input struct {
	Title     string
	StudyArea *geojson.FeatureCollection
	// NameColumn, when set, is shown as tooltip and popup on study features.
	// Values are inserted as text, never as HTML.
	NameColumn string
	Country    *geojson.Feature
	Sites      []geo.SiteLabel
}

type marker struct {
	Lat   float64 `json:"lat"`
	Lon   float64 `json:"lon"`
	Popup string  `json:"popup"`
}

type page struct {
	Title     string
	View      template.JS
	Zoom      template.JS
	Study     template.JS
	Country   template.JS
	Markers   template.JS
	FieldName template.JS
}

var tmpl = template.Must(template.New("webmap").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>{{.Title}}</title>
<link rel="stylesheet" href="https://unpkg.com/leaflet@1.9.4/dist/leaflet.css">
<script src="https://unpkg.com/leaflet@1.9.4/dist/leaflet.js"></script>
<style>html, body, #map { height: 100%; margin: 0; }</style>
</head>
<body>
<div id="map"></div>
<script>
const map = L.map("map").setView({{.View}}, {{.Zoom}});
L.tileLayer("https://tile.openstreetmap.org/{z}/{x}/{y}.png", {
  maxZoom: 19,
  attribution: "&copy; OpenStreetMap contributors"
}).addTo(map);

const field = {{.FieldName}};
const study = L.geoJSON({{.Study}}, {
  style: () => ({fillColor: "#3498db", color: "#2c3e50", weight: 1.5, fillOpacity: 0.7})
});
if (field) {
  study.eachLayer(l => {
    const v = l.feature.properties[field];
    if (v !== undefined && v !== null) {
      const text = () => {
        const el = document.createElement("span");
        el.textContent = field + ": " + v;
        return el;
      };
      l.bindTooltip(text());
      l.bindPopup(text());
    }
  });
}
study.addTo(map);

L.geoJSON({{.Country}}, {
  style: () => ({fillColor: "#bdc3c7", color: "#7f8c8d", weight: 0.5, fillOpacity: 0.5})
}).addTo(map);

const red = L.divIcon({className: "", html: '<div style="width:14px;height:14px;border-radius:7px;background:#e74c3c;border:2px solid #fff"></div>', iconSize: [14, 14]});
for (const m of {{.Markers}}) {
  L.marker([m.lat, m.lon], {icon: red}).bindPopup(m.popup).addTo(map);
}
</script>
</body>
</html>
`))

// Render writes the interactive map document.
func Render(in Input) ([]byte, error) {
	if in.StudyArea == nil || len(in.StudyArea.Features) == 0 {
		return nil, errors.New("study area has no features")
	}

	center := Center(in.StudyArea)
	p := page{Title: in.Title, Zoom: template.JS(strconv.Itoa(DefaultZoom))}
	if p.Title == "" {
		p.Title = "Interactive map"
	}

	var err error
	if p.View, err = jsValue([2]float64{center[1], center[0]}); err != nil {
		return nil, err
	}
	if p.Study, err = jsValue(in.StudyArea); err != nil {
		return nil, fmt.Errorf("encode study area: %w", err)
	}
	country := geojson.NewFeatureCollection()
	if in.Country != nil {
		country.Append(in.Country)
	}
	if p.Country, err = jsValue(country); err != nil {
		return nil, fmt.Errorf("encode country: %w", err)
	}

	markers := make([]marker, 0, len(in.Sites))
	for _, s := range in.Sites {
		markers = append(markers, marker{Lat: s.Lat, Lon: s.Lon, Popup: Popup(s)})
	}
	if p.Markers, err = jsValue(markers); err != nil {
		return nil, err
	}
	if p.FieldName, err = jsValue(in.NameColumn); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, p); err != nil {
		return nil, fmt.Errorf("render webmap: %w", err)
	}
	return buf.Bytes(), nil
}

// Popup is the marker popup for a site: name, then latitude and longitude
// in degrees-minutes-seconds.
func Popup(s geo.SiteLabel) string {
	lat, lon := s.LatDMS, s.LonDMS
	if lat == "" {
		lat = geo.FormatDMS(s.Lat, geo.Latitude)
	}
	if lon == "" {
		lon = geo.FormatDMS(s.Lon, geo.Longitude)
	}
	return fmt.Sprintf("%s<br>Lat: %s<br>Lon: %s", template.HTMLEscapeString(s.Name), lat, lon)
}

// Center is the mean of the feature centroids.
func Center(fc *geojson.FeatureCollection) orb.Point {
	var sum orb.Point
	for _, f := range fc.Features {
		c, _ := planar.CentroidArea(f.Geometry)
		sum[0] += c[0]
		sum[1] += c[1]
	}
	n := float64(len(fc.Features))
	return orb.Point{sum[0] / n, sum[1] / n}
}

// jsValue marshals v for a script context. encoding/json escapes <, > and &
// so the value cannot close the script element.
func jsValue(v any) (template.JS, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return template.JS(b), nil
}
