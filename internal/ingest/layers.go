package ingest

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/paulmach/orb/geojson"
)

// maxLayerBytes bounds one GeoJSON upload.
const maxLayerBytes = 128 << 20

// ReadGeoJSON parses one layer. A FeatureCollection is used as is; a single
// Feature or a bare geometry is wrapped into a one-feature collection.
func ReadGeoJSON(r io.Reader) (*geojson.FeatureCollection, error) {
	data, err := io.ReadAll(io.LimitReader(r, maxLayerBytes+1))
	if err != nil {
		return nil, err
	}
	if len(data) > maxLayerBytes {
		return nil, fmt.Errorf("geojson larger than %d bytes", maxLayerBytes)
	}

	var head struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, fmt.Errorf("parsing geojson: %w", err)
	}

	switch head.Type {
	case "FeatureCollection":
		fc, err := geojson.UnmarshalFeatureCollection(data)
		if err != nil {
			return nil, fmt.Errorf("parsing geojson: %w", err)
		}
		if len(fc.Features) == 0 {
			return nil, errors.New("feature collection is empty")
		}
		return fc, nil
	case "Feature":
		f, err := geojson.UnmarshalFeature(data)
		if err != nil {
			return nil, fmt.Errorf("parsing geojson: %w", err)
		}
		fc := geojson.NewFeatureCollection()
		fc.Append(f)
		return fc, nil
	case "":
		return nil, errors.New("parsing geojson: missing type")
	default:
		g, err := geojson.UnmarshalGeometry(data)
		if err != nil {
			return nil, fmt.Errorf("parsing geojson: %w", err)
		}
		fc := geojson.NewFeatureCollection()
		fc.Append(geojson.NewFeature(g.Geometry()))
		return fc, nil
	}
}

// LayerFile is an optional layer upload that has not been opened yet.
type LayerFile struct {
	Name string
	Open func() (io.ReadCloser, error)
}

// LayerOutcome is the result of loading one optional layer: exactly one of
// Layer or Err is set.
type LayerOutcome struct {
	Name  string
	Layer *geojson.FeatureCollection
	Err   error
}

// OK reports whether the layer loaded.
func (o LayerOutcome) OK() bool {
	return o.Err == nil && o.Layer != nil
}

// LoadLayers reads every file and records a per-file outcome so the caller
// can report exactly which layers failed and why.
func LoadLayers(files []LayerFile) []LayerOutcome {
	outcomes := make([]LayerOutcome, 0, len(files))
	for _, file := range files {
		outcomes = append(outcomes, loadLayer(file))
	}
	return outcomes
}

func loadLayer(file LayerFile) LayerOutcome {
	name := LayerName(file.Name)
	rc, err := file.Open()
	if err != nil {
		return LayerOutcome{Name: name, Err: fmt.Errorf("open %s: %w", file.Name, err)}
	}
	defer rc.Close()

	fc, err := ReadGeoJSON(rc)
	if err != nil {
		return LayerOutcome{Name: name, Err: err}
	}
	return LayerOutcome{Name: name, Layer: fc}
}

// LayerName is the upload's file name without any directory, extension
// included, as shown in the legend and warnings.
func LayerName(filename string) string {
	return path.Base(strings.ReplaceAll(filename, "\\", "/"))
}
