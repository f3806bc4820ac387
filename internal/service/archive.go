package service

import (
	"bytes"
	"log/slog"

	"github.com/joeblew999/plat-inset/internal/ingest"
	"github.com/joeblew999/plat-inset/internal/metrics"
)

// maxColumnValues caps the distinct values returned per column.
const maxColumnValues = 1000

// InspectArchive lists the valid shapefiles in a ZIP with their columns and
// distinct values, for building the area picker.
func InspectArchive(data []byte) ([]ShapefileInfo, error) {
	var infos []ShapefileInfo
	err := ingest.WithArchive(bytes.NewReader(data), int64(len(data)), func(a *ingest.Archive) error {
		for _, shp := range a.Shapefiles() {
			info := ShapefileInfo{Name: shp.Name}
			ds, err := ingest.ReadShapefile(shp.Path)
			if err != nil {
				slog.Warn("shapefile not readable", "shapefile", shp.Name, "err", err)
				info.Error = err.Error()
				infos = append(infos, info)
				continue
			}
			info.Features = len(ds.Features.Features)
			for _, col := range ds.Columns {
				values := ds.Values(col)
				c := ColumnInfo{Name: col, Values: values}
				if len(values) > maxColumnValues {
					c.Values, c.Truncated = values[:maxColumnValues], true
				}
				info.Columns = append(info.Columns, c)
			}
			infos = append(infos, info)
		}
		return nil
	})
	if err != nil {
		metrics.LayerFailures.WithLabelValues("archive").Inc()
		return nil, err
	}
	return infos, nil
}
