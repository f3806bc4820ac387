package editor

import (
	"context"
	"strings"

	"github.com/danielgtaylor/huma/v2"

	"github.com/joeblew999/plat-inset/internal/api"
	"github.com/joeblew999/plat-inset/internal/geo"
	"github.com/joeblew999/plat-inset/internal/humastar"
	"github.com/joeblew999/plat-inset/internal/service"
	"github.com/joeblew999/plat-inset/internal/templates"
)

// InputHandler previews study area inputs while the user edits the form.
type InputHandler struct {
	humastar.Handler
	maxBytes int64
}

func NewInputHandler(renderer *templates.Renderer, maxBytes int64) *InputHandler {
	return &InputHandler{Handler: humastar.Handler{Renderer: renderer}, maxBytes: maxBytes}
}

func (h *InputHandler) RegisterRoutes(a huma.API) {
	huma.Post(a, "/api/v1/editor/coordinates", h.Coordinates, huma.OperationTags("editor"))
	huma.Post(a, "/api/v1/editor/archive", h.Archive, huma.OperationTags("editor"), func(op *huma.Operation) {
		if h.maxBytes > 0 {
			op.MaxBodyBytes = h.maxBytes
		}
	})
}

// sitesView is the data for the "site-table" fragment.
type sitesView struct {
	Sites []geo.SiteLabel
	Error string
}

// Coordinates reads the coordinates and siteprefix signals and patches the
// parsed site table, or the parse error, into #site-table.
func (h *InputHandler) Coordinates(ctx context.Context, input *humastar.SignalsInput) (*huma.StreamResponse, error) {
	signals, err := input.MustParse()
	if err != nil {
		return nil, err
	}
	text := signals.String(api.FieldCoordinates)
	prefix := signals.String(api.FieldSitePrefix)

	return h.Stream(func(sse humastar.SSE) {
		var view sitesView
		if strings.TrimSpace(text) != "" {
			poly, err := geo.ParseCoordinates(text, prefix)
			if err != nil {
				view.Error = err.Error()
			} else {
				view.Sites = poly.Sites
			}
		}
		sse.Patch(h.Fragment("site-table", view), "#site-table")
	}), nil
}

// pickerView is the data for the "archive-picker" fragment.
type pickerView struct {
	Shapefiles []service.ShapefileInfo
	Shapefile  string
	Columns    []service.ColumnInfo
	Column     string
	Values     []string
	Truncated  bool
	Error      string
}

// newPicker narrows the archive listing to the chosen shapefile and column,
// falling back to the first readable shapefile. No column means the whole
// shapefile is mapped.
func newPicker(infos []service.ShapefileInfo, shapefile, column string) pickerView {
	v := pickerView{Shapefiles: infos}
	var chosen *service.ShapefileInfo
	for i := range infos {
		if infos[i].Name == shapefile && infos[i].Error == "" {
			chosen = &infos[i]
			break
		}
	}
	if chosen == nil {
		for i := range infos {
			if infos[i].Error == "" {
				chosen = &infos[i]
				break
			}
		}
	}
	if chosen == nil {
		v.Error = "None of the shapefiles in the archive could be read"
		return v
	}
	v.Shapefile, v.Columns = chosen.Name, chosen.Columns
	for _, c := range chosen.Columns {
		if c.Name == column {
			v.Column, v.Values, v.Truncated = c.Name, c.Values, c.Truncated
		}
	}
	return v
}

// Archive inspects the uploaded ZIP and patches the shapefile, column and
// area pickers into #archive-picker.
func (h *InputHandler) Archive(ctx context.Context, input *api.UploadInput) (*huma.StreamResponse, error) {
	form := &input.RawBody
	var (
		infos []service.ShapefileInfo
		err   error
	)
	data, name, readErr := api.ReadUpload(form, api.FieldArchive)
	if readErr == nil && data != nil {
		infos, err = service.InspectArchive(data)
	}
	shapefile := lastValue(form.Value[api.FieldShapefile])
	column := lastValue(form.Value[api.FieldNameColumn])

	return h.Stream(func(sse humastar.SSE) {
		switch {
		case readErr != nil:
			sse.Error(api.UserMessage(readErr))
			return
		case data == nil:
			sse.Patch(h.Fragment("archive-picker", pickerView{}), "#archive-picker")
			return
		case err != nil:
			sse.Patch(h.Fragment("archive-picker", pickerView{Error: api.UserMessage(err)}), "#archive-picker")
			return
		}
		view := newPicker(infos, shapefile, column)
		sse.Patch(h.Fragment("archive-picker", view), "#archive-picker")
		sse.Signals(map[string]any{api.FieldShapefile: view.Shapefile, api.FieldNameColumn: view.Column, "archivename": name})
	}), nil
}

func lastValue(values []string) string {
	if len(values) == 0 {
		return ""
	}
	return strings.TrimSpace(values[len(values)-1])
}
