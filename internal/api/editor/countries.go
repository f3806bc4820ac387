// Package editor contains Datastar SSE handlers for the map editor UI.
package editor

import (
	"context"

	"github.com/danielgtaylor/huma/v2"

	"github.com/joeblew999/plat-inset/internal/humastar"
	"github.com/joeblew999/plat-inset/internal/service"
	"github.com/joeblew999/plat-inset/internal/templates"
)

// CountryHandler fills the country picker.
type CountryHandler struct {
	humastar.Handler
	countries *service.CountryService
}

func NewCountryHandler(countries *service.CountryService, renderer *templates.Renderer) *CountryHandler {
	return &CountryHandler{
		Handler:   humastar.Handler{Renderer: renderer},
		countries: countries,
	}
}

func (h *CountryHandler) RegisterRoutes(api huma.API) {
	huma.Get(api, "/api/v1/editor/countries/select", h.Select, huma.OperationTags("editor"))
}

// Select streams <option> elements with the default country preselected
// and sets the country signal to match.
func (h *CountryHandler) Select(ctx context.Context, input *humastar.EmptyInput) (*huma.StreamResponse, error) {
	return h.Stream(func(sse humastar.SSE) {
		list, err := h.countries.List()
		if err != nil {
			sse.Error("Country data is not available: " + err.Error())
			return
		}
		options := make([]humastar.SelectOptionData, len(list.Names))
		for i, name := range list.Names {
			options[i] = humastar.SelectOptionData{Value: name, Label: name, Selected: name == list.Default}
		}
		sse.Patch(h.RenderSelect("", options), "#country-select")
		sse.Signals(map[string]any{"country": list.Default})
	}), nil
}
