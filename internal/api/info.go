package api

import (
	"context"

	"github.com/danielgtaylor/huma/v2"
)

// Version is reported by /health and /api/v1/info.
const Version = "0.1.0"

type InfoHandler struct {
	worldPath string
	countries int
	dpi       int
}

func NewInfoHandler(worldPath string, countries, dpi int) *InfoHandler {
	return &InfoHandler{worldPath: worldPath, countries: countries, dpi: dpi}
}

func (h *InfoHandler) RegisterRoutes(api huma.API) {
	huma.Get(api, "/api/v1/info", h.GetInfo, huma.OperationTags("health"))
}

type InfoBody struct {
	Name      string   `json:"name" doc:"Service name"`
	Version   string   `json:"version" doc:"Service version"`
	WorldPath string   `json:"world_path" doc:"Country dataset in use"`
	Countries int      `json:"countries" doc:"Number of countries available"`
	DPI       int      `json:"dpi" doc:"Static map resolution"`
	Outputs   []string `json:"outputs" doc:"Output formats"`
}

func (h *InfoHandler) GetInfo(ctx context.Context, input *struct{}) (*struct{ Body InfoBody }, error) {
	return &struct{ Body InfoBody }{Body: InfoBody{
		Name:      "plat-inset",
		Version:   Version,
		WorldPath: h.worldPath,
		Countries: h.countries,
		DPI:       h.dpi,
		Outputs:   []string{"png", "html", "svg"},
	}}, nil
}
