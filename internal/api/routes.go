// Package api defines the Huma API routes and handlers.
package api

import (
	"context"
	"mime/multipart"

	"github.com/danielgtaylor/huma/v2"

	"github.com/joeblew999/plat-inset/internal/basemap"
	"github.com/joeblew999/plat-inset/internal/geo"
	"github.com/joeblew999/plat-inset/internal/service"
)

// Services holds the service dependencies for API handlers.
type Services struct {
	Render   *service.RenderService
	Country  *service.CountryService
	Basemaps *basemap.Registry
	// MaxUploadBytes bounds multipart bodies; 0 keeps Huma's default.
	MaxUploadBytes int64
}

// Types

type HealthBody struct {
	Status  string `json:"status" doc:"Health status" example:"ok"`
	Version string `json:"version" doc:"API version" example:"1.0.0"`
}

type CoordinatesInput struct {
	Body struct {
		Text   string `json:"text" minLength:"1" doc:"One 'latitude, longitude' pair per line" example:"-1.2, 36.7\n-1.2, 36.9\n-1.4, 36.9"`
		Prefix string `json:"prefix,omitempty" default:"Site" doc:"Site label prefix"`
	}
}

type CoordinatesBody struct {
	Ring  [][2]float64    `json:"ring" doc:"Closed ring as [lon, lat] pairs; first equals last"`
	Sites []geo.SiteLabel `json:"sites" doc:"One label per pasted vertex"`
}

// UploadInput is a multipart body; see ParseRenderForm for the field names.
type UploadInput struct {
	RawBody multipart.Form
}

// APIHandler holds all REST API handlers. Methods named Register* are
// auto-discovered by huma.AutoRegister.
type APIHandler struct {
	svc *Services
}

func NewAPIHandler(svc *Services) *APIHandler {
	return &APIHandler{svc: svc}
}

// RegisterRoutes registers every REST route on api.
func RegisterRoutes(api huma.API, svc *Services) {
	huma.AutoRegister(api, NewAPIHandler(svc))
}

// RegisterHealth registers health check routes.
func (h *APIHandler) RegisterHealth(api huma.API) {
	huma.Get(api, "/health", h.GetHealth, huma.OperationTags("health"))
}

// RegisterCountries registers the country list route.
func (h *APIHandler) RegisterCountries(api huma.API) {
	huma.Get(api, "/api/v1/countries", h.GetCountries, huma.OperationTags("countries"))
}

// RegisterBasemaps registers the basemap provider list.
func (h *APIHandler) RegisterBasemaps(api huma.API) {
	huma.Get(api, "/api/v1/basemaps", h.GetBasemaps, huma.OperationTags("maps"))
}

// RegisterCoordinates registers the coordinate parsing route.
func (h *APIHandler) RegisterCoordinates(api huma.API) {
	huma.Post(api, "/api/v1/coordinates", h.ParseCoordinates, huma.OperationTags("maps"))
}

// RegisterArchives registers shapefile archive inspection.
func (h *APIHandler) RegisterArchives(api huma.API) {
	huma.Post(api, "/api/v1/archives", h.InspectArchive, huma.OperationTags("maps"), h.maxBody)
}

// RegisterMaps registers map rendering.
func (h *APIHandler) RegisterMaps(api huma.API) {
	huma.Post(api, "/api/v1/maps", h.CreateMap, huma.OperationTags("maps"), h.maxBody)
}

func (h *APIHandler) maxBody(op *huma.Operation) {
	if h.svc != nil && h.svc.MaxUploadBytes > 0 {
		op.MaxBodyBytes = h.svc.MaxUploadBytes
	}
}

// Handlers

func (h *APIHandler) GetHealth(ctx context.Context, input *struct{}) (*struct{ Body HealthBody }, error) {
	return &struct{ Body HealthBody }{Body: HealthBody{Status: "ok", Version: Version}}, nil
}

func (h *APIHandler) GetCountries(ctx context.Context, input *struct{}) (*struct{ Body service.CountryList }, error) {
	if h.svc == nil || h.svc.Country == nil {
		return nil, huma.Error503ServiceUnavailable("country service not available")
	}
	list, err := h.svc.Country.List()
	if err != nil {
		return nil, toHumaError(err)
	}
	return &struct{ Body service.CountryList }{Body: list}, nil
}

func (h *APIHandler) GetBasemaps(ctx context.Context, input *struct{}) (*struct{ Body []basemap.Provider }, error) {
	if h.svc == nil || h.svc.Basemaps == nil {
		return &struct{ Body []basemap.Provider }{Body: []basemap.Provider{}}, nil
	}
	return &struct{ Body []basemap.Provider }{Body: h.svc.Basemaps.List()}, nil
}

func (h *APIHandler) ParseCoordinates(ctx context.Context, input *CoordinatesInput) (*struct{ Body CoordinatesBody }, error) {
	poly, err := geo.ParseCoordinates(input.Body.Text, input.Body.Prefix)
	if err != nil {
		return nil, toHumaError(err)
	}
	body := CoordinatesBody{Sites: poly.Sites}
	for _, p := range poly.Ring() {
		body.Ring = append(body.Ring, [2]float64{p.X(), p.Y()})
	}
	return &struct{ Body CoordinatesBody }{Body: body}, nil
}

func (h *APIHandler) InspectArchive(ctx context.Context, input *UploadInput) (*struct{ Body []service.ShapefileInfo }, error) {
	data, _, err := ReadUpload(&input.RawBody, FieldArchive)
	if err != nil {
		return nil, toHumaError(err)
	}
	if data == nil {
		return nil, huma.Error400BadRequest("archive file is required")
	}
	infos, err := service.InspectArchive(data)
	if err != nil {
		return nil, toHumaError(err)
	}
	return &struct{ Body []service.ShapefileInfo }{Body: infos}, nil
}

func (h *APIHandler) CreateMap(ctx context.Context, input *UploadInput) (*struct{ Body *service.RenderResult }, error) {
	if h.svc == nil || h.svc.Render == nil {
		return nil, huma.Error503ServiceUnavailable("render service not available")
	}
	req, err := ParseRenderForm(&input.RawBody)
	if err != nil {
		return nil, toHumaError(err)
	}
	result, err := h.svc.Render.Render(ctx, req, nil)
	if err != nil {
		return nil, toHumaError(err)
	}
	return &struct{ Body *service.RenderResult }{Body: result}, nil
}
