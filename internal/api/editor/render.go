package editor

import (
	"context"
	"fmt"
	"html/template"
	"log/slog"

	"github.com/danielgtaylor/huma/v2"

	"github.com/joeblew999/plat-inset/internal/api"
	"github.com/joeblew999/plat-inset/internal/export"
	"github.com/joeblew999/plat-inset/internal/humastar"
	"github.com/joeblew999/plat-inset/internal/service"
	"github.com/joeblew999/plat-inset/internal/templates"
)

// RenderHandler runs renders for the editor and streams their progress.
type RenderHandler struct {
	humastar.Handler
	render   *service.RenderService
	maxBytes int64
}

func NewRenderHandler(render *service.RenderService, renderer *templates.Renderer, maxBytes int64) *RenderHandler {
	return &RenderHandler{
		Handler:  humastar.Handler{Renderer: renderer},
		render:   render,
		maxBytes: maxBytes,
	}
}

func (h *RenderHandler) RegisterRoutes(a huma.API) {
	huma.Post(a, "/api/v1/editor/render", h.Render, huma.OperationTags("editor"), h.maxBody)
}

func (h *RenderHandler) maxBody(op *huma.Operation) {
	if h.maxBytes > 0 {
		op.MaxBodyBytes = h.maxBytes
	}
}

// resultView is the data for the "map-result" fragment.
type resultView struct {
	Result    *service.RenderResult
	Downloads []template.HTML
}

func newResultView(res *service.RenderResult) resultView {
	v := resultView{Result: res}
	add := func(uri string, b export.Button) {
		if uri == "" {
			return
		}
		link, err := export.DownloadLink(uri, b)
		if err != nil {
			slog.Warn("download link failed", "file", b.File, "err", err)
			return
		}
		v.Downloads = append(v.Downloads, link)
	}
	add(res.PNG, export.PNGButton)
	add(res.HTML, export.HTMLButton)
	add(res.SVG, export.SVGButton)
	return v
}

// Render parses the editor form and streams progress signals, then the
// result fragment into #result.
func (h *RenderHandler) Render(ctx context.Context, input *api.UploadInput) (*huma.StreamResponse, error) {
	req, formErr := api.ParseRenderForm(&input.RawBody)

	return h.Stream(func(sse humastar.SSE) {
		if formErr != nil {
			sse.Error(api.UserMessage(formErr))
			return
		}
		sse.Signals(map[string]any{"busy": true, "error": "", "success": "", "progress": 0})

		res, err := h.render.Render(ctx, req, sse.Progress)
		if err != nil {
			sse.Error(api.UserMessage(err))
			return
		}

		sse.Patch(h.Fragment("map-result", newResultView(res)), "#result")
		msg := "Map generated"
		if n := len(res.Warnings); n > 0 {
			msg = fmt.Sprintf("Map generated with %d warning(s)", n)
		}
		sse.Signals(map[string]any{"renderid": res.ID})
		sse.Success(msg)
	}), nil
}
