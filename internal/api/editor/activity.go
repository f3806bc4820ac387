package editor

import (
	"context"
	"fmt"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/joeblew999/plat-inset/internal/humastar"
	"github.com/joeblew999/plat-inset/internal/service"
	"github.com/joeblew999/plat-inset/internal/templates"
)

// ActivityHandler streams finished renders to the editor's activity panel.
type ActivityHandler struct {
	humastar.Handler
	bus *service.EventBus
}

func NewActivityHandler(bus *service.EventBus, renderer *templates.Renderer) *ActivityHandler {
	return &ActivityHandler{
		Handler: humastar.Handler{Renderer: renderer},
		bus:     bus,
	}
}

func (h *ActivityHandler) RegisterRoutes(api huma.API) {
	huma.Get(api, "/api/v1/editor/activity", h.Activity, huma.OperationTags("editor"))
}

// activityItem is the data for the "activity-item" fragment.
type activityItem struct {
	Country  string
	Outcome  string
	Duration string
	At       string
}

func newActivityItem(e service.Event) activityItem {
	return activityItem{
		Country:  e.Country,
		Outcome:  e.Action,
		Duration: fmt.Sprintf("%.1fs", e.Duration.Seconds()),
		At:       e.At.Format(time.TimeOnly),
	}
}

// Activity sends the recent renders, then one fragment per new render until
// the client disconnects.
func (h *ActivityHandler) Activity(ctx context.Context, input *humastar.EmptyInput) (*huma.StreamResponse, error) {
	return h.Stream(func(sse humastar.SSE) {
		recent := h.bus.Recent()
		items := make([]any, len(recent))
		for i, e := range recent {
			items[i] = newActivityItem(e)
		}
		sse.Patch(h.RenderList("activity-item", items, "No maps yet", "Generated maps will appear here."), "#activity")

		ch := h.bus.Subscribe()
		defer h.bus.Unsubscribe(ch)
		first := len(recent) == 0

		for {
			select {
			case <-ctx.Done():
				return
			case ev := <-ch:
				html := h.Fragment("activity-item", newActivityItem(ev))
				if first {
					sse.Patch(html, "#activity")
					first = false
				} else {
					sse.Prepend(html, "#activity")
				}
				sse.DispatchCustomEvent("render-finished", map[string]any{
					"id":      ev.ID,
					"outcome": ev.Action,
				})
			}
		}
	}), nil
}
