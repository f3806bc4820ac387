// Package humastar bridges Huma (REST/OpenAPI) with Datastar (SSE/hypermedia).
//
// It provides:
//   - SSE: Huma streaming to the Datastar SSE protocol via [SSE] and [NewSSE]
//   - Signals: typed access to Datastar signal bodies via [Signals] and [SignalsInput]
//   - Rendering: template list/select helpers via [RenderList] and [RenderSelect]
//   - Handler: embeddable base for editor-style SSE handlers via [Handler]
//   - Page signals: data-signals init from OpenAPI defaults via [BuildSignals]
//
// Usage:
//
//	type MyHandler struct {
//	    humastar.Handler
//	    svc *service.CountryService
//	}
//
//	func (h *MyHandler) Select(ctx context.Context, input *humastar.EmptyInput) (*huma.StreamResponse, error) {
//	    return h.Stream(func(sse humastar.SSE) {
//	        sse.Patch(h.RenderSelect("", options), "#country-select")
//	    }), nil
//	}
package humastar

import (
	"bytes"
	"encoding/json"
	"log/slog"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humago"
	"github.com/starfederation/datastar-go/datastar"

	"github.com/joeblew999/plat-inset/internal/templates"
)

// Handler is an embeddable base for Huma handlers that answer with Datastar
// SSE. It holds the fragment renderer.
type Handler struct {
	Renderer *templates.Renderer
}

// Stream returns a Huma StreamResponse that calls fn with a ready SSE helper.
func (h *Handler) Stream(fn func(sse SSE)) *huma.StreamResponse {
	return &huma.StreamResponse{
		Body: func(humaCtx huma.Context) {
			fn(NewSSE(humaCtx))
		},
	}
}

// Fragment renders a named template, logging and returning "" on failure so
// a broken fragment never aborts a stream.
func (h *Handler) Fragment(name string, data any) string {
	html, err := h.Renderer.Render(name, data)
	if err != nil {
		slog.Error("fragment render failed", "template", name, "err", err)
		return ""
	}
	return html
}

// RenderList renders items with a named template, or an empty state if none.
func (h *Handler) RenderList(tmpl string, items []any, emptyTitle, emptyMsg string) string {
	return RenderList(h.Renderer, tmpl, items, emptyTitle, emptyMsg)
}

// RenderSelect renders select options from a placeholder and option list.
func (h *Handler) RenderSelect(placeholder string, options []SelectOptionData) string {
	return RenderSelect(h.Renderer, placeholder, options)
}

// SSE wraps a Datastar SSE generator with the patterns the editor uses.
type SSE struct {
	*datastar.ServerSentEventGenerator
}

// NewSSE creates a Datastar SSE helper from a Huma streaming context.
func NewSSE(ctx huma.Context) SSE {
	r, w := humago.Unwrap(ctx)
	return SSE{datastar.NewSSE(w, r)}
}

// Patch sends HTML to replace inner content at a CSS selector.
func (s SSE) Patch(html, selector string) {
	s.PatchElements(html,
		datastar.WithSelector(selector),
		datastar.WithModeInner(),
		datastar.WithViewTransitions(),
	)
}

// Prepend inserts HTML as the first child at a CSS selector.
func (s SSE) Prepend(html, selector string) {
	s.PatchElements(html,
		datastar.WithSelector(selector),
		datastar.WithModePrepend(),
	)
}

// Error sends an error signal to the UI.
func (s SSE) Error(msg string) {
	s.MarshalAndPatchSignals(map[string]any{"error": msg, "busy": false})
}

// Success sends a success signal to the UI and clears busy.
func (s SSE) Success(msg string) {
	s.MarshalAndPatchSignals(map[string]any{"success": msg, "error": "", "busy": false})
}

// Signals sends arbitrary signals to the UI.
func (s SSE) Signals(signals map[string]any) {
	s.MarshalAndPatchSignals(signals)
}

// Progress sends a progress percentage and status line.
func (s SSE) Progress(progress int, status string) {
	s.MarshalAndPatchSignals(map[string]any{"progress": progress, "status": status})
}

// Signals provides typed access to Datastar signal values.
// Datastar sends all signals as a flat JSON object in the request body.
type Signals map[string]any

// ParseSignals parses Datastar signals from a raw request body.
func ParseSignals(body []byte) (Signals, error) {
	var signals Signals
	if err := json.Unmarshal(body, &signals); err != nil {
		return nil, err
	}
	return signals, nil
}

// String returns a string signal value, or empty string if not found.
func (s Signals) String(key string) string {
	if v, ok := s[key]; ok {
		if str, ok := v.(string); ok {
			return str
		}
	}
	return ""
}

// EmptyInput is a shared input struct for handlers with no parameters.
type EmptyInput struct{}

// SignalsInput is an input struct for handlers that receive Datastar signals.
type SignalsInput struct {
	RawBody []byte
}

// MustParse parses signals or returns a Huma 400 error.
func (i *SignalsInput) MustParse() (Signals, error) {
	signals, err := ParseSignals(i.RawBody)
	if err != nil {
		return nil, huma.Error400BadRequest("Invalid request data: " + err.Error())
	}
	return signals, nil
}

// SelectOptionData holds data for rendering a <select> option template.
type SelectOptionData struct {
	Value    string
	Label    string
	Selected bool
}

// RenderList renders items with a named template, or an empty state if none.
func RenderList(r *templates.Renderer, tmpl string, items []any, emptyTitle, emptyMsg string) string {
	var buf bytes.Buffer
	if len(items) == 0 {
		r.RenderToBuffer(&buf, "empty-state", map[string]string{
			"Title": emptyTitle, "Message": emptyMsg,
		})
	} else {
		for _, item := range items {
			r.RenderToBuffer(&buf, tmpl, item)
		}
	}
	return buf.String()
}

// RenderSelect renders <option> elements. An empty placeholder is omitted.
func RenderSelect(r *templates.Renderer, placeholder string, options []SelectOptionData) string {
	var buf bytes.Buffer
	if placeholder != "" {
		r.RenderToBuffer(&buf, "select-option", SelectOptionData{Label: placeholder})
	}
	for _, opt := range options {
		r.RenderToBuffer(&buf, "select-option", opt)
	}
	return buf.String()
}
