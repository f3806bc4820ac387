package humastar

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"

	"github.com/danielgtaylor/huma/v2"
)

// BuildSignals returns the JSON for a data-signals attribute: one signal per
// primitive field of t, initialised from its OpenAPI default, merged with the
// extra UI signals. Signal names are the lowercased JSON names, matching what
// data-bind produces for form inputs.
func BuildSignals(api huma.API, t reflect.Type, ui map[string]any) (string, error) {
	signals := map[string]any{}
	for k, v := range defaultSignals(api.OpenAPI().Components.Schemas, t) {
		signals[k] = v
	}
	for k, v := range ui {
		signals[k] = v
	}
	b, err := json.Marshal(signals)
	if err != nil {
		return "", fmt.Errorf("marshal signals: %w", err)
	}
	return string(b), nil
}

// defaultSignals registers t in the schema registry if needed and reads the
// defaults back from the generated schema.
func defaultSignals(reg huma.Registry, t reflect.Type) map[string]any {
	schema := reg.Schema(t, true, t.Name())
	if schema != nil && schema.Ref != "" {
		schema = reg.SchemaFromRef(schema.Ref)
	}
	signals := map[string]any{}
	if schema == nil {
		return signals
	}

	for i := range t.NumField() {
		sf := t.Field(i)
		jsonName := sf.Tag.Get("json")
		if idx := strings.IndexByte(jsonName, ','); idx >= 0 {
			jsonName = jsonName[:idx]
		}
		if jsonName == "" || jsonName == "-" {
			continue
		}

		prop, ok := schema.Properties[jsonName]
		if !ok || prop.Type == "array" || prop.Type == "object" {
			continue
		}

		signal := strings.ToLower(jsonName)
		if prop.Default != nil {
			signals[signal] = prop.Default
			continue
		}
		switch prop.Type {
		case "boolean":
			signals[signal] = false
		case "number", "integer":
			signals[signal] = 0
		default:
			signals[signal] = ""
		}
	}
	return signals
}

// DataInit joins SSE endpoints into a data-init attribute value, e.g.
// "@get('/api/v1/editor/countries/select')".
func DataInit(urls ...string) string {
	parts := make([]string, len(urls))
	for i, url := range urls {
		parts[i] = fmt.Sprintf("@get('%s')", url)
	}
	return strings.Join(parts, "; ")
}
