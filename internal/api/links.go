package api

import (
	"github.com/danielgtaylor/huma/v2"
)

// links maps operation paths to their RFC 8288 Link header values.
// Enables restish hypermedia navigation via `restish links <url>`.
var links = map[string][]string{
	"/health": {
		`</api/v1/info>; rel="info"`,
		`</api/v1/countries>; rel="countries"`,
		`</api/v1/maps>; rel="maps"`,
	},
	"/api/v1/info": {
		`</health>; rel="health"`,
		`</api/v1/countries>; rel="countries"`,
	},
	"/api/v1/countries": {
		`</api/v1/maps>; rel="maps"`,
		`</api/v1/basemaps>; rel="basemaps"`,
	},
	"/api/v1/basemaps": {
		`</api/v1/maps>; rel="maps"`,
	},
	"/api/v1/coordinates": {
		`</api/v1/maps>; rel="next"`,
	},
	"/api/v1/archives": {
		`</api/v1/maps>; rel="next"`,
	},
	"/api/v1/maps": {
		`</api/v1/countries>; rel="countries"`,
		`</api/v1/coordinates>; rel="coordinates"`,
		`</api/v1/archives>; rel="archives"`,
	},
}

// LinkTransformer returns a Huma Transformer that injects RFC 8288 Link headers.
func LinkTransformer() huma.Transformer {
	return func(ctx huma.Context, status string, v any) (any, error) {
		op := ctx.Operation()
		if op == nil {
			return v, nil
		}
		for _, link := range links[op.Path] {
			ctx.AppendHeader("Link", link)
		}
		return v, nil
	}
}
