package api

import (
	"context"
	"errors"
	"log/slog"

	"github.com/danielgtaylor/huma/v2"

	"github.com/joeblew999/plat-inset/internal/basemap"
	"github.com/joeblew999/plat-inset/internal/geo"
	"github.com/joeblew999/plat-inset/internal/ingest"
	"github.com/joeblew999/plat-inset/internal/service"
)

// unprocessable are user input problems: the request parsed but cannot be mapped.
var unprocessable = []error{
	geo.ErrInvalidCoordinates,
	ingest.ErrNoShapefiles,
	ingest.ErrInvalidArchive,
	ingest.ErrUnsupportedProjection,
	service.ErrUnknownCountry,
	service.ErrNoStudyArea,
	basemap.ErrUnknownProvider,
}

// toHumaError maps service errors onto HTTP status codes.
func toHumaError(err error) error {
	for _, target := range unprocessable {
		if errors.Is(err, target) {
			return huma.Error422UnprocessableEntity(err.Error())
		}
	}
	switch {
	case errors.Is(err, errBadForm):
		return huma.Error400BadRequest(err.Error())
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return huma.Error503ServiceUnavailable("request cancelled", err)
	}
	slog.Error("request failed", "err", err)
	return huma.Error500InternalServerError("internal error", err)
}

// UserMessage is the text shown to editor users for err.
func UserMessage(err error) string {
	var se huma.StatusError
	if errors.As(err, &se) {
		return se.Error()
	}
	for _, target := range unprocessable {
		if errors.Is(err, target) {
			return err.Error()
		}
	}
	if errors.Is(err, errBadForm) {
		return err.Error()
	}
	return "Something went wrong while generating the map"
}
