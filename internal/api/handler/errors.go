package handler

import (
	"errors"
	"net/http"

	"github.com/mtaprecip/mtaprecip/internal/api/models"
	"github.com/mtaprecip/mtaprecip/internal/api/response"
	"github.com/mtaprecip/mtaprecip/internal/catalog"
	"github.com/mtaprecip/mtaprecip/internal/export"
	"github.com/mtaprecip/mtaprecip/internal/timewindow"
)

// writeEditError maps a rejected session edit to a problem response.
func writeEditError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, timewindow.ErrInvalidDate),
		errors.Is(err, timewindow.ErrDateOutOfRange):
		response.BadRequest(w, r, err.Error(), []models.FieldError{{Field: "date", Message: err.Error(), Code: "range"}})
	case errors.Is(err, timewindow.ErrInvalidHour),
		errors.Is(err, timewindow.ErrHourNotAllowed):
		response.BadRequest(w, r, err.Error(), []models.FieldError{{Field: "hour", Message: err.Error(), Code: "range"}})
	case errors.Is(err, timewindow.ErrInvalidMinute),
		errors.Is(err, timewindow.ErrMinuteNotAllowed):
		response.BadRequest(w, r, err.Error(), []models.FieldError{{Field: "minute", Message: err.Error(), Code: "range"}})
	case errors.Is(err, catalog.ErrUnknownStation):
		response.BadRequest(w, r, err.Error(), []models.FieldError{{Field: "name", Message: err.Error(), Code: "unknown"}})
	case errors.Is(err, catalog.ErrUnknownRegion):
		response.NotFound(w, r, "region not found")
	default:
		response.InternalError(w, r, "failed to update session")
	}
}

// writeExportError maps an export failure to a problem response whose
// detail is the operator-facing message.
func writeExportError(w http.ResponseWriter, r *http.Request, err error) {
	e, ok := export.AsError(err)
	if !ok {
		response.InternalError(w, r, export.MessageExportFailed)
		return
	}
	switch e.Kind {
	case export.KindValidation:
		response.BadRequest(w, r, e.Message, nil)
	case export.KindBusy:
		response.Conflict(w, r, e.Message)
	default:
		response.BadGateway(w, r, e.Message)
	}
}
