package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/mtaprecip/mtaprecip/internal/api/middleware"
	"github.com/mtaprecip/mtaprecip/internal/api/models"
	"github.com/mtaprecip/mtaprecip/internal/api/response"
	"github.com/mtaprecip/mtaprecip/internal/auth"
	"github.com/mtaprecip/mtaprecip/internal/catalog"
	"github.com/mtaprecip/mtaprecip/internal/report"
	"github.com/mtaprecip/mtaprecip/internal/session"
	"github.com/mtaprecip/mtaprecip/internal/timewindow"
)

// maxBodyBytes bounds JSON request bodies.
const maxBodyBytes = 16 << 10

// ExportNoticeHeader carries the confirmation message of a successful export.
const ExportNoticeHeader = "X-Export-Notice"

// ReportLocator renders the backend URL a request would be sent to.
type ReportLocator interface {
	URL(req report.Request) string
}

// SessionConfig holds configuration for the session handler.
type SessionConfig struct {
	Sessions *session.Manager
	Tokens   *auth.TokenService
	Locator  ReportLocator
	Logger   zerolog.Logger
}

// SessionHandler handles the operator console endpoints.
type SessionHandler struct {
	sessions *session.Manager
	tokens   *auth.TokenService
	locator  ReportLocator
	logger   zerolog.Logger
}

// NewSessionHandler creates a new SessionHandler.
func NewSessionHandler(cfg SessionConfig) *SessionHandler {
	return &SessionHandler{
		sessions: cfg.Sessions,
		tokens:   cfg.Tokens,
		locator:  cfg.Locator,
		logger:   cfg.Logger.With().Str("component", "session_handler").Logger(),
	}
}

// CreateSession handles POST /v1/sessions - open a console with no date and
// an empty selection. The returned token authorizes every later call.
func (h *SessionHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	s := h.sessions.Create()

	token, expiresAt, err := h.tokens.Issue(s.ID())
	if err != nil {
		_ = h.sessions.Delete(s.ID())
		h.logger.Error().Err(err).Msg("failed to issue session token")
		response.InternalError(w, r, "failed to open session")
		return
	}

	response.Created(w, r, "/v1/sessions/"+s.ID(), models.CreateSessionResponse{
		Session:   toSession(s.View()),
		Token:     token,
		ExpiresAt: models.Timestamp(expiresAt),
	})
}

// GetSession handles GET /v1/sessions/{sessionId}.
func (h *SessionHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	response.JSON(w, r, http.StatusOK, toSession(s.View()))
}

// DeleteSession handles DELETE /v1/sessions/{sessionId}.
func (h *SessionHandler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Delete(chi.URLParam(r, middleware.SessionIDParam)); err != nil {
		response.NotFound(w, r, "session not found")
		return
	}
	response.NoContent(w, r)
}

// SetDate handles PUT /v1/sessions/{sessionId}/date. A null date clears it.
func (h *SessionHandler) SetDate(w http.ResponseWriter, r *http.Request) {
	var input models.SetDateRequest
	if !decode(w, r, &input) {
		return
	}
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	var date *timewindow.Date
	if input.Date != nil {
		d, err := timewindow.ParseDate(*input.Date)
		if err != nil {
			response.BadRequest(w, r, err.Error(), nil)
			return
		}
		date = &d
	}

	h.apply(w, r, s, s.SetDate(date))
}

// SetHour handles PUT /v1/sessions/{sessionId}/hour.
func (h *SessionHandler) SetHour(w http.ResponseWriter, r *http.Request) {
	var input models.SetHourRequest
	if !decode(w, r, &input) {
		return
	}
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	h.apply(w, r, s, s.SetHour(input.Hour))
}

// SetMinute handles PUT /v1/sessions/{sessionId}/minute.
func (h *SessionHandler) SetMinute(w http.ResponseWriter, r *http.Request) {
	var input models.SetMinuteRequest
	if !decode(w, r, &input) {
		return
	}
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	h.apply(w, r, s, s.SetMinute(input.Minute))
}

// ToggleStation handles POST /v1/sessions/{sessionId}/stations/toggle.
func (h *SessionHandler) ToggleStation(w http.ResponseWriter, r *http.Request) {
	var input models.ToggleStationRequest
	if !decode(w, r, &input) {
		return
	}
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	h.apply(w, r, s, s.ToggleStation(catalog.StationKey{Name: input.Name, Lines: input.Lines}))
}

// ToggleRegion handles POST /v1/sessions/{sessionId}/regions/{regionCode}/toggle.
func (h *SessionHandler) ToggleRegion(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	if err := s.ToggleRegion(chi.URLParam(r, "regionCode")); err != nil {
		response.NotFound(w, r, "region not found")
		return
	}
	response.JSON(w, r, http.StatusOK, toSession(s.View()))
}

// SelectAll handles POST /v1/sessions/{sessionId}/selection/all.
func (h *SessionHandler) SelectAll(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	s.SelectAll()
	response.JSON(w, r, http.StatusOK, toSession(s.View()))
}

// ClearSelection handles DELETE /v1/sessions/{sessionId}/selection.
func (h *SessionHandler) ClearSelection(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	s.ClearSelection()
	response.JSON(w, r, http.StatusOK, toSession(s.View()))
}

// PreviewRequest handles GET /v1/sessions/{sessionId}/request - the request
// an export would send right now. Nothing is sent.
func (h *SessionHandler) PreviewRequest(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	req, err := s.Plan()
	if err != nil {
		writeExportError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, toExportPlan(req, h.locator.URL(req)))
}

// Export handles POST /v1/sessions/{sessionId}/export and streams the
// workbook back as an attachment.
func (h *SessionHandler) Export(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	result, err := s.Export(r.Context())
	if err != nil {
		writeExportError(w, r, err)
		return
	}

	doc := result.Document
	w.Header().Set(ExportNoticeHeader, result.Notice)
	response.Attachment(w, r, doc.Filename, doc.ContentType, doc.Data)
}

// session resolves the path session, writing 404 when it is gone.
func (h *SessionHandler) session(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	s, err := h.sessions.Get(chi.URLParam(r, middleware.SessionIDParam))
	if err != nil {
		response.NotFound(w, r, "session not found")
		return nil, false
	}
	return s, true
}

// apply writes the session view after a successful edit, or the edit error.
func (h *SessionHandler) apply(w http.ResponseWriter, r *http.Request, s *session.Session, err error) {
	if err != nil {
		writeEditError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, toSession(s.View()))
}

// decode reads and validates a JSON body, writing 400 on failure.
func decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			response.BadRequest(w, r, "request body is required", nil)
			return false
		}
		response.BadRequest(w, r, "invalid JSON body", nil)
		return false
	}
	if errs := models.Validate(v); errs != nil {
		response.BadRequest(w, r, "request validation failed", errs)
		return false
	}
	return true
}
