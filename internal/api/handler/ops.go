// Package handler provides HTTP handlers for the export console API.
package handler

import (
	"net/http"
	"runtime"
	"strconv"

	"github.com/jonboulle/clockwork"

	"github.com/mtaprecip/mtaprecip/internal/api/models"
	"github.com/mtaprecip/mtaprecip/internal/api/response"
	"github.com/mtaprecip/mtaprecip/internal/provider/resilience"
)

// SessionCounter reports the number of open sessions.
type SessionCounter interface {
	Count() int
}

// OpsConfig holds configuration for the ops handler.
type OpsConfig struct {
	Version   string
	BuildTime string

	// Registry tracks the report backend circuit (required).
	Registry *resilience.Registry

	// Sessions is reported as a subsystem (optional).
	Sessions SessionCounter

	// Clock stamps responses. If nil, uses the real clock.
	Clock clockwork.Clock
}

// OpsHandler handles operational endpoints.
type OpsHandler struct {
	cfg OpsConfig
}

// NewOpsHandler creates a new OpsHandler.
func NewOpsHandler(cfg OpsConfig) *OpsHandler {
	if cfg.Clock == nil {
		cfg.Clock = clockwork.NewRealClock()
	}
	return &OpsHandler{cfg: cfg}
}

// HealthCheck handles GET /v1/ops/health - liveness check.
func (h *OpsHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, r, http.StatusOK, models.Health{
		Status: models.HealthStatusOK,
		Time:   models.Timestamp(h.cfg.Clock.Now()),
		Details: map[string]interface{}{
			"version":   h.cfg.Version,
			"buildTime": h.cfg.BuildTime,
			"goVersion": runtime.Version(),
		},
	})
}

// ReadinessCheck handles GET /v1/ops/ready. The service is not ready while
// the report backend circuit is open: exports would fail immediately.
func (h *OpsHandler) ReadinessCheck(w http.ResponseWriter, r *http.Request) {
	health := models.Health{
		Status: models.HealthStatusOK,
		Time:   models.Timestamp(h.cfg.Clock.Now()),
	}
	if !h.cfg.Registry.Ready() {
		health.Status = models.HealthStatusFail
		health.Details = map[string]interface{}{"reason": "report backend circuit open"}
		response.JSON(w, r, http.StatusServiceUnavailable, health)
		return
	}
	response.JSON(w, r, http.StatusOK, health)
}

// SystemStatus handles GET /v1/ops/status - collaborator and subsystem status.
func (h *OpsHandler) SystemStatus(w http.ResponseWriter, r *http.Request) {
	status := models.SystemStatus{
		Status:     models.HealthStatusOK,
		Time:       models.Timestamp(h.cfg.Clock.Now()),
		Subsystems: []models.SubsystemStatus{},
		Providers:  []models.ProviderStatus{},
	}

	if h.cfg.Sessions != nil {
		detail := strconv.Itoa(h.cfg.Sessions.Count()) + " open"
		status.Subsystems = append(status.Subsystems, models.SubsystemStatus{
			Name:   "sessions",
			Status: models.HealthStatusOK,
			Detail: &detail,
		})
	}

	for _, p := range h.cfg.Registry.GetAllHealth() {
		ps := models.ProviderStatus{
			Provider:      p.Name,
			Status:        providerStatus(p),
			CircuitState:  p.CircuitState.String(),
			Requests:      p.Counts.Requests,
			Failures:      p.Counts.ConsecutiveFailures,
			LastSuccessAt: models.TimestampPtr(p.LastSuccessAt),
			LastFailureAt: models.TimestampPtr(p.LastFailureAt),
		}
		if p.LastError != "" {
			msg := p.LastError
			ps.Message = &msg
		}
		status.Providers = append(status.Providers, ps)
		status.Status = worst(status.Status, ps.Status)
	}

	response.JSON(w, r, http.StatusOK, status)
}

func providerStatus(p *resilience.ProviderHealth) models.HealthStatus {
	switch {
	case p.IsUnhealthy():
		return models.HealthStatusFail
	case p.IsDegraded():
		return models.HealthStatusDegraded
	default:
		return models.HealthStatusOK
	}
}

func worst(a, b models.HealthStatus) models.HealthStatus {
	rank := map[models.HealthStatus]int{
		models.HealthStatusOK:       0,
		models.HealthStatusDegraded: 1,
		models.HealthStatusFail:     2,
	}
	if rank[b] > rank[a] {
		return b
	}
	return a
}
