// Package fakebackend is a local stand-in for the precipitation report
// backend. It validates /api/report parameters the same way the real service
// does and answers with a synthetic workbook.
package fakebackend

import (
	"encoding/json"
	"hash/fnv"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"github.com/mtaprecip/mtaprecip/internal/catalog"
	"github.com/mtaprecip/mtaprecip/internal/report"
	"github.com/mtaprecip/mtaprecip/internal/timewindow"
)

// Risk levels written to the workbook.
const (
	RiskLow    = "LOW"
	RiskAtRisk = "AT RISK"
	RiskHigh   = "HIGH"
)

// Config holds configuration for the stand-in backend.
type Config struct {
	// Catalog supplies the stations reported on (required).
	Catalog *catalog.Catalog

	// Location defines the default report date and time. If nil, uses UTC.
	Location *time.Location

	// Clock supplies "now" for defaults. If nil, uses the real clock.
	Clock clockwork.Clock

	// FailWith makes every report request fail with 500 and this detail.
	FailWith string

	Logger zerolog.Logger
}

// Handler serves the stand-in report endpoint.
type Handler struct {
	cfg    Config
	clock  clockwork.Clock
	loc    *time.Location
	logger zerolog.Logger
}

// NewHandler creates a new stand-in backend handler.
func NewHandler(cfg Config) *Handler {
	clock := cfg.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	loc := cfg.Location
	if loc == nil {
		loc = time.UTC
	}
	return &Handler{
		cfg:    cfg,
		clock:  clock,
		loc:    loc,
		logger: cfg.Logger.With().Str("component", "fakereport").Logger(),
	}
}

// Routes mounts the backend endpoints.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.Root)
	r.Get("/api/report", h.Report)
	return r
}

// Root answers the backend's health probe.
func (h *Handler) Root(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"name":   "MTA precipitation report (stand-in)",
		"status": "operational",
	})
}

// Report handles GET /api/report.
func (h *Handler) Report(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	borough := catalog.NormalizeWireName(q.Get(report.ParamBorough))
	if borough != "" && !validBorough(borough) {
		writeDetail(w, http.StatusBadRequest,
			"Invalid borough. Must be one of: "+strings.Join(catalog.WireNames(), ", "))
		return
	}

	if format := q.Get(report.ParamFormat); format != "" && format != report.FormatXLSX {
		writeDetail(w, http.StatusBadRequest, "Invalid format. This stand-in only produces xlsx.")
		return
	}

	now := h.clock.Now().In(h.loc)
	dateText := q.Get(report.ParamDate)
	if dateText == "" {
		dateText = now.Format(timewindow.DateLayout)
	}
	date, err := timewindow.ParseDate(dateText)
	if err != nil {
		writeDetail(w, http.StatusBadRequest, "Invalid date format. Use YYYY-MM-DD.")
		return
	}
	if date.Before(timewindow.MinDate) {
		writeDetail(w, http.StatusBadRequest, "Date must be on or after 2021-01-01.")
		return
	}

	clock := q.Get(report.ParamTime)
	if clock == "" {
		clock = now.Format("15:04")
	} else if _, err := time.Parse("15:04", clock); err != nil {
		writeDetail(w, http.StatusBadRequest, "Invalid time format. Use HH:MM (24-hour).")
		return
	}

	if h.cfg.FailWith != "" {
		h.logger.Warn().Str("detail", h.cfg.FailWith).Msg("failing report request on purpose")
		writeDetail(w, http.StatusInternalServerError, h.cfg.FailWith)
		return
	}

	stations := h.stations(borough, q.Get(report.ParamStations))
	rows := make([]report.Row, 0, len(stations))
	for _, st := range stations {
		rows = append(rows, synthesize(st, dateText, clock))
	}

	data, err := report.WriteWorkbook(dateText, clock, rows)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to build workbook")
		writeDetail(w, http.StatusInternalServerError, "Failed to build report workbook.")
		return
	}

	filename := "mta_precp_" + dateText + "." + report.FormatXLSX
	w.Header().Set("Content-Type", report.ContentTypeXLSX)
	w.Header().Set("Content-Disposition", "attachment; filename="+filename)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)

	h.logger.Info().
		Str("date", dateText).
		Str("time", clock).
		Str("borough", borough).
		Int("stations", len(rows)).
		Msg("report generated")
}

// stations applies the borough filter and then the comma-separated name
// filter, which matches names case-insensitively.
func (h *Handler) stations(borough, names string) []catalog.Station {
	wanted := make(map[string]struct{})
	for _, n := range strings.Split(names, ",") {
		if n = strings.ToLower(strings.TrimSpace(n)); n != "" {
			wanted[n] = struct{}{}
		}
	}

	var out []catalog.Station
	for _, region := range h.cfg.Catalog.Regions() {
		if borough != "" && region.WireName != borough {
			continue
		}
		for _, st := range region.Stations {
			if len(wanted) > 0 {
				if _, ok := wanted[strings.ToLower(st.Name)]; !ok {
					continue
				}
			}
			out = append(out, st)
		}
	}
	return out
}

func validBorough(name string) bool {
	for _, b := range catalog.WireNames() {
		if b == name {
			return true
		}
	}
	return false
}

// synthesize derives stable readings from the station and report time so the
// same request always yields the same workbook.
func synthesize(st catalog.Station, date, clock string) report.Row {
	h := fnv.New64a()
	_, _ = h.Write([]byte(st.Name + "|" + st.Lines + "|" + date + "|" + clock))
	sum := h.Sum64()

	rate := round4(float64(sum%1500) / 1000)
	accum1 := round4(rate * (0.5 + float64((sum>>16)%50)/100))
	accum6 := round4(accum1 * (1 + float64((sum>>32)%400)/100))

	borough, _ := catalog.WireName(st.Region)
	return report.Row{
		Station:     st.Name,
		Lines:       st.Lines,
		Borough:     borough,
		PrecipRate:  rate,
		Accum1Hour:  accum1,
		Accum6Hours: accum6,
		RiskLevel:   riskLevel(rate, accum6),
	}
}

func riskLevel(rate, accum6 float64) string {
	switch {
	case rate >= 1.0 || accum6 >= 3.0:
		return RiskHigh
	case rate >= 0.5 || accum6 >= 1.5:
		return RiskAtRisk
	default:
		return RiskLow
	}
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
