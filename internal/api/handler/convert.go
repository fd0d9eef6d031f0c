package handler

import (
	"github.com/mtaprecip/mtaprecip/internal/api/models"
	"github.com/mtaprecip/mtaprecip/internal/catalog"
	"github.com/mtaprecip/mtaprecip/internal/export"
	"github.com/mtaprecip/mtaprecip/internal/report"
	"github.com/mtaprecip/mtaprecip/internal/session"
)

func toStation(s catalog.Station) models.Station {
	return models.Station{
		Name:   s.Name,
		Lines:  s.Lines,
		Label:  s.Label(),
		Region: s.Region,
	}
}

func toStations(stations []catalog.Station) []models.Station {
	out := make([]models.Station, 0, len(stations))
	for _, s := range stations {
		out = append(out, toStation(s))
	}
	return out
}

func toSession(v session.View) models.Session {
	out := models.Session{
		ID:               v.ID,
		Hour:             v.Hour,
		Minute:           v.Minute,
		MinDate:          v.MinDate.String(),
		MaxDate:          v.MaxDate.String(),
		AvailableHours:   v.AvailableHours,
		AvailableMinutes: v.AvailableMinutes,
		Selection: models.Selection{
			Label:    v.Label,
			Count:    len(v.Selected),
			Total:    v.TotalStations,
			Stations: toStations(v.Selected),
		},
		Regions: make([]models.RegionStatus, 0, len(v.Regions)),
		Export: models.ExportStatus{
			State: string(v.ExportState),
			Busy:  v.ExportState != export.StateIdle,
		},
		CreatedAt:  models.Timestamp(v.CreatedAt),
		LastSeenAt: models.Timestamp(v.LastSeenAt),
	}
	if !v.Date.IsZero() {
		date := v.Date.String()
		out.Date = &date
	}
	for _, r := range v.Regions {
		out.Regions = append(out.Regions, models.RegionStatus{
			Code:     r.Code,
			Label:    r.Label,
			Status:   string(r.Status),
			Selected: r.Selected,
			Total:    r.Total,
		})
	}
	return out
}

func toExportPlan(req report.Request, url string) models.ExportPlan {
	return models.ExportPlan{
		Format:       req.Format,
		Date:         req.Date.String(),
		Time:         req.Time,
		Scope:        string(req.Scope.Kind),
		Borough:      req.Scope.Borough,
		Stations:     req.Scope.Stations,
		StationCount: req.StationCount,
		Query:        req.Query().Encode(),
		URL:          url,
		Filename:     req.Filename(),
	}
}
