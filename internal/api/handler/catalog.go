package handler

import (
	"net/http"

	"github.com/mtaprecip/mtaprecip/internal/api/models"
	"github.com/mtaprecip/mtaprecip/internal/api/response"
	"github.com/mtaprecip/mtaprecip/internal/catalog"
)

// CatalogHandler serves the station reference data.
type CatalogHandler struct {
	body models.CatalogResponse
}

// NewCatalogHandler creates a new CatalogHandler. The catalog is static, so
// the response is built once.
func NewCatalogHandler(cat *catalog.Catalog) *CatalogHandler {
	body := models.CatalogResponse{TotalStations: cat.Len()}
	for _, r := range cat.Regions() {
		body.Regions = append(body.Regions, models.Region{
			Code:     r.Code,
			Label:    r.Label,
			Borough:  r.WireName,
			Stations: toStations(r.Stations),
		})
	}
	return &CatalogHandler{body: body}
}

// ListRegions handles GET /v1/catalog/regions - regions with their stations
// in display order.
func (h *CatalogHandler) ListRegions(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Cache-Control", "public, max-age=3600")
	response.JSON(w, r, http.StatusOK, h.body)
}
