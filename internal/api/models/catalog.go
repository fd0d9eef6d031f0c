package models

// Station is a selectable monitoring station.
type Station struct {
	Name   string `json:"name"`
	Lines  string `json:"lines"`
	Label  string `json:"label"`
	Region string `json:"region"`
}

// Region is a borough and its stations in display order.
type Region struct {
	Code     string    `json:"code"`
	Label    string    `json:"label"`
	Borough  string    `json:"borough"`
	Stations []Station `json:"stations"`
}

// CatalogResponse lists every region.
type CatalogResponse struct {
	Regions       []Region `json:"regions"`
	TotalStations int      `json:"totalStations"`
}
