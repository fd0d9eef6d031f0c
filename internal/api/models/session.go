package models

// SetDateRequest changes or clears the session date.
type SetDateRequest struct {
	// Date is YYYY-MM-DD; null clears the date.
	Date *string `json:"date" validate:"omitempty,datetime=2006-01-02"`
}

// SetHourRequest changes the session hour.
type SetHourRequest struct {
	Hour string `json:"hour" validate:"required,len=2,numeric"`
}

// SetMinuteRequest changes the session minute.
type SetMinuteRequest struct {
	Minute string `json:"minute" validate:"required,oneof=00 15 30 45"`
}

// ToggleStationRequest flips one station in the selection.
type ToggleStationRequest struct {
	Name  string `json:"name" validate:"required,max=100"`
	Lines string `json:"lines" validate:"max=50"`
}

// Session is the rendered state of one operator console.
type Session struct {
	ID               string         `json:"id"`
	Date             *string        `json:"date"`
	Hour             string         `json:"hour"`
	Minute           string         `json:"minute"`
	MinDate          string         `json:"minDate"`
	MaxDate          string         `json:"maxDate"`
	AvailableHours   []string       `json:"availableHours"`
	AvailableMinutes []string       `json:"availableMinutes"`
	Selection        Selection      `json:"selection"`
	Regions          []RegionStatus `json:"regions"`
	Export           ExportStatus   `json:"export"`
	CreatedAt        Timestamp      `json:"createdAt"`
	LastSeenAt       Timestamp      `json:"lastSeenAt"`
}

// Selection summarizes the selected stations.
type Selection struct {
	Label    string    `json:"label"`
	Count    int       `json:"count"`
	Total    int       `json:"total"`
	Stations []Station `json:"stations"`
}

// RegionStatus is the derived selection state of one region.
type RegionStatus struct {
	Code     string `json:"code"`
	Label    string `json:"label"`
	Status   string `json:"status"`
	Selected int    `json:"selected"`
	Total    int    `json:"total"`
}

// ExportStatus reports the export controller state.
type ExportStatus struct {
	State string `json:"state"`
	Busy  bool   `json:"busy"`
}

// CreateSessionResponse is returned when a session is opened. The token
// must be sent as a bearer token on every session route.
type CreateSessionResponse struct {
	Session   Session   `json:"session"`
	Token     string    `json:"token"`
	ExpiresAt Timestamp `json:"expiresAt"`
}

// ExportPlan is the request an export would send, without sending it.
type ExportPlan struct {
	Format       string   `json:"format"`
	Date         string   `json:"date"`
	Time         string   `json:"time"`
	Scope        string   `json:"scope"`
	Borough      string   `json:"borough,omitempty"`
	Stations     []string `json:"stations,omitempty"`
	StationCount int      `json:"stationCount"`
	Query        string   `json:"query"`
	URL          string   `json:"url"`
	Filename     string   `json:"filename"`
}
