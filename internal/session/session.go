// Package session keeps the per-operator state of the export console: the
// chosen date and time, the station selection and the export controller.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/mtaprecip/mtaprecip/internal/catalog"
	"github.com/mtaprecip/mtaprecip/internal/export"
	"github.com/mtaprecip/mtaprecip/internal/report"
	"github.com/mtaprecip/mtaprecip/internal/selection"
	"github.com/mtaprecip/mtaprecip/internal/timewindow"
)

// Session is one operator's console. Edits are serialized; an export
// snapshots the form and runs without holding the edit lock.
type Session struct {
	id      string
	catalog *catalog.Catalog
	clock   clockwork.Clock

	mu         sync.Mutex
	picker     *timewindow.Picker
	resolver   *timewindow.Resolver
	selection  *selection.Store
	controller *export.Controller
	createdAt  time.Time
	lastSeenAt time.Time
}

// RegionView is the derived selection state of one region.
type RegionView struct {
	Code     string           `json:"code"`
	Label    string           `json:"label"`
	Status   selection.Status `json:"status"`
	Selected int              `json:"selected"`
	Total    int              `json:"total"`
}

// View is a consistent snapshot of a session.
type View struct {
	ID               string
	Date             timewindow.Date
	Hour             string
	Minute           string
	MinDate          timewindow.Date
	MaxDate          timewindow.Date
	AvailableHours   []string
	AvailableMinutes []string
	Label            string
	Selected         []catalog.Station
	TotalStations    int
	Regions          []RegionView
	ExportState      export.State
	CreatedAt        time.Time
	LastSeenAt       time.Time
}

// ID returns the session id.
func (s *Session) ID() string {
	return s.id
}

// SetDate changes the date; nil clears it.
func (s *Session) SetDate(date *timewindow.Date) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	if date == nil {
		s.picker.ClearDate()
		return nil
	}
	return s.picker.SetDate(*date)
}

// SetHour changes the hour.
func (s *Session) SetHour(hour string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()
	return s.picker.SetHour(hour)
}

// SetMinute changes the minute.
func (s *Session) SetMinute(minute string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()
	return s.picker.SetMinute(minute)
}

// ToggleStation flips one station.
func (s *Session) ToggleStation(key catalog.StationKey) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()
	return s.selection.ToggleStation(key)
}

// ToggleRegion selects or deselects a whole region.
func (s *Session) ToggleRegion(code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()
	return s.selection.ToggleRegion(code)
}

// SelectAll selects every station.
func (s *Session) SelectAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()
	s.selection.SelectAll()
}

// ClearSelection deselects every station.
func (s *Session) ClearSelection() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()
	s.selection.Clear()
}

// Plan returns the request an export would send right now.
func (s *Session) Plan() (report.Request, error) {
	return s.controller.Plan(s.form())
}

// Export runs the export on a snapshot of the current form. Edits made while
// it runs do not affect it.
func (s *Session) Export(ctx context.Context) (*export.Result, error) {
	return s.controller.Export(ctx, s.form())
}

// Busy reports whether an export is running.
func (s *Session) Busy() bool {
	return s.controller.Busy()
}

// View returns a snapshot for rendering.
func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()

	choice := s.picker.Choice()
	v := View{
		ID:               s.id,
		Date:             choice.Date,
		Hour:             choice.Hour,
		Minute:           choice.Minute,
		MinDate:          timewindow.MinDate,
		MaxDate:          s.resolver.Today(),
		AvailableHours:   s.picker.AvailableHours(),
		AvailableMinutes: s.picker.AvailableMinutes(),
		Label:            s.selection.Label(),
		Selected:         s.selection.Stations(),
		TotalStations:    s.catalog.Len(),
		ExportState:      s.controller.State(),
		CreatedAt:        s.createdAt,
		LastSeenAt:       s.lastSeenAt,
	}

	counts := make(map[string]int)
	for _, st := range v.Selected {
		counts[st.Region]++
	}
	for _, r := range s.catalog.Regions() {
		v.Regions = append(v.Regions, RegionView{
			Code:     r.Code,
			Label:    r.Label,
			Status:   s.selection.RegionStatus(r.Code),
			Selected: counts[r.Code],
			Total:    r.Len(),
		})
	}
	return v
}

// idleSince returns when the session was last used.
func (s *Session) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeenAt
}

// Touch marks the session as used.
func (s *Session) Touch() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()
}

func (s *Session) form() export.Form {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()
	return export.Form{
		Choice: s.picker.Choice(),
		Keys:   s.selection.Keys(),
	}
}

// touch must be called with s.mu held.
func (s *Session) touch() {
	s.lastSeenAt = s.clock.Now()
}
