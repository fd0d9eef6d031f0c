// Package report turns an operator's date, time and station selection into
// the query understood by the report backend.
package report

import (
	"net/url"
	"sort"
	"strings"

	"github.com/mtaprecip/mtaprecip/internal/catalog"
	"github.com/mtaprecip/mtaprecip/internal/timewindow"
)

// FormatXLSX is the only output format requested.
const FormatXLSX = "xlsx"

// Query parameter names.
const (
	ParamFormat   = "format"
	ParamDate     = "date"
	ParamTime     = "time"
	ParamBorough  = "borough"
	ParamStations = "stations"
)

// ScopeKind says how the station selection is encoded.
type ScopeKind string

// Scope kinds.
const (
	ScopeAll      ScopeKind = "all"
	ScopeRegion   ScopeKind = "region"
	ScopeStations ScopeKind = "stations"
)

// Scope is the selection as sent to the backend.
type Scope struct {
	Kind ScopeKind

	// Region is the region code for ScopeRegion.
	Region string

	// Borough is the backend name of Region.
	Borough string

	// Stations are sorted, de-duplicated display names for ScopeStations.
	Stations []string
}

// Request is the read-only projection of one export attempt.
type Request struct {
	Format string
	Date   timewindow.Date
	Time   string
	Scope  Scope

	// StationCount is the number of selected stations, used in notices.
	StationCount int
}

// Build derives the smallest request covering keys. It is pure and expects
// a validated, non-empty selection of catalog stations.
//
// The scope is chosen in order: the whole catalog becomes ScopeAll; exactly
// the stations of one non-empty region becomes ScopeRegion; anything else is
// sent as an explicit list of station names.
func Build(date timewindow.Date, hour, minute string, keys []catalog.StationKey, cat *catalog.Catalog) Request {
	set := make(map[catalog.StationKey]struct{}, len(keys))
	for _, k := range keys {
		set[k] = struct{}{}
	}

	req := Request{
		Format:       FormatXLSX,
		Date:         date,
		Time:         hour + ":" + minute,
		StationCount: len(set),
	}

	switch {
	case len(set) == cat.Len():
		req.Scope = Scope{Kind: ScopeAll}
	default:
		if region, ok := soleRegion(set, cat); ok {
			req.Scope = Scope{Kind: ScopeRegion, Region: region.Code, Borough: region.WireName}
		} else {
			req.Scope = Scope{Kind: ScopeStations, Stations: stationNames(set)}
		}
	}

	return req
}

// soleRegion returns the region whose station set equals set exactly.
func soleRegion(set map[catalog.StationKey]struct{}, cat *catalog.Catalog) (catalog.Region, bool) {
	var code string
	for k := range set {
		st, ok := cat.Station(k)
		if !ok {
			return catalog.Region{}, false
		}
		if code == "" {
			code = st.Region
		} else if st.Region != code {
			return catalog.Region{}, false
		}
	}
	if code == "" || cat.RegionSize(code) != len(set) {
		return catalog.Region{}, false
	}
	return cat.Region(code)
}

// stationNames returns the sorted display names. The backend matches on name
// alone, so identical names are sent once.
func stationNames(set map[catalog.StationKey]struct{}) []string {
	seen := make(map[string]struct{}, len(set))
	names := make([]string, 0, len(set))
	for k := range set {
		if _, dup := seen[k.Name]; dup {
			continue
		}
		seen[k.Name] = struct{}{}
		names = append(names, k.Name)
	}
	sort.Strings(names)
	return names
}

// Query renders the request parameters. Exactly one of borough and stations
// is present, or neither for the whole catalog.
func (r Request) Query() url.Values {
	q := url.Values{}
	q.Set(ParamFormat, r.Format)
	q.Set(ParamDate, r.Date.String())
	q.Set(ParamTime, r.Time)

	switch r.Scope.Kind {
	case ScopeRegion:
		q.Set(ParamBorough, r.Scope.Borough)
	case ScopeStations:
		q.Set(ParamStations, strings.Join(r.Scope.Stations, ","))
	}
	return q
}

// Filename is the download name of the generated workbook.
func (r Request) Filename() string {
	return Filename(r.Date)
}

// Filename names the workbook for date.
func Filename(date timewindow.Date) string {
	return "mta_precp_" + date.String() + "." + FormatXLSX
}

// CoversAll reports whether the request is for every station.
func (r Request) CoversAll() bool {
	return r.Scope.Kind == ScopeAll
}
