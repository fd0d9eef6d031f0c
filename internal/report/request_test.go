package report_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mtaprecip/mtaprecip/internal/catalog"
	"github.com/mtaprecip/mtaprecip/internal/report"
	"github.com/mtaprecip/mtaprecip/internal/timewindow"
)

func defaultCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	cat, err := catalog.Default()
	require.NoError(t, err)
	return cat
}

func regionKeys(t *testing.T, cat *catalog.Catalog, code string) []catalog.StationKey {
	t.Helper()
	r, ok := cat.Region(code)
	require.True(t, ok)
	keys := make([]catalog.StationKey, 0, r.Len())
	for _, s := range r.Stations {
		keys = append(keys, s.Key())
	}
	return keys
}

func allKeys(cat *catalog.Catalog) []catalog.StationKey {
	keys := make([]catalog.StationKey, 0, cat.Len())
	for _, s := range cat.Stations() {
		keys = append(keys, s.Key())
	}
	return keys
}

func TestBuild_BronxRegion(t *testing.T) {
	cat := defaultCatalog(t)
	date := timewindow.Date{Year: 2021, Month: time.August, Day: 31}

	req := report.Build(date, "22", "00", regionKeys(t, cat, "Bx"), cat)

	assert.Equal(t, report.ScopeRegion, req.Scope.Kind)
	assert.Equal(t, "Bx", req.Scope.Region)

	q := req.Query()
	assert.Equal(t, "xlsx", q.Get("format"))
	assert.Equal(t, "2021-08-31", q.Get("date"))
	assert.Equal(t, "22:00", q.Get("time"))
	assert.Equal(t, "Bronx", q.Get("borough"))
	assert.False(t, q.Has("stations"))
	assert.Equal(t, "mta_precp_2021-08-31.xlsx", req.Filename())
}

func TestBuild_EveryRegionUsesWireName(t *testing.T) {
	cat := defaultCatalog(t)
	date := timewindow.Date{Year: 2023, Month: time.July, Day: 4}

	for _, r := range cat.Regions() {
		req := report.Build(date, "10", "15", regionKeys(t, cat, r.Code), cat)
		require.Equal(t, report.ScopeRegion, req.Scope.Kind, r.Code)
		assert.Contains(t, catalog.WireNames(), req.Query().Get("borough"), r.Code)
	}
}

func TestBuild_AllStations(t *testing.T) {
	cat := defaultCatalog(t)
	date := timewindow.Date{Year: 2024, Month: time.September, Day: 29}

	req := report.Build(date, "14", "30", allKeys(cat), cat)

	assert.True(t, req.CoversAll())
	assert.Equal(t, cat.Len(), req.StationCount)
	q := req.Query()
	assert.False(t, q.Has("borough"))
	assert.False(t, q.Has("stations"))
	assert.Len(t, q, 3)
}

func TestBuild_TwoRegionsSortedList(t *testing.T) {
	cat := defaultCatalog(t)
	date := timewindow.Date{Year: 2024, Month: time.September, Day: 29}
	keys := []catalog.StationKey{
		{Name: "Tottenville", Lines: "SIR"},
		{Name: "Bedford Av", Lines: "L"},
	}

	req := report.Build(date, "14", "30", keys, cat)

	assert.Equal(t, report.ScopeStations, req.Scope.Kind)
	q := req.Query()
	assert.Equal(t, "Bedford Av,Tottenville", q.Get("stations"))
	assert.False(t, q.Has("borough"))
}

func TestBuild_AllButOne(t *testing.T) {
	cat := defaultCatalog(t)
	date := timewindow.Date{Year: 2024, Month: time.September, Day: 29}

	keys := allKeys(cat)
	req := report.Build(date, "14", "30", keys[1:], cat)

	assert.Equal(t, report.ScopeStations, req.Scope.Kind)
	assert.Equal(t, cat.Len()-1, req.StationCount)
}

func TestBuild_PartialRegionIsList(t *testing.T) {
	cat := defaultCatalog(t)
	date := timewindow.Date{Year: 2024, Month: time.September, Day: 29}

	keys := regionKeys(t, cat, "SI")
	req := report.Build(date, "14", "30", keys[:3], cat)

	assert.Equal(t, report.ScopeStations, req.Scope.Kind)
	assert.Equal(t, []string{"Great Kills", "St George", "Tompkinsville"}, req.Scope.Stations)
}

func TestBuild_RegionPlusOneIsList(t *testing.T) {
	cat := defaultCatalog(t)
	date := timewindow.Date{Year: 2024, Month: time.September, Day: 29}

	keys := append(regionKeys(t, cat, "SI"), catalog.StationKey{Name: "Fordham Rd", Lines: "B D"})
	req := report.Build(date, "14", "30", keys, cat)

	assert.Equal(t, report.ScopeStations, req.Scope.Kind)
	assert.Len(t, req.Scope.Stations, 5)
}

func TestBuild_SameNameSentOnce(t *testing.T) {
	cat := defaultCatalog(t)
	date := timewindow.Date{Year: 2024, Month: time.September, Day: 29}
	keys := []catalog.StationKey{
		{Name: "86 St", Lines: "4 5 6"},
		{Name: "86 St", Lines: "R"},
		{Name: "125 St", Lines: "A B C D"},
	}

	req := report.Build(date, "09", "45", keys, cat)

	assert.Equal(t, 3, req.StationCount)
	assert.Equal(t, []string{"125 St", "86 St"}, req.Scope.Stations)
	assert.Equal(t, "125 St,86 St", req.Query().Get("stations"))
}

func TestBuild_IgnoresDuplicateKeys(t *testing.T) {
	cat := defaultCatalog(t)
	date := timewindow.Date{Year: 2024, Month: time.September, Day: 29}

	keys := append(regionKeys(t, cat, "Q"), regionKeys(t, cat, "Q")[0])
	req := report.Build(date, "09", "45", keys, cat)

	assert.Equal(t, report.ScopeRegion, req.Scope.Kind)
	assert.Equal(t, "Queens", req.Scope.Borough)
}

func TestError(t *testing.T) {
	err := error(&report.Error{StatusCode: 500, Message: "archive unavailable", Err: report.ErrRejected})

	assert.True(t, errors.Is(err, report.ErrRejected))
	assert.Equal(t, "archive unavailable", report.ServerMessage(err))
	assert.Equal(t, "", report.ServerMessage(report.ErrUnavailable))
	assert.Equal(t, report.ErrMalformedPayload.Error(), (&report.Error{Err: report.ErrMalformedPayload}).Error())
}
