// Package catalog holds the static reference data the export console works on:
// subway stations grouped by borough.
package catalog

import (
	"errors"
	"fmt"
)

// Catalog errors.
var (
	ErrUnknownStation = errors.New("unknown station")
	ErrUnknownRegion  = errors.New("unknown region")
	ErrInvalidCatalog = errors.New("invalid catalog")
)

// StationKey identifies a station. Two stations with the same name but
// different service lines (e.g. "86 St" on the 4/5/6 and on the R) are
// different stations.
type StationKey struct {
	Name  string `json:"name" yaml:"name"`
	Lines string `json:"lines" yaml:"lines"`
}

// String renders the key for logs.
func (k StationKey) String() string {
	return fmt.Sprintf("%s [%s]", k.Name, k.Lines)
}

// Station is a monitoring location served by one or more subway lines.
type Station struct {
	// Name is the display name, also the identifier the report backend
	// matches on.
	Name string

	// Lines is the serving lines label, e.g. "4 5 6".
	Lines string

	// Region is the code of the owning region.
	Region string
}

// Key returns the composite identity of the station.
func (s Station) Key() StationKey {
	return StationKey{Name: s.Name, Lines: s.Lines}
}

// Label renders the station as shown in pickers: "Name (Lines)".
func (s Station) Label() string {
	if s.Lines == "" {
		return s.Name
	}
	return s.Name + " (" + s.Lines + ")"
}

// Region is an administrative borough and the stations inside it.
type Region struct {
	// Code is the internal identifier (M, Bk, Q, Bx, SI).
	Code string

	// Label is the display label, e.g. "The Bronx".
	Label string

	// WireName is what the report backend expects in the borough parameter.
	WireName string

	// Stations are ordered as supplied.
	Stations []Station
}

// Len returns the number of stations in the region.
func (r Region) Len() int {
	return len(r.Stations)
}
