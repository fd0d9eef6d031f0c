// Package selection tracks which stations an operator has picked and derives
// per-region selection status from that single set.
package selection

import (
	"fmt"
	"strconv"

	"github.com/mtaprecip/mtaprecip/internal/catalog"
)

// Status is the derived selection state of a region.
type Status string

// Region statuses.
const (
	StatusNone    Status = "none"
	StatusPartial Status = "partial"
	StatusFull    Status = "full"
)

// Labels used by Label.
const (
	LabelEmpty = "Select stations..."
	LabelAll   = "All Stations"
)

// Store is the set of selected stations. Region status is always computed
// from the set, never stored. A Store is not safe for concurrent use.
type Store struct {
	catalog  *catalog.Catalog
	selected map[catalog.StationKey]struct{}
}

// NewStore creates an empty selection over cat.
func NewStore(cat *catalog.Catalog) *Store {
	return &Store{
		catalog:  cat,
		selected: make(map[catalog.StationKey]struct{}),
	}
}

// ToggleStation flips membership of a single station.
func (s *Store) ToggleStation(key catalog.StationKey) error {
	if _, ok := s.catalog.Station(key); !ok {
		return fmt.Errorf("%w: %s", catalog.ErrUnknownStation, key)
	}
	if _, ok := s.selected[key]; ok {
		delete(s.selected, key)
		return nil
	}
	s.selected[key] = struct{}{}
	return nil
}

// ToggleRegion removes every station of a fully selected region, otherwise
// adds every station of it. The new set is built aside and swapped in whole.
func (s *Store) ToggleRegion(code string) error {
	region, ok := s.catalog.Region(code)
	if !ok {
		return fmt.Errorf("%w: %q", catalog.ErrUnknownRegion, code)
	}

	full := s.isFull(region)
	next := make(map[catalog.StationKey]struct{}, len(s.selected)+region.Len())
	for k := range s.selected {
		next[k] = struct{}{}
	}
	for _, st := range region.Stations {
		if full {
			delete(next, st.Key())
		} else {
			next[st.Key()] = struct{}{}
		}
	}
	s.selected = next
	return nil
}

// SelectAll selects the whole catalog.
func (s *Store) SelectAll() {
	next := make(map[catalog.StationKey]struct{}, s.catalog.Len())
	for _, st := range s.catalog.Stations() {
		next[st.Key()] = struct{}{}
	}
	s.selected = next
}

// Clear empties the selection.
func (s *Store) Clear() {
	s.selected = make(map[catalog.StationKey]struct{})
}

// IsRegionFullySelected reports whether every station of the region is
// selected. Empty and unknown regions are never fully selected.
func (s *Store) IsRegionFullySelected(code string) bool {
	region, ok := s.catalog.Region(code)
	if !ok {
		return false
	}
	return s.isFull(region)
}

// IsRegionPartiallySelected reports whether some but not all stations of the
// region are selected.
func (s *Store) IsRegionPartiallySelected(code string) bool {
	return s.RegionStatus(code) == StatusPartial
}

// RegionStatus returns none, partial or full for the region.
func (s *Store) RegionStatus(code string) Status {
	region, ok := s.catalog.Region(code)
	if !ok {
		return StatusNone
	}
	n := s.countIn(region)
	switch {
	case n == 0:
		return StatusNone
	case n == region.Len():
		return StatusFull
	default:
		return StatusPartial
	}
}

// Contains reports whether a station is selected.
func (s *Store) Contains(key catalog.StationKey) bool {
	_, ok := s.selected[key]
	return ok
}

// Len returns the number of selected stations.
func (s *Store) Len() int {
	return len(s.selected)
}

// Keys returns the selected keys in catalog order.
func (s *Store) Keys() []catalog.StationKey {
	keys := make([]catalog.StationKey, 0, len(s.selected))
	for _, st := range s.catalog.Stations() {
		if _, ok := s.selected[st.Key()]; ok {
			keys = append(keys, st.Key())
		}
	}
	return keys
}

// Stations returns the selected stations in catalog order.
func (s *Store) Stations() []catalog.Station {
	out := make([]catalog.Station, 0, len(s.selected))
	for _, st := range s.catalog.Stations() {
		if _, ok := s.selected[st.Key()]; ok {
			out = append(out, st)
		}
	}
	return out
}

// Label summarizes the selection for the picker trigger.
func (s *Store) Label() string {
	switch n := len(s.selected); {
	case n == 0:
		return LabelEmpty
	case n == s.catalog.Len():
		return LabelAll
	case n == 1:
		for k := range s.selected {
			st, _ := s.catalog.Station(k)
			return st.Label()
		}
	}
	return strconv.Itoa(len(s.selected)) + " stations selected"
}

func (s *Store) isFull(region catalog.Region) bool {
	if region.Len() == 0 {
		return false
	}
	return s.countIn(region) == region.Len()
}

func (s *Store) countIn(region catalog.Region) int {
	n := 0
	for _, st := range region.Stations {
		if _, ok := s.selected[st.Key()]; ok {
			n++
		}
	}
	return n
}
