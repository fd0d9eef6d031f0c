// Package timewindow computes which report timestamps are legal: any quarter
// hour between 2021-01-01 and the current instant.
package timewindow

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/jonboulle/clockwork"
)

// Time window errors.
var (
	ErrInvalidDate      = errors.New("invalid date")
	ErrInvalidHour      = errors.New("invalid hour")
	ErrInvalidMinute    = errors.New("invalid minute")
	ErrDateOutOfRange   = errors.New("date outside the available range")
	ErrHourNotAllowed   = errors.New("hour not available for the selected date")
	ErrMinuteNotAllowed = errors.New("minute not available for the selected hour")
	ErrNoDate           = errors.New("no date selected")
	ErrFutureTimestamp  = errors.New("selected time is in the future")
)

// MinuteStep is the quantum of selectable minutes.
const MinuteStep = 15

// minuteSteps are the selectable minutes of any hour.
var minuteSteps = []string{"00", "15", "30", "45"}

// AvailableHours returns the two-digit hours selectable on date. On the
// current day that is "00" up to the current hour, otherwise all 24 hours.
// now must already be in the operator's location.
func AvailableHours(date Date, now time.Time) []string {
	last := 23
	if date == DateOf(now) {
		last = now.Hour()
	}
	hours := make([]string, 0, last+1)
	for h := 0; h <= last; h++ {
		hours = append(hours, formatTwoDigits(h))
	}
	return hours
}

// AvailableMinutes returns the quarter-hour steps selectable at hour on date.
// Only the current hour of the current day is restricted, to the steps not
// after the current minute. The result is never empty.
func AvailableMinutes(date Date, hour string, now time.Time) []string {
	h, err := parseHour(hour)
	if err != nil || date != DateOf(now) || h != now.Hour() {
		return append([]string(nil), minuteSteps...)
	}

	minutes := make([]string, 0, len(minuteSteps))
	for _, m := range minuteSteps {
		v, _ := strconv.Atoi(m)
		if v <= now.Minute() {
			minutes = append(minutes, m)
		}
	}
	if len(minutes) == 0 {
		return []string{"00"}
	}
	return minutes
}

// FloorMinute returns the greatest selectable step not after minute, or "00".
func FloorMinute(minute int) string {
	if minute < 0 {
		return "00"
	}
	if minute > 59 {
		minute = 59
	}
	return formatTwoDigits(minute / MinuteStep * MinuteStep)
}

// Config holds configuration for the resolver.
type Config struct {
	// Clock supplies "now". If nil, uses the real clock.
	Clock clockwork.Clock

	// Location is the operator time zone that defines "today".
	// If nil, uses UTC.
	Location *time.Location
}

// Resolver evaluates the window against a fresh reading of the clock on
// every call; nothing is cached between calls.
type Resolver struct {
	clock clockwork.Clock
	loc   *time.Location
}

// NewResolver creates a new resolver.
func NewResolver(cfg Config) *Resolver {
	clock := cfg.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	loc := cfg.Location
	if loc == nil {
		loc = time.UTC
	}
	return &Resolver{clock: clock, loc: loc}
}

// Now returns the current instant in the operator's location.
func (r *Resolver) Now() time.Time {
	return r.clock.Now().In(r.loc)
}

// Location returns the operator time zone.
func (r *Resolver) Location() *time.Location {
	return r.loc
}

// Today returns the current calendar day, which is also the latest legal date.
func (r *Resolver) Today() Date {
	return DateOf(r.Now())
}

// AvailableHours returns the hours selectable on date right now.
func (r *Resolver) AvailableHours(date Date) []string {
	return AvailableHours(date, r.Now())
}

// AvailableMinutes returns the minutes selectable at hour on date right now.
func (r *Resolver) AvailableMinutes(date Date, hour string) []string {
	return AvailableMinutes(date, hour, r.Now())
}

// CheckDate rejects days outside [MinDate, today].
func (r *Resolver) CheckDate(date Date) error {
	today := r.Today()
	if date.Before(MinDate) || date.After(today) {
		return fmt.Errorf("%w: %s not within %s..%s", ErrDateOutOfRange, date, MinDate, today)
	}
	return nil
}

// Validate checks a complete choice against the window as of now.
func (r *Resolver) Validate(c Choice) error {
	if c.Date.IsZero() {
		return ErrNoDate
	}
	if err := r.CheckDate(c.Date); err != nil {
		return err
	}
	h, err := parseHour(c.Hour)
	if err != nil {
		return err
	}
	m, err := parseMinute(c.Minute)
	if err != nil {
		return err
	}
	if c.Date.At(h, m, r.loc).After(r.Now()) {
		return fmt.Errorf("%w: %s %s", ErrFutureTimestamp, c.Date, c.Time())
	}
	return nil
}

// Timestamp returns the instant a valid choice denotes.
func (r *Resolver) Timestamp(c Choice) (time.Time, error) {
	h, err := parseHour(c.Hour)
	if err != nil {
		return time.Time{}, err
	}
	m, err := parseMinute(c.Minute)
	if err != nil {
		return time.Time{}, err
	}
	return c.Date.At(h, m, r.loc), nil
}

func parseHour(s string) (int, error) {
	if len(s) != 2 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidHour, s)
	}
	h, err := strconv.Atoi(s)
	if err != nil || h < 0 || h > 23 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidHour, s)
	}
	return h, nil
}

func parseMinute(s string) (int, error) {
	for _, step := range minuteSteps {
		if s == step {
			m, _ := strconv.Atoi(s)
			return m, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidMinute, s)
}

func formatTwoDigits(v int) string {
	if v < 10 {
		return "0" + strconv.Itoa(v)
	}
	return strconv.Itoa(v)
}

func contains(values []string, v string) bool {
	for _, s := range values {
		if s == v {
			return true
		}
	}
	return false
}
