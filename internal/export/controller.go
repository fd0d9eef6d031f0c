// Package export runs the single-flight export of a report for one operator
// session.
package export

import (
	"context"
	"errors"
	"strconv"
	"sync"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"github.com/mtaprecip/mtaprecip/internal/catalog"
	"github.com/mtaprecip/mtaprecip/internal/observability"
	"github.com/mtaprecip/mtaprecip/internal/report"
	"github.com/mtaprecip/mtaprecip/internal/timewindow"
)

// State is a step of the export state machine.
type State string

// Export states.
const (
	StateIdle       State = "idle"
	StateValidating State = "validating"
	StateInFlight   State = "in_flight"
	StateSucceeded  State = "succeeded"
	StateFailed     State = "failed"
)

// Operator-facing messages.
const (
	MessageNoDate         = "Please select a date"
	MessageNoStations     = "Please select at least one station"
	MessageUnknownStation = "Selection contains an unknown station"
	MessageOutOfWindow    = "Selected time is outside the available range"
	MessageInProgress     = "An export is already in progress"
	MessageExportFailed   = "Failed to export report"
	MessageExportedAll    = "Report exported for all stations"
)

// Form is the snapshot of operator input an export works from.
type Form struct {
	Choice timewindow.Choice
	Keys   []catalog.StationKey
}

// Result is a successful export.
type Result struct {
	Request  report.Request
	Document *report.Document
	Notice   string
}

// Config holds configuration for the controller.
type Config struct {
	// Resolver checks the time window at export time (required).
	Resolver *timewindow.Resolver

	// Catalog is the station reference data (required).
	Catalog *catalog.Catalog

	// Generator produces the workbook (required).
	Generator report.Generator

	// Metrics records outcomes (optional).
	Metrics *observability.Metrics

	// Clock measures export duration. If nil, uses the real clock.
	Clock clockwork.Clock

	// OnTransition observes every state change. It runs while the
	// controller holds its lock and must not call back into it.
	OnTransition func(from, to State)

	// Logger for controller operations.
	Logger zerolog.Logger
}

// Controller is the export state machine of one session. The state, not a
// timer, decides whether an export may start.
type Controller struct {
	mu    sync.Mutex
	state State

	resolver     *timewindow.Resolver
	catalog      *catalog.Catalog
	generator    report.Generator
	metrics      *observability.Metrics
	clock        clockwork.Clock
	onTransition func(from, to State)
	logger       zerolog.Logger
}

// NewController creates an idle controller.
func NewController(cfg Config) *Controller {
	clock := cfg.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Controller{
		state:        StateIdle,
		resolver:     cfg.Resolver,
		catalog:      cfg.Catalog,
		generator:    cfg.Generator,
		metrics:      cfg.Metrics,
		clock:        clock,
		onTransition: cfg.OnTransition,
		logger:       cfg.Logger,
	}
}

// State returns the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Busy reports whether an export is running.
func (c *Controller) Busy() bool {
	return c.State() != StateIdle
}

// Plan validates form and returns the request an export would send. It
// makes no network call and does not change state.
func (c *Controller) Plan(form Form) (report.Request, error) {
	if form.Choice.Date.IsZero() {
		return report.Request{}, &Error{Kind: KindValidation, Message: MessageNoDate, Err: timewindow.ErrNoDate}
	}
	if len(form.Keys) == 0 {
		return report.Request{}, &Error{Kind: KindValidation, Message: MessageNoStations, Err: ErrEmptySelection}
	}
	if err := c.resolver.Validate(form.Choice); err != nil {
		return report.Request{}, &Error{Kind: KindValidation, Message: MessageOutOfWindow, Err: err}
	}
	for _, k := range form.Keys {
		if _, ok := c.catalog.Station(k); !ok {
			return report.Request{}, &Error{Kind: KindValidation, Message: MessageUnknownStation, Err: catalog.ErrUnknownStation}
		}
	}
	return report.Build(form.Choice.Date, form.Choice.Hour, form.Choice.Minute, form.Keys, c.catalog), nil
}

// Export validates form, requests the workbook and returns it. A second call
// while one is running fails at once with ErrExportInProgress. The backend
// call ignores cancellation of ctx; it is bounded by the transport timeout.
// Every return leaves the controller idle.
func (c *Controller) Export(ctx context.Context, form Form) (*Result, error) {
	c.mu.Lock()
	if c.state != StateIdle {
		c.mu.Unlock()
		c.observe(observability.OutcomeBusy, "none")
		return nil, &Error{Kind: KindBusy, Message: MessageInProgress, Err: ErrExportInProgress}
	}
	c.transition(StateValidating)

	req, err := c.Plan(form)
	if err != nil {
		c.transition(StateIdle)
		c.mu.Unlock()
		c.observe(observability.OutcomeInvalid, "none")
		c.logger.Debug().Err(err).Msg("export rejected by validation")
		return nil, err
	}

	c.transition(StateInFlight)
	c.mu.Unlock()

	scope := string(req.Scope.Kind)
	if c.metrics != nil {
		c.metrics.ExportsInFlight.Inc()
	}
	start := c.clock.Now()
	doc, genErr := c.generator.Generate(context.WithoutCancel(ctx), req)
	elapsed := c.clock.Since(start)
	if c.metrics != nil {
		c.metrics.ExportsInFlight.Dec()
		c.metrics.ExportDuration.WithLabelValues(scope).Observe(elapsed.Seconds())
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if genErr != nil {
		c.transition(StateFailed)
		c.transition(StateIdle)
		c.observe(observability.OutcomeFailed, scope)

		msg := report.ServerMessage(genErr)
		if msg == "" {
			msg = MessageExportFailed
		}
		c.logger.Warn().Err(genErr).
			Str("date", req.Date.String()).
			Str("time", req.Time).
			Str("scope", scope).
			Dur("duration", elapsed).
			Msg("export failed")
		return nil, &Error{Kind: KindUpstream, Message: msg, Err: genErr}
	}

	c.transition(StateSucceeded)
	c.transition(StateIdle)
	c.observe(observability.OutcomeSucceeded, scope)
	if c.metrics != nil {
		c.metrics.ReportBytes.Observe(float64(doc.Size()))
	}

	c.logger.Info().
		Str("filename", doc.Filename).
		Str("scope", scope).
		Int("station_count", req.StationCount).
		Dur("duration", elapsed).
		Msg("export succeeded")

	return &Result{Request: req, Document: doc, Notice: SuccessNotice(req)}, nil
}

// SuccessNotice is the confirmation shown after a successful export.
func SuccessNotice(req report.Request) string {
	if req.CoversAll() {
		return MessageExportedAll
	}
	return "Report exported for " + strconv.Itoa(req.StationCount) + " station(s)"
}

// transition must be called with c.mu held.
func (c *Controller) transition(to State) {
	from := c.state
	c.state = to
	if c.onTransition != nil {
		c.onTransition(from, to)
	}
}

func (c *Controller) observe(outcome, scope string) {
	if c.metrics != nil {
		c.metrics.Exports.WithLabelValues(outcome, scope).Inc()
	}
}

// IsBusy reports whether err is ErrExportInProgress.
func IsBusy(err error) bool {
	return errors.Is(err, ErrExportInProgress)
}
