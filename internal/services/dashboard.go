// Package services holds the dashboard interaction layer: the event dispatch
// table that turns control changes into a new selection and a fresh pair of
// figures.
package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"burnscope/internal/amqp"
	"burnscope/internal/chart"
	"burnscope/internal/core"
	"burnscope/internal/dataset"
	"burnscope/internal/log"
)

// Event names a control interaction.
type Event string

const (
	EventUpdateClicked    Event = "update"
	EventYearRangeChanged Event = "years"
	EventCountryChanged   Event = "country"
)

var (
	ErrUnknownEvent   = errors.New("unknown event")
	ErrInvalidPayload = errors.New("invalid event payload")
)

// ParseEvent maps a wire name to an Event.
func ParseEvent(s string) (Event, error) {
	e := Event(s)
	if _, ok := handlers[e]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownEvent, s)
	}
	return e, nil
}

// Payload carries the control value that changed. Only the field matching
// the event is read.
type Payload struct {
	Country string `json:"country,omitempty"`
	Years   []int  `json:"years,omitempty"`
}

// Handler computes the next selection for one event.
type Handler func(sel core.Selection, p Payload) (core.Selection, error)

var handlers = map[Event]Handler{
	EventUpdateClicked: func(sel core.Selection, _ Payload) (core.Selection, error) {
		sel.Clicks++
		return sel, nil
	},
	EventYearRangeChanged: func(sel core.Selection, p Payload) (core.Selection, error) {
		if len(p.Years) != 2 {
			return sel, fmt.Errorf("%w: years needs two values, got %d", ErrInvalidPayload, len(p.Years))
		}
		sel.YearFrom, sel.YearTo = p.Years[0], p.Years[1]
		return sel, nil
	},
	EventCountryChanged: func(sel core.Selection, p Payload) (core.Selection, error) {
		sel.Country = p.Country
		return sel, nil
	},
}

// Publisher receives one event per recompute.
type Publisher interface {
	PublishInteraction(ctx context.Context, msg *amqp.InteractionEvent) error
}

// Result is the outcome of one interaction.
type Result struct {
	Selection core.Selection `json:"selection"`
	chart.Pair
}

type (
	// Controls describes the dropdown and slider rendered on the page.
	Controls struct {
		Countries []string       `json:"countries"`
		Slider    Slider         `json:"slider"`
		Initial   core.Selection `json:"initial"`
	}

	// Slider handles may only rest on a mark; years without data have none.
	Slider struct {
		Min       int    `json:"min"`
		Max       int    `json:"max"`
		MarksOnly bool   `json:"marks_only"`
		Value     [2]int `json:"value"`
		Marks     []Mark `json:"marks"`
	}

	Mark struct {
		Value int    `json:"value"`
		Label string `json:"label"`
	}
)

// DashboardService recomputes both figures for every interaction. It reads
// from the aggregate store and never caches results.
type DashboardService struct {
	table     *core.Table
	store     dataset.AggregateStore
	publisher Publisher
	logger    *log.StructuredLogger
	now       func() time.Time
}

// NewDashboardService wires the service. publisher may be nil.
func NewDashboardService(table *core.Table, store dataset.AggregateStore, publisher Publisher, logger *log.Logger) *DashboardService {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &DashboardService{
		table:     table,
		store:     store,
		publisher: publisher,
		logger:    log.NewStructuredLogger(logger.WithComponent(log.ComponentDashboard)),
		now:       time.Now,
	}
}

// Initial returns the startup selection: first country in load order and
// the full year span.
func (s *DashboardService) Initial() core.Selection {
	return s.table.InitialSelection()
}

// Controls returns the dropdown options and slider configuration. Every year
// present in the aggregated table gets exactly one mark.
func (s *DashboardService) Controls() Controls {
	initial := s.Initial()
	marks := make([]Mark, len(s.table.Years))
	for i, y := range s.table.Years {
		marks[i] = Mark{Value: y, Label: strconv.Itoa(y)}
	}
	return Controls{
		Countries: append([]string(nil), s.table.Countries...),
		Slider: Slider{
			Min:       s.table.MinYear,
			Max:       s.table.MaxYear,
			MarksOnly: true,
			Value:     [2]int{initial.YearFrom, initial.YearTo},
			Marks:     marks,
		},
		Initial: initial,
	}
}

// Dispatch applies ev to sel and recomputes both figures from scratch.
// The requested years pass through unchanged, so the heatmap always has one
// column per year in the range. Unknown countries yield empty figures rather
// than an error.
func (s *DashboardService) Dispatch(ctx context.Context, sel core.Selection, ev Event, p Payload) (Result, error) {
	handle, ok := handlers[ev]
	if !ok {
		return Result{}, fmt.Errorf("%w: %q", ErrUnknownEvent, ev)
	}

	next, err := handle(sel, p)
	if err != nil {
		return Result{}, err
	}
	if err := next.Validate(); err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}

	res, bars, active, err := s.recompute(ctx, string(ev), next)
	if err != nil {
		return Result{}, err
	}
	s.publish(ctx, ev, next, bars, active)
	return res, nil
}

// Render draws the figures for sel without treating it as an interaction:
// Clicks is left alone and nothing is published. The page uses it for its
// first paint.
func (s *DashboardService) Render(ctx context.Context, sel core.Selection) (Result, error) {
	sel, err := s.Resolve(sel)
	if err != nil {
		return Result{}, err
	}
	res, _, _, err := s.recompute(ctx, "render", sel)
	return res, err
}

func (s *DashboardService) recompute(ctx context.Context, trigger string, sel core.Selection) (Result, int, int, error) {
	start := s.now()
	rows, err := s.Rows(ctx, sel)
	if err != nil {
		return Result{}, 0, 0, err
	}
	pair := chart.Build(rows, sel)

	bars := len(core.YearlyTotals(rows, sel))
	active := core.BuildPresence(rows, sel.Country, sel.YearFrom, sel.YearTo).Active()
	s.logger.LogInteraction(ctx, trigger, sel.Country, sel.YearFrom, sel.YearTo, sel.Clicks, bars, active, s.now().Sub(start))

	return Result{Selection: sel, Pair: pair}, bars, active, nil
}

// Rows fetches the aggregated rows behind a selection.
func (s *DashboardService) Rows(ctx context.Context, sel core.Selection) ([]core.AggregatedRecord, error) {
	rows, err := s.store.ForCountry(ctx, sel.Country, sel.YearFrom, sel.YearTo)
	if err != nil {
		return nil, fmt.Errorf("query aggregates for %s: %w", sel, err)
	}
	return rows, nil
}

// Resolve validates a selection without recording an interaction. The year
// range is returned as requested. Exports use it.
func (s *DashboardService) Resolve(sel core.Selection) (core.Selection, error) {
	if err := sel.Validate(); err != nil {
		return sel, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	return sel, nil
}

func (s *DashboardService) publish(ctx context.Context, ev Event, sel core.Selection, bars, active int) {
	if s.publisher == nil {
		return
	}
	msg := &amqp.InteractionEvent{
		Event:       string(ev),
		Country:     sel.Country,
		YearFrom:    sel.YearFrom,
		YearTo:      sel.YearTo,
		Clicks:      sel.Clicks,
		Bars:        bars,
		ActiveCells: active,
		Timestamp:   s.now().UTC(),
	}
	if err := s.publisher.PublishInteraction(ctx, msg); err != nil {
		s.logger.LogError(ctx, "Failed to publish interaction event", err, log.OpPublish,
			log.NewFields().WithSelection(sel.Country, sel.YearFrom, sel.YearTo, sel.Clicks))
	}
}
