// Package worker consumes dashboard interaction events from the broker.
package worker

import (
	"context"
	"sync"
	"time"

	"github.com/dustin/go-humanize"

	"burnscope/internal/amqp"
	"burnscope/internal/log"
	"burnscope/internal/services"
)

// AuditWorker logs every interaction it receives and keeps running counts
// per event type.
type AuditWorker struct {
	logger *log.Logger

	mu      sync.Mutex
	counts  map[string]int64
	total   int64
	started time.Time
	now     func() time.Time
}

func NewAuditWorker(logger *log.Logger) *AuditWorker {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &AuditWorker{
		logger:  logger.WithComponent(log.ComponentWorker),
		counts:  make(map[string]int64),
		started: time.Now(),
		now:     time.Now,
	}
}

// HandleInteraction records one event. Unknown event names are logged and
// acknowledged so they are not redelivered forever.
func (w *AuditWorker) HandleInteraction(ctx context.Context, msg *amqp.InteractionEvent) error {
	if _, err := services.ParseEvent(msg.Event); err != nil {
		w.logger.WarnContext(ctx, "Skipping interaction with unknown event",
			log.FieldEvent, msg.Event,
			log.FieldOperation, log.OpConsume)
		return nil
	}

	w.mu.Lock()
	w.counts[msg.Event]++
	w.total++
	total := w.total
	w.mu.Unlock()

	fields := log.NewFields().
		WithOperation(log.OpConsume).
		WithSelection(msg.Country, msg.YearFrom, msg.YearTo, msg.Clicks).
		WithFigures(msg.Bars, msg.ActiveCells)
	fields[log.FieldEvent] = msg.Event
	fields["lag"] = humanize.RelTime(msg.Timestamp, w.now(), "ago", "from now")
	fields["seen"] = humanize.Comma(total)

	w.logger.InfoContext(ctx, "Dashboard interaction", fields.ToSlice()...)
	return nil
}

// Stats is a snapshot of the worker's counters.
type Stats struct {
	Total   int64
	ByEvent map[string]int64
	Since   time.Time
}

func (w *AuditWorker) Stats() Stats {
	w.mu.Lock()
	defer w.mu.Unlock()
	by := make(map[string]int64, len(w.counts))
	for k, v := range w.counts {
		by[k] = v
	}
	return Stats{Total: w.total, ByEvent: by, Since: w.started}
}

// LogSummary writes the counters at info level.
func (w *AuditWorker) LogSummary(ctx context.Context) {
	s := w.Stats()
	w.logger.InfoContext(ctx, "Interaction summary",
		"total", humanize.Comma(s.Total),
		"updates", s.ByEvent[string(services.EventUpdateClicked)],
		"year_changes", s.ByEvent[string(services.EventYearRangeChanged)],
		"country_changes", s.ByEvent[string(services.EventCountryChanged)],
		"since", humanize.Time(s.Since))
}
