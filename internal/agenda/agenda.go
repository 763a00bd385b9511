package agenda

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"agendrr/internal/filters"
	"agendrr/internal/handlers"
	"agendrr/internal/models"
)

// Source fetches the raw events of a calendar between start and end,
// ordered by start time.
type Source interface {
	Events(ctx context.Context, start, end time.Time) ([]models.Record, error)
}

// Agenda turns a day of calendar events into markdown lines.
type Agenda struct {
	logger   *slog.Logger
	source   Source
	builder  models.Builder
	filters  filters.Chain
	handlers handlers.Chain
}

// New creates an Agenda. The filters and handlers are used as given; their
// order is the order they are evaluated in.
func New(logger *slog.Logger, source Source, builder models.Builder, f filters.Chain, h handlers.Chain) *Agenda {
	return &Agenda{
		logger:   logger,
		source:   source,
		builder:  builder,
		filters:  f,
		handlers: h,
	}
}

// Run fetches the events of the day containing day and renders them.
// A fetch error aborts the run without partial output.
func (a *Agenda) Run(ctx context.Context, day time.Time) ([]string, error) {
	start, end := DayWindow(day, 0, a.location())
	a.logger.Debug("Fetching events", "start", start, "end", end)

	records, err := a.source.Events(ctx, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch events: %w", err)
	}
	a.logger.Info("Fetched events.", "count", len(records))

	events := make([]models.Event, 0, len(records))
	for _, r := range records {
		events = append(events, a.builder.Build(r))
	}
	return a.Render(events), nil
}

// Render filters and renders events, keeping their order.
func (a *Agenda) Render(events []models.Event) []string {
	lines := make([]string, 0, len(events))
	for _, ev := range events {
		if a.filters.Exclude(ev) {
			a.logger.Debug("Event excluded by filters, skipping.", "name", ev.Name, "color", ev.Color)
			continue
		}

		h, line, ok := a.handlers.Resolve(ev)
		if !ok {
			a.logger.Debug("No handler for event, skipping.", "name", ev.Name)
			continue
		}
		a.logger.Debug("Rendered event.", "name", ev.Name, "handler", h.Name())
		lines = append(lines, line)
	}
	return lines
}

func (a *Agenda) location() *time.Location {
	if a.builder.Location != nil {
		return a.builder.Location
	}
	return time.Local
}

// DayWindow returns the start of the day offset days after now, and the
// start of the following day, both in loc.
func DayWindow(now time.Time, offset int, loc *time.Location) (time.Time, time.Time) {
	local := now.In(loc)
	start := time.Date(local.Year(), local.Month(), local.Day()+offset, 0, 0, 0, 0, loc)
	end := time.Date(start.Year(), start.Month(), start.Day()+1, 0, 0, 0, 0, loc)
	return start, end
}
