package handlers

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"agendrr/internal/config"
	"agendrr/internal/models"
)

const (
	hourMinuteLayout = "1504"
	dateLayout       = "2006-01-02"
)

// Handler renders an agenda line for the events it recognizes.
type Handler interface {
	// Name identifies the handler in logs.
	Name() string
	// Handle returns the rendered line and true if the handler applies to the event.
	Handle(event models.Event) (string, bool)
}

// Chain tries its handlers in order; the first one that applies wins.
type Chain []Handler

// Resolve returns the first handler that applies to the event and its output.
func (c Chain) Resolve(event models.Event) (Handler, string, bool) {
	for _, h := range c {
		if line, ok := h.Handle(event); ok {
			return h, line, true
		}
	}
	return nil, "", false
}

// Render returns the line produced by the first applicable handler.
func (c Chain) Render(event models.Event) (string, bool) {
	_, line, ok := c.Resolve(event)
	return line, ok
}

// Default returns every handler in priority order. The order matters: several
// handlers can apply to the same event and only the first is used, and the
// DefaultHandler must stay last because it applies to everything.
func Default(cfg *config.Config) (Chain, error) {
	regular, err := NewRegularHandler(cfg.RegularNoteGlob)
	if err != nil {
		return nil, err
	}
	calendly, err := NewCalendlyHandler(cfg.UserPreferredName, cfg.CalendlyPartner)
	if err != nil {
		return nil, err
	}

	return Chain{
		regular,
		NewMappedHandler(cfg.MappedFilenames),
		NewInterviewHandler(cfg.InterviewScheduler),
		NewOneToOneHandler(cfg.UserPreferredName, cfg.UserDomain()),
		calendly,
		NewDefaultHandler(),
	}, nil
}

// linkedEntry formats an agenda line linking to a note heading for the event's day.
func linkedEntry(start time.Time, target, alias string) string {
	return fmt.Sprintf("- **%s**: [[%s#%s|%s]]",
		start.Format(hourMinuteLayout),
		target,
		start.Format(dateLayout),
		alias,
	)
}

// noteList returns the base names, without extension, of the files matching pattern.
func noteList(pattern string) ([]string, error) {
	if pattern == "" {
		return nil, nil
	}
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid regular-note-glob %q: %w", pattern, err)
	}

	notes := make([]string, 0, len(matches))
	for _, m := range matches {
		base := filepath.Base(m)
		notes = append(notes, strings.TrimSuffix(base, filepath.Ext(base)))
	}
	return notes, nil
}
