package handlers

import (
	"fmt"
	"regexp"
	"strings"

	"agendrr/internal/models"
)

// CalendlyHandler links events booked through Calendly, which are named
// "<Guest> and <Host>".
type CalendlyHandler struct {
	userName string
	pattern  *regexp.Regexp
}

// NewCalendlyHandler creates a CalendlyHandler for events booked with partner.
func NewCalendlyHandler(userName, partner string) (*CalendlyHandler, error) {
	re, err := regexp.Compile(`^(.+) and ` + regexp.QuoteMeta(partner))
	if err != nil {
		return nil, fmt.Errorf("invalid calendly-partner %q: %w", partner, err)
	}
	return &CalendlyHandler{userName: userName, pattern: re}, nil
}

func (h *CalendlyHandler) Name() string { return "calendly" }

func (h *CalendlyHandler) Handle(event models.Event) (string, bool) {
	m := h.pattern.FindStringSubmatch(event.Name)
	if m == nil {
		return "", false
	}

	fullName := m[1]
	firstName, _, _ := strings.Cut(fullName, " ")
	return linkedEntry(event.StartTime, fullName, h.userName+"/"+firstName), true
}
