package handlers

import (
	"fmt"

	"agendrr/internal/models"
)

// DefaultHandler renders any event as plain text. It always applies.
type DefaultHandler struct{}

// NewDefaultHandler creates a DefaultHandler.
func NewDefaultHandler() *DefaultHandler {
	return &DefaultHandler{}
}

func (h *DefaultHandler) Name() string { return "default" }

func (h *DefaultHandler) Handle(event models.Event) (string, bool) {
	return fmt.Sprintf("- **%s**: %s", event.StartTime.Format(hourMinuteLayout), event.Name), true
}
