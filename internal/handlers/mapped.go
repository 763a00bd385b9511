package handlers

import (
	"maps"

	"agendrr/internal/models"
)

// MappedHandler links events whose note has a different name than the event.
type MappedHandler struct {
	notes map[string]string
}

// NewMappedHandler creates a MappedHandler from an event name to note name table.
func NewMappedHandler(notes map[string]string) *MappedHandler {
	return &MappedHandler{notes: maps.Clone(notes)}
}

func (h *MappedHandler) Name() string { return "mapped" }

func (h *MappedHandler) Handle(event models.Event) (string, bool) {
	note, ok := h.notes[event.Name]
	if !ok {
		return "", false
	}
	return linkedEntry(event.StartTime, note, note), true
}
