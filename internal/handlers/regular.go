package handlers

import "agendrr/internal/models"

// RegularHandler links events named after an existing meeting note.
type RegularHandler struct {
	notes map[string]struct{}
}

// NewRegularHandler scans the filesystem once for notes matching pattern.
func NewRegularHandler(pattern string) (*RegularHandler, error) {
	notes, err := noteList(pattern)
	if err != nil {
		return nil, err
	}
	return newRegularHandler(notes), nil
}

func newRegularHandler(notes []string) *RegularHandler {
	set := make(map[string]struct{}, len(notes))
	for _, n := range notes {
		set[n] = struct{}{}
	}
	return &RegularHandler{notes: set}
}

func (h *RegularHandler) Name() string { return "regular" }

func (h *RegularHandler) Handle(event models.Event) (string, bool) {
	if _, ok := h.notes[event.Name]; !ok {
		return "", false
	}
	return linkedEntry(event.StartTime, event.Name, event.Name), true
}
