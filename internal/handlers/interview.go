package handlers

import (
	"fmt"
	"regexp"
	"slices"
	"strings"
	"time"

	"agendrr/internal/models"
)

var (
	// Event names created by the internal auto-scheduler; the candidate is
	// only named in the description.
	schedulerNameRegex        = regexp.MustCompile(`^Please interview a candidate for .+$`)
	schedulerDescriptionRegex = regexp.MustCompile(`(?m)^Please interview (.+)[.]$`)

	// Event names created by Greenhouse, which include the candidate.
	greenhouseNameRegex = regexp.MustCompile(`^Please interview (.+) for .+$`)
)

const interviewFileLayout = "200601021504"

// InterviewHandler links interview events to per-candidate notes.
type InterviewHandler struct {
	scheduler string
}

// NewInterviewHandler creates an InterviewHandler that recognizes events
// the given scheduler address was invited to.
func NewInterviewHandler(scheduler string) *InterviewHandler {
	return &InterviewHandler{scheduler: scheduler}
}

func (h *InterviewHandler) Name() string { return "interview" }

func (h *InterviewHandler) Handle(event models.Event) (string, bool) {
	if !slices.Contains(event.Attendees, h.scheduler) {
		return "", false
	}

	candidate, ok := candidateName(event)
	if !ok {
		return "", false
	}

	fileName := strings.ReplaceAll(strings.ToLower(candidate), " ", "-")
	note := event.StartTime.Format(interviewFileLayout) + "-" + fileName
	return interviewEntry(event.StartTime, note, candidate), true
}

// candidateName extracts the candidate from the event. The two schedulers
// are told apart by the event name; a scheduler event without a candidate
// in its description is not an interview we can link.
func candidateName(event models.Event) (string, bool) {
	if schedulerNameRegex.MatchString(event.Name) {
		m := schedulerDescriptionRegex.FindStringSubmatch(event.Description)
		if m == nil {
			return "", false
		}
		return m[1], true
	}

	m := greenhouseNameRegex.FindStringSubmatch(event.Name)
	if m == nil {
		return "", false
	}
	return m[1], true
}

func interviewEntry(start time.Time, note, candidate string) string {
	return fmt.Sprintf("- **%s**: [[%s|%s Interview Notes]]", start.Format(hourMinuteLayout), note, candidate)
}
