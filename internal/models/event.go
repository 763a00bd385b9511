package models

import (
	"strings"
	"time"
)

// NoColor is the color tag of events that have no calendar color set.
const NoColor = "none"

// Record is a calendar event as fetched from a source, before normalization.
type Record struct {
	Start       time.Time // Start time of the event
	Name        string    // Summary or title of the event
	Description string    // Detailed description of the event
	Color       string    // Color index as a string, or NoColor
	Attendees   []string  // List of attendee emails, including the user
}

// Event represents a normalized calendar event.
// It is built once by a Builder and only read afterwards.
type Event struct {
	StartTime   time.Time // Start time in the display location
	Name        string    // Title with configured suffixes removed
	Description string    // Free-text body, may be empty
	Color       string    // Opaque color tag
	Attendees   []string  // Attendee emails, never including the user
}

// Builder normalizes records into events for a specific user.
type Builder struct {
	UserEmail     string
	StripSuffixes []string
	Location      *time.Location
}

// Build creates an Event from a record, removing the user from the attendee
// list and stripping every configured suffix from the name.
func (b Builder) Build(r Record) Event {
	attendees := make([]string, 0, len(r.Attendees))
	for _, a := range r.Attendees {
		if a == b.UserEmail {
			continue
		}
		attendees = append(attendees, a)
	}

	name := r.Name
	for _, sfx := range b.StripSuffixes {
		name = trimSuffixes(name, sfx)
	}

	start := r.Start
	if b.Location != nil {
		start = start.In(b.Location)
	}

	color := r.Color
	if color == "" {
		color = NoColor
	}

	return Event{
		StartTime:   start,
		Name:        name,
		Description: r.Description,
		Color:       color,
		Attendees:   attendees,
	}
}

// trimSuffixes removes every trailing repetition of sfx from s.
func trimSuffixes(s, sfx string) string {
	if sfx == "" {
		return s
	}
	for strings.HasSuffix(s, sfx) {
		s = strings.TrimSuffix(s, sfx)
	}
	return s
}
