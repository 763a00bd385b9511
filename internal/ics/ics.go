package ics

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"slices"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/teambition/rrule-go"

	"agendrr/internal/models"
)

const (
	propRecurrenceID = ical.ComponentProperty("RECURRENCE-ID")
	propColor        = ical.ComponentProperty("COLOR")
)

// Feed reads events from an iCalendar file or URL.
type Feed struct {
	logger   *slog.Logger
	location string
	client   *http.Client
	tz       *time.Location
}

// NewFeed creates a Feed for a local path or an http(s)/webcal URL.
// Floating times are interpreted in tz.
func NewFeed(logger *slog.Logger, location string, tz *time.Location) *Feed {
	return &Feed{
		logger:   logger,
		location: location,
		client:   &http.Client{Timeout: 15 * time.Second},
		tz:       tz,
	}
}

// Events returns the timed events starting between start and end, with
// recurring events expanded, ordered by start time.
func (f *Feed) Events(ctx context.Context, start, end time.Time) ([]models.Record, error) {
	body, err := f.read(ctx)
	if err != nil {
		return nil, err
	}
	if len(body) == 0 {
		return nil, errors.New("empty ICS body")
	}

	cal, err := ical.ParseCalendar(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to parse ICS feed: %w", err)
	}

	records := expand(f.logger, cal, start, end, f.tz)
	slices.SortStableFunc(records, func(a, b models.Record) int {
		return a.Start.Compare(b.Start)
	})

	f.logger.Info("Successfully read events from ICS feed", "events", len(cal.Events()), "count", len(records))
	return records, nil
}

func (f *Feed) read(ctx context.Context) ([]byte, error) {
	url := f.location
	if strings.HasPrefix(url, "webcal://") {
		url = "https://" + strings.TrimPrefix(url, "webcal://")
	}
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		body, err := os.ReadFile(f.location)
		if err != nil {
			return nil, fmt.Errorf("unable to read ICS file: %w", err)
		}
		return body, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build ICS request: %w", err)
	}
	req.Header.Set("User-Agent", "agendrr/1.0")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch ICS feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to fetch ICS feed: unexpected status %s", resp.Status)
	}
	return io.ReadAll(resp.Body)
}

// expand returns a record for every timed occurrence in cal starting within
// [start, end), skipping instances replaced by a RECURRENCE-ID override.
func expand(logger *slog.Logger, cal *ical.Calendar, start, end time.Time, tz *time.Location) []models.Record {
	events := cal.Events()

	overridden := make(map[string][]time.Time)
	for _, ve := range events {
		rid := ve.GetProperty(propRecurrenceID)
		if rid == nil {
			continue
		}
		if t, err := parseTime(rid, rid.Value, tz); err == nil {
			uid := value(ve, ical.ComponentPropertyUniqueId)
			overridden[uid] = append(overridden[uid], t)
		}
	}

	var records []models.Record
	for _, ve := range events {
		dtstart := ve.GetProperty(ical.ComponentPropertyDtStart)
		if dtstart == nil || isAllDay(dtstart) {
			continue
		}

		evStart, err := parseTime(dtstart, dtstart.Value, tz)
		if err != nil {
			logger.Warn("Skipping event with unparseable start time", "summary", value(ve, ical.ComponentPropertySummary), "error", err)
			continue
		}

		rruleProp := ve.GetProperty(ical.ComponentPropertyRrule)
		if rruleProp == nil || ve.GetProperty(propRecurrenceID) != nil {
			if inWindow(evStart, start, end) {
				records = append(records, toRecord(ve, evStart))
			}
			continue
		}

		set, err := recurrenceSet(ve, rruleProp.Value, evStart, tz)
		if err != nil {
			logger.Warn("Ignoring unparseable recurrence rule", "rrule", rruleProp.Value, "error", err)
			if inWindow(evStart, start, end) {
				records = append(records, toRecord(ve, evStart))
			}
			continue
		}

		uid := value(ve, ical.ComponentPropertyUniqueId)
		for _, occ := range set.Between(start, end, true) {
			if !inWindow(occ, start, end) || slices.ContainsFunc(overridden[uid], occ.Equal) {
				continue
			}
			records = append(records, toRecord(ve, occ))
		}
	}
	return records
}

// recurrenceSet builds the RRULE and EXDATE set of a recurring event.
func recurrenceSet(ve *ical.VEvent, raw string, dtstart time.Time, tz *time.Location) (*rrule.Set, error) {
	r, err := rrule.StrToRRule(raw)
	if err != nil {
		return nil, err
	}
	r.DTStart(dtstart)

	set := &rrule.Set{}
	set.RRule(r)

	for _, p := range ve.GetProperties(ical.ComponentPropertyExdate) {
		for _, part := range strings.Split(p.Value, ",") {
			if t, err := parseTime(p, strings.TrimSpace(part), tz); err == nil {
				set.ExDate(t)
			}
		}
	}
	return set, nil
}

func toRecord(ve *ical.VEvent, start time.Time) models.Record {
	color := value(ve, propColor)
	if color == "" {
		color = models.NoColor
	}

	var attendees []string
	for _, p := range ve.GetProperties(ical.ComponentPropertyAttendee) {
		attendees = append(attendees, trimMailto(p.Value))
	}

	return models.Record{
		Start:       start,
		Name:        value(ve, ical.ComponentPropertySummary),
		Description: value(ve, ical.ComponentPropertyDescription),
		Color:       color,
		Attendees:   attendees,
	}
}

func value(ve *ical.VEvent, prop ical.ComponentProperty) string {
	if p := ve.GetProperty(prop); p != nil {
		return p.Value
	}
	return ""
}

func isAllDay(p *ical.IANAProperty) bool {
	if vs, ok := p.ICalParameters["VALUE"]; ok && len(vs) > 0 && strings.EqualFold(vs[0], "DATE") {
		return true
	}
	return !strings.Contains(p.Value, "T")
}

// parseTime parses a DATE-TIME value of p, honoring its TZID parameter.
func parseTime(p *ical.IANAProperty, v string, tz *time.Location) (time.Time, error) {
	if strings.HasSuffix(v, "Z") {
		return time.Parse("20060102T150405Z", v)
	}

	loc := tz
	if tzids, ok := p.ICalParameters["TZID"]; ok && len(tzids) > 0 {
		if l, err := time.LoadLocation(tzids[0]); err == nil {
			loc = l
		}
	}
	if strings.Contains(v, "T") {
		return time.ParseInLocation("20060102T150405", v, loc)
	}
	return time.ParseInLocation("20060102", v, loc)
}

func inWindow(t, start, end time.Time) bool {
	return !t.Before(start) && t.Before(end)
}

func trimMailto(v string) string {
	if len(v) >= len("mailto:") && strings.EqualFold(v[:len("mailto:")], "mailto:") {
		return v[len("mailto:"):]
	}
	return v
}
