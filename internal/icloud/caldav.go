package icloud

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/emersion/go-ical"
	"github.com/emersion/go-webdav/caldav"
	"github.com/teambition/rrule-go"

	"agendrr/internal/models"
)

const propColor = "COLOR"

// customTransport handles adding Basic Auth and custom headers to requests.
type customTransport struct {
	Username  string
	Password  string
	Transport http.RoundTripper
}

// RoundTrip adds required headers and authentication to each request.
func (t *customTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req.SetBasicAuth(t.Username, t.Password)
	req.Header.Set("User-Agent", "agendrr/1.0")
	return t.Transport.RoundTrip(req)
}

// CalDAVClient reads events from a CalDAV calendar (iCloud by default).
type CalDAVClient struct {
	caldavClient *caldav.Client
	logger       *slog.Logger
	calendarPath string
	location     *time.Location
}

// NewClient creates a CalDAVClient for the calendar with the given display name.
// Floating event times are interpreted in loc.
func NewClient(ctx context.Context, logger *slog.Logger, endpoint, username, password, calendarName string, loc *time.Location) (*CalDAVClient, error) {
	transport := &customTransport{
		Username:  username,
		Password:  password,
		Transport: http.DefaultTransport,
	}
	httpClient := &http.Client{Transport: transport}

	caldavClient, err := caldav.NewClient(httpClient, endpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to create caldav client: %w", err)
	}

	c := &CalDAVClient{
		caldavClient: caldavClient,
		logger:       logger,
		location:     loc,
	}

	logger.Info("Finding CalDAV calendar", "calendarName", calendarName)
	calendarPath, err := c.findCalendar(ctx, calendarName)
	if err != nil {
		return nil, fmt.Errorf("could not find calendar '%s': %w", calendarName, err)
	}
	c.calendarPath = calendarPath
	logger.Info("Successfully found CalDAV calendar", "path", calendarPath)

	return c, nil
}

// Events returns the timed events starting between start and end, with
// recurring events expanded, ordered by start time.
func (c *CalDAVClient) Events(ctx context.Context, start, end time.Time) ([]models.Record, error) {
	query := &caldav.CalendarQuery{
		CompRequest: caldav.CalendarCompRequest{
			Name:     ical.CompCalendar,
			AllProps: true,
			Comps: []caldav.CalendarCompRequest{{
				Name:     ical.CompEvent,
				AllProps: true,
			}},
		},
		CompFilter: caldav.CompFilter{
			Name: ical.CompCalendar,
			Comps: []caldav.CompFilter{{
				Name:  ical.CompEvent,
				Start: start,
				End:   end,
			}},
		},
	}

	objects, err := c.caldavClient.QueryCalendar(ctx, c.calendarPath, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query calendar: %w", err)
	}

	var records []models.Record
	for _, obj := range objects {
		if obj.Data == nil {
			continue
		}
		records = append(records, expand(c.logger, obj.Data, start, end, c.location)...)
	}
	slices.SortStableFunc(records, func(a, b models.Record) int {
		return a.Start.Compare(b.Start)
	})

	c.logger.Info("Successfully fetched events from CalDAV", "objects", len(objects), "count", len(records))
	return records, nil
}

// expand returns a record for every timed occurrence in cal starting within
// [start, end). Instances replaced by a RECURRENCE-ID override are taken
// from the override.
func expand(logger *slog.Logger, cal *ical.Calendar, start, end time.Time, loc *time.Location) []models.Record {
	events := cal.Events()

	overridden := make(map[string][]time.Time)
	for _, ev := range events {
		rid := ev.Props.Get(ical.PropRecurrenceID)
		if rid == nil {
			continue
		}
		t, err := rid.DateTime(loc)
		if err != nil {
			continue
		}
		uid, _ := ev.Props.Text(ical.PropUID)
		overridden[uid] = append(overridden[uid], t)
	}

	var records []models.Record
	for _, ev := range events {
		dtstart := ev.Props.Get(ical.PropDateTimeStart)
		if dtstart == nil || dtstart.ValueType() == ical.ValueDate {
			continue
		}

		evStart, err := ev.DateTimeStart(loc)
		if err != nil {
			logger.Warn("Skipping event with unparseable start time", "error", err)
			continue
		}

		var set *rrule.Set
		if rule := ev.Props.Get(ical.PropRecurrenceRule); rule != nil && ev.Props.Get(ical.PropRecurrenceID) == nil {
			set, err = recurrenceSet(ev, rule.Value, evStart, loc)
			if err != nil {
				logger.Warn("Ignoring unparseable recurrence rule", "rrule", rule.Value, "error", err)
				set = nil
			}
		}

		if set == nil {
			if inWindow(evStart, start, end) {
				records = append(records, toRecord(ev, evStart))
			}
			continue
		}

		uid, _ := ev.Props.Text(ical.PropUID)
		for _, occ := range set.Between(start, end, true) {
			if !inWindow(occ, start, end) || isOverridden(overridden[uid], occ) {
				continue
			}
			records = append(records, toRecord(ev, occ))
		}
	}
	return records
}

// recurrenceSet builds the RRULE and EXDATE set of a recurring event. EXDATE
// may carry several comma-separated instants.
func recurrenceSet(ev ical.Event, raw string, dtstart time.Time, loc *time.Location) (*rrule.Set, error) {
	r, err := rrule.StrToRRule(raw)
	if err != nil {
		return nil, err
	}
	r.DTStart(dtstart)

	set := &rrule.Set{}
	set.RRule(r)

	for _, p := range ev.Props.Values(ical.PropExceptionDates) {
		for _, part := range strings.Split(p.Value, ",") {
			if t, err := parseTime(p, strings.TrimSpace(part), loc); err == nil {
				set.ExDate(t)
			}
		}
	}
	return set, nil
}

// parseTime parses one DATE-TIME value of p, honoring its TZID parameter.
func parseTime(p ical.Prop, v string, loc *time.Location) (time.Time, error) {
	if strings.HasSuffix(v, "Z") {
		return time.Parse("20060102T150405Z", v)
	}
	if tzid := p.Params.Get(ical.ParamTimezoneID); tzid != "" {
		if l, err := time.LoadLocation(tzid); err == nil {
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

func isOverridden(instants []time.Time, t time.Time) bool {
	return slices.ContainsFunc(instants, t.Equal)
}

// toRecord converts a VEVENT occurrence starting at start into a record.
func toRecord(ev ical.Event, start time.Time) models.Record {
	name, _ := ev.Props.Text(ical.PropSummary)
	description, _ := ev.Props.Text(ical.PropDescription)

	color, _ := ev.Props.Text(propColor)
	if color == "" {
		color = models.NoColor
	}

	var attendees []string
	for _, p := range ev.Props.Values(ical.PropAttendee) {
		attendees = append(attendees, trimMailto(p.Value))
	}

	return models.Record{
		Start:       start,
		Name:        name,
		Description: description,
		Color:       color,
		Attendees:   attendees,
	}
}

func trimMailto(v string) string {
	if len(v) >= len("mailto:") && strings.EqualFold(v[:len("mailto:")], "mailto:") {
		return v[len("mailto:"):]
	}
	return v
}

// findCalendar discovers the user's calendars and returns the path of the one with the matching name.
func (c *CalDAVClient) findCalendar(ctx context.Context, name string) (string, error) {
	principalPath, err := c.caldavClient.FindCurrentUserPrincipal(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to find principal path: %w", err)
	}

	homeSetPath, err := c.caldavClient.FindCalendarHomeSet(ctx, principalPath)
	if err != nil {
		return "", fmt.Errorf("failed to find calendar home set: %w", err)
	}

	calendars, err := c.caldavClient.FindCalendars(ctx, homeSetPath)
	if err != nil {
		return "", fmt.Errorf("failed to find calendars: %w", err)
	}

	for _, cal := range calendars {
		if cal.Name == name {
			return cal.Path, nil
		}
	}

	return "", fmt.Errorf("no calendar found with name '%s'", name)
}
