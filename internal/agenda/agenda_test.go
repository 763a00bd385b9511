package agenda

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"agendrr/internal/config"
	"agendrr/internal/filters"
	"agendrr/internal/handlers"
	"agendrr/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	records    []models.Record
	err        error
	start, end time.Time
}

func (s *fakeSource) Events(_ context.Context, start, end time.Time) ([]models.Record, error) {
	s.start, s.end = start, end
	return s.records, s.err
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestAgenda(t *testing.T, src Source) *Agenda {
	t.Helper()
	cfg := &config.Config{
		UserEmail:          "john.doe@example.com",
		UserPreferredName:  "John",
		StripEventSuffixes: []string{" - Weekly"},
		IgnoredColours:     []string{"8"},
		IgnoredRegex:       []string{"^Focus"},
		MappedFilenames:    map[string]string{"Eng Sync": "Engineering Sync"},
	}
	cfg.Normalize()

	f, err := filters.Default(cfg)
	require.NoError(t, err)
	h, err := handlers.Default(cfg)
	require.NoError(t, err)

	builder := models.Builder{
		UserEmail:     cfg.UserEmail,
		StripSuffixes: cfg.StripEventSuffixes,
		Location:      time.UTC,
	}
	return New(discardLogger(), src, builder, f, h)
}

func at(hour, minute int) time.Time {
	return time.Date(2024, 12, 5, hour, minute, 0, 0, time.UTC)
}

func TestRun(t *testing.T) {
	src := &fakeSource{records: []models.Record{
		{Start: at(8, 0), Name: "Focus time", Color: "1"},
		{Start: at(9, 0), Name: "Eng Sync - Weekly", Attendees: []string{"john.doe@example.com", "a.b@example.com", "c.d@example.com"}},
		{Start: at(10, 30), Name: "Catch up", Attendees: []string{"john.doe@example.com", "jane.doe@example.com"}},
		{Start: at(11, 0), Name: "Hidden", Color: "8"},
		{Start: at(13, 0), Name: "Please interview a candidate for SRE", Description: "Please interview John Doe.", Attendees: []string{"schedule@rose.greenhouse.io"}},
		{Start: at(15, 0), Name: "John Smith and Jon Seager"},
		{Start: at(17, 15), Name: "Gym"},
	}}

	lines, err := newTestAgenda(t, src).Run(context.Background(), at(12, 0))
	require.NoError(t, err)

	assert.Equal(t, []string{
		"- **0900**: [[Engineering Sync#2024-12-05|Engineering Sync]]",
		"- **1030**: [[Jane Doe#2024-12-05|John/Jane]]",
		"- **1300**: [[202412051300-john-doe|John Doe Interview Notes]]",
		"- **1500**: [[John Smith#2024-12-05|John/John]]",
		"- **1715**: Gym",
	}, lines)

	assert.Equal(t, time.Date(2024, 12, 5, 0, 0, 0, 0, time.UTC), src.start)
	assert.Equal(t, time.Date(2024, 12, 6, 0, 0, 0, 0, time.UTC), src.end)
}

func TestRun_Empty(t *testing.T) {
	lines, err := newTestAgenda(t, &fakeSource{}).Run(context.Background(), at(12, 0))
	require.NoError(t, err)
	assert.Empty(t, lines)
}

func TestRun_SourceError(t *testing.T) {
	boom := errors.New("boom")
	lines, err := newTestAgenda(t, &fakeSource{err: boom}).Run(context.Background(), at(12, 0))
	assert.ErrorIs(t, err, boom)
	assert.Nil(t, lines)
}

func TestRender_DropsUnhandledEvents(t *testing.T) {
	a := New(discardLogger(), nil, models.Builder{}, filters.Chain{}, handlers.Chain{handlers.NewMappedHandler(map[string]string{"a": "A"})})

	lines := a.Render([]models.Event{
		{StartTime: at(9, 0), Name: "b"},
		{StartTime: at(10, 0), Name: "a"},
	})
	assert.Equal(t, []string{"- **1000**: [[A#2024-12-05|A]]"}, lines)
}

func TestDayWindow(t *testing.T) {
	loc := time.FixedZone("UTC-5", -5*60*60)
	now := time.Date(2024, 12, 5, 2, 0, 0, 0, time.UTC) // 21:00 on the 4th in loc

	start, end := DayWindow(now, 0, loc)
	assert.Equal(t, time.Date(2024, 12, 4, 0, 0, 0, 0, loc), start)
	assert.Equal(t, time.Date(2024, 12, 5, 0, 0, 0, 0, loc), end)

	start, end = DayWindow(now, 1, loc)
	assert.Equal(t, time.Date(2024, 12, 5, 0, 0, 0, 0, loc), start)
	assert.Equal(t, time.Date(2024, 12, 6, 0, 0, 0, 0, loc), end)

	start, _ = DayWindow(time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC), -1, time.UTC)
	assert.Equal(t, time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC), start)
}
