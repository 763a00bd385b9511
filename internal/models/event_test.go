package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func testBuilder() Builder {
	return Builder{
		UserEmail:     "user@example.com",
		StripSuffixes: []string{" - Weekly", " - Monthly"},
	}
}

func TestBuild_RemovesSuffixes(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"weekly", "Team Sync - Weekly", "Team Sync"},
		{"monthly", "Planning - Monthly", "Planning"},
		{"both", "Odd - Monthly - Weekly", "Odd"},
		{"repeated", "Sync - Weekly - Weekly", "Sync"},
		{"untouched", "Standup", "Standup"},
		{"suffix only in the middle", "Weekly - Weekly review", "Weekly - Weekly review"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev := testBuilder().Build(Record{Name: tt.in})
			assert.Equal(t, tt.want, ev.Name)
		})
	}
}

func TestBuild_RemovesUserFromAttendees(t *testing.T) {
	ev := testBuilder().Build(Record{
		Attendees: []string{"user@example.com", "colleague@example.com"},
	})

	assert.Equal(t, []string{"colleague@example.com"}, ev.Attendees)
}

func TestBuild_DoesNotShareAttendeeSlice(t *testing.T) {
	attendees := []string{"a@example.com", "b@example.com"}
	ev := testBuilder().Build(Record{Attendees: attendees})

	attendees[0] = "changed@example.com"
	assert.Equal(t, []string{"a@example.com", "b@example.com"}, ev.Attendees)
}

func TestBuild_DefaultsColor(t *testing.T) {
	assert.Equal(t, NoColor, testBuilder().Build(Record{}).Color)
	assert.Equal(t, "5", testBuilder().Build(Record{Color: "5"}).Color)
}

func TestBuild_ConvertsToLocation(t *testing.T) {
	loc := time.FixedZone("UTC+2", 2*60*60)
	b := testBuilder()
	b.Location = loc

	ev := b.Build(Record{Start: time.Date(2024, 12, 5, 7, 0, 0, 0, time.UTC)})

	assert.Equal(t, 9, ev.StartTime.Hour())
	assert.Equal(t, loc, ev.StartTime.Location())
}
