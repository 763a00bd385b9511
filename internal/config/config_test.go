package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testConfig = `
calendar-id: primary
user-email: jon.doe@example.com
user-preferred-name: Jon
regular-note-glob: /notes/meetings/*.md
strip-event-suffixes:
  - " - Weekly"
  - " - Monthly"
ignored-colours: ["8", "11"]
ignored-regex:
  - "^Focus"
mapped-filenames:
  "Eng Sync": "Engineering Sync"
timezone: Europe/London
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "agendrr.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad(t *testing.T) {
	cfg, err := Load(writeConfig(t, testConfig))
	require.NoError(t, err)

	assert.Equal(t, SourceGoogle, cfg.Source)
	assert.Equal(t, "primary", cfg.CalendarID)
	assert.Equal(t, "jon.doe@example.com", cfg.UserEmail)
	assert.Equal(t, "Jon", cfg.UserPreferredName)
	assert.Equal(t, []string{" - Weekly", " - Monthly"}, cfg.StripEventSuffixes)
	assert.Equal(t, []string{"8", "11"}, cfg.IgnoredColours)
	assert.Equal(t, []string{"^Focus"}, cfg.IgnoredRegex)
	assert.Equal(t, map[string]string{"Eng Sync": "Engineering Sync"}, cfg.MappedFilenames)
	assert.Equal(t, DefaultInterviewScheduler, cfg.InterviewScheduler)
	assert.Equal(t, DefaultCalendlyPartner, cfg.CalendlyPartner)
	assert.Equal(t, "example.com", cfg.UserDomain())

	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, "Europe/London", loc.String())
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not exist")
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("AGENDRR_CALENDAR_ID", "work@example.com")
	t.Setenv("AGENDRR_TIMEZONE", "UTC")

	cfg, err := Load(writeConfig(t, testConfig))
	require.NoError(t, err)

	assert.Equal(t, "work@example.com", cfg.CalendarID)
	assert.Equal(t, "UTC", cfg.Timezone)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing email", func(c *Config) { c.UserEmail = "" }},
		{"malformed email", func(c *Config) { c.UserEmail = "not an email" }},
		{"missing name", func(c *Config) { c.UserPreferredName = "" }},
		{"bad timezone", func(c *Config) { c.Timezone = "Mars/Olympus" }},
		{"google without calendar", func(c *Config) { c.CalendarID = "" }},
		{"caldav without calendar", func(c *Config) { c.Source = SourceCalDAV }},
		{"ics without location", func(c *Config) { c.Source = SourceICS }},
		{"unknown source", func(c *Config) { c.Source = "outlook" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{
				CalendarID:        "primary",
				UserEmail:         "jon.doe@example.com",
				UserPreferredName: "Jon",
			}
			cfg.Normalize()
			tt.mutate(cfg)

			assert.ErrorIs(t, cfg.Validate(), ErrInvalid)
		})
	}
}
