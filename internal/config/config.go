package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/mail"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ErrInvalid is returned when a configuration file parses but is unusable.
var ErrInvalid = errors.New("invalid configuration")

// Supported event sources.
const (
	SourceGoogle = "google"
	SourceCalDAV = "caldav"
	SourceICS    = "ics"
)

const (
	DefaultInterviewScheduler = "schedule@rose.greenhouse.io"
	DefaultCalendlyPartner    = "Jon Seager"
	DefaultCalDAVEndpoint     = "https://caldav.icloud.com/"
)

// CalDAVConfig describes the CalDAV calendar used by the caldav source.
type CalDAVConfig struct {
	Endpoint     string `yaml:"endpoint"`
	Username     string `yaml:"username"`
	Password     string `yaml:"password"`
	CalendarName string `yaml:"calendar-name"`
}

// ICSConfig describes the feed used by the ics source.
type ICSConfig struct {
	// Location is a local file path or an http(s) URL.
	Location string `yaml:"location"`
}

// Config is the top-level application configuration.
type Config struct {
	// DayOffset is how many days ahead (or behind, if negative) to build the
	// agenda for. It is set from the command line, not the file.
	DayOffset int `yaml:"-"`

	// Source selects where events are fetched from.
	Source string `yaml:"source"`

	// CalendarID is the Google calendar to fetch events from.
	CalendarID string `yaml:"calendar-id"`

	// UserEmail is the email address of the user running the tool.
	UserEmail string `yaml:"user-email"`

	// UserPreferredName is the first name used in one-to-one aliases.
	UserPreferredName string `yaml:"user-preferred-name"`

	// Timezone is the IANA zone agenda times are rendered in. Empty means local.
	Timezone string `yaml:"timezone"`

	// RegularNoteGlob matches the notes of regular meetings on the filesystem.
	RegularNoteGlob string `yaml:"regular-note-glob"`

	// StripEventSuffixes are removed from the end of event names, e.g. " - Weekly".
	StripEventSuffixes []string `yaml:"strip-event-suffixes"`

	// IgnoredColours are calendar color ids whose events are dropped.
	IgnoredColours []string `yaml:"ignored-colours"`

	// IgnoredRegex are patterns matched against event names; matches are dropped.
	IgnoredRegex []string `yaml:"ignored-regex"`

	// MappedFilenames maps event names to notes with a different name.
	MappedFilenames map[string]string `yaml:"mapped-filenames"`

	// InterviewScheduler is the attendee address that marks interview events.
	InterviewScheduler string `yaml:"interview-scheduler"`

	// CalendlyPartner is the name Calendly appends to booked event names.
	CalendlyPartner string `yaml:"calendly-partner"`

	CalDAV CalDAVConfig `yaml:"caldav"`
	ICS    ICSConfig    `yaml:"ics"`
}

// Load reads the YAML configuration at path, applies environment overrides
// and defaults, and validates the result. The file must exist.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("config file does not exist: %s", path)
		}
		return nil, fmt.Errorf("unable to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("unable to parse config file %s: %w", path, err)
	}

	cfg.applyEnv()
	cfg.Normalize()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyEnv overrides file values with environment variables when set.
func (c *Config) applyEnv() {
	if v := os.Getenv("AGENDRR_CALENDAR_ID"); v != "" {
		c.CalendarID = v
	}
	if v := os.Getenv("AGENDRR_TIMEZONE"); v != "" {
		c.Timezone = v
	}
	if v := os.Getenv("CALDAV_USERNAME"); v != "" {
		c.CalDAV.Username = v
	}
	if v := os.Getenv("CALDAV_PASSWORD"); v != "" {
		c.CalDAV.Password = v
	}
}

// Normalize fills in defaults for optional values.
func (c *Config) Normalize() {
	if c.Source == "" {
		c.Source = SourceGoogle
	}
	c.Source = strings.ToLower(c.Source)
	if c.InterviewScheduler == "" {
		c.InterviewScheduler = DefaultInterviewScheduler
	}
	if c.CalendlyPartner == "" {
		c.CalendlyPartner = DefaultCalendlyPartner
	}
	if c.CalDAV.Endpoint == "" {
		c.CalDAV.Endpoint = DefaultCalDAVEndpoint
	}
	if c.MappedFilenames == nil {
		c.MappedFilenames = map[string]string{}
	}
}

// Validate reports whether the configuration can be used for a run.
func (c *Config) Validate() error {
	if c.UserEmail == "" {
		return fmt.Errorf("%w: user-email is required", ErrInvalid)
	}
	if addr, err := mail.ParseAddress(c.UserEmail); err != nil || addr.Address != c.UserEmail {
		return fmt.Errorf("%w: user-email %q is not a valid address", ErrInvalid, c.UserEmail)
	}
	if c.UserPreferredName == "" {
		return fmt.Errorf("%w: user-preferred-name is required", ErrInvalid)
	}
	if _, err := c.Location(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}

	switch c.Source {
	case SourceGoogle:
		if c.CalendarID == "" {
			return fmt.Errorf("%w: calendar-id is required for the google source", ErrInvalid)
		}
	case SourceCalDAV:
		if c.CalDAV.CalendarName == "" {
			return fmt.Errorf("%w: caldav.calendar-name is required for the caldav source", ErrInvalid)
		}
	case SourceICS:
		if c.ICS.Location == "" {
			return fmt.Errorf("%w: ics.location is required for the ics source", ErrInvalid)
		}
	default:
		return fmt.Errorf("%w: unknown source %q", ErrInvalid, c.Source)
	}
	return nil
}

// Location returns the display timezone.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone '%s': %w", c.Timezone, err)
	}
	return loc, nil
}

// UserDomain returns the part of the user's email after the '@'.
func (c *Config) UserDomain() string {
	_, domain, _ := strings.Cut(c.UserEmail, "@")
	return domain
}
