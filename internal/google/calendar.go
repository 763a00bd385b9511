package google

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"agendrr/internal/models"
)

const redirectURL = "urn:ietf:wg:oauth:2.0:oob"

// CalendarClient provides a client for reading events from the Google Calendar API.
type CalendarClient struct {
	service    *calendar.Service
	logger     *slog.Logger
	calendarID string
}

// Credentials locate the OAuth client used to talk to Google.
// ClientID and ClientSecret take precedence over the credentials file.
type Credentials struct {
	Path         string
	ClientID     string
	ClientSecret string
}

// NewClient creates a new Google Calendar client for the given calendar.
// It requires a token previously stored by the auth flow.
func NewClient(ctx context.Context, logger *slog.Logger, creds Credentials, calendarID string) (*CalendarClient, error) {
	config, err := OAuthConfig(creds)
	if err != nil {
		return nil, fmt.Errorf("failed to get OAuth config: %w", err)
	}

	tokenFile, err := TokenPath()
	if err != nil {
		return nil, err
	}
	token, err := tokenFromFile(tokenFile)
	if err != nil {
		return nil, fmt.Errorf("could not load token %s: %w. Please run the 'auth' command first", tokenFile, err)
	}

	client := config.Client(ctx, token)
	service, err := calendar.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("failed to create calendar service: %w", err)
	}

	return &CalendarClient{service: service, logger: logger, calendarID: calendarID}, nil
}

// Events fetches the timed events of the calendar starting between start and end.
func (c *CalendarClient) Events(ctx context.Context, start, end time.Time) ([]models.Record, error) {
	c.logger.Debug("Fetching events", "calendarID", c.calendarID, "start", start, "end", end)

	var items []*calendar.Event
	err := c.service.Events.List(c.calendarID).
		ShowDeleted(false).
		SingleEvents(true).
		EventTypes("default").
		TimeMin(start.Format(time.RFC3339)).
		TimeMax(end.Format(time.RFC3339)).
		OrderBy("startTime").
		Pages(ctx, func(page *calendar.Events) error {
			items = append(items, page.Items...)
			return nil
		})
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve events: %w", err)
	}

	c.logger.Info("Successfully fetched events from Google Calendar", "count", len(items), "calendarID", c.calendarID)
	return toRecords(c.logger, items), nil
}

// toRecords converts Google Calendar events to records.
func toRecords(logger *slog.Logger, items []*calendar.Event) []models.Record {
	records := make([]models.Record, 0, len(items))
	for _, item := range items {
		// All-day events have a date but no start time.
		if item.Start == nil || item.Start.DateTime == "" {
			continue
		}

		startTime, err := time.Parse(time.RFC3339, item.Start.DateTime)
		if err != nil {
			logger.Warn("Skipping event with unparseable start time", "title", item.Summary, "start", item.Start.DateTime)
			continue
		}

		color := item.ColorId
		if color == "" {
			color = models.NoColor
		}

		var attendees []string
		for _, a := range item.Attendees {
			attendees = append(attendees, a.Email)
		}

		records = append(records, models.Record{
			Start:       startTime,
			Name:        item.Summary,
			Description: item.Description,
			Color:       color,
			Attendees:   attendees,
		})
	}
	return records
}

// OAuthConfig reads credentials and returns an OAuth2 config.
// It prioritizes the client id and secret over the credentials file.
func OAuthConfig(creds Credentials) (*oauth2.Config, error) {
	if creds.ClientID != "" && creds.ClientSecret != "" {
		return &oauth2.Config{
			ClientID:     creds.ClientID,
			ClientSecret: creds.ClientSecret,
			RedirectURL:  redirectURL,
			Scopes:       []string{calendar.CalendarReadonlyScope},
			Endpoint:     google.Endpoint,
		}, nil
	}

	b, err := os.ReadFile(creds.Path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%s not found. Please provide GOOGLE_CLIENT_ID and GOOGLE_CLIENT_SECRET env vars or pass --credentials", creds.Path)
		}
		return nil, fmt.Errorf("unable to read client secret file: %w", err)
	}

	config, err := google.ConfigFromJSON(b, calendar.CalendarReadonlyScope)
	if err != nil {
		return nil, fmt.Errorf("unable to parse client secret file to config: %w", err)
	}
	config.RedirectURL = redirectURL // For desktop app flow
	return config, nil
}

// TokenFromWeb is called by the auth flow to retrieve a token.
func TokenFromWeb(ctx context.Context, config *oauth2.Config, authCode string) (*oauth2.Token, error) {
	return config.Exchange(ctx, authCode)
}

// TokenPath returns where the OAuth token is cached:
// $XDG_CONFIG_HOME/agendrr/token.json.
func TokenPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("unable to locate config directory: %w", err)
	}
	return filepath.Join(dir, "agendrr", "token.json"), nil
}

// SaveToken saves a token to a file path, creating its directory if needed.
func SaveToken(path string, token *oauth2.Token) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("unable to create token directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("unable to create token file: %w", err)
	}
	defer f.Close()
	return json.NewEncoder(f).Encode(token)
}

// tokenFromFile retrieves a token from a local file.
func tokenFromFile(file string) (*oauth2.Token, error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	tok := &oauth2.Token{}
	err = json.NewDecoder(f).Decode(tok)
	return tok, err
}
