package main

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"
	"golang.org/x/oauth2"

	"agendrr/internal/agenda"
	"agendrr/internal/config"
	"agendrr/internal/filters"
	"agendrr/internal/google"
	"agendrr/internal/handlers"
	"agendrr/internal/icloud"
	"agendrr/internal/ics"
	"agendrr/internal/models"
)

func main() {
	// Load .env file first, but don't error if it doesn't exist.
	_ = godotenv.Load()

	app := &cli.App{
		Name:  "agendrr",
		Usage: "Generate a markdown agenda from a day of calendar events.",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "offset", Aliases: []string{"o"}, Usage: "Number of days forwards/backwards to fetch events for."},
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Value: "agendrr.yaml", Usage: "Path to the configuration file."},
			&cli.StringFlag{Name: "credentials", Value: "credentials.json", Usage: "Path to the Google credentials file."},
			&cli.BoolFlag{Name: "debug", Usage: "Toggle debug output."},
		},
		Action: agendaAction,
		Commands: []*cli.Command{
			authCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		slog.Error("Application failed", "error", err)
		os.Exit(1)
	}
}

func authCommand() *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Authenticate with a Google account to get an API token.",
		Action: func(c *cli.Context) error {
			logger := setupLogger("info")
			logger.Info("Starting Google authentication flow.")

			oauthConfig, err := google.OAuthConfig(googleCredentials(c))
			if err != nil {
				return fmt.Errorf("failed to get google oauth config: %w", err)
			}

			authURL := oauthConfig.AuthCodeURL("state-token", oauth2.AccessTypeOffline)
			fmt.Printf("Go to the following link in your browser then type the "+
				"authorization code: \n%v\n", authURL)

			fmt.Print("Enter Authorization Code: ")
			reader := bufio.NewReader(os.Stdin)
			authCode, _ := reader.ReadString('\n')
			authCode = strings.TrimSpace(authCode)

			token, err := google.TokenFromWeb(c.Context, oauthConfig, authCode)
			if err != nil {
				return fmt.Errorf("unable to retrieve token from web: %w", err)
			}

			tokenFile, err := google.TokenPath()
			if err != nil {
				return err
			}
			if err := google.SaveToken(tokenFile, token); err != nil {
				return fmt.Errorf("failed to save token: %w", err)
			}

			logger.Info("Successfully authenticated and saved token.", "file", tokenFile)
			return nil
		},
	}
}

func agendaAction(c *cli.Context) error {
	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info"
	}
	if c.Bool("debug") {
		logLevel = "debug"
	}
	logger := setupLogger(logLevel).With("run", uuid.New().String())

	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	cfg.DayOffset = c.Int("offset")

	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	// Configuration errors in filters and handlers abort before anything is fetched.
	f, err := filters.Default(cfg)
	if err != nil {
		return fmt.Errorf("failed to build filters: %w", err)
	}
	h, err := handlers.Default(cfg)
	if err != nil {
		return fmt.Errorf("failed to build handlers: %w", err)
	}

	source, err := newSource(c.Context, logger, cfg, loc, googleCredentials(c))
	if err != nil {
		return fmt.Errorf("failed to create %s source: %w", cfg.Source, err)
	}

	builder := models.Builder{
		UserEmail:     cfg.UserEmail,
		StripSuffixes: cfg.StripEventSuffixes,
		Location:      loc,
	}
	a := agenda.New(logger, source, builder, f, h)

	day := time.Now().In(loc).AddDate(0, 0, cfg.DayOffset)
	lines, err := a.Run(c.Context, day)
	if err != nil {
		return err
	}

	fmt.Println(strings.Join(lines, "\n"))
	return nil
}

func newSource(ctx context.Context, logger *slog.Logger, cfg *config.Config, loc *time.Location, creds google.Credentials) (agenda.Source, error) {
	switch cfg.Source {
	case config.SourceCalDAV:
		return icloud.NewClient(ctx, logger, cfg.CalDAV.Endpoint, cfg.CalDAV.Username, cfg.CalDAV.Password, cfg.CalDAV.CalendarName, loc)
	case config.SourceICS:
		return ics.NewFeed(logger, cfg.ICS.Location, loc), nil
	default:
		return google.NewClient(ctx, logger, creds, cfg.CalendarID)
	}
}

func googleCredentials(c *cli.Context) google.Credentials {
	return google.Credentials{
		Path:         c.String("credentials"),
		ClientID:     os.Getenv("GOOGLE_CLIENT_ID"),
		ClientSecret: os.Getenv("GOOGLE_CLIENT_SECRET"),
	}
}

func setupLogger(level string) *slog.Logger {
	var logLevel slog.Level
	switch strings.ToLower(level) {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))
}
