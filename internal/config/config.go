package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"

	"github.com/i474232898/pass-weather-report/internal/weather"
)

// DefaultStations is the station list used when STATIONS is unset.
const DefaultStations = "KS52:met:Methow Valley,HRPW1:snotel:Harts Pass SNOTEL"

var validate = validator.New()

type AppConfig struct {
	SynopticToken   string `validate:"required"`
	SynopticBaseURL string `validate:"required,url"`

	// Spreadsheet target. Only required when rows are actually written.
	CredentialsFile string
	SheetID         string
	SheetName       string
	// SheetGID applies only when SheetName is empty; a named tab's id is
	// read from the spreadsheet.
	SheetGID   int64 `validate:"gte=0"`
	RowsPerDay int   `validate:"gte=1"`
	Coloring   bool

	Stations []weather.Station `validate:"required,min=1,dive"`

	HTTPTimeout time.Duration `validate:"gt=0"`
	// DayOffset is how many days before today (UTC) a run reports on.
	DayOffset int `validate:"gte=0"`
	// RunAt is the daily UTC time of the scheduled run, "HH:MM".
	RunAt         string `validate:"required"`
	ReportHistory int    `validate:"gte=1"`

	Port      string `validate:"required"`
	LogLevel  string `validate:"oneof=debug info warn warning error"`
	LogFormat string `validate:"oneof=json text"`
}

// LoadDotEnv loads a .env file from the working directory if present.
func LoadDotEnv() {
	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file loaded", "error", err)
	}
}

// Load reads configuration from environment with sensible defaults.
func Load() (*AppConfig, error) {
	cfg := &AppConfig{
		SynopticToken:   os.Getenv("SYNOPTIC_TOKEN"),
		SynopticBaseURL: getenvDefault("SYNOPTIC_BASE_URL", "https://api.synopticdata.com/v2"),
		CredentialsFile: os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"),
		SheetID:         os.Getenv("SHEET_ID"),
		SheetName:       os.Getenv("SHEET_NAME"),
		RunAt:           getenvDefault("RUN_AT", "14:00"),
		Port:            getenvDefault("PORT", "8080"),
		LogLevel:        strings.ToLower(getenvDefault("LOG_LEVEL", "info")),
		LogFormat:       strings.ToLower(getenvDefault("LOG_FORMAT", "json")),
	}

	stations, err := parseStations(getenvDefault("STATIONS", DefaultStations))
	if err != nil {
		return nil, fmt.Errorf("invalid STATIONS: %w", err)
	}
	cfg.Stations = stations

	if cfg.HTTPTimeout, err = getenvDuration("HTTP_TIMEOUT", 15*time.Second); err != nil {
		return nil, err
	}
	if cfg.SheetGID, err = getenvInt64("SHEET_GID", 0); err != nil {
		return nil, err
	}
	if cfg.RowsPerDay, err = getenvInt("SHEET_ROWS_PER_DAY", len(stations)); err != nil {
		return nil, err
	}
	if cfg.DayOffset, err = getenvInt("DAY_OFFSET", 1); err != nil {
		return nil, err
	}
	if cfg.ReportHistory, err = getenvInt("REPORT_HISTORY", 30); err != nil {
		return nil, err
	}
	if cfg.Coloring, err = getenvBool("SHEET_COLORING", true); err != nil {
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// RequireSheet checks the settings needed to write to the spreadsheet.
func (c *AppConfig) RequireSheet() error {
	if c.SheetID == "" {
		return errors.New("SHEET_ID is required")
	}
	if c.CredentialsFile == "" {
		return errors.New("GOOGLE_APPLICATION_CREDENTIALS is required")
	}
	return nil
}

// RunAtClock parses RunAt into hour and minute.
func (c *AppConfig) RunAtClock() (int, int, error) {
	t, err := time.Parse("15:04", c.RunAt)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid RUN_AT %q: want HH:MM", c.RunAt)
	}
	return t.Hour(), t.Minute(), nil
}

func (c *AppConfig) validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return fmt.Errorf("invalid %s: failed %q check", envName(verrs[0].StructField()), verrs[0].Tag())
		}
		return err
	}
	if _, _, err := c.RunAtClock(); err != nil {
		return err
	}
	return nil
}

var envNames = map[string]string{
	"SynopticToken":   "SYNOPTIC_TOKEN",
	"SynopticBaseURL": "SYNOPTIC_BASE_URL",
	"SheetGID":        "SHEET_GID",
	"RowsPerDay":      "SHEET_ROWS_PER_DAY",
	"Stations":        "STATIONS",
	"HTTPTimeout":     "HTTP_TIMEOUT",
	"DayOffset":       "DAY_OFFSET",
	"RunAt":           "RUN_AT",
	"ReportHistory":   "REPORT_HISTORY",
	"Port":            "PORT",
	"LogLevel":        "LOG_LEVEL",
	"LogFormat":       "LOG_FORMAT",
}

func envName(field string) string {
	if n, ok := envNames[field]; ok {
		return n
	}
	return "STATIONS"
}

// parseStations reads "STID:kind[:Display Name]" entries separated by commas.
func parseStations(s string) ([]weather.Station, error) {
	var stations []weather.Station
	seen := make(map[string]bool)
	for _, entry := range strings.Split(s, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		parts := strings.SplitN(entry, ":", 3)
		if len(parts) < 2 {
			return nil, fmt.Errorf("station %q: want STID:kind[:name]", entry)
		}

		id := strings.ToUpper(strings.TrimSpace(parts[0]))
		if id == "" {
			return nil, fmt.Errorf("station %q: empty id", entry)
		}
		if seen[id] {
			return nil, fmt.Errorf("station %s listed twice", id)
		}
		seen[id] = true

		kind, err := weather.ParseStationKind(strings.ToLower(strings.TrimSpace(parts[1])))
		if err != nil {
			return nil, fmt.Errorf("station %s: %w", id, err)
		}

		st := weather.Station{ID: id, Kind: kind}
		if len(parts) == 3 {
			st.Name = strings.TrimSpace(parts[2])
		}
		stations = append(stations, st)
	}
	if len(stations) == 0 {
		return nil, errors.New("no stations listed")
	}
	return stations, nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func getenvInt64(key string, def int64) (int64, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func getenvBool(key string, def bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("invalid %s: %w", key, err)
	}
	return b, nil
}

func getenvDuration(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
