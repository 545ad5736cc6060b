package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Source names accepted by SOURCE / --source.
const (
	SourceListing = "listing"
	SourceRSS     = "rss"
)

// Configuration validation errors.
var (
	ErrNoSubjects         = errors.New("at least one subject is required")
	ErrInvalidMaxResults  = errors.New("max results must be one of 25, 50, 100, 250, 500, 1000, 2000")
	ErrInvalidSource      = errors.New("source must be 'listing' or 'rss'")
	ErrInvalidReportWidth = errors.New("report width must be non-negative")
)

// Config contains runtime configuration values for the listing watcher.
type Config struct {
	Subjects          []string
	MaxResults        int
	Keywords          []string
	Authors           []string
	Source            string
	ScheduleCron      string
	RequestTimeout    time.Duration
	RequestInterval   time.Duration
	DiscordWebhookURL string
	ReportWidth       int
	LogLevel          string
}

// Watchlist is the optional YAML file overriding subjects and needles.
type Watchlist struct {
	Subjects []string `yaml:"subjects"`
	Keywords []string `yaml:"keywords"`
	Authors  []string `yaml:"authors"`
}

const (
	defaultSubject         = "math.NA"
	defaultMaxResults      = 1000
	defaultTimeout         = 30 * time.Second
	defaultRequestInterval = 3 * time.Second
	defaultLogLevel        = "info"
)

// DefaultKeywords are matched against titles when no watchlist is given.
var DefaultKeywords = []string{
	"finite element",
	"plasma",
	"braginskii",
	"precondition",
	"posed",
	"FEEC",
	"Rham",
	"existence",
}

// DefaultAuthors are matched against author lines when no watchlist is given.
var DefaultAuthors = []string{
	"picasso",
	"buffa",
	"hiptmair",
	"bonetti",
	"schöberl",
	"sande",
	"farrell",
}

var validMaxResults = map[int]struct{}{
	25: {}, 50: {}, 100: {}, 250: {}, 500: {}, 1000: {}, 2000: {},
}

// Load builds a Config from a .env file (if any), environment variables and
// the optional WATCHLIST_FILE, with sane defaults.
func Load() (*Config, error) {
	if err := loadDotEnv(); err != nil {
		return nil, err
	}

	cfg := &Config{
		Subjects:          splitList(getenvDefault("ARXIV_SUBJECTS", defaultSubject)),
		MaxResults:        parseIntDefault("ARXIV_MAX_RESULTS", defaultMaxResults),
		Keywords:          append([]string(nil), DefaultKeywords...),
		Authors:           append([]string(nil), DefaultAuthors...),
		Source:            getenvDefault("SOURCE", SourceListing),
		ScheduleCron:      os.Getenv("SCHEDULE_CRON"),
		RequestTimeout:    parseDurationDefault("REQUEST_TIMEOUT", defaultTimeout),
		RequestInterval:   parseDurationDefault("REQUEST_INTERVAL", defaultRequestInterval),
		DiscordWebhookURL: os.Getenv("DISCORD_WEBHOOK_URL"),
		ReportWidth:       parseIntDefault("REPORT_WIDTH", 0),
		LogLevel:          getenvDefault("LOG_LEVEL", defaultLogLevel),
	}

	if path := os.Getenv("WATCHLIST_FILE"); path != "" {
		wl, err := LoadWatchlist(path)
		if err != nil {
			return nil, err
		}
		cfg.ApplyWatchlist(wl)
	}

	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = defaultTimeout
	}

	return cfg, nil
}

// LoadWatchlist reads a YAML watchlist file.
func LoadWatchlist(path string) (*Watchlist, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read watchlist file: %w", err)
	}

	var wl Watchlist
	if err := yaml.Unmarshal(data, &wl); err != nil {
		return nil, fmt.Errorf("failed to parse watchlist YAML: %w", err)
	}

	return &wl, nil
}

// ApplyWatchlist replaces every list the watchlist sets. Omitted lists keep
// their current value; an explicit empty list clears it.
func (c *Config) ApplyWatchlist(wl *Watchlist) {
	if wl == nil {
		return
	}
	if wl.Subjects != nil {
		c.Subjects = wl.Subjects
	}
	if wl.Keywords != nil {
		c.Keywords = wl.Keywords
	}
	if wl.Authors != nil {
		c.Authors = wl.Authors
	}
}

// Validate checks the settings a run depends on.
func (c *Config) Validate() error {
	if len(c.Subjects) == 0 {
		return ErrNoSubjects
	}
	if _, ok := validMaxResults[c.MaxResults]; !ok {
		return fmt.Errorf("%w: got %d", ErrInvalidMaxResults, c.MaxResults)
	}
	switch c.Source {
	case SourceListing, SourceRSS:
	default:
		return fmt.Errorf("%w: got %q", ErrInvalidSource, c.Source)
	}
	if c.ReportWidth < 0 {
		return ErrInvalidReportWidth
	}
	return nil
}

func loadDotEnv() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}
	return nil
}

func getenvDefault(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func parseIntDefault(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			return n
		}
	}
	return fallback
}

func parseFloatDefault(key string, fallback float64) float64 {
	if val := os.Getenv(key); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f
		}
	}
	return fallback
}

func parseDurationDefault(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return fallback
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
