package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/site-cluster-map/internal/domain"
	"github.com/couchcryptid/site-cluster-map/internal/icon"
	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Record and site sources. CSV paths take precedence over the sheet.
	SheetsBaseURL       string
	SheetsSpreadsheetID string
	SheetsRecordsSheet  string
	SheetsSitesSheet    string
	SheetsTimeout       time.Duration
	RecordsCSV          string
	SitesCSV            string

	Columns        domain.ColumnMapping
	Icons          icon.Options
	DisplayNames   map[string]string
	ReloadInterval time.Duration

	// Mapbox geocoding for site rows without coordinates.
	MapboxToken     string
	MapboxEnabled   bool
	MapboxTimeout   time.Duration
	MapboxCacheSize int
	MapboxRegion    string

	// Optional Kafka sink for built features.
	KafkaEnabled   bool
	KafkaBrokers   []string
	KafkaSinkTopic string
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	sheetsTimeout, err := parseDuration("SHEETS_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}
	mapboxTimeout, err := parseDuration("MAPBOX_TIMEOUT", "5s")
	if err != nil {
		return nil, err
	}

	reloadInterval, err := time.ParseDuration(sharedcfg.EnvOrDefault("RELOAD_INTERVAL", "0s"))
	if err != nil || reloadInterval < 0 {
		return nil, errors.New("invalid RELOAD_INTERVAL")
	}

	columns, err := parseColumns()
	if err != nil {
		return nil, err
	}

	icons, err := parseIconOptions()
	if err != nil {
		return nil, err
	}

	displayNames, err := parseDisplayNames(os.Getenv("CATEGORY_LABELS"))
	if err != nil {
		return nil, err
	}

	mapboxToken := os.Getenv("MAPBOX_TOKEN")
	mapboxEnabled := mapboxToken != ""
	if v := os.Getenv("MAPBOX_ENABLED"); v != "" {
		mapboxEnabled = v == "true"
	}

	cfg := &Config{
		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		SheetsBaseURL:       sharedcfg.EnvOrDefault("SHEETS_BASE_URL", "https://docs.google.com/spreadsheets/d"),
		SheetsSpreadsheetID: os.Getenv("SHEETS_SPREADSHEET_ID"),
		SheetsRecordsSheet:  os.Getenv("SHEETS_RECORDS_SHEET"),
		SheetsSitesSheet:    sharedcfg.EnvOrDefault("SHEETS_SITES_SHEET", "Sheet2"),
		SheetsTimeout:       sheetsTimeout,
		RecordsCSV:          os.Getenv("RECORDS_CSV"),
		SitesCSV:            os.Getenv("SITES_CSV"),

		Columns:        columns,
		Icons:          icons,
		DisplayNames:   displayNames,
		ReloadInterval: reloadInterval,

		MapboxToken:     mapboxToken,
		MapboxEnabled:   mapboxEnabled,
		MapboxTimeout:   mapboxTimeout,
		MapboxCacheSize: parsePositiveInt("MAPBOX_CACHE_SIZE", 1000),
		MapboxRegion:    os.Getenv("MAPBOX_REGION"),

		KafkaEnabled:   os.Getenv("KAFKA_ENABLED") == "true",
		KafkaBrokers:   sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaSinkTopic: sharedcfg.EnvOrDefault("KAFKA_SINK_TOPIC", "site-features"),
	}

	if (cfg.RecordsCSV == "") != (cfg.SitesCSV == "") {
		return nil, errors.New("RECORDS_CSV and SITES_CSV must be set together")
	}
	if cfg.RecordsCSV == "" && cfg.SheetsSpreadsheetID == "" {
		return nil, errors.New("SHEETS_SPREADSHEET_ID is required when RECORDS_CSV is not set")
	}
	if cfg.MapboxEnabled && cfg.MapboxToken == "" {
		return nil, errors.New("MAPBOX_ENABLED is true but MAPBOX_TOKEN is not set")
	}
	if cfg.KafkaEnabled {
		if len(cfg.KafkaBrokers) == 0 {
			return nil, errors.New("KAFKA_BROKERS is required when KAFKA_ENABLED is true")
		}
		if cfg.KafkaSinkTopic == "" {
			return nil, errors.New("KAFKA_SINK_TOPIC is required when KAFKA_ENABLED is true")
		}
	}

	return cfg, nil
}

// UseCSV reports whether records and sites come from local files.
func (c *Config) UseCSV() bool {
	return c.RecordsCSV != ""
}

func parseDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault(key, def))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}

func parseColumns() (domain.ColumnMapping, error) {
	def := domain.DefaultColumnMapping()
	var m domain.ColumnMapping
	var err error
	if m.Site, err = parseInt("COLUMN_SITE", def.Site); err != nil {
		return m, err
	}
	if m.Category, err = parseInt("COLUMN_CATEGORY", def.Category); err != nil {
		return m, err
	}
	if m.Subcategory, err = parseInt("COLUMN_SUBCATEGORY", def.Subcategory); err != nil {
		return m, err
	}
	if err := m.Validate(); err != nil {
		return m, err
	}
	return m, nil
}

func parseIconOptions() (icon.Options, error) {
	opts := icon.DefaultOptions()
	var err error
	if opts.RMax, err = parseInt("RMAX", opts.RMax); err != nil {
		return opts, err
	}
	if opts.StrokeWidth, err = parseInt("STROKE_WIDTH", opts.StrokeWidth); err != nil {
		return opts, err
	}
	if opts.CategoryField, err = domain.ParseCategoryField(sharedcfg.EnvOrDefault("CATEGORY_FIELD", string(opts.CategoryField))); err != nil {
		return opts, fmt.Errorf("invalid CATEGORY_FIELD: %w", err)
	}
	if opts.IconField, err = domain.ParseCategoryField(sharedcfg.EnvOrDefault("ICON_FIELD", string(opts.IconField))); err != nil {
		return opts, fmt.Errorf("invalid ICON_FIELD: %w", err)
	}
	if err := opts.Validate(); err != nil {
		return opts, fmt.Errorf("invalid icon settings (RMAX/STROKE_WIDTH): %w", err)
	}
	return opts, nil
}

func parseInt(key string, def int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func parsePositiveInt(key string, def int) int {
	if s := os.Getenv(key); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			return n
		}
	}
	return def
}

// parseDisplayNames reads "value=Label;value2=Label 2" pairs. Labels are used
// in cluster wedge titles in place of the raw category value.
func parseDisplayNames(s string) (map[string]string, error) {
	names := map[string]string{}
	for _, pair := range strings.Split(s, ";") {
		if strings.TrimSpace(pair) == "" {
			continue
		}
		key, label, ok := strings.Cut(pair, "=")
		key, label = strings.TrimSpace(key), strings.TrimSpace(label)
		if !ok || key == "" || label == "" {
			return nil, fmt.Errorf("invalid CATEGORY_LABELS entry %q: want value=label", pair)
		}
		names[key] = label
	}
	return names, nil
}
