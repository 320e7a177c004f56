package config

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"
)

const (
	BackendClickHouse = "clickhouse"
	BackendPostgres   = "postgres"
)

var datasetPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Config holds all configuration for the view counter, read from the
// environment.
type Config struct {
	Port        string
	MetricsAddr string
	GinMode     string

	// Analytics backend
	Backend  string
	Token    string
	OrgID    string
	Dataset  string
	Username string
	CHHost   string
	CHPort   int
	PGURL    string
	Migrate  bool

	QueryTimeout  time.Duration
	IngestTimeout time.Duration

	// Routing behaviour
	ErrorStatus int
	StrictIDs   bool
	SelfTrack   bool
	CORSOrigin  string

	LogLevel  string
	LogFormat string
	LogFile   string
}

// Load reads and validates configuration. ANALYTICS_TOKEN, ANALYTICS_ORG_ID
// and ANALYTICS_DATASET are required.
func Load() (*Config, error) {
	var errs []error

	cfg := &Config{
		Port:        getEnv("PORT", "8080"),
		MetricsAddr: os.Getenv("METRICS_ADDR"),
		GinMode:     os.Getenv("GIN_MODE"),
		Backend:     strings.ToLower(getEnv("ANALYTICS_BACKEND", BackendClickHouse)),
		Token:       os.Getenv("ANALYTICS_TOKEN"),
		OrgID:       os.Getenv("ANALYTICS_ORG_ID"),
		Dataset:     os.Getenv("ANALYTICS_DATASET"),
		Username:    getEnv("ANALYTICS_USERNAME", "default"),
		CHHost:      getEnv("CLICKHOUSE_HOST", "localhost"),
		PGURL:       os.Getenv("DATABASE_URL"),
		CORSOrigin:  getEnv("FE_ORIGIN", "*"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		LogFormat:   getEnv("LOG_FORMAT", "json"),
		LogFile:     os.Getenv("LOG_FILE"),
	}
	if _, ok := os.LookupEnv("METRICS_ADDR"); !ok {
		cfg.MetricsAddr = ":9090"
	}

	if cfg.Token == "" {
		errs = append(errs, errors.New("ANALYTICS_TOKEN is not set"))
	}
	if cfg.OrgID == "" {
		errs = append(errs, errors.New("ANALYTICS_ORG_ID is not set"))
	}
	if cfg.Dataset == "" {
		errs = append(errs, errors.New("ANALYTICS_DATASET is not set"))
	} else if !datasetPattern.MatchString(cfg.Dataset) {
		errs = append(errs, fmt.Errorf("ANALYTICS_DATASET %q must match %s", cfg.Dataset, datasetPattern))
	}

	switch cfg.Backend {
	case BackendClickHouse, BackendPostgres:
	default:
		errs = append(errs, fmt.Errorf("ANALYTICS_BACKEND %q must be %q or %q", cfg.Backend, BackendClickHouse, BackendPostgres))
	}

	if _, err := strconv.Atoi(cfg.Port); err != nil {
		errs = append(errs, fmt.Errorf("invalid PORT %q: %w", cfg.Port, err))
	}

	var err error
	if cfg.CHPort, err = getInt("CLICKHOUSE_NATIVE_PORT", 9000); err != nil {
		errs = append(errs, err)
	}
	if cfg.QueryTimeout, err = getDuration("QUERY_TIMEOUT", 10*time.Second); err != nil {
		errs = append(errs, err)
	}
	if cfg.IngestTimeout, err = getDuration("INGEST_TIMEOUT", 15*time.Second); err != nil {
		errs = append(errs, err)
	}
	if cfg.ErrorStatus, err = getInt("ERROR_STATUS", http.StatusBadRequest); err != nil {
		errs = append(errs, err)
	} else if http.StatusText(cfg.ErrorStatus) == "" {
		errs = append(errs, fmt.Errorf("ERROR_STATUS %d is not an HTTP status code", cfg.ErrorStatus))
	}
	if cfg.StrictIDs, err = getBool("STRICT_IDS", true); err != nil {
		errs = append(errs, err)
	}
	if cfg.SelfTrack, err = getBool("SELF_TRACK", true); err != nil {
		errs = append(errs, err)
	}
	if cfg.Migrate, err = getBool("AUTO_MIGRATE", false); err != nil {
		errs = append(errs, err)
	}

	if err := errors.Join(errs...); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// PostgresURL returns DATABASE_URL, or a DSN built from the analytics
// credentials when it is unset.
func (c *Config) PostgresURL() string {
	if c.PGURL != "" {
		return c.PGURL
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.Username, c.Token),
		Host:     "localhost:5432",
		Path:     "/" + c.OrgID,
		RawQuery: "sslmode=disable",
	}
	return u.String()
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	return n, nil
}

func getBool(key string, defaultValue bool) (bool, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	return b, nil
}

func getDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s must be positive, got %s", key, value)
	}
	return d, nil
}
