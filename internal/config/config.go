// Package config assembles amcdrill's runtime configuration from defaults,
// an optional .env file and AMCDRILL_* environment variables. Command-line
// flags are applied on top by the cmd package.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/abhisek/amcdrill/internal/logging"
)

// DefaultAPIBaseURL is where the content and persistence services listen
// in a local development setup.
const DefaultAPIBaseURL = "http://127.0.0.1:5001"

// Config holds all runtime configuration.
type Config struct {
	// APIBaseURL is the base URL of the content and persistence services.
	APIBaseURL string

	// Token is the bearer token sent with every request. Optional.
	Token string

	// User keys the local stats mirror and the journal. When empty it is
	// taken from the token.
	User string

	// DBPath is the SQLite file. Empty means store.DefaultDBPath.
	DBPath string

	// LogFile receives log output while the TUI owns the terminal.
	LogFile string

	Verbose bool

	// Offline journals sessions locally only, skipping the remote save.
	Offline bool

	Session SessionTunables
	Save    SaveTunables

	// HTTPTimeout bounds a single HTTP request. Default: 10s.
	HTTPTimeout time.Duration
}

// SessionTunables shape the practice-session timing.
type SessionTunables struct {
	FetchInterval    time.Duration // min spacing of next-problem fetches
	AutoAdvanceDelay time.Duration // contest mode pause after an answer
	TimeFloor        time.Duration // floor for measured answer time
	MaxProblems      int
}

// SaveTunables shape the persistence retries.
type SaveTunables struct {
	Debounce    time.Duration
	MaxAttempts int
	BackoffStep time.Duration
}

// DefaultConfig returns a Config with the standard tuning.
func DefaultConfig() Config {
	return Config{
		APIBaseURL: DefaultAPIBaseURL,
		Session: SessionTunables{
			FetchInterval:    500 * time.Millisecond,
			AutoAdvanceDelay: 1500 * time.Millisecond,
			TimeFloor:        100 * time.Millisecond,
			MaxProblems:      25,
		},
		Save: SaveTunables{
			Debounce:    time.Second,
			MaxAttempts: 3,
			BackoffStep: time.Second,
		},
		HTTPTimeout: 10 * time.Second,
	}
}

// LoadDotEnv loads KEY=VALUE pairs from the given files (".env" when none
// are given) into the process environment. Variables already set are not
// overridden and missing files are skipped.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if _, err := os.Stat(p); errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return fmt.Errorf("load %s: %w", p, err)
		}
	}
	return nil
}

// FromEnv builds a Config from environment variables, falling back to
// defaults for unset values. Malformed values are logged and ignored.
func FromEnv() Config {
	cfg := DefaultConfig()

	if v := os.Getenv("AMCDRILL_API_URL"); v != "" {
		cfg.APIBaseURL = v
	}
	if v := os.Getenv("AMCDRILL_TOKEN"); v != "" {
		cfg.Token = v
	}
	if v := os.Getenv("AMCDRILL_USER"); v != "" {
		cfg.User = v
	}
	if v := os.Getenv("AMCDRILL_DB"); v != "" {
		cfg.DBPath = v
	}
	if v := os.Getenv("AMCDRILL_LOG_FILE"); v != "" {
		cfg.LogFile = v
	}
	envBool("AMCDRILL_VERBOSE", &cfg.Verbose)
	envBool("AMCDRILL_OFFLINE", &cfg.Offline)

	envDuration("AMCDRILL_FETCH_INTERVAL", &cfg.Session.FetchInterval)
	envDuration("AMCDRILL_AUTO_ADVANCE", &cfg.Session.AutoAdvanceDelay)
	envInt("AMCDRILL_MAX_PROBLEMS", &cfg.Session.MaxProblems)
	envDuration("AMCDRILL_SAVE_DEBOUNCE", &cfg.Save.Debounce)
	envInt("AMCDRILL_SAVE_ATTEMPTS", &cfg.Save.MaxAttempts)
	envDuration("AMCDRILL_SAVE_BACKOFF", &cfg.Save.BackoffStep)
	envDuration("AMCDRILL_HTTP_TIMEOUT", &cfg.HTTPTimeout)

	return cfg
}

// Validate checks that the configuration is usable.
func (c Config) Validate() error {
	u, err := url.Parse(c.APIBaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("AMCDRILL_API_URL must be an http(s) URL, got %q", c.APIBaseURL)
	}
	if c.Session.MaxProblems < 1 {
		return fmt.Errorf("max problems must be positive, got %d", c.Session.MaxProblems)
	}
	if c.Session.FetchInterval < 0 || c.Session.AutoAdvanceDelay < 0 {
		return errors.New("session intervals must not be negative")
	}
	if c.Save.MaxAttempts < 1 {
		return fmt.Errorf("save attempts must be at least 1, got %d", c.Save.MaxAttempts)
	}
	if c.Save.Debounce < 0 || c.Save.BackoffStep < 0 {
		return errors.New("save delays must not be negative")
	}
	if c.HTTPTimeout <= 0 {
		return fmt.Errorf("http timeout must be positive, got %s", c.HTTPTimeout)
	}
	return nil
}

func envBool(key string, dst *bool) {
	v := os.Getenv(key)
	if v == "" {
		return
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		logging.Warn("ignoring %s=%q: %v", key, v, err)
		return
	}
	*dst = b
}

func envInt(key string, dst *int) {
	v := os.Getenv(key)
	if v == "" {
		return
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		logging.Warn("ignoring %s=%q: %v", key, v, err)
		return
	}
	*dst = n
}

func envDuration(key string, dst *time.Duration) {
	v := os.Getenv(key)
	if v == "" {
		return
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		logging.Warn("ignoring %s=%q: %v", key, v, err)
		return
	}
	*dst = d
}
