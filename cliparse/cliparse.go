// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package cliparse

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/danielhkuo/ballot-tally/election"
)

// Card backends
const (
	CardMemory = "memory"
	CardRedis  = "redis"
)

type Config struct {
	Port                 int
	DatabaseURL          string
	DatabaseType         string
	ScannerURL           string
	MachineID            string
	ElectionPath         string
	PrecinctID           string
	LiveMode             bool
	StatusPollInterval   time.Duration
	HardwarePollInterval time.Duration
	CastDismissDelay     time.Duration
	ErrorDismissDelay    time.Duration
	CardBackend          string
	RedisAddr            string
}

// PrecinctSelection is the configured precinct, or all precincts when none
// is set.
func (c Config) PrecinctSelection() election.PrecinctSelection {
	if c.PrecinctID == "" {
		return election.AllPrecincts()
	}
	return election.SinglePrecinct(c.PrecinctID)
}

// envKeys maps each flag to the environment variable it falls back to.
var envKeys = map[string]string{
	"p":                 "PORT",
	"d":                 "DATABASE_URL",
	"t":                 "DATABASE_TYPE",
	"scanner":           "SCANNER_URL",
	"machine-id":        "MACHINE_ID",
	"election":          "ELECTION_PATH",
	"precinct":          "PRECINCT_ID",
	"live":              "LIVE_MODE",
	"status-interval":   "STATUS_POLL_INTERVAL",
	"hardware-interval": "HARDWARE_POLL_INTERVAL",
	"cast-dismiss":      "CAST_DISMISS_DELAY",
	"error-dismiss":     "ERROR_DISMISS_DELAY",
	"card":              "CARD_BACKEND",
	"redis":             "REDIS_ADDR",
}

// ParseFlags parses args, falling back to the environment (and a .env file,
// when present) for anything not given on the command line.
func ParseFlags(args []string) (Config, error) {
	var cfg Config

	fs := flag.NewFlagSet("ballot-tally", flag.ContinueOnError)

	// Service
	fs.IntVar(&cfg.Port, "p", 3318, "Server port")
	fs.StringVar(&cfg.DatabaseURL, "d", "file:precinct.db", "Database URL")
	fs.StringVar(&cfg.DatabaseType, "t", "sqlite", "Database type (sqlite or postgres)")

	// Election and machine
	fs.StringVar(&cfg.ElectionPath, "election", "", "Election definition JSON")
	fs.StringVar(&cfg.PrecinctID, "precinct", "", "Precinct id (default all precincts)")
	fs.StringVar(&cfg.MachineID, "machine-id", "", "Machine id (default random)")
	fs.BoolVar(&cfg.LiveMode, "live", false, "Live mode (default test mode)")

	// Scanner
	fs.StringVar(&cfg.ScannerURL, "scanner", "http://localhost:3002", "Scanner service URL")
	fs.DurationVar(&cfg.StatusPollInterval, "status-interval", 500*time.Millisecond, "Scanner status poll interval")
	fs.DurationVar(&cfg.HardwarePollInterval, "hardware-interval", 3*time.Second, "Battery poll interval")
	fs.DurationVar(&cfg.CastDismissDelay, "cast-dismiss", 5*time.Second, "Time the ballot cast screen stays up")
	fs.DurationVar(&cfg.ErrorDismissDelay, "error-dismiss", 5*time.Second, "Time the scanner error screen stays up")

	// Card
	fs.StringVar(&cfg.CardBackend, "card", CardMemory, "Card backend (memory or redis)")
	fs.StringVar(&cfg.RedisAddr, "redis", "localhost:6379", "Redis address for the card bridge")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("failed to load .env: %w", err)
	}

	// Fall back to environment variables
	given := map[string]bool{}
	fs.Visit(func(f *flag.Flag) { given[f.Name] = true })
	for name, key := range envKeys {
		if given[name] {
			continue
		}
		if v := os.Getenv(key); v != "" {
			if err := fs.Set(name, v); err != nil {
				return Config{}, fmt.Errorf("invalid %s env variable: %w", key, err)
			}
		}
	}

	if cfg.MachineID == "" {
		cfg.MachineID = uuid.NewString()
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.ElectionPath == "" {
		return errors.New("election definition required (use -election or ELECTION_PATH env)")
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	if c.DatabaseType != "sqlite" && c.DatabaseType != "postgres" {
		return fmt.Errorf("unknown database type %q", c.DatabaseType)
	}
	if c.CardBackend != CardMemory && c.CardBackend != CardRedis {
		return fmt.Errorf("unknown card backend %q", c.CardBackend)
	}
	for name, d := range map[string]time.Duration{
		"status-interval":   c.StatusPollInterval,
		"hardware-interval": c.HardwarePollInterval,
		"cast-dismiss":      c.CastDismissDelay,
		"error-dismiss":     c.ErrorDismissDelay,
	} {
		if d <= 0 {
			return fmt.Errorf("%s must be positive, got %s", name, d)
		}
	}
	return nil
}
