// Package config loads the auction engine configuration from environment variables.
package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Store backends
const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
)

// Config holds every setting of the process
type Config struct {
	// --- HTTP ---
	Port string `envconfig:"PORT" default:"8080"`

	// --- Logging ---
	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat string `envconfig:"LOG_FORMAT" default:"json"`

	// --- Auction rules ---
	AuctionDuration   time.Duration `envconfig:"AUCTION_DURATION" default:"5m"`
	MinIncrement      int64         `envconfig:"AUCTION_MIN_INCREMENT" default:"100000"`
	SnipeWindow       time.Duration `envconfig:"AUCTION_SNIPE_WINDOW" default:"10s"`
	SnipeExtension    time.Duration `envconfig:"AUCTION_SNIPE_EXTENSION" default:"15s"`
	SettlementRetries int           `envconfig:"SETTLEMENT_RETRIES" default:"3"`
	SettlementBackoff time.Duration `envconfig:"SETTLEMENT_BACKOFF" default:"1s"`
	SweepSchedule     string        `envconfig:"SWEEP_SCHEDULE" default:"@every 30s"`

	// --- Admin ---
	AdminIDsRaw string   `envconfig:"ADMIN_IDS" required:"true"`
	AdminIDs    []string `envconfig:"-"`

	// --- Storage ---
	StoreBackend string `envconfig:"STORE_BACKEND" default:"memory"`
	DBHost       string `envconfig:"DB_HOST" default:"localhost"`
	DBPort       int    `envconfig:"DB_PORT" default:"5432"`
	DBUser       string `envconfig:"DB_USER" default:"league"`
	DBPassword   string `envconfig:"DB_PASSWORD"`
	DBName       string `envconfig:"DB_NAME" default:"league"`
	DBSSLMode    string `envconfig:"DB_SSLMODE" default:"disable"`
	DBMaxConns   int32  `envconfig:"DB_MAX_CONNS" default:"20"`
	DBMinConns   int32  `envconfig:"DB_MIN_CONNS" default:"2"`

	// --- Memory backend seed data ---
	SeedTeamsRaw   string           `envconfig:"SEED_TEAMS"`
	SeedPlayersRaw string           `envconfig:"SEED_PLAYERS"`
	SeedTeams      map[string]int64 `envconfig:"-"`
	// player id -> owning team id, empty for free agents
	SeedPlayers map[string]string `envconfig:"-"`
}

// Addr returns the listen address for the HTTP server
func (c *Config) Addr() string {
	return ":" + c.Port
}

// DatabaseDSN returns the PostgreSQL connection string
func (c *Config) DatabaseDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName, c.DBSSLMode,
	)
}

// Validate checks cross-field constraints envconfig cannot express
func (c *Config) Validate() error {
	if c.AuctionDuration <= 0 {
		return fmt.Errorf("AUCTION_DURATION must be > 0")
	}
	if c.MinIncrement < 1 {
		return fmt.Errorf("AUCTION_MIN_INCREMENT must be >= 1")
	}
	if c.SnipeWindow < 0 || c.SnipeExtension < 0 {
		return fmt.Errorf("AUCTION_SNIPE_WINDOW and AUCTION_SNIPE_EXTENSION must not be negative")
	}
	if c.SettlementRetries < 1 {
		return fmt.Errorf("SETTLEMENT_RETRIES must be >= 1")
	}
	if len(c.AdminIDs) == 0 {
		return fmt.Errorf("ADMIN_IDS must list at least one caller")
	}
	switch c.StoreBackend {
	case BackendMemory:
	case BackendPostgres:
		if c.DBMaxConns <= 0 || c.DBMinConns < 0 || c.DBMinConns > c.DBMaxConns {
			return fmt.Errorf("invalid DB_MIN_CONNS/DB_MAX_CONNS")
		}
	default:
		return fmt.Errorf("unknown STORE_BACKEND %q", c.StoreBackend)
	}
	return nil
}

// Load reads environment variables into a validated Config
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	cfg.AdminIDs = parseCSV(cfg.AdminIDsRaw)

	teams, err := parseTeamBalances(cfg.SeedTeamsRaw)
	if err != nil {
		return nil, fmt.Errorf("SEED_TEAMS parse: %w", err)
	}
	cfg.SeedTeams = teams

	players, err := parsePairs(cfg.SeedPlayersRaw)
	if err != nil {
		return nil, fmt.Errorf("SEED_PLAYERS parse: %w", err)
	}
	cfg.SeedPlayers = players

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func parseCSV(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// parsePairs reads "key=value,key=value"; the value may be empty
func parsePairs(s string) (map[string]string, error) {
	out := make(map[string]string)
	for _, p := range parseCSV(s) {
		key, value, ok := strings.Cut(p, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("bad pair %q", p)
		}
		out[key] = strings.TrimSpace(value)
	}
	return out, nil
}

func parseTeamBalances(s string) (map[string]int64, error) {
	pairs, err := parsePairs(s)
	if err != nil {
		return nil, err
	}
	out := make(map[string]int64, len(pairs))
	for team, raw := range pairs {
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("bad balance for %q: %w", team, err)
		}
		if v < 0 {
			return nil, fmt.Errorf("negative balance for %q", team)
		}
		out[team] = v
	}
	return out, nil
}
