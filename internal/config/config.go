// Package config loads service settings from an optional YAML file and the
// environment. Environment variables win over the file.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"linebalance/internal/auth"
	"linebalance/internal/model"
	"linebalance/internal/rational"
)

// EnvFile names the variable holding the YAML config path.
const EnvFile = "LINEBALANCE_CONFIG"

type Config struct {
	Port        string `yaml:"port"`
	DatabaseURL string `yaml:"databaseUrl"`
	// Migrate applies db/migrations on startup when a database is configured.
	Migrate      bool   `yaml:"migrate"`
	MigrationDir string `yaml:"migrationDir"`
	RedisURL     string `yaml:"redisUrl"`
	RateRPS      float64 `yaml:"rateRps"`
	RateBurst    int     `yaml:"rateBurst"`
	Solver       model.SolverConfig `yaml:"solver"`
	Auth         auth.Options       `yaml:"auth"`
	Webhook      Webhook            `yaml:"webhook"`
}

// Webhook configures result notifications for saved-line solves. An empty
// URL disables them.
type Webhook struct {
	URL         string `yaml:"url"`
	Secret      string `yaml:"secret"`
	MaxAttempts int    `yaml:"maxAttempts"`
}

// Default returns the settings used when nothing is configured.
func Default() Config {
	return Config{
		Port:         "8080",
		Migrate:      true,
		MigrationDir: "db/migrations",
		RateBurst:    5,
		Auth:         auth.Options{Mode: auth.ModeDev},
		Webhook:      Webhook{MaxAttempts: 5},
		Solver: model.SolverConfig{
			TimeBudgetMs:   10000,
			MaxDenominator: rational.DefaultMaxDenominator,
		},
	}
}

// Load reads the file named by LINEBALANCE_CONFIG, if any, then applies the
// process environment.
func Load() (Config, error) {
	return LoadFrom(os.Getenv(EnvFile), os.Getenv)
}

// LoadFrom is Load with an explicit file path and variable lookup.
func LoadFrom(path string, getenv func(string) string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("config: %w", err)
		}
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
			return cfg, fmt.Errorf("config: %s: %w", path, err)
		}
	}
	if err := cfg.applyEnv(getenv); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

func (c *Config) applyEnv(getenv func(string) string) error {
	str := func(key string, dst *string) {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			*dst = v
		}
	}
	str("PORT", &c.Port)
	str("DATABASE_URL", &c.DatabaseURL)
	str("REDIS_URL", &c.RedisURL)
	str("AUTH_MODE", &c.Auth.Mode)
	str("AUTH_HMAC_SECRET", &c.Auth.HMACSecret)
	str("AUTH_JWKS_URL", &c.Auth.JWKSURL)
	str("AUTH_TENANT_CLAIM", &c.Auth.TenantClaim)
	str("AUTH_ROLE_CLAIM", &c.Auth.RoleClaim)
	str("WEBHOOK_URL", &c.Webhook.URL)
	str("WEBHOOK_SECRET", &c.Webhook.Secret)
	if v := getenv("DB_MIGRATE"); v != "" {
		c.Migrate = v != "false"
	}
	ints := []struct {
		key string
		dst *int
	}{
		{"RATE_BURST", &c.RateBurst},
		{"SOLVER_TIME_BUDGET_MS", &c.Solver.TimeBudgetMs},
		{"SOLVER_NODE_LIMIT", &c.Solver.NodeLimit},
		{"WEBHOOK_MAX_ATTEMPTS", &c.Webhook.MaxAttempts},
	}
	for _, kv := range ints {
		v := strings.TrimSpace(getenv(kv.key))
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("config: %s: %w", kv.key, err)
		}
		*kv.dst = n
	}
	if v := strings.TrimSpace(getenv("RATE_RPS")); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("config: RATE_RPS: %w", err)
		}
		c.RateRPS = f
	}
	if v := strings.TrimSpace(getenv("SOLVER_MAX_DENOMINATOR")); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("config: SOLVER_MAX_DENOMINATOR: %w", err)
		}
		c.Solver.MaxDenominator = n
	}
	return nil
}

// Validate rejects settings the server cannot run with.
func (c Config) Validate() error {
	if _, err := strconv.Atoi(c.Port); err != nil {
		return fmt.Errorf("config: port %q is not a number", c.Port)
	}
	if c.RateRPS < 0 || c.RateBurst < 0 {
		return fmt.Errorf("config: rate limits must be >= 0")
	}
	if c.Solver.TimeBudgetMs < 0 || c.Solver.NodeLimit < 0 || c.Solver.MaxDenominator < 0 {
		return fmt.Errorf("config: solver limits must be >= 0")
	}
	switch strings.ToLower(c.Auth.Mode) {
	case "", auth.ModeDev:
	case auth.ModeHMAC:
		if c.Auth.HMACSecret == "" {
			return fmt.Errorf("config: auth mode hmac needs a secret")
		}
	case auth.ModeJWKS:
		if c.Auth.JWKSURL == "" {
			return fmt.Errorf("config: auth mode jwks needs a jwks url")
		}
	default:
		return fmt.Errorf("config: unknown auth mode %q", c.Auth.Mode)
	}
	if c.Webhook.MaxAttempts < 0 {
		return fmt.Errorf("config: webhook max attempts must be >= 0")
	}
	return nil
}

func (c Config) Addr() string { return ":" + c.Port }

// TimeBudget converts the solver budget for the backend.
func TimeBudget(sc model.SolverConfig) time.Duration {
	return time.Duration(sc.TimeBudgetMs) * time.Millisecond
}
