package app

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	ai "github.com/spetersoncode/abapforge"
	"github.com/spetersoncode/abapforge/guard"
	"github.com/spetersoncode/abapforge/model"
)

// Storage backends.
const (
	StoreSQLite = "sqlite"
	StoreMemory = "memory"
)

// Config holds the configuration shared by the binaries, loaded from
// environment variables.
type Config struct {
	// Server
	Addr       string `env:"ABAPFORGE_ADDR" envDefault:":8000"`
	LogLevel   string `env:"ABAPFORGE_LOG_LEVEL" envDefault:"info"`
	CORSOrigin string `env:"ABAPFORGE_CORS_ORIGIN" envDefault:"*"`

	// MCPUser owns the credentials the MCP tool generates with.
	MCPUser string `env:"ABAPFORGE_MCP_USER" envDefault:"local"`

	// Storage
	Store  string `env:"ABAPFORGE_STORE" envDefault:"sqlite"`
	DBPath string `env:"ABAPFORGE_DB_PATH" envDefault:"abapforge.db"`

	// Usage delivery
	NATSURL     string `env:"ABAPFORGE_NATS_URL"`
	NATSSubject string `env:"ABAPFORGE_NATS_SUBJECT" envDefault:"abapforge.usage"`
	NATSFlush   bool   `env:"ABAPFORGE_NATS_FLUSH"`
	UsageBuffer int    `env:"ABAPFORGE_USAGE_BUFFER" envDefault:"256"`

	// Guard. An API key here is used for every user instead of their own
	// credential for the guard provider.
	GuardProvider string        `env:"ABAPFORGE_GUARD_PROVIDER" envDefault:"groq"`
	GuardModel    string        `env:"ABAPFORGE_GUARD_MODEL"`
	GuardAPIKey   string        `env:"ABAPFORGE_GUARD_API_KEY"`
	GuardTimeout  time.Duration `env:"ABAPFORGE_GUARD_TIMEOUT" envDefault:"15s"`

	// Generation
	ProviderOrder  []string       `env:"ABAPFORGE_PROVIDER_ORDER" envSeparator:","`
	AttemptTimeout time.Duration  `env:"ABAPFORGE_ATTEMPT_TIMEOUT" envDefault:"90s"`
	Rates          map[string]int `env:"ABAPFORGE_RATES"`

	// Provider endpoint overrides, mostly for proxies and tests.
	GroqBaseURL  string `env:"ABAPFORGE_GROQ_BASE_URL"`
	ArceeBaseURL string `env:"ABAPFORGE_ARCEE_BASE_URL"`
}

// LoadConfig loads configuration from environment variables.
// It loads a .env file if present (silent fail if not found).
func LoadConfig() (*Config, error) {
	godotenv.Load() // Load .env file if present

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if _, err := c.Level(); err != nil {
		return err
	}

	switch c.Store {
	case StoreSQLite:
		if strings.TrimSpace(c.DBPath) == "" {
			return fmt.Errorf("ABAPFORGE_DB_PATH is required for the sqlite store")
		}
	case StoreMemory:
	default:
		return fmt.Errorf("unknown store: %s (must be sqlite or memory)", c.Store)
	}

	if _, err := ai.ParseProvider(c.GuardProvider); err != nil {
		return fmt.Errorf("ABAPFORGE_GUARD_PROVIDER: %w", err)
	}
	if c.GuardTimeout <= 0 {
		return fmt.Errorf("ABAPFORGE_GUARD_TIMEOUT must be positive")
	}
	if c.AttemptTimeout <= 0 {
		return fmt.Errorf("ABAPFORGE_ATTEMPT_TIMEOUT must be positive")
	}
	if c.UsageBuffer <= 0 {
		return fmt.Errorf("ABAPFORGE_USAGE_BUFFER must be positive")
	}
	if _, err := c.Order(); err != nil {
		return fmt.Errorf("ABAPFORGE_PROVIDER_ORDER: %w", err)
	}
	if _, err := c.RateTable(); err != nil {
		return fmt.Errorf("ABAPFORGE_RATES: %w", err)
	}
	return nil
}

// Level parses LogLevel.
func (c *Config) Level() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("ABAPFORGE_LOG_LEVEL: %w", err)
	}
	return level, nil
}

// Order returns the configured provider order, or the default order when
// none is set.
func (c *Config) Order() ([]ai.Provider, error) {
	if len(c.ProviderOrder) == 0 {
		return ai.Providers(), nil
	}
	return ai.ParseProviders(c.ProviderOrder)
}

// RateTable returns the default rates with the configured overrides applied.
func (c *Config) RateTable() (model.Rates, error) {
	overrides := make(model.Rates, len(c.Rates))
	for name, cents := range c.Rates {
		p, err := ai.ParseProvider(name)
		if err != nil {
			return nil, err
		}
		overrides[p] = cents
	}
	if err := overrides.Validate(); err != nil {
		return nil, err
	}
	return model.DefaultRates().With(overrides), nil
}

// GuardCredential returns the platform credential for the guard, if an API
// key is configured.
func (c *Config) GuardCredential() (ai.Credential, bool) {
	if strings.TrimSpace(c.GuardAPIKey) == "" {
		return ai.Credential{}, false
	}
	p, _ := ai.ParseProvider(c.GuardProvider)
	return ai.Credential{
		UserID:       "platform",
		Provider:     p,
		APIKey:       c.GuardAPIKey,
		Enabled:      true,
		DefaultModel: c.GuardModel,
	}, true
}

// GuardModelOrDefault returns the guard model to request. For providers
// other than the default guard provider it is empty, so the credential's
// default model or the provider's auto rule applies.
func (c *Config) GuardModelOrDefault() string {
	if c.GuardModel != "" {
		return c.GuardModel
	}
	if p, _ := ai.ParseProvider(c.GuardProvider); p == guard.DefaultProvider {
		return guard.DefaultModel
	}
	return ""
}
