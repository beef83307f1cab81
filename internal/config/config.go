package config

import (
	"encoding/hex"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Port           string        `mapstructure:"PORT"`
	Env            string        `mapstructure:"ENV"`
	DatabaseURL    string        `mapstructure:"DATABASE_URL"`
	DBMaxConns     int32         `mapstructure:"DB_MAX_CONNS"`
	DBMinConns     int32         `mapstructure:"DB_MIN_CONNS"`
	MigrationsDir  string        `mapstructure:"MIGRATIONS_DIR"`
	AuthSigningKey string        `mapstructure:"AUTH_SIGNING_KEY"`
	AuthIssuer     string        `mapstructure:"AUTH_ISSUER"`
	AuthTokenTTL   time.Duration `mapstructure:"AUTH_TOKEN_TTL"`
	CORSOrigins    []string      `mapstructure:"CORS_ORIGINS"`

	EmergencyBaseURL string `mapstructure:"EMERGENCY_BASE_URL"`
	EmergencyQRSize  int    `mapstructure:"EMERGENCY_QR_SIZE"`

	ParseConcurrency int     `mapstructure:"PARSE_CONCURRENCY"`
	RateLimitRPS     float64 `mapstructure:"RATE_LIMIT_RPS"`
	RateLimitBurst   int     `mapstructure:"RATE_LIMIT_BURST"`
	BodyLimit        string  `mapstructure:"BODY_LIMIT"`
	BatchBodyLimit   string  `mapstructure:"BATCH_BODY_LIMIT"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("PORT", "8000")
	v.SetDefault("ENV", "development")
	v.SetDefault("DB_MAX_CONNS", 20)
	v.SetDefault("DB_MIN_CONNS", 5)
	v.SetDefault("MIGRATIONS_DIR", "migrations")
	v.SetDefault("AUTH_ISSUER", "mias")
	v.SetDefault("AUTH_TOKEN_TTL", "8h")
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000")
	v.SetDefault("EMERGENCY_BASE_URL", "http://localhost:8000/emergency")
	v.SetDefault("EMERGENCY_QR_SIZE", 256)
	v.SetDefault("PARSE_CONCURRENCY", 8)
	v.SetDefault("RATE_LIMIT_RPS", 1)
	v.SetDefault("RATE_LIMIT_BURST", 10)
	v.SetDefault("BODY_LIMIT", "1M")
	v.SetDefault("BATCH_BODY_LIMIT", "8M")

	// Bind env vars explicitly so Unmarshal picks them up
	for _, key := range []string{
		"PORT", "ENV", "DATABASE_URL", "DB_MAX_CONNS", "DB_MIN_CONNS",
		"MIGRATIONS_DIR", "AUTH_SIGNING_KEY", "AUTH_ISSUER", "AUTH_TOKEN_TTL",
		"CORS_ORIGINS", "EMERGENCY_BASE_URL", "EMERGENCY_QR_SIZE",
		"PARSE_CONCURRENCY", "RATE_LIMIT_RPS", "RATE_LIMIT_BURST",
		"BODY_LIMIT", "BATCH_BODY_LIMIT",
	} {
		_ = v.BindEnv(key)
	}

	// Try reading .env file, but don't fail if missing
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if origins := v.GetString("CORS_ORIGINS"); origins != "" {
		cfg.CORSOrigins = splitList(origins)
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	if cfg.IsDev() {
		log.Println("WARNING: server is running in DEVELOPMENT mode (ENV=development).")
		log.Println("WARNING: requests without a bearer token are treated as admin.")
	}

	return cfg, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// IsProduction returns true when the server is configured for production mode.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// SigningKey decodes AUTH_SIGNING_KEY. In development an empty key yields
// a fixed placeholder so tokens can still be issued locally.
func (c *Config) SigningKey() ([]byte, error) {
	if c.AuthSigningKey == "" {
		if c.IsDev() {
			return []byte("mias-development-signing-key-000"), nil
		}
		return nil, fmt.Errorf("AUTH_SIGNING_KEY is required outside development")
	}
	key, err := hex.DecodeString(c.AuthSigningKey)
	if err != nil {
		return nil, fmt.Errorf("AUTH_SIGNING_KEY is not valid hex: %w", err)
	}
	if len(key) < 32 {
		return nil, fmt.Errorf("AUTH_SIGNING_KEY must be at least 32 bytes (64 hex chars), got %d bytes", len(key))
	}
	return key, nil
}

// Validate checks that the configuration is safe to run.
func (c *Config) Validate() error {
	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return fmt.Errorf("ENV must be \"development\", \"staging\", or \"production\", got %q", c.Env)
	}
	if _, err := c.SigningKey(); err != nil {
		return err
	}
	if c.AuthTokenTTL <= 0 {
		return fmt.Errorf("AUTH_TOKEN_TTL must be positive")
	}
	if c.EmergencyBaseURL == "" {
		return fmt.Errorf("EMERGENCY_BASE_URL is required")
	}
	if c.IsProduction() && !strings.HasPrefix(c.EmergencyBaseURL, "https://") {
		return fmt.Errorf("EMERGENCY_BASE_URL must use https in production")
	}
	if c.EmergencyQRSize < 64 || c.EmergencyQRSize > 2048 {
		return fmt.Errorf("EMERGENCY_QR_SIZE must be between 64 and 2048, got %d", c.EmergencyQRSize)
	}
	if c.ParseConcurrency < 1 {
		return fmt.Errorf("PARSE_CONCURRENCY must be at least 1")
	}
	if c.DBMinConns > c.DBMaxConns {
		return fmt.Errorf("DB_MIN_CONNS (%d) must not exceed DB_MAX_CONNS (%d)", c.DBMinConns, c.DBMaxConns)
	}
	return nil
}
