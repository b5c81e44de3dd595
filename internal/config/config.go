// Package config handles application configuration.
//
// Go Pattern: Configuration lives in one struct that is filled once at
// startup and then passed around explicitly. The struct tags below are read
// by caarlos0/env. Each field names its environment variable and default,
// so the whole configuration surface is visible in one place.
package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
)

// defaultJWTSecret is refused in release mode.
const defaultJWTSecret = "dev-jwt-secret-change-in-production"

// Config holds all application configuration.
type Config struct {
	// Server settings
	Port    string `env:"PORT" envDefault:"8080"`
	GinMode string `env:"GIN_MODE" envDefault:"debug"` // "debug", "release", or "test"

	// Settings storage. Empty DatabaseURL keeps the API key in memory only.
	DatabaseURL    string `env:"DATABASE_URL"`
	MigrationsPath string `env:"MIGRATIONS_PATH" envDefault:"migrations"`

	// Mock auth session tokens
	JWTSecret string        `env:"JWT_SECRET" envDefault:"dev-jwt-secret-change-in-production"`
	TokenTTL  time.Duration `env:"TOKEN_TTL" envDefault:"72h"`

	// Generative endpoint
	GeminiEndpoint string        `env:"GEMINI_ENDPOINT" envDefault:"https://generativelanguage.googleapis.com/v1beta/models/gemini-1.5-flash-latest:generateContent"`
	GeminiTimeout  time.Duration `env:"GEMINI_TIMEOUT" envDefault:"120s"`
	GeminiAPIKey   string        `env:"GEMINI_API_KEY"` // Optional: seeds the settings store on first boot

	// QA pipeline limits
	MaxPages         int `env:"MAX_PAGES" envDefault:"20"`
	PageExcerptChars int `env:"PAGE_EXCERPT_CHARS" envDefault:"1200"`
	MaxUploadMB      int `env:"MAX_UPLOAD_MB" envDefault:"10"`

	// QA worker pool: caps concurrent generateContent calls
	WorkerCount  int `env:"WORKER_COUNT" envDefault:"4"`
	JobQueueSize int `env:"JOB_QUEUE_SIZE" envDefault:"100"`

	// Rate limiting (per mock user)
	RateLimitPerHour int `env:"RATE_LIMIT_PER_HOUR" envDefault:"300"`
	RateLimitBurst   int `env:"RATE_LIMIT_BURST" envDefault:"30"`

	// Chat sessions idle longer than this are dropped
	SessionIdleTTL time.Duration `env:"SESSION_IDLE_TTL" envDefault:"1h"`

	// CORS: in production, set this to your frontend URL
	AllowedOrigins []string `env:"CORS_ORIGIN" envSeparator:"," envDefault:"http://localhost:3000"`
}

// Load reads configuration from the environment (and an optional .env file).
//
// Go Pattern: Functions that can fail return (value, error). The caller
// decides whether a bad configuration is fatal.
func Load() (*Config, error) {
	// .env is a convenience for local development; its absence is normal.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("⚠️  Could not read .env file: %v", err)
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the values that would otherwise fail much later.
func (c *Config) Validate() error {
	if c.MaxPages < 1 {
		return fmt.Errorf("MAX_PAGES must be at least 1, got %d", c.MaxPages)
	}
	if c.PageExcerptChars < 1 {
		return fmt.Errorf("PAGE_EXCERPT_CHARS must be at least 1, got %d", c.PageExcerptChars)
	}
	if c.MaxUploadMB < 1 {
		return fmt.Errorf("MAX_UPLOAD_MB must be at least 1, got %d", c.MaxUploadMB)
	}
	if c.GeminiTimeout <= 0 {
		return fmt.Errorf("GEMINI_TIMEOUT must be positive, got %s", c.GeminiTimeout)
	}
	if c.WorkerCount < 1 {
		return fmt.Errorf("WORKER_COUNT must be at least 1, got %d", c.WorkerCount)
	}
	if c.RateLimitPerHour < 1 || c.RateLimitBurst < 1 {
		return fmt.Errorf("RATE_LIMIT_PER_HOUR and RATE_LIMIT_BURST must be at least 1")
	}
	if len(c.AllowedOrigins) == 0 {
		return errors.New("CORS_ORIGIN must name at least one origin")
	}

	// Security: JWT secret MUST be set in production mode
	if c.GinMode == "release" && c.JWTSecret == defaultJWTSecret {
		return fmt.Errorf("JWT_SECRET must be set in production; refusing to start with default secret")
	}
	return nil
}

// AnswerTimeout bounds one chat question, time spent queued for a worker
// included. It leaves room for the generative call itself.
func (c *Config) AnswerTimeout() time.Duration {
	return c.GeminiTimeout + 15*time.Second
}

// WriteTimeout is the HTTP write deadline. It outlasts AnswerTimeout so a
// question that runs out of time still gets its reply written.
func (c *Config) WriteTimeout() time.Duration {
	return c.AnswerTimeout() + 15*time.Second
}

// MaxUploadBytes is the upload ceiling in bytes.
func (c *Config) MaxUploadBytes() int64 {
	return int64(c.MaxUploadMB) << 20
}

// PrimaryOrigin is the frontend origin quoted in authorization error hints.
func (c *Config) PrimaryOrigin() string {
	if len(c.AllowedOrigins) == 0 {
		return "http://localhost:3000"
	}
	return c.AllowedOrigins[0]
}
