// Package config loads service settings from the environment. Values come from
// the process environment, optionally seeded from an env file and its .secret
// sidecar.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const (
	StorageBackendPostgres = "postgres"
	StorageBackendMemory   = "memory"

	MailModeLog  = "log"
	MailModeSMTP = "smtp"
)

type Config struct {
	DatabaseURL    string `env:"DATABASE_URL"`
	ServerPort     int    `env:"SERVER_PORT" envDefault:"8080"`
	StorageBackend string `env:"STORAGE_BACKEND" envDefault:"postgres"`
	MigrationsPath string `env:"MIGRATIONS_PATH" envDefault:"migrations"`

	// Optional directories overlaying the embedded archetypes and message catalogs.
	ArchetypesPath string `env:"ARCHETYPES_PATH"`
	MessagesPath   string `env:"MESSAGES_PATH"`
	DefaultLocale  string `env:"DEFAULT_LOCALE" envDefault:"en-US"`

	RateLimitRPS   float64 `env:"RATE_LIMIT_RPS" envDefault:"100"`
	RateLimitBurst int     `env:"RATE_LIMIT_BURST" envDefault:"20"`
	LogLevel       string  `env:"LOG_LEVEL" envDefault:"info"`

	MailMode     string `env:"MAIL_MODE" envDefault:"log"`
	SMTPHost     string `env:"SMTP_HOST"`
	SMTPPort     int    `env:"SMTP_PORT" envDefault:"25"`
	SMTPUsername string `env:"SMTP_USERNAME"`
	SMTPPassword string `env:"SMTP_PASSWORD"`
	MailFrom     string `env:"MAIL_FROM"`

	// Base URL of the departments API used by DepartmentsClient.
	DepartmentsURL string `env:"DEPARTMENTS_URL" envDefault:"http://localhost:8080"`
}

// Load reads the .env file specified by VETPMS_ENV (or .env by default), then
// the corresponding .secret file if it exists, then parses the environment.
// Variables already set in the process win over both files.
func Load() (*Config, error) {
	envFile := os.Getenv("VETPMS_ENV")
	if envFile == "" {
		envFile = ".env"
	}

	// Missing files are fine
	_ = godotenv.Load(envFile)
	_ = godotenv.Load(envFile + ".secret")

	return Parse()
}

// Parse builds a Config from the current environment only.
func Parse() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	c.StorageBackend = strings.ToLower(strings.TrimSpace(c.StorageBackend))
	switch c.StorageBackend {
	case StorageBackendPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required for the %s storage backend", c.StorageBackend)
		}
	case StorageBackendMemory:
	default:
		return fmt.Errorf("STORAGE_BACKEND must be %q or %q, got %q", StorageBackendPostgres, StorageBackendMemory, c.StorageBackend)
	}

	c.MailMode = strings.ToLower(strings.TrimSpace(c.MailMode))
	switch c.MailMode {
	case MailModeLog:
	case MailModeSMTP:
		if c.SMTPHost == "" {
			return fmt.Errorf("SMTP_HOST is required when MAIL_MODE=%s", MailModeSMTP)
		}
	default:
		return fmt.Errorf("MAIL_MODE must be %q or %q, got %q", MailModeLog, MailModeSMTP, c.MailMode)
	}

	if c.RateLimitRPS <= 0 {
		c.RateLimitRPS = 100
	}
	if c.RateLimitBurst <= 0 {
		c.RateLimitBurst = 20
	}
	return nil
}

func (c *Config) ServerAddr() string {
	return fmt.Sprintf(":%d", c.ServerPort)
}
