package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

type Config struct {
	App       AppConfig       `envPrefix:"APP_"`
	Server    ServerConfig    `envPrefix:"SERVER_"`
	Log       LogConfig       `envPrefix:"LOG_"`
	Database  DatabaseConfig  `envPrefix:"DATABASE_"`
	Mail      MailConfig      `envPrefix:"MAIL_"`
	OTP       OTPConfig       `envPrefix:"OTP_"`
	EmailLink EmailLinkConfig `envPrefix:"EMAIL_LINK_"`
	RateLimit RateLimitConfig `envPrefix:"RATE_LIMIT_"`
	Accounts  AccountsConfig  `envPrefix:"ACCOUNTS_"`
}

type AppConfig struct {
	Name string `env:"NAME" envDefault:"Whats Poppin"`
	URL  string `env:"URL" envDefault:"http://localhost:8080"`
}

type ServerConfig struct {
	Port           string   `env:"PORT" envDefault:"8080"`
	Host           string   `env:"HOST" envDefault:"localhost"`
	TrustedProxies []string `env:"TRUSTED_PROXIES" envSeparator:","`
}

type LogConfig struct {
	Level  string `env:"LEVEL" envDefault:"info"`
	Format string `env:"FORMAT" envDefault:"json"`
	Output string `env:"OUTPUT" envDefault:"stdout"`
}

type DatabaseConfig struct {
	Driver      string `env:"DRIVER" envDefault:"sqlite"`
	DSN         string `env:"DSN" envDefault:"app.db"`
	AutoMigrate bool   `env:"AUTO_MIGRATE" envDefault:"true"`
}

type MailConfig struct {
	Host         string `env:"HOST" envDefault:"localhost"`
	Port         int    `env:"PORT" envDefault:"587"`
	Username     string `env:"USERNAME"`
	Password     string `env:"PASSWORD"`
	Encryption   string `env:"ENCRYPTION" envDefault:"tls"`
	FromAddress  string `env:"FROM_ADDRESS" envDefault:"no-reply@localhost"`
	FromName     string `env:"FROM_NAME"`
	TemplatesDir string `env:"TEMPLATES_DIR"`
}

// OTPConfig controls issuance of one-time email codes.
type OTPConfig struct {
	Expiry          time.Duration `env:"EXPIRY" envDefault:"10m"`
	ResendCooldown  time.Duration `env:"RESEND_COOLDOWN" envDefault:"60s"`
	Dispatcher      string        `env:"DISPATCHER" envDefault:"mail"`
	CleanupInterval time.Duration `env:"CLEANUP_INTERVAL" envDefault:"0s"`
}

// EmailLinkConfig controls the token-link verification flow, which is
// independent from the code flow.
type EmailLinkConfig struct {
	Enabled     bool          `env:"ENABLED" envDefault:"false"`
	TokenLength int           `env:"TOKEN_LENGTH" envDefault:"32"`
	Expiry      time.Duration `env:"EXPIRY" envDefault:"24h"`
}

type CountingMode string

const (
	CountAll      CountingMode = "all"
	CountFailures CountingMode = "failures"
	CountSuccess  CountingMode = "success"
)

type RateLimitConfig struct {
	Store     string        `env:"STORE" envDefault:"memory"`
	Rate      int           `env:"RATE" envDefault:"10"`
	Period    time.Duration `env:"PERIOD" envDefault:"1m"`
	CountMode CountingMode  `env:"COUNT_MODE" envDefault:"all"`
}

type AccountsConfig struct {
	Table string `env:"TABLE" envDefault:"users"`
}

func LoadConfig(cfg any) error {
	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file found: %v", err)
	}

	if err := env.Parse(cfg); err != nil {
		return err
	}

	if c, ok := cfg.(*Config); ok {
		return c.Validate()
	}
	return nil
}

func (c *Config) Validate() error {
	if err := validateOTPConfig(&c.OTP); err != nil {
		return err
	}
	if err := validateEmailLinkConfig(&c.EmailLink); err != nil {
		return err
	}
	return validateDatabaseConfig(&c.Database)
}

func validateOTPConfig(cfg *OTPConfig) error {
	if cfg.Expiry <= 0 {
		return fmt.Errorf("OTP expiry must be positive")
	}
	if cfg.ResendCooldown < 0 {
		return fmt.Errorf("OTP resend cooldown cannot be negative")
	}
	if cfg.CleanupInterval < 0 {
		return fmt.Errorf("OTP cleanup interval cannot be negative")
	}
	switch cfg.Dispatcher {
	case "mail", "log":
	default:
		return fmt.Errorf("OTP dispatcher must be: mail or log")
	}
	return nil
}

func validateEmailLinkConfig(cfg *EmailLinkConfig) error {
	if !cfg.Enabled {
		return nil
	}
	if cfg.TokenLength < 16 {
		return fmt.Errorf("email link token length must be at least 16 bytes")
	}
	if cfg.TokenLength > 128 {
		return fmt.Errorf("email link token length cannot exceed 128 bytes")
	}
	if cfg.Expiry <= 0 {
		return fmt.Errorf("email link expiry must be positive")
	}
	return nil
}

func validateDatabaseConfig(cfg *DatabaseConfig) error {
	switch strings.ToLower(cfg.Driver) {
	case "sqlite", "postgres", "postgresql", "mysql":
		return nil
	default:
		return fmt.Errorf("unsupported database driver: %s", cfg.Driver)
	}
}
