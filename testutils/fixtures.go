package testutils

import (
	"time"

	"github.com/PrithviSeran/whats-poppin-sub003/config"
)

func GetTestConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{
			Name: "Test App",
			URL:  "http://localhost:8080",
		},
		Server: config.ServerConfig{
			Host: "localhost",
			Port: "0",
		},
		Log: config.LogConfig{
			Level:  "error",
			Format: "json",
			Output: "stdout",
		},
		Database: config.DatabaseConfig{
			Driver:      "sqlite",
			DSN:         ":memory:",
			AutoMigrate: true,
		},
		Mail: config.MailConfig{
			Host:        "localhost",
			Port:        587,
			Encryption:  "none",
			FromAddress: "no-reply@example.com",
			FromName:    "Test App",
		},
		OTP: config.OTPConfig{
			Expiry:         10 * time.Minute,
			ResendCooldown: 60 * time.Second,
			Dispatcher:     "log",
		},
		EmailLink: config.EmailLinkConfig{
			Enabled:     true,
			TokenLength: 32,
			Expiry:      24 * time.Hour,
		},
		RateLimit: config.RateLimitConfig{
			Store:     "memory",
			Rate:      100,
			Period:    time.Minute,
			CountMode: config.CountAll,
		},
		Accounts: config.AccountsConfig{
			Table: "users",
		},
	}
}

var TestEmails = struct {
	Valid        string
	MixedCase    string
	Invalid      string
	Registered   string
	Unregistered string
}{
	Valid:        "newcomer@example.com",
	MixedCase:    "  NewComer@Example.COM ",
	Invalid:      "not-an-email",
	Registered:   "taken@example.com",
	Unregistered: "free@example.com",
}
