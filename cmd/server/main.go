package main

import (
	"log"

	"github.com/PrithviSeran/whats-poppin-sub003/app"
	"github.com/PrithviSeran/whats-poppin-sub003/config"
)

func main() {
	cfg := &config.Config{}
	if err := config.LoadConfig(cfg); err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	builder := app.NewApp().
		WithConfig(cfg).
		WithVerification().
		WithAccounts()
	if cfg.EmailLink.Enabled {
		builder = builder.WithEmailLink()
	}

	application, err := builder.Build()
	if err != nil {
		log.Fatalf("Failed to build application: %v", err)
	}

	application.Run()
}
