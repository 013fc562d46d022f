package ratelimit

import (
	"context"

	"github.com/PrithviSeran/whats-poppin-sub003/config"
	"go.uber.org/fx"
)

func ProvideRateLimitStore(lc fx.Lifecycle, cfg *config.Config) Store {
	store := NewStore(&cfg.RateLimit)
	if ms, ok := store.(*MemoryStore); ok {
		lc.Append(fx.Hook{
			OnStop: func(context.Context) error {
				ms.Close()
				return nil
			},
		})
	}
	return store
}

var Module = fx.Options(
	fx.Provide(ProvideRateLimitStore),
)
