package otp

import (
	"context"
	"fmt"

	"github.com/PrithviSeran/whats-poppin-sub003/config"
	"github.com/PrithviSeran/whats-poppin-sub003/middleware/ratelimit"
	"github.com/PrithviSeran/whats-poppin-sub003/services/accounts"
	"github.com/PrithviSeran/whats-poppin-sub003/services/logging"
	"github.com/PrithviSeran/whats-poppin-sub003/services/mail"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Models lists the tables this package migrates.
func Models() []any {
	return []any{&VerificationRecord{}}
}

func ProvideStore(db *gorm.DB) Store {
	return NewGormStore(db)
}

type DispatcherParams struct {
	fx.In

	Config *config.Config
	Logger *logging.Service `optional:"true"`
	Mail   *mail.Service    `optional:"true"`
}

func ProvideDispatcher(p DispatcherParams) (Dispatcher, error) {
	switch p.Config.OTP.Dispatcher {
	case "log":
		p.Logger.Warn("OTP codes will be logged, not emailed")
		return NewLogDispatcher(p.Logger), nil
	case "mail":
		if p.Mail == nil {
			return nil, fmt.Errorf("OTP mail dispatcher requires the mail service")
		}
		return NewMailDispatcher(p.Mail, p.Config.App.Name, p.Config.OTP.Expiry), nil
	default:
		return nil, fmt.Errorf("unknown OTP dispatcher: %s", p.Config.OTP.Dispatcher)
	}
}

type ServiceParams struct {
	fx.In

	Config        *config.Config
	Store         Store
	Dispatcher    Dispatcher
	Logger        *logging.Service    `optional:"true"`
	CooldownStore ratelimit.Store     `optional:"true"`
	Directory     *accounts.Directory `optional:"true"`
}

func ProvideService(p ServiceParams) *Service {
	service := NewService(&p.Config.OTP, p.Store, p.Dispatcher, p.Logger)
	service.SetCooldownStore(p.CooldownStore)
	if p.Directory != nil {
		service.SetAccountDirectory(p.Directory)
	}
	return service
}

// RegisterCleanup runs the periodic purge when OTP_CLEANUP_INTERVAL is set.
func RegisterCleanup(lc fx.Lifecycle, cfg *config.Config, service *Service, logger *logging.Service) {
	interval := cfg.OTP.CleanupInterval
	if interval <= 0 {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			logger.Info("starting expired code cleanup", zap.Duration("interval", interval))
			go func() {
				defer close(done)
				service.RunCleanup(ctx, interval)
			}()
			return nil
		},
		OnStop: func(stopCtx context.Context) error {
			cancel()
			select {
			case <-done:
			case <-stopCtx.Done():
			}
			return nil
		},
	})
}

var Module = fx.Options(
	fx.Provide(ProvideStore, ProvideDispatcher, ProvideService),
	fx.Invoke(RegisterCleanup),
)
