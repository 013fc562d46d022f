package app

import (
	"context"
	"fmt"

	"github.com/PrithviSeran/whats-poppin-sub003/config"
	"github.com/PrithviSeran/whats-poppin-sub003/database"
	"github.com/PrithviSeran/whats-poppin-sub003/handlers"
	"github.com/PrithviSeran/whats-poppin-sub003/middleware/ratelimit"
	"github.com/PrithviSeran/whats-poppin-sub003/openapi"
	"github.com/PrithviSeran/whats-poppin-sub003/server"
	"github.com/PrithviSeran/whats-poppin-sub003/services/accounts"
	"github.com/PrithviSeran/whats-poppin-sub003/services/emaillink"
	"github.com/PrithviSeran/whats-poppin-sub003/services/logging"
	"github.com/PrithviSeran/whats-poppin-sub003/services/mail"
	"github.com/PrithviSeran/whats-poppin-sub003/services/otp"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type AppBuilder struct {
	config    *config.Config
	services  map[string]bool
	models    []any
	fxOptions []fx.Option
	errors    []error
}

func NewApp() *AppBuilder {
	return &AppBuilder{
		services:  make(map[string]bool),
		models:    make([]any, 0),
		fxOptions: make([]fx.Option, 0),
		errors:    make([]error, 0),
	}
}

func (b *AppBuilder) WithConfig(cfg *config.Config) *AppBuilder {
	if cfg == nil {
		b.addError("config cannot be nil")
		return b
	}
	b.config = cfg
	return b
}

func (b *AppBuilder) WithAutoConfig() *AppBuilder {
	cfg := &config.Config{}
	if err := config.LoadConfig(cfg); err != nil {
		b.addError(fmt.Sprintf("failed to load config: %v", err))
		return b
	}
	b.config = cfg
	return b
}

func (b *AppBuilder) WithDatabase(models ...any) *AppBuilder {
	b.services["database"] = true
	b.models = append(b.models, models...)
	return b
}

func (b *AppBuilder) WithMail() *AppBuilder {
	b.services["mail"] = true
	return b
}

// WithVerification enables code issuance and verification along with the
// HTTP routes that expose them.
func (b *AppBuilder) WithVerification() *AppBuilder {
	b.services["verification"] = true
	return b.WithDatabase(otp.Models()...)
}

// WithAccounts enables the duplicate-email check against the accounts table.
func (b *AppBuilder) WithAccounts() *AppBuilder {
	b.services["accounts"] = true
	b.services["database"] = true
	return b
}

// WithEmailLink enables the token-link flow. Its routes are only mounted when
// EMAIL_LINK_ENABLED is set.
func (b *AppBuilder) WithEmailLink() *AppBuilder {
	b.services["email_link"] = true
	b.services["mail"] = true
	return b.WithDatabase(emaillink.Models()...)
}

func (b *AppBuilder) WithFxOptions(opts ...fx.Option) *AppBuilder {
	b.fxOptions = append(b.fxOptions, opts...)
	return b
}

func (b *AppBuilder) Build() (*App, error) {
	if err := b.validate(); err != nil {
		return nil, err
	}

	if b.config == nil {
		if err := b.WithAutoConfig().validate(); err != nil {
			return nil, err
		}
	}

	if b.services["verification"] && b.config.OTP.Dispatcher == "mail" {
		b.services["mail"] = true
	}

	logger, err := b.createLogger()
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	services, err := b.buildServices(logger)
	if err != nil {
		return nil, fmt.Errorf("failed to build services: %w", err)
	}

	app := &App{
		config: b.config,
		logger: logger,
		db:     services.database,
	}

	fxOptions := b.buildFxOptions(services, logger)
	fxOptions = append(fxOptions, fx.Invoke(func(c components) {
		app.server = c.Server
		app.otp = c.OTP
		app.docs = c.Docs
	}))

	app.fx = fx.New(fxOptions...)
	if err := app.fx.Err(); err != nil {
		return nil, fmt.Errorf("failed to assemble application: %w", err)
	}

	return app, nil
}

type components struct {
	fx.In

	Server *server.Server
	OTP    *otp.Service      `optional:"true"`
	Docs   *openapi.Document `optional:"true"`
}

func (b *AppBuilder) addError(msg string) {
	b.errors = append(b.errors, fmt.Errorf("%s", msg))
}

func (b *AppBuilder) validate() error {
	if len(b.errors) > 0 {
		return fmt.Errorf("configuration errors: %v", b.errors)
	}

	if b.services["verification"] && !b.services["database"] {
		return fmt.Errorf("verification requires database support")
	}

	if b.services["email_link"] && !b.services["mail"] {
		return fmt.Errorf("email link verification requires mail support")
	}

	if b.services["accounts"] && !b.services["database"] {
		b.services["database"] = true
	}

	return nil
}

func (b *AppBuilder) createLogger() (*logging.Service, error) {
	if b.config == nil {
		return nil, fmt.Errorf("config required for logger creation")
	}
	return logging.NewLoggingService(b.config)
}

type ServiceContainer struct {
	database *gorm.DB
}

func (b *AppBuilder) buildServices(logger *logging.Service) (*ServiceContainer, error) {
	services := &ServiceContainer{}

	if b.services["database"] {
		modelsOpt := &database.ModelsOption{}
		if len(b.models) > 0 {
			modelsOpt = database.WithModels(b.models...)
		}

		db, err := database.ProvideDatabase(*b.config, modelsOpt, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize database: %w", err)
		}
		services.database = db
	}

	return services, nil
}

func (b *AppBuilder) buildFxOptions(services *ServiceContainer, logger *logging.Service) []fx.Option {
	var options []fx.Option

	options = append(options,
		config.NewProvider(b.config),
		fx.Supply(logger),
		fx.NopLogger,
	)

	if services.database != nil {
		options = append(options, fx.Supply(services.database))
	}

	options = append(options, server.NewProvider())
	options = append(options, ratelimit.Module)

	if b.services["mail"] {
		options = append(options, mail.Module)
	}
	if b.services["accounts"] {
		options = append(options, accounts.Module)
	}
	if b.services["verification"] {
		options = append(options, otp.Module)
	}
	if b.services["email_link"] {
		options = append(options, emaillink.Module)
	}
	if b.services["verification"] {
		options = append(options, handlers.Module)
	}

	options = append(options, b.fxOptions...)

	options = append(options, b.buildLifecycleHooks()...)

	return options
}

func (b *AppBuilder) buildLifecycleHooks() []fx.Option {
	var hooks []fx.Option

	if b.services["email_link"] {
		hooks = append(hooks, fx.Invoke(func(lc fx.Lifecycle, svc *emaillink.Service, logger *logging.Service) {
			lc.Append(fx.Hook{
				OnStart: func(ctx context.Context) error {
					if !svc.Enabled() {
						return nil
					}
					purged, err := svc.PurgeExpired(ctx)
					if err != nil {
						logger.Warn("failed to purge expired verification links", zap.Error(err))
						return nil
					}
					logger.Info("purged expired verification links", zap.Int64("count", purged))
					return nil
				},
			})
		}))
	}

	return hooks
}
