package emaillink

import (
	"github.com/PrithviSeran/whats-poppin-sub003/config"
	"github.com/PrithviSeran/whats-poppin-sub003/services/logging"
	"github.com/PrithviSeran/whats-poppin-sub003/services/mail"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

func Models() []any {
	return []any{&EmailVerificationToken{}}
}

type Params struct {
	fx.In

	Config *config.Config
	DB     *gorm.DB
	Logger *logging.Service `optional:"true"`
	Mail   *mail.Service    `optional:"true"`
}

func ProvideService(p Params) *Service {
	service := NewService(p.Config, p.DB, p.Logger)
	if p.Mail != nil {
		service.SetMailService(p.Mail)
	}
	return service
}

var Module = fx.Options(
	fx.Provide(ProvideService),
)
