package handlers

import (
	"github.com/PrithviSeran/whats-poppin-sub003/config"
	"github.com/PrithviSeran/whats-poppin-sub003/middleware/ratelimit"
	"github.com/PrithviSeran/whats-poppin-sub003/openapi"
	"github.com/PrithviSeran/whats-poppin-sub003/server"
	"github.com/PrithviSeran/whats-poppin-sub003/services/accounts"
	"github.com/PrithviSeran/whats-poppin-sub003/services/emaillink"
	"github.com/PrithviSeran/whats-poppin-sub003/services/logging"
	"github.com/PrithviSeran/whats-poppin-sub003/services/otp"
	"go.uber.org/fx"
)

type Params struct {
	fx.In

	Server         *server.Server
	Config         *config.Config
	Logger         *logging.Service    `optional:"true"`
	OTP            *otp.Service
	Directory      *accounts.Directory `optional:"true"`
	EmailLink      *emaillink.Service  `optional:"true"`
	RateLimitStore ratelimit.Store     `optional:"true"`
}

func RegisterRoutes(p Params) *openapi.Document {
	routes := Routes{
		Config:         p.Config,
		Logger:         p.Logger,
		Codes:          p.OTP,
		RateLimitStore: p.RateLimitStore,
	}
	if p.Directory != nil {
		routes.Directory = p.Directory
	}
	if p.EmailLink != nil {
		routes.Links = p.EmailLink
		routes.LinksEnabled = p.EmailLink.Enabled()
	}
	return Register(p.Server.Echo(), routes)
}

var Module = fx.Options(
	fx.Provide(RegisterRoutes),
	fx.Invoke(func(*openapi.Document) {}),
)
