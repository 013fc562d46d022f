package accounts

import (
	"github.com/PrithviSeran/whats-poppin-sub003/config"
	"github.com/PrithviSeran/whats-poppin-sub003/services/logging"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

func ProvideDirectory(cfg *config.Config, db *gorm.DB, logger *logging.Service) (*Directory, error) {
	directory, err := NewDirectory(db, cfg.Accounts.Table, logger)
	if err != nil {
		return nil, err
	}
	if cfg.Database.AutoMigrate {
		if err := directory.Migrate(); err != nil {
			return nil, err
		}
	}
	return directory, nil
}

var Module = fx.Options(
	fx.Provide(ProvideDirectory),
)
