package database

import (
	"testing"

	"github.com/PrithviSeran/whats-poppin-sub003/config"
	"github.com/PrithviSeran/whats-poppin-sub003/services/logging"
	"github.com/stretchr/testify/assert"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

func TestModule(t *testing.T) {
	var resolved *gorm.DB

	app := fx.New(
		Module,
		fx.Provide(func() *config.Config {
			cfg := createTestConfig("sqlite", ":memory:", true)
			return &cfg
		}),
		fx.Provide(func() *logging.Service {
			return newTestLogger()
		}),
		fx.Provide(func() *ModelsOption {
			return WithModels(&TestModel{})
		}),
		fx.NopLogger,
		fx.Invoke(func(db *gorm.DB) {
			resolved = db
		}),
	)

	assert.NoError(t, app.Err())
	if assert.NotNil(t, resolved) {
		assert.True(t, resolved.Migrator().HasTable(&TestModel{}))
	}
}

func TestProvideDatabaseFx(t *testing.T) {
	t.Run("error case through fx", func(t *testing.T) {
		cfg := createTestConfig("unsupported", "test", false)

		db, err := ProvideDatabaseFx(&cfg, nil, newTestLogger())

		assert.Error(t, err)
		assert.Nil(t, db)
		assert.Contains(t, err.Error(), "unsupported database driver")
	})
}
