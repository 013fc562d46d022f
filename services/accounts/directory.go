package accounts

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/PrithviSeran/whats-poppin-sub003/internal/emailaddr"
	"github.com/PrithviSeran/whats-poppin-sub003/services/logging"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	ErrUnavailable  = errors.New("account directory is unavailable")
	ErrInvalidTable = errors.New("invalid accounts table name")
)

var tableNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

// Account is the minimal shape the directory reads. Other columns in the
// accounts table are ignored.
type Account struct {
	ID        uint   `gorm:"primaryKey"`
	Email     string `gorm:"uniqueIndex;size:254;not null"`
	CreatedAt time.Time
}

// Directory answers whether an email is already taken by an account.
type Directory struct {
	db     *gorm.DB
	table  string
	logger *logging.Service
}

func NewDirectory(db *gorm.DB, table string, logger *logging.Service) (*Directory, error) {
	if !tableNamePattern.MatchString(table) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidTable, table)
	}
	return &Directory{db: db, table: table, logger: logger}, nil
}

func (d *Directory) Table() string {
	return d.table
}

// Migrate creates the accounts table when it does not exist yet.
func (d *Directory) Migrate() error {
	if err := d.db.Table(d.table).AutoMigrate(&Account{}); err != nil {
		return fmt.Errorf("failed to migrate accounts table %s: %w", d.table, err)
	}
	return nil
}

func (d *Directory) EmailExists(ctx context.Context, email string) (bool, error) {
	normalized := emailaddr.Normalize(email)

	var count int64
	err := d.db.WithContext(ctx).
		Table(d.table).
		Where("LOWER(email) = ?", normalized).
		Count(&count).Error
	if err != nil {
		d.logger.Error("failed to query account directory",
			zap.Error(err),
			zap.String("table", d.table))
		return false, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return count > 0, nil
}

// Register adds an account row for email. Used by seeding and tests; account
// creation proper belongs to the onboarding flow.
func (d *Directory) Register(ctx context.Context, email string) error {
	normalized, err := emailaddr.Parse(email)
	if err != nil {
		return err
	}
	account := Account{Email: normalized}
	if err := d.db.WithContext(ctx).Table(d.table).Create(&account).Error; err != nil {
		return fmt.Errorf("failed to register account: %w", err)
	}
	return nil
}
