package otp

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) Put(ctx context.Context, email, code string, createdAt, expiresAt time.Time) error {
	record := VerificationRecord{
		Email:     email,
		Code:      code,
		CreatedAt: createdAt,
		ExpiresAt: expiresAt,
	}

	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "email"}},
		DoUpdates: clause.AssignmentColumns([]string{"code", "created_at", "expires_at", "verified_at"}),
	}).Create(&record).Error
	if err != nil {
		return unavailable("failed to store verification code", err)
	}
	return nil
}

func (s *GormStore) Get(ctx context.Context, email string) (*VerificationRecord, error) {
	var record VerificationRecord
	err := s.db.WithContext(ctx).Where("email = ?", email).First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, unavailable("failed to load verification code", err)
	}
	return &record, nil
}

func (s *GormStore) MarkVerified(ctx context.Context, email, code string, now time.Time) (bool, error) {
	result := s.db.WithContext(ctx).
		Model(&VerificationRecord{}).
		Where("email = ? AND code = ? AND verified_at IS NULL AND expires_at > ?", email, code, now).
		Update("verified_at", now)
	if result.Error != nil {
		return false, unavailable("failed to mark email verified", result.Error)
	}
	return result.RowsAffected == 1, nil
}

func (s *GormStore) PurgeExpired(ctx context.Context, before time.Time) (int64, error) {
	result := s.db.WithContext(ctx).
		Where("expires_at < ?", before).
		Delete(&VerificationRecord{})
	if result.Error != nil {
		return 0, unavailable("failed to purge expired codes", result.Error)
	}
	return result.RowsAffected, nil
}
