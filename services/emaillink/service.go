package emaillink

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/PrithviSeran/whats-poppin-sub003/config"
	"github.com/PrithviSeran/whats-poppin-sub003/internal/emailaddr"
	"github.com/PrithviSeran/whats-poppin-sub003/services/logging"
	"github.com/PrithviSeran/whats-poppin-sub003/services/mail"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const ConfirmPath = "/api/verification/link/confirm"

var (
	ErrDisabled         = errors.New("email link verification is disabled")
	ErrInvalidEmail     = errors.New("invalid email address")
	ErrTokenInvalid     = errors.New("invalid email verification token")
	ErrTokenExpired     = errors.New("email verification token has expired")
	ErrTokenUsed        = errors.New("email verification token has already been used")
	ErrDelivery         = errors.New("failed to deliver verification link")
	ErrStoreUnavailable = errors.New("email verification token store is unavailable")
)

type MailService interface {
	SendTemplate(ctx context.Context, templateName string, to []string, subject string, data map[string]any) error
}

// Service implements verification by emailed link. It shares nothing with
// the code flow.
type Service struct {
	config      *config.Config
	db          *gorm.DB
	mailService MailService
	logger      *logging.Service
	now         func() time.Time
}

func NewService(cfg *config.Config, db *gorm.DB, logger *logging.Service) *Service {
	return &Service{
		config: cfg,
		db:     db,
		logger: logger,
		now:    time.Now,
	}
}

func (s *Service) SetMailService(mailService MailService) {
	s.mailService = mailService
}

func (s *Service) Enabled() bool {
	return s.config.EmailLink.Enabled
}

func (s *Service) generateToken() (string, error) {
	bytes := make([]byte, s.config.EmailLink.TokenLength)
	if _, err := rand.Read(bytes); err != nil {
		return "", fmt.Errorf("failed to generate secure token: %w", err)
	}
	return hex.EncodeToString(bytes), nil
}

func (s *Service) VerificationURL(token string) string {
	return strings.TrimRight(s.config.App.URL, "/") + ConfirmPath + "?token=" + url.QueryEscape(token)
}

func (s *Service) createToken(ctx context.Context, email string) (*EmailVerificationToken, error) {
	token, err := s.generateToken()
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	record := &EmailVerificationToken{
		Email:             email,
		VerificationToken: token,
		ExpiresAt:         now.Add(s.config.EmailLink.Expiry),
		CreatedAt:         now,
	}
	if err := s.db.WithContext(ctx).Create(record).Error; err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
	return record, nil
}

// RequestLink stores a new token for email and mails the confirmation link.
func (s *Service) RequestLink(ctx context.Context, email string) error {
	if !s.Enabled() {
		return ErrDisabled
	}

	normalized, err := emailaddr.Parse(email)
	if err != nil {
		s.logger.Warn("verification link requested for invalid email", zap.String("email", email))
		return fmt.Errorf("%w: %w", ErrInvalidEmail, err)
	}
	logger := s.logger.With(zap.String("email", normalized))

	record, err := s.createToken(ctx, normalized)
	if err != nil {
		logger.Error("failed to create email verification token", zap.Error(err))
		return err
	}

	if s.mailService == nil {
		logger.Warn("mail service is not configured")
		return fmt.Errorf("%w: mail service is not configured", ErrDelivery)
	}

	data := map[string]any{
		"Email":           normalized,
		"VerificationURL": s.VerificationURL(record.VerificationToken),
		"ExpiryHours":     int(s.config.EmailLink.Expiry.Hours()),
		"AppName":         s.config.App.Name,
	}
	subject := "Please verify your email address"
	if err := s.mailService.SendTemplate(ctx, mail.TemplateEmailVerification, []string{normalized}, subject, data); err != nil {
		logger.Error("failed to send email verification link", zap.Error(err))
		return fmt.Errorf("%w: %w", ErrDelivery, err)
	}

	logger.Info("email verification link sent")
	return nil
}

// ConfirmToken consumes token and returns the verified record. A token can
// be confirmed once.
func (s *Service) ConfirmToken(ctx context.Context, token string) (*EmailVerificationToken, error) {
	if !s.Enabled() {
		return nil, ErrDisabled
	}
	if token == "" {
		return nil, ErrTokenInvalid
	}

	now := s.now().UTC()
	result := s.db.WithContext(ctx).
		Model(&EmailVerificationToken{}).
		Where("verification_token = ? AND verified = ? AND expires_at > ?", token, false, now).
		Updates(map[string]any{"verified": true, "verified_at": now})
	if result.Error != nil {
		s.logger.Error("failed to confirm email verification token", zap.Error(result.Error))
		return nil, fmt.Errorf("%w: %w", ErrStoreUnavailable, result.Error)
	}

	record, err := s.findToken(ctx, token)
	if err != nil {
		return nil, err
	}

	if result.RowsAffected == 0 {
		switch {
		case record.Verified:
			return nil, ErrTokenUsed
		default:
			return nil, ErrTokenExpired
		}
	}

	s.logger.Info("email verified by link", zap.String("email", record.Email))
	return record, nil
}

func (s *Service) findToken(ctx context.Context, token string) (*EmailVerificationToken, error) {
	var record EmailVerificationToken
	err := s.db.WithContext(ctx).Where("verification_token = ?", token).First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTokenInvalid
		}
		return nil, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
	return &record, nil
}

// IsVerified reports whether any link for email has been confirmed.
func (s *Service) IsVerified(ctx context.Context, email string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&EmailVerificationToken{}).
		Where("email = ? AND verified = ?", emailaddr.Normalize(email), true).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
	return count > 0, nil
}

// PurgeExpired deletes unconfirmed tokens past their expiry.
func (s *Service) PurgeExpired(ctx context.Context) (int64, error) {
	result := s.db.WithContext(ctx).
		Where("verified = ? AND expires_at < ?", false, s.now().UTC()).
		Delete(&EmailVerificationToken{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to purge expired email verification tokens: %w", result.Error)
	}
	if result.RowsAffected > 0 {
		s.logger.Info("purged expired email verification tokens", zap.Int64("count", result.RowsAffected))
	}
	return result.RowsAffected, nil
}
