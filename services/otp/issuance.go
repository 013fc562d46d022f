package otp

import (
	"context"
	"errors"
	"fmt"

	"github.com/PrithviSeran/whats-poppin-sub003/internal/emailaddr"
	"go.uber.org/zap"
)

func normalizeEmail(email string) (string, error) {
	normalized, err := emailaddr.Parse(email)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrValidation, err)
	}
	return normalized, nil
}

// RequestCode issues a fresh code for email, replacing any previous one, and
// hands it to the dispatcher. The code is stored before it is sent, so a
// delivery failure still leaves the new code as the only valid one.
func (s *Service) RequestCode(ctx context.Context, email string) error {
	normalized, err := normalizeEmail(email)
	if err != nil {
		s.logger.Warn("verification code requested for invalid email", zap.String("email", email))
		return err
	}

	logger := s.logger.With(zap.String("email", normalized))

	if s.directory != nil {
		exists, err := s.directory.EmailExists(ctx, normalized)
		if err != nil {
			logger.Error("failed to check account directory", zap.Error(err))
			return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
		}
		if exists {
			logger.Info("verification code refused: email already registered")
			return ErrDuplicate
		}
	}

	if remaining, ok := s.cooldown.Acquire(normalized); !ok {
		logger.Info("verification code refused: resend cooldown active",
			zap.Duration("remaining", remaining))
		return &CooldownError{Remaining: remaining}
	}

	if err := s.issue(ctx, normalized); err != nil {
		s.cooldown.Release(normalized)
		if errors.Is(err, ErrDelivery) {
			logger.Error("verification code stored but not delivered", zap.Error(err))
		} else {
			logger.Error("failed to issue verification code", zap.Error(err))
		}
		return err
	}

	logger.Info("verification code issued")
	return nil
}

func (s *Service) issue(ctx context.Context, email string) error {
	code, err := s.generate()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}

	now := s.currentTime()
	if err := s.store.Put(ctx, email, code, now, now.Add(s.config.Expiry)); err != nil {
		return err
	}

	if err := s.dispatcher.Send(ctx, email, code); err != nil {
		return fmt.Errorf("%w: %w", ErrDelivery, err)
	}
	return nil
}
