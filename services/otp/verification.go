package otp

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
)

// VerifyCode checks submitted against the active code for email and, on a
// match, marks the email verified. Checks run in a fixed order: missing
// record, already verified, expired, mismatch.
func (s *Service) VerifyCode(ctx context.Context, email, submitted string) error {
	normalized, err := normalizeEmail(email)
	if err != nil {
		return err
	}
	submitted = strings.TrimSpace(submitted)
	if !IsCodeShape(submitted) {
		return fmt.Errorf("%w: code must be %d digits", ErrValidation, CodeLength)
	}
	logger := s.logger.With(zap.String("email", normalized))

	record, err := s.store.Get(ctx, normalized)
	if err != nil {
		if errors.Is(err, ErrRecordNotFound) {
			logger.Info("verification attempted without an issued code")
			return ErrNotFound
		}
		logger.Error("failed to load verification code", zap.Error(err))
		return err
	}

	now := s.currentTime()
	if err := checkRecord(record, submitted, now); err != nil {
		logger.Info("verification rejected", zap.Error(err))
		return err
	}

	applied, err := s.store.MarkVerified(ctx, normalized, record.Code, now)
	if err != nil {
		logger.Error("failed to mark email verified", zap.Error(err))
		return err
	}
	if !applied {
		err := s.resolveLostUpdate(ctx, normalized, submitted, now)
		logger.Info("verification lost a concurrent update", zap.Error(err))
		return err
	}

	logger.Info("email verified")
	return nil
}

func checkRecord(record *VerificationRecord, submitted string, now time.Time) error {
	switch {
	case record.IsVerified():
		return ErrAlreadyVerified
	case record.IsExpired(now):
		return ErrExpired
	case subtle.ConstantTimeCompare([]byte(submitted), []byte(record.Code)) != 1:
		return ErrMismatch
	}
	return nil
}

// resolveLostUpdate explains why the conditional update did not apply: some
// other request verified, replaced or purged the record in between.
func (s *Service) resolveLostUpdate(ctx context.Context, email, submitted string, now time.Time) error {
	record, err := s.store.Get(ctx, email)
	if err != nil {
		if errors.Is(err, ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}
	if err := checkRecord(record, submitted, now); err != nil {
		return err
	}
	return fmt.Errorf("%w: verification was not recorded", ErrStoreUnavailable)
}
