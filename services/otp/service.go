package otp

import (
	"context"
	"time"

	"github.com/PrithviSeran/whats-poppin-sub003/config"
	"github.com/PrithviSeran/whats-poppin-sub003/middleware/ratelimit"
	"github.com/PrithviSeran/whats-poppin-sub003/services/logging"
	"go.uber.org/zap"
)

const cooldownKeyPrefix = "otp_resend:"

// AccountDirectory answers whether an email already belongs to an account.
type AccountDirectory interface {
	EmailExists(ctx context.Context, email string) (bool, error)
}

// Service issues and verifies one-time email codes.
type Service struct {
	config     *config.OTPConfig
	store      Store
	dispatcher Dispatcher
	logger     *logging.Service

	cooldown  *ratelimit.Cooldown
	directory AccountDirectory

	now      func() time.Time
	generate func() (string, error)
}

func NewService(cfg *config.OTPConfig, store Store, dispatcher Dispatcher, logger *logging.Service) *Service {
	logger.Info("initializing OTP service",
		zap.Duration("expiry", cfg.Expiry),
		zap.Duration("resend_cooldown", cfg.ResendCooldown))

	return &Service{
		config:     cfg,
		store:      store,
		dispatcher: dispatcher,
		logger:     logger,
		now:        time.Now,
		generate:   GenerateCode,
	}
}

// SetCooldownStore enables the per-email resend cooldown.
func (s *Service) SetCooldownStore(store ratelimit.Store) {
	if store == nil || s.config.ResendCooldown <= 0 {
		s.cooldown = nil
		return
	}
	s.cooldown = ratelimit.NewCooldown(store, cooldownKeyPrefix, s.config.ResendCooldown)
	s.cooldown.SetClock(s.now)
}

// SetAccountDirectory makes RequestCode refuse emails that already have an
// account.
func (s *Service) SetAccountDirectory(directory AccountDirectory) {
	s.directory = directory
}

func (s *Service) setClock(now func() time.Time) {
	s.now = now
	if s.cooldown != nil {
		s.cooldown.SetClock(now)
	}
}

func (s *Service) currentTime() time.Time {
	return s.now().UTC()
}

// CooldownRemaining reports how long until another code can be issued for
// email. Unparseable emails report zero.
func (s *Service) CooldownRemaining(email string) time.Duration {
	normalized, err := normalizeEmail(email)
	if err != nil {
		return 0
	}
	return s.cooldown.Remaining(normalized)
}

// PurgeExpired deletes every record whose expiry has passed.
func (s *Service) PurgeExpired(ctx context.Context) (int64, error) {
	purged, err := s.store.PurgeExpired(ctx, s.currentTime())
	if err != nil {
		s.logger.Error("failed to purge expired verification codes", zap.Error(err))
		return 0, err
	}
	if purged > 0 {
		s.logger.Info("purged expired verification codes", zap.Int64("count", purged))
	}
	return purged, nil
}

// RunCleanup purges expired records every interval until ctx is done.
func (s *Service) RunCleanup(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_, _ = s.PurgeExpired(ctx)
		}
	}
}
