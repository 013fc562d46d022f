package otp

import (
	"context"
	"time"
)

// Store persists at most one VerificationRecord per email.
//
// Errors other than ErrRecordNotFound wrap ErrStoreUnavailable.
type Store interface {
	// Put unconditionally replaces the record for email. The write is
	// atomic: concurrent callers leave exactly one of their records behind.
	Put(ctx context.Context, email, code string, createdAt, expiresAt time.Time) error

	Get(ctx context.Context, email string) (*VerificationRecord, error)

	// MarkVerified sets verified_at only while the record still holds code,
	// is unverified and has not expired at now. It reports whether the
	// update was applied.
	MarkVerified(ctx context.Context, email, code string, now time.Time) (bool, error)

	// PurgeExpired deletes records that expired before the given time.
	PurgeExpired(ctx context.Context, before time.Time) (int64, error)
}
