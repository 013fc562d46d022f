package otp

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrValidation       = errors.New("validation failed")
	ErrDuplicate        = errors.New("email address is already registered")
	ErrDelivery         = errors.New("failed to deliver verification code")
	ErrStoreUnavailable = errors.New("verification store is unavailable")
	ErrNotFound         = errors.New("no verification code was requested for this email")
	ErrExpired          = errors.New("verification code has expired")
	ErrAlreadyVerified  = errors.New("email address is already verified")
	ErrMismatch         = errors.New("verification code does not match")
	ErrResendCooldown   = errors.New("a verification code was requested too recently")

	// ErrRecordNotFound is returned by Store.Get; the services translate it
	// to ErrNotFound.
	ErrRecordNotFound = errors.New("verification record not found")
)

// Reason names, shared by the HTTP surface and the client backend.
const (
	ReasonValidation      = "ValidationError"
	ReasonDuplicate       = "Duplicate"
	ReasonDelivery        = "DeliveryError"
	ReasonStore           = "StoreUnavailable"
	ReasonNotFound        = "NotFound"
	ReasonExpired         = "Expired"
	ReasonAlreadyVerified = "AlreadyVerified"
	ReasonMismatch        = "Mismatch"
	ReasonCooldown        = "Cooldown"
)

var reasons = []struct {
	err    error
	reason string
}{
	{ErrValidation, ReasonValidation},
	{ErrDuplicate, ReasonDuplicate},
	{ErrDelivery, ReasonDelivery},
	{ErrStoreUnavailable, ReasonStore},
	{ErrNotFound, ReasonNotFound},
	{ErrExpired, ReasonExpired},
	{ErrAlreadyVerified, ReasonAlreadyVerified},
	{ErrMismatch, ReasonMismatch},
	{ErrResendCooldown, ReasonCooldown},
}

// Reason returns the wire name for err, or "" when err is not one of the
// package sentinels.
func Reason(err error) string {
	for _, r := range reasons {
		if errors.Is(err, r.err) {
			return r.reason
		}
	}
	return ""
}

// ErrorForReason is the inverse of Reason. Unknown reasons yield nil.
func ErrorForReason(reason string) error {
	for _, r := range reasons {
		if r.reason == reason {
			return r.err
		}
	}
	return nil
}

// CooldownError carries how long a caller must wait before another code can
// be issued for the same email. It matches ErrResendCooldown under errors.Is.
type CooldownError struct {
	Remaining time.Duration
}

func (e *CooldownError) Error() string {
	return fmt.Sprintf("%s: retry in %s", ErrResendCooldown, e.Remaining.Round(time.Second))
}

func (e *CooldownError) Unwrap() error {
	return ErrResendCooldown
}

func unavailable(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrStoreUnavailable, op, err)
}
