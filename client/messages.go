package client

import (
	"errors"
	"fmt"

	"github.com/PrithviSeran/whats-poppin-sub003/internal/emailaddr"
	"github.com/PrithviSeran/whats-poppin-sub003/services/otp"
)

// Message turns a failure into the inline text shown next to the field.
func Message(err error) string {
	if err == nil {
		return ""
	}

	var cooldownErr *otp.CooldownError
	switch {
	case errors.As(err, &cooldownErr):
		if cooldownErr.Remaining <= 0 {
			return "Too many attempts. Try again shortly."
		}
		if secs := ceilSeconds(cooldownErr.Remaining); secs > 1 {
			return fmt.Sprintf("Too many attempts. Try again in %d seconds.", secs)
		}
		return "Too many attempts. Try again in 1 second."
	case errors.Is(err, emailaddr.ErrInvalid):
		return "Enter a valid email address."
	case errors.Is(err, ErrInvalidCode):
		return "Enter the 6-digit code from the email."
	case errors.Is(err, otp.ErrValidation):
		return "Check the email address and code and try again."
	case errors.Is(err, otp.ErrDuplicate):
		return "An account with this email already exists."
	case errors.Is(err, otp.ErrDelivery):
		return "We couldn't send the email. Try resending the code."
	case errors.Is(err, otp.ErrNotFound):
		return "No code was sent to this address. Request a new one."
	case errors.Is(err, otp.ErrExpired):
		return "This code has expired. Request a new one."
	case errors.Is(err, otp.ErrMismatch):
		return "That code is incorrect. Check the email and try again."
	case errors.Is(err, otp.ErrAlreadyVerified):
		return "This email has already been verified."
	case errors.Is(err, otp.ErrResendCooldown):
		return "Too many attempts. Try again shortly."
	case errors.Is(err, otp.ErrStoreUnavailable):
		return "Something went wrong on our side. Please try again."
	default:
		return "Something went wrong. Please try again."
	}
}
