package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/PrithviSeran/whats-poppin-sub003/middleware/ratelimit"
	"github.com/PrithviSeran/whats-poppin-sub003/services/accounts"
	"github.com/PrithviSeran/whats-poppin-sub003/services/emaillink"
	"github.com/PrithviSeran/whats-poppin-sub003/services/logging"
	"github.com/PrithviSeran/whats-poppin-sub003/services/otp"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

type SuccessResponse struct {
	Success bool `json:"success"`
}

type ErrorResponse struct {
	Error  string `json:"error"`
	Reason string `json:"reason,omitempty" doc:"Machine-readable failure kind" example:"Mismatch"`
}

type EmailRequest struct {
	Email string `json:"email" example:"user@example.com"`
}

type VerifyRequest struct {
	Email string `json:"email" example:"user@example.com"`
	Code  string `json:"code" doc:"Six digit code from the email" example:"123456"`
}

type AvailabilityResponse struct {
	Email     string `json:"email"`
	Available bool   `json:"available"`
}

type LinkConfirmedResponse struct {
	Success bool   `json:"success"`
	Email   string `json:"email"`
}

type failure struct {
	err     error
	status  int
	reason  string
	message string
}

// failures maps domain errors to responses. The message is what the client
// sees; the wrapped cause only goes to the log.
var failures = []failure{
	{otp.ErrValidation, http.StatusBadRequest, otp.ReasonValidation, "email address or code is malformed"},
	{otp.ErrResendCooldown, http.StatusTooManyRequests, otp.ReasonCooldown, "a verification code was requested too recently"},
	{otp.ErrDelivery, http.StatusBadGateway, otp.ReasonDelivery, "verification email could not be sent, try again"},
	{otp.ErrStoreUnavailable, http.StatusServiceUnavailable, otp.ReasonStore, "verification store is unavailable, try again"},
	{otp.ErrDuplicate, http.StatusConflict, otp.ReasonDuplicate, "email address is already registered"},
	{otp.ErrNotFound, http.StatusNotFound, otp.ReasonNotFound, "no verification code was requested for this email"},
	{otp.ErrAlreadyVerified, http.StatusConflict, otp.ReasonAlreadyVerified, "email address is already verified"},
	{otp.ErrExpired, http.StatusGone, otp.ReasonExpired, "verification code has expired"},
	{otp.ErrMismatch, http.StatusUnprocessableEntity, otp.ReasonMismatch, "verification code does not match"},

	{emaillink.ErrInvalidEmail, http.StatusBadRequest, otp.ReasonValidation, "email address is malformed"},
	{emaillink.ErrDisabled, http.StatusNotFound, otp.ReasonNotFound, "link verification is disabled"},
	{emaillink.ErrTokenInvalid, http.StatusNotFound, otp.ReasonNotFound, "verification link is invalid"},
	{emaillink.ErrTokenExpired, http.StatusGone, otp.ReasonExpired, "verification link has expired"},
	{emaillink.ErrTokenUsed, http.StatusConflict, otp.ReasonAlreadyVerified, "verification link was already used"},
	{emaillink.ErrDelivery, http.StatusBadGateway, otp.ReasonDelivery, "verification email could not be sent, try again"},
	{emaillink.ErrStoreUnavailable, http.StatusServiceUnavailable, otp.ReasonStore, "verification store is unavailable, try again"},

	{accounts.ErrUnavailable, http.StatusServiceUnavailable, otp.ReasonStore, "account store is unavailable, try again"},
}

func classify(err error) (failure, bool) {
	for _, f := range failures {
		if errors.Is(err, f.err) {
			return f, true
		}
	}
	return failure{}, false
}

// writeError renders a domain error as {error, reason} with a fixed public
// message and logs the full cause. Unknown errors are passed on to echo's
// error handler.
func writeError(c echo.Context, logger *logging.Service, err error) error {
	f, ok := classify(err)
	if !ok {
		return err
	}

	fields := []zap.Field{
		zap.String("path", c.Path()),
		zap.String("reason", f.reason),
		zap.Int("status", f.status),
		zap.Error(err),
	}
	if f.status >= http.StatusInternalServerError {
		logger.Error("request failed", fields...)
	} else {
		logger.Info("request rejected", fields...)
	}

	var cooldownErr *otp.CooldownError
	if errors.As(err, &cooldownErr) {
		c.Response().Header().Set(echo.HeaderRetryAfter, ratelimit.RetryAfterSeconds(cooldownErr.Remaining))
	}

	return c.JSON(f.status, ErrorResponse{Error: f.message, Reason: f.reason})
}

func invalidRequest(c echo.Context, message string) error {
	return c.JSON(http.StatusBadRequest, ErrorResponse{Error: message, Reason: otp.ReasonValidation})
}

func rateLimited(c echo.Context, _ time.Duration) error {
	return c.JSON(http.StatusTooManyRequests, ErrorResponse{
		Error:  "too many requests, try again later",
		Reason: otp.ReasonCooldown,
	})
}
