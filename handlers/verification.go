package handlers

import (
	"context"
	"net/http"

	"github.com/PrithviSeran/whats-poppin-sub003/services/logging"
	"github.com/labstack/echo/v4"
	"github.com/mileusna/useragent"
	"go.uber.org/zap"
)

type CodeService interface {
	RequestCode(ctx context.Context, email string) error
	VerifyCode(ctx context.Context, email, code string) error
}

type VerificationHandler struct {
	codes  CodeService
	logger *logging.Service
}

func NewVerificationHandler(codes CodeService, logger *logging.Service) *VerificationHandler {
	return &VerificationHandler{codes: codes, logger: logger}
}

func (h *VerificationHandler) RequestCode(c echo.Context) error {
	var req EmailRequest
	if err := c.Bind(&req); err != nil {
		return invalidRequest(c, "request body must be JSON with an email field")
	}

	ua := useragent.Parse(c.Request().UserAgent())
	h.logger.Info("verification code requested",
		zap.String("request_id", c.Response().Header().Get(echo.HeaderXRequestID)),
		zap.String("remote_ip", c.RealIP()),
		zap.String("client_os", ua.OS),
		zap.String("client_name", ua.Name),
		zap.String("client_device", deviceClass(ua)))

	if err := h.codes.RequestCode(c.Request().Context(), req.Email); err != nil {
		return writeError(c, h.logger, err)
	}
	return c.JSON(http.StatusOK, SuccessResponse{Success: true})
}

func (h *VerificationHandler) VerifyCode(c echo.Context) error {
	var req VerifyRequest
	if err := c.Bind(&req); err != nil {
		return invalidRequest(c, "request body must be JSON with email and code fields")
	}

	if err := h.codes.VerifyCode(c.Request().Context(), req.Email, req.Code); err != nil {
		return writeError(c, h.logger, err)
	}
	return c.JSON(http.StatusOK, SuccessResponse{Success: true})
}

func deviceClass(ua useragent.UserAgent) string {
	switch {
	case ua.Bot:
		return "bot"
	case ua.Mobile:
		return "mobile"
	case ua.Tablet:
		return "tablet"
	case ua.Desktop:
		return "desktop"
	default:
		return "unknown"
	}
}
