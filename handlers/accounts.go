package handlers

import (
	"context"
	"net/http"

	"github.com/PrithviSeran/whats-poppin-sub003/internal/emailaddr"
	"github.com/PrithviSeran/whats-poppin-sub003/services/logging"
	"github.com/labstack/echo/v4"
)

type AvailabilityChecker interface {
	EmailExists(ctx context.Context, email string) (bool, error)
}

type AccountsHandler struct {
	directory AvailabilityChecker
	logger    *logging.Service
}

func NewAccountsHandler(directory AvailabilityChecker, logger *logging.Service) *AccountsHandler {
	return &AccountsHandler{directory: directory, logger: logger}
}

func (h *AccountsHandler) Availability(c echo.Context) error {
	email, err := emailaddr.Parse(c.QueryParam("email"))
	if err != nil {
		return invalidRequest(c, "email query parameter must be a valid email address")
	}

	exists, err := h.directory.EmailExists(c.Request().Context(), email)
	if err != nil {
		return writeError(c, h.logger, err)
	}
	return c.JSON(http.StatusOK, AvailabilityResponse{Email: email, Available: !exists})
}
