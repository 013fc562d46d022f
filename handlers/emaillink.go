package handlers

import (
	"context"
	"net/http"

	"github.com/PrithviSeran/whats-poppin-sub003/services/emaillink"
	"github.com/PrithviSeran/whats-poppin-sub003/services/logging"
	"github.com/labstack/echo/v4"
)

type LinkService interface {
	RequestLink(ctx context.Context, email string) error
	ConfirmToken(ctx context.Context, token string) (*emaillink.EmailVerificationToken, error)
}

type EmailLinkHandler struct {
	links  LinkService
	logger *logging.Service
}

func NewEmailLinkHandler(links LinkService, logger *logging.Service) *EmailLinkHandler {
	return &EmailLinkHandler{links: links, logger: logger}
}

func (h *EmailLinkHandler) RequestLink(c echo.Context) error {
	var req EmailRequest
	if err := c.Bind(&req); err != nil {
		return invalidRequest(c, "request body must be JSON with an email field")
	}

	if err := h.links.RequestLink(c.Request().Context(), req.Email); err != nil {
		return writeError(c, h.logger, err)
	}
	return c.JSON(http.StatusOK, SuccessResponse{Success: true})
}

func (h *EmailLinkHandler) Confirm(c echo.Context) error {
	record, err := h.links.ConfirmToken(c.Request().Context(), c.QueryParam("token"))
	if err != nil {
		return writeError(c, h.logger, err)
	}
	return c.JSON(http.StatusOK, LinkConfirmedResponse{Success: true, Email: record.Email})
}
