package handlers

import (
	"net/http"

	"github.com/PrithviSeran/whats-poppin-sub003/config"
	"github.com/PrithviSeran/whats-poppin-sub003/middleware/ratelimit"
	"github.com/PrithviSeran/whats-poppin-sub003/openapi"
	"github.com/PrithviSeran/whats-poppin-sub003/services/emaillink"
	"github.com/PrithviSeran/whats-poppin-sub003/services/logging"
	"github.com/labstack/echo/v4"
)

const (
	RequestCodePath  = "/api/verification/code"
	VerifyCodePath   = "/api/verification/verify"
	AvailabilityPath = "/api/accounts/availability"
	RequestLinkPath  = "/api/verification/link"
	ConfirmLinkPath  = emaillink.ConfirmPath
	OpenAPIJSONPath  = "/api/openapi.json"
	OpenAPIYAMLPath  = "/api/openapi.yaml"
)

// Routes holds what Register wires. Directory and Links are optional; their
// routes are only mounted when present.
type Routes struct {
	Config    *config.Config
	Logger    *logging.Service
	Codes     CodeService
	Directory AvailabilityChecker
	Links     LinkService
	// LinksEnabled gates the link routes when Links is set.
	LinksEnabled bool
	// RateLimitStore backs the per-IP limiter on the POST routes. A private
	// in-memory store is used when nil.
	RateLimitStore ratelimit.Store
}

// Register mounts the verification API on e and returns the OpenAPI document
// describing the mounted routes.
func Register(e *echo.Echo, r Routes) *openapi.Document {
	doc := openapi.New(r.Config.App.Name+" API", "1.0.0").
		Description("Email ownership verification by one-time code").
		Server(r.Config.App.URL, "default").
		Tag("verification", "One-time code issuance and verification").
		Tag("accounts", "Account lookups")

	limiter := ratelimit.Middleware(&ratelimit.Config{
		Store:          r.RateLimitStore,
		Rate:           r.Config.RateLimit.Rate,
		Period:         r.Config.RateLimit.Period,
		CountMode:      r.Config.RateLimit.CountMode,
		OnLimitReached: rateLimited,
	})

	verification := NewVerificationHandler(r.Codes, r.Logger)
	e.POST(RequestCodePath, verification.RequestCode, limiter)
	doc.Operation(http.MethodPost, RequestCodePath).
		OperationID("requestVerificationCode").
		Summary("Send a verification code").
		Description("Issues a fresh six digit code for the address, replacing any earlier one, and emails it.").
		Tags("verification").
		Body(EmailRequest{}, "Address to verify").
		Response(http.StatusOK, SuccessResponse{}, "Code sent").
		Response(http.StatusBadRequest, ErrorResponse{}, "Malformed address").
		Response(http.StatusConflict, ErrorResponse{}, "Address already belongs to an account").
		Response(http.StatusTooManyRequests, ErrorResponse{}, "Resend cooldown or rate limit active").
		ResponseHeader(http.StatusTooManyRequests, echo.HeaderRetryAfter, "Seconds until a new request is accepted").
		Response(http.StatusBadGateway, ErrorResponse{}, "Email could not be delivered").
		Response(http.StatusServiceUnavailable, ErrorResponse{}, "Code store unavailable").
		Build()

	e.POST(VerifyCodePath, verification.VerifyCode, limiter)
	doc.Operation(http.MethodPost, VerifyCodePath).
		OperationID("verifyCode").
		Summary("Verify a code").
		Tags("verification").
		Body(VerifyRequest{}, "Address and submitted code").
		Response(http.StatusOK, SuccessResponse{}, "Address verified").
		Response(http.StatusBadRequest, ErrorResponse{}, "Malformed address or code").
		Response(http.StatusNotFound, ErrorResponse{}, "No code was issued for the address").
		Response(http.StatusConflict, ErrorResponse{}, "Code already used").
		Response(http.StatusGone, ErrorResponse{}, "Code expired").
		Response(http.StatusUnprocessableEntity, ErrorResponse{}, "Code does not match").
		Response(http.StatusTooManyRequests, ErrorResponse{}, "Rate limit reached").
		Response(http.StatusServiceUnavailable, ErrorResponse{}, "Code store unavailable").
		Build()

	if r.Directory != nil {
		accounts := NewAccountsHandler(r.Directory, r.Logger)
		e.GET(AvailabilityPath, accounts.Availability)
		doc.Operation(http.MethodGet, AvailabilityPath).
			OperationID("checkEmailAvailability").
			Summary("Check whether an address is free").
			Tags("accounts").
			QueryParam("email", "Address to look up", true).
			Response(http.StatusOK, AvailabilityResponse{}, "Lookup result").
			Response(http.StatusBadRequest, ErrorResponse{}, "Malformed address").
			Response(http.StatusServiceUnavailable, ErrorResponse{}, "Account store unavailable").
			Build()
	}

	if r.Links != nil && r.LinksEnabled {
		links := NewEmailLinkHandler(r.Links, r.Logger)
		e.POST(RequestLinkPath, links.RequestLink, limiter)
		doc.Operation(http.MethodPost, RequestLinkPath).
			OperationID("requestVerificationLink").
			Summary("Send a verification link").
			Tags("verification").
			Body(EmailRequest{}, "Address to verify").
			Response(http.StatusOK, SuccessResponse{}, "Link sent").
			Response(http.StatusBadRequest, ErrorResponse{}, "Malformed address").
			Response(http.StatusBadGateway, ErrorResponse{}, "Email could not be delivered").
			Response(http.StatusServiceUnavailable, ErrorResponse{}, "Token store unavailable").
			Build()

		e.GET(ConfirmLinkPath, links.Confirm)
		doc.Operation(http.MethodGet, ConfirmLinkPath).
			OperationID("confirmVerificationLink").
			Summary("Confirm a verification link").
			Tags("verification").
			QueryParam("token", "Token from the emailed link", true).
			Response(http.StatusOK, LinkConfirmedResponse{}, "Address verified").
			Response(http.StatusNotFound, ErrorResponse{}, "Unknown token").
			Response(http.StatusConflict, ErrorResponse{}, "Token already used").
			Response(http.StatusGone, ErrorResponse{}, "Token expired").
			Build()
	}

	e.GET(OpenAPIJSONPath, doc.JSONHandler())
	e.GET(OpenAPIYAMLPath, doc.YAMLHandler())

	return doc
}
