package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/PrithviSeran/whats-poppin-sub003/services/otp"
)

const (
	requestCodePath  = "/api/verification/code"
	verifyCodePath   = "/api/verification/verify"
	availabilityPath = "/api/accounts/availability"

	maxErrorBody = 64 << 10
)

type errorBody struct {
	Error  string `json:"error"`
	Reason string `json:"reason"`
}

type availabilityBody struct {
	Email     string `json:"email"`
	Available bool   `json:"available"`
}

// HTTPBackend talks to the verification HTTP API.
type HTTPBackend struct {
	baseURL   string
	client    *http.Client
	userAgent string
}

type HTTPOption func(*HTTPBackend)

func WithHTTPClient(client *http.Client) HTTPOption {
	return func(b *HTTPBackend) {
		b.client = client
	}
}

func WithUserAgent(userAgent string) HTTPOption {
	return func(b *HTTPBackend) {
		b.userAgent = userAgent
	}
}

func NewHTTPBackend(baseURL string, opts ...HTTPOption) *HTTPBackend {
	b := &HTTPBackend{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 15 * time.Second},
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *HTTPBackend) EmailExists(ctx context.Context, email string) (bool, error) {
	target := b.baseURL + availabilityPath + "?" + url.Values{"email": {email}}.Encode()

	var body availabilityBody
	if err := b.do(ctx, http.MethodGet, target, nil, &body); err != nil {
		return false, err
	}
	return !body.Available, nil
}

func (b *HTTPBackend) RequestCode(ctx context.Context, email string) error {
	return b.do(ctx, http.MethodPost, b.baseURL+requestCodePath, map[string]string{"email": email}, nil)
}

func (b *HTTPBackend) VerifyCode(ctx context.Context, email, code string) error {
	return b.do(ctx, http.MethodPost, b.baseURL+verifyCodePath, map[string]string{"email": email, "code": code}, nil)
}

func (b *HTTPBackend) do(ctx context.Context, method, target string, payload, out any) error {
	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if b.userAgent != "" {
		req.Header.Set("User-Agent", b.userAgent)
	}

	resp, err := b.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", otp.ErrStoreUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return decodeFailure(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: malformed response: %w", otp.ErrStoreUnavailable, err)
	}
	return nil
}

// decodeFailure maps an error response back onto the otp sentinels using the
// reason field, falling back to the status class.
func decodeFailure(resp *http.Response) error {
	var body errorBody
	_ = json.NewDecoder(io.LimitReader(resp.Body, maxErrorBody)).Decode(&body)

	message := body.Error
	if message == "" {
		message = http.StatusText(resp.StatusCode)
	}

	if body.Reason == otp.ReasonCooldown || resp.StatusCode == http.StatusTooManyRequests {
		return &otp.CooldownError{Remaining: retryAfter(resp.Header.Get("Retry-After"))}
	}

	if sentinel := otp.ErrorForReason(body.Reason); sentinel != nil {
		return fmt.Errorf("%w: %s", sentinel, message)
	}

	switch {
	case resp.StatusCode >= 500:
		return fmt.Errorf("%w: status %d: %s", otp.ErrStoreUnavailable, resp.StatusCode, message)
	case resp.StatusCode == http.StatusBadRequest:
		return fmt.Errorf("%w: %s", otp.ErrValidation, message)
	default:
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, message)
	}
}

func retryAfter(value string) time.Duration {
	if value == "" {
		return 0
	}
	if secs, err := strconv.Atoi(strings.TrimSpace(value)); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	if at, err := http.ParseTime(value); err == nil {
		if d := time.Until(at); d > 0 {
			return d
		}
	}
	return 0
}
