package client

import "context"

// Backend is the server side of the negotiation. Errors are expected to
// match the otp sentinels under errors.Is.
type Backend interface {
	EmailExists(ctx context.Context, email string) (bool, error)
	RequestCode(ctx context.Context, email string) error
	VerifyCode(ctx context.Context, email, code string) error
}
