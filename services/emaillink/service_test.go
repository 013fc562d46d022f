package emaillink

import (
	"context"
	"net/url"
	"testing"
	"time"

	"github.com/PrithviSeran/whats-poppin-sub003/services/mail"
	"github.com/PrithviSeran/whats-poppin-sub003/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T) (*Service, *testutils.MockMailService, *testutils.FakeClock) {
	t.Helper()

	cfg := testutils.GetTestConfig()
	db := testutils.SetupTestDB(t, Models()...)
	clock := testutils.NewFakeClock()

	service := NewService(cfg, db, nil)
	service.now = clock.Now

	mailer := &testutils.MockMailService{}
	service.SetMailService(mailer)
	return service, mailer, clock
}

// requestToken issues a link for email and returns the token from the URL
// handed to the mailer.
func requestToken(t *testing.T, service *Service, mailer *testutils.MockMailService, email string) string {
	t.Helper()

	var verificationURL string
	mailer.On("SendTemplate", mock.Anything, mail.TemplateEmailVerification, []string{email}, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			data := args.Get(4).(map[string]any)
			verificationURL = data["VerificationURL"].(string)
		}).
		Return(nil).Once()

	require.NoError(t, service.RequestLink(context.Background(), email))

	parsed, err := url.Parse(verificationURL)
	require.NoError(t, err)
	assert.Equal(t, ConfirmPath, parsed.Path)
	token := parsed.Query().Get("token")
	require.Len(t, token, 64)
	return token
}

func TestService_RequestAndConfirm(t *testing.T) {
	ctx := context.Background()
	service, mailer, _ := newTestService(t)

	token := requestToken(t, service, mailer, "a@example.com")
	mailer.AssertExpectations(t)

	verified, err := service.IsVerified(ctx, "a@example.com")
	require.NoError(t, err)
	assert.False(t, verified)

	record, err := service.ConfirmToken(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, "a@example.com", record.Email)
	assert.True(t, record.Verified)
	assert.NotNil(t, record.VerifiedAt)

	verified, err = service.IsVerified(ctx, "A@Example.com")
	require.NoError(t, err)
	assert.True(t, verified)

	_, err = service.ConfirmToken(ctx, token)
	assert.ErrorIs(t, err, ErrTokenUsed)
}

func TestService_ConfirmErrors(t *testing.T) {
	ctx := context.Background()
	service, mailer, clock := newTestService(t)

	_, err := service.ConfirmToken(ctx, "")
	assert.ErrorIs(t, err, ErrTokenInvalid)

	_, err = service.ConfirmToken(ctx, "deadbeef")
	assert.ErrorIs(t, err, ErrTokenInvalid)

	token := requestToken(t, service, mailer, "a@example.com")
	clock.Advance(25 * time.Hour)

	_, err = service.ConfirmToken(ctx, token)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestService_RequestErrors(t *testing.T) {
	ctx := context.Background()

	t.Run("invalid email", func(t *testing.T) {
		service, mailer, _ := newTestService(t)

		err := service.RequestLink(ctx, testutils.TestEmails.Invalid)
		assert.ErrorIs(t, err, ErrInvalidEmail)
		mailer.AssertNumberOfCalls(t, "SendTemplate", 0)
	})

	t.Run("mail failure", func(t *testing.T) {
		service, mailer, _ := newTestService(t)
		mailer.On("SendTemplate", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Return(assert.AnError).Once()

		err := service.RequestLink(ctx, "a@example.com")
		assert.ErrorIs(t, err, ErrDelivery)
		assert.ErrorIs(t, err, assert.AnError)
	})

	t.Run("no mail service", func(t *testing.T) {
		cfg := testutils.GetTestConfig()
		service := NewService(cfg, testutils.SetupTestDB(t, Models()...), nil)

		assert.ErrorIs(t, service.RequestLink(ctx, "a@example.com"), ErrDelivery)
	})
}

func TestService_Disabled(t *testing.T) {
	ctx := context.Background()
	cfg := testutils.GetTestConfig()
	cfg.EmailLink.Enabled = false
	service := NewService(cfg, testutils.SetupTestDB(t, Models()...), nil)

	assert.False(t, service.Enabled())
	assert.ErrorIs(t, service.RequestLink(ctx, "a@example.com"), ErrDisabled)

	_, err := service.ConfirmToken(ctx, "token")
	assert.ErrorIs(t, err, ErrDisabled)
}

func TestService_PurgeExpired(t *testing.T) {
	ctx := context.Background()
	service, mailer, clock := newTestService(t)

	stale := requestToken(t, service, mailer, "stale@example.com")
	confirmed := requestToken(t, service, mailer, "done@example.com")
	_, err := service.ConfirmToken(ctx, confirmed)
	require.NoError(t, err)

	clock.Advance(25 * time.Hour)
	fresh := requestToken(t, service, mailer, "fresh@example.com")

	purged, err := service.PurgeExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), purged)

	_, err = service.ConfirmToken(ctx, stale)
	assert.ErrorIs(t, err, ErrTokenInvalid)
	_, err = service.ConfirmToken(ctx, fresh)
	assert.NoError(t, err)

	verified, err := service.IsVerified(ctx, "done@example.com")
	require.NoError(t, err)
	assert.True(t, verified, "confirmed tokens survive the purge")
}

func TestService_VerificationURL(t *testing.T) {
	cfg := testutils.GetTestConfig()
	cfg.App.URL = "https://app.example.com/"
	service := NewService(cfg, nil, nil)

	assert.Equal(t, "https://app.example.com/api/verification/link/confirm?token=abc", service.VerificationURL("abc"))
}
