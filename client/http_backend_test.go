package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/PrithviSeran/whats-poppin-sub003/handlers"
	"github.com/PrithviSeran/whats-poppin-sub003/middleware/ratelimit"
	"github.com/PrithviSeran/whats-poppin-sub003/server"
	"github.com/PrithviSeran/whats-poppin-sub003/services/accounts"
	"github.com/PrithviSeran/whats-poppin-sub003/services/otp"
	"github.com/PrithviSeran/whats-poppin-sub003/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type liveServer struct {
	backend    *HTTPBackend
	dispatcher *testutils.RecordingDispatcher
	directory  *accounts.Directory
}

func newLiveServer(t *testing.T) *liveServer {
	t.Helper()

	cfg := testutils.GetTestConfig()
	dispatcher := &testutils.RecordingDispatcher{}
	service := otp.NewService(&cfg.OTP, otp.NewMemoryStore(), dispatcher, nil)

	cooldownStore := ratelimit.NewMemoryStore()
	t.Cleanup(cooldownStore.Close)
	service.SetCooldownStore(cooldownStore)

	directory, err := accounts.NewDirectory(testutils.SetupTestDB(t), cfg.Accounts.Table, nil)
	require.NoError(t, err)
	require.NoError(t, directory.Migrate())
	service.SetAccountDirectory(directory)

	srv := server.New(cfg, nil)
	handlers.Register(srv.Echo(), handlers.Routes{Config: cfg, Codes: service, Directory: directory})

	ts := httptest.NewServer(srv.Echo())
	t.Cleanup(ts.Close)

	return &liveServer{
		backend:    NewHTTPBackend(ts.URL+"/", WithUserAgent("verification-client-test")),
		dispatcher: dispatcher,
		directory:  directory,
	}
}

func TestHTTPBackend_EndToEnd(t *testing.T) {
	ctx := context.Background()
	live := newLiveServer(t)
	require.NoError(t, live.directory.Register(ctx, testutils.TestEmails.Registered))

	exists, err := live.backend.EmailExists(ctx, testutils.TestEmails.Registered)
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = live.backend.EmailExists(ctx, testutils.TestEmails.Unregistered)
	require.NoError(t, err)
	assert.False(t, exists)

	err = live.backend.RequestCode(ctx, testutils.TestEmails.Registered)
	assert.ErrorIs(t, err, otp.ErrDuplicate)

	email := testutils.TestEmails.Unregistered
	require.NoError(t, live.backend.RequestCode(ctx, email))
	code := live.dispatcher.LastCode(email)
	require.NotEmpty(t, code)

	var cooldownErr *otp.CooldownError
	err = live.backend.RequestCode(ctx, email)
	require.ErrorAs(t, err, &cooldownErr)
	assert.Equal(t, 60*time.Second, cooldownErr.Remaining)

	wrong := "000000"
	if code == wrong {
		wrong = "111111"
	}
	assert.ErrorIs(t, live.backend.VerifyCode(ctx, email, wrong), otp.ErrMismatch)
	assert.ErrorIs(t, live.backend.VerifyCode(ctx, "nobody@example.com", code), otp.ErrNotFound)
	assert.ErrorIs(t, live.backend.VerifyCode(ctx, email, "12"), otp.ErrValidation)

	require.NoError(t, live.backend.VerifyCode(ctx, email, code))
	assert.ErrorIs(t, live.backend.VerifyCode(ctx, email, code), otp.ErrAlreadyVerified)
}

func TestMachine_OverHTTP(t *testing.T) {
	live := newLiveServer(t)
	m := New(live.backend, Options{Debounce: 10 * time.Millisecond})
	t.Cleanup(m.Close)

	verified := make(chan string, 1)
	m.OnVerified(func(email string) { verified <- email })

	m.SetEmail("Fresh@Example.com")
	waitForState(t, m, Available)
	require.NoError(t, m.SendCode())
	waitForState(t, m, Sent)

	require.NoError(t, m.SubmitCode(live.dispatcher.LastCode("fresh@example.com")))
	waitForState(t, m, Verified)
	assert.Equal(t, "fresh@example.com", <-verified)
}

func TestHTTPBackend_DecodeFailure(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		header map[string]string
		want   error
	}{
		{"reason wins", http.StatusGone, `{"error":"gone","reason":"Expired"}`, nil, otp.ErrExpired},
		{"server error without reason", http.StatusBadGateway, `<html>bad gateway</html>`, nil, otp.ErrStoreUnavailable},
		{"bad request without reason", http.StatusBadRequest, `{"error":"bad"}`, nil, otp.ErrValidation},
		{"rate limited", http.StatusTooManyRequests, `{"error":"slow down","reason":"Cooldown"}`, map[string]string{"Retry-After": "7"}, otp.ErrResendCooldown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				for k, v := range tt.header {
					w.Header().Set(k, v)
				}
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer ts.Close()

			err := NewHTTPBackend(ts.URL).RequestCode(context.Background(), "a@b.com")
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestHTTPBackend_RetryAfter(t *testing.T) {
	assert.Equal(t, 7*time.Second, retryAfter("7"))
	assert.Zero(t, retryAfter(""))
	assert.Zero(t, retryAfter("soon"))
	assert.Zero(t, retryAfter(time.Now().Add(-time.Hour).UTC().Format(http.TimeFormat)))
}

func TestHTTPBackend_Unreachable(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	url := ts.URL
	ts.Close()

	_, err := NewHTTPBackend(url).EmailExists(context.Background(), "a@b.com")
	assert.ErrorIs(t, err, otp.ErrStoreUnavailable)
}
