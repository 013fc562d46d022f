package otp

import (
	"context"
	"fmt"
	"time"

	"github.com/PrithviSeran/whats-poppin-sub003/services/logging"
	"github.com/PrithviSeran/whats-poppin-sub003/services/mail"
	"go.uber.org/zap"
)

// Dispatcher delivers a code to a recipient. A returned error is final for
// that issuance; callers do not retry.
type Dispatcher interface {
	Send(ctx context.Context, recipient, code string) error
}

type DispatcherFunc func(ctx context.Context, recipient, code string) error

func (f DispatcherFunc) Send(ctx context.Context, recipient, code string) error {
	return f(ctx, recipient, code)
}

type TemplateMailer interface {
	SendTemplate(ctx context.Context, templateName string, to []string, subject string, data map[string]any) error
}

// MailDispatcher renders the otp_code template through the mail service.
type MailDispatcher struct {
	mailer  TemplateMailer
	appName string
	expiry  time.Duration
}

func NewMailDispatcher(mailer TemplateMailer, appName string, expiry time.Duration) *MailDispatcher {
	return &MailDispatcher{mailer: mailer, appName: appName, expiry: expiry}
}

func (d *MailDispatcher) Send(ctx context.Context, recipient, code string) error {
	data := map[string]any{
		"Code":          code,
		"AppName":       d.appName,
		"ExpiryMinutes": int(d.expiry.Minutes()),
	}
	subject := fmt.Sprintf("Your %s verification code", d.appName)
	return d.mailer.SendTemplate(ctx, mail.TemplateOTPCode, []string{recipient}, subject, data)
}

// LogDispatcher writes codes to the log instead of sending them. Development only.
type LogDispatcher struct {
	logger *logging.Service
}

func NewLogDispatcher(logger *logging.Service) *LogDispatcher {
	return &LogDispatcher{logger: logger}
}

func (d *LogDispatcher) Send(_ context.Context, recipient, code string) error {
	d.logger.Warn("verification code issued (log dispatcher, not delivered)",
		zap.String("email", recipient),
		zap.String("code", code))
	return nil
}
