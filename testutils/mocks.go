package testutils

import (
	"context"
	"sync"

	"github.com/stretchr/testify/mock"
)

type MockMailService struct {
	mock.Mock
}

func (m *MockMailService) SendTemplate(ctx context.Context, templateName string, to []string, subject string, data map[string]any) error {
	args := m.Called(ctx, templateName, to, subject, data)
	return args.Error(0)
}

type MockDispatcher struct {
	mock.Mock
}

func (m *MockDispatcher) Send(ctx context.Context, recipient, code string) error {
	args := m.Called(ctx, recipient, code)
	return args.Error(0)
}

// SentCode is one delivery captured by RecordingDispatcher.
type SentCode struct {
	Recipient string
	Code      string
}

// RecordingDispatcher captures every code it is asked to send. Err, when
// set, is returned after recording.
type RecordingDispatcher struct {
	mu   sync.Mutex
	sent []SentCode
	Err  error
}

func (d *RecordingDispatcher) Send(_ context.Context, recipient, code string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.sent = append(d.sent, SentCode{Recipient: recipient, Code: code})
	return d.Err
}

func (d *RecordingDispatcher) Sent() []SentCode {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]SentCode(nil), d.sent...)
}

// LastCode returns the most recent code sent to recipient, or "".
func (d *RecordingDispatcher) LastCode(recipient string) string {
	d.mu.Lock()
	defer d.mu.Unlock()

	for i := len(d.sent) - 1; i >= 0; i-- {
		if d.sent[i].Recipient == recipient {
			return d.sent[i].Code
		}
	}
	return ""
}
