// Package client drives the email verification flow from the user's side:
// debounced availability checks, sending and resending codes with a cooldown,
// and submitting the code the user typed.
package client

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/PrithviSeran/whats-poppin-sub003/internal/emailaddr"
	"github.com/PrithviSeran/whats-poppin-sub003/services/logging"
	"github.com/PrithviSeran/whats-poppin-sub003/services/otp"
	"go.uber.org/zap"
)

var (
	ErrNotAllowed  = errors.New("action not allowed in the current state")
	ErrInvalidCode = fmt.Errorf("%w: code must be %d digits", otp.ErrValidation, otp.CodeLength)
)

const (
	DefaultDebounce          = 500 * time.Millisecond
	DefaultResendCooldown    = 60 * time.Second
	DefaultRequestTimeout    = 15 * time.Second
	DefaultCountdownInterval = time.Second
)

type Options struct {
	Debounce          time.Duration
	ResendCooldown    time.Duration
	RequestTimeout    time.Duration
	CountdownInterval time.Duration
	Now               func() time.Time
	Logger            *logging.Service
}

func (o *Options) applyDefaults() {
	if o.Debounce <= 0 {
		o.Debounce = DefaultDebounce
	}
	if o.ResendCooldown <= 0 {
		o.ResendCooldown = DefaultResendCooldown
	}
	if o.RequestTimeout <= 0 {
		o.RequestTimeout = DefaultRequestTimeout
	}
	if o.CountdownInterval <= 0 {
		o.CountdownInterval = DefaultCountdownInterval
	}
	if o.Now == nil {
		o.Now = time.Now
	}
}

// Machine is safe for concurrent use. Backend calls run on their own
// goroutines and every result is tagged with the edit generation it was
// issued under; results from an older generation are dropped.
type Machine struct {
	backend Backend
	opts    Options
	logger  *logging.Service

	ctx    context.Context
	cancel context.CancelFunc

	countdown chan time.Duration

	mu            sync.Mutex
	email         string
	generation    uint64
	state         State
	err           error
	resumeState   State
	lastSend      time.Time
	verifiedEmail string
	debounce      *time.Timer
	stopCountdown chan struct{}
	onChange      func(Snapshot)
	onVerified    func(email string)
}

func New(backend Backend, opts Options) *Machine {
	opts.applyDefaults()
	ctx, cancel := context.WithCancel(context.Background())

	return &Machine{
		backend:   backend,
		opts:      opts,
		logger:    opts.Logger,
		ctx:       ctx,
		cancel:    cancel,
		countdown: make(chan time.Duration, 1),
		state:     Idle,
	}
}

// OnChange registers fn to receive a snapshot after every transition.
func (m *Machine) OnChange(fn func(Snapshot)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onChange = fn
}

// OnVerified registers fn to receive the email once it is verified.
func (m *Machine) OnVerified(fn func(email string)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onVerified = fn
}

// Countdown delivers the remaining resend cooldown while it is running,
// ending with a zero value. Only the latest value is buffered.
func (m *Machine) Countdown() <-chan time.Duration {
	return m.countdown
}

func (m *Machine) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshotLocked()
}

func (m *Machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// VerifiedEmail returns the verified address, or "" before verification.
func (m *Machine) VerifiedEmail() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.verifiedEmail
}

func (m *Machine) CooldownRemaining() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cooldownRemainingLocked()
}

// SetEmail records an edit of the email field. Any change resets the flow
// and schedules a debounced availability check for a well-formed address.
func (m *Machine) SetEmail(raw string) {
	email := emailaddr.Normalize(raw)

	m.mu.Lock()
	if email == m.email {
		m.mu.Unlock()
		return
	}
	m.resetLocked(email)
	if email != "" {
		if err := emailaddr.Validate(email); err != nil {
			m.err = err
		} else {
			gen := m.generation
			m.debounce = time.AfterFunc(m.opts.Debounce, func() {
				m.check(gen, email)
			})
		}
	}
	m.commit()
}

// CheckNow skips the debounce, or retries a check that failed.
func (m *Machine) CheckNow() error {
	m.mu.Lock()
	if m.state != Idle {
		m.mu.Unlock()
		return ErrNotAllowed
	}
	if err := emailaddr.Validate(m.email); err != nil {
		m.err = err
		m.commit()
		return err
	}
	m.stopDebounceLocked()
	gen, email := m.generation, m.email
	m.mu.Unlock()

	go m.check(gen, email)
	return nil
}

// SendCode requests a code for the current email. It is also the resend
// action from Sent and CodeRejected, subject to the cooldown.
func (m *Machine) SendCode() error {
	return m.startSend(State.CanSend)
}

// Resend is SendCode restricted to states where a code was already sent.
func (m *Machine) Resend() error {
	return m.startSend(State.CanSubmit)
}

// SubmitCode verifies the code the user entered.
func (m *Machine) SubmitCode(code string) error {
	code = strings.TrimSpace(code)

	m.mu.Lock()
	if !m.state.CanSubmit() {
		m.mu.Unlock()
		return ErrNotAllowed
	}
	if !otp.IsCodeShape(code) {
		m.err = ErrInvalidCode
		m.commit()
		return ErrInvalidCode
	}
	m.state = Verifying
	m.err = nil
	gen, email := m.generation, m.email
	m.commit()

	go m.verify(gen, email, code)
	return nil
}

// Close stops timers and abandons in-flight calls.
func (m *Machine) Close() {
	m.cancel()

	m.mu.Lock()
	defer m.mu.Unlock()
	m.stopDebounceLocked()
	m.stopCountdownLocked()
}

func (m *Machine) startSend(allowed func(State) bool) error {
	m.mu.Lock()
	if !allowed(m.state) {
		m.mu.Unlock()
		return ErrNotAllowed
	}
	if remaining := m.cooldownRemainingLocked(); remaining > 0 {
		m.mu.Unlock()
		return &otp.CooldownError{Remaining: remaining}
	}
	m.resumeState = m.state
	m.state = Sending
	m.err = nil
	gen, email := m.generation, m.email
	m.commit()

	go m.send(gen, email)
	return nil
}

func (m *Machine) check(gen uint64, email string) {
	m.mu.Lock()
	if !m.currentLocked(gen, email) || m.state != Idle {
		m.mu.Unlock()
		return
	}
	m.state = CheckingAvailability
	m.err = nil
	m.commit()

	ctx, cancel := context.WithTimeout(m.ctx, m.opts.RequestTimeout)
	defer cancel()
	exists, err := m.backend.EmailExists(ctx, email)

	m.mu.Lock()
	if !m.currentLocked(gen, email) {
		m.mu.Unlock()
		m.logger.Debug("dropping stale availability result", zap.String("email", email))
		return
	}
	switch {
	case err != nil:
		m.state = Idle
		m.err = err
	case exists:
		m.state = Unavailable
		m.err = otp.ErrDuplicate
	default:
		m.state = Available
	}
	m.commit()
}

func (m *Machine) send(gen uint64, email string) {
	ctx, cancel := context.WithTimeout(m.ctx, m.opts.RequestTimeout)
	defer cancel()
	err := m.backend.RequestCode(ctx, email)

	m.mu.Lock()
	if !m.currentLocked(gen, email) {
		m.mu.Unlock()
		m.logger.Debug("dropping stale send result", zap.String("email", email))
		return
	}

	var cooldownErr *otp.CooldownError
	switch {
	case err == nil:
		m.state = Sent
		m.err = nil
		m.lastSend = m.opts.Now()
		m.startCountdownLocked()
	case errors.Is(err, otp.ErrDuplicate):
		m.state = Unavailable
		m.err = err
	default:
		if errors.As(err, &cooldownErr) && cooldownErr.Remaining > 0 {
			// mirror the server's window so the countdown matches it
			m.lastSend = m.opts.Now().Add(cooldownErr.Remaining - m.opts.ResendCooldown)
			m.startCountdownLocked()
		}
		m.state = m.resumeState
		m.err = err
		m.logger.Warn("verification code send failed", zap.String("email", email), zap.Error(err))
	}
	m.commit()
}

func (m *Machine) verify(gen uint64, email, code string) {
	ctx, cancel := context.WithTimeout(m.ctx, m.opts.RequestTimeout)
	defer cancel()
	err := m.backend.VerifyCode(ctx, email, code)

	m.mu.Lock()
	if !m.currentLocked(gen, email) {
		m.mu.Unlock()
		m.logger.Debug("dropping stale verify result", zap.String("email", email))
		return
	}

	switch {
	case err == nil, errors.Is(err, otp.ErrAlreadyVerified):
		// An already verified address moves forward like a match; the
		// error stays on the snapshot as an informational message.
		m.state = Verified
		m.err = err
		m.verifiedEmail = email
		m.stopCountdownLocked()
		onVerified := m.onVerified
		m.commit()
		if onVerified != nil {
			onVerified(email)
		}
		return
	case errors.Is(err, otp.ErrMismatch), errors.Is(err, otp.ErrExpired), errors.Is(err, otp.ErrValidation):
		m.state = Sent
	default:
		m.state = CodeRejected
	}
	m.err = err
	m.commit()
}

func (m *Machine) currentLocked(gen uint64, email string) bool {
	return gen == m.generation && email == m.email
}

func (m *Machine) resetLocked(email string) {
	m.generation++
	m.email = email
	m.state = Idle
	m.err = nil
	m.lastSend = time.Time{}
	m.verifiedEmail = ""
	m.stopDebounceLocked()
	m.stopCountdownLocked()
}

func (m *Machine) stopDebounceLocked() {
	if m.debounce != nil {
		m.debounce.Stop()
		m.debounce = nil
	}
}

func (m *Machine) cooldownRemainingLocked() time.Duration {
	if m.lastSend.IsZero() {
		return 0
	}
	remaining := m.opts.ResendCooldown - m.opts.Now().Sub(m.lastSend)
	if remaining < 0 {
		return 0
	}
	return remaining
}

func (m *Machine) startCountdownLocked() {
	m.stopCountdownLocked()
	stop := make(chan struct{})
	m.stopCountdown = stop
	go m.runCountdown(stop)
}

func (m *Machine) stopCountdownLocked() {
	if m.stopCountdown != nil {
		close(m.stopCountdown)
		m.stopCountdown = nil
	}
}

func (m *Machine) runCountdown(stop <-chan struct{}) {
	ticker := time.NewTicker(m.opts.CountdownInterval)
	defer ticker.Stop()

	for {
		remaining := m.CooldownRemaining()
		select {
		case <-stop:
			return
		default:
		}
		m.publish(remaining)
		if remaining <= 0 {
			return
		}

		select {
		case <-stop:
			return
		case <-m.ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (m *Machine) publish(remaining time.Duration) {
	select {
	case m.countdown <- remaining:
		return
	default:
	}
	select {
	case <-m.countdown:
	default:
	}
	select {
	case m.countdown <- remaining:
	default:
	}
}

// commit snapshots the machine, releases the lock and notifies the change
// listener. Callers must hold m.mu.
func (m *Machine) commit() {
	snapshot := m.snapshotLocked()
	onChange := m.onChange
	m.mu.Unlock()

	if onChange != nil {
		onChange(snapshot)
	}
}

func (m *Machine) snapshotLocked() Snapshot {
	return Snapshot{
		Email:             m.email,
		State:             m.state,
		Err:               m.err,
		Message:           Message(m.err),
		CooldownRemaining: m.cooldownRemainingLocked(),
		VerifiedEmail:     m.verifiedEmail,
	}
}

func ceilSeconds(d time.Duration) int64 {
	secs := int64(math.Ceil(d.Seconds()))
	if secs < 1 {
		secs = 1
	}
	return secs
}
