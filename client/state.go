package client

import "time"

// State is the single source of truth for where an email is in the
// verification flow.
type State int

const (
	Idle State = iota
	CheckingAvailability
	Unavailable
	Available
	Sending
	Sent
	Verifying
	Verified
	CodeRejected
)

var stateNames = [...]string{
	Idle:                 "idle",
	CheckingAvailability: "checking_availability",
	Unavailable:          "unavailable",
	Available:            "available",
	Sending:              "sending",
	Sent:                 "sent",
	Verifying:            "verifying",
	Verified:             "verified",
	CodeRejected:         "code_rejected",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "unknown"
	}
	return stateNames[s]
}

// CanSend reports whether a (re)send may start from s. Cooldown is checked
// separately.
func (s State) CanSend() bool {
	return s == Available || s == Sent || s == CodeRejected
}

// CanSubmit reports whether a code may be submitted from s.
func (s State) CanSubmit() bool {
	return s == Sent || s == CodeRejected
}

// Snapshot is a consistent view of the machine at one instant.
type Snapshot struct {
	Email             string
	State             State
	Err               error
	Message           string
	CooldownRemaining time.Duration
	// VerifiedEmail is set only in the Verified state.
	VerifiedEmail string
}
