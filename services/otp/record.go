package otp

import "time"

// VerificationRecord is the single active code for an email. Issuing a new
// code replaces the row; verifying sets VerifiedAt exactly once.
type VerificationRecord struct {
	Email      string     `json:"email" gorm:"primaryKey;size:254"`
	Code       string     `json:"-" gorm:"size:6;not null"`
	CreatedAt  time.Time  `json:"created_at" gorm:"not null"`
	ExpiresAt  time.Time  `json:"expires_at" gorm:"not null;index"`
	VerifiedAt *time.Time `json:"verified_at,omitempty"`
}

func (VerificationRecord) TableName() string {
	return "email_verification_codes"
}

func (r *VerificationRecord) IsVerified() bool {
	return r.VerifiedAt != nil
}

func (r *VerificationRecord) IsExpired(now time.Time) bool {
	return !now.Before(r.ExpiresAt)
}

// Acceptable reports whether code would be accepted at now.
func (r *VerificationRecord) Acceptable(code string, now time.Time) bool {
	return !r.IsVerified() && !r.IsExpired(now) && r.Code == code
}
