package emaillink

import "time"

type EmailVerificationToken struct {
	ID                uint       `json:"id" gorm:"primaryKey"`
	Email             string     `json:"email" gorm:"index;size:254;not null"`
	VerificationToken string     `json:"-" gorm:"uniqueIndex;size:256;not null"`
	Verified          bool       `json:"verified" gorm:"default:false;not null"`
	VerifiedAt        *time.Time `json:"verified_at,omitempty"`
	ExpiresAt         time.Time  `json:"expires_at" gorm:"not null;index"`
	CreatedAt         time.Time  `json:"created_at"`
}

func (EmailVerificationToken) TableName() string {
	return "email_verification_tokens"
}
