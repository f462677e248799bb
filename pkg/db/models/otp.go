package models

import (
	"time"

	"github.com/google/uuid"
)

// OTP is a one-time email verification code.
type OTP struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	Email     string    `gorm:"column:email;not null;index"`
	Code      string    `gorm:"column:otp;not null"`
	ExpiresAt time.Time `gorm:"column:expires_at;not null;index"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (OTP) TableName() string { return "otps" }
