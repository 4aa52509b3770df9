package model

import (
	"time"

	"github.com/google/uuid"
)

// PasswordResetOTPModel mirrors the 'password_reset_otps' table. Email is indexed but not unique:
// superseded rows are deleted by the application before a new code is inserted.
type PasswordResetOTPModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	Email     string    `gorm:"type:varchar(255);index:idx_password_reset_otps_email;not null"`
	Code      string    `gorm:"type:varchar(6);not null"`
	ExpiresAt time.Time `gorm:"not null"`
	Verified  bool      `gorm:"not null;default:false"`
	CreatedAt time.Time
}

// TableName explicitly sets the table name for GORM.
func (PasswordResetOTPModel) TableName() string {
	return "password_reset_otps"
}
