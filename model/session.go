package model

import "time"

// AdminSession stores the SHA-256 of the bearer token, never the token itself.
type AdminSession struct {
	ID         string    `json:"id" gorm:"primaryKey;type:text;not null"`
	AdminID    uint      `json:"admin_id" gorm:"not null;index"`
	TokenHash  string    `json:"-" gorm:"uniqueIndex;not null;size:64"`
	ExpiresAt  time.Time `json:"expires_at" gorm:"not null;index"`
	IsActive   bool      `json:"is_active" gorm:"default:true;not null;index"`
	LastUsedAt time.Time `json:"last_used_at" gorm:"not null"`
	IPAddress  string    `json:"ip_address" gorm:"size:64"`
	UserAgent  string    `json:"user_agent" gorm:"type:text"`
	CreatedAt  time.Time `json:"created_at" gorm:"not null"`
}

func (AdminSession) TableName() string {
	return "admin_sessions"
}
