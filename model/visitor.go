package model

import "time"

// Visitor is an anonymous site visitor keyed by the cookie id the front-end
// generates. It lives in the "users" table.
type Visitor struct {
	UserID     string    `json:"user_id" gorm:"primaryKey;column:user_id;size:128"`
	VisitCount int       `json:"visit_count" gorm:"default:0;not null"`
	FirstVisit time.Time `json:"first_visit" gorm:"not null"`
	LastVisit  time.Time `json:"last_visit" gorm:"not null;index"`
	Status     string    `json:"status" gorm:"default:active;not null;size:20"`
}

func (Visitor) TableName() string {
	return "users"
}

type Visit struct {
	ID          string    `json:"id" gorm:"primaryKey;type:text;not null"`
	UserID      string    `json:"user_id" gorm:"not null;index;size:128"`
	IsReturning bool      `json:"is_returning" gorm:"not null"`
	IPAddress   string    `json:"ip_address" gorm:"size:64"`
	Timestamp   time.Time `json:"timestamp" gorm:"not null;index"`
}

func (Visit) TableName() string {
	return "visits"
}
