package dto

import (
	"time"

	"github.com/Fababum/portfolio/model"
)

type LoginRequest struct {
	Username string `json:"username" validate:"required,max=100"`
	Password string `json:"password" validate:"required,max=256"`
}

func (r LoginRequest) Validate() error {
	return GetValidator().Struct(r)
}

type LoginResponse struct {
	Success      bool       `json:"success"`
	Username     string     `json:"username"`
	SessionToken string     `json:"sessionToken"`
	ExpiresAt    time.Time  `json:"expiresAt"`
	LastLogin    *time.Time `json:"lastLogin"`
}

type LogoutRequest struct {
	SessionToken string `json:"sessionToken" validate:"required"`
}

func (r LogoutRequest) Validate() error {
	return GetValidator().Struct(r)
}

type MessageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

type SetupRequest struct {
	Username string `json:"username" validate:"required,min=3,max=100"`
	Password string `json:"password" validate:"required,min=8,max=256"`
	SetupKey string `json:"setupKey"`
}

func (r SetupRequest) Validate() error {
	return GetValidator().Struct(r)
}

type SetupResponse struct {
	Success  bool   `json:"success"`
	Message  string `json:"message"`
	Username string `json:"username"`
}

type UpdateStatusRequest struct {
	UserID       string `json:"userId" validate:"required,visitor_id"`
	Status       string `json:"status" validate:"required,oneof=active blacklisted whitelisted"`
	SessionToken string `json:"sessionToken"`
}

func (r UpdateStatusRequest) Validate() error {
	return GetValidator().Struct(r)
}

type UpdateStatusResponse struct {
	Success bool           `json:"success"`
	User    *model.Visitor `json:"user"`
}

type AdminDataResponse struct {
	Users  []model.Visitor `json:"users"`
	Visits []model.Visit   `json:"visits"`
}

// SessionPrincipal is the admin a validated session belongs to.
type SessionPrincipal struct {
	SessionID string `json:"sessionId"`
	AdminID   uint   `json:"adminId"`
	Username  string `json:"username"`
}

type SessionInfo struct {
	ID         string    `json:"id"`
	IPAddress  string    `json:"ipAddress"`
	UserAgent  string    `json:"userAgent"`
	CreatedAt  time.Time `json:"createdAt"`
	LastUsedAt time.Time `json:"lastUsedAt"`
	ExpiresAt  time.Time `json:"expiresAt"`
	IsCurrent  bool      `json:"isCurrent"`
}

type SessionListResponse struct {
	Sessions []SessionInfo `json:"sessions"`
}

type LogoutAllResponse struct {
	Success     bool  `json:"success"`
	Invalidated int64 `json:"invalidated"`
}
