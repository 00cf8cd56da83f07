package handlers

import (
	"context"

	"github.com/Fababum/portfolio/dto"
	"github.com/Fababum/portfolio/model"
)

type AdminServiceInterface interface {
	Login(ctx context.Context, req dto.LoginRequest, clientIP, userAgent string) (*dto.LoginResponse, error)
	Setup(ctx context.Context, req dto.SetupRequest) (*dto.SetupResponse, error)
}

type SessionServiceInterface interface {
	Invalidate(ctx context.Context, token string) error
	InvalidateAll(ctx context.Context, adminID uint) (int64, error)
	ListActive(ctx context.Context, adminID uint) ([]model.AdminSession, error)
}

type VisitorServiceInterface interface {
	TrackVisit(ctx context.Context, userID string, isReturning bool, ipAddress string) error
	CheckStatus(ctx context.Context, userID string) dto.StatusResponse
	UpdateStatus(ctx context.Context, userID, status string) (*model.Visitor, error)
	AdminData(ctx context.Context) (*dto.AdminDataResponse, error)
}

type ChatServiceInterface interface {
	Reply(ctx context.Context, req dto.ChatRequest, userAgent string) (*dto.ChatResponse, error)
}

type RateLimitResetter interface {
	Reset(bucket, identifier string)
}
