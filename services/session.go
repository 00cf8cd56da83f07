package services

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/Fababum/portfolio/dto"
	"github.com/Fababum/portfolio/model"
	"github.com/Fababum/portfolio/services/repositories"
	appContext "github.com/alphabatem/common/context"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

var (
	ErrSessionInvalid = errors.New("invalid session token")
	ErrSessionExpired = errors.New("session expired")
)

const (
	DefaultSessionTTL = 24 * time.Hour
	sessionTokenBytes = 32
)

// SessionService issues and checks opaque admin bearer tokens.
// Sessions go Active -> Expired or Invalidated, never back.
type SessionService struct {
	appContext.DefaultService

	sessionRepo *repositories.SessionRepository
	adminRepo   *repositories.AdminRepository

	ttl    time.Duration
	now    func() time.Time
	closed chan struct{}
}

const SESSION_SVC = "session_svc"

func (svc SessionService) Id() string {
	return SESSION_SVC
}

func NewSessionService(db *gorm.DB, ttl time.Duration) *SessionService {
	svc := &SessionService{ttl: ttl, now: time.Now}
	svc.init(db)
	return svc
}

func (svc *SessionService) init(db *gorm.DB) {
	svc.sessionRepo = repositories.NewSessionRepository(db)
	svc.adminRepo = repositories.NewAdminRepository(db)
	if svc.ttl <= 0 {
		svc.ttl = DefaultSessionTTL
	}
	if svc.now == nil {
		svc.now = time.Now
	}
}

// WithClock swaps the time source, for tests.
func (svc *SessionService) WithClock(now func() time.Time) *SessionService {
	svc.now = now
	return svc
}

func (svc *SessionService) Configure(ctx *appContext.Context) error {
	svc.ttl = DefaultSessionTTL
	if raw := os.Getenv("SESSION_TTL"); raw != "" {
		ttl, err := time.ParseDuration(raw)
		if err != nil || ttl <= 0 {
			return fmt.Errorf("invalid SESSION_TTL %q", raw)
		}
		svc.ttl = ttl
	}
	svc.now = time.Now
	return svc.DefaultService.Configure(ctx)
}

func (svc *SessionService) Start() error {
	svc.init(svc.Service(DATABASE_SVC).(*DatabaseService).Db())

	svc.closed = make(chan struct{})
	go svc.startCleanupJob()
	return nil
}

func (svc *SessionService) Shutdown() {
	if svc.closed != nil {
		close(svc.closed)
	}
}

func (svc *SessionService) TTL() time.Duration {
	return svc.ttl
}

func GenerateSessionToken() (string, error) {
	buf := make([]byte, sessionTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

// HashSessionToken is the lookup key stored in place of the token.
func HashSessionToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// Issue creates an active session for adminID and returns the plaintext token.
func (svc *SessionService) Issue(ctx context.Context, adminID uint, ipAddress, userAgent string) (string, time.Time, error) {
	token, err := GenerateSessionToken()
	if err != nil {
		return "", time.Time{}, fmt.Errorf("generate session token: %w", err)
	}

	now := svc.now()
	session := &model.AdminSession{
		AdminID:    adminID,
		TokenHash:  HashSessionToken(token),
		ExpiresAt:  now.Add(svc.ttl),
		IsActive:   true,
		LastUsedAt: now,
		IPAddress:  ipAddress,
		UserAgent:  userAgent,
		CreatedAt:  now,
	}

	if err := svc.sessionRepo.Create(ctx, session); err != nil {
		return "", time.Time{}, HandleDBError(err)
	}

	log.WithFields(log.Fields{
		"admin_id":   adminID,
		"session_id": session.ID,
		"ip":         ipAddress,
	}).Info("Admin session created")

	return token, session.ExpiresAt, nil
}

// Validate resolves token to its admin. Store failures count as invalid.
func (svc *SessionService) Validate(ctx context.Context, token string) (*dto.SessionPrincipal, error) {
	principal, err := svc.validate(ctx, token)
	switch {
	case err == nil:
		sessionValidationsTotal.WithLabelValues("valid").Inc()
	case errors.Is(err, ErrSessionExpired):
		sessionValidationsTotal.WithLabelValues("expired").Inc()
	default:
		sessionValidationsTotal.WithLabelValues("invalid").Inc()
	}
	return principal, err
}

func (svc *SessionService) IsExpired(err error) bool {
	return errors.Is(err, ErrSessionExpired)
}

func (svc *SessionService) validate(ctx context.Context, token string) (*dto.SessionPrincipal, error) {
	if token == "" {
		return nil, ErrSessionInvalid
	}

	session, err := svc.sessionRepo.GetActiveByTokenHash(ctx, HashSessionToken(token))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSessionInvalid
		}
		return nil, fmt.Errorf("%w: %w", ErrSessionInvalid, HandleDBError(err))
	}

	now := svc.now()
	if now.After(session.ExpiresAt) {
		if err := svc.sessionRepo.Deactivate(ctx, session.ID); err != nil {
			log.WithError(err).WithField("session_id", session.ID).Warn("Failed to deactivate expired session")
		}
		return nil, ErrSessionExpired
	}

	if err := svc.sessionRepo.TouchLastUsed(ctx, session.ID, now); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSessionInvalid, HandleDBError(err))
	}

	admin, err := svc.adminRepo.GetActiveByID(ctx, session.AdminID)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %w", ErrSessionInvalid, HandleDBError(err))
		}
		return nil, ErrSessionInvalid
	}

	return &dto.SessionPrincipal{
		SessionID: session.ID,
		AdminID:   admin.ID,
		Username:  admin.Username,
	}, nil
}

// Invalidate deactivates token. Unknown or already inactive tokens are not an error.
func (svc *SessionService) Invalidate(ctx context.Context, token string) error {
	if err := svc.sessionRepo.DeactivateByTokenHash(ctx, HashSessionToken(token)); err != nil {
		return HandleDBError(err)
	}
	return nil
}

func (svc *SessionService) InvalidateAll(ctx context.Context, adminID uint) (int64, error) {
	n, err := svc.sessionRepo.DeactivateAllForAdmin(ctx, adminID)
	if err != nil {
		return 0, HandleDBError(err)
	}

	log.WithFields(log.Fields{"admin_id": adminID, "sessions": n}).Info("Admin sessions invalidated")
	return n, nil
}

func (svc *SessionService) ListActive(ctx context.Context, adminID uint) ([]model.AdminSession, error) {
	sessions, err := svc.sessionRepo.ListActiveForAdmin(ctx, adminID, svc.now())
	if err != nil {
		return nil, HandleDBError(err)
	}
	return sessions, nil
}

// CleanupExpired flips lapsed sessions to inactive. Validate already refuses
// them, so this only keeps the active set small.
func (svc *SessionService) CleanupExpired(ctx context.Context) (int64, error) {
	n, err := svc.sessionRepo.DeactivateExpired(ctx, svc.now())
	if err != nil {
		return 0, HandleDBError(err)
	}
	return n, nil
}

func (svc *SessionService) startCleanupJob() {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			n, err := svc.CleanupExpired(context.Background())
			if err != nil {
				log.WithError(err).Error("Session cleanup failed")
				continue
			}
			if n > 0 {
				log.WithField("sessions", n).Info("Expired admin sessions deactivated")
			}
		case <-svc.closed:
			return
		}
	}
}
