package services

import (
	"context"
	"crypto/subtle"
	"errors"
	"os"
	"strings"
	"time"

	"github.com/Fababum/portfolio/dto"
	"github.com/Fababum/portfolio/model"
	"github.com/Fababum/portfolio/services/repositories"
	"github.com/Fababum/portfolio/shared"
	appContext "github.com/alphabatem/common/context"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

var (
	ErrInvalidCredentials = shared.ErrUnauthorized("Invalid username or password")
	ErrSetupDisabled      = shared.ErrForbidden("Admin setup is disabled")
	ErrInvalidSetupKey    = shared.ErrForbidden("Invalid setup key")
	ErrAdminExists        = shared.ErrValidation("Admin user already exists")
)

type AdminService struct {
	appContext.DefaultService

	adminRepo  *repositories.AdminRepository
	sessionSvc *SessionService

	setupKey string
	now      func() time.Time
}

const ADMIN_SVC = "admin_svc"

func (svc AdminService) Id() string {
	return ADMIN_SVC
}

func NewAdminService(db *gorm.DB, sessionSvc *SessionService, setupKey string) *AdminService {
	return &AdminService{
		adminRepo:  repositories.NewAdminRepository(db),
		sessionSvc: sessionSvc,
		setupKey:   setupKey,
		now:        time.Now,
	}
}

func (svc *AdminService) Configure(ctx *appContext.Context) error {
	svc.setupKey = os.Getenv("ADMIN_SETUP_KEY")
	svc.now = time.Now
	return svc.DefaultService.Configure(ctx)
}

func (svc *AdminService) Start() error {
	svc.adminRepo = repositories.NewAdminRepository(svc.Service(DATABASE_SVC).(*DatabaseService).Db())
	svc.sessionSvc = svc.Service(SESSION_SVC).(*SessionService)

	if svc.setupKey == "" {
		log.Info("ADMIN_SETUP_KEY not set, setup endpoint disabled")
	}
	return nil
}

// Login checks credentials and opens a session. Unknown usernames and wrong
// passwords produce the same error.
func (svc *AdminService) Login(ctx context.Context, req dto.LoginRequest, clientIP, userAgent string) (*dto.LoginResponse, error) {
	admin, err := svc.adminRepo.GetActiveByUsername(ctx, strings.TrimSpace(req.Username))
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			loginAttemptsTotal.WithLabelValues("error").Inc()
			return nil, HandleDBError(err)
		}
		burnPasswordCheck(req.Password)
		loginAttemptsTotal.WithLabelValues("failed").Inc()
		return nil, ErrInvalidCredentials
	}

	ok, needsRehash := CheckPassword(admin.PasswordHash, req.Password)
	if !ok {
		log.WithFields(log.Fields{"admin_id": admin.ID, "ip": clientIP}).Warn("Admin login failed")
		loginAttemptsTotal.WithLabelValues("failed").Inc()
		return nil, ErrInvalidCredentials
	}

	if needsRehash {
		svc.upgradePasswordHash(ctx, admin.ID, req.Password)
	}

	previousLogin := admin.LastLogin
	if err := svc.adminRepo.UpdateLastLogin(ctx, admin.ID, svc.now()); err != nil {
		log.WithError(err).WithField("admin_id", admin.ID).Warn("Failed to update last login")
	}

	token, expiresAt, err := svc.sessionSvc.Issue(ctx, admin.ID, clientIP, userAgent)
	if err != nil {
		loginAttemptsTotal.WithLabelValues("error").Inc()
		return nil, err
	}

	loginAttemptsTotal.WithLabelValues("success").Inc()
	return &dto.LoginResponse{
		Success:      true,
		Username:     admin.Username,
		SessionToken: token,
		ExpiresAt:    expiresAt,
		LastLogin:    previousLogin,
	}, nil
}

func (svc *AdminService) upgradePasswordHash(ctx context.Context, adminID uint, password string) {
	hash, err := HashPassword(password)
	if err != nil {
		log.WithError(err).WithField("admin_id", adminID).Warn("Failed to rehash legacy password")
		return
	}
	if err := svc.adminRepo.UpdatePasswordHash(ctx, adminID, hash); err != nil {
		log.WithError(err).WithField("admin_id", adminID).Warn("Failed to store upgraded password hash")
		return
	}
	log.WithField("admin_id", adminID).Info("Legacy password digest upgraded to bcrypt")
}

// Setup creates an admin when the caller knows the deployment's setup key.
func (svc *AdminService) Setup(ctx context.Context, req dto.SetupRequest) (*dto.SetupResponse, error) {
	if svc.setupKey == "" {
		return nil, ErrSetupDisabled
	}
	if subtle.ConstantTimeCompare([]byte(req.SetupKey), []byte(svc.setupKey)) != 1 {
		log.Warn("Admin setup attempted with an invalid key")
		return nil, ErrInvalidSetupKey
	}

	admin, err := svc.CreateAdmin(ctx, req.Username, req.Password)
	if err != nil {
		return nil, err
	}

	return &dto.SetupResponse{
		Success:  true,
		Message:  "Admin user created successfully",
		Username: admin.Username,
	}, nil
}

// CreateAdmin inserts an active admin with a bcrypt password hash.
func (svc *AdminService) CreateAdmin(ctx context.Context, username, password string) (*model.AdminUser, error) {
	username = strings.TrimSpace(username)

	exists, err := svc.adminRepo.UsernameExists(ctx, username)
	if err != nil {
		return nil, HandleDBError(err)
	}
	if exists {
		return nil, ErrAdminExists
	}

	hash, err := HashPassword(password)
	if err != nil {
		return nil, err
	}

	now := svc.now()
	admin := &model.AdminUser{
		Username:     username,
		PasswordHash: hash,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := svc.adminRepo.Create(ctx, admin); err != nil {
		if isUniqueViolation(err) {
			return nil, ErrAdminExists
		}
		return nil, HandleDBError(err)
	}

	log.WithFields(log.Fields{"admin_id": admin.ID, "username": admin.Username}).Info("Admin user created")
	return admin, nil
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") || strings.Contains(msg, "duplicate key value")
}
