package services

import (
	"context"
	"errors"
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
	ErrBlacklisted     = shared.ErrForbidden("User is blacklisted")
	ErrVisitorNotFound = shared.ErrNotFound("User not found")
	ErrInvalidStatus   = shared.ErrValidation("Invalid status")
)

const recentVisitsLimit = 100

// StatusCache caches visitor statuses in front of the users table.
type StatusCache interface {
	GetStatus(ctx context.Context, userID string) (string, bool, error)
	SetStatus(ctx context.Context, userID, status string) error
	DeleteStatus(ctx context.Context, userID string) error
}

type VisitorService struct {
	appContext.DefaultService

	visitorRepo *repositories.VisitorRepository
	cache       StatusCache
	now         func() time.Time
}

const VISITOR_SVC = "visitor_svc"

func (svc VisitorService) Id() string {
	return VISITOR_SVC
}

// NewVisitorService builds the service; cache may be nil.
func NewVisitorService(db *gorm.DB, cache StatusCache) *VisitorService {
	return &VisitorService{
		visitorRepo: repositories.NewVisitorRepository(db),
		cache:       cache,
		now:         time.Now,
	}
}

func (svc *VisitorService) Configure(ctx *appContext.Context) error {
	svc.now = time.Now
	return svc.DefaultService.Configure(ctx)
}

func (svc *VisitorService) Start() error {
	svc.visitorRepo = repositories.NewVisitorRepository(svc.Service(DATABASE_SVC).(*DatabaseService).Db())

	if redisSvc, ok := svc.Service(REDIS_SVC).(*RedisService); ok && redisSvc.Enabled() {
		svc.cache = redisSvc
	}
	return nil
}

// status returns the stored status, or "" when the visitor has no row.
func (svc *VisitorService) status(ctx context.Context, userID string) (string, error) {
	if svc.cache != nil {
		if status, ok, err := svc.cache.GetStatus(ctx, userID); err == nil && ok {
			return status, nil
		} else if err != nil {
			log.WithError(err).WithField("user_id", userID).Warn("Visitor status cache read failed")
		}
	}

	visitor, err := svc.visitorRepo.GetVisitor(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil
		}
		return "", HandleDBError(err)
	}

	if svc.cache != nil {
		if err := svc.cache.SetStatus(ctx, userID, visitor.Status); err != nil {
			log.WithError(err).WithField("user_id", userID).Warn("Visitor status cache write failed")
		}
	}
	return visitor.Status, nil
}

// IsBlacklisted fails closed: a lookup error is returned to the caller.
func (svc *VisitorService) IsBlacklisted(ctx context.Context, userID string) (bool, error) {
	status, err := svc.status(ctx, userID)
	if err != nil {
		return false, err
	}
	return status == shared.StatusBlacklisted, nil
}

// CheckStatus never fails; any error reports the visitor as active.
func (svc *VisitorService) CheckStatus(ctx context.Context, userID string) dto.StatusResponse {
	status, err := svc.status(ctx, userID)
	if err != nil {
		log.WithError(err).WithField("user_id", userID).Warn("Check status failed, reporting active")
		return dto.StatusResponse{Status: shared.StatusActive, IsBlocked: false}
	}
	if status == "" {
		status = shared.StatusActive
	}
	return dto.StatusResponse{Status: status, IsBlocked: status == shared.StatusBlacklisted}
}

// TrackVisit records a page visit. Blacklisted visitors are refused before anything is written.
func (svc *VisitorService) TrackVisit(ctx context.Context, userID string, isReturning bool, ipAddress string) error {
	blacklisted, err := svc.IsBlacklisted(ctx, userID)
	if err != nil {
		visitsTrackedTotal.WithLabelValues("error").Inc()
		return err
	}
	if blacklisted {
		visitsTrackedTotal.WithLabelValues("blacklisted").Inc()
		return ErrBlacklisted
	}

	if err := svc.visitorRepo.RecordVisit(ctx, userID, isReturning, ipAddress, svc.now()); err != nil {
		visitsTrackedTotal.WithLabelValues("error").Inc()
		return HandleDBError(err)
	}

	visitsTrackedTotal.WithLabelValues("tracked").Inc()
	return nil
}

func (svc *VisitorService) UpdateStatus(ctx context.Context, userID, status string) (*model.Visitor, error) {
	if !validStatus(status) {
		return nil, ErrInvalidStatus
	}

	visitor, err := svc.visitorRepo.UpdateStatus(ctx, userID, status)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrVisitorNotFound
		}
		return nil, HandleDBError(err)
	}

	if svc.cache != nil {
		if err := svc.cache.DeleteStatus(ctx, userID); err != nil {
			log.WithError(err).WithField("user_id", userID).Warn("Visitor status cache invalidation failed")
		}
	}

	log.WithFields(log.Fields{"user_id": userID, "status": status}).Info("Visitor status updated")
	return visitor, nil
}

// AdminData lists every visitor, most recent first, and the latest visits.
func (svc *VisitorService) AdminData(ctx context.Context) (*dto.AdminDataResponse, error) {
	users, err := svc.visitorRepo.ListVisitors(ctx)
	if err != nil {
		return nil, HandleDBError(err)
	}

	visits, err := svc.visitorRepo.RecentVisits(ctx, recentVisitsLimit)
	if err != nil {
		return nil, HandleDBError(err)
	}

	if users == nil {
		users = []model.Visitor{}
	}
	if visits == nil {
		visits = []model.Visit{}
	}
	return &dto.AdminDataResponse{Users: users, Visits: visits}, nil
}

func validStatus(status string) bool {
	for _, s := range shared.VisitorStatuses {
		if s == status {
			return true
		}
	}
	return false
}
