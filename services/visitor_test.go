package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Fababum/portfolio/model"
	"github.com/Fababum/portfolio/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type memoryStatusCache struct {
	mu       sync.Mutex
	statuses map[string]string
	getErr   error
}

func newMemoryStatusCache() *memoryStatusCache {
	return &memoryStatusCache{statuses: map[string]string{}}
}

func (c *memoryStatusCache) GetStatus(_ context.Context, userID string) (string, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.getErr != nil {
		return "", false, c.getErr
	}
	status, ok := c.statuses[userID]
	return status, ok, nil
}

func (c *memoryStatusCache) SetStatus(_ context.Context, userID, status string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.statuses[userID] = status
	return nil
}

func (c *memoryStatusCache) DeleteStatus(_ context.Context, userID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.statuses, userID)
	return nil
}

func newTestVisitorService(t *testing.T, cache StatusCache) (*VisitorService, *gorm.DB) {
	t.Helper()
	db := newTestDB(t)
	return NewVisitorService(db, cache), db
}

func TestVisitorService_TrackVisitCreatesAndIncrements(t *testing.T) {
	svc, db := newTestVisitorService(t, nil)
	ctx := context.Background()

	require.NoError(t, svc.TrackVisit(ctx, "visitor_1", false, "1.1.1.1"))
	require.NoError(t, svc.TrackVisit(ctx, "visitor_1", true, "1.1.1.1"))
	require.NoError(t, svc.TrackVisit(ctx, "visitor_2", false, "2.2.2.2"))

	var visitor model.Visitor
	require.NoError(t, db.Where("user_id = ?", "visitor_1").First(&visitor).Error)
	assert.Equal(t, 2, visitor.VisitCount)
	assert.Equal(t, shared.StatusActive, visitor.Status)
	assert.False(t, visitor.LastVisit.Before(visitor.FirstVisit))

	var visits int64
	require.NoError(t, db.Model(&model.Visit{}).Count(&visits).Error)
	assert.Equal(t, int64(3), visits)
}

func TestVisitorService_BlacklistedVisitIsNotRecorded(t *testing.T) {
	svc, db := newTestVisitorService(t, nil)
	ctx := context.Background()

	require.NoError(t, svc.TrackVisit(ctx, "visitor_1", false, ""))
	_, err := svc.UpdateStatus(ctx, "visitor_1", shared.StatusBlacklisted)
	require.NoError(t, err)

	err = svc.TrackVisit(ctx, "visitor_1", true, "")
	assert.ErrorIs(t, err, ErrBlacklisted)

	var visitor model.Visitor
	require.NoError(t, db.Where("user_id = ?", "visitor_1").First(&visitor).Error)
	assert.Equal(t, 1, visitor.VisitCount)

	var visits int64
	require.NoError(t, db.Model(&model.Visit{}).Count(&visits).Error)
	assert.Equal(t, int64(1), visits)
}

func TestVisitorService_CheckStatus(t *testing.T) {
	svc, _ := newTestVisitorService(t, nil)
	ctx := context.Background()

	assert.Equal(t, shared.StatusActive, svc.CheckStatus(ctx, "unknown").Status)
	assert.False(t, svc.CheckStatus(ctx, "unknown").IsBlocked)

	require.NoError(t, svc.TrackVisit(ctx, "visitor_1", false, ""))
	_, err := svc.UpdateStatus(ctx, "visitor_1", shared.StatusBlacklisted)
	require.NoError(t, err)

	status := svc.CheckStatus(ctx, "visitor_1")
	assert.Equal(t, shared.StatusBlacklisted, status.Status)
	assert.True(t, status.IsBlocked)

	_, err = svc.UpdateStatus(ctx, "visitor_1", shared.StatusWhitelisted)
	require.NoError(t, err)
	status = svc.CheckStatus(ctx, "visitor_1")
	assert.Equal(t, shared.StatusWhitelisted, status.Status)
	assert.False(t, status.IsBlocked)
}

func TestVisitorService_CheckStatusFailsOpen(t *testing.T) {
	svc, db := newTestVisitorService(t, nil)
	ctx := context.Background()

	require.NoError(t, svc.TrackVisit(ctx, "visitor_1", false, ""))
	_, err := svc.UpdateStatus(ctx, "visitor_1", shared.StatusBlacklisted)
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	status := svc.CheckStatus(ctx, "visitor_1")
	assert.Equal(t, shared.StatusActive, status.Status)
	assert.False(t, status.IsBlocked)

	// The gate used by chat and tracking fails closed instead.
	_, err = svc.IsBlacklisted(ctx, "visitor_1")
	assert.Error(t, err)
}

func TestVisitorService_UpdateStatus(t *testing.T) {
	svc, _ := newTestVisitorService(t, nil)
	ctx := context.Background()

	_, err := svc.UpdateStatus(ctx, "missing", shared.StatusBlacklisted)
	assert.ErrorIs(t, err, ErrVisitorNotFound)

	require.NoError(t, svc.TrackVisit(ctx, "visitor_1", false, ""))

	_, err = svc.UpdateStatus(ctx, "visitor_1", "banned")
	assert.ErrorIs(t, err, ErrInvalidStatus)

	visitor, err := svc.UpdateStatus(ctx, "visitor_1", shared.StatusBlacklisted)
	require.NoError(t, err)
	assert.Equal(t, "visitor_1", visitor.UserID)
	assert.Equal(t, shared.StatusBlacklisted, visitor.Status)
	assert.Equal(t, 1, visitor.VisitCount)
}

func TestVisitorService_StatusCache(t *testing.T) {
	cache := newMemoryStatusCache()
	svc, _ := newTestVisitorService(t, cache)
	ctx := context.Background()

	require.NoError(t, svc.TrackVisit(ctx, "visitor_1", false, ""))
	_, cached := cache.statuses["visitor_1"]
	assert.False(t, cached, "unknown visitors are not cached")

	require.NoError(t, svc.TrackVisit(ctx, "visitor_1", true, ""))
	assert.Equal(t, shared.StatusActive, cache.statuses["visitor_1"])

	_, err := svc.UpdateStatus(ctx, "visitor_1", shared.StatusBlacklisted)
	require.NoError(t, err)
	_, cached = cache.statuses["visitor_1"]
	assert.False(t, cached, "status change evicts the cached value")

	blocked, err := svc.IsBlacklisted(ctx, "visitor_1")
	require.NoError(t, err)
	assert.True(t, blocked)
	assert.Equal(t, shared.StatusBlacklisted, cache.statuses["visitor_1"])

	// A broken cache falls through to the database.
	cache.getErr = errors.New("cache down")
	blocked, err = svc.IsBlacklisted(ctx, "visitor_1")
	require.NoError(t, err)
	assert.True(t, blocked)
}

func TestVisitorService_AdminData(t *testing.T) {
	svc, _ := newTestVisitorService(t, nil)
	ctx := context.Background()

	empty, err := svc.AdminData(ctx)
	require.NoError(t, err)
	assert.NotNil(t, empty.Users)
	assert.NotNil(t, empty.Visits)

	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	tick := 0
	svc.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Minute)
	}

	require.NoError(t, svc.TrackVisit(ctx, "early", false, ""))
	require.NoError(t, svc.TrackVisit(ctx, "late", false, ""))

	data, err := svc.AdminData(ctx)
	require.NoError(t, err)
	require.Len(t, data.Users, 2)
	assert.Equal(t, "late", data.Users[0].UserID)
	require.Len(t, data.Visits, 2)
	assert.Equal(t, "late", data.Visits[0].UserID)
}
