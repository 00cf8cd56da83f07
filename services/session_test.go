package services

import (
	"context"
	"testing"
	"time"

	"github.com/Fababum/portfolio/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func createTestAdmin(t *testing.T, db *gorm.DB, username, password string) *model.AdminUser {
	t.Helper()
	admin, err := NewAdminService(db, nil, "").CreateAdmin(context.Background(), username, password)
	require.NoError(t, err)
	return admin
}

func newTestSessionService(t *testing.T) (*SessionService, *gorm.DB, *fakeClock) {
	t.Helper()
	db := newTestDB(t)
	clock := newFakeClock()
	return NewSessionService(db, time.Hour).WithClock(clock.Now), db, clock
}

func TestSessionService_IssueAndValidate(t *testing.T) {
	svc, db, clock := newTestSessionService(t)
	ctx := context.Background()
	admin := createTestAdmin(t, db, "fabian", "correct horse")

	token, expiresAt, err := svc.Issue(ctx, admin.ID, "1.2.3.4", "test-agent")
	require.NoError(t, err)
	assert.Len(t, token, 64)
	assert.Equal(t, clock.Now().Add(time.Hour), expiresAt)

	var stored model.AdminSession
	require.NoError(t, db.First(&stored).Error)
	assert.Equal(t, HashSessionToken(token), stored.TokenHash)
	assert.NotEqual(t, token, stored.TokenHash)
	assert.Equal(t, "1.2.3.4", stored.IPAddress)

	principal, err := svc.Validate(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, admin.ID, principal.AdminID)
	assert.Equal(t, "fabian", principal.Username)
	assert.Equal(t, stored.ID, principal.SessionID)
}

func TestSessionService_TokensAreUnique(t *testing.T) {
	svc, db, _ := newTestSessionService(t)
	admin := createTestAdmin(t, db, "fabian", "correct horse")

	seen := map[string]bool{}
	for i := 0; i < 20; i++ {
		token, _, err := svc.Issue(context.Background(), admin.ID, "", "")
		require.NoError(t, err)
		require.False(t, seen[token])
		seen[token] = true
	}
}

func TestSessionService_ValidateRejectsUnknown(t *testing.T) {
	svc, _, _ := newTestSessionService(t)
	ctx := context.Background()

	_, err := svc.Validate(ctx, "")
	assert.ErrorIs(t, err, ErrSessionInvalid)

	_, err = svc.Validate(ctx, "deadbeef")
	assert.ErrorIs(t, err, ErrSessionInvalid)
}

func TestSessionService_Expiry(t *testing.T) {
	svc, db, clock := newTestSessionService(t)
	ctx := context.Background()
	admin := createTestAdmin(t, db, "fabian", "correct horse")

	token, _, err := svc.Issue(ctx, admin.ID, "", "")
	require.NoError(t, err)

	clock.Advance(time.Hour)
	_, err = svc.Validate(ctx, token)
	require.NoError(t, err, "a session is valid up to its expiry instant")

	clock.Advance(time.Second)
	_, err = svc.Validate(ctx, token)
	assert.ErrorIs(t, err, ErrSessionExpired)
	assert.True(t, svc.IsExpired(err))

	// The expired session was deactivated, so it is now simply unknown.
	_, err = svc.Validate(ctx, token)
	assert.ErrorIs(t, err, ErrSessionInvalid)
	assert.False(t, svc.IsExpired(err))
}

func TestSessionService_Invalidate(t *testing.T) {
	svc, db, _ := newTestSessionService(t)
	ctx := context.Background()
	admin := createTestAdmin(t, db, "fabian", "correct horse")

	token, _, err := svc.Issue(ctx, admin.ID, "", "")
	require.NoError(t, err)

	require.NoError(t, svc.Invalidate(ctx, token))
	_, err = svc.Validate(ctx, token)
	assert.ErrorIs(t, err, ErrSessionInvalid)

	// Idempotent, and unknown tokens are fine too.
	assert.NoError(t, svc.Invalidate(ctx, token))
	assert.NoError(t, svc.Invalidate(ctx, "never-issued"))
}

func TestSessionService_InactiveAdmin(t *testing.T) {
	svc, db, _ := newTestSessionService(t)
	ctx := context.Background()
	admin := createTestAdmin(t, db, "fabian", "correct horse")

	token, _, err := svc.Issue(ctx, admin.ID, "", "")
	require.NoError(t, err)

	require.NoError(t, db.Model(&model.AdminUser{}).Where("id = ?", admin.ID).Update("is_active", false).Error)

	_, err = svc.Validate(ctx, token)
	assert.ErrorIs(t, err, ErrSessionInvalid)
}

func TestSessionService_InvalidateAllAndList(t *testing.T) {
	svc, db, clock := newTestSessionService(t)
	ctx := context.Background()
	admin := createTestAdmin(t, db, "fabian", "correct horse")
	other := createTestAdmin(t, db, "someone", "correct horse")

	first, _, err := svc.Issue(ctx, admin.ID, "", "")
	require.NoError(t, err)
	clock.Advance(time.Minute)
	second, _, err := svc.Issue(ctx, admin.ID, "", "")
	require.NoError(t, err)
	otherToken, _, err := svc.Issue(ctx, other.ID, "", "")
	require.NoError(t, err)

	sessions, err := svc.ListActive(ctx, admin.ID)
	require.NoError(t, err)
	assert.Len(t, sessions, 2)

	n, err := svc.InvalidateAll(ctx, admin.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	for _, token := range []string{first, second} {
		_, err = svc.Validate(ctx, token)
		assert.ErrorIs(t, err, ErrSessionInvalid)
	}

	_, err = svc.Validate(ctx, otherToken)
	assert.NoError(t, err)

	sessions, err = svc.ListActive(ctx, admin.ID)
	require.NoError(t, err)
	assert.Empty(t, sessions)
}

func TestSessionService_CleanupExpired(t *testing.T) {
	svc, db, clock := newTestSessionService(t)
	ctx := context.Background()
	admin := createTestAdmin(t, db, "fabian", "correct horse")

	_, _, err := svc.Issue(ctx, admin.ID, "", "")
	require.NoError(t, err)
	clock.Advance(30 * time.Minute)
	live, _, err := svc.Issue(ctx, admin.ID, "", "")
	require.NoError(t, err)

	clock.Advance(45 * time.Minute)
	n, err := svc.CleanupExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	_, err = svc.Validate(ctx, live)
	assert.NoError(t, err)
}

func TestHashSessionToken(t *testing.T) {
	assert.Equal(t, HashSessionToken("abc"), HashSessionToken("abc"))
	assert.NotEqual(t, HashSessionToken("abc"), HashSessionToken("abd"))
	assert.Len(t, HashSessionToken("abc"), 64)
}
