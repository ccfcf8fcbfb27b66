package service

import (
	"context"
	"testing"
	"time"

	"librarium/internal/models"
	"librarium/internal/repository"
	"librarium/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserService_SetAdminByEmail(t *testing.T) {
	db := testutil.OpenSQLite(t)
	svc := NewUserService(repository.NewUserRepository(db), repository.NewRefreshTokenRepository(db))
	ctx := context.Background()
	testutil.CreateUser(t, db, "marta", false)

	user, err := svc.SetAdminByEmail(ctx, " Marta@Example.com ", true)
	require.NoError(t, err)
	assert.True(t, user.IsAdmin)

	admins, err := svc.ListAdmins(ctx)
	require.NoError(t, err)
	require.Len(t, admins, 1)
	assert.Equal(t, "marta", admins[0].Username)

	_, err = svc.SetAdminByEmail(ctx, "marta@example.com", false)
	require.NoError(t, err)
	admins, err = svc.ListAdmins(ctx)
	require.NoError(t, err)
	assert.Empty(t, admins)

	_, err = svc.SetAdminByEmail(ctx, "nobody@example.com", true)
	assertAppErrorCode(t, err, models.CodeNotFound)
}

func TestUserService_DeactivateExpiresSessions(t *testing.T) {
	db := testutil.OpenSQLite(t)
	tokens := repository.NewRefreshTokenRepository(db)
	svc := NewUserService(repository.NewUserRepository(db), tokens)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc.now = fixedClock(now)
	ctx := context.Background()

	user := testutil.CreateUser(t, db, "pavel", false)
	require.NoError(t, tokens.Create(ctx, &models.RefreshToken{Token: "session-a", UserID: user.ID, ExpiresAt: now.Add(time.Hour)}))
	require.NoError(t, tokens.Create(ctx, &models.RefreshToken{Token: "session-b", UserID: user.ID, ExpiresAt: now.Add(2 * time.Hour)}))

	deactivated, err := svc.DeactivateByEmail(ctx, "pavel@example.com")
	require.NoError(t, err)
	assert.False(t, deactivated.IsActive)

	stored, err := svc.GetUserByID(ctx, user.ID)
	require.NoError(t, err)
	assert.False(t, stored.IsActive)

	var live int64
	require.NoError(t, db.Model(&models.RefreshToken{}).
		Where("user_id = ? AND expires_at > ?", user.ID, now).Count(&live).Error)
	assert.Zero(t, live)
}
