package service

import (
	"context"
	"testing"
	"time"

	"librarium/internal/cache"
	"librarium/internal/models"
	"librarium/internal/repository"
	"librarium/internal/testutil"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func testAuthConfig() AuthConfig {
	return AuthConfig{
		Secret:     "test-secret-that-is-long-enough-0123456789",
		Issuer:     "librarium-api",
		Audience:   "librarium-client",
		AccessTTL:  time.Hour,
		RefreshTTL: 24 * time.Hour,
		BcryptCost: bcrypt.MinCost,
	}
}

func newAuthFixture(t *testing.T) (*AuthService, *gorm.DB, *miniredis.Miniredis) {
	t.Helper()
	db := testutil.OpenSQLite(t)
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	svc := NewAuthService(
		repository.NewUserRepository(db),
		repository.NewRefreshTokenRepository(db),
		cache.NewTokenRevocationList(rdb),
		testAuthConfig(),
	)
	return svc, db, mr
}

func registerReader(t *testing.T, svc *AuthService) *models.User {
	t.Helper()
	user, err := svc.Register(context.Background(), RegisterInput{
		Email:    "reader@example.com",
		Username: "reader",
		Password: "Qwe123!",
	})
	require.NoError(t, err)
	return user
}

func TestAuthService_Register(t *testing.T) {
	svc, _, _ := newAuthFixture(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterInput{Email: "weak@example.com", Username: "weak", Password: "weak_password"})
	assertValidationError(t, err)

	user := registerReader(t, svc)
	assert.NotZero(t, user.ID)
	assert.True(t, user.IsActive)
	assert.False(t, user.IsAdmin)
	assert.NotEqual(t, "Qwe123!", user.Password)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.Password), []byte("Qwe123!")))

	_, err = svc.Register(ctx, RegisterInput{Email: "READER@example.com", Username: "someone", Password: "Qwe123!"})
	assertAppErrorCode(t, err, models.CodeConflict)

	_, err = svc.Register(ctx, RegisterInput{Email: "bad-email", Username: "someone", Password: "Qwe123!"})
	assertValidationError(t, err)
}

func TestAuthService_Authenticate(t *testing.T) {
	svc, db, _ := newAuthFixture(t)
	ctx := context.Background()
	user := registerReader(t, svc)

	tests := []struct {
		name     string
		email    string
		password string
	}{
		{"unknown email", "ghost@example.com", "Qwe123!"},
		{"wrong password", "reader@example.com", "Qwe123?"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Authenticate(ctx, tt.email, tt.password)
			assertAppErrorCode(t, err, models.CodeInvalidCredentials)
		})
	}

	got, err := svc.Authenticate(ctx, "Reader@Example.com", "Qwe123!")
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)

	require.NoError(t, db.Model(&models.User{}).Where("id = ?", user.ID).Update("is_active", false).Error)
	_, err = svc.Authenticate(ctx, "reader@example.com", "Qwe123!")
	assertAppErrorCode(t, err, models.CodeInvalidCredentials)
}

func TestAuthService_AccessTokenClaims(t *testing.T) {
	svc, db, _ := newAuthFixture(t)
	ctx := context.Background()
	user := registerReader(t, svc)
	require.NoError(t, db.Model(&models.User{}).Where("id = ?", user.ID).Update("is_admin", true).Error)
	user.IsAdmin = true

	issuedAt := time.Now().UTC()
	svc.now = fixedClock(issuedAt)
	pair, err := svc.IssueTokens(ctx, user)
	require.NoError(t, err)
	assert.Len(t, pair.RefreshToken, refreshTokenLength)
	assert.Regexp(t, `^[A-Za-z0-9]+$`, pair.RefreshToken)

	principal, err := svc.ParseAccessToken(ctx, pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID, principal.UserID)
	assert.True(t, principal.IsAdmin)
	assert.NotEmpty(t, principal.TokenID)

	other := NewAuthService(nil, nil, nil, AuthConfig{
		Secret: "another-secret-entirely-0123456789abcdef", Issuer: "librarium-api", Audience: "librarium-client",
		AccessTTL: time.Hour, RefreshTTL: time.Hour, BcryptCost: bcrypt.MinCost,
	})
	_, err = other.ParseAccessToken(ctx, pair.AccessToken)
	assertAppErrorCode(t, err, models.CodeUnauthorized)

	svc.now = fixedClock(issuedAt.Add(2 * time.Hour))
	_, err = svc.ParseAccessToken(ctx, pair.AccessToken)
	assertAppErrorCode(t, err, models.CodeUnauthorized)

	_, err = svc.ParseAccessToken(ctx, "")
	assertAppErrorCode(t, err, models.CodeUnauthorized)
}

func TestAuthService_RefreshRotatesOnce(t *testing.T) {
	svc, _, _ := newAuthFixture(t)
	ctx := context.Background()
	registerReader(t, svc)

	_, first, err := svc.Login(ctx, "reader@example.com", "Qwe123!")
	require.NoError(t, err)

	second, err := svc.Refresh(ctx, first.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, first.RefreshToken, second.RefreshToken)
	assert.NotEmpty(t, second.AccessToken)

	_, err = svc.Refresh(ctx, first.RefreshToken)
	assertAppErrorCode(t, err, models.CodeInvalidToken)

	_, err = svc.Refresh(ctx, "unknown-token")
	assertAppErrorCode(t, err, models.CodeInvalidToken)

	third, err := svc.Refresh(ctx, second.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, second.RefreshToken, third.RefreshToken)
}

func TestAuthService_RefreshInactiveUserLeavesNoLiveToken(t *testing.T) {
	svc, db, _ := newAuthFixture(t)
	ctx := context.Background()
	user := registerReader(t, svc)

	_, pair, err := svc.Login(ctx, "reader@example.com", "Qwe123!")
	require.NoError(t, err)
	require.NoError(t, db.Model(&models.User{}).Where("id = ?", user.ID).Update("is_active", false).Error)

	_, err = svc.Refresh(ctx, pair.RefreshToken)
	assertAppErrorCode(t, err, models.CodeInvalidToken)

	var live int64
	require.NoError(t, db.Model(&models.RefreshToken{}).
		Where("user_id = ? AND expires_at > ?", user.ID, time.Now().UTC()).
		Count(&live).Error)
	assert.Zero(t, live)
}

func TestAuthService_LogoutRevokesBothTokens(t *testing.T) {
	svc, _, mr := newAuthFixture(t)
	ctx := context.Background()
	registerReader(t, svc)

	_, pair, err := svc.Login(ctx, "reader@example.com", "Qwe123!")
	require.NoError(t, err)
	principal, err := svc.ParseAccessToken(ctx, pair.AccessToken)
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx, pair.RefreshToken, pair.AccessToken))
	assert.True(t, mr.Exists(cache.RevokedTokenKey(principal.TokenID)))

	_, err = svc.ParseAccessToken(ctx, pair.AccessToken)
	assertAppErrorCode(t, err, models.CodeUnauthorized)

	_, err = svc.Refresh(ctx, pair.RefreshToken)
	assertAppErrorCode(t, err, models.CodeInvalidToken)

	err = svc.Logout(ctx, pair.RefreshToken, "")
	assertAppErrorCode(t, err, models.CodeInvalidToken)
}

func TestAuthService_RequireUserAndAdmin(t *testing.T) {
	svc, db, _ := newAuthFixture(t)
	ctx := context.Background()
	user := registerReader(t, svc)

	pair, err := svc.IssueTokens(ctx, user)
	require.NoError(t, err)

	got, _, err := svc.RequireUser(ctx, pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)

	_, _, err = svc.RequireAdmin(ctx, pair.AccessToken)
	assertForbiddenError(t, err)

	// Promotion is read from the store, not from the token.
	require.NoError(t, db.Model(&models.User{}).Where("id = ?", user.ID).Update("is_admin", true).Error)
	_, _, err = svc.RequireAdmin(ctx, pair.AccessToken)
	require.NoError(t, err)

	require.NoError(t, db.Model(&models.User{}).Where("id = ?", user.ID).Update("is_active", false).Error)
	_, _, err = svc.RequireUser(ctx, pair.AccessToken)
	assertAppErrorCode(t, err, models.CodeUnauthorized)
}
