// Package service provides the catalog's business logic: sessions, lending,
// ownership-scoped comments and ratings, and catalog administration.
package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"strconv"
	"strings"
	"time"

	"librarium/internal/cache"
	"librarium/internal/config"
	"librarium/internal/middleware"
	"librarium/internal/models"
	"librarium/internal/observability"
	"librarium/internal/repository"
	"librarium/internal/validation"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const (
	refreshTokenLength   = 32
	refreshTokenAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
)

// AuthConfig holds token signing and lifetime settings.
type AuthConfig struct {
	Secret     string
	Issuer     string
	Audience   string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	BcryptCost int
}

// AuthConfigFromConfig derives AuthConfig from application configuration.
func AuthConfigFromConfig(cfg *config.Config) AuthConfig {
	return AuthConfig{
		Secret:     cfg.JWTSecret,
		Issuer:     cfg.JWTIssuer,
		Audience:   cfg.JWTAudience,
		AccessTTL:  time.Duration(cfg.AccessTokenTTLMinutes) * time.Minute,
		RefreshTTL: time.Duration(cfg.RefreshTokenTTLMinutes) * time.Minute,
		BcryptCost: bcrypt.DefaultCost,
	}
}

// TokenPair is the result of a login or refresh.
type TokenPair struct {
	AccessToken      string    `json:"access_token"`
	RefreshToken     string    `json:"refresh_token"`
	AccessExpiresAt  time.Time `json:"access_expires_at"`
	RefreshExpiresAt time.Time `json:"refresh_expires_at"`
}

// Principal is the identity carried by a verified access token.
type Principal struct {
	UserID    uint
	IsAdmin   bool
	TokenID   string
	ExpiresAt time.Time
}

type accessClaims struct {
	IsAdmin bool `json:"is_admin"`
	jwt.RegisteredClaims
}

type RegisterInput struct {
	Email    string
	Username string
	Password string
}

type AuthService struct {
	userRepo    repository.UserRepository
	tokenRepo   repository.RefreshTokenRepository
	revocations *cache.TokenRevocationList
	cfg         AuthConfig
	now         func() time.Time
	dummyHash   []byte
}

func NewAuthService(
	userRepo repository.UserRepository,
	tokenRepo repository.RefreshTokenRepository,
	revocations *cache.TokenRevocationList,
	cfg AuthConfig,
) *AuthService {
	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = bcrypt.DefaultCost
	}
	// Compared against when the email is unknown so both failure paths cost a hash.
	dummy, _ := bcrypt.GenerateFromPassword([]byte("librarium-dummy-password"), cfg.BcryptCost)
	return &AuthService{
		userRepo:    userRepo,
		tokenRepo:   tokenRepo,
		revocations: revocations,
		cfg:         cfg,
		now:         func() time.Time { return time.Now().UTC() },
		dummyHash:   dummy,
	}
}

// HashPassword hashes a plaintext password with the configured bcrypt cost.
func (s *AuthService) HashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), s.cfg.BcryptCost)
	if err != nil {
		return "", models.NewInternalError(err)
	}
	return string(hashed), nil
}

// Register validates and stores a new user.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	in.Email = strings.TrimSpace(in.Email)
	in.Username = strings.TrimSpace(in.Username)

	if err := validation.ValidateEmail(in.Email); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if err := validation.ValidateUsername(in.Username); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if err := validation.ValidatePassword(in.Password); err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	hashed, err := s.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Email:    in.Email,
		Username: in.Username,
		Password: hashed,
		IsActive: true,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		observability.RecordAuthEvent("register", outcomeOf(err))
		return nil, err
	}
	observability.RecordAuthEvent("register", "ok")
	return user, nil
}

// Authenticate checks credentials. Unknown email, wrong password and inactive
// accounts all yield the same INVALID_CREDENTIALS error.
func (s *AuthService) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if models.ErrorCode(err) != models.CodeNotFound {
			return nil, err
		}
		_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(password))
		return nil, models.NewInvalidCredentialsError()
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, models.NewInvalidCredentialsError()
	}
	if !user.IsActive {
		return nil, models.NewInvalidCredentialsError()
	}
	return user, nil
}

// Login authenticates and issues a fresh token pair.
func (s *AuthService) Login(ctx context.Context, email, password string) (*models.User, *TokenPair, error) {
	user, err := s.Authenticate(ctx, email, password)
	if err != nil {
		observability.RecordAuthEvent("login", outcomeOf(err))
		return nil, nil, err
	}
	pair, err := s.IssueTokens(ctx, user)
	if err != nil {
		observability.RecordAuthEvent("login", outcomeOf(err))
		return nil, nil, err
	}
	observability.RecordAuthEvent("login", "ok")
	return user, pair, nil
}

// IssueTokens signs an access token and persists a new refresh token for user.
func (s *AuthService) IssueTokens(ctx context.Context, user *models.User) (*TokenPair, error) {
	now := s.now()
	refresh, err := s.newRefreshToken(now)
	if err != nil {
		return nil, err
	}
	refresh.UserID = user.ID
	if err := s.tokenRepo.Create(ctx, refresh); err != nil {
		return nil, err
	}
	return s.pairFor(user, refresh, now)
}

// Refresh exchanges a valid refresh token for a new pair. The presented token
// is expired in the same transaction that stores its successor, so it can be
// used only once.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	now := s.now()
	next, err := s.newRefreshToken(now)
	if err != nil {
		return nil, err
	}

	if _, err := s.tokenRepo.Rotate(ctx, refreshToken, next, now); err != nil {
		observability.RecordAuthEvent("refresh", outcomeOf(err))
		return nil, mapTokenError(err)
	}

	user, err := s.userRepo.GetByID(ctx, next.UserID)
	if err != nil {
		s.discardRefreshToken(ctx, next, now)
		return nil, mapTokenError(err)
	}
	if !user.IsActive {
		s.discardRefreshToken(ctx, next, now)
		observability.RecordAuthEvent("refresh", "inactive")
		return nil, models.NewInvalidTokenError("Invalid refresh token")
	}

	observability.RecordAuthEvent("refresh", "ok")
	return s.pairFor(user, next, now)
}

// discardRefreshToken expires a successor that is never handed to the client.
func (s *AuthService) discardRefreshToken(ctx context.Context, token *models.RefreshToken, now time.Time) {
	if _, err := s.tokenRepo.Expire(ctx, token.Token, now); err != nil {
		middleware.Logger.WarnContext(ctx, "failed to expire unissued refresh token",
			slog.Uint64("user_id", uint64(token.UserID)),
			slog.String("error", err.Error()),
		)
	}
}

// Logout expires the refresh token and, when accessToken verifies, revokes it
// for the rest of its lifetime. An unknown or already expired refresh token
// is an error.
func (s *AuthService) Logout(ctx context.Context, refreshToken, accessToken string) error {
	now := s.now()
	if _, err := s.tokenRepo.Expire(ctx, refreshToken, now); err != nil {
		observability.RecordAuthEvent("logout", outcomeOf(err))
		return mapTokenError(err)
	}

	if accessToken != "" {
		if principal, err := s.verify(accessToken); err == nil {
			if err := s.revocations.Revoke(ctx, principal.TokenID, principal.ExpiresAt.Sub(now)); err != nil {
				middleware.Logger.WarnContext(ctx, "failed to revoke access token",
					slog.String("jti", principal.TokenID),
					slog.String("error", err.Error()),
				)
			}
		}
	}
	observability.RecordAuthEvent("logout", "ok")
	return nil
}

// ParseAccessToken verifies signature, expiry, issuer and audience and checks
// the revocation list.
func (s *AuthService) ParseAccessToken(ctx context.Context, token string) (*Principal, error) {
	if token == "" {
		return nil, models.NewUnauthorizedError("Authentication required")
	}
	principal, err := s.verify(token)
	if err != nil {
		return nil, models.NewUnauthorizedError("Invalid token")
	}

	revoked, err := s.revocations.IsRevoked(ctx, principal.TokenID)
	if err != nil {
		middleware.Logger.WarnContext(ctx, "token revocation lookup failed",
			slog.String("error", err.Error()),
		)
	}
	if revoked {
		return nil, models.NewUnauthorizedError("Token has been revoked")
	}
	return principal, nil
}

// RequireUser resolves an access token to an active user.
func (s *AuthService) RequireUser(ctx context.Context, token string) (*models.User, *Principal, error) {
	principal, err := s.ParseAccessToken(ctx, token)
	if err != nil {
		return nil, nil, err
	}
	user, err := s.userRepo.GetByID(ctx, principal.UserID)
	if err != nil {
		if models.ErrorCode(err) == models.CodeNotFound {
			return nil, nil, models.NewUnauthorizedError("Invalid token")
		}
		return nil, nil, err
	}
	if !user.IsActive {
		return nil, nil, models.NewUnauthorizedError("Inactive user")
	}
	return user, principal, nil
}

// RequireAdmin is RequireUser plus the stored admin flag, so a demotion takes
// effect before the token expires.
func (s *AuthService) RequireAdmin(ctx context.Context, token string) (*models.User, *Principal, error) {
	user, principal, err := s.RequireUser(ctx, token)
	if err != nil {
		return nil, nil, err
	}
	if !user.IsAdmin {
		return nil, nil, models.NewForbiddenError("Admin access required")
	}
	return user, principal, nil
}

func (s *AuthService) verify(token string) (*Principal, error) {
	claims := &accessClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return []byte(s.cfg.Secret), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.cfg.Issuer),
		jwt.WithAudience(s.cfg.Audience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, err
	}
	if !parsed.Valid {
		return nil, errors.New("token is not valid")
	}

	userID, err := strconv.ParseUint(claims.Subject, 10, 64)
	if err != nil || userID == 0 {
		return nil, fmt.Errorf("invalid subject %q", claims.Subject)
	}
	return &Principal{
		UserID:    uint(userID),
		IsAdmin:   claims.IsAdmin,
		TokenID:   claims.ID,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

func (s *AuthService) pairFor(user *models.User, refresh *models.RefreshToken, now time.Time) (*TokenPair, error) {
	accessExpiry := now.Add(s.cfg.AccessTTL)
	claims := accessClaims{
		IsAdmin: user.IsAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(uint64(user.ID), 10),
			Issuer:    s.cfg.Issuer,
			Audience:  jwt.ClaimStrings{s.cfg.Audience},
			ExpiresAt: jwt.NewNumericDate(accessExpiry),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ID:        uuid.NewString(),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.cfg.Secret))
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return &TokenPair{
		AccessToken:      signed,
		RefreshToken:     refresh.Token,
		AccessExpiresAt:  accessExpiry,
		RefreshExpiresAt: refresh.ExpiresAt,
	}, nil
}

func (s *AuthService) newRefreshToken(now time.Time) (*models.RefreshToken, error) {
	token, err := randomToken(refreshTokenLength)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return &models.RefreshToken{Token: token, ExpiresAt: now.Add(s.cfg.RefreshTTL)}, nil
}

func randomToken(n int) (string, error) {
	limit := big.NewInt(int64(len(refreshTokenAlphabet)))
	b := make([]byte, n)
	for i := range b {
		idx, err := rand.Int(rand.Reader, limit)
		if err != nil {
			return "", err
		}
		b[i] = refreshTokenAlphabet[idx.Int64()]
	}
	return string(b), nil
}

func mapTokenError(err error) error {
	if errors.Is(err, repository.ErrRefreshTokenInvalid) || models.ErrorCode(err) == models.CodeNotFound {
		return models.NewInvalidTokenError("Invalid refresh token")
	}
	return err
}

// outcomeOf labels an error for metrics.
func outcomeOf(err error) string {
	if err == nil {
		return "ok"
	}
	if errors.Is(err, repository.ErrRefreshTokenInvalid) {
		return "invalid_token"
	}
	if code := models.ErrorCode(err); code != "" {
		return strings.ToLower(code)
	}
	return "error"
}
