package service

import (
	"context"
	"time"

	"librarium/internal/models"
	"librarium/internal/repository"
)

// UserService backs account lookups and the operator CLI.
type UserService struct {
	userRepo  repository.UserRepository
	tokenRepo repository.RefreshTokenRepository
	now       func() time.Time
}

func NewUserService(userRepo repository.UserRepository, tokenRepo repository.RefreshTokenRepository) *UserService {
	return &UserService{userRepo: userRepo, tokenRepo: tokenRepo, now: time.Now}
}

func (s *UserService) GetUserByID(ctx context.Context, id uint) (*models.User, error) {
	return s.userRepo.GetByID(ctx, id)
}

// SetAdminByEmail grants or removes the admin flag.
func (s *UserService) SetAdminByEmail(ctx context.Context, email string, isAdmin bool) (*models.User, error) {
	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if err := s.userRepo.SetAdmin(ctx, user.ID, isAdmin); err != nil {
		return nil, err
	}
	user.IsAdmin = isAdmin
	return user, nil
}

// DeactivateByEmail blocks the account from logging in or using existing
// tokens and expires every refresh token it still holds.
func (s *UserService) DeactivateByEmail(ctx context.Context, email string) (*models.User, error) {
	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if err := s.userRepo.SetActive(ctx, user.ID, false); err != nil {
		return nil, err
	}
	user.IsActive = false
	if _, err := s.tokenRepo.ExpireAllForUser(ctx, user.ID, s.now().UTC()); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *UserService) ListAdmins(ctx context.Context) ([]models.User, error) {
	return s.userRepo.ListAdmins(ctx)
}
