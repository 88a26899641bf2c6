package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"accounts-be/internal/apierror"
	"accounts-be/internal/models"
	"accounts-be/internal/repository"
)

// AdminService covers operations only admins may perform. Callers are
// expected to have passed the admin role check.
type AdminService interface {
	SoftDeleteUser(ctx context.Context, id string) error
	ResetUserPassword(ctx context.Context, id, newPassword string) error
	ListUsers(ctx context.Context) ([]*models.UserResponse, error)
}

type adminService struct {
	userRepo repository.UserRepository
	profiles *ProfileCache
	now      func() time.Time
	logger   *slog.Logger
}

func NewAdminService(userRepo repository.UserRepository, profiles *ProfileCache, logger *slog.Logger) AdminService {
	return &adminService{
		userRepo: userRepo,
		profiles: profiles,
		now:      time.Now,
		logger:   logger,
	}
}

// SoftDeleteUser flags the user as deleted. The record and any issued tokens
// are left alone.
func (s *adminService) SoftDeleteUser(ctx context.Context, id string) error {
	user, err := s.userRepo.FindByID(ctx, id)
	if errors.Is(err, repository.ErrUserNotFound) {
		return apierror.NotFound(msgUserNotFound)
	}
	if err != nil {
		return apierror.Internal("Error in deleting user.", err)
	}

	user.MarkDeleted(s.now())
	_, err = s.userRepo.Update(ctx, user)
	if errors.Is(err, repository.ErrUserNotFound) {
		return apierror.NotFound(msgUserNotFound)
	}
	if err != nil {
		return apierror.Internal("Error in deleting user.", err)
	}
	s.profiles.invalidate(ctx, id)

	s.logger.InfoContext(ctx, "user soft-deleted", "user_id", id)
	return nil
}

// ResetUserPassword overwrites the password without applying the self-service
// policy. Like the self-service reset, it drops any pending code.
func (s *adminService) ResetUserPassword(ctx context.Context, id, newPassword string) error {
	if strings.TrimSpace(newPassword) == "" {
		return apierror.BadRequest("New password is required")
	}

	user, err := s.userRepo.FindByID(ctx, id)
	if errors.Is(err, repository.ErrUserNotFound) {
		return apierror.NotFound("User not found")
	}
	if err != nil {
		return apierror.Internal("", err)
	}

	hashed, err := hashPassword(newPassword)
	if err != nil {
		return err
	}
	user.PasswordHash = hashed
	user.ClearOTP()

	if _, err := s.userRepo.Update(ctx, user); err != nil {
		return apierror.Internal("", err)
	}

	s.logger.InfoContext(ctx, "password reset by admin", "user_id", id)
	return nil
}

// ListUsers returns every user that has not been soft-deleted.
func (s *adminService) ListUsers(ctx context.Context) ([]*models.UserResponse, error) {
	users, err := s.userRepo.ListActive(ctx)
	if err != nil {
		return nil, apierror.Internal("", err)
	}

	resp := make([]*models.UserResponse, 0, len(users))
	for _, u := range users {
		resp = append(resp, models.NewUserResponse(u))
	}
	return resp, nil
}
