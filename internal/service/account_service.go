package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"accounts-be/internal/apierror"
	"accounts-be/internal/entities"
	"accounts-be/internal/jwt"
	"accounts-be/internal/models"
	"accounts-be/internal/repository"
)

const (
	msgInvalidCredentials = "Invalid credentials."
	msgInvalidRole        = "Invalid user type provided."
	msgUserNotFound       = "User not found."
	msgMissingUserID      = "User ID not received."
	msgUpdateFailed       = "Something went wrong while updating user profile"
	msgInvalidRefresh     = "Invalid or expired refresh token"
)

// AccountService defines the interface for account business logic
type AccountService interface {
	Create(ctx context.Context, req *models.CreateUserRequest) (*models.UserResponse, error)
	Login(ctx context.Context, req *models.LoginRequest) (*models.LoginResponse, error)
	Refresh(ctx context.Context, refreshToken string) (*models.LoginResponse, error)
	Logout(ctx context.Context, userID string) error
	UpdateProfile(ctx context.Context, userID string, req *models.UpdateProfileRequest) (*models.UserResponse, error)
	GetSelf(ctx context.Context, userID string) (*models.UserResponse, error)
}

type accountService struct {
	userRepo   repository.UserRepository
	jwtService *jwt.JWTService
	profiles   *ProfileCache
	logger     *slog.Logger
}

// NewAccountService creates a new account service
func NewAccountService(userRepo repository.UserRepository, jwtService *jwt.JWTService, profiles *ProfileCache, logger *slog.Logger) AccountService {
	return &accountService{
		userRepo:   userRepo,
		jwtService: jwtService,
		profiles:   profiles,
		logger:     logger,
	}
}

// Create registers a new account
func (s *accountService) Create(ctx context.Context, req *models.CreateUserRequest) (*models.UserResponse, error) {
	name := strings.TrimSpace(req.Name)
	email := repository.NormalizeEmail(req.Email)
	if name == "" || email == "" || strings.TrimSpace(req.Password) == "" {
		return nil, apierror.BadRequest("All fields are required")
	}

	role := entities.RoleUser
	if r := strings.TrimSpace(req.Role); r != "" {
		role = entities.Role(r)
		if !role.Valid() {
			return nil, apierror.BadRequest(msgInvalidRole)
		}
	}

	// Check if user already exists
	_, err := s.userRepo.FindByEmail(ctx, email)
	if err == nil {
		return nil, apierror.Conflict("User already exists")
	}
	if !errors.Is(err, repository.ErrUserNotFound) {
		return nil, apierror.Internal("", err)
	}

	hashed, err := hashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	user := &entities.User{
		Name:         name,
		Email:        email,
		PasswordHash: hashed,
		Role:         role,
		ProfileImage: nonEmpty(req.ProfileImage),
	}

	created, err := s.userRepo.Insert(ctx, user)
	if errors.Is(err, repository.ErrDuplicateEmail) {
		return nil, apierror.Conflict("User already exists")
	}
	if err != nil {
		return nil, apierror.Internal("Something went wrong while creating the user", err)
	}

	s.logger.InfoContext(ctx, "user created", "user_id", created.ID, "role", created.Role)
	return models.NewUserResponse(created), nil
}

// Login authenticates a user and returns user info with both tokens.
// An unknown email, a wrong password and a wrong role are indistinguishable.
func (s *accountService) Login(ctx context.Context, req *models.LoginRequest) (*models.LoginResponse, error) {
	email := repository.NormalizeEmail(req.Email)
	roleName := strings.TrimSpace(req.Role)
	if email == "" || strings.TrimSpace(req.Password) == "" || roleName == "" {
		return nil, apierror.BadRequest("Email, Password, and role are required.")
	}

	role := entities.Role(roleName)
	if !role.Valid() {
		return nil, apierror.BadRequest(msgInvalidRole)
	}

	user, err := s.userRepo.FindByEmail(ctx, email)
	if errors.Is(err, repository.ErrUserNotFound) {
		burnPasswordCheck(req.Password)
		return nil, apierror.Unauthorized(msgInvalidCredentials)
	}
	if err != nil {
		return nil, apierror.Internal("", err)
	}

	ok, err := checkPassword(user.PasswordHash, req.Password)
	if err != nil {
		return nil, apierror.Internal("", err)
	}
	if !ok || user.Role != role {
		return nil, apierror.Unauthorized(msgInvalidCredentials)
	}

	pair, updated, err := s.issueTokens(ctx, user)
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "user logged in", "user_id", updated.ID, "role", updated.Role)
	return &models.LoginResponse{
		User:      models.NewUserResponse(updated),
		TokenPair: *pair,
		Role:      string(updated.Role),
	}, nil
}

// Refresh exchanges a refresh token for a new token pair. Like access token
// verification, it does not compare against the stored refresh token.
func (s *accountService) Refresh(ctx context.Context, refreshToken string) (*models.LoginResponse, error) {
	if refreshToken == "" {
		return nil, apierror.Unauthorized("Refresh token missing")
	}

	claims, err := s.jwtService.VerifyRefreshToken(refreshToken)
	if err != nil {
		return nil, apierror.Unauthorized(msgInvalidRefresh)
	}

	user, err := s.userRepo.FindByID(ctx, claims.UserID)
	if errors.Is(err, repository.ErrUserNotFound) {
		return nil, apierror.Unauthorized(msgInvalidRefresh)
	}
	if err != nil {
		return nil, apierror.Internal("", err)
	}

	pair, updated, err := s.issueTokens(ctx, user)
	if err != nil {
		return nil, err
	}

	return &models.LoginResponse{
		User:      models.NewUserResponse(updated),
		TokenPair: *pair,
		Role:      string(updated.Role),
	}, nil
}

// Logout only checks that the user exists; clearing cookies is the caller's job.
// The stored refresh token stays valid until it expires.
func (s *accountService) Logout(ctx context.Context, userID string) error {
	if userID == "" {
		return apierror.Unauthorized(msgMissingUserID)
	}

	_, err := s.userRepo.FindByID(ctx, userID)
	if errors.Is(err, repository.ErrUserNotFound) {
		return apierror.NotFound(msgUserNotFound)
	}
	if err != nil {
		return apierror.Internal("", err)
	}

	s.logger.InfoContext(ctx, "user logged out", "user_id", userID)
	return nil
}

// UpdateProfile changes only the fields that were supplied.
func (s *accountService) UpdateProfile(ctx context.Context, userID string, req *models.UpdateProfileRequest) (*models.UserResponse, error) {
	name := nonEmpty(req.Name)
	image := nonEmpty(req.ProfileImage)
	if name == nil && image == nil {
		return nil, apierror.BadRequest("name or profileImage is required")
	}
	if userID == "" {
		return nil, apierror.Unauthorized(msgMissingUserID)
	}

	// A user that vanished between authentication and update is a server-side
	// inconsistency, not a client error.
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, apierror.Internal(msgUpdateFailed, err)
	}

	if name != nil {
		user.Name = *name
	}
	if image != nil {
		user.ProfileImage = image
	}

	updated, err := s.userRepo.Update(ctx, user)
	if err != nil {
		return nil, apierror.Internal(msgUpdateFailed, err)
	}
	s.profiles.invalidate(ctx, userID)

	return models.NewUserResponse(updated), nil
}

// GetSelf returns the authenticated user's profile.
func (s *accountService) GetSelf(ctx context.Context, userID string) (*models.UserResponse, error) {
	if userID == "" {
		return nil, apierror.BadRequest("User ID is not available.")
	}

	if cached, ok := s.profiles.get(ctx, userID); ok {
		return cached, nil
	}

	user, err := s.userRepo.FindByID(ctx, userID)
	if errors.Is(err, repository.ErrUserNotFound) {
		return nil, apierror.NotFound(msgUserNotFound)
	}
	if err != nil {
		return nil, apierror.Internal("", err)
	}

	resp := models.NewUserResponse(user)
	s.profiles.set(ctx, resp)
	return resp, nil
}

// issueTokens signs a new pair and stores the refresh token on the user,
// overwriting the previous one.
func (s *accountService) issueTokens(ctx context.Context, user *entities.User) (*models.TokenPair, *entities.User, error) {
	const msg = "Something went wrong while creating tokens."

	accessToken, err := s.jwtService.IssueAccessToken(user.ID, string(user.Role))
	if err != nil {
		return nil, nil, apierror.Internal(msg, err)
	}
	refreshToken, err := s.jwtService.IssueRefreshToken(user.ID)
	if err != nil {
		return nil, nil, apierror.Internal(msg, err)
	}

	user.RefreshToken = &refreshToken
	updated, err := s.userRepo.Update(ctx, user)
	if err != nil {
		return nil, nil, apierror.Internal(msg, err)
	}

	return &models.TokenPair{AccessToken: accessToken, RefreshToken: refreshToken}, updated, nil
}

// nonEmpty returns a trimmed copy of s, or nil when s is nil or blank.
func nonEmpty(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
