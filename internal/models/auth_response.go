package models

import (
	"time"

	"accounts-be/internal/entities"
)

// UserResponse is the client-facing view of a user; it never carries the
// password hash, OTP state or refresh token.
type UserResponse struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	Email        string     `json:"email"`
	Role         string     `json:"role"`
	ProfileImage *string    `json:"profileImage"`
	IsDeleted    bool       `json:"isDeleted"`
	DeletedAt    *time.Time `json:"deletedAt,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

func NewUserResponse(u *entities.User) *UserResponse {
	return &UserResponse{
		ID:           u.ID,
		Name:         u.Name,
		Email:        u.Email,
		Role:         string(u.Role),
		ProfileImage: u.ProfileImage,
		IsDeleted:    u.IsDeleted,
		DeletedAt:    u.DeletedAt,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}

// TokenPair holds freshly issued tokens.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// LoginResponse represents the response after successful authentication
type LoginResponse struct {
	User *UserResponse `json:"user"`
	TokenPair
	Role string `json:"role"`
}
