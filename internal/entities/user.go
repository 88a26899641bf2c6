package entities

import "time"

// Role is the access level carried in access tokens.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleUser
}

// User represents a user entity in the database
type User struct {
	ID           string     `json:"id"` // UUID
	Name         string     `json:"name"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"` // Don't expose password hash in JSON
	Role         Role       `json:"role"`
	ProfileImage *string    `json:"profileImage"`
	OTP          *string    `json:"-"`
	OTPExpiresAt *time.Time `json:"-"`
	RefreshToken *string    `json:"-"`
	IsDeleted    bool       `json:"isDeleted"`
	DeletedAt    *time.Time `json:"deletedAt,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

// SetOTP stores a recovery code together with its expiry.
func (u *User) SetOTP(code string, expiresAt time.Time) {
	u.OTP = &code
	u.OTPExpiresAt = &expiresAt
}

// ClearOTP drops the recovery code and its expiry.
func (u *User) ClearOTP() {
	u.OTP = nil
	u.OTPExpiresAt = nil
}

// MarkDeleted flags the record as soft-deleted at t.
func (u *User) MarkDeleted(t time.Time) {
	u.IsDeleted = true
	u.DeletedAt = &t
}
