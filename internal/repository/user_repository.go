package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"accounts-be/internal/entities"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

var (
	ErrUserNotFound   = errors.New("user not found")
	ErrDuplicateEmail = errors.New("user with this email already exists")
)

// pq error code for unique_violation
const uniqueViolation = pq.ErrorCode("23505")

// UserRepository defines the interface for user database operations
type UserRepository interface {
	Insert(ctx context.Context, user *entities.User) (*entities.User, error)
	FindByID(ctx context.Context, id string) (*entities.User, error)
	FindByEmail(ctx context.Context, email string) (*entities.User, error)
	Update(ctx context.Context, user *entities.User) (*entities.User, error)
	ListActive(ctx context.Context) ([]*entities.User, error)
}

const userColumns = `id, name, email, password_hash, role, profile_image, otp, otp_expires_at,
	refresh_token, is_deleted, deleted_at, created_at, updated_at`

type userRepository struct {
	db *sql.DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *sql.DB) UserRepository {
	return &userRepository{db: db}
}

// NormalizeEmail lowercases and trims an address before it is stored or looked up.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*entities.User, error) {
	var user entities.User
	err := row.Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.PasswordHash,
		&user.Role,
		&user.ProfileImage,
		&user.OTP,
		&user.OTPExpiresAt,
		&user.RefreshToken,
		&user.IsDeleted,
		&user.DeletedAt,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// Insert stores a new user. The id is generated here and the email normalized.
func (r *userRepository) Insert(ctx context.Context, user *entities.User) (*entities.User, error) {
	query := `
		INSERT INTO users (id, name, email, password_hash, role, profile_image)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING ` + userColumns

	role := user.Role
	if role == "" {
		role = entities.RoleUser
	}

	created, err := scanUser(r.db.QueryRowContext(ctx, query,
		uuid.NewString(),
		user.Name,
		NormalizeEmail(user.Email),
		user.PasswordHash,
		string(role),
		user.ProfileImage,
	))
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return nil, ErrDuplicateEmail
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return created, nil
}

// FindByID finds a user by ID (UUID). Ids that are not UUIDs are reported as not found.
func (r *userRepository) FindByID(ctx context.Context, id string) (*entities.User, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrUserNotFound
	}

	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	user, err := scanUser(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	return user, nil
}

// FindByEmail finds a user by email
func (r *userRepository) FindByEmail(ctx context.Context, email string) (*entities.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`

	user, err := scanUser(r.db.QueryRowContext(ctx, query, NormalizeEmail(email)))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	return user, nil
}

// Update overwrites every mutable column of the user and returns the stored row.
func (r *userRepository) Update(ctx context.Context, user *entities.User) (*entities.User, error) {
	if _, err := uuid.Parse(user.ID); err != nil {
		return nil, ErrUserNotFound
	}

	query := `
		UPDATE users
		SET name = $2, email = $3, password_hash = $4, role = $5, profile_image = $6,
			otp = $7, otp_expires_at = $8, refresh_token = $9, is_deleted = $10,
			deleted_at = $11, updated_at = NOW()
		WHERE id = $1
		RETURNING ` + userColumns

	updated, err := scanUser(r.db.QueryRowContext(ctx, query,
		user.ID,
		user.Name,
		NormalizeEmail(user.Email),
		user.PasswordHash,
		string(user.Role),
		user.ProfileImage,
		user.OTP,
		user.OTPExpiresAt,
		user.RefreshToken,
		user.IsDeleted,
		user.DeletedAt,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return nil, ErrDuplicateEmail
		}
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	return updated, nil
}

// ListActive returns users that have not been soft-deleted, oldest first.
func (r *userRepository) ListActive(ctx context.Context) ([]*entities.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE is_deleted = FALSE ORDER BY created_at`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var users []*entities.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	return users, nil
}
