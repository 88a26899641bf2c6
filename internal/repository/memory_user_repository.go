package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"accounts-be/internal/entities"

	"github.com/google/uuid"
)

// memoryUserRepository keeps users in process memory. It backs local runs
// without DATABASE_URL and the service tests.
type memoryUserRepository struct {
	mu      sync.RWMutex
	byID    map[string]*entities.User
	byEmail map[string]string
	now     func() time.Time
}

// NewMemoryUserRepository creates an empty in-memory user repository.
func NewMemoryUserRepository() UserRepository {
	return &memoryUserRepository{
		byID:    make(map[string]*entities.User),
		byEmail: make(map[string]string),
		now:     time.Now,
	}
}

// clone copies the record and every pointer field, so callers never share
// memory with the store.
func clone(u *entities.User) *entities.User {
	c := *u
	if u.ProfileImage != nil {
		v := *u.ProfileImage
		c.ProfileImage = &v
	}
	if u.OTP != nil {
		v := *u.OTP
		c.OTP = &v
	}
	if u.OTPExpiresAt != nil {
		v := *u.OTPExpiresAt
		c.OTPExpiresAt = &v
	}
	if u.RefreshToken != nil {
		v := *u.RefreshToken
		c.RefreshToken = &v
	}
	if u.DeletedAt != nil {
		v := *u.DeletedAt
		c.DeletedAt = &v
	}
	return &c
}

func (r *memoryUserRepository) Insert(_ context.Context, user *entities.User) (*entities.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	email := NormalizeEmail(user.Email)
	if _, exists := r.byEmail[email]; exists {
		return nil, ErrDuplicateEmail
	}

	stored := clone(user)
	stored.ID = uuid.NewString()
	stored.Email = email
	if stored.Role == "" {
		stored.Role = entities.RoleUser
	}
	now := r.now()
	stored.CreatedAt = now
	stored.UpdatedAt = now

	r.byID[stored.ID] = stored
	r.byEmail[email] = stored.ID
	return clone(stored), nil
}

func (r *memoryUserRepository) FindByID(_ context.Context, id string) (*entities.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.byID[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	return clone(user), nil
}

func (r *memoryUserRepository) FindByEmail(_ context.Context, email string) (*entities.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byEmail[NormalizeEmail(email)]
	if !ok {
		return nil, ErrUserNotFound
	}
	return clone(r.byID[id]), nil
}

func (r *memoryUserRepository) Update(_ context.Context, user *entities.User) (*entities.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.byID[user.ID]
	if !ok {
		return nil, ErrUserNotFound
	}

	email := NormalizeEmail(user.Email)
	if owner, taken := r.byEmail[email]; taken && owner != user.ID {
		return nil, ErrDuplicateEmail
	}

	stored := clone(user)
	stored.Email = email
	stored.CreatedAt = current.CreatedAt
	stored.UpdatedAt = r.now()

	delete(r.byEmail, current.Email)
	r.byEmail[email] = stored.ID
	r.byID[stored.ID] = stored
	return clone(stored), nil
}

func (r *memoryUserRepository) ListActive(_ context.Context) ([]*entities.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	users := make([]*entities.User, 0, len(r.byID))
	for _, u := range r.byID {
		if !u.IsDeleted {
			users = append(users, clone(u))
		}
	}
	sort.Slice(users, func(i, j int) bool {
		return users[i].CreatedAt.Before(users[j].CreatedAt)
	})
	return users, nil
}
