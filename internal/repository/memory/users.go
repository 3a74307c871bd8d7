package memory

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/it-helpdesk/internal/domain"
	"github.com/spec-kit/it-helpdesk/internal/repository"
)

var errDuplicateUsername = errors.New("username already exists")

// UserRepository implements repository.UserRepository.
type UserRepository struct {
	s *Store
}

var _ repository.UserRepository = (*UserRepository)(nil)

func (r *UserRepository) Create(_ context.Context, user *domain.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, existing := range r.s.users {
		if strings.EqualFold(existing.Username, user.Username) {
			return errDuplicateUsername
		}
	}
	r.s.nextUserID++
	now := r.s.now()
	user.ID = r.s.nextUserID
	user.CreatedAt = now
	user.UpdatedAt = now
	stored := *user
	r.s.users[user.ID] = &stored
	return nil
}

func (r *UserRepository) Update(_ context.Context, user *domain.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.users[user.ID]; !ok {
		return pgx.ErrNoRows
	}
	user.UpdatedAt = r.s.now()
	stored := *user
	r.s.users[user.ID] = &stored
	return nil
}

func (r *UserRepository) SetActive(_ context.Context, id int64, active bool) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	user, ok := r.s.users[id]
	if !ok {
		return pgx.ErrNoRows
	}
	user.Active = active
	user.UpdatedAt = r.s.now()
	return nil
}

func (r *UserRepository) GetByID(_ context.Context, id int64) (*domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	user, ok := r.s.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	out := *user
	return &out, nil
}

func (r *UserRepository) GetByUsername(_ context.Context, username string) (*domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, user := range r.s.users {
		if strings.EqualFold(user.Username, username) {
			out := *user
			return &out, nil
		}
	}
	return nil, pgx.ErrNoRows
}

// ProfileRepository implements repository.ProfileRepository.
type ProfileRepository struct {
	s *Store
}

var _ repository.ProfileRepository = (*ProfileRepository)(nil)

func (r *ProfileRepository) GetByUserID(_ context.Context, userID int64) (*domain.Profile, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	profile, ok := r.s.profiles[userID]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	out := *profile
	return &out, nil
}

func (r *ProfileRepository) Upsert(_ context.Context, profile *domain.Profile) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	stored := *profile
	r.s.profiles[profile.UserID] = &stored
	return nil
}
