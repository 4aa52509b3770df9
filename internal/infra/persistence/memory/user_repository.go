package memory

import (
	"context"

	"chatty/internal/domain/entity"
	domainerrors "chatty/internal/domain/errors"
	"chatty/internal/domain/repository"

	"github.com/google/uuid"
)

type userRepository struct {
	store *Store
	undo  *undoLog // nil outside a transaction
}

func (r *userRepository) FindByID(_ context.Context, id uuid.UUID) (*entity.User, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	for _, u := range r.store.users {
		if u.ID == id {
			cp := *u

			return &cp, nil
		}
	}

	return nil, repository.ErrUserNotFound
}

func (r *userRepository) FindByEmail(_ context.Context, email string) (*entity.User, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	u, ok := r.store.users[normalizeEmail(email)]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	cp := *u

	return &cp, nil
}

// Create enforces email uniqueness under the write lock, mirroring the unique index in Postgres.
func (r *userRepository) Create(_ context.Context, user *entity.User) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	key := normalizeEmail(user.Email)
	if _, exists := r.store.users[key]; exists {
		return domainerrors.ErrUserAlreadyExists.WrapMessage("email already exists")
	}

	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	now := r.store.now()
	user.Email = key
	user.CreatedAt = now
	user.UpdatedAt = now

	cp := *user
	r.store.users[key] = &cp
	r.undo.record(func() { delete(r.store.users, key) })

	return nil
}

func (r *userRepository) UpdatePassword(_ context.Context, id uuid.UUID, passwordHash string) error {
	return r.update(id, func(u *entity.User) { u.PasswordHash = passwordHash })
}

func (r *userRepository) UpdateProfilePic(_ context.Context, id uuid.UUID, profilePic string) error {
	return r.update(id, func(u *entity.User) { u.ProfilePic = profilePic })
}

func (r *userRepository) update(id uuid.UUID, apply func(*entity.User)) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	for _, u := range r.store.users {
		if u.ID == id {
			prev := *u
			r.undo.record(func() { *u = prev })
			apply(u)
			u.UpdatedAt = r.store.now()

			return nil
		}
	}

	return repository.ErrUserNotFound
}
