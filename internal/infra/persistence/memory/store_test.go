package memory

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"chatty/internal/domain/entity"
	domainerrors "chatty/internal/domain/errors"
	"chatty/internal/domain/repository"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserRepository_CreateAndFind(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	repo := store.UserRepo()

	user := &entity.User{Email: "  Alice@Example.com ", FullName: "Alice", PasswordHash: "hash"}
	require.NoError(t, repo.Create(ctx, user))
	assert.NotEqual(t, "", user.ID.String())
	assert.Equal(t, "alice@example.com", user.Email)

	byEmail, err := repo.FindByEmail(ctx, "ALICE@example.com")
	require.NoError(t, err)
	assert.Equal(t, user.ID, byEmail.ID)

	byID, err := repo.FindByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "Alice", byID.FullName)

	// Returned values are copies.
	byID.FullName = "Mallory"
	again, err := repo.FindByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "Alice", again.FullName)
}

func TestUserRepository_DuplicateEmail(t *testing.T) {
	ctx := context.Background()
	repo := NewStore().UserRepo()

	require.NoError(t, repo.Create(ctx, &entity.User{Email: "a@x.com", FullName: "A", PasswordHash: "h"}))
	err := repo.Create(ctx, &entity.User{Email: "A@X.com", FullName: "B", PasswordHash: "h"})

	assert.ErrorIs(t, err, domainerrors.ErrUserAlreadyExists)
}

func TestUserRepository_ConcurrentSignupSameEmail(t *testing.T) {
	ctx := context.Background()
	repo := NewStore().UserRepo()

	var created atomic.Int32
	var wg sync.WaitGroup
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := repo.Create(ctx, &entity.User{Email: "race@x.com", FullName: "R", PasswordHash: "h"}); err == nil {
				created.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), created.Load())
}

func TestUserRepository_UpdateUnknownUser(t *testing.T) {
	ctx := context.Background()
	repo := NewStore().UserRepo()

	err := repo.UpdatePassword(ctx, uuid.New(), "hash")

	assert.ErrorIs(t, err, repository.ErrUserNotFound)
}

func TestOTPRepository_Lifecycle(t *testing.T) {
	ctx := context.Background()
	repo := NewStore().OTPRepo()
	expires := time.Now().Add(10 * time.Minute)

	first := &entity.PasswordResetOTP{Email: "a@x.com", Code: "111111", ExpiresAt: expires}
	require.NoError(t, repo.Create(ctx, first))

	found, err := repo.FindByEmailAndCode(ctx, "A@x.com", "111111")
	require.NoError(t, err)
	assert.Equal(t, first.ID, found.ID)

	_, err = repo.FindVerifiedByEmail(ctx, "a@x.com")
	assert.ErrorIs(t, err, repository.ErrOTPNotFound)

	require.NoError(t, repo.MarkVerified(ctx, first.ID))
	assert.ErrorIs(t, repo.MarkVerified(ctx, first.ID), repository.ErrOTPNotFound)

	verified, err := repo.FindVerifiedByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	assert.True(t, verified.Verified)

	require.NoError(t, repo.Create(ctx, &entity.PasswordResetOTP{Email: "b@x.com", Code: "222222", ExpiresAt: expires}))

	removed, err := repo.DeleteByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	_, err = repo.FindByEmailAndCode(ctx, "a@x.com", "111111")
	assert.ErrorIs(t, err, repository.ErrOTPNotFound)
	_, err = repo.FindByEmailAndCode(ctx, "b@x.com", "222222")
	assert.NoError(t, err)
}

func TestTransactionManager_RollsBackOnError(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	require.NoError(t, store.OTPRepo().Create(ctx, &entity.PasswordResetOTP{Email: "a@x.com", Code: "111111"}))

	boom := errors.New("boom")
	err := store.TransactionManager().Execute(ctx, func(f repository.RepositoryFactory) error {
		if _, err := f.OTPRepo().DeleteByEmail(ctx, "a@x.com"); err != nil {
			return err
		}
		if err := f.UserRepo().Create(ctx, &entity.User{Email: "a@x.com", FullName: "A", PasswordHash: "h"}); err != nil {
			return err
		}

		return boom
	})

	assert.ErrorIs(t, err, boom)
	_, err = store.OTPRepo().FindByEmailAndCode(ctx, "a@x.com", "111111")
	assert.NoError(t, err)
	_, err = store.UserRepo().FindByEmail(ctx, "a@x.com")
	assert.ErrorIs(t, err, repository.ErrUserNotFound)
}

func TestTransactionManager_Commits(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	err := store.TransactionManager().Execute(ctx, func(f repository.RepositoryFactory) error {
		return f.OTPRepo().Create(ctx, &entity.PasswordResetOTP{Email: "a@x.com", Code: "333333"})
	})

	require.NoError(t, err)
	_, err = store.OTPRepo().FindByEmailAndCode(ctx, "a@x.com", "333333")
	assert.NoError(t, err)
}

func TestTransactionManager_RollbackKeepsOutsideWrites(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	alice := &entity.User{Email: "alice@x.com", FullName: "Alice", PasswordHash: "old"}
	require.NoError(t, store.UserRepo().Create(ctx, alice))
	otp := &entity.PasswordResetOTP{Email: "carol@x.com", Code: "444444"}
	require.NoError(t, store.OTPRepo().Create(ctx, otp))

	boom := errors.New("boom")
	err := store.TransactionManager().Execute(ctx, func(f repository.RepositoryFactory) error {
		if err := f.UserRepo().UpdatePassword(ctx, alice.ID, "new"); err != nil {
			return err
		}

		// Writes from other requests while the transaction is open.
		require.NoError(t, store.UserRepo().Create(ctx, &entity.User{Email: "bob@x.com", FullName: "Bob", PasswordHash: "h"}))
		require.NoError(t, store.OTPRepo().MarkVerified(ctx, otp.ID))
		require.NoError(t, store.UserRepo().UpdateProfilePic(ctx, alice.ID, "/media/a.png"))

		return boom
	})
	require.ErrorIs(t, err, boom)

	_, err = store.UserRepo().FindByEmail(ctx, "bob@x.com")
	assert.NoError(t, err)

	verified, err := store.OTPRepo().FindVerifiedByEmail(ctx, "carol@x.com")
	require.NoError(t, err)
	assert.Equal(t, otp.ID, verified.ID)

	got, err := store.UserRepo().FindByID(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, "old", got.PasswordHash)
	assert.Equal(t, "/media/a.png", got.ProfilePic)
}

func TestTransactionManager_RollbackRestoresDeletedOTPsInOrder(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	older := &entity.PasswordResetOTP{Email: "a@x.com", Code: "555555", CreatedAt: base}
	newer := &entity.PasswordResetOTP{Email: "a@x.com", Code: "555555", CreatedAt: base.Add(time.Minute)}
	require.NoError(t, store.OTPRepo().Create(ctx, older))
	require.NoError(t, store.OTPRepo().Create(ctx, &entity.PasswordResetOTP{Email: "b@x.com", Code: "666666", CreatedAt: base.Add(30 * time.Second)}))
	require.NoError(t, store.OTPRepo().Create(ctx, newer))

	boom := errors.New("boom")
	err := store.TransactionManager().Execute(ctx, func(f repository.RepositoryFactory) error {
		removed, err := f.OTPRepo().DeleteByEmail(ctx, "a@x.com")
		require.NoError(t, err)
		assert.Equal(t, int64(2), removed)

		return boom
	})
	require.ErrorIs(t, err, boom)

	got, err := store.OTPRepo().FindByEmailAndCode(ctx, "a@x.com", "555555")
	require.NoError(t, err)
	assert.Equal(t, newer.ID, got.ID)
	_, err = store.OTPRepo().FindByEmailAndCode(ctx, "b@x.com", "666666")
	assert.NoError(t, err)
}
