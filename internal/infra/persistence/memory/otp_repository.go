package memory

import (
	"context"
	"slices"

	"chatty/internal/domain/entity"
	"chatty/internal/domain/repository"

	"github.com/google/uuid"
)

type otpRepository struct {
	store *Store
	undo  *undoLog // nil outside a transaction
}

func (r *otpRepository) Create(_ context.Context, otp *entity.PasswordResetOTP) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if otp.ID == uuid.Nil {
		otp.ID = uuid.New()
	}
	otp.Email = normalizeEmail(otp.Email)
	if otp.CreatedAt.IsZero() {
		otp.CreatedAt = r.store.now()
	}

	cp := *otp
	r.store.otps = append(r.store.otps, &cp)
	r.undo.record(func() {
		r.store.otps = slices.DeleteFunc(r.store.otps, func(o *entity.PasswordResetOTP) bool { return o == &cp })
	})

	return nil
}

func (r *otpRepository) FindByEmailAndCode(_ context.Context, email, code string) (*entity.PasswordResetOTP, error) {
	email = normalizeEmail(email)

	return r.newest(func(o *entity.PasswordResetOTP) bool {
		return o.Email == email && o.Code == code
	})
}

func (r *otpRepository) FindVerifiedByEmail(_ context.Context, email string) (*entity.PasswordResetOTP, error) {
	email = normalizeEmail(email)

	return r.newest(func(o *entity.PasswordResetOTP) bool {
		return o.Email == email && o.Verified
	})
}

// newest scans from the tail; records are appended in creation order.
func (r *otpRepository) newest(match func(*entity.PasswordResetOTP) bool) (*entity.PasswordResetOTP, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	for i := len(r.store.otps) - 1; i >= 0; i-- {
		if o := r.store.otps[i]; match(o) {
			cp := *o

			return &cp, nil
		}
	}

	return nil, repository.ErrOTPNotFound
}

func (r *otpRepository) MarkVerified(_ context.Context, id uuid.UUID) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	for _, o := range r.store.otps {
		if o.ID == id && !o.Verified {
			o.Verified = true
			r.undo.record(func() { o.Verified = false })

			return nil
		}
	}

	return repository.ErrOTPNotFound
}

func (r *otpRepository) DeleteByEmail(_ context.Context, email string) (int64, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	email = normalizeEmail(email)
	var dropped []*entity.PasswordResetOTP
	r.store.otps = slices.DeleteFunc(r.store.otps, func(o *entity.PasswordResetOTP) bool {
		if o.Email == email {
			dropped = append(dropped, o)

			return true
		}

		return false
	})
	if len(dropped) > 0 {
		r.undo.record(func() {
			r.store.otps = append(r.store.otps, dropped...)
			// Lookups scan from the tail, so creation order must survive the restore.
			slices.SortStableFunc(r.store.otps, func(a, b *entity.PasswordResetOTP) int {
				return a.CreatedAt.Compare(b.CreatedAt)
			})
		})
	}

	return int64(len(dropped)), nil
}
