package postgres

import (
	"context"

	"chatty/internal/domain/entity"
	domainerrors "chatty/internal/domain/errors"
	"chatty/internal/domain/repository"
	"chatty/internal/infra/persistence/model"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// otpRepository implements the domain.OTPRepository interface.
type otpRepository struct {
	db *gorm.DB
}

// NewOTPRepository is the constructor for otpRepository.
func NewOTPRepository(db *gorm.DB) repository.OTPRepository {
	return &otpRepository{db: db}
}

// Create persists a new OTP record.
func (repo *otpRepository) Create(ctx context.Context, otp *entity.PasswordResetOTP) error {
	if otp.ID == uuid.Nil {
		otp.ID = uuid.New()
	}
	otpM := fromOTPDomain(otp)

	if err := repo.db.WithContext(ctx).Create(otpM).Error; err != nil {
		return domainerrors.NewDatabaseExecuteError(err, "failed to create password reset otp")
	}

	otp.CreatedAt = otpM.CreatedAt

	return nil
}

// FindByEmailAndCode returns the newest record for the email holding the code.
func (repo *otpRepository) FindByEmailAndCode(ctx context.Context, email, code string) (*entity.PasswordResetOTP, error) {
	return repo.findOne(ctx, "failed to find otp by email and code",
		"email = ? AND code = ?", normalizeEmail(email), code)
}

// FindVerifiedByEmail returns the newest verified record for the email.
func (repo *otpRepository) FindVerifiedByEmail(ctx context.Context, email string) (*entity.PasswordResetOTP, error) {
	return repo.findOne(ctx, "failed to find verified otp by email",
		"email = ? AND verified = ?", normalizeEmail(email), true)
}

func (repo *otpRepository) findOne(ctx context.Context, failure string, query string, args ...any) (*entity.PasswordResetOTP, error) {
	var otpM model.PasswordResetOTPModel
	err := repo.db.WithContext(ctx).
		Where(query, args...).
		Order("created_at DESC").
		First(&otpM).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrOTPNotFound
		}

		return nil, domainerrors.NewDatabaseExecuteError(err, failure)
	}

	return toOTPDomain(&otpM), nil
}

// MarkVerified sets verified only while it is still false, so a code can be verified once.
func (repo *otpRepository) MarkVerified(ctx context.Context, id uuid.UUID) error {
	result := repo.db.WithContext(ctx).
		Model(&model.PasswordResetOTPModel{}).
		Where("id = ? AND verified = ?", id, false).
		Update("verified", true)
	if result.Error != nil {
		return domainerrors.NewDatabaseExecuteError(result.Error, "failed to mark otp verified")
	}
	if result.RowsAffected == 0 {
		return repository.ErrOTPNotFound
	}

	return nil
}

// DeleteByEmail removes every OTP record of the email.
func (repo *otpRepository) DeleteByEmail(ctx context.Context, email string) (int64, error) {
	result := repo.db.WithContext(ctx).
		Where("email = ?", normalizeEmail(email)).
		Delete(&model.PasswordResetOTPModel{})
	if result.Error != nil {
		return 0, domainerrors.NewDatabaseExecuteError(result.Error, "failed to delete otps by email")
	}

	return result.RowsAffected, nil
}

func toOTPDomain(data *model.PasswordResetOTPModel) *entity.PasswordResetOTP {
	if data == nil {
		return nil
	}

	return &entity.PasswordResetOTP{
		ID:        data.ID,
		Email:     data.Email,
		Code:      data.Code,
		ExpiresAt: data.ExpiresAt,
		Verified:  data.Verified,
		CreatedAt: data.CreatedAt,
	}
}

func fromOTPDomain(data *entity.PasswordResetOTP) *model.PasswordResetOTPModel {
	if data == nil {
		return nil
	}

	return &model.PasswordResetOTPModel{
		ID:        data.ID,
		Email:     normalizeEmail(data.Email),
		Code:      data.Code,
		ExpiresAt: data.ExpiresAt,
		Verified:  data.Verified,
	}
}
