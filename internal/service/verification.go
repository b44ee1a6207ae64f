package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/Payphone-Digital/accounts/internal/constants"
	apperrors "github.com/Payphone-Digital/accounts/internal/errors"
	"github.com/Payphone-Digital/accounts/internal/model"
	"github.com/Payphone-Digital/accounts/internal/repository"
	ctxutil "github.com/Payphone-Digital/accounts/pkg/context"
	"github.com/Payphone-Digital/accounts/pkg/logger"
	"github.com/Payphone-Digital/accounts/pkg/metrics"
	"gorm.io/gorm"
)

const maxIssueAttempts = 10

// Clock returns the current time. Registry times are always UTC.
type Clock func() time.Time

func utcNow() time.Time {
	return time.Now().UTC()
}

// CodeGenerator returns a fresh candidate code.
type CodeGenerator func() (string, error)

// RandomDigits draws VerificationCodeLength digits from crypto/rand.
func RandomDigits() (string, error) {
	return randomString(constants.VerificationCodeLength, constants.VerificationCodeDigits)
}

func randomString(length int, alphabet string) (string, error) {
	var sb strings.Builder
	sb.Grow(length)
	max := big.NewInt(int64(len(alphabet)))
	for i := 0; i < length; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		sb.WriteByte(alphabet[n.Int64()])
	}
	return sb.String(), nil
}

// CodeRegistry issues and checks the one time codes used for email
// verification and password reset.
type CodeRegistry struct {
	repo     *repository.VerificationCodeRepository
	expiry   time.Duration
	now      Clock
	generate CodeGenerator
	metrics  *metrics.Metrics
}

type RegistryOption func(*CodeRegistry)

func WithClock(now Clock) RegistryOption {
	return func(r *CodeRegistry) { r.now = now }
}

func WithCodeGenerator(gen CodeGenerator) RegistryOption {
	return func(r *CodeRegistry) { r.generate = gen }
}

func WithRegistryMetrics(m *metrics.Metrics) RegistryOption {
	return func(r *CodeRegistry) { r.metrics = m }
}

func NewCodeRegistry(repo *repository.VerificationCodeRepository, expiry time.Duration, opts ...RegistryOption) *CodeRegistry {
	r := &CodeRegistry{
		repo:     repo,
		expiry:   expiry,
		now:      utcNow,
		generate: RandomDigits,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *CodeRegistry) Expiry() time.Duration {
	return r.expiry
}

// Issue returns a new code for user and purpose. A password reset code that
// has not expired yet is handed out again instead.
func (r *CodeRegistry) Issue(ctx context.Context, user *model.User, purpose constants.CodeType) (*model.VerificationCode, error) {
	ctx = context.WithValue(ctx, ctxutil.FunctionKey, "Issue")
	ctx = context.WithValue(ctx, ctxutil.ModuleKey, "service")

	if !purpose.Valid() {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, fmt.Sprintf("unknown code type %q", purpose))
	}

	now := r.now()
	if purpose == constants.CodeTypePasswordReset {
		existing, err := r.repo.GetLatest(ctx, user.ID, purpose)
		switch {
		case err == nil && !existing.IsExpired(now, r.expiry):
			logger.DebugWithContext(ctx, "Reusing unexpired reset code").
				Uint("user_id", user.ID).
				Log()
			r.metrics.CodeIssued(string(purpose))
			return existing, nil
		case err != nil && !errors.Is(err, gorm.ErrRecordNotFound):
			return nil, apperrors.WrapError(apperrors.ErrInternal, err)
		}
	}

	for attempt := 1; attempt <= maxIssueAttempts; attempt++ {
		value, err := r.generate()
		if err != nil {
			return nil, apperrors.WrapError(apperrors.ErrInternal, err)
		}

		code := &model.VerificationCode{
			Code:      value,
			UserID:    user.ID,
			CodeType:  purpose,
			CreatedAt: now,
		}
		err = r.repo.Create(ctx, code)
		if err == nil {
			logger.InfoWithContext(ctx, "Verification code issued").
				Uint("user_id", user.ID).
				String("code_type", string(purpose)).
				Int("attempt", attempt).
				Log()
			r.metrics.CodeIssued(string(purpose))
			return code, nil
		}
		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperrors.WrapError(apperrors.ErrInternal, err)
		}
	}

	logger.ErrorWithContext(ctx, "Could not find a free verification code").
		Uint("user_id", user.ID).
		Int("attempts", maxIssueAttempts).
		Log()
	return nil, apperrors.WrapError(apperrors.ErrInternal, fmt.Errorf("no unique code after %d attempts", maxIssueAttempts))
}

// Validate checks value against the stored codes. An expired code is deleted
// before ErrCodeExpired is returned. email is compared with the owner's
// address when the purpose is email verification.
func (r *CodeRegistry) Validate(ctx context.Context, value string, purpose constants.CodeType, email string) (*model.VerificationCode, error) {
	ctx = context.WithValue(ctx, ctxutil.FunctionKey, "Validate")
	ctx = context.WithValue(ctx, ctxutil.ModuleKey, "service")

	value = strings.TrimSpace(value)
	if value == "" {
		return nil, apperrors.ErrCodeNotFound
	}

	code, err := r.repo.GetByCode(ctx, value)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrCodeNotFound
		}
		return nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}

	if code.IsExpired(r.now(), r.expiry) {
		if err := r.repo.Delete(ctx, code.ID); err != nil {
			logger.WarnWithContext(ctx, "Failed to delete expired code").
				Uint("code_id", code.ID).
				Err(err).
				Log()
		}
		logger.InfoWithContext(ctx, "Expired verification code rejected").
			Uint("user_id", code.UserID).
			String("code_type", string(code.CodeType)).
			Log()
		return nil, apperrors.ErrCodeExpired
	}

	if code.CodeType != purpose {
		return nil, apperrors.WithMessage(apperrors.ErrCodeMismatch, "The code is not valid for this action")
	}

	if purpose == constants.CodeTypeEmailVerification {
		if code.User == nil || code.User.Email != email {
			return nil, apperrors.ErrCodeMismatch
		}
	}

	return code, nil
}

// ConsumeAll deletes every code of purpose owned by userID.
func (r *CodeRegistry) ConsumeAll(ctx context.Context, userID uint, purpose constants.CodeType) error {
	if _, err := r.repo.DeleteByUserAndType(ctx, userID, purpose); err != nil {
		return apperrors.WrapError(apperrors.ErrInternal, err)
	}
	return nil
}

// SweepExpired deletes every code created before cutoff.
func (r *CodeRegistry) SweepExpired(ctx context.Context, cutoff time.Time) (int64, error) {
	n, err := r.repo.DeleteCreatedBefore(ctx, cutoff.UTC())
	if err != nil {
		return 0, apperrors.WrapError(apperrors.ErrInternal, err)
	}
	r.metrics.CodesDeleted(n)
	return n, nil
}

// SweepCutoff is the creation time before which every code has expired.
func (r *CodeRegistry) SweepCutoff() time.Time {
	return r.now().Add(-r.expiry)
}

// RunSweeper calls SweepExpired every interval until ctx is done.
func (r *CodeRegistry) RunSweeper(ctx context.Context, every time.Duration) {
	ctx = context.WithValue(ctx, ctxutil.FunctionKey, "RunSweeper")
	ctx = context.WithValue(ctx, ctxutil.ModuleKey, "service")

	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := r.SweepExpired(ctx, r.SweepCutoff())
			if err != nil {
				logger.WarnWithContext(ctx, "Periodic sweep failed").
					Err(err).
					Log()
				continue
			}
			if n > 0 {
				logger.InfoWithContext(ctx, "Expired verification codes swept").
					Int64("deleted", n).
					Log()
			}
		}
	}
}
