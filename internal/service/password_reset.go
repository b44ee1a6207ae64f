package service

import (
	"context"
	"strings"

	"github.com/Payphone-Digital/accounts/internal/constants"
	apperrors "github.com/Payphone-Digital/accounts/internal/errors"
	"github.com/Payphone-Digital/accounts/internal/model"
	"github.com/Payphone-Digital/accounts/internal/repository"
	ctxutil "github.com/Payphone-Digital/accounts/pkg/context"
	"github.com/Payphone-Digital/accounts/pkg/logger"
	"github.com/Payphone-Digital/accounts/pkg/metrics"
)

// ResetHook is called around the password change of ConfirmReset. An error
// from a pre hook aborts the reset.
type ResetHook func(ctx context.Context, user *model.User) error

// PasswordResetService drives request, verify and confirm of a password
// reset. The steps are independent, confirm validates the code again.
type PasswordResetService struct {
	users      *repository.UserRepository
	registry   *CodeRegistry
	dispatcher *Dispatcher
	policy     *PasswordPolicy
	settings   AccountSettings
	metrics    *metrics.Metrics
	preHooks   []ResetHook
	postHooks  []ResetHook
}

func NewPasswordResetService(
	users *repository.UserRepository,
	registry *CodeRegistry,
	dispatcher *Dispatcher,
	policy *PasswordPolicy,
	settings AccountSettings,
	m *metrics.Metrics,
) *PasswordResetService {
	return &PasswordResetService{
		users:      users,
		registry:   registry,
		dispatcher: dispatcher,
		policy:     policy,
		settings:   settings,
		metrics:    m,
	}
}

func (s *PasswordResetService) OnPreReset(hook ResetHook) {
	s.preHooks = append(s.preHooks, hook)
}

func (s *PasswordResetService) OnPostReset(hook ResetHook) {
	s.postHooks = append(s.postHooks, hook)
}

// AuditHooks records pre and post reset events in the audit table.
func AuditHooks(audit *repository.AuditRepository) (pre ResetHook, post ResetHook) {
	record := func(event string) ResetHook {
		return func(ctx context.Context, user *model.User) error {
			if err := audit.Record(ctx, user.ID, event, nil); err != nil {
				logger.WarnWithContext(ctx, "Failed to record reset event").
					Uint("user_id", user.ID).
					String("event", event).
					Err(err).
					Log()
			}
			return nil
		}
	}
	return record(constants.EventPrePasswordReset), record(constants.EventPostPasswordReset)
}

// RequestReset sends a reset code to every eligible account whose lookup
// field matches identity.
func (s *PasswordResetService) RequestReset(ctx context.Context, identity string) error {
	ctx = context.WithValue(ctx, ctxutil.FunctionKey, "RequestReset")
	ctx = context.WithValue(ctx, ctxutil.ModuleKey, "service")

	if _, err := s.registry.SweepExpired(ctx, s.registry.SweepCutoff()); err != nil {
		logger.WarnWithContext(ctx, "Sweep of expired codes failed").
			Err(err).
			Log()
	}

	users, err := s.users.FindByField(ctx, s.settings.LookupField, strings.TrimSpace(identity))
	if err != nil {
		return apperrors.WrapError(apperrors.ErrInternal, err)
	}

	eligible := make([]model.User, 0, len(users))
	for _, u := range users {
		if u.EligibleForReset(s.settings.RequireUsablePassword) {
			eligible = append(eligible, u)
		}
	}

	if len(eligible) == 0 {
		logger.InfoWithContext(ctx, "Password reset requested for no eligible account").
			String("lookup_field", s.settings.LookupField).
			Int("matched", len(users)).
			Log()
		s.metrics.Event("password_reset_requested", "no_account")
		if s.settings.NoInformationLeakage {
			return nil
		}
		return apperrors.ErrNoEligibleAccount
	}

	for i := range eligible {
		user := &eligible[i]
		code, err := s.registry.Issue(ctx, user, constants.CodeTypePasswordReset)
		if err != nil {
			return err
		}
		if err := s.dispatcher.SendPasswordReset(ctx, user, code.Code); err != nil {
			logger.WarnWithContext(ctx, "Reset email failed").
				Uint("user_id", user.ID).
				Err(err).
				Log()
		}
	}

	s.metrics.Event("password_reset_requested", "success")
	logger.InfoWithContext(ctx, "Password reset codes issued").
		Int("accounts", len(eligible)).
		Log()
	return nil
}

// VerifyResetCode checks the code without consuming it. When email is given
// it has to be the owner's address.
func (s *PasswordResetService) VerifyResetCode(ctx context.Context, code, email string) error {
	ctx = context.WithValue(ctx, ctxutil.FunctionKey, "VerifyResetCode")
	ctx = context.WithValue(ctx, ctxutil.ModuleKey, "service")

	vc, err := s.registry.Validate(ctx, code, constants.CodeTypePasswordReset, "")
	if err != nil {
		if apperrors.HasCode(err, apperrors.CodeMismatch) {
			return apperrors.ErrInvalidCode
		}
		return err
	}

	if email != "" && (vc.User == nil || !strings.EqualFold(vc.User.Email, email)) {
		return apperrors.ErrInvalidCode
	}
	return nil
}

// ConfirmReset sets a new password for the owner of code and retires all of
// their reset codes. An owner who is no longer eligible keeps the old
// password but the codes are still retired.
func (s *PasswordResetService) ConfirmReset(ctx context.Context, code, password string) error {
	ctx = context.WithValue(ctx, ctxutil.FunctionKey, "ConfirmReset")
	ctx = context.WithValue(ctx, ctxutil.ModuleKey, "service")

	vc, err := s.registry.Validate(ctx, code, constants.CodeTypePasswordReset, "")
	if err != nil {
		s.metrics.Event("password_reset", "failure")
		return err
	}

	user, err := s.users.GetByID(ctx, vc.UserID)
	if err != nil {
		return apperrors.WrapError(apperrors.ErrInternal, err)
	}

	if user.EligibleForReset(s.settings.RequireUsablePassword) {
		for _, hook := range s.preHooks {
			if err := hook(ctx, user); err != nil {
				return err
			}
		}

		if err := s.policy.Validate(password, user); err != nil {
			s.metrics.Event("password_reset", "failure")
			return err
		}

		hash, err := HashPassword(password)
		if err != nil {
			return apperrors.WrapError(apperrors.ErrInternal, err)
		}
		if err := s.users.UpdatePassword(ctx, user.ID, hash); err != nil {
			return apperrors.WrapError(apperrors.ErrInternal, err)
		}
		user.Password = hash

		for _, hook := range s.postHooks {
			if err := hook(ctx, user); err != nil {
				logger.WarnWithContext(ctx, "Post reset hook failed").
					Uint("user_id", user.ID).
					Err(err).
					Log()
			}
		}
	} else {
		logger.WarnWithContext(ctx, "Reset confirmed for ineligible account, password kept").
			Uint("user_id", user.ID).
			Log()
	}

	if err := s.registry.ConsumeAll(ctx, user.ID, constants.CodeTypePasswordReset); err != nil {
		return err
	}

	s.metrics.Event("password_reset", "success")
	logger.InfoWithContext(ctx, "Password reset confirmed").
		Uint("user_id", user.ID).
		Log()
	return nil
}
