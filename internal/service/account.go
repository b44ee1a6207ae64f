package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/Payphone-Digital/accounts/internal/constants"
	"github.com/Payphone-Digital/accounts/internal/dto"
	apperrors "github.com/Payphone-Digital/accounts/internal/errors"
	"github.com/Payphone-Digital/accounts/internal/model"
	"github.com/Payphone-Digital/accounts/internal/repository"
	ctxutil "github.com/Payphone-Digital/accounts/pkg/context"
	"github.com/Payphone-Digital/accounts/pkg/logger"
	"github.com/Payphone-Digital/accounts/pkg/metrics"
	"gorm.io/gorm"
)

const maxUsernameAttempts = 10

// AccountService owns registration, profiles, password changes and email
// verification.
type AccountService struct {
	uow        repository.UnitOfWork
	users      *repository.UserRepository
	profiles   *repository.ProfileRepository
	audit      *repository.AuditRepository
	registry   *CodeRegistry
	dispatcher *Dispatcher
	policy     *PasswordPolicy
	settings   AccountSettings
	metrics    *metrics.Metrics
}

func NewAccountService(
	uow repository.UnitOfWork,
	users *repository.UserRepository,
	profiles *repository.ProfileRepository,
	audit *repository.AuditRepository,
	registry *CodeRegistry,
	dispatcher *Dispatcher,
	policy *PasswordPolicy,
	settings AccountSettings,
	m *metrics.Metrics,
) *AccountService {
	return &AccountService{
		uow:        uow,
		users:      users,
		profiles:   profiles,
		audit:      audit,
		registry:   registry,
		dispatcher: dispatcher,
		policy:     policy,
		settings:   settings,
		metrics:    m,
	}
}

// Register creates the user and its profile in one transaction, then issues
// an email verification code and, when enabled, mails it.
func (s *AccountService) Register(ctx context.Context, req *dto.RegisterRequest) (*dto.ProfileResponse, error) {
	ctx = context.WithValue(ctx, ctxutil.FunctionKey, "Register")
	ctx = context.WithValue(ctx, ctxutil.ModuleKey, "service")

	start := time.Now()
	email := strings.TrimSpace(req.Email)
	phone := strings.TrimSpace(req.Phone)

	if err := s.checkUnique(ctx, email, phone, req.Username); err != nil {
		s.metrics.Event("register", "failure")
		return nil, err
	}

	user := &model.User{
		Username:  req.Username,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     email,
		IsActive:  true,
	}
	if phone != "" {
		user.Phone = &phone
	}

	if err := s.policy.Validate(req.Password, user); err != nil {
		s.metrics.Event("register", "failure")
		return nil, err
	}

	hash, err := HashPassword(req.Password)
	if err != nil {
		return nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}
	user.Password = hash

	if user.Username == "" {
		username, err := s.generateUsername(ctx)
		if err != nil {
			return nil, err
		}
		user.Username = username
	}

	err = s.uow.Do(ctx, func(ctx context.Context) error {
		if err := s.users.Create(ctx, user); err != nil {
			return err
		}

		profile := &model.UserProfile{
			UserID:      user.ID,
			FirstName:   user.FirstName,
			LastName:    user.LastName,
			Email:       user.Email,
			Phone:       user.PhoneNumber(),
			CountryCode: req.CountryCode,
			Avatar:      req.Avatar,
			Location:    req.Location,
			Nationality: req.Nationality,
		}
		if err := s.profiles.Create(ctx, profile); err != nil {
			return err
		}
		if err := s.profiles.AddSkills(ctx, profile, req.Skills); err != nil {
			return err
		}
		return s.profiles.AddInterests(ctx, profile, req.Interests)
	})
	if err != nil {
		logger.ErrorWithContext(ctx, "Registration rolled back").
			String("email", email).
			Err(err).
			Log()
		s.metrics.Event("register", "failure")
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// lost a race with a concurrent registration
			if uniqueErr := s.checkUnique(ctx, email, phone, user.Username); uniqueErr != nil {
				return nil, uniqueErr
			}
			return nil, apperrors.ErrEmailExists
		}
		return nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}

	code, err := s.registry.Issue(ctx, user, constants.CodeTypeEmailVerification)
	if err != nil {
		logger.ErrorWithContext(ctx, "Failed to issue verification code after registration").
			Uint("user_id", user.ID).
			Err(err).
			Log()
	} else if s.settings.SendEmailOnSignup {
		s.notify(ctx, user, func() error { return s.dispatcher.SendVerification(ctx, user, code.Code) })
	}

	s.metrics.Event("register", "success")
	logger.InfoWithContext(ctx, "User registered").
		Uint("user_id", user.ID).
		String("username", user.Username).
		Duration(time.Since(start)).
		Log()

	return s.GetProfile(ctx, user.ID)
}

func (s *AccountService) checkUnique(ctx context.Context, email, phone, username string) error {
	if email != "" {
		exists, err := s.users.ExistsByEmail(ctx, email)
		if err != nil {
			return apperrors.WrapError(apperrors.ErrInternal, err)
		}
		if exists {
			return apperrors.ErrEmailExists
		}
	}
	if phone != "" {
		exists, err := s.users.ExistsByPhone(ctx, phone)
		if err != nil {
			return apperrors.WrapError(apperrors.ErrInternal, err)
		}
		if exists {
			return apperrors.ErrPhoneExists
		}
	}
	if username != "" {
		exists, err := s.users.ExistsByUsername(ctx, username)
		if err != nil {
			return apperrors.WrapError(apperrors.ErrInternal, err)
		}
		if exists {
			return apperrors.ErrUsernameExists
		}
	}
	return nil
}

func (s *AccountService) generateUsername(ctx context.Context) (string, error) {
	for i := 0; i < maxUsernameAttempts; i++ {
		candidate, err := randomString(constants.GeneratedUsernameLength, constants.UsernameAlphabet)
		if err != nil {
			return "", apperrors.WrapError(apperrors.ErrInternal, err)
		}
		exists, err := s.users.ExistsByUsername(ctx, candidate)
		if err != nil {
			return "", apperrors.WrapError(apperrors.ErrInternal, err)
		}
		if !exists {
			return candidate, nil
		}
	}
	return "", apperrors.WrapError(apperrors.ErrInternal, errors.New("no free username"))
}

// GetProfile returns the profile of userID with the account flags.
func (s *AccountService) GetProfile(ctx context.Context, userID uint) (*dto.ProfileResponse, error) {
	ctx = context.WithValue(ctx, ctxutil.FunctionKey, "GetProfile")
	ctx = context.WithValue(ctx, ctxutil.ModuleKey, "service")

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}

	profile, err := s.profiles.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrProfileNotFound
		}
		return nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}

	return toProfileResponse(user, profile), nil
}

// ListUsers pages through all accounts, filtered by search over names, email
// and username.
func (s *AccountService) ListUsers(ctx context.Context, params constants.PaginationParams) ([]dto.UserResponse, int64, error) {
	ctx = context.WithValue(ctx, ctxutil.FunctionKey, "ListUsers")
	ctx = context.WithValue(ctx, ctxutil.ModuleKey, "service")

	users, total, err := s.users.GetAll(ctx, params.Limit, params.Offset, params.Search)
	if err != nil {
		return nil, 0, apperrors.WrapError(apperrors.ErrInternal, err)
	}

	result := make([]dto.UserResponse, 0, len(users))
	for i := range users {
		u := &users[i]
		result = append(result, dto.UserResponse{
			ID:              u.ID,
			Username:        u.Username,
			FirstName:       u.FirstName,
			LastName:        u.LastName,
			Email:           u.Email,
			Phone:           u.PhoneNumber(),
			IsActive:        u.IsActive,
			IsStaff:         u.IsStaff,
			IsSuperuser:     u.IsSuperuser,
			IsEmailVerified: u.IsEmailVerified,
			DateJoined:      u.CreatedAt,
			LastLogin:       u.LastLogin,
		})
	}
	return result, total, nil
}

// UpdateProfile applies a partial update. A stored email or phone is never
// overwritten and skills and interests are only ever added.
func (s *AccountService) UpdateProfile(ctx context.Context, userID uint, req *dto.UpdateProfileRequest) (*dto.ProfileResponse, error) {
	ctx = context.WithValue(ctx, ctxutil.FunctionKey, "UpdateProfile")
	ctx = context.WithValue(ctx, ctxutil.ModuleKey, "service")

	err := s.uow.Do(ctx, func(ctx context.Context) error {
		profile, err := s.profiles.GetByUserID(ctx, userID)
		if err != nil {
			return err
		}

		if req.Email != nil && profile.Email == "" {
			profile.Email = *req.Email
		}
		if req.Phone != nil && profile.Phone == "" {
			profile.Phone = *req.Phone
		}
		setIfPresent(&profile.FirstName, req.FirstName)
		setIfPresent(&profile.LastName, req.LastName)
		setIfPresent(&profile.CountryCode, req.CountryCode)
		setIfPresent(&profile.Avatar, req.Avatar)
		setIfPresent(&profile.Location, req.Location)
		setIfPresent(&profile.Nationality, req.Nationality)

		if err := s.profiles.Save(ctx, profile); err != nil {
			return err
		}
		if err := s.profiles.AddSkills(ctx, profile, req.Skills); err != nil {
			return err
		}
		return s.profiles.AddInterests(ctx, profile, req.Interests)
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrProfileNotFound
		}
		logger.ErrorWithContext(ctx, "Failed to update profile").
			Uint("user_id", userID).
			Err(err).
			Log()
		return nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}

	logger.InfoWithContext(ctx, "Profile updated").
		Uint("user_id", userID).
		Log()
	return s.GetProfile(ctx, userID)
}

func setIfPresent(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}

// ChangePassword requires the current password and runs the new one through
// the password policy.
func (s *AccountService) ChangePassword(ctx context.Context, userID uint, oldPassword, newPassword string) error {
	ctx = context.WithValue(ctx, ctxutil.FunctionKey, "ChangePassword")
	ctx = context.WithValue(ctx, ctxutil.ModuleKey, "service")

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.ErrUserNotFound
		}
		return apperrors.WrapError(apperrors.ErrInternal, err)
	}

	if !CheckPassword(user, oldPassword) {
		logger.InfoWithContext(ctx, "Password change with wrong current password").
			Uint("user_id", userID).
			Log()
		s.metrics.Event(constants.EventPasswordChanged, "failure")
		return apperrors.ErrWrongPassword
	}

	if err := s.policy.Validate(newPassword, user); err != nil {
		s.metrics.Event(constants.EventPasswordChanged, "failure")
		return err
	}

	hash, err := HashPassword(newPassword)
	if err != nil {
		return apperrors.WrapError(apperrors.ErrInternal, err)
	}
	if err := s.users.UpdatePassword(ctx, userID, hash); err != nil {
		return apperrors.WrapError(apperrors.ErrInternal, err)
	}

	s.recordEvent(ctx, userID, constants.EventPasswordChanged, nil)
	s.metrics.Event(constants.EventPasswordChanged, "success")
	logger.InfoWithContext(ctx, "Password changed").
		Uint("user_id", userID).
		Log()
	return nil
}

// RequestEmailVerification sends a fresh code to the caller, identified by
// userID when authenticated or by email otherwise. It returns the detail
// message for the response.
func (s *AccountService) RequestEmailVerification(ctx context.Context, userID uint, email string) (string, error) {
	ctx = context.WithValue(ctx, ctxutil.FunctionKey, "RequestEmailVerification")
	ctx = context.WithValue(ctx, ctxutil.ModuleKey, "service")

	var (
		user *model.User
		err  error
	)
	anonymous := userID == 0
	switch {
	case !anonymous:
		user, err = s.users.GetByID(ctx, userID)
	case strings.TrimSpace(email) == "":
		return "", apperrors.ErrNotAuthenticated
	default:
		user, err = s.users.GetByEmail(ctx, strings.TrimSpace(email))
	}

	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return "", apperrors.WrapError(apperrors.ErrInternal, err)
		}
		if anonymous && s.settings.NoInformationLeakage {
			return constants.MsgVerificationSent, nil
		}
		return "", apperrors.ErrUserNotFound
	}

	if user.IsEmailVerified {
		if anonymous && s.settings.NoInformationLeakage {
			return constants.MsgVerificationSent, nil
		}
		return constants.MsgAlreadyVerified, nil
	}

	code, err := s.registry.Issue(ctx, user, constants.CodeTypeEmailVerification)
	if err != nil {
		return "", err
	}
	s.notify(ctx, user, func() error { return s.dispatcher.SendVerification(ctx, user, code.Code) })

	logger.InfoWithContext(ctx, "Email verification requested").
		Uint("user_id", user.ID).
		Bool("anonymous", anonymous).
		Log()
	return constants.MsgVerificationSent, nil
}

// ConfirmEmailVerification marks the owner of code verified and retires all
// of their email verification codes.
func (s *AccountService) ConfirmEmailVerification(ctx context.Context, email, code string) error {
	ctx = context.WithValue(ctx, ctxutil.FunctionKey, "ConfirmEmailVerification")
	ctx = context.WithValue(ctx, ctxutil.ModuleKey, "service")

	vc, err := s.registry.Validate(ctx, code, constants.CodeTypeEmailVerification, email)
	if err != nil {
		s.metrics.Event(constants.EventEmailVerified, "failure")
		return err
	}

	err = s.uow.Do(ctx, func(ctx context.Context) error {
		if err := s.users.MarkEmailVerified(ctx, vc.UserID); err != nil {
			return err
		}
		return s.registry.ConsumeAll(ctx, vc.UserID, constants.CodeTypeEmailVerification)
	})
	if err != nil {
		return apperrors.WrapError(apperrors.ErrInternal, err)
	}

	s.recordEvent(ctx, vc.UserID, constants.EventEmailVerified, map[string]interface{}{"email": email})
	s.metrics.Event(constants.EventEmailVerified, "success")
	logger.InfoWithContext(ctx, "Email verified").
		Uint("user_id", vc.UserID).
		Log()
	return nil
}

// notify runs send and only logs a failure. Mail problems never undo the
// mutation that triggered them.
func (s *AccountService) notify(ctx context.Context, user *model.User, send func() error) {
	if err := send(); err != nil {
		logger.WarnWithContext(ctx, "Notification failed").
			Uint("user_id", user.ID).
			Err(err).
			Log()
	}
}

func (s *AccountService) recordEvent(ctx context.Context, userID uint, event string, metadata map[string]interface{}) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, userID, event, metadata)
}

func toProfileResponse(user *model.User, profile *model.UserProfile) *dto.ProfileResponse {
	skills := make([]string, 0, len(profile.Skills))
	for _, skill := range profile.Skills {
		skills = append(skills, skill.Name)
	}
	interests := make([]string, 0, len(profile.Interests))
	for _, interest := range profile.Interests {
		interests = append(interests, interest.Name)
	}

	return &dto.ProfileResponse{
		ID:              profile.UserID,
		FirstName:       profile.FirstName,
		LastName:        profile.LastName,
		Avatar:          profile.Avatar,
		IsActive:        user.IsActive,
		IsEmailVerified: user.IsEmailVerified,
		Location:        profile.Location,
		Email:           profile.Email,
		Phone:           profile.Phone,
		Nationality:     profile.Nationality,
		Skills:          skills,
		Interests:       interests,
		CountryCode:     profile.CountryCode,
		CreatedAt:       profile.CreatedAt,
		UpdatedAt:       profile.UpdatedAt,
	}
}
