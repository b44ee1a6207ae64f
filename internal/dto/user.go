package dto

import "time"

// RegisterRequest creates a user and the profile seeded from it. Username is
// generated when omitted.
type RegisterRequest struct {
	Username  string `json:"username" binding:"omitempty,max=150,username"`
	FirstName string `json:"first_name" binding:"omitempty,max=150"`
	LastName  string `json:"last_name" binding:"omitempty,max=150"`
	Email     string `json:"email" binding:"required,email,max=254"`
	Phone     string `json:"phone" binding:"omitempty,phone"`
	Password  string `json:"password" binding:"required"`

	CountryCode string   `json:"country_code" binding:"omitempty,max=10"`
	Avatar      string   `json:"avatar" binding:"omitempty,url,max=2048"`
	Location    string   `json:"location" binding:"omitempty,max=255"`
	Nationality string   `json:"nationality" binding:"omitempty,max=255"`
	Skills      []string `json:"skills" binding:"omitempty,dive,max=255"`
	Interests   []string `json:"interests" binding:"omitempty,dive,max=255"`
}

// UpdateProfileRequest is a partial update. Nil fields are left alone.
type UpdateProfileRequest struct {
	FirstName   *string  `json:"first_name" binding:"omitempty,max=255"`
	LastName    *string  `json:"last_name" binding:"omitempty,max=255"`
	Email       *string  `json:"email" binding:"omitempty,email,max=255"`
	Phone       *string  `json:"phone" binding:"omitempty,phone"`
	CountryCode *string  `json:"country_code" binding:"omitempty,max=10"`
	Avatar      *string  `json:"avatar" binding:"omitempty,url,max=2048"`
	Location    *string  `json:"location" binding:"omitempty,max=255"`
	Nationality *string  `json:"nationality" binding:"omitempty,max=255"`
	Skills      []string `json:"skills" binding:"omitempty,dive,max=255"`
	Interests   []string `json:"interests" binding:"omitempty,dive,max=255"`
}

type ChangePasswordRequest struct {
	OldPassword string `json:"old_password" binding:"required"`
	NewPassword string `json:"new_password" binding:"required"`
}

type VerifyEmailRequest struct {
	Email string `json:"email" binding:"required,email"`
	Code  string `json:"code" binding:"required"`
}

type ResetPasswordRequest struct {
	Email string `json:"email" binding:"required"`
}

type ResetPasswordVerifyRequest struct {
	Code  string `json:"code" binding:"required"`
	Email string `json:"email" binding:"omitempty,email"`
}

type ResetPasswordConfirmRequest struct {
	Code     string `json:"code" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type ProfileResponse struct {
	ID              uint      `json:"id"`
	FirstName       string    `json:"first_name"`
	LastName        string    `json:"last_name"`
	Avatar          string    `json:"avatar"`
	IsActive        bool      `json:"is_active"`
	IsEmailVerified bool      `json:"is_email_verified"`
	Location        string    `json:"location"`
	Email           string    `json:"email"`
	Phone           string    `json:"phone"`
	Nationality     string    `json:"nationality"`
	Skills          []string  `json:"skills"`
	Interests       []string  `json:"interests"`
	CountryCode     string    `json:"country_code"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// UserResponse is the account row without the profile, used by the listing.
type UserResponse struct {
	ID              uint       `json:"id"`
	Username        string     `json:"username"`
	FirstName       string     `json:"first_name"`
	LastName        string     `json:"last_name"`
	Email           string     `json:"email"`
	Phone           string     `json:"phone"`
	IsActive        bool       `json:"is_active"`
	IsStaff         bool       `json:"is_staff"`
	IsSuperuser     bool       `json:"is_superuser"`
	IsEmailVerified bool       `json:"is_email_verified"`
	DateJoined      time.Time  `json:"date_joined"`
	LastLogin       *time.Time `json:"last_login"`
}
