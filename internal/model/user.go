package model

import (
	"strings"
	"time"
)

// UnusablePasswordPrefix marks a password hash no plaintext can match.
const UnusablePasswordPrefix = "!"

type User struct {
	ID              uint         `gorm:"primaryKey" json:"id"`
	Username        string       `gorm:"column:username;size:150;uniqueIndex;not null" json:"username"`
	FirstName       string       `gorm:"column:first_name;size:150" json:"first_name"`
	LastName        string       `gorm:"column:last_name;size:150" json:"last_name"`
	Email           string       `gorm:"column:email;size:254;uniqueIndex;not null" json:"email"`
	Phone           *string      `gorm:"column:phone;size:20;uniqueIndex" json:"phone"`
	Password        string       `gorm:"column:password;not null" json:"-"`
	IsEmailVerified bool         `gorm:"column:is_email_verified;not null" json:"is_email_verified"`
	IsActive        bool         `gorm:"column:is_active;not null" json:"is_active"`
	IsStaff         bool         `gorm:"column:is_staff;not null" json:"is_staff"`
	IsSuperuser     bool         `gorm:"column:is_superuser;not null" json:"is_superuser"`
	LastLogin       *time.Time   `gorm:"column:last_login" json:"last_login"`
	CreatedAt       time.Time    `json:"created_at"`
	UpdatedAt       time.Time    `json:"updated_at"`
	Profile         *UserProfile `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"profile,omitempty"`
}

// FullName is what goes into the name claim of issued tokens.
func (u *User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// Salutation is used in mail subjects.
func (u *User) Salutation() string {
	if u.FirstName != "" {
		return u.FirstName
	}
	return "Sir/Madam"
}

func (u *User) HasUsablePassword() bool {
	return u.Password != "" && !strings.HasPrefix(u.Password, UnusablePasswordPrefix)
}

// EligibleForReset reports whether a password reset may be started for u.
// Inactive users never are; the usable password check can be switched off.
func (u *User) EligibleForReset(requireUsablePassword bool) bool {
	if !u.IsActive {
		return false
	}
	if requireUsablePassword {
		return u.HasUsablePassword()
	}
	return true
}

func (u *User) PhoneNumber() string {
	if u.Phone == nil {
		return ""
	}
	return *u.Phone
}

type UserProfile struct {
	UserID      uint       `gorm:"primaryKey;autoIncrement:false" json:"id"`
	FirstName   string     `gorm:"column:first_name;size:255" json:"first_name"`
	LastName    string     `gorm:"column:last_name;size:255" json:"last_name"`
	Email       string     `gorm:"column:email;size:255" json:"email"`
	Phone       string     `gorm:"column:phone;size:20" json:"phone"`
	CountryCode string     `gorm:"column:country_code;size:10" json:"country_code"`
	Avatar      string     `gorm:"column:avatar;size:2048" json:"avatar"`
	Location    string     `gorm:"column:location;size:255" json:"location"`
	Nationality string     `gorm:"column:nationality;size:255" json:"nationality"`
	Skills      []Skill    `gorm:"many2many:user_profile_skills" json:"skills"`
	Interests   []Interest `gorm:"many2many:user_profile_interests" json:"interests"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

type Skill struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"column:name;size:255;uniqueIndex;not null" json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Interest struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"column:name;size:255;uniqueIndex;not null" json:"name"`
	CreatedAt time.Time `json:"created_at"`
}
