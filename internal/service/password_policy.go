package service

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/Payphone-Digital/accounts/internal/constants"
	apperrors "github.com/Payphone-Digital/accounts/internal/errors"
	"github.com/Payphone-Digital/accounts/internal/model"
	"github.com/Payphone-Digital/accounts/pkg/validation"
	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"
)

const maxSimilarity = 0.7

var (
	attributeSplit = regexp.MustCompile(`\W+`)

	// a short list of the passwords that show up first in every leak
	commonPasswords = map[string]struct{}{
		"password": {}, "password1": {}, "password123": {}, "passw0rd": {},
		"12345678": {}, "123456789": {}, "1234567890": {}, "11111111": {},
		"00000000": {}, "87654321": {}, "qwertyuiop": {}, "qwerty123": {},
		"1q2w3e4r": {}, "1qaz2wsx": {}, "abc12345": {}, "abcd1234": {},
		"iloveyou": {}, "sunshine": {}, "princess": {}, "football": {},
		"baseball": {}, "superman": {}, "starwars": {}, "trustno1": {},
		"welcome1": {}, "letmein1": {}, "zaq12wsx": {}, "asdfghjkl": {},
		"michelle": {}, "jennifer": {}, "computer": {}, "whatever": {},
		"dragon123": {}, "master123": {}, "monkey123": {}, "shadow123": {},
		"changeme": {}, "administrator": {}, "q1w2e3r4": {}, "qazwsxedc": {},
	}
)

// PasswordPolicy checks a candidate password against the account it is for.
type PasswordPolicy struct {
	validate  *validator.Validate
	minLength int
}

func NewPasswordPolicy() *PasswordPolicy {
	return &PasswordPolicy{
		validate:  validation.New(),
		minLength: constants.MinPasswordLength,
	}
}

// Check returns every violated rule. user may be nil for a password chosen
// before the account exists.
func (p *PasswordPolicy) Check(password string, user *model.User) []string {
	var violations []string

	if user != nil {
		if attr := p.similarAttribute(password, user); attr != "" {
			violations = append(violations, fmt.Sprintf("The password is too similar to the %s.", attr))
		}
	}

	if err := p.validate.Var(password, fmt.Sprintf("min=%d", p.minLength)); err != nil {
		violations = append(violations, fmt.Sprintf("This password is too short. It must contain at least %d characters.", p.minLength))
	}

	// bcrypt rejects anything longer
	if len(password) > 72 {
		violations = append(violations, "This password is too long. It must contain at most 72 bytes.")
	}

	if _, ok := commonPasswords[strings.ToLower(strings.TrimSpace(password))]; ok {
		violations = append(violations, "This password is too common.")
	}

	if password != "" && p.validate.Var(password, "numeric") == nil {
		violations = append(violations, "This password is entirely numeric.")
	}

	return violations
}

// Validate wraps the violations of Check into one validation error.
func (p *PasswordPolicy) Validate(password string, user *model.User) error {
	violations := p.Check(password, user)
	if len(violations) == 0 {
		return nil
	}
	return apperrors.WithDetails(apperrors.ErrWeakPassword, strings.Join(violations, " "), violations)
}

func (p *PasswordPolicy) similarAttribute(password string, user *model.User) string {
	lowered := strings.ToLower(password)
	attributes := []struct {
		name  string
		value string
	}{
		{"username", user.Username},
		{"first name", user.FirstName},
		{"last name", user.LastName},
		{"email address", user.Email},
	}

	for _, attr := range attributes {
		if attr.value == "" {
			continue
		}
		value := strings.ToLower(attr.value)
		parts := append(attributeSplit.Split(value, -1), value)
		for _, part := range parts {
			if part == "" {
				continue
			}
			if similarity(lowered, part) >= maxSimilarity {
				return attr.name
			}
		}
	}
	return ""
}

// similarity is the Ratcliff/Obershelp ratio 2*M/T of a and b.
func similarity(a, b string) float64 {
	total := len(a) + len(b)
	if total == 0 {
		return 1
	}
	return 2 * float64(matchingChars(a, b)) / float64(total)
}

func matchingChars(a, b string) int {
	if a == "" || b == "" {
		return 0
	}
	ai, bi, size := longestCommonSubstring(a, b)
	if size == 0 {
		return 0
	}
	return size +
		matchingChars(a[:ai], b[:bi]) +
		matchingChars(a[ai+size:], b[bi+size:])
}

func longestCommonSubstring(a, b string) (int, int, int) {
	bestA, bestB, bestSize := 0, 0, 0
	prev := make([]int, len(b)+1)
	cur := make([]int, len(b)+1)
	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			if a[i-1] == b[j-1] {
				cur[j] = prev[j-1] + 1
				if cur[j] > bestSize {
					bestSize = cur[j]
					bestA, bestB = i-cur[j], j-cur[j]
				}
			} else {
				cur[j] = 0
			}
		}
		prev, cur = cur, prev
	}
	return bestA, bestB, bestSize
}

// HashPassword bcrypts password with the default cost.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// CheckPassword never matches an unusable password.
func CheckPassword(user *model.User, password string) bool {
	if !user.HasUsablePassword() {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)) == nil
}

// UnusablePassword returns a marker no plaintext can match.
func UnusablePassword() string {
	suffix, err := randomString(40, constants.UsernameAlphabet)
	if err != nil {
		suffix = "unusable"
	}
	return model.UnusablePasswordPrefix + suffix
}
