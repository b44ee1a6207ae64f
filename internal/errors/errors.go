package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// DomainError represents a domain-specific error with a code and message
type DomainError struct {
	Code    string
	Message string
	Err     error // underlying error for wrapping
	Details []string
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error for errors.Is and errors.As
func (e *DomainError) Unwrap() error {
	return e.Err
}

// Is lets copies made by WrapError match the predefined error they came from.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return t.Code == e.Code && t.Message == e.Message
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// WrapError wraps an existing error with domain error context
func WrapError(domainErr *DomainError, err error) *DomainError {
	return &DomainError{
		Code:    domainErr.Code,
		Message: domainErr.Message,
		Err:     err,
		Details: domainErr.Details,
	}
}

// WithMessage keeps the code of domainErr but replaces its message.
func WithMessage(domainErr *DomainError, message string) *DomainError {
	return &DomainError{
		Code:    domainErr.Code,
		Message: message,
	}
}

// WithDetails attaches a list of individual violations, e.g. password rules.
func WithDetails(domainErr *DomainError, message string, details []string) *DomainError {
	return &DomainError{
		Code:    domainErr.Code,
		Message: message,
		Details: details,
	}
}

const (
	CodeNotFound             = "NOT_FOUND"
	CodeExpired              = "CODE_EXPIRED"
	CodeMismatch             = "CODE_MISMATCH"
	CodeValidation           = "VALIDATION_ERROR"
	CodeAuthenticationFailed = "AUTHENTICATION_FAILED"
	CodeInvalidToken         = "INVALID_TOKEN"
	CodeParse                = "PARSE_ERROR"
	CodeUserNotFound         = "USER_NOT_FOUND"
	CodeInternal             = "INTERNAL_ERROR"
	CodeServiceUnavailable   = "SERVICE_UNAVAILABLE"
)

// Predefined domain errors
var (
	// Verification codes
	ErrCodeNotFound = NewDomainError(CodeNotFound, "The OTP password entered is not valid. Please check and try again.")
	ErrCodeExpired  = NewDomainError(CodeExpired, "The code has expired")
	ErrCodeMismatch = NewDomainError(CodeMismatch, "The code is not valid for this email")
	ErrInvalidCode  = NewDomainError(CodeNotFound, "Invalid code provided")

	// User errors
	ErrUserNotFound      = NewDomainError(CodeUserNotFound, "User does not exist")
	ErrProfileNotFound   = NewDomainError(CodeNotFound, "User profile does not exist")
	ErrEmailExists       = NewDomainError(CodeValidation, "Email already exists")
	ErrPhoneExists       = NewDomainError(CodeValidation, "Phone already exists")
	ErrUsernameExists    = NewDomainError(CodeValidation, "Username already exists")
	ErrNoEligibleAccount = NewDomainError(CodeValidation, "We couldn't find an account associated with that email. Please try a different e-mail address.")
	ErrWeakPassword      = NewDomainError(CodeValidation, "Please use strong password")
	ErrWrongPassword     = NewDomainError(CodeParse, "Wrong password provided")

	// Authentication errors
	ErrNotAuthenticated   = NewDomainError(CodeAuthenticationFailed, "User is not authenticated")
	ErrInvalidCredentials = NewDomainError(CodeAuthenticationFailed, "No active account found with the given credentials")
	ErrInvalidToken       = NewDomainError(CodeInvalidToken, "Token is invalid or expired")
	ErrTokenRequired      = NewDomainError(CodeValidation, "This field is required.")

	// Validation errors
	ErrInvalidInput = NewDomainError(CodeValidation, "invalid input")
	ErrMalformed    = NewDomainError(CodeParse, "Malformed request")

	// System errors
	ErrInternal           = NewDomainError(CodeInternal, "internal server error")
	ErrServiceUnavailable = NewDomainError(CodeServiceUnavailable, "service unavailable")
)

// IsDomainError checks if an error is a domain error
func IsDomainError(err error) bool {
	var domainErr *DomainError
	return errors.As(err, &domainErr)
}

// GetDomainError extracts the domain error from an error
func GetDomainError(err error) *DomainError {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	return nil
}

// HasCode reports whether err carries the given domain code.
func HasCode(err error, code string) bool {
	if de := GetDomainError(err); de != nil {
		return de.Code == code
	}
	return false
}

// ToHTTPStatus maps domain errors to HTTP status codes
// This should only be used in the handler/presentation layer
func ToHTTPStatus(err error) int {
	if err == nil {
		return http.StatusOK
	}

	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErrorToHTTPStatus(domainErr)
	}

	return http.StatusInternalServerError
}

func domainErrorToHTTPStatus(err *DomainError) int {
	switch err.Code {
	case CodeValidation, CodeParse:
		return http.StatusBadRequest

	case CodeAuthenticationFailed, CodeInvalidToken:
		return http.StatusUnauthorized

	// expired and mismatched codes are reported as not found
	case CodeNotFound, CodeUserNotFound, CodeExpired, CodeMismatch:
		return http.StatusNotFound

	case CodeServiceUnavailable:
		return http.StatusServiceUnavailable

	default:
		return http.StatusInternalServerError
	}
}

// GetErrorMessage safely extracts error message
func GetErrorMessage(err error) string {
	if err == nil {
		return ""
	}

	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Message
	}

	return err.Error()
}

// GetErrorCode returns the domain code or INTERNAL_ERROR for foreign errors.
func GetErrorCode(err error) string {
	if de := GetDomainError(err); de != nil {
		return de.Code
	}
	return CodeInternal
}
