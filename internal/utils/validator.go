package utils

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/prperemyshlev/pettracker-client/internal/dto"
)

// ErrValidation is wrapped by every ValidationError
var ErrValidation = errors.New("validation failed")

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// ValidationError lists the rejected form fields with a reason per field
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, fmt.Sprintf("%s: %s", name, e.Fields[name]))
	}
	return fmt.Sprintf("%s: %s", ErrValidation.Error(), strings.Join(parts, "; "))
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// ValidateEmail validates an email address
func ValidateEmail(email string) bool {
	return emailRegex.MatchString(email)
}

// ValidatePassword validates a password
// Minimum 8 characters, at least one uppercase letter, one lowercase letter, one number
func ValidatePassword(password string) bool {
	if len(password) < 8 {
		return false
	}

	hasUpper := false
	hasLower := false
	hasNumber := false

	for _, char := range password {
		switch {
		case 'A' <= char && char <= 'Z':
			hasUpper = true
		case 'a' <= char && char <= 'z':
			hasLower = true
		case '0' <= char && char <= '9':
			hasNumber = true
		}
	}

	return hasUpper && hasLower && hasNumber
}

// SanitizeEmail sanitizes an email address
func SanitizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidateRegisterRequest checks the registration form before it is sent
func ValidateRegisterRequest(req dto.RegisterRequest) error {
	fields := make(map[string]string)

	if strings.TrimSpace(req.Name) == "" {
		fields["name"] = "is required"
	}
	if !ValidateEmail(SanitizeEmail(req.Email)) {
		fields["email"] = "invalid email format"
	}
	if strings.TrimSpace(req.Login) == "" {
		fields["login"] = "is required"
	} else if req.Login != req.ConfirmLogin {
		fields["confirmLogin"] = "does not match login"
	}
	if !ValidatePassword(req.Password) {
		fields["password"] = "must be at least 8 characters long and contain uppercase, lowercase, and number"
	} else if req.Password != req.ConfirmPassword {
		fields["confirmPassword"] = "does not match password"
	}

	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

// ValidateLoginRequest checks that both login fields are filled
func ValidateLoginRequest(req dto.LoginRequest) error {
	fields := make(map[string]string)
	if strings.TrimSpace(req.Login) == "" {
		fields["login"] = "is required"
	}
	if req.Password == "" {
		fields["password"] = "is required"
	}
	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}
