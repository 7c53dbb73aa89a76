package users

import (
	"fmt"
	"strings"
	"time"
	"unicode"

	"golang.org/x/crypto/bcrypt"
)

// User is a registered identity. The password exists only as a bcrypt hash;
// plaintext never reaches a repository or a log line.
type User struct {
	ID               string    `json:"id,omitempty"`           // Unique identifier for the user
	Email            string    `json:"email,omitempty"`        // Case-normalized, unique across all users
	PasswordHash     string    `json:"-"`                      // Hashed version of the user's password - never serialize
	Name             string    `json:"name,omitempty"`         // Display name
	EmailVerified    bool      `json:"email_verified"`         // Has the signup email been verified
	TwoFactorEnabled bool      `json:"two_factor_enabled"`     // Email 2FA required on login
	CreatedAt        time.Time `json:"created_at,omitempty"`   // When the user registered
	LastLogin        time.Time `json:"last_login,omitempty"`   // Last successful full login
}

// Summary is the user shape returned to clients after login or via /me.
type Summary struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	Name          string `json:"name"`
	EmailVerified bool   `json:"email_verified"`
}

func (u *User) Summary() *Summary {
	return &Summary{
		ID:            u.ID,
		Email:         u.Email,
		Name:          u.Name,
		EmailVerified: u.EmailVerified,
	}
}

// NormalizeEmail lowercases and trims an email address so that uniqueness
// checks and lookups agree on a single canonical form.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ErrWeakPassword is wrapped by ValidatePasswordStrength failures so callers
// can branch without string matching.
var ErrWeakPassword = fmt.Errorf("weak password")

// ValidatePasswordStrength checks if password meets security requirements:
// - At least 8 characters long
// - Contains uppercase and lowercase letters
// - Contains at least one number
func ValidatePasswordStrength(password string) error {
	if len(password) < 8 {
		return fmt.Errorf("%w: password must be at least 8 characters long", ErrWeakPassword)
	}

	var (
		hasUpper  bool
		hasLower  bool
		hasNumber bool
	)

	for _, char := range password {
		if unicode.IsUpper(char) {
			hasUpper = true
		} else if unicode.IsLower(char) {
			hasLower = true
		} else if unicode.IsDigit(char) {
			hasNumber = true
		}
	}

	if !hasUpper {
		return fmt.Errorf("%w: password must contain at least one uppercase letter", ErrWeakPassword)
	}
	if !hasLower {
		return fmt.Errorf("%w: password must contain at least one lowercase letter", ErrWeakPassword)
	}
	if !hasNumber {
		return fmt.Errorf("%w: password must contain at least one number", ErrWeakPassword)
	}

	return nil
}

func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(bytes), err
}

func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}
