package domain

import (
	"time"
	"unicode"

	"golang.org/x/crypto/bcrypt"
)

// Username length bounds.
const (
	MinUsernameLength = 3
	MaxUsernameLength = 50
)

// MinPasswordLength is the minimum accepted password length.
const MinPasswordLength = 8

// User owns a collection of submissions. The password is stored only as a
// bcrypt hash and is never serialized outward.
type User struct {
	// ID is the persisted identifier; zero until the user is stored.
	ID int64

	// Username is unique across users.
	Username string

	// PasswordHash is the bcrypt hash of the user's password.
	PasswordHash string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// ValidateUsername checks the username length and character set.
func ValidateUsername(username string) error {
	if len(username) < MinUsernameLength || len(username) > MaxUsernameLength {
		return NewValidationError("username", "username must be between 3 and 50 characters")
	}
	if !usernameRe.MatchString(username) {
		return NewValidationError("username", "username may only contain letters, digits, underscores and hyphens")
	}
	return nil
}

// ValidatePassword checks the password policy: at least eight characters
// with at least one uppercase letter, one lowercase letter, and one digit.
func ValidatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return NewValidationError("password", "password must be at least 8 characters")
	}
	var upper, lower, digit bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		}
	}
	if !upper || !lower || !digit {
		return NewValidationError("password", "password must contain an uppercase letter, a lowercase letter, and a digit")
	}
	return nil
}

// NewUser builds a user with a validated username and a bcrypt-hashed
// password.
func NewUser(username, password string) (*User, error) {
	if err := ValidateUsername(username); err != nil {
		return nil, err
	}
	u := &User{Username: username}
	if err := u.SetPassword(password); err != nil {
		return nil, err
	}
	return u, nil
}

// SetPassword validates the password policy and stores its bcrypt hash.
func (u *User) SetPassword(password string) error {
	if err := ValidatePassword(password); err != nil {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return NewValidationError("password", "password could not be hashed")
	}
	u.PasswordHash = string(hash)
	return nil
}

// CheckPassword reports whether the password matches the stored hash.
func (u *User) CheckPassword(password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) == nil
}
