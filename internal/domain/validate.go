package domain

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	UsernameMinLen = 3
	UsernameMaxLen = 50
	EmailMinLen    = 6
	EmailMaxLen    = 100
	PasswordMinLen = 6
)

var emailPattern = regexp.MustCompile(`^.+@.+\..+$`)

// NormalizeEmail trims and lowercases an address. It is the identity key
// used for storage and lookups.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// NewAccountInput is a registration request after normalization.
type NewAccountInput struct {
	Username string
	Email    string
	Password string
}

// ValidateNewAccount normalizes username and email and checks every field
// constraint. The password is checked as given; it is never trimmed.
func ValidateNewAccount(username, email, password string) (NewAccountInput, error) {
	in := NewAccountInput{
		Username: strings.TrimSpace(username),
		Email:    NormalizeEmail(email),
		Password: password,
	}

	switch n := utf8.RuneCountInString(in.Username); {
	case n == 0:
		return in, &ValidationError{Field: "username", Reason: "Username is required"}
	case n < UsernameMinLen:
		return in, &ValidationError{Field: "username", Reason: "Username must be at least 3 characters long"}
	case n > UsernameMaxLen:
		return in, &ValidationError{Field: "username", Reason: "Username cannot exceed 50 characters"}
	}

	switch n := utf8.RuneCountInString(in.Email); {
	case n == 0:
		return in, &ValidationError{Field: "email", Reason: "Email is required"}
	case n < EmailMinLen:
		return in, &ValidationError{Field: "email", Reason: "Email must be at least 6 characters long"}
	case n > EmailMaxLen:
		return in, &ValidationError{Field: "email", Reason: "Email cannot exceed 100 characters"}
	case !emailPattern.MatchString(in.Email):
		return in, &ValidationError{Field: "email", Reason: "Please enter a valid email address"}
	}

	switch {
	case in.Password == "":
		return in, &ValidationError{Field: "password", Reason: "Password is required"}
	case utf8.RuneCountInString(in.Password) < PasswordMinLen:
		return in, &ValidationError{Field: "password", Reason: "Password must be at least 6 characters long"}
	}

	return in, nil
}
