package todo

import (
	"net/mail"
	"strings"
	"unicode/utf8"
)

const (
	MinTitleLength    = 3
	MaxTitleLength    = 10
	MinPasswordLength = 6
	MaxPasswordLength = 12
)

// ValidateTitle checks a title before it is submitted.
func ValidateTitle(title string) error {
	n := utf8.RuneCountInString(strings.TrimSpace(title))
	if n < MinTitleLength || n > MaxTitleLength {
		return ErrInvalidTitle
	}
	return nil
}

// ValidateCredentials checks an email/password pair before sign-in or sign-up.
func ValidateCredentials(email, password string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return ErrInvalidEmail
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return ErrInvalidEmail
	}
	n := utf8.RuneCountInString(password)
	if n < MinPasswordLength || n > MaxPasswordLength {
		return ErrInvalidPassword
	}
	return nil
}
