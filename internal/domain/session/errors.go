package session

import "errors"

var (
	// ErrUnauthenticated indicates a gated operation ran without a usable session.
	ErrUnauthenticated = errors.New("not authenticated")
	// ErrInvalidCredentials indicates the email/password pair was rejected.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrEmailTaken indicates sign-up with an email that is already registered.
	ErrEmailTaken = errors.New("email already registered")
	// ErrSessionExpired indicates a stored access token no longer resolves.
	ErrSessionExpired = errors.New("session expired")
)
