package repository

import "errors"

var (
	// ErrNotFound is returned when a requested entity doesn't exist
	ErrNotFound = errors.New("not found")

	// ErrConflict is returned when a uniqueness constraint fails
	ErrConflict = errors.New("conflict: entity already exists")

	// ErrInvalidInput is returned when a table, column or value is rejected
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnauthorized is returned when credentials or tokens don't resolve to a user
	ErrUnauthorized = errors.New("unauthorized")
)
